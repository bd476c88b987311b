package component

import (
	"bytes"
	"errors"
	"fmt"

	"github.com/greentic-ai-org/greentic-types/internal/canonical"
	"github.com/greentic-ai-org/greentic-types/internal/i18n"
)

// ErrInvalidQaMode is returned when parsing an unknown mode name.
var ErrInvalidQaMode = errors.New("invalid QA mode")

// QaMode selects which dialog a component presents.
type QaMode int

const (
	QaDefault QaMode = iota
	QaSetup
	QaUpdate
	QaRemove
)

var qaModeNames = [...]string{"default", "setup", "update", "remove"}

func (m QaMode) String() string {
	if m < 0 || int(m) >= len(qaModeNames) {
		return fmt.Sprintf("QaMode(%d)", int(m))
	}
	return qaModeNames[m]
}

// ParseQaMode accepts the canonical names plus the legacy "upgrade" alias.
func ParseQaMode(s string) (QaMode, error) {
	if s == "upgrade" {
		return QaUpdate, nil
	}
	for i, name := range qaModeNames {
		if s == name {
			return QaMode(i), nil
		}
	}
	return 0, fmt.Errorf("%w: %q", ErrInvalidQaMode, s)
}

// MarshalText always emits the canonical name; "upgrade" is never written.
func (m QaMode) MarshalText() ([]byte, error) {
	if m < 0 || int(m) >= len(qaModeNames) {
		return nil, fmt.Errorf("%w: %d", ErrInvalidQaMode, int(m))
	}
	return []byte(qaModeNames[m]), nil
}

func (m *QaMode) UnmarshalText(text []byte) error {
	parsed, err := ParseQaMode(string(text))
	if err != nil {
		return err
	}
	*m = parsed
	return nil
}

// QaSpec is the question set a component asks in one mode.
type QaSpec struct {
	Mode        QaMode         `json:"mode"`
	Title       i18n.Text      `json:"title"`
	Description *i18n.Text     `json:"description"`
	Questions   []Question     `json:"questions"`
	Defaults    map[string]any `json:"defaults"`
}

// I18nKeys returns every message key the spec references, sorted.
func (s *QaSpec) I18nKeys() []string {
	keys := i18n.KeySet{}
	keys.Add(s.Title)
	keys.AddOpt(s.Description)
	for _, q := range s.Questions {
		keys.Add(q.Label)
		keys.AddOpt(q.Help)
		keys.AddOpt(q.Error)
		for _, opt := range q.Kind.Options {
			keys.Add(opt.Label)
		}
	}
	return keys.Sorted()
}

// Encode writes the spec under the strict float policy.
func (s *QaSpec) Encode() ([]byte, error) {
	return canonical.Marshal(s)
}

// DecodeQaSpec reads a QA spec, ignoring unknown fields.
func DecodeQaSpec(data []byte) (*QaSpec, error) {
	var s QaSpec
	if err := canonical.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("component qa: %w", err)
	}
	return &s, nil
}

// Question is one prompt in a QA spec. Default is any canonical value, or
// nil for none.
type Question struct {
	ID       string       `json:"id"`
	Label    i18n.Text    `json:"label"`
	Help     *i18n.Text   `json:"help"`
	Error    *i18n.Text   `json:"error"`
	Kind     QuestionKind `json:"kind"`
	Required bool         `json:"required"`
	Default  any          `json:"default"`
}

// QuestionType tags a QuestionKind.
type QuestionType int

const (
	QuestionText QuestionType = iota
	QuestionChoice
	QuestionNumber
	QuestionBool
)

var questionTypeNames = [...]string{"text", "choice", "number", "bool"}

func (t QuestionType) String() string {
	if t < 0 || int(t) >= len(questionTypeNames) {
		return fmt.Sprintf("QuestionType(%d)", int(t))
	}
	return questionTypeNames[t]
}

// QuestionKind is internally tagged on the wire: {"type": "choice",
// "options": [...]}. Options is only meaningful for QuestionChoice.
type QuestionKind struct {
	Type    QuestionType
	Options []ChoiceOption
}

// ChoiceOption is one selectable answer.
type ChoiceOption struct {
	Value string    `json:"value"`
	Label i18n.Text `json:"label"`
}

func TextKind() QuestionKind   { return QuestionKind{Type: QuestionText} }
func NumberKind() QuestionKind { return QuestionKind{Type: QuestionNumber} }
func BoolKind() QuestionKind   { return QuestionKind{Type: QuestionBool} }

// ChoiceKind builds a choice question over options.
func ChoiceKind(options ...ChoiceOption) QuestionKind {
	if options == nil {
		options = []ChoiceOption{}
	}
	return QuestionKind{Type: QuestionChoice, Options: options}
}

func (k QuestionKind) CanonicalValue() (canonical.Value, error) {
	if k.Type < 0 || int(k.Type) >= len(questionTypeNames) {
		return nil, fmt.Errorf("%w: question type %d", canonical.ErrUnsupported, int(k.Type))
	}
	m := canonical.Map{"type": canonical.Text(k.Type.String())}
	if k.Type == QuestionChoice {
		options := make(canonical.Array, len(k.Options))
		for i, opt := range k.Options {
			v, err := canonical.FromAny(opt)
			if err != nil {
				return nil, fmt.Errorf("options[%d]: %w", i, err)
			}
			options[i] = v
		}
		m["options"] = options
	}
	return m, nil
}

func (k QuestionKind) MarshalCBOR() ([]byte, error) {
	return canonical.Encode(k, canonical.FloatPermissive)
}

type wireQuestionKind struct {
	Type    string          `json:"type"`
	Options *[]ChoiceOption `json:"options,omitempty"`
}

func (k *QuestionKind) UnmarshalCBOR(data []byte) error {
	if bytes.Equal(data, []byte{0xf6}) {
		return &canonical.DecodeError{Err: fmt.Errorf("%w: question kind is null", canonical.ErrMissingField)}
	}
	var w wireQuestionKind
	if err := canonical.Unmarshal(data, &w); err != nil {
		return err
	}
	for i, name := range questionTypeNames {
		if w.Type != name {
			continue
		}
		*k = QuestionKind{Type: QuestionType(i)}
		if k.Type == QuestionChoice {
			if w.Options == nil {
				return &canonical.DecodeError{Err: fmt.Errorf("%w: choice.options", canonical.ErrMissingField)}
			}
			k.Options = *w.Options
		}
		return nil
	}
	return &canonical.DecodeError{Err: fmt.Errorf("unknown question kind %q", w.Type)}
}
