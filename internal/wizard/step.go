package wizard

import (
	"bytes"
	"fmt"

	"github.com/greentic-ai-org/greentic-types/internal/canonical"
)

// Action is the sealed set of step variants.
type Action interface {
	StepType() string
	action()
}

// Step wraps an Action. Wire form is internally tagged:
// {"type": "run_cli", "command": ..., "args": [...]}.
type Step struct {
	Action
}

// EnsureDir creates directories.
type EnsureDir struct {
	Paths []string `json:"paths"`
}

// WriteFiles writes UTF-8 content keyed by relative path.
type WriteFiles struct {
	Files map[string]string `json:"files"`
}

// RunCli invokes a command. Legacy bridge for wizards not yet expressed
// as plans.
type RunCli struct {
	Command string   `json:"command"`
	Args    []string `json:"args,omitempty"`
}

// Delegate hands part of the plan to another wizard. PrefilledAnswers
// allows deterministic replay; OutputMap renames delegate outputs.
type Delegate struct {
	Target           Target            `json:"target"`
	ID               ID                `json:"id"`
	Mode             Mode              `json:"mode"`
	PrefilledAnswers map[string]any    `json:"prefilled_answers,omitempty"`
	OutputMap        map[string]string `json:"output_map,omitempty"`
}

func (EnsureDir) StepType() string  { return "ensure_dir" }
func (WriteFiles) StepType() string { return "write_files" }
func (RunCli) StepType() string     { return "run_cli" }
func (Delegate) StepType() string   { return "delegate" }

func (EnsureDir) action()  {}
func (WriteFiles) action() {}
func (RunCli) action()     {}
func (Delegate) action()   {}

// Of wraps an action as a step.
func Of(a Action) Step { return Step{Action: a} }

func (s Step) CanonicalValue() (canonical.Value, error) {
	if s.Action == nil {
		return nil, fmt.Errorf("%w: %w", canonical.ErrUnsupported, ErrNoAction)
	}
	v, err := canonical.FromAny(s.Action)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", s.StepType(), err)
	}
	m, ok := v.(canonical.Map)
	if !ok {
		return nil, fmt.Errorf("%w: %s step lowered to %T", canonical.ErrUnsupported, s.StepType(), v)
	}
	m["type"] = canonical.Text(s.StepType())
	return m, nil
}

func (s Step) MarshalCBOR() ([]byte, error) {
	return canonical.Encode(s, canonical.FloatPermissive)
}

func (s *Step) UnmarshalCBOR(data []byte) error {
	if bytes.Equal(data, []byte{0xf6}) {
		return &canonical.DecodeError{Err: fmt.Errorf("%w: step is null", canonical.ErrMissingField)}
	}
	var head struct {
		Type string `json:"type"`
	}
	if err := canonical.Unmarshal(data, &head); err != nil {
		return err
	}

	var err error
	switch head.Type {
	case "ensure_dir":
		var a EnsureDir
		err = canonical.Unmarshal(data, &a)
		s.Action = a
	case "write_files":
		var a WriteFiles
		err = canonical.Unmarshal(data, &a)
		s.Action = a
	case "run_cli":
		var a RunCli
		err = canonical.Unmarshal(data, &a)
		s.Action = a
	case "delegate":
		var a Delegate
		err = canonical.Unmarshal(data, &a)
		s.Action = a
	default:
		return &canonical.DecodeError{Err: fmt.Errorf("%w %q", ErrUnknownStep, head.Type)}
	}
	return err
}
