// Package wizard defines deterministic wizard plans: an ordered list of
// filesystem, CLI, and delegation steps produced by a wizard and replayed by
// its caller.
package wizard

import (
	"errors"
	"fmt"
	"slices"

	"github.com/greentic-ai-org/greentic-types/internal/canonical"
)

var (
	ErrUnknownTarget = errors.New("unknown wizard target")
	ErrUnknownMode   = errors.New("unknown wizard mode")
	ErrUnknownStep   = errors.New("unknown wizard step")
	ErrNoAction      = errors.New("step has no action")
)

// ID identifies a wizard.
type ID string

// Target is the system that executes a plan.
type Target int

const (
	TargetComponent Target = iota
	TargetFlow
	TargetPack
	TargetOperator
	TargetDev
	TargetBundle
)

var targetNames = [...]string{"component", "flow", "pack", "operator", "dev", "bundle"}

func (t Target) String() string { return enumName(targetNames[:], int(t), "Target") }

func (t Target) MarshalText() ([]byte, error) {
	return marshalEnum(targetNames[:], int(t), ErrUnknownTarget)
}

func (t *Target) UnmarshalText(text []byte) error {
	return unmarshalEnum(targetNames[:], text, func(i int) { *t = Target(i) }, ErrUnknownTarget)
}

// Mode is the requested execution mode.
type Mode int

const (
	ModeDefault Mode = iota
	ModeSetup
	ModeUpdate
	ModeRemove
	ModeScaffold
	ModeBuild
	ModeNew
)

var modeNames = [...]string{"default", "setup", "update", "remove", "scaffold", "build", "new"}

func (m Mode) String() string { return enumName(modeNames[:], int(m), "Mode") }

func (m Mode) MarshalText() ([]byte, error) {
	return marshalEnum(modeNames[:], int(m), ErrUnknownMode)
}

func (m *Mode) UnmarshalText(text []byte) error {
	return unmarshalEnum(modeNames[:], text, func(i int) { *m = Mode(i) }, ErrUnknownMode)
}

// Meta is the plan's routing identity.
type Meta struct {
	ID     ID     `json:"id"`
	Target Target `json:"target"`
	Mode   Mode   `json:"mode"`
}

// Plan is an ordered list of steps.
type Plan struct {
	Meta  Meta   `json:"meta"`
	Steps []Step `json:"steps"`
}

// Encode writes the plan canonically. Prefilled answers are arbitrary
// values, so floats are allowed.
func (p *Plan) Encode() ([]byte, error) {
	return canonical.MarshalAllowFloats(p)
}

// DecodePlan reads a plan, ignoring unknown fields.
func DecodePlan(data []byte) (*Plan, error) {
	var p Plan
	if err := canonical.Unmarshal(data, &p); err != nil {
		return nil, fmt.Errorf("wizard plan: %w", err)
	}
	return &p, nil
}

// Delegations returns the plan's delegate steps in order.
func (p *Plan) Delegations() []Delegate {
	var out []Delegate
	for _, s := range p.Steps {
		if d, ok := s.Action.(Delegate); ok {
			out = append(out, d)
		}
	}
	return out
}

func enumName(names []string, i int, typ string) string {
	if i < 0 || i >= len(names) {
		return fmt.Sprintf("%s(%d)", typ, i)
	}
	return names[i]
}

func marshalEnum(names []string, i int, sentinel error) ([]byte, error) {
	if i < 0 || i >= len(names) {
		return nil, fmt.Errorf("%w: %d", sentinel, i)
	}
	return []byte(names[i]), nil
}

func unmarshalEnum(names []string, text []byte, set func(int), sentinel error) error {
	i := slices.Index(names, string(text))
	if i < 0 {
		return fmt.Errorf("%w: %q", sentinel, text)
	}
	set(i)
	return nil
}
