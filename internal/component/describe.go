// Package component defines the v0.6.0 component describe and QA payloads.
//
// These are plain records that travel through the canonical encoder and
// envelopes. Local rules (operation fingerprints, QA mode aliases) sit on
// top and propagate encoder failures unchanged.
package component

import (
	"errors"
	"fmt"

	"github.com/greentic-ai-org/greentic-types/internal/canonical"
	"github.com/greentic-ai-org/greentic-types/internal/i18n"
	"github.com/greentic-ai-org/greentic-types/internal/schemair"
)

// Info is the component's identity.
type Info struct {
	ID          string     `json:"id"`
	Version     string     `json:"version"`
	Role        string     `json:"role"`
	DisplayName *i18n.Text `json:"display_name"`
}

// Describe is the component description returned by the describe export.
// ConfigSchema is authoritative for every operation's fingerprint.
type Describe struct {
	Info                 Info            `json:"info"`
	ProvidedCapabilities []string        `json:"provided_capabilities"`
	RequiredCapabilities []string        `json:"required_capabilities"`
	Metadata             map[string]any  `json:"metadata"`
	Operations           []Operation     `json:"operations"`
	ConfigSchema         schemair.Schema `json:"config_schema"`
}

// Operation is one callable entry point.
type Operation struct {
	ID          string          `json:"id"`
	DisplayName *i18n.Text      `json:"display_name"`
	Input       RunInput        `json:"input"`
	Output      RunOutput       `json:"output"`
	Defaults    map[string]any  `json:"defaults" canonical:"default"`
	Redactions  []RedactionRule `json:"redactions" canonical:"default"`
	Constraints map[string]any  `json:"constraints" canonical:"default"`
	SchemaHash  string          `json:"schema_hash"`
}

type RunInput struct {
	Schema schemair.Schema `json:"schema"`
}

type RunOutput struct {
	Schema schemair.Schema `json:"schema"`
}

// RedactionRule hides the value at a JSON pointer.
type RedactionRule struct {
	JSONPointer string        `json:"json_pointer"`
	Kind        RedactionKind `json:"kind"`
}

// RedactionKind is how a redacted value is treated.
type RedactionKind int

const (
	RedactSecret RedactionKind = iota // never displayed
	RedactMask                        // displayed masked
	RedactDrop                        // removed from output and logs
)

var redactionNames = [...]string{"secret", "mask", "drop"}

func (k RedactionKind) String() string {
	if k < 0 || int(k) >= len(redactionNames) {
		return fmt.Sprintf("RedactionKind(%d)", int(k))
	}
	return redactionNames[k]
}

func (k RedactionKind) MarshalText() ([]byte, error) {
	if k < 0 || int(k) >= len(redactionNames) {
		return nil, fmt.Errorf("invalid redaction kind %d", int(k))
	}
	return []byte(redactionNames[k]), nil
}

func (k *RedactionKind) UnmarshalText(text []byte) error {
	for i, name := range redactionNames {
		if string(text) == name {
			*k = RedactionKind(i)
			return nil
		}
	}
	return fmt.Errorf("invalid redaction kind %q", text)
}

// NewOperation builds an operation and computes its schema hash from the
// input, output and component config schemas.
func NewOperation(id string, input, output, config schemair.Schema) (Operation, error) {
	hash, err := schemair.Fingerprint(input, output, config)
	if err != nil {
		return Operation{}, fmt.Errorf("operation %q: %w", id, err)
	}
	return Operation{
		ID:          id,
		Input:       RunInput{Schema: input},
		Output:      RunOutput{Schema: output},
		Defaults:    map[string]any{},
		Redactions:  []RedactionRule{},
		Constraints: map[string]any{},
		SchemaHash:  hash,
	}, nil
}

// VerifySchemaHashes recomputes every operation's fingerprint against the
// component config schema. Every mismatching operation is reported.
func (d *Describe) VerifySchemaHashes() error {
	var errs []error
	for _, op := range d.Operations {
		err := schemair.VerifyFingerprint(op.SchemaHash, op.Input.Schema, op.Output.Schema, d.ConfigSchema)
		if err != nil {
			errs = append(errs, fmt.Errorf("operation %q: %w", op.ID, err))
		}
	}
	return errors.Join(errs...)
}

// Operation returns the operation with the given id.
func (d *Describe) Operation(id string) (Operation, bool) {
	for _, op := range d.Operations {
		if op.ID == id {
			return op, true
		}
	}
	return Operation{}, false
}

// Encode writes the describe payload. Metadata and defaults may hold
// example literals, so the permissive float policy applies.
func (d *Describe) Encode() ([]byte, error) {
	return canonical.MarshalAllowFloats(d)
}

// DecodeDescribe reads a describe payload, ignoring unknown fields.
func DecodeDescribe(data []byte) (*Describe, error) {
	var d Describe
	if err := canonical.Unmarshal(data, &d); err != nil {
		return nil, fmt.Errorf("component describe: %w", err)
	}
	return &d, nil
}
