package pack

import (
	"bytes"
	"errors"
	"fmt"

	"github.com/greentic-ai-org/greentic-types/internal/canonical"
)

var (
	ErrMissingInline    = errors.New("capabilities extension missing inline payload")
	ErrUnexpectedInline = errors.New("capabilities extension inline payload has unexpected type")
	ErrInlineShape      = errors.New("inline payload must hold exactly one of provider or other")
)

// Extensions maps an extension id to its reference.
type Extensions map[string]ExtensionRef

// ExtensionRef describes one extension: inline, or fetched from location and
// checked against digest.
type ExtensionRef struct {
	Kind     string  `json:"kind"`
	Version  string  `json:"version"`
	Digest   *string `json:"digest,omitempty"`
	Location *string `json:"location,omitempty"`
	Inline   *Inline `json:"inline,omitempty"`
}

// Inline is an inline extension payload. Exactly one field is set.
//
// Wire form is {"provider": {...}} or {"other": <value>}.
type Inline struct {
	Provider *ProviderInline
	Other    canonical.Value
}

// ProviderInline lists the providers a pack registers.
type ProviderInline struct {
	Providers []ProviderDecl `json:"providers"`
}

// ProviderDecl is one provider registration.
type ProviderDecl struct {
	ProviderType string   `json:"provider_type"`
	Ops          []string `json:"ops"`
}

func (in Inline) CanonicalValue() (canonical.Value, error) {
	switch {
	case in.Provider != nil && in.Other == nil:
		v, err := canonical.FromAny(in.Provider)
		if err != nil {
			return nil, fmt.Errorf("provider: %w", err)
		}
		return canonical.Map{"provider": v}, nil
	case in.Provider == nil && in.Other != nil:
		return canonical.Map{"other": in.Other}, nil
	}
	return nil, fmt.Errorf("%w: %w", canonical.ErrUnsupported, ErrInlineShape)
}

func (in Inline) MarshalCBOR() ([]byte, error) {
	return canonical.Encode(in, canonical.FloatPermissive)
}

func (in *Inline) UnmarshalCBOR(data []byte) error {
	if bytes.Equal(data, []byte{0xf6}) {
		return &canonical.DecodeError{Err: fmt.Errorf("%w: inline is null", canonical.ErrMissingField)}
	}
	v, err := canonical.DecodeValue(data)
	if err != nil {
		return err
	}
	m, ok := v.(canonical.Map)
	if !ok || len(m) != 1 {
		return &canonical.DecodeError{Err: ErrInlineShape}
	}
	if other, ok := m["other"]; ok {
		*in = Inline{Other: other}
		return nil
	}
	raw, ok := m["provider"]
	if !ok {
		return &canonical.DecodeError{Err: fmt.Errorf("%w: got key %q", ErrInlineShape, m.SortedKeys()[0])}
	}
	body, err := canonical.MarshalAllowFloats(raw)
	if err != nil {
		return &canonical.DecodeError{Err: err}
	}
	var p ProviderInline
	if err := canonical.Unmarshal(body, &p); err != nil {
		return err
	}
	*in = Inline{Provider: &p}
	return nil
}

// SetCapabilitiesV1 validates payload and stores it inline under
// ExtCapabilitiesV1, replacing any previous entry.
func (e *Extensions) SetCapabilitiesV1(payload *CapabilitiesV1) error {
	if err := payload.Validate(); err != nil {
		return err
	}
	v, err := canonical.FromAny(payload)
	if err != nil {
		return fmt.Errorf("capabilities extension: %w", err)
	}
	if *e == nil {
		*e = Extensions{}
	}
	(*e)[ExtCapabilitiesV1] = ExtensionRef{
		Kind:    ExtCapabilitiesV1,
		Version: "1.0.0",
		Inline:  &Inline{Other: v},
	}
	return nil
}

// CapabilitiesV1 returns the capabilities payload, or nil when the
// extension is absent.
func (e Extensions) CapabilitiesV1() (*CapabilitiesV1, error) {
	ref, ok := e[ExtCapabilitiesV1]
	if !ok {
		return nil, nil
	}
	if ref.Inline == nil {
		return nil, ErrMissingInline
	}
	if ref.Inline.Other == nil {
		return nil, ErrUnexpectedInline
	}
	data, err := canonical.Marshal(ref.Inline.Other)
	if err != nil {
		return nil, fmt.Errorf("capabilities extension: %w", err)
	}
	return DecodeCapabilitiesV1(data)
}

// Encode writes the extensions map canonically.
func (e Extensions) Encode() ([]byte, error) {
	return canonical.MarshalAllowFloats(e)
}

// DecodeExtensions reads an extensions map, ignoring unknown fields.
func DecodeExtensions(data []byte) (Extensions, error) {
	var e Extensions
	if err := canonical.Unmarshal(data, &e); err != nil {
		return nil, fmt.Errorf("pack extensions: %w", err)
	}
	return e, nil
}
