package schemair

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"

	"github.com/greentic-ai-org/greentic-types/internal/canonical"
)

// ErrFingerprintMismatch means a published fingerprint does not match the
// one computed from the published schemas. It is always a hard failure.
var ErrFingerprintMismatch = errors.New("schema fingerprint mismatch")

// FingerprintError wraps the encode failure that prevented fingerprinting.
type FingerprintError struct {
	Err error
}

func (e *FingerprintError) Error() string {
	return fmt.Sprintf("schema fingerprint: %v", e.Err)
}

func (e *FingerprintError) Unwrap() error {
	return e.Err
}

// FingerprintMaterial is the aggregate that gets hashed. Field names are
// part of the contract; swapping input and output changes every fingerprint.
func FingerprintMaterial(input, output, config Schema) (canonical.Map, error) {
	m := canonical.Map{}
	for _, part := range []struct {
		name   string
		schema Schema
	}{
		{"input", input},
		{"output", output},
		{"config", config},
	} {
		v, err := part.schema.CanonicalValue()
		if err != nil {
			return nil, fmt.Errorf("%s: %w", part.name, err)
		}
		m[part.name] = v
	}
	return m, nil
}

// Fingerprint computes the stable digest of a schema triple: the strict
// canonical encoding of {input, output, config}, hashed with SHA-256 and
// rendered as 64 lowercase hex characters.
//
// Strict encoding means a Float bound holding an integral value (e.g. 0.0)
// cannot be fingerprinted; use Int bounds or a non-integral value.
func Fingerprint(input, output, config Schema) (string, error) {
	material, err := FingerprintMaterial(input, output, config)
	if err != nil {
		return "", &FingerprintError{Err: err}
	}
	data, err := canonical.Marshal(material)
	if err != nil {
		return "", &FingerprintError{Err: err}
	}
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:]), nil
}

// MustFingerprint is like Fingerprint but panics on error.
// Use only in tests or when the schemas are known to be valid.
func MustFingerprint(input, output, config Schema) string {
	fp, err := Fingerprint(input, output, config)
	if err != nil {
		panic(err)
	}
	return fp
}

// VerifyFingerprint recomputes the fingerprint and compares it with want.
func VerifyFingerprint(want string, input, output, config Schema) error {
	got, err := Fingerprint(input, output, config)
	if err != nil {
		return err
	}
	if got != want {
		return fmt.Errorf("%w: published %s, computed %s", ErrFingerprintMismatch, want, got)
	}
	return nil
}
