package canonical

import (
	"errors"
	"fmt"
)

// Encode failure kinds. Match with errors.Is.
var (
	ErrNonFinite     = errors.New("non-finite float under strict policy")
	ErrIntegralFloat = errors.New("float with integral value under strict policy")
	ErrUnsupported   = errors.New("unsupported value")
	ErrInvalidUTF8   = errors.New("text is not valid UTF-8")
	ErrIntRange      = errors.New("integer out of encodable range")
	ErrNonTextKey    = errors.New("map key is not text")
)

// ErrMissingField is wrapped by DecodeError when a required field is absent.
var ErrMissingField = errors.New("missing required field")

// ErrNotCanonical is wrapped by MismatchError.
var ErrNotCanonical = errors.New("bytes are not in canonical form")

// EncodeError reports a value that has no canonical representation.
// It is never recovered by coercing the value.
type EncodeError struct {
	Err error
}

func (e *EncodeError) Error() string {
	return fmt.Sprintf("canonical encode: %v", e.Err)
}

func (e *EncodeError) Unwrap() error {
	return e.Err
}

// DecodeError reports bytes that do not parse, or a parsed value missing a
// required field. Unknown extra fields never produce a DecodeError.
type DecodeError struct {
	Err error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("canonical decode: %v", e.Err)
}

func (e *DecodeError) Unwrap() error {
	return e.Err
}

// MismatchError reports that re-encoding decoded bytes did not reproduce
// them. This is a producer bug and must be surfaced, not corrected.
type MismatchError struct {
	Offset       int // first differing byte
	StoredLen    int
	CanonicalLen int
}

func (e *MismatchError) Error() string {
	return fmt.Sprintf("canonical mismatch: stored %d bytes, canonical %d bytes, first difference at offset %d",
		e.StoredLen, e.CanonicalLen, e.Offset)
}

func (e *MismatchError) Unwrap() error {
	return ErrNotCanonical
}
