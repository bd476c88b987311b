// Package envelope wraps canonical payloads with a kind, a schema id and a
// schema version so they can evolve without breaking older readers.
//
// An envelope owns its body bytes. Bodies are produced with the strict
// float policy and may be decoded any number of times; unknown fields in a
// body are dropped on decode. EnsureCanonical catches producers that wrote
// non-canonical bytes. It reports them and never rewrites the body.
package envelope

import (
	"errors"
	"fmt"

	"github.com/greentic-ai-org/greentic-types/internal/canonical"
	"github.com/greentic-ai-org/greentic-types/internal/contracts"
)

// ErrSchemaMismatch is returned by Expect when the header names another schema.
var ErrSchemaMismatch = errors.New("envelope schema mismatch")

// Envelope is a versioned wrapper around a canonical body.
type Envelope struct {
	Kind          string `json:"kind"`
	SchemaID      string `json:"schema_id"`
	SchemaVersion uint32 `json:"schema_version"`
	Body          []byte `json:"body"`
}

// New encodes v under the strict policy and wraps it.
func New(kind, schemaID string, version uint32, v any) (*Envelope, error) {
	body, err := canonical.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("envelope %s body: %w", schemaID, err)
	}
	return &Envelope{
		Kind:          kind,
		SchemaID:      schemaID,
		SchemaVersion: version,
		Body:          body,
	}, nil
}

// NewFor wraps v with the schema id and version that ret declares.
func NewFor(ret contracts.ReturnSchema, kind string, v any) (*Envelope, error) {
	return New(kind, ret.SchemaID, ret.Version, v)
}

// DecodeBody decodes the body into v, ignoring fields v does not know.
func (e *Envelope) DecodeBody(v any) error {
	if err := canonical.Unmarshal(e.Body, v); err != nil {
		return fmt.Errorf("envelope %s body: %w", e.SchemaID, err)
	}
	return nil
}

// EnsureCanonical fails with a *canonical.MismatchError when re-encoding the
// decoded body does not reproduce the stored bytes exactly.
func (e *Envelope) EnsureCanonical() error {
	if err := canonical.EnsureCanonical(e.Body, canonical.FloatStrict); err != nil {
		return fmt.Errorf("envelope %s body: %w", e.SchemaID, err)
	}
	return nil
}

// Expect checks the header against the schema a consumer is prepared to read.
func (e *Envelope) Expect(schemaID string, version uint32) error {
	if e.SchemaID != schemaID || e.SchemaVersion != version {
		return fmt.Errorf("%w: have %s v%d, want %s v%d",
			ErrSchemaMismatch, e.SchemaID, e.SchemaVersion, schemaID, version)
	}
	return nil
}

// Marshal encodes the envelope itself canonically.
func (e *Envelope) Marshal() ([]byte, error) {
	return canonical.Marshal(e)
}

// Decode reads an envelope. All four header fields are required.
func Decode(data []byte) (*Envelope, error) {
	var e Envelope
	if err := canonical.Unmarshal(data, &e); err != nil {
		return nil, fmt.Errorf("envelope: %w", err)
	}
	return &e, nil
}

func (e *Envelope) String() string {
	return fmt.Sprintf("%s %s v%d (%d body bytes)", e.Kind, e.SchemaID, e.SchemaVersion, len(e.Body))
}
