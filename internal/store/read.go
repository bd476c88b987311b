package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/greentic-ai-org/greentic-types/internal/envelope"
)

// ErrNotFound is returned when no envelope has the requested id.
var ErrNotFound = errors.New("envelope not found")

// Record is a stored envelope with its header.
type Record struct {
	Entry
	Envelope *envelope.Envelope
}

// Filter narrows List. Empty fields match everything.
type Filter struct {
	Kind     string
	SchemaID string
}

// Get loads an envelope by id. The body is checked against its digest.
func (s *Store) Get(ctx context.Context, id string) (*Record, error) {
	var (
		e     Entry
		codec string
		data  []byte
	)
	err := s.db.QueryRowContext(ctx, `
		SELECT e.id, e.seq, e.kind, e.schema_id, e.schema_version, e.body_digest, b.size, b.codec, b.data
		FROM envelopes e
		JOIN bodies b ON b.digest = e.body_digest
		WHERE e.id = ?
	`, id).Scan(&e.ID, &e.Seq, &e.Kind, &e.SchemaID, &e.SchemaVersion, &e.Digest, &e.Size, &codec, &data)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("get envelope: %w", err)
	}

	body, err := unpackBody(codec, data, e.Size, e.Digest)
	if err != nil {
		return nil, fmt.Errorf("get envelope %s: %w", id, err)
	}
	return &Record{
		Entry: e,
		Envelope: &envelope.Envelope{
			Kind:          e.Kind,
			SchemaID:      e.SchemaID,
			SchemaVersion: e.SchemaVersion,
			Body:          body,
		},
	}, nil
}

// List returns matching entries ordered by seq, then id.
//
// Returns an empty slice (not nil) when nothing matches.
func (s *Store) List(ctx context.Context, f Filter) ([]Entry, error) {
	return s.queryEntries(ctx, `
		SELECT e.id, e.seq, e.kind, e.schema_id, e.schema_version, e.body_digest, b.size
		FROM envelopes e
		JOIN bodies b ON b.digest = e.body_digest
		WHERE (? = '' OR e.kind = ?) AND (? = '' OR e.schema_id = ?)
		ORDER BY e.seq ASC, e.id COLLATE BINARY ASC
	`, f.Kind, f.Kind, f.SchemaID, f.SchemaID)
}

// ByFingerprint returns the describe envelopes publishing schemaHash on any
// operation.
func (s *Store) ByFingerprint(ctx context.Context, schemaHash string) ([]Entry, error) {
	return s.queryEntries(ctx, `
		SELECT DISTINCT e.id, e.seq, e.kind, e.schema_id, e.schema_version, e.body_digest, b.size
		FROM envelopes e
		JOIN bodies b ON b.digest = e.body_digest
		JOIN operation_hashes h ON h.envelope_id = e.id
		WHERE h.schema_hash = ?
		ORDER BY e.seq ASC, e.id COLLATE BINARY ASC
	`, schemaHash)
}

// OperationHashes lists the fingerprints indexed for a describe envelope,
// ordered by operation id.
func (s *Store) OperationHashes(ctx context.Context, envelopeID string) ([]OperationHash, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT envelope_id, operation_id, schema_hash
		FROM operation_hashes
		WHERE envelope_id = ?
		ORDER BY operation_id COLLATE BINARY ASC
	`, envelopeID)
	if err != nil {
		return nil, fmt.Errorf("query operation hashes: %w", err)
	}
	defer rows.Close()

	out := []OperationHash{}
	for rows.Next() {
		var h OperationHash
		if err := rows.Scan(&h.EnvelopeID, &h.OperationID, &h.SchemaHash); err != nil {
			return nil, fmt.Errorf("scan operation hash: %w", err)
		}
		out = append(out, h)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate operation hashes: %w", err)
	}
	return out, nil
}

func (s *Store) queryEntries(ctx context.Context, query string, args ...any) ([]Entry, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query envelopes: %w", err)
	}
	defer rows.Close()

	out := []Entry{}
	for rows.Next() {
		var e Entry
		if err := rows.Scan(&e.ID, &e.Seq, &e.Kind, &e.SchemaID, &e.SchemaVersion, &e.Digest, &e.Size); err != nil {
			return nil, fmt.Errorf("scan envelope: %w", err)
		}
		out = append(out, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate envelopes: %w", err)
	}
	return out, nil
}
