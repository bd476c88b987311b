package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/greentic-ai-org/greentic-types/internal/canonical"
	"github.com/greentic-ai-org/greentic-types/internal/component"
	"github.com/greentic-ai-org/greentic-types/internal/contracts"
	"github.com/greentic-ai-org/greentic-types/internal/envelope"
)

// Entry is an envelope header as stored.
type Entry struct {
	ID            string `json:"id"`
	Seq           int64  `json:"seq"`
	Kind          string `json:"kind"`
	SchemaID      string `json:"schema_id"`
	SchemaVersion uint32 `json:"schema_version"`
	Digest        string `json:"digest"`
	Size          int    `json:"size"`
}

// OperationHash is a published operation fingerprint from a stored describe.
type OperationHash struct {
	EnvelopeID  string `json:"envelope_id"`
	OperationID string `json:"operation_id"`
	SchemaHash  string `json:"schema_hash"`
}

// Put stores an envelope whose body is canonical under the strict policy.
// Returns the stored entry and whether it was newly inserted; storing an
// identical envelope again returns the existing entry.
//
// Non-canonical bodies are refused with the *canonical.MismatchError (or
// decode error) from the check. The body is never rewritten.
func (s *Store) Put(ctx context.Context, env *envelope.Envelope) (Entry, bool, error) {
	if err := env.EnsureCanonical(); err != nil {
		return Entry{}, false, fmt.Errorf("put envelope: %w", err)
	}
	return s.put(ctx, env, nil)
}

// PutDescribe stores a component describe envelope after checking its
// header, its canonical form, and every operation fingerprint. The
// fingerprints are indexed for ByFingerprint.
//
// Describe metadata may hold float literals, so the body is checked under
// the permissive policy.
func (s *Store) PutDescribe(ctx context.Context, env *envelope.Envelope) (Entry, bool, error) {
	if err := env.Expect(contracts.SchemaComponentDescribe, contracts.ComponentSchemaVersion); err != nil {
		return Entry{}, false, fmt.Errorf("put describe: %w", err)
	}
	if err := canonical.EnsureCanonical(env.Body, canonical.FloatPermissive); err != nil {
		return Entry{}, false, fmt.Errorf("put describe: %w", err)
	}
	d, err := component.DecodeDescribe(env.Body)
	if err != nil {
		return Entry{}, false, fmt.Errorf("put describe: %w", err)
	}
	if err := d.VerifySchemaHashes(); err != nil {
		return Entry{}, false, fmt.Errorf("put describe %s: %w", d.Info.ID, err)
	}

	hashes := make([]OperationHash, len(d.Operations))
	for i, op := range d.Operations {
		hashes[i] = OperationHash{OperationID: op.ID, SchemaHash: op.SchemaHash}
	}
	return s.put(ctx, env, hashes)
}

func (s *Store) put(ctx context.Context, env *envelope.Envelope, hashes []OperationHash) (Entry, bool, error) {
	entry := Entry{
		Kind:          env.Kind,
		SchemaID:      env.SchemaID,
		SchemaVersion: env.SchemaVersion,
		Digest:        Digest(env.Body),
		Size:          len(env.Body),
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return Entry{}, false, fmt.Errorf("put envelope: begin tx: %w", err)
	}
	defer tx.Rollback()

	err = tx.QueryRowContext(ctx, `
		SELECT id, seq FROM envelopes
		WHERE kind = ? AND schema_id = ? AND schema_version = ? AND body_digest = ?
	`, entry.Kind, entry.SchemaID, entry.SchemaVersion, entry.Digest).Scan(&entry.ID, &entry.Seq)
	switch {
	case err == nil:
		s.logger.Debug("envelope already stored",
			"id", entry.ID,
			"schema_id", entry.SchemaID,
			"digest", entry.Digest,
		)
		return entry, false, nil
	case !errors.Is(err, sql.ErrNoRows):
		return Entry{}, false, fmt.Errorf("put envelope: lookup: %w", err)
	}

	codec, data := packBody(env.Body)
	_, err = tx.ExecContext(ctx, `
		INSERT INTO bodies (digest, size, codec, data)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(digest) DO NOTHING
	`, entry.Digest, entry.Size, codec, data)
	if err != nil {
		return Entry{}, false, fmt.Errorf("put envelope: body: %w", err)
	}

	entry.ID = s.ids.Generate()
	entry.Seq = s.clock.Next()
	_, err = tx.ExecContext(ctx, `
		INSERT INTO envelopes (id, seq, kind, schema_id, schema_version, body_digest)
		VALUES (?, ?, ?, ?, ?, ?)
	`, entry.ID, entry.Seq, entry.Kind, entry.SchemaID, entry.SchemaVersion, entry.Digest)
	if err != nil {
		return Entry{}, false, fmt.Errorf("put envelope: %w", err)
	}

	for _, h := range hashes {
		_, err = tx.ExecContext(ctx, `
			INSERT INTO operation_hashes (envelope_id, operation_id, schema_hash)
			VALUES (?, ?, ?)
		`, entry.ID, h.OperationID, h.SchemaHash)
		if err != nil {
			return Entry{}, false, fmt.Errorf("put envelope: operation %q: %w", h.OperationID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return Entry{}, false, fmt.Errorf("put envelope: commit: %w", err)
	}

	s.logger.Info("envelope stored",
		"id", entry.ID,
		"seq", entry.Seq,
		"kind", entry.Kind,
		"schema_id", entry.SchemaID,
		"codec", codec,
		"size", entry.Size,
	)
	return entry, true, nil
}
