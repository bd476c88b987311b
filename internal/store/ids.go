package store

import "github.com/google/uuid"

// UUIDv7Generator issues time-sortable ingest ids.
type UUIDv7Generator struct{}

// Generate panics only if the system random source fails.
func (UUIDv7Generator) Generate() string {
	return uuid.Must(uuid.NewV7()).String()
}
