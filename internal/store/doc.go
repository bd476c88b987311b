// Package store is a SQLite registry of canonical envelopes.
//
// The registry sits at the boundary where payloads arrive from other
// runtimes. It refuses anything that is not already canonical, so every
// stored body re-encodes to itself:
//   - Put checks the body with envelope.EnsureCanonical and never rewrites it
//   - PutDescribe additionally recomputes every operation fingerprint
//
// # Storage
//
// Bodies are content-addressed by a keyed BLAKE3 digest and stored once,
// zstd-compressed when that saves space. Envelopes reference a body by
// digest and are unique per (kind, schema_id, schema_version, body), so
// storing the same envelope twice returns the existing record.
//
// Ordering uses a logical seq column, never timestamps. Every listing is
// ORDER BY seq ASC, id ASC COLLATE BINARY.
//
// # Database Configuration
//
//   - WAL mode: concurrent reads during writes
//   - synchronous=NORMAL
//   - busy_timeout=5000
//   - foreign_keys=ON
package store
