// Package harness runs cross-implementation conformance vectors.
//
// A suite is a YAML file listing vectors. Every conforming encoder, in any
// language, must reproduce the expected bytes and fingerprints exactly, so
// the same files can be fed to other implementations.
//
// # Suite Format
//
//	name: core
//	description: "What this suite pins down"
//	vectors:
//	  - name: key_order
//	    kind: value
//	    value: {b: 1, a: 2}
//	    hex: a2616102616201
//	  - name: integral_float
//	    kind: value
//	    value: 1.0
//	    error: integral_float
//	  - name: contract_triple
//	    kind: fingerprint
//	    source: triple.cue
//	    fingerprint: ccb387...
//	  - name: unsorted_map
//	    kind: check
//	    hex: a2616201616101
//	    error: not_canonical
//	  - name: qa_envelope
//	    kind: envelope
//	    envelope: {kind: qa, schema_id: greentic.component.qa, schema_version: 6}
//	    value: {a: 0.5}
//	    hex: a464626f6479...
//
// # Vector Kinds
//
//   - value: encode an authored value under a float policy
//   - fingerprint: compile a schema triple and fingerprint it
//   - check: run the canonical-form check over raw bytes
//   - envelope: wrap a value and encode the envelope
//
// Values are written inline (YAML tags pick the type: !!binary for bytes,
// !!int for integers that overflow 64 bits) or loaded from a CUE, YAML or
// JSON source next to the suite file. Expected failures name an error kind
// (see ErrorKind) instead of bytes.
//
// # Golden Reports
//
// RunWithGolden compares a suite's report against
// testdata/golden/<suite>.golden. Regenerate with:
//
//	go test ./internal/harness -update
package harness
