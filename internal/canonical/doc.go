// Package canonical implements the deterministic binary encoding shared by
// every greentic payload: a fixed CBOR (RFC 8949) profile in which one logical
// value has exactly one valid byte sequence.
//
// This package is the foundation layer. All other internal packages may import
// canonical; canonical imports nothing internal.
//
// Profile rules:
//   - Heads use the shortest argument form; no indefinite lengths; no tags
//   - Map keys are text and are written in ascending raw-byte order,
//     independent of the caller's map or insertion order
//   - Integers use major type 0 or 1 at minimal width
//   - Text must be valid UTF-8 and is never normalized
//   - Floats use the shortest IEEE-754 width that holds the value exactly
//
// Two float policies exist and are always passed explicitly. FloatStrict
// rejects NaN, infinities and floats with an integral value. FloatPermissive
// accepts any float and is meant for example payloads such as fixture
// defaults. Fingerprints and envelopes use FloatStrict.
//
// Decoding is forward compatible: unknown map entries are dropped when
// decoding into a Go struct, while missing required fields are reported. A
// struct field is required unless it is a pointer, is tagged omitempty, or
// carries the `canonical:"default"` marker.
//
//	data, err := canonical.Marshal(value)
//	err = canonical.Unmarshal(data, &value)
//	err = canonical.EnsureCanonical(data, canonical.FloatStrict)
package canonical
