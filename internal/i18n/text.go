// Package i18n holds localizable text references carried by describe and QA
// payloads. Resolving keys into messages happens outside this module.
package i18n

import (
	"maps"
	"slices"
)

// Text references a message by key, with an optional literal fallback.
type Text struct {
	Key      string  `json:"key"`
	Fallback *string `json:"fallback,omitempty"`
}

// New returns a Text with no fallback.
func New(key string) Text {
	return Text{Key: key}
}

// WithFallback returns a Text with a literal fallback.
func WithFallback(key, fallback string) Text {
	return Text{Key: key, Fallback: &fallback}
}

// String returns the fallback when present, else the key.
func (t Text) String() string {
	if t.Fallback != nil {
		return *t.Fallback
	}
	return t.Key
}

// KeySet collects distinct message keys.
type KeySet map[string]struct{}

// Add records the key of t.
func (s KeySet) Add(t Text) {
	s[t.Key] = struct{}{}
}

// AddOpt records the key of t when t is non-nil.
func (s KeySet) AddOpt(t *Text) {
	if t != nil {
		s.Add(*t)
	}
}

// Sorted returns the keys in ascending order.
func (s KeySet) Sorted() []string {
	return slices.Sorted(maps.Keys(s))
}
