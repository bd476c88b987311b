// Package pack holds pack-level extension payloads, currently the
// declarative capability offers extension.
package pack

import (
	"cmp"
	"errors"
	"fmt"
	"slices"
	"strings"

	"github.com/greentic-ai-org/greentic-types/internal/canonical"
)

// ExtCapabilitiesV1 is the extension id for capability offers.
const ExtCapabilitiesV1 = "greentic.ext.capabilities.v1"

// CapabilitiesSchemaVersion is the only payload version this package accepts.
const CapabilitiesSchemaVersion = 1

var (
	ErrUnsupportedVersion = errors.New("unsupported capabilities extension schema_version")
	ErrMissingSetup       = errors.New("requires setup but setup is missing")
	ErrInvalidSetupQaRef  = errors.New("has empty setup.qa_ref")
)

// OfferError reports a validation failure on one offer.
type OfferError struct {
	OfferID string
	Err     error
}

func (e *OfferError) Error() string {
	return fmt.Sprintf("capabilities extension offer %q %v", e.OfferID, e.Err)
}

func (e *OfferError) Unwrap() error { return e.Err }

// CapabilitiesV1 is the capabilities extension payload.
type CapabilitiesV1 struct {
	SchemaVersion uint32  `json:"schema_version"`
	Offers        []Offer `json:"offers"`
}

// Offer is one capability a pack provides. Candidates are ordered by
// ascending Priority, with OfferID breaking ties.
type Offer struct {
	OfferID       string      `json:"offer_id"`
	CapID         string      `json:"cap_id"`
	Version       string      `json:"version"`
	Provider      ProviderRef `json:"provider"`
	Scope         *Scope      `json:"scope,omitempty"`
	Priority      int32       `json:"priority" canonical:"default"`
	RequiresSetup bool        `json:"requires_setup" canonical:"default"`
	Setup         *Setup      `json:"setup,omitempty"`
	AppliesTo     *AppliesTo  `json:"applies_to,omitempty"`
}

// ProviderRef names the component operation that serves an offer.
type ProviderRef struct {
	ComponentRef string `json:"component_ref"`
	Op           string `json:"op"`
}

// Scope restricts an offer. An empty list places no restriction.
type Scope struct {
	Envs    []string `json:"envs,omitempty"`
	Tenants []string `json:"tenants,omitempty"`
	Teams   []string `json:"teams,omitempty"`
}

// Setup points at the pack-relative QA spec run before first use.
type Setup struct {
	QaRef string `json:"qa_ref"`
}

// AppliesTo limits hook capabilities to exact operation names.
type AppliesTo struct {
	OpNames []string `json:"op_names,omitempty"`
}

// NewCapabilitiesV1 returns a version 1 payload.
func NewCapabilitiesV1(offers ...Offer) *CapabilitiesV1 {
	if offers == nil {
		offers = []Offer{}
	}
	return &CapabilitiesV1{SchemaVersion: CapabilitiesSchemaVersion, Offers: offers}
}

// Validate checks the schema version and per-offer setup rules.
func (c *CapabilitiesV1) Validate() error {
	if c.SchemaVersion != CapabilitiesSchemaVersion {
		return fmt.Errorf("%w %d", ErrUnsupportedVersion, c.SchemaVersion)
	}
	for _, o := range c.Offers {
		if o.RequiresSetup && o.Setup == nil {
			return &OfferError{OfferID: o.OfferID, Err: ErrMissingSetup}
		}
		if o.Setup != nil && strings.TrimSpace(o.Setup.QaRef) == "" {
			return &OfferError{OfferID: o.OfferID, Err: ErrInvalidSetupQaRef}
		}
	}
	return nil
}

// Encode writes the payload canonically.
func (c *CapabilitiesV1) Encode() ([]byte, error) {
	return canonical.Marshal(c)
}

// DecodeCapabilitiesV1 reads and validates a payload.
func DecodeCapabilitiesV1(data []byte) (*CapabilitiesV1, error) {
	var c CapabilitiesV1
	if err := canonical.Unmarshal(data, &c); err != nil {
		return nil, fmt.Errorf("capabilities extension: %w", err)
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return &c, nil
}

// Candidates returns the offers for capID in selection order: ascending
// priority, then offer id.
func (c *CapabilitiesV1) Candidates(capID string) []Offer {
	var out []Offer
	for _, o := range c.Offers {
		if o.CapID == capID {
			out = append(out, o)
		}
	}
	slices.SortStableFunc(out, func(a, b Offer) int {
		return cmp.Or(cmp.Compare(a.Priority, b.Priority), strings.Compare(a.OfferID, b.OfferID))
	})
	return out
}

// Allows reports whether the scope admits the given env, tenant and team.
// A nil scope admits everything.
func (s *Scope) Allows(env, tenant, team string) bool {
	if s == nil {
		return true
	}
	return admits(s.Envs, env) && admits(s.Tenants, tenant) && admits(s.Teams, team)
}

func admits(list []string, v string) bool {
	return len(list) == 0 || slices.Contains(list, v)
}

// AppliesToOp reports whether a hook offer covers op. Offers without
// applies_to cover every operation.
func (o *Offer) AppliesToOp(op string) bool {
	if o.AppliesTo == nil || len(o.AppliesTo.OpNames) == 0 {
		return true
	}
	return slices.Contains(o.AppliesTo.OpNames, op)
}
