// Package contracts holds the static table of which exported component
// function returns which canonical schema id.
package contracts

import (
	"fmt"
	"strings"
)

// ComponentWorld is the versioned world every entry below belongs to.
const ComponentWorld = "greentic:component@0.6.0"

// Canonical schema ids returned by component exports.
const (
	SchemaComponentInfo     = "greentic.component.info@0.6.0"
	SchemaComponentDescribe = "greentic.component.describe@0.6.0"
	SchemaComponentQA       = "greentic.component.qa@0.6.0"
	SchemaComponentConfig   = "greentic.component.config@0.6.0"
	SchemaComponentSchema   = "greentic.component.schema@0.6.0"
)

// ComponentSchemaVersion is the schema_version carried by every 0.6.0 payload.
const ComponentSchemaVersion uint32 = 6

// ReturnSchema maps one exported function to the schema of its result.
type ReturnSchema struct {
	World     string `json:"world"`
	Interface string `json:"interface"`
	Func      string `json:"func"`
	SchemaID  string `json:"schema_id"`
	Version   uint32 `json:"version"`
}

func (r ReturnSchema) String() string {
	return fmt.Sprintf("%s/%s.%s -> %s (v%d)", r.World, r.Interface, r.Func, r.SchemaID, r.Version)
}

var witReturns = []ReturnSchema{
	{ComponentWorld, "component-descriptor", "get-component-info", SchemaComponentInfo, ComponentSchemaVersion},
	{ComponentWorld, "component-descriptor", "describe", SchemaComponentDescribe, ComponentSchemaVersion},
	{ComponentWorld, "component-qa", "qa-spec", SchemaComponentQA, ComponentSchemaVersion},
	{ComponentWorld, "component-qa", "apply-answers", SchemaComponentConfig, ComponentSchemaVersion},
	{ComponentWorld, "component-schema", "input-schema", SchemaComponentSchema, ComponentSchemaVersion},
	{ComponentWorld, "component-schema", "output-schema", SchemaComponentSchema, ComponentSchemaVersion},
	{ComponentWorld, "component-schema", "config-schema", SchemaComponentSchema, ComponentSchemaVersion},
}

// WitReturns returns a copy of the mapping table in declaration order.
func WitReturns() []ReturnSchema {
	out := make([]ReturnSchema, len(witReturns))
	copy(out, witReturns)
	return out
}

// Lookup finds the entry for an interface function.
func Lookup(iface, fn string) (ReturnSchema, bool) {
	for _, r := range witReturns {
		if r.Interface == iface && r.Func == fn {
			return r, true
		}
	}
	return ReturnSchema{}, false
}

// MustLookup is like Lookup but panics when the entry does not exist.
// Use only with the literal names of the table above.
func MustLookup(iface, fn string) ReturnSchema {
	r, ok := Lookup(iface, fn)
	if !ok {
		panic(fmt.Sprintf("contracts: no return schema for %s.%s", iface, fn))
	}
	return r
}

// BySchemaID lists every function that returns schemaID.
func BySchemaID(schemaID string) []ReturnSchema {
	var out []ReturnSchema
	for _, r := range witReturns {
		if r.SchemaID == schemaID {
			out = append(out, r)
		}
	}
	return out
}

// SchemaVersion reports the version declared for schemaID.
func SchemaVersion(schemaID string) (uint32, bool) {
	for _, r := range witReturns {
		if r.SchemaID == schemaID {
			return r.Version, true
		}
	}
	return 0, false
}

// SchemaFamily strips the "@version" suffix: "greentic.component.qa@0.6.0"
// becomes "greentic.component.qa".
func SchemaFamily(schemaID string) string {
	family, _, _ := strings.Cut(schemaID, "@")
	return family
}
