package harness

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// Suite is a named list of conformance vectors.
type Suite struct {
	// Name identifies the suite and names its golden report.
	Name string `yaml:"name"`

	// Description explains what the suite pins down.
	Description string `yaml:"description"`

	Vectors []Vector `yaml:"vectors"`

	// dir resolves vector sources. Empty means the working directory.
	dir string
}

// Vector is one conformance case. Which fields apply depends on Kind.
type Vector struct {
	Name string `yaml:"name"`
	Kind string `yaml:"kind"`

	// Policy is "strict" (default) or "permissive".
	Policy string `yaml:"policy,omitempty"`

	// Value is the authored value for value and envelope vectors.
	Value yaml.Node `yaml:"value,omitempty"`

	// Triple is an inline {input, output, config} schema document.
	Triple yaml.Node `yaml:"triple,omitempty"`

	// Source is a CUE, YAML or JSON file relative to the suite file. It
	// replaces Value or Triple.
	Source string `yaml:"source,omitempty"`

	// Envelope is the header for envelope vectors.
	Envelope *EnvelopeHeader `yaml:"envelope,omitempty"`

	// Hex is the expected encoding, or the input bytes of a check vector.
	Hex string `yaml:"hex,omitempty"`

	// Fingerprint is the expected fingerprint of a triple.
	Fingerprint string `yaml:"fingerprint,omitempty"`

	// Error is the expected error kind. A vector either expects an error
	// or expects output, never both.
	Error string `yaml:"error,omitempty"`
}

// EnvelopeHeader is the header of an envelope vector.
type EnvelopeHeader struct {
	Kind          string `yaml:"kind"`
	SchemaID      string `yaml:"schema_id"`
	SchemaVersion uint32 `yaml:"schema_version"`
}

// Vector kinds.
const (
	KindValue       = "value"
	KindFingerprint = "fingerprint"
	KindCheck       = "check"
	KindEnvelope    = "envelope"
)

// LoadSuite reads and parses a suite file. Vector sources resolve relative
// to the suite file. Unknown fields are rejected so typos surface early.
func LoadSuite(path string) (*Suite, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read suite file: %w", err)
	}
	suite, err := ParseSuite(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	suite.dir = filepath.Dir(path)
	return suite, nil
}

// ParseSuite parses a suite document. Sources resolve against the working
// directory.
func ParseSuite(data []byte) (*Suite, error) {
	var suite Suite
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&suite); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}
	if err := validateSuite(&suite); err != nil {
		return nil, fmt.Errorf("invalid suite: %w", err)
	}
	return &suite, nil
}

func validateSuite(s *Suite) error {
	if s.Name == "" {
		return fmt.Errorf("name is required")
	}
	if len(s.Vectors) == 0 {
		return fmt.Errorf("vectors list is required and must be non-empty")
	}

	seen := make(map[string]bool, len(s.Vectors))
	for i := range s.Vectors {
		v := &s.Vectors[i]
		if v.Name == "" {
			return fmt.Errorf("vectors[%d]: name is required", i)
		}
		if seen[v.Name] {
			return fmt.Errorf("vectors[%d]: duplicate name %q", i, v.Name)
		}
		seen[v.Name] = true
		if err := validateVector(v); err != nil {
			return fmt.Errorf("vectors[%d] %s: %w", i, v.Name, err)
		}
	}
	return nil
}

func validateVector(v *Vector) error {
	switch v.Policy {
	case "", "strict", "permissive":
	default:
		return fmt.Errorf("policy must be strict or permissive, got %q", v.Policy)
	}

	hasValue := v.Value.Kind != 0
	hasTriple := v.Triple.Kind != 0
	hasSource := v.Source != ""

	switch v.Kind {
	case KindValue, KindEnvelope:
		if hasValue == hasSource {
			return fmt.Errorf("exactly one of value or source is required")
		}
		if hasTriple {
			return fmt.Errorf("triple is not allowed on %s vectors", v.Kind)
		}
		if v.Kind == KindEnvelope && v.Envelope == nil {
			return fmt.Errorf("envelope header is required")
		}
		return expectOne(v.Hex != "", v.Error != "", "hex")
	case KindFingerprint:
		if hasTriple == hasSource {
			return fmt.Errorf("exactly one of triple or source is required")
		}
		if hasValue || v.Hex != "" {
			return fmt.Errorf("value and hex are not allowed on fingerprint vectors")
		}
		return expectOne(v.Fingerprint != "", v.Error != "", "fingerprint")
	case KindCheck:
		if v.Hex == "" {
			return fmt.Errorf("hex is required")
		}
		if hasValue || hasTriple || hasSource {
			return fmt.Errorf("check vectors take only hex")
		}
		return nil
	case "":
		return fmt.Errorf("kind is required")
	}
	return fmt.Errorf("unknown kind %q", v.Kind)
}

func expectOne(output, failure bool, name string) error {
	if output == failure {
		return fmt.Errorf("exactly one of %s or error is required", name)
	}
	return nil
}
