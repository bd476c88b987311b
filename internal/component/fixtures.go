package component

import (
	"fmt"

	"github.com/greentic-ai-org/greentic-types/internal/i18n"
	"github.com/greentic-ai-org/greentic-types/internal/schemair"
)

// Fixture file names, relative to a fixtures root.
const (
	DescribeFixture  = "component/describe_v0_6_0.cbor"
	QaDefaultFixture = "component/qa_default_v0_6_0.cbor"
)

// Fixture is one generated payload.
type Fixture struct {
	Path string
	Data []byte
}

func requiredText(name string) schemair.Schema {
	return schemair.Of(schemair.Object{
		Properties: map[string]schemair.Schema{
			name: schemair.Of(schemair.String{MinLen: schemair.Ptr[uint64](1)}),
		},
		Required:   []string{name},
		Additional: schemair.Forbid(),
	})
}

// ExampleDescribe is the reference describe payload: one "run" operation
// taking a prompt, returning a result, configured with an api_key.
func ExampleDescribe() (*Describe, error) {
	input, output, config := requiredText("prompt"), requiredText("result"), requiredText("api_key")

	run, err := NewOperation("run", input, output, config)
	if err != nil {
		return nil, err
	}
	return &Describe{
		Info: Info{
			ID:      "greentic.example.component",
			Version: "0.1.0",
			Role:    "tool",
		},
		ProvidedCapabilities: []string{},
		RequiredCapabilities: []string{},
		Metadata:             map[string]any{},
		Operations:           []Operation{run},
		ConfigSchema:         config,
	}, nil
}

// ExampleQaSpec is the reference default-mode QA spec.
func ExampleQaSpec() *QaSpec {
	return &QaSpec{
		Mode:      QaDefault,
		Title:     i18n.WithFallback("component.qa.default.title", "Default"),
		Questions: []Question{},
		Defaults:  map[string]any{},
	}
}

// Fixtures encodes every reference payload.
func Fixtures() ([]Fixture, error) {
	describe, err := ExampleDescribe()
	if err != nil {
		return nil, err
	}
	describeBytes, err := describe.Encode()
	if err != nil {
		return nil, fmt.Errorf("%s: %w", DescribeFixture, err)
	}
	qaBytes, err := ExampleQaSpec().Encode()
	if err != nil {
		return nil, fmt.Errorf("%s: %w", QaDefaultFixture, err)
	}
	return []Fixture{
		{Path: DescribeFixture, Data: describeBytes},
		{Path: QaDefaultFixture, Data: qaBytes},
	}, nil
}
