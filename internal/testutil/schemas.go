package testutil

import "github.com/greentic-ai-org/greentic-types/internal/schemair"

// ContractTripleFingerprint is the fingerprint of ContractTriple. It is a
// cross-implementation fixture: every conforming encoder must reproduce it.
const ContractTripleFingerprint = "ccb387537b2129b8c48b30bd2ff5bf00b8d6462915032ca7dfe057d141ffd5a5"

// RequiredText returns an object with one required, non-empty string
// property and additional properties forbidden.
func RequiredText(name string) schemair.Schema {
	return schemair.Of(schemair.Object{
		Properties: map[string]schemair.Schema{
			name: schemair.Of(schemair.String{MinLen: schemair.Ptr[uint64](1)}),
		},
		Required:   []string{name},
		Additional: schemair.Forbid(),
	})
}

// ContractTriple returns the reference (input, output, config) schemas:
// a "prompt" input, a "result" output and an "api_key" config.
func ContractTriple() (input, output, config schemair.Schema) {
	return RequiredText("prompt"), RequiredText("result"), RequiredText("api_key")
}
