// Command greentic-types encodes, checks and fingerprints the canonical
// CBOR payloads exchanged by greentic components.
package main

import (
	"os"

	"github.com/greentic-ai-org/greentic-types/internal/cli"
)

func main() {
	err := cli.NewRootCommand().Execute()
	os.Exit(cli.GetExitCode(err))
}
