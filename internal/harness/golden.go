package harness

import (
	"fmt"
	"strings"
	"testing"

	"github.com/sebdah/goldie/v2"

	"github.com/greentic-ai-org/greentic-types/internal/canonical"
)

// Report renders a result as one line per vector:
//
//	PASS value key_order a2616102616201
//	FAIL check unsorted_map error=decode
//
// The layout is stable so reports can be kept as golden files.
func Report(r *Result) []byte {
	var b strings.Builder
	for _, c := range r.Cases {
		status := "PASS"
		if !c.Pass {
			status = "FAIL"
		}
		fmt.Fprintf(&b, "%s %s %s", status, c.Kind, c.Name)
		if c.Got != "" {
			fmt.Fprintf(&b, " %s", c.Got)
		}
		if c.Error != "" {
			fmt.Fprintf(&b, " error=%s", c.Error)
		}
		b.WriteByte('\n')
	}
	return []byte(b.String())
}

func newGoldie(t *testing.T) *goldie.Goldie {
	return goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
}

// RunWithGolden runs a suite and compares its report against
// testdata/golden/{suite.Name}.golden.
//
// To regenerate golden files, run:
//
//	go test ./internal/harness -update
func RunWithGolden(t *testing.T, suite *Suite) (*Result, error) {
	t.Helper()

	result, err := Run(suite)
	if err != nil {
		return nil, err
	}
	newGoldie(t).Assert(t, suite.Name, Report(result))
	return result, nil
}

// AssertCanonicalGolden encodes v under policy and compares the bytes
// against testdata/golden/{name}.golden.
func AssertCanonicalGolden(t *testing.T, name string, v any, policy canonical.FloatPolicy) error {
	t.Helper()

	data, err := canonical.Encode(v, policy)
	if err != nil {
		return err
	}
	newGoldie(t).Assert(t, name, data)
	return nil
}
