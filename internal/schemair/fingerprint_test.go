package schemair_test

import (
	"encoding/hex"
	"regexp"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/greentic-ai-org/greentic-types/internal/canonical"
	"github.com/greentic-ai-org/greentic-types/internal/schemair"
	"github.com/greentic-ai-org/greentic-types/internal/testutil"
)

var hexFingerprint = regexp.MustCompile(`^[0-9a-f]{64}$`)

func TestFingerprintFixture(t *testing.T) {
	in, out, cfg := testutil.ContractTriple()

	fp, err := schemair.Fingerprint(in, out, cfg)
	require.NoError(t, err)
	assert.Regexp(t, hexFingerprint, fp)
	assert.Equal(t, testutil.ContractTripleFingerprint, fp)
}

func TestFingerprintInputEncoding(t *testing.T) {
	in, _, _ := testutil.ContractTriple()
	data, err := canonical.Marshal(in)
	require.NoError(t, err)
	assert.Equal(t,
		"a46a6164646974696f6e616ca1647479706566666f726269646a70726f70657274696573a16670726f6d7074"+
			"a566666f726d6174f6676d61785f6c656ef6676d696e5f6c656e01657265676578f6647479706566737472696e67"+
			"687265717569726564816670726f6d70746474797065666f626a656374",
		hex.EncodeToString(data))
}

func TestFingerprintOrderMatters(t *testing.T) {
	in, out, cfg := testutil.ContractTriple()

	swapped, err := schemair.Fingerprint(out, in, cfg)
	require.NoError(t, err)
	assert.Equal(t, "874763909d95a3c536713e8af753922f5ace63e3879071c183ca99b93945a483", swapped)
	assert.NotEqual(t, testutil.ContractTripleFingerprint, swapped)
}

func TestFingerprintEmptyObjects(t *testing.T) {
	empty := schemair.Of(schemair.Object{})
	assert.Equal(t,
		"acee0c533bcb8f983d67721c83dcbe9736976289ded6630a871790f24d54cf9d",
		schemair.MustFingerprint(empty, empty, empty))
}

func TestFingerprintStableAcrossGoroutines(t *testing.T) {
	in, out, cfg := testutil.ContractTriple()

	var wg sync.WaitGroup
	results := make([]string, 32)
	for i := range results {
		wg.Add(1)
		go func() {
			defer wg.Done()
			results[i] = schemair.MustFingerprint(in, out, cfg)
		}()
	}
	wg.Wait()

	for _, fp := range results {
		assert.Equal(t, testutil.ContractTripleFingerprint, fp)
	}
}

func TestFingerprintRejectsIntegralFloatBounds(t *testing.T) {
	bad := schemair.Of(schemair.Float{Min: schemair.Ptr(0.0)})
	_, err := schemair.Fingerprint(bad, bad, bad)
	require.Error(t, err)

	var fpErr *schemair.FingerprintError
	assert.ErrorAs(t, err, &fpErr)
	assert.ErrorIs(t, err, canonical.ErrIntegralFloat)
}

func TestFingerprintRejectsZeroSchema(t *testing.T) {
	_, err := schemair.Fingerprint(schemair.Schema{}, schemair.Of(schemair.Null{}), schemair.Of(schemair.Null{}))
	var fpErr *schemair.FingerprintError
	assert.ErrorAs(t, err, &fpErr)
	assert.ErrorIs(t, err, schemair.ErrNoShape)
}

func TestVerifyFingerprint(t *testing.T) {
	in, out, cfg := testutil.ContractTriple()

	assert.NoError(t, schemair.VerifyFingerprint(testutil.ContractTripleFingerprint, in, out, cfg))

	err := schemair.VerifyFingerprint(testutil.ContractTripleFingerprint, out, in, cfg)
	assert.ErrorIs(t, err, schemair.ErrFingerprintMismatch)
}

func TestFingerprintMaterialKeys(t *testing.T) {
	in, out, cfg := testutil.ContractTriple()
	m, err := schemair.FingerprintMaterial(in, out, cfg)
	require.NoError(t, err)
	assert.Equal(t, []string{"config", "input", "output"}, m.SortedKeys())
}
