package i18n

import (
	"encoding/hex"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/greentic-ai-org/greentic-types/internal/canonical"
)

func TestTextWireForm(t *testing.T) {
	data, err := canonical.Marshal(New("qa.title"))
	require.NoError(t, err)
	assert.Equal(t, "a1636b65796871612e7469746c65", hex.EncodeToString(data))

	data, err = canonical.Marshal(WithFallback("k", "Hi"))
	require.NoError(t, err)

	var out Text
	require.NoError(t, canonical.Unmarshal(data, &out))
	assert.Equal(t, "k", out.Key)
	require.NotNil(t, out.Fallback)
	assert.Equal(t, "Hi", out.String())
}

func TestTextMissingKey(t *testing.T) {
	data, err := canonical.Marshal(canonical.Map{"fallback": canonical.Text("x")})
	require.NoError(t, err)

	var out Text
	assert.ErrorIs(t, canonical.Unmarshal(data, &out), canonical.ErrMissingField)
}

func TestKeySet(t *testing.T) {
	s := KeySet{}
	s.Add(New("b"))
	s.Add(New("a"))
	s.Add(New("b"))
	s.AddOpt(nil)
	s.AddOpt(&Text{Key: "c"})
	assert.Equal(t, []string{"a", "b", "c"}, s.Sorted())
	assert.Equal(t, "a", New("a").String())
}
