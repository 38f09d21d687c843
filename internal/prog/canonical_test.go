package prog

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMarshalCanonical_Deterministic(t *testing.T) {
	obj := map[string]any{
		"b":     1.5,
		"a":     "x",
		"zed":   true,
		"list":  []any{1, 2.25, "s"},
		"angle": 3.0,
	}

	first, err := MarshalCanonical(obj)
	require.NoError(t, err)
	for i := 0; i < 10; i++ {
		again, err := MarshalCanonical(obj)
		require.NoError(t, err)
		assert.Equal(t, string(first), string(again))
	}
}

func TestMarshalCanonical_KeyOrderAndEscaping(t *testing.T) {
	b, err := MarshalCanonical(map[string]any{
		"b": 2,
		"a": "<&>",
	})
	require.NoError(t, err)
	// No HTML escaping, keys sorted.
	assert.Equal(t, `{"a":"<&>","b":2}`, string(b))
}

func TestMarshalCanonical_Floats(t *testing.T) {
	// Integral floats render without a fraction.
	b, err := MarshalCanonical(3.0)
	require.NoError(t, err)
	assert.Equal(t, "3", string(b))

	b, err = MarshalCanonical(0.1)
	require.NoError(t, err)
	assert.Equal(t, "0.1", string(b))

	// Non-finite values are identity poison and must be rejected.
	for _, bad := range []float64{math.NaN(), math.Inf(1), math.Inf(-1)} {
		_, err := MarshalCanonical(bad)
		require.Error(t, err)
	}
}

func TestMarshalCanonical_RejectsNullAndUnknown(t *testing.T) {
	_, err := MarshalCanonical(nil)
	require.Error(t, err)

	_, err = MarshalCanonical(struct{}{})
	require.Error(t, err)
}

func TestMarshalCanonical_NFCNormalization(t *testing.T) {
	// "é" composed vs decomposed must serialize identically.
	composed, err := MarshalCanonical("café")
	require.NoError(t, err)
	decomposed, err := MarshalCanonical("café")
	require.NoError(t, err)
	assert.Equal(t, string(composed), string(decomposed))
}

func TestHashWithDomain_Separation(t *testing.T) {
	data := []byte(`{"a":1}`)
	assert.NotEqual(t,
		HashWithDomain(DomainProgram, data),
		HashWithDomain(DomainBinary, data))
}
