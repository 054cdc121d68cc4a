package bloom

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSuggestNumHashesFromFPP(t *testing.T) {
	k, err := SuggestNumHashesFromFPP(0.01)
	require.NoError(t, err)
	assert.EqualValues(t, math.Ceil(-math.Log2(0.01)), k)

	_, err = SuggestNumHashesFromFPP(0)
	require.Error(t, err)
	_, err = SuggestNumHashesFromFPP(1)
	require.Error(t, err)
}

func TestSuggestNumHashesFromSizes(t *testing.T) {
	k, err := SuggestNumHashesFromSizes(1000, 8000)
	require.NoError(t, err)
	want := math.Round(8000.0 / 1000.0 * math.Ln2)
	assert.EqualValues(t, want, k)

	k2, err := SuggestNumHashesFromSizes(1_000_000, 1)
	require.NoError(t, err)
	assert.EqualValues(t, 1, k2)

	_, err = SuggestNumHashesFromSizes(0, 100)
	require.Error(t, err)
}

func TestSuggestNumFilterBits(t *testing.T) {
	m, err := SuggestNumFilterBits(1000, 0.01)
	require.NoError(t, err)
	want := math.Ceil(-1000.0 * math.Log(0.01) / (math.Ln2 * math.Ln2))
	assert.EqualValues(t, want, m)

	_, err = SuggestNumFilterBits(1000, 0)
	require.Error(t, err)
	_, err = SuggestNumFilterBits(0, 0.01)
	require.Error(t, err)
}

func TestNewOptimized(t *testing.T) {
	f, err := NewOptimized(Config{FPRate: 0.01, NumDistinct: 1000}, 0)
	require.NoError(t, err)
	wantBits, err := SuggestNumFilterBits(1000, 0.01)
	require.NoError(t, err)
	assert.GreaterOrEqual(t, f.NumBits(), wantBits)
	assert.Zero(t, f.NumBits()%64)

	f2, err := NewOptimized(Config{FPRate: 0.01, NumDistinct: 1_000_000, MaxBits: 1000}, 0)
	require.NoError(t, err)
	assert.LessOrEqual(t, f2.NumBits(), uint64(1024))

	_, err = NewOptimized(Config{FPRate: 0, NumDistinct: 10}, 0)
	require.Error(t, err)
}
