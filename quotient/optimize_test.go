package quotient

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSuggestFingerprintLength(t *testing.T) {
	fb, err := SuggestFingerprintLength(0.01)
	require.NoError(t, err)
	assert.EqualValues(t, 7, fb)

	_, err = SuggestFingerprintLength(0)
	require.Error(t, err)
	_, err = SuggestFingerprintLength(1)
	require.Error(t, err)
}

func TestSuggestLgNumSlots(t *testing.T) {
	lg, err := SuggestLgNumSlots(100, 0.8)
	require.NoError(t, err)
	assert.EqualValues(t, 7, lg)

	_, err = SuggestLgNumSlots(0, 0.8)
	require.Error(t, err)
	_, err = SuggestLgNumSlots(100, 0)
	require.Error(t, err)
}

func TestNewOptimized(t *testing.T) {
	f, err := NewOptimized(Config{FPRate: 0.01, NumDistinct: 100, LoadFactor: 0.8}, 0)
	require.NoError(t, err)
	assert.GreaterOrEqual(t, f.NumSlots(), uint64(100))

	_, err = NewOptimized(Config{FPRate: 0.01, NumDistinct: 0, LoadFactor: 0.8}, 0)
	require.Error(t, err)
}
