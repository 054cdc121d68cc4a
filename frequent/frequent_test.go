package frequent

import (
	"math"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIncrementAndGet(t *testing.T) {
	f := New(10)
	require.NoError(t, f.Increment(1))
	require.NoError(t, f.Increment(1))
	require.NoError(t, f.IncrementBy(2, 5))
	assert.EqualValues(t, 2, f.Get(1))
	assert.EqualValues(t, 5, f.Get(2))
	assert.EqualValues(t, 0, f.Get(3))
	assert.EqualValues(t, 0, f.GetMaxError())
	assert.EqualValues(t, 2, f.Nnz())
}

func TestIncrementRejectsNonPositiveDelta(t *testing.T) {
	f := New(5)
	assert.Error(t, f.IncrementBy(1, 0))
	assert.Error(t, f.IncrementBy(1, -1))
}

func TestCapacityTriggersDecrementAll(t *testing.T) {
	f := New(2)
	require.NoError(t, f.Increment(1))
	require.NoError(t, f.Increment(2))
	require.NoError(t, f.Increment(3))
	assert.LessOrEqual(t, f.Nnz(), 2)
	assert.Greater(t, f.GetMaxError(), int64(0))
}

func TestUnionRespectsCapacity(t *testing.T) {
	a := New(5)
	b := New(5)
	for i := uint64(0); i < 5; i++ {
		require.NoError(t, a.IncrementBy(i, 10))
	}
	for i := uint64(5); i < 10; i++ {
		require.NoError(t, b.IncrementBy(i, 10))
	}
	require.NoError(t, a.Union(b))
	assert.LessOrEqual(t, a.Nnz(), 5)
}

func TestDecrementAll(t *testing.T) {
	f := New(10)
	require.NoError(t, f.IncrementBy(1, 5))
	require.NoError(t, f.IncrementBy(2, 2))
	require.NoError(t, f.IncrementBy(3, 10))

	f.DecrementAll(3)
	assert.EqualValues(t, 3, f.GetMaxError())
	assert.EqualValues(t, 2, f.Get(1))
	assert.EqualValues(t, 0, f.Get(2))
	assert.EqualValues(t, 7, f.Get(3))
	assert.Equal(t, 2, f.Nnz())

	f.DecrementAll(0)
	assert.EqualValues(t, 3, f.GetMaxError())
	assert.EqualValues(t, 2, f.Get(1))
}

func TestGetFrequentItemsOrderedByEstimate(t *testing.T) {
	f := New(10)
	require.NoError(t, f.IncrementBy(1, 100))
	require.NoError(t, f.IncrementBy(2, 50))
	require.NoError(t, f.IncrementBy(3, 1))

	rows := f.GetFrequentItemsWithThreshold(1, NoFalseNegatives)
	require.Len(t, rows, 3)
	assert.Equal(t, uint64(1), rows[0].Key)
	assert.Equal(t, uint64(2), rows[1].Key)
	assert.Equal(t, uint64(3), rows[2].Key)
}

func TestMarshalRoundTrip(t *testing.T) {
	f := New(50)
	for i := uint64(0); i < 200; i++ {
		require.NoError(t, f.IncrementBy(i%60, 1))
	}
	buf, err := f.MarshalBinary()
	require.NoError(t, err)

	g, err := UnmarshalBinary(buf)
	require.NoError(t, err)
	assert.Equal(t, f.Nnz(), g.Nnz())
	assert.Equal(t, f.GetMaxError(), g.GetMaxError())
	assert.Equal(t, f.StreamLength(), g.StreamLength())
	for k := range f.counts {
		assert.Equal(t, f.Get(k), g.Get(k))
	}
}

func TestMarshalEmptyRoundTrip(t *testing.T) {
	f := New(10)
	buf, err := f.MarshalBinary()
	require.NoError(t, err)
	g, err := UnmarshalBinary(buf)
	require.NoError(t, err)
	assert.True(t, g.IsEmpty())
	assert.Equal(t, 10, g.maxSize)
}

func TestNewOptimized(t *testing.T) {
	f, err := NewOptimized(Config{Epsilon: 0.02})
	require.NoError(t, err)
	assert.Equal(t, 50, f.maxSize)

	_, err = NewOptimized(Config{Epsilon: 0})
	assert.Error(t, err)
}

// geometric samples a geometric(p) random variable on {0, 1, 2, ...} by
// inverse-CDF sampling, the same construction the S5 scenario specifies.
func geometric(r *rand.Rand, p float64) uint64 {
	u := r.Float64()
	return uint64(math.Log(1-u) / math.Log(1-p))
}

// TestScenarioFrequentItemsErrorBound implements the S5 scenario:
// maxSize=100, stream 10,000 keys from a geometric(p=0.04) distribution;
// for every key k, get(k) <= trueCount(k) <= get(k)+getMaxError(); after
// the stream, nnz() <= 100.
func TestScenarioFrequentItemsErrorBound(t *testing.T) {
	const maxSize = 100
	const n = 10000
	r := rand.New(rand.NewSource(7))

	f := New(maxSize)
	trueCounts := make(map[uint64]int64)
	for i := 0; i < n; i++ {
		k := geometric(r, 0.04)
		trueCounts[k]++
		require.NoError(t, f.Increment(k))
	}

	assert.LessOrEqual(t, f.Nnz(), maxSize)
	for k, want := range trueCounts {
		lb := f.Get(k)
		ub := lb + f.GetMaxError()
		assert.LessOrEqualf(t, lb, want, "key %d lower bound", k)
		assert.LessOrEqualf(t, want, ub, "key %d upper bound", k)
	}
}
