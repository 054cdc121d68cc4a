package bloom

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEmptyFilterQueriesFalse(t *testing.T) {
	f := New(1024, 3, 0)
	assert.True(t, f.IsEmpty())
	assert.False(t, f.QueryUint64(42))
	assert.False(t, f.QueryString("hello"))
}

func TestUpdateQueryRoundTrip(t *testing.T) {
	f := New(4096, 4, 1)
	for i := uint64(0); i < 500; i++ {
		f.UpdateUint64(i)
	}
	assert.False(t, f.IsEmpty())
	for i := uint64(0); i < 500; i++ {
		assert.True(t, f.QueryUint64(i))
	}
}

func TestQueryAndUpdateReturnsPreUpdateResult(t *testing.T) {
	f := New(1024, 3, 7)
	assert.False(t, f.QueryAndUpdateString("x"))
	assert.True(t, f.QueryAndUpdateString("x"))
	assert.True(t, f.QueryString("x"))
}

func TestEmptyStringAndNilAreNoOps(t *testing.T) {
	f := New(1024, 3, 0)
	f.UpdateString("")
	assert.True(t, f.IsEmpty())
	assert.False(t, f.QueryString(""))
	assert.False(t, f.QueryAndUpdateString(""))

	f.UpdateBytes(nil)
	assert.True(t, f.IsEmpty())
}

func TestFloat64Canonicalization(t *testing.T) {
	f := New(1024, 3, 0)
	f.UpdateFloat64(math.Copysign(0, -1))
	assert.True(t, f.QueryFloat64(0))

	g := New(1024, 3, 0)
	g.UpdateFloat64(math.NaN())
	assert.True(t, g.QueryFloat64(math.Float64frombits(0x7ff8000000000001)))
}

func TestInt64HashesAsUint64BitPattern(t *testing.T) {
	f := New(1024, 3, 0)
	f.UpdateInt64(-1)
	assert.True(t, f.QueryUint64(^uint64(0)))
}

func TestSliceHashing(t *testing.T) {
	f := New(1024, 3, 0)
	f.UpdateUint64Slice([]uint64{1, 2, 3})
	assert.True(t, f.QueryUint64Slice([]uint64{1, 2, 3}))
	assert.False(t, f.QueryUint64Slice([]uint64{1, 2, 4}))

	g := New(1024, 3, 0)
	g.UpdateFloat64Slice([]float64{1.5, -0.0, math.NaN()})
	assert.True(t, g.QueryFloat64Slice([]float64{1.5, 0.0, math.NaN()}))
}

func TestUnionIntersectInvert(t *testing.T) {
	a := New(1024, 3, 11)
	b := New(1024, 3, 11)
	a.UpdateUint64(1)
	a.UpdateUint64(2)
	b.UpdateUint64(2)
	b.UpdateUint64(3)

	require.NoError(t, a.Union(b))
	assert.True(t, a.QueryUint64(1))
	assert.True(t, a.QueryUint64(2))
	assert.True(t, a.QueryUint64(3))

	c := New(1024, 3, 11)
	c.UpdateUint64(2)
	c.UpdateUint64(3)
	d := New(1024, 3, 11)
	d.UpdateUint64(3)
	require.NoError(t, c.Intersect(d))
	assert.True(t, c.QueryUint64(3))

	mismatched := New(2048, 3, 11)
	require.Error(t, a.Union(mismatched))
	require.Error(t, a.Intersect(mismatched))

	before := a.NumBitsSet()
	require.NoError(t, a.Invert())
	assert.Equal(t, a.NumBits()-before, a.NumBitsSet())
}

func TestNewBySizeDerivesParameters(t *testing.T) {
	f, err := NewBySize(1000, 0.01, 0)
	require.NoError(t, err)
	assert.Greater(t, f.NumBits(), uint64(0))
	assert.Greater(t, f.NumHashes(), uint16(0))
}

func TestNewPanicsOnBadParameters(t *testing.T) {
	assert.Panics(t, func() { New(0, 3, 0) })
	assert.Panics(t, func() { New(64, 0, 0) })
}

// TestScenarioBloomBasicMembership implements the S1 end-to-end scenario:
// numBits=8192, numHashes=3, seed=0; queryAndUpdate(i) for i in [0,1000);
// isEmpty() must be false, n*(k-1) <= numBitsSet <= n*k, and the count of
// query(i) true for i in [0,2000) must land in [1000,1100).
func TestScenarioBloomBasicMembership(t *testing.T) {
	const n, k = 1000, 3
	f := New(8192, k, 0)
	for i := uint64(0); i < n; i++ {
		f.QueryAndUpdateUint64(i)
	}
	assert.False(t, f.IsEmpty())

	numBitsSet := f.NumBitsSet()
	assert.GreaterOrEqual(t, numBitsSet, uint64(n*(k-1)))
	assert.LessOrEqual(t, numBitsSet, uint64(n*k))

	matches := 0
	for i := uint64(0); i < 2*n; i++ {
		if f.QueryUint64(i) {
			matches++
		}
	}
	assert.GreaterOrEqual(t, matches, n)
	assert.Less(t, matches, 1100)
}

// TestScenarioBloomSerializationCross implements the S2 scenario:
// numBits=32768, numHashes=5, insert 0.5+i for i in [0,2500); serialize,
// deserialize, and confirm numBitsSet agrees and query(0.5+i) agrees for
// every i in [0,numBits).
func TestScenarioBloomSerializationCross(t *testing.T) {
	const n = 2500
	f := New(32768, 5, 0)
	for i := 0; i < n; i++ {
		f.UpdateFloat64(0.5 + float64(i))
	}

	buf, err := f.MarshalBinary()
	require.NoError(t, err)

	g, err := UnmarshalBinary(buf)
	require.NoError(t, err)

	assert.Equal(t, f.NumBitsSet(), g.NumBitsSet())
	for i := 0; i < int(f.NumBits()); i++ {
		assert.Equal(t, f.QueryFloat64(0.5+float64(i)), g.QueryFloat64(0.5+float64(i)))
	}
}
