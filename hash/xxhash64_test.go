package hash

import (
	"math/rand"
	"testing"

	"github.com/cespare/xxhash/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestXXHash64AgreesWithReference differentially tests our hand-written
// xxHash64 against github.com/cespare/xxhash/v2, the library
// apache/datasketches-go's BloomFilter uses directly, over random byte
// ranges, lengths (crossing every branch of the algorithm: <8, 8..31,
// >=32 bytes) and seeds.
func TestXXHash64AgreesWithReference(t *testing.T) {
	r := rand.New(rand.NewSource(2))

	sizes := []int{0, 1, 3, 4, 7, 8, 9, 15, 16, 31, 32, 33, 63, 64, 65, 200, 1000}
	for _, n := range sizes {
		if n == 0 {
			continue // length 0 is an invalid-argument case, tested separately
		}
		buf := make([]byte, n+8)
		r.Read(buf)

		for trial := 0; trial < 5; trial++ {
			offset := r.Intn(8)
			seed := r.Uint64()

			got, err := XXHash64(buf, offset, n, seed)
			require.NoError(t, err)

			h := xxhash.NewWithSeed(seed)
			h.Write(buf[offset : offset+n])
			want := h.Sum64()

			assert.Equal(t, want, got, "mismatch for n=%d offset=%d seed=%d", n, offset, seed)
		}
	}
}

func TestXXHash64InvalidArgument(t *testing.T) {
	_, err := XXHash64(nil, 0, 0, 0)
	require.Error(t, err)

	_, err = XXHash64([]byte("abc"), 0, 10, 0)
	require.Error(t, err)
}

func TestXXHash64Uint64Deterministic(t *testing.T) {
	a := XXHash64Uint64(42, 1)
	b := XXHash64Uint64(42, 1)
	assert.Equal(t, a, b)

	c := XXHash64Uint64(43, 1)
	assert.NotEqual(t, a, c)
}
