// Package bloom implements BloomFilter, a multi-hash set-membership
// filter over a bitset.BitArray.
//
// Unlike blobloom's blocked Bloom filter (the teacher this package is
// shaped after — same Filter/Config naming, same New/NewBySize split, same
// Union/Intersect panics-on-mismatch-turned-errors), this is a classical,
// non-blocked Bloom filter: every one of the k hash-derived bits can fall
// anywhere in the bit array, which is what lets it serialize to the
// byte-exact wire format §4.6 requires and lets Cardinality-style set
// algebra (union, intersect, invert) stay exact rather than approximate
// per block.
//
// Grounded on apache/datasketches-go's BloomFilter
// (other_examples/083dbfea_..._bloom_filter.go.go) for the per-type
// Update/Query surface, the double-hashing index formula, and the
// NaN/inf canonicalization rules; on blobloom/bloomfilter.go for overall
// package shape, doc style and the panic-on-misuse-at-construction
// convention; and on hash.Murmur3_128 (package hash, C1) for the
// underlying digest.
package bloom

import (
	"github.com/greatroar/sketchkit/bitset"
	"github.com/greatroar/sketchkit/hash"
	"github.com/greatroar/sketchkit/sketcherr"
)

// Filter is a Bloom filter: a BitArray plus a number of hash functions k
// and a seed.
type Filter struct {
	bits *bitset.BitArray
	k    uint16
	seed uint64
}

// New constructs a Bloom filter with numBits bits (rounded up to a
// multiple of 64), k hash functions and the given seed.
//
// k must be in [1, 65535]; numBits must be >= 1. Both are caller-supplied
// constants checked at construction time, so violations panic rather than
// return an error, the same way blobloom's New panics on a bad nbits.
func New(numBits uint64, k uint16, seed uint64) *Filter {
	if numBits < 1 {
		panic("bloom: numBits must be >= 1")
	}
	if k < 1 {
		panic("bloom: k must be >= 1")
	}
	return &Filter{
		bits: bitset.New(numBits),
		k:    k,
		seed: seed,
	}
}

// NewBySize constructs a Bloom filter sized from an expected number of
// distinct keys and a target false positive probability, using the
// sizing advisor formulae of §4.3.5.
func NewBySize(numDistinct uint64, fpp float64, seed uint64) (*Filter, error) {
	numBits, err := SuggestNumFilterBits(numDistinct, fpp)
	if err != nil {
		return nil, err
	}
	k, err := SuggestNumHashesFromFPP(fpp)
	if err != nil {
		return nil, err
	}
	return New(numBits, k, seed), nil
}

// NumBits returns the effective number of bits in the filter (a multiple
// of 64).
func (f *Filter) NumBits() uint64 { return f.bits.Capacity() }

// NumHashes returns k, the number of hash functions.
func (f *Filter) NumHashes() uint16 { return f.k }

// Seed returns the hash seed.
func (f *Filter) Seed() uint64 { return f.seed }

// IsEmpty reports whether no bit is currently set. It does not remember
// past state: a filter whose bits were all cleared again (for example by
// an Intersect with a disjoint filter) reports true.
func (f *Filter) IsEmpty() bool { return f.bits.GetNumBitsSet() == 0 }

// NumBitsSet returns the number of one-bits currently in the filter.
func (f *Filter) NumBitsSet() uint64 { return f.bits.GetNumBitsSet() }

// bitIndex computes the bit position for hash iteration j of k, per the
// formula of §4.3.1: ((h1 + j*h2) & 0x7fffffffffffffff) mod capacity.
func (f *Filter) bitIndex(h1, h2 uint64, j uint16) uint64 {
	sum := h1 + uint64(j)*h2
	sum &= 0x7fffffffffffffff
	return sum % f.bits.Capacity()
}

func (f *Filter) update(h1, h2 uint64) {
	for j := uint16(0); j < f.k; j++ {
		// SetBit cannot fail here: bitIndex always returns a value in
		// [0, capacity).
		_ = f.bits.SetBit(f.bitIndex(h1, h2, j))
	}
}

func (f *Filter) query(h1, h2 uint64) bool {
	if f.IsEmpty() {
		return false
	}
	for j := uint16(0); j < f.k; j++ {
		ok, _ := f.bits.GetBit(f.bitIndex(h1, h2, j))
		if !ok {
			return false
		}
	}
	return true
}

func (f *Filter) queryAndUpdate(h1, h2 uint64) bool {
	present := true
	for j := uint16(0); j < f.k; j++ {
		was, _ := f.bits.GetAndSetBit(f.bitIndex(h1, h2, j))
		present = present && was
	}
	return present
}

// UpdateBytes adds the raw byte range datum to the filter. A nil or empty
// datum is a no-op.
func (f *Filter) UpdateBytes(datum []byte) {
	if len(datum) == 0 {
		return
	}
	h1, h2, _ := hash.Murmur3_128(datum, 0, len(datum), f.seed)
	f.update(h1, h2)
}

// QueryBytes reports whether the raw byte range datum may have been
// added. A nil or empty datum always reports false.
func (f *Filter) QueryBytes(datum []byte) bool {
	if len(datum) == 0 {
		return false
	}
	h1, h2, _ := hash.Murmur3_128(datum, 0, len(datum), f.seed)
	return f.query(h1, h2)
}

// QueryAndUpdateBytes atomically queries and updates for a raw byte
// range, returning the pre-update query result. A nil or empty datum is a
// no-op that reports false.
func (f *Filter) QueryAndUpdateBytes(datum []byte) bool {
	if len(datum) == 0 {
		return false
	}
	h1, h2, _ := hash.Murmur3_128(datum, 0, len(datum), f.seed)
	return f.queryAndUpdate(h1, h2)
}

// UpdateString adds the UTF-8 bytes of s. An empty string is a no-op.
func (f *Filter) UpdateString(s string) {
	if s == "" {
		return
	}
	f.UpdateBytes([]byte(s))
}

// QueryString reports whether s may have been added. An empty string
// always reports false.
func (f *Filter) QueryString(s string) bool {
	if s == "" {
		return false
	}
	return f.QueryBytes([]byte(s))
}

// QueryAndUpdateString atomically queries and updates for s. An empty
// string is a no-op that reports false.
func (f *Filter) QueryAndUpdateString(s string) bool {
	if s == "" {
		return false
	}
	return f.QueryAndUpdateBytes([]byte(s))
}

// UpdateUint64 adds a uint64, hashed as its 8-byte little-endian
// encoding.
func (f *Filter) UpdateUint64(v uint64) {
	h1, h2 := hash.Murmur3_128Uint64(v, f.seed)
	f.update(h1, h2)
}

// QueryUint64 reports whether v may have been added.
func (f *Filter) QueryUint64(v uint64) bool {
	h1, h2 := hash.Murmur3_128Uint64(v, f.seed)
	return f.query(h1, h2)
}

// QueryAndUpdateUint64 atomically queries and updates for v.
func (f *Filter) QueryAndUpdateUint64(v uint64) bool {
	h1, h2 := hash.Murmur3_128Uint64(v, f.seed)
	return f.queryAndUpdate(h1, h2)
}

// UpdateInt64 adds an int64, hashed identically to its bit pattern
// reinterpreted as a uint64.
func (f *Filter) UpdateInt64(v int64) { f.UpdateUint64(uint64(v)) }

// QueryInt64 reports whether v may have been added.
func (f *Filter) QueryInt64(v int64) bool { return f.QueryUint64(uint64(v)) }

// QueryAndUpdateInt64 atomically queries and updates for v.
func (f *Filter) QueryAndUpdateInt64(v int64) bool {
	return f.QueryAndUpdateUint64(uint64(v))
}

// UpdateFloat64 adds a float64, after canonicalizing -0.0 to +0.0 and any
// NaN to a single canonical NaN per §4.1.
func (f *Filter) UpdateFloat64(v float64) {
	h1, h2 := hash.Murmur3_128Float64(v, f.seed)
	f.update(h1, h2)
}

// QueryFloat64 reports whether v may have been added.
func (f *Filter) QueryFloat64(v float64) bool {
	h1, h2 := hash.Murmur3_128Float64(v, f.seed)
	return f.query(h1, h2)
}

// QueryAndUpdateFloat64 atomically queries and updates for v.
func (f *Filter) QueryAndUpdateFloat64(v float64) bool {
	h1, h2 := hash.Murmur3_128Float64(v, f.seed)
	return f.queryAndUpdate(h1, h2)
}

// UpdateUint64Slice adds an array of uint64 values, hashed as one unit:
// the concatenation of each element's little-endian encoding. A nil or
// empty slice is a no-op.
func (f *Filter) UpdateUint64Slice(xs []uint64) {
	if len(xs) == 0 {
		return
	}
	f.UpdateBytes(hash.LittleEndianUint64Slice(xs))
}

// QueryUint64Slice reports whether xs may have been added as a unit.
func (f *Filter) QueryUint64Slice(xs []uint64) bool {
	if len(xs) == 0 {
		return false
	}
	return f.QueryBytes(hash.LittleEndianUint64Slice(xs))
}

// QueryAndUpdateUint64Slice atomically queries and updates for xs.
func (f *Filter) QueryAndUpdateUint64Slice(xs []uint64) bool {
	if len(xs) == 0 {
		return false
	}
	return f.QueryAndUpdateBytes(hash.LittleEndianUint64Slice(xs))
}

// UpdateFloat64Slice adds an array of float64 values, hashed as one unit
// after per-element NaN/-0.0 canonicalization. A nil or empty slice is a
// no-op.
func (f *Filter) UpdateFloat64Slice(xs []float64) {
	if len(xs) == 0 {
		return
	}
	f.UpdateBytes(hash.LittleEndianFloat64Slice(xs))
}

// QueryFloat64Slice reports whether xs may have been added as a unit.
func (f *Filter) QueryFloat64Slice(xs []float64) bool {
	if len(xs) == 0 {
		return false
	}
	return f.QueryBytes(hash.LittleEndianFloat64Slice(xs))
}

// QueryAndUpdateFloat64Slice atomically queries and updates for xs.
func (f *Filter) QueryAndUpdateFloat64Slice(xs []float64) bool {
	if len(xs) == 0 {
		return false
	}
	return f.QueryAndUpdateBytes(hash.LittleEndianFloat64Slice(xs))
}

// compatible reports whether f and g have equal capacity, k and seed, the
// precondition for Union/Intersect (§4.3.4).
func (f *Filter) compatible(g *Filter) bool {
	return g != nil &&
		f.bits.Capacity() == g.bits.Capacity() &&
		f.k == g.k &&
		f.seed == g.seed
}

// Union sets f to the union of f and g. g must have the same capacity, k
// and seed as f; a nil g is a no-op. Mismatched parameters return an
// InvalidArgument error and leave both filters unchanged.
func (f *Filter) Union(g *Filter) error {
	if g == nil {
		return nil
	}
	if !f.compatible(g) {
		return sketcherr.New("Filter.Union", sketcherr.InvalidArgument)
	}
	return f.bits.Union(g.bits)
}

// Intersect sets f to the intersection of f and g. g must have the same
// capacity, k and seed as f; a nil g is a no-op. Mismatched parameters
// return an InvalidArgument error and leave both filters unchanged.
func (f *Filter) Intersect(g *Filter) error {
	if g == nil {
		return nil
	}
	if !f.compatible(g) {
		return sketcherr.New("Filter.Intersect", sketcherr.InvalidArgument)
	}
	return f.bits.Intersect(g.bits)
}

// Invert flips every bit in the filter.
func (f *Filter) Invert() error {
	return f.bits.Invert()
}
