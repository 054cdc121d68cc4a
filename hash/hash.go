// Package hash provides the two fixed-seed, non-cryptographic hash
// primitives the rest of sketchkit builds on: MurmurHash3 x64-128 and
// xxHash64. Both are bit-exact with their canonical reference
// implementations so that serialized sketches and cross-language fixtures
// compare equal byte-for-byte.
//
// BloomFilter and QuotientFilter consume hashes through this package
// rather than hashing their own byte encodings, so the canonicalization
// rules below (in particular for floating-point input) apply uniformly
// across both. FrequentItems does not hash: it counts uint64 keys as
// given.
package hash

import (
	"math"

	"github.com/greatroar/sketchkit/sketcherr"
)

// Murmur3_128 computes the MurmurHash3 x64-128 hash of data[offset:offset+length]
// using the given seed, returning the (hi, lo) halves of the 128-bit digest
// in the same order as the reference C++ implementation.
//
// length must be > 0; an empty or out-of-range range is an invalid-argument
// error.
func Murmur3_128(data []byte, offset, length int, seed uint64) (hi, lo uint64, err error) {
	if err := checkRange(data, offset, length); err != nil {
		return 0, 0, sketcherr.Wrap("Murmur3_128", sketcherr.InvalidArgument, err)
	}
	h1, h2 := murmur3Body(data[offset:offset+length], seed)
	return h1, h2, nil
}

// XXHash64 computes the xxHash64 digest of data[offset:offset+length] using
// the given seed.
//
// length must be > 0; an empty or out-of-range range is an invalid-argument
// error.
func XXHash64(data []byte, offset, length int, seed uint64) (uint64, error) {
	if err := checkRange(data, offset, length); err != nil {
		return 0, sketcherr.Wrap("XXHash64", sketcherr.InvalidArgument, err)
	}
	return xxhash64Body(data[offset:offset+length], seed), nil
}

func checkRange(data []byte, offset, length int) error {
	if data == nil || length <= 0 {
		return errEmptyInput
	}
	if offset < 0 || offset+length > len(data) {
		return errOutOfRange
	}
	return nil
}

var (
	errEmptyInput = simpleError("hash: nil or zero-length input")
	errOutOfRange = simpleError("hash: offset/length outside buffer")
)

type simpleError string

func (e simpleError) Error() string { return string(e) }

// leBytesUint64 encodes v as 8 little-endian bytes, matching the
// convention the spec uses for every fixed-width integer input.
func leBytesUint64(v uint64) [8]byte {
	var b [8]byte
	b[0] = byte(v)
	b[1] = byte(v >> 8)
	b[2] = byte(v >> 16)
	b[3] = byte(v >> 24)
	b[4] = byte(v >> 32)
	b[5] = byte(v >> 40)
	b[6] = byte(v >> 48)
	b[7] = byte(v >> 56)
	return b
}

// Murmur3_128Uint64 hashes a single 64-bit integer identically to its
// 8-byte little-endian encoding.
func Murmur3_128Uint64(v uint64, seed uint64) (hi, lo uint64) {
	b := leBytesUint64(v)
	hi, lo, _ = Murmur3_128(b[:], 0, 8, seed)
	return
}

// Murmur3_128String hashes the UTF-8 bytes of s. The caller must ensure s
// is non-empty; BloomFilter and friends treat empty strings as no-ops
// before reaching this point.
func Murmur3_128String(s string, seed uint64) (hi, lo uint64, err error) {
	return Murmur3_128([]byte(s), 0, len(s), seed)
}

// Murmur3_128Float64 canonicalizes f per the spec (-0.0 -> +0.0, any NaN ->
// a single canonical NaN) before bit-casting it to 8 little-endian bytes
// and hashing those.
func Murmur3_128Float64(f float64, seed uint64) (hi, lo uint64) {
	b := leBytesUint64(math.Float64bits(CanonicalizeFloat64(f)))
	hi, lo, _ = Murmur3_128(b[:], 0, 8, seed)
	return
}

// XXHash64Uint64 hashes a single 64-bit integer identically to its 8-byte
// little-endian encoding.
func XXHash64Uint64(v uint64, seed uint64) uint64 {
	b := leBytesUint64(v)
	h, _ := XXHash64(b[:], 0, 8, seed)
	return h
}

// CanonicalizeFloat64 maps -0.0 to +0.0 and every NaN bit pattern to a
// single canonical NaN, as required before bit-casting a float64 to bytes
// for hashing (§4.1).
func CanonicalizeFloat64(f float64) float64 {
	if f == 0 {
		return 0
	}
	if math.IsNaN(f) {
		return math.Float64frombits(0x7ff8000000000000)
	}
	return f
}

// LittleEndianUint64Slice encodes a slice of fixed-width elements as the
// concatenation of their little-endian encodings, matching "array of T"
// hashing (§4.1): an array of type T with element size B hashes
// identically to the byte sequence obtained by little-endian encoding of
// each element in order.
func LittleEndianUint64Slice(xs []uint64) []byte {
	out := make([]byte, 8*len(xs))
	for i, x := range xs {
		b := leBytesUint64(x)
		copy(out[i*8:], b[:])
	}
	return out
}

func LittleEndianFloat64Slice(xs []float64) []byte {
	out := make([]byte, 8*len(xs))
	for i, x := range xs {
		b := leBytesUint64(math.Float64bits(CanonicalizeFloat64(x)))
		copy(out[i*8:], b[:])
	}
	return out
}
