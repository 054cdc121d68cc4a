// Package bitset implements BitArray, a fixed-capacity bit vector with
// three storage representations: heap-owned, externally-backed writable,
// and externally-backed read-only. It is the shared backing structure for
// BloomFilter (as a plain bit vector) and QuotientFilter (as a bit-packed
// slot array, via GetBits/SetBits).
//
// Grounded on blobloom's block type (fixed-size word arrays with
// popcount/union/intersect over uint32 words) and on
// apache/datasketches-go's BloomFilter bit-array helpers
// (other_examples/083dbfea_..._bloom_filter.go.go), generalized per the
// spec's own design note (§9) into one concrete type parameterized by a
// storage interface instead of three duck-typed classes.
package bitset

import (
	"encoding/binary"
	"math/bits"

	"github.com/greatroar/sketchkit/sketcherr"
)

// storage abstracts the three representations of a BitArray's backing
// words: a heap-owned slice, a view over an externally-supplied byte
// segment, and a read-only view over the same.
type storage interface {
	numWords() int
	getWord(i int) uint64
	setWord(i int, v uint64)
	writable() bool
}

// heapStorage owns its words outright.
type heapStorage struct {
	words []uint64
}

func (s *heapStorage) numWords() int        { return len(s.words) }
func (s *heapStorage) getWord(i int) uint64 { return s.words[i] }
func (s *heapStorage) setWord(i int, v uint64) {
	s.words[i] = v
}
func (s *heapStorage) writable() bool { return true }

// byteStorage is a view over a caller-supplied []byte segment, decoded as
// little-endian uint64 words. It backs both the writable and read-only
// external representations; the only difference is the canWrite flag.
type byteStorage struct {
	buf      []byte
	canWrite bool
}

func (s *byteStorage) numWords() int { return len(s.buf) / 8 }
func (s *byteStorage) getWord(i int) uint64 {
	return binary.LittleEndian.Uint64(s.buf[i*8 : i*8+8])
}
func (s *byteStorage) setWord(i int, v uint64) {
	binary.LittleEndian.PutUint64(s.buf[i*8:i*8+8], v)
}
func (s *byteStorage) writable() bool { return s.canWrite }

// BitArray is a fixed-capacity sequence of bits, rounded up to a multiple
// of 64, with a lazily-recomputed population count.
type BitArray struct {
	capacity   uint64
	store      storage
	numBitsSet uint64
	dirty      bool
}

// New creates a heap-allocated BitArray with room for at least n bits.
// Effective capacity is ceil(n/64)*64.
func New(n uint64) *BitArray {
	nw := wordsFor(n)
	return &BitArray{
		capacity: nw * 64,
		store:    &heapStorage{words: make([]uint64, nw)},
	}
}

// NewView wraps an externally-supplied, writable byte segment as a
// BitArray with room for n bits. buf must be at least ceil(n/64)*8 bytes;
// otherwise NewView returns a TooSmallBuffer error. The lifetime of buf
// must exceed the BitArray's: the BitArray never frees it.
func NewView(buf []byte, n uint64) (*BitArray, error) {
	return newExternal(buf, n, true)
}

// NewReadOnlyView wraps an externally-supplied byte segment as a
// read-only BitArray with room for n bits. Every mutating method on the
// result returns a ReadOnly error.
func NewReadOnlyView(buf []byte, n uint64) (*BitArray, error) {
	return newExternal(buf, n, false)
}

func newExternal(buf []byte, n uint64, writable bool) (*BitArray, error) {
	nw := wordsFor(n)
	need := int(nw) * 8
	if len(buf) < need {
		return nil, sketcherr.New("BitArray", sketcherr.TooSmallBuffer)
	}
	return &BitArray{
		capacity: nw * 64,
		store:    &byteStorage{buf: buf[:need], canWrite: writable},
	}, nil
}

func wordsFor(n uint64) uint64 {
	if n == 0 {
		return 0
	}
	return (n + 63) / 64
}

// Capacity returns the number of addressable bits.
func (b *BitArray) Capacity() uint64 { return b.capacity }

// ReadOnly reports whether mutating methods on b will fail.
func (b *BitArray) ReadOnly() bool { return !b.store.writable() }

func (b *BitArray) checkRange(op string, i uint64) error {
	if i >= b.capacity {
		return sketcherr.New(op, sketcherr.OutOfRange)
	}
	return nil
}

func (b *BitArray) checkWritable(op string) error {
	if !b.store.writable() {
		return sketcherr.New(op, sketcherr.ReadOnly)
	}
	return nil
}

// GetBit returns the bit at index i.
func (b *BitArray) GetBit(i uint64) (bool, error) {
	if err := b.checkRange("BitArray.GetBit", i); err != nil {
		return false, err
	}
	w := b.store.getWord(int(i / 64))
	return w&(uint64(1)<<(i%64)) != 0, nil
}

// SetBit sets the bit at index i to 1 and marks the population count
// dirty.
func (b *BitArray) SetBit(i uint64) error {
	if err := b.checkRange("BitArray.SetBit", i); err != nil {
		return err
	}
	if err := b.checkWritable("BitArray.SetBit"); err != nil {
		return err
	}
	wi := int(i / 64)
	b.store.setWord(wi, b.store.getWord(wi)|(uint64(1)<<(i%64)))
	b.dirty = true
	return nil
}

// ClearBit sets the bit at index i to 0 and marks the population count
// dirty.
func (b *BitArray) ClearBit(i uint64) error {
	if err := b.checkRange("BitArray.ClearBit", i); err != nil {
		return err
	}
	if err := b.checkWritable("BitArray.ClearBit"); err != nil {
		return err
	}
	wi := int(i / 64)
	b.store.setWord(wi, b.store.getWord(wi)&^(uint64(1)<<(i%64)))
	b.dirty = true
	return nil
}

// AssignBit writes v to the bit at index i and marks the population count
// dirty.
func (b *BitArray) AssignBit(i uint64, v bool) error {
	if v {
		return b.SetBit(i)
	}
	return b.ClearBit(i)
}

// GetAndSetBit returns the previous value of the bit at index i and sets
// it to 1, maintaining numBitsSet exactly (no popcount rescan needed).
func (b *BitArray) GetAndSetBit(i uint64) (bool, error) {
	if err := b.checkRange("BitArray.GetAndSetBit", i); err != nil {
		return false, err
	}
	if err := b.checkWritable("BitArray.GetAndSetBit"); err != nil {
		return false, err
	}
	wi := int(i / 64)
	mask := uint64(1) << (i % 64)
	w := b.store.getWord(wi)
	old := w&mask != 0
	if !old {
		b.store.setWord(wi, w|mask)
		if !b.dirty {
			b.numBitsSet++
		}
	}
	return old, nil
}

// GetBits reads n bits (n <= 64) starting at bit index i, which may span
// at most two words.
func (b *BitArray) GetBits(i uint64, n uint) (uint64, error) {
	if n == 0 || n > 64 {
		return 0, sketcherr.New("BitArray.GetBits", sketcherr.InvalidArgument)
	}
	if err := b.checkRange("BitArray.GetBits", i); err != nil {
		return 0, err
	}
	if i+uint64(n) > b.capacity {
		return 0, sketcherr.New("BitArray.GetBits", sketcherr.OutOfRange)
	}

	wi := int(i / 64)
	bit := i % 64
	lo := b.store.getWord(wi)
	v := lo >> bit

	if bit+uint64(n) > 64 {
		hi := b.store.getWord(wi + 1)
		v |= hi << (64 - bit)
	}
	if n < 64 {
		v &= (uint64(1) << n) - 1
	}
	return v, nil
}

// SetBits writes the low n bits (n <= 64) of v starting at bit index i,
// and marks the population count dirty.
func (b *BitArray) SetBits(i uint64, n uint, v uint64) error {
	if n == 0 || n > 64 {
		return sketcherr.New("BitArray.SetBits", sketcherr.InvalidArgument)
	}
	if err := b.checkRange("BitArray.SetBits", i); err != nil {
		return err
	}
	if i+uint64(n) > b.capacity {
		return sketcherr.New("BitArray.SetBits", sketcherr.OutOfRange)
	}
	if err := b.checkWritable("BitArray.SetBits"); err != nil {
		return err
	}

	var mask uint64
	if n == 64 {
		mask = ^uint64(0)
	} else {
		mask = (uint64(1) << n) - 1
	}
	v &= mask

	wi := int(i / 64)
	bit := i % 64

	lo := b.store.getWord(wi)
	lo = (lo &^ (mask << bit)) | (v << bit)
	b.store.setWord(wi, lo)

	if bit+uint64(n) > 64 {
		spill := 64 - bit
		hi := b.store.getWord(wi + 1)
		hiMask := mask >> spill
		hi = (hi &^ hiMask) | (v >> spill)
		b.store.setWord(wi+1, hi)
	}

	b.dirty = true
	return nil
}

// GetLong returns the w-th 64-bit word.
func (b *BitArray) GetLong(w uint64) (uint64, error) {
	if w >= uint64(b.store.numWords()) {
		return 0, sketcherr.New("BitArray.GetLong", sketcherr.OutOfRange)
	}
	return b.store.getWord(int(w)), nil
}

// SetLong writes the w-th 64-bit word and marks the population count
// dirty.
func (b *BitArray) SetLong(w uint64, v uint64) error {
	if w >= uint64(b.store.numWords()) {
		return sketcherr.New("BitArray.SetLong", sketcherr.OutOfRange)
	}
	if err := b.checkWritable("BitArray.SetLong"); err != nil {
		return err
	}
	b.store.setWord(int(w), v)
	b.dirty = true
	return nil
}

// Invert flips every one of the capacity bits, maintaining numBitsSet
// exactly as capacity-numBitsSet.
func (b *BitArray) Invert() error {
	if err := b.checkWritable("BitArray.Invert"); err != nil {
		return err
	}
	before := b.GetNumBitsSet()
	nw := b.store.numWords()
	for i := 0; i < nw; i++ {
		b.store.setWord(i, ^b.store.getWord(i))
	}
	b.clearTailBits()
	b.numBitsSet = b.capacity - before
	b.dirty = false
	return nil
}

// clearTailBits zeroes any bits in the last word beyond capacity, so that
// popcount and Invert never see stray set bits past the end.
func (b *BitArray) clearTailBits() {
	rem := b.capacity % 64
	if rem == 0 {
		return
	}
	nw := b.store.numWords()
	if nw == 0 {
		return
	}
	last := nw - 1
	mask := (uint64(1) << rem) - 1
	b.store.setWord(last, b.store.getWord(last)&mask)
}

// Reset zeroes every bit, maintaining numBitsSet exactly as zero.
func (b *BitArray) Reset() error {
	if err := b.checkWritable("BitArray.Reset"); err != nil {
		return err
	}
	nw := b.store.numWords()
	for i := 0; i < nw; i++ {
		b.store.setWord(i, 0)
	}
	b.numBitsSet = 0
	b.dirty = false
	return nil
}

// Union ORs other's bits into b, in place.
func (b *BitArray) Union(other *BitArray) error {
	if err := b.checkCompatible("BitArray.Union", other); err != nil {
		return err
	}
	if err := b.checkWritable("BitArray.Union"); err != nil {
		return err
	}
	nw := b.store.numWords()
	for i := 0; i < nw; i++ {
		b.store.setWord(i, b.store.getWord(i)|other.store.getWord(i))
	}
	b.dirty = true
	return nil
}

// Intersect ANDs other's bits into b, in place.
func (b *BitArray) Intersect(other *BitArray) error {
	if err := b.checkCompatible("BitArray.Intersect", other); err != nil {
		return err
	}
	if err := b.checkWritable("BitArray.Intersect"); err != nil {
		return err
	}
	nw := b.store.numWords()
	for i := 0; i < nw; i++ {
		b.store.setWord(i, b.store.getWord(i)&other.store.getWord(i))
	}
	b.dirty = true
	return nil
}

func (b *BitArray) checkCompatible(op string, other *BitArray) error {
	if other == nil || other.capacity != b.capacity {
		return sketcherr.New(op, sketcherr.InvalidArgument)
	}
	return nil
}

// GetNumBitsSet returns the population count, rescanning and re-caching it
// if dirty.
func (b *BitArray) GetNumBitsSet() uint64 {
	if !b.dirty {
		return b.numBitsSet
	}
	var n uint64
	nw := b.store.numWords()
	for i := 0; i < nw; i++ {
		n += uint64(bits.OnesCount64(b.store.getWord(i)))
	}
	b.numBitsSet = n
	b.dirty = false
	return n
}

// NumWords returns the number of 64-bit words backing b.
func (b *BitArray) NumWords() int { return b.store.numWords() }
