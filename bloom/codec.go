package bloom

import (
	"github.com/greatroar/sketchkit/codec"
	"github.com/greatroar/sketchkit/sketcherr"
)

// wireSize returns the number of bytes MarshalBinary will produce for a
// filter with the given parameters and emptiness.
func wireSize(numWords int, empty bool) int {
	// shared header (8) + numHashes (2) + seed (8) + numBits (8)
	size := 8 + 2 + 8 + 8
	if !empty {
		size += 8 + numWords*8 // numBitsSet + bit array words
	}
	return size
}

// MarshalBinary serializes f per §4.6: a shared preamble, then
// family-specific fields (numHashes, seed, numBits), then — unless f is
// empty — the payload (numBitsSet followed by the bit array's words).
func (f *Filter) MarshalBinary() ([]byte, error) {
	const op = "Filter.MarshalBinary"
	empty := f.IsEmpty()
	nw := f.bits.NumWords()
	buf := make([]byte, wireSize(nw, empty))
	c := codec.NewCursor(buf)

	flags := uint8(0)
	preambleLongs := codec.PreambleLongsNonEmpty
	if empty {
		flags |= codec.FlagEmpty
		preambleLongs = codec.PreambleLongsEmpty
	}
	h := codec.Header{
		PreambleLongs: preambleLongs,
		SerialVersion: codec.SerialVersion,
		FamilyID:      codec.FamilyBloomFilter,
		Flags:         flags,
	}
	if err := codec.WriteHeader(c, op, h); err != nil {
		return nil, err
	}
	if err := c.WriteU16(op, f.k); err != nil {
		return nil, err
	}
	if err := c.WriteU64(op, f.seed); err != nil {
		return nil, err
	}
	if err := c.WriteU64(op, f.bits.Capacity()); err != nil {
		return nil, err
	}
	if empty {
		return buf, nil
	}
	if err := c.WriteU64(op, f.bits.GetNumBitsSet()); err != nil {
		return nil, err
	}
	for i := 0; i < nw; i++ {
		w, err := f.bits.GetLong(uint64(i))
		if err != nil {
			return nil, err
		}
		if err := c.WriteU64(op, w); err != nil {
			return nil, err
		}
	}
	return buf, nil
}

// UnmarshalBinary deserializes a Filter previously produced by
// MarshalBinary. The stored numBitsSet is checked against a fresh
// popcount of the decoded words; a mismatch is reported as a CorruptState
// error.
func UnmarshalBinary(data []byte) (*Filter, error) {
	const op = "bloom.UnmarshalBinary"
	c := codec.NewCursor(data)
	h, err := codec.ReadHeader(c, op)
	if err != nil {
		return nil, err
	}
	if err := codec.CheckFamily(op, h, codec.FamilyBloomFilter); err != nil {
		return nil, err
	}
	k, err := c.ReadU16(op)
	if err != nil {
		return nil, err
	}
	seed, err := c.ReadU64(op)
	if err != nil {
		return nil, err
	}
	numBits, err := c.ReadU64(op)
	if err != nil {
		return nil, err
	}

	f := New(numBits, k, seed)
	if h.IsEmpty() {
		return f, nil
	}

	wantNumBitsSet, err := c.ReadU64(op)
	if err != nil {
		return nil, err
	}
	nw := f.bits.NumWords()
	for i := 0; i < nw; i++ {
		w, err := c.ReadU64(op)
		if err != nil {
			return nil, err
		}
		if err := f.bits.SetLong(uint64(i), w); err != nil {
			return nil, err
		}
	}
	if f.bits.GetNumBitsSet() != wantNumBitsSet {
		return nil, sketcherr.New(op, sketcherr.CorruptState)
	}
	return f, nil
}
