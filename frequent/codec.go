package frequent

import (
	"github.com/greatroar/sketchkit/codec"
)

// MarshalBinary serializes f per §4.6: a shared preamble (maxSize packed
// into the header's Param field), then offset and streamLength, then —
// unless f is empty — the number of live pairs followed by the key/count
// pairs in arbitrary order.
func (f *FrequentItems) MarshalBinary() ([]byte, error) {
	const op = "FrequentItems.MarshalBinary"
	empty := f.IsEmpty()
	nnz := len(f.counts)
	size := 8 + 8 + 8
	if !empty {
		size += 8 + nnz*16
	}
	buf := make([]byte, size)
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
		FamilyID:      codec.FamilyFrequentItems,
		Flags:         flags,
		Param:         uint32(f.maxSize),
	}
	if err := codec.WriteHeader(c, op, h); err != nil {
		return nil, err
	}
	if err := c.WriteU64(op, uint64(f.offset)); err != nil {
		return nil, err
	}
	if err := c.WriteU64(op, uint64(f.streamLength)); err != nil {
		return nil, err
	}
	if empty {
		return buf, nil
	}
	if err := c.WriteU64(op, uint64(nnz)); err != nil {
		return nil, err
	}
	for k, v := range f.counts {
		if err := c.WriteU64(op, k); err != nil {
			return nil, err
		}
		if err := c.WriteU64(op, uint64(v)); err != nil {
			return nil, err
		}
	}
	return buf, nil
}

// UnmarshalBinary deserializes a FrequentItems previously produced by
// MarshalBinary.
func UnmarshalBinary(data []byte) (*FrequentItems, error) {
	const op = "frequent.UnmarshalBinary"
	c := codec.NewCursor(data)
	h, err := codec.ReadHeader(c, op)
	if err != nil {
		return nil, err
	}
	if err := codec.CheckFamily(op, h, codec.FamilyFrequentItems); err != nil {
		return nil, err
	}

	f := New(int(h.Param))
	offset, err := c.ReadU64(op)
	if err != nil {
		return nil, err
	}
	f.offset = int64(offset)
	streamLength, err := c.ReadU64(op)
	if err != nil {
		return nil, err
	}
	f.streamLength = int64(streamLength)
	if h.IsEmpty() {
		return f, nil
	}

	nnz, err := c.ReadU64(op)
	if err != nil {
		return nil, err
	}
	for i := uint64(0); i < nnz; i++ {
		k, err := c.ReadU64(op)
		if err != nil {
			return nil, err
		}
		v, err := c.ReadU64(op)
		if err != nil {
			return nil, err
		}
		f.counts[k] = int64(v)
	}
	return f, nil
}
