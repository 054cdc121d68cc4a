package quotient

import (
	"github.com/greatroar/sketchkit/codec"
)

// MarshalBinary serializes f per §4.6: a shared preamble, then
// family-specific fields (lgNumSlots, fingerprintBits, numEntries,
// numExpansions), then — unless f is empty — the bit-packed slot buffer.
// maxLoadFactor and seed are construction-time parameters, not part of
// the wire format; UnmarshalBinary takes them as arguments.
func (f *Filter) MarshalBinary() ([]byte, error) {
	const op = "Filter.MarshalBinary"
	empty := f.numEntries == 0
	nw := f.slots.NumWords()
	size := 8 + 1 + 1 + 8 + 4
	if !empty {
		size += nw * 8
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
		FamilyID:      codec.FamilyQuotientFilter,
		Flags:         flags,
	}
	if err := codec.WriteHeader(c, op, h); err != nil {
		return nil, err
	}
	if err := c.WriteU8(op, f.lgNumSlots); err != nil {
		return nil, err
	}
	if err := c.WriteU8(op, f.fingerprintBits); err != nil {
		return nil, err
	}
	if err := c.WriteU64(op, f.numEntries); err != nil {
		return nil, err
	}
	if err := c.WriteU32(op, f.numExpansions); err != nil {
		return nil, err
	}
	if empty {
		return buf, nil
	}
	for i := 0; i < nw; i++ {
		w, err := f.slots.GetLong(uint64(i))
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
// MarshalBinary. maxLoadFactor and seed must match the values the
// filter was originally constructed with, since neither is part of the
// wire format.
func UnmarshalBinary(data []byte, maxLoadFactor float64, seed uint64) (*Filter, error) {
	const op = "quotient.UnmarshalBinary"
	c := codec.NewCursor(data)
	h, err := codec.ReadHeader(c, op)
	if err != nil {
		return nil, err
	}
	if err := codec.CheckFamily(op, h, codec.FamilyQuotientFilter); err != nil {
		return nil, err
	}
	lg, err := c.ReadU8(op)
	if err != nil {
		return nil, err
	}
	fb, err := c.ReadU8(op)
	if err != nil {
		return nil, err
	}
	numEntries, err := c.ReadU64(op)
	if err != nil {
		return nil, err
	}
	numExpansions, err := c.ReadU32(op)
	if err != nil {
		return nil, err
	}

	f := New(lg, fb, maxLoadFactor, seed)
	f.numExpansions = numExpansions
	if h.IsEmpty() {
		return f, nil
	}

	nw := f.slots.NumWords()
	for i := 0; i < nw; i++ {
		w, err := c.ReadU64(op)
		if err != nil {
			return nil, err
		}
		if err := f.slots.SetLong(uint64(i), w); err != nil {
			return nil, err
		}
	}
	f.numEntries = numEntries
	return f, nil
}
