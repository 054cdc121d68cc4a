package codec

import "github.com/greatroar/sketchkit/sketcherr"

// SerialVersion is the wire format version written by this package. It is
// bumped whenever the layout of a sketch's payload changes incompatibly.
const SerialVersion = 1

// Family IDs distinguish which sketch a serialized blob holds, per §4.6.
const (
	FamilyBloomFilter    = 1
	FamilyQuotientFilter = 2
	FamilyFrequentItems  = 3
)

// Preamble flag bits (byte 3 of the shared header).
const (
	FlagEmpty      uint8 = 1 << 0
	FlagReadOnlySrc uint8 = 1 << 1
)

// PreambleLongsEmpty and PreambleLongsNonEmpty are the two values the
// first preamble byte takes across every sketch in this package: one word
// for an empty sketch, two for a populated one.
const (
	PreambleLongsEmpty    uint8 = 1
	PreambleLongsNonEmpty uint8 = 2
)

// Header is the shared 8-byte preamble every sketch writes before its own
// family-specific fields and payload.
type Header struct {
	PreambleLongs uint8
	SerialVersion uint8
	FamilyID      uint8
	Flags         uint8
	// Param is the 4-byte little-endian field at offset 4..7. Its meaning
	// is family-specific (e.g. unused, or a secondary size field); sketches
	// that don't need it write zero.
	Param uint32
}

// IsEmpty reports whether the FlagEmpty bit is set.
func (h Header) IsEmpty() bool { return h.Flags&FlagEmpty != 0 }

// WriteHeader writes the shared 8-byte preamble at the cursor's current
// position.
func WriteHeader(c *Cursor, op string, h Header) error {
	if err := c.WriteU8(op, h.PreambleLongs); err != nil {
		return err
	}
	if err := c.WriteU8(op, h.SerialVersion); err != nil {
		return err
	}
	if err := c.WriteU8(op, h.FamilyID); err != nil {
		return err
	}
	if err := c.WriteU8(op, h.Flags); err != nil {
		return err
	}
	return c.WriteU32(op, h.Param)
}

// ReadHeader reads the shared 8-byte preamble from the cursor's current
// position.
func ReadHeader(c *Cursor, op string) (Header, error) {
	var h Header
	var err error
	if h.PreambleLongs, err = c.ReadU8(op); err != nil {
		return h, err
	}
	if h.SerialVersion, err = c.ReadU8(op); err != nil {
		return h, err
	}
	if h.FamilyID, err = c.ReadU8(op); err != nil {
		return h, err
	}
	if h.Flags, err = c.ReadU8(op); err != nil {
		return h, err
	}
	if h.Param, err = c.ReadU32(op); err != nil {
		return h, err
	}
	return h, nil
}

// CheckFamily returns a CorruptState error if h doesn't match the
// expected family and serial version.
func CheckFamily(op string, h Header, wantFamily uint8) error {
	if h.SerialVersion != SerialVersion {
		return sketcherr.New(op, sketcherr.CorruptState)
	}
	if h.FamilyID != wantFamily {
		return sketcherr.New(op, sketcherr.CorruptState)
	}
	wantLongs := PreambleLongsNonEmpty
	if h.IsEmpty() {
		wantLongs = PreambleLongsEmpty
	}
	if h.PreambleLongs != wantLongs {
		return sketcherr.New(op, sketcherr.CorruptState)
	}
	return nil
}
