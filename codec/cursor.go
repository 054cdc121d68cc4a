// Package codec implements the deterministic byte-layout building blocks
// shared by every sketch's serialized form (C6): a positional Cursor over a
// byte segment, and the shared 8-byte preamble header described in spec
// §4.6.
//
// Grounded on apache/datasketches-go's hand-rolled preamble field helpers
// (extractPreLongs/insertPreLongs and friends, in
// other_examples/f174d478_..._items_sketch.go.go and
// other_examples/083dbfea_..._bloom_filter.go.go) and on the
// rpcpool/yellowstone-faithful compactindex format
// (other_examples/b46453ca_...), which uses the same
// "fixed header, then a cursor over positional fields" shape. Every field
// is little-endian, matching §4.6 and the stdlib encoding/binary
// convention every grounding source in the pack uses for this.
package codec

import (
	"encoding/binary"

	"github.com/greatroar/sketchkit/sketcherr"
)

// Cursor wraps a byte segment with a mutable read/write position,
// consuming fixed-width little-endian fields in declared order. It is
// used for both serialization (writing into a freshly-sized buffer) and
// deserialization (reading from a caller-supplied or externally-backed
// buffer).
type Cursor struct {
	buf []byte
	pos int
}

// NewCursor wraps buf for sequential reads and writes starting at
// position 0.
func NewCursor(buf []byte) *Cursor {
	return &Cursor{buf: buf}
}

// Pos returns the current position.
func (c *Cursor) Pos() int { return c.pos }

// Remaining returns the number of unread/unwritten bytes.
func (c *Cursor) Remaining() int { return len(c.buf) - c.pos }

// Bytes returns the full underlying segment.
func (c *Cursor) Bytes() []byte { return c.buf }

func (c *Cursor) need(op string, n int) error {
	if c.Remaining() < n {
		return sketcherr.New(op, sketcherr.TooSmallBuffer)
	}
	return nil
}

// ReadU8 reads one byte and advances the cursor.
func (c *Cursor) ReadU8(op string) (uint8, error) {
	if err := c.need(op, 1); err != nil {
		return 0, err
	}
	v := c.buf[c.pos]
	c.pos++
	return v, nil
}

// WriteU8 writes one byte and advances the cursor.
func (c *Cursor) WriteU8(op string, v uint8) error {
	if err := c.need(op, 1); err != nil {
		return err
	}
	c.buf[c.pos] = v
	c.pos++
	return nil
}

// ReadU16 reads a little-endian uint16 and advances the cursor.
func (c *Cursor) ReadU16(op string) (uint16, error) {
	if err := c.need(op, 2); err != nil {
		return 0, err
	}
	v := binary.LittleEndian.Uint16(c.buf[c.pos:])
	c.pos += 2
	return v, nil
}

// WriteU16 writes a little-endian uint16 and advances the cursor.
func (c *Cursor) WriteU16(op string, v uint16) error {
	if err := c.need(op, 2); err != nil {
		return err
	}
	binary.LittleEndian.PutUint16(c.buf[c.pos:], v)
	c.pos += 2
	return nil
}

// ReadU32 reads a little-endian uint32 and advances the cursor.
func (c *Cursor) ReadU32(op string) (uint32, error) {
	if err := c.need(op, 4); err != nil {
		return 0, err
	}
	v := binary.LittleEndian.Uint32(c.buf[c.pos:])
	c.pos += 4
	return v, nil
}

// WriteU32 writes a little-endian uint32 and advances the cursor.
func (c *Cursor) WriteU32(op string, v uint32) error {
	if err := c.need(op, 4); err != nil {
		return err
	}
	binary.LittleEndian.PutUint32(c.buf[c.pos:], v)
	c.pos += 4
	return nil
}

// ReadU64 reads a little-endian uint64 and advances the cursor.
func (c *Cursor) ReadU64(op string) (uint64, error) {
	if err := c.need(op, 8); err != nil {
		return 0, err
	}
	v := binary.LittleEndian.Uint64(c.buf[c.pos:])
	c.pos += 8
	return v, nil
}

// WriteU64 writes a little-endian uint64 and advances the cursor.
func (c *Cursor) WriteU64(op string, v uint64) error {
	if err := c.need(op, 8); err != nil {
		return err
	}
	binary.LittleEndian.PutUint64(c.buf[c.pos:], v)
	c.pos += 8
	return nil
}

// ReadBytes returns the next n bytes as a sub-slice (sharing storage with
// the cursor's buffer) and advances the cursor.
func (c *Cursor) ReadBytes(op string, n int) ([]byte, error) {
	if err := c.need(op, n); err != nil {
		return nil, err
	}
	v := c.buf[c.pos : c.pos+n]
	c.pos += n
	return v, nil
}

// WriteBytes copies src into the cursor at the current position and
// advances it.
func (c *Cursor) WriteBytes(op string, src []byte) error {
	if err := c.need(op, len(src)); err != nil {
		return err
	}
	copy(c.buf[c.pos:], src)
	c.pos += len(src)
	return nil
}
