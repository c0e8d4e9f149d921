package clienthello

// cursor is a bounds-checked sequential reader over a borrowed byte slice.
// All decoding in this package goes through it. Reads advance the position
// only on success and never go past the end of the slice. There is no peek
// or rewind; nested length-prefixed structures are handled by creating a
// fresh cursor over an already-bounded subslice.
type cursor struct {
	data []byte
	pos  int
}

func newCursor(p []byte) *cursor {
	return &cursor{data: p}
}

func (c *cursor) remaining() int {
	return len(c.data) - c.pos
}

func (c *cursor) readUint8(field string) (uint8, error) {
	if c.remaining() < 1 {
		return 0, &TruncatedError{Field: field}
	}
	v := c.data[c.pos]
	c.pos++
	return v, nil
}

func (c *cursor) readUint16(field string) (uint16, error) {
	if c.remaining() < 2 {
		return 0, &TruncatedError{Field: field}
	}
	v := uint16(c.data[c.pos])<<8 | uint16(c.data[c.pos+1])
	c.pos += 2
	return v, nil
}

// readUint24 reads a 3-byte big-endian unsigned integer. The top byte of
// the returned value is always zero.
func (c *cursor) readUint24(field string) (uint32, error) {
	if c.remaining() < 3 {
		return 0, &TruncatedError{Field: field}
	}
	v := uint32(c.data[c.pos])<<16 | uint32(c.data[c.pos+1])<<8 | uint32(c.data[c.pos+2])
	c.pos += 3
	return v, nil
}

// readBytes returns the next n bytes as a subslice of the underlying
// buffer. No copy is made.
func (c *cursor) readBytes(n int, field string) ([]byte, error) {
	if c.remaining() < n {
		return nil, &TruncatedError{Field: field}
	}
	v := c.data[c.pos : c.pos+n]
	c.pos += n
	return v, nil
}

// readVarInt reads a QUIC variable-length integer (RFC 9000 section 16).
// The two most significant bits of the first byte encode the total length:
// 1, 2, 4 or 8 bytes. Used by the QUIC layer only.
func (c *cursor) readVarInt(field string) (uint64, error) {
	if c.remaining() < 1 {
		return 0, &TruncatedError{Field: field}
	}
	n := 1 << (c.data[c.pos] >> 6)
	if c.remaining() < n {
		return 0, &TruncatedError{Field: field}
	}
	v := uint64(c.data[c.pos] & 0x3f)
	for i := 1; i < n; i++ {
		v = v<<8 | uint64(c.data[c.pos+i])
	}
	c.pos += n
	return v, nil
}
