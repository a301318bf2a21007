package decode

// Cursor provides sequential, position-tracked access to the input byte
// stream. It is the only component that advances the read position, which
// keeps declared instruction lengths in sync with the bytes actually
// consumed. The cursor never rewinds.
type Cursor struct {
	buf []byte
	pos int
}

// NewCursor returns a cursor positioned at the start of buf.
func NewCursor(buf []byte) *Cursor {
	return &Cursor{buf: buf}
}

// Pos returns the zero-based position of the next unread byte.
func (c *Cursor) Pos() int {
	return c.pos
}

// More reports whether any bytes remain.
func (c *Cursor) More() bool {
	return c.pos < len(c.buf)
}

// NextByte consumes and returns the next byte.
func (c *Cursor) NextByte() (byte, error) {
	if c.pos >= len(c.buf) {
		return 0, truncatedAt(c.pos)
	}
	b := c.buf[c.pos]
	c.pos++
	return b, nil
}

// NextUnsigned8 consumes one byte and returns it unchanged. IN and OUT use
// it for their port operand, which is never sign-extended.
func (c *Cursor) NextUnsigned8() (uint8, error) {
	return c.NextByte()
}

// NextSigned16 consumes two bytes little-endian when wide, otherwise one
// byte sign-extended to 16 bits.
func (c *Cursor) NextSigned16(wide bool) (int16, error) {
	lo, err := c.NextByte()
	if err != nil {
		return 0, err
	}
	if !wide {
		return int16(int8(lo)), nil
	}
	hi, err := c.NextByte()
	if err != nil {
		return 0, err
	}
	return int16(uint16(lo) | uint16(hi)<<8), nil
}

// NextUnsigned16 consumes two bytes little-endian. Far CALL/JMP use it for
// their absolute segment:offset pair.
func (c *Cursor) NextUnsigned16() (uint16, error) {
	lo, err := c.NextByte()
	if err != nil {
		return 0, err
	}
	hi, err := c.NextByte()
	if err != nil {
		return 0, err
	}
	return uint16(lo) | uint16(hi)<<8, nil
}
