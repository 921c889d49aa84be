package tape

// CRC is the running 16-bit block checksum the TVC loader verifies.
type CRC uint16

const crcFeedback CRC = 0x0810

// Update folds one protocol bit into the register and returns the new state.
// The high byte is tested with the incoming bit in its top position; a set
// carry feeds 0x0810 back before the two-place shift and sets bit 0 after it.
func (c CRC) Update(bit bool) CRC {
	a := byte(c >> 8)
	if bit {
		a ^= 0x80
	}
	carry := a&0x80 != 0
	if carry {
		c ^= crcFeedback
	}
	c <<= 2
	if carry {
		c++
	}
	return c
}

// UpdateByte folds v into the register LSB first, matching EmitByte.
func (c CRC) UpdateByte(v byte) CRC {
	for range 8 {
		c = c.Update(v&1 == 1)
		v >>= 1
	}
	return c
}
