package tape

// MaxFilenameLen is the longest name the head block can carry.
const MaxFilenameLen = 10

// Silence emits one second of zero samples.
func (s *Session) Silence() {
	s.segment(SegmentSilence, 0, func() {
		s.burst(silenceWave, SilenceSamples)
	})
}

// Preamble emits n preamble units.
func (s *Session) Preamble(n int) {
	s.segment(SegmentPreamble, 0, func() {
		s.burst(preambleWave, n)
	})
}

// Sync emits the single sync tone that ends a preamble.
func (s *Session) Sync() {
	s.segment(SegmentSync, 0, func() {
		s.append(syncWave)
	})
}

func (s *Session) emitBit(bit bool) {
	if bit {
		s.append(oneBitWave)
	} else {
		s.append(zeroBitWave)
	}
	s.crc = s.crc.Update(bit)
}

// EmitByte emits v least significant bit first.
func (s *Session) EmitByte(v byte) {
	for range 8 {
		s.emitBit(v&1 == 1)
		v >>= 1
	}
}

// EmitWord emits v little-endian.
func (s *Session) EmitWord(v uint16) {
	s.EmitByte(byte(v))
	s.EmitByte(byte(v >> 8))
}

// EmitString emits a length-prefixed string. Names longer than
// MaxFilenameLen emit nothing and return *FilenameOverflowError.
func (s *Session) EmitString(str string) error {
	if len(str) > MaxFilenameLen {
		return &FilenameOverflowError{Name: str}
	}
	s.EmitByte(byte(len(str)))
	for i := 0; i < len(str); i++ {
		s.EmitByte(str[i])
	}
	return nil
}
