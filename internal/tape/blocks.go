package tape

// Block framing constants.
const (
	SectorSize = 256

	headPreambleUnits  = 10240
	dataPreambleUnits  = 5120
	trailPreambleUnits = 5

	blockTypeHead   = 0xff
	blockTypeData   = 0x00
	modeNonBuffered = 0x11
	notProtected    = 0x00
	syncByte        = 0x6a
	fileEndMark     = 0x00
)

// syncMarker emits the two leading sync bytes. The CRC restarts between
// them, so only 0x6a and what follows count toward the block checksum.
func (s *Session) syncMarker() {
	s.EmitByte(0x00)
	s.ResetCRC()
	s.EmitByte(syncByte)
}

// HeadBlock emits the head block: two seconds of silence, the long
// preamble, sync, then the single zero-numbered sector holding the file
// name and the 16-byte CAS header excerpt.
func (s *Session) HeadBlock(excerpt []byte) {
	s.Silence()
	s.Silence()
	s.Preamble(headPreambleUnits)
	s.Sync()

	name := s.opts.Filename
	s.segment(SegmentHead, 0, func() {
		s.syncMarker()

		s.EmitByte(blockTypeHead)
		s.EmitByte(modeNonBuffered)
		s.EmitByte(notProtected)
		s.EmitByte(1) // sectors in the head block
		s.EmitByte(0) // head sector is always number zero
		s.EmitByte(byte(1 + len(name) + excerptSize))

		if err := s.EmitString(name); err != nil {
			s.log.Warn("head block written without file name", "name", name, "error", err)
			s.warnings = append(s.warnings, err)
		}

		for _, b := range excerpt {
			s.EmitByte(b)
		}

		s.EmitByte(fileEndMark)
		s.EmitWord(uint16(s.crc))
	})

	s.Preamble(trailPreambleUnits)
}

// DataBlock emits data as one data block split into sectors of at most
// SectorSize bytes numbered from 1. Callers pass the program bytes that
// follow the 0x90-byte file header, not the file from offset 0.
//
// Sector 1's checksum continues from the block header bytes; every later
// sector starts from zero. The sector-count byte is len/256+1 even when
// len is a multiple of 256, and a full sector's length byte is 0.
func (s *Session) DataBlock(data []byte) {
	s.Silence()
	s.Preamble(dataPreambleUnits)
	s.Sync()

	s.segment(SegmentDataHeader, 0, func() {
		s.syncMarker()

		s.EmitByte(blockTypeData)
		s.EmitByte(modeNonBuffered)
		s.EmitByte(notProtected)
		s.EmitByte(byte(len(data)/SectorSize + 1))
	})

	for offset, sector := 0, 1; offset < len(data); offset, sector = offset+SectorSize, sector+1 {
		chunk := data[offset:min(offset+SectorSize, len(data))]
		s.segment(SegmentSector, sector, func() {
			s.sector(chunk, sector)
		})
	}

	s.Preamble(trailPreambleUnits)
	s.Silence()
	s.Silence()
}

func (s *Session) sector(chunk []byte, number int) {
	if number > 1 {
		s.ResetCRC()
	}
	s.EmitByte(byte(number))
	s.EmitByte(byte(len(chunk)))
	for _, b := range chunk {
		s.EmitByte(b)
	}
	s.EmitWord(uint16(s.crc))
}
