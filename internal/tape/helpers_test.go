package tape

import (
	"encoding/binary"
	"testing"
)

// recorder keeps every sample and the size of each sink write.
type recorder struct {
	samples []int16
	chunks  []int
}

func (r *recorder) WriteSamples(s []int16) error {
	r.samples = append(r.samples, s...)
	r.chunks = append(r.chunks, len(s))
	return nil
}

// event is one decoded stretch of tape.
type event struct {
	kind  string // silence, preamble, sync, bytes
	count int    // samples for silence, units for preamble
	data  []byte // for bytes
}

// decodeTape reads pulse run lengths back into symbols. Adjacent silences
// and preamble units merge; consecutive bits are packed LSB first.
func decodeTape(t *testing.T, samples []int16) []event {
	t.Helper()

	var events []event
	var bits []bool

	flushBits := func() {
		if len(bits) == 0 {
			return
		}
		if len(bits)%8 != 0 {
			t.Fatalf("bit run of %d is not whole bytes", len(bits))
		}
		data := make([]byte, len(bits)/8)
		for i, b := range bits {
			if b {
				data[i/8] |= 1 << (i % 8)
			}
		}
		events = append(events, event{kind: "bytes", data: data})
		bits = nil
	}
	push := func(kind string, n int) {
		flushBits()
		if last := len(events) - 1; last >= 0 && kind != "sync" && events[last].kind == kind {
			events[last].count += n
			return
		}
		events = append(events, event{kind: kind, count: n})
	}

	for i := 0; i < len(samples); {
		if samples[i] == 0 {
			j := i
			for j < len(samples) && samples[j] == 0 {
				j++
			}
			push("silence", j-i)
			i = j
			continue
		}
		if samples[i] != PositivePeak {
			t.Fatalf("sample %d: unexpected level %d", i, samples[i])
		}
		j := i
		for j < len(samples) && samples[j] == PositivePeak {
			j++
		}
		k := j
		for k < len(samples) && samples[k] == NegativePeak {
			k++
		}
		high, low := j-i, k-j
		if high != low {
			t.Fatalf("sample %d: asymmetric pulse %d/%d", i, high, low)
		}
		switch high {
		case zeroBitHalf:
			bits = append(bits, false)
		case oneBitHalf:
			bits = append(bits, true)
		case preambleHalf:
			push("preamble", 1)
		case syncHalf:
			push("sync", 1)
		default:
			t.Fatalf("sample %d: unknown pulse half-length %d", i, high)
		}
		i = k
	}
	flushBits()
	return events
}

// testImage builds a consistent CAS image with dataLen program bytes.
func testImage(dataLen int) []byte {
	size := dataOffset + dataLen
	raw := make([]byte, size)
	raw[0] = Marker
	binary.LittleEndian.PutUint16(raw[2:4], uint16(size/casBlockSize))
	raw[4] = byte(size % casBlockSize)
	for i := 0; i < excerptSize; i++ {
		raw[excerptOffset+i] = byte(0xa0 + i)
	}
	for i := 0; i < dataLen; i++ {
		raw[dataOffset+i] = byte(i*7 + 3)
	}
	return raw
}

func crcOf(c CRC, data ...byte) CRC {
	for _, b := range data {
		c = c.UpdateByte(b)
	}
	return c
}

// wantHeadBytes is the framed byte sequence of a head block.
func wantHeadBytes(name string, excerpt []byte) []byte {
	b := []byte{0x00, syncByte, blockTypeHead, modeNonBuffered, notProtected, 1, 0, byte(1 + len(name) + excerptSize)}
	if len(name) <= MaxFilenameLen {
		b = append(b, byte(len(name)))
		b = append(b, name...)
	}
	b = append(b, excerpt...)
	b = append(b, fileEndMark)
	crc := crcOf(0, b[1:]...)
	return append(b, byte(crc), byte(crc>>8))
}

// wantDataBytes is the framed byte sequence of a data block.
func wantDataBytes(data []byte) []byte {
	b := []byte{0x00, syncByte, blockTypeData, modeNonBuffered, notProtected, byte(len(data)/SectorSize + 1)}
	crc := crcOf(0, b[1:]...)
	for off, n := 0, 1; off < len(data); off, n = off+SectorSize, n+1 {
		chunk := data[off:min(off+SectorSize, len(data))]
		if n > 1 {
			crc = 0
		}
		sector := append([]byte{byte(n), byte(len(chunk))}, chunk...)
		crc = crcOf(crc, sector...)
		b = append(b, sector...)
		b = append(b, byte(crc), byte(crc>>8))
	}
	return b
}
