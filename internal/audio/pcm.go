package audio

import (
	"encoding/binary"
	"fmt"
	"io"
)

// SamplesToBytes converts int16 samples to little-endian bytes.
func SamplesToBytes(samples []int16) []byte {
	return AppendSamples(make([]byte, 0, len(samples)*2), samples)
}

// AppendSamples appends samples to dst as little-endian bytes.
func AppendSamples(dst []byte, samples []int16) []byte {
	for _, s := range samples {
		dst = binary.LittleEndian.AppendUint16(dst, uint16(s))
	}
	return dst
}

// BytesToSamples decodes little-endian int16 samples. A trailing odd byte
// is ignored.
func BytesToSamples(b []byte) []int16 {
	samples := make([]int16, len(b)/2)
	for i := range samples {
		samples[i] = int16(binary.LittleEndian.Uint16(b[i*2 : i*2+2]))
	}
	return samples
}

// PCMWriter writes raw little-endian samples with no header.
type PCMWriter struct {
	w       io.Writer
	buf     []byte
	samples int64
}

// NewPCMWriter returns a sink writing raw s16le to w.
func NewPCMWriter(w io.Writer) *PCMWriter {
	return &PCMWriter{w: w}
}

// WriteSamples encodes and writes samples.
func (p *PCMWriter) WriteSamples(samples []int16) error {
	p.buf = AppendSamples(p.buf[:0], samples)
	if _, err := p.w.Write(p.buf); err != nil {
		return fmt.Errorf("pcm write: %w", err)
	}
	p.samples += int64(len(samples))
	return nil
}

// Samples returns the number of samples written so far.
func (p *PCMWriter) Samples() int64 {
	return p.samples
}
