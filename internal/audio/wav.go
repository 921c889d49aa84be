package audio

import (
	"encoding/binary"
	"fmt"
	"io"
)

const (
	// standard wav header constants
	riffChunkID  = "RIFF"
	waveFormatID = "WAVE"
	fmtChunkID   = "fmt "
	dataChunkID  = "data"
	pcmFormatTag = 1  // pcm audio format
	fmtChunkSize = 16 // size of the fmt chunk

	WAVHeaderSize = 44

	// StreamingDataSize marks a data chunk of unknown length.
	StreamingDataSize = 0xffffffff

	riffSizeOffset = 4
	dataSizeOffset = 40
)

// WriteWAVHeader writes a canonical 44-byte PCM wav header for dataSize
// bytes of audio in format f.
func WriteWAVHeader(w io.Writer, f Format, dataSize uint32) error {
	riffSize := uint32(StreamingDataSize)
	if dataSize != StreamingDataSize {
		riffSize = 36 + dataSize // total file size minus 8 bytes for the riff header
	}

	header := make([]byte, 0, WAVHeaderSize)
	header = append(header, riffChunkID...)
	header = binary.LittleEndian.AppendUint32(header, riffSize)
	header = append(header, waveFormatID...)

	header = append(header, fmtChunkID...)
	header = binary.LittleEndian.AppendUint32(header, fmtChunkSize)
	header = binary.LittleEndian.AppendUint16(header, pcmFormatTag)
	header = binary.LittleEndian.AppendUint16(header, uint16(f.Channels))
	header = binary.LittleEndian.AppendUint32(header, uint32(f.SampleRate))
	header = binary.LittleEndian.AppendUint32(header, uint32(f.ByteRate()))
	header = binary.LittleEndian.AppendUint16(header, uint16(f.BlockAlign()))
	header = binary.LittleEndian.AppendUint16(header, uint16(f.BitDepth))

	header = append(header, dataChunkID...)
	header = binary.LittleEndian.AppendUint32(header, dataSize)

	_, err := w.Write(header)
	return err
}

// WAVWriter streams samples into a wav container. If the destination is
// an io.WriteSeeker the header sizes are patched on Close; otherwise they
// stay at StreamingDataSize.
type WAVWriter struct {
	w         io.Writer
	format    Format
	buf       []byte
	dataBytes int64
}

// NewWAVWriter writes a provisional header and returns the writer.
func NewWAVWriter(w io.Writer, f Format) (*WAVWriter, error) {
	if err := WriteWAVHeader(w, f, StreamingDataSize); err != nil {
		return nil, fmt.Errorf("wav header: %w", err)
	}
	return &WAVWriter{w: w, format: f}, nil
}

// WriteSamples appends samples to the data chunk.
func (ww *WAVWriter) WriteSamples(samples []int16) error {
	ww.buf = AppendSamples(ww.buf[:0], samples)
	n, err := ww.w.Write(ww.buf)
	ww.dataBytes += int64(n)
	if err != nil {
		return fmt.Errorf("wav write: %w", err)
	}
	return nil
}

// DataBytes returns the size of the data chunk written so far.
func (ww *WAVWriter) DataBytes() int64 {
	return ww.dataBytes
}

// Close patches the header sizes when the destination can seek. A
// destination that implements Seek but rejects it, such as a pipe, is
// left streaming. Close does not close the underlying writer.
func (ww *WAVWriter) Close() error {
	seeker, ok := ww.w.(io.WriteSeeker)
	if !ok {
		return nil
	}
	if _, err := seeker.Seek(0, io.SeekCurrent); err != nil {
		return nil
	}
	if ww.dataBytes > StreamingDataSize-36 {
		return fmt.Errorf("wav: %d bytes of audio exceed the format limit", ww.dataBytes)
	}
	dataSize := uint32(ww.dataBytes)

	if err := patchUint32(seeker, riffSizeOffset, 36+dataSize); err != nil {
		return err
	}
	if err := patchUint32(seeker, dataSizeOffset, dataSize); err != nil {
		return err
	}
	_, err := seeker.Seek(0, io.SeekEnd)
	return err
}

func patchUint32(ws io.WriteSeeker, offset int64, v uint32) error {
	if _, err := ws.Seek(offset, io.SeekStart); err != nil {
		return fmt.Errorf("wav seek: %w", err)
	}
	if err := binary.Write(ws, binary.LittleEndian, v); err != nil {
		return fmt.Errorf("wav patch header: %w", err)
	}
	return nil
}
