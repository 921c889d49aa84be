// Package metadata estimates playback facts for a CAS file without
// rendering it.
package metadata

import (
	"fmt"
	"io"
	"time"
)

const (
	Frequency = 44100
	Bitrate   = 4410

	// leadInMillis covers the silences, preambles and head block that
	// every tape carries regardless of size.
	leadInMillis = 7000
	headerBytes  = 144
	microsPerBit = 470
)

// Info is what a player shows for a CAS file before playing it.
type Info struct {
	Frequency int           `json:"frequency"`
	Bitrate   int           `json:"bitrate"`
	VBR       bool          `json:"vbr"`
	Filesize  int64         `json:"filesize"`
	Length    time.Duration `json:"length"`
}

// Estimate returns the metadata for a CAS file of size bytes. The length
// is 7000 + (size-144)*8*470/1000 milliseconds, in integer arithmetic.
func Estimate(size int64) Info {
	ms := leadInMillis + (size-headerBytes)*8*microsPerBit/1000
	return Info{
		Frequency: Frequency,
		Bitrate:   Bitrate,
		Filesize:  size,
		Length:    time.Duration(ms) * time.Millisecond,
	}
}

// Probe measures the file behind r and estimates its metadata. The read
// position is restored.
func Probe(r io.Seeker) (Info, error) {
	cur, err := r.Seek(0, io.SeekCurrent)
	if err != nil {
		return Info{}, fmt.Errorf("probe: %w", err)
	}
	size, err := r.Seek(0, io.SeekEnd)
	if err != nil {
		return Info{}, fmt.Errorf("probe: %w", err)
	}
	if _, err := r.Seek(cur, io.SeekStart); err != nil {
		return Info{}, fmt.Errorf("probe: %w", err)
	}
	return Estimate(size), nil
}
