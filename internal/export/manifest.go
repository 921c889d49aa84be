package export

import (
	"fmt"
	"time"

	"github.com/fxamacker/cbor/v2"
	"github.com/satindergrewal/tvctape/internal/metadata"
	"github.com/satindergrewal/tvctape/internal/tape"
)

// encMode uses Core Deterministic Encoding (RFC 8949 §4.2), so the same
// render always produces identical manifest bytes.
var encMode cbor.EncMode

var decMode cbor.DecMode

func init() {
	var err error
	encMode, err = cbor.CoreDetEncOptions().EncMode()
	if err != nil {
		panic("export: CBOR encoder initialization failed: " + err.Error())
	}
	decMode, err = cbor.DecOptions{}.DecMode()
	if err != nil {
		panic("export: CBOR decoder initialization failed: " + err.Error())
	}
}

// SegmentEntry is the manifest form of a tape.Segment.
type SegmentEntry struct {
	Kind   string `cbor:"kind"`
	Sector int    `cbor:"sector,omitempty"`
	Start  int64  `cbor:"start"`
	Length int64  `cbor:"length"`
}

// Manifest describes one rendered tape: where it came from, what the
// header says, and where every block landed in the audio.
type Manifest struct {
	Source     string           `cbor:"source"`
	SourceSize int64            `cbor:"source_size"`
	Filename   string           `cbor:"filename"`
	Program    tape.ProgramInfo `cbor:"program"`
	Clamped    bool             `cbor:"clamped,omitempty"`

	SampleRate int           `cbor:"sample_rate"`
	Samples    int64         `cbor:"samples"`
	Estimated  time.Duration `cbor:"estimated_ns"`
	Digest     []byte        `cbor:"digest,omitempty"` // BLAKE3 of the s16le stream

	Segments []SegmentEntry `cbor:"segments"`
}

// NewManifest fills in the segment table and the metadata estimate.
func NewManifest(source string, sourceSize int64, im *tape.Image, filename string, segments []tape.Segment) *Manifest {
	m := &Manifest{
		Source:     source,
		SourceSize: sourceSize,
		Filename:   filename,
		Program:    im.Program(),
		Clamped:    im.Clamped(),
		SampleRate: tape.SampleRate,
		Estimated:  metadata.Estimate(sourceSize).Length,
		Segments:   make([]SegmentEntry, 0, len(segments)),
	}
	for _, s := range segments {
		m.Segments = append(m.Segments, SegmentEntry{
			Kind:   string(s.Kind),
			Sector: s.Sector,
			Start:  s.Start,
			Length: s.Length,
		})
	}
	if n := len(segments); n > 0 {
		m.Samples = segments[n-1].Start + segments[n-1].Length
	}
	return m
}

// MarshalManifest encodes m as deterministic CBOR.
func MarshalManifest(m *Manifest) ([]byte, error) {
	data, err := encMode.Marshal(m)
	if err != nil {
		return nil, fmt.Errorf("encode manifest: %w", err)
	}
	return data, nil
}

// UnmarshalManifest decodes a manifest written by MarshalManifest.
func UnmarshalManifest(data []byte) (*Manifest, error) {
	var m Manifest
	if err := decMode.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("decode manifest: %w", err)
	}
	return &m, nil
}
