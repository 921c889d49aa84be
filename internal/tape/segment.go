package tape

import "time"

// SegmentKind names a stretch of the rendered tape.
type SegmentKind string

const (
	SegmentSilence    SegmentKind = "silence"
	SegmentPreamble   SegmentKind = "preamble"
	SegmentSync       SegmentKind = "sync"
	SegmentHead       SegmentKind = "head"
	SegmentDataHeader SegmentKind = "data"
	SegmentSector     SegmentKind = "sector"
)

// Segment locates one emitted section in the sample stream.
type Segment struct {
	Kind   SegmentKind
	Sector int   // sector number for SegmentSector, else 0
	Start  int64 // first sample
	Length int64 // in samples
}

// StartTime is the offset of the segment from the start of the stream.
func (s Segment) StartTime() time.Duration {
	return samplesToDuration(s.Start)
}

// Duration is the playing time of the segment.
func (s Segment) Duration() time.Duration {
	return samplesToDuration(s.Length)
}

func samplesToDuration(n int64) time.Duration {
	return time.Duration(n) * time.Second / SampleRate
}
