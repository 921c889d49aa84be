package tape

import (
	"fmt"
	"log/slog"
)

// FillStrategy selects how long repeated bursts (preamble, silence) reach
// the sink. Both strategies produce the same sample stream.
type FillStrategy int

const (
	// FillBulk pre-fills the staging buffer with whole units and writes it
	// repeatedly.
	FillBulk FillStrategy = iota
	// FillUnit appends burst units one at a time like any other symbol.
	FillUnit
)

func (f FillStrategy) String() string {
	switch f {
	case FillBulk:
		return "bulk"
	case FillUnit:
		return "unit"
	default:
		return fmt.Sprintf("FillStrategy(%d)", int(f))
	}
}

// ParseFillStrategy parses "bulk" or "unit".
func ParseFillStrategy(s string) (FillStrategy, error) {
	switch s {
	case "bulk", "":
		return FillBulk, nil
	case "unit":
		return FillUnit, nil
	default:
		return 0, fmt.Errorf("unknown fill strategy %q (want bulk or unit)", s)
	}
}

// DefaultFilename is written into the head block when none is configured.
const DefaultFilename = "TEST"

// Options configure a Session.
type Options struct {
	Filename string       // head-block file name; empty means DefaultFilename
	Fill     FillStrategy // burst emission strategy
	Logger   *slog.Logger
}

// Session holds the mutable state of one encode: the staging buffer, its
// write cursor, and the running CRC. A Session is not safe for concurrent
// use.
type Session struct {
	sink Sink
	opts Options
	log  *slog.Logger

	buf [BufferCapacity]int16
	n   int
	crc CRC

	written  int64 // samples handed to the sink
	err      error // first sink error; sticky
	segments []Segment
	warnings []error
}

// NewSession returns a session writing to sink.
func NewSession(sink Sink, opts Options) *Session {
	if opts.Filename == "" {
		opts.Filename = DefaultFilename
	}
	log := opts.Logger
	if log == nil {
		log = slog.Default()
	}
	return &Session{sink: sink, opts: opts, log: log}
}

// CRC returns the running checksum.
func (s *Session) CRC() CRC {
	return s.crc
}

// ResetCRC clears the running checksum.
func (s *Session) ResetCRC() {
	s.crc = 0
}

// Position is the number of samples emitted so far, staged or written.
func (s *Session) Position() int64 {
	return s.written + int64(s.n)
}

// Err returns the first sink error, if any.
func (s *Session) Err() error {
	return s.err
}

// Segments returns the index of everything emitted so far.
func (s *Session) Segments() []Segment {
	return s.segments
}

// Warnings returns the recoverable errors met while encoding.
func (s *Session) Warnings() []error {
	return s.warnings
}

// Encode renders the head block and the data block for im and flushes
// the staging buffer.
func (s *Session) Encode(im *Image) error {
	s.HeadBlock(im.HeaderExcerpt())
	s.DataBlock(im.Data())
	return s.Flush()
}

func (s *Session) segment(kind SegmentKind, sector int, emit func()) {
	start := s.Position()
	emit()
	s.segments = append(s.segments, Segment{
		Kind:   kind,
		Sector: sector,
		Start:  start,
		Length: s.Position() - start,
	})
}
