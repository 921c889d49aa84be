//go:build !headless

package audio

import (
	"fmt"
	"io"
	"time"

	"github.com/ebitengine/oto/v3"
)

// Speaker plays samples on the default audio device. Writes block while
// the device buffer is full, so a Speaker paces its producer to real time.
type Speaker struct {
	ctx    *oto.Context
	player *oto.Player
	pw     *io.PipeWriter
	format Format
	buf    []byte
}

// NewSpeaker opens the audio device for f. Only one Speaker may exist per
// process.
func NewSpeaker(f Format) (*Speaker, error) {
	op := &oto.NewContextOptions{
		SampleRate:   f.SampleRate,
		ChannelCount: f.Channels,
		Format:       oto.FormatSignedInt16LE,
	}

	ctx, ready, err := oto.NewContext(op)
	if err != nil {
		return nil, fmt.Errorf("open audio device: %w", err)
	}
	<-ready

	pr, pw := io.Pipe()
	player := ctx.NewPlayer(pr)
	player.Play()

	return &Speaker{ctx: ctx, player: player, pw: pw, format: f}, nil
}

// WriteSamples queues samples for playback.
func (s *Speaker) WriteSamples(samples []int16) error {
	s.buf = AppendSamples(s.buf[:0], samples)
	if _, err := s.pw.Write(s.buf); err != nil {
		return fmt.Errorf("speaker write: %w", err)
	}
	return nil
}

// Close waits for queued audio to finish playing and releases the player.
// The wait is bounded by the buffered audio's duration plus drainGrace, so
// a stalled device cannot hold Close forever.
func (s *Speaker) Close() error {
	s.pw.Close()
	deadline := time.Now().Add(drainTimeout(s.player.BufferedSize(), s.format))
	for s.player.IsPlaying() && time.Now().Before(deadline) {
		time.Sleep(10 * time.Millisecond)
	}
	return s.player.Close()
}
