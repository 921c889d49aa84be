package audio

import (
	"context"
	"errors"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// ErrSkipped is returned by a TapeWriter once Skip interrupts its tape.
var ErrSkipped = errors.New("audio: tape skipped")

// Pipeline cuts rendered tape audio into 20ms frames and releases them at
// real-time rate.
type Pipeline struct {
	frameCh chan Frame
	skipCh  chan struct{}
	limiter *rate.Limiter // nil: frames go out as fast as they are consumed

	mu           sync.RWMutex
	currentTape  TapeInfo
	tapePosition time.Duration
	seq          uint64

	closeOnce sync.Once
}

// NewPipeline creates a frame pipeline. With pace set, frames are released
// no faster than SampleRate samples per second.
func NewPipeline(pace bool) *Pipeline {
	p := &Pipeline{
		frameCh: make(chan Frame, 100),
		skipCh:  make(chan struct{}, 1),
	}
	if pace {
		p.limiter = rate.NewLimiter(rate.Limit(SampleRate), FrameSamples)
	}
	return p
}

// Frames returns the channel of outgoing PCM frames (20ms each).
func (p *Pipeline) Frames() <-chan Frame {
	return p.frameCh
}

// Skip interrupts the current tape.
func (p *Pipeline) Skip() {
	select {
	case p.skipCh <- struct{}{}:
	default:
	}
}

// Status returns current playback info.
func (p *Pipeline) Status() (tape TapeInfo, position time.Duration) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.currentTape, p.tapePosition
}

// Close closes the frame channel. No writer may be used afterwards.
func (p *Pipeline) Close() {
	p.closeOnce.Do(func() { close(p.frameCh) })
}

// Writer starts a new tape and returns the sink its samples go into.
// A pending Skip aimed at the previous tape is discarded.
func (p *Pipeline) Writer(ctx context.Context, info TapeInfo) *TapeWriter {
	select {
	case <-p.skipCh:
	default:
	}

	p.mu.Lock()
	p.currentTape = info
	p.tapePosition = 0
	p.mu.Unlock()

	return &TapeWriter{p: p, ctx: ctx, pending: make([]int16, 0, FrameSamples)}
}

// TapeWriter frames one tape's samples into the pipeline. WriteSamples
// blocks while the pipeline is paced or its consumers are slow.
type TapeWriter struct {
	p       *Pipeline
	ctx     context.Context
	pending []int16
	frames  int64
}

// WriteSamples buffers samples and sends every completed frame.
func (w *TapeWriter) WriteSamples(samples []int16) error {
	for len(samples) > 0 {
		n := min(FrameSamples-len(w.pending), len(samples))
		w.pending = append(w.pending, samples[:n]...)
		samples = samples[n:]

		if len(w.pending) == FrameSamples {
			if err := w.send(); err != nil {
				return err
			}
		}
	}
	return nil
}

// Close pads the last partial frame with silence and sends it.
func (w *TapeWriter) Close() error {
	if len(w.pending) == 0 {
		return nil
	}
	for len(w.pending) < FrameSamples {
		w.pending = append(w.pending, 0)
	}
	return w.send()
}

func (w *TapeWriter) send() error {
	frame := make([]int16, FrameSamples)
	copy(frame, w.pending)
	w.pending = w.pending[:0]

	if err := w.p.sendFrame(w.ctx, frame); err != nil {
		return err
	}
	w.frames++
	w.p.updatePosition(w.frames)
	return nil
}

// sendFrame waits for the limiter then sends a frame. Returns ErrSkipped on
// skip or the context error on cancel.
func (p *Pipeline) sendFrame(ctx context.Context, samples []int16) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-p.skipCh:
		return ErrSkipped
	default:
	}

	if p.limiter != nil {
		if err := p.limiter.WaitN(ctx, len(samples)); err != nil {
			return err
		}
	}

	p.mu.Lock()
	p.seq++
	frame := Frame{Seq: p.seq, Samples: samples}
	p.mu.Unlock()

	select {
	case p.frameCh <- frame:
		return nil
	case <-p.skipCh:
		return ErrSkipped
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (p *Pipeline) updatePosition(frames int64) {
	p.mu.Lock()
	p.tapePosition = time.Duration(frames) * FrameDuration
	p.mu.Unlock()
}
