package stream

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/satindergrewal/tvctape/internal/audio"
)

func frameOf(samples ...int16) audio.Frame {
	return audio.Frame{Samples: samples}
}

func TestNewBroadcaster(t *testing.T) {
	b := NewBroadcaster()
	if b == nil {
		t.Fatal("NewBroadcaster returned nil")
	}
	if b.ListenerCount() != 0 {
		t.Errorf("Initial ListenerCount = %d, want 0", b.ListenerCount())
	}
}

func TestSubscribeUnsubscribe(t *testing.T) {
	b := NewBroadcaster()

	l1 := b.Subscribe()
	if b.ListenerCount() != 1 {
		t.Errorf("After 1 subscribe: ListenerCount = %d, want 1", b.ListenerCount())
	}

	l2 := b.Subscribe()
	if b.ListenerCount() != 2 {
		t.Errorf("After 2 subscribes: ListenerCount = %d, want 2", b.ListenerCount())
	}

	b.Unsubscribe(l1)
	if b.ListenerCount() != 1 {
		t.Errorf("After 1 unsubscribe: ListenerCount = %d, want 1", b.ListenerCount())
	}

	b.Unsubscribe(l2)
	if b.ListenerCount() != 0 {
		t.Errorf("After all unsubscribed: ListenerCount = %d, want 0", b.ListenerCount())
	}
}

func TestBroadcastDelivers(t *testing.T) {
	b := NewBroadcaster()
	l := b.Subscribe()

	ctx, cancel := context.WithCancel(context.Background())
	source := make(chan audio.Frame, 10)

	go b.Run(ctx, source)

	// Send a frame
	frame := audio.Frame{Seq: 7, Samples: []int16{100, 200, 300, 400}}
	source <- frame

	// Listener should receive it
	select {
	case got := <-l.C:
		if got.Seq != 7 {
			t.Errorf("Received frame seq %d, want 7", got.Seq)
		}
		if len(got.Samples) != len(frame.Samples) {
			t.Errorf("Received frame length %d, want %d", len(got.Samples), len(frame.Samples))
		}
		for i, v := range got.Samples {
			if v != frame.Samples[i] {
				t.Errorf("Frame[%d] = %d, want %d", i, v, frame.Samples[i])
			}
		}
	case <-time.After(time.Second):
		t.Fatal("Timeout waiting for frame")
	}

	cancel()
	b.Unsubscribe(l)
}

func TestBroadcastMultipleListeners(t *testing.T) {
	b := NewBroadcaster()
	listeners := make([]*Listener, 5)
	for i := range listeners {
		listeners[i] = b.Subscribe()
	}

	ctx, cancel := context.WithCancel(context.Background())
	source := make(chan audio.Frame, 10)

	go b.Run(ctx, source)

	source <- frameOf(42, -42)

	// All listeners should get the frame
	for i, l := range listeners {
		select {
		case got := <-l.C:
			if got.Samples[0] != 42 {
				t.Errorf("Listener %d got frame[0]=%d, want 42", i, got.Samples[0])
			}
		case <-time.After(time.Second):
			t.Errorf("Listener %d timed out", i)
		}
	}

	cancel()
	for _, l := range listeners {
		b.Unsubscribe(l)
	}
}

func TestBroadcastDropsSlowListener(t *testing.T) {
	b := NewBroadcaster()
	slow := b.Subscribe()
	fast := b.Subscribe()

	ctx, cancel := context.WithCancel(context.Background())
	source := make(chan audio.Frame, 200)

	go b.Run(ctx, source)

	// Fill the slow listener's buffer (150 capacity) without reading
	for i := 0; i < 200; i++ {
		source <- frameOf(int16(i))
	}

	// Give broadcaster time to process
	time.Sleep(100 * time.Millisecond)

	// Fast listener should have frames (we drain them)
	fastCount := 0
	for {
		select {
		case <-fast.C:
			fastCount++
		default:
			goto done
		}
	}
done:

	// Slow listener should have exactly buffer capacity (150) frames, rest dropped
	slowCount := 0
	for {
		select {
		case <-slow.C:
			slowCount++
		default:
			goto countDone
		}
	}
countDone:

	if slowCount > ListenerBuffer {
		t.Errorf("Slow listener got %d frames, should cap at buffer size %d", slowCount, ListenerBuffer)
	}
	if slowCount+int(slow.Dropped()) != 200 {
		t.Errorf("Slow listener received %d and dropped %d, want 200 in total", slowCount, slow.Dropped())
	}
	if b.Frames() != 200 {
		t.Errorf("Frames() = %d, want 200", b.Frames())
	}
	if fastCount == 0 {
		t.Error("Fast listener got 0 frames")
	}

	cancel()
	b.Unsubscribe(slow)
	b.Unsubscribe(fast)
}

func TestBroadcastStopsOnContextCancel(t *testing.T) {
	b := NewBroadcaster()
	ctx, cancel := context.WithCancel(context.Background())
	source := make(chan audio.Frame, 10)

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		b.Run(ctx, source)
	}()

	cancel()

	done := make(chan struct{})
	go func() {
		wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		// good
	case <-time.After(2 * time.Second):
		t.Fatal("Broadcaster did not stop after context cancel")
	}
}

func TestBroadcastStopsOnSourceClose(t *testing.T) {
	b := NewBroadcaster()
	ctx := context.Background()
	source := make(chan audio.Frame, 10)

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		b.Run(ctx, source)
	}()

	close(source)

	done := make(chan struct{})
	go func() {
		wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		// good
	case <-time.After(2 * time.Second):
		t.Fatal("Broadcaster did not stop after source closed")
	}
}

func TestListenerDoneChannel(t *testing.T) {
	b := NewBroadcaster()
	l := b.Subscribe()

	b.Unsubscribe(l)
	b.Unsubscribe(l) // second unsubscribe must not panic

	// done channel should be closed
	select {
	case <-l.Done():
		// good
	default:
		t.Error("Listener done channel not closed after unsubscribe")
	}
}

func TestBroadcastTapeFrames(t *testing.T) {
	p := audio.NewPipeline(false)
	b := NewBroadcaster()
	l := b.Subscribe()

	done := make(chan struct{})
	go func() {
		b.Run(context.Background(), p.Frames())
		close(done)
	}()

	// Two and a half frames of the first tape, then one frame of the next.
	first := make([]int16, 2*audio.FrameSamples+audio.FrameSamples/2)
	for i := range first {
		first[i] = 1
	}
	w := p.Writer(context.Background(), audio.TapeInfo{ID: "a"})
	if err := w.WriteSamples(first); err != nil {
		t.Fatal(err)
	}
	if err := w.Close(); err != nil {
		t.Fatal(err)
	}
	w = p.Writer(context.Background(), audio.TapeInfo{ID: "b"})
	if err := w.WriteSamples(make([]int16, audio.FrameSamples)); err != nil {
		t.Fatal(err)
	}
	p.Close()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("broadcaster did not stop after the pipeline closed")
	}

	var frames []audio.Frame
	for len(l.C) > 0 {
		frames = append(frames, <-l.C)
	}
	if len(frames) != 4 {
		t.Fatalf("listener got %d frames, want 4", len(frames))
	}
	for i, f := range frames {
		if f.Seq != uint64(i+1) {
			t.Errorf("frame %d Seq = %d, want %d", i, f.Seq, i+1)
		}
		if len(f.Samples) != audio.FrameSamples {
			t.Errorf("frame %d has %d samples, want %d", i, len(f.Samples), audio.FrameSamples)
		}
	}

	// The first tape's tail frame is padded with silence.
	tail := frames[2].Samples
	if tail[audio.FrameSamples/2-1] != 1 || tail[audio.FrameSamples/2] != 0 {
		t.Errorf("tail frame not padded at the tape boundary")
	}
	if got := b.Frames(); got != 4 {
		t.Errorf("Frames() = %d, want 4", got)
	}
	if l.Dropped() != 0 {
		t.Errorf("Dropped() = %d, want 0", l.Dropped())
	}
}
