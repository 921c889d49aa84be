package codec

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"sync"
	"time"

	"github.com/satindergrewal/tvctape/internal/audio"
	"github.com/satindergrewal/tvctape/internal/tape"
)

type pendingCommand struct {
	cmd Command
	at  time.Duration
}

// FileHost is a Host backed by a CAS file on disk. Rendered samples go to
// sink after replay gain; commands arrive through Send.
type FileHost struct {
	f    *os.File
	sink tape.Sink
	log  *slog.Logger

	gainDB  float64
	gain    float64
	scratch []int16

	cmds chan pendingCommand

	mu        sync.Mutex
	format    audio.Format
	elapsed   time.Duration
	seekCount int
}

// OpenFileHost opens the CAS file at path. gainDB is applied to every
// sample once ApplyReplayGain is called.
func OpenFileHost(path string, sink tape.Sink, gainDB float64, log *slog.Logger) (*FileHost, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open cas file: %w", err)
	}
	if log == nil {
		log = slog.Default()
	}
	return &FileHost{
		f:      f,
		sink:   sink,
		log:    log,
		gainDB: gainDB,
		gain:   1,
		cmds:   make(chan pendingCommand, 8),
	}, nil
}

// Close closes the CAS file.
func (h *FileHost) Close() error {
	return h.f.Close()
}

// Send queues a command for the driver's next poll. It reports false when
// the queue is full.
func (h *FileHost) Send(cmd Command, at time.Duration) bool {
	select {
	case h.cmds <- pendingCommand{cmd: cmd, at: at}:
		return true
	default:
		return false
	}
}

func (h *FileHost) Configure(f audio.Format) {
	h.mu.Lock()
	h.format = f
	h.mu.Unlock()
}

// Format returns the format set by Configure.
func (h *FileHost) Format() audio.Format {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.format
}

func (h *FileHost) ApplyReplayGain() {
	h.gain = audio.DecibelsToGain(h.gainDB)
	if h.gainDB != 0 {
		h.log.Debug("replay gain", "db", h.gainDB, "factor", h.gain)
	}
}

func (h *FileHost) SeekBuffer(offset int64) error {
	_, err := h.f.Seek(offset, io.SeekStart)
	return err
}

func (h *FileHost) RequestBuffer(max int) ([]byte, error) {
	return io.ReadAll(io.LimitReader(h.f, int64(max)))
}

func (h *FileHost) PollCommand() (Command, time.Duration) {
	select {
	case c := <-h.cmds:
		return c.cmd, c.at
	default:
		return CommandNone, 0
	}
}

func (h *FileHost) SetElapsed(d time.Duration) {
	h.mu.Lock()
	h.elapsed = d
	h.mu.Unlock()
}

// Elapsed returns the position last reported by SetElapsed.
func (h *FileHost) Elapsed() time.Duration {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.elapsed
}

func (h *FileHost) SeekComplete() {
	h.mu.Lock()
	h.seekCount++
	h.mu.Unlock()
}

// Seeks returns how many seeks have completed.
func (h *FileHost) Seeks() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.seekCount
}

func (h *FileHost) WriteSamples(samples []int16) error {
	if h.gain == 1 {
		return h.sink.WriteSamples(samples)
	}
	h.scratch = audio.ApplyGain(h.scratch, samples, h.gain)
	return h.sink.WriteSamples(h.scratch)
}
