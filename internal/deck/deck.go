// Package deck plays a directory of CAS images one after another into a
// frame pipeline, like a tape deck with a stack of cassettes.
package deck

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/satindergrewal/tvctape/internal/audio"
	"github.com/satindergrewal/tvctape/internal/codec"
)

// rescanInterval is how long a looping deck waits before going over a
// directory again when the last pass played nothing.
const rescanInterval = 5 * time.Second

// Config holds deck parameters.
type Config struct {
	Dir          string
	Loop         bool    // start over after the last tape
	ReplayGainDB float64 // applied to every tape
	Codec        codec.Options
	Logger       *slog.Logger

	// RescanInterval overrides rescanInterval when positive.
	RescanInterval time.Duration
}

// Status is the current state of the deck.
type Status struct {
	Tape      string  `json:"tape"`
	Path      string  `json:"path,omitempty"`
	Position  float64 `json:"position"` // seconds into the current tape
	Remaining int     `json:"remaining"`
	Played    int     `json:"played"`
	Skipped   int     `json:"skipped"`
	Failed    int     `json:"failed"`
	LastError string  `json:"last_error,omitempty"`
}

// Deck renders tapes in name order into a pipeline.
type Deck struct {
	pipeline *audio.Pipeline
	cfg      Config
	log      *slog.Logger

	mu        sync.RWMutex
	remaining int
	played    int
	skipped   int
	failed    int
	lastError string
}

// New creates a deck feeding pipeline.
func New(pipeline *audio.Pipeline, cfg Config) *Deck {
	log := cfg.Logger
	if log == nil {
		log = slog.Default()
	}
	if cfg.Codec.Logger == nil {
		cfg.Codec.Logger = log
	}
	if cfg.RescanInterval <= 0 {
		cfg.RescanInterval = rescanInterval
	}
	return &Deck{pipeline: pipeline, cfg: cfg, log: log}
}

// Scan lists the .cas files in the deck directory, sorted by name without
// regard to case.
func (d *Deck) Scan() ([]audio.TapeInfo, error) {
	entries, err := os.ReadDir(d.cfg.Dir)
	if err != nil {
		return nil, fmt.Errorf("scan tape dir: %w", err)
	}

	var tapes []audio.TapeInfo
	for _, e := range entries {
		if e.IsDir() || !strings.EqualFold(filepath.Ext(e.Name()), ".cas") {
			continue
		}
		name := e.Name()
		tapes = append(tapes, audio.TapeInfo{
			ID:   strings.ToLower(strings.TrimSuffix(name, filepath.Ext(name))),
			Name: name,
			Path: filepath.Join(d.cfg.Dir, name),
		})
	}
	slices.SortFunc(tapes, func(a, b audio.TapeInfo) int {
		return strings.Compare(strings.ToLower(a.Name), strings.ToLower(b.Name))
	})
	return tapes, nil
}

// Skip abandons the current tape and moves to the next.
func (d *Deck) Skip() {
	d.pipeline.Skip()
}

// Status returns the deck state.
func (d *Deck) Status() Status {
	tape, pos := d.pipeline.Status()

	d.mu.RLock()
	defer d.mu.RUnlock()
	return Status{
		Tape:      tape.Name,
		Path:      tape.Path,
		Position:  pos.Seconds(),
		Remaining: d.remaining,
		Played:    d.played,
		Skipped:   d.skipped,
		Failed:    d.failed,
		LastError: d.lastError,
	}
}

// Run plays every tape in the directory. With Loop set it starts over
// after the last one and only returns once ctx is cancelled. A tape that
// fails to render is logged and skipped.
func (d *Deck) Run(ctx context.Context) error {
	d.log.Info("deck started", "dir", d.cfg.Dir, "loop", d.cfg.Loop)

	for {
		tapes, err := d.Scan()
		if err != nil {
			return err
		}
		if len(tapes) == 0 {
			d.log.Warn("no tapes found", "dir", d.cfg.Dir)
		}
		before := d.progress()

		for i, t := range tapes {
			d.mu.Lock()
			d.remaining = len(tapes) - i - 1
			d.mu.Unlock()

			d.play(ctx, t)
			if ctx.Err() != nil {
				return nil
			}
		}

		if !d.cfg.Loop {
			return nil
		}
		if d.progress() == before {
			if len(tapes) > 0 {
				d.log.Warn("no tape played, waiting before retry", "dir", d.cfg.Dir, "wait", d.cfg.RescanInterval)
			}
			select {
			case <-ctx.Done():
				return nil
			case <-time.After(d.cfg.RescanInterval):
			}
		}
	}
}

// progress counts tapes that reached the pipeline, played or skipped.
func (d *Deck) progress() int {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.played + d.skipped
}

func (d *Deck) play(ctx context.Context, t audio.TapeInfo) {
	log := d.log.With("tape", t.Name)
	log.Info("playing tape")

	w := d.pipeline.Writer(ctx, t)
	host, err := codec.OpenFileHost(t.Path, w, d.cfg.ReplayGainDB, log)
	if err != nil {
		d.fail(log, err)
		return
	}
	defer host.Close()

	drv := codec.New(d.cfg.Codec)
	drv.Load(host)
	err = drv.Run(ctx, host)
	if err == nil {
		err = w.Close()
	}

	switch {
	case err == nil && drv.State() == codec.StateHalted:
		log.Info("tape halted")
	case err == nil:
		d.mu.Lock()
		d.played++
		d.mu.Unlock()
		log.Info("tape finished", "segments", len(drv.Segments()))
	case errors.Is(err, audio.ErrSkipped):
		d.mu.Lock()
		d.skipped++
		d.mu.Unlock()
		log.Info("tape skipped")
	case ctx.Err() != nil:
	default:
		d.fail(log, err)
	}
}

func (d *Deck) fail(log *slog.Logger, err error) {
	log.Error("tape failed", "error", err)
	d.mu.Lock()
	d.failed++
	d.lastError = err.Error()
	d.mu.Unlock()
}
