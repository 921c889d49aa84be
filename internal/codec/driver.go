package codec

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/satindergrewal/tvctape/internal/audio"
	"github.com/satindergrewal/tvctape/internal/tape"
)

// State is the driver's position in its lifecycle.
type State int

const (
	StateIdle State = iota
	StateHeaderValidated
	StateEncoding
	StateHalted
	StateCompleted
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateHeaderValidated:
		return "header-validated"
	case StateEncoding:
		return "encoding"
	case StateHalted:
		return "halted"
	case StateCompleted:
		return "completed"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

// Options configure a Driver.
type Options struct {
	Tape   tape.Options
	Passes int // full head+data renders per Run; 0 means 1
	Logger *slog.Logger
}

// Driver runs the encode state machine against a Host:
// Idle -> HeaderValidated -> Encoding -> Halted | Completed.
type Driver struct {
	opts  Options
	log   *slog.Logger
	state State

	segments []tape.Segment
	warnings []error
}

// New returns an idle driver.
func New(opts Options) *Driver {
	if opts.Passes <= 0 {
		opts.Passes = 1
	}
	log := opts.Logger
	if log == nil {
		log = slog.Default()
	}
	if opts.Tape.Logger == nil {
		opts.Tape.Logger = log
	}
	return &Driver{opts: opts, log: log}
}

// State returns the current state.
func (d *Driver) State() State {
	return d.state
}

// Segments returns the segment index of the last pass.
func (d *Driver) Segments() []tape.Segment {
	return d.segments
}

// Warnings returns the recoverable errors collected over all passes.
func (d *Driver) Warnings() []error {
	return d.warnings
}

// Load configures the host for tape output.
func (d *Driver) Load(h Host) {
	h.Configure(audio.TapeFormat)
}

// Run loads and validates the CAS image, then renders it once per pass.
// A halt command or ctx cancellation between passes stops it early; both
// that and normal completion return nil. Format errors are returned before
// any sample reaches the host.
func (d *Driver) Run(ctx context.Context, h Host) error {
	h.ApplyReplayGain()
	if err := h.SeekBuffer(0); err != nil {
		return fmt.Errorf("seek cas file: %w", err)
	}
	raw, err := h.RequestBuffer(MaxLoadSize)
	if err != nil {
		return fmt.Errorf("load cas file: %w", err)
	}

	im, err := tape.ParseImage(raw)
	if err != nil {
		return err
	}
	d.state = StateHeaderValidated

	prog := im.Program()
	d.log.Info("cas image loaded",
		"bytes", len(raw),
		"declared", im.DeclaredSize(),
		"data", len(im.Data()),
		"type", prog.Type,
		"size", prog.Size,
		"autorun", prog.Autorun,
		"version", prog.Version,
	)
	if im.Clamped() {
		d.log.Warn("cas image shorter than declared size; data region clamped",
			"declared", im.DeclaredSize(), "loaded", len(raw))
	}

	for pass := 0; pass < d.opts.Passes; pass++ {
		if ctx.Err() != nil {
			d.state = StateHalted
			return nil
		}

		cmd, at := h.PollCommand()
		switch cmd {
		case CommandHalt:
			d.log.Info("halt requested", "pass", pass)
			d.state = StateHalted
			return nil
		case CommandSeekTime:
			// The tape cannot be seeked; report position zero and go on.
			d.log.Debug("seek ignored", "target", at)
			h.SetElapsed(0)
			h.SeekComplete()
		}

		d.state = StateEncoding
		s := tape.NewSession(h, d.opts.Tape)
		if err := s.Encode(im); err != nil {
			return fmt.Errorf("encode pass %d: %w", pass+1, err)
		}
		d.segments = s.Segments()
		d.warnings = append(d.warnings, s.Warnings()...)
		d.log.Debug("pass rendered", "pass", pass+1, "samples", s.Position())
	}

	d.state = StateCompleted
	return nil
}
