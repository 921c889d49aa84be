package codec

import (
	"fmt"
	"time"

	"github.com/satindergrewal/tvctape/internal/audio"
	"github.com/satindergrewal/tvctape/internal/tape"
)

// MaxLoadSize is the largest CAS image the driver asks the host for.
const MaxLoadSize = tape.MaxImageSize

// Command is a playback command polled from the host between passes.
type Command int

const (
	CommandNone Command = iota
	CommandHalt
	CommandSeekTime
)

func (c Command) String() string {
	switch c {
	case CommandNone:
		return "none"
	case CommandHalt:
		return "halt"
	case CommandSeekTime:
		return "seek"
	default:
		return fmt.Sprintf("Command(%d)", int(c))
	}
}

// Host is the playback environment the driver runs inside. It supplies
// the CAS bytes and commands, and consumes the rendered samples.
type Host interface {
	tape.Sink

	// Configure announces the output format once, on load.
	Configure(f audio.Format)
	// ApplyReplayGain lets the host set up volume normalization.
	ApplyReplayGain()
	// SeekBuffer positions the host's read cursor.
	SeekBuffer(offset int64) error
	// RequestBuffer returns up to max bytes of the CAS file. An empty
	// result is a load failure.
	RequestBuffer(max int) ([]byte, error)
	// PollCommand returns the pending command and, for CommandSeekTime,
	// its target.
	PollCommand() (Command, time.Duration)
	SetElapsed(d time.Duration)
	SeekComplete()
}
