package audio

import "time"

const (
	SampleRate    = 44100
	Channels      = 1
	BitDepth      = 16
	FrameDuration = 20 * time.Millisecond
	FrameSize     = 882                  // samples per channel per 20ms frame
	FrameSamples  = FrameSize * Channels // total interleaved samples per frame
	FrameBytes    = FrameSamples * 2     // bytes per frame (int16 = 2 bytes)

	// Opus has no 44.1kHz mode; WebRTC frames are resampled to 48kHz.
	OpusSampleRate = 48000
	OpusFrameSize  = 960
)

// Format describes a PCM stream.
type Format struct {
	SampleRate int
	BitDepth   int
	Channels   int
}

// TapeFormat is the format every rendered tape uses: 44.1kHz, 16-bit, mono.
var TapeFormat = Format{SampleRate: SampleRate, BitDepth: BitDepth, Channels: Channels}

// ByteRate is the number of bytes per second of audio.
func (f Format) ByteRate() int {
	return f.SampleRate * f.Channels * f.BitDepth / 8
}

// BlockAlign is the number of bytes per sample frame.
func (f Format) BlockAlign() int {
	return f.Channels * f.BitDepth / 8
}

// TapeInfo identifies a CAS image queued for playback.
type TapeInfo struct {
	ID   string
	Name string // display name, usually the file's base name
	Path string
}

// Frame is one 20ms slice of rendered tape audio.
type Frame struct {
	Seq     uint64
	Samples []int16
}

// SamplesDuration converts a sample count at SampleRate to a duration.
func SamplesDuration(n int64) time.Duration {
	return time.Duration(n) * time.Second / SampleRate
}

// drainGrace is added to the buffered audio's duration when a speaker
// waits for playback to end.
const drainGrace = time.Second

// drainTimeout is how long a player holding buffered bytes of f audio may
// take to go quiet.
func drainTimeout(buffered int, f Format) time.Duration {
	rate := f.ByteRate()
	if rate <= 0 || buffered <= 0 {
		return drainGrace
	}
	return time.Duration(buffered)*time.Second/time.Duration(rate) + drainGrace
}
