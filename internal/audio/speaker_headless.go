//go:build headless

package audio

import "errors"

// ErrNoAudioDevice is returned by NewSpeaker in headless builds.
var ErrNoAudioDevice = errors.New("audio: built without audio output (headless)")

// Speaker is unavailable in headless builds.
type Speaker struct{}

// NewSpeaker always fails in headless builds.
func NewSpeaker(Format) (*Speaker, error) {
	return nil, ErrNoAudioDevice
}

// WriteSamples never succeeds.
func (*Speaker) WriteSamples([]int16) error { return ErrNoAudioDevice }

// Close is a no-op.
func (*Speaker) Close() error { return nil }
