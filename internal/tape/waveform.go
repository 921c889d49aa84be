// Package tape renders TVC CAS program images as cassette audio.
//
// Every symbol on tape is a two-level square pulse: a run of positive-peak
// samples followed by an equal run of negative-peak samples. The run length
// alone tells the loader which symbol it is looking at, so the tables below
// are the whole physical format.
package tape

const (
	SampleRate     = 44100
	BufferCapacity = 1024 // samples staged before a sink write

	PositivePeak int16 = 0x7d00
	NegativePeak int16 = -0x7d00
)

// Half-wave lengths in samples.
const (
	zeroBitHalf  = 12
	oneBitHalf   = 8
	preambleHalf = 9
	syncHalf     = 17
)

// Rendered symbol tables. Built once, never written after init.
var (
	zeroBitWave  = squarePulse(zeroBitHalf)
	oneBitWave   = squarePulse(oneBitHalf)
	preambleWave = squarePulse(preambleHalf)
	syncWave     = squarePulse(syncHalf)
	silenceWave  = []int16{0}
)

// squarePulse returns half positive-peak samples followed by half
// negative-peak samples.
func squarePulse(half int) []int16 {
	wave := make([]int16, 2*half)
	for i := range wave {
		if i < half {
			wave[i] = PositivePeak
		} else {
			wave[i] = NegativePeak
		}
	}
	return wave
}

// BitSamples returns the number of samples a single protocol bit occupies.
func BitSamples(bit bool) int {
	if bit {
		return len(oneBitWave)
	}
	return len(zeroBitWave)
}

// ByteSamples returns the number of samples EmitByte produces for v.
func ByteSamples(v byte) int {
	n := 0
	for range 8 {
		n += BitSamples(v&1 == 1)
		v >>= 1
	}
	return n
}

// Sample counts of the fixed bursts.
const (
	PreambleUnitSamples = 2 * preambleHalf
	SyncSamples         = 2 * syncHalf
	SilenceSamples      = SampleRate
)
