package audio

import "math"

// DecibelsToGain converts a replay-gain adjustment in dB to a linear factor.
func DecibelsToGain(db float64) float64 {
	return math.Pow(10, db/20)
}

// ApplyGain scales src by gain into dst, growing dst if needed, and
// returns it. Results are clipped to the int16 range.
func ApplyGain(dst, src []int16, gain float64) []int16 {
	if cap(dst) < len(src) {
		dst = make([]int16, len(src))
	}
	dst = dst[:len(src)]

	for i, s := range src {
		scaled := math.Round(float64(s) * gain)

		// Clip to int16 range
		if scaled > 32767 {
			scaled = 32767
		} else if scaled < -32768 {
			scaled = -32768
		}
		dst[i] = int16(scaled)
	}

	return dst
}
