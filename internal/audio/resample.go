package audio

// Resampler converts a mono int16 stream between sample rates by linear
// interpolation. State carries across calls, so a stream may be fed in
// chunks of any size.
type Resampler struct {
	inRate  int
	outRate int

	// pos is the read position in units of 1/outRate input samples,
	// relative to last (position 0) and the current chunk (1..n).
	pos  int64
	last int16
}

// NewResampler returns a resampler from inRate to outRate.
func NewResampler(inRate, outRate int) *Resampler {
	return &Resampler{inRate: inRate, outRate: outRate}
}

// Process appends the resampled form of src to dst.
func (r *Resampler) Process(dst, src []int16) []int16 {
	if len(src) == 0 {
		return dst
	}
	out := int64(r.outRate)
	end := int64(len(src)) * out

	at := func(i int64) int16 {
		if i == 0 {
			return r.last
		}
		return src[i-1]
	}

	for r.pos < end {
		i := r.pos / out
		frac := r.pos % out
		a, b := int64(at(i)), int64(at(i+1))
		dst = append(dst, int16(a+(b-a)*frac/out))
		r.pos += int64(r.inRate)
	}

	r.pos -= end
	r.last = src[len(src)-1]
	return dst
}
