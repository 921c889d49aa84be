package tape

import "fmt"

// append stages samples, flushing first if they would not fit.
func (s *Session) append(samples []int16) {
	if s.err != nil {
		return
	}
	if s.n+len(samples) > BufferCapacity {
		s.Flush()
	}
	s.n += copy(s.buf[s.n:], samples)
}

// Flush hands staged samples to the sink and resets the write cursor.
func (s *Session) Flush() error {
	if s.err != nil {
		return s.err
	}
	if s.n == 0 {
		return nil
	}
	s.write(s.buf[:s.n])
	s.n = 0
	return s.err
}

func (s *Session) write(chunk []int16) {
	if s.err != nil {
		return
	}
	if err := s.sink.WriteSamples(chunk); err != nil {
		s.err = fmt.Errorf("tape: write %d samples at %d: %w", len(chunk), s.written, err)
		return
	}
	s.written += int64(len(chunk))
}

// burst emits count repetitions of unit. In bulk mode pending samples are
// flushed first so the stream stays in order, then the buffer is filled
// with as many whole units as fit and written until count is used up.
func (s *Session) burst(unit []int16, count int) {
	if s.opts.Fill == FillUnit {
		for range count {
			s.append(unit)
		}
		return
	}

	s.Flush()
	perBuffer := BufferCapacity / len(unit)
	for i := 0; i < perBuffer; i++ {
		copy(s.buf[i*len(unit):], unit)
	}
	for count > 0 {
		k := min(count, perBuffer)
		s.write(s.buf[:k*len(unit)])
		count -= k
	}
}
