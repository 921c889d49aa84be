package tape

// Sink consumes rendered sample chunks in order. WriteSamples may block;
// implementations must not retain samples after returning.
type Sink interface {
	WriteSamples(samples []int16) error
}

// SinkFunc adapts a function to Sink.
type SinkFunc func(samples []int16) error

func (f SinkFunc) WriteSamples(samples []int16) error {
	return f(samples)
}

type multiSink []Sink

// MultiSink duplicates every chunk to each sink in turn, stopping at the
// first error.
func MultiSink(sinks ...Sink) Sink {
	return multiSink(sinks)
}

func (m multiSink) WriteSamples(samples []int16) error {
	for _, s := range m {
		if err := s.WriteSamples(samples); err != nil {
			return err
		}
	}
	return nil
}

// Counter is a Sink that only counts samples.
type Counter struct {
	Samples int64
	Chunks  int
}

func (c *Counter) WriteSamples(samples []int16) error {
	c.Samples += int64(len(samples))
	c.Chunks++
	return nil
}
