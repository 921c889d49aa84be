package tape

import "fmt"

// FormatError reports a CAS image the encoder refuses to render. Nothing has
// been written to the sink when it is returned.
type FormatError struct {
	Reason string
}

func (e *FormatError) Error() string {
	return "tape: invalid CAS image: " + e.Reason
}

// FilenameOverflowError reports a file name longer than the head block can
// carry. The encoder logs it and keeps going without the name payload.
type FilenameOverflowError struct {
	Name string
}

func (e *FilenameOverflowError) Error() string {
	return fmt.Sprintf("tape: file name %q too long (%d bytes, max %d)", e.Name, len(e.Name), MaxFilenameLen)
}
