package tape

import (
	"encoding/binary"
	"fmt"
)

// CAS image layout.
const (
	Marker       = 0x11  // non-buffered UPM header
	MaxImageSize = 65536 // largest image the host is asked for

	casBlockSize  = 0x80
	excerptOffset = 0x80
	excerptSize   = 16
	dataOffset    = excerptOffset + excerptSize
)

// ProgramInfo is the program header carried in the 16-byte excerpt.
type ProgramInfo struct {
	Type    byte   `json:"type" cbor:"type"`
	Size    uint16 `json:"size" cbor:"size"`
	Autorun byte   `json:"autorun" cbor:"autorun"`
	Version byte   `json:"version" cbor:"version"`
}

// Image is a validated, read-only CAS program image.
type Image struct {
	raw      []byte
	declared int
	end      int
}

// ParseImage validates raw and returns the image view. raw is not copied
// and must not be modified afterwards.
func ParseImage(raw []byte) (*Image, error) {
	if len(raw) == 0 {
		return nil, &FormatError{Reason: "empty file"}
	}
	if raw[0] != Marker {
		return nil, &FormatError{Reason: fmt.Sprintf("not a non-buffered CAS file: marker 0x%02x", raw[0])}
	}
	if len(raw) < dataOffset {
		return nil, &FormatError{Reason: fmt.Sprintf("file too short for CAS header: %d bytes, need %d", len(raw), dataOffset)}
	}

	blocks := int(binary.LittleEndian.Uint16(raw[2:4]))
	declared := blocks*casBlockSize + int(raw[4])

	end := min(declared, len(raw))
	end = max(end, dataOffset)

	return &Image{raw: raw, declared: declared, end: end}, nil
}

// DeclaredSize is the file size the UPM header claims.
func (im *Image) DeclaredSize() int {
	return im.declared
}

// Clamped reports whether the header claims more bytes than were loaded.
func (im *Image) Clamped() bool {
	return im.declared > len(im.raw)
}

// HeaderExcerpt returns bytes 0x80..0x8f, embedded verbatim in the head block.
func (im *Image) HeaderExcerpt() []byte {
	return im.raw[excerptOffset:dataOffset]
}

// Data returns the program bytes that go into data-block sectors.
func (im *Image) Data() []byte {
	return im.raw[dataOffset:im.end]
}

// Program decodes the program header from the excerpt.
func (im *Image) Program() ProgramInfo {
	return ProgramInfo{
		Type:    im.raw[0x81],
		Size:    binary.LittleEndian.Uint16(im.raw[0x82:0x84]),
		Autorun: im.raw[0x84],
		Version: im.raw[0x8f],
	}
}
