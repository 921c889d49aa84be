package export

import (
	"bytes"
	"io"
	"log/slog"
	"strings"
	"testing"

	"github.com/satindergrewal/tvctape/internal/tape"
)

func render(t *testing.T, dataLen int) (*tape.Image, []tape.Segment, int64) {
	t.Helper()
	total := 0x90 + dataLen
	raw := make([]byte, total)
	raw[0] = tape.Marker
	raw[2] = byte(total / 128)
	raw[3] = byte(total / 128 >> 8)
	raw[4] = byte(total % 128)
	raw[0x81] = 1
	raw[0x82] = byte(dataLen)
	raw[0x83] = byte(dataLen >> 8)

	im, err := tape.ParseImage(raw)
	if err != nil {
		t.Fatal(err)
	}
	var c tape.Counter
	s := tape.NewSession(&c, tape.Options{Logger: slog.New(slog.NewTextHandler(io.Discard, nil))})
	if err := s.Encode(im); err != nil {
		t.Fatal(err)
	}
	return im, s.Segments(), c.Samples
}

func TestIndexCSV(t *testing.T) {
	_, segs, _ := render(t, 300)

	out, err := IndexCSV(segs, tape.SampleRate)
	if err != nil {
		t.Fatal(err)
	}
	lines := strings.Split(strings.TrimSuffix(string(out), "\n"), "\n")
	if len(lines) != len(segs)+1 {
		t.Fatalf("got %d lines, want header + %d rows", len(lines), len(segs))
	}
	if !strings.HasPrefix(lines[0], "start_time") {
		t.Errorf("header = %q", lines[0])
	}
	if !strings.HasPrefix(lines[1], "0.000000") {
		t.Errorf("first row = %q, want to start at 0", lines[1])
	}

	sectors := 0
	for i, seg := range segs {
		row := lines[i+1]
		if !strings.Contains(row, string(seg.Kind)) {
			t.Errorf("row %d = %q, missing kind %s", i, row, seg.Kind)
		}
		if seg.Kind == tape.SegmentSector {
			sectors++
		}
	}
	if sectors != 2 {
		t.Errorf("sector rows = %d, want 2 for 300 data bytes", sectors)
	}
}

func TestIndexCSVInvalidRate(t *testing.T) {
	if _, err := IndexCSV(nil, 0); err == nil {
		t.Fatal("expected error for zero sample rate")
	}
}

func TestManifest(t *testing.T) {
	im, segs, samples := render(t, 300)
	m := NewManifest("game.cas", 0x90+300, im, tape.DefaultFilename, segs)

	if m.Samples != samples {
		t.Errorf("Samples = %d, want %d", m.Samples, samples)
	}
	if m.Program.Size != 300 || m.Program.Type != 1 {
		t.Errorf("Program = %+v", m.Program)
	}

	a, err := MarshalManifest(m)
	if err != nil {
		t.Fatal(err)
	}
	b, err := MarshalManifest(m)
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(a, b) {
		t.Error("manifest encoding is not deterministic")
	}

	got, err := UnmarshalManifest(a)
	if err != nil {
		t.Fatal(err)
	}
	if got.Source != m.Source || got.Samples != m.Samples || got.Estimated != m.Estimated {
		t.Errorf("decoded %+v, want %+v", got, m)
	}
	if len(got.Segments) != len(segs) {
		t.Fatalf("decoded %d segments, want %d", len(got.Segments), len(segs))
	}
	last := got.Segments[len(got.Segments)-1]
	if last.Kind != string(segs[len(segs)-1].Kind) || last.Start != segs[len(segs)-1].Start {
		t.Errorf("last segment = %+v", last)
	}
}

func TestUnmarshalManifestRejectsGarbage(t *testing.T) {
	if _, err := UnmarshalManifest([]byte{0xff, 0x00}); err == nil {
		t.Fatal("expected decode error")
	}
}
