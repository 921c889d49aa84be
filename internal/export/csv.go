// Package export writes sidecar files describing a rendered tape.
package export

import (
	"bytes"
	"fmt"
	"text/tabwriter"

	"github.com/satindergrewal/tvctape/internal/tape"
)

// IndexCSV renders the segment index as an aligned, |-separated table, one
// row per segment, with times in seconds.
//
// parameters:
//   - segments: the index collected by a tape session, in stream order.
//   - sampleRate: the rate the segment sample offsets refer to.
func IndexCSV(segments []tape.Segment, sampleRate float64) ([]byte, error) {
	if sampleRate <= 0 {
		return nil, fmt.Errorf("invalid sample rate: %f", sampleRate)
	}

	buf := new(bytes.Buffer)
	w := tabwriter.NewWriter(buf, 0, 8, 2, ' ', 0)

	if _, err := fmt.Fprintln(w, "start_time\t|\tend_time\t|\tkind\t|\tsector\t|\thex_start\t|\tsamples\t"); err != nil {
		return nil, fmt.Errorf("error writing csv header: %w", err)
	}

	for i, seg := range segments {
		start := float64(seg.Start) / sampleRate
		end := float64(seg.Start+seg.Length) / sampleRate

		sector := "-"
		if seg.Kind == tape.SegmentSector {
			sector = fmt.Sprintf("%d", seg.Sector)
		}

		_, err := fmt.Fprintf(w, "%.6f\t|\t%.6f\t|\t%s\t|\t%s\t|\t0x%08x\t|\t%d\t\n",
			start, end, seg.Kind, sector, seg.Start, seg.Length)
		if err != nil {
			return nil, fmt.Errorf("error writing csv data row %d: %w", i, err)
		}
	}

	if err := w.Flush(); err != nil {
		return nil, fmt.Errorf("error flushing tabwriter: %w", err)
	}
	return buf.Bytes(), nil
}
