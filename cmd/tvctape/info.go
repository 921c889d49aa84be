package main

import (
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"text/tabwriter"
	"time"

	"github.com/spf13/pflag"

	"github.com/satindergrewal/tvctape/internal/audio"
	"github.com/satindergrewal/tvctape/internal/config"
	"github.com/satindergrewal/tvctape/internal/metadata"
	"github.com/satindergrewal/tvctape/internal/tape"
)

type tapeInfo struct {
	File      string           `json:"file"`
	Metadata  metadata.Info    `json:"metadata"`
	Declared  int              `json:"declared_size"`
	DataBytes int              `json:"data_bytes"`
	Sectors   int              `json:"sectors"`
	Clamped   bool             `json:"clamped"`
	Program   tape.ProgramInfo `json:"program"`
	Samples   int64            `json:"samples"`
	Duration  time.Duration    `json:"duration"`
}

func runInfo(args []string, cfg config.Config) error {
	var asJSON bool
	fs := pflag.NewFlagSet("info", pflag.ContinueOnError)
	fs.BoolVar(&asJSON, "json", false, "print as JSON")
	if done, err := parseFlags(fs, args); done || err != nil {
		return err
	}
	input, err := singleArg(fs)
	if err != nil {
		return err
	}

	f, err := os.Open(input)
	if err != nil {
		return err
	}
	defer f.Close()

	meta, err := metadata.Probe(f)
	if err != nil {
		return err
	}
	raw, err := io.ReadAll(io.LimitReader(f, tape.MaxImageSize))
	if err != nil {
		return err
	}
	im, err := tape.ParseImage(raw)
	if err != nil {
		return err
	}

	// Rendering into a counter gives the exact length the estimate
	// approximates.
	var c tape.Counter
	fill, _ := cfg.FillStrategy()
	s := tape.NewSession(&c, tape.Options{
		Filename: cfg.Filename,
		Fill:     fill,
		Logger:   slog.New(slog.DiscardHandler),
	})
	if err := s.Encode(im); err != nil {
		return err
	}

	data := len(im.Data())
	info := tapeInfo{
		File:      input,
		Metadata:  meta,
		Declared:  im.DeclaredSize(),
		DataBytes: data,
		Sectors:   (data + tape.SectorSize - 1) / tape.SectorSize,
		Clamped:   im.Clamped(),
		Program:   im.Program(),
		Samples:   c.Samples,
		Duration:  audio.SamplesDuration(c.Samples),
	}

	if asJSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(info)
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 8, 2, ' ', 0)
	fmt.Fprintf(w, "file\t%s\n", info.File)
	fmt.Fprintf(w, "size\t%d bytes (header declares %d)\n", meta.Filesize, info.Declared)
	if info.Clamped {
		fmt.Fprintf(w, "\tfile is shorter than declared; data clamped\n")
	}
	fmt.Fprintf(w, "data\t%d bytes in %d sectors\n", info.DataBytes, info.Sectors)
	fmt.Fprintf(w, "program\ttype %d, size %d, autorun %d, version %d\n",
		info.Program.Type, info.Program.Size, info.Program.Autorun, info.Program.Version)
	fmt.Fprintf(w, "audio\t%d Hz, %d bps, vbr=%v\n", meta.Frequency, meta.Bitrate, meta.VBR)
	fmt.Fprintf(w, "estimated\t%v\n", meta.Length)
	fmt.Fprintf(w, "rendered\t%v (%d samples)\n", info.Duration.Round(time.Millisecond), info.Samples)
	return w.Flush()
}
