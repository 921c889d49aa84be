package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/pflag"
	"golang.org/x/term"

	"github.com/satindergrewal/tvctape/internal/audio"
	"github.com/satindergrewal/tvctape/internal/codec"
	"github.com/satindergrewal/tvctape/internal/config"
	"github.com/satindergrewal/tvctape/internal/export"
	"github.com/satindergrewal/tvctape/internal/tape"
)

// encoderFlags are the render settings shared by encode and play.
type encoderFlags struct {
	filename string
	fill     string
	passes   int
	gainDB   float64
}

func (f *encoderFlags) add(fs *pflag.FlagSet, cfg config.Config) {
	fs.StringVar(&f.filename, "filename", cfg.Filename, "file name written into the head block (max 10 bytes)")
	fs.StringVar(&f.fill, "fill", cfg.Fill, "burst fill strategy: bulk or unit")
	fs.IntVar(&f.passes, "passes", cfg.Passes, "render the tape this many times")
	fs.Float64Var(&f.gainDB, "replay-gain", cfg.ReplayGainDB, "gain in dB applied to every sample")
}

func (f *encoderFlags) options(logger *slog.Logger) (codec.Options, error) {
	fill, err := tape.ParseFillStrategy(f.fill)
	if err != nil {
		return codec.Options{}, err
	}
	if f.passes < 1 {
		return codec.Options{}, fmt.Errorf("--passes must be at least 1")
	}
	return codec.Options{
		Tape:   tape.Options{Filename: f.filename, Fill: fill, Logger: logger},
		Passes: f.passes,
		Logger: logger,
	}, nil
}

func runEncode(ctx context.Context, args []string, cfg config.Config, logger *slog.Logger) error {
	var enc encoderFlags
	var out, format, compress, index string
	var digest bool

	fs := pflag.NewFlagSet("encode", pflag.ContinueOnError)
	fs.StringVarP(&out, "out", "o", "", `output path (default: next to the input); "-" for stdout`)
	fs.StringVar(&format, "format", "wav", "output format: wav or pcm (raw s16le)")
	fs.StringVar(&compress, "compress", cfg.Compression, "output compression: none, zstd or lz4")
	fs.StringVar(&index, "index", "", "also write a block index: csv or cbor")
	fs.BoolVar(&digest, "digest", false, "print the BLAKE3 digest of the rendered samples")
	enc.add(fs, cfg)
	if done, err := parseFlags(fs, args); done || err != nil {
		return err
	}
	input, err := singleArg(fs)
	if err != nil {
		return err
	}

	opts, err := enc.options(logger)
	if err != nil {
		return err
	}
	compression, err := audio.ParseCompression(compress)
	if err != nil {
		return err
	}
	if format != "wav" && format != "pcm" {
		return fmt.Errorf("unknown format %q (want wav or pcm)", format)
	}
	if index != "" && index != "csv" && index != "cbor" {
		return fmt.Errorf("unknown index %q (want csv or cbor)", index)
	}

	base := strings.TrimSuffix(input, filepath.Ext(input))
	if out == "" {
		out = base + "." + format + compression.Extension()
	}

	var dest io.Writer
	if out == "-" {
		if term.IsTerminal(int(os.Stdout.Fd())) {
			return fmt.Errorf("refusing to write audio to a terminal; redirect stdout or use --out")
		}
		// stdout is a pipe here; hide Seek so the WAV header stays streaming.
		dest = struct{ io.Writer }{os.Stdout}
	} else {
		f, err := os.Create(out)
		if err != nil {
			return fmt.Errorf("create output: %w", err)
		}
		defer f.Close()
		dest = f
	}

	cw, err := audio.NewCompressedWriter(dest, compression)
	if err != nil {
		return err
	}
	// An uncompressed file can seek, so the WAV header sizes get patched.
	target := io.Writer(cw)
	if compression == audio.CompressionNone {
		target = dest
	}

	var (
		counter tape.Counter
		hasher  = audio.NewDigest()
		sinks   = []tape.Sink{&counter, hasher}
		wav     *audio.WAVWriter
	)
	switch format {
	case "wav":
		if wav, err = audio.NewWAVWriter(target, audio.TapeFormat); err != nil {
			return err
		}
		sinks = append(sinks, wav)
	case "pcm":
		sinks = append(sinks, audio.NewPCMWriter(target))
	}

	host, err := codec.OpenFileHost(input, tape.MultiSink(sinks...), enc.gainDB, logger)
	if err != nil {
		return err
	}
	defer host.Close()

	drv := codec.New(opts)
	drv.Load(host)
	if err := drv.Run(ctx, host); err != nil {
		return err
	}

	if wav != nil {
		if err := wav.Close(); err != nil {
			return err
		}
	}
	if err := cw.Close(); err != nil {
		return fmt.Errorf("finish output: %w", err)
	}

	logger.Info("tape rendered",
		"input", input,
		"output", out,
		"state", drv.State(),
		"samples", counter.Samples,
		"duration", audio.SamplesDuration(counter.Samples),
		"warnings", len(drv.Warnings()),
	)

	if index != "" {
		path, err := writeIndex(index, base, input, drv, enc.filename, hasher)
		if err != nil {
			return err
		}
		logger.Info("index written", "path", path)
	}

	if digest {
		w := os.Stdout
		if out == "-" {
			w = os.Stderr
		}
		fmt.Fprintf(w, "%s  %s\n", hasher.Hex(), out)
	}
	return nil
}

func writeIndex(kind, base, input string, drv *codec.Driver, filename string, hasher *audio.Digest) (string, error) {
	var (
		data []byte
		err  error
	)
	switch kind {
	case "csv":
		data, err = export.IndexCSV(drv.Segments(), tape.SampleRate)
	case "cbor":
		var raw []byte
		if raw, err = os.ReadFile(input); err != nil {
			return "", err
		}
		var im *tape.Image
		if im, err = tape.ParseImage(raw); err != nil {
			return "", err
		}
		m := export.NewManifest(filepath.Base(input), int64(len(raw)), im, filename, drv.Segments())
		sum := hasher.Sum()
		m.Digest = sum[:]
		data, err = export.MarshalManifest(m)
	}
	if err != nil {
		return "", err
	}

	path := base + "." + kind
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", fmt.Errorf("write index: %w", err)
	}
	return path, nil
}
