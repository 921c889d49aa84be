package main

import (
	"context"
	"log/slog"

	"github.com/spf13/pflag"

	"github.com/satindergrewal/tvctape/internal/audio"
	"github.com/satindergrewal/tvctape/internal/codec"
	"github.com/satindergrewal/tvctape/internal/config"
	"github.com/satindergrewal/tvctape/internal/tape"
)

func runPlay(ctx context.Context, args []string, cfg config.Config, logger *slog.Logger) error {
	var enc encoderFlags
	fs := pflag.NewFlagSet("play", pflag.ContinueOnError)
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

	speaker, err := audio.NewSpeaker(audio.TapeFormat)
	if err != nil {
		return err
	}

	// Blocks only finish between passes, so interrupt the sink directly.
	sink := tape.SinkFunc(func(samples []int16) error {
		if err := ctx.Err(); err != nil {
			return err
		}
		return speaker.WriteSamples(samples)
	})

	host, err := codec.OpenFileHost(input, sink, enc.gainDB, logger)
	if err != nil {
		speaker.Close()
		return err
	}
	defer host.Close()

	drv := codec.New(opts)
	drv.Load(host)
	logger.Info("playing", "input", input)
	err = drv.Run(ctx, host)
	speaker.Close()

	if ctx.Err() != nil {
		logger.Info("playback interrupted")
		return nil
	}
	return err
}
