// tvctape renders TVC CAS program images as cassette-tape audio: to WAV
// or raw PCM files, to the local speaker, or as a live stream.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/pflag"

	"github.com/satindergrewal/tvctape/internal/config"
)

const usage = `usage: tvctape <command> [flags]

commands:
  encode  render a .cas file to WAV or raw PCM
  info    show metadata and program header of a .cas file
  play    play a .cas file on the default audio device
  serve   stream a directory of .cas files over HTTP and WebRTC

Run "tvctape <command> --help" for the flags of a command.
Environment: TVC_* variables, or a YAML file named by TVC_CONFIG.
`

func main() {
	if err := run(os.Args[1:]); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run(args []string) error {
	if len(args) == 0 {
		fmt.Fprint(os.Stderr, usage)
		return errors.New("no command given")
	}

	cfg, err := config.FromEnv()
	if err != nil {
		return err
	}
	level, _ := cfg.SlogLevel()
	logger := newLogger(level)

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	cmd, rest := args[0], args[1:]
	switch cmd {
	case "encode":
		return runEncode(ctx, rest, cfg, logger.With("command", cmd))
	case "info":
		return runInfo(rest, cfg)
	case "play":
		return runPlay(ctx, rest, cfg, logger.With("command", cmd))
	case "serve":
		return runServe(ctx, rest, cfg, logger.With("command", cmd))
	case "help", "-h", "--help":
		fmt.Print(usage)
		return nil
	default:
		fmt.Fprint(os.Stderr, usage)
		return fmt.Errorf("unknown command %q", cmd)
	}
}

// parseFlags parses args into fs. It reports done when --help was given
// and the usage has been printed.
func parseFlags(fs *pflag.FlagSet, args []string) (done bool, err error) {
	if err := fs.Parse(args); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return true, nil
		}
		return false, err
	}
	return false, nil
}

// singleArg returns the one positional argument fs must have been given.
func singleArg(fs *pflag.FlagSet) (string, error) {
	if fs.NArg() != 1 {
		return "", fmt.Errorf("%s: want exactly one .cas file, got %d arguments", fs.Name(), fs.NArg())
	}
	return fs.Arg(0), nil
}
