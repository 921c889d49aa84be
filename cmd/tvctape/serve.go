package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/spf13/pflag"
	"golang.org/x/sync/errgroup"

	"github.com/satindergrewal/tvctape/internal/audio"
	"github.com/satindergrewal/tvctape/internal/config"
	"github.com/satindergrewal/tvctape/internal/deck"
	"github.com/satindergrewal/tvctape/internal/stream"
)

func runServe(ctx context.Context, args []string, cfg config.Config, logger *slog.Logger) error {
	var enc encoderFlags
	fs := pflag.NewFlagSet("serve", pflag.ContinueOnError)
	fs.IntVar(&cfg.Port, "port", cfg.Port, "HTTP listen port")
	fs.StringVar(&cfg.TapeDir, "dir", cfg.TapeDir, "directory of .cas files to play")
	fs.BoolVar(&cfg.Loop, "loop", cfg.Loop, "start over after the last tape")
	fs.BoolVar(&cfg.Pace, "pace", cfg.Pace, "release audio in real time")
	fs.IntVar(&cfg.OpusBitrate, "opus-bitrate", cfg.OpusBitrate, "WebRTC Opus bitrate in bits per second")
	enc.add(fs, cfg)
	if done, err := parseFlags(fs, args); done || err != nil {
		return err
	}
	opts, err := enc.options(logger)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	pipeline := audio.NewPipeline(cfg.Pace)
	broadcaster := stream.NewBroadcaster()
	webrtcHandler := stream.NewWebRTCHandler(broadcaster, cfg.OpusBitrate, logger)
	tapeDeck := deck.New(pipeline, deck.Config{
		Dir:          cfg.TapeDir,
		Loop:         cfg.Loop,
		ReplayGainDB: enc.gainDB,
		Codec:        opts,
		Logger:       logger,
	})

	server := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.Port),
		Handler: newMux(tapeDeck, broadcaster, webrtcHandler, logger),
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		defer pipeline.Close()
		err := tapeDeck.Run(gctx)
		if err == nil {
			logger.Info("deck finished")
			cancel()
		}
		return err
	})

	g.Go(func() error {
		broadcaster.Run(gctx, pipeline.Frames())
		return nil
	})

	g.Go(func() error {
		logger.Info("tvctape live", "addr", server.Addr, "dir", cfg.TapeDir)
		if err := server.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		logger.Info("shutting down")
		webrtcHandler.Close()
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer shutdownCancel()
		// Streaming handlers never finish on their own.
		if err := server.Shutdown(shutdownCtx); err != nil {
			server.Close()
		}
		return nil
	})

	return g.Wait()
}

func newMux(d *deck.Deck, b *stream.Broadcaster, rtc *stream.WebRTCHandler, logger *slog.Logger) *http.ServeMux {
	mux := http.NewServeMux()

	mux.Handle("/stream.wav", stream.NewHTTPHandler(b, logger))
	mux.Handle("/offer", rtc)

	mux.HandleFunc("/api/status", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Header().Set("Access-Control-Allow-Origin", "*")
		json.NewEncoder(w).Encode(map[string]any{
			"deck":             d.Status(),
			"frames":           b.Frames(),
			"http_listeners":   b.ListenerCount(),
			"webrtc_listeners": rtc.PeerCount(),
		})
	})

	mux.HandleFunc("/api/skip", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			http.Error(w, "POST required", http.StatusMethodNotAllowed)
			return
		}
		d.Skip()
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]any{"ok": true})
	})

	return mux
}
