package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strconv"

	"github.com/satindergrewal/tvctape/internal/audio"
	"github.com/satindergrewal/tvctape/internal/tape"
	"gopkg.in/yaml.v3"
)

func envFloat(key string, fallback float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return fallback
}

func envBool(key string, fallback bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return fallback
}

// Config holds all runtime configuration, loaded from environment variables
// and optionally a YAML file.
type Config struct {
	// Encoder
	Filename     string  `yaml:"filename"`    // head-block file name
	Fill         string  `yaml:"fill"`        // bulk or unit
	Passes       int     `yaml:"passes"`      // renders per tape
	ReplayGainDB float64 `yaml:"replay_gain"` // dB applied to every sample

	// Server
	Port        int    `yaml:"port"`
	TapeDir     string `yaml:"tape_dir"`
	Loop        bool   `yaml:"loop"`         // restart the deck after the last tape
	Pace        bool   `yaml:"pace"`         // release frames in real time
	OpusBitrate int    `yaml:"opus_bitrate"` // bits per second

	// Export
	Compression string `yaml:"compression"` // none, zstd or lz4

	LogLevel string `yaml:"log_level"`
}

// Load reads configuration from environment variables with sane defaults.
func Load() Config {
	return Config{
		Filename:     envStr("TVC_FILENAME", tape.DefaultFilename),
		Fill:         envStr("TVC_FILL", "bulk"),
		Passes:       envInt("TVC_PASSES", 1),
		ReplayGainDB: envFloat("TVC_REPLAY_GAIN", 0),

		Port:        envInt("TVC_PORT", 8080),
		TapeDir:     envStr("TVC_TAPE_DIR", "./tapes"),
		Loop:        envBool("TVC_LOOP", false),
		Pace:        envBool("TVC_PACE", true),
		OpusBitrate: envInt("TVC_OPUS_BITRATE", 64000),

		Compression: envStr("TVC_COMPRESSION", "none"),

		LogLevel: envStr("TVC_LOG_LEVEL", "info"),
	}
}

// LoadFile reads the environment, then overlays the keys present in the
// YAML file at path.
func LoadFile(path string) (Config, error) {
	cfg := Load()
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("read config: %w", err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parse config %s: %w", path, err)
	}
	return cfg, nil
}

// FromEnv loads the file named by TVC_CONFIG if set, else the environment
// alone, and validates the result.
func FromEnv() (Config, error) {
	cfg := Load()
	if path := os.Getenv("TVC_CONFIG"); path != "" {
		var err error
		if cfg, err = LoadFile(path); err != nil {
			return cfg, err
		}
	}
	return cfg, cfg.Validate()
}

// Validate checks every field that has a fixed set of legal values.
func (c Config) Validate() error {
	var errs []error
	if _, err := c.FillStrategy(); err != nil {
		errs = append(errs, err)
	}
	if _, err := c.CompressionKind(); err != nil {
		errs = append(errs, err)
	}
	if c.Passes < 1 {
		errs = append(errs, fmt.Errorf("passes must be at least 1, got %d", c.Passes))
	}
	if c.Port < 0 || c.Port > 65535 {
		errs = append(errs, fmt.Errorf("port %d out of range", c.Port))
	}
	if len(c.Filename) > tape.MaxFilenameLen {
		errs = append(errs, fmt.Errorf("filename %q longer than %d bytes", c.Filename, tape.MaxFilenameLen))
	}
	if _, err := c.SlogLevel(); err != nil {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}

// FillStrategy parses Fill.
func (c Config) FillStrategy() (tape.FillStrategy, error) {
	return tape.ParseFillStrategy(c.Fill)
}

// CompressionKind parses Compression.
func (c Config) CompressionKind() (audio.Compression, error) {
	return audio.ParseCompression(c.Compression)
}

// SlogLevel parses LogLevel (debug, info, warn, error).
func (c Config) SlogLevel() (slog.Level, error) {
	var l slog.Level
	if err := l.UnmarshalText([]byte(c.LogLevel)); err != nil {
		return slog.LevelInfo, fmt.Errorf("log level: %w", err)
	}
	return l, nil
}

func envStr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}
