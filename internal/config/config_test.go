package config

import (
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/satindergrewal/tvctape/internal/audio"
	"github.com/satindergrewal/tvctape/internal/tape"
)

var envVars = []string{
	"TVC_FILENAME", "TVC_FILL", "TVC_PASSES", "TVC_REPLAY_GAIN",
	"TVC_PORT", "TVC_TAPE_DIR", "TVC_LOOP", "TVC_PACE",
	"TVC_OPUS_BITRATE", "TVC_COMPRESSION", "TVC_LOG_LEVEL", "TVC_CONFIG",
}

func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range envVars {
		t.Setenv(k, "")
		os.Unsetenv(k)
	}
}

func TestLoadDefaults(t *testing.T) {
	clearEnv(t)

	cfg := Load()

	if cfg.Filename != "TEST" {
		t.Errorf("Filename = %q, want TEST", cfg.Filename)
	}
	if cfg.Fill != "bulk" {
		t.Errorf("Fill = %q, want bulk", cfg.Fill)
	}
	if cfg.Passes != 1 {
		t.Errorf("Passes = %d, want 1", cfg.Passes)
	}
	if cfg.ReplayGainDB != 0 {
		t.Errorf("ReplayGainDB = %f, want 0", cfg.ReplayGainDB)
	}
	if cfg.Port != 8080 {
		t.Errorf("Port = %d, want 8080", cfg.Port)
	}
	if cfg.TapeDir != "./tapes" {
		t.Errorf("TapeDir = %q, want ./tapes", cfg.TapeDir)
	}
	if cfg.Loop {
		t.Error("Loop = true, want false")
	}
	if !cfg.Pace {
		t.Error("Pace = false, want true")
	}
	if cfg.OpusBitrate != 64000 {
		t.Errorf("OpusBitrate = %d, want 64000", cfg.OpusBitrate)
	}
	if cfg.Compression != "none" {
		t.Errorf("Compression = %q, want none", cfg.Compression)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("defaults do not validate: %v", err)
	}
}

func TestLoadFromEnv(t *testing.T) {
	t.Setenv("TVC_FILENAME", "GAME")
	t.Setenv("TVC_FILL", "unit")
	t.Setenv("TVC_PASSES", "3")
	t.Setenv("TVC_REPLAY_GAIN", "-6.5")
	t.Setenv("TVC_PORT", "3000")
	t.Setenv("TVC_TAPE_DIR", "/srv/tapes")
	t.Setenv("TVC_LOOP", "true")
	t.Setenv("TVC_PACE", "false")
	t.Setenv("TVC_OPUS_BITRATE", "32000")
	t.Setenv("TVC_COMPRESSION", "zstd")
	t.Setenv("TVC_LOG_LEVEL", "debug")

	cfg := Load()

	if cfg.Filename != "GAME" {
		t.Errorf("Filename = %q, want env override", cfg.Filename)
	}
	if fill, _ := cfg.FillStrategy(); fill != tape.FillUnit {
		t.Errorf("FillStrategy = %v, want unit", fill)
	}
	if cfg.Passes != 3 {
		t.Errorf("Passes = %d, want 3", cfg.Passes)
	}
	if cfg.ReplayGainDB != -6.5 {
		t.Errorf("ReplayGainDB = %f, want -6.5", cfg.ReplayGainDB)
	}
	if cfg.Port != 3000 {
		t.Errorf("Port = %d, want 3000", cfg.Port)
	}
	if cfg.TapeDir != "/srv/tapes" {
		t.Errorf("TapeDir = %q, want env override", cfg.TapeDir)
	}
	if !cfg.Loop || cfg.Pace {
		t.Errorf("Loop = %v Pace = %v, want true false", cfg.Loop, cfg.Pace)
	}
	if cfg.OpusBitrate != 32000 {
		t.Errorf("OpusBitrate = %d, want 32000", cfg.OpusBitrate)
	}
	if c, _ := cfg.CompressionKind(); c != audio.CompressionZstd {
		t.Errorf("CompressionKind = %v, want zstd", c)
	}
	if l, _ := cfg.SlogLevel(); l != slog.LevelDebug {
		t.Errorf("SlogLevel = %v, want debug", l)
	}
}

func TestEnvInvalidFallsBack(t *testing.T) {
	t.Setenv("TVC_PORT", "not-a-number")
	t.Setenv("TVC_LOOP", "sometimes")
	t.Setenv("TVC_REPLAY_GAIN", "loud")
	cfg := Load()
	if cfg.Port != 8080 {
		t.Errorf("Invalid int env should fallback to default: got %d, want 8080", cfg.Port)
	}
	if cfg.Loop {
		t.Error("Invalid bool env should fallback to false")
	}
	if cfg.ReplayGainDB != 0 {
		t.Errorf("Invalid float env should fallback to 0: got %f", cfg.ReplayGainDB)
	}
}

func TestValidate(t *testing.T) {
	clearEnv(t)
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"fill", func(c *Config) { c.Fill = "sideways" }},
		{"compression", func(c *Config) { c.Compression = "gzip" }},
		{"passes", func(c *Config) { c.Passes = 0 }},
		{"port", func(c *Config) { c.Port = 70000 }},
		{"filename", func(c *Config) { c.Filename = "WAYTOOLONGNAME" }},
		{"log level", func(c *Config) { c.LogLevel = "chatty" }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Load()
			tt.mutate(&cfg)
			if err := cfg.Validate(); err == nil {
				t.Errorf("Validate accepted bad %s", tt.name)
			}
		})
	}
}

func TestLoadFileOverlay(t *testing.T) {
	clearEnv(t)
	t.Setenv("TVC_PORT", "9000")

	path := filepath.Join(t.TempDir(), "tvctape.yaml")
	yaml := "filename: DEMO\npasses: 2\nloop: true\n"
	if err := os.WriteFile(path, []byte(yaml), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := LoadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Filename != "DEMO" || cfg.Passes != 2 || !cfg.Loop {
		t.Errorf("file keys not applied: %+v", cfg)
	}
	if cfg.Port != 9000 {
		t.Errorf("Port = %d, want env value 9000 kept", cfg.Port)
	}
	if cfg.Fill != "bulk" {
		t.Errorf("Fill = %q, want default kept", cfg.Fill)
	}
}

func TestFromEnvUsesConfigFile(t *testing.T) {
	clearEnv(t)
	path := filepath.Join(t.TempDir(), "bad.yaml")
	os.WriteFile(path, []byte("fill: diagonal\n"), 0o644)
	t.Setenv("TVC_CONFIG", path)

	if _, err := FromEnv(); err == nil {
		t.Fatal("FromEnv accepted an invalid fill from the config file")
	}
}

func TestLoadFileMissing(t *testing.T) {
	if _, err := LoadFile(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Fatal("expected error for missing file")
	}
}
