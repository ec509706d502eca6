package cliconfig

import (
	"bytes"
	"errors"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/bft-labs/gonesbridge/internal/domain"
	"github.com/bft-labs/gonesbridge/pkg/log"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if cfg.LogLevel != "info" {
		t.Errorf("LogLevel = %v, want info", cfg.LogLevel)
	}
	if cfg.SurfacePollInterval != 10*time.Millisecond {
		t.Errorf("SurfacePollInterval = %v, want 10ms", cfg.SurfacePollInterval)
	}
	if cfg.ShutdownTimeout != 30*time.Second {
		t.Errorf("ShutdownTimeout = %v, want 30s", cfg.ShutdownTimeout)
	}
	if cfg.DBPath != "" {
		t.Errorf("DBPath = %v, want derived during Validate", cfg.DBPath)
	}
}

func TestConfig_Validate(t *testing.T) {
	valid := func() Config {
		cfg := DefaultConfig()
		cfg.DBPath = "/tmp/gones.db"
		return cfg
	}

	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{"valid", func(*Config) {}, false},
		{"upper-case level", func(c *Config) { c.LogLevel = "DEBUG" }, false},
		{"unknown level", func(c *Config) { c.LogLevel = "chatty" }, true},
		{"zero poll", func(c *Config) { c.SurfacePollInterval = 0 }, true},
		{"max below poll", func(c *Config) { c.SurfaceMaxInterval = time.Millisecond }, true},
		{"zero shutdown timeout", func(c *Config) { c.ShutdownTimeout = 0 }, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid()
			tt.mutate(&cfg)

			err := cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Fatalf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
			if err != nil && !errors.Is(err, domain.ErrInvalidConfig) {
				t.Errorf("Validate() error = %v, want ErrInvalidConfig", err)
			}
		})
	}
}

func TestConfig_Validate_Derivations(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)

	cfg := DefaultConfig()
	cfg.LogLevel = ""
	cfg.LegacyDirs = []string{"", " /saves ", ""}

	if err := cfg.Validate(); err != nil {
		t.Fatalf("Validate() error = %v", err)
	}

	if want := filepath.Join(home, ".gonesbridge", DefaultDBName); cfg.DBPath != want {
		t.Errorf("DBPath = %v, want %v", cfg.DBPath, want)
	}
	if cfg.LogLevel != "info" {
		t.Errorf("LogLevel = %v, want info", cfg.LogLevel)
	}
	if len(cfg.LegacyDirs) != 1 || cfg.LegacyDirs[0] != "/saves" {
		t.Errorf("LegacyDirs = %q, want [/saves]", cfg.LegacyDirs)
	}
}

func TestConfig_Logger(t *testing.T) {
	cfg := DefaultConfig()
	cfg.LogLevel = "warn"

	var buf bytes.Buffer
	logger := cfg.Logger(&buf)
	logger.Info("hidden")
	logger.Warn("shown", log.String("rom", "mario.nes"))

	out := buf.String()
	if strings.Contains(out, "hidden") {
		t.Errorf("info message logged at warn level: %s", out)
	}
	if !strings.Contains(out, "shown") || !strings.Contains(out, "mario.nes") {
		t.Errorf("warn message missing: %s", out)
	}
}
