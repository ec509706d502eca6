package cliconfig

import (
	"testing"
	"time"
)

func TestApplyEnvConfig(t *testing.T) {
	tests := []struct {
		name     string
		envVars  map[string]string
		changed  map[string]bool
		initial  Config
		expected Config
		wantErr  bool
	}{
		{
			name: "applies all valid env vars",
			envVars: map[string]string{
				"GONESBRIDGE_DB_PATH":               "/env/gones.db",
				"GONESBRIDGE_LEGACY_DIRS":           "/env/a,/env/b",
				"GONESBRIDGE_LEGACY_DUMP":           "/env/storage.json",
				"GONESBRIDGE_MODULE":                "/env/gones.js",
				"GONESBRIDGE_WATCH_DIR":             "/env/roms",
				"GONESBRIDGE_LOG_LEVEL":             "warn",
				"GONESBRIDGE_SURFACE_POLL_INTERVAL": "20ms",
				"GONESBRIDGE_SURFACE_MAX_INTERVAL":  "2s",
				"GONESBRIDGE_SHUTDOWN_TIMEOUT":      "1m",
			},
			changed: map[string]bool{},
			initial: Config{},
			expected: Config{
				DBPath:              "/env/gones.db",
				LegacyDirs:          []string{"/env/a", "/env/b"},
				LegacyDump:          "/env/storage.json",
				ModulePath:          "/env/gones.js",
				WatchDir:            "/env/roms",
				LogLevel:            "warn",
				SurfacePollInterval: 20 * time.Millisecond,
				SurfaceMaxInterval:  2 * time.Second,
				ShutdownTimeout:     time.Minute,
			},
		},
		{
			name: "respects changed flags",
			envVars: map[string]string{
				"GONESBRIDGE_DB_PATH":          "/env/gones.db",
				"GONESBRIDGE_SHUTDOWN_TIMEOUT": "1m",
			},
			changed: map[string]bool{"db": true, "shutdown-timeout": true},
			initial: Config{
				DBPath:          "/flag/gones.db",
				ShutdownTimeout: time.Second,
			},
			expected: Config{
				DBPath:          "/flag/gones.db",
				ShutdownTimeout: time.Second,
			},
		},
		{
			name: "returns error for invalid duration",
			envVars: map[string]string{
				"GONESBRIDGE_SURFACE_POLL_INTERVAL": "not-a-duration",
			},
			changed: map[string]bool{},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for k, v := range tt.envVars {
				t.Setenv(k, v)
			}

			cfg := tt.initial
			err := ApplyEnvConfig(&cfg, tt.changed)

			if (err != nil) != tt.wantErr {
				t.Fatalf("ApplyEnvConfig() error = %v, wantErr %v", err, tt.wantErr)
			}
			if tt.wantErr {
				return
			}
			assertConfig(t, cfg, tt.expected)
		})
	}
}

// Integration test: precedence order (CLI > Env > File)
func TestConfigPrecedence(t *testing.T) {
	fileConf := FileConfig{
		DBPath:     "/file/gones.db",
		ModulePath: "/file/gones.js",
		WatchDir:   "/file/roms",
		LogLevel:   "debug",
	}

	t.Setenv("GONESBRIDGE_DB_PATH", "/env/gones.db")
	t.Setenv("GONESBRIDGE_MODULE", "/env/gones.js")
	t.Setenv("GONESBRIDGE_LEGACY_DUMP", "/env/storage.json")

	// Simulate CLI flags
	changed := map[string]bool{
		"db": true,
	}

	cfg := DefaultConfig()
	cfg.DBPath = "/cli/gones.db"

	if err := ApplyFileConfig(&cfg, fileConf, changed); err != nil {
		t.Fatalf("ApplyFileConfig failed: %v", err)
	}
	if err := ApplyEnvConfig(&cfg, changed); err != nil {
		t.Fatalf("ApplyEnvConfig failed: %v", err)
	}

	if cfg.DBPath != "/cli/gones.db" {
		t.Errorf("DBPath = %v, want /cli/gones.db (CLI should win)", cfg.DBPath)
	}
	if cfg.ModulePath != "/env/gones.js" {
		t.Errorf("ModulePath = %v, want /env/gones.js (env should override file)", cfg.ModulePath)
	}
	if cfg.LegacyDump != "/env/storage.json" {
		t.Errorf("LegacyDump = %v, want /env/storage.json (env should set)", cfg.LegacyDump)
	}
	if cfg.WatchDir != "/file/roms" {
		t.Errorf("WatchDir = %v, want /file/roms (file should set)", cfg.WatchDir)
	}
	if cfg.LogLevel != "debug" {
		t.Errorf("LogLevel = %v, want debug (file should set)", cfg.LogLevel)
	}
}
