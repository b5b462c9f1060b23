package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func clearEnvs(t *testing.T) {
	t.Helper()
	for _, key := range []string{
		"CATALOG_CONFIG", "MOVIES_FILE", "PORT", "AUTH_TOKEN",
		"SERVER_READ_TIMEOUT", "SERVER_WRITE_TIMEOUT", "SERVER_IDLE_TIMEOUT",
		"WATCH_FILE", "WATCH_DEBOUNCE_MS", "LOG_LEVEL",
	} {
		t.Setenv(key, "")
	}
}

func TestLoadDefaults(t *testing.T) {
	clearEnvs(t)

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load() unexpected error: %v", err)
	}
	if cfg != Defaults() {
		t.Fatalf("Load() = %+v, want defaults %+v", cfg, Defaults())
	}
}

func TestLoadEnvOverrides(t *testing.T) {
	clearEnvs(t)
	t.Setenv("MOVIES_FILE", "/data/horror.csv")
	t.Setenv("PORT", "9090")
	t.Setenv("AUTH_TOKEN", "secret")
	t.Setenv("SERVER_READ_TIMEOUT", "30")
	t.Setenv("WATCH_FILE", "false")
	t.Setenv("LOG_LEVEL", "DEBUG")

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load() unexpected error: %v", err)
	}

	if cfg.CatalogPath != "/data/horror.csv" {
		t.Fatalf("CatalogPath = %s, want /data/horror.csv", cfg.CatalogPath)
	}
	if cfg.Port != "9090" {
		t.Fatalf("Port = %s, want 9090", cfg.Port)
	}
	if cfg.ReadTimeoutSecs != 30 {
		t.Fatalf("ReadTimeoutSecs = %d, want 30", cfg.ReadTimeoutSecs)
	}
	if cfg.WatchFile {
		t.Fatalf("WatchFile = true, want false")
	}
	if cfg.LogLevel != "debug" {
		t.Fatalf("LogLevel = %s, want debug", cfg.LogLevel)
	}
}

func TestLoadFileThenEnv(t *testing.T) {
	clearEnvs(t)
	path := filepath.Join(t.TempDir(), "catalog.yaml")
	require.NoError(t, os.WriteFile(path, []byte("catalog_path: from-file.csv\nport: \"7070\"\nwatch_debounce_ms: 50\n"), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "from-file.csv", cfg.CatalogPath)
	assert.Equal(t, "7070", cfg.Port)
	assert.Equal(t, 50, cfg.WatchDebounceMS)
	assert.Equal(t, 15, cfg.WriteTimeoutSecs, "unset keys keep defaults")

	t.Setenv("PORT", "6060")
	t.Setenv("CATALOG_CONFIG", path)
	cfg, err = Load("")
	require.NoError(t, err)
	assert.Equal(t, "6060", cfg.Port, "env wins over file")
	assert.Equal(t, "from-file.csv", cfg.CatalogPath)
}

func TestLoadFileErrors(t *testing.T) {
	clearEnvs(t)

	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.ErrorContains(t, err, "not found")

	bad := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(bad, []byte("port: [1, 2\n"), 0o644))
	_, err = Load(bad)
	assert.ErrorContains(t, err, "parse config file")
}

func TestLoadValidationErrors(t *testing.T) {
	tests := []struct {
		name    string
		setup   func(t *testing.T)
		wantErr string
	}{
		{
			name:    "bad port",
			setup:   func(t *testing.T) { t.Setenv("PORT", "http") },
			wantErr: "PORT",
		},
		{
			name:    "negative read timeout",
			setup:   func(t *testing.T) { t.Setenv("SERVER_READ_TIMEOUT", "-1") },
			wantErr: "SERVER_READ_TIMEOUT",
		},
		{
			name:    "negative debounce",
			setup:   func(t *testing.T) { t.Setenv("WATCH_DEBOUNCE_MS", "-5") },
			wantErr: "WATCH_DEBOUNCE_MS",
		},
		{
			name:    "unknown log level",
			setup:   func(t *testing.T) { t.Setenv("LOG_LEVEL", "loud") },
			wantErr: "LOG_LEVEL",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clearEnvs(t)
			tt.setup(t)
			_, err := Load("")
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Fatalf("Load() error = %v, want contains %q", err, tt.wantErr)
			}
		})
	}
}
