package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// Config captures runtime configuration. Values come from defaults, then an optional
// YAML file, then environment variables; flags on the command line win over all three.
type Config struct {
	CatalogPath      string `yaml:"catalog_path"`
	Port             string `yaml:"port"`
	AuthToken        string `yaml:"auth_token"`
	ReadTimeoutSecs  int    `yaml:"read_timeout_secs"`
	WriteTimeoutSecs int    `yaml:"write_timeout_secs"`
	IdleTimeoutSecs  int    `yaml:"idle_timeout_secs"`
	WatchFile        bool   `yaml:"watch_file"`
	WatchDebounceMS  int    `yaml:"watch_debounce_ms"`
	LogLevel         string `yaml:"log_level"`
}

// Defaults returns the built-in configuration.
func Defaults() Config {
	return Config{
		CatalogPath:      "movies.csv",
		Port:             "8080",
		ReadTimeoutSecs:  15,
		WriteTimeoutSecs: 15,
		IdleTimeoutSecs:  60,
		WatchFile:        true,
		WatchDebounceMS:  250,
		LogLevel:         "info",
	}
}

// Load builds the effective configuration. path names a YAML file; when empty the
// CATALOG_CONFIG environment variable is consulted. An explicitly named file must exist.
func Load(path string) (Config, error) {
	cfg := Defaults()

	if path == "" {
		path = os.Getenv("CATALOG_CONFIG")
	}
	if path != "" {
		if err := loadFile(path, &cfg); err != nil {
			return Config{}, err
		}
	}

	cfg.CatalogPath = getEnv("MOVIES_FILE", cfg.CatalogPath)
	cfg.Port = getEnv("PORT", cfg.Port)
	cfg.AuthToken = getEnv("AUTH_TOKEN", cfg.AuthToken)
	cfg.ReadTimeoutSecs = getEnvInt("SERVER_READ_TIMEOUT", cfg.ReadTimeoutSecs)
	cfg.WriteTimeoutSecs = getEnvInt("SERVER_WRITE_TIMEOUT", cfg.WriteTimeoutSecs)
	cfg.IdleTimeoutSecs = getEnvInt("SERVER_IDLE_TIMEOUT", cfg.IdleTimeoutSecs)
	cfg.WatchFile = getEnvBool("WATCH_FILE", cfg.WatchFile)
	cfg.WatchDebounceMS = getEnvInt("WATCH_DEBOUNCE_MS", cfg.WatchDebounceMS)
	cfg.LogLevel = strings.ToLower(getEnv("LOG_LEVEL", cfg.LogLevel))

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate reports the first invalid setting.
func (c Config) Validate() error {
	if strings.TrimSpace(c.CatalogPath) == "" {
		return fmt.Errorf("MOVIES_FILE must not be empty")
	}
	if port, err := strconv.Atoi(c.Port); err != nil || port < 0 || port > 65535 {
		return fmt.Errorf("PORT must be a number between 0 and 65535")
	}
	if c.ReadTimeoutSecs <= 0 {
		return fmt.Errorf("SERVER_READ_TIMEOUT must be positive")
	}
	if c.WriteTimeoutSecs <= 0 {
		return fmt.Errorf("SERVER_WRITE_TIMEOUT must be positive")
	}
	if c.IdleTimeoutSecs <= 0 {
		return fmt.Errorf("SERVER_IDLE_TIMEOUT must be positive")
	}
	if c.WatchDebounceMS < 0 {
		return fmt.Errorf("WATCH_DEBOUNCE_MS must be non-negative")
	}
	switch c.LogLevel {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("LOG_LEVEL must be one of debug, info, warn, error")
	}
	return nil
}

func loadFile(path string, cfg *Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("config file %q not found", path)
		}
		return fmt.Errorf("read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("parse config file %q: %w", path, err)
	}
	return nil
}

func getEnv(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if val := os.Getenv(key); val != "" {
		if parsed, err := strconv.Atoi(val); err == nil {
			return parsed
		}
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	if val := os.Getenv(key); val != "" {
		if parsed, err := strconv.ParseBool(val); err == nil {
			return parsed
		}
	}
	return fallback
}
