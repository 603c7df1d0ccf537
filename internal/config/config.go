package config

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config holds all configuration for the application.
type Config struct {
	DBPath             string        `yaml:"db_path"`
	APIPort            string        `yaml:"api_port"`
	LogLevel           string        `yaml:"log_level"`
	LogFormat          string        `yaml:"log_format"`
	Directory          string        `yaml:"directory"`
	HistoryRetention   int           `yaml:"history_retention"`
	AutosaveDelay      time.Duration `yaml:"autosave_delay"`
	AutosaveRetryDelay time.Duration `yaml:"autosave_retry_delay"`
	SearchTimeout      time.Duration `yaml:"search_timeout"`
	SearchMaxMatches   int           `yaml:"search_max_matches"`
	SortLocale         string        `yaml:"sort_locale"`
	WatchDebounce      time.Duration `yaml:"watch_debounce"`
	BreakerTimeout     time.Duration `yaml:"breaker_timeout"`
}

// Load reads configuration from environment variables and returns a Config struct.
// It applies defaults for optional fields and validates the result.
// If a .env file exists in the current directory or a parent, it is loaded first;
// environment variables already set take precedence over .env file values.
// A YAML file named by OFFNOTE_CONFIG is applied last and its non-zero fields win.
func Load() (*Config, error) {
	// Try to load .env file (ignore error if it doesn't exist)
	_ = godotenv.Load()

	wd, err := os.Getwd()
	if err == nil {
		dir := wd
		for i := 0; i < 5; i++ { // Limit search depth
			envPath := filepath.Join(dir, ".env")
			if _, err := os.Stat(envPath); err == nil {
				_ = godotenv.Load(envPath)
				break
			}
			parent := filepath.Dir(dir)
			if parent == dir {
				break // Reached filesystem root
			}
			dir = parent
		}
	}

	cfg := &Config{
		DBPath:     getEnv("DB_PATH", "./data/offnote.db"),
		APIPort:    getEnv("API_PORT", "9000"),
		LogLevel:   strings.ToLower(getEnv("LOG_LEVEL", "info")),
		LogFormat:  strings.ToLower(getEnv("LOG_FORMAT", "text")),
		Directory:  getEnv("OFFNOTE_DIRECTORY", ""),
		SortLocale: getEnv("SORT_LOCALE", "ja"),
	}

	ints := []struct {
		key string
		def int
		dst *int
	}{
		{"HISTORY_RETENTION", 20, &cfg.HistoryRetention},
		{"SEARCH_MAX_MATCHES", 10000, &cfg.SearchMaxMatches},
	}
	for _, v := range ints {
		n, err := getEnvInt(v.key, v.def)
		if err != nil {
			return nil, err
		}
		*v.dst = n
	}

	durations := []struct {
		key string
		def time.Duration
		dst *time.Duration
	}{
		{"AUTOSAVE_DELAY", 3 * time.Second, &cfg.AutosaveDelay},
		{"AUTOSAVE_RETRY_DELAY", 5 * time.Second, &cfg.AutosaveRetryDelay},
		{"SEARCH_TIMEOUT", time.Second, &cfg.SearchTimeout},
		{"WATCH_DEBOUNCE", 500 * time.Millisecond, &cfg.WatchDebounce},
		{"BREAKER_TIMEOUT", 30 * time.Second, &cfg.BreakerTimeout},
	}
	for _, v := range durations {
		d, err := getEnvDuration(v.key, v.def)
		if err != nil {
			return nil, err
		}
		*v.dst = d
	}

	if path := getEnv("OFFNOTE_CONFIG", ""); path != "" {
		if err := cfg.overlay(path); err != nil {
			return nil, err
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	// Create the data directory if it doesn't exist
	dataDir := filepath.Dir(cfg.DBPath)
	if err := os.MkdirAll(dataDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}

	return cfg, nil
}

// overlay decodes the YAML file at path over cfg. Fields left out of the
// file keep their current value.
func (c *Config) overlay(path string) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("failed to open config file: %w", err)
	}
	defer func() {
		_ = f.Close()
	}()

	var file Config
	decoder := yaml.NewDecoder(f)
	decoder.KnownFields(true)
	if err := decoder.Decode(&file); err != nil {
		return fmt.Errorf("failed to decode config file %s: %w", path, err)
	}
	c.merge(file)
	return nil
}

func (c *Config) merge(o Config) {
	setString := func(dst *string, v string) {
		if v != "" {
			*dst = v
		}
	}
	setInt := func(dst *int, v int) {
		if v != 0 {
			*dst = v
		}
	}
	setDuration := func(dst *time.Duration, v time.Duration) {
		if v != 0 {
			*dst = v
		}
	}

	setString(&c.DBPath, o.DBPath)
	setString(&c.APIPort, o.APIPort)
	setString(&c.LogLevel, strings.ToLower(o.LogLevel))
	setString(&c.LogFormat, strings.ToLower(o.LogFormat))
	setString(&c.Directory, o.Directory)
	setString(&c.SortLocale, o.SortLocale)
	setInt(&c.HistoryRetention, o.HistoryRetention)
	setInt(&c.SearchMaxMatches, o.SearchMaxMatches)
	setDuration(&c.AutosaveDelay, o.AutosaveDelay)
	setDuration(&c.AutosaveRetryDelay, o.AutosaveRetryDelay)
	setDuration(&c.SearchTimeout, o.SearchTimeout)
	setDuration(&c.WatchDebounce, o.WatchDebounce)
	setDuration(&c.BreakerTimeout, o.BreakerTimeout)
}

// Validate checks field ranges and enumerations.
func (c *Config) Validate() error {
	if c.DBPath == "" {
		return fmt.Errorf("DB_PATH is required")
	}
	port, err := strconv.Atoi(c.APIPort)
	if err != nil || port <= 0 || port > 65535 {
		return fmt.Errorf("API_PORT must be a valid port number, got %q", c.APIPort)
	}
	if _, err := c.SlogLevel(); err != nil {
		return err
	}
	if c.LogFormat != "text" && c.LogFormat != "json" {
		return fmt.Errorf("LOG_FORMAT must be text or json, got %q", c.LogFormat)
	}
	if c.HistoryRetention <= 0 {
		return fmt.Errorf("HISTORY_RETENTION must be greater than 0")
	}
	if c.SearchMaxMatches <= 0 {
		return fmt.Errorf("SEARCH_MAX_MATCHES must be greater than 0")
	}
	for name, d := range map[string]time.Duration{
		"AUTOSAVE_DELAY":       c.AutosaveDelay,
		"AUTOSAVE_RETRY_DELAY": c.AutosaveRetryDelay,
		"SEARCH_TIMEOUT":       c.SearchTimeout,
		"WATCH_DEBOUNCE":       c.WatchDebounce,
		"BREAKER_TIMEOUT":      c.BreakerTimeout,
	} {
		if d <= 0 {
			return fmt.Errorf("%s must be greater than 0", name)
		}
	}
	return nil
}

// SlogLevel maps LogLevel to a slog.Level.
func (c *Config) SlogLevel() (slog.Level, error) {
	switch c.LogLevel {
	case "debug":
		return slog.LevelDebug, nil
	case "", "info":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	}
	return slog.LevelInfo, fmt.Errorf("LOG_LEVEL must be debug, info, warn or error, got %q", c.LogLevel)
}

// getEnv gets an environment variable or returns a default value.
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) (int, error) {
	s := getEnv(key, "")
	if s == "" {
		return defaultValue, nil
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, fmt.Errorf("%s must be a valid integer: %w", key, err)
	}
	return n, nil
}

// getEnvDuration accepts Go duration strings ("3s") or bare milliseconds ("3000").
func getEnvDuration(key string, defaultValue time.Duration) (time.Duration, error) {
	s := getEnv(key, "")
	if s == "" {
		return defaultValue, nil
	}
	if ms, err := strconv.Atoi(s); err == nil {
		return time.Duration(ms) * time.Millisecond, nil
	}
	d, err := time.ParseDuration(s)
	if err != nil {
		return 0, fmt.Errorf("%s must be a valid duration: %w", key, err)
	}
	return d, nil
}
