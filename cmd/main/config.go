package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/natefinch/atomic"
)

// ServerConfig holds the configuration for the HTTP API and logging.
type ServerConfig struct {
	Addr         string   `json:"addr"`
	LogLevel     string   `json:"log_level"`
	CORSOrigins  []string `json:"cors_origins"`
	MaxBodyBytes int64    `json:"max_body_bytes"`
	MaxWords     int      `json:"max_words"` // Upper bound on words per API result; 0 disables it.
}

// GenerationConfig holds defaults for generation commands and requests.
type GenerationConfig struct {
	Count    int `json:"count"`
	MaxWords int `json:"max_words"` // 0 leaves the walk unbounded.
}

// HistoryConfig controls recording of generation runs.
type HistoryConfig struct {
	Enabled      bool   `json:"enabled"`
	DatabasePath string `json:"database_path"`
}

// Config is the top-level configuration struct that aggregates all other configs.
type Config struct {
	Server     *ServerConfig     `json:"server_config"`
	Generation *GenerationConfig `json:"generation_config"`
	History    *HistoryConfig    `json:"history_config"`
}

// DefaultServerConfig creates a server configuration with default values.
func DefaultServerConfig() *ServerConfig {
	return &ServerConfig{
		Addr:         ":7280",
		LogLevel:     "info",
		CORSOrigins:  []string{"*"},
		MaxBodyBytes: 8 << 20,
		MaxWords:     10000,
	}
}

// DefaultGenerationConfig creates a generation configuration with default values.
func DefaultGenerationConfig() *GenerationConfig {
	return &GenerationConfig{
		Count:    1,
		MaxWords: 0,
	}
}

// DefaultHistoryConfig creates a history configuration with default values.
func DefaultHistoryConfig() *HistoryConfig {
	return &HistoryConfig{
		Enabled:      false,
		DatabasePath: "./data/markovtext_history.db?_journal_mode=WAL&_busy_timeout=5000",
	}
}

// DefaultConfig returns a Config with every section set to its defaults.
func DefaultConfig() *Config {
	return &Config{
		Server:     DefaultServerConfig(),
		Generation: DefaultGenerationConfig(),
		History:    DefaultHistoryConfig(),
	}
}

// LoadConfig reads the configuration from a JSON file at the given path.
// An empty path returns the defaults. If the file doesn't exist, it is
// created with default values.
func LoadConfig(path string) (*Config, error) {
	config := DefaultConfig()
	if path == "" {
		return config, nil
	}

	file, err := os.ReadFile(path)
	if err != nil {
		// If the file doesn't exist, create it with the default config.
		if os.IsNotExist(err) {
			var data []byte
			data, err = json.MarshalIndent(config, "", "  ")
			if err != nil {
				return nil, fmt.Errorf("failed to marshal default config: %w", err)
			}
			if err = atomic.WriteFile(path, bytes.NewReader(data)); err != nil {
				// The defaults are still usable.
				slog.Warn("Failed to write default config file", "path", path, "error", err)
			}
			return config, nil
		}
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	if err = json.Unmarshal(file, &config); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	// Sections missing from the file keep their defaults.
	if config.Server == nil {
		config.Server = DefaultServerConfig()
	}
	if config.Generation == nil {
		config.Generation = DefaultGenerationConfig()
	}
	if config.History == nil {
		config.History = DefaultHistoryConfig()
	}
	return config, nil
}

// parseLogLevel maps a config string to a slog level, defaulting to info.
func parseLogLevel(level string) slog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug
	case "info":
		return slog.LevelInfo
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
