// Package config handles loading and parsing application configuration.
// It supports two sources for the file path (in priority order):
//  1. An environment variable:  CONFIG_PATH=/path/to/config.yaml
//  2. A command-line flag:      --config=/path/to/config.yaml
//
// Every value in the file can be overridden by its environment variable.
package config

import (
	"errors"
	"fmt"
	"log"
	"os"

	"github.com/ilyakaznacheev/cleanenv"
)

// Config is the root configuration structure.
// Every field maps to a key in the YAML file AND can be overridden
// by the corresponding environment variable (env:"...").
type Config struct {
	// Env controls log format and verbosity.
	// Valid values: "dev", "staging", "prod"
	Env string `yaml:"env" env:"ENV" env-default:"dev"`

	// StoragePath is the filesystem path to the SQLite .db file.
	StoragePath string `yaml:"storage_path" env:"STORAGE_PATH" env-required:"true"`

	// LogPath receives log output while the terminal UI owns stdout.
	LogPath string `yaml:"log_path" env:"LOG_PATH" env-default:"student-register.log"`

	HTTPServer `yaml:"http_server"`
	Events     `yaml:"events"`
}

// HTTPServer holds settings specific to the HTTP server.
type HTTPServer struct {
	// Addr is the TCP address the server listens on, e.g. "localhost:8082".
	Addr string `yaml:"address" env:"HTTP_SERVER_ADDR" env-default:"localhost:8082"`
}

// Events configures change-event publishing.
type Events struct {
	// NATSURL enables the NATS publisher when set; empty means no events.
	NATSURL string `yaml:"nats_url" env:"NATS_URL"`
}

// Load resolves the config path (CONFIG_PATH wins over flagPath) and
// reads the file.
func Load(flagPath string) (*Config, error) {
	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		configPath = flagPath
	}

	if configPath == "" {
		return nil, errors.New("config path is not set: use --config flag or CONFIG_PATH env var")
	}

	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		return nil, fmt.Errorf("config file does not exist: %s", configPath)
	}

	// cleanenv reads the YAML file, applies env overrides and defaults,
	// and enforces env-required:"true".
	var cfg Config
	if err := cleanenv.ReadConfig(configPath, &cfg); err != nil {
		return nil, fmt.Errorf("cannot read config: %w", err)
	}

	return &cfg, nil
}

// MustLoad is Load for callers that cannot continue without a config.
// Functions prefixed with "Must" exit on failure; if this returns, the
// config is valid.
func MustLoad(flagPath string) *Config {
	cfg, err := Load(flagPath)
	if err != nil {
		log.Fatal(err)
	}
	return cfg
}
