// Package config loads server settings.
//
// Values are resolved in three layers, later layers winning:
//
//  1. built-in defaults
//  2. an optional TOML file
//  3. environment variables (a .env file in the working directory is loaded
//     into the environment first)
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"

	"github.com/ttani03/goth-dcim/internal/apperr"
)

const (
	DefaultPort             = "8080"
	DefaultLogLevel         = "info"
	DefaultLogFormat        = "text"
	DefaultAddressBatchSize = 1000
	DefaultRequestTimeout   = 30 * time.Second
	DefaultConnectRetries   = 10
	DefaultRetryInterval    = 2 * time.Second
	DefaultDiskPath         = "/"
)

// Config holds the server settings.
type Config struct {
	DatabaseURL string `toml:"database_url"`
	Port        string `toml:"port"`
	LogLevel    string `toml:"log_level"`
	LogFormat   string `toml:"log_format"`

	// AddressBatchSize is the number of address records copied per batch
	// when a pool is seeded.
	AddressBatchSize int `toml:"address_batch_size"`

	RequestTimeout Duration `toml:"request_timeout"`
	ConnectRetries int      `toml:"db_connect_retries"`
	RetryInterval  Duration `toml:"db_retry_interval"`

	// DiskPath is the filesystem reported on the monitoring page.
	DiskPath string `toml:"disk_path"`
}

// Duration is a time.Duration that decodes from TOML strings like "30s".
type Duration struct {
	time.Duration
}

func (d *Duration) UnmarshalText(text []byte) error {
	v, err := time.ParseDuration(string(text))
	if err != nil {
		return err
	}
	d.Duration = v
	return nil
}

// Default returns the built-in settings.
func Default() Config {
	return Config{
		Port:             DefaultPort,
		LogLevel:         DefaultLogLevel,
		LogFormat:        DefaultLogFormat,
		AddressBatchSize: DefaultAddressBatchSize,
		RequestTimeout:   Duration{DefaultRequestTimeout},
		ConnectRetries:   DefaultConnectRetries,
		RetryInterval:    Duration{DefaultRetryInterval},
		DiskPath:         DefaultDiskPath,
	}
}

// Load resolves the configuration. path may be empty, in which case the
// IPAM_CONFIG environment variable names the TOML file, if any.
func Load(path string) (Config, error) {
	// Load .env file if it exists
	_ = godotenv.Load()

	cfg := Default()

	if path == "" {
		path = os.Getenv("IPAM_CONFIG")
	}
	if path != "" {
		if err := loadFile(path, &cfg); err != nil {
			return Config{}, err
		}
	}

	if err := applyEnv(&cfg); err != nil {
		return Config{}, err
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func loadFile(path string, cfg *Config) error {
	md, err := toml.DecodeFile(path, cfg)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return apperr.Config("config file %s does not exist", path)
		}
		return apperr.Wrap(apperr.KindConfig, err, "parse config file %s", path)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, len(undecoded))
		for i, k := range undecoded {
			keys[i] = k.String()
		}
		return apperr.Config("unknown keys in %s: %s", path, strings.Join(keys, ", "))
	}
	return nil
}

func applyEnv(cfg *Config) error {
	if v := os.Getenv("DATABASE_URL"); v != "" {
		cfg.DatabaseURL = v
	}
	if v := os.Getenv("PORT"); v != "" {
		cfg.Port = v
	}
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		cfg.LogLevel = v
	}
	if v := os.Getenv("LOG_FORMAT"); v != "" {
		cfg.LogFormat = v
	}
	if v := os.Getenv("DISK_PATH"); v != "" {
		cfg.DiskPath = v
	}

	ints := []struct {
		key string
		dst *int
	}{
		{"ADDRESS_BATCH_SIZE", &cfg.AddressBatchSize},
		{"DB_CONNECT_RETRIES", &cfg.ConnectRetries},
	}
	for _, e := range ints {
		v := os.Getenv(e.key)
		if v == "" {
			continue
		}
		n, err := strconv.Atoi(v)
		if err != nil {
			return apperr.Config("%s must be an integer, got %q", e.key, v)
		}
		*e.dst = n
	}

	durations := []struct {
		key string
		dst *Duration
	}{
		{"REQUEST_TIMEOUT", &cfg.RequestTimeout},
		{"DB_RETRY_INTERVAL", &cfg.RetryInterval},
	}
	for _, e := range durations {
		v := os.Getenv(e.key)
		if v == "" {
			continue
		}
		d, err := time.ParseDuration(v)
		if err != nil {
			return apperr.Config("%s must be a duration, got %q", e.key, v)
		}
		e.dst.Duration = d
	}
	return nil
}

// Validate checks the resolved settings.
func (c Config) Validate() error {
	if c.DatabaseURL == "" {
		return apperr.Config("DATABASE_URL environment variable is not set")
	}
	if _, err := strconv.Atoi(c.Port); err != nil {
		return apperr.Config("invalid port %q", c.Port)
	}
	switch strings.ToLower(c.LogLevel) {
	case "debug", "info", "warn", "error":
	default:
		return apperr.Config("invalid log level %q", c.LogLevel)
	}
	switch c.LogFormat {
	case "text", "json":
	default:
		return apperr.Config("invalid log format %q (want text or json)", c.LogFormat)
	}
	if c.AddressBatchSize < 1 {
		return apperr.Config("address batch size must be positive, got %d", c.AddressBatchSize)
	}
	if c.RequestTimeout.Duration <= 0 {
		return apperr.Config("request timeout must be positive")
	}
	if c.ConnectRetries < 1 {
		return apperr.Config("db connect retries must be at least 1, got %d", c.ConnectRetries)
	}
	return nil
}

// Addr returns the listen address for the HTTP server.
func (c Config) Addr() string {
	return fmt.Sprintf(":%s", c.Port)
}
