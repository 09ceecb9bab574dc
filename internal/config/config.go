// Package config loads collector settings from defaults, an optional YAML
// file, SYSINFO_* environment variables and command-line flags, in that order.
package config

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"net"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the complete process configuration. It is read once at startup.
type Config struct {
	Collector CollectorConfig `yaml:"collector"`
	Server    ServerConfig    `yaml:"server"`
	Storage   StorageConfig   `yaml:"storage"`
	Metrics   MetricsConfig   `yaml:"metrics"`
	RateLimit RateLimitConfig `yaml:"rate_limit"`
	Log       LogConfig       `yaml:"log"`
}

type CollectorConfig struct {
	// IntervalSeconds is the time between two samples.
	IntervalSeconds int `yaml:"interval_seconds"`
}

type ServerConfig struct {
	Host string `yaml:"host"`
	Port int    `yaml:"port"`
	// Mode is the gin mode: "release", "debug" or "test".
	Mode string `yaml:"mode"`
}

type StorageConfig struct {
	// Path is the SQLite file holding the sample history.
	Path string `yaml:"path"`
}

type MetricsConfig struct {
	// DiskPath is the mount point whose usage is sampled.
	DiskPath string `yaml:"disk_path"`
	// CPUWindowMS is how long each CPU measurement observes the processor.
	CPUWindowMS int `yaml:"cpu_window_ms"`
}

type RateLimitConfig struct {
	// RequestsPerSecond per client IP; 0 disables rate limiting.
	RequestsPerSecond float64 `yaml:"requests_per_second"`
	Burst             int     `yaml:"burst"`
}

type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"` // "json" or "console"
}

// Default returns the built-in configuration
func Default() *Config {
	return &Config{
		Collector: CollectorConfig{IntervalSeconds: 60},
		Server:    ServerConfig{Host: "127.0.0.1", Port: 8080, Mode: "release"},
		Storage:   StorageConfig{Path: "system_info.db"},
		Metrics:   MetricsConfig{DiskPath: "/", CPUWindowMS: 1000},
		RateLimit: RateLimitConfig{RequestsPerSecond: 10, Burst: 20},
		Log:       LogConfig{Level: "info", Format: "json"},
	}
}

// Interval returns the sampling interval
func (c *Config) Interval() time.Duration {
	return time.Duration(c.Collector.IntervalSeconds) * time.Second
}

// CPUWindow returns the CPU observation window
func (c *Config) CPUWindow() time.Duration {
	return time.Duration(c.Metrics.CPUWindowMS) * time.Millisecond
}

// ListenAddr returns host:port for the HTTP server
func (c *Config) ListenAddr() string {
	return net.JoinHostPort(c.Server.Host, strconv.Itoa(c.Server.Port))
}

// Validate reports the first invalid setting
func (c *Config) Validate() error {
	switch {
	case c.Collector.IntervalSeconds <= 0:
		return fmt.Errorf("collector.interval_seconds must be positive, got %d", c.Collector.IntervalSeconds)
	case c.Server.Port < 1 || c.Server.Port > 65535:
		return fmt.Errorf("server.port must be between 1 and 65535, got %d", c.Server.Port)
	case c.Server.Mode != "release" && c.Server.Mode != "debug" && c.Server.Mode != "test":
		return fmt.Errorf("server.mode must be release, debug or test, got %q", c.Server.Mode)
	case c.Storage.Path == "":
		return errors.New("storage.path must not be empty")
	case c.Metrics.CPUWindowMS < 0:
		return fmt.Errorf("metrics.cpu_window_ms must not be negative, got %d", c.Metrics.CPUWindowMS)
	case c.RateLimit.RequestsPerSecond < 0 || c.RateLimit.Burst < 0:
		return errors.New("rate_limit values must not be negative")
	}
	return nil
}

// Load builds the configuration from args (without the program name) and the environment
func Load(args []string, getenv func(string) string) (*Config, error) {
	fs := flag.NewFlagSet("sysinfo", flag.ContinueOnError)
	fs.SetOutput(io.Discard)

	configPath := fs.String("config", "", "Path to YAML config file")
	interval := fs.Int("interval", 0, "Sampling interval in seconds")
	host := fs.String("host", "", "Listen host")
	port := fs.Int("port", 0, "Listen port")
	dbPath := fs.String("db", "", "Path to the SQLite history file")

	if err := fs.Parse(args); err != nil {
		return nil, fmt.Errorf("parsing flags: %w", err)
	}

	cfg := Default()

	path := *configPath
	if path == "" {
		path = getenv("SYSINFO_CONFIG")
	}
	if path != "" {
		if err := loadFile(cfg, path); err != nil {
			return nil, err
		}
	}

	if err := applyEnv(cfg, getenv); err != nil {
		return nil, err
	}

	// Flags override everything else, but only when given.
	fs.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "interval":
			cfg.Collector.IntervalSeconds = *interval
		case "host":
			cfg.Server.Host = *host
		case "port":
			cfg.Server.Port = *port
		case "db":
			cfg.Storage.Path = *dbPath
		}
	})

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func loadFile(cfg *Config, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("reading config: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("parsing config %s: %w", path, err)
	}
	return nil
}

func applyEnv(cfg *Config, getenv func(string) string) error {
	if v := getenv("SYSINFO_INTERVAL_SECONDS"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("SYSINFO_INTERVAL_SECONDS: %w", err)
		}
		cfg.Collector.IntervalSeconds = n
	}
	if v := getenv("SYSINFO_HOST"); v != "" {
		cfg.Server.Host = v
	}
	if v := getenv("SYSINFO_PORT"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("SYSINFO_PORT: %w", err)
		}
		cfg.Server.Port = n
	}
	if v := getenv("SYSINFO_GIN_MODE"); v != "" {
		cfg.Server.Mode = v
	}
	if v := getenv("SYSINFO_DB_PATH"); v != "" {
		cfg.Storage.Path = v
	}
	if v := getenv("SYSINFO_DISK_PATH"); v != "" {
		cfg.Metrics.DiskPath = v
	}
	if v := getenv("SYSINFO_LOG_LEVEL"); v != "" {
		cfg.Log.Level = v
	}
	return nil
}
