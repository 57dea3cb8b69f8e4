// Package config loads canvaid's settings.
//
// LOADING ORDER (lowest to highest priority):
//  1. Defaults (Default)
//  2. An optional YAML file
//  3. Environment variables (PORT, DB_PATH, CANVAID_*)
//  4. Command-line flags, applied by cmd/canvaid after Load returns
//
// Validate runs last, so a bad value from any source is reported the same way.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Server   ServerConfig   `yaml:"server"`
	Database DatabaseConfig `yaml:"database"`
	Snapshot SnapshotConfig `yaml:"snapshot"`
	Client   ClientConfig   `yaml:"client"`
	LogLevel string         `yaml:"logLevel"`
}

type ServerConfig struct {
	Port int `yaml:"port"`
	// AllowedOrigins lists browser origins allowed to call the API. Empty
	// disables CORS headers.
	AllowedOrigins []string `yaml:"allowedOrigins"`
}

type DatabaseConfig struct {
	Path string `yaml:"path"`
}

// SnapshotConfig locates the local JSON store used when no server is involved.
type SnapshotConfig struct {
	Dir string `yaml:"dir"`
}

// ClientConfig describes how a client reaches a canvaid server.
type ClientConfig struct {
	BaseURL string        `yaml:"baseUrl"`
	Timeout time.Duration `yaml:"timeout"`
}

func Default() Config {
	return Config{
		Server:   ServerConfig{Port: 8080},
		Database: DatabaseConfig{Path: "data/canvaid.db"},
		Snapshot: SnapshotConfig{Dir: "data"},
		Client:   ClientConfig{BaseURL: "http://localhost:8080", Timeout: 10 * time.Second},
		LogLevel: "info",
	}
}

// Load builds a Config from the defaults, the YAML file at path (skipped when
// path is empty) and the environment. A missing file is an error only when
// the path was given explicitly.
func Load(path string) (Config, error) {
	cfg := Default()
	if path != "" {
		if err := cfg.loadFile(path); err != nil {
			return Config{}, err
		}
	}
	if err := cfg.applyEnv(os.LookupEnv); err != nil {
		return Config{}, err
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c *Config) loadFile(path string) error {
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("config file %s does not exist", path)
	}
	if err != nil {
		return fmt.Errorf("reading config file: %w", err)
	}
	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("parsing config file %s: %w", path, err)
	}
	return nil
}

func (c *Config) applyEnv(lookup func(string) (string, bool)) error {
	if v, ok := lookup("PORT"); ok && v != "" {
		port, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("invalid PORT value %q", v)
		}
		c.Server.Port = port
	}
	if v, ok := lookup("DB_PATH"); ok && v != "" {
		c.Database.Path = v
	}
	if v, ok := lookup("CANVAID_SNAPSHOT_DIR"); ok && v != "" {
		c.Snapshot.Dir = v
	}
	if v, ok := lookup("CANVAID_API_URL"); ok && v != "" {
		c.Client.BaseURL = v
	}
	if v, ok := lookup("CANVAID_LOG_LEVEL"); ok && v != "" {
		c.LogLevel = v
	}
	if v, ok := lookup("CANVAID_ALLOWED_ORIGINS"); ok {
		c.Server.AllowedOrigins = splitList(v)
	}
	return nil
}

// splitList parses a comma-separated list, dropping blanks.
func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func (c Config) Validate() error {
	var errs []error
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		errs = append(errs, fmt.Errorf("server.port must be between 1 and 65535, got %d", c.Server.Port))
	}
	if c.Database.Path == "" {
		errs = append(errs, errors.New("database.path is required"))
	}
	if c.Snapshot.Dir == "" {
		errs = append(errs, errors.New("snapshot.dir is required"))
	}
	if u, err := url.Parse(c.Client.BaseURL); err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		errs = append(errs, fmt.Errorf("client.baseUrl must be an http(s) URL, got %q", c.Client.BaseURL))
	}
	if c.Client.Timeout <= 0 {
		errs = append(errs, errors.New("client.timeout must be positive"))
	}
	if _, err := parseLevel(c.LogLevel); err != nil {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}

// Level returns the slog level named by LogLevel, or info if it is invalid.
func (c Config) Level() slog.Level {
	level, err := parseLevel(c.LogLevel)
	if err != nil {
		return slog.LevelInfo
	}
	return level
}

func parseLevel(s string) (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(s)); err != nil {
		return 0, fmt.Errorf("logLevel must be debug, info, warn or error, got %q", s)
	}
	return level, nil
}
