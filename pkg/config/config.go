// Package config loads lambda interpreter settings from YAML files.
package config

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	// ProjectFile is looked up in the working directory.
	ProjectFile = ".lambda.yaml"
	// UserDir and UserFile locate the per-user config under $HOME.
	UserDir  = ".lambda"
	UserFile = "config.yaml"
)

// Config holds interpreter and CLI settings.
type Config struct {
	MaxDepth     int    `yaml:"max_depth"`
	TimeoutMs    int64  `yaml:"timeout_ms"`
	ShortCircuit bool   `yaml:"short_circuit"`
	LogLevel     string `yaml:"log_level"`
	Prompt       string `yaml:"prompt"`
	HistoryFile  string `yaml:"history_file"`
	Pretty       bool   `yaml:"pretty"`

	// Path is the file the settings were read from; empty for defaults.
	Path string `yaml:"-"`
}

// Default returns the built-in settings.
func Default() *Config {
	return &Config{
		MaxDepth: 10000,
		LogLevel: "warn",
		Prompt:   "lambda> ",
		Pretty:   true,
	}
}

// ValidationError lists every problem found in a config file.
type ValidationError struct {
	Path   string
	Issues []string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("config: %s: %s", e.Path, strings.Join(e.Issues, "; "))
}

// Load resolves settings with precedence: explicit path, then
// ./.lambda.yaml in projectDir, then ~/.lambda/config.yaml, then defaults.
// A missing explicit file is an error; missing lookup files are skipped.
func Load(explicitPath, projectDir string) (*Config, error) {
	if explicitPath != "" {
		return LoadFile(explicitPath)
	}

	candidates := []string{filepath.Join(projectDir, ProjectFile)}
	if home, err := os.UserHomeDir(); err == nil {
		candidates = append(candidates, filepath.Join(home, UserDir, UserFile))
	}
	for _, path := range candidates {
		cfg, err := LoadFile(path)
		if err == nil {
			return cfg, nil
		}
		if !errors.Is(err, fs.ErrNotExist) {
			return nil, err
		}
	}
	return Default(), nil
}

// LoadFile reads one YAML file over the defaults. Unknown keys are rejected.
func LoadFile(path string) (*Config, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("config: open %s: %w", path, err)
	}
	defer file.Close()

	cfg := Default()
	decoder := yaml.NewDecoder(file)
	decoder.KnownFields(true)
	if err := decoder.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("config: parse %s: %w", path, err)
	}
	cfg.Path = path
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks value ranges.
func (c *Config) Validate() error {
	var errs ValidationError
	if c.MaxDepth <= 0 {
		errs.Issues = append(errs.Issues, "max_depth must be positive")
	}
	if c.TimeoutMs < 0 {
		errs.Issues = append(errs.Issues, "timeout_ms must not be negative")
	}
	if _, err := ParseLevel(c.LogLevel); err != nil {
		errs.Issues = append(errs.Issues, err.Error())
	}
	if len(errs.Issues) == 0 {
		return nil
	}
	errs.Path = c.Path
	if errs.Path == "" {
		errs.Path = "<defaults>"
	}
	return &errs
}

// Timeout converts TimeoutMs; zero means no limit.
func (c *Config) Timeout() time.Duration {
	return time.Duration(c.TimeoutMs) * time.Millisecond
}

// HistoryPath returns the REPL history file with a leading ~ expanded. An
// empty setting selects ~/.lambda/history.
func (c *Config) HistoryPath() string {
	home, _ := os.UserHomeDir()
	switch {
	case c.HistoryFile == "":
		if home == "" {
			return ""
		}
		return filepath.Join(home, UserDir, "history")
	case strings.HasPrefix(c.HistoryFile, "~/") && home != "":
		return filepath.Join(home, c.HistoryFile[2:])
	}
	return c.HistoryFile
}

// ParseLevel maps a level name to a slog level.
func ParseLevel(name string) (slog.Level, error) {
	switch strings.ToLower(name) {
	case "debug":
		return slog.LevelDebug, nil
	case "info":
		return slog.LevelInfo, nil
	case "warn", "warning", "":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	}
	return 0, fmt.Errorf("unknown log level %q", name)
}
