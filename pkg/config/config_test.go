package config_test

import (
	"errors"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/thomasrohde/lambda/pkg/config"
)

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestDefault(t *testing.T) {
	cfg := config.Default()
	assert.Equal(t, 10000, cfg.MaxDepth)
	assert.False(t, cfg.ShortCircuit)
	assert.True(t, cfg.Pretty)
	assert.Equal(t, time.Duration(0), cfg.Timeout())
	assert.NoError(t, cfg.Validate())
}

func TestLoadFileOverridesDefaults(t *testing.T) {
	path := writeFile(t, t.TempDir(), "cfg.yaml", `
max_depth: 50
timeout_ms: 250
short_circuit: true
log_level: debug
pretty: false
`)
	cfg, err := config.LoadFile(path)
	require.NoError(t, err)
	assert.Equal(t, 50, cfg.MaxDepth)
	assert.Equal(t, 250*time.Millisecond, cfg.Timeout())
	assert.True(t, cfg.ShortCircuit)
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.False(t, cfg.Pretty)
	// Untouched keys keep their defaults.
	assert.Equal(t, "lambda> ", cfg.Prompt)
	assert.Equal(t, path, cfg.Path)
}

func TestLoadFileEmpty(t *testing.T) {
	path := writeFile(t, t.TempDir(), "empty.yaml", "")
	cfg, err := config.LoadFile(path)
	require.NoError(t, err)
	assert.Equal(t, config.Default().MaxDepth, cfg.MaxDepth)
}

func TestLoadFileUnknownKey(t *testing.T) {
	path := writeFile(t, t.TempDir(), "bad.yaml", "max_dept: 5\n")
	_, err := config.LoadFile(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "max_dept")
}

func TestLoadFileValidation(t *testing.T) {
	path := writeFile(t, t.TempDir(), "bad.yaml", "max_depth: 0\ntimeout_ms: -1\nlog_level: loud\n")
	_, err := config.LoadFile(path)
	var ve *config.ValidationError
	require.True(t, errors.As(err, &ve), "expected ValidationError, got %v", err)
	assert.Len(t, ve.Issues, 3)
	assert.Equal(t, path, ve.Path)
}

func TestLoadPrecedence(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)
	project := t.TempDir()

	// Nothing present: defaults.
	cfg, err := config.Load("", project)
	require.NoError(t, err)
	assert.Empty(t, cfg.Path)

	// User file only.
	userPath := writeFile(t, home, filepath.Join(config.UserDir, config.UserFile), "max_depth: 7\n")
	cfg, err = config.Load("", project)
	require.NoError(t, err)
	assert.Equal(t, 7, cfg.MaxDepth)
	assert.Equal(t, userPath, cfg.Path)

	// Project file beats user file.
	writeFile(t, project, config.ProjectFile, "max_depth: 8\n")
	cfg, err = config.Load("", project)
	require.NoError(t, err)
	assert.Equal(t, 8, cfg.MaxDepth)

	// Explicit path beats both.
	explicit := writeFile(t, t.TempDir(), "x.yaml", "max_depth: 9\n")
	cfg, err = config.Load(explicit, project)
	require.NoError(t, err)
	assert.Equal(t, 9, cfg.MaxDepth)
}

func TestLoadExplicitMissing(t *testing.T) {
	_, err := config.Load(filepath.Join(t.TempDir(), "nope.yaml"), t.TempDir())
	require.Error(t, err)
	assert.True(t, errors.Is(err, fs.ErrNotExist))
}

func TestLoadBrokenProjectFileIsReported(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	project := t.TempDir()
	writeFile(t, project, config.ProjectFile, "max_depth: [\n")
	_, err := config.Load("", project)
	require.Error(t, err)
}

func TestHistoryPath(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)

	cfg := config.Default()
	assert.Equal(t, filepath.Join(home, config.UserDir, "history"), cfg.HistoryPath())

	cfg.HistoryFile = "~/hist"
	assert.Equal(t, filepath.Join(home, "hist"), cfg.HistoryPath())

	cfg.HistoryFile = "/tmp/h"
	assert.Equal(t, "/tmp/h", cfg.HistoryPath())
}

func TestParseLevel(t *testing.T) {
	tests := map[string]slog.Level{
		"debug": slog.LevelDebug,
		"INFO":  slog.LevelInfo,
		"warn":  slog.LevelWarn,
		"":      slog.LevelWarn,
		"error": slog.LevelError,
	}
	for name, want := range tests {
		got, err := config.ParseLevel(name)
		require.NoError(t, err, name)
		assert.Equal(t, want, got, name)
	}
	_, err := config.ParseLevel("verbose")
	assert.Error(t, err)
}
