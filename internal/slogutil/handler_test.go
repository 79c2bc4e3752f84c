package slogutil

import (
	"bytes"
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTextHandler_Format(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogger(&buf, slog.LevelInfo)

	logger.Info("Import index rebuilt", "files", 42, "path", "src/a.ts")

	output := buf.String()
	assert.Contains(t, output, "[info]")
	assert.Contains(t, output, "Import index rebuilt")
	assert.Contains(t, output, " | ")
	assert.Contains(t, output, "files=42")
	assert.Contains(t, output, "path=src/a.ts")
	assert.True(t, strings.HasSuffix(output, "\n"))
	assert.Equal(t, 1, strings.Count(output, "\n"))
}

func TestTextHandler_GroupsAndErrors(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogger(&buf, slog.LevelDebug).WithGroup("skim")

	logger.Debug("window read",
		"err", errors.New("short read"),
		slog.Group("range", "start", 10, "end", 20),
	)

	output := buf.String()
	assert.Contains(t, output, "skim.err=short read")
	assert.Contains(t, output, "skim.range.start=10")
	assert.Contains(t, output, "skim.range.end=20")
}

func TestTextHandler_WithAttrs(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogger(&buf, slog.LevelInfo).With("component", "watcher")

	logger.Info("flush", "paths", 3)
	assert.Contains(t, buf.String(), "component=watcher paths=3")
}

func TestTextHandler_Levels(t *testing.T) {
	tests := []struct {
		logFunc  func(*slog.Logger)
		expected string
	}{
		{func(l *slog.Logger) { l.Debug("debug") }, "[debug]"},
		{func(l *slog.Logger) { l.Info("info") }, "[info]"},
		{func(l *slog.Logger) { l.Warn("warn") }, "[warn]"},
		{func(l *slog.Logger) { l.Error("error") }, "[error]"},
	}

	for _, tt := range tests {
		t.Run(tt.expected, func(t *testing.T) {
			var buf bytes.Buffer
			tt.logFunc(NewLogger(&buf, slog.LevelDebug))
			assert.Contains(t, buf.String(), tt.expected)
		})
	}
}

func TestTextHandler_LevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogger(&buf, slog.LevelWarn)

	logger.Debug("debug message")
	logger.Info("info message")
	logger.Warn("warn message")
	logger.Error("error message")

	output := buf.String()
	assert.NotContains(t, output, "debug message")
	assert.NotContains(t, output, "info message")
	assert.Contains(t, output, "warn message")
	assert.Contains(t, output, "error message")
}

func TestNew_JSON(t *testing.T) {
	var buf bytes.Buffer
	New(&buf, "json", slog.LevelInfo).Info("hello", "k", "v")
	assert.Contains(t, buf.String(), `"msg":"hello"`)
	assert.Contains(t, buf.String(), `"k":"v"`)
}

func TestLevelFromString(t *testing.T) {
	tests := []struct {
		input    string
		expected slog.Level
	}{
		{"debug", slog.LevelDebug},
		{"DEBUG", slog.LevelDebug},
		{"info", slog.LevelInfo},
		{"warn", slog.LevelWarn},
		{"warning", slog.LevelWarn},
		{"ERROR", slog.LevelError},
		{"unknown", slog.LevelInfo},
		{"", slog.LevelInfo},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			assert.Equal(t, tt.expected, LevelFromString(tt.input))
		})
	}
}

func TestLevelFromVerbosity(t *testing.T) {
	assert.Equal(t, slog.LevelWarn, LevelFromVerbosity(0, false))
	assert.Equal(t, slog.LevelInfo, LevelFromVerbosity(1, false))
	assert.Equal(t, slog.LevelDebug, LevelFromVerbosity(3, false))
	assert.Equal(t, Silent, LevelFromVerbosity(5, true))
}

func TestOrDiscard(t *testing.T) {
	assert.NotNil(t, OrDiscard(nil))
	logger := NewDiscardLogger()
	assert.Same(t, logger, OrDiscard(logger))
}

func TestTeeHandler(t *testing.T) {
	var buf1, buf2 bytes.Buffer
	h1 := NewTextHandler(&buf1, &slog.HandlerOptions{Level: slog.LevelInfo})
	h2 := NewTextHandler(&buf2, &slog.HandlerOptions{Level: slog.LevelWarn})

	logger := slog.New(NewTeeHandler(h1, h2))
	logger.Info("info message")
	logger.Warn("warn message")

	assert.Contains(t, buf1.String(), "info message")
	assert.Contains(t, buf1.String(), "warn message")
	assert.NotContains(t, buf2.String(), "info message")
	assert.Contains(t, buf2.String(), "warn message")
}

func TestNewFileLogger_Appends(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "codegraph.log")

	logger, f, err := NewFileLogger(path, "human", slog.LevelInfo)
	require.NoError(t, err)
	logger.Info("first")
	logger.Debug("hidden")
	require.NoError(t, f.Close())

	logger, f, err = NewFileLogger(path, "json", slog.LevelInfo)
	require.NoError(t, err)
	logger.Info("second")
	require.NoError(t, f.Close())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "first")
	assert.Contains(t, string(data), `"msg":"second"`)
	assert.NotContains(t, string(data), "hidden")
}
