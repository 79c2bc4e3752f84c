package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	cgerrors "codegraph/internal/errors"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	assert.Equal(t, CurrentVersion, cfg.Version)
	assert.True(t, cfg.SizeGuard.SkipLargeFiles, "large files should be skipped, not fatal")
	assert.Greater(t, cfg.SizeGuard.MaxTotalSizeBytes, cfg.SizeGuard.MaxFileSizeBytes)
	assert.Less(t, cfg.Skim.ThresholdBytes, cfg.SizeGuard.MaxFileSizeBytes)
	assert.Contains(t, cfg.Walk.Extensions, ".ts")
	assert.Contains(t, cfg.Walk.IgnoreDirs, "node_modules")
	assert.Equal(t, 300, cfg.Watcher.DebounceMs)
	assert.NoError(t, cfg.Validate())
}

func TestDefaultConfig_SkimCoversTwoMegabytes(t *testing.T) {
	cfg := DefaultConfig()
	scanned := cfg.Skim.ChunkSize * int64(cfg.Skim.MaxChunks)
	assert.GreaterOrEqual(t, scanned, int64(2*1024*1024))
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		field  string
	}{
		{"bad version", func(c *Config) { c.Version = 99 }, "version"},
		{"zero file size", func(c *Config) { c.SizeGuard.MaxFileSizeBytes = 0 }, "sizeGuard.maxFileSizeBytes"},
		{"total below file", func(c *Config) { c.SizeGuard.MaxTotalSizeBytes = 1 }, "sizeGuard.maxTotalSizeBytes"},
		{"one chunk", func(c *Config) { c.Skim.MaxChunks = 1 }, "skim.maxChunks"},
		{"no extensions", func(c *Config) { c.Walk.Extensions = nil }, "walk.extensions"},
		{"zero debounce", func(c *Config) { c.Watcher.DebounceMs = 0 }, "watcher.debounceMs"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(cfg)

			err := cfg.Validate()
			require.Error(t, err)
			assert.True(t, cgerrors.HasCode(err, cgerrors.InvalidConfig))
			assert.Contains(t, err.Error(), tt.field)
		})
	}
}

func TestLoadConfig_Defaults(t *testing.T) {
	root := t.TempDir()

	cfg, err := LoadConfig(root)
	require.NoError(t, err)

	abs, _ := filepath.Abs(root)
	assert.Equal(t, abs, cfg.WorkspaceRoot)
	assert.Equal(t, DefaultConfig().Skim, cfg.Skim)
}

func TestLoadConfig_PartialFile(t *testing.T) {
	root := t.TempDir()
	dir := filepath.Join(root, ".codegraph")
	require.NoError(t, os.MkdirAll(dir, 0755))

	yaml := "version: 1\nwatcher:\n  debounceMs: 50\nwalk:\n  maxFiles: 12\n"
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(yaml), 0644))

	cfg, err := LoadConfig(root)
	require.NoError(t, err)

	assert.Equal(t, 50, cfg.Watcher.DebounceMs)
	assert.Equal(t, 12, cfg.Walk.MaxFiles)
	assert.Equal(t, DefaultConfig().Skim.HeaderSize, cfg.Skim.HeaderSize)
}

func TestLoadConfig_Invalid(t *testing.T) {
	root := t.TempDir()
	dir := filepath.Join(root, ".codegraph")
	require.NoError(t, os.MkdirAll(dir, 0755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.json"), []byte(`{"version": 7}`), 0644))

	_, err := LoadConfig(root)
	require.Error(t, err)
	assert.True(t, cgerrors.HasCode(err, cgerrors.InvalidConfig))
}

func TestConfig_SaveRoundTrip(t *testing.T) {
	root := t.TempDir()
	cfg := DefaultConfig()
	cfg.Analysis.MaxCallDepth = 7
	require.NoError(t, cfg.Save(root))

	loaded, err := LoadConfig(root)
	require.NoError(t, err)
	assert.Equal(t, 7, loaded.Analysis.MaxCallDepth)
}
