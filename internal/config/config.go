package config

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"

	cgerrors "codegraph/internal/errors"
)

// CurrentVersion is the config schema version understood by this build
const CurrentVersion = 1

// Config represents the complete codegraph configuration
type Config struct {
	Version       int    `json:"version" mapstructure:"version"`
	WorkspaceRoot string `json:"workspaceRoot" mapstructure:"workspaceRoot"`

	SizeGuard SizeGuardConfig `json:"sizeGuard" mapstructure:"sizeGuard"`
	Skim      SkimConfig      `json:"skim" mapstructure:"skim"`
	Walk      WalkConfig      `json:"walk" mapstructure:"walk"`
	Cache     CacheConfig     `json:"cache" mapstructure:"cache"`
	Watcher   WatcherConfig   `json:"watcher" mapstructure:"watcher"`
	Analysis  AnalysisConfig  `json:"analysis" mapstructure:"analysis"`
	Storage   StorageConfig   `json:"storage" mapstructure:"storage"`
	Logging   LoggingConfig   `json:"logging" mapstructure:"logging"`
}

// SizeGuardConfig contains raw-read byte ceilings
type SizeGuardConfig struct {
	MaxFileSizeBytes  int64 `json:"maxFileSizeBytes" mapstructure:"maxFileSizeBytes"`
	MaxTotalSizeBytes int64 `json:"maxTotalSizeBytes" mapstructure:"maxTotalSizeBytes"`
	SkipLargeFiles    bool  `json:"skipLargeFiles" mapstructure:"skipLargeFiles"`
}

// SkimConfig contains adaptive reader settings
type SkimConfig struct {
	ThresholdBytes    int64 `json:"thresholdBytes" mapstructure:"thresholdBytes"`
	HeaderSize        int64 `json:"headerSize" mapstructure:"headerSize"`
	FooterSize        int64 `json:"footerSize" mapstructure:"footerSize"`
	ChunkSize         int64 `json:"chunkSize" mapstructure:"chunkSize"`
	SampleSize        int64 `json:"sampleSize" mapstructure:"sampleSize"`
	MaxChunks         int   `json:"maxChunks" mapstructure:"maxChunks"`
	MaxPatternMatches int   `json:"maxPatternMatches" mapstructure:"maxPatternMatches"`
}

// WalkConfig contains project file listing settings
type WalkConfig struct {
	MaxFiles   int      `json:"maxFiles" mapstructure:"maxFiles"`
	Extensions []string `json:"extensions" mapstructure:"extensions"`
	IgnoreDirs []string `json:"ignoreDirs" mapstructure:"ignoreDirs"`
}

// CacheConfig contains source cache settings
type CacheConfig struct {
	MaxEntries int `json:"maxEntries" mapstructure:"maxEntries"`
}

// WatcherConfig contains filesystem watch settings
type WatcherConfig struct {
	Enabled        bool     `json:"enabled" mapstructure:"enabled"`
	DebounceMs     int      `json:"debounceMs" mapstructure:"debounceMs"`
	IgnorePatterns []string `json:"ignorePatterns" mapstructure:"ignorePatterns"`
}

// AnalysisConfig contains traversal bounds
type AnalysisConfig struct {
	DefaultTreeDepth int `json:"defaultTreeDepth" mapstructure:"defaultTreeDepth"`
	DefaultPathDepth int `json:"defaultPathDepth" mapstructure:"defaultPathDepth"`
	MaxCallDepth     int `json:"maxCallDepth" mapstructure:"maxCallDepth"`
}

// StorageConfig contains result store settings
type StorageConfig struct {
	Enabled  bool   `json:"enabled" mapstructure:"enabled"`
	Path     string `json:"path" mapstructure:"path"`
	Compress bool   `json:"compress" mapstructure:"compress"`
}

// LoggingConfig contains logging configuration
type LoggingConfig struct {
	Format string `json:"format" mapstructure:"format"`
	Level  string `json:"level" mapstructure:"level"`
}

// DefaultExtensions are the recognized source extensions, in resolution order
var DefaultExtensions = []string{".ts", ".tsx", ".js", ".jsx", ".mjs", ".cjs"}

// DefaultIgnoreDirs are directory names never walked or watched
var DefaultIgnoreDirs = []string{
	"node_modules", ".git", "dist", "build", "out", "coverage",
	".next", ".nuxt", ".cache", "vendor", ".codegraph",
}

// DefaultConfig returns the default configuration
func DefaultConfig() *Config {
	return &Config{
		Version:       CurrentVersion,
		WorkspaceRoot: ".",
		SizeGuard: SizeGuardConfig{
			MaxFileSizeBytes:  10 * 1024 * 1024,
			MaxTotalSizeBytes: 200 * 1024 * 1024,
			SkipLargeFiles:    true,
		},
		Skim: SkimConfig{
			ThresholdBytes:    1024 * 1024,
			HeaderSize:        32 * 1024,
			FooterSize:        16 * 1024,
			ChunkSize:         256 * 1024,
			SampleSize:        4 * 1024,
			MaxChunks:         12,
			MaxPatternMatches: 200,
		},
		Walk: WalkConfig{
			MaxFiles:   10000,
			Extensions: append([]string(nil), DefaultExtensions...),
			IgnoreDirs: append([]string(nil), DefaultIgnoreDirs...),
		},
		Cache: CacheConfig{
			MaxEntries: 5000,
		},
		Watcher: WatcherConfig{
			Enabled:    true,
			DebounceMs: 300,
			IgnorePatterns: []string{
				"*.log",
				"*.tmp",
				"*.d.ts",
				"**/*.min.js",
			},
		},
		Analysis: AnalysisConfig{
			DefaultTreeDepth: 5,
			DefaultPathDepth: 10,
			MaxCallDepth:     50,
		},
		Storage: StorageConfig{
			Enabled:  false,
			Path:     ".codegraph/results.db",
			Compress: true,
		},
		Logging: LoggingConfig{
			Format: "human",
			Level:  "info",
		},
	}
}

// LoadConfig loads configuration from <workspaceRoot>/.codegraph/config.{json,yaml,toml}.
// Values missing from the file keep their defaults; CODEGRAPH_* environment variables win.
func LoadConfig(workspaceRoot string) (*Config, error) {
	v := viper.New()
	setDefaults(v, DefaultConfig())

	v.SetConfigName("config")
	v.AddConfigPath(filepath.Join(workspaceRoot, ".codegraph"))
	v.SetEnvPrefix("CODEGRAPH")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, cgerrors.New(cgerrors.InvalidConfig, "failed to read config", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, cgerrors.New(cgerrors.InvalidConfig, "failed to decode config", err)
	}

	if cfg.WorkspaceRoot == "" || cfg.WorkspaceRoot == "." {
		cfg.WorkspaceRoot = workspaceRoot
	}
	if abs, err := filepath.Abs(cfg.WorkspaceRoot); err == nil {
		cfg.WorkspaceRoot = abs
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// setDefaults registers every default with viper so partial files and env overrides merge.
func setDefaults(v *viper.Viper, d *Config) {
	v.SetDefault("version", d.Version)
	v.SetDefault("workspaceRoot", d.WorkspaceRoot)

	v.SetDefault("sizeGuard.maxFileSizeBytes", d.SizeGuard.MaxFileSizeBytes)
	v.SetDefault("sizeGuard.maxTotalSizeBytes", d.SizeGuard.MaxTotalSizeBytes)
	v.SetDefault("sizeGuard.skipLargeFiles", d.SizeGuard.SkipLargeFiles)

	v.SetDefault("skim.thresholdBytes", d.Skim.ThresholdBytes)
	v.SetDefault("skim.headerSize", d.Skim.HeaderSize)
	v.SetDefault("skim.footerSize", d.Skim.FooterSize)
	v.SetDefault("skim.chunkSize", d.Skim.ChunkSize)
	v.SetDefault("skim.sampleSize", d.Skim.SampleSize)
	v.SetDefault("skim.maxChunks", d.Skim.MaxChunks)
	v.SetDefault("skim.maxPatternMatches", d.Skim.MaxPatternMatches)

	v.SetDefault("walk.maxFiles", d.Walk.MaxFiles)
	v.SetDefault("walk.extensions", d.Walk.Extensions)
	v.SetDefault("walk.ignoreDirs", d.Walk.IgnoreDirs)

	v.SetDefault("cache.maxEntries", d.Cache.MaxEntries)

	v.SetDefault("watcher.enabled", d.Watcher.Enabled)
	v.SetDefault("watcher.debounceMs", d.Watcher.DebounceMs)
	v.SetDefault("watcher.ignorePatterns", d.Watcher.IgnorePatterns)

	v.SetDefault("analysis.defaultTreeDepth", d.Analysis.DefaultTreeDepth)
	v.SetDefault("analysis.defaultPathDepth", d.Analysis.DefaultPathDepth)
	v.SetDefault("analysis.maxCallDepth", d.Analysis.MaxCallDepth)

	v.SetDefault("storage.enabled", d.Storage.Enabled)
	v.SetDefault("storage.path", d.Storage.Path)
	v.SetDefault("storage.compress", d.Storage.Compress)

	v.SetDefault("logging.format", d.Logging.Format)
	v.SetDefault("logging.level", d.Logging.Level)
}

// Save writes the configuration to <workspaceRoot>/.codegraph/config.json
func (c *Config) Save(workspaceRoot string) error {
	dir := filepath.Join(workspaceRoot, ".codegraph")
	if err := os.MkdirAll(dir, 0755); err != nil {
		return err
	}

	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return err
	}

	return os.WriteFile(filepath.Join(dir, "config.json"), data, 0644)
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	switch {
	case c.Version != CurrentVersion:
		return invalid("version", "unsupported config version")
	case c.SizeGuard.MaxFileSizeBytes <= 0:
		return invalid("sizeGuard.maxFileSizeBytes", "must be positive")
	case c.SizeGuard.MaxTotalSizeBytes < c.SizeGuard.MaxFileSizeBytes:
		return invalid("sizeGuard.maxTotalSizeBytes", "must be at least maxFileSizeBytes")
	case c.Skim.ThresholdBytes <= 0:
		return invalid("skim.thresholdBytes", "must be positive")
	case c.Skim.HeaderSize <= 0 || c.Skim.FooterSize < 0:
		return invalid("skim.headerSize", "header must be positive and footer non-negative")
	case c.Skim.ChunkSize <= 0 || c.Skim.SampleSize <= 0:
		return invalid("skim.chunkSize", "chunk and sample sizes must be positive")
	case c.Skim.MaxChunks < 2:
		return invalid("skim.maxChunks", "must be at least 2 (header and footer)")
	case c.Walk.MaxFiles <= 0:
		return invalid("walk.maxFiles", "must be positive")
	case len(c.Walk.Extensions) == 0:
		return invalid("walk.extensions", "at least one extension is required")
	case c.Cache.MaxEntries <= 0:
		return invalid("cache.maxEntries", "must be positive")
	case c.Watcher.DebounceMs <= 0:
		return invalid("watcher.debounceMs", "must be positive")
	case c.Analysis.MaxCallDepth <= 0:
		return invalid("analysis.maxCallDepth", "must be positive")
	}
	return nil
}

func invalid(field, message string) error {
	return cgerrors.New(cgerrors.InvalidConfig, "config error in field '"+field+"': "+message, nil).
		WithDetails(map[string]string{"field": field})
}
