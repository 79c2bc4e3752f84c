// Package sizeguard enforces per-file and cumulative byte ceilings on raw file reads.
package sizeguard

import (
	"fmt"
	"log/slog"
	"os"
	"sync"

	"github.com/dustin/go-humanize"

	cgerrors "codegraph/internal/errors"
	"codegraph/internal/slogutil"
)

// Config contains guard ceilings
type Config struct {
	// MaxFileSize is the largest single file that may be read
	MaxFileSize int64

	// MaxTotalSize caps the bytes read across calls until Reset
	MaxTotalSize int64

	// SkipLargeFiles reports violations as skips; when false they are returned as errors
	SkipLargeFiles bool
}

// Result is the outcome of a guarded read.
type Result struct {
	Content string `json:"content"`
	Skipped bool   `json:"skipped"`
	Reason  string `json:"reason,omitempty"`
	Size    int64  `json:"size"`

	// Code names the fault behind a skip
	Code cgerrors.ErrorCode `json:"code,omitempty"`
}

// Guard reads whole files while tracking a cumulative byte budget.
type Guard struct {
	config Config
	logger *slog.Logger

	mu    sync.Mutex
	total int64
}

// New creates a guard.
func New(config Config, logger *slog.Logger) *Guard {
	return &Guard{
		config: config,
		logger: slogutil.OrDiscard(logger),
	}
}

// Read returns the full content of path, or a skip when a ceiling would be crossed.
// A file is never partially read. Errors are returned only for ceiling violations when
// SkipLargeFiles is false; IO failures are always reported as skips.
func (g *Guard) Read(path string) (Result, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	info, err := os.Stat(path)
	if err != nil {
		return g.unreadable(path, err), nil
	}
	size := info.Size()

	if code, reason := g.check(size); code != "" {
		if !g.config.SkipLargeFiles {
			return Result{Size: size, Code: code}, cgerrors.New(code, reason, nil).
				WithDetails(map[string]interface{}{"path": path, "size": size})
		}
		g.logger.Debug("Skipping file read", "path", path, "reason", reason)
		return Result{Skipped: true, Reason: reason, Size: size, Code: code}, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return g.unreadable(path, err), nil
	}

	g.total += int64(len(data))
	return Result{Content: string(data), Size: int64(len(data))}, nil
}

// WouldExceedLimits performs the ceiling checks for path without reading it.
func (g *Guard) WouldExceedLimits(path string) (bool, string) {
	info, err := os.Stat(path)
	if err != nil {
		return true, "unreadable: " + err.Error()
	}

	g.mu.Lock()
	defer g.mu.Unlock()

	code, reason := g.check(info.Size())
	return code != "", reason
}

// Reset zeroes the cumulative counter. Call once per logical operation.
func (g *Guard) Reset() {
	g.mu.Lock()
	g.total = 0
	g.mu.Unlock()
}

// TotalRead returns the bytes read since the last Reset.
func (g *Guard) TotalRead() int64 {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.total
}

// check must be called with mu held.
func (g *Guard) check(size int64) (cgerrors.ErrorCode, string) {
	if g.config.MaxFileSize > 0 && size > g.config.MaxFileSize {
		return cgerrors.FileTooLarge, fmt.Sprintf("file size %s exceeds limit of %s",
			humanize.IBytes(uint64(size)), humanize.IBytes(uint64(g.config.MaxFileSize)))
	}
	if g.config.MaxTotalSize > 0 && g.total+size > g.config.MaxTotalSize {
		return cgerrors.TotalSizeExceeded, fmt.Sprintf("reading %s would exceed total limit of %s (%s already read)",
			humanize.IBytes(uint64(size)), humanize.IBytes(uint64(g.config.MaxTotalSize)), humanize.IBytes(uint64(g.total)))
	}
	return "", ""
}

func (g *Guard) unreadable(path string, err error) Result {
	g.logger.Debug("Unreadable file", "path", path, "error", err)
	return Result{Skipped: true, Reason: "unreadable: " + err.Error(), Code: cgerrors.UnreadableFile}
}
