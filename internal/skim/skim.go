// Package skim reads source files adaptively: small files whole, large files as a
// deterministic reduced representation (header, footer and either pattern hits or evenly
// sampled middle windows).
package skim

import (
	"bytes"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"codegraph/internal/slogutil"
)

// ChunkKind classifies a byte range included in skimmed content
type ChunkKind string

const (
	ChunkHeader  ChunkKind = "header"
	ChunkFooter  ChunkKind = "footer"
	ChunkMiddle  ChunkKind = "middle"
	ChunkPattern ChunkKind = "pattern"
)

// contextLines is the number of lines captured before and after a pattern hit
const contextLines = 2

// Chunk records one byte range [Start, End) of the original file
type Chunk struct {
	Start int64     `json:"start"`
	End   int64     `json:"end"`
	Kind  ChunkKind `json:"kind"`
}

// PatternMatch is one search-term hit
type PatternMatch struct {
	Term    string `json:"term"`
	Line    int    `json:"line"`
	Offset  int64  `json:"offset"`
	Context string `json:"context"`
}

// SkimmedContent is the result of an adaptive read
type SkimmedContent struct {
	Content      string         `json:"content"`
	Skimmed      bool           `json:"skimmed"`
	OriginalSize int64          `json:"originalSize"`
	ActualSize   int64          `json:"actualSize"`
	Chunks       []Chunk        `json:"chunks,omitempty"`
	Patterns     []PatternMatch `json:"patterns,omitempty"`
}

// Config contains skimming thresholds, all sizes in bytes
type Config struct {
	// Threshold is the size at and above which files are skimmed
	Threshold int64

	HeaderSize int64
	FooterSize int64

	// ChunkSize is the window used for the sequential pattern scan
	ChunkSize int64

	// SampleSize is the window used for middle sampling
	SampleSize int64

	// MaxChunks bounds pattern-scan windows; middle sampling uses MaxChunks-2 windows
	MaxChunks int

	// MaxPatternMatches bounds recorded hits per file (0 = unbounded)
	MaxPatternMatches int
}

// Skimmer performs adaptive reads.
type Skimmer struct {
	config Config
	logger *slog.Logger
}

// New creates a skimmer.
func New(config Config, logger *slog.Logger) *Skimmer {
	return &Skimmer{
		config: config,
		logger: slogutil.OrDiscard(logger),
	}
}

// Config returns the skimmer configuration.
func (s *Skimmer) Config() Config {
	return s.config
}

// Read reads path, skimming it when it is at or above the threshold. Search terms are
// matched case-insensitively per line. An unreadable file yields a zero SkimmedContent.
func (s *Skimmer) Read(path string, searchTerms ...string) SkimmedContent {
	f, err := os.Open(path)
	if err != nil {
		s.logger.Debug("Skim open failed", "path", path, "error", err)
		return SkimmedContent{}
	}
	defer func() { _ = f.Close() }()

	info, err := f.Stat()
	if err != nil || info.IsDir() {
		return SkimmedContent{}
	}
	size := info.Size()
	terms := normalizeTerms(searchTerms)

	if size < s.config.Threshold {
		data, err := io.ReadAll(f)
		if err != nil {
			s.logger.Debug("Skim read failed", "path", path, "error", err)
			return SkimmedContent{}
		}
		result := SkimmedContent{
			Content:      string(data),
			OriginalSize: size,
			ActualSize:   int64(len(data)),
		}
		if len(terms) > 0 {
			sc := s.newScanner(terms, 0)
			sc.scan(bytes.NewReader(data))
			result.Patterns = sc.matches
		}
		return result
	}

	result, err := s.skim(f, size, terms)
	if err != nil {
		s.logger.Debug("Skim failed", "path", path, "error", err)
		return SkimmedContent{}
	}
	s.logger.Debug("Skimmed large file",
		"path", path,
		"originalSize", result.OriginalSize,
		"actualSize", result.ActualSize,
		"chunks", len(result.Chunks),
		"patterns", len(result.Patterns),
	)
	return result
}

type section struct {
	chunk Chunk
	text  string
}

func (s *Skimmer) skim(f *os.File, size int64, terms []string) (SkimmedContent, error) {
	headerLen := min(s.config.HeaderSize, size)
	footerLen := min(s.config.FooterSize, size-headerLen)
	footerStart := size - footerLen

	header, err := readRange(f, 0, headerLen)
	if err != nil {
		return SkimmedContent{}, err
	}
	sections := []section{{chunk: Chunk{Start: 0, End: headerLen, Kind: ChunkHeader}, text: header}}

	var patterns []PatternMatch
	if len(terms) > 0 {
		sc := s.newScanner(terms, s.config.MaxChunks)
		sc.scan(io.NewSectionReader(f, 0, size))
		patterns = sc.matches
		for _, b := range sc.blocks {
			sections = append(sections, section{chunk: Chunk{Start: b.start, End: b.end, Kind: ChunkPattern}, text: b.text})
		}
	} else {
		for _, w := range middleWindows(headerLen, footerStart, s.config.SampleSize, s.config.MaxChunks-2) {
			text, err := readRange(f, w.Start, w.End-w.Start)
			if err != nil {
				return SkimmedContent{}, err
			}
			sections = append(sections, section{chunk: w, text: text})
		}
	}

	if footerLen > 0 {
		footer, err := readRange(f, footerStart, footerLen)
		if err != nil {
			return SkimmedContent{}, err
		}
		sections = append(sections, section{chunk: Chunk{Start: footerStart, End: size, Kind: ChunkFooter}, text: footer})
	}

	var b strings.Builder
	chunks := make([]Chunk, 0, len(sections))
	var prevEnd int64
	for i, sec := range sections {
		if i > 0 {
			b.WriteString(elisionMarker(sec.chunk.Start - prevEnd))
		}
		b.WriteString(sec.text)
		chunks = append(chunks, sec.chunk)
		prevEnd = max(prevEnd, sec.chunk.End)
	}

	content := b.String()
	return SkimmedContent{
		Content:      content,
		Skimmed:      true,
		OriginalSize: size,
		ActualSize:   int64(len(content)),
		Chunks:       chunks,
		Patterns:     patterns,
	}, nil
}

// elisionMarker separates sections in composed text. It is written as a block comment so
// line-based extractors treat it as noise.
func elisionMarker(skipped int64) string {
	if skipped < 0 {
		skipped = 0
	}
	return fmt.Sprintf("\n/* ... [%d bytes skipped] ... */\n", skipped)
}

// middleWindows returns up to n evenly spaced windows of at most sampleSize bytes inside
// [from, to), each centered in its stride.
func middleWindows(from, to, sampleSize int64, n int) []Chunk {
	region := to - from
	if n <= 0 || region <= 0 || sampleSize <= 0 {
		return nil
	}
	if int64(n) > region {
		n = int(region)
	}
	stride := region / int64(n)
	window := min(sampleSize, stride)

	windows := make([]Chunk, 0, n)
	for i := 0; i < n; i++ {
		start := from + stride*int64(i) + (stride-window)/2
		windows = append(windows, Chunk{Start: start, End: start + window, Kind: ChunkMiddle})
	}
	return windows
}

func readRange(r io.ReaderAt, offset, length int64) (string, error) {
	if length <= 0 {
		return "", nil
	}
	buf := make([]byte, length)
	n, err := r.ReadAt(buf, offset)
	if err != nil && err != io.EOF {
		return "", err
	}
	return string(buf[:n]), nil
}

func normalizeTerms(terms []string) []string {
	seen := make(map[string]bool, len(terms))
	out := make([]string, 0, len(terms))
	for _, t := range terms {
		t = strings.TrimSpace(t)
		if t == "" || seen[strings.ToLower(t)] {
			continue
		}
		seen[strings.ToLower(t)] = true
		out = append(out, t)
	}
	return out
}
