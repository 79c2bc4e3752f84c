package skim

import (
	"bytes"
	"io"
	"strings"
)

type block struct {
	start int64
	end   int64
	text  string
}

type ctxLine struct {
	text   string
	offset int64
	end    int64
}

type openMatch struct {
	first     int
	count     int
	lines     []ctxLine
	remaining int
}

// lineScanner walks a reader line by line in fixed windows, recording term hits with
// surrounding context. Line numbers are exact because scanning always starts at byte 0.
type lineScanner struct {
	terms      []string
	lowered    []string
	chunkSize  int64
	maxWindows int
	maxMatches int

	matches []PatternMatch
	blocks  []block

	prev    []ctxLine
	open    []*openMatch
	lineNo  int
	offset  int64
	limited bool
}

func (s *Skimmer) newScanner(terms []string, maxWindows int) *lineScanner {
	lowered := make([]string, len(terms))
	for i, t := range terms {
		lowered[i] = strings.ToLower(t)
	}
	chunk := s.config.ChunkSize
	if chunk <= 0 {
		chunk = 64 * 1024
	}
	return &lineScanner{
		terms:      terms,
		lowered:    lowered,
		chunkSize:  chunk,
		maxWindows: maxWindows,
		maxMatches: s.config.MaxPatternMatches,
	}
}

// scan consumes r. When maxWindows is positive, at most maxWindows*chunkSize bytes are read.
func (ls *lineScanner) scan(r io.Reader) {
	buf := make([]byte, ls.chunkSize)
	var carry []byte
	windows := 0

	for ls.maxWindows <= 0 || windows < ls.maxWindows {
		n, err := io.ReadFull(r, buf)
		if n > 0 {
			windows++
			data := append(carry, buf[:n]...)
			for {
				idx := bytes.IndexByte(data, '\n')
				if idx < 0 {
					break
				}
				ls.line(data[:idx], int64(idx+1))
				data = data[idx+1:]
			}
			carry = append([]byte(nil), data...)
		}
		if err != nil {
			break
		}
	}

	if len(carry) > 0 {
		ls.line(carry, int64(len(carry)))
	}
	for _, m := range ls.open {
		ls.finish(m)
	}
	ls.open = nil
}

// line processes one line whose raw length (including the newline) is consumed.
func (ls *lineScanner) line(raw []byte, consumed int64) {
	ls.lineNo++
	text := strings.TrimSuffix(string(raw), "\r")
	cur := ctxLine{text: text, offset: ls.offset, end: ls.offset + consumed}
	ls.offset += consumed

	still := ls.open[:0]
	for _, m := range ls.open {
		m.lines = append(m.lines, cur)
		m.remaining--
		if m.remaining == 0 {
			ls.finish(m)
			continue
		}
		still = append(still, m)
	}
	ls.open = still

	if !ls.limited {
		lower := strings.ToLower(text)
		var hit *openMatch
		for i, term := range ls.lowered {
			if !strings.Contains(lower, term) {
				continue
			}
			if ls.maxMatches > 0 && len(ls.matches) >= ls.maxMatches {
				ls.limited = true
				break
			}
			if hit == nil {
				lines := make([]ctxLine, 0, 2*contextLines+1)
				lines = append(lines, ls.prev...)
				lines = append(lines, cur)
				hit = &openMatch{first: len(ls.matches), lines: lines, remaining: contextLines}
			}
			hit.count++
			ls.matches = append(ls.matches, PatternMatch{
				Term:   ls.terms[i],
				Line:   ls.lineNo,
				Offset: cur.offset,
			})
		}
		if hit != nil {
			ls.open = append(ls.open, hit)
		}
	}

	ls.prev = append(ls.prev, cur)
	if len(ls.prev) > contextLines {
		ls.prev = ls.prev[len(ls.prev)-contextLines:]
	}
}

func (ls *lineScanner) finish(m *openMatch) {
	texts := make([]string, len(m.lines))
	for i, l := range m.lines {
		texts[i] = l.text
	}
	context := strings.Join(texts, "\n")
	for i := m.first; i < m.first+m.count; i++ {
		ls.matches[i].Context = context
	}
	ls.blocks = append(ls.blocks, block{
		start: m.lines[0].offset,
		end:   m.lines[len(m.lines)-1].end,
		text:  context,
	})
}
