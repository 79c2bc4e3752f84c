package callgraph

import (
	"regexp"
	"strings"

	"codegraph/internal/functions"
)

// ModuleCaller is the caller recorded for calls made outside every function body
const ModuleCaller = "<module>"

const (
	// signatureLookahead is how many lines after a definition may hold its opening brace
	signatureLookahead = 5

	// maxBodyLines bounds the body scan on unbalanced input
	maxBodyLines = 10000
)

var (
	callRe  = regexp.MustCompile(`([A-Za-z_$][\w$]*)\s*\(`)
	awaitRe = regexp.MustCompile(`\bawait\b`)
	declRe  = regexp.MustCompile(`\bfunction\s*\*?\s*$`)
)

// notCalls are identifiers that precede a parenthesis without being calls
var notCalls = map[string]bool{
	"if": true, "for": true, "while": true, "switch": true, "catch": true,
	"function": true, "return": true, "typeof": true, "super": true,
	"import": true, "require": true, "constructor": true, "else": true,
	"do": true, "try": true, "with": true, "new": true, "delete": true,
	"void": true, "await": true, "yield": true, "in": true, "of": true,
	"instanceof": true, "case": true, "throw": true, "async": true,
}

// stripCode blanks string literals and comments so braces and call tokens inside them
// are not counted. Block comments and template literals may span lines.
func stripCode(content string) []string {
	lines := strings.Split(content, "\n")
	out := make([]string, len(lines))

	inBlock := false
	inTemplate := false
	for i, line := range lines {
		var b strings.Builder
		var quote byte
		for j := 0; j < len(line); j++ {
			c := line[j]
			switch {
			case inBlock:
				if c == '*' && j+1 < len(line) && line[j+1] == '/' {
					inBlock = false
					j++
				}
			case inTemplate:
				if c == '\\' {
					j++
				} else if c == '`' {
					inTemplate = false
					b.WriteString("``")
				}
			case quote != 0:
				if c == '\\' {
					j++
				} else if c == quote {
					b.WriteByte(quote)
					b.WriteByte(quote)
					quote = 0
				}
			case c == '/' && j+1 < len(line) && line[j+1] == '/':
				j = len(line)
			case c == '/' && j+1 < len(line) && line[j+1] == '*':
				inBlock = true
				j++
			case c == '`':
				inTemplate = true
			case c == '"' || c == '\'':
				quote = c
			default:
				b.WriteByte(c)
			}
		}
		out[i] = b.String()
	}
	return out
}

// callsIn returns the call tokens of a stripped code fragment.
func callsIn(code string) []string {
	var names []string
	for _, m := range callRe.FindAllStringSubmatchIndex(code, -1) {
		name := code[m[2]:m[3]]
		if notCalls[name] {
			continue
		}
		if declRe.MatchString(code[:m[2]]) {
			continue
		}
		names = append(names, name)
	}
	return names
}

type span struct {
	first, last int
}

// bodyScan walks the body of fn from its definition line. It returns the call edges and
// the zero-based line span the body occupies. ok is false when no body was found.
func bodyScan(fn functions.FunctionDefinition, raw, code []string) ([]CallEdge, span, bool) {
	start := fn.Line - 1
	if start < 0 || start >= len(code) {
		return nil, span{}, false
	}

	bodyLine, bodyCol := -1, -1
	if fn.Arrow {
		for i := start; i < len(code) && i <= start+signatureLookahead; i++ {
			idx := strings.Index(code[i], "=>")
			if idx < 0 {
				continue
			}
			rest := code[i][idx+2:]
			if !strings.HasPrefix(strings.TrimSpace(rest), "{") {
				// expression body
				edges := edgesFor(fn, i, raw[i], rest)
				return edges, span{first: start, last: i}, true
			}
			bodyLine, bodyCol = i, idx+2+strings.Index(rest, "{")
			break
		}
	} else {
		bodyLine, bodyCol = signatureBrace(code, start, fn.Name)
	}
	if bodyLine < 0 {
		return nil, span{}, false
	}

	var edges []CallEdge
	depth := 0
	for i := bodyLine; i < len(code) && i < bodyLine+maxBodyLines; i++ {
		segment := code[i]
		if i == bodyLine {
			segment = segment[bodyCol:]
		}
		end := -1
		for j := 0; j < len(segment); j++ {
			switch segment[j] {
			case '{':
				depth++
			case '}':
				depth--
				if depth == 0 {
					end = j
				}
			}
			if end >= 0 {
				break
			}
		}
		if end >= 0 {
			segment = segment[:end]
		}
		edges = append(edges, edgesFor(fn, i, raw[i], segment)...)
		if end >= 0 {
			return edges, span{first: start, last: i}, true
		}
	}
	return edges, span{first: start, last: len(code) - 1}, true
}

// typeBraceAfter holds the characters after which a brace opens an object type rather
// than the body
const typeBraceAfter = ":|&,<"

// signatureBrace finds the brace that opens the body of a function declared on line
// start. Braces inside the parameter list, generic parameters or the return type
// ("Promise<{ id: string }>", "(): { ok: boolean }") are skipped as balanced groups.
func signatureBrace(code []string, start int, name string) (int, int) {
	from := 0
	if idx := strings.Index(code[start], name); idx >= 0 {
		from = idx + len(name)
	}

	params := false
	parens, angles, braces := 0, 0, 0
	var prev byte
	for i := start; i < len(code) && i <= start+signatureLookahead; i++ {
		line := code[i]
		j := 0
		if i == start {
			j = from
		}
		for ; j < len(line); j++ {
			c := line[j]
			switch {
			case braces > 0:
				if c == '{' {
					braces++
				} else if c == '}' {
					braces--
				}
			case c == '(':
				parens++
			case c == ')':
				if parens > 0 {
					parens--
				}
				if parens == 0 {
					params = true
				}
			case c == '<' && parens == 0:
				angles++
			case c == '>' && parens == 0 && prev != '=':
				if angles > 0 {
					angles--
				}
			case c == '{':
				if params && parens == 0 && angles == 0 && strings.IndexByte(typeBraceAfter, prev) < 0 {
					return i, j
				}
				braces = 1
			}
			if c != ' ' && c != '\t' {
				prev = c
			}
		}
	}
	return -1, -1
}

func edgesFor(fn functions.FunctionDefinition, idx int, rawLine, segment string) []CallEdge {
	names := callsIn(segment)
	if len(names) == 0 {
		return nil
	}
	async := awaitRe.MatchString(segment)
	edges := make([]CallEdge, 0, len(names))
	for _, name := range names {
		edges = append(edges, CallEdge{
			Caller:        fn.Name,
			Callee:        name,
			Line:          idx + 1,
			FilePath:      fn.FilePath,
			IsAsync:       async,
			RawExpression: strings.TrimSpace(rawLine),
		})
	}
	return edges
}

// fileCalls holds every call edge of one file.
type fileCalls struct {
	byFunction map[string][]CallEdge
	module     []CallEdge
}

// scanFile extracts the calls of every definition in a file plus the calls made at the
// top level.
func scanFile(content, filePath string, defs []functions.FunctionDefinition) fileCalls {
	raw := strings.Split(content, "\n")
	code := stripCode(content)
	covered := make([]bool, len(code))

	fc := fileCalls{byFunction: make(map[string][]CallEdge, len(defs))}
	for _, fn := range defs {
		edges, sp, ok := bodyScan(fn, raw, code)
		if !ok {
			continue
		}
		fc.byFunction[fn.Key()] = edges
		for i := sp.first; i <= sp.last && i < len(covered); i++ {
			covered[i] = true
		}
	}

	module := functions.FunctionDefinition{Name: ModuleCaller, FilePath: filePath}
	for i, line := range code {
		if covered[i] || strings.TrimSpace(line) == "" {
			continue
		}
		fc.module = append(fc.module, edgesFor(module, i, raw[i], line)...)
	}
	return fc
}
