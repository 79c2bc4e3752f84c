// Package functions finds function, method and arrow-function definitions in JavaScript
// and TypeScript sources.
package functions

import (
	"fmt"
	"regexp"
	"strings"
)

// Kind classifies a definition
type Kind string

const (
	KindFunction Kind = "function"
	KindMethod   Kind = "method"
	KindArrow    Kind = "arrow"
	KindAsync    Kind = "async"
)

// FunctionDefinition is one definition site. The same name may appear in many files or
// classes; identity is (Name, FilePath, Line).
type FunctionDefinition struct {
	Name       string   `json:"name"`
	FilePath   string   `json:"filePath"`
	Line       int      `json:"line"`
	Kind       Kind     `json:"kind"`
	Params     []string `json:"params"`
	IsExported bool     `json:"isExported"`
	ClassName  string   `json:"className,omitempty"`

	// Arrow is set for arrow functions regardless of Kind, so async arrows keep their
	// body shape.
	Arrow bool `json:"-"`
}

// Key returns a string identifying the definition site
func (f FunctionDefinition) Key() string {
	return fmt.Sprintf("%s:%d:%s", f.FilePath, f.Line, f.Name)
}

// IsAsync reports whether the definition was declared async
func (f FunctionDefinition) IsAsync() bool {
	return f.Kind == KindAsync
}

const ident = `[A-Za-z_$][\w$]*`

var (
	funcDeclRe = regexp.MustCompile(`^\s*(export\s+)?(?:default\s+)?(async\s+)?function\b\s*\*?\s*(` + ident + `)\s*(?:<[^>]*>)?\s*\(([^)]*)`)
	funcExprRe = regexp.MustCompile(`^\s*(export\s+)?(?:const|let|var)\s+(` + ident + `)\s*(?::[^=]+)?=\s*(async\s+)?function\b\s*\*?\s*(?:` + ident + `)?\s*\(([^)]*)`)
	arrowRe    = regexp.MustCompile(`^\s*(export\s+)?(?:const|let|var)\s+(` + ident + `)\s*(?::[^=]+)?=\s*(async\s+)?(?:\(([^)]*)\)|(` + ident + `))\s*(?::\s*[^=]+)?=>`)
	classRe    = regexp.MustCompile(`^\s*(?:export\s+)?(?:default\s+)?(?:abstract\s+)?class\s+(` + ident + `)`)
	fieldRe    = regexp.MustCompile(`^\s+(?:(?:public|private|protected|static|readonly|override)\s+)*(` + ident + `)\s*(?::[^=]+)?=\s*(async\s+)?(?:\(([^)]*)\)|(` + ident + `))\s*(?::\s*[^=]+)?=>`)
	methodRe   = regexp.MustCompile(`^\s+((?:(?:public|private|protected|static|readonly|override|abstract|async|get|set)\s+)*)\*?\s*(` + ident + `)\s*(?:<[^>]*>)?\s*\(([^()]*)\)\s*(?:\{|:)`)
)

// notMethods are words that look like a method signature inside a class body
var notMethods = map[string]bool{
	"if": true, "for": true, "while": true, "switch": true, "catch": true,
	"function": true, "return": true, "constructor": true, "else": true,
	"do": true, "try": true, "with": true, "new": true, "typeof": true,
	"super": true, "await": true, "yield": true, "delete": true, "void": true,
}

// Extract returns the definitions found in content, in line order.
func Extract(content, filePath string) []FunctionDefinition {
	var defs []FunctionDefinition
	className := ""

	for i, line := range strings.Split(content, "\n") {
		lineNo := i + 1
		trimmed := strings.TrimSpace(line)
		if trimmed == "" || strings.HasPrefix(trimmed, "//") || strings.HasPrefix(trimmed, "*") || strings.HasPrefix(trimmed, "/*") {
			continue
		}

		if strings.HasPrefix(line, "}") {
			className = ""
		}
		if m := classRe.FindStringSubmatch(line); m != nil {
			className = m[1]
			continue
		}

		if m := funcDeclRe.FindStringSubmatch(line); m != nil {
			defs = append(defs, FunctionDefinition{
				Name:       m[3],
				FilePath:   filePath,
				Line:       lineNo,
				Kind:       kindOf(KindFunction, m[2] != ""),
				Params:     ParseParams(m[4]),
				IsExported: m[1] != "",
			})
			continue
		}

		if m := funcExprRe.FindStringSubmatch(line); m != nil {
			defs = append(defs, FunctionDefinition{
				Name:       m[2],
				FilePath:   filePath,
				Line:       lineNo,
				Kind:       kindOf(KindFunction, m[3] != ""),
				Params:     ParseParams(m[4]),
				IsExported: m[1] != "",
			})
			continue
		}

		if m := arrowRe.FindStringSubmatch(line); m != nil {
			params := ParseParams(m[4])
			if m[5] != "" {
				params = []string{m[5]}
			}
			defs = append(defs, FunctionDefinition{
				Name:       m[2],
				FilePath:   filePath,
				Line:       lineNo,
				Kind:       kindOf(KindArrow, m[3] != ""),
				Params:     params,
				IsExported: m[1] != "",
				Arrow:      true,
			})
			continue
		}

		if className == "" {
			continue
		}
		if m := fieldRe.FindStringSubmatch(line); m != nil {
			params := ParseParams(m[3])
			if m[4] != "" {
				params = []string{m[4]}
			}
			defs = append(defs, FunctionDefinition{
				Name:      m[1],
				FilePath:  filePath,
				Line:      lineNo,
				Kind:      kindOf(KindArrow, m[2] != ""),
				Params:    params,
				ClassName: className,
				Arrow:     true,
			})
			continue
		}
		if m := methodRe.FindStringSubmatch(line); m != nil && !notMethods[m[2]] {
			defs = append(defs, FunctionDefinition{
				Name:      m[2],
				FilePath:  filePath,
				Line:      lineNo,
				Kind:      kindOf(KindMethod, strings.Contains(m[1], "async")),
				Params:    ParseParams(m[3]),
				ClassName: className,
			})
		}
	}
	return defs
}

// kindOf returns KindAsync for async definitions, otherwise base.
func kindOf(base Kind, async bool) Kind {
	if async {
		return KindAsync
	}
	return base
}

// ParseParams splits a parameter list on top-level commas and strips type annotations,
// default values and optional markers.
func ParseParams(list string) []string {
	params := []string{}
	depth := 0
	start := 0
	add := func(raw string) {
		if p := cleanParam(raw); p != "" {
			params = append(params, p)
		}
	}
	for i, r := range list {
		switch r {
		case '(', '[', '{', '<':
			depth++
		case ')', ']', '}', '>':
			if depth > 0 {
				depth--
			}
		case ',':
			if depth == 0 {
				add(list[start:i])
				start = i + 1
			}
		}
	}
	add(list[start:])
	return params
}

func cleanParam(raw string) string {
	p := strings.TrimSpace(raw)
	if p == "" {
		return ""
	}
	// destructured parameters are kept whole
	if strings.HasPrefix(p, "{") || strings.HasPrefix(p, "[") {
		if i := topLevelIndex(p, ':'); i >= 0 {
			p = p[:i]
		}
		if i := topLevelIndex(p, '='); i >= 0 {
			p = p[:i]
		}
		return strings.TrimSpace(p)
	}
	if i := strings.IndexAny(p, ":="); i >= 0 {
		p = p[:i]
	}
	p = strings.TrimSpace(p)
	p = strings.TrimSuffix(p, "?")
	for _, mod := range []string{"public ", "private ", "protected ", "readonly "} {
		p = strings.TrimPrefix(p, mod)
	}
	return strings.TrimSpace(p)
}

func topLevelIndex(s string, target rune) int {
	depth := 0
	for i, r := range s {
		switch r {
		case '(', '[', '{', '<':
			depth++
		case ')', ']', '}', '>':
			depth--
		default:
			if r == target && depth == 0 {
				return i
			}
		}
	}
	return -1
}
