// Package imports extracts import and export statements from JavaScript and TypeScript
// sources with a line-oriented regex pass.
package imports

import (
	"regexp"
	"strings"
)

// Kind classifies the statement shape an import was matched by
type Kind string

const (
	KindNamed      Kind = "named"
	KindDefault    Kind = "default"
	KindNamespace  Kind = "namespace"
	KindSideEffect Kind = "side-effect"
	KindRequire    Kind = "require"
	KindDynamic    Kind = "dynamic"
	KindReExport   Kind = "re-export"
)

// ImportInfo is one matched import statement. Statements are never deduplicated.
type ImportInfo struct {
	Source          string   `json:"source"`
	Specifier       string   `json:"specifier"`
	ImportedNames   []string `json:"importedNames,omitempty"`
	DefaultImport   string   `json:"defaultImport,omitempty"`
	NamespaceImport string   `json:"namespaceImport,omitempty"`
	Kind            Kind     `json:"kind"`
	IsExternal      bool     `json:"isExternal"`
	Line            int      `json:"line"`
	Raw             string   `json:"raw"`
}

// ExportInfo is one matched export statement
type ExportInfo struct {
	ExportedNames []string `json:"exportedNames,omitempty"`
	HasDefault    bool     `json:"hasDefault"`
	Line          int      `json:"line"`
	Raw           string   `json:"raw"`
}

const ident = `[A-Za-z_$][\w$]*`

// Import shapes, tried in order. The first match wins for a statement.
var (
	namedRe      = regexp.MustCompile(`^import\s+(?:type\s+)?(?:(` + ident + `)\s*,\s*)?\{([^}]*)\}\s*from\s*['"]([^'"]+)['"]`)
	defaultRe    = regexp.MustCompile(`^import\s+(?:type\s+)?(` + ident + `)\s+from\s*['"]([^'"]+)['"]`)
	namespaceRe  = regexp.MustCompile(`^import\s+(?:(` + ident + `)\s*,\s*)?\*\s*as\s+(` + ident + `)\s+from\s*['"]([^'"]+)['"]`)
	sideEffectRe = regexp.MustCompile(`^import\s*['"]([^'"]+)['"]`)
	requireRe    = regexp.MustCompile(`\brequire\s*\(\s*['"]([^'"]+)['"]\s*\)`)
	requireVarRe = regexp.MustCompile(`(?:const|let|var)\s+(?:(` + ident + `)|\{([^}]*)\})\s*=\s*require\s*\(`)
	dynamicRe    = regexp.MustCompile(`\bimport\s*\(\s*['"]([^'"]+)['"]\s*\)`)
	reExportRe   = regexp.MustCompile(`^export\s+(?:type\s+)?(?:\*(?:\s*as\s+(` + ident + `))?|\{([^}]*)\})\s*from\s*['"]([^'"]+)['"]`)
)

// Export shapes.
var (
	exportStarRe    = regexp.MustCompile(`^export\s+\*\s*(?:as\s+(` + ident + `)\s+)?from\b`)
	exportListRe    = regexp.MustCompile(`^export\s+(?:type\s+)?\{([^}]*)\}`)
	exportDeclRe    = regexp.MustCompile(`^export\s+(default\s+)?(?:declare\s+)?(?:abstract\s+)?(?:async\s+)?(?:const|let|var|function\s*\*?|class|interface|type|enum|namespace)\s+(` + ident + `)`)
	exportDefaultRe = regexp.MustCompile(`^export\s+default\b`)
	cjsObjectRe     = regexp.MustCompile(`^module\.exports\s*=\s*\{([^}]*)\}`)
	cjsDefaultRe    = regexp.MustCompile(`^module\.exports\s*=`)
	cjsNamedRe      = regexp.MustCompile(`^(?:module\.)?exports\.(` + ident + `)\s*=`)
)

// openListRe matches a statement whose brace list continues on the next line
var openListRe = regexp.MustCompile(`^(?:(?:import|export)\s+(?:type\s+)?(?:` + ident + `\s*,\s*)?|(?:const|let|var)\s+)\{[^}]*$`)

// maxJoinLines bounds how far a multi-line brace statement is followed
const maxJoinLines = 50

// IsLocal reports whether a specifier refers to a workspace file rather than a package
func IsLocal(specifier string) bool {
	return strings.HasPrefix(specifier, ".") || strings.HasPrefix(specifier, "/")
}

type statement struct {
	text string
	line int
}

// Extract returns the imports and exports found in content. sourcePath is recorded on
// every ImportInfo.
func Extract(content, sourcePath string) ([]ImportInfo, []ExportInfo) {
	var imports []ImportInfo
	var exports []ExportInfo
	for _, st := range statements(content) {
		if imp, ok := matchImport(st, sourcePath); ok {
			imports = append(imports, imp)
		}
		if exp, ok := matchExport(st); ok {
			exports = append(exports, exp)
		}
	}
	return imports, exports
}

// ExtractImports returns only the imports in content.
func ExtractImports(content, sourcePath string) []ImportInfo {
	imports, _ := Extract(content, sourcePath)
	return imports
}

// ExtractExports returns only the exports in content.
func ExtractExports(content string) []ExportInfo {
	_, exports := Extract(content, "")
	return exports
}

// statements splits content into trimmed logical statements. An import or export whose
// brace list is left open is joined with the following lines; the statement keeps the
// number of its first line. Comment lines are dropped.
func statements(content string) []statement {
	lines := strings.Split(content, "\n")
	out := make([]statement, 0, len(lines))

	for i := 0; i < len(lines); i++ {
		text := strings.TrimSpace(lines[i])
		if text == "" || isComment(text) {
			continue
		}
		st := statement{text: text, line: i + 1}

		if opensBraceList(text) {
			var b strings.Builder
			b.WriteString(text)
			for j := i + 1; j < len(lines) && j <= i+maxJoinLines; j++ {
				next := strings.TrimSpace(lines[j])
				b.WriteString(" ")
				b.WriteString(next)
				if strings.Contains(next, "}") {
					st.text = b.String()
					i = j
					break
				}
			}
		}
		out = append(out, st)
	}
	return out
}

func isComment(text string) bool {
	return strings.HasPrefix(text, "//") || strings.HasPrefix(text, "/*") || strings.HasPrefix(text, "*")
}

func opensBraceList(text string) bool {
	return openListRe.MatchString(text)
}

func matchImport(st statement, sourcePath string) (ImportInfo, bool) {
	info := ImportInfo{Source: sourcePath, Line: st.line, Raw: st.text}
	text := st.text

	switch {
	case namedRe.MatchString(text):
		m := namedRe.FindStringSubmatch(text)
		info.Kind = KindNamed
		info.DefaultImport = m[1]
		info.ImportedNames = splitNames(m[2], false)
		info.Specifier = m[3]
	case defaultRe.MatchString(text):
		m := defaultRe.FindStringSubmatch(text)
		info.Kind = KindDefault
		info.DefaultImport = m[1]
		info.Specifier = m[2]
	case namespaceRe.MatchString(text):
		m := namespaceRe.FindStringSubmatch(text)
		info.Kind = KindNamespace
		info.DefaultImport = m[1]
		info.NamespaceImport = m[2]
		info.Specifier = m[3]
	case sideEffectRe.MatchString(text):
		info.Kind = KindSideEffect
		info.Specifier = sideEffectRe.FindStringSubmatch(text)[1]
	case requireRe.MatchString(text):
		info.Kind = KindRequire
		info.Specifier = requireRe.FindStringSubmatch(text)[1]
		if v := requireVarRe.FindStringSubmatch(text); v != nil {
			if v[1] != "" {
				info.DefaultImport = v[1]
			} else {
				info.ImportedNames = splitNames(v[2], false)
			}
		}
	case dynamicRe.MatchString(text):
		info.Kind = KindDynamic
		info.Specifier = dynamicRe.FindStringSubmatch(text)[1]
	case reExportRe.MatchString(text):
		m := reExportRe.FindStringSubmatch(text)
		info.Kind = KindReExport
		switch {
		case m[2] != "":
			info.ImportedNames = splitNames(m[2], false)
		case m[1] != "":
			info.NamespaceImport = m[1]
		default:
			info.ImportedNames = []string{"*"}
		}
		info.Specifier = m[3]
	default:
		return ImportInfo{}, false
	}

	info.IsExternal = !IsLocal(info.Specifier)
	return info, true
}

func matchExport(st statement) (ExportInfo, bool) {
	info := ExportInfo{Line: st.line, Raw: st.text}
	text := st.text

	switch {
	case exportStarRe.MatchString(text):
		m := exportStarRe.FindStringSubmatch(text)
		if m[1] != "" {
			info.ExportedNames = []string{m[1]}
		} else {
			info.ExportedNames = []string{"*"}
		}
	case exportListRe.MatchString(text):
		info.ExportedNames = splitNames(exportListRe.FindStringSubmatch(text)[1], true)
		for _, name := range info.ExportedNames {
			if name == "default" {
				info.HasDefault = true
			}
		}
	case exportDeclRe.MatchString(text):
		m := exportDeclRe.FindStringSubmatch(text)
		info.HasDefault = m[1] != ""
		info.ExportedNames = []string{m[2]}
	case exportDefaultRe.MatchString(text):
		info.HasDefault = true
	case cjsObjectRe.MatchString(text):
		info.HasDefault = true
		info.ExportedNames = splitNames(cjsObjectRe.FindStringSubmatch(text)[1], true)
	case cjsDefaultRe.MatchString(text):
		info.HasDefault = true
	case cjsNamedRe.MatchString(text):
		info.ExportedNames = []string{cjsNamedRe.FindStringSubmatch(text)[1]}
	default:
		return ExportInfo{}, false
	}
	return info, true
}

// splitNames parses a brace list such as "a, b as c, type D". For imports the name on
// the left of "as" is kept; for exports the name on the right. Object-literal values
// ("a: b") keep the key.
func splitNames(list string, exported bool) []string {
	var names []string
	for _, part := range strings.Split(list, ",") {
		part = strings.TrimSpace(part)
		part = strings.TrimPrefix(part, "type ")
		if i := strings.Index(part, ":"); i >= 0 {
			part = strings.TrimSpace(part[:i])
		}
		if part == "" {
			continue
		}
		if left, right, ok := strings.Cut(part, " as "); ok {
			if exported {
				part = strings.TrimSpace(right)
			} else {
				part = strings.TrimSpace(left)
			}
		}
		if part != "" {
			names = append(names, part)
		}
	}
	return names
}
