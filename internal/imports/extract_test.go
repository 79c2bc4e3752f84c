package imports

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIsLocal(t *testing.T) {
	tests := []struct {
		specifier string
		local     bool
	}{
		{"./a", true},
		{"../lib/b", true},
		{"/src/c", true},
		{"react", false},
		{"@scope/pkg", false},
		{"node:fs", false},
	}
	for _, tt := range tests {
		t.Run(tt.specifier, func(t *testing.T) {
			assert.Equal(t, tt.local, IsLocal(tt.specifier))
		})
	}
}

func TestExtractImports_Shapes(t *testing.T) {
	tests := []struct {
		name      string
		line      string
		kind      Kind
		specifier string
		names     []string
		def       string
		ns        string
	}{
		{"named", `import { a, b as c } from './mod';`, KindNamed, "./mod", []string{"a", "b"}, "", ""},
		{"named with default", `import React, { useState } from "react";`, KindNamed, "react", []string{"useState"}, "React", ""},
		{"type only", `import type { Props } from './types';`, KindNamed, "./types", []string{"Props"}, "", ""},
		{"default", `import App from './App';`, KindDefault, "./App", nil, "App", ""},
		{"namespace", `import * as path from 'path';`, KindNamespace, "path", nil, "", "path"},
		{"side effect", `import './polyfills';`, KindSideEffect, "./polyfills", nil, "", ""},
		{"require", `const fs = require('fs');`, KindRequire, "fs", nil, "fs", ""},
		{"require destructured", `const { join, resolve } = require("path");`, KindRequire, "path", []string{"join", "resolve"}, "", ""},
		{"dynamic", `const mod = await import('./lazy');`, KindDynamic, "./lazy", nil, "", ""},
		{"re-export", `export { x, y as z } from './x';`, KindReExport, "./x", []string{"x", "y"}, "", ""},
		{"re-export star", `export * from './all';`, KindReExport, "./all", []string{"*"}, "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ExtractImports(tt.line, "/w/src/file.ts")
			require.Len(t, got, 1)
			imp := got[0]
			assert.Equal(t, tt.kind, imp.Kind)
			assert.Equal(t, tt.specifier, imp.Specifier)
			assert.Equal(t, tt.names, imp.ImportedNames)
			assert.Equal(t, tt.def, imp.DefaultImport)
			assert.Equal(t, tt.ns, imp.NamespaceImport)
			assert.Equal(t, !IsLocal(tt.specifier), imp.IsExternal)
			assert.Equal(t, "/w/src/file.ts", imp.Source)
			assert.Equal(t, 1, imp.Line)
		})
	}
}

func TestExtractImports_LinesAndDuplicates(t *testing.T) {
	content := `// import { ignored } from './commented';
import { a } from './a';

import {
  b,
  c,
} from './b';
import { a } from './a';
/* import x from './block' */
`
	got := ExtractImports(content, "/w/x.ts")
	require.Len(t, got, 3)
	assert.Equal(t, 2, got[0].Line)
	assert.Equal(t, 4, got[1].Line)
	assert.Equal(t, []string{"b", "c"}, got[1].ImportedNames)
	assert.Equal(t, "./b", got[1].Specifier)
	assert.Equal(t, 8, got[2].Line)
	assert.Equal(t, got[0].Specifier, got[2].Specifier)
}

func TestExtractImports_SameLineStatement(t *testing.T) {
	got := ExtractImports(`import {foo} from './a'; foo();`, "/w/b.ts")
	require.Len(t, got, 1)
	assert.Equal(t, []string{"foo"}, got[0].ImportedNames)
	assert.Equal(t, "./a", got[0].Specifier)
	assert.False(t, got[0].IsExternal)
}

func TestExtractExports(t *testing.T) {
	content := `export const a = 1;
export function foo() { bar(); }
export default class Widget {}
export async function load() {}
export interface Props {}
export type Id = string;
export enum Color { Red }
export { x, y as z };
export * from './all';
export * as utils from './utils';
export default 42;
module.exports = { one, two: 2 };
exports.three = 3;
const notExported = 1;
`
	got := ExtractExports(content)
	require.Len(t, got, 13)

	tests := []struct {
		idx        int
		names      []string
		hasDefault bool
	}{
		{0, []string{"a"}, false},
		{1, []string{"foo"}, false},
		{2, []string{"Widget"}, true},
		{3, []string{"load"}, false},
		{4, []string{"Props"}, false},
		{5, []string{"Id"}, false},
		{6, []string{"Color"}, false},
		{7, []string{"x", "z"}, false},
		{8, []string{"*"}, false},
		{9, []string{"utils"}, false},
		{10, nil, true},
		{11, []string{"one", "two"}, true},
		{12, []string{"three"}, false},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.names, got[tt.idx].ExportedNames, "export %d", tt.idx)
		assert.Equal(t, tt.hasDefault, got[tt.idx].HasDefault, "export %d", tt.idx)
		assert.Equal(t, tt.idx+1, got[tt.idx].Line)
	}
}

func TestExtract_Both(t *testing.T) {
	imports, exports := Extract("export { helper } from './helper';\n", "/w/index.ts")
	require.Len(t, imports, 1)
	require.Len(t, exports, 1)
	assert.Equal(t, KindReExport, imports[0].Kind)
	assert.Equal(t, []string{"helper"}, exports[0].ExportedNames)
}

func TestExtract_Empty(t *testing.T) {
	imports, exports := Extract("", "/w/empty.ts")
	assert.Empty(t, imports)
	assert.Empty(t, exports)
}
