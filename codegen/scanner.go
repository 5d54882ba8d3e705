/*
Copyright © 2025 Benny Powers <web@bennypowers.com>

This program is free software: you can redistribute it and/or modify
it under the terms of the GNU General Public License as published by
the Free Software Foundation, either version 3 of the License, or
(at your option) any later version.

This program is distributed in the hope that it will be useful,
but WITHOUT ANY WARRANTY; without even the implied warranty of
MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
GNU General Public License for more details.

You should have received a copy of the GNU General Public License
along with this program. If not, see <http://www.gnu.org/licenses/>.
*/

package codegen

import (
	"fmt"
	"strings"
	"sync"

	ts "github.com/tree-sitter/go-tree-sitter"
	tscss "github.com/tree-sitter/tree-sitter-css/bindings/go"
	tstypescript "github.com/tree-sitter/tree-sitter-typescript/bindings/go"
)

// jsImportQuery captures every request form the JS/TS dependency scanner
// understands, narrowed from the teacher's general-purpose exports query
// (modulegraph.DefaultExportParser) down to exactly the shapes a bundler
// frontend needs: static imports/re-exports, dynamic import(), require(),
// and import.meta.url.
const jsImportQuery = `
(import_statement source: (string (string_fragment) @import.source))
(export_statement source: (string (string_fragment) @import.source))
(call_expression
  function: (import)
  arguments: (arguments (string (string_fragment) @import.dynamic.source)))
(call_expression
  function: (identifier) @fn
  arguments: (arguments (string (string_fragment) @require.source))
  (#eq? @fn "require"))
(member_expression
  object: (meta_property) @importmeta
  property: (property_identifier) @importmeta.prop
  (#eq? @importmeta "import.meta")
  (#eq? @importmeta.prop "url"))
`

// cssImportQuery captures @import requests and url() references in CSS
// source (spec §12 "CSS @import/url dependency kinds").
const cssImportQuery = `
(import_statement (string_value) @css.import.source)
(call_expression
  (function_name) @fn
  (arguments (plain_value) @css.url.source)
  (#eq? @fn "url"))
`

var languages = struct {
	typescript *ts.Language
	tsx        *ts.Language
	css        *ts.Language
}{
	typescript: ts.NewLanguage(tstypescript.LanguageTypescript()),
	tsx:        ts.NewLanguage(tstypescript.LanguageTSX()),
	css:        ts.NewLanguage(tscss.Language()),
}

var tsParserPool = sync.Pool{New: func() any { return newPooledParser(languages.typescript) }}
var tsxParserPool = sync.Pool{New: func() any { return newPooledParser(languages.tsx) }}
var cssParserPool = sync.Pool{New: func() any { return newPooledParser(languages.css) }}

func newPooledParser(lang *ts.Language) *ts.Parser {
	p := ts.NewParser()
	if err := p.SetLanguage(lang); err != nil {
		panic(fmt.Sprintf("codegen: failed to set tree-sitter language: %v", err))
	}
	return p
}

// ScannedDep is a raw request observed in source, before resolution (spec
// §4.D "FactorizeTask consumes the Build step's discovered requests").
type ScannedDep struct {
	Kind    ScannedDepKind
	Request string
	Start   int
	End     int
}

// ScannedDepKind classifies a ScannedDep before it becomes a graph.Dep —
// kept distinct from graph.DepKind so this package doesn't need to import
// graph just to describe what a scan found.
type ScannedDepKind int

const (
	ScannedStaticImport ScannedDepKind = iota
	ScannedDynamicImport
	ScannedRequire
	ScannedImportMetaURL
	ScannedCSSImport
	ScannedCSSURL
)

// scanJS extracts dependency requests from JavaScript/TypeScript/JSX/TSX
// source via a pooled tree-sitter parser (grounded on queries.go's parser
// pool pattern, narrowed to one query covering every request form).
func scanJS(source []byte, tsx bool) ([]ScannedDep, error) {
	pool := &tsParserPool
	lang := languages.typescript
	if tsx {
		pool = &tsxParserPool
		lang = languages.tsx
	}
	parser := pool.Get().(*ts.Parser)
	defer pool.Put(parser)

	tree := parser.Parse(source, nil)
	if tree == nil {
		return nil, fmt.Errorf("codegen: tree-sitter failed to parse source")
	}
	defer tree.Close()

	query, qerr := ts.NewQuery(lang, jsImportQuery)
	if qerr != nil {
		return nil, fmt.Errorf("codegen: invalid import query: %v", qerr)
	}
	defer query.Close()

	cursor := ts.NewQueryCursor()
	defer cursor.Close()

	names := query.CaptureNames()
	var out []ScannedDep
	matches := cursor.Matches(query, tree.RootNode(), source)
	for {
		m := matches.Next()
		if m == nil {
			break
		}
		for _, cap := range m.Captures {
			name := names[cap.Index]
			text := strings.TrimSpace(cap.Node.Utf8Text(source))
			switch name {
			case "import.source":
				out = append(out, ScannedDep{Kind: ScannedStaticImport, Request: text, Start: int(cap.Node.StartByte()), End: int(cap.Node.EndByte())})
			case "import.dynamic.source":
				out = append(out, ScannedDep{Kind: ScannedDynamicImport, Request: text, Start: int(cap.Node.StartByte()), End: int(cap.Node.EndByte())})
			case "require.source":
				out = append(out, ScannedDep{Kind: ScannedRequire, Request: text, Start: int(cap.Node.StartByte()), End: int(cap.Node.EndByte())})
			case "importmeta.prop":
				out = append(out, ScannedDep{Kind: ScannedImportMetaURL, Request: "", Start: int(cap.Node.StartByte()), End: int(cap.Node.EndByte())})
			}
		}
	}
	return out, nil
}

// scanCSS extracts @import and url() requests from CSS source.
func scanCSS(source []byte) ([]ScannedDep, error) {
	parser := cssParserPool.Get().(*ts.Parser)
	defer cssParserPool.Put(parser)

	tree := parser.Parse(source, nil)
	if tree == nil {
		return nil, fmt.Errorf("codegen: tree-sitter failed to parse CSS source")
	}
	defer tree.Close()

	query, qerr := ts.NewQuery(languages.css, cssImportQuery)
	if qerr != nil {
		return nil, fmt.Errorf("codegen: invalid css import query: %v", qerr)
	}
	defer query.Close()

	cursor := ts.NewQueryCursor()
	defer cursor.Close()

	names := query.CaptureNames()
	var out []ScannedDep
	matches := cursor.Matches(query, tree.RootNode(), source)
	for {
		m := matches.Next()
		if m == nil {
			break
		}
		for _, cap := range m.Captures {
			name := names[cap.Index]
			text := strings.Trim(strings.TrimSpace(cap.Node.Utf8Text(source)), `"'`)
			switch name {
			case "css.import.source":
				out = append(out, ScannedDep{Kind: ScannedCSSImport, Request: text, Start: int(cap.Node.StartByte()), End: int(cap.Node.EndByte())})
			case "css.url.source":
				out = append(out, ScannedDep{Kind: ScannedCSSURL, Request: text, Start: int(cap.Node.StartByte()), End: int(cap.Node.EndByte())})
			}
		}
	}
	return out, nil
}
