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
	"context"
	"fmt"
	"strings"

	"bennypowers.dev/rbundle/graph"
)

// CSSGenerator is the ParserAndGenerator for the css module type. It emits
// a single javascript source type: a module exporting a CSSStyleSheet,
// matching the teacher's TransformCSS dev-server behavior (spec §12 "CSS
// modules are consumed as constructable stylesheets").
type CSSGenerator struct{}

func (g CSSGenerator) SourceTypes() []string { return []string{"javascript"} }

func (g CSSGenerator) Size(m *graph.Mod, sourceType string) float64 {
	return float64(len(m.OriginalSource))
}

func (g CSSGenerator) Parse(ctx context.Context, m *graph.Mod, source []byte) error {
	m.OriginalSource = source
	scanned, err := scanCSS(source)
	if err != nil {
		return err
	}
	m.AST = scanned

	deps := make([]graph.Dep, 0, len(scanned))
	for _, s := range scanned {
		d := graph.Dep{Issuer: m.Id, Request: s.Request, Span: graph.Span{Start: s.Start, End: s.End}}
		switch s.Kind {
		case ScannedCSSImport:
			d.Kind = graph.DepKindCSSImport
		case ScannedCSSURL:
			d.Kind = graph.DepKindCSSURL
		default:
			continue
		}
		deps = append(deps, d)
	}
	m.OutgoingDeps = deps
	return nil
}

func (g CSSGenerator) Generate(ctx context.Context, m *graph.Mod, sourceType string) (graph.GeneratedSource, error) {
	if sourceType != "javascript" {
		return graph.GeneratedSource{}, fmt.Errorf("codegen: CSSGenerator cannot emit source type %q", sourceType)
	}
	literal := stringToTemplateLiteral(string(m.OriginalSource))
	code := fmt.Sprintf("const sheet = new CSSStyleSheet();\nsheet.replaceSync(`%s`);\nexport default sheet;\n", literal)
	return graph.GeneratedSource{Code: code}, nil
}

// stringToTemplateLiteral escapes a string for safe inclusion in a
// backtick-delimited JS template literal, following Lit's
// stringToTemplateLiteral escape set: backslash, backtick, "${", and "</".
func stringToTemplateLiteral(s string) string {
	var out strings.Builder
	out.Grow(len(s) + 16)
	var prev rune
	runes := []rune(s)
	for i, r := range runes {
		switch r {
		case '\\', '`':
			out.WriteRune('\\')
			out.WriteRune(r)
		case '$':
			if i+1 < len(runes) && runes[i+1] == '{' {
				out.WriteString("\\$")
			} else {
				out.WriteRune(r)
			}
		case '/':
			if prev == '<' {
				out.WriteString("\\/")
			} else {
				out.WriteRune(r)
			}
		default:
			out.WriteRune(r)
		}
		prev = r
	}
	return out.String()
}
