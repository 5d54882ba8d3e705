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
	"path"
	"strings"

	"github.com/evanw/esbuild/pkg/api"

	"bennypowers.dev/rbundle/graph"
)

// JSGenerator is the ParserAndGenerator for javascript/typescript/jsx/tsx
// module types (spec §4.F). Parsing scans dependency requests with
// tree-sitter; generation transpiles through esbuild's Transform API —
// both grounded on the teacher's serve/middleware/transform engine, minus
// its dev-server HTTP plumbing.
type JSGenerator struct {
	// Target is the esbuild transform target, e.g. api.ES2020.
	Target api.Target
}

func (g JSGenerator) SourceTypes() []string { return []string{"javascript"} }

func (g JSGenerator) Size(m *graph.Mod, sourceType string) float64 {
	if gen, ok := m.Generated[sourceType]; ok {
		return float64(len(gen.Code))
	}
	return float64(len(m.OriginalSource))
}

func (g JSGenerator) Parse(ctx context.Context, m *graph.Mod, source []byte) error {
	m.OriginalSource = source
	tsx := m.Type == graph.ModuleTypeTSX || m.Type == graph.ModuleTypeJSX
	scanned, err := scanJS(source, tsx)
	if err != nil {
		return err
	}
	m.AST = scanned

	deps := make([]graph.Dep, 0, len(scanned))
	for _, s := range scanned {
		d := graph.Dep{Issuer: m.Id, Span: graph.Span{Start: s.Start, End: s.End}}
		switch s.Kind {
		case ScannedStaticImport:
			d.Kind = graph.DepKindStaticImport
			d.Request = s.Request
		case ScannedDynamicImport:
			d.Kind = graph.DepKindDynamicImport
			d.Request = s.Request
		case ScannedRequire:
			d.Kind = graph.DepKindRequire
			d.Request = s.Request
		case ScannedImportMetaURL:
			d.Kind = graph.DepKindImportMetaURL
			d.Request = m.Resource
		default:
			continue
		}
		deps = append(deps, d)
	}
	m.OutgoingDeps = deps
	return nil
}

func (g JSGenerator) Generate(ctx context.Context, m *graph.Mod, sourceType string) (graph.GeneratedSource, error) {
	if sourceType != "javascript" {
		return graph.GeneratedSource{}, fmt.Errorf("codegen: JSGenerator cannot emit source type %q", sourceType)
	}

	loader := api.LoaderJS
	switch m.Type {
	case graph.ModuleTypeTS:
		loader = api.LoaderTS
	case graph.ModuleTypeTSX:
		loader = api.LoaderTSX
	case graph.ModuleTypeJSX:
		loader = api.LoaderJSX
	}

	target := g.Target
	if target == 0 {
		target = api.ES2020
	}

	result := api.Transform(string(m.OriginalSource), api.TransformOptions{
		Loader:     loader,
		Target:     target,
		Format:     api.FormatESModule,
		Sourcemap:  api.SourceMapNone,
		Sourcefile: m.Resource,
		TsconfigRaw: `{"compilerOptions":{"importHelpers":false}}`,
	})
	if len(result.Errors) > 0 {
		var sb strings.Builder
		for _, e := range result.Errors {
			fmt.Fprintf(&sb, "%s: %s\n", path.Base(m.Resource), e.Text)
		}
		return graph.GeneratedSource{}, fmt.Errorf("codegen: transform failed:\n%s", sb.String())
	}
	return graph.GeneratedSource{Code: result.Code}, nil
}
