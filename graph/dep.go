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

// Package graph implements the module graph: nodes keyed by ids.ModuleId,
// edges labeled by Dep, and a stack of partial overlays that let the make
// pipeline (package make) commit speculative writes atomically (spec §3,
// §4.B, §9).
package graph

import "bennypowers.dev/rbundle/ids"

// DepKind classifies how a Dep was introduced. Supplemented beyond the
// distilled spec's generic {module, context, async-block, entry} by the
// concrete forms a real scanner observes (SPEC_FULL.md §12, grounded on
// rspack_plugin_javascript's dependency visitor): static import, dynamic
// import(), require(), import.meta.url, and CSS @import/url().
type DepKind int

const (
	DepKindEntry DepKind = iota
	DepKindStaticImport
	DepKindDynamicImport
	DepKindRequire
	DepKindImportMetaURL
	DepKindCSSImport
	DepKindCSSURL
	DepKindContext
)

func (k DepKind) String() string {
	switch k {
	case DepKindEntry:
		return "entry"
	case DepKindStaticImport:
		return "static-import"
	case DepKindDynamicImport:
		return "dynamic-import"
	case DepKindRequire:
		return "require"
	case DepKindImportMetaURL:
		return "import-meta-url"
	case DepKindCSSImport:
		return "css-import"
	case DepKindCSSURL:
		return "css-url"
	case DepKindContext:
		return "context"
	default:
		return "unknown"
	}
}

// IsAsync reports whether this dependency kind introduces an async chunk
// boundary (spec §4.G step 2).
func (k DepKind) IsAsync() bool {
	return k == DepKindDynamicImport
}

// Span locates where a dependency was observed in its issuing module's
// source (spec §3 Dep "location span").
type Span struct {
	Start, End int
	Line, Col  int
}

// Dep is a typed request issued by a module or an entry (spec §3). Created
// when a scanner observes a reference; destroyed only when the owning
// module is removed.
type Dep struct {
	Id             ids.DepId
	Kind           DepKind
	Request        string // the raw specifier, e.g. "./b.js" or "lodash"
	ContextDir     string // set only for context-dependency variants
	Span           Span
	ResolveOptions map[string]string // overrides layered onto the default resolve options

	// Issuer is the ModuleId that owns this Dep, or "" for an entry dep.
	Issuer ids.ModuleId
}

// AsModuleDep reports whether this Dep can be resolved to a single module
// (as opposed to a context directory). Context deps are excluded.
func (d Dep) AsModuleDep() bool { return d.Kind != DepKindContext }

// AsContextDep reports whether this Dep names a directory to be resolved
// as a context module (globbed requires, e.g. `require.context`).
func (d Dep) AsContextDep() bool { return d.Kind == DepKindContext }

// AsEntryDep reports whether this Dep is an entry point (no issuing
// module).
func (d Dep) AsEntryDep() bool { return d.Kind == DepKindEntry || d.Issuer == "" }
