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

package graph

import (
	"bennypowers.dev/rbundle/diagnostics"
	"bennypowers.dev/rbundle/ids"
)

// ModuleType names which per-module-type ParserAndGenerator (package
// codegen) built and will build this module (spec §3 Mod.type).
type ModuleType string

const (
	ModuleTypeJS        ModuleType = "javascript"
	ModuleTypeTS        ModuleType = "typescript"
	ModuleTypeJSX       ModuleType = "jsx"
	ModuleTypeTSX       ModuleType = "tsx"
	ModuleTypeCSS       ModuleType = "css"
	ModuleTypeWasmAsync ModuleType = "wasm-async"
	ModuleTypeAsset     ModuleType = "asset"
)

// SourceState is the build lifecycle of a Mod (spec §3). A Mod transitions
// Unbuilt -> Building -> {BuiltSucceed, BuiltFailed} exactly once per
// build cycle.
type SourceState int

const (
	Unbuilt SourceState = iota
	Building
	BuiltSucceed
	BuiltFailed
)

func (s SourceState) String() string {
	switch s {
	case Unbuilt:
		return "unbuilt"
	case Building:
		return "building"
	case BuiltSucceed:
		return "built-succeed"
	case BuiltFailed:
		return "built-failed"
	default:
		return "unknown"
	}
}

// BuildInfo records the invalidation surface of one built module (spec §3
// Mod "build info").
type BuildInfo struct {
	FileDependencies    []string
	ContextDependencies []string
	MissingDependencies []string
	BuildDependencies   []string
}

// BuildMeta carries loader-pipeline-specific metadata a generator attaches
// during build, consumed later by chunking/rendering (e.g. whether a CSS
// module exports a CSSStyleSheet token, or a wasm module's exported
// instantiate signature).
type BuildMeta map[string]string

// GeneratedSource is one rendered artifact for a single source type,
// produced by a ParserAndGenerator.Generate call (spec §4.F).
type GeneratedSource struct {
	Code      string
	SourceMap string // opaque; synthesis itself is delegated (spec §1 non-goals)
}

// Mod is a built code unit (spec §3).
type Mod struct {
	Id       ids.ModuleId
	Type     ModuleType
	Resource string // resolved resource path

	State         SourceState
	OriginalSource []byte
	AST            any // opaque; produced by the black-box frontend (spec §1)

	Generated map[string]GeneratedSource // keyed by source type ("javascript", "css", "wasm", "asset")

	OutgoingDeps []Dep

	BuildInfo   BuildInfo
	BuildMeta   BuildMeta
	Diagnostics []diagnostics.Diagnostic

	// Size is populated by the codegen frontend's Size() callback, per
	// source type, when BuildTask parses the module, and consumed by the
	// split-chunks engine (spec §4.F, §4.H). A module restored from the
	// build cache keeps it empty; split-chunks then uses the length of
	// OriginalSource.
	Size map[string]float64
}

// NewMod constructs a Mod in Unbuilt state, matching FactorizeTask's
// output before AddTask inserts it (spec §4.D).
func NewMod(id ids.ModuleId, typ ModuleType, resource string) *Mod {
	return &Mod{
		Id:        id,
		Type:      typ,
		Resource:  resource,
		State:     Unbuilt,
		Generated: map[string]GeneratedSource{},
		BuildMeta: BuildMeta{},
		Size:      map[string]float64{},
	}
}

// MarkBuildFailed transitions the module to BuiltFailed with a dummy
// (empty) AST (spec §7 "Build failure": "module state becomes BuiltFailed
// with a dummy AST"). Outgoing dependencies from a failed module are not
// scanned.
func (m *Mod) MarkBuildFailed(diag diagnostics.Diagnostic) {
	m.State = BuiltFailed
	m.AST = nil
	m.OutgoingDeps = nil
	m.Diagnostics = append(m.Diagnostics, diag)
}
