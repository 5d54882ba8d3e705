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

// Package codegen holds the per-module-type ParserAndGenerator contract
// (spec §4.F) and a registry plugins populate during Apply. The contract
// itself is black-box from the core's point of view — only the frontend
// implementations in this package (and anything a host plugin registers)
// know how to turn source bytes into an AST, dependency list, and rendered
// output for a given source type.
package codegen

import (
	"context"
	"sync"

	"bennypowers.dev/rbundle/graph"
)

// ParserAndGenerator is the contract every module type must satisfy (spec
// §4.F): which source types it can emit, how expensive a given emission
// is, how to turn source bytes into a Mod's AST and outgoing dependencies,
// and how to render one of its source types back to text.
type ParserAndGenerator interface {
	// SourceTypes lists the output kinds this frontend can generate for a
	// built module, e.g. {"javascript"} or {"javascript", "wasm"} for a
	// wasm-async module that also emits a JS loader stub.
	SourceTypes() []string

	// Size estimates the rendered byte size of one source type, consulted
	// by the split-chunks engine (spec §4.H) without forcing a render.
	Size(m *graph.Mod, sourceType string) float64

	// Parse turns raw source bytes into a module's AST and outgoing
	// dependency list, populating m.AST and m.OutgoingDeps in place.
	// Build failures are reported via the returned error, not a panic
	// (spec §7 "Build failure").
	Parse(ctx context.Context, m *graph.Mod, source []byte) error

	// Generate renders m's AST to one of the source types SourceTypes
	// declares.
	Generate(ctx context.Context, m *graph.Mod, sourceType string) (graph.GeneratedSource, error)
}

// Builder constructs a ParserAndGenerator, invoked lazily so registration
// (spec §4.F: "plugins register one builder per module type during
// apply") doesn't pay construction cost for module types a compilation
// never touches.
type Builder func() ParserAndGenerator

// Registry maps a module type to the builder that produces its frontend.
// One Registry is shared across a make cycle's worker pool once plugin
// application has finished registering builders (spec §5); a mutex guards
// the frontends For memoizes on first use.
type Registry struct {
	mu       sync.Mutex
	builders map[graph.ModuleType]Builder
	cache    map[graph.ModuleType]ParserAndGenerator
}

// NewRegistry returns an empty Registry.
func NewRegistry() *Registry {
	return &Registry{
		builders: map[graph.ModuleType]Builder{},
		cache:    map[graph.ModuleType]ParserAndGenerator{},
	}
}

// Register installs the builder for a module type. A later Register call
// for the same type replaces the earlier one (last plugin wins, matching
// the teacher's `apply` registration order).
func (r *Registry) Register(t graph.ModuleType, b Builder) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.builders[t] = b
	delete(r.cache, t)
}

// For returns the ParserAndGenerator for a module type, building and
// memoizing it on first use. Returns false if no plugin registered a
// builder for t.
func (r *Registry) For(t graph.ModuleType) (ParserAndGenerator, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if pg, ok := r.cache[t]; ok {
		return pg, true
	}
	b, ok := r.builders[t]
	if !ok {
		return nil, false
	}
	pg := b()
	r.cache[t] = pg
	return pg, true
}

// Types returns the module types with a registered builder, in no
// particular order.
func (r *Registry) Types() []graph.ModuleType {
	out := make([]graph.ModuleType, 0, len(r.builders))
	for t := range r.builders {
		out = append(out, t)
	}
	return out
}
