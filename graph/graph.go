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
	"fmt"
	"sync"

	"bennypowers.dev/rbundle/ids"
)

// ErrDanglingDependency is returned when a query resolves a DepId that was
// never recorded — an "Invariant violation" per spec §7.
var ErrDanglingDependency = fmt.Errorf("graph: dangling dependency id")

// edge records which module a dependency currently resolves to. Absence
// means "not yet resolved / failed" (spec §3 "every edge endpoint is
// either resident or a recorded failure").
type edge struct {
	target ids.ModuleId
	ok     bool
}

// Graph is the query-and-mutate surface over module-graph state (spec
// §4.B). A Graph value is always a *view*: either the base graph, or one
// partial overlay stacked on a parent view. Reads check the top partial
// first, falling back through parents to the base; writes always go to
// the top.
type Graph struct {
	mu sync.RWMutex

	parent *Graph // nil for the base graph

	modules map[ids.ModuleId]*Mod
	deps    map[ids.DepId]Dep
	edges   map[ids.DepId]edge

	// removed records ids explicitly deleted in this view, shadowing a
	// parent's copy even though the id is absent from this view's own
	// maps — the "override sentinel" spec §4.B requires for in-place
	// mutation (here: deletion) to merge correctly.
	removedModules map[ids.ModuleId]bool
}

// New returns an empty base module graph.
func New() *Graph {
	return &Graph{
		modules:        map[ids.ModuleId]*Mod{},
		deps:           map[ids.DepId]Dep{},
		edges:          map[ids.DepId]edge{},
		removedModules: map[ids.ModuleId]bool{},
	}
}

// NewPartial pushes a new write-through overlay on top of g. Speculative
// writes made against the returned Graph are invisible to g until Commit
// is called (spec §4.B, §9).
func (g *Graph) NewPartial() *Graph {
	return &Graph{
		parent:         g,
		modules:        map[ids.ModuleId]*Mod{},
		deps:           map[ids.DepId]Dep{},
		edges:          map[ids.DepId]edge{},
		removedModules: map[ids.ModuleId]bool{},
	}
}

// IsPartial reports whether g is an overlay rather than a base graph.
func (g *Graph) IsPartial() bool { return g.parent != nil }

// ModuleById looks up a module, checking this view then falling back to
// parents.
func (g *Graph) ModuleById(id ids.ModuleId) (*Mod, bool) {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.moduleByIdLocked(id)
}

func (g *Graph) moduleByIdLocked(id ids.ModuleId) (*Mod, bool) {
	for v := g; v != nil; v = v.parent {
		if v.removedModules[id] {
			return nil, false
		}
		if m, ok := v.modules[id]; ok {
			return m, true
		}
	}
	return nil, false
}

// AddModule inserts or replaces a module in the topmost view.
func (g *Graph) AddModule(m *Mod) {
	g.mu.Lock()
	defer g.mu.Unlock()
	delete(g.removedModules, m.Id)
	g.modules[m.Id] = m
}

// RemoveModule deletes a module from the topmost view. If the module
// exists only in a parent view, a removal sentinel shadows it (spec
// §4.B: "in-place mutations must record an override sentinel").
func (g *Graph) RemoveModule(id ids.ModuleId) {
	g.mu.Lock()
	defer g.mu.Unlock()
	delete(g.modules, id)
	g.removedModules[id] = true
}

// AddDependency records a new Dep, unresolved, in the topmost view.
func (g *Graph) AddDependency(d Dep) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.deps[d.Id] = d
}

// DependencyById resolves a DepId to its Dep value.
func (g *Graph) DependencyById(id ids.DepId) (Dep, bool) {
	g.mu.RLock()
	defer g.mu.RUnlock()
	for v := g; v != nil; v = v.parent {
		if d, ok := v.deps[id]; ok {
			return d, true
		}
	}
	return Dep{}, false
}

// SetEdge records that dep resolves to target (ok=true), or that it
// failed to resolve (ok=false). FactorizeTask calls this on the failure
// path and AddTask on the success path (spec §4.D).
func (g *Graph) SetEdge(dep ids.DepId, target ids.ModuleId, ok bool) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.edges[dep] = edge{target: target, ok: ok}
}

// ResolveDependency resolves dep to its target Mod. Returns
// ErrDanglingDependency if dep was never recorded at all (an invariant
// violation, spec §7), or (nil, false, nil) if the dependency is known
// but recorded as a failure (spec §3 "or is a recorded failure").
func (g *Graph) ResolveDependency(dep ids.DepId) (*Mod, bool, error) {
	g.mu.RLock()
	_, known := g.dependencyLocked(dep)
	e, hasEdge := g.edgeLocked(dep)
	g.mu.RUnlock()

	if !known {
		return nil, false, ErrDanglingDependency
	}
	if !hasEdge || !e.ok {
		return nil, false, nil
	}
	m, ok := g.ModuleById(e.target)
	return m, ok, nil
}

func (g *Graph) dependencyLocked(id ids.DepId) (Dep, bool) {
	for v := g; v != nil; v = v.parent {
		if d, ok := v.deps[id]; ok {
			return d, true
		}
	}
	return Dep{}, false
}

func (g *Graph) edgeLocked(id ids.DepId) (edge, bool) {
	for v := g; v != nil; v = v.parent {
		if e, ok := v.edges[id]; ok {
			return e, true
		}
	}
	return edge{}, false
}

// OutgoingDeps returns the Dep values attached to a resident module's
// OutgoingDeps field.
func (g *Graph) OutgoingDeps(id ids.ModuleId) []Dep {
	m, ok := g.ModuleById(id)
	if !ok {
		return nil
	}
	return m.OutgoingDeps
}

// AllModuleIds returns every module id resident in this view (including
// those only present in parent views), sorted for deterministic
// iteration (spec §4.H: "module iteration order is by stable
// identifier").
func (g *Graph) AllModuleIds() []ids.ModuleId {
	g.mu.RLock()
	defer g.mu.RUnlock()

	seen := map[ids.ModuleId]bool{}
	var out []ids.ModuleId
	for v := g; v != nil; v = v.parent {
		for id := range v.modules {
			if seen[id] || g.isRemovedAbove(v, id) {
				continue
			}
			seen[id] = true
			out = append(out, id)
		}
	}
	sortModuleIds(out)
	return out
}

// isRemovedAbove reports whether id was removed in any view strictly
// above (closer to the top than) from.
func (g *Graph) isRemovedAbove(from *Graph, id ids.ModuleId) bool {
	for v := g; v != from; v = v.parent {
		if v.removedModules[id] {
			return true
		}
	}
	return false
}

func sortModuleIds(m []ids.ModuleId) {
	// insertion sort: graphs are small enough per compilation that this
	// avoids pulling in sort.Slice's reflection overhead for a hot path
	// called once per chunking pass.
	for i := 1; i < len(m); i++ {
		for j := i; j > 0 && m[j-1] > m[j]; j-- {
			m[j-1], m[j] = m[j], m[j-1]
		}
	}
}

// Commit merges this overlay into its parent under an exclusive lock and
// returns the parent. Pure additions merge order-independently; removals
// recorded in this overlay are applied to the parent as well (spec §4.B).
// Commit panics if called on a base graph (no parent to merge into) —
// that is a programmer error, not a recoverable condition.
func (g *Graph) Commit() *Graph {
	if g.parent == nil {
		panic("graph: Commit called on a base graph with no parent")
	}
	p := g.parent
	p.mu.Lock()
	defer p.mu.Unlock()
	g.mu.RLock()
	defer g.mu.RUnlock()

	for id, m := range g.modules {
		p.modules[id] = m
		delete(p.removedModules, id)
	}
	for id := range g.removedModules {
		delete(p.modules, id)
		p.removedModules[id] = true
	}
	for id, d := range g.deps {
		p.deps[id] = d
	}
	for id, e := range g.edges {
		p.edges[id] = e
	}
	return p
}
