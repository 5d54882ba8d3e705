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

package make

import (
	"sync"
	"sync/atomic"

	"bennypowers.dev/rbundle/config"
	"bennypowers.dev/rbundle/diagnostics"
	"bennypowers.dev/rbundle/graph"
	"bennypowers.dev/rbundle/ids"
	"bennypowers.dev/rbundle/plugin"
	"bennypowers.dev/rbundle/resolver"
)

// Ctx is the shared, mutable state one make cycle's task family operates
// over — the Go analogue of the teacher's MakeTaskContext (grounded on
// rspack_core's compiler/make/repair/mod.rs). Every field worker
// goroutines touch concurrently is behind a mutex; the module graph is
// its own overlay, safe for concurrent use on its own terms (spec §5
// "Shared-resource policy").
type Ctx struct {
	Options  *config.CompilerOptions
	Resolver resolver.Resolver
	Driver   *plugin.Driver
	Interner *ids.Interner
	Cache    *BuildCache
	Graph    *graph.Graph
	ReadFile func(resourcePath string) ([]byte, error)

	mu                  sync.Mutex
	failedDependencies  map[ids.DepId]bool
	failedModules       map[ids.ModuleId]bool
	entryModuleIds      map[ids.ModuleId]bool
	fileDependencies    map[string]bool
	contextDependencies map[string]bool
	missingDependencies map[string]bool
	buildDependencies   map[string]bool
	queued              map[string]bool

	hasModuleGraphChange atomic.Bool
}

// NewCtx constructs a fresh task context around a partial graph overlay.
func NewCtx(opts *config.CompilerOptions, res resolver.Resolver, driver *plugin.Driver, interner *ids.Interner, cache *BuildCache, g *graph.Graph, readFile func(string) ([]byte, error)) *Ctx {
	return &Ctx{
		Options:             opts,
		Resolver:            res,
		Driver:              driver,
		Interner:            interner,
		Cache:               cache,
		Graph:               g,
		ReadFile:            readFile,
		failedDependencies:  map[ids.DepId]bool{},
		failedModules:       map[ids.ModuleId]bool{},
		entryModuleIds:      map[ids.ModuleId]bool{},
		fileDependencies:    map[string]bool{},
		contextDependencies: map[string]bool{},
		missingDependencies: map[string]bool{},
		buildDependencies:   map[string]bool{},
		queued:              map[string]bool{},
	}
}

func (c *Ctx) markFailedDependency(id ids.DepId) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.failedDependencies[id] = true
}

func (c *Ctx) markFailedModule(id ids.ModuleId) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.failedModules[id] = true
}

func (c *Ctx) markEntryModule(id ids.ModuleId) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entryModuleIds[id] = true
}

func (c *Ctx) addFileDependency(path string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.fileDependencies[path] = true
}

// tryClaim claims (issuer, request) for factorization this cycle. It
// returns true if the pair was not yet queued and false if it already was
// (spec §4.D
// "ProcessDependenciesTask ... already-queued identical (issuer, request)
// pairs are collapsed").
func (c *Ctx) tryClaim(issuer ids.ModuleId, request string) bool {
	key := string(issuer) + "\x00" + request
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.queued[key] {
		return false
	}
	c.queued[key] = true
	return true
}

func (c *Ctx) addDiagnostic(d diagnostics.Diagnostic) {
	c.Driver.Diagnostics.Add(d)
}

// snapshot copies out the mutex-guarded sets into the shapes Artifact
// exposes.
func (c *Ctx) snapshot() (failedDeps map[ids.DepId]bool, failedMods map[ids.ModuleId]bool, entries map[ids.ModuleId]bool, fileDeps, ctxDeps, missingDeps, buildDeps map[string]bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	clone := func(m map[string]bool) map[string]bool {
		out := make(map[string]bool, len(m))
		for k := range m {
			out[k] = true
		}
		return out
	}
	failedDeps = make(map[ids.DepId]bool, len(c.failedDependencies))
	for k := range c.failedDependencies {
		failedDeps[k] = true
	}
	failedMods = make(map[ids.ModuleId]bool, len(c.failedModules))
	for k := range c.failedModules {
		failedMods[k] = true
	}
	entries = make(map[ids.ModuleId]bool, len(c.entryModuleIds))
	for k := range c.entryModuleIds {
		entries[k] = true
	}
	fileDeps = clone(c.fileDependencies)
	ctxDeps = clone(c.contextDependencies)
	missingDeps = clone(c.missingDependencies)
	buildDeps = clone(c.buildDependencies)
	return
}
