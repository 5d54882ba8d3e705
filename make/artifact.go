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

// Package make drives the Factorize/Add/Build/ProcessDependencies task
// family (spec §4.D) over the task loop (package taskloop), turning a set
// of build-dependencies plus a previous Artifact into a new one.
package make

import (
	"bennypowers.dev/rbundle/diagnostics"
	"bennypowers.dev/rbundle/graph"
	"bennypowers.dev/rbundle/ids"
)

// BuildDependency is one root the make cycle must (re-)resolve: a
// dependency id together with the module that issued it, or an empty
// ParentModuleId for an entry (spec §4.D "Incrementality").
type BuildDependency struct {
	DepId          ids.DepId
	ParentModuleId ids.ModuleId // "" for an entry
}

// Artifact is the committed output of one make cycle (spec §3
// "Artifact (MakeArtifact)").
type Artifact struct {
	Graph *graph.Graph

	FailedDependencies map[ids.DepId]bool
	FailedModules      map[ids.ModuleId]bool
	Diagnostics        []diagnostics.Diagnostic
	EntryModuleIds     map[ids.ModuleId]bool

	FileDependencies    map[string]bool
	ContextDependencies map[string]bool
	MissingDependencies map[string]bool
	BuildDependencies   map[string]bool

	HasModuleGraphChange bool
}

// Empty returns the Artifact a first-ever make cycle should be seeded
// with: an empty base graph and empty tracking sets.
func Empty() *Artifact {
	return &Artifact{
		Graph:               graph.New(),
		FailedDependencies:  map[ids.DepId]bool{},
		FailedModules:       map[ids.ModuleId]bool{},
		EntryModuleIds:      map[ids.ModuleId]bool{},
		FileDependencies:    map[string]bool{},
		ContextDependencies: map[string]bool{},
		MissingDependencies: map[string]bool{},
		BuildDependencies:   map[string]bool{},
	}
}

// SeedEntryDependencies registers one entry-kind Dep per (name, request)
// pair directly into g and returns the corresponding BuildDependency list
// (spec §4.D "Parent-less dependencies are entries"). Call this once
// before Run for a fresh compilation, or whenever the entry map changes.
func SeedEntryDependencies(g *graph.Graph, entries map[string]string, interner *ids.Interner) []BuildDependency {
	byName := SeedEntryDependenciesByName(g, entries, interner)
	out := make([]BuildDependency, 0, len(byName))
	for _, bd := range byName {
		out = append(out, bd)
	}
	return out
}

// SeedEntryDependenciesByName is SeedEntryDependencies, keeping the entry
// name association a caller needs to later recover which resolved Module
// backs which configured entry (bundle.Compiler uses this to build its
// chunk-graph entry-point map, spec §4.G "one chunk group seeded per
// entry").
func SeedEntryDependenciesByName(g *graph.Graph, entries map[string]string, interner *ids.Interner) map[string]BuildDependency {
	out := make(map[string]BuildDependency, len(entries))
	for name, request := range entries {
		depId := interner.NextDepId()
		g.AddDependency(graph.Dep{
			Id:      depId,
			Kind:    graph.DepKindEntry,
			Request: request,
		})
		out[name] = BuildDependency{DepId: depId}
	}
	return out
}
