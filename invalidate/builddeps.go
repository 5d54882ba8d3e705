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

package invalidate

import (
	"bennypowers.dev/rbundle/graph"
	"bennypowers.dev/rbundle/ids"
	"bennypowers.dev/rbundle/make"
)

// BuildDependenciesFor maps a set of changed file paths onto the
// BuildDependency roots make.Run must re-resolve: for every resident
// module whose resource matches a changed path, every dependency edge
// that currently resolves to it is re-queued, plus — for an entry module
// — the caller's entry BuildDependency whose dependency resolves to it
// (spec §4.D "Incrementality":
// "the set of build-dependencies the previous cycle touched").
func BuildDependenciesFor(g *graph.Graph, entryDeps []make.BuildDependency, changed map[string]bool) []make.BuildDependency {
	if len(changed) == 0 {
		return nil
	}

	affected := map[ids.ModuleId]bool{}
	for _, id := range g.AllModuleIds() {
		mod, ok := g.ModuleById(id)
		if !ok {
			continue
		}
		if changed[mod.Resource] {
			affected[id] = true
		}
	}
	if len(affected) == 0 {
		return nil
	}

	var out []make.BuildDependency
	seen := map[ids.DepId]bool{}

	for _, bd := range entryDeps {
		dep, ok := g.DependencyById(bd.DepId)
		if !ok {
			continue
		}
		target, resolved, err := g.ResolveDependency(dep.Id)
		if err != nil || !resolved || target == nil {
			continue
		}
		if affected[target.Id] && !seen[bd.DepId] {
			seen[bd.DepId] = true
			out = append(out, bd)
		}
	}

	for _, issuerId := range g.AllModuleIds() {
		issuer, ok := g.ModuleById(issuerId)
		if !ok {
			continue
		}
		for _, dep := range issuer.OutgoingDeps {
			if seen[dep.Id] {
				continue
			}
			target, resolved, err := g.ResolveDependency(dep.Id)
			if err != nil || !resolved || target == nil {
				continue
			}
			if affected[target.Id] {
				seen[dep.Id] = true
				out = append(out, make.BuildDependency{DepId: dep.Id, ParentModuleId: issuerId})
			}
		}
	}

	return out
}
