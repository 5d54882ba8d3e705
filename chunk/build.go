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

package chunk

import (
	"sort"

	"bennypowers.dev/rbundle/graph"
	"bennypowers.dev/rbundle/ids"
	"bennypowers.dev/rbundle/set"
)

// Build runs the four-step chunking algorithm over a committed module
// graph (spec §4.G): one chunk seeded per entry, async child chunks
// created on dynamic-import dependency edges, module membership
// propagated transitively along sync edges, and runtime sets computed as
// the union of every owning chunk-group's runtime.
func Build(mg *graph.Graph, entries map[string]ids.ModuleId, interner *ids.Interner) *Graph {
	g := New(interner)
	asyncGroups := map[ids.ModuleId]*Group{}

	names := make([]string, 0, len(entries))
	for name := range entries {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		entryId := entries[name]
		c := g.newChunk(name, KindEntry)
		grp := g.newGroup(name)
		c.Groups.Add(grp.Ukey)
		grp.Chunks = append(grp.Chunks, c.Ukey)
		grp.Runtime.Add(name)

		walkSync(g, mg, c, grp, entryId, asyncGroups)
	}

	finalizeRuntimes(g)
	return g
}

// walkSync assigns rootId and every module transitively reachable from it
// via synchronous edges to chunk, and wires an async child chunk-group for
// every dynamic-import edge it crosses (spec §4.G steps 2-3).
func walkSync(g *Graph, mg *graph.Graph, c *Chunk, grp *Group, rootId ids.ModuleId, asyncGroups map[ids.ModuleId]*Group) {
	visited := set.NewSet[ids.ModuleId]()
	var walk func(id ids.ModuleId)
	walk = func(id ids.ModuleId) {
		if visited.Has(id) {
			return
		}
		visited.Add(id)
		g.assign(c.Ukey, id)

		mod, ok := mg.ModuleById(id)
		if !ok {
			return
		}
		for _, dep := range mod.OutgoingDeps {
			target, resolved, err := mg.ResolveDependency(dep.Id)
			if err != nil || !resolved || target == nil {
				continue
			}
			if dep.Kind.IsAsync() {
				linkAsync(g, mg, grp, target.Id, asyncGroups)
				continue
			}
			walk(target.Id)
		}
	}
	walk(rootId)
}

// linkAsync wires parentGroup to the chunk-group that owns targetId,
// creating that child chunk-group (and populating its module closure) the
// first time targetId is reached, and simply adding a parent edge on
// subsequent sightings — shared dynamic imports collapse onto one async
// chunk-group (spec §4.G step 2).
func linkAsync(g *Graph, mg *graph.Graph, parentGroup *Group, targetId ids.ModuleId, asyncGroups map[ids.ModuleId]*Group) {
	childGroup, exists := asyncGroups[targetId]
	if !exists {
		childChunk := g.newChunk(string(targetId), KindNormal)
		childGroup = g.newGroup(string(targetId))
		childChunk.Groups.Add(childGroup.Ukey)
		childGroup.Chunks = append(childGroup.Chunks, childChunk.Ukey)
		asyncGroups[targetId] = childGroup

		linkParentChild(g, parentGroup, childGroup)
		walkSync(g, mg, childChunk, childGroup, targetId, asyncGroups)
		return
	}
	linkParentChild(g, parentGroup, childGroup)
}

func linkParentChild(g *Graph, parent, child *Group) {
	parent.Children.Add(child.Ukey)
	child.Parents.Add(parent.Ukey)
	propagateRuntime(g, child)
}

// propagateRuntime merges the union of a group's parents' runtimes into
// the group itself, and recurses into its children when that union grew
// (spec §4.G step 4: "runtime sets [are] the union of the runtimes of
// every owning chunk-group").
func propagateRuntime(g *Graph, child *Group) {
	before := len(child.Runtime)
	for parentUkey := range child.Parents {
		parent, ok := g.groups[parentUkey]
		if !ok {
			continue
		}
		for rt := range parent.Runtime {
			child.Runtime.Add(rt)
		}
	}
	if len(child.Runtime) == before {
		return
	}
	for childUkey := range child.Children {
		if grandchild, ok := g.groups[childUkey]; ok {
			propagateRuntime(g, grandchild)
		}
	}
}

func finalizeRuntimes(g *Graph) {
	for ukey, c := range g.chunks {
		rt := set.NewSet[string]()
		for groupUkey := range c.Groups {
			if grp, ok := g.groups[groupUkey]; ok {
				for r := range grp.Runtime {
					rt.Add(r)
				}
			}
		}
		g.chunks[ukey].Runtime = rt
	}
}
