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

// Package chunk assigns built modules to output chunks and tracks the
// chunk-group structure async imports require (spec §4.G, §3 "Chunk
// (Chk)" / "Chunk-group (CG)" / "Chunk graph (CG*)").
package chunk

import (
	"github.com/google/uuid"

	"bennypowers.dev/rbundle/ids"
	"bennypowers.dev/rbundle/set"
)

// Kind classifies a Chunk's role (spec §3 "kind ∈ {Normal, HotUpdate, Entry}").
type Kind int

const (
	KindNormal Kind = iota
	KindEntry
	KindHotUpdate
)

func (k Kind) String() string {
	switch k {
	case KindEntry:
		return "entry"
	case KindHotUpdate:
		return "hot-update"
	default:
		return "normal"
	}
}

// Chunk is a grouping of modules (spec §3 "Chunk (Chk)").
type Chunk struct {
	Ukey ids.ChunkUkey
	Id   string
	Name string
	Kind Kind

	Runtime set.Set[string]
	Groups  set.Set[ids.ChunkGroupUkey]
}

func newChunk(ukey ids.ChunkUkey, name string, kind Kind) *Chunk {
	return &Chunk{
		Ukey:    ukey,
		Id:      string(ukey),
		Name:    name,
		Kind:    kind,
		Runtime: set.NewSet[string](),
		Groups:  set.NewSet[ids.ChunkGroupUkey](),
	}
}

// Group is an ordered collection of chunks with entry-point semantics,
// tracking parent/child groups to model async loading (spec §3
// "Chunk-group (CG)").
type Group struct {
	Ukey   ids.ChunkGroupUkey
	Name   string
	Chunks []ids.ChunkUkey

	Parents  set.Set[ids.ChunkGroupUkey]
	Children set.Set[ids.ChunkGroupUkey]

	// Runtime is the set of runtime names that can reach this group: an
	// entry group seeds its own name; an async child group inherits the
	// union of every parent group's Runtime (spec §4.G step 4).
	Runtime set.Set[string]
}

func newGroup(ukey ids.ChunkGroupUkey, name string) *Group {
	return &Group{
		Ukey:     ukey,
		Name:     name,
		Parents:  set.NewSet[ids.ChunkGroupUkey](),
		Children: set.NewSet[ids.ChunkGroupUkey](),
		Runtime:  set.NewSet[string](),
	}
}

// Graph is the many-to-many relation between modules and chunks, plus
// per-chunk-group structure (spec §3 "Chunk graph (CG*)").
type Graph struct {
	interner *ids.Interner

	chunks map[ids.ChunkUkey]*Chunk
	groups map[ids.ChunkGroupUkey]*Group

	// moduleChunks tracks, for every module assigned so far, which chunks
	// it belongs to (spec §4.G step 3 "a module belongs to every chunk
	// whose entry reaches it synchronously").
	moduleChunks map[ids.ModuleId]set.Set[ids.ChunkUkey]
	chunkModules map[ids.ChunkUkey]set.Set[ids.ModuleId]
}

// New returns an empty chunk graph driven by interner for fresh ukeys.
func New(interner *ids.Interner) *Graph {
	return &Graph{
		interner:     interner,
		chunks:       map[ids.ChunkUkey]*Chunk{},
		groups:       map[ids.ChunkGroupUkey]*Group{},
		moduleChunks: map[ids.ModuleId]set.Set[ids.ChunkUkey]{},
		chunkModules: map[ids.ChunkUkey]set.Set[ids.ModuleId]{},
	}
}

func (g *Graph) newChunk(name string, kind Kind) *Chunk {
	c := newChunk(g.interner.NextChunkUkey(), name, kind)
	g.chunks[c.Ukey] = c
	g.chunkModules[c.Ukey] = set.NewSet[ids.ModuleId]()
	return c
}

func (g *Graph) newGroup(name string) *Group {
	group := newGroup(g.interner.NextChunkGroupUkey(), name)
	g.groups[group.Ukey] = group
	return group
}

// Chunk looks up a chunk by ukey.
func (g *Graph) Chunk(ukey ids.ChunkUkey) (*Chunk, bool) {
	c, ok := g.chunks[ukey]
	return c, ok
}

// Group looks up a chunk-group by ukey.
func (g *Graph) Group(ukey ids.ChunkGroupUkey) (*Group, bool) {
	grp, ok := g.groups[ukey]
	return grp, ok
}

// Chunks returns every chunk in the graph.
func (g *Graph) Chunks() []*Chunk {
	out := make([]*Chunk, 0, len(g.chunks))
	for _, c := range g.chunks {
		out = append(out, c)
	}
	return out
}

// ModulesOf returns the modules assigned to a chunk.
func (g *Graph) ModulesOf(ukey ids.ChunkUkey) []ids.ModuleId {
	return g.chunkModules[ukey].Members()
}

// ChunksOf returns the chunks a module belongs to.
func (g *Graph) ChunksOf(id ids.ModuleId) []ids.ChunkUkey {
	return g.moduleChunks[id].Members()
}

func (g *Graph) assign(chunkUkey ids.ChunkUkey, moduleId ids.ModuleId) {
	if g.moduleChunks[moduleId] == nil {
		g.moduleChunks[moduleId] = set.NewSet[ids.ChunkUkey]()
	}
	g.moduleChunks[moduleId].Add(chunkUkey)
	g.chunkModules[chunkUkey].Add(moduleId)
}

// unassign removes a module from a chunk, used by the split-chunks engine
// when it extracts a module into a new chunk (spec §4.H step 6 "move
// modules").
func (g *Graph) unassign(chunkUkey ids.ChunkUkey, moduleId ids.ModuleId) {
	delete(g.chunkModules[chunkUkey], moduleId)
	if s := g.moduleChunks[moduleId]; s != nil {
		delete(s, chunkUkey)
	}
}

// NewSplitChunk creates a new Normal chunk holding modules, joining every
// chunk-group that any of parentChunks currently belongs to (spec §4.H
// step 6 "create the new chunks ... re-link chunk-groups"). Callers move
// modules into the returned chunk with MoveModule. If name collides with
// a chunk already in the graph (two cache groups deriving the same
// split-chunk name), a short uuid suffix disambiguates it rather than
// silently letting two chunks share a name.
func (g *Graph) NewSplitChunk(name string, modules []ids.ModuleId, parentChunks []ids.ChunkUkey) *Chunk {
	if g.nameTaken(name) {
		name = name + "~" + uuid.NewString()[:8]
	}
	c := g.newChunk(name, KindNormal)
	for _, moduleId := range modules {
		g.assign(c.Ukey, moduleId)
	}
	for _, parentUkey := range parentChunks {
		parent, ok := g.chunks[parentUkey]
		if !ok {
			continue
		}
		for groupUkey := range parent.Groups {
			c.Groups.Add(groupUkey)
			if grp, ok := g.groups[groupUkey]; ok {
				grp.Chunks = append(grp.Chunks, c.Ukey)
			}
		}
	}
	return c
}

func (g *Graph) nameTaken(name string) bool {
	for _, c := range g.chunks {
		if c.Name == name {
			return true
		}
	}
	return false
}

// MoveModule reassigns a module from one chunk to another, used by the
// split-chunks engine to extract a module into a newly committed split
// chunk (spec §4.H step 6).
func (g *Graph) MoveModule(moduleId ids.ModuleId, from, to ids.ChunkUkey) {
	g.unassign(from, moduleId)
	g.assign(to, moduleId)
}
