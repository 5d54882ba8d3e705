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

package render

import (
	"hash"

	"bennypowers.dev/rbundle/chunk"
	"bennypowers.dev/rbundle/graph"
	"bennypowers.dev/rbundle/ids"
	"bennypowers.dev/rbundle/plugin"
)

// RenderChunkArgs is passed to the render_chunk hook: a chance to replace
// a chunk's rendered source entirely before the built-in JS shapes run
// (spec §4.E discipline 2 "render_chunk").
type RenderChunkArgs struct {
	Chunk   *chunk.Chunk
	Modules []*graph.Mod
}

// RenderChunkResult is the plugin-supplied replacement source.
type RenderChunkResult struct {
	Source string
}

// RenderManifestArgs is passed to the render_manifest hook, which
// collects zero or more asset entries per chunk (spec §4.I).
type RenderManifestArgs struct {
	Chunk    *chunk.Chunk
	Modules  []*graph.Mod
	PathData PathData
}

// ContentHashArgs is passed to the content_hash hook: handlers write
// additional state into Hash to fold it into a chunk's content hash (spec
// §5 "content_hash" suspension point).
type ContentHashArgs struct {
	Chunk *chunk.Chunk
	Hash  hash.Hash
}

// Hooks is render's own hook set, kept separate from plugin.Driver so that
// package plugin never needs to import chunk or render (see
// plugin.Driver's doc comment).
type Hooks struct {
	RenderChunk    plugin.Bail[RenderChunkArgs, RenderChunkResult]
	RenderManifest plugin.Collect[RenderManifestArgs, AssetEntry]
	ContentHash    plugin.SequentialAll[ContentHashArgs]
}

// NewHooks returns an empty Hooks value.
func NewHooks() *Hooks { return &Hooks{} }

// chunkModules resolves and sorts a chunk's modules by stable id (spec
// §4.I "Module concatenation preserves the module's stable id ordering").
func chunkModules(cg *chunk.Graph, mg *graph.Graph, chunkUkey ids.ChunkUkey) []*graph.Mod {
	moduleIds := cg.ModulesOf(chunkUkey)
	out := make([]*graph.Mod, 0, len(moduleIds))
	for _, id := range moduleIds {
		if m, ok := mg.ModuleById(id); ok {
			out = append(out, m)
		}
	}
	sortModsById(out)
	return out
}
