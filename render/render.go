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
	"context"
	"fmt"
	"path"
	"runtime"
	"sort"

	"golang.org/x/sync/errgroup"

	"bennypowers.dev/rbundle/chunk"
	"bennypowers.dev/rbundle/config"
	"bennypowers.dev/rbundle/graph"
	"bennypowers.dev/rbundle/ids"
)

// Render produces a full Manifest from a finished chunk graph (spec
// §4.I). Each chunk's render work — the built-in JS shape (honoring a
// render_chunk override), its content hash, and its render_manifest
// contributions — is independent of every other chunk once the chunk
// graph is finalized, so the per-chunk work fans out across an
// errgroup.Group and joins into a pre-sized slice before being flattened
// into the Manifest in stable chunk order (spec §4.H "module iteration
// order is by stable identifier" extends naturally to chunk order here).
func Render(ctx context.Context, hooks *Hooks, cg *chunk.Graph, mg *graph.Graph, opts *config.CompilerOptions, entries map[string]ids.ModuleId) (*Manifest, error) {
	chunks := cg.Chunks()
	sort.Slice(chunks, func(i, j int) bool { return chunks[i].Ukey < chunks[j].Ukey })

	perChunk := make([][]AssetEntry, len(chunks))

	eg, egCtx := errgroup.WithContext(ctx)
	eg.SetLimit(runtime.NumCPU())

	for i, c := range chunks {
		i, c := i, c
		eg.Go(func() error {
			chunkEntries, err := renderOneChunk(egCtx, hooks, cg, mg, opts, c, entries)
			if err != nil {
				return err
			}
			perChunk[i] = chunkEntries
			return nil
		})
	}

	if err := eg.Wait(); err != nil {
		return nil, err
	}

	m := &Manifest{}
	for _, chunkEntries := range perChunk {
		m.Entries = append(m.Entries, chunkEntries...)
	}
	return m, nil
}

// renderOneChunk renders a single chunk's asset entries: the built-in JS
// shape (or a plugin's render_chunk override), its content hash, its
// templated filename, and any extra entries render_manifest contributes.
func renderOneChunk(ctx context.Context, hooks *Hooks, cg *chunk.Graph, mg *graph.Graph, opts *config.CompilerOptions, c *chunk.Chunk, entries map[string]ids.ModuleId) ([]AssetEntry, error) {
	entryId := ""
	if c.Kind == chunk.KindEntry {
		if id, ok := entries[c.Name]; ok {
			entryId = string(id)
		}
	}

	source, err := RenderChunk(ctx, hooks, cg, mg, opts, c, entryId)
	if err != nil {
		return nil, fmt.Errorf("render chunk %q: %w", c.Id, err)
	}

	contentHash, err := ContentHashOf(ctx, hooks, c, source)
	if err != nil {
		return nil, fmt.Errorf("content hash chunk %q: %w", c.Id, err)
	}

	template := opts.ChunkFilename
	if c.Kind == chunk.KindEntry {
		template = opts.Filename
	}

	data := PathData{
		Filename:    c.Name,
		Extension:   ".js",
		Id:          c.Id,
		ContentHash: contentHash,
		ChunkHash:   contentHash,
		Hash:        contentHash,
	}
	filename := path.Join(opts.OutputPath, RenderFilename(template, data))

	out := []AssetEntry{{
		ChunkUkey: c.Ukey,
		Filename:  filename,
		Source:    source,
		Info: AssetInfo{
			ContentHash: contentHash,
			ChunkHash:   contentHash,
			Hash:        contentHash,
		},
		PathData: data,
	}}

	if hooks != nil && hooks.RenderManifest.Len() > 0 {
		mods := chunkModules(cg, mg, c.Ukey)
		extra, err := hooks.RenderManifest.Call(ctx, RenderManifestArgs{Chunk: c, Modules: mods, PathData: data})
		if err != nil {
			return nil, fmt.Errorf("render_manifest chunk %q: %w", c.Id, err)
		}
		out = append(out, extra...)
	}

	return out, nil
}
