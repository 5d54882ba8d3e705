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

// Package bundle is the thin facade wiring components B-J into one call
// (SPEC_FULL.md §13), exercising the whole core end to end without
// constituting a CLI or host-language binding (spec §1 non-goals).
package bundle

import (
	"context"
	"os"

	"bennypowers.dev/rbundle/chunk"
	"bennypowers.dev/rbundle/config"
	"bennypowers.dev/rbundle/ids"
	"bennypowers.dev/rbundle/make"
	"bennypowers.dev/rbundle/plugin"
	"bennypowers.dev/rbundle/render"
	"bennypowers.dev/rbundle/resolver"
	"bennypowers.dev/rbundle/splitchunks"
	"bennypowers.dev/rbundle/taskloop"
)

// Compiler holds the long-lived state a sequence of incremental builds
// shares: the resolver, plugin driver, id interner, and the previous
// Artifact to diff against (spec §4.D "Incrementality").
type Compiler struct {
	Options  *config.CompilerOptions
	Resolver resolver.Resolver
	Driver   *plugin.Driver
	Hooks    *render.Hooks
	Interner *ids.Interner
	ReadFile func(string) ([]byte, error)

	prev      *make.Artifact
	entryDeps map[string]ids.DepId // entry name -> the dep seeded for it
}

// New constructs a Compiler. hooks may be nil to use only the built-in JS
// render shapes with no render_chunk/render_manifest/content_hash plugin
// taps.
func New(opts *config.CompilerOptions, res resolver.Resolver, driver *plugin.Driver, hooks *render.Hooks) *Compiler {
	return &Compiler{
		Options:  opts,
		Resolver: res,
		Driver:   driver,
		Hooks:    hooks,
		Interner: ids.NewInterner("c"),
		ReadFile: os.ReadFile,
		prev:     make.Empty(),
	}
}

// Result is one full compilation's output: the committed make artifact,
// the chunk graph after split-chunks, and the rendered asset manifest.
type Result struct {
	Artifact *make.Artifact
	Chunks   *chunk.Graph
	Manifest *render.Manifest
	Warnings []string
}

// Build runs one complete compilation from c.Options.Entry: make (B+C+D),
// chunking (G), split-chunks (H), and render (I), in that order (spec §2
// "Data flow"). Calling Build again reuses c's previous Artifact as the
// incremental base (spec §4.D), so subsequent calls only re-resolve the
// build-dependencies buildDeps names — pass nil to rebuild everything
// from the seeded entries.
func (c *Compiler) Build(ctx context.Context, buildDeps []make.BuildDependency) (*Result, error) {
	if err := c.Options.Validate(); err != nil {
		return nil, err
	}

	if buildDeps == nil {
		byName := make.SeedEntryDependenciesByName(c.prev.Graph, c.Options.Entry, c.Interner)
		c.entryDeps = make(map[string]ids.DepId, len(byName))
		buildDeps = make([]make.BuildDependency, 0, len(byName))
		for name, bd := range byName {
			c.entryDeps[name] = bd.DepId
			buildDeps = append(buildDeps, bd)
		}
	}

	artifact, err := make.Run(ctx, c.prev, buildDeps, c.Options, c.Resolver, c.Driver, c.Interner, c.ReadFile, taskloop.Options{})
	if err != nil {
		return nil, err
	}
	c.prev = artifact

	entries := c.resolveEntryModules(artifact)

	chunkGraph := chunk.Build(artifact.Graph, entries, c.Interner)

	warnings := splitchunks.Apply(chunkGraph, artifact.Graph, c.Options.SplitChunks, c.Interner)

	manifest, err := render.Render(ctx, c.Hooks, chunkGraph, artifact.Graph, c.Options, entries)
	if err != nil {
		return nil, err
	}

	return &Result{Artifact: artifact, Chunks: chunkGraph, Manifest: manifest, Warnings: warnings}, nil
}

// resolveEntryModules maps every configured entry name to the ModuleId it
// resolved to, by looking up each seeded entry Dep's resolved edge.
func (c *Compiler) resolveEntryModules(artifact *make.Artifact) map[string]ids.ModuleId {
	out := map[string]ids.ModuleId{}
	for name, depId := range c.entryDeps {
		target, resolved, err := artifact.Graph.ResolveDependency(depId)
		if err != nil || !resolved || target == nil {
			continue
		}
		out[name] = target.Id
	}
	return out
}
