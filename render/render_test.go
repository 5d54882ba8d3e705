package render

import (
	"context"
	"strings"
	"testing"

	"bennypowers.dev/rbundle/chunk"
	"bennypowers.dev/rbundle/config"
	"bennypowers.dev/rbundle/graph"
	"bennypowers.dev/rbundle/ids"
)

func addMod(g *graph.Graph, id, resource, code string, outgoing ...graph.Dep) {
	m := graph.NewMod(ids.ModuleId(id), graph.ModuleTypeJS, resource)
	m.State = graph.BuiltSucceed
	m.OutgoingDeps = outgoing
	m.Generated["javascript"] = graph.GeneratedSource{Code: code}
	g.AddModule(m)
}

func link(g *graph.Graph, depId ids.DepId, kind graph.DepKind, target ids.ModuleId) graph.Dep {
	d := graph.Dep{Id: depId, Kind: kind, Request: string(target)}
	g.AddDependency(d)
	g.SetEdge(depId, target, true)
	return d
}

// TestRenderSingleEntryBundleBeginsWithPreludeAndEndsWithBootstrap
// exercises spec §8 scenario 1's render expectation: the Main shape's
// output begins with a runtime prelude and ends with a
// __webpack_require__ bootstrap of the entry module.
func TestRenderSingleEntryBundleBeginsWithPreludeAndEndsWithBootstrap(t *testing.T) {
	g := graph.New()
	dep := link(g, "d1", graph.DepKindStaticImport, "./a.js")
	addMod(g, "./a.js", "a.js", "exports.x = 1;")
	addMod(g, "./entry.js", "entry.js", "require('./a.js');", dep)

	interner := ids.NewInterner("r")
	cg := chunk.Build(g, map[string]ids.ModuleId{"main": "./entry.js"}, interner)

	opts := config.DefaultCompilerOptions()
	opts.Entry = map[string]string{"main": "./entry.js"}

	manifest, err := Render(context.Background(), nil, cg, g, opts, map[string]ids.ModuleId{"main": "./entry.js"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(manifest.Entries) != 1 {
		t.Fatalf("expected 1 asset entry for a single-chunk bundle, got %d", len(manifest.Entries))
	}
	entry := manifest.Entries[0]
	if !strings.HasPrefix(entry.Source, "(function() {") {
		t.Fatalf("expected Main shape to begin with a runtime prelude, got %q", entry.Source[:40])
	}
	if !strings.Contains(entry.Source, `__webpack_require__("./entry.js");`) {
		t.Fatalf("expected bootstrap to require the entry module, got: %s", entry.Source)
	}
	if !strings.HasSuffix(strings.TrimSpace(entry.Source), "})();") {
		t.Fatalf("expected Main shape to end with the IIFE close, got %q", entry.Source[len(entry.Source)-10:])
	}
}

// TestRenderAsyncChildChunkFilenameSubstitutesId exercises spec §8
// scenario 2: the async child chunk's filename is derived from the
// template with [id] substituted.
func TestRenderAsyncChildChunkFilenameSubstitutesId(t *testing.T) {
	g := graph.New()
	dep := link(g, "d1", graph.DepKindDynamicImport, "./n.js")
	addMod(g, "./n.js", "n.js", "exports.n = 1;")
	addMod(g, "./m.js", "m.js", "import('./n.js');", dep)

	interner := ids.NewInterner("r")
	cg := chunk.Build(g, map[string]ids.ModuleId{"main": "./m.js"}, interner)

	opts := config.DefaultCompilerOptions()
	opts.ChunkFilename = "[id].[contenthash].chunk.js"
	opts.Entry = map[string]string{"main": "./m.js"}

	manifest, err := Render(context.Background(), nil, cg, g, opts, map[string]ids.ModuleId{"main": "./m.js"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(manifest.Entries) != 2 {
		t.Fatalf("expected 2 asset entries (parent + async child), got %d", len(manifest.Entries))
	}

	var childChunkUkey ids.ChunkUkey
	for _, c := range cg.Chunks() {
		if c.Kind != chunk.KindEntry {
			childChunkUkey = c.Ukey
		}
	}

	found := false
	for _, e := range manifest.Entries {
		if e.ChunkUkey == childChunkUkey {
			found = true
			if !strings.Contains(e.Filename, string(childChunkUkey)) {
				t.Fatalf("expected child chunk filename to contain its [id], got %q", e.Filename)
			}
			if strings.Contains(e.Filename, "[id]") {
				t.Fatalf("expected [id] token to be substituted, got %q", e.Filename)
			}
		}
	}
	if !found {
		t.Fatalf("expected an asset entry for the async child chunk")
	}
}

// TestRenderFilenameSubstitutesAllTokens exercises the full `{filename,
// extension, id, contenthash, chunkhash, hash}` substitution set (spec
// §4.I).
func TestRenderFilenameSubstitutesAllTokens(t *testing.T) {
	data := PathData{
		Filename:    "main",
		Extension:   ".js",
		Id:          "c1",
		ContentHash: "aaa111",
		ChunkHash:   "bbb222",
		Hash:        "ccc333",
	}
	got := RenderFilename("[name].[id].[contenthash].[chunkhash].[hash][ext]", data)
	want := "main.c1.aaa111.bbb222.ccc333.js"
	if got != want {
		t.Fatalf("got %q, want %q", got, want)
	}
}

// TestRenderChunkHonorsPluginOverride exercises the render_chunk Bail
// hook short-circuiting the built-in JS shapes (spec §4.E discipline 2).
func TestRenderChunkHonorsPluginOverride(t *testing.T) {
	g := graph.New()
	addMod(g, "./entry.js", "entry.js", "noop();")
	interner := ids.NewInterner("r")
	cg := chunk.Build(g, map[string]ids.ModuleId{"main": "./entry.js"}, interner)

	hooks := NewHooks()
	hooks.RenderChunk.Tap(func(ctx context.Context, args RenderChunkArgs) (RenderChunkResult, bool, error) {
		return RenderChunkResult{Source: "/* overridden */"}, true, nil
	})

	opts := config.DefaultCompilerOptions()
	opts.Entry = map[string]string{"main": "./entry.js"}

	manifest, err := Render(context.Background(), hooks, cg, g, opts, map[string]ids.ModuleId{"main": "./entry.js"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if manifest.Entries[0].Source != "/* overridden */" {
		t.Fatalf("expected plugin override to win, got %q", manifest.Entries[0].Source)
	}
}
