package make

import (
	"context"
	"testing"
	"testing/fstest"

	"bennypowers.dev/rbundle/config"
	"bennypowers.dev/rbundle/ids"
	"bennypowers.dev/rbundle/plugin"
	"bennypowers.dev/rbundle/resolver"
	"bennypowers.dev/rbundle/taskloop"
)

func newTestDriver() *plugin.Driver {
	return plugin.NewDriver([]plugin.Plugin{plugin.DefaultCodegenPlugin(0)})
}

func readFileFor(fsys fstest.MapFS) func(string) ([]byte, error) {
	return func(p string) ([]byte, error) {
		f, err := fsys.Open(p)
		if err != nil {
			return nil, err
		}
		defer f.Close()
		info, err := f.Stat()
		if err != nil {
			return nil, err
		}
		buf := make([]byte, info.Size())
		_, err = f.Read(buf)
		return buf, err
	}
}

// TestRunBuildsSingleEntryBundleClosure exercises spec §8 P1 (graph
// closure) and scenario 1 (single-entry bundle): every transitively
// reachable module from an entry ends up resident and built.
func TestRunBuildsSingleEntryBundleClosure(t *testing.T) {
	fsys := fstest.MapFS{
		"entry.js": {Data: []byte(`import './a.js'; import './b.js';`)},
		"a.js":     {Data: []byte(`import './b.js';`)},
		"b.js":     {Data: []byte(`export const b = 1;`)},
	}

	opts := config.DefaultCompilerOptions()
	opts.Entry = map[string]string{"main": "./entry.js"}
	res := resolver.NewFSResolver(fsys)
	driver := newTestDriver()
	interner := ids.NewInterner("t")

	prev := Empty()
	buildDeps := SeedEntryDependencies(prev.Graph, opts.Entry, interner)

	artifact, err := Run(context.Background(), prev, buildDeps, opts, res, driver, interner, readFileFor(fsys), taskloop.Options{})
	if err != nil {
		t.Fatalf("unexpected fatal error: %v", err)
	}
	if len(artifact.FailedDependencies) != 0 {
		t.Fatalf("expected no failed dependencies, got %v", artifact.FailedDependencies)
	}

	ids := artifact.Graph.AllModuleIds()
	if len(ids) != 3 {
		t.Fatalf("expected 3 resident modules (entry, a, b), got %d: %v", len(ids), ids)
	}
	for _, id := range ids {
		mod, ok := artifact.Graph.ModuleById(id)
		if !ok {
			t.Fatalf("module %q vanished from committed graph", id)
		}
		if mod.State.String() != "built-succeed" {
			t.Fatalf("module %q expected built-succeed, got %s", id, mod.State)
		}
	}
	if len(artifact.EntryModuleIds) != 1 {
		t.Fatalf("expected exactly 1 entry module, got %d", len(artifact.EntryModuleIds))
	}
}

// TestRunIsIdempotentOnAnAlreadyBuiltGraph exercises spec §8 P2: running
// make again over its own output (no new build-dependencies) performs no
// work and returns an artifact equivalent in membership to the input.
func TestRunIsIdempotentOnAnAlreadyBuiltGraph(t *testing.T) {
	fsys := fstest.MapFS{
		"entry.js": {Data: []byte(`import './a.js';`)},
		"a.js":     {Data: []byte(`export const a = 1;`)},
	}
	opts := config.DefaultCompilerOptions()
	opts.Entry = map[string]string{"main": "./entry.js"}
	res := resolver.NewFSResolver(fsys)
	driver := newTestDriver()
	interner := ids.NewInterner("t")

	prev := Empty()
	buildDeps := SeedEntryDependencies(prev.Graph, opts.Entry, interner)
	first, err := Run(context.Background(), prev, buildDeps, opts, res, driver, interner, readFileFor(fsys), taskloop.Options{})
	if err != nil {
		t.Fatalf("unexpected fatal error on first run: %v", err)
	}

	second, err := Run(context.Background(), first, nil, opts, res, driver, interner, readFileFor(fsys), taskloop.Options{})
	if err != nil {
		t.Fatalf("unexpected fatal error on second run: %v", err)
	}

	firstIds := first.Graph.AllModuleIds()
	secondIds := second.Graph.AllModuleIds()
	if len(firstIds) != len(secondIds) {
		t.Fatalf("expected idempotent module set, got %v then %v", firstIds, secondIds)
	}
}

// TestRunRecordsResolutionFailureWithoutAborting exercises spec §8
// scenario 4: an unresolvable request is recorded as a recoverable
// diagnostic + failed dependency, and sibling dependencies still build.
func TestRunRecordsResolutionFailureWithoutAborting(t *testing.T) {
	fsys := fstest.MapFS{
		"entry.js": {Data: []byte(`import './missing.js'; import './ok.js';`)},
		"ok.js":    {Data: []byte(`export const ok = 1;`)},
	}
	opts := config.DefaultCompilerOptions()
	opts.Entry = map[string]string{"main": "./entry.js"}
	res := resolver.NewFSResolver(fsys)
	driver := newTestDriver()
	interner := ids.NewInterner("t")

	prev := Empty()
	buildDeps := SeedEntryDependencies(prev.Graph, opts.Entry, interner)

	artifact, err := Run(context.Background(), prev, buildDeps, opts, res, driver, interner, readFileFor(fsys), taskloop.Options{})
	if err != nil {
		t.Fatalf("resolution failure must be recoverable, not fatal: %v", err)
	}
	if len(artifact.FailedDependencies) != 1 {
		t.Fatalf("expected exactly 1 failed dependency, got %d", len(artifact.FailedDependencies))
	}
	if len(artifact.Diagnostics) == 0 {
		t.Fatalf("expected a diagnostic recorded for the resolution failure")
	}

	foundOK := false
	for _, id := range artifact.Graph.AllModuleIds() {
		mod, _ := artifact.Graph.ModuleById(id)
		if mod.Resource == "ok.js" {
			foundOK = true
			if mod.State.String() != "built-succeed" {
				t.Fatalf("sibling module should still build despite unrelated resolution failure")
			}
		}
	}
	if !foundOK {
		t.Fatalf("expected ok.js to be resident and built")
	}
}

// TestRunIncrementalRebuildReusesCachedModules exercises spec §8 scenario
// 5: rebuilding from a prior Artifact with an unchanged build-dependency
// set must not fail and must preserve the previously built module.
func TestRunIncrementalRebuildReusesCachedModules(t *testing.T) {
	fsys := fstest.MapFS{
		"entry.js": {Data: []byte(`import './a.js';`)},
		"a.js":     {Data: []byte(`export const a = 1;`)},
	}
	opts := config.DefaultCompilerOptions()
	opts.Entry = map[string]string{"main": "./entry.js"}
	res := resolver.NewFSResolver(fsys)
	driver := newTestDriver()
	interner := ids.NewInterner("t")

	prev := Empty()
	buildDeps := SeedEntryDependencies(prev.Graph, opts.Entry, interner)
	first, err := Run(context.Background(), prev, buildDeps, opts, res, driver, interner, readFileFor(fsys), taskloop.Options{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	var entryId ids.ModuleId
	for id := range first.EntryModuleIds {
		entryId = id
	}
	entryDepId := buildDeps[0].DepId

	rebuildDeps := []BuildDependency{{DepId: entryDepId, ParentModuleId: ""}}
	second, err := Run(context.Background(), first, rebuildDeps, opts, res, driver, interner, readFileFor(fsys), taskloop.Options{})
	if err != nil {
		t.Fatalf("unexpected error on incremental rebuild: %v", err)
	}
	mod, ok := second.Graph.ModuleById(entryId)
	if !ok || mod.State.String() != "built-succeed" {
		t.Fatalf("expected entry module to remain resident and built after incremental rebuild")
	}
}
