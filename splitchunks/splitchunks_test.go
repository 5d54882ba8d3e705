package splitchunks

import (
	"sort"
	"testing"

	"bennypowers.dev/rbundle/chunk"
	"bennypowers.dev/rbundle/config"
	"bennypowers.dev/rbundle/graph"
	"bennypowers.dev/rbundle/ids"
)

func addModule(g *graph.Graph, id, resource string, size float64) {
	m := graph.NewMod(ids.ModuleId(id), graph.ModuleTypeJS, resource)
	m.State = graph.BuiltSucceed
	m.OriginalSource = make([]byte, int(size))
	g.AddModule(m)
}

// buildTwoEntriesSharingLodash builds a chunk graph for two entries (a, b)
// that both statically import a shared "node_modules/lodash/index.js"
// module, modelling spec §8 scenario 3.
func buildTwoEntriesSharingLodash(t *testing.T, lodashSize float64) (*chunk.Graph, *graph.Graph, *ids.Interner) {
	t.Helper()
	g := graph.New()

	depA := graph.Dep{Id: "d1", Kind: graph.DepKindStaticImport, Request: "lodash"}
	g.AddDependency(depA)
	g.SetEdge(depA.Id, "lodash", true)
	depB := graph.Dep{Id: "d2", Kind: graph.DepKindStaticImport, Request: "lodash"}
	g.AddDependency(depB)
	g.SetEdge(depB.Id, "lodash", true)

	addModule(g, "a", "a.js", 100)
	aMod, _ := g.ModuleById("a")
	aMod.OutgoingDeps = []graph.Dep{depA}

	addModule(g, "b", "b.js", 100)
	bMod, _ := g.ModuleById("b")
	bMod.OutgoingDeps = []graph.Dep{depB}

	addModule(g, "lodash", "node_modules/lodash/index.js", lodashSize)

	interner := ids.NewInterner("s")
	cg := chunk.Build(g, map[string]ids.ModuleId{"a": "a", "b": "b"}, interner)
	return cg, g, interner
}

func vendorCacheGroup() config.SplitChunksOptions {
	opts := config.DefaultSplitChunksOptions()
	opts.MinSize = 0
	opts.EnforceSizeThreshold = 0
	opts.CacheGroups = map[string]config.CacheGroupOptions{
		"vendors": {
			Name:      "vendors",
			Priority:  -10,
			Test:      `node_modules`,
			Chunks:    config.ChunksAll,
			MinChunks: 1,
		},
	}
	return opts
}

// TestApplyExtractsSharedVendorModuleIntoNewChunk exercises spec §8
// scenario 3: a cache group matching node_modules with minChunks:1 pulls a
// module shared by two entry chunks into a third vendors chunk.
func TestApplyExtractsSharedVendorModuleIntoNewChunk(t *testing.T) {
	cg, mg, interner := buildTwoEntriesSharingLodash(t, 30000)
	opts := vendorCacheGroup()

	warnings := Apply(cg, mg, opts, interner)
	if len(warnings) != 0 {
		t.Fatalf("expected no warnings, got %v", warnings)
	}

	var vendorChunk *chunk.Chunk
	for _, c := range cg.Chunks() {
		if c.Name == "vendors" {
			vendorChunk = c
		}
	}
	if vendorChunk == nil {
		t.Fatalf("expected a vendors chunk to be created")
	}
	members := cg.ModulesOf(vendorChunk.Ukey)
	if len(members) != 1 || members[0] != "lodash" {
		t.Fatalf("expected vendors chunk to hold only lodash, got %v", members)
	}

	for _, name := range []string{"a", "b"} {
		entryUkey := entryChunkUkey(cg, name)
		for _, id := range cg.ModulesOf(entryUkey) {
			if id == "lodash" {
				t.Fatalf("expected lodash moved out of entry chunk %q", name)
			}
		}
	}
}

func entryChunkUkey(cg *chunk.Graph, name string) ids.ChunkUkey {
	for _, c := range cg.Chunks() {
		if c.Name == name {
			return c.Ukey
		}
	}
	return ""
}

// TestApplyIsDeterministicAcrossRepeatedRuns exercises spec §8 P3: running
// Apply twice over equivalent input graphs yields the same chunk shape
// (same vendor chunk membership), independent of map iteration order.
func TestApplyIsDeterministicAcrossRepeatedRuns(t *testing.T) {
	opts := vendorCacheGroup()

	var firstMembers, secondMembers []ids.ModuleId
	for i := 0; i < 2; i++ {
		cg, mg, interner := buildTwoEntriesSharingLodash(t, 30000)
		Apply(cg, mg, opts, interner)
		for _, c := range cg.Chunks() {
			if c.Name == "vendors" {
				members := cg.ModulesOf(c.Ukey)
				if i == 0 {
					firstMembers = members
				} else {
					secondMembers = members
				}
			}
		}
	}
	if len(firstMembers) != len(secondMembers) || len(firstMembers) != 1 || firstMembers[0] != secondMembers[0] {
		t.Fatalf("expected deterministic vendor chunk membership, got %v then %v", firstMembers, secondMembers)
	}
}

// buildTwoEntriesSharingTwoVendorModules builds a chunk graph for two
// entries (a, b) that both statically import two shared node_modules
// modules, so more than one module is available for multiple cache groups
// to contest at once.
func buildTwoEntriesSharingTwoVendorModules(t *testing.T) (*chunk.Graph, *graph.Graph, *ids.Interner) {
	t.Helper()
	g := graph.New()

	depA1 := graph.Dep{Id: "d1", Kind: graph.DepKindStaticImport, Request: "lodash"}
	g.AddDependency(depA1)
	g.SetEdge(depA1.Id, "lodash", true)
	depA2 := graph.Dep{Id: "d2", Kind: graph.DepKindStaticImport, Request: "moment"}
	g.AddDependency(depA2)
	g.SetEdge(depA2.Id, "moment", true)
	depB1 := graph.Dep{Id: "d3", Kind: graph.DepKindStaticImport, Request: "lodash"}
	g.AddDependency(depB1)
	g.SetEdge(depB1.Id, "lodash", true)
	depB2 := graph.Dep{Id: "d4", Kind: graph.DepKindStaticImport, Request: "moment"}
	g.AddDependency(depB2)
	g.SetEdge(depB2.Id, "moment", true)

	addModule(g, "a", "a.js", 100)
	aMod, _ := g.ModuleById("a")
	aMod.OutgoingDeps = []graph.Dep{depA1, depA2}

	addModule(g, "b", "b.js", 100)
	bMod, _ := g.ModuleById("b")
	bMod.OutgoingDeps = []graph.Dep{depB1, depB2}

	addModule(g, "lodash", "node_modules/lodash/index.js", 30000)
	addModule(g, "moment", "node_modules/moment/index.js", 30000)

	interner := ids.NewInterner("s")
	cg := chunk.Build(g, map[string]ids.ModuleId{"a": "a", "b": "b"}, interner)
	return cg, g, interner
}

// TestApplyResolvesContestedModulesDeterministicallyAcrossRuns exercises
// spec §8 P3/P4 together: two cache groups of equal priority both match
// both shared modules, so resolvePriority's tie-break (equal priority,
// equal module count, equal size) falls through to cache-group name
// ordering for every contested module. Before sorting claims/chunks/
// modules by stable id, this outcome depended on map iteration order.
func TestApplyResolvesContestedModulesDeterministicallyAcrossRuns(t *testing.T) {
	opts := config.DefaultSplitChunksOptions()
	opts.MinSize = 0
	opts.EnforceSizeThreshold = 0
	opts.CacheGroups = map[string]config.CacheGroupOptions{
		"beta": {
			Name:      "beta",
			Priority:  0,
			Test:      `node_modules`,
			Chunks:    config.ChunksAll,
			MinChunks: 1,
		},
		"alpha": {
			Name:      "alpha",
			Priority:  0,
			Test:      `node_modules`,
			Chunks:    config.ChunksAll,
			MinChunks: 1,
		},
	}

	for run := 0; run < 3; run++ {
		cg, mg, interner := buildTwoEntriesSharingTwoVendorModules(t)
		Apply(cg, mg, opts, interner)

		var alphaChunk, betaChunk *chunk.Chunk
		for _, c := range cg.Chunks() {
			switch c.Name {
			case "alpha":
				alphaChunk = c
			case "beta":
				betaChunk = c
			}
		}
		if alphaChunk == nil {
			t.Fatalf("run %d: expected alpha to win the tie-break and produce a chunk", run)
		}
		members := cg.ModulesOf(alphaChunk.Ukey)
		sort.Slice(members, func(i, j int) bool { return members[i] < members[j] })
		if len(members) != 2 || members[0] != "lodash" || members[1] != "moment" {
			t.Fatalf("run %d: expected alpha chunk to hold both vendor modules, got %v", run, members)
		}
		if betaChunk != nil {
			t.Fatalf("run %d: expected beta to lose every contested module and be dropped, got a chunk", run)
		}
	}
}

// TestApplyDropsLowerPriorityRuleWhenModulesConflict exercises spec §8 P4:
// when two cache groups both claim a module, the higher-priority group
// wins and the loser either loses the module or is dropped entirely.
func TestApplyDropsLowerPriorityRuleWhenModulesConflict(t *testing.T) {
	cg, mg, interner := buildTwoEntriesSharingLodash(t, 30000)

	opts := config.DefaultSplitChunksOptions()
	opts.MinSize = 0
	opts.EnforceSizeThreshold = 0
	opts.CacheGroups = map[string]config.CacheGroupOptions{
		"low": {
			Name:      "low",
			Priority:  -10,
			Test:      `node_modules`,
			Chunks:    config.ChunksAll,
			MinChunks: 1,
		},
		"high": {
			Name:      "high",
			Priority:  10,
			Test:      `lodash`,
			Chunks:    config.ChunksAll,
			MinChunks: 1,
		},
	}

	Apply(cg, mg, opts, interner)

	var highChunk, lowChunk *chunk.Chunk
	for _, c := range cg.Chunks() {
		switch c.Name {
		case "high":
			highChunk = c
		case "low":
			lowChunk = c
		}
	}
	if highChunk == nil {
		t.Fatalf("expected the higher-priority cache group to win and produce a chunk")
	}
	if members := cg.ModulesOf(highChunk.Ukey); len(members) != 1 || members[0] != "lodash" {
		t.Fatalf("expected high-priority chunk to hold lodash, got %v", members)
	}
	if lowChunk != nil {
		t.Fatalf("expected the low-priority group to be dropped once its only module was claimed, got a chunk")
	}
}

// TestApplyEnforcesMaxInitialRequestsLimit exercises spec §8 P5: a rule that
// would push an entry chunk's request count over maxInitialRequests is
// dropped with a warning instead of applied.
func TestApplyEnforcesMaxInitialRequestsLimit(t *testing.T) {
	cg, mg, interner := buildTwoEntriesSharingLodash(t, 30000)
	opts := vendorCacheGroup()
	opts.MaxInitialRequests = 1 // entry chunk already counts as 1 request; no room for another

	warnings := Apply(cg, mg, opts, interner)
	if len(warnings) == 0 {
		t.Fatalf("expected a dropped-rule warning when maxInitialRequests is exhausted")
	}

	for _, c := range cg.Chunks() {
		if c.Name == "vendors" {
			t.Fatalf("expected no vendors chunk once the request limit forbids it")
		}
	}
}

// TestApplyDropsRuleBelowMinSize exercises the minSize/enforceSizeThreshold
// feasibility gate (spec §4.H step 3): a tiny shared module does not
// warrant its own chunk.
func TestApplyDropsRuleBelowMinSize(t *testing.T) {
	cg, mg, interner := buildTwoEntriesSharingLodash(t, 10)
	opts := vendorCacheGroup()
	opts.MinSize = 20000
	opts.EnforceSizeThreshold = 50000

	warnings := Apply(cg, mg, opts, interner)
	if len(warnings) == 0 {
		t.Fatalf("expected a dropped-rule warning for a module below minSize")
	}
	for _, c := range cg.Chunks() {
		if c.Name == "vendors" {
			t.Fatalf("expected no vendors chunk for a module below minSize")
		}
	}
}

// TestApplyReusesExistingChunkWhenModuleSetsMatch exercises
// ReuseExistingChunk (spec §4.H step 6): when an existing chunk's module
// set exactly matches the provisional, Apply must not create a duplicate.
func TestApplyReusesExistingChunkWhenModuleSetsMatch(t *testing.T) {
	g := graph.New()
	// A dynamic import gives "vendor" its own async chunk containing only
	// that module — an exact match for the cache group's provisional, so
	// ReuseExistingChunk should skip creating a duplicate.
	dep := graph.Dep{Id: "d1", Kind: graph.DepKindDynamicImport, Request: "vendor"}
	g.AddDependency(dep)
	g.SetEdge(dep.Id, "vendor", true)
	addModule(g, "entry", "entry.js", 100)
	em, _ := g.ModuleById("entry")
	em.OutgoingDeps = []graph.Dep{dep}
	addModule(g, "vendor", "node_modules/vendor/index.js", 30000)

	interner := ids.NewInterner("s")
	cg := chunk.Build(g, map[string]ids.ModuleId{"entry": "entry"}, interner)

	beforeCount := len(cg.Chunks())

	opts := vendorCacheGroup()
	opts.CacheGroups["vendors"] = config.CacheGroupOptions{
		Name:               "vendors",
		Priority:           -10,
		Test:               `node_modules`,
		Chunks:             config.ChunksAll,
		MinChunks:          1,
		ReuseExistingChunk: true,
	}

	Apply(cg, g, opts, interner)

	if len(cg.Chunks()) != beforeCount {
		t.Fatalf("expected no new chunk when reusing, had %d chunks, now %d", beforeCount, len(cg.Chunks()))
	}
}
