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

// Package splitchunks mutates a chunk graph to satisfy cache-group rules
// under size and request-count constraints (spec §4.H).
package splitchunks

import (
	"regexp"
	"sort"

	"bennypowers.dev/rbundle/chunk"
	"bennypowers.dev/rbundle/config"
	"bennypowers.dev/rbundle/graph"
	"bennypowers.dev/rbundle/ids"
	"bennypowers.dev/rbundle/internal/logging"
	"bennypowers.dev/rbundle/set"
)

// candidate is one (cache group, module) pairing formed in step 1.
type candidate struct {
	groupName string
	group     config.CacheGroupOptions
	key       string
	moduleId  ids.ModuleId
	chunks    set.Set[ids.ChunkUkey]
}

// provisional is the aggregated split chunk formed in step 2, surviving or
// dropped through steps 3-5.
type provisional struct {
	key       string
	groupName string
	group     config.CacheGroupOptions
	modules   set.Set[ids.ModuleId]
	chunks    set.Set[ids.ChunkUkey]
}

func (p *provisional) totalSize(mg *graph.Graph) float64 {
	var total float64
	for id := range p.modules {
		total += moduleSize(mg, id)
	}
	return total
}

func moduleSize(mg *graph.Graph, id ids.ModuleId) float64 {
	mod, ok := mg.ModuleById(id)
	if !ok {
		return 0
	}
	if len(mod.Size) > 0 {
		var sum float64
		for _, s := range mod.Size {
			sum += s
		}
		return sum
	}
	return float64(len(mod.OriginalSource))
}

// Apply runs the six-step split-chunks algorithm against cg (mutated in
// place) using module data from mg (spec §4.H). Dropped-rule warnings
// are returned as strings (and logged) rather than as errors (spec §7 "Split-chunks
// over-constraint ... degraded: drop lowest-priority rules, emit
// warning, proceed").
func Apply(cg *chunk.Graph, mg *graph.Graph, opts config.SplitChunksOptions, interner *ids.Interner) []string {
	var warnings []string

	candidates := formCandidates(cg, mg, opts)
	provisionals := aggregate(candidates)
	provisionals = feasibilityFilter(cg, provisionals, mg, opts, &warnings)
	provisionals = resolvePriority(provisionals, mg)
	provisionals = enforceLimits(cg, provisionals, opts, &warnings)

	commit(cg, mg, provisionals, interner)

	for _, w := range warnings {
		logging.Warning("split-chunks: %s", w)
	}

	return warnings
}

// formCandidates is step 1: for every module and every cache group whose
// predicate matches, emit a candidate.
func formCandidates(cg *chunk.Graph, mg *graph.Graph, opts config.SplitChunksOptions) []candidate {
	groupNames := make([]string, 0, len(opts.CacheGroups))
	for name := range opts.CacheGroups {
		groupNames = append(groupNames, name)
	}
	sort.Strings(groupNames)

	var out []candidate
	for _, c := range sortedChunks(cg) {
		for _, moduleId := range sortedModulesOf(cg, c.Ukey) {
			mod, ok := mg.ModuleById(moduleId)
			if !ok {
				continue
			}
			for _, name := range groupNames {
				group := opts.CacheGroups[name]
				if !matchesTest(group.Test, mod.Resource) {
					continue
				}
				selected := selectorChunks(cg, moduleId, group.Chunks)
				if len(selected) == 0 {
					continue
				}
				key := name
				if key == "" {
					key = ids.DigestOf(chunkKeyParts(selected)...)
				}
				out = append(out, candidate{
					groupName: name,
					group:     group,
					key:       key,
					moduleId:  moduleId,
					chunks:    selected,
				})
			}
		}
	}
	return out
}

func chunkKeyParts(s set.Set[ids.ChunkUkey]) []string {
	parts := make([]string, 0, len(s))
	for ukey := range s {
		parts = append(parts, string(ukey))
	}
	sort.Strings(parts)
	return parts
}

// sortedChunks returns cg's chunks ordered by stable ukey — cg.Chunks()
// itself ranges a map, and anything that drives minting order (new split
// chunk ukeys, and thus `[id]`-templated output filenames) downstream
// must not depend on map iteration order (spec §4.H "module iteration
// order is by stable identifier", spec.md §8 P3).
func sortedChunks(cg *chunk.Graph) []*chunk.Chunk {
	chunks := cg.Chunks()
	sort.Slice(chunks, func(i, j int) bool { return chunks[i].Ukey < chunks[j].Ukey })
	return chunks
}

// sortedModulesOf is cg.ModulesOf sorted by stable module id, for the same
// reason as sortedChunks.
func sortedModulesOf(cg *chunk.Graph, ukey ids.ChunkUkey) []ids.ModuleId {
	moduleIds := cg.ModulesOf(ukey)
	sort.Slice(moduleIds, func(i, j int) bool { return moduleIds[i] < moduleIds[j] })
	return moduleIds
}

// sortedChunkUkeys returns s's members sorted by stable ukey.
func sortedChunkUkeys(s set.Set[ids.ChunkUkey]) []ids.ChunkUkey {
	out := s.Members()
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// sortedModuleIds returns s's members sorted by stable module id.
func sortedModuleIds(s set.Set[ids.ModuleId]) []ids.ModuleId {
	out := s.Members()
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

func matchesTest(testSrc, resource string) bool {
	if testSrc == "" {
		return true
	}
	re, err := regexp.Compile(testSrc)
	if err != nil {
		return false
	}
	return re.MatchString(resource)
}

func selectorChunks(cg *chunk.Graph, moduleId ids.ModuleId, selector config.ChunkSelector) set.Set[ids.ChunkUkey] {
	out := set.NewSet[ids.ChunkUkey]()
	for _, ukey := range cg.ChunksOf(moduleId) {
		c, ok := cg.Chunk(ukey)
		if !ok {
			continue
		}
		switch selector {
		case config.ChunksInitial:
			if c.Kind == chunk.KindEntry {
				out.Add(ukey)
			}
		case config.ChunksAsync:
			if c.Kind != chunk.KindEntry {
				out.Add(ukey)
			}
		default: // ChunksAll and unset
			out.Add(ukey)
		}
	}
	return out
}

// aggregate is step 2: group candidates by key.
func aggregate(candidates []candidate) []*provisional {
	byKey := map[string]*provisional{}
	var order []string
	for _, c := range candidates {
		p, ok := byKey[c.key]
		if !ok {
			p = &provisional{
				key:       c.key,
				groupName: c.groupName,
				group:     c.group,
				modules:   set.NewSet[ids.ModuleId](),
				chunks:    set.NewSet[ids.ChunkUkey](),
			}
			byKey[c.key] = p
			order = append(order, c.key)
		}
		p.modules.Add(c.moduleId)
		for ukey := range c.chunks {
			p.chunks.Add(ukey)
		}
	}
	out := make([]*provisional, 0, len(order))
	for _, key := range order {
		out = append(out, byKey[key])
	}
	return out
}

// feasibilityFilter is step 3.
func feasibilityFilter(cg *chunk.Graph, provisionals []*provisional, mg *graph.Graph, opts config.SplitChunksOptions, warnings *[]string) []*provisional {
	minChunks := opts.MinChunks
	minSize := opts.MinSize
	enforceThreshold := opts.EnforceSizeThreshold
	minRemaining := opts.MinRemainingSize

	var out []*provisional
	for _, p := range provisionals {
		minC := minChunks
		if p.group.MinChunks > 0 {
			minC = p.group.MinChunks
		}
		if uint32(len(p.chunks)) < minC {
			*warnings = append(*warnings, "split-chunks: dropped "+p.key+": below minChunks")
			continue
		}

		total := p.totalSize(mg)
		if total < minSize && total < enforceThreshold {
			*warnings = append(*warnings, "split-chunks: dropped "+p.key+": below minSize")
			continue
		}

		if minRemaining > 0 && violatesMinRemaining(cg, p, mg, minRemaining) {
			*warnings = append(*warnings, "split-chunks: dropped "+p.key+": would leave a source chunk below minRemainingSize")
			continue
		}

		out = append(out, p)
	}
	return out
}

// violatesMinRemaining reports whether extracting p's modules out of any
// of its source chunks would leave that chunk's remaining module set
// below minRemaining bytes (spec §4.H step 3).
func violatesMinRemaining(cg *chunk.Graph, p *provisional, mg *graph.Graph, minRemaining float64) bool {
	for sourceUkey := range p.chunks {
		var remaining float64
		for _, moduleId := range cg.ModulesOf(sourceUkey) {
			if p.modules.Has(moduleId) {
				continue
			}
			remaining += moduleSize(mg, moduleId)
		}
		if remaining < minRemaining {
			return true
		}
	}
	return false
}

// resolvePriority is step 4: when a module is claimed by more than one
// provisional chunk, keep it only in the highest-priority one.
func resolvePriority(provisionals []*provisional, mg *graph.Graph) []*provisional {
	claims := map[ids.ModuleId][]*provisional{}
	for _, p := range provisionals {
		for _, id := range sortedModuleIds(p.modules) {
			claims[id] = append(claims[id], p)
		}
	}

	claimedIds := make([]ids.ModuleId, 0, len(claims))
	for id := range claims {
		claimedIds = append(claimedIds, id)
	}
	sort.Slice(claimedIds, func(i, j int) bool { return claimedIds[i] < claimedIds[j] })

	for _, moduleId := range claimedIds {
		claimants := claims[moduleId]
		if len(claimants) < 2 {
			continue
		}
		winner := claimants[0]
		for _, c := range claimants[1:] {
			if wins(c, winner, mg) {
				winner = c
			}
		}
		for _, c := range claimants {
			if c != winner {
				delete(c.modules, moduleId)
			}
		}
	}

	var out []*provisional
	for _, p := range provisionals {
		if len(p.modules) > 0 {
			out = append(out, p)
		}
	}
	return out
}

// wins reports whether candidate c should win over the current winner,
// per spec §4.H step 4's tie-break order: priority, then module count,
// then total size, then cache-group name (lexicographic).
func wins(c, winner *provisional, mg *graph.Graph) bool {
	if c.group.Priority != winner.group.Priority {
		return c.group.Priority > winner.group.Priority
	}
	if len(c.modules) != len(winner.modules) {
		return len(c.modules) > len(winner.modules)
	}
	cSize, wSize := c.totalSize(mg), winner.totalSize(mg)
	if cSize != wSize {
		return cSize > wSize
	}
	return c.groupName < winner.groupName
}

// enforceLimits is step 5: drop the lowest-priority provisional affecting
// an over-limit parent until the limit holds.
func enforceLimits(cg *chunk.Graph, provisionals []*provisional, opts config.SplitChunksOptions, warnings *[]string) []*provisional {
	sort.SliceStable(provisionals, func(i, j int) bool {
		return provisionals[i].group.Priority > provisionals[j].group.Priority
	})

	requestsByParent := map[ids.ChunkUkey]int{}
	for _, c := range cg.Chunks() {
		requestsByParent[c.Ukey] = 1
	}

	var kept []*provisional
	for _, p := range provisionals {
		limitOk := true
		for parentUkey := range p.chunks {
			parent, ok := cg.Chunk(parentUkey)
			if !ok {
				continue
			}
			limit := opts.MaxInitialRequests
			if parent.Kind != chunk.KindEntry {
				limit = opts.MaxAsyncRequests
			}
			if limit > 0 && uint32(requestsByParent[parentUkey]+1) > limit {
				limitOk = false
				break
			}
		}
		if !limitOk {
			*warnings = append(*warnings, "split-chunks: dropped "+p.key+": would exceed request limit")
			continue
		}
		for parentUkey := range p.chunks {
			requestsByParent[parentUkey]++
		}
		kept = append(kept, p)
	}
	return kept
}

// commit is step 6: create the new split chunks, move modules out of
// their source chunks, and relink chunk-groups.
func commit(cg *chunk.Graph, mg *graph.Graph, provisionals []*provisional, interner *ids.Interner) {
	for _, p := range provisionals {
		// The chunk's name comes from the cache group's own Name field
		// (spec.md:176 "name:String?"), distinct from the CacheGroups map
		// key used to key the rule itself; fall back to the map key, then
		// to the aggregation key, when Name is unset.
		name := p.group.Name
		if name == "" {
			name = p.groupName
		}
		if name == "" {
			name = p.key
		}
		if p.group.ReuseExistingChunk {
			if reused := findReusable(cg, p); reused != nil {
				continue
			}
		}
		moduleIds := sortedModuleIds(p.modules)
		chunkUkeys := sortedChunkUkeys(p.chunks)
		newChunk := cg.NewSplitChunk(name, moduleIds, chunkUkeys)
		for _, moduleId := range moduleIds {
			for _, sourceUkey := range chunkUkeys {
				cg.MoveModule(moduleId, sourceUkey, newChunk.Ukey)
			}
		}
	}
}

func findReusable(cg *chunk.Graph, p *provisional) *chunk.Chunk {
	for _, ukey := range sortedChunkUkeys(p.chunks) {
		c, ok := cg.Chunk(ukey)
		if !ok {
			continue
		}
		existing := set.NewSet[ids.ModuleId](cg.ModulesOf(ukey)...)
		if len(existing) != len(p.modules) {
			continue
		}
		match := true
		for id := range p.modules {
			if !existing.Has(id) {
				match = false
				break
			}
		}
		if match {
			return c
		}
	}
	return nil
}
