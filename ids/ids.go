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

// Package ids provides stable, hashable handles for modules, dependencies,
// chunks and chunk-groups. Every handle is opaque and cheap to clone: all of
// them are backed by a plain string, never a pointer into the graph, so that
// a ModuleId remains valid and comparable after the module it names has been
// rebuilt, removed, or not yet resolved at all.
package ids

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"sync"
)

// ModuleId is a content-derived handle: the resolved resource path plus a
// fingerprint of the loader pipeline that produced it. Equality of ModuleId
// defines module-graph node identity (spec §3).
type ModuleId string

// DepId uniquely identifies one Dep instance. Unlike ModuleId, a DepId is
// minted once per Dep and never recomputed from content, since two textually
// identical dependencies issued from different call sites are distinct
// graph edges.
type DepId string

// ChunkUkey is the unique, never-reused handle for a Chunk. It is distinct
// from the chunk's (possibly renamed, possibly shared) id/name.
type ChunkUkey string

// ChunkGroupUkey is the unique handle for a ChunkGroup.
type ChunkGroupUkey string

// NewModuleId derives a ModuleId from a resolved resource path and a loader
// pipeline fingerprint. Two factorizations that resolve to the same resource
// through the same loader pipeline must yield the same ModuleId so that
// FactorizeTask's deduplication (spec §4.D) is correct.
func NewModuleId(resourcePath, loaderFingerprint string) ModuleId {
	if loaderFingerprint == "" {
		return ModuleId(resourcePath)
	}
	return ModuleId(resourcePath + "|" + loaderFingerprint)
}

// Digest returns a short, deterministic hex digest of the id, used by the
// wasm-async loader stub to name the module's .wasm file.
func (m ModuleId) Digest() string {
	return shortDigest(string(m))
}

func shortDigest(s string) string {
	sum := sha256.Sum256([]byte(s))
	return hex.EncodeToString(sum[:])[:16]
}

// DigestOf computes a deterministic digest over an ordered set of strings.
// Used to key split-chunks candidates by their member chunk set (spec §4.H
// step 1: "deterministic digest of `chunks` when `name` is absent").
func DigestOf(parts ...string) string {
	h := sha256.New()
	for _, p := range parts {
		fmt.Fprintf(h, "%d:%s\x00", len(p), p)
	}
	return hex.EncodeToString(h.Sum(nil))[:16]
}

// Interner hands out DepId values for newly created dependencies. It is
// safe for concurrent use: FactorizeTask and ProcessDependenciesTask mint
// ids from worker goroutines of the task loop (spec §5).
type Interner struct {
	mu      sync.Mutex
	counter uint64
	prefix  string
}

// NewInterner creates an Interner whose minted ids are prefixed, purely to
// aid debugging output (e.g. distinguishing entry-synthesized deps from
// scanner-discovered ones).
func NewInterner(prefix string) *Interner {
	return &Interner{prefix: prefix}
}

// NextDepId mints a new, process-unique DepId.
func (in *Interner) NextDepId() DepId {
	in.mu.Lock()
	defer in.mu.Unlock()
	in.counter++
	return DepId(fmt.Sprintf("%s%d", in.prefix, in.counter))
}

// NextChunkUkey mints a new, process-unique ChunkUkey.
func (in *Interner) NextChunkUkey() ChunkUkey {
	in.mu.Lock()
	defer in.mu.Unlock()
	in.counter++
	return ChunkUkey(fmt.Sprintf("%schunk-%d", in.prefix, in.counter))
}

// NextChunkGroupUkey mints a new, process-unique ChunkGroupUkey.
func (in *Interner) NextChunkGroupUkey() ChunkGroupUkey {
	in.mu.Lock()
	defer in.mu.Unlock()
	in.counter++
	return ChunkGroupUkey(fmt.Sprintf("%scgroup-%d", in.prefix, in.counter))
}
