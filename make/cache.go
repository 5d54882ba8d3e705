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

package make

import (
	"container/list"
	"sync"

	"bennypowers.dev/rbundle/diagnostics"
	"bennypowers.dev/rbundle/graph"
)

// CacheEntry is what BuildTask persists on a cold build and restores on a
// cache hit — enough to make a cached Mod indistinguishable from a freshly
// built one (spec §8 P8, §6 "Persisted state (cache)").
type CacheEntry struct {
	OriginalSource []byte
	Deps           []graph.Dep
	Diagnostics    []diagnostics.Diagnostic
	BuildMeta      graph.BuildMeta
}

// BuildCache is an in-memory, content-addressed LRU cache over build
// results, keyed by (resource identity, loader fingerprint, options hash)
// the way spec §6 prescribes. The core treats persistence as the caller's
// concern (spec §1 non-goals: "on-disk persistent cache serialization");
// this cache only ever lives for the process's lifetime.
type BuildCache struct {
	mu       sync.Mutex
	capacity int
	order    *list.List
	index    map[string]*list.Element
}

type cacheItem struct {
	key   string
	entry CacheEntry
}

// NewBuildCache returns a BuildCache capped at capacity entries. A
// non-positive capacity disables eviction (size grows unbounded) — useful
// for one-shot builds where process lifetime bounds memory anyway.
func NewBuildCache(capacity int) *BuildCache {
	return &BuildCache{
		capacity: capacity,
		order:    list.New(),
		index:    map[string]*list.Element{},
	}
}

// Key derives the cache key from a module's identity and the compiler
// options fingerprint (spec §4.D BuildTask "consults the shared cache
// keyed by (resource identity, loader pipeline fingerprint, compiler
// options hash)").
func Key(resourcePath string, moduleType string, optionsHash string) string {
	return resourcePath + "\x00" + moduleType + "\x00" + optionsHash
}

func (c *BuildCache) Get(key string) (CacheEntry, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	el, ok := c.index[key]
	if !ok {
		return CacheEntry{}, false
	}
	c.order.MoveToFront(el)
	return el.Value.(*cacheItem).entry, true
}

func (c *BuildCache) Put(key string, entry CacheEntry) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if el, ok := c.index[key]; ok {
		el.Value.(*cacheItem).entry = entry
		c.order.MoveToFront(el)
		return
	}
	el := c.order.PushFront(&cacheItem{key: key, entry: entry})
	c.index[key] = el
	if c.capacity > 0 {
		for c.order.Len() > c.capacity {
			oldest := c.order.Back()
			if oldest == nil {
				break
			}
			c.order.Remove(oldest)
			delete(c.index, oldest.Value.(*cacheItem).key)
		}
	}
}
