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
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"sort"
	"strings"

	"bennypowers.dev/rbundle/chunk"
	"bennypowers.dev/rbundle/config"
	"bennypowers.dev/rbundle/graph"
)

func sortModsById(mods []*graph.Mod) {
	sort.Slice(mods, func(i, j int) bool { return mods[i].Id < mods[j].Id })
}

// moduleEnvelope wraps one module's generated javascript in the
// `function(module, exports, require) { ... }` envelope (spec §4.I
// "Per-module sources are wrapped in a function(module, exports,
// require) envelope"). In eval/source-map devtool mode it instead wraps
// with a per-module eval + sourceURL comment.
func moduleEnvelope(m *graph.Mod, evalMode bool) string {
	src := m.Generated["javascript"].Code
	if src == "" {
		src = string(m.OriginalSource)
	}
	if evalMode {
		escaped := strings.ReplaceAll(src, "\n", "\\n")
		escaped = strings.ReplaceAll(escaped, "'", "\\'")
		return fmt.Sprintf(
			"%q: function(module, exports, require) { eval('%s\\n//# sourceURL=%s'); }",
			string(m.Id), escaped, m.Resource,
		)
	}
	return fmt.Sprintf("%q: function(module, exports, require) {\n%s\n}", string(m.Id), src)
}

// moduleTable concatenates every module's envelope into the object
// literal every JS chunk shape embeds.
func moduleTable(mods []*graph.Mod, evalMode bool) string {
	var b strings.Builder
	b.WriteString("{\n")
	for i, m := range mods {
		if i > 0 {
			b.WriteString(",\n")
		}
		b.WriteString(moduleEnvelope(m, evalMode))
	}
	b.WriteString("\n}")
	return b.String()
}

// RenderMain renders the Main shape: a chunk carrying the runtime (spec
// §4.I "template prelude + runtime modules + module table + entry
// bootstrap, wrapped in an immediately-invoked scope").
func RenderMain(c *chunk.Chunk, mods []*graph.Mod, entryId string, evalMode bool) string {
	var b strings.Builder
	b.WriteString("(function() {\n")
	b.WriteString("var __webpack_modules__ = ")
	b.WriteString(moduleTable(mods, evalMode))
	b.WriteString(";\n")
	b.WriteString("var __webpack_module_cache__ = {};\n")
	b.WriteString("function __webpack_require__(moduleId) {\n")
	b.WriteString("  var cached = __webpack_module_cache__[moduleId];\n")
	b.WriteString("  if (cached !== undefined) { return cached.exports; }\n")
	b.WriteString("  var module = __webpack_module_cache__[moduleId] = { exports: {} };\n")
	b.WriteString("  __webpack_modules__[moduleId](module, module.exports, __webpack_require__);\n")
	b.WriteString("  return module.exports;\n")
	b.WriteString("}\n")
	fmt.Fprintf(&b, "__webpack_require__(%q);\n", entryId)
	b.WriteString("})();")
	return b.String()
}

// RenderWebChildChunk renders the Web child-chunk shape: a push onto the
// global chunk registry array (spec §4.I).
func RenderWebChildChunk(c *chunk.Chunk, mods []*graph.Mod, runtimeGlobal string, bootstrap string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "(%s = %s || []).push([[%q], ", runtimeGlobal, runtimeGlobal, c.Id)
	b.WriteString(moduleTable(mods, false))
	if bootstrap != "" {
		fmt.Fprintf(&b, ", %s", bootstrap)
	}
	b.WriteString("]);")
	return b.String()
}

// RenderNodeChildChunk renders the Node child-chunk shape: an exports
// assignment plus a require of the runtime chunk (spec §4.I).
func RenderNodeChildChunk(c *chunk.Chunk, mods []*graph.Mod, runtimeChunkFilename string) string {
	ids := make([]string, len(mods))
	for i, m := range mods {
		ids[i] = fmt.Sprintf("%q", string(m.Id))
	}
	var b strings.Builder
	fmt.Fprintf(&b, "exports.ids = [%s];\n", strings.Join(ids, ", "))
	b.WriteString("exports.modules = ")
	b.WriteString(moduleTable(mods, false))
	b.WriteString(";\n")
	fmt.Fprintf(&b, "require(%q);", runtimeChunkFilename)
	return b.String()
}

// RenderHotUpdateChunk renders the Hot-update shape (spec §4.I
// "self['hotUpdate'](id, { modules });").
func RenderHotUpdateChunk(c *chunk.Chunk, mods []*graph.Mod) string {
	var b strings.Builder
	fmt.Fprintf(&b, "self['hotUpdate'](%q, ", c.Id)
	b.WriteString(moduleTable(mods, false))
	b.WriteString(");")
	return b.String()
}

// RenderChunk picks the JS shape for c based on its kind and runtime
// ownership, honoring a plugin's render_chunk override when one fires
// (spec §4.I, §4.E discipline 2).
func RenderChunk(ctx context.Context, hooks *Hooks, cg *chunk.Graph, mg *graph.Graph, opts *config.CompilerOptions, c *chunk.Chunk, entryId string) (string, error) {
	mods := chunkModules(cg, mg, c.Ukey)

	if hooks != nil {
		res, ok, err := hooks.RenderChunk.Call(ctx, RenderChunkArgs{Chunk: c, Modules: mods})
		if err != nil {
			return "", err
		}
		if ok {
			return res.Source, nil
		}
	}

	evalMode := opts != nil && opts.Devtool.Eval

	hasRuntime := c.Kind == chunk.KindEntry
	if hasRuntime {
		return RenderMain(c, mods, entryId, evalMode), nil
	}

	switch opts.Target {
	case config.TargetNode:
		return RenderNodeChildChunk(c, mods, "runtime.js"), nil
	default:
		return RenderWebChildChunk(c, mods, "self.webpackChunk", ""), nil
	}
}

// ContentHashOf computes c's content hash from its rendered source plus
// any plugin ContentHash contributions (spec §5 "content_hash" suspension
// point; §4.I "associated asset info (content-hash ...)").
func ContentHashOf(ctx context.Context, hooks *Hooks, c *chunk.Chunk, source string) (string, error) {
	h := sha256.New()
	h.Write([]byte(source))
	if hooks != nil {
		if err := hooks.ContentHash.Call(ctx, ContentHashArgs{Chunk: c, Hash: h}); err != nil {
			return "", err
		}
	}
	return hex.EncodeToString(h.Sum(nil))[:20], nil
}
