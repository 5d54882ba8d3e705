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

// Package render turns a finished chunk graph into emittable asset
// entries (spec §4.I). It owns its own hook set (RenderChunk,
// RenderManifest, ContentHash) separately from plugin.Driver so that
// package plugin never has to import chunk or render — see Hooks.
package render

import (
	"bennypowers.dev/rbundle/ids"
)

// PathData is the substitution context for a filename template (spec
// §4.I "path-data record for downstream naming").
type PathData struct {
	Filename    string
	Extension   string
	Id          string
	ContentHash string
	ChunkHash   string
	Hash        string
}

// AssetInfo carries the hash triad a render-manifest entry reports
// alongside its bytes (spec §4.I "associated asset info").
type AssetInfo struct {
	ContentHash string
	ChunkHash   string
	Hash        string
}

// AssetEntry is one emitted artifact (spec §6 "Emitted artifacts", §4.I
// "render_manifest collect hook").
type AssetEntry struct {
	ChunkUkey ids.ChunkUkey
	Filename  string // rendered output path
	Source    string
	SourceMap string
	Info      AssetInfo
	PathData  PathData
}

// Manifest is the full set of asset entries produced by one render pass.
type Manifest struct {
	Entries []AssetEntry
}

func (m *Manifest) Add(e AssetEntry) {
	m.Entries = append(m.Entries, e)
}
