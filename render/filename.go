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

import "strings"

// RenderFilename substitutes the `{filename, extension, id, contenthash,
// chunkhash, hash}` set into a `[token]` template (spec §4.I "Output-file
// naming is computed by rendering a filename template with the
// substitution set ..."). Unknown tokens are left untouched so a
// misconfigured template surfaces as a visibly wrong path rather than a
// silently dropped one.
func RenderFilename(template string, data PathData) string {
	replacer := strings.NewReplacer(
		"[name]", data.Filename,
		"[filename]", data.Filename,
		"[ext]", data.Extension,
		"[extension]", data.Extension,
		"[id]", data.Id,
		"[contenthash]", data.ContentHash,
		"[chunkhash]", data.ChunkHash,
		"[hash]", data.Hash,
	)
	return replacer.Replace(template)
}
