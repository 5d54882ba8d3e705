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

package resolver

import (
	"io/fs"
	"path"
	"strings"

	"github.com/bmatcuk/doublestar/v4"

	"bennypowers.dev/rbundle/config"
)

// FSResolver resolves relative requests against an fs.FS root, trying
// each configured extension and main-file name in turn, the way Node's
// CommonJS/ESM resolution algorithm does. It does not resolve bare
// specifiers (npm packages) — those require a package manager's
// node_modules layout, out of scope for the core (spec §6 treats the
// resolver purely as a collaborator contract).
type FSResolver struct {
	FS fs.FS
}

// NewFSResolver returns a Resolver backed by root.
func NewFSResolver(root fs.FS) *FSResolver {
	return &FSResolver{FS: root}
}

func (r *FSResolver) Resolve(request, contextDir string, opts config.ResolveOptions) (Resource, error) {
	if isBareSpecifier(request) {
		return Resource{}, ErrNotFound
	}

	joined := path.Clean(path.Join(contextDir, request))
	joined = strings.TrimPrefix(joined, "/")

	if candidate, ok := r.tryFile(joined, opts.Exclude); ok {
		return candidate, nil
	}
	for _, ext := range opts.Extensions {
		if candidate, ok := r.tryFile(joined+ext, opts.Exclude); ok {
			return candidate, nil
		}
	}
	for _, main := range opts.MainFiles {
		for _, ext := range opts.Extensions {
			candidate := path.Join(joined, main+ext)
			if c, ok := r.tryFile(candidate, opts.Exclude); ok {
				return c, nil
			}
		}
	}
	return Resource{}, ErrNotFound
}

func (r *FSResolver) tryFile(p string, exclude []string) (Resource, bool) {
	if matchesAnyGlob(exclude, p) {
		return Resource{}, false
	}
	info, err := fs.Stat(r.FS, p)
	if err != nil || info.IsDir() {
		return Resource{}, false
	}
	return Resource{Path: p, ModuleType: moduleTypeForExt(path.Ext(p))}, true
}

// matchesAnyGlob reports whether p matches any of patterns, each a
// doublestar glob (spec §6 "resolve" collaborator contract leaves
// exclusion matching implementation-defined).
func matchesAnyGlob(patterns []string, p string) bool {
	for _, pattern := range patterns {
		if ok, err := doublestar.Match(pattern, p); err == nil && ok {
			return true
		}
	}
	return false
}

func isBareSpecifier(request string) bool {
	if strings.HasPrefix(request, "./") || strings.HasPrefix(request, "../") || strings.HasPrefix(request, "/") {
		return false
	}
	return true
}

func moduleTypeForExt(ext string) string {
	switch ext {
	case ".ts":
		return "typescript"
	case ".tsx":
		return "tsx"
	case ".jsx":
		return "jsx"
	case ".css":
		return "css"
	case ".wasm":
		return "wasm-async"
	case ".js", ".mjs", ".cjs":
		return "javascript"
	default:
		return "asset"
	}
}
