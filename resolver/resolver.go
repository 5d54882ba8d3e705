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

// Package resolver defines the request-resolution contract FactorizeTask
// consumes (spec §6 "Resolver factory") and ships one concrete, filesystem
// backed implementation so the core is testable end to end without a host
// binding.
package resolver

import (
	"errors"

	"bennypowers.dev/rbundle/config"
)

// ErrNotFound is returned when a request cannot be resolved to a resource.
var ErrNotFound = errors.New("resolver: request not found")

// Resource describes a resolved module resource (spec §6 "resolved
// resource descriptor").
type Resource struct {
	Path       string // resolved path, relative to the resolver's root
	ModuleType string // sniffed from extension; overridden by loader config upstream
}

// Resolver resolves a request string against a context directory (spec
// §6). Implementations may consult package.json "exports" maps, tsconfig
// path aliases, etc. — none of that is specified by the core; only the
// contract is.
type Resolver interface {
	Resolve(request, contextDir string, opts config.ResolveOptions) (Resource, error)
}
