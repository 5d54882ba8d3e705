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

package plugin

import (
	"github.com/evanw/esbuild/pkg/api"

	"bennypowers.dev/rbundle/codegen"
	"bennypowers.dev/rbundle/graph"
)

// DefaultCodegenPlugin registers the built-in ParserAndGenerator for every
// module type the core ships with. Host applications normally list this
// first, before any plugin that wants to override a module type's frontend
// (registration order is "last Register wins", spec §4.F).
func DefaultCodegenPlugin(target api.Target) Plugin {
	return PluginFunc(func(d *Driver) {
		js := codegen.JSGenerator{Target: target}
		d.Registry.Register(graph.ModuleTypeJS, func() codegen.ParserAndGenerator { return js })
		d.Registry.Register(graph.ModuleTypeTS, func() codegen.ParserAndGenerator { return js })
		d.Registry.Register(graph.ModuleTypeJSX, func() codegen.ParserAndGenerator { return js })
		d.Registry.Register(graph.ModuleTypeTSX, func() codegen.ParserAndGenerator { return js })
		d.Registry.Register(graph.ModuleTypeCSS, func() codegen.ParserAndGenerator { return codegen.CSSGenerator{} })
		d.Registry.Register(graph.ModuleTypeWasmAsync, func() codegen.ParserAndGenerator { return codegen.WasmAsyncGenerator{} })
		d.Registry.Register(graph.ModuleTypeAsset, func() codegen.ParserAndGenerator { return codegen.AssetGenerator{} })
	})
}
