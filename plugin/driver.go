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
	"bennypowers.dev/rbundle/codegen"
	"bennypowers.dev/rbundle/diagnostics"
	"bennypowers.dev/rbundle/graph"
)

// FactorizeArgs is passed to the factorize hook: a request about to be
// resolved into a module (spec §4.D FactorizeTask, §4.E "factorize").
type FactorizeArgs struct {
	Request    string
	ContextDir string
	Dep        graph.Dep
}

// FactorizeResult lets a plugin short-circuit resolution entirely (e.g. to
// serve a virtual module), returning the resolved resource path and module
// type instead of delegating to the resolver.
type FactorizeResult struct {
	ResourcePath string
	ModuleType   graph.ModuleType
}

// ModuleArgs is passed to the module hook, which fires once a module has
// been factorized but before AddTask inserts it into the graph (spec §4.D
// AddTask, §4.E "module"). A plugin may replace the module entirely (e.g.
// to serve a mock in tests).
type ModuleArgs struct {
	Mod *graph.Mod
}

// ReadResourceArgs is passed to the read_resource hook (spec §4.E, §5): the
// last chance to supply source bytes before the default filesystem read.
type ReadResourceArgs struct {
	ResourcePath string
}

// CompilationArgs/ThisCompilationArgs/ProcessAssetsArgs/DoneArgs carry the
// shared, mutable compilation state through the Sequential-all lifecycle
// hooks (spec §4.E). The core treats the payload as opaque `any`; it is
// the compiler facade (package bundle) that knows its concrete shape, so
// this package stays free of a dependency on chunk/render.
type CompilationArgs struct{ Compilation any }
type ThisCompilationArgs struct{ Compilation any }
type ProcessAssetsArgs struct{ Compilation any }
type DoneArgs struct{ Stats any }

// Driver is the plugin-facing half of the hook registry: the set of named
// phases that do not require a concrete chunk/render type (those live on
// the render package's own hook set, to avoid a dependency from plugin
// onto chunk/render — see render.Hooks). Grounded on rspack_core's
// PluginDriver, minus its LSP/CLI surface.
type Driver struct {
	Registry    *codegen.Registry
	Diagnostics *diagnostics.Collector

	Factorize       Bail[FactorizeArgs, FactorizeResult]
	Module          Bail[ModuleArgs, *graph.Mod]
	ReadResource    Bail[ReadResourceArgs, []byte]
	Compilation     SequentialAll[CompilationArgs]
	ThisCompilation SequentialAll[ThisCompilationArgs]
	ProcessAssets   SequentialAll[ProcessAssetsArgs]
	Done            SequentialAll[DoneArgs]
}

// NewDriver constructs an empty Driver and applies every plugin in order,
// letting each register codegen builders and tap hooks (spec §4.E: "apply
// is called once per plugin, in configuration order").
func NewDriver(plugins []Plugin) *Driver {
	d := &Driver{
		Registry:    codegen.NewRegistry(),
		Diagnostics: diagnostics.NewCollector(),
	}
	for _, p := range plugins {
		p.Apply(d)
	}
	return d
}

// Plugin is the unit of extension (spec §4.E "plugins register one or more
// hook handlers and/or one parser-and-generator builder per module type
// during apply").
type Plugin interface {
	Apply(d *Driver)
}

// PluginFunc adapts a plain function to Plugin, for the common case of a
// plugin that only registers a codegen builder or taps a single hook.
type PluginFunc func(d *Driver)

func (f PluginFunc) Apply(d *Driver) { f(d) }
