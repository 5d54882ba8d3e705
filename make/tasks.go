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
	"context"
	"path"

	"bennypowers.dev/rbundle/diagnostics"
	"bennypowers.dev/rbundle/graph"
	"bennypowers.dev/rbundle/ids"
	"bennypowers.dev/rbundle/plugin"
	"bennypowers.dev/rbundle/taskloop"
)

// FactorizeTask resolves one dependency to a resource and mints (or
// reuses) its ModuleId (spec §4.D "FactorizeTask"). Declared async: both
// the plugin factorize hook and the resolver may perform I/O (spec §5).
type FactorizeTask struct {
	Dep            graph.Dep
	ParentModuleId ids.ModuleId // "" for an entry
}

func (t FactorizeTask) Class() taskloop.Classification { return taskloop.Async }

func (t FactorizeTask) Run(ctx context.Context, mc *Ctx) ([]taskloop.Task[*Ctx], error) {
	contextDir := t.Dep.ContextDir
	if contextDir == "" && t.ParentModuleId != "" {
		if parent, ok := mc.Graph.ModuleById(t.ParentModuleId); ok {
			contextDir = path.Dir(parent.Resource)
		}
	}

	var resourcePath string
	var moduleType graph.ModuleType

	result, ok, err := mc.Driver.Factorize.Call(ctx, plugin.FactorizeArgs{
		Request:    t.Dep.Request,
		ContextDir: contextDir,
		Dep:        t.Dep,
	})
	if err != nil {
		return nil, err
	}
	if ok {
		resourcePath, moduleType = result.ResourcePath, result.ModuleType
	} else {
		res, rerr := mc.Resolver.Resolve(t.Dep.Request, contextDir, mc.Options.Resolve)
		if rerr != nil {
			mc.markFailedDependency(t.Dep.Id)
			mc.Graph.SetEdge(t.Dep.Id, "", false)
			mc.addDiagnostic(diagnostics.Errorf(string(t.ParentModuleId), diagnostics.Span{
				Start: t.Dep.Span.Start, End: t.Dep.Span.End, Line: t.Dep.Span.Line, Col: t.Dep.Span.Col,
			}, "cannot resolve %q: %v", t.Dep.Request, rerr))
			return nil, nil
		}
		resourcePath, moduleType = res.Path, graph.ModuleType(res.ModuleType)
	}

	id := ids.NewModuleId(resourcePath, string(moduleType))

	if existing, ok := mc.Graph.ModuleById(id); ok {
		return []taskloop.Task[*Ctx]{AddTask{ModuleId: id, Mod: nil, Dep: t.Dep, ParentModuleId: t.ParentModuleId, ExistingMod: existing}}, nil
	}

	mod := graph.NewMod(id, moduleType, resourcePath)
	return []taskloop.Task[*Ctx]{AddTask{ModuleId: id, Mod: mod, Dep: t.Dep, ParentModuleId: t.ParentModuleId}}, nil
}

// AddTask inserts a factorized module into the graph and records the edge
// from its issuing dependency (spec §4.D "AddTask").
type AddTask struct {
	ModuleId       ids.ModuleId
	Mod            *graph.Mod // nil when Factorize deduplicated onto an existing module
	Dep            graph.Dep
	ParentModuleId ids.ModuleId

	ExistingMod *graph.Mod // set instead of Mod when Factorize deduplicated onto a resident module
}

func (t AddTask) Class() taskloop.Classification { return taskloop.Sync }

func (t AddTask) Run(ctx context.Context, mc *Ctx) ([]taskloop.Task[*Ctx], error) {
	mod := t.Mod
	isNew := mod != nil

	if isNew {
		result, ok, err := mc.Driver.Module.Call(ctx, plugin.ModuleArgs{Mod: mod})
		if err != nil {
			return nil, err
		}
		if ok && result != nil {
			mod = result
		}
		mc.Graph.AddModule(mod)
		mc.hasModuleGraphChange.Store(true)
	} else {
		mod = t.ExistingMod
	}

	mc.Graph.SetEdge(t.Dep.Id, t.ModuleId, true)
	if t.ParentModuleId == "" {
		mc.markEntryModule(t.ModuleId)
	}

	if mod.State != graph.Unbuilt {
		return nil, nil
	}
	mod.State = graph.Building
	return []taskloop.Task[*Ctx]{BuildTask{ModuleId: t.ModuleId}}, nil
}

// BuildTask reads a module's resource, consults the build cache, and
// invokes its codegen frontend's Parse (spec §4.D "BuildTask"). Runs on
// the worker pool: parse/transform is CPU-bound (spec §5).
type BuildTask struct {
	ModuleId ids.ModuleId
}

func (t BuildTask) Class() taskloop.Classification { return taskloop.Parallel }

func (t BuildTask) Run(ctx context.Context, mc *Ctx) ([]taskloop.Task[*Ctx], error) {
	mod, ok := mc.Graph.ModuleById(t.ModuleId)
	if !ok {
		return nil, nil
	}

	key := Key(mod.Resource, string(mod.Type), mc.Options.Hash())
	if entry, hit := mc.Cache.Get(key); hit {
		mod.OriginalSource = entry.OriginalSource
		mod.OutgoingDeps = entry.Deps
		mod.Diagnostics = append(mod.Diagnostics, entry.Diagnostics...)
		mod.BuildMeta = entry.BuildMeta
		mod.State = graph.BuiltSucceed
		mc.addFileDependency(mod.Resource)
		return []taskloop.Task[*Ctx]{ProcessDependenciesTask{ModuleId: t.ModuleId}}, nil
	}

	source, err := mc.readResource(ctx, mod.Resource)
	if err != nil {
		diag := diagnostics.Errorf(string(mod.Id), diagnostics.Span{}, "failed to read %q: %v", mod.Resource, err)
		mod.MarkBuildFailed(diag)
		mc.markFailedModule(t.ModuleId)
		mc.addDiagnostic(diag)
		return nil, nil
	}

	pg, found := mc.Driver.Registry.For(mod.Type)
	if !found {
		diag := diagnostics.Errorf(string(mod.Id), diagnostics.Span{}, "no parser/generator registered for module type %q", mod.Type)
		mod.MarkBuildFailed(diag)
		mc.markFailedModule(t.ModuleId)
		mc.addDiagnostic(diag)
		return nil, nil
	}

	if perr := pg.Parse(ctx, mod, source); perr != nil {
		diag := diagnostics.Errorf(string(mod.Id), diagnostics.Span{}, "build failed: %v", perr)
		mod.MarkBuildFailed(diag)
		mc.markFailedModule(t.ModuleId)
		mc.addDiagnostic(diag)
		return nil, nil
	}

	mod.State = graph.BuiltSucceed
	if mod.Size == nil {
		mod.Size = map[string]float64{}
	}
	for _, st := range pg.SourceTypes() {
		mod.Size[st] = pg.Size(mod, st)
	}
	mod.BuildInfo.FileDependencies = append(mod.BuildInfo.FileDependencies, mod.Resource)
	mc.addFileDependency(mod.Resource)

	mc.Cache.Put(key, CacheEntry{
		OriginalSource: mod.OriginalSource,
		Deps:           mod.OutgoingDeps,
		Diagnostics:    mod.Diagnostics,
		BuildMeta:      mod.BuildMeta,
	})

	return []taskloop.Task[*Ctx]{ProcessDependenciesTask{ModuleId: t.ModuleId}}, nil
}

func (mc *Ctx) readResource(ctx context.Context, resourcePath string) ([]byte, error) {
	source, ok, err := mc.Driver.ReadResource.Call(ctx, plugin.ReadResourceArgs{ResourcePath: resourcePath})
	if err != nil {
		return nil, err
	}
	if ok {
		return source, nil
	}
	return mc.ReadFile(resourcePath)
}

// ProcessDependenciesTask spawns one FactorizeTask per newly discovered
// outgoing dependency of a built module (spec §4.D
// "ProcessDependenciesTask").
type ProcessDependenciesTask struct {
	ModuleId ids.ModuleId
}

func (t ProcessDependenciesTask) Class() taskloop.Classification { return taskloop.Parallel }

func (t ProcessDependenciesTask) Run(ctx context.Context, mc *Ctx) ([]taskloop.Task[*Ctx], error) {
	mod, ok := mc.Graph.ModuleById(t.ModuleId)
	if !ok || mod.State != graph.BuiltSucceed {
		return nil, nil
	}

	var out []taskloop.Task[*Ctx]
	for i := range mod.OutgoingDeps {
		dep := mod.OutgoingDeps[i]
		if !mc.tryClaim(t.ModuleId, dep.Request) {
			continue
		}
		dep.Id = mc.Interner.NextDepId()
		dep.Issuer = t.ModuleId
		mod.OutgoingDeps[i] = dep
		mc.Graph.AddDependency(dep)
		out = append(out, FactorizeTask{Dep: dep, ParentModuleId: t.ModuleId})
	}
	return out, nil
}
