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

	"bennypowers.dev/rbundle/config"
	"bennypowers.dev/rbundle/ids"
	"bennypowers.dev/rbundle/internal/logging"
	"bennypowers.dev/rbundle/plugin"
	"bennypowers.dev/rbundle/resolver"
	"bennypowers.dev/rbundle/taskloop"
)

// Run drives one make cycle: it overlays prev.Graph with a fresh partial
// view, factorizes every build dependency that still names a live parent
// (or is an entry), runs the Factorize/Add/Build/ProcessDependencies task
// family to a fixed point, and — on success — commits the overlay and
// returns the resulting Artifact (spec §4.D, grounded on rspack_core's
// compiler/make/repair/mod.rs `repair` entrypoint).
//
// On a fatal error the overlay is discarded: prev is returned unchanged
// alongside the error, matching spec §7's "Fatal: ... the in-flight make
// cycle aborts and the prior Artifact remains authoritative."
func Run(ctx context.Context, prev *Artifact, buildDeps []BuildDependency, opts *config.CompilerOptions, res resolver.Resolver, driver *plugin.Driver, interner *ids.Interner, readFile func(string) ([]byte, error), loopOpts taskloop.Options) (*Artifact, error) {
	partial := prev.Graph.NewPartial()
	cache := NewBuildCache(0)
	mc := NewCtx(opts, res, driver, interner, cache, partial, readFile)

	initial := make([]taskloop.Task[*Ctx], 0, len(buildDeps))
	for _, bd := range buildDeps {
		dep, known := partial.DependencyById(bd.DepId)
		if !known {
			continue
		}
		if !dep.AsModuleDep() {
			continue
		}
		if bd.ParentModuleId != "" {
			if _, ok := partial.ModuleById(bd.ParentModuleId); !ok {
				// Parent module no longer resident: this build-dependency is
				// stale (spec §4.D "Incrementality" — build-deps whose
				// parent module doesn't exist in the carried-forward graph
				// are dropped, not resolved).
				continue
			}
		}
		initial = append(initial, FactorizeTask{Dep: dep, ParentModuleId: bd.ParentModuleId})
	}

	logging.Debug("make: starting cycle with %d seeded build-dependencies", len(initial))

	if err := taskloop.Run(ctx, mc, initial, loopOpts); err != nil {
		logging.Error("make: cycle aborted: %v", err)
		return prev, err
	}

	merged := partial.Commit()

	failedDeps, failedMods, entries, fileDeps, ctxDeps, missingDeps, buildDepSet := mc.snapshot()

	if len(failedDeps) > 0 || len(failedMods) > 0 {
		logging.Warning("make: cycle committed with %d failed dependencies, %d failed modules", len(failedDeps), len(failedMods))
	}

	return &Artifact{
		Graph:                merged,
		FailedDependencies:   failedDeps,
		FailedModules:        failedMods,
		Diagnostics:          driver.Diagnostics.Take(),
		EntryModuleIds:       entries,
		FileDependencies:     fileDeps,
		ContextDependencies:  ctxDeps,
		MissingDependencies:  missingDeps,
		BuildDependencies:    buildDepSet,
		HasModuleGraphChange: mc.hasModuleGraphChange.Load(),
	}, nil
}
