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

// Package plugin implements the typed hook registry (spec §4.E, §9
// "Plugin hook variance"): every named phase is modeled as its own typed
// registry entry with an explicit invocation discipline, rather than one
// "call all plugins" primitive.
package plugin

import "context"

// SequentialAll invokes every handler in registration order; all must
// succeed (spec §4.E discipline 1: compilation, this_compilation,
// process_assets, done).
type SequentialAll[Args any] struct {
	handlers []func(ctx context.Context, args Args) error
}

// Tap registers a handler. Tap order is invocation order (P6).
func (h *SequentialAll[Args]) Tap(fn func(ctx context.Context, args Args) error) {
	h.handlers = append(h.handlers, fn)
}

// Call runs every handler; the first error aborts the phase (spec §7
// "Sequential-all treats a failure as fatal for the current phase").
func (h *SequentialAll[Args]) Call(ctx context.Context, args Args) error {
	for _, fn := range h.handlers {
		if err := fn(ctx, args); err != nil {
			return err
		}
	}
	return nil
}

// Len reports the number of registered handlers.
func (h *SequentialAll[Args]) Len() int { return len(h.handlers) }

// Bail invokes handlers in order; the first to report ok=true
// short-circuits the rest (spec §4.E discipline 2: factorize, module,
// render_chunk, read_resource).
type Bail[Args any, Result any] struct {
	handlers []func(ctx context.Context, args Args) (Result, bool, error)
}

func (h *Bail[Args, Result]) Tap(fn func(ctx context.Context, args Args) (Result, bool, error)) {
	h.handlers = append(h.handlers, fn)
}

// Call returns the first handler's non-empty result, or ok=false if none
// fired. A handler error is fatal (spec §7 "Bail hooks treat a failure as
// fatal") and also short-circuits remaining handlers.
func (h *Bail[Args, Result]) Call(ctx context.Context, args Args) (Result, bool, error) {
	var zero Result
	for _, fn := range h.handlers {
		res, ok, err := fn(ctx, args)
		if err != nil {
			return zero, false, err
		}
		if ok {
			return res, true, nil
		}
	}
	return zero, false, nil
}

func (h *Bail[Args, Result]) Len() int { return len(h.handlers) }

// Collect invokes every handler and concatenates the zero-or-more items
// each returns (spec §4.E discipline 3: render_manifest).
type Collect[Args any, Item any] struct {
	handlers []func(ctx context.Context, args Args) ([]Item, error)
}

func (h *Collect[Args, Item]) Tap(fn func(ctx context.Context, args Args) ([]Item, error)) {
	h.handlers = append(h.handlers, fn)
}

func (h *Collect[Args, Item]) Call(ctx context.Context, args Args) ([]Item, error) {
	var all []Item
	for _, fn := range h.handlers {
		items, err := fn(ctx, args)
		if err != nil {
			return nil, err
		}
		all = append(all, items...)
	}
	return all, nil
}

func (h *Collect[Args, Item]) Len() int { return len(h.handlers) }
