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

// Package taskloop drives a heterogeneous task queue to completion (spec
// §4.C). It is deliberately generic over the shared context type so both
// the make pipeline (package make) and, in principle, any other
// task-shaped phase can reuse the same scheduler.
package taskloop

import "context"

// Classification routes a Task to the right execution model (spec §4.C,
// §5): Sync tasks mutate shared state directly on the loop goroutine,
// Parallel tasks fan out to a bounded worker pool, Async tasks suspend
// cooperatively around I/O/plugin-hook boundaries.
type Classification int

const (
	Sync Classification = iota
	Parallel
	Async
)

func (c Classification) String() string {
	switch c {
	case Sync:
		return "sync"
	case Parallel:
		return "parallel"
	case Async:
		return "async"
	default:
		return "unknown"
	}
}

// Task is one unit of work in the loop. Run may mutate ctx only according
// to its Classification's contract (see Classification docs) and returns
// newly discovered follow-up tasks to enqueue, or a fatal error.
type Task[C any] interface {
	Run(ctx context.Context, tc C) ([]Task[C], error)
	Class() Classification
}

// Func adapts a plain function into a Sync Task, for small glue tasks
// that don't warrant their own type.
type Func[C any] func(ctx context.Context, tc C) ([]Task[C], error)

func (f Func[C]) Run(ctx context.Context, tc C) ([]Task[C], error) { return f(ctx, tc) }
func (f Func[C]) Class() Classification                            { return Sync }
