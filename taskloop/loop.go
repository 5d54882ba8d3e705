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

package taskloop

import (
	"context"
	"runtime"

	"bennypowers.dev/rbundle/internal/logging"
)

// Options configures the loop's concurrency model.
type Options struct {
	// MaxWorkers bounds concurrently-running Parallel/Async tasks.
	// Zero means runtime.NumCPU().
	MaxWorkers int
}

func (o Options) maxWorkers() int {
	if o.MaxWorkers > 0 {
		return o.MaxWorkers
	}
	return runtime.NumCPU()
}

type result[C any] struct {
	tasks []Task[C]
	err   error
}

// Run drains queue (seeded with initial) to completion, dispatching each
// task per its Classification (spec §4.C):
//
//   - Sync tasks execute inline on the calling goroutine, mutating tc
//     directly.
//   - Parallel and Async tasks run on a bounded worker pool; results are
//     merged back into the main queue once the loop has no immediately
//     runnable Sync work, preserving FIFO order among the tasks spawned
//     by any single parent (spec §4.C "Ordering guarantees").
//
// The first fatal error wins: once set, the loop stops dispatching new
// tasks but lets in-flight work finish (and discards its results) before
// returning (spec §4.C "Cancellation").
func Run[C any](ctx context.Context, tc C, initial []Task[C], opts Options) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	sem := make(chan struct{}, opts.maxWorkers())
	results := make(chan result[C])

	queue := append([]Task[C](nil), initial...)
	inflight := 0
	var fatal error

	// buffers holds one entry per spawned Parallel/Async task, in dispatch
	// order. Workers log into their own Buffer rather than the shared
	// Logger directly, since completions race in over results and direct
	// concurrent writes would interleave lines from unrelated tasks,
	// breaking P3's determinism guarantee for anything that embeds this
	// output; buffers are flushed to the global Logger in dispatch order
	// once the loop finishes (grounded on generate/parallel.go's
	// per-worker log-collect-then-replay-in-order shape).
	var buffers []*logging.Buffer

	fail := func(err error) {
		if fatal == nil {
			fatal = err
			logging.Error("task loop aborting: %v", err)
			cancel()
		}
	}

	spawn := func(t Task[C]) {
		inflight++
		buf := logging.NewBuffer()
		buffers = append(buffers, buf)
		go func() {
			sem <- struct{}{}
			defer func() { <-sem }()
			tasks, err := t.Run(ctx, tc)
			if err != nil {
				buf.Errorf("task failed: %v", err)
			}
			results <- result[C]{tasks: tasks, err: err}
		}()
	}

	for len(queue) > 0 || inflight > 0 {
		if fatal != nil {
			// Drain: let in-flight tasks finish, discard their output.
			if inflight == 0 {
				break
			}
			<-results
			inflight--
			continue
		}

		if ctx.Err() != nil {
			fail(ctx.Err())
			continue
		}

		if len(queue) == 0 {
			r := <-results
			inflight--
			if r.err != nil {
				fail(r.err)
				continue
			}
			queue = append(queue, r.tasks...)
			continue
		}

		t := queue[0]
		queue = queue[1:]

		switch t.Class() {
		case Sync:
			tasks, err := t.Run(ctx, tc)
			if err != nil {
				fail(err)
				continue
			}
			queue = append(queue, tasks...)
		case Parallel, Async:
			spawn(t)
		}
	}

	for _, buf := range buffers {
		buf.FlushTo(logging.Global())
	}

	return fatal
}
