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

package logging

import "fmt"

// Buffer accumulates log lines produced by a single worker goroutine of
// the task loop's parallel pool. Workers must never write to the global
// Logger directly while in flight — concurrent writes interleave lines
// from unrelated tasks and break P3's determinism guarantee for any
// output that embeds logs. Instead each task gets its own Buffer, and the
// loop flushes buffers to the global Logger in the order tasks were
// dispatched once the parallel phase joins (grounded on the teacher's
// generate/parallel.go: ModuleBatchProcessor collects one *LogCtx per job
// and the caller emits them in job order after wg.Wait()).
type Buffer struct {
	lines []line
}

type line struct {
	level Level
	msg   string
}

func NewBuffer() *Buffer { return &Buffer{} }

func (b *Buffer) Debugf(format string, args ...any)   { b.add(LevelDebug, format, args...) }
func (b *Buffer) Infof(format string, args ...any)    { b.add(LevelInfo, format, args...) }
func (b *Buffer) Warningf(format string, args ...any) { b.add(LevelWarning, format, args...) }
func (b *Buffer) Errorf(format string, args ...any)   { b.add(LevelError, format, args...) }

func (b *Buffer) add(level Level, format string, args ...any) {
	b.lines = append(b.lines, line{level: level, msg: fmt.Sprintf(format, args...)})
}

// FlushTo replays every buffered line, in recorded order, to l.
func (b *Buffer) FlushTo(l *Logger) {
	for _, ln := range b.lines {
		switch ln.level {
		case LevelDebug:
			l.Debug("%s", ln.msg)
		case LevelInfo:
			l.Info("%s", ln.msg)
		case LevelWarning:
			l.Warning("%s", ln.msg)
		case LevelError:
			l.Error("%s", ln.msg)
		}
	}
}
