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

// Package diagnostics models the structured, recoverable error/warning
// records the core surfaces to collaborators (spec §6, §7). These never
// panic and never abort a make cycle on their own; fatal conditions are
// plain Go errors (see component J's split from taskloop's fatal path).
package diagnostics

import (
	"fmt"
	"sync"
)

// Severity classifies a Diagnostic.
type Severity int

const (
	SeverityWarning Severity = iota
	SeverityError
)

func (s Severity) String() string {
	if s == SeverityError {
		return "error"
	}
	return "warning"
}

// Span locates a diagnostic in source: a file path plus a byte range.
type Span struct {
	File  string
	Start int
	End   int
	Line  int
	Col   int
}

// Related is a secondary pointer attached to a Diagnostic, e.g. "imported
// from here".
type Related struct {
	Message string
	Span    Span
}

// Diagnostic is a structured, renderable error or warning (spec §6).
type Diagnostic struct {
	Severity Severity
	Module   string // module identifier the diagnostic is attached to, if any
	Span     Span
	Message  string
	Related  []Related
}

func (d Diagnostic) Error() string {
	if d.Span.File != "" {
		return fmt.Sprintf("%s: %s:%d:%d: %s", d.Severity, d.Span.File, d.Line(), d.Col(), d.Message)
	}
	return fmt.Sprintf("%s: %s", d.Severity, d.Message)
}

func (d Diagnostic) Line() int { return d.Span.Line }
func (d Diagnostic) Col() int  { return d.Span.Col }

// Errorf builds an error-severity Diagnostic.
func Errorf(module string, span Span, format string, args ...any) Diagnostic {
	return Diagnostic{Severity: SeverityError, Module: module, Span: span, Message: fmt.Sprintf(format, args...)}
}

// Warnf builds a warning-severity Diagnostic.
func Warnf(module string, span Span, format string, args ...any) Diagnostic {
	return Diagnostic{Severity: SeverityWarning, Module: module, Span: span, Message: fmt.Sprintf(format, args...)}
}

// Collector is a thread-safe diagnostics sink. The plugin driver (component
// E) and the task loop (component C) both append to one shared Collector per
// make cycle (spec §5: "Plugin-driver diagnostics are behind a mutex").
type Collector struct {
	mu   sync.Mutex
	diag []Diagnostic
}

// NewCollector returns an empty Collector.
func NewCollector() *Collector {
	return &Collector{}
}

// Add appends one or more diagnostics.
func (c *Collector) Add(d ...Diagnostic) {
	if len(d) == 0 {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.diag = append(c.diag, d...)
}

// Take drains and returns all collected diagnostics, resetting the
// collector. Mirrors the teacher's drain-on-read accessor pattern
// (grounded on rspack_core's PluginDriver::take_diagnostic).
func (c *Collector) Take() []Diagnostic {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := c.diag
	c.diag = nil
	return out
}

// Snapshot returns a copy without draining.
func (c *Collector) Snapshot() []Diagnostic {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]Diagnostic, len(c.diag))
	copy(out, c.diag)
	return out
}

// HasErrors reports whether any collected diagnostic is error-severity.
func (c *Collector) HasErrors() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, d := range c.diag {
		if d.Severity == SeverityError {
			return true
		}
	}
	return false
}
