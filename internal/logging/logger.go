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

// Package logging centralizes the core's log output behind pterm, with a
// quiet mode for tests. Adapted from the teacher's CLI/LSP dual-mode
// logger, minus the LSP transport (the language-server surface is out of
// scope for this module).
package logging

import (
	"fmt"
	"sync"

	"github.com/pterm/pterm"
)

func init() {
	pterm.Info = *pterm.Info.WithPrefix(pterm.Prefix{Text: "INFO", Style: pterm.NewStyle(pterm.FgBlue)}).WithMessageStyle(&pterm.ThemeDefault.DefaultText)
	pterm.Success = *pterm.Success.WithPrefix(pterm.Prefix{Text: "OK", Style: pterm.NewStyle(pterm.FgGreen)}).WithMessageStyle(&pterm.ThemeDefault.DefaultText)
	pterm.Warning = *pterm.Warning.WithPrefix(pterm.Prefix{Text: "WARN", Style: pterm.NewStyle(pterm.FgYellow)}).WithMessageStyle(&pterm.ThemeDefault.DefaultText)
	pterm.Error = *pterm.Error.WithPrefix(pterm.Prefix{Text: "ERROR", Style: pterm.NewStyle(pterm.FgRed)}).WithMessageStyle(&pterm.ThemeDefault.DefaultText)
	pterm.Debug = *pterm.Debug.WithPrefix(pterm.Prefix{Text: "DEBUG", Style: pterm.NewStyle(pterm.FgCyan)}).WithMessageStyle(&pterm.ThemeDefault.DefaultText)
}

// Level is the severity of a log line.
type Level int

const (
	LevelDebug Level = iota
	LevelInfo
	LevelWarning
	LevelError
)

// Logger is safe for concurrent use by the task loop's worker pool.
type Logger struct {
	mu           sync.RWMutex
	quiet        bool
	debugEnabled bool
}

var global = &Logger{}

// Global returns the package-wide logger instance.
func Global() *Logger { return global }

// SetQuiet suppresses Debug/Info/Warning output (but not Error), used by
// tests that assert on stdout/stderr content.
func (l *Logger) SetQuiet(q bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.quiet = q
}

// SetDebugEnabled toggles Debug-level output.
func (l *Logger) SetDebugEnabled(enabled bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.debugEnabled = enabled
}

func (l *Logger) log(level Level, format string, args ...any) {
	l.mu.RLock()
	quiet, debugEnabled := l.quiet, l.debugEnabled
	l.mu.RUnlock()

	if quiet && level != LevelError {
		return
	}
	if level == LevelDebug && !debugEnabled {
		return
	}

	msg := fmt.Sprintf(format, args...)
	switch level {
	case LevelDebug:
		pterm.Debug.Println(msg)
	case LevelInfo:
		pterm.Info.Println(msg)
	case LevelWarning:
		pterm.Warning.Println(msg)
	case LevelError:
		pterm.Error.Println(msg)
	}
}

func (l *Logger) Debug(format string, args ...any)   { l.log(LevelDebug, format, args...) }
func (l *Logger) Info(format string, args ...any)    { l.log(LevelInfo, format, args...) }
func (l *Logger) Warning(format string, args ...any) { l.log(LevelWarning, format, args...) }
func (l *Logger) Error(format string, args ...any)   { l.log(LevelError, format, args...) }

func Debug(format string, args ...any)   { global.Debug(format, args...) }
func Info(format string, args ...any)    { global.Info(format, args...) }
func Warning(format string, args ...any) { global.Warning(format, args...) }
func Error(format string, args ...any)   { global.Error(format, args...) }
func SetQuiet(q bool)                    { global.SetQuiet(q) }
