// Package logger writes didakt's diagnostic lines to stderr.
//
// Warnings are always shown. Debug and info lines, which trace the
// enrichment pipeline step by step, only appear with --verbose.
//
// Status lines shown to the user are a separate channel; see StatusWriter.
package logger

import (
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
)

// Level orders log lines by importance.
type Level int

// Levels, least important first.
const (
	LevelDebug Level = iota
	LevelInfo
	LevelWarn
)

var prefixes = map[Level]string{
	LevelDebug: "[DEBUG] ",
	LevelInfo:  "[INFO] ",
	LevelWarn:  "[WARN] ",
}

var mu sync.Mutex

// Guarded by mu.
var (
	threshold = LevelWarn
	output    = io.Writer(os.Stderr)
)

// SetVerbose lowers the threshold to LevelDebug, or restores LevelWarn.
func SetVerbose(v bool) {
	if v {
		SetLevel(LevelDebug)
		return
	}
	SetLevel(LevelWarn)
}

// SetLevel sets the least important level that is still written.
func SetLevel(l Level) {
	mu.Lock()
	defer mu.Unlock()
	threshold = l
}

// IsVerbose reports whether debug lines are written.
func IsVerbose() bool {
	mu.Lock()
	defer mu.Unlock()
	return threshold <= LevelDebug
}

// SetOutput redirects all log lines; tests pass a buffer.
func SetOutput(w io.Writer) {
	mu.Lock()
	defer mu.Unlock()
	output = w
}

// Debug traces a pipeline step.
func Debug(format string, args ...any) { logf(LevelDebug, format, args...) }

// Info reports progress worth seeing in verbose mode.
func Info(format string, args ...any) { logf(LevelInfo, format, args...) }

// Warn reports a recoverable problem, such as a truncated model answer.
func Warn(format string, args ...any) { logf(LevelWarn, format, args...) }

func logf(l Level, format string, args ...any) {
	mu.Lock()
	defer mu.Unlock()
	if l < threshold {
		return
	}
	fmt.Fprintf(output, prefixes[l]+format+"\n", args...)
}

// StatusWriter returns a status sink that writes each message as one line to w.
// Writes are serialised, so lines from concurrent callers never interleave.
func StatusWriter(w io.Writer) func(message string) {
	var wmu sync.Mutex
	return func(message string) {
		wmu.Lock()
		defer wmu.Unlock()
		fmt.Fprintln(w, strings.TrimRight(message, "\n"))
	}
}
