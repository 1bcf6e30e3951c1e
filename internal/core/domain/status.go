package domain

import "sync"

// StatusFunc receives one human-readable status line per notable step.
// It is called synchronously and must not panic.
type StatusFunc func(message string)

// Emit calls f when it is non-nil.
func (f StatusFunc) Emit(message string) {
	if f != nil {
		f(message)
	}
}

// Serialised returns a StatusFunc that forwards to f one call at a time,
// so that concurrent batch items cannot interleave inside a single call.
func (f StatusFunc) Serialised() StatusFunc {
	if f == nil {
		return func(string) {}
	}
	var mu sync.Mutex
	return func(message string) {
		mu.Lock()
		defer mu.Unlock()
		f(message)
	}
}

// StatusLog is an append-only, concurrency-safe collection of status lines.
type StatusLog struct {
	mu    sync.Mutex
	lines []string
}

// Add appends a line. Its method value satisfies StatusFunc.
func (l *StatusLog) Add(message string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.lines = append(l.lines, message)
}

// Lines returns a copy of the collected lines.
func (l *StatusLog) Lines() []string {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]string, len(l.lines))
	copy(out, l.lines)
	return out
}
