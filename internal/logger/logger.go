// Package logger decouples the engine from a concrete log destination.
// Continuous modes write JSON records to stdout, so diagnostics must
// stay on stderr and stay quiet unless asked for.
package logger

import (
	"fmt"
	"log"
	"os"
)

// Logger is the minimal leveled interface the engine components take.
type Logger interface {
	Debug(format string, args ...any)
	Warn(format string, args ...any)
	Error(format string, args ...any)
}

type envLogger struct {
	prefix string
}

// New returns a stderr logger. Debug output is gated on the
// KIMTEMP_DEBUG environment variable; the prefix tags the component,
// e.g. "[sampler]".
func New(prefix string) Logger {
	return &envLogger{prefix: prefix}
}

func (l *envLogger) Debug(format string, args ...any) {
	if os.Getenv("KIMTEMP_DEBUG") != "" {
		log.Printf(l.prefix+" "+format, args...)
	}
}

func (l *envLogger) Warn(format string, args ...any) {
	log.Printf(l.prefix+" WARN: "+format, args...)
}

func (l *envLogger) Error(format string, args ...any) {
	log.Printf(l.prefix+" ERROR: "+format, args...)
}

type noopLogger struct{}

// Noop discards everything.
func Noop() Logger { return noopLogger{} }

func (noopLogger) Debug(string, ...any) {}
func (noopLogger) Warn(string, ...any)  {}
func (noopLogger) Error(string, ...any) {}

// Entry is one captured message.
type Entry struct {
	Level   string
	Message string
}

// Buffer captures messages for test assertions.
type Buffer struct {
	Entries []Entry
}

// NewBuffer creates a capturing logger.
func NewBuffer() *Buffer { return &Buffer{} }

func (b *Buffer) add(level, format string, args []any) {
	b.Entries = append(b.Entries, Entry{Level: level, Message: fmt.Sprintf(format, args...)})
}

func (b *Buffer) Debug(format string, args ...any) { b.add("debug", format, args) }
func (b *Buffer) Warn(format string, args ...any)  { b.add("warn", format, args) }
func (b *Buffer) Error(format string, args ...any) { b.add("error", format, args) }

// HasLevel reports whether any entry was captured at the given level.
func (b *Buffer) HasLevel(level string) bool {
	for _, e := range b.Entries {
		if e.Level == level {
			return true
		}
	}
	return false
}
