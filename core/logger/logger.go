package logger

import (
	"fmt"
	"io"
	"log"
	"strings"
	"sync"

	"github.com/fatih/color"
)

// Level is the severity of a log message.
type Level int

const (
	LevelDebug Level = iota
	LevelWarn
	LevelError
	LevelFatal
	// LevelSilent disables every leveled message, only raw prints get through.
	LevelSilent
)

var levelNames = map[Level]string{
	LevelDebug:  "debug",
	LevelWarn:   "warn",
	LevelError:  "error",
	LevelFatal:  "fatal",
	LevelSilent: "silent",
}

var levelColors = map[Level]*color.Color{
	LevelDebug: color.New(color.FgCyan),
	LevelWarn:  color.New(color.FgYellow, color.Bold),
	LevelError: color.New(color.FgRed, color.Bold),
	LevelFatal: color.New(color.FgMagenta, color.Bold),
}

func (l Level) String() string {
	if name, ok := levelNames[l]; ok {
		return name
	}
	return fmt.Sprintf("level(%d)", int(l))
}

// ParseLevel converts a level name (as used in the configuration) to a Level.
func ParseLevel(name string) (Level, error) {
	for level, levelName := range levelNames {
		if strings.EqualFold(name, levelName) {
			return level, nil
		}
	}
	return LevelSilent, fmt.Errorf("unknown log level %q", name)
}

// Logger writes leveled messages to a single stream.
type Logger struct {
	mu    sync.Mutex
	out   io.Writer
	std   *log.Logger
	level Level
	color bool
}

// New creates a logger writing messages at or above level to w.
func New(w io.Writer, level Level) *Logger {
	return &Logger{
		out:   w,
		std:   log.New(w, "", 0),
		level: level,
	}
}

// Discard returns a logger that drops everything.
func Discard() *Logger {
	return New(io.Discard, LevelSilent)
}

// SetColor toggles coloured level tags.
func (l *Logger) SetColor(enabled bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.color = enabled
}

// SetLevel changes the threshold.
func (l *Logger) SetLevel(level Level) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.level = level
}

// Level returns the current threshold.
func (l *Logger) Level() Level {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.level
}

// Enabled reports whether a message of the given level would be written.
func (l *Logger) Enabled(level Level) bool {
	return level != LevelSilent && level >= l.Level()
}

// Print writes the message as is, regardless of level.
func (l *Logger) Print(args ...interface{}) {
	l.mu.Lock()
	defer l.mu.Unlock()
	fmt.Fprint(l.out, args...)
}

func (l *Logger) logf(level Level, format string, args ...interface{}) {
	if !l.Enabled(level) {
		return
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	tag := strings.ToUpper(level.String())
	if base, ok := levelColors[level]; ok && l.color {
		// The package-wide NoColor guess only looks at stdout.
		c := *base
		c.EnableColor()
		tag = c.Sprint(tag)
	}
	l.std.Printf("%s: %s", tag, fmt.Sprintf(format, args...))
}

func (l *Logger) Debugf(format string, args ...interface{}) { l.logf(LevelDebug, format, args...) }
func (l *Logger) Warnf(format string, args ...interface{})  { l.logf(LevelWarn, format, args...) }
func (l *Logger) Errorf(format string, args ...interface{}) { l.logf(LevelError, format, args...) }
func (l *Logger) Fatalf(format string, args ...interface{}) { l.logf(LevelFatal, format, args...) }
