package log

import (
	"io"
	"log/slog"
	"os"
	"strings"
)

// Level is a log severity
type Level int

const (
	// LevelDebug carries per-task resolution traces
	LevelDebug Level = iota
	// LevelInfo carries run summaries
	LevelInfo
	// LevelWarn carries degraded input that resolution tolerated
	LevelWarn
	// LevelError carries failures
	LevelError
)

var levels = []struct {
	name  string
	slog  slog.Level
	level Level
}{
	{"DEBUG", slog.LevelDebug, LevelDebug},
	{"INFO", slog.LevelInfo, LevelInfo},
	{"WARN", slog.LevelWarn, LevelWarn},
	{"ERROR", slog.LevelError, LevelError},
}

func (l Level) String() string {
	if l < LevelDebug || l > LevelError {
		return "UNKNOWN"
	}
	return levels[l].name
}

// ToSlogLevel maps l onto slog, treating unknown levels as info
func (l Level) ToSlogLevel() slog.Level {
	if l < LevelDebug || l > LevelError {
		return slog.LevelInfo
	}
	return levels[l].slog
}

// ParseLevel reads a level name case-insensitively. "warning" is accepted
// for warn; anything unrecognized is info.
func ParseLevel(s string) Level {
	name := strings.ToUpper(strings.TrimSpace(s))
	if name == "WARNING" {
		return LevelWarn
	}
	for _, l := range levels {
		if l.name == name {
			return l.level
		}
	}
	return LevelInfo
}

// Format selects the slog handler
type Format int

const (
	FormatText Format = iota
	FormatJSON
)

func (f Format) String() string {
	if f == FormatJSON {
		return "json"
	}
	return "text"
}

// ParseFormat returns FormatJSON for "json" and FormatText otherwise
func ParseFormat(s string) Format {
	if strings.EqualFold(strings.TrimSpace(s), "json") {
		return FormatJSON
	}
	return FormatText
}

// Config holds logger settings
type Config struct {
	Level  Level
	Format Format

	// Output defaults to stderr so stdout stays free for reports.
	Output io.Writer

	AddSource bool

	ServiceName    string
	ServiceVersion string
}

// DefaultConfig logs info and above as text to stderr
func DefaultConfig() Config {
	return Config{
		Level:       LevelInfo,
		Format:      FormatText,
		Output:      os.Stderr,
		ServiceName: "flowbind",
	}
}
