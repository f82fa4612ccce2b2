// Package logging configures the structured and human-readable loggers
// shared by the engine's internal packages. The mixer thread must never
// call into this package: logging allocates and can block on I/O, both of
// which are forbidden on the real-time path (spec.md §1, §5).
package logging

import (
	"io"
	"log/slog"
	"os"
	"sync"

	"gopkg.in/natefinch/lumberjack.v2"
)

const (
	// LevelTrace is finer than slog.LevelDebug, used for per-callback backend chatter.
	LevelTrace = slog.Level(-8)
)

var levelNames = map[slog.Leveler]string{
	LevelTrace: "TRACE",
}

var (
	mu               sync.Mutex
	structuredLogger *slog.Logger
	textLogger       *slog.Logger
)

// Config controls where and how verbosely the loggers write.
type Config struct {
	// Level is the minimum level emitted by both loggers.
	Level slog.Level
	// FilePath, if non-empty, routes structured output through a rotating
	// lumberjack sink instead of stdout (ALSOFT_LOGFILE equivalent, spec §6).
	FilePath   string
	MaxSizeMB  int
	MaxBackups int
	MaxAgeDays int
}

func replaceLevel(_ []string, a slog.Attr) slog.Attr {
	if a.Key == slog.LevelKey {
		level, _ := a.Value.Any().(slog.Level)
		if name, ok := levelNames[level]; ok {
			a.Value = slog.StringValue(name)
		}
	}
	return a
}

// Init (re)configures the package-level loggers. Safe to call more than
// once; the most recent call wins.
func Init(cfg Config) {
	mu.Lock()
	defer mu.Unlock()

	var structuredWriter io.Writer = os.Stdout
	if cfg.FilePath != "" {
		structuredWriter = &lumberjack.Logger{
			Filename:   cfg.FilePath,
			MaxSize:    orDefault(cfg.MaxSizeMB, 50),
			MaxBackups: orDefault(cfg.MaxBackups, 5),
			MaxAge:     orDefault(cfg.MaxAgeDays, 28),
			Compress:   true,
		}
	}

	structuredLogger = slog.New(slog.NewJSONHandler(structuredWriter, &slog.HandlerOptions{
		Level:       cfg.Level,
		ReplaceAttr: replaceLevel,
	}))
	textLogger = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level:       cfg.Level,
		ReplaceAttr: replaceLevel,
	}))
	slog.SetDefault(structuredLogger)
}

func orDefault(v, def int) int {
	if v <= 0 {
		return def
	}
	return v
}

// Structured returns the JSON logger, initializing a stdout default lazily
// if Init was never called.
func Structured() *slog.Logger {
	mu.Lock()
	defer mu.Unlock()
	if structuredLogger == nil {
		structuredLogger = slog.Default()
	}
	return structuredLogger
}

// HumanReadable returns the text logger, falling back to the default logger.
func HumanReadable() *slog.Logger {
	mu.Lock()
	defer mu.Unlock()
	if textLogger == nil {
		textLogger = slog.Default()
	}
	return textLogger
}

// ForComponent returns a logger scoped with a "component" attribute,
// mirroring the teacher's ForService helper.
func ForComponent(component string) *slog.Logger {
	return Structured().With("component", component)
}
