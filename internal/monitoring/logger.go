package monitoring

import (
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"gopkg.in/natefinch/lumberjack.v2"
)

// Rotation defaults for the log file.
const (
	DefaultFileMaxSizeMB  = 10
	DefaultFileMaxBackups = 5
)

// Logging output formats.
const (
	FormatJSON    = "json"
	FormatConsole = "console"
)

// Config selects level, format and destination of the process logger.
type Config struct {
	// Level is one of trace, debug, info, warn, error, disabled. Default info.
	Level string
	// Format is json or console. Default console.
	Format string
	// Caller adds file:line to every entry.
	Caller bool
	// Output defaults to os.Stderr.
	Output io.Writer
	// File, when set, also receives every entry as JSON lines. The file is
	// rotated at FileMaxSizeMB keeping FileMaxBackups old copies.
	File           string
	FileMaxSizeMB  int
	FileMaxBackups int
}

var (
	mu      sync.RWMutex
	logger  = newLogger(Config{}, nil)
	logFile io.Closer
)

// Init reconfigures the process logger. It may be called more than once.
func Init(cfg Config) error {
	if cfg.Level != "" {
		if _, err := parseLevel(cfg.Level); err != nil {
			return err
		}
	}
	switch strings.ToLower(cfg.Format) {
	case "", FormatJSON, FormatConsole:
	default:
		return fmt.Errorf("unknown log format %q (want %s or %s)", cfg.Format, FormatJSON, FormatConsole)
	}

	var file *lumberjack.Logger
	if cfg.File != "" {
		file = &lumberjack.Logger{
			Filename:   cfg.File,
			MaxSize:    orDefault(cfg.FileMaxSizeMB, DefaultFileMaxSizeMB),
			MaxBackups: orDefault(cfg.FileMaxBackups, DefaultFileMaxBackups),
		}
	}

	l := newLogger(cfg, file)
	mu.Lock()
	prev := logFile
	logger = l
	logFile = nil
	if file != nil {
		logFile = file
	}
	mu.Unlock()
	if prev != nil {
		return prev.Close()
	}
	return nil
}

// Close flushes and closes the log file, if any. The process logger keeps
// writing to its console output.
func Close() error {
	mu.Lock()
	f := logFile
	logFile = nil
	mu.Unlock()
	if f == nil {
		return nil
	}
	return f.Close()
}

func orDefault(v, def int) int {
	if v <= 0 {
		return def
	}
	return v
}

func newLogger(cfg Config, file io.Writer) zerolog.Logger {
	out := cfg.Output
	if out == nil {
		out = os.Stderr
	}
	if !strings.EqualFold(cfg.Format, FormatJSON) {
		out = zerolog.ConsoleWriter{Out: out, TimeFormat: time.TimeOnly, NoColor: cfg.Output != nil}
	}
	if file != nil {
		out = zerolog.MultiLevelWriter(out, file)
	}
	level, err := parseLevel(cfg.Level)
	if err != nil {
		level = zerolog.InfoLevel
	}
	ctx := zerolog.New(out).Level(level).With().Timestamp()
	if cfg.Caller {
		ctx = ctx.Caller()
	}
	return ctx.Logger()
}

func parseLevel(s string) (zerolog.Level, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "":
		return zerolog.InfoLevel, nil
	case "warning":
		return zerolog.WarnLevel, nil
	}
	level, err := zerolog.ParseLevel(strings.ToLower(strings.TrimSpace(s)))
	if err != nil {
		return zerolog.InfoLevel, fmt.Errorf("unknown log level %q: %w", s, err)
	}
	return level, nil
}

// Logger returns the process logger for structured entries.
func Logger() *zerolog.Logger {
	mu.RLock()
	l := logger
	mu.RUnlock()
	return &l
}

// Logf is the package-level diagnostic logger. It writes info-level
// entries to the process logger but may be replaced by SetLogger. Tests or
// production code can redirect or mute it.
var Logf func(format string, v ...interface{}) = infof

func infof(format string, v ...interface{}) {
	Logger().Info().Msgf(format, v...)
}

// SetLogger replaces the package logger. Passing nil will set a no-op logger.
func SetLogger(f func(format string, v ...interface{})) {
	if f == nil {
		Logf = func(string, ...interface{}) {}
		return
	}
	Logf = f
}
