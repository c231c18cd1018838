// Package logger holds the process-wide zerolog logger.
//
// Call Init once from main; library code receives a zerolog.Logger through
// its constructor and tags it with a "component" field.
package logger

import (
	"io"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/natefinch/lumberjack"
	"github.com/rs/zerolog"
)

// Options controls logger behaviour at initialisation time.
type Options struct {
	// Level is one of trace, debug, info, warn, error. Anything else means info.
	Level string
	// Pretty switches stdout to the coloured console format. Production
	// deployments keep it off and ship JSON.
	Pretty bool
	// Output replaces os.Stdout, mainly for tests.
	Output io.Writer
	// File adds a size-rotated JSON file next to the primary output.
	File string
	// Service is stamped on every entry.
	Service string
}

// Rotation limits for the File sink.
const (
	fileMaxSizeMB  = 10
	fileMaxBackups = 5
	fileMaxAgeDays = 7
)

var (
	mu       sync.Mutex
	once     sync.Once
	instance *zerolog.Logger
)

// Init builds the logger on the first call and returns it. Later calls ignore
// opts and return the existing logger.
func Init(opts Options) zerolog.Logger {
	once.Do(func() {
		l := build(opts)
		mu.Lock()
		instance = &l
		mu.Unlock()
	})
	return Get()
}

// Get returns the logger built by Init and panics when Init has not run.
func Get() zerolog.Logger {
	mu.Lock()
	defer mu.Unlock()
	if instance == nil {
		panic("logger: Get() called before Init()")
	}
	return *instance
}

// Reset forgets the logger so that tests can call Init again.
func Reset() {
	mu.Lock()
	defer mu.Unlock()
	once = sync.Once{}
	instance = nil
}

func build(opts Options) zerolog.Logger {
	zerolog.TimeFieldFormat = time.RFC3339Nano

	lvl := parseLevel(opts.Level)
	zerolog.SetGlobalLevel(lvl)

	fields := zerolog.New(sink(opts)).Level(lvl).With().Timestamp()
	if opts.Service != "" {
		fields = fields.Str("service", opts.Service)
	}
	return fields.Caller().Logger()
}

func sink(opts Options) io.Writer {
	primary := opts.Output
	if primary == nil {
		primary = os.Stdout
	}
	if opts.Pretty {
		primary = zerolog.ConsoleWriter{Out: primary, TimeFormat: time.RFC3339}
	}
	if opts.File == "" {
		return primary
	}
	return zerolog.MultiLevelWriter(primary, &lumberjack.Logger{
		Filename:   opts.File,
		MaxSize:    fileMaxSizeMB,
		MaxBackups: fileMaxBackups,
		MaxAge:     fileMaxAgeDays,
		Compress:   true,
	})
}

func parseLevel(s string) zerolog.Level {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "warning" {
		s = "warn"
	}
	switch lvl, err := zerolog.ParseLevel(s); {
	case err != nil, s == "", lvl > zerolog.ErrorLevel, lvl < zerolog.TraceLevel:
		return zerolog.InfoLevel
	default:
		return lvl
	}
}
