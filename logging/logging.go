package logging

import (
	"io"
	"os"
	"path/filepath"

	"github.com/hashicorp/go-hclog"
	"gopkg.in/natefinch/lumberjack.v2"
)

// Options selects where log output goes.
type Options struct {
	Debug bool
	File  string
	Level string
}

// Logger is an hclog.Logger bound to an optional rotating log file.
type Logger struct {
	hclog.Logger
	closer io.Closer
}

// New builds the application logger. The terminal belongs to the TUI, so
// logs only go to a rotated file, and only when debugging is enabled.
func New(opts Options) (*Logger, error) {
	if !opts.Debug || opts.File == "" {
		return &Logger{Logger: hclog.NewNullLogger()}, nil
	}
	if err := os.MkdirAll(filepath.Dir(opts.File), 0o755); err != nil {
		return nil, err
	}
	file := &lumberjack.Logger{
		Filename:   opts.File,
		MaxSize:    5, // megabytes
		MaxBackups: 3,
		MaxAge:     14, // days
		Compress:   true,
	}
	level := hclog.LevelFromString(opts.Level)
	if level == hclog.NoLevel {
		level = hclog.Debug
	}
	logger := hclog.New(&hclog.LoggerOptions{
		Name:   "movielist",
		Level:  level,
		Output: file,
	})
	return &Logger{Logger: logger, closer: file}, nil
}

func (l *Logger) Close() error {
	if l == nil || l.closer == nil {
		return nil
	}
	return l.closer.Close()
}
