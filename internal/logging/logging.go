package logging

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/sirupsen/logrus"
)

// DefaultFile is the log file used by the file sink when no path is given.
const DefaultFile = "cfddnsd.log"

// Config holds configuration for log output.
type Config struct {
	Sink   string // "console" (default), "file" or "both"
	File   string // Path used by the file sinks
	Level  string // logrus level name, default "info"
	Format string // "text" (default) or "json"
}

// New builds a logger for cfg.
// The returned closer releases the log file, if one was opened, and is never nil.
func New(cfg Config) (*logrus.Logger, io.Closer, error) {
	l := logrus.New()

	level := logrus.InfoLevel
	if cfg.Level != "" {
		var err error
		if level, err = logrus.ParseLevel(cfg.Level); err != nil {
			return nil, nil, fmt.Errorf("log level: %w", err)
		}
	}
	l.SetLevel(level)

	switch strings.ToLower(cfg.Format) {
	case "", "text":
		l.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	case "json":
		l.SetFormatter(&logrus.JSONFormatter{})
	default:
		return nil, nil, fmt.Errorf("unknown log format %q (want text|json)", cfg.Format)
	}

	var closer io.Closer = nopCloser{}
	switch strings.ToLower(cfg.Sink) {
	case "", "console":
		l.SetOutput(os.Stderr)
	case "file", "both":
		f, err := openLogFile(cfg.File)
		if err != nil {
			return nil, nil, err
		}
		closer = f
		if strings.EqualFold(cfg.Sink, "both") {
			l.SetOutput(io.MultiWriter(os.Stderr, f))
		} else {
			l.SetOutput(f)
		}
	default:
		return nil, nil, fmt.Errorf("unknown log sink %q (want console|file|both)", cfg.Sink)
	}
	return l, closer, nil
}

func openLogFile(path string) (*os.File, error) {
	if path == "" {
		path = DefaultFile
	}
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("creating log directory %q: %w", dir, err)
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return nil, fmt.Errorf("opening log file %q: %w", path, err)
	}
	return f, nil
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }
