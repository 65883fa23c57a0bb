package logger

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/sirupsen/logrus"
	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/MOYARU/verid/internal/config"
)

const timestampFormat = "2006-01-02 15:04:05.000"

// Manager owns the process logger and its rotating file, if any.
type Manager struct {
	logger *logrus.Logger
	config config.LogConfig
	rotate *lumberjack.Logger
}

var (
	mu       sync.RWMutex
	instance *Manager
)

// Init builds a logger from cfg and installs it as the package default.
func Init(cfg *config.LogConfig) (*Manager, error) {
	if cfg == nil {
		return nil, errors.New("log config cannot be nil")
	}

	l := logrus.New()
	level, err := logrus.ParseLevel(cfg.Level)
	if err != nil {
		level = logrus.InfoLevel
	}
	l.SetLevel(level)

	if err := setFormatter(l, cfg.Format); err != nil {
		return nil, err
	}
	m := &Manager{logger: l, config: *cfg}
	if err := m.setOutput(cfg); err != nil {
		return nil, err
	}
	l.SetReportCaller(cfg.Caller)

	mu.Lock()
	instance = m
	mu.Unlock()
	return m, nil
}

func setFormatter(l *logrus.Logger, format string) error {
	switch strings.ToLower(format) {
	case "json":
		l.SetFormatter(&logrus.JSONFormatter{
			TimestampFormat: timestampFormat,
			FieldMap: logrus.FieldMap{
				logrus.FieldKeyTime: "timestamp",
				logrus.FieldKeyMsg:  "message",
			},
		})
	case "text", "":
		l.SetFormatter(&logrus.TextFormatter{
			TimestampFormat: timestampFormat,
			FullTimestamp:   true,
		})
	default:
		return fmt.Errorf("unsupported log format: %s", format)
	}
	return nil
}

func (m *Manager) setOutput(cfg *config.LogConfig) error {
	switch strings.ToLower(cfg.Output) {
	case "stdout":
		m.logger.SetOutput(os.Stdout)
	case "stderr", "":
		m.logger.SetOutput(os.Stderr)
	case "file":
		if cfg.FilePath == "" {
			return errors.New("file path is required when output is file")
		}
		if err := os.MkdirAll(filepath.Dir(cfg.FilePath), 0o755); err != nil {
			return fmt.Errorf("failed to create log directory: %w", err)
		}
		m.rotate = &lumberjack.Logger{
			Filename:   cfg.FilePath,
			MaxSize:    cfg.MaxSize,
			MaxBackups: cfg.MaxBackups,
			MaxAge:     cfg.MaxAge,
			Compress:   cfg.Compress,
		}
		var w io.Writer = m.rotate
		if strings.EqualFold(cfg.Level, "debug") {
			w = io.MultiWriter(os.Stderr, m.rotate)
		}
		m.logger.SetOutput(w)
	default:
		return fmt.Errorf("unsupported log output: %s", cfg.Output)
	}
	return nil
}

func (m *Manager) Logger() *logrus.Logger { return m.logger }

func (m *Manager) Config() config.LogConfig { return m.config }

// Close flushes and closes the rotating file when logging to one.
func (m *Manager) Close() error {
	if m.rotate == nil {
		return nil
	}
	return m.rotate.Close()
}

func current() *Manager {
	mu.RLock()
	defer mu.RUnlock()
	return instance
}

var discard = func() *logrus.Logger {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return l
}()

// Entry returns an entry on the installed logger, or one that discards
// everything before Init has run.
func Entry() *logrus.Entry {
	if m := current(); m != nil {
		return logrus.NewEntry(m.logger)
	}
	return logrus.NewEntry(discard)
}

func WithField(key string, value interface{}) *logrus.Entry {
	return Entry().WithField(key, value)
}

func WithFields(fields logrus.Fields) *logrus.Entry {
	return Entry().WithFields(fields)
}

func Debugf(format string, args ...interface{}) {
	if m := current(); m != nil {
		m.logger.Debugf(format, args...)
	}
}

func Infof(format string, args ...interface{}) {
	if m := current(); m != nil {
		m.logger.Infof(format, args...)
	}
}

func Warnf(format string, args ...interface{}) {
	if m := current(); m != nil {
		m.logger.Warnf(format, args...)
	}
}

func Errorf(format string, args ...interface{}) {
	if m := current(); m != nil {
		m.logger.Errorf(format, args...)
	}
}
