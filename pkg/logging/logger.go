/*
Author: KleaSCM
Email: KleaSCM@gmail.com
File: logger.go
Description: Structured logging for the NFA reduction engine. Provides logrus
loggers with timestamped files, JSON or text output, and field helpers for
reduction and validation runs so experiment output stays machine-parseable.
*/

package logging

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/sirupsen/logrus"
)

// LogLevel represents the logging level
type LogLevel string

const (
	LogLevelDebug   LogLevel = "debug"
	LogLevelInfo    LogLevel = "info"
	LogLevelWarning LogLevel = "warn"
	LogLevelError   LogLevel = "error"
)

// LogFormat represents the logging format
type LogFormat string

const (
	LogFormatJSON LogFormat = "json"
	LogFormatText LogFormat = "text"
)

// LoggerConfig holds the configuration for the logger
type LoggerConfig struct {
	Level     LogLevel  `json:"level"`
	Format    LogFormat `json:"format"`
	OutputDir string    `json:"output_dir"` // empty disables file output
	Colors    bool      `json:"colors"`
}

// Validate checks the LoggerConfig for invalid or missing values.
// Returns an error if the config is invalid, or nil if valid.
func (c *LoggerConfig) Validate() error {
	switch c.Format {
	case LogFormatJSON, LogFormatText:
		// ok
	default:
		return fmt.Errorf("unsupported log format: %s", c.Format)
	}
	switch c.Level {
	case LogLevelDebug, LogLevelInfo, LogLevelWarning, LogLevelError:
		// ok
	default:
		return fmt.Errorf("unsupported log level: %s", c.Level)
	}
	return nil
}

// Logger wraps a configured logrus logger plus its file handle
type Logger struct {
	config     *LoggerConfig
	logger     *logrus.Logger
	fileHandle *os.File
	startTime  time.Time
}

// NewLogger creates a new logger instance
func NewLogger(config *LoggerConfig) (*Logger, error) {
	if config == nil {
		config = &LoggerConfig{
			Level:  LogLevelInfo,
			Format: LogFormatText,
			Colors: true,
		}
	}
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid logger config: %w", err)
	}

	logger := logrus.New()
	level, err := logrus.ParseLevel(string(config.Level))
	if err != nil {
		return nil, fmt.Errorf("invalid log level: %w", err)
	}
	logger.SetLevel(level)

	switch config.Format {
	case LogFormatJSON:
		logger.SetFormatter(&logrus.JSONFormatter{})
	default:
		logger.SetFormatter(&logrus.TextFormatter{
			FullTimestamp: true,
			ForceColors:   config.Colors,
		})
	}

	l := &Logger{
		config:    config,
		logger:    logger,
		startTime: time.Now(),
	}

	if config.OutputDir != "" {
		if err := os.MkdirAll(config.OutputDir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create log directory: %w", err)
		}
		name := fmt.Sprintf("nfareduce_%s.log", time.Now().Format("2006-01-02_15-04-05"))
		f, err := os.Create(filepath.Join(config.OutputDir, name))
		if err != nil {
			return nil, fmt.Errorf("failed to create log file: %w", err)
		}
		l.fileHandle = f
		logger.SetOutput(io.MultiWriter(os.Stderr, f))
	} else {
		logger.SetOutput(os.Stderr)
	}

	return l, nil
}

// Logrus exposes the underlying logrus logger for components that take one
func (l *Logger) Logrus() *logrus.Logger {
	return l.logger
}

// WithReduction returns an entry carrying the reduction run context
func (l *Logger) WithReduction(reductionType string, rate float64) *logrus.Entry {
	return l.logger.WithFields(logrus.Fields{
		"reduction": reductionType,
		"rate":      rate,
	})
}

// WithSource returns an entry carrying a traffic source identifier
func (l *Logger) WithSource(id string) *logrus.Entry {
	return l.logger.WithField("source", id)
}

// Close flushes and closes the log file, if any
func (l *Logger) Close() error {
	l.logger.WithField("uptime", time.Since(l.startTime)).Debug("Logger shutting down")
	if l.fileHandle != nil {
		return l.fileHandle.Close()
	}
	return nil
}
