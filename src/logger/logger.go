package logger

import (
	"fmt"
	"log"
	"os"

	"prop-backend/src/models"
)

// -----------------------------------------------------------------------------

type level int

const (
	levelDebug level = iota
	levelInfo
	levelWarning
	levelError
)

// Logger provides named, leveled logging for one component.
type Logger struct {
	name     string
	logger   *log.Logger
	minLevel level
}

// -----------------------------------------------------------------------------

// NewLogger creates a new Logger instance. The minimum level comes from the
// config's log_level; a nil config defaults to INFO.
func NewLogger(config *models.MConfig, name string) *Logger {
	min := levelInfo
	if config != nil {
		switch config.LogLevel {
		case "DEBUG":
			min = levelDebug
		case "WARNING":
			min = levelWarning
		case "ERROR":
			min = levelError
		}
	}
	return &Logger{
		name:     name,
		logger:   log.New(os.Stdout, "", log.LstdFlags),
		minLevel: min,
	}
}

// -----------------------------------------------------------------------------

// Debug logs debug messages
func (l *Logger) Debug(format string, args ...interface{}) {
	l.emit(levelDebug, "DEBUG", format, args...)
}

// -----------------------------------------------------------------------------

// Info logs informational messages
func (l *Logger) Info(format string, args ...interface{}) {
	l.emit(levelInfo, "INFO", format, args...)
}

// -----------------------------------------------------------------------------

// Warning logs warning messages
func (l *Logger) Warning(format string, args ...interface{}) {
	l.emit(levelWarning, "WARNING", format, args...)
}

// -----------------------------------------------------------------------------

// Error logs error messages
func (l *Logger) Error(format string, args ...interface{}) {
	l.emit(levelError, "ERROR", format, args...)
}

// -----------------------------------------------------------------------------

// Critical logs critical errors and exits the application
func (l *Logger) Critical(format string, args ...interface{}) {
	l.emit(levelError, "CRITICAL", format, args...)
	os.Exit(1)
}

// -----------------------------------------------------------------------------

func (l *Logger) emit(lv level, tag string, format string, args ...interface{}) {
	if lv < l.minLevel {
		return
	}
	msg := fmt.Sprintf(format, args...)
	l.logger.Printf("[%s] %s: %s", l.name, tag, msg)
}
