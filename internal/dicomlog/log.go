// Package dicomlog provides a process-wide structured logger for this
// module, backed by charmbracelet/log the way the teacher's cmd/radx CLI
// configures its own logger.
package dicomlog

import (
	"os"
	"sync/atomic"

	"github.com/charmbracelet/log"
)

// Level mirrors charmbracelet/log's levels so callers outside this
// package don't need to import it directly.
type Level int32

const (
	DebugLevel Level = Level(log.DebugLevel)
	InfoLevel  Level = Level(log.InfoLevel)
	WarnLevel  Level = Level(log.WarnLevel)
	ErrorLevel Level = Level(log.ErrorLevel)
)

var (
	currentLevel atomic.Int32
	logger       = log.NewWithOptions(os.Stderr, log.Options{
		ReportTimestamp: true,
		TimeFormat:      "15:04:05",
	})
)

func init() {
	currentLevel.Store(int32(InfoLevel))
	logger.SetLevel(log.InfoLevel)
}

// SetLevel atomically updates the process-wide log level. Safe to call
// concurrently with logging from other goroutines (e.g. directory-scan
// workers).
func SetLevel(level Level) {
	currentLevel.Store(int32(level))
	logger.SetLevel(log.Level(level))
}

// GetLevel returns the current process-wide log level.
func GetLevel() Level {
	return Level(currentLevel.Load())
}

// Default returns the shared logger instance.
func Default() *log.Logger {
	return logger
}

func Debug(msg string, keyvals ...interface{}) { logger.Debug(msg, keyvals...) }
func Info(msg string, keyvals ...interface{})  { logger.Info(msg, keyvals...) }
func Warn(msg string, keyvals ...interface{})  { logger.Warn(msg, keyvals...) }
func Error(msg string, keyvals ...interface{}) { logger.Error(msg, keyvals...) }
