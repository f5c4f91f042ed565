package logger

import (
	"os"

	"gitlab.com/renderfarm.net/internal/adapter/logging"
)

// Logger is the process logger. cmd replaces it once the configuration is
// read.
var Logger = logging.NewZapLogger(os.Getenv("DEBUG_MODE") == "true")

func Info(msg string, args ...interface{}) {
	Logger.Info(msg, args...)
}

func Error(msg string, args ...interface{}) {
	Logger.Error(msg, args...)
}

func Debug(msg string, args ...interface{}) {
	Logger.Debug(msg, args...)
}

func Warn(msg string, args ...interface{}) {
	Logger.Warn(msg, args...)
}
