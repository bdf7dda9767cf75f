package logger

import (
	"sync/atomic"
)

var defLogger atomic.Value

func init() {
	defLogger.Store(loggerBox{New(Options{Level: InfoLevel, Format: FormatAuto})})
}

type loggerBox struct{ Logger }

func Debug(msg string, keysAndValues ...any) {
	GetLogger().Debug(msg, keysAndValues...)
}

func Info(msg string, keysAndValues ...any) {
	GetLogger().Info(msg, keysAndValues...)
}

func Warn(msg string, keysAndValues ...any) {
	GetLogger().Warn(msg, keysAndValues...)
}

func Error(msg string, keysAndValues ...any) {
	GetLogger().Error(msg, keysAndValues...)
}

func Fatal(msg string, keysAndValues ...any) {
	GetLogger().Fatal(msg, keysAndValues...)
}

func SetLevel(level Level) {
	GetLogger().SetLevel(level)
}

// SetDefault replaces the package-level logger.
func SetDefault(l Logger) {
	defLogger.Store(loggerBox{l})
}

func GetLogger() Logger {
	return defLogger.Load().(loggerBox).Logger
}

func With(keyValues ...any) Logger {
	return GetLogger().With(keyValues...)
}
