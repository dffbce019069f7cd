package logger

import (
	"fmt"
	"log/slog"

	"starter-server/confs"
)

// New builds the Logger described by settings.
func New(settings *confs.LoggerSettings) (Logger, error) {
	if err := settings.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	switch settings.LogType {
	case confs.LogTypeConsole:
		return NewConsoleLogger(settings.LogLevel), nil
	case confs.LogTypeFile:
		return NewFileLogger(settings.LogLevel, settings.FilePath, settings.MaxSize, settings.MaxBackups, settings.MaxAge), nil
	default:
		return nil, fmt.Errorf("unsupported log type: %s", settings.LogType)
	}
}

func parseLevel(level string) slog.Level {
	switch level {
	case confs.LogLevelDebug:
		return slog.LevelDebug
	case confs.LogLevelInfo:
		return slog.LevelInfo
	case confs.LogLevelWarning:
		return slog.LevelWarn
	case confs.LogLevelError:
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

func formatArgs(args ...interface{}) string {
	if len(args) == 0 {
		return ""
	}
	return fmt.Sprint(args...)
}
