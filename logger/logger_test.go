package logger

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"starter-server/confs"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWriterLogger_LogsToOutput(t *testing.T) {
	var buf bytes.Buffer
	l := newWriterLogger(&buf, confs.LogLevelInfo, false)

	l.Debug("debug message")
	l.Info("info message")
	l.Warn("warn message")
	l.Error("error message")

	output := buf.String()
	assert.NotContains(t, output, "debug message")
	assert.Contains(t, output, "info message")
	assert.Contains(t, output, "warn message")
	assert.Contains(t, output, "error message")
}

func TestWriterLogger_JSON(t *testing.T) {
	var buf bytes.Buffer
	l := newWriterLogger(&buf, confs.LogLevelDebug, true)
	l.Debug("user ", "42", " signed in")

	assert.Contains(t, buf.String(), `"msg":"user 42 signed in"`)
	assert.Contains(t, buf.String(), `"level":"DEBUG"`)
}

func TestWriterLogger_Panic(t *testing.T) {
	l := newWriterLogger(&bytes.Buffer{}, confs.LogLevelInfo, false)
	assert.PanicsWithValue(t, "boom", func() { l.Panic("boom") })
}

func TestNew(t *testing.T) {
	tests := []struct {
		name     string
		settings *confs.LoggerSettings
		wantErr  bool
	}{
		{
			name:     "console logger",
			settings: &confs.LoggerSettings{LogLevel: confs.LogLevelInfo, LogType: confs.LogTypeConsole},
		},
		{
			name: "file logger with rotation",
			settings: &confs.LoggerSettings{
				LogLevel: confs.LogLevelInfo, LogType: confs.LogTypeFile,
				FilePath: filepath.Join(t.TempDir(), "app.log"), MaxSize: 10, MaxBackups: 3, MaxAge: 28,
			},
		},
		{
			name:     "invalid log level",
			settings: &confs.LoggerSettings{LogLevel: "invalid", LogType: confs.LogTypeConsole},
			wantErr:  true,
		},
		{
			name:     "unsupported log type",
			settings: &confs.LoggerSettings{LogLevel: confs.LogLevelInfo, LogType: "syslog"},
			wantErr:  true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			l, err := New(tt.settings)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			require.NotPanics(t, func() { l.Info("test") })
		})
	}
}

func TestFileLogger_WritesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "server.log")
	l := NewFileLogger(confs.LogLevelInfo, path, 1, 1, 1)
	l.Info("persisted line")

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "persisted line")
}
