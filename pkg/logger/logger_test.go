package logger

import (
	"bytes"
	"encoding/json"
	"errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestSlogLogger_LogLevel(t *testing.T) {
	l := NewNop()

	for _, level := range []string{"trace", "debug", "info", "warn", "error", "critical", "fatal"} {
		l.SetLogLevel(level)
		assert.Equal(t, level, l.GetLogLevel())
	}

	l.SetLogLevel("loud")
	assert.Equal(t, "info", l.GetLogLevel())
}

func TestSlogLogger_FiltersByLevel(t *testing.T) {
	var buf bytes.Buffer
	l := NewWithOptions(Options{Stdout: &buf})
	l.SetLogLevel("warn")

	l.Debug("hidden debug")
	l.Info("hidden info")
	l.Warn("shown warn")
	l.Error("shown error", errors.New("boom"), "key", "value")

	out := buf.String()
	assert.NotContains(t, out, "hidden")
	assert.Contains(t, out, "shown warn")
	assert.Contains(t, out, "error=boom")
	assert.Contains(t, out, "key=value")
}

func TestSlogLogger_CustomLevelNames(t *testing.T) {
	var buf bytes.Buffer
	l := NewWithOptions(Options{Stdout: &buf})
	l.SetLogLevel("trace")

	l.Trace("tiny")
	l.Critical("huge", nil)

	out := buf.String()
	assert.Contains(t, out, "level=TRACE")
	assert.Contains(t, out, "level=CRITICAL")
}

func TestSlogLogger_FileSink(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bot.log")
	l := NewWithOptions(Options{FilePath: path})

	l.Info("to file", "channel", "chan")

	raw, err := os.ReadFile(path)
	require.NoError(t, err)

	line := strings.TrimSpace(string(raw))
	var rec map[string]any
	require.NoError(t, json.Unmarshal([]byte(line), &rec))
	assert.Equal(t, "to file", rec["msg"])
	assert.Equal(t, "chan", rec["channel"])
	assert.Equal(t, "INFO", rec["level"])
}

func TestPrefixedLogger(t *testing.T) {
	var buf bytes.Buffer
	inner := NewWithOptions(Options{Stdout: &buf})
	l := NewPrefixedLogger(inner, "conn 1234")

	l.Info("connected")
	l.Error("read failed", errors.New("eof"))

	out := buf.String()
	assert.Contains(t, out, `msg="[conn 1234] connected"`)
	assert.Contains(t, out, `msg="[conn 1234] read failed"`)

	l.SetLogLevel("error")
	assert.Equal(t, "error", inner.GetLogLevel())
}

func TestPrefixedLogger_With(t *testing.T) {
	var buf bytes.Buffer
	inner := NewWithOptions(Options{Stdout: &buf})
	base := NewPrefixedLogger(inner, "conn 1234")
	l := base.With("connection", "1234-full-id")

	l.Warn("read failed", "bytes", 3)
	base.Info("plain")

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 2)
	assert.Contains(t, lines[0], "bytes=3 connection=1234-full-id")
	assert.NotContains(t, lines[1], "connection=")
}

func TestPrefixedLogger_Nested(t *testing.T) {
	var buf bytes.Buffer
	l := NewPrefixedLogger(NewPrefixedLogger(NewWithOptions(Options{Stdout: &buf}), "irc"), "conn 1234")

	l.Info("connected")
	assert.Contains(t, buf.String(), `msg="[irc] [conn 1234] connected"`)
}

func TestPrefixedLogger_EmptyPrefix(t *testing.T) {
	var buf bytes.Buffer
	l := NewPrefixedLogger(NewWithOptions(Options{Stdout: &buf}), "")

	l.Info("bare")
	assert.Contains(t, buf.String(), "msg=bare")
}
