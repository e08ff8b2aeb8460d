package logging

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"strings"
	"testing"

	"github.com/cockroachdb/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLevelFromVerbosity(t *testing.T) {
	assert.Equal(t, slog.LevelWarn, LevelFromVerbosity(0))
	assert.Equal(t, slog.LevelWarn, LevelFromVerbosity(-1))
	assert.Equal(t, slog.LevelInfo, LevelFromVerbosity(1))
	assert.Equal(t, slog.LevelDebug, LevelFromVerbosity(2))
	assert.Equal(t, LevelTrace, LevelFromVerbosity(3))
	assert.Equal(t, LevelTrace, LevelFromVerbosity(7))
}

func TestParseFormat(t *testing.T) {
	f, err := ParseFormat("")
	require.NoError(t, err)
	assert.Equal(t, FormatText, f)

	f, err = ParseFormat("json")
	require.NoError(t, err)
	assert.Equal(t, FormatJSON, f)

	_, err = ParseFormat("xml")
	assert.True(t, errors.Is(err, ErrUnknownFormat))
}

func TestNew_TextFiltersByLevel(t *testing.T) {
	var buf bytes.Buffer
	logger := New(Config{Level: slog.LevelWarn, Output: &buf})

	logger.Info("hidden")
	logger.Warn("shown", "root", "/usr/lib/jvm")

	out := buf.String()
	assert.NotContains(t, out, "hidden")
	assert.Contains(t, out, "WARN")
	assert.Contains(t, out, "shown root=/usr/lib/jvm")
}

func TestNew_JSON(t *testing.T) {
	var buf bytes.Buffer
	logger := New(Config{Level: LevelTrace, Format: FormatJSON, Output: &buf})

	logger.Log(context.Background(), LevelTrace, "inspecting", "path", "/opt/jdk/bin/java")

	var rec map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &rec))
	assert.Equal(t, "TRACE", rec["level"])
	assert.Equal(t, "inspecting", rec["msg"])
	assert.Equal(t, "/opt/jdk/bin/java", rec["path"])
}

func TestNew_FileSinkGetsJSON(t *testing.T) {
	var console, file bytes.Buffer
	logger := New(Config{Level: slog.LevelInfo, Output: &console, File: &file})

	logger.Info("multiple JDKs found", "count", 2)

	assert.Contains(t, console.String(), "multiple JDKs found count=2")

	var rec map[string]any
	require.NoError(t, json.Unmarshal(file.Bytes(), &rec))
	assert.Equal(t, "INFO", rec["level"])
	assert.EqualValues(t, 2, rec["count"])
}

func TestContext(t *testing.T) {
	logger := NewDiscard()
	ctx := NewContext(context.Background(), logger)

	assert.Same(t, logger, FromContext(ctx))
	assert.Same(t, slog.Default(), FromContext(context.Background()))
}

func TestForTest(t *testing.T) {
	logger := ForTest(t)
	assert.True(t, logger.Enabled(context.Background(), LevelTrace))
	logger.Debug("visible with -v")
}

func TestHandler_GroupsAndQuoting(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(NewHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))

	logger.With("relay", "stdout").WithGroup("jdk").Debug("chosen",
		"path", "/Program Files/Java/bin/java.exe",
		slog.Group("meta", "major", 17),
	)

	line := strings.TrimSpace(buf.String())
	assert.Contains(t, line, "DEBUG")
	assert.Contains(t, line, " relay=stdout")
	assert.Contains(t, line, ` jdk.path="/Program Files/Java/bin/java.exe"`)
	assert.Contains(t, line, " jdk.meta.major=17")
}

func TestHandler_NoColorForBuffers(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(NewHandler(&buf, nil))

	logger.Error("failed")
	assert.NotContains(t, buf.String(), "\x1b[")
}

func TestMultiHandler(t *testing.T) {
	var info, debug bytes.Buffer
	m := NewMultiHandler(
		NewHandler(&info, &slog.HandlerOptions{Level: slog.LevelInfo}),
		NewHandler(&debug, &slog.HandlerOptions{Level: slog.LevelDebug}),
	)
	logger := slog.New(m).With("archive", "a.jar")

	assert.True(t, m.Enabled(context.Background(), slog.LevelDebug))
	assert.False(t, m.Enabled(context.Background(), LevelTrace))

	logger.Debug("only debug")
	logger.Info("both")

	assert.NotContains(t, info.String(), "only debug")
	assert.Contains(t, info.String(), "both archive=a.jar")
	assert.Contains(t, debug.String(), "only debug archive=a.jar")
	assert.Contains(t, debug.String(), "both")
}

func TestColorAllowed(t *testing.T) {
	env := func(vars map[string]string) func(string) (string, bool) {
		return func(k string) (string, bool) {
			v, ok := vars[k]
			return v, ok
		}
	}

	assert.True(t, colorAllowed(env(nil), true))
	assert.False(t, colorAllowed(env(nil), false))
	assert.False(t, colorAllowed(env(map[string]string{"NO_COLOR": ""}), true))
	assert.False(t, colorAllowed(env(map[string]string{"TERM": "dumb"}), true))
	assert.True(t, colorAllowed(env(map[string]string{"TERM": "xterm-256color"}), true))
}

func TestIsTTY_Buffer(t *testing.T) {
	assert.False(t, IsTTY(&bytes.Buffer{}))
}
