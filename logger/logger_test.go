package logger

import (
	"bytes"
	"encoding/json"
	"errors"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLevel(t *testing.T) {
	cases := map[string]Level{
		"debug":   LevelDebug,
		"INFO":    LevelInfo,
		"warning": LevelWarn,
		" error ": LevelError,
		"silent":  LevelSilent,
		"bogus":   LevelInfo,
	}
	for in, want := range cases {
		assert.Equal(t, want, ParseLevel(in), in)
	}
	assert.True(t, ValidLevel("warn"))
	assert.False(t, ValidLevel("fatal"))
}

func TestTextFormatAndLevels(t *testing.T) {
	var buf bytes.Buffer
	l := New(&buf, &Config{Level: LevelWarn, Format: "text"})

	l.Info("hidden %d", 1)
	l.Warn("shown %d", 2)
	l.WithFields(map[string]interface{}{"b": 2, "a": "x"}).Error("failed")

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 2)
	assert.Equal(t, "[WARN] shown 2", lines[0])
	assert.Equal(t, "[ERROR] failed a=x b=2", lines[1])
}

func TestJSONFieldsAreKeys(t *testing.T) {
	var buf bytes.Buffer
	l := New(&buf, &Config{Level: LevelDebug, Format: "json"})

	l.WithFields(map[string]interface{}{"index": "trials", "error": errors.New("boom")}).
		WithField("request_id", "r1").
		Info("search failed")

	var entry map[string]interface{}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "INFO", entry["level"])
	assert.Equal(t, "search failed", entry["message"])
	assert.Equal(t, "trials", entry["index"])
	assert.Equal(t, "boom", entry["error"])
	assert.Equal(t, "r1", entry["request_id"])
	assert.NotContains(t, entry, "timestamp")
}

func TestWithFieldDoesNotShareMaps(t *testing.T) {
	var buf bytes.Buffer
	l := New(&buf, &Config{Level: LevelDebug, Format: "text"})
	base := l.WithFields(map[string]interface{}{"a": 1})
	_ = base.WithField("b", 2)

	base.Info("x")
	assert.Equal(t, "[INFO] x a=1\n", buf.String())
}

func TestSilentAndPrinter(t *testing.T) {
	var buf bytes.Buffer
	l := New(&buf, &Config{Level: LevelSilent})
	l.Error("nothing")
	assert.Empty(t, buf.String())

	l.SetLevel(LevelInfo)
	l.Printer(LevelError).Printf("elastic: %s", "down")
	assert.Equal(t, "[ERROR] elastic: down\n", buf.String())
}

func TestCaller(t *testing.T) {
	var buf bytes.Buffer
	l := New(&buf, &Config{Level: LevelInfo, EnableCaller: true})
	l.Info("here")
	assert.Contains(t, buf.String(), "logger_test.go:")
}

func TestGlobalLoggerDefaultAndInit(t *testing.T) {
	prev := GetGlobalLogger()
	require.NotNil(t, prev)
	t.Cleanup(func() { SetGlobalLogger(prev) })

	path := filepath.Join(t.TempDir(), "logs", "app.log")
	require.NoError(t, Init(&Config{Level: LevelDebug, Output: path, Format: "json"}))
	assert.NotSame(t, prev, GetGlobalLogger())
	assert.True(t, IsDebugEnabled())

	SetGlobalLogger(nil)
	assert.NotNil(t, GetGlobalLogger())
}
