package logger

import (
	"bytes"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLevels(t *testing.T) {
	var buf bytes.Buffer
	l := NewWriter(&buf, "warn").With("source", "https://www.gov.ie/en/press-release/a/")
	l.Infof("hidden %d", 1)
	l.Warnf("no published date in %s", "bulletin")

	out := buf.String()
	assert.NotContains(t, out, "hidden")
	assert.Contains(t, out, "level=WARN")
	assert.Contains(t, out, `msg="no published date in bulletin"`)
	assert.Contains(t, out, "source=https://www.gov.ie/en/press-release/a/")
}

func TestParseLevel(t *testing.T) {
	assert.Equal(t, slog.LevelDebug, ParseLevel("DEBUG"))
	assert.Equal(t, slog.LevelError, ParseLevel("error"))
	assert.Equal(t, slog.LevelInfo, ParseLevel("bogus"))
}
