package logging

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNewTo_RenamesErrorKey(t *testing.T) {
	var buf bytes.Buffer
	log := NewTo(&buf, slog.LevelInfo)

	log.Info("write failed", "error", errors.New("disk full"), "instance", "inst-1")

	out := buf.String()
	assert.Contains(t, out, `err="disk full"`)
	assert.NotContains(t, out, "error=")
	assert.Contains(t, out, "instance=inst-1")
}

func TestNewTo_RespectsLevel(t *testing.T) {
	var buf bytes.Buffer
	log := NewTo(&buf, slog.LevelInfo)

	log.Debug("instance wired")
	assert.Empty(t, buf.String())

	log = NewTo(&buf, Level(true))
	log.Debug("instance wired")
	assert.Contains(t, buf.String(), "instance wired")
}

func TestLevel(t *testing.T) {
	assert.Equal(t, slog.LevelDebug, Level(true))
	assert.Equal(t, slog.LevelInfo, Level(false))
}

func TestNewNop(t *testing.T) {
	log := NewNop()
	log.Error("dropped")
	assert.False(t, log.Enabled(context.Background(), slog.LevelError))
}
