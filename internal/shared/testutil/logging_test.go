package testutil

import (
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLogRecorder_CapturesRecords(t *testing.T) {
	logger, rec := NewTestLogger(t)

	logger.Info("extraction started", "dir", "/data/uploads")
	logger.Warn("file skipped", "file", "broken.xml")
	logger.Error("export failed", "format", "xlsx")

	assert.Equal(t, 3, rec.Len())
	assert.True(t, rec.HasMessage("extraction started"))
	assert.True(t, rec.HasMessage("export"))
	assert.False(t, rec.HasMessage("never logged"))

	assert.True(t, rec.HasAttr("file", "broken.xml"))
	assert.False(t, rec.HasAttr("file", "other.xml"))
	assert.False(t, rec.HasAttr("missing", "x"))
}

func TestLogRecorder_EntriesAt(t *testing.T) {
	logger, rec := NewTestLogger(t)

	logger.Info("one")
	logger.Error("two")
	logger.Error("three")

	errs := rec.EntriesAt(slog.LevelError)
	assert.Len(t, errs, 2)
	assert.Equal(t, "two", errs[0].Message)
	assert.Equal(t, "three", errs[1].Message)
	assert.Empty(t, rec.EntriesAt(slog.LevelDebug))
}

func TestLogRecorder_Reset(t *testing.T) {
	logger, rec := NewTestLogger(t)

	logger.Info("before reset")
	assert.Equal(t, 1, rec.Len())

	rec.Reset()
	assert.Equal(t, 0, rec.Len())
	assert.Empty(t, rec.Entries())

	logger.Info("after reset")
	assert.Equal(t, 1, rec.Len())
	assert.True(t, rec.HasMessage("after reset"))
}

func TestLogRecorder_EntriesIsCopy(t *testing.T) {
	logger, rec := NewTestLogger(t)

	logger.Info("original")
	entries := rec.Entries()
	entries[0].Message = "mutated"

	assert.True(t, rec.HasMessage("original"))
	assert.False(t, rec.HasMessage("mutated"))
}
