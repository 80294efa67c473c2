package logger

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

type captureSink struct {
	entries []LogEntry
}

func (s *captureSink) AddLog(entry LogEntry) {
	s.entries = append(s.entries, entry)
}

func TestDBCore_MirrorsOnlyAboveMinLevel(t *testing.T) {
	base, observed := observer.New(zapcore.DebugLevel)
	sink := &captureSink{}
	log := zap.New(NewDBCore(base, sink, zapcore.WarnLevel))

	log.Info("just info")
	log.Warn("vote write failed", zap.String("request_id", "req-1"), zap.String("user_id", "u-1"))
	log.With(zap.String("component", "sweeper")).Error("sweep failed")

	assert.Equal(t, 3, observed.Len(), "console core must still see every entry")
	require.Len(t, sink.entries, 2)
	assert.Equal(t, "vote write failed", sink.entries[0].Message)
	assert.Equal(t, "req-1", sink.entries[0].RequestID)
	assert.Equal(t, "u-1", sink.entries[0].UserID)
	assert.Equal(t, zapcore.ErrorLevel, sink.entries[1].Level)
}

func TestDBLogWriter_DropsWhenFullOrClosed(t *testing.T) {
	w := &DBLogWriter{logChan: make(chan LogEntry, 1), done: make(chan struct{})}

	w.AddLog(LogEntry{Message: "first"})
	w.AddLog(LogEntry{Message: "second"}) // buffer full, dropped
	assert.Len(t, w.logChan, 1)

	w.Close()
	w.Close()
	w.AddLog(LogEntry{Message: "after close"})
}

func TestToRecord(t *testing.T) {
	now := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	rec := toRecord(LogEntry{Level: zapcore.ErrorLevel, Message: "boom", RequestID: "r"}, "app", now)

	assert.Equal(t, "boom", rec.Message)
	assert.Equal(t, "app", rec.AppId)
	assert.Equal(t, "r", rec.RequestID)
	assert.Equal(t, 40, rec.LogLevelId)
	assert.Equal(t, now, rec.CreatedOnUtc)
}

func TestMapLevelToInt(t *testing.T) {
	tests := []struct {
		level zapcore.Level
		want  int
	}{
		{zapcore.DebugLevel, 10},
		{zapcore.InfoLevel, 20},
		{zapcore.WarnLevel, 30},
		{zapcore.ErrorLevel, 40},
		{zapcore.FatalLevel, 50},
		{zapcore.PanicLevel, 20},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, mapLevelToInt(tt.level), tt.level.String())
	}
}
