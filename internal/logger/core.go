package logger

import (
	"go.uber.org/zap/zapcore"
)

// LogSink receives entries mirrored from the console core.
type LogSink interface {
	AddLog(entry LogEntry)
}

// DBCore is a custom Zap Core that intercepts logs
type DBCore struct {
	zapcore.Core
	sink     LogSink
	minLevel zapcore.Level
}

// NewDBCore wraps an existing core and mirrors entries at or above minLevel
// into sink.
func NewDBCore(baseCore zapcore.Core, sink LogSink, minLevel zapcore.Level) zapcore.Core {
	return &DBCore{
		Core:     baseCore,
		sink:     sink,
		minLevel: minLevel,
	}
}

// With keeps the wrapper when zap derives child loggers.
func (c *DBCore) With(fields []zapcore.Field) zapcore.Core {
	return &DBCore{
		Core:     c.Core.With(fields),
		sink:     c.sink,
		minLevel: c.minLevel,
	}
}

// Write is called for every log entry
func (c *DBCore) Write(entry zapcore.Entry, fields []zapcore.Field) error {
	if entry.Level >= c.minLevel {
		logEntry := LogEntry{
			Level:   entry.Level,
			Message: entry.Message,
			Caller:  entry.Caller.Function,
		}
		for _, f := range fields {
			switch f.Key {
			case "request_id":
				logEntry.RequestID = f.String
			case "user_id":
				logEntry.UserID = f.String
			}
		}
		c.sink.AddLog(logEntry)
	}

	return c.Core.Write(entry, fields)
}

// Check decides if we should log this level
func (c *DBCore) Check(ent zapcore.Entry, ce *zapcore.CheckedEntry) *zapcore.CheckedEntry {
	if c.Enabled(ent.Level) {
		return ce.AddCore(ent, c)
	}
	return ce
}
