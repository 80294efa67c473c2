package logger

import (
	"context"
	"fmt"
	"sync"
	"time"

	common_models "github.com/hicham-zad/pikonote-backend/internal/common/models"
	"github.com/hicham-zad/pikonote-backend/internal/config"
	"github.com/hicham-zad/pikonote-backend/internal/database"

	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap/zapcore"
)

// LogEntry holds the data passed from Zap to our worker
type LogEntry struct {
	Level     zapcore.Level
	Message   string
	RequestID string
	UserID    string
	Caller    string // Function name
}

// DBLogWriter handles the async writing
type DBLogWriter struct {
	collection *mongo.Collection
	logChan    chan LogEntry
	appId      string
	closeOnce  sync.Once
	done       chan struct{}
}

// NewDBLogWriter initializes the worker
func NewDBLogWriter(mongodb *database.MongodbDB, cfg *config.Config) *DBLogWriter {
	writer := &DBLogWriter{
		collection: mongodb.DB.Collection("logs"),
		logChan:    make(chan LogEntry, 1000),
		appId:      cfg.AppId,
		done:       make(chan struct{}),
	}

	go writer.processLogs()

	return writer
}

// AddLog is called by our Zap hook
func (w *DBLogWriter) AddLog(entry LogEntry) {
	select {
	case <-w.done:
		return
	default:
	}

	select {
	case w.logChan <- entry:
	default:
		// Channel full: drop rather than block the request path
		fmt.Println("DB Log Channel Full! Dropping log:", entry.Message)
	}
}

// Close stops accepting entries and lets the worker drain the buffer.
func (w *DBLogWriter) Close() {
	w.closeOnce.Do(func() {
		close(w.done)
	})
}

func (w *DBLogWriter) processLogs() {
	for {
		select {
		case entry := <-w.logChan:
			w.insert(entry)
		case <-w.done:
			for {
				select {
				case entry := <-w.logChan:
					w.insert(entry)
				default:
					return
				}
			}
		}
	}
}

func (w *DBLogWriter) insert(entry LogEntry) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	// Errors are ignored to keep the app running
	_, _ = w.collection.InsertOne(ctx, toRecord(entry, w.appId, time.Now().UTC()))
}

func toRecord(entry LogEntry, appId string, now time.Time) common_models.Log {
	return common_models.Log{
		Message:      entry.Message,
		AppId:        appId,
		RequestID:    entry.RequestID,
		UserID:       entry.UserID,
		Caller:       entry.Caller,
		LogLevelId:   mapLevelToInt(entry.Level),
		CreatedOnUtc: now,
	}
}

func mapLevelToInt(l zapcore.Level) int {
	switch l {
	case zapcore.DebugLevel:
		return 10
	case zapcore.InfoLevel:
		return 20
	case zapcore.WarnLevel:
		return 30
	case zapcore.ErrorLevel:
		return 40
	case zapcore.FatalLevel:
		return 50
	default:
		return 20
	}
}
