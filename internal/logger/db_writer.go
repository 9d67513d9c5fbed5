package logger

import (
	"context"
	"fmt"
	"time"

	"go-crm-import/internal/database"

	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap/zapcore"
)

// LogEntry holds the data passed from Zap to our worker
type LogEntry struct {
	Level     zapcore.Level
	Message   string
	SessionID string
	Job       string
	Caller    string
}

// LogRecord is the stored form of a LogEntry
type LogRecord struct {
	AppId        string    `bson:"app_id"`
	LogLevelId   int       `bson:"log_level_id"`
	Message      string    `bson:"message"`
	SessionID    string    `bson:"session_id,omitempty"`
	Job          string    `bson:"job,omitempty"`
	Caller       string    `bson:"caller,omitempty"`
	CreatedOnUtc time.Time `bson:"created_on_utc"`
}

// LogSink persists a single record
type LogSink interface {
	Insert(ctx context.Context, rec LogRecord) error
}

type mongoLogSink struct {
	collection *mongo.Collection
}

// NewMongoLogSink stores records in the service_logs collection
func NewMongoLogSink(mongodb *database.MongodbDB) LogSink {
	return &mongoLogSink{collection: mongodb.DB.Collection("service_logs")}
}

func (s *mongoLogSink) Insert(ctx context.Context, rec LogRecord) error {
	_, err := s.collection.InsertOne(ctx, rec)
	return err
}

// DBLogWriter handles the async writing
type DBLogWriter struct {
	sink    LogSink
	logChan chan LogEntry
	appId   string
}

// NewDBLogWriter initializes the worker
func NewDBLogWriter(sink LogSink, appId string) *DBLogWriter {
	writer := &DBLogWriter{
		sink:    sink,
		logChan: make(chan LogEntry, 1000),
		appId:   appId,
	}

	go writer.processLogs()

	return writer
}

// AddLog is called by our Zap core
func (w *DBLogWriter) AddLog(entry LogEntry) {
	select {
	case w.logChan <- entry:
	default:
		// Channel full: drop rather than block the request path
		fmt.Println("DB Log Channel Full! Dropping log:", entry.Message)
	}
}

func (w *DBLogWriter) processLogs() {
	for entry := range w.logChan {
		rec := LogRecord{
			AppId:        w.appId,
			LogLevelId:   mapLevelToInt(entry.Level),
			Message:      entry.Message,
			SessionID:    entry.SessionID,
			Job:          entry.Job,
			Caller:       entry.Caller,
			CreatedOnUtc: time.Now().UTC(),
		}

		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		// Insert errors are ignored to keep the service running
		_ = w.sink.Insert(ctx, rec)
		cancel()
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
