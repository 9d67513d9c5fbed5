package logger

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

type captureSink struct {
	mu      sync.Mutex
	records []LogRecord
}

func (s *captureSink) Insert(ctx context.Context, rec LogRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.records = append(s.records, rec)
	return nil
}

func (s *captureSink) snapshot() []LogRecord {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]LogRecord(nil), s.records...)
}

func TestDBCoreLiftsSessionFields(t *testing.T) {
	sink := &captureSink{}
	base, logs := observer.New(zapcore.DebugLevel)
	log := zap.New(NewDBCore(base, NewDBLogWriter(sink, "test-app")))

	log.With(zap.String(SessionIDKey, "sess-1")).Warn("poll failed", zap.String(JobKey, "DI-0001"))

	require.Eventually(t, func() bool { return len(sink.snapshot()) == 1 }, time.Second, 10*time.Millisecond)

	rec := sink.snapshot()[0]
	assert.Equal(t, "poll failed", rec.Message)
	assert.Equal(t, "sess-1", rec.SessionID)
	assert.Equal(t, "DI-0001", rec.Job)
	assert.Equal(t, 30, rec.LogLevelId)
	assert.Equal(t, "test-app", rec.AppId)

	assert.Equal(t, 1, logs.Len(), "entry still reaches the wrapped core")
}

func TestDBCoreRespectsLevel(t *testing.T) {
	sink := &captureSink{}
	base, _ := observer.New(zapcore.InfoLevel)
	log := zap.New(NewDBCore(base, NewDBLogWriter(sink, "test-app")))

	log.Debug("tick")
	log.Info("done")

	require.Eventually(t, func() bool { return len(sink.snapshot()) == 1 }, time.Second, 10*time.Millisecond)
	assert.Equal(t, "done", sink.snapshot()[0].Message)
}
