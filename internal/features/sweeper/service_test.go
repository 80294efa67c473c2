package sweeper

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/hicham-zad/pikonote-backend/internal/config"

	"github.com/robfig/cron/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

type MockCleaner struct {
	calls atomic.Int32
	n     int64
	err   error
}

func (m *MockCleaner) CleanupExpired(ctx context.Context) (int64, error) {
	m.calls.Add(1)
	return m.n, m.err
}

func TestRunOnce(t *testing.T) {
	tests := []struct {
		name    string
		cleaner *MockCleaner
		want    int64
		wantErr bool
	}{
		{name: "nothing expired", cleaner: &MockCleaner{}, want: 0},
		{name: "sessions finished", cleaner: &MockCleaner{n: 3}, want: 3},
		{name: "store failure", cleaner: &MockCleaner{err: errors.New("boom")}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := NewSweeperService(tt.cleaner, &config.Config{CleanupSchedule: "@every 1m"}, zap.NewNop())
			n, err := s.RunOnce(context.Background())
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, n)
		})
	}
}

func TestStart_InvalidSchedule(t *testing.T) {
	s := NewSweeperService(&MockCleaner{}, &config.Config{CleanupSchedule: "not a schedule"}, zap.NewNop())
	assert.Error(t, s.Start())
}

func TestStart_RunsOnSchedule(t *testing.T) {
	cleaner := &MockCleaner{}
	s := NewSweeperService(cleaner, &config.Config{CleanupSchedule: "@every 1s"}, zap.NewNop())
	require.NoError(t, s.Start())
	require.NoError(t, s.Start())
	defer s.Stop()

	assert.Eventually(t, func() bool { return cleaner.calls.Load() > 0 }, 3*time.Second, 50*time.Millisecond)
}

func TestCronLogger_WritesThroughZap(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	cl := cronLogger{zap.New(core).Sugar()}

	started := make(chan struct{})
	release := make(chan struct{})
	job := cron.SkipIfStillRunning(cl)(cron.FuncJob(func() {
		close(started)
		<-release
	}))

	done := make(chan struct{})
	go func() {
		job.Run()
		close(done)
	}()
	<-started
	job.Run()
	close(release)
	<-done

	skipped := logs.FilterMessage("skip").All()
	require.Len(t, skipped, 1)
	assert.Equal(t, zapcore.DebugLevel, skipped[0].Level)

	cl.Error(errors.New("boom"), "job failed", "entry", 3)
	failed := logs.FilterMessage("job failed").All()
	require.Len(t, failed, 1)
	assert.Equal(t, zapcore.ErrorLevel, failed[0].Level)
	assert.Equal(t, "boom", failed[0].ContextMap()["error"])
}
