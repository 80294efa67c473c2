package sweeper

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/hicham-zad/pikonote-backend/internal/config"
	"github.com/hicham-zad/pikonote-backend/internal/metrics"

	"github.com/robfig/cron/v3"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

const sweepTimeout = 30 * time.Second

// ExpiredSessionCleaner flips every active session whose end time has passed
// to finished and reports how many it touched.
type ExpiredSessionCleaner interface {
	CleanupExpired(ctx context.Context) (int64, error)
}

type SweeperService interface {
	Start() error
	Stop()
	RunOnce(ctx context.Context) (int64, error)
}

type SweeperServiceImpl struct {
	cleaner   ExpiredSessionCleaner
	schedule  string
	logger    *zap.Logger
	scheduler *cron.Cron
	mu        sync.Mutex
}

func NewSweeperService(cleaner ExpiredSessionCleaner, cfg *config.Config, logger *zap.Logger) SweeperService {
	return &SweeperServiceImpl{
		cleaner:  cleaner,
		schedule: cfg.CleanupSchedule,
		logger:   logger.Named("sweeper"),
	}
}

func (s *SweeperServiceImpl) RunOnce(ctx context.Context) (int64, error) {
	n, err := s.cleaner.CleanupExpired(ctx)
	if err != nil {
		return 0, err
	}
	if n > 0 {
		metrics.SessionsSwept.Add(float64(n))
		s.logger.Info("expired vote sessions finished", zap.Int64("count", n))
	}
	return n, nil
}

// Start schedules the sweep. Overlapping runs are skipped.
func (s *SweeperServiceImpl) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.scheduler != nil {
		return nil
	}

	cl := cronLogger{s.logger.Sugar()}
	scheduler := cron.New(cron.WithLogger(cl), cron.WithChain(cron.SkipIfStillRunning(cl)))
	_, err := scheduler.AddFunc(s.schedule, func() {
		ctx, cancel := context.WithTimeout(context.Background(), sweepTimeout)
		defer cancel()
		if _, err := s.RunOnce(ctx); err != nil {
			s.logger.Error("sweep failed", zap.Error(err))
		}
	})
	if err != nil {
		return fmt.Errorf("invalid cleanup schedule %q: %w", s.schedule, err)
	}

	scheduler.Start()
	s.scheduler = scheduler
	s.logger.Info("sweeper started", zap.String("schedule", s.schedule))
	return nil
}

func (s *SweeperServiceImpl) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.scheduler == nil {
		return
	}
	ctx := s.scheduler.Stop()
	<-ctx.Done()
	s.scheduler = nil
}

// cronLogger routes scheduler messages through zap. Routine wakeups go to debug.
type cronLogger struct {
	l *zap.SugaredLogger
}

func (c cronLogger) Info(msg string, keysAndValues ...interface{}) {
	c.l.Debugw(msg, keysAndValues...)
}

func (c cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	c.l.Errorw(msg, append(keysAndValues, "error", err)...)
}

// RegisterLifecycle ties the scheduler to the application's lifecycle.
func RegisterLifecycle(lc fx.Lifecycle, s SweeperService) {
	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			return s.Start()
		},
		OnStop: func(ctx context.Context) error {
			s.Stop()
			return nil
		},
	})
}
