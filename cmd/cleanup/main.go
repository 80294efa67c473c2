package main

import (
	"context"
	"log"
	"time"

	"github.com/hicham-zad/pikonote-backend/internal/config"
	"github.com/hicham-zad/pikonote-backend/internal/database"
	"github.com/hicham-zad/pikonote-backend/internal/features/sweeper"
	"github.com/hicham-zad/pikonote-backend/internal/features/votesession"
	"github.com/hicham-zad/pikonote-backend/internal/logger"

	"go.uber.org/fx"
	"go.uber.org/fx/fxevent"
	"go.uber.org/zap"
)

// repoCleaner sweeps straight through the repository; the one-shot run has no
// use for the rest of the vote session service.
type repoCleaner struct {
	repo votesession.VoteSessionRepository
}

func (c repoCleaner) CleanupExpired(ctx context.Context) (int64, error) {
	return c.repo.CleanupExpired(ctx, time.Now())
}

// Sweep finishes every expired vote session once and stops the app.
func Sweep(lc fx.Lifecycle, s sweeper.SweeperService, logger *zap.Logger, shutdowner fx.Shutdowner) {
	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			go func() {
				exitCode := 0
				defer func() {
					if err := shutdowner.Shutdown(fx.ExitCode(exitCode)); err != nil {
						logger.Error("Failed to shutdown", zap.Error(err))
					}
				}()

				ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
				defer cancel()

				n, err := s.RunOnce(ctx)
				if err != nil {
					logger.Error("sweep failed", zap.Error(err))
					exitCode = 1
					return
				}
				logger.Info("sweep complete", zap.Int64("finished", n))
			}()
			return nil
		},
	})
}

func main() {
	app := fx.New(
		fx.Provide(
			config.LoadConfig,
			logger.NewLogger,
			database.NewDatabase,
			votesession.NewVoteSessionRepository,
			func(repo votesession.VoteSessionRepository) sweeper.ExpiredSessionCleaner {
				return repoCleaner{repo: repo}
			},
			sweeper.NewSweeperService,
		),
		fx.WithLogger(func(log *zap.Logger) fxevent.Logger {
			return &fxevent.ZapLogger{Logger: log}
		}),
		fx.Invoke(Sweep),
	)

	if err := app.Start(context.Background()); err != nil {
		log.Fatal(err)
	}

	sig := <-app.Wait()
	stopCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := app.Stop(stopCtx); err != nil {
		log.Println(err)
	}
	if sig.ExitCode != 0 {
		log.Fatalf("cleanup exited with code %d", sig.ExitCode)
	}
}
