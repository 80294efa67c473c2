package main

import (
	"context"
	"log"
	"time"

	common_models "github.com/hicham-zad/pikonote-backend/internal/common/models"
	"github.com/hicham-zad/pikonote-backend/internal/config"
	"github.com/hicham-zad/pikonote-backend/internal/database"
	"github.com/hicham-zad/pikonote-backend/internal/features/group"
	"github.com/hicham-zad/pikonote-backend/internal/features/user"
	"github.com/hicham-zad/pikonote-backend/internal/features/votesession"
	"github.com/hicham-zad/pikonote-backend/internal/logger"

	"go.uber.org/fx"
	"go.uber.org/fx/fxevent"
	"go.uber.org/zap"
)

const demoGroupName = "Friday Movie Club"

var demoUsers = []common_models.Identity{
	{UserID: "dev-user-id", Name: "Dev User", Email: "dev@pikonote.local"},
	{UserID: "demo-alice", Name: "Alice", Email: "alice@pikonote.local"},
	{UserID: "demo-bob", Name: "Bob", Email: "bob@pikonote.local"},
}

var demoMovies = []votesession.MovieMetadata{
	{ID: 949, Title: "Heat", Year: 1995, Genre: "Crime", Director: "Michael Mann", Duration: "2h 50m"},
	{ID: 348, Title: "Alien", Year: 1979, Genre: "Horror", Director: "Ridley Scott", Duration: "1h 57m",
		WatchedBy: []votesession.WatchedBy{{UserID: "demo-bob", UserName: "Bob"}}},
	{ID: 603, Title: "The Matrix", Year: 1999, Genre: "Science Fiction", Director: "Lana Wachowski", Duration: "2h 16m"},
}

// Seed creates a demo group with a running vote session. Runs against the
// dev identity injected by SKIP_AUTH so the data is visible straight away.
func Seed(
	lc fx.Lifecycle,
	userRepo user.UserRepository,
	groupRepo group.GroupRepository,
	sessionRepo votesession.VoteSessionRepository,
	logger *zap.Logger,
	shutdowner fx.Shutdowner,
) {
	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			go func() {
				defer func() {
					if err := shutdowner.Shutdown(); err != nil {
						logger.Error("Failed to shutdown", zap.Error(err))
					}
				}()

				ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
				defer cancel()

				if err := seed(ctx, userRepo, groupRepo, sessionRepo, logger); err != nil {
					logger.Error("seeding failed", zap.Error(err))
				}
			}()
			return nil
		},
	})
}

func seed(ctx context.Context, userRepo user.UserRepository, groupRepo group.GroupRepository, sessionRepo votesession.VoteSessionRepository, logger *zap.Logger) error {
	now := time.Now()
	owner := demoUsers[0]

	existing, err := groupRepo.FindByMember(ctx, owner.UserID)
	if err != nil {
		return err
	}
	for _, g := range existing {
		if g.Name == demoGroupName {
			logger.Info("demo group exists, skipping", zap.String("code", g.Code))
			return nil
		}
	}

	for _, identity := range demoUsers {
		if _, err := userRepo.Upsert(ctx, identity, now); err != nil {
			return err
		}
	}

	codes := &group.CodeGenerator{Rand: group.DefaultRand(), Exists: groupRepo.CodeExists}
	code, err := codes.Generate(ctx)
	if err != nil {
		return err
	}

	g := &group.Group{
		Name:      demoGroupName,
		Code:      code,
		HeroImage: group.HeroImageURL(0),
		Status:    group.StatusActive,
		CreatedBy: owner.UserID,
	}
	for i, identity := range demoUsers {
		role := group.RoleMember
		if i == 0 {
			role = group.RoleAdmin
		}
		if _, err := g.AddMember(identity.UserID, identity.Name, nil, role, now); err != nil {
			return err
		}
	}
	if err := groupRepo.Create(ctx, g); err != nil {
		return err
	}

	movieIDs := make([]int, 0, len(demoMovies))
	for _, m := range demoMovies {
		movieIDs = append(movieIDs, m.ID)
	}
	session, err := votesession.NewVoteSession(g.ID, g.Name, movieIDs, demoMovies, 60, owner.UserID, now)
	if err != nil {
		return err
	}
	if _, err := session.CastVote("demo-alice", "Alice", 949, now); err != nil {
		return err
	}
	if err := sessionRepo.Create(ctx, session); err != nil {
		return err
	}

	if err := g.StartVoting(session.ID.Hex()); err != nil {
		return err
	}
	if err := groupRepo.Update(ctx, g); err != nil {
		return err
	}

	for _, identity := range demoUsers {
		if err := userRepo.AddGroup(ctx, identity.UserID, g.ID); err != nil {
			return err
		}
	}

	logger.Info("demo data seeded",
		zap.String("group_id", g.ID.Hex()),
		zap.String("code", g.Code),
		zap.String("session_id", session.ID.Hex()))
	return nil
}

func main() {
	app := fx.New(
		fx.Provide(
			config.LoadConfig,
			logger.NewLogger,
			database.NewDatabase,
			user.NewUserRepository,
			group.NewGroupRepository,
			votesession.NewVoteSessionRepository,
		),
		fx.WithLogger(func(log *zap.Logger) fxevent.Logger {
			return &fxevent.ZapLogger{Logger: log}
		}),
		fx.Invoke(Seed),
	)

	if err := app.Start(context.Background()); err != nil {
		log.Fatal(err)
	}

	<-app.Done()
}
