package main

import (
	"context"
	"fmt"
	"time"

	_ "github.com/hicham-zad/pikonote-backend/docs" // Import swagger docs
	common_api "github.com/hicham-zad/pikonote-backend/internal/common/api"
	"github.com/hicham-zad/pikonote-backend/internal/config"
	"github.com/hicham-zad/pikonote-backend/internal/database"
	"github.com/hicham-zad/pikonote-backend/internal/features/audit"
	"github.com/hicham-zad/pikonote-backend/internal/features/group"
	"github.com/hicham-zad/pikonote-backend/internal/features/live"
	"github.com/hicham-zad/pikonote-backend/internal/features/sweeper"
	"github.com/hicham-zad/pikonote-backend/internal/features/system"
	"github.com/hicham-zad/pikonote-backend/internal/features/user"
	"github.com/hicham-zad/pikonote-backend/internal/features/votesession"
	"github.com/hicham-zad/pikonote-backend/internal/logger"
	"github.com/hicham-zad/pikonote-backend/internal/middleware"
	"github.com/hicham-zad/pikonote-backend/pkg/utils"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/fx"
	"go.uber.org/fx/fxevent"
	"go.uber.org/zap"
)

// NewFiberServer creates a new Fiber app instance
func NewFiberServer(cfg *config.Config, logger *zap.Logger) *fiber.App {
	app := fiber.New(fiber.Config{
		DisableStartupMessage: true,
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			code := fiber.StatusInternalServerError
			if e, ok := err.(*fiber.Error); ok {
				code = e.Code
			}
			return c.Status(code).JSON(fiber.Map{
				"error": err.Error(),
			})
		},
	})

	app.Use(middleware.CORSMiddleware(cfg.AllowedOrigins))
	app.Use(middleware.RequestIDMiddleware())
	app.Use(middleware.RequestLogger(logger))

	return app
}

// AsRoute is a helper function to reduce boilerplate.
// It tags the constructor so Fx knows to add it to the "routes" group.
func AsRoute(f any) any {
	return fx.Annotate(
		f,
		fx.As(new(common_api.Route)),    // Cast to Interface
		fx.ResultTags(`group:"routes"`), // Add to Group
	)
}

// RegisterAllRoutes takes the group "routes" (slice of interfaces)
// and calls Setup() on each one.
func RegisterAllRoutes(app *fiber.App, routes []common_api.Route, logger *zap.Logger) {
	logger.Info("registering routes", zap.Int("count", len(routes)))
	for _, route := range routes {
		logger.Debug("setting up route", zap.String("api", fmt.Sprintf("%T", route)))
		route.Setup(app)
	}
}

// RegisterAllRoutesWithAnnotation wraps RegisterAllRoutes with fx annotations
var RegisterAllRoutesWithAnnotation = fx.Annotate(
	RegisterAllRoutes,
	fx.ParamTags(``, `group:"routes"`, ``),
)

// StartServer creates a lifecycle hook to start Fiber in a goroutine
// and shut it down when the app exits.
func StartServer(lc fx.Lifecycle, app *fiber.App, cfg *config.Config, logger *zap.Logger) {
	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			go func() {
				port := fmt.Sprintf(":%s", cfg.Port)
				logger.Info("http server listening", zap.String("addr", port))
				if err := app.Listen(port); err != nil {
					logger.Fatal("server failed to start", zap.Error(err))
				}
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			return app.ShutdownWithContext(ctx)
		},
	})
}

// InitializeIndexes ensures that necessary database indexes are created
func InitializeIndexes(
	lc fx.Lifecycle,
	groupRepo group.GroupRepository,
	sessionRepo votesession.VoteSessionRepository,
	userRepo user.UserRepository,
	auditRepo audit.AuditRepository,
	logger *zap.Logger,
) {
	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			go func() {
				// Use a background context with timeout for index creation
				ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
				defer cancel()

				indexers := map[string]interface {
					EnsureIndexes(ctx context.Context) error
				}{
					"groups":        groupRepo,
					"vote_sessions": sessionRepo,
					"users":         userRepo,
					"audit_logs":    auditRepo,
				}
				for name, repo := range indexers {
					if err := repo.EnsureIndexes(ctx); err != nil {
						logger.Error("failed to ensure indexes", zap.String("collection", name), zap.Error(err))
					}
				}
			}()
			return nil
		},
	})
}

// @title           Pikonote API
// @version         1.0
// @description     Group movie nights: groups, vote sessions and live results.

// @host            localhost:8080
// @BasePath        /

// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
func main() {
	app := fx.New(
		fx.Provide(
			// Load Config
			config.LoadConfig,

			// Initialize Logger
			logger.NewLogger,

			// Initialize Fiber Server
			NewFiberServer,

			// Initialize Database
			database.NewDatabase,
			database.NewTransactor,
			database.NewProfilesDB,

			// Initialize Repository
			audit.NewAuditRepository,
			user.NewUserRepository,
			group.NewGroupRepository,
			votesession.NewVoteSessionRepository,
			user.NewPostgresProfileSource,

			// Live feed
			live.NewHub,
			live.NewPublisher,

			audit.NewAuditService,
			user.NewUserService,
			group.NewGroupService,
			votesession.NewVoteSessionService,
			sweeper.NewSweeperService,

			// Interface Adapters to break circular dependencies and satisfy Fx
			func(r user.UserRepository) audit.UserFinder { return r },
			func(s user.UserService) group.UserDirectory { return s },
			func(s group.GroupService) votesession.Groups { return s },
			func(s votesession.VoteSessionService) sweeper.ExpiredSessionCleaner { return s },
			func(db *database.MongodbDB) system.Pinger { return db },

			// Initialize Controller
			user.NewUserController,
			group.NewGroupController,
			votesession.NewVoteSessionController,
			votesession.NewLiveController,
			system.NewHealthController,

			// Initialize API Routes
			AsRoute(user.NewUserApi),
			AsRoute(group.NewGroupApi),
			AsRoute(votesession.NewVoteSessionApi),
			AsRoute(system.NewHealthApi),
			AsRoute(system.NewSwaggerApi),
			AsRoute(system.NewMetricsApi),
		),
		fx.WithLogger(func(log *zap.Logger) fxevent.Logger {
			return &fxevent.ZapLogger{Logger: log}
		}),
		fx.Invoke(
			func(cfg *config.Config) { utils.SetSecret(cfg.JWTSecret) },
			// Register Routes & Start
			RegisterAllRoutesWithAnnotation,
			StartServer,
			sweeper.RegisterLifecycle,
			InitializeIndexes,
		),
	)

	app.Run()
}
