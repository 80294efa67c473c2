package votesession

import (
	"github.com/hicham-zad/pikonote-backend/internal/config"
	"github.com/hicham-zad/pikonote-backend/internal/middleware"

	"github.com/gofiber/contrib/websocket"
	"github.com/gofiber/fiber/v2"
)

type VoteSessionApi struct {
	controller *VoteSessionController
	live       *LiveController
	config     *config.Config
}

func NewVoteSessionApi(controller *VoteSessionController, live *LiveController, config *config.Config) *VoteSessionApi {
	return &VoteSessionApi{
		controller: controller,
		live:       live,
		config:     config,
	}
}

// Setup registers all vote session routes
func (h *VoteSessionApi) Setup(app *fiber.App) {
	auth := middleware.AuthMiddleware(h.config.SkipAuth)

	sessions := app.Group("/api/vote-sessions", auth)
	sessions.Post("/", h.controller.CreateSession)
	sessions.Get("/mine", h.controller.GetMySessions)
	sessions.Get("/:id", h.controller.GetSession)
	sessions.Post("/:id/votes", h.controller.CastVote)
	sessions.Get("/:id/results", h.controller.GetResults)
	sessions.Post("/:id/finish", h.controller.FinishSession)
	sessions.Get("/:id/live", h.live.Authorize, websocket.New(h.live.Stream))

	app.Get("/api/groups/:id/vote-sessions/active", auth, h.controller.GetActiveSession)
}
