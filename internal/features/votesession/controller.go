package votesession

import (
	common_api "github.com/hicham-zad/pikonote-backend/internal/common/api"
	"github.com/hicham-zad/pikonote-backend/internal/middleware"

	"github.com/gofiber/fiber/v2"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

type VoteSessionController struct {
	Service VoteSessionService
	logger  *zap.Logger
}

func NewVoteSessionController(service VoteSessionService, logger *zap.Logger) *VoteSessionController {
	return &VoteSessionController{Service: service, logger: logger}
}

func idParam(ctx *fiber.Ctx) (primitive.ObjectID, bool) {
	id, err := primitive.ObjectIDFromHex(ctx.Params("id"))
	return id, err == nil
}

func invalidID(ctx *fiber.Ctx) error {
	return ctx.Status(fiber.StatusBadRequest).JSON(fiber.Map{
		"error": "Invalid ID",
	})
}

// CreateSession godoc
// @Summary Start a vote session
// @Description Start a vote session for a group; the group moves to voting
// @Tags vote-sessions
// @Accept json
// @Produce json
// @Param session body CreateSessionRequest true "Session"
// @Success 201 {object} VoteSession
// @Failure 400 {object} map[string]interface{}
// @Failure 403 {object} map[string]interface{}
// @Failure 409 {object} map[string]interface{}
// @Router /api/vote-sessions [post]
func (c *VoteSessionController) CreateSession(ctx *fiber.Ctx) error {
	caller, _ := middleware.CurrentIdentity(ctx)

	var req CreateSessionRequest
	if err := ctx.BodyParser(&req); err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request body",
		})
	}

	session, err := c.Service.CreateSession(ctx.UserContext(), caller, req)
	if err != nil {
		return common_api.ErrorResponse(ctx, c.logger, err)
	}

	return ctx.Status(fiber.StatusCreated).JSON(session)
}

// GetSession godoc
// @Summary Get vote session
// @Tags vote-sessions
// @Produce json
// @Param id path string true "Session ID"
// @Success 200 {object} SessionView
// @Failure 404 {object} map[string]interface{}
// @Router /api/vote-sessions/{id} [get]
func (c *VoteSessionController) GetSession(ctx *fiber.Ctx) error {
	id, ok := idParam(ctx)
	if !ok {
		return invalidID(ctx)
	}
	caller, _ := middleware.CurrentIdentity(ctx)

	view, err := c.Service.GetSession(ctx.UserContext(), caller, id)
	if err != nil {
		return common_api.ErrorResponse(ctx, c.logger, err)
	}

	return ctx.JSON(view)
}

// GetActiveSession godoc
// @Summary Get a group's active vote session
// @Tags vote-sessions
// @Produce json
// @Param id path string true "Group ID"
// @Success 200 {object} SessionView
// @Failure 404 {object} map[string]interface{}
// @Router /api/groups/{id}/vote-sessions/active [get]
func (c *VoteSessionController) GetActiveSession(ctx *fiber.Ctx) error {
	groupID, ok := idParam(ctx)
	if !ok {
		return invalidID(ctx)
	}
	caller, _ := middleware.CurrentIdentity(ctx)

	view, err := c.Service.GetActiveSession(ctx.UserContext(), caller, groupID)
	if err != nil {
		return common_api.ErrorResponse(ctx, c.logger, err)
	}

	return ctx.JSON(view)
}

// GetMySessions godoc
func (c *VoteSessionController) GetMySessions(ctx *fiber.Ctx) error {
	caller, _ := middleware.CurrentIdentity(ctx)

	sessions, err := c.Service.GetMySessions(ctx.UserContext(), caller)
	if err != nil {
		return common_api.ErrorResponse(ctx, c.logger, err)
	}

	return ctx.JSON(sessions)
}

// CastVote godoc
// @Summary Cast or change a vote
// @Description Records the caller's ballot; a second cast replaces the first
// @Tags vote-sessions
// @Accept json
// @Produce json
// @Param id path string true "Session ID"
// @Param vote body CastVoteRequest true "Vote"
// @Success 200 {object} CastResponse
// @Failure 400 {object} map[string]interface{}
// @Failure 409 {object} map[string]interface{}
// @Router /api/vote-sessions/{id}/votes [post]
func (c *VoteSessionController) CastVote(ctx *fiber.Ctx) error {
	id, ok := idParam(ctx)
	if !ok {
		return invalidID(ctx)
	}
	caller, _ := middleware.CurrentIdentity(ctx)

	var req CastVoteRequest
	if err := ctx.BodyParser(&req); err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request body",
		})
	}

	resp, err := c.Service.CastVote(ctx.UserContext(), caller, id, req.MovieID)
	if err != nil {
		return common_api.ErrorResponse(ctx, c.logger, err)
	}

	return ctx.JSON(resp)
}

// GetResults godoc
func (c *VoteSessionController) GetResults(ctx *fiber.Ctx) error {
	id, ok := idParam(ctx)
	if !ok {
		return invalidID(ctx)
	}
	caller, _ := middleware.CurrentIdentity(ctx)

	results, err := c.Service.GetResults(ctx.UserContext(), caller, id)
	if err != nil {
		return common_api.ErrorResponse(ctx, c.logger, err)
	}

	return ctx.JSON(fiber.Map{"results": results})
}

// FinishSession godoc
// @Summary Finish a vote session
// @Description Closes the session and records the winning movie on the group
// @Tags vote-sessions
// @Produce json
// @Param id path string true "Session ID"
// @Success 200 {object} FinishResponse
// @Failure 403 {object} map[string]interface{}
// @Router /api/vote-sessions/{id}/finish [post]
func (c *VoteSessionController) FinishSession(ctx *fiber.Ctx) error {
	id, ok := idParam(ctx)
	if !ok {
		return invalidID(ctx)
	}
	caller, _ := middleware.CurrentIdentity(ctx)

	resp, err := c.Service.FinishSession(ctx.UserContext(), caller, id)
	if err != nil {
		return common_api.ErrorResponse(ctx, c.logger, err)
	}

	return ctx.JSON(resp)
}
