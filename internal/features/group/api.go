package group

import (
	"github.com/hicham-zad/pikonote-backend/internal/config"
	"github.com/hicham-zad/pikonote-backend/internal/middleware"

	"github.com/gofiber/fiber/v2"
)

type GroupApi struct {
	controller *GroupController
	config     *config.Config
}

func NewGroupApi(controller *GroupController, config *config.Config) *GroupApi {
	return &GroupApi{
		controller: controller,
		config:     config,
	}
}

// Setup registers all group routes
func (h *GroupApi) Setup(app *fiber.App) {
	groups := app.Group("/api/groups", middleware.AuthMiddleware(h.config.SkipAuth))

	groups.Post("/", h.controller.CreateGroup)
	groups.Get("/", h.controller.GetMyGroups)
	groups.Post("/join", h.controller.JoinGroup)
	groups.Get("/:id", h.controller.GetGroup)
	groups.Put("/:id", h.controller.UpdateGroup)
	groups.Delete("/:id", h.controller.DeleteGroup)
	groups.Post("/:id/leave", h.controller.LeaveGroup)

	// Members
	groups.Delete("/:id/members/:userId", h.controller.RemoveMember)
	groups.Put("/:id/members/:userId/role", h.controller.UpdateMemberRole)
	groups.Delete("/:id/member-entries/:memberId", h.controller.RemoveMemberEntry)

	// Voting outcome
	groups.Post("/:id/chosen-movie", h.controller.ChooseMovie)
	groups.Delete("/:id/active-vote", h.controller.ClearActiveVote)
	groups.Get("/:id/history", h.controller.GetHistory)
	groups.Get("/:id/history/export", h.controller.ExportHistory)
	groups.Put("/:id/history/voters", h.controller.SetHistoryVoters)

	groups.Get("/:id/recommendations", h.controller.GetRecommendations)
	groups.Put("/:id/recommendations", h.controller.SaveRecommendations)
	groups.Get("/:id/activity", h.controller.GetActivity)
}
