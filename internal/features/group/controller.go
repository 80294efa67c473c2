package group

import (
	"strconv"

	common_api "github.com/hicham-zad/pikonote-backend/internal/common/api"
	"github.com/hicham-zad/pikonote-backend/internal/middleware"

	"github.com/gofiber/fiber/v2"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

type GroupController struct {
	Service GroupService
	logger  *zap.Logger
}

func NewGroupController(service GroupService, logger *zap.Logger) *GroupController {
	return &GroupController{Service: service, logger: logger}
}

func groupID(ctx *fiber.Ctx) (primitive.ObjectID, bool) {
	id, err := primitive.ObjectIDFromHex(ctx.Params("id"))
	return id, err == nil
}

func invalidGroupID(ctx *fiber.Ctx) error {
	return ctx.Status(fiber.StatusBadRequest).JSON(fiber.Map{
		"error": "Invalid group ID",
	})
}

func invalidBody(ctx *fiber.Ctx) error {
	return ctx.Status(fiber.StatusBadRequest).JSON(fiber.Map{
		"error": "Invalid request body",
	})
}

// CreateGroup godoc
// @Summary Create group
// @Description Create a group; the caller becomes its admin and a join code is generated
// @Tags groups
// @Accept json
// @Produce json
// @Param group body CreateGroupRequest true "Group"
// @Success 201 {object} Group
// @Failure 400 {object} map[string]interface{}
// @Router /api/groups [post]
func (c *GroupController) CreateGroup(ctx *fiber.Ctx) error {
	caller, _ := middleware.CurrentIdentity(ctx)

	var req CreateGroupRequest
	if err := ctx.BodyParser(&req); err != nil {
		return invalidBody(ctx)
	}

	group, err := c.Service.CreateGroup(ctx.UserContext(), caller, req)
	if err != nil {
		return common_api.ErrorResponse(ctx, c.logger, err)
	}

	return ctx.Status(fiber.StatusCreated).JSON(group)
}

// GetMyGroups godoc
// @Summary List my groups
// @Tags groups
// @Produce json
// @Success 200 {array} Group
// @Router /api/groups [get]
func (c *GroupController) GetMyGroups(ctx *fiber.Ctx) error {
	caller, _ := middleware.CurrentIdentity(ctx)

	groups, err := c.Service.GetUserGroups(ctx.UserContext(), caller.UserID)
	if err != nil {
		return common_api.ErrorResponse(ctx, c.logger, err)
	}

	return ctx.JSON(groups)
}

// GetGroup godoc
// @Summary Get group
// @Tags groups
// @Produce json
// @Param id path string true "Group ID"
// @Success 200 {object} Group
// @Failure 403 {object} map[string]interface{}
// @Failure 404 {object} map[string]interface{}
// @Router /api/groups/{id} [get]
func (c *GroupController) GetGroup(ctx *fiber.Ctx) error {
	id, ok := groupID(ctx)
	if !ok {
		return invalidGroupID(ctx)
	}
	caller, _ := middleware.CurrentIdentity(ctx)

	group, err := c.Service.GetGroup(ctx.UserContext(), caller, id)
	if err != nil {
		return common_api.ErrorResponse(ctx, c.logger, err)
	}

	return ctx.JSON(group)
}

// UpdateGroup godoc
func (c *GroupController) UpdateGroup(ctx *fiber.Ctx) error {
	id, ok := groupID(ctx)
	if !ok {
		return invalidGroupID(ctx)
	}
	caller, _ := middleware.CurrentIdentity(ctx)

	var req UpdateGroupRequest
	if err := ctx.BodyParser(&req); err != nil {
		return invalidBody(ctx)
	}

	group, err := c.Service.UpdateGroup(ctx.UserContext(), caller, id, req)
	if err != nil {
		return common_api.ErrorResponse(ctx, c.logger, err)
	}

	return ctx.JSON(group)
}

// DeleteGroup godoc
// @Summary Delete group
// @Description Delete a group and remove it from every member's joined groups
// @Tags groups
// @Param id path string true "Group ID"
// @Success 200 {object} map[string]interface{}
// @Failure 403 {object} map[string]interface{}
// @Router /api/groups/{id} [delete]
func (c *GroupController) DeleteGroup(ctx *fiber.Ctx) error {
	id, ok := groupID(ctx)
	if !ok {
		return invalidGroupID(ctx)
	}
	caller, _ := middleware.CurrentIdentity(ctx)

	if err := c.Service.DeleteGroup(ctx.UserContext(), caller, id); err != nil {
		return common_api.ErrorResponse(ctx, c.logger, err)
	}

	return ctx.JSON(fiber.Map{
		"message": "Group deleted successfully",
	})
}

// JoinGroup godoc
// @Summary Join group by code
// @Tags groups
// @Accept json
// @Produce json
// @Param body body JoinGroupRequest true "Join code"
// @Success 200 {object} Group
// @Failure 404 {object} map[string]interface{}
// @Failure 409 {object} map[string]interface{}
// @Router /api/groups/join [post]
func (c *GroupController) JoinGroup(ctx *fiber.Ctx) error {
	caller, _ := middleware.CurrentIdentity(ctx)

	var req JoinGroupRequest
	if err := ctx.BodyParser(&req); err != nil {
		return invalidBody(ctx)
	}

	group, err := c.Service.JoinByCode(ctx.UserContext(), caller, req.Code)
	if err != nil {
		return common_api.ErrorResponse(ctx, c.logger, err)
	}

	return ctx.JSON(group)
}

// LeaveGroup godoc
func (c *GroupController) LeaveGroup(ctx *fiber.Ctx) error {
	id, ok := groupID(ctx)
	if !ok {
		return invalidGroupID(ctx)
	}
	caller, _ := middleware.CurrentIdentity(ctx)

	if err := c.Service.LeaveGroup(ctx.UserContext(), caller, id); err != nil {
		return common_api.ErrorResponse(ctx, c.logger, err)
	}

	return ctx.JSON(fiber.Map{
		"message": "Left group successfully",
	})
}

// RemoveMember godoc
func (c *GroupController) RemoveMember(ctx *fiber.Ctx) error {
	id, ok := groupID(ctx)
	if !ok {
		return invalidGroupID(ctx)
	}
	caller, _ := middleware.CurrentIdentity(ctx)

	group, err := c.Service.RemoveMember(ctx.UserContext(), caller, id, ctx.Params("userId"))
	if err != nil {
		return common_api.ErrorResponse(ctx, c.logger, err)
	}

	return ctx.JSON(group)
}

// RemoveMemberEntry godoc
func (c *GroupController) RemoveMemberEntry(ctx *fiber.Ctx) error {
	id, ok := groupID(ctx)
	if !ok {
		return invalidGroupID(ctx)
	}
	memberID, err := primitive.ObjectIDFromHex(ctx.Params("memberId"))
	if err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid member ID",
		})
	}
	caller, _ := middleware.CurrentIdentity(ctx)

	group, err := c.Service.RemoveMemberByID(ctx.UserContext(), caller, id, memberID)
	if err != nil {
		return common_api.ErrorResponse(ctx, c.logger, err)
	}

	return ctx.JSON(group)
}

// UpdateMemberRole godoc
// @Summary Change member role
// @Tags groups
// @Accept json
// @Produce json
// @Param id path string true "Group ID"
// @Param userId path string true "User ID"
// @Param body body UpdateRoleRequest true "Role"
// @Success 200 {object} Group
// @Failure 404 {object} map[string]interface{}
// @Router /api/groups/{id}/members/{userId}/role [put]
func (c *GroupController) UpdateMemberRole(ctx *fiber.Ctx) error {
	id, ok := groupID(ctx)
	if !ok {
		return invalidGroupID(ctx)
	}
	caller, _ := middleware.CurrentIdentity(ctx)

	var req UpdateRoleRequest
	if err := ctx.BodyParser(&req); err != nil {
		return invalidBody(ctx)
	}

	group, err := c.Service.UpdateMemberRole(ctx.UserContext(), caller, id, ctx.Params("userId"), req.Role)
	if err != nil {
		return common_api.ErrorResponse(ctx, c.logger, err)
	}

	return ctx.JSON(group)
}

// ChooseMovie godoc
func (c *GroupController) ChooseMovie(ctx *fiber.Ctx) error {
	id, ok := groupID(ctx)
	if !ok {
		return invalidGroupID(ctx)
	}
	caller, _ := middleware.CurrentIdentity(ctx)

	var movie ChosenMovie
	if err := ctx.BodyParser(&movie); err != nil {
		return invalidBody(ctx)
	}

	group, err := c.Service.ChooseMovie(ctx.UserContext(), caller, id, movie)
	if err != nil {
		return common_api.ErrorResponse(ctx, c.logger, err)
	}

	return ctx.JSON(group)
}

// ClearActiveVote godoc
func (c *GroupController) ClearActiveVote(ctx *fiber.Ctx) error {
	id, ok := groupID(ctx)
	if !ok {
		return invalidGroupID(ctx)
	}
	caller, _ := middleware.CurrentIdentity(ctx)

	group, err := c.Service.AbandonVote(ctx.UserContext(), caller, id)
	if err != nil {
		return common_api.ErrorResponse(ctx, c.logger, err)
	}

	return ctx.JSON(group)
}

// GetHistory godoc
// @Summary Vote history
// @Description Up to 20 most recent winners, newest first
// @Tags groups
// @Produce json
// @Param id path string true "Group ID"
// @Success 200 {array} VoteHistoryEntry
// @Router /api/groups/{id}/history [get]
func (c *GroupController) GetHistory(ctx *fiber.Ctx) error {
	id, ok := groupID(ctx)
	if !ok {
		return invalidGroupID(ctx)
	}
	caller, _ := middleware.CurrentIdentity(ctx)

	history, err := c.Service.GetHistory(ctx.UserContext(), caller, id)
	if err != nil {
		return common_api.ErrorResponse(ctx, c.logger, err)
	}

	return ctx.JSON(history)
}

// ExportHistory godoc
// @Summary Export vote history
// @Tags groups
// @Produce application/vnd.openxmlformats-officedocument.spreadsheetml.sheet
// @Param id path string true "Group ID"
// @Success 200 {file} file "xlsx workbook"
// @Router /api/groups/{id}/history/export [get]
func (c *GroupController) ExportHistory(ctx *fiber.Ctx) error {
	id, ok := groupID(ctx)
	if !ok {
		return invalidGroupID(ctx)
	}
	caller, _ := middleware.CurrentIdentity(ctx)

	buf, filename, err := c.Service.ExportHistory(ctx.UserContext(), caller, id)
	if err != nil {
		return common_api.ErrorResponse(ctx, c.logger, err)
	}

	ctx.Set(fiber.HeaderContentType, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	ctx.Set(fiber.HeaderContentDisposition, "attachment; filename=\""+filename+"\"")
	return ctx.Send(buf.Bytes())
}

// SetHistoryVoters godoc
func (c *GroupController) SetHistoryVoters(ctx *fiber.Ctx) error {
	id, ok := groupID(ctx)
	if !ok {
		return invalidGroupID(ctx)
	}
	caller, _ := middleware.CurrentIdentity(ctx)

	var req HistoryVotersRequest
	if err := ctx.BodyParser(&req); err != nil {
		return invalidBody(ctx)
	}

	group, err := c.Service.SetHistoryVoters(ctx.UserContext(), caller, id, req.MovieID, req.Voters)
	if err != nil {
		return common_api.ErrorResponse(ctx, c.logger, err)
	}

	return ctx.JSON(group.VoteHistory)
}

// GetRecommendations godoc
func (c *GroupController) GetRecommendations(ctx *fiber.Ctx) error {
	id, ok := groupID(ctx)
	if !ok {
		return invalidGroupID(ctx)
	}
	caller, _ := middleware.CurrentIdentity(ctx)

	recs, err := c.Service.GetRecommendations(ctx.UserContext(), caller, id)
	if err != nil {
		return common_api.ErrorResponse(ctx, c.logger, err)
	}

	return ctx.JSON(recs)
}

// SaveRecommendations godoc
func (c *GroupController) SaveRecommendations(ctx *fiber.Ctx) error {
	id, ok := groupID(ctx)
	if !ok {
		return invalidGroupID(ctx)
	}
	caller, _ := middleware.CurrentIdentity(ctx)

	var req RecommendationsRequest
	if err := ctx.BodyParser(&req); err != nil {
		return invalidBody(ctx)
	}

	group, err := c.Service.SaveRecommendations(ctx.UserContext(), caller, id, req.Recommendations)
	if err != nil {
		return common_api.ErrorResponse(ctx, c.logger, err)
	}

	return ctx.JSON(group.LastRecommendations)
}

// GetActivity godoc
// @Summary Group activity log
// @Tags groups
// @Produce json
// @Param id path string true "Group ID"
// @Param page query int false "Page"
// @Param limit query int false "Page size"
// @Success 200 {array} map[string]interface{}
// @Router /api/groups/{id}/activity [get]
func (c *GroupController) GetActivity(ctx *fiber.Ctx) error {
	id, ok := groupID(ctx)
	if !ok {
		return invalidGroupID(ctx)
	}
	caller, _ := middleware.CurrentIdentity(ctx)

	page, _ := strconv.ParseInt(ctx.Query("page", "1"), 10, 64)
	limit, _ := strconv.ParseInt(ctx.Query("limit", "20"), 10, 64)

	logs, err := c.Service.GetActivity(ctx.UserContext(), caller, id, page, limit)
	if err != nil {
		return common_api.ErrorResponse(ctx, c.logger, err)
	}

	return ctx.JSON(logs)
}
