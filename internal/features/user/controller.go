package user

import (
	common_api "github.com/hicham-zad/pikonote-backend/internal/common/api"
	"github.com/hicham-zad/pikonote-backend/internal/middleware"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

type UserController struct {
	userService UserService
	logger      *zap.Logger
}

func NewUserController(userService UserService, logger *zap.Logger) *UserController {
	return &UserController{
		userService: userService,
		logger:      logger,
	}
}

// GetMe godoc
// @Summary Current user
// @Description Sync the caller's profile from the token and return it with joined groups
// @Tags users
// @Produce json
// @Success 200 {object} Profile
// @Failure 401 {object} map[string]interface{}
// @Router /api/users/me [get]
func (ctrl *UserController) GetMe(c *fiber.Ctx) error {
	identity, ok := middleware.CurrentIdentity(c)
	if !ok {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"error": "Unauthorized",
		})
	}

	profile, err := ctrl.userService.Sync(c.UserContext(), identity)
	if err != nil {
		return common_api.ErrorResponse(c, ctrl.logger, err)
	}

	return c.JSON(profile)
}
