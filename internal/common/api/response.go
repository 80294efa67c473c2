package api

import (
	"errors"

	"github.com/hicham-zad/pikonote-backend/internal/common/apperr"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

// StatusFor maps the apperr taxonomy onto HTTP status codes.
func StatusFor(err error) int {
	switch {
	case errors.Is(err, apperr.ErrValidation), errors.Is(err, apperr.ErrInvalidSelection):
		return fiber.StatusBadRequest
	case errors.Is(err, apperr.ErrForbidden):
		return fiber.StatusForbidden
	case errors.Is(err, apperr.ErrNotFound), errors.Is(err, apperr.ErrMemberNotFound):
		return fiber.StatusNotFound
	case errors.Is(err, apperr.ErrDuplicateMember),
		errors.Is(err, apperr.ErrConflict),
		errors.Is(err, apperr.ErrSessionEnded):
		return fiber.StatusConflict
	default:
		return fiber.StatusInternalServerError
	}
}

// ErrorResponse writes {"error": msg}. Storage failures are logged and
// reported with a generic message.
func ErrorResponse(ctx *fiber.Ctx, logger *zap.Logger, err error) error {
	code := StatusFor(err)
	if code == fiber.StatusInternalServerError {
		if logger != nil {
			logger.Error("request failed",
				zap.String("method", ctx.Method()),
				zap.String("path", ctx.Path()),
				zap.Error(err),
			)
		}
		return ctx.Status(code).JSON(fiber.Map{
			"error": "Internal server error",
		})
	}
	return ctx.Status(code).JSON(fiber.Map{
		"error": err.Error(),
	})
}
