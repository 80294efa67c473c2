package middleware

import (
	"context"
	"time"

	"github.com/hicham-zad/pikonote-backend/internal/common/models"
	"github.com/hicham-zad/pikonote-backend/pkg/utils"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

const requestIDHeader = "X-Request-ID"

// RequestIDMiddleware reuses an incoming X-Request-ID or mints one.
func RequestIDMiddleware() fiber.Handler {
	return func(c *fiber.Ctx) error {
		id := c.Get(requestIDHeader)
		if id == "" {
			id = uuid.NewString()
		}
		c.Set(requestIDHeader, id)
		c.Locals(models.RequestIDKey, id)
		c.SetUserContext(context.WithValue(c.UserContext(), models.RequestIDKey, id))
		return c.Next()
	}
}

// RequestLogger logs every request once it completes. Server errors are
// logged at warn so they reach the logs collection.
func RequestLogger(logger *zap.Logger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		start := time.Now()
		err := c.Next()

		status := c.Response().StatusCode()
		if err != nil {
			if e, ok := err.(*fiber.Error); ok {
				status = e.Code
			} else {
				status = fiber.StatusInternalServerError
			}
		}

		fields := []zap.Field{
			zap.String("method", c.Method()),
			zap.String("path", c.Path()),
			zap.Int("status", status),
			zap.Duration("latency", time.Since(start)),
		}
		if id, ok := c.Locals(models.RequestIDKey).(string); ok {
			fields = append(fields, zap.String("request_id", id))
		}
		if claims, ok := c.Locals(utils.UserClaimsKey).(*utils.UserClaims); ok {
			fields = append(fields, zap.String("user_id", claims.UserID()))
		}

		if status >= fiber.StatusInternalServerError {
			logger.Warn("request failed", fields...)
		} else {
			logger.Debug("request", fields...)
		}
		return err
	}
}
