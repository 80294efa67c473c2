package votesession

import (
	common_api "github.com/hicham-zad/pikonote-backend/internal/common/api"
	"github.com/hicham-zad/pikonote-backend/internal/features/live"
	"github.com/hicham-zad/pikonote-backend/internal/middleware"

	"github.com/gofiber/contrib/websocket"
	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

const (
	localSessionID = "live_session_id"
	localUserID    = "live_user_id"
)

// LiveController streams a session's events to its group's members.
type LiveController struct {
	Service VoteSessionService
	hub     *live.Hub
	logger  *zap.Logger
}

func NewLiveController(service VoteSessionService, hub *live.Hub, logger *zap.Logger) *LiveController {
	return &LiveController{Service: service, hub: hub, logger: logger}
}

// Authorize rejects non-websocket requests and callers outside the group
// before the connection is upgraded.
func (c *LiveController) Authorize(ctx *fiber.Ctx) error {
	if !websocket.IsWebSocketUpgrade(ctx) {
		return fiber.ErrUpgradeRequired
	}

	id, ok := idParam(ctx)
	if !ok {
		return invalidID(ctx)
	}
	caller, _ := middleware.CurrentIdentity(ctx)

	if err := c.Service.AuthorizeViewer(ctx.UserContext(), caller, id); err != nil {
		return common_api.ErrorResponse(ctx, c.logger, err)
	}

	ctx.Locals(localSessionID, id.Hex())
	ctx.Locals(localUserID, caller.UserID)
	return ctx.Next()
}

func (c *LiveController) Stream(conn *websocket.Conn) {
	sessionID, _ := conn.Locals(localSessionID).(string)
	userID, _ := conn.Locals(localUserID).(string)

	sub := c.hub.Subscribe(sessionID, userID)
	if sub == nil {
		return
	}
	defer c.hub.Unsubscribe(sub)

	// Clients only listen; reading detects the close.
	closed := make(chan struct{})
	go func() {
		defer close(closed)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	for {
		select {
		case msg, ok := <-sub.Send:
			if !ok {
				return
			}
			if err := conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				c.logger.Debug("live write failed", zap.String("session_id", sessionID), zap.Error(err))
				return
			}
		case <-closed:
			return
		}
	}
}
