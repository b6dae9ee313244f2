package router

import (
	"github.com/labstack/echo/v4"

	"webugs/internal/adapter/api/handler"
	"webugs/internal/adapter/api/middleware"
)

// Handlers bundles everything the routes dispatch to. DevToken may be nil
// outside development.
type Handlers struct {
	Chat       *handler.ChatHandler
	Completion *handler.CompletionHandler
	Request    *handler.RequestHandler
	History    *handler.HistoryHandler
	WebSocket  *handler.WebSocketHandler
	Health     *handler.HealthHandler
	DevToken   *handler.DevTokenHandler
}

func Setup(e *echo.Echo, h Handlers, authMiddleware *middleware.AuthMiddleware, rateLimit echo.MiddlewareFunc) {
	SetupHealthRouter(e, h.Health)
	SetupDevRouter(e, h.DevToken)

	v1 := e.Group("/v1")
	v1.Use(authMiddleware.Authenticate)
	if rateLimit != nil {
		v1.Use(rateLimit)
	}

	SetupChatRouter(v1, h.Chat, h.Completion)
	SetupRequestRouter(v1, h.Request, h.History)
	SetupWebSocketRouter(v1, h.WebSocket)
}
