package router

import (
	"github.com/labstack/echo/v4"

	"webugs/internal/adapter/api/handler"
)

// SetupWebSocketRouter mounts the live streams. Auth runs in the v1 group;
// clients that cannot send headers pass ?token=.
func SetupWebSocketRouter(v1 *echo.Group, wsHandler *handler.WebSocketHandler) {
	v1.GET("/ws", wsHandler.HandleChatList)
	v1.GET("/ws/chats/:id", wsHandler.HandleRoom)
}
