package router

import (
	"github.com/labstack/echo/v4"

	"webugs/internal/adapter/api/handler"
)

func SetupChatRouter(v1 *echo.Group, chatHandler *handler.ChatHandler, completionHandler *handler.CompletionHandler) {
	chatGroup := v1.Group("/chats")

	chatGroup.POST("", chatHandler.CreateChat)
	chatGroup.GET("", chatHandler.GetChatList)
	chatGroup.GET("/unread", chatHandler.GetUnreadTotal)
	chatGroup.GET("/:id", chatHandler.GetChat)
	chatGroup.DELETE("/:id", chatHandler.DeleteChat)
	chatGroup.POST("/:id/hide", chatHandler.HideChat)
	chatGroup.POST("/:id/leave", chatHandler.LeaveChat)

	chatGroup.POST("/:id/messages", chatHandler.SendMessage)
	chatGroup.POST("/:id/media", chatHandler.SendMedia)
	chatGroup.PUT("/:id/read", chatHandler.MarkAllRead)
	chatGroup.PUT("/:id/messages/:messageId/read", chatHandler.MarkMessageRead)

	chatGroup.POST("/:id/completion", completionHandler.Complete)
	chatGroup.POST("/:id/completion/accept", completionHandler.Accept)
	chatGroup.POST("/:id/completion/reject", completionHandler.Reject)
}
