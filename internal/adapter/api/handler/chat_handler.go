package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"webugs/internal/domain/chat"
	"webugs/internal/domain/entity"
	"webugs/internal/usecase"
	"webugs/pkg/errors"
	"webugs/pkg/response"
)

const maxMediaBytes = 50 << 20

type ChatHandler struct {
	chatUseCase     *usecase.ChatUseCase
	chatListUseCase *usecase.ChatListUseCase
}

func NewChatHandler(chatUseCase *usecase.ChatUseCase, chatListUseCase *usecase.ChatListUseCase) *ChatHandler {
	return &ChatHandler{
		chatUseCase:     chatUseCase,
		chatListUseCase: chatListUseCase,
	}
}

type createChatRequest struct {
	OtherUserID string `json:"other_user_id" validate:"required"`
	RequestID   string `json:"request_id"`
}

type sendMessageRequest struct {
	RecipientID string `json:"recipient_id" validate:"required"`
	Content     string `json:"content" validate:"required,max=2000"`
	RequestID   string `json:"request_id"`
}

// uid is set by AuthMiddleware on every route of this handler.
func uid(c echo.Context) string {
	id, _ := c.Get("uid").(string)
	return id
}

func (h *ChatHandler) CreateChat(c echo.Context) error {
	var req createChatRequest
	if err := c.Bind(&req); err != nil {
		return response.Error(c, err)
	}
	if err := c.Validate(&req); err != nil {
		return response.Error(c, err)
	}

	room, err := h.chatUseCase.CreateRoom(c.Request().Context(), uid(c), req.OtherUserID, req.RequestID)
	if err != nil {
		return response.Error(c, err)
	}
	return response.Created(c, room)
}

func (h *ChatHandler) GetChatList(c echo.Context) error {
	list, err := h.chatListUseCase.List(c.Request().Context(), uid(c))
	if err != nil {
		return response.Error(c, err)
	}
	return response.Success(c, list)
}

func (h *ChatHandler) GetUnreadTotal(c echo.Context) error {
	total, err := h.chatUseCase.TotalUnread(c.Request().Context(), uid(c))
	if err != nil {
		return response.Error(c, err)
	}
	return response.Success(c, map[string]int{"total_unread": total})
}

func (h *ChatHandler) GetChat(c echo.Context) error {
	view, err := h.chatUseCase.GetRoomView(c.Request().Context(), c.Param("id"))
	if err != nil {
		return response.Error(c, err)
	}
	return response.Success(c, view)
}

func (h *ChatHandler) SendMessage(c echo.Context) error {
	var req sendMessageRequest
	if err := c.Bind(&req); err != nil {
		return response.Error(c, err)
	}
	if err := c.Validate(&req); err != nil {
		return response.Error(c, err)
	}

	msg, err := h.chatUseCase.SendMessage(c.Request().Context(), chat.MessageInput{
		RoomID:      c.Param("id"),
		SenderID:    uid(c),
		RecipientID: req.RecipientID,
		Content:     req.Content,
		RequestID:   req.RequestID,
	})
	if err != nil {
		return response.Error(c, err)
	}
	return response.Created(c, msg)
}

// SendMedia takes a multipart form with file, type (photo|video),
// recipient_id and an optional caption in content.
func (h *ChatHandler) SendMedia(c echo.Context) error {
	c.Request().Body = http.MaxBytesReader(c.Response(), c.Request().Body, maxMediaBytes)

	fileHeader, err := c.FormFile("file")
	if err != nil {
		return response.Error(c, errors.BadRequest("file is required", err))
	}
	kind := entity.MediaKind(c.FormValue("type"))
	if !kind.Valid() {
		return response.Error(c, errors.BadRequest("type must be one of: photo video", nil))
	}

	file, err := fileHeader.Open()
	if err != nil {
		return response.Error(c, errors.BadRequest("Failed to read file", err))
	}
	defer file.Close()

	contentType := fileHeader.Header.Get("Content-Type")
	msg, err := h.chatUseCase.SendMediaMessage(c.Request().Context(), chat.MessageInput{
		RoomID:      c.Param("id"),
		SenderID:    uid(c),
		RecipientID: c.FormValue("recipient_id"),
		Content:     c.FormValue("content"),
		RequestID:   c.FormValue("request_id"),
	}, kind, contentType, file)
	if err != nil {
		return response.Error(c, err)
	}
	return response.Created(c, msg)
}

func (h *ChatHandler) MarkAllRead(c echo.Context) error {
	marked, err := h.chatUseCase.MarkAllRead(c.Request().Context(), c.Param("id"), uid(c))
	if err != nil {
		return response.Error(c, err)
	}
	return response.Success(c, map[string]int{"marked": marked})
}

func (h *ChatHandler) MarkMessageRead(c echo.Context) error {
	room, err := h.chatUseCase.MarkRead(c.Request().Context(), c.Param("id"), c.Param("messageId"), uid(c))
	if err != nil {
		return response.Error(c, err)
	}
	return response.Success(c, map[string]int{"unread_count": chat.UnreadCount(room, uid(c))})
}

func (h *ChatHandler) HideChat(c echo.Context) error {
	if err := h.chatUseCase.HideRoom(c.Request().Context(), c.Param("id")); err != nil {
		return response.Error(c, err)
	}
	return response.Success(c, map[string]bool{"hidden": true})
}

func (h *ChatHandler) LeaveChat(c echo.Context) error {
	if err := h.chatUseCase.LeaveRoom(c.Request().Context(), c.Param("id"), uid(c)); err != nil {
		return response.Error(c, err)
	}
	return response.Success(c, map[string]bool{"left": true})
}

func (h *ChatHandler) DeleteChat(c echo.Context) error {
	deleted, err := h.chatUseCase.DeleteRoom(c.Request().Context(), c.Param("id"))
	if err != nil {
		return response.Error(c, err)
	}
	return response.Success(c, map[string]bool{"deleted": deleted})
}
