package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"sync/atomic"

	gorillaws "github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"

	ws "webugs/internal/infrastructure/websocket"
	"webugs/internal/usecase"
	"webugs/pkg/errors"
	"webugs/pkg/logger"
	"webugs/pkg/response"
)

type WebSocketHandler struct {
	wsManager       *ws.Manager
	chatUseCase     *usecase.ChatUseCase
	chatListUseCase *usecase.ChatListUseCase
	upgrader        gorillaws.Upgrader
}

func NewWebSocketHandler(wsManager *ws.Manager, chatUseCase *usecase.ChatUseCase, chatListUseCase *usecase.ChatListUseCase) *WebSocketHandler {
	return &WebSocketHandler{
		wsManager:       wsManager,
		chatUseCase:     chatUseCase,
		chatListUseCase: chatListUseCase,
		upgrader: gorillaws.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				return true
			},
		},
	}
}

// HandleChatList streams chat_list and unread_total events for the caller.
func (h *WebSocketHandler) HandleChatList(c echo.Context) error {
	userID := uid(c)
	return h.serve(c, ws.NewClient(userID, ws.TopicChatList, nil), func(ctx context.Context) (*usecase.Subscription, error) {
		return h.chatListUseCase.Watch(ctx, userID)
	})
}

// HandleRoom streams room_update events for one room and marks incoming
// messages read while the connection is open.
func (h *WebSocketHandler) HandleRoom(c echo.Context) error {
	userID := uid(c)
	roomID := c.Param("id")
	client := ws.NewClient(userID, ws.RoomTopic(roomID), nil)
	return h.serve(c, client, func(ctx context.Context) (*usecase.Subscription, error) {
		client.OnMessage = h.roomMessageHandler(ctx, roomID)
		return h.chatUseCase.WatchRoom(ctx, roomID, userID)
	})
}

func (h *WebSocketHandler) serve(c echo.Context, client *ws.Client, watch func(ctx context.Context) (*usecase.Subscription, error)) error {
	if client.UserID == "" {
		return response.Error(c, errors.Unauthenticated("Authentication required"))
	}

	conn, err := h.upgrader.Upgrade(c.Response(), c.Request(), nil)
	if err != nil {
		logger.Warn("WebSocket upgrade for %s failed: %v", client.UserID, err)
		return nil
	}
	client.Conn = conn

	// The request context lives as long as this handler blocks in ReadPump.
	ctx := c.Request().Context()
	var sub atomic.Pointer[usecase.Subscription]
	client.OnClose = func() {
		if s := sub.Load(); s != nil {
			s.Stop()
		}
	}
	h.wsManager.Register(client)

	s, err := watch(ctx)
	if err != nil {
		h.wsManager.SendError(client, err.Error())
		h.wsManager.Unregister(client)
		client.WritePump()
		return nil
	}
	sub.Store(s)

	go client.WritePump()
	client.ReadPump(h.wsManager)
	return nil
}

func (h *WebSocketHandler) roomMessageHandler(ctx context.Context, roomID string) func(*ws.Client, ws.WSMessage) {
	return func(client *ws.Client, msg ws.WSMessage) {
		if msg.Type != ws.MessageTypeMarkRead {
			h.wsManager.SendError(client, "Unsupported message type "+msg.Type)
			return
		}
		var data ws.MarkReadData
		if err := json.Unmarshal(msg.Data, &data); err != nil || data.MessageID == "" {
			h.wsManager.SendError(client, "Invalid mark read format")
			return
		}
		if _, err := h.chatUseCase.MarkRead(ctx, roomID, data.MessageID, client.UserID); err != nil {
			h.wsManager.SendError(client, err.Error())
		}
	}
}
