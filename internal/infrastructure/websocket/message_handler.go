package websocket

import (
	"encoding/json"
	"strings"
	"time"

	"webugs/internal/domain/chat"
	"webugs/internal/usecase"
	"webugs/pkg/logger"
)

const (
	MessageTypePing             = "ping"
	MessageTypePong             = "pong"
	MessageTypeError            = "error"
	MessageTypeMarkRead         = "mark_read"
	MessageTypeUnreadTotal      = "unread_total"
	MessageTypeChatList         = "chat_list"
	MessageTypeRoomUpdate       = "room_update"
	MessageTypeCompletionPrompt = "completion_prompt"
)

type WSMessage struct {
	Type      string          `json:"type"`
	Data      json.RawMessage `json:"data,omitempty"`
	ChatID    string          `json:"chat_id,omitempty"`
	Timestamp string          `json:"timestamp,omitempty"`
}

type outgoing struct {
	Type      string      `json:"type"`
	Data      interface{} `json:"data"`
	Timestamp string      `json:"timestamp"`
}

type MarkReadData struct {
	ChatID    string `json:"chat_id"`
	MessageID string `json:"message_id"`
}

type UnreadTotalData struct {
	Total int `json:"total"`
}

var _ usecase.Notifier = (*Manager)(nil)

func (m *Manager) NotifyUnreadTotal(userID string, total int) {
	m.push(userID, MessageTypeUnreadTotal, UnreadTotalData{Total: total}, nil)
}

func (m *Manager) NotifyChatList(userID string, list *chat.ChatList) {
	m.push(userID, MessageTypeChatList, list, func(topic string) bool {
		return topic == TopicChatList
	})
}

func (m *Manager) NotifyRoom(userID string, view *usecase.RoomView) {
	topic := RoomTopic(view.RoomID)
	m.push(userID, MessageTypeRoomUpdate, view, func(t string) bool {
		return t == topic
	})
}

func (m *Manager) NotifyCompletionPrompt(userID string, prompt *usecase.CompletionPrompt) {
	m.push(userID, MessageTypeCompletionPrompt, prompt, nil)
}

func (m *Manager) push(userID, kind string, data interface{}, match func(topic string) bool) {
	payload, err := json.Marshal(outgoing{
		Type:      kind,
		Data:      data,
		Timestamp: time.Now().Format(time.RFC3339),
	})
	if err != nil {
		logger.Error("WebSocket: failed to marshal %s for %s: %v", kind, userID, err)
		return
	}
	m.sendToUser(userID, payload, match)
}

// HandleClientMessage answers pings and hands everything else to the
// client's OnMessage hook.
func (m *Manager) HandleClientMessage(c *Client, raw []byte) {
	var msg WSMessage
	if err := json.Unmarshal(raw, &msg); err != nil {
		logger.Warn("WebSocket: bad frame from %s: %v", c.UserID, err)
		m.sendToClient(c, MessageTypeError, map[string]string{"error": "Invalid message format"})
		return
	}

	switch strings.ToLower(msg.Type) {
	case MessageTypePing:
		m.sendToClient(c, MessageTypePong, nil)
	default:
		if c.OnMessage == nil {
			m.sendToClient(c, MessageTypeError, map[string]string{"error": "Unsupported message type " + msg.Type})
			return
		}
		c.OnMessage(c, msg)
	}
}

// SendError reports a failed client request back on the same connection.
func (m *Manager) SendError(c *Client, message string) {
	m.sendToClient(c, MessageTypeError, map[string]string{"error": message})
}

func (m *Manager) sendToClient(c *Client, kind string, data interface{}) {
	payload, err := json.Marshal(outgoing{Type: kind, Data: data, Timestamp: time.Now().Format(time.RFC3339)})
	if err != nil {
		return
	}

	m.mutex.RLock()
	_, live := m.clients[c.UserID][c]
	full := false
	if live {
		select {
		case c.Send <- payload:
		default:
			full = true
		}
	}
	m.mutex.RUnlock()

	if full {
		m.Unregister(c)
	}
}
