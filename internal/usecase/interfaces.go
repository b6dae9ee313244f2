package usecase

import (
	"context"
	"time"

	"webugs/internal/domain/chat"
	"webugs/internal/domain/entity"
)

// Notifier is the UI notification surface. Implementations must not block
// the caller for long; the websocket manager queues per client.
type Notifier interface {
	NotifyUnreadTotal(userID string, total int)
	NotifyChatList(userID string, list *chat.ChatList)
	NotifyRoom(userID string, view *RoomView)
	NotifyCompletionPrompt(userID string, prompt *CompletionPrompt)
}

// TokenVerifier resolves a bearer token to a user id.
type TokenVerifier interface {
	VerifyToken(ctx context.Context, token string) (string, error)
}

// RoomView is one participant's rendering of a room snapshot.
type RoomView struct {
	RoomID       string               `json:"room_id"`
	RequestID    string               `json:"request_id,omitempty"`
	Participants []string             `json:"participants"`
	OtherUser    entity.Profile       `json:"other_user"`
	Timeline     []chat.TimelineEntry `json:"timeline"`
	UnreadCount  int                  `json:"unread_count"`
	State        chat.HandshakeState  `json:"state"`
	Prompt       *CompletionPrompt    `json:"completion_prompt,omitempty"`
	Hidden       bool                 `json:"hidden"`
	Deleted      bool                 `json:"deleted"`
	UpdatedAt    time.Time            `json:"updated_at"`
}

// CompletionPrompt asks the requester to accept or reject a collector's
// completion signal, with a rating in [MinRating, MaxRating].
type CompletionPrompt struct {
	RoomID        string         `json:"room_id"`
	RequestID     string         `json:"request_id"`
	CollectorID   string         `json:"collector_id"`
	Message       entity.Message `json:"message"`
	MinRating     int            `json:"min_rating"`
	MaxRating     int            `json:"max_rating"`
	DefaultRating int            `json:"default_rating"`
}

func newCompletionPrompt(room *entity.Room, msg entity.Message) *CompletionPrompt {
	return &CompletionPrompt{
		RoomID:        room.ID,
		RequestID:     room.RequestID,
		CollectorID:   room.CollectionCompletedBy,
		Message:       msg,
		MinRating:     entity.MinRating,
		MaxRating:     entity.MaxRating,
		DefaultRating: entity.DefaultRating,
	}
}
