// Package chat holds the pure rules of the chat core: message construction,
// read tracking, unread counting, timeline building, handshake state and the
// chat list projection. Nothing here touches the store.
package chat

import (
	"strings"
	"time"

	"github.com/google/uuid"

	"webugs/internal/domain/entity"
	"webugs/pkg/errors"
)

// Clock is the authoritative time source for message and room stamps.
type Clock interface {
	Now() time.Time
}

type ClockFunc func() time.Time

func (f ClockFunc) Now() time.Time { return f() }

var SystemClock Clock = ClockFunc(func() time.Time { return time.Now().UTC() })

type IDGenerator func() string

func UUIDGenerator() string {
	return uuid.New().String()
}

type MessageInput struct {
	RoomID      string
	SenderID    string
	RecipientID string
	Content     string
	Media       *entity.Media
	// RequestID binds the room to a request when this send creates it.
	RequestID string
}

// Validate rejects sends with missing ids or with neither content nor media.
func (in MessageInput) Validate() error {
	if in.RoomID == "" {
		return errors.InvalidMessage("room id is required")
	}
	if in.SenderID == "" || in.RecipientID == "" {
		return errors.InvalidMessage("sender and recipient are required")
	}
	if in.SenderID == in.RecipientID {
		return errors.InvalidMessage("sender and recipient must differ")
	}
	if in.Media != nil {
		if !in.Media.Kind.Valid() {
			return errors.InvalidMessage("media type must be photo or video")
		}
		if in.Media.URL == "" {
			return errors.InvalidMessage("media url is required")
		}
	}
	if strings.TrimSpace(in.Content) == "" && in.Media == nil {
		return errors.InvalidMessage("message content is empty")
	}
	return nil
}

// ValidateAppend checks msg against the stored room: both ends of the
// message must be participants and a deleted room takes no new messages.
func ValidateAppend(room *entity.Room, msg entity.Message) error {
	if !room.HasParticipant(msg.SenderID) {
		return errors.Forbidden("You are not a participant of this chat", nil)
	}
	if !room.HasParticipant(msg.RecipientID) {
		return errors.InvalidMessage("recipient is not a participant of this chat")
	}
	if room.Deleted {
		return errors.Conflict("this chat is closed")
	}
	return nil
}

// Codec builds wire-ready messages: it validates input, assigns a unique id
// and stamps the server time. New messages always carry an explicit
// read=false flag.
type Codec struct {
	clock Clock
	newID IDGenerator
}

func NewCodec(clock Clock, newID IDGenerator) *Codec {
	if clock == nil {
		clock = SystemClock
	}
	if newID == nil {
		newID = UUIDGenerator
	}
	return &Codec{clock: clock, newID: newID}
}

func (c *Codec) Now() time.Time {
	return c.clock.Now()
}

func (c *Codec) NewMessage(in MessageInput) (entity.Message, error) {
	if err := in.Validate(); err != nil {
		return entity.Message{}, err
	}
	msg := entity.Message{
		ID:          c.newID(),
		SenderID:    in.SenderID,
		RecipientID: in.RecipientID,
		Content:     in.Content,
		Timestamp:   c.clock.Now(),
		Read:        entity.Bool(false),
	}
	if in.Media != nil {
		media := *in.Media
		msg.Media = &media
	}
	return msg, nil
}

// NewID returns a fresh identifier from the codec's generator.
func (c *Codec) NewID() string {
	return c.newID()
}
