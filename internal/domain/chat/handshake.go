package chat

import (
	"time"

	"webugs/internal/domain/entity"
	"webugs/pkg/errors"
)

// Sentinel contents encode handshake events as ordinary chat messages.
const (
	SentinelCompletion = "채집완료"
	SentinelAccepted   = "채집완료 수락"
	SentinelRejected   = "채집완료 거절"
)

type HandshakeState string

const (
	StateOpen              HandshakeState = "open"
	StateCompletionPending HandshakeState = "completion_pending"
	StateRejected          HandshakeState = "rejected"
	StateAccepted          HandshakeState = "accepted"
)

// State derives the handshake state from the room's flags only, never from
// message order. Rejected rooms accept a new completion like open ones.
func State(room *entity.Room) HandshakeState {
	switch {
	case room.Deleted && room.CollectionCompleted:
		return StateAccepted
	case room.CollectionCompleted && !room.CollectionRejected:
		return StateCompletionPending
	case room.CollectionRejected:
		return StateRejected
	default:
		return StateOpen
	}
}

func IsSentinel(content string) bool {
	switch content {
	case SentinelCompletion, SentinelAccepted, SentinelRejected:
		return true
	}
	return false
}

// IsCompletionPrompt reports whether msg should be rendered to viewerID as
// an actionable accept/reject prompt instead of plain text.
func IsCompletionPrompt(msg entity.Message, viewerID string) bool {
	return msg.Content == SentinelCompletion && msg.Media == nil && msg.SenderID != viewerID
}

// ApplyCompletion moves an open or rejected room into CompletionPending. It
// reports appended=false when the room was already pending: the duplicate
// signal only re-sets the same fields.
func ApplyCompletion(room *entity.Room, collectorID string, signal entity.Message, now time.Time) (appended bool, err error) {
	switch State(room) {
	case StateAccepted:
		return false, errors.Conflict("collection was already accepted")
	case StateCompletionPending:
		room.CollectionCompletedBy = collectorID
		room.Touch(now)
		return false, nil
	}
	room.Messages = append(room.Messages, signal)
	room.CollectionCompleted = true
	room.CollectionCompletedBy = collectorID
	room.CollectionCompletedAt = &now
	room.CollectionRejected = false
	room.CollectionRejectedAt = nil
	room.Hidden = false
	room.Touch(now)
	return true, nil
}

// ApplyRejection records the requester's rejection; the conversation goes
// on and a new completion may follow.
func ApplyRejection(room *entity.Room, response entity.Message, now time.Time) error {
	if State(room) != StateCompletionPending {
		return errors.Conflict("no completion is pending in this room")
	}
	room.Messages = append(room.Messages, response)
	room.CollectionRejected = true
	room.CollectionRejectedAt = &now
	room.Hidden = false
	room.Touch(now)
	return nil
}

// ApplyAcceptance closes the room: the accepted sentinel is kept for the
// audit trail and the room is marked deleted.
func ApplyAcceptance(room *entity.Room, response entity.Message, now time.Time) error {
	if State(room) != StateCompletionPending {
		return errors.Conflict("no completion is pending in this room")
	}
	room.Messages = append(room.Messages, response)
	room.Deleted = true
	room.Hidden = true
	room.Touch(now)
	return nil
}

// ResolveRating applies the default and bounds to a requester's rating.
func ResolveRating(rating *int) (int, error) {
	if rating == nil {
		return entity.DefaultRating, nil
	}
	if *rating < entity.MinRating || *rating > entity.MaxRating {
		return 0, errors.InvalidMessage("rating must be between 0 and 10")
	}
	return *rating, nil
}
