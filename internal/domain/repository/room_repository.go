package repository

import (
	"context"
	"errors"
	"time"

	"webugs/internal/domain/entity"
)

// ErrStreamClosed is returned by Next once a stream was stopped or its
// underlying listener ended.
var ErrStreamClosed = errors.New("snapshot stream closed")

// RoomMutation maps the current room document to its next state. Returning
// an error aborts the write.
type RoomMutation func(room *entity.Room) error

type RoomRepository interface {
	// Create stores room under room.ID, or under a store-generated id when
	// room.ID is empty. It reports created=false and leaves the stored
	// document untouched when the id is already taken.
	Create(ctx context.Context, room *entity.Room) (created bool, err error)
	GetByID(ctx context.Context, id string) (*entity.Room, error)
	// FindByParticipants finds a room between exactly these two users bound
	// to requestID ("" matches rooms without a request).
	FindByParticipants(ctx context.Context, userA, userB, requestID string) (*entity.Room, error)
	ListByParticipant(ctx context.Context, userID string) ([]*entity.Room, error)

	// Append adds msg to the room's message list atomically. When the room
	// does not exist yet, seed is stored with msg as its first message.
	Append(ctx context.Context, roomID string, msg entity.Message, seed *entity.Room, now time.Time) (*entity.Room, error)
	// Mutate is the transactional load, map, store primitive over the whole
	// room document.
	Mutate(ctx context.Context, roomID string, fn RoomMutation) (*entity.Room, error)
	Delete(ctx context.Context, id string) error

	Watch(ctx context.Context, roomID string) (RoomStream, error)
	WatchByParticipant(ctx context.Context, userID string) (RoomSetStream, error)
}

// RoomSnapshot is one full-document push. Exists is false once the
// document was removed.
type RoomSnapshot struct {
	RoomID   string
	Room     *entity.Room
	Exists   bool
	ReadTime time.Time
}

type RoomStream interface {
	Next() (*RoomSnapshot, error)
	Stop()
}

type ChangeKind int

const (
	RoomAdded ChangeKind = iota
	RoomModified
	RoomRemoved
)

func (k ChangeKind) String() string {
	switch k {
	case RoomAdded:
		return "added"
	case RoomModified:
		return "modified"
	case RoomRemoved:
		return "removed"
	}
	return "unknown"
}

type RoomChange struct {
	Kind ChangeKind
	Room *entity.Room
}

// RoomSetSnapshot carries the full current result set of a participant
// query plus the per-room changes since the previous snapshot.
type RoomSetSnapshot struct {
	Rooms    []*entity.Room
	Changes  []RoomChange
	ReadTime time.Time
}

type RoomSetStream interface {
	Next() (*RoomSetSnapshot, error)
	Stop()
}
