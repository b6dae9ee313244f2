package memory

import (
	"context"
	"sort"
	"time"

	"webugs/internal/domain/chat"
	"webugs/internal/domain/entity"
	"webugs/internal/domain/repository"
	"webugs/pkg/errors"
)

type roomRepository struct {
	store *Store
}

func (r *roomRepository) Create(ctx context.Context, room *entity.Room) (bool, error) {
	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.fault(OpRoomCreate); err != nil {
		return false, err
	}
	if room.ID == "" {
		room.ID = s.newID()
	}
	if _, exists := s.rooms[room.ID]; exists {
		return false, nil
	}
	s.putRoom(room)
	return true, nil
}

func (r *roomRepository) GetByID(ctx context.Context, id string) (*entity.Room, error) {
	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.fault(OpRoomGet); err != nil {
		return nil, err
	}
	rec, ok := s.rooms[id]
	if !ok {
		return nil, errors.RoomNotFound(id, nil)
	}
	return rec.room.Clone(), nil
}

func (r *roomRepository) FindByParticipants(ctx context.Context, userA, userB, requestID string) (*entity.Room, error) {
	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()

	var found *entity.Room
	for _, rec := range s.rooms {
		room := rec.room
		if room.Deleted || room.RequestID != requestID || !chat.SamePair(room.Participants, userA, userB) {
			continue
		}
		if found == nil || room.CreatedAt.Before(found.CreatedAt) {
			found = room
		}
	}
	if found == nil {
		return nil, errors.NotFound("Chat room", nil)
	}
	return found.Clone(), nil
}

func (r *roomRepository) ListByParticipant(ctx context.Context, userID string) ([]*entity.Room, error) {
	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.roomsOf(userID), nil
}

// roomsOf returns copies of the user's rooms, newest first. Caller holds s.mu.
func (s *Store) roomsOf(userID string) []*entity.Room {
	rooms := []*entity.Room{}
	for _, rec := range s.rooms {
		if rec.room.HasParticipant(userID) {
			rooms = append(rooms, rec.room.Clone())
		}
	}
	sort.Slice(rooms, func(i, j int) bool {
		return rooms[i].UpdatedAt.After(rooms[j].UpdatedAt)
	})
	return rooms
}

func (r *roomRepository) Append(ctx context.Context, roomID string, msg entity.Message, seed *entity.Room, now time.Time) (*entity.Room, error) {
	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.fault(OpRoomAppend); err != nil {
		return nil, err
	}
	var room *entity.Room
	if rec, ok := s.rooms[roomID]; ok {
		room = rec.room.Clone()
		if err := chat.ValidateAppend(room, msg); err != nil {
			return nil, err
		}
	} else {
		if seed == nil {
			return nil, errors.RoomNotFound(roomID, nil)
		}
		room = seed.Clone()
		room.ID = roomID
	}
	room.Messages = append(room.Messages, msg.Clone())
	room.Touch(now)
	s.putRoom(room)
	return room, nil
}

func (r *roomRepository) Mutate(ctx context.Context, roomID string, fn repository.RoomMutation) (*entity.Room, error) {
	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.fault(OpRoomMutate); err != nil {
		return nil, err
	}
	rec, ok := s.rooms[roomID]
	if !ok {
		return nil, errors.RoomNotFound(roomID, nil)
	}
	room := rec.room.Clone()
	if err := fn(room); err != nil {
		return nil, err
	}
	room.ID = roomID
	s.putRoom(room)
	return room, nil
}

func (r *roomRepository) Delete(ctx context.Context, id string) error {
	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.fault(OpRoomDelete); err != nil {
		return err
	}
	s.removeRoom(id)
	return nil
}

func (r *roomRepository) Watch(ctx context.Context, roomID string) (repository.RoomStream, error) {
	return &roomStream{w: r.store.addWatcher(ctx), roomID: roomID}, nil
}

func (r *roomRepository) WatchByParticipant(ctx context.Context, userID string) (repository.RoomSetStream, error) {
	return &roomSetStream{w: r.store.addWatcher(ctx), userID: userID, seen: make(map[string]uint64)}, nil
}
