package repository

import (
	"context"
	stderrors "errors"
	"sort"
	"time"

	"cloud.google.com/go/firestore"
	"github.com/google/uuid"
	"google.golang.org/api/iterator"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"webugs/internal/domain/chat"
	"webugs/internal/domain/entity"
	"webugs/internal/domain/repository"
	"webugs/pkg/errors"
	"webugs/pkg/logger"
)

const roomsCollection = "chats"

type firestoreRoomRepository struct {
	client *firestore.Client
}

func NewFirestoreRoomRepository(client *firestore.Client) repository.RoomRepository {
	return &firestoreRoomRepository{
		client: client,
	}
}

func (r *firestoreRoomRepository) doc(id string) *firestore.DocumentRef {
	return r.client.Collection(roomsCollection).Doc(id)
}

func (r *firestoreRoomRepository) Create(ctx context.Context, room *entity.Room) (bool, error) {
	if room.ID == "" {
		room.ID = uuid.New().String()
	}
	_, err := r.doc(room.ID).Create(ctx, room)
	if status.Code(err) == codes.AlreadyExists {
		return false, nil
	}
	if err != nil {
		return false, storeError("Failed to create chat room", err)
	}
	return true, nil
}

func (r *firestoreRoomRepository) GetByID(ctx context.Context, id string) (*entity.Room, error) {
	snap, err := r.doc(id).Get(ctx)
	if err != nil {
		if isNotFound(err) {
			return nil, errors.RoomNotFound(id, err)
		}
		return nil, storeError("Failed to get chat room", err)
	}
	room, err := decodeRoom(id, snap.Data())
	if err != nil {
		return nil, errors.Internal("Failed to parse chat room data", err)
	}
	return room, nil
}

func (r *firestoreRoomRepository) FindByParticipants(ctx context.Context, userA, userB, requestID string) (*entity.Room, error) {
	query := r.client.Collection(roomsCollection).Where("participants", "array-contains", userA)
	if requestID != "" {
		query = query.Where("requestId", "==", requestID)
	}
	rooms, err := r.collect(query.Documents(ctx))
	if err != nil {
		return nil, err
	}

	var found *entity.Room
	for _, room := range rooms {
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
	return found, nil
}

func (r *firestoreRoomRepository) ListByParticipant(ctx context.Context, userID string) ([]*entity.Room, error) {
	query := r.client.Collection(roomsCollection).Where("participants", "array-contains", userID)
	rooms, err := r.collect(query.Documents(ctx))
	if err != nil {
		return nil, err
	}
	sortRooms(rooms)
	return rooms, nil
}

func (r *firestoreRoomRepository) collect(iter *firestore.DocumentIterator) ([]*entity.Room, error) {
	defer iter.Stop()
	rooms := []*entity.Room{}
	for {
		doc, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, storeError("Failed to iterate chat rooms", err)
		}
		room, err := decodeRoom(doc.Ref.ID, doc.Data())
		if err != nil {
			// one corrupt document must not hide the rest of the list
			logger.Error("Skipping chat room %s: %v", doc.Ref.ID, err)
			continue
		}
		rooms = append(rooms, room)
	}
	return rooms, nil
}

// sortRooms orders newest first; the participant query carries no orderBy
// so it needs no composite index.
func sortRooms(rooms []*entity.Room) {
	sort.SliceStable(rooms, func(i, j int) bool {
		return rooms[i].UpdatedAt.After(rooms[j].UpdatedAt)
	})
}

func (r *firestoreRoomRepository) Append(ctx context.Context, roomID string, msg entity.Message, seed *entity.Room, now time.Time) (*entity.Room, error) {
	ref := r.doc(roomID)
	var result *entity.Room
	err := r.client.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		snap, err := tx.Get(ref)
		if isNotFound(err) {
			if seed == nil {
				return errors.RoomNotFound(roomID, nil)
			}
			room := seed.Clone()
			room.ID = roomID
			room.Messages = append(room.Messages, msg.Clone())
			room.Touch(now)
			result = room
			return tx.Create(ref, room)
		}
		if err != nil {
			return err
		}

		room, err := decodeRoom(roomID, snap.Data())
		if err != nil {
			return errors.Internal("Failed to parse chat room data", err)
		}
		if err := chat.ValidateAppend(room, msg); err != nil {
			return err
		}
		room.Messages = append(room.Messages, msg.Clone())
		room.Touch(now)
		result = room
		return tx.Update(ref, []firestore.Update{
			{Path: "messages", Value: firestore.ArrayUnion(msg)},
			{Path: "updatedAt", Value: now},
		})
	})
	if err != nil {
		return nil, storeError("Failed to send message", err)
	}
	return result, nil
}

func (r *firestoreRoomRepository) Mutate(ctx context.Context, roomID string, fn repository.RoomMutation) (*entity.Room, error) {
	ref := r.doc(roomID)
	var result *entity.Room
	err := r.client.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		snap, err := tx.Get(ref)
		if isNotFound(err) {
			return errors.RoomNotFound(roomID, nil)
		}
		if err != nil {
			return err
		}
		room, err := decodeRoom(roomID, snap.Data())
		if err != nil {
			return errors.Internal("Failed to parse chat room data", err)
		}
		if err := fn(room); err != nil {
			return err
		}
		room.ID = roomID
		result = room
		return tx.Set(ref, room)
	})
	if err != nil {
		return nil, storeError("Failed to update chat room", err)
	}
	return result, nil
}

func (r *firestoreRoomRepository) Delete(ctx context.Context, id string) error {
	if _, err := r.doc(id).Delete(ctx); err != nil {
		return storeError("Failed to delete chat room", err)
	}
	return nil
}

func (r *firestoreRoomRepository) Watch(ctx context.Context, roomID string) (repository.RoomStream, error) {
	ctx, cancel := context.WithCancel(ctx)
	return &firestoreRoomStream{
		roomID: roomID,
		iter:   r.doc(roomID).Snapshots(ctx),
		cancel: cancel,
	}, nil
}

func (r *firestoreRoomRepository) WatchByParticipant(ctx context.Context, userID string) (repository.RoomSetStream, error) {
	ctx, cancel := context.WithCancel(ctx)
	query := r.client.Collection(roomsCollection).Where("participants", "array-contains", userID)
	return &firestoreRoomSetStream{
		iter:   query.Snapshots(ctx),
		cancel: cancel,
	}, nil
}

type firestoreRoomStream struct {
	roomID string
	iter   *firestore.DocumentSnapshotIterator
	cancel context.CancelFunc
}

func (s *firestoreRoomStream) Next() (*repository.RoomSnapshot, error) {
	snap, err := s.iter.Next()
	if err != nil {
		return nil, streamError("room snapshot", err)
	}
	out := &repository.RoomSnapshot{
		RoomID:   s.roomID,
		Exists:   snap.Exists(),
		ReadTime: snap.ReadTime,
	}
	if out.Exists {
		room, err := decodeRoom(s.roomID, snap.Data())
		if err != nil {
			return nil, errors.Internal("Failed to parse chat room data", err)
		}
		out.Room = room
	}
	return out, nil
}

func (s *firestoreRoomStream) Stop() {
	s.cancel()
	s.iter.Stop()
}

type firestoreRoomSetStream struct {
	iter   *firestore.QuerySnapshotIterator
	cancel context.CancelFunc
}

func (s *firestoreRoomSetStream) Next() (*repository.RoomSetSnapshot, error) {
	snap, err := s.iter.Next()
	if err != nil {
		return nil, streamError("chat list snapshot", err)
	}
	docs, err := snap.Documents.GetAll()
	if err != nil {
		return nil, streamError("chat list snapshot", err)
	}

	out := &repository.RoomSetSnapshot{
		Rooms:    make([]*entity.Room, 0, len(docs)),
		ReadTime: snap.ReadTime,
	}
	for _, doc := range docs {
		room, err := decodeRoom(doc.Ref.ID, doc.Data())
		if err != nil {
			logger.Error("Skipping chat room %s: %v", doc.Ref.ID, err)
			continue
		}
		out.Rooms = append(out.Rooms, room)
	}
	sortRooms(out.Rooms)

	for _, change := range snap.Changes {
		rc := repository.RoomChange{Room: &entity.Room{ID: change.Doc.Ref.ID}}
		switch change.Kind {
		case firestore.DocumentAdded:
			rc.Kind = repository.RoomAdded
		case firestore.DocumentModified:
			rc.Kind = repository.RoomModified
		case firestore.DocumentRemoved:
			rc.Kind = repository.RoomRemoved
		}
		if rc.Kind != repository.RoomRemoved {
			if room, err := decodeRoom(change.Doc.Ref.ID, change.Doc.Data()); err == nil {
				rc.Room = room
			}
		}
		out.Changes = append(out.Changes, rc)
	}
	return out, nil
}

func (s *firestoreRoomSetStream) Stop() {
	s.cancel()
	s.iter.Stop()
}

func streamError(action string, err error) error {
	if err == iterator.Done || status.Code(err) == codes.Canceled || stderrors.Is(err, context.Canceled) {
		return repository.ErrStreamClosed
	}
	return storeError("Failed to receive "+action, err)
}
