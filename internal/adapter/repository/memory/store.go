// Package memory is an in-process document store with the same semantics
// the Firestore adapter provides: whole-document atomic mutations,
// all-or-nothing transactions and push-based snapshot streams. It backs the
// test suites and STORE_BACKEND=memory.
package memory

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"webugs/internal/domain/entity"
	"webugs/internal/domain/repository"
	"webugs/pkg/errors"
)

// Op names a store operation for fault injection.
type Op string

const (
	OpRoomGet    Op = "room.get"
	OpRoomCreate Op = "room.create"
	OpRoomAppend Op = "room.append"
	OpRoomMutate Op = "room.mutate"
	OpRoomDelete Op = "room.delete"
	OpTx         Op = "tx"
	OpUserGet    Op = "user.get"
)

type roomRecord struct {
	room *entity.Room
	rev  uint64
}

type Store struct {
	mu        sync.Mutex
	rev       uint64
	rooms     map[string]*roomRecord
	requests  map[string]*entity.Request
	histories map[string]*entity.History
	users     map[string]*entity.User
	watchers  map[*watcher]struct{}
	faults    map[Op][]error
	newID     func() string
}

func NewStore() *Store {
	return &Store{
		rooms:     make(map[string]*roomRecord),
		requests:  make(map[string]*entity.Request),
		histories: make(map[string]*entity.History),
		users:     make(map[string]*entity.User),
		watchers:  make(map[*watcher]struct{}),
		faults:    make(map[Op][]error),
		newID:     func() string { return uuid.New().String() },
	}
}

func (s *Store) Rooms() repository.RoomRepository {
	return &roomRepository{store: s}
}

func (s *Store) Requests() repository.RequestRepository {
	return &requestRepository{store: s}
}

func (s *Store) Histories() repository.HistoryRepository {
	return &historyRepository{store: s}
}

func (s *Store) Users() repository.UserRepository {
	return &userRepository{store: s}
}

// FailNext makes the next call of op return err. Calls queue up.
func (s *Store) FailNext(op Op, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.faults[op] = append(s.faults[op], err)
}

// fault pops an injected error for op. Caller holds s.mu.
func (s *Store) fault(op Op) error {
	queue := s.faults[op]
	if len(queue) == 0 {
		return nil
	}
	err := queue[0]
	s.faults[op] = queue[1:]
	return err
}

// putRoom stores a copy of room under a fresh revision and wakes watchers.
// Caller holds s.mu.
func (s *Store) putRoom(room *entity.Room) {
	s.rev++
	s.rooms[room.ID] = &roomRecord{room: room.Clone(), rev: s.rev}
	s.notify()
}

func (s *Store) removeRoom(id string) {
	if _, ok := s.rooms[id]; !ok {
		return
	}
	delete(s.rooms, id)
	s.rev++
	s.notify()
}

func (s *Store) notify() {
	for w := range s.watchers {
		w.wake()
	}
}

func (s *Store) RunInTx(ctx context.Context, fn func(ctx context.Context, tx repository.Tx) error) error {
	if err := ctx.Err(); err != nil {
		return errors.StoreUnavailable("Transaction cancelled", err)
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.fault(OpTx); err != nil {
		return err
	}

	tx := &memoryTx{store: s}
	if err := fn(ctx, tx); err != nil {
		return err
	}
	for _, write := range tx.writes {
		write()
	}
	if len(tx.writes) > 0 {
		s.notify()
	}
	return nil
}

// memoryTx reads committed state and stages writes until commit. It runs
// with s.mu held.
type memoryTx struct {
	store  *Store
	writes []func()
	wrote  bool
}

func (tx *memoryTx) read() error {
	if tx.wrote {
		return errors.Internal("transaction reads must precede writes", nil)
	}
	return nil
}

func (tx *memoryTx) GetRoom(roomID string) (*entity.Room, error) {
	if err := tx.read(); err != nil {
		return nil, err
	}
	rec, ok := tx.store.rooms[roomID]
	if !ok {
		return nil, errors.RoomNotFound(roomID, nil)
	}
	return rec.room.Clone(), nil
}

func (tx *memoryTx) GetRequest(requestID string) (*entity.Request, error) {
	if err := tx.read(); err != nil {
		return nil, err
	}
	req, ok := tx.store.requests[requestID]
	if !ok {
		return nil, errors.NotFound("Request", nil)
	}
	out := *req
	return &out, nil
}

func (tx *memoryTx) SetRoom(room *entity.Room) error {
	tx.wrote = true
	staged := room.Clone()
	tx.writes = append(tx.writes, func() {
		tx.store.rev++
		tx.store.rooms[staged.ID] = &roomRecord{room: staged, rev: tx.store.rev}
	})
	return nil
}

func (tx *memoryTx) SetRequestStatus(requestID string, status entity.RequestStatus) error {
	tx.wrote = true
	if _, ok := tx.store.requests[requestID]; !ok {
		return errors.NotFound("Request", nil)
	}
	now := time.Now().UTC()
	tx.writes = append(tx.writes, func() {
		req := tx.store.requests[requestID]
		req.Status = status
		req.UpdatedAt = now
	})
	return nil
}

func (tx *memoryTx) CreateHistory(history *entity.History) error {
	tx.wrote = true
	if history.ID == "" {
		history.ID = tx.store.newID()
	}
	if _, exists := tx.store.histories[history.ID]; exists {
		return errors.Conflict("history record already exists")
	}
	staged := *history
	tx.writes = append(tx.writes, func() {
		tx.store.histories[staged.ID] = &staged
	})
	return nil
}
