package memory

import (
	"context"
	"sync"
	"time"

	"webugs/internal/domain/entity"
	"webugs/internal/domain/repository"
)

// watcher is woken on every room write. The signal channel holds at most
// one pending wake-up, so bursts of writes coalesce into one snapshot of
// the latest state.
type watcher struct {
	store  *Store
	ctx    context.Context
	signal chan struct{}
	done   chan struct{}
	once   sync.Once
}

func (s *Store) addWatcher(ctx context.Context) *watcher {
	w := &watcher{
		store:  s,
		ctx:    ctx,
		signal: make(chan struct{}, 1),
		done:   make(chan struct{}),
	}
	s.mu.Lock()
	s.watchers[w] = struct{}{}
	s.mu.Unlock()
	return w
}

func (w *watcher) wake() {
	select {
	case w.signal <- struct{}{}:
	default:
	}
}

func (w *watcher) stop() {
	w.once.Do(func() {
		close(w.done)
		w.store.mu.Lock()
		delete(w.store.watchers, w)
		w.store.mu.Unlock()
	})
}

func (w *watcher) stopped() bool {
	select {
	case <-w.done:
		return true
	default:
		return w.ctx.Err() != nil
	}
}

// wait blocks until the next wake-up; false means the stream ended.
func (w *watcher) wait() bool {
	select {
	case <-w.signal:
		return !w.stopped()
	case <-w.done:
		return false
	case <-w.ctx.Done():
		w.stop()
		return false
	}
}

type roomStream struct {
	w       *watcher
	roomID  string
	started bool
	lastRev uint64
}

func (rs *roomStream) Next() (*repository.RoomSnapshot, error) {
	for {
		if rs.w.stopped() {
			return nil, repository.ErrStreamClosed
		}
		s := rs.w.store
		s.mu.Lock()
		var rev uint64
		var room *entity.Room
		if rec, ok := s.rooms[rs.roomID]; ok {
			rev = rec.rev
			room = rec.room.Clone()
		}
		s.mu.Unlock()

		if !rs.started || rev != rs.lastRev {
			rs.started = true
			rs.lastRev = rev
			return &repository.RoomSnapshot{
				RoomID:   rs.roomID,
				Room:     room,
				Exists:   room != nil,
				ReadTime: time.Now().UTC(),
			}, nil
		}
		if !rs.w.wait() {
			return nil, repository.ErrStreamClosed
		}
	}
}

func (rs *roomStream) Stop() {
	rs.w.stop()
}

type roomSetStream struct {
	w       *watcher
	userID  string
	started bool
	seen    map[string]uint64
}

func (ss *roomSetStream) Next() (*repository.RoomSetSnapshot, error) {
	for {
		if ss.w.stopped() {
			return nil, repository.ErrStreamClosed
		}
		s := ss.w.store
		s.mu.Lock()
		rooms := s.roomsOf(ss.userID)
		current := make(map[string]uint64, len(rooms))
		for _, room := range rooms {
			current[room.ID] = s.rooms[room.ID].rev
		}
		s.mu.Unlock()

		var changes []repository.RoomChange
		for _, room := range rooms {
			prev, ok := ss.seen[room.ID]
			switch {
			case !ok:
				changes = append(changes, repository.RoomChange{Kind: repository.RoomAdded, Room: room})
			case prev != current[room.ID]:
				changes = append(changes, repository.RoomChange{Kind: repository.RoomModified, Room: room})
			}
		}
		for id := range ss.seen {
			if _, ok := current[id]; !ok {
				changes = append(changes, repository.RoomChange{Kind: repository.RoomRemoved, Room: &entity.Room{ID: id}})
			}
		}

		if !ss.started || len(changes) > 0 {
			ss.started = true
			ss.seen = current
			return &repository.RoomSetSnapshot{Rooms: rooms, Changes: changes, ReadTime: time.Now().UTC()}, nil
		}
		if !ss.w.wait() {
			return nil, repository.ErrStreamClosed
		}
	}
}

func (ss *roomSetStream) Stop() {
	ss.w.stop()
}
