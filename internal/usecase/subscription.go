package usecase

import (
	stderrors "errors"
	"sync"
	"sync/atomic"

	"webugs/internal/domain/repository"
)

// Subscription is a running live view over a snapshot stream. Stop ends it;
// a snapshot that arrives after Stop is dropped, never delivered. Mutations
// the view already dispatched are not cancelled by Stop.
type Subscription struct {
	stopStream func()
	once       sync.Once
	stopped    atomic.Bool
	done       chan struct{}
}

func newSubscription(stopStream func()) *Subscription {
	return &Subscription{stopStream: stopStream, done: make(chan struct{})}
}

func (s *Subscription) Stop() {
	s.once.Do(func() {
		s.stopped.Store(true)
		s.stopStream()
	})
}

func (s *Subscription) Stopped() bool {
	return s.stopped.Load()
}

// Done is closed once the consuming goroutine has exited.
func (s *Subscription) Done() <-chan struct{} {
	return s.done
}

// run calls step until the stream ends or the subscription stops. step must
// check Stopped between receiving a snapshot and delivering it.
func (s *Subscription) run(step func() error, onError func(error)) {
	go func() {
		defer close(s.done)
		defer s.Stop()
		for !s.Stopped() {
			if err := step(); err != nil {
				if !stderrors.Is(err, repository.ErrStreamClosed) && !s.Stopped() {
					onError(err)
				}
				return
			}
		}
	}()
}
