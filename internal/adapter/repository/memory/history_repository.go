package memory

import (
	"context"
	"sort"

	"webugs/internal/domain/entity"
	"webugs/pkg/errors"
)

type historyRepository struct {
	store *Store
}

func (r *historyRepository) GetByID(ctx context.Context, id string) (*entity.History, error) {
	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()

	h, ok := s.histories[id]
	if !ok {
		return nil, errors.NotFound("History record", nil)
	}
	out := *h
	return &out, nil
}

func (r *historyRepository) ListByCollector(ctx context.Context, collectorID string) ([]*entity.History, error) {
	return r.list(func(h *entity.History) bool { return h.CollectorID == collectorID }), nil
}

func (r *historyRepository) ListByRequester(ctx context.Context, requesterID string) ([]*entity.History, error) {
	return r.list(func(h *entity.History) bool { return h.RequesterID == requesterID }), nil
}

func (r *historyRepository) list(match func(*entity.History) bool) []*entity.History {
	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()

	out := []*entity.History{}
	for _, h := range s.histories {
		if match(h) {
			cp := *h
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].CompletedAt.After(out[j].CompletedAt)
	})
	return out
}
