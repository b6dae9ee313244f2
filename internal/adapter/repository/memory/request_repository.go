package memory

import (
	"context"
	"sort"
	"time"

	"webugs/internal/domain/entity"
	"webugs/pkg/errors"
)

type requestRepository struct {
	store *Store
}

func (r *requestRepository) Create(ctx context.Context, request *entity.Request) error {
	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()

	if request.ID == "" {
		request.ID = s.newID()
	}
	if request.Status == "" {
		request.Status = entity.RequestPending
	}
	now := time.Now().UTC()
	if request.CreatedAt.IsZero() {
		request.CreatedAt = now
	}
	request.UpdatedAt = now
	stored := *request
	s.requests[request.ID] = &stored
	return nil
}

func (r *requestRepository) GetByID(ctx context.Context, id string) (*entity.Request, error) {
	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()

	req, ok := s.requests[id]
	if !ok {
		return nil, errors.NotFound("Request", nil)
	}
	out := *req
	return &out, nil
}

func (r *requestRepository) ListByOwner(ctx context.Context, ownerID string, status entity.RequestStatus) ([]*entity.Request, error) {
	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()

	out := []*entity.Request{}
	for _, req := range s.requests {
		if req.OwnerID != ownerID || (status != "" && req.Status != status) {
			continue
		}
		cp := *req
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out, nil
}

func (r *requestRepository) UpdateStatus(ctx context.Context, id string, status entity.RequestStatus) error {
	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()

	req, ok := s.requests[id]
	if !ok {
		return errors.NotFound("Request", nil)
	}
	req.Status = status
	req.UpdatedAt = time.Now().UTC()
	return nil
}
