package memory

import (
	"context"
	"time"

	"webugs/internal/domain/entity"
	"webugs/pkg/errors"
)

type userRepository struct {
	store *Store
}

func (r *userRepository) Create(ctx context.Context, user *entity.User) error {
	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()

	if user.ID == "" {
		user.ID = s.newID()
	}
	now := time.Now().UTC()
	user.CreatedAt = now
	user.UpdatedAt = now
	stored := *user
	s.users[user.ID] = &stored
	return nil
}

func (r *userRepository) GetByID(ctx context.Context, id string) (*entity.User, error) {
	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.fault(OpUserGet); err != nil {
		return nil, err
	}
	u, ok := s.users[id]
	if !ok {
		return nil, errors.NotFound("User", nil)
	}
	out := *u
	return &out, nil
}
