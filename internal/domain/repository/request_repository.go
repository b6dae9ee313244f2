package repository

import (
	"context"

	"webugs/internal/domain/entity"
)

type RequestRepository interface {
	Create(ctx context.Context, request *entity.Request) error
	GetByID(ctx context.Context, id string) (*entity.Request, error)
	// ListByOwner returns the owner's requests; an empty status matches all.
	ListByOwner(ctx context.Context, ownerID string, status entity.RequestStatus) ([]*entity.Request, error)
	UpdateStatus(ctx context.Context, id string, status entity.RequestStatus) error
}
