package repository

import (
	"context"

	"webugs/internal/domain/entity"
)

// Tx is the view of the store inside one atomic transaction. All reads must
// happen before the first write; writes become visible only if the
// transaction function returns nil.
type Tx interface {
	GetRoom(roomID string) (*entity.Room, error)
	GetRequest(requestID string) (*entity.Request, error)

	SetRoom(room *entity.Room) error
	SetRequestStatus(requestID string, status entity.RequestStatus) error
	// CreateHistory fails if a record with the same id already exists.
	CreateHistory(history *entity.History) error
}

type Transactor interface {
	RunInTx(ctx context.Context, fn func(ctx context.Context, tx Tx) error) error
}
