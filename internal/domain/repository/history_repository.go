package repository

import (
	"context"

	"webugs/internal/domain/entity"
)

// HistoryRepository is read-only; records are only ever created inside the
// handshake transaction (see Tx.CreateHistory).
type HistoryRepository interface {
	GetByID(ctx context.Context, id string) (*entity.History, error)
	ListByCollector(ctx context.Context, collectorID string) ([]*entity.History, error)
	ListByRequester(ctx context.Context, requesterID string) ([]*entity.History, error)
}
