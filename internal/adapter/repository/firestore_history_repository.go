package repository

import (
	"context"
	"sort"

	"cloud.google.com/go/firestore"
	"google.golang.org/api/iterator"

	"webugs/internal/domain/entity"
	"webugs/internal/domain/repository"
	"webugs/pkg/errors"
)

const historyCollection = "collectionHistory"

type firestoreHistoryRepository struct {
	client *firestore.Client
}

func NewFirestoreHistoryRepository(client *firestore.Client) repository.HistoryRepository {
	return &firestoreHistoryRepository{
		client: client,
	}
}

func (r *firestoreHistoryRepository) GetByID(ctx context.Context, id string) (*entity.History, error) {
	doc, err := r.client.Collection(historyCollection).Doc(id).Get(ctx)
	if err != nil {
		if isNotFound(err) {
			return nil, errors.NotFound("History record", err)
		}
		return nil, storeError("Failed to get history record", err)
	}

	var history entity.History
	if err := doc.DataTo(&history); err != nil {
		return nil, errors.Internal("Failed to parse history data", err)
	}
	history.ID = doc.Ref.ID
	return &history, nil
}

func (r *firestoreHistoryRepository) ListByCollector(ctx context.Context, collectorID string) ([]*entity.History, error) {
	return r.list(ctx, r.client.Collection(historyCollection).Where("collectorId", "==", collectorID))
}

func (r *firestoreHistoryRepository) ListByRequester(ctx context.Context, requesterID string) ([]*entity.History, error) {
	return r.list(ctx, r.client.Collection(historyCollection).Where("requesterId", "==", requesterID))
}

func (r *firestoreHistoryRepository) list(ctx context.Context, query firestore.Query) ([]*entity.History, error) {
	iter := query.Documents(ctx)
	defer iter.Stop()

	records := []*entity.History{}
	for {
		doc, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, storeError("Failed to iterate history records", err)
		}
		var history entity.History
		if err := doc.DataTo(&history); err != nil {
			return nil, errors.Internal("Failed to parse history data", err)
		}
		history.ID = doc.Ref.ID
		records = append(records, &history)
	}

	sort.Slice(records, func(i, j int) bool {
		return records[i].CompletedAt.After(records[j].CompletedAt)
	})
	return records, nil
}
