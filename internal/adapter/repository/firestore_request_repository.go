package repository

import (
	"context"
	"sort"
	"time"

	"cloud.google.com/go/firestore"
	"github.com/google/uuid"
	"google.golang.org/api/iterator"

	"webugs/internal/domain/entity"
	"webugs/internal/domain/repository"
	"webugs/pkg/errors"
)

const requestsCollection = "serviceRequests"

type firestoreRequestRepository struct {
	client *firestore.Client
}

func NewFirestoreRequestRepository(client *firestore.Client) repository.RequestRepository {
	return &firestoreRequestRepository{
		client: client,
	}
}

func (r *firestoreRequestRepository) Create(ctx context.Context, request *entity.Request) error {
	if request.ID == "" {
		request.ID = uuid.New().String()
	}
	if request.Status == "" {
		request.Status = entity.RequestPending
	}
	now := time.Now().UTC()
	if request.CreatedAt.IsZero() {
		request.CreatedAt = now
	}
	request.UpdatedAt = now

	_, err := r.client.Collection(requestsCollection).Doc(request.ID).Set(ctx, request)
	if err != nil {
		return storeError("Failed to create request", err)
	}
	return nil
}

func (r *firestoreRequestRepository) GetByID(ctx context.Context, id string) (*entity.Request, error) {
	doc, err := r.client.Collection(requestsCollection).Doc(id).Get(ctx)
	if err != nil {
		if isNotFound(err) {
			return nil, errors.NotFound("Request", err)
		}
		return nil, storeError("Failed to get request", err)
	}

	var request entity.Request
	if err := doc.DataTo(&request); err != nil {
		return nil, errors.Internal("Failed to parse request data", err)
	}
	request.ID = doc.Ref.ID
	return &request, nil
}

func (r *firestoreRequestRepository) ListByOwner(ctx context.Context, ownerID string, status entity.RequestStatus) ([]*entity.Request, error) {
	query := r.client.Collection(requestsCollection).Where("userId", "==", ownerID)
	if status != "" {
		query = query.Where("status", "==", string(status))
	}

	iter := query.Documents(ctx)
	defer iter.Stop()
	requests := []*entity.Request{}
	for {
		doc, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, storeError("Failed to iterate requests", err)
		}
		var request entity.Request
		if err := doc.DataTo(&request); err != nil {
			return nil, errors.Internal("Failed to parse request data", err)
		}
		request.ID = doc.Ref.ID
		requests = append(requests, &request)
	}

	sort.Slice(requests, func(i, j int) bool {
		return requests[i].CreatedAt.After(requests[j].CreatedAt)
	})
	return requests, nil
}

func (r *firestoreRequestRepository) UpdateStatus(ctx context.Context, id string, status entity.RequestStatus) error {
	_, err := r.client.Collection(requestsCollection).Doc(id).Update(ctx, []firestore.Update{
		{Path: "status", Value: string(status)},
		{Path: "updatedAt", Value: time.Now().UTC()},
	})
	if err != nil {
		if isNotFound(err) {
			return errors.NotFound("Request", err)
		}
		return storeError("Failed to update request status", err)
	}
	return nil
}
