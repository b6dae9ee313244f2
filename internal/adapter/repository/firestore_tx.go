package repository

import (
	"context"
	"time"

	"cloud.google.com/go/firestore"
	"github.com/google/uuid"

	"webugs/internal/domain/entity"
	"webugs/internal/domain/repository"
	"webugs/pkg/errors"
)

type firestoreTransactor struct {
	client *firestore.Client
}

func NewFirestoreTransactor(client *firestore.Client) repository.Transactor {
	return &firestoreTransactor{client: client}
}

func (t *firestoreTransactor) RunInTx(ctx context.Context, fn func(ctx context.Context, tx repository.Tx) error) error {
	err := t.client.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		return fn(ctx, &firestoreTx{client: t.client, tx: tx})
	})
	return storeError("Transaction failed", err)
}

type firestoreTx struct {
	client *firestore.Client
	tx     *firestore.Transaction
}

func (t *firestoreTx) GetRoom(roomID string) (*entity.Room, error) {
	snap, err := t.tx.Get(t.client.Collection(roomsCollection).Doc(roomID))
	if err != nil {
		if isNotFound(err) {
			return nil, errors.RoomNotFound(roomID, err)
		}
		return nil, err
	}
	room, err := decodeRoom(roomID, snap.Data())
	if err != nil {
		return nil, errors.Internal("Failed to parse chat room data", err)
	}
	return room, nil
}

func (t *firestoreTx) GetRequest(requestID string) (*entity.Request, error) {
	snap, err := t.tx.Get(t.client.Collection(requestsCollection).Doc(requestID))
	if err != nil {
		if isNotFound(err) {
			return nil, errors.NotFound("Request", err)
		}
		return nil, err
	}
	var req entity.Request
	if err := snap.DataTo(&req); err != nil {
		return nil, errors.Internal("Failed to parse request data", err)
	}
	req.ID = snap.Ref.ID
	return &req, nil
}

func (t *firestoreTx) SetRoom(room *entity.Room) error {
	return t.tx.Set(t.client.Collection(roomsCollection).Doc(room.ID), room)
}

func (t *firestoreTx) SetRequestStatus(requestID string, status entity.RequestStatus) error {
	return t.tx.Update(t.client.Collection(requestsCollection).Doc(requestID), []firestore.Update{
		{Path: "status", Value: string(status)},
		{Path: "updatedAt", Value: time.Now().UTC()},
	})
}

func (t *firestoreTx) CreateHistory(history *entity.History) error {
	if history.ID == "" {
		history.ID = uuid.New().String()
	}
	return t.tx.Create(t.client.Collection(historyCollection).Doc(history.ID), history)
}
