package usecase

import (
	"context"

	"webugs/internal/domain/chat"
	"webugs/internal/domain/entity"
	"webugs/internal/domain/repository"
	"webugs/internal/infrastructure/ratelimit"
	"webugs/pkg/errors"
	"webugs/pkg/logger"
)

type CompletionUseCase struct {
	roomRepo    repository.RoomRepository
	requestRepo repository.RequestRepository
	transactor  repository.Transactor
	notifier    Notifier
	codec       *chat.Codec
	rateLimiter *ratelimit.RateLimiter
}

func NewCompletionUseCase(
	roomRepo repository.RoomRepository,
	requestRepo repository.RequestRepository,
	transactor repository.Transactor,
	notifier Notifier,
	codec *chat.Codec,
	rateLimiter *ratelimit.RateLimiter,
) *CompletionUseCase {
	return &CompletionUseCase{
		roomRepo:    roomRepo,
		requestRepo: requestRepo,
		transactor:  transactor,
		notifier:    notifier,
		codec:       codec,
		rateLimiter: rateLimiter,
	}
}

type CompletionResult struct {
	Room    *entity.Room        `json:"room"`
	State   chat.HandshakeState `json:"state"`
	History *entity.History     `json:"history,omitempty"`
}

// resolveRequest loads the request bound to the room. Rooms without a
// request cannot run the handshake.
func (uc *CompletionUseCase) resolveRequest(ctx context.Context, room *entity.Room) (*entity.Request, error) {
	if room.RequestID == "" {
		return nil, errors.RequestNotFound(nil)
	}
	req, err := uc.requestRepo.GetByID(ctx, room.RequestID)
	if err != nil {
		if errors.Is(err, errors.CodeNotFound) {
			return nil, errors.RequestNotFound(err)
		}
		return nil, err
	}
	return req, nil
}

// CompleteCollection lets the collector signal that the request was
// fulfilled. A repeated signal while one is pending only re-sets the
// completion fields.
func (uc *CompletionUseCase) CompleteCollection(ctx context.Context, roomID, collectorID string) (*entity.Room, error) {
	if err := actAs(ctx, collectorID); err != nil {
		return nil, err
	}
	if uc.rateLimiter != nil {
		if ok, _ := uc.rateLimiter.Allow(collectorID, ratelimit.ActionCompletion); !ok {
			return nil, errors.TooManyRequests("Too many completion attempts")
		}
	}

	room, err := uc.roomRepo.GetByID(ctx, roomID)
	if err != nil {
		return nil, err
	}
	if !room.HasParticipant(collectorID) {
		return nil, errors.Forbidden("You are not a participant of this chat", nil)
	}
	req, err := uc.resolveRequest(ctx, room)
	if err != nil {
		logger.LogRoomError(roomID, "complete collection", err)
		return nil, err
	}
	if req.OwnerID == collectorID {
		return nil, errors.Forbidden("The requester cannot complete their own request", nil)
	}
	if !room.HasParticipant(req.OwnerID) {
		return nil, errors.Forbidden("The requester is not part of this chat", nil)
	}
	if req.Status == entity.RequestCompleted {
		return nil, errors.Conflict("this request is already completed")
	}

	signal, err := uc.codec.NewMessage(chat.MessageInput{
		RoomID:      roomID,
		SenderID:    collectorID,
		RecipientID: req.OwnerID,
		Content:     chat.SentinelCompletion,
	})
	if err != nil {
		return nil, err
	}

	appended := false
	updated, err := uc.roomRepo.Mutate(ctx, roomID, func(room *entity.Room) error {
		if !room.HasParticipant(collectorID) {
			return errors.Forbidden("You are not a participant of this chat", nil)
		}
		var err error
		appended, err = chat.ApplyCompletion(room, collectorID, signal, signal.Timestamp)
		return err
	})
	if err != nil {
		logger.LogRoomError(roomID, "complete collection", err)
		return nil, err
	}

	if appended {
		logger.Info("Collection completion signalled in room %s by %s", roomID, collectorID)
		if uc.notifier != nil {
			uc.notifier.NotifyCompletionPrompt(req.OwnerID, newCompletionPrompt(updated, signal))
		}
	}
	return updated, nil
}

// RespondToCompletion is the requester's answer to a pending completion.
// Acceptance finalizes the request, records the history entry and closes
// the room in one transaction; nothing is written if any step fails.
func (uc *CompletionUseCase) RespondToCompletion(ctx context.Context, roomID, requesterID string, accepted bool, rating *int) (*CompletionResult, error) {
	if err := actAs(ctx, requesterID); err != nil {
		return nil, err
	}
	if !accepted {
		return uc.reject(ctx, roomID, requesterID)
	}

	score, err := chat.ResolveRating(rating)
	if err != nil {
		return nil, err
	}

	var result *CompletionResult
	err = uc.transactor.RunInTx(ctx, func(ctx context.Context, tx repository.Tx) error {
		room, err := tx.GetRoom(roomID)
		if err != nil {
			return err
		}
		if !room.HasParticipant(requesterID) {
			return errors.Forbidden("You are not a participant of this chat", nil)
		}
		if chat.State(room) != chat.StateCompletionPending {
			return errors.Conflict("no completion is pending in this room")
		}
		if room.RequestID == "" {
			return errors.RequestNotFound(nil)
		}
		req, err := tx.GetRequest(room.RequestID)
		if err != nil {
			if errors.Is(err, errors.CodeNotFound) {
				return errors.RequestNotFound(err)
			}
			return err
		}
		if req.OwnerID != requesterID {
			return errors.Forbidden("Only the requester can accept the completion", nil)
		}
		if req.Status == entity.RequestCompleted {
			return errors.Conflict("this request is already completed")
		}

		collectorID := room.CollectionCompletedBy
		response, err := uc.codec.NewMessage(chat.MessageInput{
			RoomID:      roomID,
			SenderID:    requesterID,
			RecipientID: collectorID,
			Content:     chat.SentinelAccepted,
		})
		if err != nil {
			return err
		}
		now := response.Timestamp
		if err := chat.ApplyAcceptance(room, response, now); err != nil {
			return err
		}

		history := &entity.History{
			ID:           roomID,
			RequesterID:  requesterID,
			CollectorID:  collectorID,
			Rating:       score,
			CompletedAt:  now,
			RequestTitle: req.Title,
			RequestImage: req.ImageURL,
			RequestID:    req.ID,
			RoomID:       roomID,
		}
		if err := tx.SetRoom(room); err != nil {
			return err
		}
		if err := tx.SetRequestStatus(req.ID, entity.RequestCompleted); err != nil {
			return err
		}
		if err := tx.CreateHistory(history); err != nil {
			return err
		}
		result = &CompletionResult{Room: room, State: chat.State(room), History: history}
		return nil
	})
	if err != nil {
		logger.LogRoomError(roomID, "accept completion", err)
		return nil, err
	}

	logger.Info("Completion accepted in room %s (rating %d)", roomID, score)
	return result, nil
}

func (uc *CompletionUseCase) reject(ctx context.Context, roomID, requesterID string) (*CompletionResult, error) {
	var response entity.Message
	room, err := uc.roomRepo.Mutate(ctx, roomID, func(room *entity.Room) error {
		if !room.HasParticipant(requesterID) {
			return errors.Forbidden("You are not a participant of this chat", nil)
		}
		if chat.State(room) != chat.StateCompletionPending {
			return errors.Conflict("no completion is pending in this room")
		}
		if room.CollectionCompletedBy == requesterID {
			return errors.Forbidden("The collector cannot answer their own completion", nil)
		}
		var err error
		response, err = uc.codec.NewMessage(chat.MessageInput{
			RoomID:      roomID,
			SenderID:    requesterID,
			RecipientID: room.CollectionCompletedBy,
			Content:     chat.SentinelRejected,
		})
		if err != nil {
			return err
		}
		return chat.ApplyRejection(room, response, response.Timestamp)
	})
	if err != nil {
		logger.LogRoomError(roomID, "reject completion", err)
		return nil, err
	}
	return &CompletionResult{Room: room, State: chat.State(room)}, nil
}
