package usecase

import (
	"context"
	"strings"

	"webugs/internal/domain/entity"
	"webugs/internal/domain/repository"
	"webugs/internal/session"
	"webugs/pkg/errors"
	"webugs/pkg/logger"
)

type RequestUseCase struct {
	requestRepo repository.RequestRepository
}

func NewRequestUseCase(requestRepo repository.RequestRepository) *RequestUseCase {
	return &RequestUseCase{
		requestRepo: requestRepo,
	}
}

type CreateRequestInput struct {
	Title       string
	Description string
	Location    string
	ImageURL    string
}

func (uc *RequestUseCase) CreateRequest(ctx context.Context, input CreateRequestInput) (*entity.Request, error) {
	uid, err := session.CurrentUserID(ctx)
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(input.Title) == "" {
		return nil, errors.BadRequest("Title is required", nil)
	}

	request := &entity.Request{
		OwnerID:     uid,
		Title:       input.Title,
		Description: input.Description,
		Location:    input.Location,
		ImageURL:    input.ImageURL,
		Status:      entity.RequestPending,
	}
	if err := uc.requestRepo.Create(ctx, request); err != nil {
		logger.Error("CreateRequest Error: %v", err)
		return nil, err
	}
	return request, nil
}

// ListMine returns the session user's requests; an empty status lists all.
func (uc *RequestUseCase) ListMine(ctx context.Context, status entity.RequestStatus) ([]*entity.Request, error) {
	uid, err := session.CurrentUserID(ctx)
	if err != nil {
		return nil, err
	}
	if status != "" && !status.Valid() {
		return nil, errors.BadRequest("Unknown request status: "+string(status), nil)
	}
	return uc.requestRepo.ListByOwner(ctx, uid, status)
}

// UpdateStatus moves an owned request between pending and hidden. Only an
// accepted completion can complete a request, and a completed request stays
// completed.
func (uc *RequestUseCase) UpdateStatus(ctx context.Context, requestID string, status entity.RequestStatus) (*entity.Request, error) {
	uid, err := session.CurrentUserID(ctx)
	if err != nil {
		return nil, err
	}
	if status != entity.RequestPending && status != entity.RequestHidden {
		return nil, errors.BadRequest("Status can only be set to pending or hidden", nil)
	}

	request, err := uc.requestRepo.GetByID(ctx, requestID)
	if err != nil {
		return nil, err
	}
	if request.OwnerID != uid {
		return nil, errors.Forbidden("You can only change your own requests", nil)
	}
	if request.Status == entity.RequestCompleted {
		return nil, errors.Conflict("a completed request cannot be changed")
	}
	if request.Status == status {
		return request, nil
	}

	if err := uc.requestRepo.UpdateStatus(ctx, requestID, status); err != nil {
		logger.Error("UpdateRequestStatus Error: %v", err)
		return nil, err
	}
	request.Status = status
	return request, nil
}
