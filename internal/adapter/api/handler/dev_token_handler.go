package handler

import (
	"github.com/labstack/echo/v4"

	"webugs/internal/domain/entity"
	"webugs/internal/domain/repository"
	"webugs/internal/infrastructure/firebase"
	"webugs/pkg/errors"
	"webugs/pkg/response"
)

// DevTokenHandler issues session tokens for local development. It is only
// routed when ENVIRONMENT=development.
type DevTokenHandler struct {
	devTokens *firebase.DevTokens
	userRepo  repository.UserRepository
}

func NewDevTokenHandler(devTokens *firebase.DevTokens, userRepo repository.UserRepository) *DevTokenHandler {
	return &DevTokenHandler{
		devTokens: devTokens,
		userRepo:  userRepo,
	}
}

type devTokenRequest struct {
	UserID string `json:"user_id" validate:"required"`
	Name   string `json:"name"`
}

// GenerateUserToken signs a token for user_id, creating the user profile
// first when a name is given and no profile exists yet.
func (h *DevTokenHandler) GenerateUserToken(c echo.Context) error {
	var req devTokenRequest
	if err := c.Bind(&req); err != nil {
		return response.Error(c, err)
	}
	if err := c.Validate(&req); err != nil {
		return response.Error(c, err)
	}

	ctx := c.Request().Context()
	user, err := h.userRepo.GetByID(ctx, req.UserID)
	if err != nil {
		if !errors.Is(err, errors.CodeNotFound) || req.Name == "" {
			return response.Error(c, err)
		}
		user = &entity.User{ID: req.UserID, Name: req.Name}
		if err := h.userRepo.Create(ctx, user); err != nil {
			return response.Error(c, err)
		}
	}

	token, err := h.devTokens.Issue(user.ID)
	if err != nil {
		return response.Error(c, err)
	}
	return response.Success(c, map[string]interface{}{
		"token": token,
		"user":  user,
	})
}
