package handler

import (
	"github.com/labstack/echo/v4"

	"webugs/internal/domain/entity"
	"webugs/internal/usecase"
	"webugs/pkg/response"
)

type RequestHandler struct {
	requestUseCase *usecase.RequestUseCase
}

func NewRequestHandler(requestUseCase *usecase.RequestUseCase) *RequestHandler {
	return &RequestHandler{
		requestUseCase: requestUseCase,
	}
}

type createRequestRequest struct {
	Title       string `json:"title" validate:"required,max=100"`
	Description string `json:"description" validate:"max=2000"`
	Location    string `json:"location"`
	ImageURL    string `json:"image_url" validate:"omitempty,url"`
}

type updateStatusRequest struct {
	Status string `json:"status" validate:"required,oneof=pending hidden"`
}

func (h *RequestHandler) CreateRequest(c echo.Context) error {
	var req createRequestRequest
	if err := c.Bind(&req); err != nil {
		return response.Error(c, err)
	}
	if err := c.Validate(&req); err != nil {
		return response.Error(c, err)
	}

	created, err := h.requestUseCase.CreateRequest(c.Request().Context(), usecase.CreateRequestInput{
		Title:       req.Title,
		Description: req.Description,
		Location:    req.Location,
		ImageURL:    req.ImageURL,
	})
	if err != nil {
		return response.Error(c, err)
	}
	return response.Created(c, created)
}

// ListMine lists the caller's requests, optionally filtered by ?status=.
func (h *RequestHandler) ListMine(c echo.Context) error {
	requests, err := h.requestUseCase.ListMine(c.Request().Context(), entity.RequestStatus(c.QueryParam("status")))
	if err != nil {
		return response.Error(c, err)
	}
	return response.Success(c, requests)
}

func (h *RequestHandler) UpdateStatus(c echo.Context) error {
	var req updateStatusRequest
	if err := c.Bind(&req); err != nil {
		return response.Error(c, err)
	}
	if err := c.Validate(&req); err != nil {
		return response.Error(c, err)
	}

	updated, err := h.requestUseCase.UpdateStatus(c.Request().Context(), c.Param("id"), entity.RequestStatus(req.Status))
	if err != nil {
		return response.Error(c, err)
	}
	return response.Success(c, updated)
}
