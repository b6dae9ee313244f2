package handler

import (
	"github.com/labstack/echo/v4"

	"webugs/internal/usecase"
	"webugs/pkg/response"
)

type CompletionHandler struct {
	completionUseCase *usecase.CompletionUseCase
}

func NewCompletionHandler(completionUseCase *usecase.CompletionUseCase) *CompletionHandler {
	return &CompletionHandler{
		completionUseCase: completionUseCase,
	}
}

type acceptRequest struct {
	// Rating defaults to 5 when omitted; range is checked by the use case.
	Rating *int `json:"rating"`
}

// Complete is called by the collector to announce the collection is done.
func (h *CompletionHandler) Complete(c echo.Context) error {
	room, err := h.completionUseCase.CompleteCollection(c.Request().Context(), c.Param("id"), uid(c))
	if err != nil {
		return response.Error(c, err)
	}
	return response.Success(c, room)
}

func (h *CompletionHandler) Accept(c echo.Context) error {
	var req acceptRequest
	if err := c.Bind(&req); err != nil {
		return response.Error(c, err)
	}
	result, err := h.completionUseCase.RespondToCompletion(c.Request().Context(), c.Param("id"), uid(c), true, req.Rating)
	if err != nil {
		return response.Error(c, err)
	}
	return response.Success(c, result)
}

func (h *CompletionHandler) Reject(c echo.Context) error {
	result, err := h.completionUseCase.RespondToCompletion(c.Request().Context(), c.Param("id"), uid(c), false, nil)
	if err != nil {
		return response.Error(c, err)
	}
	return response.Success(c, result)
}
