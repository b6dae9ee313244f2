package handler

import (
	"github.com/labstack/echo/v4"

	"webugs/internal/usecase"
	"webugs/pkg/response"
)

type HistoryHandler struct {
	historyUseCase *usecase.HistoryUseCase
}

func NewHistoryHandler(historyUseCase *usecase.HistoryUseCase) *HistoryHandler {
	return &HistoryHandler{
		historyUseCase: historyUseCase,
	}
}

func (h *HistoryHandler) CollectorSummary(c echo.Context) error {
	summary, err := h.historyUseCase.CollectorSummary(c.Request().Context())
	if err != nil {
		return response.Error(c, err)
	}
	return response.Success(c, summary)
}

func (h *HistoryHandler) RequesterHistory(c echo.Context) error {
	summary, err := h.historyUseCase.RequesterHistory(c.Request().Context())
	if err != nil {
		return response.Error(c, err)
	}
	return response.Success(c, summary)
}
