package router

import (
	"github.com/labstack/echo/v4"

	"webugs/internal/adapter/api/handler"
)

func SetupRequestRouter(v1 *echo.Group, requestHandler *handler.RequestHandler, historyHandler *handler.HistoryHandler) {
	v1.POST("/requests", requestHandler.CreateRequest)
	v1.GET("/requests", requestHandler.ListMine)
	v1.PUT("/requests/:id/status", requestHandler.UpdateStatus)

	v1.GET("/history/collector", historyHandler.CollectorSummary)
	v1.GET("/history/requester", historyHandler.RequesterHistory)
}
