package router

import (
	"github.com/labstack/echo/v4"

	"webugs/internal/adapter/api/handler"
)

func SetupDevRouter(e *echo.Echo, devTokenHandler *handler.DevTokenHandler) {
	if devTokenHandler == nil {
		return
	}
	e.POST("/_dev/token", devTokenHandler.GenerateUserToken)
}
