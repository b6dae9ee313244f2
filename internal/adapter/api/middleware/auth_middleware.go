package middleware

import (
	"strings"

	"github.com/labstack/echo/v4"

	"webugs/internal/session"
	"webugs/internal/usecase"
	"webugs/pkg/errors"
	"webugs/pkg/response"
)

type AuthMiddleware struct {
	verifier usecase.TokenVerifier
}

func NewAuthMiddleware(verifier usecase.TokenVerifier) *AuthMiddleware {
	return &AuthMiddleware{
		verifier: verifier,
	}
}

// Authenticate resolves the bearer token to a user id, stores it as "uid"
// and opens a session on the request context. Browsers cannot set headers
// on WebSocket upgrades, so a token query parameter is accepted too.
func (m *AuthMiddleware) Authenticate(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		token, err := bearerToken(c)
		if err != nil {
			return response.Error(c, err)
		}

		uid, err := m.verifier.VerifyToken(c.Request().Context(), token)
		if err != nil {
			return response.Error(c, err)
		}

		c.Set("uid", uid)
		req := c.Request()
		c.SetRequest(req.WithContext(session.WithUser(req.Context(), uid)))
		return next(c)
	}
}

func bearerToken(c echo.Context) (string, error) {
	authHeader := c.Request().Header.Get("Authorization")
	if authHeader == "" {
		if token := c.QueryParam("token"); token != "" {
			return token, nil
		}
		return "", errors.Unauthenticated("Authorization header is required")
	}

	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 || parts[0] != "Bearer" || parts[1] == "" {
		return "", errors.Unauthenticated("Invalid authorization format")
	}
	return parts[1], nil
}
