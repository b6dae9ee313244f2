package middleware

import (
	"github.com/labstack/echo/v4"

	"webugs/internal/infrastructure/ratelimit"
	"webugs/pkg/logger"
	"webugs/pkg/response"
)

// RateLimit throttles requests per authenticated user, or per client IP
// before authentication has happened.
func RateLimit(limiter *ratelimit.RateLimiter) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			key, _ := c.Get("uid").(string)
			if key == "" {
				key = "ip:" + c.RealIP()
			}
			ok, wait := limiter.Allow(key, ratelimit.ActionHTTP)
			if !ok {
				logger.Warn("RATE LIMIT: blocked request from %s (retry in %v)", key, wait)
				return response.TooManyRequests(c, wait)
			}
			return next(c)
		}
	}
}
