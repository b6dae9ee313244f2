// Package session carries the authenticated user through a request context.
package session

import (
	"context"

	"webugs/pkg/errors"
)

type userKey struct{}

func WithUser(ctx context.Context, userID string) context.Context {
	return context.WithValue(ctx, userKey{}, userID)
}

// CurrentUserID returns the signed-in user, or Unauthenticated when the
// context carries none.
func CurrentUserID(ctx context.Context) (string, error) {
	uid, _ := ctx.Value(userKey{}).(string)
	if uid == "" {
		return "", errors.Unauthenticated("No active session")
	}
	return uid, nil
}
