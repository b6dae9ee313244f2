package firebase

import (
	"context"

	"firebase.google.com/go/v4/auth"

	"webugs/pkg/errors"
	"webugs/pkg/logger"
)

// AuthClient resolves bearer tokens to user ids. Firebase ID tokens are
// always accepted when a Firebase client is configured; dev tokens only
// when dev is non-nil.
type AuthClient struct {
	client *auth.Client
	dev    *DevTokens
}

func NewAuthClient(client *auth.Client, dev *DevTokens) *AuthClient {
	return &AuthClient{
		client: client,
		dev:    dev,
	}
}

func (a *AuthClient) VerifyToken(ctx context.Context, token string) (string, error) {
	if token == "" {
		return "", errors.Unauthenticated("Token is required")
	}

	if a.dev != nil {
		uid, err := a.dev.Verify(token)
		if err == nil {
			return uid, nil
		}
		if a.client == nil {
			return "", err
		}
		logger.Debug("Dev token rejected, trying Firebase: %v", err)
	}

	if a.client == nil {
		return "", errors.Unauthenticated("Token verification is not configured")
	}

	result, err := a.client.VerifyIDToken(ctx, token)
	if err != nil {
		return "", errors.Unauthenticated("Invalid or expired token")
	}
	return result.UID, nil
}
