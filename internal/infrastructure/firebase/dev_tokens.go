package firebase

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v4"

	"webugs/pkg/errors"
)

const devIssuer = "webugs-dev"

// DevTokens issues and checks HS256 tokens for local development, where no
// Firebase project is available.
type DevTokens struct {
	secret []byte
	expiry time.Duration
	now    func() time.Time
}

func NewDevTokens(secret string, expiry time.Duration) *DevTokens {
	return &DevTokens{
		secret: []byte(secret),
		expiry: expiry,
		now:    time.Now,
	}
}

func (d *DevTokens) Issue(uid string) (string, error) {
	if uid == "" {
		return "", errors.BadRequest("User id is required", nil)
	}
	now := d.now()
	claims := jwt.RegisteredClaims{
		Subject:   uid,
		Issuer:    devIssuer,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(d.expiry)),
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(d.secret)
	if err != nil {
		return "", errors.Internal("Failed to sign dev token", err)
	}
	return signed, nil
}

func (d *DevTokens) Verify(token string) (string, error) {
	claims := &jwt.RegisteredClaims{}
	parser := jwt.NewParser(jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	_, err := parser.ParseWithClaims(token, claims, func(t *jwt.Token) (interface{}, error) {
		return d.secret, nil
	})
	if err != nil {
		return "", errors.Unauthenticated(fmt.Sprintf("Invalid dev token: %v", err))
	}
	// jwt/v4 validates exp against the wall clock; check again against ours.
	if claims.ExpiresAt != nil && !d.now().Before(claims.ExpiresAt.Time) {
		return "", errors.Unauthenticated("Dev token expired")
	}
	if claims.Issuer != devIssuer || claims.Subject == "" {
		return "", errors.Unauthenticated("Invalid dev token claims")
	}
	return claims.Subject, nil
}
