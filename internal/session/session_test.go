package session

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"

	"webugs/pkg/errors"
)

func TestCurrentUserID(t *testing.T) {
	_, err := CurrentUserID(context.Background())
	assert.True(t, errors.Is(err, errors.CodeUnauthenticated))

	_, err = CurrentUserID(WithUser(context.Background(), ""))
	assert.True(t, errors.Is(err, errors.CodeUnauthenticated))

	uid, err := CurrentUserID(WithUser(context.Background(), "u1"))
	assert.NoError(t, err)
	assert.Equal(t, "u1", uid)
}
