package repository

import (
	"context"
	stderrors "errors"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"webugs/pkg/errors"
)

// storeError maps a Firestore failure onto the application error set.
// Errors that already are application errors (returned from inside a
// transaction function) pass through untouched.
func storeError(action string, err error) error {
	if err == nil {
		return nil
	}
	var appErr *errors.AppError
	if stderrors.As(err, &appErr) {
		return appErr
	}
	if stderrors.Is(err, context.Canceled) || stderrors.Is(err, context.DeadlineExceeded) {
		return errors.StoreUnavailable(action+": request cancelled", err)
	}
	switch status.Code(err) {
	case codes.Unavailable, codes.DeadlineExceeded, codes.Internal, codes.ResourceExhausted, codes.Canceled:
		return errors.StoreUnavailable(action, err)
	case codes.Aborted:
		return errors.ConcurrentModification(action, err)
	case codes.AlreadyExists:
		return errors.Conflict(action + ": document already exists")
	case codes.PermissionDenied:
		return errors.Forbidden(action, err)
	}
	return errors.Internal(action, err)
}

func isNotFound(err error) bool {
	return status.Code(err) == codes.NotFound
}
