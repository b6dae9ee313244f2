package errors

import (
	"errors"
	"fmt"
	"net/http"
)

const (
	CodeInvalidMessage         = "INVALID_MESSAGE"
	CodeRoomNotFound           = "ROOM_NOT_FOUND"
	CodeRequestNotFound        = "REQUEST_NOT_FOUND"
	CodeUnauthenticated        = "UNAUTHENTICATED"
	CodeStoreUnavailable       = "STORE_UNAVAILABLE"
	CodeConcurrentModification = "CONCURRENT_MODIFICATION"
	CodeNotFound               = "NOT_FOUND"
	CodeBadRequest             = "BAD_REQUEST"
	CodeForbidden              = "FORBIDDEN"
	CodeConflict               = "CONFLICT"
	CodeTooManyRequests        = "TOO_MANY_REQUESTS"
	CodeInternal               = "INTERNAL_ERROR"
)

type AppError struct {
	Code    string
	Message string
	Status  int
	Err     error
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *AppError) Unwrap() error {
	return e.Err
}

func New(code string, message string, status int, err error) *AppError {
	return &AppError{
		Code:    code,
		Message: message,
		Status:  status,
		Err:     err,
	}
}

// InvalidMessage covers malformed sends: missing ids, empty content without
// media, and out-of-range handshake ratings.
func InvalidMessage(message string) *AppError {
	return &AppError{
		Code:    CodeInvalidMessage,
		Message: message,
		Status:  http.StatusBadRequest,
	}
}

func RoomNotFound(roomID string, err error) *AppError {
	return &AppError{
		Code:    CodeRoomNotFound,
		Message: fmt.Sprintf("chat room %s not found", roomID),
		Status:  http.StatusNotFound,
		Err:     err,
	}
}

func RequestNotFound(err error) *AppError {
	return &AppError{
		Code:    CodeRequestNotFound,
		Message: "요청을 찾을 수 없습니다",
		Status:  http.StatusNotFound,
		Err:     err,
	}
}

func Unauthenticated(message string) *AppError {
	return &AppError{
		Code:    CodeUnauthenticated,
		Message: message,
		Status:  http.StatusUnauthorized,
	}
}

func StoreUnavailable(message string, err error) *AppError {
	return &AppError{
		Code:    CodeStoreUnavailable,
		Message: message,
		Status:  http.StatusServiceUnavailable,
		Err:     err,
	}
}

func ConcurrentModification(message string, err error) *AppError {
	return &AppError{
		Code:    CodeConcurrentModification,
		Message: message,
		Status:  http.StatusConflict,
		Err:     err,
	}
}

func NotFound(resource string, err error) *AppError {
	return &AppError{
		Code:    CodeNotFound,
		Message: fmt.Sprintf("%s not found", resource),
		Status:  http.StatusNotFound,
		Err:     err,
	}
}

func BadRequest(message string, err error) *AppError {
	return &AppError{
		Code:    CodeBadRequest,
		Message: message,
		Status:  http.StatusBadRequest,
		Err:     err,
	}
}

func Internal(message string, err error) *AppError {
	return &AppError{
		Code:    CodeInternal,
		Message: message,
		Status:  http.StatusInternalServerError,
		Err:     err,
	}
}

func Forbidden(message string, err error) *AppError {
	return &AppError{
		Code:    CodeForbidden,
		Message: message,
		Status:  http.StatusForbidden,
		Err:     err,
	}
}

func Conflict(message string) *AppError {
	return &AppError{
		Code:    CodeConflict,
		Message: message,
		Status:  http.StatusConflict,
	}
}

func TooManyRequests(message string) *AppError {
	return &AppError{
		Code:    CodeTooManyRequests,
		Message: message,
		Status:  http.StatusTooManyRequests,
	}
}

// Is reports whether err carries an AppError with the given code.
func Is(err error, code string) bool {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Code == code
	}
	return false
}

// As is re-exported so callers importing this package under the name
// "errors" keep access to the standard helper.
func As(err error, target any) bool {
	return errors.As(err, target)
}
