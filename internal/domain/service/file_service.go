package service

import (
	"context"
	"io"

	"webugs/internal/domain/entity"
)

// MediaUploader stores chat media and returns a publicly fetchable URL.
// Rooms only ever keep that URL.
type MediaUploader interface {
	Upload(ctx context.Context, file io.Reader, contentType string, kind entity.MediaKind) (string, error)
	Delete(ctx context.Context, fileURL string) error
}
