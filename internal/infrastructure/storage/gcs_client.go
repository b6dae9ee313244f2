package storage

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"cloud.google.com/go/storage"
	"github.com/google/uuid"
	"google.golang.org/api/option"

	"webugs/internal/domain/entity"
	"webugs/pkg/errors"
)

const publicHost = "https://storage.googleapis.com/"

var extensions = map[string]string{
	"image/jpeg":      ".jpg",
	"image/jpg":       ".jpg",
	"image/png":       ".png",
	"image/gif":       ".gif",
	"image/webp":      ".webp",
	"image/heic":      ".heic",
	"video/mp4":       ".mp4",
	"video/quicktime": ".mov",
	"video/webm":      ".webm",
}

// CloudStorageClient keeps chat media in a GCS bucket under
// chat/<kind>/ and hands out public URLs.
type CloudStorageClient struct {
	client     *storage.Client
	bucketName string
	now        func() time.Time
}

func NewCloudStorageClient(ctx context.Context, bucketName string, credentialsJSON, credentialsPath string) (*CloudStorageClient, error) {
	var opts []option.ClientOption
	if credentialsJSON != "" {
		opts = append(opts, option.WithCredentialsJSON([]byte(credentialsJSON)))
	} else if credentialsPath != "" {
		opts = append(opts, option.WithCredentialsFile(credentialsPath))
	}

	client, err := storage.NewClient(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create storage client: %v", err)
	}

	return &CloudStorageClient{
		client:     client,
		bucketName: bucketName,
		now:        time.Now,
	}, nil
}

func (c *CloudStorageClient) Upload(ctx context.Context, file io.Reader, contentType string, kind entity.MediaKind) (string, error) {
	name, err := objectName(kind, contentType, uuid.NewString(), c.now())
	if err != nil {
		return "", err
	}

	obj := c.client.Bucket(c.bucketName).Object(name)
	wc := obj.NewWriter(ctx)
	wc.ContentType = contentType
	wc.CacheControl = "public, max-age=86400"

	if _, err := io.Copy(wc, file); err != nil {
		wc.Close()
		return "", errors.StoreUnavailable("Failed to upload media", err)
	}
	if err := wc.Close(); err != nil {
		return "", errors.StoreUnavailable("Failed to upload media", err)
	}

	if err := obj.ACL().Set(ctx, storage.AllUsers, storage.RoleReader); err != nil {
		return "", errors.StoreUnavailable("Failed to publish media", err)
	}

	return publicHost + c.bucketName + "/" + name, nil
}

func (c *CloudStorageClient) Delete(ctx context.Context, fileURL string) error {
	name, err := parseObjectURL(fileURL, c.bucketName)
	if err != nil {
		return err
	}
	if err := c.client.Bucket(c.bucketName).Object(name).Delete(ctx); err != nil {
		if err == storage.ErrObjectNotExist {
			return nil
		}
		return errors.StoreUnavailable("Failed to delete media", err)
	}
	return nil
}

func (c *CloudStorageClient) Close() error {
	return c.client.Close()
}

func objectName(kind entity.MediaKind, contentType, id string, at time.Time) (string, error) {
	if !kind.Valid() {
		return "", errors.InvalidMessage(fmt.Sprintf("unsupported media kind %q", kind))
	}
	contentType = strings.ToLower(contentType)
	ext, ok := extensions[contentType]
	if !ok || !strings.HasPrefix(contentType, mediaPrefix(kind)) {
		return "", errors.InvalidMessage(fmt.Sprintf("content type %q does not match %s", contentType, kind))
	}
	return fmt.Sprintf("chat/%s/%s-%s%s", kind, id, at.UTC().Format("20060102150405"), ext), nil
}

func mediaPrefix(kind entity.MediaKind) string {
	if kind == entity.MediaVideo {
		return "video/"
	}
	return "image/"
}

// parseObjectURL expects https://storage.googleapis.com/<bucket>/<object>.
func parseObjectURL(fileURL, bucket string) (string, error) {
	if !strings.HasPrefix(fileURL, publicHost) {
		return "", errors.BadRequest("invalid GCS URL format", nil)
	}
	parts := strings.SplitN(strings.TrimPrefix(fileURL, publicHost), "/", 2)
	if len(parts) != 2 || parts[0] != bucket || parts[1] == "" {
		return "", errors.BadRequest("invalid GCS URL format or bucket mismatch", nil)
	}
	return parts[1], nil
}
