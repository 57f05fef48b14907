// Package qart stores meal photos in S3-compatible object storage.
package qart

import (
	"context"
	"io"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Object describes a stored image.
type Object struct {
	Key         string            `json:"key"`
	Bucket      string            `json:"bucket"`
	Size        int64             `json:"size"`
	ContentType string            `json:"content_type"`
	Metadata    map[string]string `json:"metadata,omitempty"`
}

// Store defines the object storage operations the API needs.
type Store interface {
	// Upload writes size bytes from reader under key. A size of -1 streams
	// until EOF.
	Upload(ctx context.Context, key string, reader io.Reader, size int64, contentType string, metadata map[string]string) (*Object, error)

	// GetPresignedURL generates a time-limited download URL.
	GetPresignedURL(ctx context.Context, key string, expiry time.Duration) (string, error)

	// Delete removes an object by key.
	Delete(ctx context.Context, key string) error

	// EnsureBucket ensures the bucket exists, creating it if necessary.
	EnsureBucket(ctx context.Context) error
}

var extByContentType = map[string]string{
	"image/jpeg": "jpg",
	"image/jpg":  "jpg",
	"image/png":  "png",
}

// ImageExt returns the file extension for an accepted image content type.
func ImageExt(contentType string) (string, bool) {
	ct := strings.ToLower(strings.TrimSpace(strings.SplitN(contentType, ";", 2)[0]))
	ext, ok := extByContentType[ct]
	return ext, ok
}

// MealImageKey returns a fresh object key for a user's meal photo.
func MealImageKey(userID uuid.UUID, ext string) string {
	return "meals/" + userID.String() + "/" + uuid.NewString() + "." + ext
}
