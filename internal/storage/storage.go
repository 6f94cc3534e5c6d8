// Package storage persists uploaded service request images.
package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path"
	"strings"

	"github.com/google/uuid"

	"github.com/iliyamo/fixer-backend/internal/config"
)

// ErrNotFound is returned when a key does not exist.
var ErrNotFound = errors.New("object not found")

// Object describes a stored image.
type Object struct {
	Key         string
	URL         string
	Size        int64
	ContentType string
}

// Store is a flat key/value blob store.
type Store interface {
	Put(ctx context.Context, key string, r io.Reader, size int64, contentType string) (Object, error)
	Delete(ctx context.Context, key string) error
}

// allowed image types and the extension used for the key.
var imageTypes = map[string]string{
	"image/jpeg": ".jpg",
	"image/png":  ".png",
	"image/webp": ".webp",
	"image/gif":  ".gif",
}

// ImageExtension returns the key extension for an accepted image content
// type, or false if the type is not an image we store.
func ImageExtension(contentType string) (string, bool) {
	ct := strings.ToLower(strings.TrimSpace(strings.SplitN(contentType, ";", 2)[0]))
	ext, ok := imageTypes[ct]
	return ext, ok
}

// RequestImageKey builds a unique key for an image attached to a request.
func RequestImageKey(requestID, ext string) string {
	return path.Join("service-requests", requestID, uuid.NewString()+ext)
}

// Open selects a Store from configuration.
func Open(ctx context.Context, cfg config.StorageConfig) (Store, error) {
	switch cfg.Driver {
	case "", "memory":
		return NewMemory(cfg.PublicBaseURL), nil
	case "s3":
		return NewS3(ctx, cfg)
	default:
		return nil, fmt.Errorf("unknown storage driver %q", cfg.Driver)
	}
}

func objectURL(base, key string) string {
	if base == "" {
		return "/" + key
	}
	return base + "/" + key
}
