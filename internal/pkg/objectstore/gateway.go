// Package objectstore is the only code that talks to the media bucket.
// Drivers return apperr values: KindConflict when a create-only upload finds
// an existing object and KindNotFound when a signed URL is requested for a
// missing one.
package objectstore

import (
	"context"
	"time"
)

// DefaultSignedURLTTL is the lifetime of a signed read URL.
const DefaultSignedURLTTL = time.Hour

// UploadInput is a single object write.
type UploadInput struct {
	Path        string
	ContentType string
	Body        []byte
	// Upsert overwrites an existing object; otherwise the write is create-only.
	Upsert bool
}

// SignedURL is a time-limited read URL for a private object.
type SignedURL struct {
	FilePath  string    `json:"filePath"`
	URL       string    `json:"url"`
	ExpiresAt time.Time `json:"expiresAt"`
}

// ObjectInfo describes one listed object.
type ObjectInfo struct {
	Path        string    `json:"path"`
	Size        int64     `json:"size"`
	ContentType string    `json:"content_type,omitempty"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// Gateway is implemented by every bucket driver.
type Gateway interface {
	Upload(ctx context.Context, in UploadInput) error
	SignedURL(ctx context.Context, path string, ttl time.Duration) (*SignedURL, error)
	// Delete removes path. A missing object is not an error.
	Delete(ctx context.Context, path string) error
	List(ctx context.Context, prefix string) ([]ObjectInfo, error)
	Ping(ctx context.Context) error
	Bucket() string
}
