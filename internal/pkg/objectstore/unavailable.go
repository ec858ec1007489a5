package objectstore

import (
	"context"
	"time"

	"github.com/tablecast/signage/internal/pkg/apperr"
)

// Unavailable stands in for a bucket that could not be configured. Every
// operation fails with a storage error carrying reason.
type Unavailable struct {
	bucket string
	reason string
}

func NewUnavailable(bucket, reason string) *Unavailable {
	return &Unavailable{bucket: bucket, reason: reason}
}

func (u *Unavailable) fail() error {
	return apperr.Storage("storage is not configured: "+u.reason, nil)
}

func (u *Unavailable) Bucket() string { return u.bucket }

func (u *Unavailable) Upload(context.Context, UploadInput) error { return u.fail() }

func (u *Unavailable) SignedURL(context.Context, string, time.Duration) (*SignedURL, error) {
	return nil, u.fail()
}

func (u *Unavailable) Delete(context.Context, string) error { return u.fail() }

func (u *Unavailable) List(context.Context, string) ([]ObjectInfo, error) { return nil, u.fail() }

func (u *Unavailable) Ping(context.Context) error { return u.fail() }
