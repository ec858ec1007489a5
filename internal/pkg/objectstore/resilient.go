package objectstore

import (
	"context"
	"time"

	"github.com/tablecast/signage/internal/pkg/metrics"
	"github.com/tablecast/signage/internal/pkg/resilience"
)

// Resilient wraps a Gateway with a retry/breaker policy, a per-call timeout
// and storage metrics.
type Resilient struct {
	next    Gateway
	policy  *resilience.Policy
	timeout time.Duration
}

// WithResilience decorates next. A nil policy disables retries; timeout <= 0
// leaves the caller's deadline alone.
func WithResilience(next Gateway, policy *resilience.Policy, timeout time.Duration) *Resilient {
	return &Resilient{next: next, policy: policy, timeout: timeout}
}

// Unwrap returns the decorated driver.
func (r *Resilient) Unwrap() Gateway { return r.next }

func (r *Resilient) Bucket() string { return r.next.Bucket() }

func (r *Resilient) Upload(ctx context.Context, in UploadInput) error {
	return r.run(ctx, "upload", func(ctx context.Context) error {
		return r.next.Upload(ctx, in)
	})
}

func (r *Resilient) SignedURL(ctx context.Context, path string, ttl time.Duration) (*SignedURL, error) {
	var out *SignedURL
	err := r.run(ctx, "signed_url", func(ctx context.Context) error {
		signed, err := r.next.SignedURL(ctx, path, ttl)
		if err != nil {
			return err
		}
		out = signed
		return nil
	})
	return out, err
}

func (r *Resilient) Delete(ctx context.Context, path string) error {
	return r.run(ctx, "delete", func(ctx context.Context) error {
		return r.next.Delete(ctx, path)
	})
}

func (r *Resilient) List(ctx context.Context, prefix string) ([]ObjectInfo, error) {
	var out []ObjectInfo
	err := r.run(ctx, "list", func(ctx context.Context) error {
		objects, err := r.next.List(ctx, prefix)
		if err != nil {
			return err
		}
		out = objects
		return nil
	})
	return out, err
}

func (r *Resilient) Ping(ctx context.Context) error {
	return r.run(ctx, "ping", r.next.Ping)
}

func (r *Resilient) run(ctx context.Context, op string, fn func(context.Context) error) error {
	if r.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.timeout)
		defer cancel()
	}

	start := time.Now()
	var err error
	if r.policy == nil {
		err = fn(ctx)
	} else {
		err = r.policy.Do(ctx, fn)
	}

	status := "ok"
	if err != nil {
		status = "error"
	}
	metrics.RecordStorageOp(op, status, time.Since(start).Seconds())
	return err
}
