package objectstore

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"cloud.google.com/go/storage"
	"github.com/tablecast/signage/internal/pkg/apperr"
	"go.uber.org/zap"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/iterator"
	"google.golang.org/api/option"
)

// GCSOptions configures a Google Cloud Storage bucket. Credentials may be a
// file path or inline JSON; empty falls back to application default credentials.
type GCSOptions struct {
	Bucket      string
	Credentials string
}

// GCSGateway stores media in a GCS bucket and signs V4 URLs.
type GCSGateway struct {
	bucket string
	client *storage.Client
	logger *zap.Logger
}

func NewGCS(ctx context.Context, opts GCSOptions, logger *zap.Logger) (*GCSGateway, error) {
	if strings.TrimSpace(opts.Bucket) == "" {
		return nil, errors.New("gcs bucket is required")
	}
	clientOpts := []option.ClientOption{option.WithScopes(storage.ScopeReadWrite)}
	if creds := strings.TrimSpace(opts.Credentials); creds != "" {
		if strings.HasPrefix(creds, "{") {
			clientOpts = append(clientOpts, option.WithCredentialsJSON([]byte(creds)))
		} else {
			clientOpts = append(clientOpts, option.WithCredentialsFile(creds))
		}
	}
	client, err := storage.NewClient(ctx, clientOpts...)
	if err != nil {
		return nil, fmt.Errorf("create storage client: %w", err)
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &GCSGateway{bucket: opts.Bucket, client: client, logger: logger.Named("gcs")}, nil
}

func (g *GCSGateway) Bucket() string { return g.bucket }

func (g *GCSGateway) Upload(ctx context.Context, in UploadInput) error {
	obj := g.client.Bucket(g.bucket).Object(in.Path)
	if !in.Upsert {
		obj = obj.If(storage.Conditions{DoesNotExist: true})
	}
	w := obj.NewWriter(ctx)
	w.ContentType = in.ContentType
	if _, err := w.Write(in.Body); err != nil {
		_ = w.Close()
		return classifyGCS("write object", in.Path, err)
	}
	if err := w.Close(); err != nil {
		if gcsStatus(err) == http.StatusPreconditionFailed {
			return apperr.Conflict("object %q already exists", in.Path)
		}
		return classifyGCS("close writer", in.Path, err)
	}
	return nil
}

func (g *GCSGateway) SignedURL(ctx context.Context, path string, ttl time.Duration) (*SignedURL, error) {
	if ttl <= 0 {
		ttl = DefaultSignedURLTTL
	}
	bucket := g.client.Bucket(g.bucket)
	if _, err := bucket.Object(path).Attrs(ctx); err != nil {
		if errors.Is(err, storage.ErrObjectNotExist) {
			return nil, apperr.NotFound("object %q not found", path)
		}
		return nil, classifyGCS("stat object", path, err)
	}

	expires := time.Now().Add(ttl)
	url, err := bucket.SignedURL(path, &storage.SignedURLOptions{
		Scheme:  storage.SigningSchemeV4,
		Method:  http.MethodGet,
		Expires: expires,
	})
	if err != nil {
		return nil, fmt.Errorf("sign %q: %w", path, err)
	}
	return &SignedURL{FilePath: path, URL: url, ExpiresAt: expires}, nil
}

func (g *GCSGateway) Delete(ctx context.Context, path string) error {
	err := g.client.Bucket(g.bucket).Object(path).Delete(ctx)
	if err != nil && !errors.Is(err, storage.ErrObjectNotExist) {
		return classifyGCS("delete object", path, err)
	}
	return nil
}

func (g *GCSGateway) List(ctx context.Context, prefix string) ([]ObjectInfo, error) {
	it := g.client.Bucket(g.bucket).Objects(ctx, &storage.Query{Prefix: prefix})
	var out []ObjectInfo
	for {
		attrs, err := it.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, classifyGCS("list objects", prefix, err)
		}
		out = append(out, ObjectInfo{
			Path:        attrs.Name,
			Size:        attrs.Size,
			ContentType: attrs.ContentType,
			UpdatedAt:   attrs.Updated,
		})
	}
	return out, nil
}

func (g *GCSGateway) Ping(ctx context.Context) error {
	if _, err := g.client.Bucket(g.bucket).Attrs(ctx); err != nil {
		return classifyGCS("bucket attrs", g.bucket, err)
	}
	return nil
}

// Close releases the underlying client.
func (g *GCSGateway) Close() error { return g.client.Close() }

func gcsStatus(err error) int {
	var apiErr *googleapi.Error
	if errors.As(err, &apiErr) {
		return apiErr.Code
	}
	return 0
}

func classifyGCS(op, key string, err error) error {
	status := gcsStatus(err)
	if status == 0 {
		return fmt.Errorf("%s %q: %w", op, key, err)
	}
	return apperr.Upstream(status, fmt.Sprintf("%s %q failed", op, key), err)
}
