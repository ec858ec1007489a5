package objectstore

import (
	"context"
	"fmt"
	"net/url"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/tablecast/signage/internal/pkg/apperr"
)

type memObject struct {
	body        []byte
	contentType string
	updatedAt   time.Time
}

// Memory is an in-process Gateway for local development and tests.
type Memory struct {
	mu      sync.RWMutex
	bucket  string
	objects map[string]memObject
	// Now is the clock used for object timestamps and URL expiry.
	Now func() time.Time
}

func NewMemory(bucket string) *Memory {
	return &Memory{bucket: bucket, objects: make(map[string]memObject), Now: time.Now}
}

func (m *Memory) Bucket() string { return m.bucket }

func (m *Memory) Upload(_ context.Context, in UploadInput) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, exists := m.objects[in.Path]; exists && !in.Upsert {
		return apperr.Conflict("object %q already exists", in.Path)
	}
	body := make([]byte, len(in.Body))
	copy(body, in.Body)
	m.objects[in.Path] = memObject{body: body, contentType: in.ContentType, updatedAt: m.Now()}
	return nil
}

func (m *Memory) SignedURL(_ context.Context, path string, ttl time.Duration) (*SignedURL, error) {
	if ttl <= 0 {
		ttl = DefaultSignedURLTTL
	}
	m.mu.RLock()
	_, ok := m.objects[path]
	m.mu.RUnlock()
	if !ok {
		return nil, apperr.NotFound("object %q not found", path)
	}
	expires := m.Now().Add(ttl)
	u := fmt.Sprintf("memory://%s/%s?expires=%d", m.bucket, url.PathEscape(path), expires.Unix())
	return &SignedURL{FilePath: path, URL: u, ExpiresAt: expires}, nil
}

func (m *Memory) Delete(_ context.Context, path string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.objects, path)
	return nil
}

func (m *Memory) List(_ context.Context, prefix string) ([]ObjectInfo, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]ObjectInfo, 0, len(m.objects))
	for p, obj := range m.objects {
		if !strings.HasPrefix(p, prefix) {
			continue
		}
		out = append(out, ObjectInfo{Path: p, Size: int64(len(obj.body)), ContentType: obj.contentType, UpdatedAt: obj.updatedAt})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Path < out[j].Path })
	return out, nil
}

func (m *Memory) Ping(context.Context) error { return nil }

// Object returns the stored bytes for path.
func (m *Memory) Object(path string) ([]byte, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	obj, ok := m.objects[path]
	return obj.body, ok
}
