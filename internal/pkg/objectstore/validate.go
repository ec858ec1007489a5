package objectstore

import (
	"fmt"
	"strings"

	"github.com/gabriel-vasile/mimetype"
	"github.com/tablecast/signage/internal/pkg/apperr"
)

// DefaultMaxUploadBytes is the per-object size cap.
const DefaultMaxUploadBytes int64 = 50 * 1024 * 1024

// allowedTypes maps every accepted content type to its canonical extension.
var allowedTypes = map[string]string{
	"image/jpeg":      "jpg",
	"image/png":       "png",
	"image/gif":       "gif",
	"image/webp":      "webp",
	"video/mp4":       "mp4",
	"video/webm":      "webm",
	"video/quicktime": "mov",
	"video/mov":       "mov",
	"video/avi":       "avi",
	"video/x-msvideo": "avi",
}

// NormalizeContentType lowercases ct and drops parameters.
func NormalizeContentType(ct string) string {
	ct = strings.ToLower(strings.TrimSpace(ct))
	if i := strings.IndexByte(ct, ';'); i >= 0 {
		ct = strings.TrimSpace(ct[:i])
	}
	if ct == "image/jpg" {
		ct = "image/jpeg"
	}
	return ct
}

// IsAllowed reports whether ct is on the media allow-list.
func IsAllowed(ct string) bool {
	_, ok := allowedTypes[NormalizeContentType(ct)]
	return ok
}

// IsImage reports whether ct is an allowed image type.
func IsImage(ct string) bool {
	ct = NormalizeContentType(ct)
	return IsAllowed(ct) && strings.HasPrefix(ct, "image/")
}

// ValidateUpload checks the declared type and size, then sniffs body to make
// sure the bytes agree with the declared media family.
func ValidateUpload(contentType string, body []byte, maxBytes int64) error {
	if maxBytes <= 0 {
		maxBytes = DefaultMaxUploadBytes
	}
	ct := NormalizeContentType(contentType)
	if !IsAllowed(ct) {
		return apperr.Validation("content type %q is not allowed", contentType).
			WithDetails(map[string]any{"allowed": AllowedContentTypes()})
	}
	if len(body) == 0 {
		return apperr.Validation("file is empty")
	}
	if int64(len(body)) > maxBytes {
		return apperr.Validation("file size %d exceeds limit of %d bytes", len(body), maxBytes)
	}

	sniffed := mimetype.Detect(body)
	if sniffed.Is("application/octet-stream") {
		return nil
	}
	detected := NormalizeContentType(sniffed.String())
	if !IsAllowed(detected) {
		return apperr.Validation("file content looks like %s, not %s", detected, ct)
	}
	if family(detected) != family(ct) {
		return apperr.Validation("file content looks like %s, not %s", detected, ct)
	}
	return nil
}

// AllowedContentTypes lists the allow-list in a stable order.
func AllowedContentTypes() []string {
	return []string{
		"image/jpeg", "image/png", "image/gif", "image/webp",
		"video/mp4", "video/webm", "video/quicktime", "video/mov", "video/avi", "video/x-msvideo",
	}
}

func family(ct string) string {
	if i := strings.IndexByte(ct, '/'); i > 0 {
		return ct[:i]
	}
	return fmt.Sprintf("unknown(%s)", ct)
}
