package objectstore

import (
	"crypto/rand"
	"math/big"
	"path/filepath"
	"strconv"
	"strings"
	"time"
)

const (
	alphanumeric     = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
	randomSuffixSize = 12
	maxExtLen        = 8
)

// ObjectPath builds "{businessID}/{epochMillis}-{random}.{ext}". The extension
// comes from originalName, then from contentType, and finally "bin".
func ObjectPath(businessID, originalName, contentType string, now time.Time) string {
	var b strings.Builder
	b.WriteString(businessID)
	b.WriteByte('/')
	b.WriteString(strconv.FormatInt(now.UnixMilli(), 10))
	b.WriteByte('-')
	b.WriteString(randomString(randomSuffixSize))
	b.WriteByte('.')
	b.WriteString(extensionFor(originalName, contentType))
	return b.String()
}

// BusinessIDFromPath returns the tenant prefix of an object path.
func BusinessIDFromPath(path string) string {
	if i := strings.IndexByte(path, '/'); i > 0 {
		return path[:i]
	}
	return ""
}

func extensionFor(originalName, contentType string) string {
	ext := strings.TrimPrefix(strings.ToLower(filepath.Ext(strings.TrimSpace(originalName))), ".")
	if isSafeExt(ext) {
		return ext
	}
	if ext, ok := allowedTypes[NormalizeContentType(contentType)]; ok {
		return ext
	}
	return "bin"
}

func isSafeExt(ext string) bool {
	if ext == "" || len(ext) > maxExtLen {
		return false
	}
	for _, r := range ext {
		if (r < 'a' || r > 'z') && (r < '0' || r > '9') {
			return false
		}
	}
	return true
}

func randomString(n int) string {
	out := make([]byte, n)
	max := big.NewInt(int64(len(alphanumeric)))
	for i := range out {
		v, err := rand.Int(rand.Reader, max)
		if err != nil {
			out[i] = alphanumeric[time.Now().UnixNano()%int64(len(alphanumeric))]
			continue
		}
		out[i] = alphanumeric[v.Int64()]
	}
	return string(out)
}
