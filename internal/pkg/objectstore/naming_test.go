package objectstore

import (
	"regexp"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestObjectPathShape(t *testing.T) {
	now := time.UnixMilli(1717000000123)
	path := ObjectPath("biz-1", "Menu Photo.PNG", "image/png", now)

	assert.Regexp(t, regexp.MustCompile(`^biz-1/1717000000123-[A-Za-z0-9]{12}\.png$`), path)
	assert.Equal(t, "biz-1", BusinessIDFromPath(path))
}

func TestObjectPathExtensionFallbacks(t *testing.T) {
	now := time.Now()

	assert.Regexp(t, `\.jpg$`, ObjectPath("b", "", "image/jpeg", now))
	assert.Regexp(t, `\.mov$`, ObjectPath("b", "clip", "video/quicktime", now))
	assert.Regexp(t, `\.webp$`, ObjectPath("b", "evil.ph p", "image/webp", now))
	assert.Regexp(t, `\.bin$`, ObjectPath("b", "", "application/x-unknown", now))
}

func TestObjectPathIsUnique(t *testing.T) {
	now := time.Now()
	seen := make(map[string]struct{})
	for i := 0; i < 200; i++ {
		p := ObjectPath("b", "a.png", "image/png", now)
		_, dup := seen[p]
		assert.False(t, dup, p)
		seen[p] = struct{}{}
	}
}

func TestBusinessIDFromPathWithoutPrefix(t *testing.T) {
	assert.Equal(t, "", BusinessIDFromPath("orphan.png"))
	assert.Equal(t, "", BusinessIDFromPath("/leading.png"))
}
