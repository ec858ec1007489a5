package logging

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewWritesJSONFile(t *testing.T) {
	dir := t.TempDir()
	logger, err := New(Options{Dir: dir, Level: "debug", MaxSizeMB: 1})
	require.NoError(t, err)

	logger.Named("media").Info("upload stored")
	_ = logger.Sync()

	data, err := os.ReadFile(filepath.Join(dir, fileName))
	require.NoError(t, err)
	line := strings.TrimSpace(string(data))
	assert.Contains(t, line, `"msg":"upload stored"`)
	assert.Contains(t, line, `"logger":"media"`)
}

func TestNewRejectsUnknownLevel(t *testing.T) {
	_, err := New(Options{Level: "loud"})
	assert.Error(t, err)
}
