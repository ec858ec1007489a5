package cli

import (
	"bytes"
	"image/png"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	root := NewRootCommand(VersionInfo{Version: "test", Commit: "dev"})
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetArgs(args)
	err := root.Execute()
	return out.String(), err
}

func TestRenderCardWritesSVGAndPNG(t *testing.T) {
	dir := t.TempDir()

	svgPath := filepath.Join(dir, "card.svg")
	_, err := run(t, "render-card", "--text", "Tomatoes are fruit", "--category", "trivia", "-o", svgPath)
	require.NoError(t, err)
	svg, err := os.ReadFile(svgPath)
	require.NoError(t, err)
	assert.Contains(t, string(svg), "Tomatoes are fruit")

	pngPath := filepath.Join(dir, "card.png")
	_, err = run(t, "render-card", "--text", "Tomatoes are fruit", "-o", pngPath)
	require.NoError(t, err)
	f, err := os.Open(pngPath)
	require.NoError(t, err)
	defer f.Close()
	img, err := png.Decode(f)
	require.NoError(t, err)
	assert.Equal(t, 1920, img.Bounds().Dx())

	_, err = run(t, "render-card", "--text", "x", "-o", filepath.Join(dir, "card.gif"))
	assert.Error(t, err)
	_, err = run(t, "render-card", "-o", svgPath)
	assert.Error(t, err)
}

func TestResolvePrintsInArgumentOrder(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		path := r.URL.Query().Get("path")
		if strings.HasPrefix(path, "missing") {
			w.WriteHeader(http.StatusNotFound)
			_, _ = w.Write([]byte(`{"error":"object not found"}`))
			return
		}
		_, _ = w.Write([]byte(`{"url":"https://cdn.example.com/` + path + `"}`))
	}))
	defer srv.Close()

	out, err := run(t, "resolve", "--server", srv.URL, "biz/a.png", "missing/b.png", "biz/c.png")
	require.Error(t, err)
	lines := strings.Split(strings.TrimSpace(out), "\n")
	require.Len(t, lines, 3)
	assert.Equal(t, "biz/a.png\thttps://cdn.example.com/biz/a.png", lines[0])
	assert.True(t, strings.HasPrefix(lines[1], "missing/b.png\tERROR"))
	assert.Equal(t, "biz/c.png\thttps://cdn.example.com/biz/c.png", lines[2])
}

func TestStorageCommandsNeedCredentials(t *testing.T) {
	t.Setenv("STORAGE_DRIVER", "s3")
	t.Setenv("STORAGE_ACCESS_KEY_ID", "")
	t.Setenv("STORAGE_SECRET_ACCESS_KEY", "")

	_, err := run(t, "storage", "ls")
	require.Error(t, err)
	assert.ErrorIs(t, err, errMissingCredentials)

	_, err = run(t, "reconcile")
	assert.ErrorIs(t, err, errMissingCredentials)
}

func TestStorageListWithMemoryDriver(t *testing.T) {
	t.Setenv("STORAGE_DRIVER", "memory")

	out, err := run(t, "storage", "ls", "biz")
	require.NoError(t, err)
	assert.Contains(t, out, "0 object(s) in slideshow-media")
}
