package response

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tablecast/signage/internal/pkg/apperr"
)

func init() { gin.SetMode(gin.TestMode) }

func perform(t *testing.T, h gin.HandlerFunc) *httptest.ResponseRecorder {
	t.Helper()
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodGet, "/", nil)
	h(c)
	return w
}

func TestErrorWritesTaxonomyStatus(t *testing.T) {
	w := perform(t, func(c *gin.Context) {
		Error(c, apperr.Validation("fileName is required").WithDetails(map[string]string{"field": "fileName"}))
	})

	require.Equal(t, http.StatusBadRequest, w.Code)
	var body map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "fileName is required", body["error"])
	assert.Equal(t, map[string]any{"field": "fileName"}, body["details"])
}

func TestErrorPassesUpstreamStatus(t *testing.T) {
	w := perform(t, func(c *gin.Context) {
		Error(c, apperr.Upstream(http.StatusServiceUnavailable, "ai provider unavailable", nil))
	})
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
}

func TestErrorHidesUnknownErrors(t *testing.T) {
	w := perform(t, func(c *gin.Context) {
		Error(c, errors.New("pq: connection refused"))
	})

	require.Equal(t, http.StatusInternalServerError, w.Code)
	assert.JSONEq(t, `{"error":"internal server error"}`, w.Body.String())
}

func TestOKWrapsSlices(t *testing.T) {
	w := perform(t, func(c *gin.Context) { OK(c, []string{"a"}) })
	assert.JSONEq(t, `{"data":["a"]}`, w.Body.String())

	w = perform(t, func(c *gin.Context) { Raw(c, []string{"a"}) })
	assert.JSONEq(t, `["a"]`, w.Body.String())
}

func TestErrorExposesRawModelOutput(t *testing.T) {
	w := perform(t, func(c *gin.Context) {
		Error(c, apperr.Parse("model output is not valid JSON", "sure! here you go", nil))
	})

	require.Equal(t, http.StatusBadGateway, w.Code)
	assert.JSONEq(t, `{"error":"model output is not valid JSON","details":{"raw":"sure! here you go"}}`, w.Body.String())
}
