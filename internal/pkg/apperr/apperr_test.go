package apperr

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestHTTPStatus(t *testing.T) {
	cases := []struct {
		name string
		err  error
		want int
	}{
		{"validation", Validation("bad input"), http.StatusBadRequest},
		{"auth", Auth("no token"), http.StatusUnauthorized},
		{"forbidden", Forbidden("locked"), http.StatusForbidden},
		{"not found", NotFound("slide %s", "x"), http.StatusNotFound},
		{"conflict", Conflict("exists"), http.StatusConflict},
		{"upstream passthrough", Upstream(429, "rate limited", nil), http.StatusTooManyRequests},
		{"upstream without response", Upstream(0, "dial failed", errors.New("refused")), http.StatusBadGateway},
		{"parse", Parse("bad json", "{", nil), http.StatusBadGateway},
		{"storage", Storage("put failed", nil), http.StatusInternalServerError},
		{"database", Database("insert failed", nil), http.StatusInternalServerError},
		{"plain error", errors.New("boom"), http.StatusInternalServerError},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, HTTPStatus(tc.err))
		})
	}
}

func TestKindSurvivesWrapping(t *testing.T) {
	base := NotFound("object %q", "a/b.png")
	wrapped := fmt.Errorf("signed url: %w", base)

	assert.True(t, Is(wrapped, KindNotFound))
	assert.Equal(t, http.StatusNotFound, HTTPStatus(wrapped))

	got, ok := As(wrapped)
	assert.True(t, ok)
	assert.Same(t, base, got)
}

func TestErrorMessage(t *testing.T) {
	err := Storage("upload failed", errors.New("connection reset"))
	assert.Equal(t, "upload failed: connection reset", err.Error())
	assert.ErrorIs(t, err, err.Err)
}
