package ai

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tablecast/signage/internal/config"
	"github.com/tablecast/signage/internal/pkg/apperr"
	"github.com/tablecast/signage/internal/pkg/resilience"
)

func init() { gin.SetMode(gin.TestMode) }

func fixed(text string) Completer {
	return CompleterFunc(func(context.Context, CompletionRequest) (string, error) { return text, nil })
}

const validSlides = `[
 {"id":"welcome","type":"text","title":"Welcome","emoji":"👋","gradient":"linear-gradient(#000,#333)"},
 {"id":"menu","type":"menu","title":"Lunch","emoji":"🍜","gradient":"linear-gradient(#111,#444)","durationMs":12000}
]`

func TestStripFences(t *testing.T) {
	cases := map[string]string{
		"```json\n[1]\n```":  "[1]",
		"```\n{\"a\":1}\n```": `{"a":1}`,
		"```[1]```":          "[1]",
		"  [1]  ":            "[1]",
	}
	for in, want := range cases {
		assert.Equal(t, want, stripFences(in), in)
	}
}

func TestDecodeJSONFallsBackToOutermostSpan(t *testing.T) {
	var out []int
	require.NoError(t, decodeJSON("Here you go: [1,2,3] enjoy", '[', ']', &out))
	assert.Equal(t, []int{1, 2, 3}, out)

	err := decodeJSON("no json here", '[', ']', &out)
	appErr, ok := apperr.As(err)
	require.True(t, ok)
	assert.Equal(t, apperr.KindParse, appErr.Kind)
	assert.Equal(t, "no json here", appErr.Raw)
}

func TestGenerateSlidesAcceptsFencedOutput(t *testing.T) {
	var seen CompletionRequest
	svc := NewService(CompleterFunc(func(_ context.Context, req CompletionRequest) (string, error) {
		seen = req
		return "```json\n" + validSlides + "\n```", nil
	}), 1024)

	slides, err := svc.GenerateSlides(context.Background(), "brunch specials")
	require.NoError(t, err)
	require.Len(t, slides, 2)
	assert.Equal(t, "welcome", slides[0].ID)
	assert.Equal(t, 12000, slides[1].DurationMS)

	assert.Equal(t, 1024, seen.MaxTokens)
	assert.Contains(t, seen.System, `"gradient"`)
	assert.Contains(t, seen.Prompt, "brunch specials")
}

func TestGenerateSlidesRejectsIncompleteOutput(t *testing.T) {
	cases := map[string]string{
		"missing emoji": `[{"id":"a","type":"text","title":"T","gradient":"g"}]`,
		"unknown type":  `[{"id":"a","type":"video","title":"T","emoji":"x","gradient":"g"}]`,
		"empty array":   `[]`,
		"prose":         `I could not do that.`,
		"object":        `{"id":"a"}`,
	}
	for name, raw := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := NewService(fixed(raw), 512).GenerateSlides(context.Background(), "x")
			appErr, ok := apperr.As(err)
			require.True(t, ok)
			assert.Equal(t, apperr.KindParse, appErr.Kind)
			assert.Equal(t, raw, appErr.Raw)
		})
	}
}

func TestGenerateFacts(t *testing.T) {
	raw := `[
	 {"text":"Ramen came from China.","category":"history","background_color":"#112233","emoji":"🍜"},
	 {"text":"  ","category":"empty"},
	 {"text":"Miso is fermented.","category":"science","background_color":"blue"},
	 {"text":"Third fact.","category":"misc","background_color":"#000000"}
	]`
	svc := NewService(fixed(raw), 512)
	svc.now = func() time.Time { return time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC) }

	facts, err := svc.GenerateFacts(context.Background(), FactsRequest{Topic: "ramen", Count: 2})
	require.NoError(t, err)
	require.Len(t, facts, 2)
	assert.Equal(t, "Ramen came from China.", facts[0].Text)
	assert.Equal(t, "#112233", facts[0].BackgroundColor)
	assert.Equal(t, "#1f2937", facts[1].BackgroundColor)
	assert.Equal(t, "ramen", facts[1].SourcePrompt)
	assert.NotEmpty(t, facts[0].ID)
	assert.NotEqual(t, facts[0].ID, facts[1].ID)
	assert.Equal(t, 2026, facts[0].Timestamp.Year())
}

func TestGenerateFactsValidatesInput(t *testing.T) {
	svc := NewService(fixed("[]"), 512)
	for _, req := range []FactsRequest{
		{Topic: "", Count: 3},
		{Topic: "tea", Count: 11},
		{Topic: "tea", Count: -1},
	} {
		_, err := svc.GenerateFacts(context.Background(), req)
		assert.True(t, apperr.Is(err, apperr.KindValidation), "%+v", req)
	}

	_, err := svc.GenerateFacts(context.Background(), FactsRequest{Topic: "tea"})
	assert.True(t, apperr.Is(err, apperr.KindParse))
}

func TestGenerateDescription(t *testing.T) {
	var prompt string
	svc := NewService(CompleterFunc(func(_ context.Context, req CompletionRequest) (string, error) {
		prompt = req.Prompt
		return `{"description":"  A cozy noodle bar.  "}`, nil
	}), 512)

	desc, err := svc.GenerateDescription(context.Background(), DescriptionRequest{
		Name: "Noodle Bar", Cuisine: "Japanese", Highlights: []string{"late hours", ""},
	})
	require.NoError(t, err)
	assert.Equal(t, "A cozy noodle bar.", desc)
	assert.Contains(t, prompt, "TONE: warm")
	assert.Contains(t, prompt, "- late hours")
	assert.NotContains(t, prompt, "- \n")

	_, err = NewService(fixed(`{"description":""}`), 512).GenerateDescription(context.Background(), DescriptionRequest{Name: "X"})
	assert.True(t, apperr.Is(err, apperr.KindParse))
}

func TestUnconfiguredCompleterIsServerError(t *testing.T) {
	_, err := NewService(nil, 512).GenerateSlides(context.Background(), "x")
	assert.Equal(t, http.StatusInternalServerError, apperr.HTTPStatus(err))

	_, err = NewCompleter(config.AIConfig{Provider: config.AIAnthropic}, nil, nil)
	assert.ErrorIs(t, err, ErrNotConfigured)
}

func compatServer(t *testing.T, handler http.HandlerFunc) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return srv
}

func TestCompatibleCompleterSendsChatRequest(t *testing.T) {
	srv := compatServer(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer sk-test", r.Header.Get("Authorization"))
		var body chatRequest
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "local-model", body.Model)
		assert.Equal(t, 256, body.MaxTokens)
		if assert.Len(t, body.Messages, 2) {
			assert.Equal(t, "system", body.Messages[0].Role)
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"choices":[{"message":{"role":"assistant","content":"hello"}}]}`))
	})

	c, err := NewCompleter(config.AIConfig{
		Provider: config.AIOpenAICompatible, APIKey: "sk-test", Endpoint: srv.URL + "/v1/", Model: "local-model",
	}, nil, nil)
	require.NoError(t, err)

	out, err := c.Complete(context.Background(), CompletionRequest{System: "be brief", Prompt: "hi", MaxTokens: 256})
	require.NoError(t, err)
	assert.Equal(t, "hello", out)
}

func testPolicy() *resilience.Policy {
	return resilience.New(resilience.Options{
		Name:            "ai-test",
		MaxAttempts:     3,
		InitialInterval: time.Millisecond,
		MaxInterval:     2 * time.Millisecond,
		BreakerFailures: 10,
	})
}

func TestResilientRetriesTransientUpstream(t *testing.T) {
	var calls atomic.Int32
	srv := compatServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		if calls.Add(1) < 3 {
			w.WriteHeader(http.StatusServiceUnavailable)
			_, _ = w.Write([]byte(`{"error":{"message":"overloaded"}}`))
			return
		}
		_, _ = w.Write([]byte(`{"choices":[{"message":{"content":"ok"}}]}`))
	})

	c, err := NewCompleter(config.AIConfig{Provider: config.AIOpenAICompatible, APIKey: "k", Endpoint: srv.URL}, testPolicy(), nil)
	require.NoError(t, err)
	out, err := c.Complete(context.Background(), CompletionRequest{Prompt: "hi"})
	require.NoError(t, err)
	assert.Equal(t, "ok", out)
	assert.Equal(t, int32(3), calls.Load())
}

func TestResilientKeepsClientErrorStatus(t *testing.T) {
	var calls atomic.Int32
	srv := compatServer(t, func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"error":{"message":"bad key"}}`))
	})

	c, err := NewCompleter(config.AIConfig{Provider: config.AIOpenAICompatible, APIKey: "k", Endpoint: srv.URL}, testPolicy(), nil)
	require.NoError(t, err)
	_, err = c.Complete(context.Background(), CompletionRequest{Prompt: "hi"})

	appErr, ok := apperr.As(err)
	require.True(t, ok)
	assert.Equal(t, apperr.KindUpstream, appErr.Kind)
	assert.Equal(t, http.StatusUnauthorized, appErr.Status)
	assert.Contains(t, appErr.Message, "bad key")
	assert.Equal(t, int32(1), calls.Load())
}

func TestSlidesHandler(t *testing.T) {
	pass := func(c *gin.Context) { c.Next() }

	r := gin.New()
	NewHandler(NewService(fixed(validSlides), 512)).RegisterRoutes(r.Group("/api/v1"), pass)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/slides/ai-all-in-one", bytes.NewBufferString(`{"prompt":"tacos"}`))
	req.Header.Set("Content-Type", "application/json")
	r.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)
	var slides []GeneratedSlide
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &slides))
	assert.Len(t, slides, 2)

	r = gin.New()
	NewHandler(NewService(fixed("nope"), 512)).RegisterRoutes(r.Group("/api/v1"), pass)
	w = httptest.NewRecorder()
	req = httptest.NewRequest(http.MethodPost, "/api/v1/slides/ai-all-in-one", bytes.NewBufferString(`{"prompt":"tacos"}`))
	req.Header.Set("Content-Type", "application/json")
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusBadGateway, w.Code)
	assert.Contains(t, w.Body.String(), `"raw":"nope"`)

	w = httptest.NewRecorder()
	req = httptest.NewRequest(http.MethodPost, "/api/v1/slides/ai-all-in-one", bytes.NewBufferString(`{}`))
	req.Header.Set("Content-Type", "application/json")
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}
