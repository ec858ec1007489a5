package ai

import (
	"context"
	"errors"
	"fmt"
	neturl "net/url"
	"strings"
	"time"

	anthropicclient "github.com/anthropics/anthropic-sdk-go"
	anthropicoption "github.com/anthropics/anthropic-sdk-go/option"
	"github.com/go-resty/resty/v2"
	openaiclient "github.com/openai/openai-go/v2"
	openaioption "github.com/openai/openai-go/v2/option"
	"github.com/tablecast/signage/internal/config"
	"github.com/tablecast/signage/internal/pkg/apperr"
	"github.com/tablecast/signage/internal/pkg/metrics"
	"github.com/tablecast/signage/internal/pkg/resilience"
	jetai "go.jetify.com/ai"
	jetapi "go.jetify.com/ai/api"
	jetanthropic "go.jetify.com/ai/provider/anthropic"
	jetopenai "go.jetify.com/ai/provider/openai"
	"go.uber.org/zap"
)

const (
	defaultAnthropicModel = "claude-haiku-4-5-20251001"
	defaultOpenAIModel    = "gpt-4o-mini"
)

// ErrNotConfigured is returned by NewCompleter when no API key is set.
var ErrNotConfigured = errors.New("ai provider is not configured")

// NewCompleter builds the provider selected in cfg and wraps it with policy.
// SDK-level retries are disabled; policy owns retrying.
func NewCompleter(cfg config.AIConfig, policy *resilience.Policy, logger *zap.Logger) (Completer, error) {
	if strings.TrimSpace(cfg.APIKey) == "" {
		return nil, ErrNotConfigured
	}
	var (
		next Completer
		err  error
	)
	switch normalizeProviderType(cfg.Provider) {
	case config.AIAnthropic:
		next, err = newJetify(cfg, config.AIAnthropic)
	case config.AIOpenAI:
		next, err = newJetify(cfg, config.AIOpenAI)
	case config.AIOpenAICompatible:
		next = newCompatible(cfg)
	default:
		return nil, fmt.Errorf("unsupported ai provider %q", cfg.Provider)
	}
	if err != nil {
		return nil, err
	}
	return WithResilience(next, normalizeProviderType(cfg.Provider), policy, cfg.Timeout, logger), nil
}

func normalizeProviderType(raw string) string {
	t := strings.ToLower(strings.TrimSpace(raw))
	t = strings.ReplaceAll(t, "_", "-")
	if t == "openaicompatible" {
		return config.AIOpenAICompatible
	}
	return t
}

// jetifyCompleter drives the anthropic and openai SDKs through go.jetify.com/ai.
type jetifyCompleter struct {
	model    jetapi.LanguageModel
	provider string
}

func newJetify(cfg config.AIConfig, provider string) (*jetifyCompleter, error) {
	apiKey := strings.TrimSpace(cfg.APIKey)
	modelID := strings.TrimSpace(cfg.Model)
	endpoint := strings.TrimSpace(cfg.Endpoint)

	if provider == config.AIAnthropic {
		if modelID == "" {
			modelID = defaultAnthropicModel
		}
		opts := []anthropicoption.RequestOption{
			anthropicoption.WithAPIKey(apiKey),
			anthropicoption.WithMaxRetries(0),
		}
		if endpoint != "" {
			opts = append(opts, anthropicoption.WithBaseURL(strings.TrimRight(endpoint, "/")))
		}
		client := anthropicclient.NewClient(opts...)
		return &jetifyCompleter{
			model:    jetanthropic.NewLanguageModel(modelID, jetanthropic.WithClient(client)),
			provider: provider,
		}, nil
	}

	if modelID == "" {
		modelID = defaultOpenAIModel
	}
	opts := []openaioption.RequestOption{
		openaioption.WithAPIKey(apiKey),
		openaioption.WithMaxRetries(0),
	}
	if base := normalizeOpenAIBaseURL(endpoint); base != "" {
		opts = append(opts, openaioption.WithBaseURL(base))
	}
	client := openaiclient.NewClient(opts...)
	return &jetifyCompleter{
		model:    jetopenai.NewLanguageModel(modelID, jetopenai.WithClient(client)),
		provider: provider,
	}, nil
}

func (j *jetifyCompleter) Complete(ctx context.Context, req CompletionRequest) (string, error) {
	resp, err := jetai.GenerateText(ctx,
		promptMessages(req.System, req.Prompt),
		jetai.WithModel(j.model),
		jetai.WithMaxOutputTokens(req.MaxTokens),
	)
	if err != nil {
		return "", classifySDKError(j.provider, err)
	}
	return textFromResponse(resp)
}

func promptMessages(system, prompt string) []jetapi.Message {
	messages := make([]jetapi.Message, 0, 2)
	if strings.TrimSpace(system) != "" {
		messages = append(messages, &jetapi.SystemMessage{Content: system})
	}
	return append(messages, &jetapi.UserMessage{Content: jetapi.ContentFromText(prompt)})
}

func textFromResponse(resp *jetapi.Response) (string, error) {
	if resp == nil {
		return "", apperr.Upstream(0, "empty response from ai provider", nil)
	}
	var full strings.Builder
	for _, block := range resp.Content {
		if text, ok := block.(*jetapi.TextBlock); ok {
			full.WriteString(text.Text)
		}
	}
	if strings.TrimSpace(full.String()) == "" {
		return "", apperr.Upstream(0, "empty response from ai provider", nil)
	}
	return full.String(), nil
}

// classifySDKError keeps the upstream HTTP status when the SDK exposes one.
func classifySDKError(provider string, err error) error {
	var anthropicErr *anthropicclient.Error
	if errors.As(err, &anthropicErr) {
		return apperr.Upstream(anthropicErr.StatusCode, provider+" request failed", err)
	}
	var openaiErr *openaiclient.Error
	if errors.As(err, &openaiErr) {
		return apperr.Upstream(openaiErr.StatusCode, provider+" request failed", err)
	}
	return apperr.Upstream(0, provider+" request failed", err)
}

// compatibleCompleter speaks the chat completions protocol to any
// OpenAI-compatible endpoint.
type compatibleCompleter struct {
	http  *resty.Client
	model string
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model     string        `json:"model"`
	Messages  []chatMessage `json:"messages"`
	MaxTokens int           `json:"max_tokens,omitempty"`
}

type chatResponse struct {
	Choices []struct {
		Message chatMessage `json:"message"`
	} `json:"choices"`
}

type chatError struct {
	Error struct {
		Message string `json:"message"`
	} `json:"error"`
	Message string `json:"message"`
}

func (e *chatError) text() string {
	if e == nil {
		return ""
	}
	if e.Error.Message != "" {
		return e.Error.Message
	}
	return e.Message
}

func newCompatible(cfg config.AIConfig) *compatibleCompleter {
	model := strings.TrimSpace(cfg.Model)
	if model == "" {
		model = defaultOpenAIModel
	}
	rc := resty.New().
		SetBaseURL(normalizeCompatibleEndpoint(cfg.Endpoint)).
		SetAuthToken(strings.TrimSpace(cfg.APIKey)).
		SetHeader("Content-Type", "application/json")
	return &compatibleCompleter{http: rc, model: model}
}

func (c *compatibleCompleter) Complete(ctx context.Context, req CompletionRequest) (string, error) {
	messages := make([]chatMessage, 0, 2)
	if strings.TrimSpace(req.System) != "" {
		messages = append(messages, chatMessage{Role: "system", Content: req.System})
	}
	messages = append(messages, chatMessage{Role: "user", Content: req.Prompt})

	var (
		out     chatResponse
		failure chatError
	)
	resp, err := c.http.R().
		SetContext(ctx).
		SetBody(chatRequest{Model: c.model, Messages: messages, MaxTokens: req.MaxTokens}).
		SetResult(&out).
		SetError(&failure).
		Post("/v1/chat/completions")
	if err != nil {
		return "", apperr.Upstream(0, "openai-compatible request failed", err)
	}
	if resp.IsError() {
		msg := failure.text()
		if msg == "" {
			msg = strings.TrimSpace(resp.String())
		}
		return "", apperr.Upstream(resp.StatusCode(), "openai-compatible error: "+msg, nil)
	}
	if len(out.Choices) == 0 || strings.TrimSpace(out.Choices[0].Message.Content) == "" {
		return "", apperr.Upstream(0, "empty response from ai provider", nil)
	}
	return out.Choices[0].Message.Content, nil
}

func normalizeOpenAIBaseURL(raw string) string {
	base := strings.TrimSpace(raw)
	if base == "" {
		return ""
	}
	parsed, err := neturl.Parse(base)
	if err != nil || parsed.Scheme == "" || parsed.Host == "" {
		return strings.TrimRight(base, "/")
	}
	path := strings.TrimRight(parsed.Path, "/")
	if !strings.HasSuffix(path, "/v1") {
		path += "/v1"
	}
	parsed.Path = path
	return strings.TrimRight(parsed.String(), "/")
}

func normalizeCompatibleEndpoint(raw string) string {
	base := strings.TrimRight(strings.TrimSpace(raw), "/")
	if base == "" {
		return "https://api.openai.com"
	}
	return strings.TrimSuffix(base, "/v1")
}

// Resilient runs a Completer under a retry/breaker policy with a per-call
// timeout and records the outcome.
type Resilient struct {
	next     Completer
	provider string
	policy   *resilience.Policy
	timeout  time.Duration
	logger   *zap.Logger
}

func WithResilience(next Completer, provider string, policy *resilience.Policy, timeout time.Duration, logger *zap.Logger) *Resilient {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Resilient{next: next, provider: provider, policy: policy, timeout: timeout, logger: logger.Named("ai")}
}

func (r *Resilient) Complete(ctx context.Context, req CompletionRequest) (string, error) {
	var text string
	call := func(ctx context.Context) error {
		if r.timeout > 0 {
			var cancel context.CancelFunc
			ctx, cancel = context.WithTimeout(ctx, r.timeout)
			defer cancel()
		}
		out, err := r.next.Complete(ctx, req)
		if err != nil {
			return err
		}
		text = out
		return nil
	}

	var err error
	if r.policy != nil {
		err = r.policy.Do(ctx, call)
	} else {
		err = call(ctx)
	}
	if err != nil {
		metrics.RecordAICall(r.provider, "error")
		r.logger.Warn("completion failed", zap.String("provider", r.provider), zap.Error(err))
		return "", err
	}
	metrics.RecordAICall(r.provider, "ok")
	return text, nil
}
