package ai

import (
	"context"
	"fmt"
	"net/http"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/tablecast/signage/internal/models"
	"github.com/tablecast/signage/internal/pkg/apperr"
	"github.com/tablecast/signage/internal/pkg/slideimage"
)

const (
	MaxFacts     = 10
	defaultFacts = 5
)

var hexColor = regexp.MustCompile(`^#[0-9a-fA-F]{6}$`)

type Service struct {
	completer Completer
	maxTokens int
	now       func() time.Time
}

// NewService returns a Service. A nil completer makes every operation fail
// with a 500 upstream error so the rest of the API still starts.
func NewService(completer Completer, maxTokens int) *Service {
	return &Service{completer: completer, maxTokens: maxTokens, now: time.Now}
}

func (s *Service) complete(ctx context.Context, system, prompt string) (string, error) {
	if s.completer == nil {
		return "", apperr.Upstream(http.StatusInternalServerError, ErrNotConfigured.Error(), nil)
	}
	return s.completer.Complete(ctx, CompletionRequest{System: system, Prompt: prompt, MaxTokens: s.maxTokens})
}

// GenerateSlides asks the model for a whole slideshow. Either every slide is
// complete or the call fails with a parse error carrying the raw text.
func (s *Service) GenerateSlides(ctx context.Context, prompt string) ([]GeneratedSlide, error) {
	if strings.TrimSpace(prompt) == "" {
		return nil, apperr.Validation("prompt is required")
	}
	system, user := buildSlidesPrompt(prompt)
	raw, err := s.complete(ctx, system, user)
	if err != nil {
		return nil, err
	}

	var slides []GeneratedSlide
	if err := decodeJSON(raw, '[', ']', &slides); err != nil {
		return nil, err
	}
	if len(slides) == 0 {
		return nil, apperr.Parse("model returned no slides", raw, nil)
	}
	for i, sl := range slides {
		if missing := missingSlideField(sl); missing != "" {
			return nil, apperr.Parse(fmt.Sprintf("slide %d has no %s", i, missing), raw, nil)
		}
		if !models.SlideType(sl.Type).Valid() {
			return nil, apperr.Parse(fmt.Sprintf("slide %d has unknown type %q", i, sl.Type), raw, nil)
		}
	}
	return slides, nil
}

func missingSlideField(sl GeneratedSlide) string {
	switch {
	case strings.TrimSpace(sl.ID) == "":
		return "id"
	case strings.TrimSpace(sl.Type) == "":
		return "type"
	case strings.TrimSpace(sl.Title) == "":
		return "title"
	case strings.TrimSpace(sl.Emoji) == "":
		return "emoji"
	case strings.TrimSpace(sl.Gradient) == "":
		return "gradient"
	}
	return ""
}

// GenerateFacts returns up to req.Count facts about req.Topic.
func (s *Service) GenerateFacts(ctx context.Context, req FactsRequest) ([]Fact, error) {
	req.Topic = strings.TrimSpace(req.Topic)
	if req.Topic == "" {
		return nil, apperr.Validation("topic is required")
	}
	if req.Count == 0 {
		req.Count = defaultFacts
	}
	if req.Count < 1 || req.Count > MaxFacts {
		return nil, apperr.Validation("count must be between 1 and %d", MaxFacts)
	}

	system, user := buildFactsPrompt(req)
	raw, err := s.complete(ctx, system, user)
	if err != nil {
		return nil, err
	}
	var drafts []factDraft
	if err := decodeJSON(raw, '[', ']', &drafts); err != nil {
		return nil, err
	}

	now := s.now().UTC()
	facts := make([]Fact, 0, req.Count)
	for _, d := range drafts {
		text := strings.TrimSpace(d.Text)
		if text == "" {
			continue
		}
		color := d.BackgroundColor
		if !hexColor.MatchString(color) {
			color = slideimage.DefaultBackground
		}
		facts = append(facts, Fact{
			ID:              uuid.NewString(),
			Text:            text,
			Category:        strings.TrimSpace(d.Category),
			BackgroundColor: color,
			Emoji:           strings.TrimSpace(d.Emoji),
			Timestamp:       now,
			SourcePrompt:    req.Topic,
		})
		if len(facts) == req.Count {
			break
		}
	}
	if len(facts) == 0 {
		return nil, apperr.Parse("model returned no usable facts", raw, nil)
	}
	return facts, nil
}

// GenerateDescription writes listing copy for a restaurant.
func (s *Service) GenerateDescription(ctx context.Context, req DescriptionRequest) (string, error) {
	if strings.TrimSpace(req.Name) == "" {
		return "", apperr.Validation("name is required")
	}
	system, user := buildDescriptionPrompt(req)
	raw, err := s.complete(ctx, system, user)
	if err != nil {
		return "", err
	}
	var out descriptionDraft
	if err := decodeJSON(raw, '{', '}', &out); err != nil {
		return "", err
	}
	desc := strings.TrimSpace(out.Description)
	if desc == "" {
		return "", apperr.Parse("model returned an empty description", raw, nil)
	}
	return desc, nil
}
