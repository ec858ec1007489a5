package ai

import (
	"context"
	"encoding/json"
	"time"
)

// CompletionRequest is one system+user exchange with a text model.
type CompletionRequest struct {
	System    string
	Prompt    string
	MaxTokens int
}

// Completer returns the raw text a model produced for req.
type Completer interface {
	Complete(ctx context.Context, req CompletionRequest) (string, error)
}

// CompleterFunc adapts a function to Completer.
type CompleterFunc func(ctx context.Context, req CompletionRequest) (string, error)

func (f CompleterFunc) Complete(ctx context.Context, req CompletionRequest) (string, error) {
	return f(ctx, req)
}

// GeneratedSlide is one element of an AI-composed slideshow.
type GeneratedSlide struct {
	ID         string          `json:"id" jsonschema:"required,description=short unique slug"`
	Type       string          `json:"type" jsonschema:"required,enum=image,enum=menu,enum=promo,enum=quote,enum=hours,enum=custom,enum=text"`
	Title      string          `json:"title" jsonschema:"required"`
	Emoji      string          `json:"emoji" jsonschema:"required,description=a single emoji"`
	Gradient   string          `json:"gradient" jsonschema:"required,description=CSS linear-gradient value"`
	Subtitle   string          `json:"subtitle,omitempty"`
	Content    json.RawMessage `json:"content,omitempty"`
	DurationMS int             `json:"durationMs,omitempty" jsonschema:"minimum=1000,maximum=600000"`
}

// Fact is ephemeral AI output that can be turned into a slide.
type Fact struct {
	ID              string    `json:"id"`
	Text            string    `json:"text"`
	Category        string    `json:"category"`
	BackgroundColor string    `json:"background_color"`
	Emoji           string    `json:"emoji,omitempty"`
	Timestamp       time.Time `json:"timestamp"`
	SourcePrompt    string    `json:"source_prompt"`
}

// factDraft is the shape the model is asked to produce for each fact.
type factDraft struct {
	Text            string `json:"text" jsonschema:"required,maxLength=280"`
	Category        string `json:"category" jsonschema:"required"`
	BackgroundColor string `json:"background_color" jsonschema:"required,pattern=^#[0-9a-fA-F]{6}$"`
	Emoji           string `json:"emoji,omitempty"`
}

type descriptionDraft struct {
	Description string `json:"description" jsonschema:"required"`
}

type FactsRequest struct {
	Topic          string `json:"topic" binding:"required,max=200"`
	Count          int    `json:"count"`
	RestaurantName string `json:"restaurantName"`
}

type DescriptionRequest struct {
	Name       string   `json:"name" binding:"required,max=120"`
	Cuisine    string   `json:"cuisine"`
	Highlights []string `json:"highlights"`
	Tone       string   `json:"tone"`
}

type slidesRequest struct {
	Prompt string `json:"prompt" binding:"required,max=4000"`
}

type descriptionResponse struct {
	Description string `json:"description"`
}
