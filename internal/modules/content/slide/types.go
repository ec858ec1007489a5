package slide

import (
	"encoding/json"

	"github.com/tablecast/signage/internal/models"
)

const (
	DefaultDurationMS = 8000
	minDurationMS     = 1000
	maxDurationMS     = 10 * 60 * 1000
)

type CreateDTO struct {
	RestaurantID *string          `json:"restaurant_id"`
	Type         models.SlideType `json:"type"         binding:"required"`
	Title        string           `json:"title"        binding:"required,max=200"`
	Content      json.RawMessage  `json:"content"      binding:"required"`
	Styling      json.RawMessage  `json:"styling"`
	DurationMS   int              `json:"duration_ms"`
	IsPublished  bool             `json:"is_published"`
}

// UpdateDTO is a partial update; nil fields are left alone. Changing Type
// requires new Content.
type UpdateDTO struct {
	Type        *models.SlideType `json:"type"`
	Title       *string           `json:"title"`
	Content     json.RawMessage   `json:"content"`
	Styling     json.RawMessage   `json:"styling"`
	DurationMS  *int              `json:"duration_ms"`
	OrderIndex  *int              `json:"order_index"`
	IsPublished *bool             `json:"is_published"`
	IsActive    *bool             `json:"is_active"`
}

type LockDTO struct {
	Locked *bool `json:"locked" binding:"required"`
}

type ReorderDTO struct {
	RestaurantID string   `json:"restaurant_id" binding:"required"`
	IDs          []string `json:"ids"           binding:"required,min=1"`
}

// FactSlideRequest turns a generated fact into a slide, either as a text slide
// or as a rendered PNG card stored in the media bucket.
type FactSlideRequest struct {
	RestaurantID    string `json:"restaurant_id"    binding:"required"`
	Text            string `json:"text"             binding:"required,max=500"`
	Category        string `json:"category"`
	Emoji           string `json:"emoji"`
	BackgroundColor string `json:"backgroundColor"`
	AsImage         bool   `json:"as_image"`
}

type ListQuery struct {
	RestaurantID     string
	IncludeTemplates bool
	IncludeInactive  bool
}
