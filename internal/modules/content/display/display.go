// Package display serves the unauthenticated feed that screens poll.
package display

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/gin-gonic/gin"
	"github.com/tablecast/signage/internal/models"
	"github.com/tablecast/signage/internal/modules/content/slideshow"
	"github.com/tablecast/signage/internal/modules/processing/markdown"
	"github.com/tablecast/signage/internal/pkg/apperr"
	"github.com/tablecast/signage/internal/pkg/response"
	"gorm.io/gorm"
)

// Slide is the screen-facing projection of a slide. Custom slides carry the
// rendered HTML next to their markdown.
type Slide struct {
	ID         string           `json:"id"`
	Type       models.SlideType `json:"type"`
	Title      string           `json:"title"`
	Content    json.RawMessage  `json:"content"`
	Styling    json.RawMessage  `json:"styling"`
	DurationMS int              `json:"duration_ms"`
	OrderIndex int              `json:"order_index"`
	Template   bool             `json:"template"`
	HTML       string           `json:"html,omitempty"`
}

type Show struct {
	ID         string  `json:"id"`
	Name       string  `json:"name"`
	Loop       bool    `json:"loop"`
	Transition string  `json:"transition"`
	Slides     []Slide `json:"slides"`
}

type Service struct {
	db *gorm.DB
}

func NewService(db *gorm.DB) *Service { return &Service{db: db} }

// Slides returns the restaurant's active slides plus active templates,
// ordered by order_index.
func (s *Service) Slides(ctx context.Context, restaurantID string) ([]Slide, error) {
	if err := s.requireRestaurant(ctx, restaurantID); err != nil {
		return nil, err
	}
	var rows []models.SlideModel
	err := s.db.WithContext(ctx).
		Where("is_active = ? AND (restaurant_id = ? OR restaurant_id IS NULL)", true, restaurantID).
		Order("order_index ASC").Order("created_at ASC").
		Find(&rows).Error
	if err != nil {
		return nil, apperr.Database("load display slides", err)
	}
	return project(rows), nil
}

// Slideshow returns one active slideshow of the restaurant with its active
// slides in position order.
func (s *Service) Slideshow(ctx context.Context, restaurantID, id string) (*Show, error) {
	var show models.SlideshowModel
	err := s.db.WithContext(ctx).
		Where("id = ? AND restaurant_id = ? AND is_active = ?", id, restaurantID, true).
		First(&show).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.NotFound("slideshow %s not found", id)
		}
		return nil, apperr.Database("load slideshow", err)
	}
	rows, err := slideshow.Slides(s.db.WithContext(ctx), show.ID, true)
	if err != nil {
		return nil, err
	}
	return &Show{
		ID:         show.ID,
		Name:       show.Name,
		Loop:       show.Loop,
		Transition: show.Transition,
		Slides:     project(rows),
	}, nil
}

func (s *Service) requireRestaurant(ctx context.Context, id string) error {
	var n int64
	if err := s.db.WithContext(ctx).Model(&models.BusinessModel{}).Where("id = ?", id).Count(&n).Error; err != nil {
		return apperr.Database("load restaurant", err)
	}
	if n == 0 {
		return apperr.NotFound("restaurant %s not found", id)
	}
	return nil
}

func project(rows []models.SlideModel) []Slide {
	out := make([]Slide, 0, len(rows))
	for _, r := range rows {
		item := Slide{
			ID:         r.ID,
			Type:       r.Type,
			Title:      r.Title,
			Content:    rawOrEmpty(r.Content),
			Styling:    rawOrEmpty(r.Styling),
			DurationMS: r.DurationMS,
			OrderIndex: r.OrderIndex,
			Template:   r.IsTemplate(),
		}
		if r.Type == models.SlideCustom {
			var body struct {
				Markdown string `json:"markdown"`
			}
			if json.Unmarshal(r.Content, &body) == nil {
				item.HTML = markdown.Render(body.Markdown)
			}
		}
		out = append(out, item)
	}
	return out
}

func rawOrEmpty(b []byte) json.RawMessage {
	if len(b) == 0 {
		return json.RawMessage("{}")
	}
	return json.RawMessage(b)
}

type Handler struct{ svc *Service }

func NewHandler(svc *Service) *Handler { return &Handler{svc: svc} }

// RegisterRoutes mounts the public display feed; no auth middleware.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	g := rg.Group("/display/:restaurantId")
	g.GET("/slides", h.slides)
	g.GET("/slideshows/:id", h.slideshow)
}

func (h *Handler) slides(c *gin.Context) {
	items, err := h.svc.Slides(c.Request.Context(), c.Param("restaurantId"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, items)
}

func (h *Handler) slideshow(c *gin.Context) {
	show, err := h.svc.Slideshow(c.Request.Context(), c.Param("restaurantId"), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, show)
}
