package slide

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"strings"
	"unicode/utf8"

	"github.com/tablecast/signage/internal/models"
	"github.com/tablecast/signage/internal/modules/business"
	"github.com/tablecast/signage/internal/modules/storage/media"
	"github.com/tablecast/signage/internal/pkg/apperr"
	"github.com/tablecast/signage/internal/pkg/pagination"
	"github.com/tablecast/signage/internal/pkg/response"
	"github.com/tablecast/signage/internal/pkg/slideimage"
	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type Service struct {
	db         *gorm.DB
	businesses *business.Service
	media      *media.Pipeline
	renderer   *slideimage.Renderer
	logger     *zap.Logger
}

func NewService(db *gorm.DB, businesses *business.Service, pipeline *media.Pipeline, renderer *slideimage.Renderer, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{db: db, businesses: businesses, media: pipeline, renderer: renderer, logger: logger.Named("slide")}
}

// List pages slides ordered for display. An empty RestaurantID lists the
// global templates.
func (s *Service) List(ctx context.Context, actor business.Actor, lq ListQuery, q pagination.Query) ([]models.SlideModel, response.Pagination, error) {
	scope := s.db.WithContext(ctx).Model(&models.SlideModel{})
	if lq.RestaurantID == "" {
		scope = scope.Where("restaurant_id IS NULL")
	} else {
		if _, err := s.businesses.Authorize(ctx, actor, lq.RestaurantID); err != nil {
			return nil, response.Pagination{}, err
		}
		if lq.IncludeTemplates {
			scope = scope.Where("restaurant_id = ? OR restaurant_id IS NULL", lq.RestaurantID)
		} else {
			scope = scope.Where("restaurant_id = ?", lq.RestaurantID)
		}
	}
	if !lq.IncludeInactive {
		scope = scope.Where("is_active = ?", true)
	}
	scope = scope.Order("order_index ASC").Order("created_at ASC")

	items := []models.SlideModel{}
	page, err := pagination.Paginate(scope, q, &items)
	if err != nil {
		return nil, response.Pagination{}, apperr.Database("list slides", err)
	}
	return items, page, nil
}

// Get returns a slide the actor may read. Templates are readable by everyone.
func (s *Service) Get(ctx context.Context, actor business.Actor, id string) (*models.SlideModel, error) {
	sl, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if sl.IsTemplate() {
		return sl, nil
	}
	if _, err := s.businesses.Authorize(ctx, actor, *sl.RestaurantID); err != nil {
		return nil, err
	}
	return sl, nil
}

func (s *Service) Create(ctx context.Context, actor business.Actor, dto *CreateDTO) (*models.SlideModel, error) {
	if err := s.authorizeScope(ctx, actor, dto.RestaurantID); err != nil {
		return nil, err
	}
	content, err := ParseContent(dto.Type, dto.Content)
	if err != nil {
		return nil, err
	}
	return s.insert(ctx, actor, dto.RestaurantID, strings.TrimSpace(dto.Title), content, dto.Styling, dto.DurationMS, dto.IsPublished)
}

func (s *Service) insert(ctx context.Context, actor business.Actor, restaurantID *string, title string, content Content, styling json.RawMessage, durationMS int, published bool) (*models.SlideModel, error) {
	if title == "" {
		return nil, apperr.Validation("title is required")
	}
	encoded, err := MarshalContent(content)
	if err != nil {
		return nil, apperr.Validation("encode content: %s", err.Error())
	}
	style, err := normalizeStyling(styling)
	if err != nil {
		return nil, err
	}
	duration, err := normalizeDuration(durationMS)
	if err != nil {
		return nil, err
	}

	sl := &models.SlideModel{
		RestaurantID: restaurantID,
		Type:         content.SlideType(),
		Title:        title,
		Content:      datatypes.JSON(encoded),
		Styling:      style,
		DurationMS:   duration,
		IsActive:     true,
		IsPublished:  published,
		CreatedBy:    actor.UserID,
	}
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		next, err := nextOrderIndex(tx, restaurantID)
		if err != nil {
			return err
		}
		sl.OrderIndex = next
		return tx.Create(sl).Error
	})
	if err != nil {
		return nil, apperr.Database("create slide", err)
	}
	return sl, nil
}

// Update applies dto through the owner path: a locked slide is rejected with
// KindForbidden and left untouched. With override (admin path) the lock is
// ignored.
func (s *Service) Update(ctx context.Context, actor business.Actor, id string, dto *UpdateDTO, override bool) (*models.SlideModel, error) {
	if override && !actor.IsAdmin() {
		return nil, apperr.Forbidden("admin privileges required")
	}
	sl, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if !override {
		if err := s.authorizeScope(ctx, actor, sl.RestaurantID); err != nil {
			return nil, err
		}
		if sl.IsLocked {
			return nil, apperr.Forbidden("slide is locked")
		}
	}

	updates := map[string]interface{}{}
	slideType := sl.Type
	if dto.Type != nil && *dto.Type != sl.Type {
		if len(bytes.TrimSpace(dto.Content)) == 0 {
			return nil, apperr.Validation("changing type requires content")
		}
		slideType = *dto.Type
		updates["type"] = string(slideType)
	}
	if len(bytes.TrimSpace(dto.Content)) > 0 {
		content, err := ParseContent(slideType, dto.Content)
		if err != nil {
			return nil, err
		}
		encoded, err := MarshalContent(content)
		if err != nil {
			return nil, apperr.Validation("encode content: %s", err.Error())
		}
		updates["content"] = datatypes.JSON(encoded)
	}
	if dto.Title != nil {
		title := strings.TrimSpace(*dto.Title)
		if title == "" {
			return nil, apperr.Validation("title must not be empty")
		}
		updates["title"] = title
	}
	if dto.Styling != nil {
		style, err := normalizeStyling(dto.Styling)
		if err != nil {
			return nil, err
		}
		updates["styling"] = style
	}
	if dto.DurationMS != nil {
		d, err := normalizeDuration(*dto.DurationMS)
		if err != nil {
			return nil, err
		}
		updates["duration_ms"] = d
	}
	if dto.OrderIndex != nil {
		updates["order_index"] = *dto.OrderIndex
	}
	if dto.IsPublished != nil {
		updates["is_published"] = *dto.IsPublished
	}
	if dto.IsActive != nil {
		updates["is_active"] = *dto.IsActive
	}
	if len(updates) == 0 {
		return sl, nil
	}
	if err := s.db.WithContext(ctx).Model(sl).Updates(updates).Error; err != nil {
		return nil, apperr.Database("update slide", err)
	}
	return s.load(ctx, id)
}

// SetLocked toggles the owner edit gate. Admin only.
func (s *Service) SetLocked(ctx context.Context, actor business.Actor, id string, locked bool) (*models.SlideModel, error) {
	if !actor.IsAdmin() {
		return nil, apperr.Forbidden("admin privileges required")
	}
	sl, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.db.WithContext(ctx).Model(sl).Update("is_locked", locked).Error; err != nil {
		return nil, apperr.Database("lock slide", err)
	}
	sl.IsLocked = locked
	return sl, nil
}

// Delete deactivates the slide. Locked slides can only be removed by admins.
func (s *Service) Delete(ctx context.Context, actor business.Actor, id string) error {
	sl, err := s.load(ctx, id)
	if err != nil {
		return err
	}
	if err := s.authorizeScope(ctx, actor, sl.RestaurantID); err != nil {
		return err
	}
	if sl.IsLocked && !actor.IsAdmin() {
		return apperr.Forbidden("slide is locked")
	}
	if err := s.db.WithContext(ctx).Model(sl).Update("is_active", false).Error; err != nil {
		return apperr.Database("delete slide", err)
	}
	return nil
}

// Reorder sets order_index to each id's position in ids.
func (s *Service) Reorder(ctx context.Context, actor business.Actor, restaurantID string, ids []string) error {
	if _, err := s.businesses.Authorize(ctx, actor, restaurantID); err != nil {
		return err
	}
	seen := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		if _, dup := seen[id]; dup {
			return apperr.Validation("duplicate slide id %s", id)
		}
		seen[id] = struct{}{}
	}

	var owned int64
	if err := s.db.WithContext(ctx).Model(&models.SlideModel{}).
		Where("id IN ? AND restaurant_id = ?", ids, restaurantID).
		Count(&owned).Error; err != nil {
		return apperr.Database("check slides", err)
	}
	if int(owned) != len(ids) {
		return apperr.Validation("every slide must belong to restaurant %s", restaurantID)
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for i, id := range ids {
			if err := tx.Model(&models.SlideModel{}).Where("id = ?", id).Update("order_index", i).Error; err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return apperr.Database("reorder slides", err)
	}
	return nil
}

// CreateFromFact materializes a fact as a text slide, or as an image slide
// backed by a rendered card when AsImage is set.
func (s *Service) CreateFromFact(ctx context.Context, actor business.Actor, req *FactSlideRequest) (*models.SlideModel, error) {
	if _, err := s.businesses.Authorize(ctx, actor, req.RestaurantID); err != nil {
		return nil, err
	}
	text := strings.TrimSpace(req.Text)
	title := factTitle(req.Category, text)
	restaurantID := req.RestaurantID

	if !req.AsImage {
		content := &TextContent{Text: text, Category: req.Category, BackgroundColor: req.BackgroundColor, Emoji: req.Emoji}
		if err := ValidateContent(content); err != nil {
			return nil, err
		}
		return s.insert(ctx, actor, &restaurantID, title, content, nil, 0, false)
	}

	if s.renderer == nil || s.media == nil {
		return nil, apperr.Storage("image rendering is not configured", nil)
	}
	png, err := s.renderer.RenderPNG(slideimage.Card{
		Text:       text,
		Category:   req.Category,
		Emoji:      req.Emoji,
		Background: req.BackgroundColor,
	})
	if err != nil {
		return nil, apperr.Storage("render fact card", err)
	}
	uploaded, err := s.media.Store(ctx, media.Blob{
		Body:        png,
		FileName:    "fact-card.png",
		ContentType: "image/png",
		BusinessID:  restaurantID,
		UploaderID:  actor.UserID,
	})
	if err != nil {
		return nil, err
	}
	content := &ImageContent{MediaPath: uploaded.FilePath, Caption: truncate(text, 280), Fit: "cover"}
	return s.insert(ctx, actor, &restaurantID, title, content, nil, 0, false)
}

// PreviewSVG renders a text slide as an SVG card.
func (s *Service) PreviewSVG(ctx context.Context, actor business.Actor, id string) (string, error) {
	sl, err := s.Get(ctx, actor, id)
	if err != nil {
		return "", err
	}
	if sl.Type != models.SlideText {
		return "", apperr.Validation("preview is only available for text slides")
	}
	var tc TextContent
	if err := json.Unmarshal(sl.Content, &tc); err != nil {
		return "", apperr.Database("decode slide content", err)
	}
	return slideimage.RenderSVG(slideimage.Card{
		Text:       tc.Text,
		Category:   tc.Category,
		Emoji:      tc.Emoji,
		Background: tc.BackgroundColor,
	}), nil
}

func (s *Service) load(ctx context.Context, id string) (*models.SlideModel, error) {
	var sl models.SlideModel
	if err := s.db.WithContext(ctx).First(&sl, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.NotFound("slide %s not found", id)
		}
		return nil, apperr.Database("load slide", err)
	}
	return &sl, nil
}

// authorizeScope checks write access: templates are admin-only, restaurant
// slides follow business ownership.
func (s *Service) authorizeScope(ctx context.Context, actor business.Actor, restaurantID *string) error {
	if restaurantID == nil {
		if !actor.IsAdmin() {
			return apperr.Forbidden("only admins can manage templates")
		}
		return nil
	}
	_, err := s.businesses.Authorize(ctx, actor, *restaurantID)
	return err
}

func nextOrderIndex(tx *gorm.DB, restaurantID *string) (int, error) {
	var max sql.NullInt64
	q := tx.Model(&models.SlideModel{}).Select("MAX(order_index)")
	if restaurantID == nil {
		q = q.Where("restaurant_id IS NULL")
	} else {
		q = q.Where("restaurant_id = ?", *restaurantID)
	}
	if err := q.Row().Scan(&max); err != nil {
		return 0, err
	}
	if !max.Valid {
		return 0, nil
	}
	return int(max.Int64) + 1, nil
}

func normalizeStyling(raw json.RawMessage) (datatypes.JSON, error) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return datatypes.JSON("{}"), nil
	}
	var obj map[string]any
	if err := json.Unmarshal(trimmed, &obj); err != nil {
		return nil, apperr.Validation("styling must be a JSON object")
	}
	return datatypes.JSON(trimmed), nil
}

func normalizeDuration(ms int) (int, error) {
	if ms == 0 {
		return DefaultDurationMS, nil
	}
	if ms < minDurationMS || ms > maxDurationMS {
		return 0, apperr.Validation("duration_ms must be between %d and %d", minDurationMS, maxDurationMS)
	}
	return ms, nil
}

func factTitle(category, text string) string {
	if c := strings.TrimSpace(category); c != "" {
		return truncate(c, 200)
	}
	return truncate(text, 60)
}

func truncate(s string, max int) string {
	if utf8.RuneCountInString(s) <= max {
		return s
	}
	r := []rune(s)
	return strings.TrimSpace(string(r[:max-1])) + "…"
}
