package slideshow

import (
	"context"
	"errors"
	"strings"

	"github.com/tablecast/signage/internal/models"
	"github.com/tablecast/signage/internal/modules/business"
	"github.com/tablecast/signage/internal/pkg/apperr"
	"gorm.io/gorm"
)

const defaultTransition = "fade"

type Service struct {
	db         *gorm.DB
	businesses *business.Service
}

func NewService(db *gorm.DB, businesses *business.Service) *Service {
	return &Service{db: db, businesses: businesses}
}

func (s *Service) List(ctx context.Context, actor business.Actor, restaurantID string) ([]models.SlideshowModel, error) {
	if _, err := s.businesses.Authorize(ctx, actor, restaurantID); err != nil {
		return nil, err
	}
	out := []models.SlideshowModel{}
	if err := s.db.WithContext(ctx).Where("restaurant_id = ?", restaurantID).Order("created_at ASC").Find(&out).Error; err != nil {
		return nil, apperr.Database("list slideshows", err)
	}
	return out, nil
}

func (s *Service) Get(ctx context.Context, actor business.Actor, id string) (*Detail, error) {
	show, err := s.authorized(ctx, actor, id)
	if err != nil {
		return nil, err
	}
	slides, err := Slides(s.db.WithContext(ctx), show.ID, false)
	if err != nil {
		return nil, err
	}
	return &Detail{SlideshowModel: *show, Slides: slides}, nil
}

func (s *Service) Create(ctx context.Context, actor business.Actor, dto *CreateDTO) (*models.SlideshowModel, error) {
	if _, err := s.businesses.Authorize(ctx, actor, dto.RestaurantID); err != nil {
		return nil, err
	}
	name := strings.TrimSpace(dto.Name)
	if name == "" {
		return nil, apperr.Validation("name is required")
	}
	loop := true
	if dto.Loop != nil {
		loop = *dto.Loop
	}
	transition := dto.Transition
	if transition == "" {
		transition = defaultTransition
	}
	show := &models.SlideshowModel{
		RestaurantID: dto.RestaurantID,
		Name:         name,
		Description:  dto.Description,
		IsActive:     true,
		IsPublished:  dto.IsPublished,
		Loop:         loop,
		Transition:   transition,
	}
	if err := s.db.WithContext(ctx).Create(show).Error; err != nil {
		return nil, apperr.Database("create slideshow", err)
	}
	return show, nil
}

func (s *Service) Update(ctx context.Context, actor business.Actor, id string, dto *UpdateDTO) (*models.SlideshowModel, error) {
	show, err := s.authorized(ctx, actor, id)
	if err != nil {
		return nil, err
	}
	updates := map[string]interface{}{}
	if dto.Name != nil {
		name := strings.TrimSpace(*dto.Name)
		if name == "" {
			return nil, apperr.Validation("name must not be empty")
		}
		updates["name"] = name
	}
	if dto.Description != nil {
		updates["description"] = *dto.Description
	}
	if dto.IsActive != nil {
		updates["is_active"] = *dto.IsActive
	}
	if dto.IsPublished != nil {
		updates["is_published"] = *dto.IsPublished
	}
	if dto.Loop != nil {
		updates["loop"] = *dto.Loop
	}
	if dto.Transition != nil {
		updates["transition"] = *dto.Transition
	}
	if len(updates) > 0 {
		if err := s.db.WithContext(ctx).Model(show).Updates(updates).Error; err != nil {
			return nil, apperr.Database("update slideshow", err)
		}
	}
	return s.load(ctx, id)
}

func (s *Service) Delete(ctx context.Context, actor business.Actor, id string) error {
	show, err := s.authorized(ctx, actor, id)
	if err != nil {
		return err
	}
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("slideshow_id = ?", show.ID).Delete(&models.SlideshowSlideModel{}).Error; err != nil {
			return err
		}
		return tx.Delete(show).Error
	})
	if err != nil {
		return apperr.Database("delete slideshow", err)
	}
	return nil
}

// SetSlides replaces the membership with ids, in order. Every slide must be
// active and belong to the slideshow's restaurant or be a template.
func (s *Service) SetSlides(ctx context.Context, actor business.Actor, id string, ids []string) (*Detail, error) {
	show, err := s.authorized(ctx, actor, id)
	if err != nil {
		return nil, err
	}
	seen := make(map[string]struct{}, len(ids))
	for _, sid := range ids {
		if _, dup := seen[sid]; dup {
			return nil, apperr.Validation("duplicate slide id %s", sid)
		}
		seen[sid] = struct{}{}
	}
	if len(ids) > 0 {
		var usable int64
		if err := s.db.WithContext(ctx).Model(&models.SlideModel{}).
			Where("id IN ? AND is_active = ? AND (restaurant_id = ? OR restaurant_id IS NULL)", ids, true, show.RestaurantID).
			Count(&usable).Error; err != nil {
			return nil, apperr.Database("check slides", err)
		}
		if int(usable) != len(ids) {
			return nil, apperr.Validation("slides must be active and belong to restaurant %s", show.RestaurantID)
		}
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("slideshow_id = ?", show.ID).Delete(&models.SlideshowSlideModel{}).Error; err != nil {
			return err
		}
		for i, sid := range ids {
			link := models.SlideshowSlideModel{SlideshowID: show.ID, SlideID: sid, Position: i}
			if err := tx.Create(&link).Error; err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, apperr.Database("set slideshow slides", err)
	}
	return s.Get(ctx, actor, id)
}

// Slides returns the slideshow's slides by position. With activeOnly, slides
// that were soft-deleted after being added are skipped.
func Slides(db *gorm.DB, slideshowID string, activeOnly bool) ([]models.SlideModel, error) {
	q := db.Model(&models.SlideModel{}).
		Joins("JOIN slideshow_slides ON slideshow_slides.slide_id = slides.id").
		Where("slideshow_slides.slideshow_id = ?", slideshowID).
		Order("slideshow_slides.position ASC")
	if activeOnly {
		q = q.Where("slides.is_active = ?", true)
	}
	out := []models.SlideModel{}
	if err := q.Find(&out).Error; err != nil {
		return nil, apperr.Database("load slideshow slides", err)
	}
	return out, nil
}

func (s *Service) authorized(ctx context.Context, actor business.Actor, id string) (*models.SlideshowModel, error) {
	show, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if _, err := s.businesses.Authorize(ctx, actor, show.RestaurantID); err != nil {
		return nil, err
	}
	return show, nil
}

func (s *Service) load(ctx context.Context, id string) (*models.SlideshowModel, error) {
	var show models.SlideshowModel
	if err := s.db.WithContext(ctx).First(&show, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.NotFound("slideshow %s not found", id)
		}
		return nil, apperr.Database("load slideshow", err)
	}
	return &show, nil
}
