package business

import (
	"context"
	"errors"
	"strings"

	"github.com/tablecast/signage/internal/models"
	"github.com/tablecast/signage/internal/pkg/apperr"
	"gorm.io/gorm"
)

type Service struct{ db *gorm.DB }

func NewService(db *gorm.DB) *Service { return &Service{db: db} }

// Authorize loads businessID and checks that actor may act on it: owners on
// their own businesses, admins on any.
func (s *Service) Authorize(ctx context.Context, actor Actor, businessID string) (*models.BusinessModel, error) {
	if strings.TrimSpace(businessID) == "" {
		return nil, apperr.Validation("businessId is required")
	}
	var b models.BusinessModel
	if err := s.db.WithContext(ctx).First(&b, "id = ?", businessID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.NotFound("business %s not found", businessID)
		}
		return nil, apperr.Database("load business", err)
	}
	if b.OwnerID != actor.UserID && !actor.IsAdmin() {
		return nil, apperr.Forbidden("you do not have access to this business")
	}
	return &b, nil
}

// List returns the actor's businesses; admins see every tenant.
func (s *Service) List(ctx context.Context, actor Actor) ([]models.BusinessModel, error) {
	q := s.db.WithContext(ctx).Order("created_at ASC")
	if !actor.IsAdmin() {
		q = q.Where("owner_id = ?", actor.UserID)
	}
	out := []models.BusinessModel{}
	if err := q.Find(&out).Error; err != nil {
		return nil, apperr.Database("list businesses", err)
	}
	return out, nil
}

func (s *Service) Update(ctx context.Context, actor Actor, id string, dto *UpdateDTO) (*models.BusinessModel, error) {
	b, err := s.Authorize(ctx, actor, id)
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
		b.Name = name
	}
	if dto.Cuisine != nil {
		updates["cuisine"] = *dto.Cuisine
		b.Cuisine = *dto.Cuisine
	}
	if dto.Description != nil {
		updates["description"] = *dto.Description
		b.Description = *dto.Description
	}
	if dto.Timezone != nil {
		updates["timezone"] = *dto.Timezone
		b.Timezone = *dto.Timezone
	}
	if len(updates) == 0 {
		return b, nil
	}
	if err := s.db.WithContext(ctx).Model(b).Updates(updates).Error; err != nil {
		return nil, apperr.Database("update business", err)
	}
	return b, nil
}
