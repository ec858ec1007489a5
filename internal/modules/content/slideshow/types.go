package slideshow

import "github.com/tablecast/signage/internal/models"

type CreateDTO struct {
	RestaurantID string `json:"restaurant_id" binding:"required"`
	Name         string `json:"name"          binding:"required,max=120"`
	Description  string `json:"description"`
	IsPublished  bool   `json:"is_published"`
	Loop         *bool  `json:"loop"`
	Transition   string `json:"transition"    binding:"omitempty,oneof=fade slide none"`
}

type UpdateDTO struct {
	Name        *string `json:"name"`
	Description *string `json:"description"`
	IsActive    *bool   `json:"is_active"`
	IsPublished *bool   `json:"is_published"`
	Loop        *bool   `json:"loop"`
	Transition  *string `json:"transition" binding:"omitempty,oneof=fade slide none"`
}

type SetSlidesDTO struct {
	SlideIDs []string `json:"slide_ids"`
}

// Detail is a slideshow with its slides in play order.
type Detail struct {
	models.SlideshowModel
	Slides []models.SlideModel `json:"slides"`
}
