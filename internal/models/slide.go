package models

import "gorm.io/datatypes"

type SlideType string

const (
	SlideImage  SlideType = "image"
	SlideMenu   SlideType = "menu"
	SlidePromo  SlideType = "promo"
	SlideQuote  SlideType = "quote"
	SlideHours  SlideType = "hours"
	SlideCustom SlideType = "custom"
	SlideText   SlideType = "text"
)

// SlideTypes lists every accepted slide type.
var SlideTypes = []SlideType{SlideImage, SlideMenu, SlidePromo, SlideQuote, SlideHours, SlideCustom, SlideText}

func (t SlideType) Valid() bool {
	for _, known := range SlideTypes {
		if t == known {
			return true
		}
	}
	return false
}

// SlideModel is one display unit. A nil RestaurantID marks a global template.
// IsActive doubles as the soft-delete flag.
type SlideModel struct {
	Base
	RestaurantID *string        `json:"restaurant_id" gorm:"type:varchar(36);index"`
	Type         SlideType      `json:"type"          gorm:"type:varchar(16);not null"`
	Title        string         `json:"title"`
	Content      datatypes.JSON `json:"content"`
	Styling      datatypes.JSON `json:"styling"`
	DurationMS   int            `json:"duration_ms"   gorm:"column:duration_ms;not null"`
	OrderIndex   int            `json:"order_index"   gorm:"index;not null"`
	IsActive     bool           `json:"is_active"     gorm:"index;not null"`
	IsPublished  bool           `json:"is_published"  gorm:"not null"`
	IsLocked     bool           `json:"is_locked"     gorm:"not null"`
	CreatedBy    string         `json:"created_by"    gorm:"type:varchar(36)"`
}

func (SlideModel) TableName() string { return "slides" }

func (s *SlideModel) IsTemplate() bool { return s.RestaurantID == nil }

// BelongsTo reports whether the slide is owned by restaurantID.
func (s *SlideModel) BelongsTo(restaurantID string) bool {
	return s.RestaurantID != nil && *s.RestaurantID == restaurantID
}
