package models

// SlideshowModel is a named, ordered playlist of slides for one restaurant.
type SlideshowModel struct {
	Base
	RestaurantID string `json:"restaurant_id" gorm:"type:varchar(36);index;not null"`
	Name         string `json:"name"          gorm:"not null"`
	Description  string `json:"description"   gorm:"type:text"`
	IsActive     bool   `json:"is_active"     gorm:"not null"`
	IsPublished  bool   `json:"is_published"  gorm:"not null"`
	Loop         bool   `json:"loop"          gorm:"not null"`
	Transition   string `json:"transition"    gorm:"type:varchar(32)"`
}

func (SlideshowModel) TableName() string { return "slideshows" }

// SlideshowSlideModel is the ordered membership of a slide in a slideshow.
type SlideshowSlideModel struct {
	SlideshowID string `json:"slideshow_id" gorm:"type:varchar(36);primaryKey"`
	SlideID     string `json:"slide_id"     gorm:"type:varchar(36);primaryKey"`
	Position    int    `json:"position"     gorm:"not null"`
}

func (SlideshowSlideModel) TableName() string { return "slideshow_slides" }
