package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Base carries the UUID primary key and timestamps shared by all tables.
type Base struct {
	ID        string    `json:"id"         gorm:"type:varchar(36);primaryKey"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (b *Base) BeforeCreate(tx *gorm.DB) error {
	if b.ID == "" {
		b.ID = uuid.New().String()
	}
	return nil
}

// All lists every model managed by AutoMigrate.
func All() []interface{} {
	return []interface{}{
		&UserModel{},
		&UserSession{},
		&BusinessModel{},
		&MediaFileModel{},
		&SlideModel{},
		&SlideshowModel{},
		&SlideshowSlideModel{},
		&SystemClaim{},
	}
}
