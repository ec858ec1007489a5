package models

import "time"

type Role string

const (
	RoleOwner Role = "owner"
	RoleAdmin Role = "admin"
)

// UserModel is a restaurant owner or a platform admin.
type UserModel struct {
	Base
	Email         string     `json:"email"           gorm:"type:varchar(191);uniqueIndex;not null"`
	Name          string     `json:"name"`
	Password      string     `json:"-"               gorm:"not null"`
	Role          Role       `json:"role"            gorm:"type:varchar(16);not null"`
	LastLoginTime *time.Time `json:"last_login_time"`
	LastLoginIP   string     `json:"last_login_ip"`
}

func (UserModel) TableName() string { return "users" }

func (u *UserModel) IsAdmin() bool { return u != nil && u.Role == RoleAdmin }
