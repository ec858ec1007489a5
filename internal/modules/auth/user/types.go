package user

import (
	"time"

	"github.com/tablecast/signage/internal/models"
)

type SignupDTO struct {
	Email        string `json:"email"        binding:"required,email"`
	Password     string `json:"password"     binding:"required,min=8"`
	Name         string `json:"name"`
	BusinessName string `json:"businessName" binding:"required"`
	Cuisine      string `json:"cuisine"`
	Timezone     string `json:"timezone"`
}

type LoginDTO struct {
	Email    string `json:"email"    binding:"required"`
	Password string `json:"password" binding:"required"`
}

type userResponse struct {
	ID            string      `json:"id"`
	Email         string      `json:"email"`
	Name          string      `json:"name"`
	Role          models.Role `json:"role"`
	LastLoginTime *time.Time  `json:"last_login_time,omitempty"`
}

type sessionResponse struct {
	Token      string                 `json:"token"`
	ExpiresAt  time.Time              `json:"expires_at"`
	User       *userResponse          `json:"user"`
	Businesses []models.BusinessModel `json:"businesses"`
}

type meResponse struct {
	User       *userResponse          `json:"user"`
	Businesses []models.BusinessModel `json:"businesses"`
}
