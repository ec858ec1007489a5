package user

import (
	"regexp"
	"strings"

	"github.com/tablecast/signage/internal/models"
)

var nonSlug = regexp.MustCompile(`[^a-z0-9]+`)

func toResponse(u *models.UserModel) *userResponse {
	return &userResponse{
		ID:            u.ID,
		Email:         u.Email,
		Name:          u.Name,
		Role:          u.Role,
		LastLoginTime: u.LastLoginTime,
	}
}

// slugify turns a business name into a URL-safe slug.
func slugify(name string) string {
	slug := strings.Trim(nonSlug.ReplaceAllString(strings.ToLower(name), "-"), "-")
	if len(slug) > 48 {
		slug = strings.TrimRight(slug[:48], "-")
	}
	if slug == "" {
		slug = "restaurant"
	}
	return slug
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
