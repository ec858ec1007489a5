package business

import (
	"github.com/gin-gonic/gin"
	"github.com/tablecast/signage/internal/middleware"
	"github.com/tablecast/signage/internal/models"
)

// Actor is the authenticated caller of a service operation.
type Actor struct {
	UserID string
	Role   models.Role
}

func (a Actor) IsAdmin() bool { return a.Role == models.RoleAdmin }

// ActorFrom reads the caller set by the auth middleware.
func ActorFrom(c *gin.Context) Actor {
	return Actor{UserID: middleware.CurrentUserID(c), Role: middleware.CurrentRole(c)}
}
