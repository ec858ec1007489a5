package middleware

import (
	"errors"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/tablecast/signage/internal/models"
	"github.com/tablecast/signage/internal/pkg/jwt"
	"github.com/tablecast/signage/internal/pkg/response"
	sessionpkg "github.com/tablecast/signage/internal/pkg/session"
	"gorm.io/gorm"
)

const (
	ContextKeyUserID = "user_id"
	ContextKeySID    = "session_id"
	ContextKeyRole   = "role"
)

// Authenticator validates bearer tokens against their DB session.
type Authenticator struct {
	db     *gorm.DB
	signer *jwt.Signer
}

func NewAuthenticator(db *gorm.DB, signer *jwt.Signer) *Authenticator {
	return &Authenticator{db: db, signer: signer}
}

// Required rejects requests without a valid token.
func (a *Authenticator) Required() gin.HandlerFunc {
	return func(c *gin.Context) {
		claims, err := a.Validate(extractToken(c))
		if err != nil {
			response.Unauthorized(c)
			return
		}
		setClaims(c, claims)
		sessionpkg.Touch(a.db, claims.SessionID)
		c.Next()
	}
}

// Optional sets the user if a valid token is present, but does not block the request.
func (a *Authenticator) Optional() gin.HandlerFunc {
	return func(c *gin.Context) {
		if claims, err := a.Validate(extractToken(c)); err == nil {
			setClaims(c, claims)
		}
		c.Next()
	}
}

// Validate parses rawToken and checks that its session is still live.
func (a *Authenticator) Validate(rawToken string) (*jwt.Claims, error) {
	token := NormalizeToken(rawToken)
	if token == "" {
		return nil, errors.New("token is required")
	}
	claims, err := a.signer.Parse(token)
	if err != nil {
		return nil, err
	}
	active, err := sessionpkg.IsActive(a.db, claims.UserID, claims.SessionID)
	if err != nil {
		return nil, err
	}
	if !active {
		return nil, errors.New("session expired or revoked")
	}
	return claims, nil
}

// RequireAdmin must run after Required.
func RequireAdmin() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !IsAdmin(c) {
			response.Forbidden(c)
			return
		}
		c.Next()
	}
}

func setClaims(c *gin.Context, claims *jwt.Claims) {
	c.Set(ContextKeyUserID, claims.UserID)
	c.Set(ContextKeySID, claims.SessionID)
	c.Set(ContextKeyRole, claims.Role)
}

// CurrentUserID extracts the authenticated user ID from context.
func CurrentUserID(c *gin.Context) string {
	return c.GetString(ContextKeyUserID)
}

// CurrentSessionID extracts the authenticated session ID from context.
func CurrentSessionID(c *gin.Context) string {
	return c.GetString(ContextKeySID)
}

func CurrentRole(c *gin.Context) models.Role {
	return models.Role(c.GetString(ContextKeyRole))
}

func IsAdmin(c *gin.Context) bool { return CurrentRole(c) == models.RoleAdmin }

// IsAuthenticated returns true if the request has a valid auth token.
func IsAuthenticated(c *gin.Context) bool {
	return CurrentUserID(c) != ""
}

func extractToken(c *gin.Context) string {
	return NormalizeToken(c.GetHeader("Authorization"))
}

// NormalizeToken trims spaces and strips an optional Bearer prefix.
func NormalizeToken(raw string) string {
	token := strings.TrimSpace(raw)
	if strings.HasPrefix(strings.ToLower(token), "bearer ") {
		return strings.TrimSpace(token[7:])
	}
	return token
}
