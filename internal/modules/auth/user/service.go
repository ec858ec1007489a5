package user

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/tablecast/signage/internal/models"
	"github.com/tablecast/signage/internal/pkg/apperr"
	"github.com/tablecast/signage/internal/pkg/jwt"
	sessionpkg "github.com/tablecast/signage/internal/pkg/session"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// dummyHash keeps login timing flat when the email is unknown.
var dummyHash, _ = bcrypt.GenerateFromPassword([]byte("not-a-real-password"), bcrypt.MinCost)

type Service struct {
	db     *gorm.DB
	signer *jwt.Signer
}

func NewService(db *gorm.DB, signer *jwt.Signer) *Service {
	return &Service{db: db, signer: signer}
}

func (s *Service) GetByID(id string) (*models.UserModel, error) {
	var u models.UserModel
	if err := s.db.First(&u, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.NotFound("user %s not found", id)
		}
		return nil, apperr.Database("load user", err)
	}
	return &u, nil
}

// Signup creates an owner together with their first business. The very first
// account on an empty install becomes the platform admin.
func (s *Service) Signup(dto *SignupDTO, ip, ua string) (*sessionResponse, error) {
	email := normalizeEmail(dto.Email)
	hash, err := bcrypt.GenerateFromPassword([]byte(dto.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}

	u := models.UserModel{Email: email, Name: strings.TrimSpace(dto.Name), Password: string(hash), Role: models.RoleOwner}
	biz := models.BusinessModel{
		Name:     strings.TrimSpace(dto.BusinessName),
		Cuisine:  strings.TrimSpace(dto.Cuisine),
		Timezone: strings.TrimSpace(dto.Timezone),
	}

	err = s.db.Transaction(func(tx *gorm.DB) error {
		var taken int64
		if err := tx.Model(&models.UserModel{}).Where("email = ?", email).Count(&taken).Error; err != nil {
			return apperr.Database("check email", err)
		}
		if taken > 0 {
			return apperr.Conflict("email %s is already registered", email)
		}
		var users int64
		if err := tx.Model(&models.UserModel{}).Count(&users).Error; err != nil {
			return apperr.Database("count users", err)
		}
		if err := tx.Create(&u).Error; err != nil {
			return apperr.Database("create user", err)
		}
		if users == 0 {
			if err := claimFirstAdmin(tx, &u); err != nil {
				return err
			}
		}

		slug, err := uniqueSlug(tx, slugify(biz.Name))
		if err != nil {
			return err
		}
		biz.OwnerID = u.ID
		biz.Slug = slug
		if err := tx.Create(&biz).Error; err != nil {
			return apperr.Database("create business", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return s.issue(&u, []models.BusinessModel{biz}, ip, ua)
}

func (s *Service) Login(dto *LoginDTO, ip, ua string) (*sessionResponse, error) {
	var u models.UserModel
	err := s.db.Where("email = ?", normalizeEmail(dto.Email)).First(&u).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			_ = bcrypt.CompareHashAndPassword(dummyHash, []byte(dto.Password))
			return nil, apperr.Auth("invalid email or password")
		}
		return nil, apperr.Database("load user", err)
	}
	if err := bcrypt.CompareHashAndPassword([]byte(u.Password), []byte(dto.Password)); err != nil {
		return nil, apperr.Auth("invalid email or password")
	}

	now := time.Now()
	s.db.Model(&u).Updates(map[string]interface{}{
		"last_login_time": now,
		"last_login_ip":   ip,
	})
	u.LastLoginTime = &now
	u.LastLoginIP = ip

	businesses, err := s.businessesOf(u.ID)
	if err != nil {
		return nil, err
	}
	return s.issue(&u, businesses, ip, ua)
}

func (s *Service) Me(userID string) (*meResponse, error) {
	u, err := s.GetByID(userID)
	if err != nil {
		return nil, err
	}
	businesses, err := s.businessesOf(u.ID)
	if err != nil {
		return nil, err
	}
	return &meResponse{User: toResponse(u), Businesses: businesses}, nil
}

func (s *Service) Logout(userID, sessionID string) error {
	if sessionID == "" {
		return nil
	}
	if err := sessionpkg.Revoke(s.db, userID, sessionID); err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return apperr.Database("revoke session", err)
	}
	return nil
}

func (s *Service) issue(u *models.UserModel, businesses []models.BusinessModel, ip, ua string) (*sessionResponse, error) {
	token, sess, err := sessionpkg.Issue(s.db, s.signer, u, ip, ua, sessionpkg.DefaultTTL)
	if err != nil {
		return nil, apperr.Database("issue session", err)
	}
	return &sessionResponse{Token: token, ExpiresAt: sess.ExpiresAt, User: toResponse(u), Businesses: businesses}, nil
}

func (s *Service) businessesOf(userID string) ([]models.BusinessModel, error) {
	businesses := []models.BusinessModel{}
	if err := s.db.Where("owner_id = ?", userID).Order("created_at ASC").Find(&businesses).Error; err != nil {
		return nil, apperr.Database("list businesses", err)
	}
	return businesses, nil
}

func uniqueSlug(tx *gorm.DB, base string) (string, error) {
	slug := base
	for i := 0; i < 5; i++ {
		var n int64
		if err := tx.Model(&models.BusinessModel{}).Where("slug = ?", slug).Count(&n).Error; err != nil {
			return "", apperr.Database("check slug", err)
		}
		if n == 0 {
			return slug, nil
		}
		slug = fmt.Sprintf("%s-%s", base, uuid.NewString()[:6])
	}
	return "", apperr.Conflict("could not allocate a slug for %q", base)
}

// claimFirstAdmin promotes u when it wins the first_admin claim. Concurrent
// first signups race on the claim key, so only one of them is promoted.
func claimFirstAdmin(tx *gorm.DB, u *models.UserModel) error {
	res := tx.Clauses(clause.OnConflict{DoNothing: true}).
		Create(&models.SystemClaim{Key: models.ClaimFirstAdmin, ClaimedBy: u.ID})
	if res.Error != nil {
		return apperr.Database("claim first admin", res.Error)
	}
	if res.RowsAffected == 0 {
		return nil
	}
	u.Role = models.RoleAdmin
	if err := tx.Model(u).Update("role", models.RoleAdmin).Error; err != nil {
		return apperr.Database("promote first admin", err)
	}
	return nil
}
