package slide

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tablecast/signage/internal/database"
	"github.com/tablecast/signage/internal/middleware"
	"github.com/tablecast/signage/internal/models"
	"github.com/tablecast/signage/internal/modules/business"
	"github.com/tablecast/signage/internal/modules/storage/media"
	"github.com/tablecast/signage/internal/pkg/apperr"
	"github.com/tablecast/signage/internal/pkg/jwt"
	"github.com/tablecast/signage/internal/pkg/objectstore"
	"github.com/tablecast/signage/internal/pkg/pagination"
	sessionpkg "github.com/tablecast/signage/internal/pkg/session"
	"github.com/tablecast/signage/internal/pkg/slideimage"
	"gorm.io/gorm"
)

type fixture struct {
	db    *gorm.DB
	svc   *Service
	store *objectstore.Memory
	biz   models.BusinessModel
	owner business.Actor
	admin business.Actor
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	db, err := database.OpenMemory()
	require.NoError(t, err)
	t.Cleanup(func() { _ = database.Close(db) })

	owner := models.UserModel{Email: "owner@example.com", Password: "x", Role: models.RoleOwner}
	admin := models.UserModel{Email: "admin@example.com", Password: "x", Role: models.RoleAdmin}
	require.NoError(t, db.Create(&owner).Error)
	require.NoError(t, db.Create(&admin).Error)
	biz := models.BusinessModel{OwnerID: owner.ID, Name: "Diner", Slug: "diner"}
	require.NoError(t, db.Create(&biz).Error)

	businesses := business.NewService(db)
	store := objectstore.NewMemory("slideshow-media")
	pipeline := media.NewPipeline(db, store, businesses, media.Options{}, nil)
	renderer, err := slideimage.NewRenderer()
	require.NoError(t, err)

	return &fixture{
		db:    db,
		svc:   NewService(db, businesses, pipeline, renderer, nil),
		store: store,
		biz:   biz,
		owner: business.Actor{UserID: owner.ID, Role: models.RoleOwner},
		admin: business.Actor{UserID: admin.ID, Role: models.RoleAdmin},
	}
}

func (f *fixture) createQuote(t *testing.T, title string) *models.SlideModel {
	t.Helper()
	sl, err := f.svc.Create(context.Background(), f.owner, &CreateDTO{
		RestaurantID: &f.biz.ID,
		Type:         models.SlideQuote,
		Title:        title,
		Content:      json.RawMessage(`{"quote":"Good food, good mood"}`),
	})
	require.NoError(t, err)
	return sl
}

func TestCreateAssignsOrderAndDefaults(t *testing.T) {
	f := newFixture(t)
	first := f.createQuote(t, "one")
	second := f.createQuote(t, "two")

	assert.Equal(t, 0, first.OrderIndex)
	assert.Equal(t, 1, second.OrderIndex)
	assert.True(t, first.IsActive)
	assert.False(t, first.IsPublished)
	assert.Equal(t, DefaultDurationMS, first.DurationMS)
	assert.JSONEq(t, `{}`, string(first.Styling))
}

func TestCreateTemplateRequiresAdmin(t *testing.T) {
	f := newFixture(t)
	dto := &CreateDTO{Type: models.SlideText, Title: "Welcome", Content: json.RawMessage(`{"text":"Welcome in"}`)}

	_, err := f.svc.Create(context.Background(), f.owner, dto)
	assert.True(t, apperr.Is(err, apperr.KindForbidden))

	tpl, err := f.svc.Create(context.Background(), f.admin, dto)
	require.NoError(t, err)
	assert.True(t, tpl.IsTemplate())
}

func TestCreateRejectsForeignRestaurant(t *testing.T) {
	f := newFixture(t)
	_, err := f.svc.Create(context.Background(), business.Actor{UserID: "someone", Role: models.RoleOwner}, &CreateDTO{
		RestaurantID: &f.biz.ID, Type: models.SlideQuote, Title: "x", Content: json.RawMessage(`{"quote":"x"}`),
	})
	assert.True(t, apperr.Is(err, apperr.KindForbidden))
}

func TestLockedSlideRejectsOwnerUpdate(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	sl := f.createQuote(t, "Original")

	_, err := f.svc.SetLocked(ctx, f.owner, sl.ID, true)
	assert.True(t, apperr.Is(err, apperr.KindForbidden))
	_, err = f.svc.SetLocked(ctx, f.admin, sl.ID, true)
	require.NoError(t, err)

	title := "Changed"
	_, err = f.svc.Update(ctx, f.owner, sl.ID, &UpdateDTO{Title: &title}, false)
	assert.True(t, apperr.Is(err, apperr.KindForbidden))

	reloaded, err := f.svc.Get(ctx, f.owner, sl.ID)
	require.NoError(t, err)
	assert.Equal(t, "Original", reloaded.Title)

	assert.True(t, apperr.Is(f.svc.Delete(ctx, f.owner, sl.ID), apperr.KindForbidden))

	_, err = f.svc.Update(ctx, f.owner, sl.ID, &UpdateDTO{Title: &title}, true)
	assert.True(t, apperr.Is(err, apperr.KindForbidden))

	updated, err := f.svc.Update(ctx, f.admin, sl.ID, &UpdateDTO{Title: &title}, true)
	require.NoError(t, err)
	assert.Equal(t, "Changed", updated.Title)
}

func TestUpdateContentAndType(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	sl := f.createQuote(t, "q")

	newType := models.SlideText
	_, err := f.svc.Update(ctx, f.owner, sl.ID, &UpdateDTO{Type: &newType}, false)
	assert.True(t, apperr.Is(err, apperr.KindValidation))

	updated, err := f.svc.Update(ctx, f.owner, sl.ID, &UpdateDTO{Type: &newType, Content: json.RawMessage(`{"text":"now text"}`)}, false)
	require.NoError(t, err)
	assert.Equal(t, models.SlideText, updated.Type)
	assert.JSONEq(t, `{"text":"now text"}`, string(updated.Content))

	_, err = f.svc.Update(ctx, f.owner, sl.ID, &UpdateDTO{Content: json.RawMessage(`{"quote":"wrong variant"}`)}, false)
	assert.True(t, apperr.Is(err, apperr.KindValidation))

	bad := 10
	_, err = f.svc.Update(ctx, f.owner, sl.ID, &UpdateDTO{DurationMS: &bad}, false)
	assert.True(t, apperr.Is(err, apperr.KindValidation))
}

func TestDeleteIsSoft(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	sl := f.createQuote(t, "bye")

	require.NoError(t, f.svc.Delete(ctx, f.owner, sl.ID))

	var row models.SlideModel
	require.NoError(t, f.db.First(&row, "id = ?", sl.ID).Error)
	assert.False(t, row.IsActive)

	items, _, err := f.svc.List(ctx, f.owner, ListQuery{RestaurantID: f.biz.ID}, pagination.Query{})
	require.NoError(t, err)
	assert.Empty(t, items)
	items, _, err = f.svc.List(ctx, f.owner, ListQuery{RestaurantID: f.biz.ID, IncludeInactive: true}, pagination.Query{})
	require.NoError(t, err)
	assert.Len(t, items, 1)
}

func TestReorder(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	a := f.createQuote(t, "a")
	b := f.createQuote(t, "b")
	c := f.createQuote(t, "c")

	require.NoError(t, f.svc.Reorder(ctx, f.owner, f.biz.ID, []string{c.ID, a.ID, b.ID}))
	items, _, err := f.svc.List(ctx, f.owner, ListQuery{RestaurantID: f.biz.ID}, pagination.Query{})
	require.NoError(t, err)
	require.Len(t, items, 3)
	assert.Equal(t, []string{c.ID, a.ID, b.ID}, []string{items[0].ID, items[1].ID, items[2].ID})

	err = f.svc.Reorder(ctx, f.owner, f.biz.ID, []string{a.ID, a.ID})
	assert.True(t, apperr.Is(err, apperr.KindValidation))
	err = f.svc.Reorder(ctx, f.owner, f.biz.ID, []string{a.ID, "foreign"})
	assert.True(t, apperr.Is(err, apperr.KindValidation))
}

func TestCreateFromFact(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	text, err := f.svc.CreateFromFact(ctx, f.owner, &FactSlideRequest{
		RestaurantID: f.biz.ID, Text: "Our coffee is roasted in-house every Monday.", Category: "Did you know?",
	})
	require.NoError(t, err)
	assert.Equal(t, models.SlideText, text.Type)
	assert.Equal(t, "Did you know?", text.Title)

	img, err := f.svc.CreateFromFact(ctx, f.owner, &FactSlideRequest{
		RestaurantID: f.biz.ID, Text: "Our coffee is roasted in-house every Monday.", AsImage: true,
	})
	require.NoError(t, err)
	assert.Equal(t, models.SlideImage, img.Type)

	var content ImageContent
	require.NoError(t, json.Unmarshal(img.Content, &content))
	assert.Regexp(t, `^`+f.biz.ID+`/\d+-[A-Za-z0-9]+\.png$`, content.MediaPath)
	_, ok := f.store.Object(content.MediaPath)
	assert.True(t, ok)

	var rows int64
	f.db.Model(&models.MediaFileModel{}).Count(&rows)
	assert.Equal(t, int64(1), rows)
}

func TestPreviewSVG(t *testing.T) {
	f := newFixture(t)
	sl, err := f.svc.CreateFromFact(context.Background(), f.owner, &FactSlideRequest{RestaurantID: f.biz.ID, Text: "Tacos & more"})
	require.NoError(t, err)

	svg, err := f.svc.PreviewSVG(context.Background(), f.owner, sl.ID)
	require.NoError(t, err)
	assert.Contains(t, svg, "Tacos &amp; more")

	quote := f.createQuote(t, "q")
	_, err = f.svc.PreviewSVG(context.Background(), f.owner, quote.ID)
	assert.True(t, apperr.Is(err, apperr.KindValidation))
}

func TestLockedPutOverHTTPKeepsTitle(t *testing.T) {
	gin.SetMode(gin.TestMode)
	f := newFixture(t)
	sl := f.createQuote(t, "Original")
	_, err := f.svc.SetLocked(context.Background(), f.admin, sl.ID, true)
	require.NoError(t, err)

	signer, err := jwt.NewSigner("secret")
	require.NoError(t, err)
	var owner models.UserModel
	require.NoError(t, f.db.First(&owner, "id = ?", f.owner.UserID).Error)
	token, _, err := sessionpkg.Issue(f.db, signer, &owner, "", "", time.Hour)
	require.NoError(t, err)

	auth := middleware.NewAuthenticator(f.db, signer)
	r := gin.New()
	h := NewHandler(f.svc)
	h.RegisterRoutes(r.Group("/api/v1"), auth.Required())
	h.RegisterAdminRoutes(r.Group("/api/v1/admin", auth.Required(), middleware.RequireAdmin()))

	put := func(path string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodPut, path, bytes.NewReader([]byte(`{"title":"Hacked"}`)))
		req.Header.Set("Authorization", "Bearer "+token)
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)
		return w
	}

	w := put("/api/v1/slides/" + sl.ID)
	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.Contains(t, w.Body.String(), "slide is locked")

	assert.Equal(t, http.StatusForbidden, put("/api/v1/admin/slides/"+sl.ID).Code)

	var row models.SlideModel
	require.NoError(t, f.db.First(&row, "id = ?", sl.ID).Error)
	assert.Equal(t, "Original", row.Title)
}
