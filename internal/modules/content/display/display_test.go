package display

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tablecast/signage/internal/database"
	"github.com/tablecast/signage/internal/models"
	"github.com/tablecast/signage/internal/pkg/apperr"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

func init() { gin.SetMode(gin.TestMode) }

type fixture struct {
	db    *gorm.DB
	svc   *Service
	biz   models.BusinessModel
	other models.BusinessModel
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	db, err := database.OpenMemory()
	require.NoError(t, err)
	t.Cleanup(func() { _ = database.Close(db) })

	owner := models.UserModel{Email: "owner@example.com", Password: "x", Role: models.RoleOwner}
	require.NoError(t, db.Create(&owner).Error)
	biz := models.BusinessModel{OwnerID: owner.ID, Name: "Diner", Slug: "diner"}
	other := models.BusinessModel{OwnerID: owner.ID, Name: "Cafe", Slug: "cafe"}
	require.NoError(t, db.Create(&biz).Error)
	require.NoError(t, db.Create(&other).Error)
	return &fixture{db: db, svc: NewService(db), biz: biz, other: other}
}

func (f *fixture) slide(t *testing.T, restaurantID *string, typ models.SlideType, title, content string, order int, active bool) models.SlideModel {
	t.Helper()
	s := models.SlideModel{
		RestaurantID: restaurantID,
		Type:         typ,
		Title:        title,
		Content:      datatypes.JSON(content),
		DurationMS:   8000,
		OrderIndex:   order,
		IsActive:     active,
	}
	require.NoError(t, f.db.Create(&s).Error)
	return s
}

func TestSlidesFiltersAndOrders(t *testing.T) {
	f := newFixture(t)
	f.slide(t, &f.biz.ID, models.SlideText, "Second", `{"text":"b"}`, 2, true)
	f.slide(t, nil, models.SlideQuote, "Template", `{"quote":"q"}`, 1, true)
	f.slide(t, &f.biz.ID, models.SlideText, "Hidden", `{"text":"c"}`, 0, false)
	f.slide(t, &f.other.ID, models.SlideText, "Elsewhere", `{"text":"d"}`, 0, true)
	f.slide(t, &f.biz.ID, models.SlideCustom, "Custom", `{"markdown":"**hi**"}`, 3, true)

	items, err := f.svc.Slides(context.Background(), f.biz.ID)
	require.NoError(t, err)
	require.Len(t, items, 3)
	assert.Equal(t, "Template", items[0].Title)
	assert.True(t, items[0].Template)
	assert.Equal(t, "Second", items[1].Title)
	assert.Equal(t, "Custom", items[2].Title)
	assert.Contains(t, items[2].HTML, "<strong>hi</strong>")
	assert.Empty(t, items[1].HTML)
	assert.JSONEq(t, `{}`, string(items[1].Styling))
}

func TestSlidesUnknownRestaurant(t *testing.T) {
	f := newFixture(t)
	_, err := f.svc.Slides(context.Background(), "missing")
	assert.True(t, apperr.Is(err, apperr.KindNotFound))
}

func TestSlideshowScopedToRestaurant(t *testing.T) {
	f := newFixture(t)
	a := f.slide(t, &f.biz.ID, models.SlideText, "A", `{"text":"a"}`, 0, true)
	b := f.slide(t, &f.biz.ID, models.SlideText, "B", `{"text":"b"}`, 1, false)
	c := f.slide(t, nil, models.SlideText, "C", `{"text":"c"}`, 2, true)

	show := models.SlideshowModel{RestaurantID: f.biz.ID, Name: "Lunch", IsActive: true, Loop: true, Transition: "fade"}
	require.NoError(t, f.db.Create(&show).Error)
	for i, id := range []string{c.ID, b.ID, a.ID} {
		require.NoError(t, f.db.Create(&models.SlideshowSlideModel{SlideshowID: show.ID, SlideID: id, Position: i}).Error)
	}

	got, err := f.svc.Slideshow(context.Background(), f.biz.ID, show.ID)
	require.NoError(t, err)
	require.Len(t, got.Slides, 2)
	assert.Equal(t, "C", got.Slides[0].Title)
	assert.Equal(t, "A", got.Slides[1].Title)

	_, err = f.svc.Slideshow(context.Background(), f.other.ID, show.ID)
	assert.True(t, apperr.Is(err, apperr.KindNotFound))
}

func TestDisplayRoutesArePublic(t *testing.T) {
	f := newFixture(t)
	f.slide(t, &f.biz.ID, models.SlideText, "Hello", `{"text":"hello"}`, 0, true)

	r := gin.New()
	NewHandler(f.svc).RegisterRoutes(r.Group("/api/v1"))

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/display/"+f.biz.ID+"/slides", nil))
	require.Equal(t, http.StatusOK, w.Code)

	var body struct {
		Data []Slide `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	require.Len(t, body.Data, 1)
	assert.Equal(t, "Hello", body.Data[0].Title)

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/display/"+f.biz.ID+"/slideshows/nope", nil))
	assert.Equal(t, http.StatusNotFound, w.Code)
}
