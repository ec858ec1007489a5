package slideshow

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tablecast/signage/internal/database"
	"github.com/tablecast/signage/internal/models"
	"github.com/tablecast/signage/internal/modules/business"
	"github.com/tablecast/signage/internal/pkg/apperr"
	"gorm.io/gorm"
)

type fixture struct {
	db       *gorm.DB
	svc      *Service
	biz      models.BusinessModel
	otherBiz models.BusinessModel
	owner    business.Actor
	stranger business.Actor
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	db, err := database.OpenMemory()
	require.NoError(t, err)
	t.Cleanup(func() { _ = database.Close(db) })

	owner := models.UserModel{Email: "owner@example.com", Password: "x", Role: models.RoleOwner}
	stranger := models.UserModel{Email: "other@example.com", Password: "x", Role: models.RoleOwner}
	require.NoError(t, db.Create(&owner).Error)
	require.NoError(t, db.Create(&stranger).Error)
	biz := models.BusinessModel{OwnerID: owner.ID, Name: "Diner", Slug: "diner"}
	other := models.BusinessModel{OwnerID: stranger.ID, Name: "Cafe", Slug: "cafe"}
	require.NoError(t, db.Create(&biz).Error)
	require.NoError(t, db.Create(&other).Error)

	return &fixture{
		db:       db,
		svc:      NewService(db, business.NewService(db)),
		biz:      biz,
		otherBiz: other,
		owner:    business.Actor{UserID: owner.ID, Role: models.RoleOwner},
		stranger: business.Actor{UserID: stranger.ID, Role: models.RoleOwner},
	}
}

func (f *fixture) slide(t *testing.T, restaurantID *string, title string, active bool) models.SlideModel {
	t.Helper()
	s := models.SlideModel{RestaurantID: restaurantID, Type: models.SlideText, Title: title, DurationMS: 8000, IsActive: active}
	require.NoError(t, f.db.Create(&s).Error)
	return s
}

func (f *fixture) show(t *testing.T) *models.SlideshowModel {
	t.Helper()
	show, err := f.svc.Create(context.Background(), f.owner, &CreateDTO{RestaurantID: f.biz.ID, Name: "Lunch"})
	require.NoError(t, err)
	return show
}

func TestCreateDefaults(t *testing.T) {
	f := newFixture(t)
	show := f.show(t)

	assert.True(t, show.IsActive)
	assert.True(t, show.Loop)
	assert.Equal(t, "fade", show.Transition)

	_, err := f.svc.Create(context.Background(), f.stranger, &CreateDTO{RestaurantID: f.biz.ID, Name: "Nope"})
	assert.True(t, apperr.Is(err, apperr.KindForbidden))
}

func TestSetSlidesOrdersAndReplaces(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	show := f.show(t)

	a := f.slide(t, &f.biz.ID, "A", true)
	b := f.slide(t, &f.biz.ID, "B", true)
	tpl := f.slide(t, nil, "Template", true)

	d, err := f.svc.SetSlides(ctx, f.owner, show.ID, []string{b.ID, tpl.ID, a.ID})
	require.NoError(t, err)
	require.Len(t, d.Slides, 3)
	assert.Equal(t, []string{"B", "Template", "A"}, titles(d.Slides))

	d, err = f.svc.SetSlides(ctx, f.owner, show.ID, []string{a.ID})
	require.NoError(t, err)
	assert.Equal(t, []string{"A"}, titles(d.Slides))

	var links int64
	require.NoError(t, f.db.Model(&models.SlideshowSlideModel{}).Where("slideshow_id = ?", show.ID).Count(&links).Error)
	assert.Equal(t, int64(1), links)
}

func TestSetSlidesRejectsForeignInactiveAndDuplicate(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	show := f.show(t)

	mine := f.slide(t, &f.biz.ID, "Mine", true)
	foreign := f.slide(t, &f.otherBiz.ID, "Theirs", true)
	retired := f.slide(t, &f.biz.ID, "Retired", false)

	_, err := f.svc.SetSlides(ctx, f.owner, show.ID, []string{mine.ID})
	require.NoError(t, err)

	for _, ids := range [][]string{
		{mine.ID, foreign.ID},
		{retired.ID},
		{mine.ID, mine.ID},
	} {
		_, err := f.svc.SetSlides(ctx, f.owner, show.ID, ids)
		assert.True(t, apperr.Is(err, apperr.KindValidation), "ids %v", ids)
	}

	// a rejected call leaves the previous membership intact
	d, err := f.svc.Get(ctx, f.owner, show.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{"Mine"}, titles(d.Slides))
}

func TestUpdateAndDelete(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	show := f.show(t)
	s := f.slide(t, &f.biz.ID, "A", true)
	_, err := f.svc.SetSlides(ctx, f.owner, show.ID, []string{s.ID})
	require.NoError(t, err)

	name, published := "Dinner", true
	updated, err := f.svc.Update(ctx, f.owner, show.ID, &UpdateDTO{Name: &name, IsPublished: &published})
	require.NoError(t, err)
	assert.Equal(t, "Dinner", updated.Name)
	assert.True(t, updated.IsPublished)

	empty := "  "
	_, err = f.svc.Update(ctx, f.owner, show.ID, &UpdateDTO{Name: &empty})
	assert.True(t, apperr.Is(err, apperr.KindValidation))

	assert.True(t, apperr.Is(f.svc.Delete(ctx, f.stranger, show.ID), apperr.KindForbidden))
	require.NoError(t, f.svc.Delete(ctx, f.owner, show.ID))

	_, err = f.svc.Get(ctx, f.owner, show.ID)
	assert.True(t, apperr.Is(err, apperr.KindNotFound))
	var links int64
	require.NoError(t, f.db.Model(&models.SlideshowSlideModel{}).Count(&links).Error)
	assert.Zero(t, links)
}

func TestSlidesSkipsInactiveWhenAsked(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	show := f.show(t)
	a := f.slide(t, &f.biz.ID, "A", true)
	b := f.slide(t, &f.biz.ID, "B", true)
	_, err := f.svc.SetSlides(ctx, f.owner, show.ID, []string{a.ID, b.ID})
	require.NoError(t, err)
	require.NoError(t, f.db.Model(&models.SlideModel{}).Where("id = ?", a.ID).Update("is_active", false).Error)

	all, err := Slides(f.db, show.ID, false)
	require.NoError(t, err)
	assert.Equal(t, []string{"A", "B"}, titles(all))

	live, err := Slides(f.db, show.ID, true)
	require.NoError(t, err)
	assert.Equal(t, []string{"B"}, titles(live))
}

func titles(slides []models.SlideModel) []string {
	out := make([]string, len(slides))
	for i, s := range slides {
		out[i] = s.Title
	}
	return out
}
