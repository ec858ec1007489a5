package slide

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tablecast/signage/internal/models"
	"github.com/tablecast/signage/internal/pkg/apperr"
)

func TestParseContentVariants(t *testing.T) {
	cases := []struct {
		typ  models.SlideType
		raw  string
		want Content
	}{
		{models.SlideImage, `{"mediaPath":"b/1.png","fit":"cover"}`, &ImageContent{MediaPath: "b/1.png", Fit: "cover"}},
		{models.SlideQuote, `{"quote":"Eat well","author":"Chef"}`, &QuoteContent{Quote: "Eat well", Author: "Chef"}},
		{models.SlideCustom, `{"markdown":"# Hi"}`, &CustomContent{Markdown: "# Hi"}},
		{models.SlideText, `{"text":"Fresh daily","backgroundColor":"#ff0000"}`, &TextContent{Text: "Fresh daily", BackgroundColor: "#ff0000"}},
		{models.SlidePromo, `{"headline":"2 for 1","validUntil":"2026-12-31"}`, &PromoContent{Headline: "2 for 1", ValidUntil: "2026-12-31"}},
	}
	for _, tc := range cases {
		t.Run(string(tc.typ), func(t *testing.T) {
			got, err := ParseContent(tc.typ, json.RawMessage(tc.raw))
			require.NoError(t, err)
			assert.Equal(t, tc.want, got)
			assert.Equal(t, tc.typ, got.SlideType())
		})
	}
}

func TestParseContentMenu(t *testing.T) {
	raw := `{"sections":[{"name":"Mains","items":[{"name":"Pho","price":"$12"}]}]}`
	got, err := ParseContent(models.SlideMenu, json.RawMessage(raw))
	require.NoError(t, err)
	menu := got.(*MenuContent)
	assert.Equal(t, "Pho", menu.Sections[0].Items[0].Name)

	_, err = ParseContent(models.SlideMenu, json.RawMessage(`{"sections":[{"name":"Mains","items":[]}]}`))
	assert.True(t, apperr.Is(err, apperr.KindValidation))
}

func TestParseContentHours(t *testing.T) {
	ok := `{"days":[{"day":"mon","open":"09:00","close":"17:00"},{"day":"sun","closed":true}]}`
	_, err := ParseContent(models.SlideHours, json.RawMessage(ok))
	require.NoError(t, err)

	missingClose := `{"days":[{"day":"mon","open":"09:00"}]}`
	_, err = ParseContent(models.SlideHours, json.RawMessage(missingClose))
	assert.True(t, apperr.Is(err, apperr.KindValidation))

	badDay := `{"days":[{"day":"someday","closed":true}]}`
	_, err = ParseContent(models.SlideHours, json.RawMessage(badDay))
	assert.True(t, apperr.Is(err, apperr.KindValidation))
}

func TestParseContentRejects(t *testing.T) {
	cases := map[string]struct {
		typ models.SlideType
		raw string
	}{
		"unknown type":      {"video", `{"src":"x"}`},
		"missing content":   {models.SlideQuote, ``},
		"null content":      {models.SlideQuote, `null`},
		"missing required":  {models.SlideImage, `{"caption":"x"}`},
		"unknown field":     {models.SlideQuote, `{"quote":"x","colour":"red"}`},
		"wrong shape":       {models.SlideText, `["x"]`},
		"bad color":         {models.SlideText, `{"text":"x","backgroundColor":"red"}`},
		"bad fit":           {models.SlideImage, `{"mediaPath":"x","fit":"stretch"}`},
		"bad promo date":    {models.SlidePromo, `{"headline":"x","validUntil":"tomorrow"}`},
		"other type fields": {models.SlideQuote, `{"text":"x"}`},
	}
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := ParseContent(tc.typ, json.RawMessage(tc.raw))
			assert.True(t, apperr.Is(err, apperr.KindValidation), "%v", err)
		})
	}
}

func TestValidationDetailsUseJSONNames(t *testing.T) {
	_, err := ParseContent(models.SlideImage, json.RawMessage(`{"caption":"x"}`))
	appErr, ok := apperr.As(err)
	require.True(t, ok)
	details, ok := appErr.Details.([]fieldError)
	require.True(t, ok)
	require.NotEmpty(t, details)
	assert.Equal(t, "mediaPath", details[0].Field)
	assert.Equal(t, "required", details[0].Rule)
}
