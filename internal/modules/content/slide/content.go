package slide

import (
	"bytes"
	"encoding/json"
	"errors"
	"reflect"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/tablecast/signage/internal/models"
	"github.com/tablecast/signage/internal/pkg/apperr"
)

// Content is the type-specific payload of a slide. Exactly one variant exists
// per models.SlideType.
type Content interface {
	SlideType() models.SlideType
}

type ImageContent struct {
	MediaPath string `json:"mediaPath" validate:"required,max=512"`
	Caption   string `json:"caption,omitempty" validate:"max=280"`
	Fit       string `json:"fit,omitempty" validate:"omitempty,oneof=cover contain"`
}

type MenuItem struct {
	Name        string `json:"name" validate:"required,max=120"`
	Description string `json:"description,omitempty" validate:"max=280"`
	Price       string `json:"price,omitempty" validate:"max=32"`
}

type MenuSection struct {
	Name  string     `json:"name" validate:"required,max=120"`
	Items []MenuItem `json:"items" validate:"required,min=1,dive"`
}

type MenuContent struct {
	Sections []MenuSection `json:"sections" validate:"required,min=1,dive"`
}

type PromoContent struct {
	Headline   string `json:"headline" validate:"required,max=160"`
	Subtext    string `json:"subtext,omitempty" validate:"max=280"`
	Code       string `json:"code,omitempty" validate:"max=40"`
	ValidUntil string `json:"validUntil,omitempty" validate:"omitempty,datetime=2006-01-02"`
}

type QuoteContent struct {
	Quote  string `json:"quote" validate:"required,max=500"`
	Author string `json:"author,omitempty" validate:"max=120"`
}

type HoursDay struct {
	Day    string `json:"day" validate:"required,oneof=mon tue wed thu fri sat sun"`
	Open   string `json:"open,omitempty" validate:"omitempty,datetime=15:04"`
	Close  string `json:"close,omitempty" validate:"omitempty,datetime=15:04"`
	Closed bool   `json:"closed,omitempty"`
}

type HoursContent struct {
	Days []HoursDay `json:"days" validate:"required,min=1,max=7,dive"`
}

type CustomContent struct {
	Markdown string `json:"markdown" validate:"required,max=20000"`
}

type TextContent struct {
	Text            string `json:"text" validate:"required,max=500"`
	Category        string `json:"category,omitempty" validate:"max=60"`
	BackgroundColor string `json:"backgroundColor,omitempty" validate:"omitempty,hexcolor"`
	Emoji           string `json:"emoji,omitempty" validate:"max=16"`
}

func (ImageContent) SlideType() models.SlideType  { return models.SlideImage }
func (MenuContent) SlideType() models.SlideType   { return models.SlideMenu }
func (PromoContent) SlideType() models.SlideType  { return models.SlidePromo }
func (QuoteContent) SlideType() models.SlideType  { return models.SlideQuote }
func (HoursContent) SlideType() models.SlideType  { return models.SlideHours }
func (CustomContent) SlideType() models.SlideType { return models.SlideCustom }
func (TextContent) SlideType() models.SlideType   { return models.SlideText }

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

func newContent(t models.SlideType) (Content, error) {
	switch t {
	case models.SlideImage:
		return &ImageContent{}, nil
	case models.SlideMenu:
		return &MenuContent{}, nil
	case models.SlidePromo:
		return &PromoContent{}, nil
	case models.SlideQuote:
		return &QuoteContent{}, nil
	case models.SlideHours:
		return &HoursContent{}, nil
	case models.SlideCustom:
		return &CustomContent{}, nil
	case models.SlideText:
		return &TextContent{}, nil
	default:
		return nil, apperr.Validation("unknown slide type %q", t).
			WithDetails(map[string]any{"allowed": models.SlideTypes})
	}
}

// ParseContent decodes raw into the variant for t and validates it. Unknown
// fields are rejected so typos do not silently vanish.
func ParseContent(t models.SlideType, raw json.RawMessage) (Content, error) {
	content, err := newContent(t)
	if err != nil {
		return nil, err
	}
	if len(bytes.TrimSpace(raw)) == 0 || bytes.Equal(bytes.TrimSpace(raw), []byte("null")) {
		return nil, apperr.Validation("content is required for %s slides", t)
	}
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.DisallowUnknownFields()
	if err := dec.Decode(content); err != nil {
		return nil, apperr.Validation("invalid %s content: %s", t, err.Error())
	}
	if err := ValidateContent(content); err != nil {
		return nil, err
	}
	return content, nil
}

// ValidateContent runs the field rules of a decoded variant.
func ValidateContent(content Content) error {
	if err := validate.Struct(content); err != nil {
		return validationError(content.SlideType(), err)
	}
	if hours, ok := content.(*HoursContent); ok {
		for i, d := range hours.Days {
			if !d.Closed && (d.Open == "" || d.Close == "") {
				return apperr.Validation("invalid hours content").
					WithDetails([]fieldError{{Field: "days[" + strconv.Itoa(i) + "]", Rule: "open and close are required unless closed"}})
			}
		}
	}
	return nil
}

// MarshalContent encodes a variant for storage.
func MarshalContent(content Content) (json.RawMessage, error) {
	return json.Marshal(content)
}

type fieldError struct {
	Field string `json:"field"`
	Rule  string `json:"rule"`
}

func validationError(t models.SlideType, err error) error {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return apperr.Validation("invalid %s content: %s", t, err.Error())
	}
	details := make([]fieldError, 0, len(verrs))
	for _, fe := range verrs {
		field := fe.Namespace()
		if i := strings.IndexByte(field, '.'); i >= 0 {
			field = field[i+1:]
		}
		rule := fe.Tag()
		if fe.Param() != "" {
			rule += "=" + fe.Param()
		}
		details = append(details, fieldError{Field: field, Rule: rule})
	}
	return apperr.Validation("invalid %s content", t).WithDetails(details)
}
