// Package slideimage renders text cards for fact slides, as SVG for inline
// display and as PNG for upload into the media bucket.
package slideimage

import (
	"bytes"
	"encoding/base64"
	"encoding/xml"
	"fmt"
	"regexp"
	"strings"
	"unicode/utf8"
)

const (
	Width  = 1920
	Height = 1080

	DefaultBackground = "#1f2937"
	DefaultForeground = "#ffffff"
	defaultLineChars  = 40
	maxLines          = 8
)

var hexColor = regexp.MustCompile(`^#(?:[0-9a-fA-F]{3}|[0-9a-fA-F]{6})$`)

// Card is the content of one rendered slide.
type Card struct {
	Text       string
	Category   string
	Emoji      string
	Background string
	Foreground string
}

func (c Card) colors() (bg, fg string) {
	bg, fg = DefaultBackground, DefaultForeground
	if hexColor.MatchString(c.Background) {
		bg = c.Background
	}
	if hexColor.MatchString(c.Foreground) {
		fg = c.Foreground
	}
	return bg, fg
}

// WrapText breaks text into lines of at most maxChars runes, splitting on
// whitespace. Words longer than a line are hard-split.
func WrapText(text string, maxChars int) []string {
	if maxChars <= 0 {
		maxChars = defaultLineChars
	}
	var (
		lines []string
		cur   strings.Builder
		n     int
	)
	flush := func() {
		if n > 0 {
			lines = append(lines, cur.String())
			cur.Reset()
			n = 0
		}
	}
	for _, word := range strings.Fields(text) {
		for utf8.RuneCountInString(word) > maxChars {
			flush()
			r := []rune(word)
			lines = append(lines, string(r[:maxChars]))
			word = string(r[maxChars:])
		}
		wl := utf8.RuneCountInString(word)
		if n > 0 && n+1+wl > maxChars {
			flush()
		}
		if n > 0 {
			cur.WriteByte(' ')
			n++
		}
		cur.WriteString(word)
		n += wl
	}
	flush()
	return lines
}

// clampLines keeps at most max lines, marking truncation with an ellipsis.
func clampLines(lines []string, max int) []string {
	if len(lines) <= max {
		return lines
	}
	out := append([]string(nil), lines[:max]...)
	out[max-1] = strings.TrimRight(out[max-1], " .") + "…"
	return out
}

// RenderSVG draws the card as a 1920x1080 SVG document.
func RenderSVG(c Card) string {
	bg, fg := c.colors()
	lines := clampLines(WrapText(c.Text, defaultLineChars), maxLines)

	const lineHeight = 84
	startY := Height/2 - (len(lines)-1)*lineHeight/2

	var b strings.Builder
	fmt.Fprintf(&b, `<svg xmlns="http://www.w3.org/2000/svg" width="%d" height="%d" viewBox="0 0 %d %d">`, Width, Height, Width, Height)
	fmt.Fprintf(&b, `<rect width="100%%" height="100%%" fill="%s"/>`, bg)
	if c.Emoji != "" {
		fmt.Fprintf(&b, `<text x="50%%" y="%d" font-size="120" text-anchor="middle">%s</text>`, startY-180, escape(c.Emoji))
	}
	if c.Category != "" {
		fmt.Fprintf(&b, `<text x="50%%" y="%d" font-family="sans-serif" font-size="36" fill="%s" fill-opacity="0.7" text-anchor="middle" letter-spacing="4">%s</text>`,
			startY-100, fg, escape(strings.ToUpper(c.Category)))
	}
	for i, line := range lines {
		fmt.Fprintf(&b, `<text x="50%%" y="%d" font-family="sans-serif" font-size="64" font-weight="600" fill="%s" text-anchor="middle">%s</text>`,
			startY+i*lineHeight, fg, escape(line))
	}
	b.WriteString(`</svg>`)
	return b.String()
}

// DataURL encodes an SVG document as a base64 data URL.
func DataURL(svg string) string {
	return "data:image/svg+xml;base64," + base64.StdEncoding.EncodeToString([]byte(svg))
}

func escape(s string) string {
	var buf bytes.Buffer
	_ = xml.EscapeText(&buf, []byte(s))
	return buf.String()
}
