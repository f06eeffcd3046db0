package thumbnail

import (
	"encoding/base64"
	"fmt"
	"html"
	"strings"
	"unicode"
	"unicode/utf16"
)

// Default placeholder size, matching the common Open Graph image ratio.
const (
	DefaultWidth  = 1200
	DefaultHeight = 630
)

// Placeholder renders a deterministic gradient SVG for title and returns it as a
// base64 data URI. The same title always yields the same image.
func Placeholder(title string, width, height int) string {
	if width <= 0 {
		width = DefaultWidth
	}
	if height <= 0 {
		height = DefaultHeight
	}

	hue := Hue(title)
	hue2 := (hue + 60) % 360
	fontSize := min(width, height) * 2 / 5

	svg := fmt.Sprintf(
		`<svg xmlns="http://www.w3.org/2000/svg" width="%d" height="%d" viewBox="0 0 %d %d">`+
			`<defs><linearGradient id="g" x1="0%%" y1="0%%" x2="100%%" y2="100%%">`+
			`<stop offset="0%%" stop-color="hsl(%d, 70%%, 55%%)"/>`+
			`<stop offset="100%%" stop-color="hsl(%d, 70%%, 45%%)"/>`+
			`</linearGradient></defs>`+
			`<rect width="100%%" height="100%%" fill="url(#g)"/>`+
			`<text x="50%%" y="50%%" dominant-baseline="central" text-anchor="middle" `+
			`font-family="system-ui, -apple-system, sans-serif" font-size="%d" font-weight="700" fill="#ffffff">%s</text>`+
			`</svg>`,
		width, height, width, height, hue, hue2, fontSize, html.EscapeString(Initial(title)),
	)

	return "data:image/svg+xml;base64," + base64.StdEncoding.EncodeToString([]byte(svg))
}

// Hue maps a title to a hue in [0, 360).
func Hue(title string) int {
	h := int64(hashString(title))
	if h < 0 {
		h = -h
	}
	return int(h % 360)
}

// Initial returns the uppercase first character of title, or "?" when empty.
func Initial(title string) string {
	for _, r := range strings.TrimSpace(title) {
		return string(unicode.ToUpper(r))
	}
	return "?"
}

// hashString is the classic 31-multiplier string hash over UTF-16 code units with
// 32-bit wraparound.
func hashString(s string) int32 {
	var h int32
	for _, c := range utf16.Encode([]rune(s)) {
		h = (h << 5) - h + int32(c)
	}
	return h
}
