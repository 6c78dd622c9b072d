// Package avatar generates deterministic SVG data-URI avatars. The same
// variant and seed always produce the same image, so avatar URIs can be
// rebuilt anywhere without storing them.
package avatar

import (
	"crypto/sha256"
	"encoding/base64"
	"fmt"
	"strings"
	"unicode"
)

// Variant selects the avatar rendering style.
type Variant string

const (
	// VariantGlass renders a translucent two-tone gradient tile.
	VariantGlass Variant = "glass"
	// VariantInitials renders the seed's initials over a solid tile.
	VariantInitials Variant = "initials"
)

var palette = []string{
	"#0ea5e9", "#6366f1", "#8b5cf6", "#ec4899",
	"#f59e0b", "#10b981", "#14b8a6", "#ef4444",
}

// URI returns a data URI containing an SVG avatar for the given variant
// and seed. Unknown variants fall back to initials.
func URI(variant Variant, seed string) string {
	var svg string
	switch variant {
	case VariantGlass:
		svg = glassSVG(seed)
	default:
		svg = initialsSVG(seed)
	}
	return "data:image/svg+xml;base64," + base64.StdEncoding.EncodeToString([]byte(svg))
}

func glassSVG(seed string) string {
	sum := sha256.Sum256([]byte(seed))
	primary := palette[int(sum[0])%len(palette)]
	secondary := palette[int(sum[1])%len(palette)]
	rotation := int(sum[2]) % 360

	return fmt.Sprintf(
		`<svg xmlns="http://www.w3.org/2000/svg" viewBox="0 0 128 128">`+
			`<defs><linearGradient id="g" gradientTransform="rotate(%d)">`+
			`<stop offset="0%%" stop-color="%s"/><stop offset="100%%" stop-color="%s"/>`+
			`</linearGradient></defs>`+
			`<rect width="128" height="128" fill="url(#g)"/>`+
			`<rect width="128" height="64" y="64" fill="#ffffff" fill-opacity="0.25"/>`+
			`</svg>`,
		rotation, primary, secondary)
}

func initialsSVG(seed string) string {
	sum := sha256.Sum256([]byte(seed))
	background := palette[int(sum[0])%len(palette)]

	return fmt.Sprintf(
		`<svg xmlns="http://www.w3.org/2000/svg" viewBox="0 0 128 128">`+
			`<rect width="128" height="128" fill="%s"/>`+
			`<text x="64" y="64" dy="0.35em" text-anchor="middle" `+
			`font-family="sans-serif" font-size="42" font-weight="500" fill="#ffffff">%s</text>`+
			`</svg>`,
		background, Initials(seed))
}

// Initials extracts up to two uppercase initials from a display name.
func Initials(name string) string {
	fields := strings.Fields(name)
	var b strings.Builder
	for _, field := range fields {
		for _, r := range field {
			b.WriteRune(unicode.ToUpper(r))
			break
		}
		if b.Len() >= 2 {
			break
		}
	}
	if b.Len() == 0 {
		return "?"
	}
	return b.String()
}
