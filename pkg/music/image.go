package music

import "strings"

// SelectImage applies the shared image policy: sources list their best image
// first, so the first descriptor wins; an empty list or a first entry without
// a usable URL yields PlaceholderImage. Later entries are never consulted so
// every source degrades the same way.
func SelectImage(images []Image) string {
	if len(images) == 0 {
		return PlaceholderImage
	}
	if u := strings.TrimSpace(images[0].URL); u != "" {
		return u
	}
	return PlaceholderImage
}

// IsPlaceholder reports whether img carries no real image.
func IsPlaceholder(img string) bool {
	return img == "" || img == PlaceholderImage
}
