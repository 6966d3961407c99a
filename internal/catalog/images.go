package catalog

import (
	"fmt"
	"net/url"
	"regexp"
	"strconv"
	"strings"

	"github.com/starford/propscope/internal/models"
)

// ImageSize is a width/height pair in pixels.
type ImageSize struct {
	Width  int `json:"width"`
	Height int `json:"height"`
}

// Image presets per display context.
var ImageSizes = map[string]ImageSize{
	"card":       {400, 300},
	"detail":     {800, 500},
	"fullscreen": {1200, 675},
	"thumbnail":  {200, 150},
}

const (
	defaultImageWidth  = 800
	defaultImageHeight = 600
)

var typeKeywords = map[string]string{
	"Office":      "modern office building",
	"Industrial":  "warehouse industrial",
	"Retail":      "retail shopping center",
	"Residential": "apartment building",
	"Mixed-Use":   "mixed use building",
}

func escapeComponent(s string) string {
	return strings.ReplaceAll(url.QueryEscape(s), "+", "%20")
}

// UnsplashSourceURL returns a source.unsplash.com URL for keyword.
func UnsplashSourceURL(width, height int, keyword string) string {
	if keyword == "" {
		keyword = "building"
	}
	return fmt.Sprintf("https://source.unsplash.com/%dx%d/?%s", width, height, escapeComponent(keyword))
}

// PropertyImageURL picks an Unsplash keyword from the property type.
func PropertyImageURL(propertyType string, width, height int) string {
	kw, ok := typeKeywords[propertyType]
	if !ok {
		kw = "commercial building"
	}
	return UnsplashSourceURL(width, height, kw)
}

// PicsumURL returns a picsum.photos URL, stable per seed when one is given.
func PicsumURL(width, height int, seed string) string {
	if seed != "" {
		return fmt.Sprintf("https://picsum.photos/seed/%s/%d/%d", seed, width, height)
	}
	return fmt.Sprintf("https://picsum.photos/%d/%d", width, height)
}

// PlaceholderURL returns a placehold.co URL with optional caption text.
func PlaceholderURL(width, height int, text string) string {
	if text != "" {
		return fmt.Sprintf("https://placehold.co/%dx%d?text=%s", width, height, escapeComponent(text))
	}
	return fmt.Sprintf("https://placehold.co/%dx%d", width, height)
}

// FallbackImageURL is used when a property has no usable image.
func FallbackImageURL(propertyType string) string {
	if propertyType == "" {
		propertyType = "Office"
	}
	return PropertyImageURL(propertyType, defaultImageWidth, defaultImageHeight)
}

var validImagePatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)^https?://.*\.(jpg|jpeg|png|gif|webp)`),
	regexp.MustCompile(`(?i)^https?://.*unsplash\.com`),
	regexp.MustCompile(`(?i)^https?://.*picsum\.photos`),
	regexp.MustCompile(`(?i)^https?://.*placehold\.co`),
}

// IsValidImageURL reports whether u looks like an image URL the UI can render.
func IsValidImageURL(u string) bool {
	if u == "" {
		return false
	}
	for _, re := range validImagePatterns {
		if re.MatchString(u) {
			return true
		}
	}
	return false
}

var (
	unsplashSizeRe = regexp.MustCompile(`source\.unsplash\.com/\d+x\d+`)
	picsumSeedRe   = regexp.MustCompile(`picsum\.photos/seed/([^/]+)/\d+/\d+`)
	picsumSizeRe   = regexp.MustCompile(`picsum\.photos/\d+/\d+`)
)

// OptimizeImageURL rewrites the size of known image hosts. Other URLs are
// returned unchanged.
func OptimizeImageURL(u string, width, height int) string {
	if u == "" {
		return u
	}
	size := fmt.Sprintf("%dx%d", width, height)

	switch {
	case strings.Contains(u, "source.unsplash.com"):
		if unsplashSizeRe.MatchString(u) {
			return unsplashSizeRe.ReplaceAllLiteralString(u, "source.unsplash.com/"+size)
		}
		return strings.Replace(u, "source.unsplash.com/", "source.unsplash.com/"+size+"/", 1)

	case strings.Contains(u, "picsum.photos"):
		if m := picsumSeedRe.FindStringSubmatch(u); m != nil {
			return picsumSeedRe.ReplaceAllLiteralString(u, fmt.Sprintf("picsum.photos/seed/%s/%d/%d", m[1], width, height))
		}
		if picsumSizeRe.MatchString(u) {
			return picsumSizeRe.ReplaceAllLiteralString(u, fmt.Sprintf("picsum.photos/%d/%d", width, height))
		}
		return u

	case strings.Contains(u, "images.unsplash.com"):
		parsed, err := url.Parse(u)
		if err != nil {
			return u
		}
		q := parsed.Query()
		q.Set("w", strconv.Itoa(width))
		q.Set("h", strconv.Itoa(height))
		q.Set("fit", "crop")
		parsed.RawQuery = q.Encode()
		return parsed.String()
	}
	return u
}

// OptimizedImageURL applies the named preset, falling back to "card".
func OptimizedImageURL(u, preset string) string {
	size, ok := ImageSizes[preset]
	if !ok {
		size = ImageSizes["card"]
	}
	return OptimizeImageURL(u, size.Width, size.Height)
}

// RewriteImages replaces every property's images with a single generated
// URL: a seeded picsum image when usePicsum is set, otherwise an Unsplash
// image keyed on the property type.
func RewriteImages(items []models.Property, usePicsum bool) []models.Property {
	out := make([]models.Property, len(items))
	for i, p := range items {
		if usePicsum {
			p.Images = []string{PicsumURL(defaultImageWidth, defaultImageHeight, p.ID)}
		} else {
			t := p.Type
			if t == "" {
				t = "Office"
			}
			p.Images = []string{PropertyImageURL(t, defaultImageWidth, defaultImageHeight)}
		}
		out[i] = p
	}
	return out
}
