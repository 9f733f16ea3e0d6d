package invitation

import (
	"encoding/json"
	"fmt"

	"rabbit-moon/internal/models"
)

// ParseMedia reads mediaData in either the flat legacy shape or the nested
// photos/music shape. A flat key wins over its nested counterpart.
func ParseMedia(mediaData map[string]interface{}) models.MediaLinks {
	if len(mediaData) == 0 {
		return models.MediaLinks{}
	}

	photos, _ := mediaData["photos"].(map[string]interface{})
	music, _ := mediaData["music"].(map[string]interface{})

	links := models.MediaLinks{
		Photo:      firstString(mediaData["mainPhoto"], photos["main"]),
		Music:      firstString(mediaData["backgroundMusic"], music["url"]),
		BridePhoto: firstString(mediaData["bridePhoto"], photos["bride"]),
		GroomPhoto: firstString(mediaData["groomPhoto"], photos["groom"]),
	}

	if g := mediaData["galleryPhotos"]; truthy(g) {
		links.GalleryPhotos = EncodeGallery(g)
	} else if g := photos["gallery"]; truthy(g) {
		links.GalleryPhotos = EncodeGallery(g)
	}
	return links
}

// EncodeGallery turns a gallery value into the JSON array text that is
// persisted. A string that already holds valid JSON is kept as is.
func EncodeGallery(v interface{}) string {
	switch g := v.(type) {
	case []interface{}:
		return mustJSON(g)
	case []string:
		return mustJSON(g)
	case string:
		if json.Valid([]byte(g)) {
			return g
		}
		return mustJSON([]string{g})
	default:
		return mustJSON([]string{fmt.Sprint(g)})
	}
}

// DecodeGallery parses persisted gallery text. Malformed text or a non-array
// value yields nil.
func DecodeGallery(raw string) []string {
	if raw == "" {
		return nil
	}
	var items []interface{}
	if err := json.Unmarshal([]byte(raw), &items); err != nil {
		return nil
	}
	photos := make([]string, 0, len(items))
	for _, item := range items {
		if s, ok := item.(string); ok {
			photos = append(photos, s)
		} else {
			photos = append(photos, fmt.Sprint(item))
		}
	}
	return photos
}

func firstString(values ...interface{}) string {
	for _, v := range values {
		if s, ok := v.(string); ok && s != "" {
			return s
		}
	}
	return ""
}

func truthy(v interface{}) bool {
	switch t := v.(type) {
	case nil:
		return false
	case string:
		return t != ""
	case bool:
		return t
	case float64:
		return t != 0
	default:
		return true
	}
}

func mustJSON(v interface{}) string {
	b, err := json.Marshal(v)
	if err != nil {
		return "[]"
	}
	return string(b)
}
