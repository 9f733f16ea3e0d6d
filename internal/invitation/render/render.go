package render

import (
	"html"
	"sort"
	"strings"

	"rabbit-moon/internal/invitation"
	"rabbit-moon/internal/models"
)

// Render fills every {{key}} placeholder in body with the raw value from the
// invitation. Values may carry markup such as a map embed. All placeholders
// are replaced in one pass, so substituted values are never scanned again.
// Placeholders without a value are left untouched.
func Render(inv models.Invitation, body string) string {
	values := Values(inv)

	pairs := make([]string, 0, 2*len(values)+2)
	pairs = append(pairs, "{{galleryPhotos}}", GalleryHTML(inv.GalleryPhotos))
	for _, kv := range values {
		pairs = append(pairs, "{{"+kv[0]+"}}", kv[1])
	}
	return strings.NewReplacer(pairs...).Replace(body)
}

// Values lists the placeholder keys of an invitation with their raw values.
// Row fields come before form fields so a form field can not shadow them.
func Values(inv models.Invitation) [][2]string {
	values := [][2]string{
		{"id", ""},
		{"created_at", ""},
		{"guest", inv.GuestName},
		{"slug", inv.Slug},
		{"template", inv.TemplateID},
		{"order_id", inv.OrderID},
		{"photoLink", inv.PhotoLink},
		{"musicLink", inv.MusicLink},
		{"bridePhoto", inv.BridePhoto},
		{"groomPhoto", inv.GroomPhoto},
	}
	for _, key := range sortedKeys(inv.FormFields) {
		values = append(values, [2]string{key, inv.FormFields[key]})
	}
	return values
}

// GalleryHTML renders the stored gallery as newline separated img tags.
func GalleryHTML(raw string) string {
	photos := invitation.DecodeGallery(raw)
	if len(photos) == 0 {
		return ""
	}
	tags := make([]string, len(photos))
	for i, photo := range photos {
		tags[i] = `<img src="` + html.EscapeString(photo) + `" alt="gallery photo" />`
	}
	return strings.Join(tags, "\n")
}

func sortedKeys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
