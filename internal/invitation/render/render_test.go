package render_test

import (
	"testing"

	"rabbit-moon/internal/invitation/render"
	"rabbit-moon/internal/models"

	"github.com/stretchr/testify/assert"
)

func sample() models.Invitation {
	return models.Invitation{
		ID:            "c0ffee00-0000-0000-0000-000000000000",
		Slug:          "budi-1",
		TemplateID:    "basic",
		GuestName:     "Budi & Ani",
		PhotoLink:     "main.jpg",
		FormFields:    map[string]string{"brideName": "Ayu", "quote": "{{guest}}"},
		GalleryPhotos: `["a.jpg","b.jpg"]`,
	}
}

func TestRenderReplacesPlaceholders(t *testing.T) {
	body := `<h1>{{guest}}</h1><p>{{brideName}} {{brideName}}</p><img src="{{photoLink}}"><span>{{id}}</span>{{unknown}}`

	out := render.Render(sample(), body)

	assert.Equal(t, `<h1>Budi & Ani</h1><p>Ayu Ayu</p><img src="main.jpg"><span></span>{{unknown}}`, out)
}

func TestRenderKeepsMarkupInValues(t *testing.T) {
	inv := models.Invitation{
		GuestName: `Budi & "Ani"`,
		FormFields: map[string]string{
			"mapLink": `<iframe src="https://maps.google.com/?q=a&z=1"></iframe>`,
			"quote":   `it's "forever"`,
		},
	}
	body := `<div>{{mapLink}}</div><p>{{guest}}</p><script>var q = '{{quote}}';</script>`

	out := render.Render(inv, body)

	assert.Equal(t,
		`<div><iframe src="https://maps.google.com/?q=a&z=1"></iframe></div><p>Budi & "Ani"</p><script>var q = 'it's "forever"';</script>`,
		out)
}

func TestRenderIsSinglePass(t *testing.T) {
	out := render.Render(sample(), "<q>{{quote}}</q>")

	assert.Equal(t, "<q>{{guest}}</q>", out, "substituted values are not expanded again")
}

func TestRenderDeterministic(t *testing.T) {
	inv := sample()
	body := "{{guest}}|{{slug}}|{{template}}|{{galleryPhotos}}|{{quote}}|{{brideName}}"

	first := render.Render(inv, body)
	for i := 0; i < 10; i++ {
		assert.Equal(t, first, render.Render(inv, body))
	}
}

func TestGalleryHTML(t *testing.T) {
	assert.Equal(t,
		"<img src=\"a.jpg\" alt=\"gallery photo\" />\n<img src=\"b.jpg\" alt=\"gallery photo\" />",
		render.GalleryHTML(`["a.jpg","b.jpg"]`))
	assert.Equal(t, "", render.GalleryHTML("{broken"))
	assert.Equal(t, "", render.GalleryHTML(""))
	assert.Equal(t, `<img src="x.jpg?a=1&amp;b=2" alt="gallery photo" />`, render.GalleryHTML(`["x.jpg?a=1&b=2"]`))

	out := render.Render(sample(), "<div>{{galleryPhotos}}</div>")
	assert.Contains(t, out, `<img src="a.jpg" alt="gallery photo" />`)
}
