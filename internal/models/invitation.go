package models

import (
	"time"

	"github.com/uptrace/bun"
)

type Invitation struct {
	bun.BaseModel `bun:"table:invitations"`

	ID            string            `bun:"id,pk" json:"id"`
	Slug          string            `bun:"slug,unique,notnull" json:"slug"`
	TemplateID    string            `bun:"template_id,notnull" json:"template"`
	GuestName     string            `bun:"guest_name,notnull" json:"guest"`
	OrderID       string            `bun:"order_id,nullzero" json:"order_id,omitempty"`
	SchemaVersion int               `bun:"schema_version,notnull" json:"schema_version"`
	FormFields    map[string]string `bun:"form_fields,type:text" json:"form_fields"`
	PhotoLink     string            `bun:"photo_link,nullzero" json:"photoLink,omitempty"`
	MusicLink     string            `bun:"music_link,nullzero" json:"musicLink,omitempty"`
	BridePhoto    string            `bun:"bride_photo,nullzero" json:"bridePhoto,omitempty"`
	GroomPhoto    string            `bun:"groom_photo,nullzero" json:"groomPhoto,omitempty"`
	GalleryPhotos string            `bun:"gallery_photos,type:text,nullzero" json:"galleryPhotos,omitempty"`
	CreatedAt     time.Time         `bun:"created_at,nullzero,notnull,default:current_timestamp" json:"created_at"`
}

// MediaLinks holds the normalised media of an invitation. GalleryPhotos is
// the JSON array text that gets persisted.
type MediaLinks struct {
	Photo         string
	Music         string
	BridePhoto    string
	GroomPhoto    string
	GalleryPhotos string
}

func (i *Invitation) SetMedia(m MediaLinks) {
	i.PhotoLink = m.Photo
	i.MusicLink = m.Music
	i.BridePhoto = m.BridePhoto
	i.GroomPhoto = m.GroomPhoto
	i.GalleryPhotos = m.GalleryPhotos
}

type GuestLink struct {
	Guest string `json:"guest"`
	Link  string `json:"link"`
}
