package models

import (
	"time"

	"github.com/uptrace/bun"
)

type Template struct {
	bun.BaseModel `bun:"table:templates"`

	ID        string    `bun:"id,pk" json:"id"`
	Name      string    `bun:"name,notnull" json:"name"`
	IsPremium bool      `bun:"is_premium,notnull" json:"isPremium"`
	Price     int64     `bun:"price,notnull" json:"price"`
	Thumbnail string    `bun:"thumbnail" json:"thumbnail"`
	HTMLBody  string    `bun:"html_body,type:text" json:"-"`
	CreatedAt time.Time `bun:"created_at,nullzero,notnull,default:current_timestamp" json:"-"`
}

// TemplateInfo is the public view of a template, without its body.
type TemplateInfo struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	IsPremium bool   `json:"isPremium"`
	Price     int64  `json:"price"`
	Thumbnail string `json:"thumbnail"`
}

func (t Template) Info() TemplateInfo {
	return TemplateInfo{
		ID:        t.ID,
		Name:      t.Name,
		IsPremium: t.IsPremium,
		Price:     t.Price,
		Thumbnail: t.Thumbnail,
	}
}
