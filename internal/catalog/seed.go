package catalog

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"strings"

	"rabbit-moon/internal/models"
)

const ManifestFile = "catalog.json"

// ManifestEntry describes one template in catalog.json. The body is read
// from <id>.html next to the manifest.
type ManifestEntry struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	IsPremium bool   `json:"isPremium"`
	Price     int64  `json:"price"`
	Thumbnail string `json:"thumbnail"`
}

// LoadSeed reads catalog.json and the template bodies from fsys.
func LoadSeed(fsys fs.FS) ([]models.Template, error) {
	raw, err := fs.ReadFile(fsys, ManifestFile)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", ManifestFile, err)
	}

	var entries []ManifestEntry
	if err := json.Unmarshal(raw, &entries); err != nil {
		return nil, fmt.Errorf("parse %s: %w", ManifestFile, err)
	}

	seen := make(map[string]bool, len(entries))
	templates := make([]models.Template, 0, len(entries))
	for i, e := range entries {
		e.ID = strings.TrimSpace(e.ID)
		switch {
		case e.ID == "" || e.Name == "":
			return nil, fmt.Errorf("entry %d: id and name are required", i)
		case seen[e.ID]:
			return nil, fmt.Errorf("entry %d: duplicate id %q", i, e.ID)
		case e.IsPremium && e.Price <= 0:
			return nil, fmt.Errorf("template %s: premium templates need a positive price", e.ID)
		case !e.IsPremium && e.Price != 0:
			return nil, fmt.Errorf("template %s: free templates must have price 0", e.ID)
		}
		seen[e.ID] = true

		body, err := fs.ReadFile(fsys, e.ID+".html")
		if err != nil {
			return nil, fmt.Errorf("template %s: %w", e.ID, err)
		}

		templates = append(templates, models.Template{
			ID:        e.ID,
			Name:      e.Name,
			IsPremium: e.IsPremium,
			Price:     e.Price,
			Thumbnail: e.Thumbnail,
			HTMLBody:  string(body),
		})
	}
	return templates, nil
}

type Upserter interface {
	UpsertTemplate(ctx context.Context, template models.Template) (bool, error)
}

type SeedResult struct {
	Created int
	Updated int
}

// Seed upserts every template, stopping at the first failure.
func Seed(ctx context.Context, store Upserter, templates []models.Template) (SeedResult, error) {
	var res SeedResult
	if len(templates) == 0 {
		return res, errors.New("nothing to seed")
	}
	for _, t := range templates {
		created, err := store.UpsertTemplate(ctx, t)
		if err != nil {
			return res, fmt.Errorf("upsert %s: %w", t.ID, err)
		}
		if created {
			res.Created++
		} else {
			res.Updated++
		}
	}
	return res, nil
}
