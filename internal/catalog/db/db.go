package db

import (
	"context"
	"database/sql"
	"errors"

	"rabbit-moon/internal/models"

	"github.com/uptrace/bun"
)

var ErrTemplateNotFound = errors.New("template not found")

type DB struct {
	Bun *bun.DB
}

// ListTemplates → every template without its HTML body
func (d *DB) ListTemplates(ctx context.Context) ([]models.Template, error) {
	var templates []models.Template
	err := d.Bun.NewSelect().
		Model(&templates).
		Column("id", "name", "is_premium", "price", "thumbnail").
		OrderExpr("is_premium ASC, name ASC").
		Scan(ctx)
	if err != nil {
		return nil, err
	}
	return templates, nil
}

// GetTemplateByID → fetch one template by id
func (d *DB) GetTemplateByID(ctx context.Context, id string) (*models.Template, error) {
	return d.getTemplate(ctx, "id = ?", id)
}

// GetTemplateByName → fetch one template by its display name
func (d *DB) GetTemplateByName(ctx context.Context, name string) (*models.Template, error) {
	return d.getTemplate(ctx, "name = ?", name)
}

func (d *DB) getTemplate(ctx context.Context, where string, arg string) (*models.Template, error) {
	var template models.Template
	err := d.Bun.NewSelect().
		Model(&template).
		Where(where, arg).
		Limit(1).
		Scan(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrTemplateNotFound
	}
	if err != nil {
		return nil, err
	}
	return &template, nil
}

// UpsertTemplate → update an existing template or insert it
func (d *DB) UpsertTemplate(ctx context.Context, template models.Template) (created bool, err error) {
	err = d.Bun.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		res, err := tx.NewUpdate().
			Model(&template).
			Column("name", "is_premium", "price", "thumbnail", "html_body").
			WherePK().
			Exec(ctx)
		if err != nil {
			return err
		}
		if n, _ := res.RowsAffected(); n > 0 {
			return nil
		}

		exists, err := tx.NewSelect().Model((*models.Template)(nil)).Where("id = ?", template.ID).Exists(ctx)
		if err != nil || exists {
			return err
		}

		created = true
		_, err = tx.NewInsert().Model(&template).Exec(ctx)
		return err
	})
	return created, err
}
