package db

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"rabbit-moon/internal/models"

	"github.com/go-sql-driver/mysql"
	"github.com/lib/pq"
	"github.com/uptrace/bun"
)

var ErrInvitationNotFound = errors.New("invitation not found")

// ErrSlugTaken is returned by CreateInvitation when another row already holds
// the slug.
var ErrSlugTaken = errors.New("invitation slug already taken")

type DB struct {
	Bun *bun.DB
}

// CreateInvitation → insert one invitation row
func (d *DB) CreateInvitation(ctx context.Context, inv models.Invitation) error {
	if inv.CreatedAt.IsZero() {
		inv.CreatedAt = time.Now().UTC()
	}
	if inv.FormFields == nil {
		inv.FormFields = map[string]string{}
	}
	_, err := d.Bun.NewInsert().Model(&inv).Exec(ctx)
	if isUniqueViolation(err) {
		return ErrSlugTaken
	}
	return err
}

// GetInvitationBySlug → fetch one invitation by its public slug
func (d *DB) GetInvitationBySlug(ctx context.Context, slug string) (*models.Invitation, error) {
	var inv models.Invitation
	err := d.Bun.NewSelect().
		Model(&inv).
		Where("slug = ?", slug).
		Limit(1).
		Scan(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrInvitationNotFound
	}
	if err != nil {
		return nil, err
	}
	return &inv, nil
}

func (d *DB) SlugExists(ctx context.Context, slug string) (bool, error) {
	return d.Bun.NewSelect().
		Model((*models.Invitation)(nil)).
		Where("slug = ?", slug).
		Exists(ctx)
}

// isUniqueViolation recognises duplicate-key errors from the MySQL, Postgres
// and SQLite drivers. The slug is the only unique column besides the id.
func isUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	var myErr *mysql.MySQLError
	if errors.As(err, &myErr) {
		return myErr.Number == 1062
	}
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return pqErr.Code == "23505"
	}
	return strings.Contains(err.Error(), "UNIQUE constraint failed")
}
