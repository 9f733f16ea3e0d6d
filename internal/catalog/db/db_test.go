package db_test

import (
	"context"
	"database/sql"
	"testing"

	"rabbit-moon/internal/catalog/db"
	"rabbit-moon/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/sqlitedialect"
	_ "github.com/uptrace/bun/driver/sqliteshim"
)

func setupTestDB(t *testing.T) (*db.DB, *bun.DB) {
	sqldb, err := sql.Open("sqlite", ":memory:")
	if err != nil {
		t.Fatalf("Failed to connect to in-memory database: %v", err)
	}
	sqldb.SetMaxOpenConns(1)

	bunDB := bun.NewDB(sqldb, sqlitedialect.New())

	_, err = bunDB.NewCreateTable().Model((*models.Template)(nil)).Exec(context.Background())
	if err != nil {
		t.Fatalf("Failed to create templates table: %v", err)
	}

	return &db.DB{Bun: bunDB}, bunDB
}

func seed(t *testing.T, bunDB *bun.DB, templates ...models.Template) {
	for i := range templates {
		_, err := bunDB.NewInsert().Model(&templates[i]).Exec(context.Background())
		require.NoError(t, err)
	}
}

func TestListTemplatesOmitsBody(t *testing.T) {
	catalogDB, bunDB := setupTestDB(t)
	defer bunDB.Close()

	seed(t, bunDB,
		models.Template{ID: "royal", Name: "Royal", IsPremium: true, Price: 150000, HTMLBody: "<p>royal</p>"},
		models.Template{ID: "basic", Name: "Basic", HTMLBody: "<p>basic</p>"},
	)

	templates, err := catalogDB.ListTemplates(context.Background())
	require.NoError(t, err)
	require.Len(t, templates, 2)

	assert.Equal(t, "basic", templates[0].ID)
	assert.Equal(t, "royal", templates[1].ID)
	assert.Equal(t, int64(150000), templates[1].Price)
	assert.Empty(t, templates[1].HTMLBody)
}

func TestGetTemplateByIDAndName(t *testing.T) {
	catalogDB, bunDB := setupTestDB(t)
	defer bunDB.Close()
	ctx := context.Background()

	// a numeric name must not be confused with an id
	seed(t, bunDB,
		models.Template{ID: "1", Name: "Classic"},
		models.Template{ID: "classic-2", Name: "1"},
	)

	byID, err := catalogDB.GetTemplateByID(ctx, "1")
	require.NoError(t, err)
	assert.Equal(t, "Classic", byID.Name)

	byName, err := catalogDB.GetTemplateByName(ctx, "1")
	require.NoError(t, err)
	assert.Equal(t, "classic-2", byName.ID)

	_, err = catalogDB.GetTemplateByID(ctx, "missing")
	assert.ErrorIs(t, err, db.ErrTemplateNotFound)
}

func TestUpsertTemplate(t *testing.T) {
	catalogDB, bunDB := setupTestDB(t)
	defer bunDB.Close()
	ctx := context.Background()

	created, err := catalogDB.UpsertTemplate(ctx, models.Template{ID: "royal", Name: "Royal", IsPremium: true, Price: 100000})
	require.NoError(t, err)
	assert.True(t, created)

	created, err = catalogDB.UpsertTemplate(ctx, models.Template{ID: "royal", Name: "Royal Gold", IsPremium: true, Price: 150000, HTMLBody: "<h1>{{guest}}</h1>"})
	require.NoError(t, err)
	assert.False(t, created)

	got, err := catalogDB.GetTemplateByID(ctx, "royal")
	require.NoError(t, err)
	assert.Equal(t, "Royal Gold", got.Name)
	assert.Equal(t, int64(150000), got.Price)
	assert.Equal(t, "<h1>{{guest}}</h1>", got.HTMLBody)
}
