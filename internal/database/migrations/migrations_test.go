package migrations

import (
	"io/fs"
	"strings"
	"testing"

	"rabbit-moon/internal/logger"

	"github.com/golang-migrate/migrate/v4/source/iofs"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEmbeddedMigrationsArePaired(t *testing.T) {
	for _, driver := range []string{"mysql", "postgres"} {
		t.Run(driver, func(t *testing.T) {
			entries, err := fs.ReadDir(files, "sql/"+driver)
			require.NoError(t, err)

			ups, downs := 0, 0
			for _, e := range entries {
				switch {
				case strings.HasSuffix(e.Name(), ".up.sql"):
					ups++
				case strings.HasSuffix(e.Name(), ".down.sql"):
					downs++
				}
			}
			assert.Equal(t, 3, ups)
			assert.Equal(t, ups, downs)

			src, err := iofs.New(files, "sql/"+driver)
			require.NoError(t, err)
			first, err := src.First()
			require.NoError(t, err)
			assert.Equal(t, uint(1), first)
			require.NoError(t, src.Close())
		})
	}
}

func TestInitializeRejectsUnknownDriver(t *testing.T) {
	r := NewRunner(nil, MigrateOptions{Driver: "sqlite"}, logger.Discard())
	assert.ErrorContains(t, r.Initialize(), "not available")
}
