package database

import (
	"path/filepath"
	"testing"

	"github.com/getstreetcred/backend/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConnect_SQLiteMigrates(t *testing.T) {
	db, err := Connect(Options{Driver: DriverSQLite, URL: filepath.Join(t.TempDir(), "test.db")})
	require.NoError(t, err)
	defer Close(db)

	for _, table := range []string{"users", "projects", "ratings"} {
		assert.True(t, db.Migrator().HasTable(table), "table %s", table)
	}
	assert.True(t, db.Migrator().HasColumn(&models.ProjectRow{}, "is_featured"))
	assert.True(t, db.Migrator().HasIndex(&models.ProjectRow{}, "idx_projects_single_featured"))
}

func TestConnect_Idempotent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.db")

	for i := 0; i < 2; i++ {
		db, err := Connect(Options{Driver: DriverSQLite, URL: path})
		require.NoError(t, err, "iteration %d", i)
		require.NoError(t, Close(db))
	}
}

func TestConnect_RejectsUnknownDriver(t *testing.T) {
	_, err := Connect(Options{Driver: "oracle", URL: "x"})
	assert.Error(t, err)
}

func TestConnect_RequiresURL(t *testing.T) {
	_, err := Connect(Options{Driver: DriverSQLite})
	assert.Error(t, err)
}

func TestSingleFeaturedIndex(t *testing.T) {
	db, err := Connect(Options{Driver: DriverSQLite, URL: filepath.Join(t.TempDir(), "test.db")})
	require.NoError(t, err)
	defer Close(db)

	a := models.ProjectRow{Name: "A", Rating: "0", IsFeatured: true}
	b := models.ProjectRow{Name: "B", Rating: "0", IsFeatured: true}
	require.NoError(t, db.Create(&a).Error)
	assert.Error(t, db.Create(&b).Error)
}
