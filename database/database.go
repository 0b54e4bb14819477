package database

import (
	"fmt"
	"log"

	"github.com/getstreetcred/backend/models"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// Supported drivers
const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
)

// Options selects and tunes the database connection
type Options struct {
	Driver string
	URL    string
	LogSQL bool
}

// Connect opens the database and runs migrations. The returned handle is
// meant to be created once at startup and shared.
func Connect(opts Options) (*gorm.DB, error) {
	if opts.URL == "" {
		return nil, fmt.Errorf("database URL is not set")
	}

	var dialector gorm.Dialector
	switch opts.Driver {
	case DriverPostgres, "":
		dialector = postgres.Open(opts.URL)
	case DriverSQLite:
		dialector = sqlite.Open(opts.URL)
	default:
		return nil, fmt.Errorf("unsupported database driver %q", opts.Driver)
	}

	level := logger.Warn
	if opts.LogSQL {
		level = logger.Info
	}

	db, err := gorm.Open(dialector, &gorm.Config{
		Logger:         logger.Default.LogMode(level),
		TranslateError: true,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	if opts.Driver == DriverSQLite {
		// SQLite allows a single writer; one connection serializes transactions
		sqlDB, err := db.DB()
		if err != nil {
			return nil, err
		}
		sqlDB.SetMaxOpenConns(1)
		sqlDB.SetMaxIdleConns(1)
		if err := db.Exec("PRAGMA busy_timeout = 5000").Error; err != nil {
			return nil, fmt.Errorf("failed to apply pragmas: %w", err)
		}
	}

	log.Printf("✅ Database connected successfully (%s)", db.Dialector.Name())

	if err := Migrate(db); err != nil {
		return nil, fmt.Errorf("failed to auto-migrate: %w", err)
	}

	return db, nil
}

// Migrate creates or updates the users, projects and ratings tables
func Migrate(db *gorm.DB) error {
	if err := db.AutoMigrate(
		&models.UserRow{},
		&models.ProjectRow{},
		&models.RatingRow{},
	); err != nil {
		return err
	}

	// At most one featured project
	return db.Exec(`CREATE UNIQUE INDEX IF NOT EXISTS idx_projects_single_featured
		ON projects (is_featured) WHERE is_featured = true`).Error
}

// Close closes the database connection
func Close(db *gorm.DB) error {
	sqlDB, err := db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
