// Package sqlstore implements storage.Storage directly on SQL tables via gorm.
package sqlstore

import (
	"context"
	"errors"
	"fmt"

	"github.com/getstreetcred/backend/database"
	"github.com/getstreetcred/backend/models"
	"github.com/getstreetcred/backend/storage"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Store is the SQL-table backend
type Store struct {
	db *gorm.DB
}

var _ storage.Storage = (*Store)(nil)

// New wraps an open, migrated gorm handle
func New(db *gorm.DB) *Store {
	return &Store{db: db}
}

func (s *Store) Name() string {
	return "sql/" + s.db.Dialector.Name()
}

func (s *Store) Close() error {
	return database.Close(s.db)
}

// translate converts gorm errors into the storage taxonomy
func translate(err error, what string) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, storage.ErrNotFound), errors.Is(err, storage.ErrConflict),
		errors.Is(err, storage.ErrValidation), errors.Is(err, storage.ErrBackend):
		return err
	case errors.Is(err, gorm.ErrRecordNotFound):
		return fmt.Errorf("%s: %w", what, storage.ErrNotFound)
	case errors.Is(err, gorm.ErrDuplicatedKey):
		return fmt.Errorf("%s: %w", what, storage.ErrConflict)
	default:
		return fmt.Errorf("%s: %w: %w", what, storage.ErrBackend, err)
	}
}

// forUpdate locks the selected rows until the transaction ends. SQLite has
// no row locks; its single connection already serializes transactions.
func forUpdate(tx *gorm.DB) *gorm.DB {
	if tx.Dialector.Name() == "postgres" {
		return tx.Clauses(clause.Locking{Strength: "UPDATE"})
	}
	return tx
}

// Users

func (s *Store) GetUser(ctx context.Context, id string) (models.User, error) {
	var row models.UserRow
	if err := s.db.WithContext(ctx).First(&row, "id = ?", id).Error; err != nil {
		return models.User{}, translate(err, "user")
	}
	return models.UserFromRow(row), nil
}

func (s *Store) GetUserByUsername(ctx context.Context, username string) (models.User, error) {
	var row models.UserRow
	err := s.db.WithContext(ctx).
		Where("username = ?", models.NormalizeUsername(username)).
		Order("created_at ASC").
		First(&row).Error
	if err != nil {
		return models.User{}, translate(err, "user")
	}
	return models.UserFromRow(row), nil
}

func (s *Store) CreateUser(ctx context.Context, user models.NewUser) (models.User, error) {
	row := models.NewUserRow(user)
	if row.Username == "" || row.Password == "" {
		return models.User{}, fmt.Errorf("%w: username and password are required", storage.ErrValidation)
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var count int64
		if err := tx.Model(&models.UserRow{}).Where("username = ?", row.Username).Count(&count).Error; err != nil {
			return err
		}
		if count > 0 {
			return fmt.Errorf("username %q already exists: %w", row.Username, storage.ErrConflict)
		}
		return tx.Create(&row).Error
	})
	if err != nil {
		return models.User{}, translate(err, "user")
	}
	return models.UserFromRow(row), nil
}

func (s *Store) UpdateUser(ctx context.Context, id string, update models.UserUpdate) (models.User, error) {
	if update.Empty() {
		return models.User{}, fmt.Errorf("%w: no fields to update", storage.ErrValidation)
	}
	if update.Username != nil {
		normalized := models.NormalizeUsername(*update.Username)
		if normalized == "" {
			return models.User{}, fmt.Errorf("%w: username cannot be empty", storage.ErrValidation)
		}
		update.Username = &normalized
	}

	var row models.UserRow
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := forUpdate(tx).First(&row, "id = ?", id).Error; err != nil {
			return err
		}
		if update.Username != nil && *update.Username != row.Username {
			var count int64
			if err := tx.Model(&models.UserRow{}).
				Where("username = ? AND id <> ?", *update.Username, id).
				Count(&count).Error; err != nil {
				return err
			}
			if count > 0 {
				return fmt.Errorf("username %q already exists: %w", *update.Username, storage.ErrConflict)
			}
		}
		if err := tx.Model(&models.UserRow{}).Where("id = ?", id).Updates(update.Columns()).Error; err != nil {
			return err
		}
		return tx.First(&row, "id = ?", id).Error
	})
	if err != nil {
		return models.User{}, translate(err, "user")
	}
	return models.UserFromRow(row), nil
}

// Projects

func (s *Store) findProjects(ctx context.Context, query interface{}, args ...interface{}) ([]models.Project, error) {
	var rows []models.ProjectRow
	tx := s.db.WithContext(ctx).Order("created_at ASC").Order("id ASC")
	if query != nil {
		tx = tx.Where(query, args...)
	}
	if err := tx.Find(&rows).Error; err != nil {
		return nil, translate(err, "projects")
	}
	return models.ProjectsFromRows(rows), nil
}

func (s *Store) GetProjects(ctx context.Context) ([]models.Project, error) {
	return s.findProjects(ctx, nil)
}

func (s *Store) GetProjectsByCategory(ctx context.Context, category string) ([]models.Project, error) {
	return s.findProjects(ctx, "category = ?", category)
}

func (s *Store) GetProjectsByUser(ctx context.Context, userID string) ([]models.Project, error) {
	return s.findProjects(ctx, "user_id = ?", userID)
}

func (s *Store) GetProjectByID(ctx context.Context, id string) (models.Project, error) {
	var row models.ProjectRow
	if err := s.db.WithContext(ctx).First(&row, "id = ?", id).Error; err != nil {
		return models.Project{}, translate(err, "project")
	}
	return models.ProjectFromRow(row), nil
}

func (s *Store) CreateProject(ctx context.Context, project models.ProjectInput, ownerID *string) (models.Project, error) {
	row := models.NewProjectRow(project, ownerID)
	if err := s.db.WithContext(ctx).Create(&row).Error; err != nil {
		return models.Project{}, translate(err, "project")
	}
	return models.ProjectFromRow(row), nil
}

func (s *Store) UpdateProject(ctx context.Context, id string, project models.ProjectInput) (models.Project, error) {
	var row models.ProjectRow
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := forUpdate(tx).First(&row, "id = ?", id).Error; err != nil {
			return err
		}
		if err := tx.Model(&models.ProjectRow{}).Where("id = ?", id).Updates(project.Columns()).Error; err != nil {
			return err
		}
		return tx.First(&row, "id = ?", id).Error
	})
	if err != nil {
		return models.Project{}, translate(err, "project")
	}
	return models.ProjectFromRow(row), nil
}

func (s *Store) DeleteProject(ctx context.Context, id string) error {
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("project_id = ?", id).Delete(&models.RatingRow{}).Error; err != nil {
			return err
		}
		result := tx.Where("id = ?", id).Delete(&models.ProjectRow{})
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}
		return nil
	})
	return translate(err, "project")
}

// Ratings

func (s *Store) SubmitRating(ctx context.Context, rating models.RatingInput) (models.Rating, models.Project, error) {
	if err := storage.ValidateRating(rating.Rating); err != nil {
		return models.Rating{}, models.Project{}, err
	}

	row := models.NewRatingRow(rating)
	var project models.ProjectRow

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		// The project row lock serializes concurrent submissions, so the
		// recount below always sees every committed rating.
		if err := forUpdate(tx).First(&project, "id = ?", rating.ProjectID).Error; err != nil {
			return translate(err, "project")
		}

		var users int64
		if err := tx.Model(&models.UserRow{}).Where("id = ?", rating.UserID).Count(&users).Error; err != nil {
			return err
		}
		if users == 0 {
			return fmt.Errorf("user: %w", storage.ErrNotFound)
		}

		if err := tx.Create(&row).Error; err != nil {
			return err
		}

		var agg struct {
			Count int64
			Total int64
		}
		if err := tx.Model(&models.RatingRow{}).
			Select("COUNT(*) AS count, COALESCE(SUM(rating), 0) AS total").
			Where("project_id = ?", rating.ProjectID).
			Scan(&agg).Error; err != nil {
			return err
		}

		project.Rating = storage.AverageRating(agg.Total, agg.Count)
		project.RatingCount = int(agg.Count)
		return tx.Model(&models.ProjectRow{}).Where("id = ?", rating.ProjectID).Updates(map[string]interface{}{
			"rating":       project.Rating,
			"rating_count": project.RatingCount,
		}).Error
	})
	if err != nil {
		return models.Rating{}, models.Project{}, translate(err, "rating")
	}
	return models.RatingFromRow(row), models.ProjectFromRow(project), nil
}

func (s *Store) GetRatingsForProject(ctx context.Context, projectID string) ([]models.Rating, error) {
	var rows []models.RatingRow
	err := s.db.WithContext(ctx).
		Where("project_id = ?", projectID).
		Order("created_at ASC").Order("id ASC").
		Find(&rows).Error
	if err != nil {
		return nil, translate(err, "ratings")
	}
	return models.RatingsFromRows(rows), nil
}

// Featured project

func (s *Store) GetFeaturedProject(ctx context.Context) (models.Project, error) {
	var row models.ProjectRow
	if err := s.db.WithContext(ctx).First(&row, "is_featured = ?", true).Error; err != nil {
		return models.Project{}, translate(err, "featured project")
	}
	return models.ProjectFromRow(row), nil
}

func (s *Store) SetFeaturedProject(ctx context.Context, id string) error {
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var row models.ProjectRow
		if err := forUpdate(tx).First(&row, "id = ?", id).Error; err != nil {
			return err
		}
		if err := tx.Model(&models.ProjectRow{}).
			Where("is_featured = ? AND id <> ?", true, id).
			Update("is_featured", false).Error; err != nil {
			return err
		}
		return tx.Model(&models.ProjectRow{}).Where("id = ?", id).Update("is_featured", true).Error
	})
	return translate(err, "project")
}

// Wipe deletes every rating and project, and every user when users is set
func (s *Store) Wipe(ctx context.Context, users bool) error {
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		all := tx.Session(&gorm.Session{AllowGlobalUpdate: true})
		if err := all.Delete(&models.RatingRow{}).Error; err != nil {
			return err
		}
		if err := all.Delete(&models.ProjectRow{}).Error; err != nil {
			return err
		}
		if users {
			return all.Delete(&models.UserRow{}).Error
		}
		return nil
	})
	return translate(err, "wipe")
}
