package postgrest

import (
	"context"
	_ "embed"
	"fmt"
	"net/http"

	"github.com/getstreetcred/backend/models"
	"github.com/getstreetcred/backend/storage"
	pgrest "github.com/supabase-community/postgrest-go"
)

// SchemaSQL creates the tables, the featured index and the rpc functions
// this backend expects. Run it once in the Supabase SQL editor.
//
//go:embed schema.sql
var SchemaSQL string

// Store is the PostgREST backend
type Store struct {
	client *Client
}

var _ storage.Storage = (*Store)(nil)

// New creates a Store for a Supabase project
func New(projectURL, apiKey string, httpClient *http.Client) (*Store, error) {
	client, err := NewClient(projectURL, apiKey, httpClient)
	if err != nil {
		return nil, err
	}
	return &Store{client: client}, nil
}

func (s *Store) Name() string {
	return "postgrest"
}

func (s *Store) Close() error {
	s.client.closeIdle()
	return nil
}

var ascending = &pgrest.OrderOpts{Ascending: true}

// first returns rows[0] or ErrNotFound
func first[T any](rows []T, what string) (T, error) {
	if len(rows) == 0 {
		var zero T
		return zero, fmt.Errorf("%s: %w", what, storage.ErrNotFound)
	}
	return rows[0], nil
}

// Users

func (s *Store) GetUser(ctx context.Context, id string) (models.User, error) {
	var rows []models.UserRow
	err := s.client.query(ctx, "get user", &rows, func(c *pgrest.Client) *pgrest.FilterBuilder {
		return c.From("users").Select("*", "", false).Eq("id", id).Limit(1, "")
	})
	if err != nil {
		return models.User{}, err
	}
	row, err := first(rows, "user")
	if err != nil {
		return models.User{}, err
	}
	return models.UserFromRow(row), nil
}

func (s *Store) GetUserByUsername(ctx context.Context, username string) (models.User, error) {
	var rows []models.UserRow
	err := s.client.query(ctx, "get user by username", &rows, func(c *pgrest.Client) *pgrest.FilterBuilder {
		return c.From("users").Select("*", "", false).
			Eq("username", models.NormalizeUsername(username)).
			Order("created_at", ascending).
			Limit(1, "")
	})
	if err != nil {
		return models.User{}, err
	}
	row, err := first(rows, "user")
	if err != nil {
		return models.User{}, err
	}
	return models.UserFromRow(row), nil
}

func (s *Store) CreateUser(ctx context.Context, user models.NewUser) (models.User, error) {
	row := models.NewUserRow(user)
	if row.Username == "" || row.Password == "" {
		return models.User{}, fmt.Errorf("%w: username and password are required", storage.ErrValidation)
	}

	values := map[string]interface{}{
		"username": row.Username,
		"password": row.Password,
		"role":     row.Role,
	}
	var rows []models.UserRow
	err := s.client.query(ctx, "create user", &rows, func(c *pgrest.Client) *pgrest.FilterBuilder {
		return c.From("users").Insert(values, false, "", "representation", "")
	})
	if err != nil {
		return models.User{}, err
	}
	created, err := first(rows, "created user")
	if err != nil {
		return models.User{}, fmt.Errorf("%w: %w", storage.ErrBackend, err)
	}
	return models.UserFromRow(created), nil
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

	var rows []models.UserRow
	err := s.client.query(ctx, "update user", &rows, func(c *pgrest.Client) *pgrest.FilterBuilder {
		return c.From("users").Update(update.Columns(), "representation", "").Eq("id", id)
	})
	if err != nil {
		return models.User{}, err
	}
	row, err := first(rows, "user")
	if err != nil {
		return models.User{}, err
	}
	return models.UserFromRow(row), nil
}

// Projects

// listProjects returns projects in insertion order, filtered on column
// when one is given
func (s *Store) listProjects(ctx context.Context, column, value string) ([]models.Project, error) {
	var rows []models.ProjectRow
	err := s.client.query(ctx, "list projects", &rows, func(c *pgrest.Client) *pgrest.FilterBuilder {
		q := c.From("projects").Select("*", "", false)
		if column != "" {
			q = q.Eq(column, value)
		}
		return q.Order("created_at", ascending).Order("id", ascending)
	})
	if err != nil {
		return nil, err
	}
	return models.ProjectsFromRows(rows), nil
}

func (s *Store) GetProjects(ctx context.Context) ([]models.Project, error) {
	return s.listProjects(ctx, "", "")
}

func (s *Store) GetProjectsByCategory(ctx context.Context, category string) ([]models.Project, error) {
	return s.listProjects(ctx, "category", category)
}

func (s *Store) GetProjectsByUser(ctx context.Context, userID string) ([]models.Project, error) {
	return s.listProjects(ctx, "user_id", userID)
}

func (s *Store) GetProjectByID(ctx context.Context, id string) (models.Project, error) {
	var rows []models.ProjectRow
	err := s.client.query(ctx, "get project", &rows, func(c *pgrest.Client) *pgrest.FilterBuilder {
		return c.From("projects").Select("*", "", false).Eq("id", id).Limit(1, "")
	})
	if err != nil {
		return models.Project{}, err
	}
	row, err := first(rows, "project")
	if err != nil {
		return models.Project{}, err
	}
	return models.ProjectFromRow(row), nil
}

func (s *Store) CreateProject(ctx context.Context, project models.ProjectInput, ownerID *string) (models.Project, error) {
	values := project.Columns()
	values["rating"] = "0"
	values["rating_count"] = 0
	values["user_id"] = ownerID

	var rows []models.ProjectRow
	err := s.client.query(ctx, "create project", &rows, func(c *pgrest.Client) *pgrest.FilterBuilder {
		return c.From("projects").Insert(values, false, "", "representation", "")
	})
	if err != nil {
		return models.Project{}, err
	}
	row, err := first(rows, "created project")
	if err != nil {
		return models.Project{}, fmt.Errorf("%w: %w", storage.ErrBackend, err)
	}
	return models.ProjectFromRow(row), nil
}

func (s *Store) UpdateProject(ctx context.Context, id string, project models.ProjectInput) (models.Project, error) {
	var rows []models.ProjectRow
	err := s.client.query(ctx, "update project", &rows, func(c *pgrest.Client) *pgrest.FilterBuilder {
		return c.From("projects").Update(project.Columns(), "representation", "").Eq("id", id)
	})
	if err != nil {
		return models.Project{}, err
	}
	row, err := first(rows, "project")
	if err != nil {
		return models.Project{}, err
	}
	return models.ProjectFromRow(row), nil
}

// DeleteProject relies on the ratings foreign key cascading
func (s *Store) DeleteProject(ctx context.Context, id string) error {
	var rows []models.ProjectRow
	err := s.client.query(ctx, "delete project", &rows, func(c *pgrest.Client) *pgrest.FilterBuilder {
		return c.From("projects").Delete("representation", "").Eq("id", id)
	})
	if err != nil {
		return err
	}
	_, err = first(rows, "project")
	return err
}

// Ratings

// submitRatingResult is the json returned by the submit_rating function
type submitRatingResult struct {
	Rating  models.RatingRow  `json:"rating"`
	Project models.ProjectRow `json:"project"`
}

func (s *Store) SubmitRating(ctx context.Context, rating models.RatingInput) (models.Rating, models.Project, error) {
	if err := storage.ValidateRating(rating.Rating); err != nil {
		return models.Rating{}, models.Project{}, err
	}

	var result submitRatingResult
	err := s.client.rpc(ctx, "submit_rating", map[string]interface{}{
		"p_project_id": rating.ProjectID,
		"p_user_id":    rating.UserID,
		"p_rating":     rating.Rating,
		"p_review":     rating.Review,
	}, &result)
	if err != nil {
		return models.Rating{}, models.Project{}, err
	}
	return models.RatingFromRow(result.Rating), models.ProjectFromRow(result.Project), nil
}

func (s *Store) GetRatingsForProject(ctx context.Context, projectID string) ([]models.Rating, error) {
	var rows []models.RatingRow
	err := s.client.query(ctx, "list ratings", &rows, func(c *pgrest.Client) *pgrest.FilterBuilder {
		return c.From("ratings").Select("*", "", false).
			Eq("project_id", projectID).
			Order("created_at", ascending).
			Order("id", ascending)
	})
	if err != nil {
		return nil, err
	}
	return models.RatingsFromRows(rows), nil
}

// Featured project

func (s *Store) GetFeaturedProject(ctx context.Context) (models.Project, error) {
	var rows []models.ProjectRow
	err := s.client.query(ctx, "get featured project", &rows, func(c *pgrest.Client) *pgrest.FilterBuilder {
		return c.From("projects").Select("*", "", false).Is("is_featured", "true").Limit(1, "")
	})
	if err != nil {
		return models.Project{}, err
	}
	row, err := first(rows, "featured project")
	if err != nil {
		return models.Project{}, err
	}
	return models.ProjectFromRow(row), nil
}

func (s *Store) SetFeaturedProject(ctx context.Context, id string) error {
	var found bool
	if err := s.client.rpc(ctx, "set_featured_project", map[string]interface{}{"p_project_id": id}, &found); err != nil {
		return err
	}
	if !found {
		return fmt.Errorf("project: %w", storage.ErrNotFound)
	}
	return nil
}
