// Package storage defines the persistence contract shared by every backend.
//
// Backends translate between the snake_case rows in package models and the
// camelCase wire types, and own the rating aggregate: a project's rating and
// ratingCount are only ever written by SubmitRating, atomically with the
// rating insert.
package storage

import (
	"context"
	"errors"

	"github.com/getstreetcred/backend/models"
)

// Error taxonomy. Backends wrap these with %w so callers can use errors.Is.
var (
	ErrNotConfigured = errors.New("storage backend not configured")
	ErrNotFound      = errors.New("not found")
	ErrConflict      = errors.New("conflict")
	ErrValidation    = errors.New("validation failed")
	ErrBackend       = errors.New("storage backend error")
)

// Storage is the capability set exposed to the API layer
type Storage interface {
	GetUser(ctx context.Context, id string) (models.User, error)
	// GetUserByUsername normalizes the name and returns the earliest match.
	GetUserByUsername(ctx context.Context, username string) (models.User, error)
	CreateUser(ctx context.Context, user models.NewUser) (models.User, error)
	UpdateUser(ctx context.Context, id string, update models.UserUpdate) (models.User, error)

	GetProjects(ctx context.Context) ([]models.Project, error)
	GetProjectsByCategory(ctx context.Context, category string) ([]models.Project, error)
	GetProjectsByUser(ctx context.Context, userID string) ([]models.Project, error)
	GetProjectByID(ctx context.Context, id string) (models.Project, error)
	CreateProject(ctx context.Context, project models.ProjectInput, ownerID *string) (models.Project, error)
	UpdateProject(ctx context.Context, id string, project models.ProjectInput) (models.Project, error)
	// DeleteProject removes the project together with its ratings.
	DeleteProject(ctx context.Context, id string) error

	// SubmitRating inserts the rating and recomputes the project aggregate
	// as one atomic unit, returning both the rating and the updated project.
	SubmitRating(ctx context.Context, rating models.RatingInput) (models.Rating, models.Project, error)
	GetRatingsForProject(ctx context.Context, projectID string) ([]models.Rating, error)

	GetFeaturedProject(ctx context.Context) (models.Project, error)
	// SetFeaturedProject flags id and clears every other featured flag.
	SetFeaturedProject(ctx context.Context, id string) error

	// Name identifies the backend in logs and health checks.
	Name() string
	Close() error
}
