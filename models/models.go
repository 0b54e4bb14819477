package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Role enum
type Role string

const (
	RoleUser  Role = "user"
	RoleAdmin Role = "admin"
)

// UserRow is the persisted shape of a user. Password holds a bcrypt hash.
type UserRow struct {
	ID                string    `gorm:"primaryKey;column:id" json:"id"`
	Username          string    `gorm:"column:username;uniqueIndex;not null" json:"username"`
	Password          string    `gorm:"column:password;not null" json:"password"`
	Role              Role      `gorm:"column:role;not null;default:user" json:"role"`
	ProfilePictureURL *string   `gorm:"column:profile_picture_url" json:"profile_picture_url"`
	CreatedAt         time.Time `gorm:"column:created_at;autoCreateTime" json:"created_at"`
}

func (UserRow) TableName() string {
	return "users"
}

func (r *UserRow) BeforeCreate(tx *gorm.DB) error {
	if r.ID == "" {
		r.ID = uuid.NewString()
	}
	return nil
}

// ProjectRow is the persisted shape of a project.
// Rating and RatingCount are derived from the ratings table and only
// written by the rating submission path.
type ProjectRow struct {
	ID             string    `gorm:"primaryKey;column:id" json:"id"`
	Name           string    `gorm:"column:name;not null" json:"name"`
	Location       string    `gorm:"column:location;not null" json:"location"`
	Description    string    `gorm:"column:description;not null" json:"description"`
	ImageURL       string    `gorm:"column:image_url;not null" json:"image_url"`
	Category       string    `gorm:"column:category;not null;index" json:"category"`
	CompletionYear int       `gorm:"column:completion_year;not null" json:"completion_year"`
	Rating         string    `gorm:"column:rating;not null;default:'0'" json:"rating"`
	RatingCount    int       `gorm:"column:rating_count;not null;default:0" json:"rating_count"`
	UserID         *string   `gorm:"column:user_id;index" json:"user_id"`
	IsFeatured     bool      `gorm:"column:is_featured;not null;default:false" json:"is_featured"`
	CreatedAt      time.Time `gorm:"column:created_at;autoCreateTime" json:"created_at"`
}

func (ProjectRow) TableName() string {
	return "projects"
}

func (r *ProjectRow) BeforeCreate(tx *gorm.DB) error {
	if r.ID == "" {
		r.ID = uuid.NewString()
	}
	return nil
}

// RatingRow is the persisted shape of a rating. Rows are never updated.
type RatingRow struct {
	ID        string    `gorm:"primaryKey;column:id" json:"id"`
	ProjectID string    `gorm:"column:project_id;not null;index" json:"project_id"`
	UserID    string    `gorm:"column:user_id;not null;index" json:"user_id"`
	Rating    int       `gorm:"column:rating;not null" json:"rating"`
	Review    *string   `gorm:"column:review" json:"review"`
	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime" json:"created_at"`
}

func (RatingRow) TableName() string {
	return "ratings"
}

func (r *RatingRow) BeforeCreate(tx *gorm.DB) error {
	if r.ID == "" {
		r.ID = uuid.NewString()
	}
	return nil
}
