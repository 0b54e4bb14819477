package models

import (
	"strings"
	"time"
)

// Wire shapes. Every response body uses these camelCase types; the
// snake_case rows in models.go never leave the storage layer.

// Project is the client-facing project
type Project struct {
	ID             string    `json:"id"`
	Name           string    `json:"name"`
	Location       string    `json:"location"`
	Description    string    `json:"description"`
	ImageURL       string    `json:"imageUrl"`
	Category       string    `json:"category"`
	CompletionYear int       `json:"completionYear"`
	Rating         string    `json:"rating"`
	RatingCount    int       `json:"ratingCount"`
	UserID         *string   `json:"userId"`
	IsFeatured     bool      `json:"isFeatured"`
	CreatedAt      time.Time `json:"createdAt"`
}

// Rating is the client-facing rating
type Rating struct {
	ID        string    `json:"id"`
	ProjectID string    `json:"projectId"`
	UserID    string    `json:"userId"`
	Rating    int       `json:"rating"`
	Review    *string   `json:"review"`
	CreatedAt time.Time `json:"createdAt"`
}

// User is the domain user handed to the API layer. It carries the password
// hash, so it is never serialized directly; see PublicUser.
type User struct {
	ID                string
	Username          string
	PasswordHash      string
	Role              Role
	ProfilePictureURL *string
	CreatedAt         time.Time
}

// IsAdmin reports whether the user holds the admin role
func (u User) IsAdmin() bool {
	return u.Role == RoleAdmin
}

// PublicUser is the user subset returned by auth and profile endpoints
type PublicUser struct {
	ID                string  `json:"id"`
	Email             string  `json:"email"`
	Role              Role    `json:"role"`
	ProfilePictureURL *string `json:"profilePictureUrl,omitempty"`
	Token             string  `json:"token,omitempty"`
}

// Public strips the password hash
func (u User) Public() PublicUser {
	return PublicUser{
		ID:                u.ID,
		Email:             u.Username,
		Role:              u.Role,
		ProfilePictureURL: u.ProfilePictureURL,
	}
}

// ProjectInput holds the mutable project fields. It deliberately has no
// rating fields, so create and update can never set the aggregate.
type ProjectInput struct {
	Name           string
	Location       string
	Description    string
	ImageURL       string
	Category       string
	CompletionYear int
}

// Columns maps the input onto persisted column names
func (in ProjectInput) Columns() map[string]interface{} {
	return map[string]interface{}{
		"name":            in.Name,
		"location":        in.Location,
		"description":     in.Description,
		"image_url":       in.ImageURL,
		"category":        in.Category,
		"completion_year": in.CompletionYear,
	}
}

// RatingInput is a validated rating submission
type RatingInput struct {
	ProjectID string
	UserID    string
	Rating    int
	Review    *string
}

// NewUser is a user about to be inserted
type NewUser struct {
	Username     string
	PasswordHash string
	Role         Role
}

// UserUpdate holds optional profile changes. A non-nil empty
// ProfilePictureURL clears the picture.
type UserUpdate struct {
	Username          *string
	PasswordHash      *string
	ProfilePictureURL *string
}

// Empty reports whether the update changes nothing
func (u UserUpdate) Empty() bool {
	return u.Username == nil && u.PasswordHash == nil && u.ProfilePictureURL == nil
}

// Columns maps the update onto persisted column names
func (u UserUpdate) Columns() map[string]interface{} {
	cols := make(map[string]interface{})
	if u.Username != nil {
		cols["username"] = *u.Username
	}
	if u.PasswordHash != nil {
		cols["password"] = *u.PasswordHash
	}
	if u.ProfilePictureURL != nil {
		if *u.ProfilePictureURL == "" {
			cols["profile_picture_url"] = nil
		} else {
			cols["profile_picture_url"] = *u.ProfilePictureURL
		}
	}
	return cols
}

// ProjectFromRow converts the persisted shape into the wire shape
func ProjectFromRow(r ProjectRow) Project {
	rating := r.Rating
	if rating == "" {
		rating = "0"
	}
	return Project{
		ID:             r.ID,
		Name:           r.Name,
		Location:       r.Location,
		Description:    r.Description,
		ImageURL:       r.ImageURL,
		Category:       r.Category,
		CompletionYear: r.CompletionYear,
		Rating:         rating,
		RatingCount:    r.RatingCount,
		UserID:         r.UserID,
		IsFeatured:     r.IsFeatured,
		CreatedAt:      r.CreatedAt,
	}
}

// ProjectsFromRows converts a slice of rows, never returning nil
func ProjectsFromRows(rows []ProjectRow) []Project {
	out := make([]Project, 0, len(rows))
	for _, r := range rows {
		out = append(out, ProjectFromRow(r))
	}
	return out
}

// NewProjectRow builds the row for a new project. The aggregate always
// starts at zero regardless of what the caller sent.
func NewProjectRow(in ProjectInput, ownerID *string) ProjectRow {
	return ProjectRow{
		Name:           in.Name,
		Location:       in.Location,
		Description:    in.Description,
		ImageURL:       in.ImageURL,
		Category:       in.Category,
		CompletionYear: in.CompletionYear,
		Rating:         "0",
		RatingCount:    0,
		UserID:         ownerID,
	}
}

// RatingFromRow converts the persisted shape into the wire shape
func RatingFromRow(r RatingRow) Rating {
	return Rating{
		ID:        r.ID,
		ProjectID: r.ProjectID,
		UserID:    r.UserID,
		Rating:    r.Rating,
		Review:    r.Review,
		CreatedAt: r.CreatedAt,
	}
}

// RatingsFromRows converts a slice of rows, never returning nil
func RatingsFromRows(rows []RatingRow) []Rating {
	out := make([]Rating, 0, len(rows))
	for _, r := range rows {
		out = append(out, RatingFromRow(r))
	}
	return out
}

// NewRatingRow builds the row for a rating submission
func NewRatingRow(in RatingInput) RatingRow {
	return RatingRow{
		ProjectID: in.ProjectID,
		UserID:    in.UserID,
		Rating:    in.Rating,
		Review:    in.Review,
	}
}

// UserFromRow converts the persisted user into the domain user
func UserFromRow(r UserRow) User {
	return User{
		ID:                r.ID,
		Username:          r.Username,
		PasswordHash:      r.Password,
		Role:              r.Role,
		ProfilePictureURL: r.ProfilePictureURL,
		CreatedAt:         r.CreatedAt,
	}
}

// NewUserRow builds the row for a signup
func NewUserRow(in NewUser) UserRow {
	role := in.Role
	if role != RoleAdmin {
		role = RoleUser
	}
	return UserRow{
		Username: NormalizeUsername(in.Username),
		Password: in.PasswordHash,
		Role:     role,
	}
}

// NormalizeUsername trims and lowercases a username (email address)
func NormalizeUsername(username string) string {
	return strings.ToLower(strings.TrimSpace(username))
}

// RoleFor returns the role granted at signup: the reserved admin address
// gets admin, everyone else gets user.
func RoleFor(username, adminEmail string) Role {
	if adminEmail != "" && NormalizeUsername(username) == NormalizeUsername(adminEmail) {
		return RoleAdmin
	}
	return RoleUser
}
