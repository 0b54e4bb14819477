package models

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestProjectFromRow_CamelCaseKeys(t *testing.T) {
	owner := "u-1"
	row := ProjectRow{
		ID:             "p-1",
		Name:           "Test Bridge",
		Location:       "X",
		Description:    "Y",
		ImageURL:       "http://img",
		Category:       "Bridge",
		CompletionYear: 2020,
		Rating:         "4.5",
		RatingCount:    2,
		UserID:         &owner,
		IsFeatured:     true,
		CreatedAt:      time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC),
	}

	data, err := json.Marshal(ProjectFromRow(row))
	require.NoError(t, err)

	var got map[string]interface{}
	require.NoError(t, json.Unmarshal(data, &got))

	for _, key := range []string{"id", "name", "location", "description", "imageUrl", "category", "completionYear", "rating", "ratingCount", "userId", "isFeatured", "createdAt"} {
		assert.Contains(t, got, key)
	}
	for _, key := range []string{"image_url", "completion_year", "rating_count", "user_id", "is_featured", "created_at"} {
		assert.NotContains(t, got, key)
	}
	assert.Equal(t, "4.5", got["rating"])
	assert.Equal(t, float64(2), got["ratingCount"])
}

func TestProjectFromRow_EmptyRatingDefaultsToZero(t *testing.T) {
	p := ProjectFromRow(ProjectRow{ID: "p"})
	assert.Equal(t, "0", p.Rating)
}

func TestNewProjectRow_ZeroAggregate(t *testing.T) {
	owner := "u-1"
	row := NewProjectRow(ProjectInput{Name: "Tower", CompletionYear: 2012}, &owner)

	assert.Equal(t, "0", row.Rating)
	assert.Equal(t, 0, row.RatingCount)
	assert.Equal(t, &owner, row.UserID)
	assert.Empty(t, row.ID)
}

func TestProjectInput_ColumnsExcludeAggregate(t *testing.T) {
	cols := ProjectInput{Name: "A", ImageURL: "i", CompletionYear: 1999}.Columns()

	assert.Equal(t, "i", cols["image_url"])
	assert.Equal(t, 1999, cols["completion_year"])
	assert.NotContains(t, cols, "rating")
	assert.NotContains(t, cols, "rating_count")
	assert.NotContains(t, cols, "user_id")
}

func TestUserUpdate_Columns(t *testing.T) {
	name := "new@example.com"
	empty := ""
	cols := UserUpdate{Username: &name, ProfilePictureURL: &empty}.Columns()

	assert.Equal(t, "new@example.com", cols["username"])
	assert.Contains(t, cols, "profile_picture_url")
	assert.Nil(t, cols["profile_picture_url"])
	assert.NotContains(t, cols, "password")

	assert.True(t, UserUpdate{}.Empty())
	assert.False(t, UserUpdate{Username: &name}.Empty())
}

func TestUser_PublicHidesPassword(t *testing.T) {
	u := User{ID: "u", Username: "a@b.com", PasswordHash: "secret", Role: RoleUser}

	data, err := json.Marshal(u.Public())
	require.NoError(t, err)

	assert.NotContains(t, string(data), "secret")
	assert.Contains(t, string(data), `"email":"a@b.com"`)
	assert.NotContains(t, string(data), "profilePictureUrl")
}

func TestNormalizeUsername(t *testing.T) {
	assert.Equal(t, "foo@bar.com", NormalizeUsername("Foo@Bar.com "))
	assert.Equal(t, "foo@bar.com", NormalizeUsername("  foo@bar.com"))
}

func TestRoleFor(t *testing.T) {
	const admin = "admin@getstreetcred.com"

	assert.Equal(t, RoleAdmin, RoleFor("admin@getstreetcred.com", admin))
	assert.Equal(t, RoleAdmin, RoleFor(" Admin@GetStreetCred.com", admin))
	assert.Equal(t, RoleUser, RoleFor("someone@getstreetcred.com", admin))
	assert.Equal(t, RoleUser, RoleFor("admin@getstreetcred.com", ""))
}

func TestNewUserRow_NormalizesAndDefaultsRole(t *testing.T) {
	row := NewUserRow(NewUser{Username: " Foo@Bar.com ", PasswordHash: "h", Role: "superuser"})

	assert.Equal(t, "foo@bar.com", row.Username)
	assert.Equal(t, RoleUser, row.Role)
}
