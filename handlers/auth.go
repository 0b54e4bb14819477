package handlers

import (
	"errors"
	"net/http"
	"net/url"
	"strings"

	"github.com/getstreetcred/backend/auth"
	"github.com/getstreetcred/backend/events"
	"github.com/getstreetcred/backend/models"
	"github.com/getstreetcred/backend/storage"
	"github.com/gin-gonic/gin"
)

// CredentialsRequest is the signup and signin body
type CredentialsRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// normalize trims both fields and lowercases the email
func (r *CredentialsRequest) normalize() error {
	r.Email = models.NormalizeUsername(r.Email)
	r.Password = strings.TrimSpace(r.Password)
	if r.Email == "" || r.Password == "" {
		return badRequest("Email and password required")
	}
	return nil
}

// ProfileRequest is the profile update body
type ProfileRequest struct {
	UserID            string  `json:"userId"`
	Username          *string `json:"username"`
	Password          *string `json:"password"`
	ProfilePictureURL *string `json:"profilePictureUrl"`
}

// withToken issues a session token for user
func (h *Handler) withToken(user models.User) (models.PublicUser, error) {
	out := user.Public()
	token, err := h.tokens.Issue(user)
	if err != nil {
		return models.PublicUser{}, err
	}
	out.Token = token
	return out, nil
}

// Signup handles POST /api/auth/signup
func (h *Handler) Signup(c *gin.Context) {
	var req CredentialsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, badRequest("Invalid request body"), "")
		return
	}
	if err := req.normalize(); err != nil {
		respondError(c, err, "")
		return
	}

	hash, err := auth.HashPassword(req.Password)
	if err != nil {
		respondError(c, err, "Failed to sign up")
		return
	}

	user, err := h.store.CreateUser(c.Request.Context(), models.NewUser{
		Username:     req.Email,
		PasswordHash: hash,
		Role:         models.RoleFor(req.Email, h.opts.AdminEmail),
	})
	if errors.Is(err, storage.ErrConflict) {
		respondError(c, &apiError{status: http.StatusConflict, kind: KindConflict, message: "User already exists"}, "")
		return
	}
	if err != nil {
		respondError(c, err, "Failed to sign up")
		return
	}

	out, err := h.withToken(user)
	if err != nil {
		respondError(c, err, "Failed to sign up")
		return
	}

	h.publish(c.Request.Context(), events.SubjectUserCreated, user.Public())
	c.JSON(http.StatusCreated, out)
}

// Signin handles POST /api/auth/signin
func (h *Handler) Signin(c *gin.Context) {
	var req CredentialsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, badRequest("Invalid request body"), "")
		return
	}
	if err := req.normalize(); err != nil {
		respondError(c, err, "")
		return
	}

	user, err := h.store.GetUserByUsername(c.Request.Context(), req.Email)
	if errors.Is(err, storage.ErrNotFound) {
		respondError(c, unauthorized("Invalid credentials"), "")
		return
	}
	if err != nil {
		respondError(c, err, "Failed to sign in")
		return
	}
	if err := auth.CheckPassword(req.Password, user.PasswordHash); err != nil {
		respondError(c, unauthorized("Invalid credentials"), "")
		return
	}

	out, err := h.withToken(user)
	if err != nil {
		respondError(c, err, "Failed to sign in")
		return
	}
	c.JSON(http.StatusOK, out)
}

// Me handles GET /api/auth/me. Without a resolvable caller it answers null.
func (h *Handler) Me(c *gin.Context) {
	userID := c.Query("userId")
	id, err := h.caller(c, &userID)
	if err != nil {
		respondError(c, err, "Failed to fetch user")
		return
	}
	if id.Anonymous() {
		c.JSON(http.StatusOK, nil)
		return
	}

	user, err := h.store.GetUser(c.Request.Context(), id.UserID)
	if errors.Is(err, storage.ErrNotFound) {
		c.JSON(http.StatusOK, nil)
		return
	}
	if err != nil {
		respondError(c, err, "Failed to fetch user")
		return
	}
	c.JSON(http.StatusOK, user.Public())
}

// UpdateProfile handles PATCH /api/user/profile
func (h *Handler) UpdateProfile(c *gin.Context) {
	var req ProfileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, badRequest("Invalid request body"), "")
		return
	}

	target := req.UserID
	if token, ok := auth.FromContext(c); ok {
		if target == "" {
			target = token.UserID
		}
		if target != token.UserID && !token.IsAdmin() {
			respondError(c, forbidden("Cannot update another user's profile"), "")
			return
		}
	} else if !h.opts.AllowAssertedIdentity {
		respondError(c, unauthorized("Authentication required"), "")
		return
	}
	if target == "" {
		respondError(c, badRequest("User ID required"), "")
		return
	}

	update, err := req.toUpdate()
	if err != nil {
		respondError(c, err, "")
		return
	}
	if err := h.checkReservedUsername(c, target, update); err != nil {
		respondError(c, err, "Failed to update profile")
		return
	}

	user, err := h.store.UpdateUser(c.Request.Context(), target, update)
	if errors.Is(err, storage.ErrConflict) {
		respondError(c, &apiError{status: http.StatusConflict, kind: KindConflict, message: "Username already taken"}, "")
		return
	}
	if err != nil {
		respondError(c, err, "Failed to update profile")
		return
	}

	h.publish(c.Request.Context(), events.SubjectUserUpdated, user.Public())
	c.JSON(http.StatusOK, user.Public())
}

// checkReservedUsername refuses a rename onto the admin address unless the
// target already holds the admin role. The role is only granted at signup,
// so the rename would otherwise lock the real admin out.
func (h *Handler) checkReservedUsername(c *gin.Context, target string, update models.UserUpdate) error {
	if update.Username == nil || models.RoleFor(*update.Username, h.opts.AdminEmail) != models.RoleAdmin {
		return nil
	}
	user, err := h.store.GetUser(c.Request.Context(), target)
	if err != nil {
		return err
	}
	if user.Role != models.RoleAdmin {
		return forbidden("Username is reserved")
	}
	return nil
}

// toUpdate validates the body and converts it into a storage update
func (r ProfileRequest) toUpdate() (models.UserUpdate, error) {
	var update models.UserUpdate

	if r.Username != nil {
		name := models.NormalizeUsername(*r.Username)
		if name == "" {
			return update, badRequest("Username cannot be empty")
		}
		update.Username = &name
	}

	if r.Password != nil {
		password := strings.TrimSpace(*r.Password)
		if password == "" {
			return update, badRequest("Password cannot be empty")
		}
		hash, err := auth.HashPassword(password)
		if err != nil {
			return update, err
		}
		update.PasswordHash = &hash
	}

	if r.ProfilePictureURL != nil {
		pic := strings.TrimSpace(*r.ProfilePictureURL)
		if pic != "" && !isHTTPURL(pic) {
			return update, badRequest("Profile picture must be an http(s) URL")
		}
		update.ProfilePictureURL = &pic
	}

	if update.Empty() {
		return update, badRequest("No fields to update")
	}
	return update, nil
}

func isHTTPURL(s string) bool {
	u, err := url.Parse(s)
	if err != nil {
		return false
	}
	return (u.Scheme == "http" || u.Scheme == "https") && u.Host != ""
}
