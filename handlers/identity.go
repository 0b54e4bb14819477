package handlers

import (
	"errors"

	"github.com/getstreetcred/backend/auth"
	"github.com/getstreetcred/backend/models"
	"github.com/getstreetcred/backend/storage"
	"github.com/gin-gonic/gin"
)

// caller resolves who is making the request. A bearer token wins; without
// one an asserted userId is looked up when allowed, and an unknown user is
// treated as anonymous. The role is never taken from the request body.
func (h *Handler) caller(c *gin.Context, asserted *string) (auth.Identity, error) {
	if id, ok := auth.FromContext(c); ok {
		return id, nil
	}
	if !h.opts.AllowAssertedIdentity || asserted == nil || *asserted == "" {
		return auth.Identity{}, nil
	}

	user, err := h.store.GetUser(c.Request.Context(), *asserted)
	if errors.Is(err, storage.ErrNotFound) {
		return auth.Identity{}, nil
	}
	if err != nil {
		return auth.Identity{}, err
	}
	return auth.Identity{UserID: user.ID, Role: user.Role}, nil
}

// canModify reports whether id may change or delete project
func canModify(id auth.Identity, project models.Project) bool {
	if id.IsAdmin() {
		return true
	}
	return !id.Anonymous() && project.UserID != nil && *project.UserID == id.UserID
}

// ownerOf returns the owner recorded for a project created by id
func ownerOf(id auth.Identity) *string {
	if id.Anonymous() {
		return nil
	}
	owner := id.UserID
	return &owner
}
