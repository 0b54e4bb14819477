// Package handlers implements the JSON API on top of storage.Storage.
package handlers

import (
	"context"
	"errors"
	"log"
	"net/http"

	"github.com/getstreetcred/backend/auth"
	"github.com/getstreetcred/backend/events"
	"github.com/getstreetcred/backend/storage"
	"github.com/gin-gonic/gin"
)

// Options tune authorization behaviour
type Options struct {
	// AdminEmail is the one username granted the admin role at signup
	AdminEmail string
	// AllowAssertedIdentity trusts a body/query userId when no bearer token
	// is sent. The role always comes from the stored user.
	AllowAssertedIdentity bool
}

// Handler serves the API
type Handler struct {
	store  storage.Storage
	tokens *auth.Tokens
	events events.Publisher
	opts   Options
}

// New creates a Handler. A nil publisher drops events.
func New(store storage.Storage, tokens *auth.Tokens, publisher events.Publisher, opts Options) *Handler {
	if publisher == nil {
		publisher = events.Nop{}
	}
	return &Handler{store: store, tokens: tokens, events: publisher, opts: opts}
}

// RegisterRoutes mounts every endpoint under api (normally /api)
func RegisterRoutes(api *gin.RouterGroup, h *Handler) {
	api.Use(auth.Middleware(h.tokens))

	api.POST("/auth/signup", h.Signup)
	api.POST("/auth/signin", h.Signin)
	api.GET("/auth/me", h.Me)
	api.PATCH("/user/profile", h.UpdateProfile)

	api.GET("/projects", h.GetProjects)
	api.GET("/projects/category/:category", h.GetProjectsByCategory)
	api.GET("/projects/:id", h.GetProject)
	api.POST("/projects", h.CreateProject)
	api.PATCH("/projects/:id", h.UpdateProject)
	api.DELETE("/projects/:id", h.DeleteProject)
	api.PATCH("/projects/:id/feature", h.FeatureProject)
	api.GET("/projects/:id/ratings", h.GetProjectRatings)
	api.GET("/featured-project", h.GetFeaturedProject)
	api.GET("/user-projects/:userId", h.GetUserProjects)

	api.POST("/ratings", h.SubmitRating)

	api.POST("/seed-projects", h.SeedProjects)
}

// Error kinds returned in the "kind" field of every error body
const (
	KindValidation    = "validation"
	KindUnauthorized  = "unauthorized"
	KindForbidden     = "forbidden"
	KindNotFound      = "not_found"
	KindConflict      = "conflict"
	KindNotConfigured = "not_configured"
	KindBackend       = "backend"
)

// apiError is an error raised by the API layer itself
type apiError struct {
	status  int
	kind    string
	message string
}

func (e *apiError) Error() string {
	return e.message
}

func badRequest(msg string) error {
	return &apiError{status: http.StatusBadRequest, kind: KindValidation, message: msg}
}

func unauthorized(msg string) error {
	return &apiError{status: http.StatusUnauthorized, kind: KindUnauthorized, message: msg}
}

func forbidden(msg string) error {
	return &apiError{status: http.StatusForbidden, kind: KindForbidden, message: msg}
}

func notFound(msg string) error {
	return &apiError{status: http.StatusNotFound, kind: KindNotFound, message: msg}
}

// respondError writes {error, kind}. Backend failures are logged and
// answered with the generic fallback message.
func respondError(c *gin.Context, err error, fallback string) {
	var apiErr *apiError
	if errors.As(err, &apiErr) {
		c.JSON(apiErr.status, gin.H{"error": apiErr.message, "kind": apiErr.kind})
		return
	}

	status, kind, msg := http.StatusInternalServerError, KindBackend, fallback
	switch {
	case errors.Is(err, storage.ErrValidation):
		status, kind, msg = http.StatusBadRequest, KindValidation, err.Error()
	case errors.Is(err, storage.ErrNotFound):
		status, kind, msg = http.StatusNotFound, KindNotFound, err.Error()
	case errors.Is(err, storage.ErrConflict):
		status, kind, msg = http.StatusConflict, KindConflict, err.Error()
	case errors.Is(err, storage.ErrNotConfigured):
		status, kind, msg = http.StatusServiceUnavailable, KindNotConfigured, "Storage backend not configured"
	}

	if status >= http.StatusInternalServerError {
		log.Printf("❌ %s %s: %v", c.Request.Method, c.FullPath(), err)
	}
	c.JSON(status, gin.H{"error": msg, "kind": kind})
}

// publish sends an event; failures never fail the request
func (h *Handler) publish(ctx context.Context, subject string, data interface{}) {
	if err := h.events.Publish(ctx, subject, data); err != nil {
		log.Printf("⚠️  Failed to publish %s: %v", subject, err)
	}
}
