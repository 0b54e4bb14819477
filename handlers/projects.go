package handlers

import (
	"fmt"
	"net/http"

	"github.com/getstreetcred/backend/events"
	"github.com/getstreetcred/backend/models"
	"github.com/getstreetcred/backend/seed"
	"github.com/gin-gonic/gin"
)

// CreateProjectRequest is the POST /api/projects body. Any rating or
// ratingCount the client sends is ignored. completionYear must fall in
// 1000..2100 here and on update.
type CreateProjectRequest struct {
	UserID         *string `json:"userId"`
	Name           string  `json:"name" binding:"required"`
	Location       string  `json:"location" binding:"required"`
	Description    string  `json:"description" binding:"required"`
	ImageURL       string  `json:"imageUrl" binding:"required"`
	Category       string  `json:"category" binding:"required"`
	CompletionYear int     `json:"completionYear" binding:"required,gte=1000,lte=2100"`
}

func (r CreateProjectRequest) input() models.ProjectInput {
	return models.ProjectInput{
		Name:           r.Name,
		Location:       r.Location,
		Description:    r.Description,
		ImageURL:       r.ImageURL,
		Category:       r.Category,
		CompletionYear: r.CompletionYear,
	}
}

// UpdateProjectRequest is the PATCH /api/projects/:id body. Omitted fields
// keep their current value. userRole is accepted for compatibility and
// never consulted.
type UpdateProjectRequest struct {
	UserID         *string `json:"userId"`
	UserRole       string  `json:"userRole"`
	Name           *string `json:"name" binding:"omitempty,min=1"`
	Location       *string `json:"location" binding:"omitempty,min=1"`
	Description    *string `json:"description" binding:"omitempty,min=1"`
	ImageURL       *string `json:"imageUrl" binding:"omitempty,min=1"`
	Category       *string `json:"category" binding:"omitempty,min=1"`
	CompletionYear *int    `json:"completionYear" binding:"omitempty,gte=1000,lte=2100"`
}

// apply overlays the request on the current project
func (r UpdateProjectRequest) apply(p models.Project) models.ProjectInput {
	in := models.ProjectInput{
		Name:           p.Name,
		Location:       p.Location,
		Description:    p.Description,
		ImageURL:       p.ImageURL,
		Category:       p.Category,
		CompletionYear: p.CompletionYear,
	}
	if r.Name != nil {
		in.Name = *r.Name
	}
	if r.Location != nil {
		in.Location = *r.Location
	}
	if r.Description != nil {
		in.Description = *r.Description
	}
	if r.ImageURL != nil {
		in.ImageURL = *r.ImageURL
	}
	if r.Category != nil {
		in.Category = *r.Category
	}
	if r.CompletionYear != nil {
		in.CompletionYear = *r.CompletionYear
	}
	return in
}

// CallerRequest carries the asserted caller of delete and feature calls
type CallerRequest struct {
	UserID   *string `json:"userId"`
	UserRole string  `json:"userRole"`
}

// GetProjects handles GET /api/projects
func (h *Handler) GetProjects(c *gin.Context) {
	projects, err := h.store.GetProjects(c.Request.Context())
	if err != nil {
		respondError(c, err, "Failed to fetch projects")
		return
	}
	c.JSON(http.StatusOK, projects)
}

// GetProjectsByCategory handles GET /api/projects/category/:category
func (h *Handler) GetProjectsByCategory(c *gin.Context) {
	projects, err := h.store.GetProjectsByCategory(c.Request.Context(), c.Param("category"))
	if err != nil {
		respondError(c, err, "Failed to fetch projects")
		return
	}
	c.JSON(http.StatusOK, projects)
}

// GetUserProjects handles GET /api/user-projects/:userId
func (h *Handler) GetUserProjects(c *gin.Context) {
	projects, err := h.store.GetProjectsByUser(c.Request.Context(), c.Param("userId"))
	if err != nil {
		respondError(c, err, "Failed to fetch user projects")
		return
	}
	c.JSON(http.StatusOK, projects)
}

// GetProject handles GET /api/projects/:id
func (h *Handler) GetProject(c *gin.Context) {
	project, err := h.store.GetProjectByID(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err, "Failed to fetch project")
		return
	}
	c.JSON(http.StatusOK, project)
}

// CreateProject handles POST /api/projects
func (h *Handler) CreateProject(c *gin.Context) {
	var req CreateProjectRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, badRequest("Invalid project data: "+err.Error()), "")
		return
	}

	id, err := h.caller(c, req.UserID)
	if err != nil {
		respondError(c, err, "Failed to create project")
		return
	}

	project, err := h.store.CreateProject(c.Request.Context(), req.input(), ownerOf(id))
	if err != nil {
		respondError(c, err, "Failed to create project")
		return
	}

	h.publish(c.Request.Context(), events.SubjectProjectCreated, project)
	c.JSON(http.StatusCreated, project)
}

// UpdateProject handles PATCH /api/projects/:id
func (h *Handler) UpdateProject(c *gin.Context) {
	var req UpdateProjectRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, badRequest("Invalid project data: "+err.Error()), "")
		return
	}

	ctx := c.Request.Context()
	project, err := h.store.GetProjectByID(ctx, c.Param("id"))
	if err != nil {
		respondError(c, err, "Failed to update project")
		return
	}

	id, err := h.caller(c, req.UserID)
	if err != nil {
		respondError(c, err, "Failed to update project")
		return
	}
	if !canModify(id, project) {
		respondError(c, forbidden("You can only edit your own projects"), "")
		return
	}

	updated, err := h.store.UpdateProject(ctx, project.ID, req.apply(project))
	if err != nil {
		respondError(c, err, "Failed to update project")
		return
	}

	h.publish(ctx, events.SubjectProjectUpdated, updated)
	c.JSON(http.StatusOK, updated)
}

// DeleteProject handles DELETE /api/projects/:id
func (h *Handler) DeleteProject(c *gin.Context) {
	var req CallerRequest
	if err := bindOptionalJSON(c, &req); err != nil {
		respondError(c, err, "")
		return
	}

	ctx := c.Request.Context()
	project, err := h.store.GetProjectByID(ctx, c.Param("id"))
	if err != nil {
		respondError(c, err, "Failed to delete project")
		return
	}

	id, err := h.caller(c, req.UserID)
	if err != nil {
		respondError(c, err, "Failed to delete project")
		return
	}
	if !canModify(id, project) {
		respondError(c, forbidden("You can only delete your own projects"), "")
		return
	}

	if err := h.store.DeleteProject(ctx, project.ID); err != nil {
		respondError(c, err, "Failed to delete project")
		return
	}

	h.publish(ctx, events.SubjectProjectDeleted, gin.H{"id": project.ID})
	c.JSON(http.StatusOK, gin.H{"success": true})
}

// FeatureProject handles PATCH /api/projects/:id/feature (admin only)
func (h *Handler) FeatureProject(c *gin.Context) {
	var req CallerRequest
	if err := bindOptionalJSON(c, &req); err != nil {
		respondError(c, err, "")
		return
	}

	id, err := h.caller(c, req.UserID)
	if err != nil {
		respondError(c, err, "Failed to set featured project")
		return
	}
	if !id.IsAdmin() {
		respondError(c, forbidden("Only admins can set featured projects"), "")
		return
	}

	projectID := c.Param("id")
	if err := h.store.SetFeaturedProject(c.Request.Context(), projectID); err != nil {
		respondError(c, err, "Failed to set featured project")
		return
	}

	h.publish(c.Request.Context(), events.SubjectProjectFeatured, gin.H{"id": projectID})
	c.JSON(http.StatusOK, gin.H{"success": true})
}

// GetFeaturedProject handles GET /api/featured-project
func (h *Handler) GetFeaturedProject(c *gin.Context) {
	project, err := h.store.GetFeaturedProject(c.Request.Context())
	if err != nil {
		respondError(c, err, "Failed to fetch featured project")
		return
	}
	c.JSON(http.StatusOK, project)
}

// SeedProjects handles POST /api/seed-projects (admin only)
func (h *Handler) SeedProjects(c *gin.Context) {
	var req CallerRequest
	if err := bindOptionalJSON(c, &req); err != nil {
		respondError(c, err, "")
		return
	}

	id, err := h.caller(c, req.UserID)
	if err != nil {
		respondError(c, err, "Failed to seed projects")
		return
	}
	if !id.IsAdmin() {
		respondError(c, forbidden("Only admins can seed projects"), "")
		return
	}

	ctx := c.Request.Context()
	projects, err := seed.Insert(ctx, h.store, nil)
	if err != nil {
		respondError(c, err, "Failed to seed projects")
		return
	}
	for _, p := range projects {
		h.publish(ctx, events.SubjectProjectCreated, p)
	}

	c.JSON(http.StatusCreated, gin.H{
		"message":  fmt.Sprintf("Successfully seeded %d projects", len(projects)),
		"projects": projects,
	})
}

// bindOptionalJSON binds a body when one was sent
func bindOptionalJSON(c *gin.Context, obj interface{}) error {
	if c.Request.ContentLength == 0 {
		return nil
	}
	if err := c.ShouldBindJSON(obj); err != nil {
		return badRequest("Invalid request body")
	}
	return nil
}
