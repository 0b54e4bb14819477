package handlers

import (
	"net/http"

	"github.com/getstreetcred/backend/auth"
	"github.com/getstreetcred/backend/events"
	"github.com/getstreetcred/backend/models"
	"github.com/gin-gonic/gin"
)

// RatingRequest is the POST /api/ratings body
type RatingRequest struct {
	ProjectID string  `json:"projectId" binding:"required"`
	UserID    string  `json:"userId"`
	Rating    int     `json:"rating" binding:"required,min=1,max=5"`
	Review    *string `json:"review"`
}

// RatingResponse pairs the new rating with the recomputed project
type RatingResponse struct {
	Rating         models.Rating  `json:"rating"`
	UpdatedProject models.Project `json:"updatedProject"`
}

// SubmitRating handles POST /api/ratings
func (h *Handler) SubmitRating(c *gin.Context) {
	var req RatingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, badRequest("Invalid rating data: "+err.Error()), "")
		return
	}

	userID := req.UserID
	if token, ok := auth.FromContext(c); ok {
		if userID == "" {
			userID = token.UserID
		}
		if userID != token.UserID {
			respondError(c, forbidden("Cannot rate on behalf of another user"), "")
			return
		}
	} else if !h.opts.AllowAssertedIdentity {
		respondError(c, unauthorized("Authentication required"), "")
		return
	}
	if userID == "" {
		respondError(c, badRequest("Invalid rating data: userId is required"), "")
		return
	}

	ctx := c.Request.Context()
	rating, project, err := h.store.SubmitRating(ctx, models.RatingInput{
		ProjectID: req.ProjectID,
		UserID:    userID,
		Rating:    req.Rating,
		Review:    req.Review,
	})
	if err != nil {
		respondError(c, err, "Failed to submit rating")
		return
	}

	resp := RatingResponse{Rating: rating, UpdatedProject: project}
	h.publish(ctx, events.SubjectRatingSubmitted, resp)
	c.JSON(http.StatusCreated, resp)
}

// GetProjectRatings handles GET /api/projects/:id/ratings
func (h *Handler) GetProjectRatings(c *gin.Context) {
	ratings, err := h.store.GetRatingsForProject(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err, "Failed to fetch ratings")
		return
	}
	c.JSON(http.StatusOK, ratings)
}
