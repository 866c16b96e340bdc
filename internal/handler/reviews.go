package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/lobsterwork/lobsterwork/internal/domain"
	"github.com/lobsterwork/lobsterwork/internal/middleware"
)

type createReviewRequest struct {
	TaskID     string  `json:"task_id"`
	RevieweeID string  `json:"reviewee_id"`
	Rating     int     `json:"rating"`
	Comment    *string `json:"comment"`
}

func (h *Handler) handleCreateReview(c *gin.Context) {
	var req createReviewRequest
	if !bindJSON(c, &req) {
		return
	}

	review, err := h.reviews.Create(c.Request.Context(), middleware.GetUser(c), domain.CreateReviewInput{
		TaskID:     req.TaskID,
		RevieweeID: req.RevieweeID,
		Rating:     req.Rating,
		Comment:    req.Comment,
	})
	if err != nil {
		h.writeError(c, err, "Failed to create review")
		return
	}
	c.JSON(http.StatusCreated, gin.H{"review": review})
}

func (h *Handler) handleListReviews(c *gin.Context) {
	reviews, err := h.reviews.ListForProfile(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.writeError(c, err, "Failed to list reviews")
		return
	}
	c.JSON(http.StatusOK, gin.H{"reviews": reviews})
}
