package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/lobsterwork/lobsterwork/internal/domain"
	"github.com/lobsterwork/lobsterwork/internal/middleware"
)

// handleGetOwnProfile serves the profile the user loader attached, falling
// back to a store read when loading failed.
func (h *Handler) handleGetOwnProfile(c *gin.Context) {
	if profile := middleware.GetProfile(c); profile != nil {
		c.JSON(http.StatusOK, gin.H{"profile": profile})
		return
	}
	profile, err := h.profiles.Get(c.Request.Context(), middleware.GetUser(c).ID)
	if err != nil {
		h.writeError(c, err, "Failed to load profile")
		return
	}
	c.JSON(http.StatusOK, gin.H{"profile": profile})
}

func (h *Handler) handleGetProfile(c *gin.Context) {
	profile, err := h.profiles.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.writeError(c, err, "Failed to load profile")
		return
	}
	c.JSON(http.StatusOK, gin.H{"profile": profile})
}

type updateProfileRequest struct {
	DisplayName *string `json:"display_name"`
	Bio         *string `json:"bio"`
	AvatarURL   *string `json:"avatar_url"`
	UserType    *string `json:"user_type"`
}

func (h *Handler) handleUpdateProfile(c *gin.Context) {
	var req updateProfileRequest
	if !bindJSON(c, &req) {
		return
	}

	upd := domain.ProfileUpdate{
		DisplayName: req.DisplayName,
		Bio:         req.Bio,
		AvatarURL:   req.AvatarURL,
	}
	if req.UserType != nil {
		ut := domain.UserType(*req.UserType)
		upd.UserType = &ut
	}

	profile, err := h.profiles.Update(c.Request.Context(), middleware.GetUser(c), upd)
	if err != nil {
		h.writeError(c, err, "Failed to update profile")
		return
	}
	c.JSON(http.StatusOK, gin.H{"profile": profile})
}
