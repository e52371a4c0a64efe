package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"crane-booking-backend/internal/model"
	"crane-booking-backend/internal/mw"
)

type loadProfileRequest struct {
	Name string             `json:"name" binding:"required,max=128"`
	Load model.LoadSnapshot `json:"load"`
}

// ListLoadProfiles handles GET /api/load-profiles.
func (h *Handler) ListLoadProfiles(c *gin.Context) {
	profiles, err := h.engine.ListLoadProfiles(c.Request.Context(), mw.ActorFrom(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, profiles)
}

// CreateLoadProfile handles POST /api/load-profiles.
func (h *Handler) CreateLoadProfile(c *gin.Context) {
	var req loadProfileRequest
	if !bindJSON(c, &req) {
		return
	}
	p, err := h.engine.SaveLoadProfile(c.Request.Context(), mw.ActorFrom(c), req.Name, req.Load)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, p)
}
