package api

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"crane-booking-backend/internal/apperr"
	"crane-booking-backend/internal/booking"
	"crane-booking-backend/internal/mw"
	"crane-booking-backend/internal/schedule"
)

type resourceRequest struct {
	Name     string   `json:"name" binding:"required,max=128"`
	Capacity float64  `json:"capacity" binding:"gt=0"`
	MaxWidth *float64 `json:"maxWidth" binding:"omitempty,gt=0"`
}

func (r resourceRequest) input() booking.ResourceInput {
	return booking.ResourceInput{Name: r.Name, Capacity: r.Capacity, MaxWidth: r.MaxWidth}
}

// ListResources handles GET /api/resources. Inactive resources are listed
// with ?all=true.
func (h *Handler) ListResources(c *gin.Context) {
	resources, err := h.engine.ListResources(c.Request.Context(), c.Query("all") == "true")
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resources)
}

// CreateResource handles POST /api/resources.
func (h *Handler) CreateResource(c *gin.Context) {
	var req resourceRequest
	if !bindJSON(c, &req) {
		return
	}
	res, err := h.engine.CreateResource(c.Request.Context(), mw.ActorFrom(c), req.input())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, res)
}

// UpdateResource handles PATCH /api/resources/:id.
func (h *Handler) UpdateResource(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	var req resourceRequest
	if !bindJSON(c, &req) {
		return
	}
	res, err := h.engine.UpdateResource(c.Request.Context(), mw.ActorFrom(c), id, req.input())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

// DeactivateResource handles POST /api/resources/:id/deactivate.
func (h *Handler) DeactivateResource(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	res, err := h.engine.DeactivateResource(c.Request.Context(), mw.ActorFrom(c), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

type slotsResponse struct {
	ResourceID int64               `json:"resourceId"`
	Date       string              `json:"date"`
	SlotCount  int                 `json:"slotCount"`
	Slots      []schedule.Interval `json:"slots"`
}

// GetSlots handles GET /api/resources/:id/slots?date=YYYY-MM-DD&slots=N&tz_offset=M.
// tz_offset is the requester's UTC offset in minutes.
func (h *Handler) GetSlots(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	date, err := schedule.ParseDate(c.Query("date"))
	if err != nil {
		respondError(c, err)
		return
	}
	slotCount := 1
	if raw := c.Query("slots"); raw != "" {
		if slotCount, err = strconv.Atoi(raw); err != nil {
			respondError(c, apperr.Validation("invalid slots %q", raw))
			return
		}
	}
	minutes, err := queryInt64(c, "tz_offset")
	if err != nil {
		respondError(c, err)
		return
	}
	offset, err := schedule.OffsetMinutes(minutes)
	if err != nil {
		respondError(c, err)
		return
	}

	free, err := h.engine.AvailableSlots(c.Request.Context(), id, date, slotCount, offset)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, slotsResponse{ResourceID: id, Date: date.String(), SlotCount: slotCount, Slots: free})
}

type maintenanceRequest struct {
	Start       time.Time `json:"start" binding:"required"`
	End         time.Time `json:"end" binding:"required"`
	Description string    `json:"description" binding:"max=512"`
}

// CreateMaintenance handles POST /api/resources/:id/maintenance.
func (h *Handler) CreateMaintenance(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	var req maintenanceRequest
	if !bindJSON(c, &req) {
		return
	}
	iv, err := schedule.NewInterval(req.Start, req.End)
	if err != nil {
		respondError(c, err)
		return
	}
	block, err := h.engine.CreateMaintenanceBlock(c.Request.Context(), mw.ActorFrom(c), id, iv, req.Description)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, block)
}

// DeleteMaintenance handles DELETE /api/maintenance/:id.
func (h *Handler) DeleteMaintenance(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	if err := h.engine.DeleteMaintenanceBlock(c.Request.Context(), mw.ActorFrom(c), id); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
