package api

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"crane-booking-backend/internal/apperr"
	"crane-booking-backend/internal/booking"
	"crane-booking-backend/internal/model"
	"crane-booking-backend/internal/mw"
	"crane-booking-backend/internal/schedule"
	"crane-booking-backend/internal/store"
)

type joinWaitingListRequest struct {
	ResourceID      int64               `json:"resourceId" binding:"required"`
	Date            string              `json:"date" binding:"required"`
	SlotCount       int                 `json:"slotCount" binding:"omitempty,min=1"`
	TZOffsetMinutes int                 `json:"tzOffsetMinutes"`
	LoadProfileID   *int64              `json:"loadProfileId"`
	Load            *model.LoadSnapshot `json:"load"`
	Purpose         string              `json:"purpose" binding:"max=512"`
}

// JoinWaitingList handles POST /api/waiting-list.
func (h *Handler) JoinWaitingList(c *gin.Context) {
	var req joinWaitingListRequest
	if !bindJSON(c, &req) {
		return
	}
	date, err := schedule.ParseDate(req.Date)
	if err != nil {
		respondError(c, err)
		return
	}
	if req.SlotCount == 0 {
		req.SlotCount = 1
	}
	offset, err := schedule.OffsetMinutes(int64(req.TZOffsetMinutes))
	if err != nil {
		respondError(c, err)
		return
	}
	entry, err := h.engine.JoinWaitingList(c.Request.Context(), mw.ActorFrom(c), booking.JoinRequest{
		ResourceID:    req.ResourceID,
		Date:          date,
		SlotCount:     req.SlotCount,
		TZOffset:      offset,
		LoadProfileID: req.LoadProfileID,
		Load:          req.Load,
		Purpose:       req.Purpose,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, entry)
}

// ListWaitingList handles GET /api/waiting-list?resource_id=&date=&consumed=.
func (h *Handler) ListWaitingList(c *gin.Context) {
	resourceID, err := queryInt64(c, "resource_id")
	if err != nil {
		respondError(c, err)
		return
	}
	q := store.WaitingQuery{
		ResourceID:    resourceID,
		RequestedDate: c.Query("date"),
		RequesterID:   c.Query("requester_id"),
	}
	if raw := c.Query("consumed"); raw != "" {
		consumed, err := strconv.ParseBool(raw)
		if err != nil {
			respondError(c, apperr.Validation("invalid consumed %q", raw))
			return
		}
		q.Consumed = &consumed
	}
	entries, err := h.engine.ListWaitingList(c.Request.Context(), mw.ActorFrom(c), q)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, entries)
}

// PromoteWaitingEntry handles POST /api/waiting-list/:id/promote.
func (h *Handler) PromoteWaitingEntry(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	var req moveRequest
	if !bindJSON(c, &req) {
		return
	}
	iv, err := schedule.NewInterval(req.Start, req.End)
	if err != nil {
		respondError(c, err)
		return
	}
	r, err := h.engine.PromoteWaitingEntry(c.Request.Context(), mw.ActorFrom(c), id, req.ResourceID, iv)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, r)
}
