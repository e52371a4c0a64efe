package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"crane-booking-backend/internal/booking"
	"crane-booking-backend/internal/mw"
)

// GetCalendar handles GET /api/calendar?from=&to=&resource_id=&status=&requester_id=.
func (h *Handler) GetCalendar(c *gin.Context) {
	q, err := reservationQuery(c)
	if err != nil {
		respondError(c, err)
		return
	}
	events, err := h.engine.ListCalendarEvents(c.Request.Context(), mw.ActorFrom(c), booking.CalendarFilter{
		ResourceID:  q.ResourceID,
		From:        q.From,
		To:          q.To,
		Statuses:    q.Statuses,
		RequesterID: q.RequesterID,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, events)
}
