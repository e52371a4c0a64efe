package api

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"crane-booking-backend/internal/booking"
	"crane-booking-backend/internal/model"
	"crane-booking-backend/internal/mw"
	"crane-booking-backend/internal/schedule"
	"crane-booking-backend/internal/store"
)

type createReservationRequest struct {
	ResourceID    int64               `json:"resourceId" binding:"required"`
	Start         time.Time           `json:"start" binding:"required"`
	End           time.Time           `json:"end" binding:"required"`
	LoadProfileID *int64              `json:"loadProfileId"`
	Load          *model.LoadSnapshot `json:"load"`
	Purpose       string              `json:"purpose" binding:"max=512"`
	IsMaintenance bool                `json:"isMaintenance"`
}

// CreateReservation handles POST /api/reservations.
func (h *Handler) CreateReservation(c *gin.Context) {
	var req createReservationRequest
	if !bindJSON(c, &req) {
		return
	}
	iv, err := schedule.NewInterval(req.Start, req.End)
	if err != nil {
		respondError(c, err)
		return
	}
	r, err := h.engine.CreateReservation(c.Request.Context(), mw.ActorFrom(c), booking.CreateRequest{
		ResourceID:    req.ResourceID,
		Interval:      iv,
		LoadProfileID: req.LoadProfileID,
		Load:          req.Load,
		Purpose:       req.Purpose,
		IsMaintenance: req.IsMaintenance,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, r)
}

// ListReservations handles GET /api/reservations?resource_id=&from=&to=&status=&requester_id=.
func (h *Handler) ListReservations(c *gin.Context) {
	q, err := reservationQuery(c)
	if err != nil {
		respondError(c, err)
		return
	}
	reservations, err := h.engine.ListReservations(c.Request.Context(), mw.ActorFrom(c), q)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, reservations)
}

func reservationQuery(c *gin.Context) (store.ReservationQuery, error) {
	resourceID, err := queryInt64(c, "resource_id")
	if err != nil {
		return store.ReservationQuery{}, err
	}
	from, err := queryTime(c, "from")
	if err != nil {
		return store.ReservationQuery{}, err
	}
	to, err := queryTime(c, "to")
	if err != nil {
		return store.ReservationQuery{}, err
	}
	return store.ReservationQuery{
		WindowQuery: store.WindowQuery{ResourceID: resourceID, From: from, To: to},
		RequesterID: c.Query("requester_id"),
		Statuses:    queryStatuses(c),
	}, nil
}

// GetReservation handles GET /api/reservations/:id.
func (h *Handler) GetReservation(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	r, err := h.engine.GetReservation(c.Request.Context(), mw.ActorFrom(c), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, r)
}

type noteRequest struct {
	Note   string `json:"note" binding:"max=1024"`
	Reason string `json:"reason" binding:"max=1024"`
}

// ApproveReservation handles POST /api/reservations/:id/approve.
func (h *Handler) ApproveReservation(c *gin.Context) {
	h.decide(c, func(c *gin.Context, id int64, req noteRequest) (*model.Reservation, error) {
		return h.engine.ApproveReservation(c.Request.Context(), mw.ActorFrom(c), id, req.Note)
	})
}

// RejectReservation handles POST /api/reservations/:id/reject.
func (h *Handler) RejectReservation(c *gin.Context) {
	h.decide(c, func(c *gin.Context, id int64, req noteRequest) (*model.Reservation, error) {
		return h.engine.RejectReservation(c.Request.Context(), mw.ActorFrom(c), id, req.Note)
	})
}

// CancelReservation handles POST /api/reservations/:id/cancel.
func (h *Handler) CancelReservation(c *gin.Context) {
	h.decide(c, func(c *gin.Context, id int64, req noteRequest) (*model.Reservation, error) {
		return h.engine.CancelReservation(c.Request.Context(), mw.ActorFrom(c), id, req.Reason)
	})
}

// CompleteReservation handles POST /api/reservations/:id/complete.
func (h *Handler) CompleteReservation(c *gin.Context) {
	h.decide(c, func(c *gin.Context, id int64, _ noteRequest) (*model.Reservation, error) {
		return h.engine.CompleteReservation(c.Request.Context(), mw.ActorFrom(c), id)
	})
}

func (h *Handler) decide(c *gin.Context, fn func(*gin.Context, int64, noteRequest) (*model.Reservation, error)) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	var req noteRequest
	if !bindOptionalJSON(c, &req) {
		return
	}
	r, err := fn(c, id, req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, r)
}

type moveRequest struct {
	ResourceID int64     `json:"resourceId"`
	Start      time.Time `json:"start" binding:"required"`
	End        time.Time `json:"end" binding:"required"`
}

// RescheduleReservation handles POST /api/reservations/:id/reschedule.
func (h *Handler) RescheduleReservation(c *gin.Context) {
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
	r, err := h.engine.RescheduleReservation(c.Request.Context(), mw.ActorFrom(c), id, req.ResourceID, iv)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, r)
}
