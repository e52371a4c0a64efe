package booking

import (
	"context"
	"sort"
	"time"

	"crane-booking-backend/internal/apperr"
	"crane-booking-backend/internal/model"
	"crane-booking-backend/internal/store"
)

// MaxCalendarSpan bounds one calendar query.
const MaxCalendarSpan = 62 * 24 * time.Hour

// EventKind tells reservations and maintenance blocks apart in a calendar.
type EventKind string

const (
	KindReservation EventKind = "reservation"
	KindMaintenance EventKind = "maintenance"
)

// CalendarEvent is one entry of a calendar view. Reservations of other
// requesters only show their interval.
type CalendarEvent struct {
	Kind        EventKind               `json:"kind"`
	ID          int64                   `json:"id"`
	ResourceID  int64                   `json:"resourceId"`
	Start       time.Time               `json:"start"`
	End         time.Time               `json:"end"`
	Title       string                  `json:"title"`
	Status      model.ReservationStatus `json:"status,omitempty"`
	Mine        bool                    `json:"mine"`
	Reservation *model.Reservation      `json:"reservation,omitempty"`
}

// CalendarFilter selects calendar events.
type CalendarFilter struct {
	ResourceID  int64
	From        time.Time
	To          time.Time
	Statuses    []model.ReservationStatus
	RequesterID string
}

var defaultCalendarStatuses = []model.ReservationStatus{
	model.StatusPending, model.StatusApproved, model.StatusCompleted,
}

// ListCalendarEvents returns reservations and maintenance blocks
// intersecting [f.From, f.To), ordered by start.
func (e *Engine) ListCalendarEvents(ctx context.Context, actor Actor, f CalendarFilter) ([]CalendarEvent, error) {
	if err := requireActor(actor); err != nil {
		return nil, err
	}
	if f.From.IsZero() || f.To.IsZero() || !f.To.After(f.From) {
		return nil, apperr.Validation("a range with to after from is required")
	}
	if f.To.Sub(f.From) > MaxCalendarSpan {
		return nil, apperr.Validation("calendar range may not exceed %d days", int(MaxCalendarSpan.Hours()/24))
	}
	statuses := f.Statuses
	if len(statuses) == 0 {
		statuses = defaultCalendarStatuses
	}
	for _, s := range statuses {
		if !s.Valid() {
			return nil, apperr.Validation("unknown status %q", s)
		}
	}

	window := store.WindowQuery{ResourceID: f.ResourceID, From: f.From, To: f.To}
	reservations, err := e.store.FindReservations(ctx, store.ReservationQuery{
		WindowQuery: window,
		RequesterID: f.RequesterID,
		Statuses:    statuses,
	})
	if err != nil {
		return nil, err
	}
	blocks, err := e.store.FindMaintenanceBlocks(ctx, window)
	if err != nil {
		return nil, err
	}

	events := make([]CalendarEvent, 0, len(reservations)+len(blocks))
	for i := range reservations {
		events = append(events, reservationEvent(actor, &reservations[i]))
	}
	for _, b := range blocks {
		title := b.Description
		if title == "" {
			title = "Maintenance"
		}
		events = append(events, CalendarEvent{
			Kind:       KindMaintenance,
			ID:         b.ID,
			ResourceID: b.ResourceID,
			Start:      b.StartAt,
			End:        b.EndAt,
			Title:      title,
		})
	}
	sort.SliceStable(events, func(i, j int) bool {
		if !events[i].Start.Equal(events[j].Start) {
			return events[i].Start.Before(events[j].Start)
		}
		return events[i].ResourceID < events[j].ResourceID
	})
	return events, nil
}

func reservationEvent(actor Actor, r *model.Reservation) CalendarEvent {
	ev := CalendarEvent{
		Kind:       KindReservation,
		ID:         r.ID,
		ResourceID: r.ResourceID,
		Start:      r.StartAt,
		End:        r.EndAt,
		Status:     r.Status,
		Mine:       actor.owns(r.RequesterID),
		Title:      "Reserved",
	}
	if r.IsMaintenance {
		ev.Title = "Maintenance"
	}
	if ev.Mine || actor.IsAdmin() {
		switch {
		case r.Purpose != "":
			ev.Title = r.Purpose
		case r.Load.VesselType != "":
			ev.Title = r.Load.VesselType
		}
		ev.Reservation = r
	}
	return ev
}
