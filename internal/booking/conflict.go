package booking

import (
	"context"
	"fmt"
	"time"

	"crane-booking-backend/internal/apperr"
	"crane-booking-backend/internal/model"
	"crane-booking-backend/internal/schedule"
	"crane-booking-backend/internal/store"
)

// holds is what a candidate on one resource must stay clear of.
type holds struct {
	reservations []model.Reservation
	blocks       []model.MaintenanceBlock
	buffer       time.Duration
}

// loadHolds fetches the active reservations and maintenance blocks that could
// collide with any candidate inside span.
func loadHolds(ctx context.Context, st store.Store, resourceID int64, span schedule.Interval, excludeID int64, buffer time.Duration) (holds, error) {
	reservations, err := st.FindReservations(ctx, store.ReservationQuery{
		WindowQuery: store.WindowQuery{
			ResourceID: resourceID,
			From:       span.Start.Add(-buffer),
			To:         span.End,
		},
		Statuses:  model.ActiveStatuses,
		ExcludeID: excludeID,
	})
	if err != nil {
		return holds{}, err
	}
	blocks, err := st.FindMaintenanceBlocks(ctx, store.WindowQuery{
		ResourceID: resourceID,
		From:       span.Start,
		To:         span.End,
	})
	if err != nil {
		return holds{}, err
	}
	return holds{reservations: reservations, blocks: blocks, buffer: buffer}, nil
}

// collision describes what iv runs into, or "" when iv is free.
// Reservations are widened by the buffer at their end; maintenance blocks are not.
func (h holds) collision(iv schedule.Interval) string {
	for _, b := range h.blocks {
		if iv.Overlaps(schedule.Interval{Start: b.StartAt, End: b.EndAt}) {
			return fmt.Sprintf("maintenance block #%d", b.ID)
		}
	}
	for i := range h.reservations {
		r := &h.reservations[i]
		if schedule.CollidesWithHold(iv, intervalOf(r), h.buffer) {
			return fmt.Sprintf("reservation #%d", r.ID)
		}
	}
	return ""
}

// Overlaps reports whether iv on resourceID collides with an active
// reservation (other than excludeID) or a maintenance block. It takes no
// lock; the answer may be stale by the time the caller acts on it.
func (e *Engine) Overlaps(ctx context.Context, resourceID int64, iv schedule.Interval, excludeID int64) (bool, error) {
	settings, err := e.snapshot(ctx)
	if err != nil {
		return false, err
	}
	h, err := loadHolds(ctx, e.store, resourceID, iv, excludeID, settings.Buffer())
	if err != nil {
		return false, err
	}
	return h.collision(iv) != "", nil
}

// checkFree is the commit-time overlap check. Callers hold the resource lock.
func (e *Engine) checkFree(ctx context.Context, tx store.Store, resourceID int64, iv schedule.Interval, excludeID int64, s schedule.Settings, operation string) error {
	h, err := loadHolds(ctx, tx, resourceID, iv, excludeID, s.Buffer())
	if err != nil {
		return err
	}
	if what := h.collision(iv); what != "" {
		e.metrics.Conflict(operation)
		return apperr.Conflict("%s to %s overlaps %s; pick another slot",
			iv.Start.Format(time.RFC3339), iv.End.Format(time.RFC3339), what).
			WithDetail("resourceId", fmt.Sprint(resourceID))
	}
	return nil
}
