package booking

import (
	"context"

	"crane-booking-backend/internal/apperr"
	"crane-booking-backend/internal/model"
	"crane-booking-backend/internal/schedule"
	"crane-booking-backend/internal/store"
)

// RescheduleReservation moves an active reservation to iv, optionally onto
// another resource (resourceID 0 keeps the current one). On any failure the
// reservation is left untouched.
func (e *Engine) RescheduleReservation(ctx context.Context, actor Actor, id, resourceID int64, iv schedule.Interval) (*model.Reservation, error) {
	if err := requireAdmin(actor, "reschedule reservations"); err != nil {
		return nil, err
	}
	if err := e.validateInterval(iv); err != nil {
		return nil, err
	}
	settings, err := e.snapshot(ctx)
	if err != nil {
		return nil, err
	}

	var moved *model.Reservation
	err = e.store.InTx(ctx, func(tx store.Store) error {
		r, err := tx.GetReservation(ctx, id)
		if err != nil {
			return translate(err, "reservation", id)
		}
		target := resourceID
		if target == 0 {
			target = r.ResourceID
		}
		// Both the source and the target are locked, in id order.
		locked, err := tx.LockResources(ctx, r.ResourceID, target)
		if err != nil {
			return translate(err, "resource", target)
		}
		r, err = tx.GetReservation(ctx, id)
		if err != nil {
			return translate(err, "reservation", id)
		}
		if !r.Status.Active() {
			return apperr.State("cannot reschedule a %s reservation", r.Status)
		}
		if _, ok := locked[r.ResourceID]; !ok {
			return apperr.State("reservation %d was moved concurrently; retry", id)
		}
		if err := checkBookable(locked[target], r.Load, r.IsMaintenance); err != nil {
			return err
		}
		if err := e.checkFree(ctx, tx, target, iv, r.ID, settings, "reschedule"); err != nil {
			return err
		}
		if err := tx.MoveReservation(ctx, id, model.ActiveStatuses, target, iv.Start, iv.End); err != nil {
			return translate(err, "reservation", id)
		}
		r.ResourceID = target
		r.StartAt = iv.Start.UTC()
		r.EndAt = iv.End.UTC()
		moved = r
		return nil
	})
	if err != nil {
		return nil, err
	}

	e.metrics.Transition("rescheduled")
	e.publishReservation(EventRescheduled, moved)
	return moved, nil
}
