package booking

import (
	"context"
	"strings"

	"crane-booking-backend/internal/apperr"
	"crane-booking-backend/internal/model"
	"crane-booking-backend/internal/schedule"
	"crane-booking-backend/internal/store"
)

// CreateRequest describes a new booking.
type CreateRequest struct {
	ResourceID    int64
	Interval      schedule.Interval
	LoadProfileID *int64
	Load          *model.LoadSnapshot
	Purpose       string
	// IsMaintenance books the resource for the operator's own work. Admin only;
	// it skips the capacity check and is approved on creation.
	IsMaintenance bool
}

// CreateReservation books req.Interval for the actor. The reservation starts
// pending unless it is a maintenance booking.
func (e *Engine) CreateReservation(ctx context.Context, actor Actor, req CreateRequest) (*model.Reservation, error) {
	if err := requireActor(actor); err != nil {
		return nil, err
	}
	if req.IsMaintenance {
		if err := requireAdmin(actor, "book maintenance"); err != nil {
			return nil, err
		}
	}
	if err := e.validateInterval(req.Interval); err != nil {
		return nil, err
	}
	load, profileID, err := e.resolveLoad(ctx, actor, req.LoadProfileID, req.Load, req.IsMaintenance)
	if err != nil {
		return nil, err
	}
	settings, err := e.snapshot(ctx)
	if err != nil {
		return nil, err
	}

	r := &model.Reservation{
		ResourceID:    req.ResourceID,
		RequesterID:   actor.ID,
		StartAt:       req.Interval.Start.UTC(),
		EndAt:         req.Interval.End.UTC(),
		Status:        model.StatusPending,
		Load:          load,
		LoadProfileID: profileID,
		Purpose:       strings.TrimSpace(req.Purpose),
		IsMaintenance: req.IsMaintenance,
	}
	if req.IsMaintenance {
		r.Status = model.StatusApproved
	}

	err = e.store.InTx(ctx, func(tx store.Store) error {
		return e.insert(ctx, tx, r, settings, "create")
	})
	if err != nil {
		return nil, err
	}

	e.metrics.Transition(string(r.Status))
	e.publishReservation(EventCreated, r)
	return r, nil
}

// insert checks capacity and overlap under the resource lock, then writes r.
func (e *Engine) insert(ctx context.Context, tx store.Store, r *model.Reservation, s schedule.Settings, operation string) error {
	res, err := lockResource(ctx, tx, r.ResourceID)
	if err != nil {
		return err
	}
	if err := checkBookable(res, r.Load, r.IsMaintenance); err != nil {
		return err
	}
	if err := e.checkFree(ctx, tx, r.ResourceID, intervalOf(r), 0, s, operation); err != nil {
		return err
	}
	return tx.CreateReservation(ctx, r)
}

// lockReservation reads reservation id, locks its resource and reads it again
// so the returned record cannot change until the transaction ends.
func lockReservation(ctx context.Context, tx store.Store, id int64) (*model.Reservation, model.Resource, error) {
	r, err := tx.GetReservation(ctx, id)
	if err != nil {
		return nil, model.Resource{}, translate(err, "reservation", id)
	}
	res, err := lockResource(ctx, tx, r.ResourceID)
	if err != nil {
		return nil, model.Resource{}, err
	}
	locked, err := tx.GetReservation(ctx, id)
	if err != nil {
		return nil, model.Resource{}, translate(err, "reservation", id)
	}
	if locked.ResourceID != r.ResourceID {
		return nil, model.Resource{}, apperr.State("reservation %d was moved concurrently; retry", id)
	}
	return locked, res, nil
}

// ApproveReservation moves a pending reservation to approved after checking
// again that capacity and the interval still hold.
func (e *Engine) ApproveReservation(ctx context.Context, actor Actor, id int64, note string) (*model.Reservation, error) {
	if err := requireAdmin(actor, "approve reservations"); err != nil {
		return nil, err
	}
	settings, err := e.snapshot(ctx)
	if err != nil {
		return nil, err
	}

	var approved *model.Reservation
	err = e.store.InTx(ctx, func(tx store.Store) error {
		r, res, err := lockReservation(ctx, tx, id)
		if err != nil {
			return err
		}
		if r.Status != model.StatusPending {
			return apperr.State("cannot approve a %s reservation", r.Status)
		}
		if err := checkBookable(res, r.Load, r.IsMaintenance); err != nil {
			return err
		}
		if err := e.checkFree(ctx, tx, r.ResourceID, intervalOf(r), r.ID, settings, "approve"); err != nil {
			return err
		}
		change := store.StatusChange{To: model.StatusApproved, AdminNote: optional(note)}
		if err := tx.TransitionReservation(ctx, id, []model.ReservationStatus{model.StatusPending}, change); err != nil {
			return translate(err, "reservation", id)
		}
		r.Status = change.To
		r.AdminNote = change.AdminNote
		approved = r
		return nil
	})
	if err != nil {
		return nil, err
	}

	e.metrics.Transition(string(approved.Status))
	e.publishReservation(EventApproved, approved)
	return approved, nil
}

// RejectReservation refuses a pending reservation and frees its interval.
func (e *Engine) RejectReservation(ctx context.Context, actor Actor, id int64, note string) (*model.Reservation, error) {
	if err := requireAdmin(actor, "reject reservations"); err != nil {
		return nil, err
	}
	return e.transition(ctx, id, statusMove{
		from:   []model.ReservationStatus{model.StatusPending},
		change: store.StatusChange{To: model.StatusRejected, AdminNote: optional(note)},
		event:  EventRejected,
	})
}

// CancelReservation withdraws a pending or approved reservation. Requesters
// may cancel their own with a reason; admins may cancel any.
func (e *Engine) CancelReservation(ctx context.Context, actor Actor, id int64, reason string) (*model.Reservation, error) {
	if err := requireActor(actor); err != nil {
		return nil, err
	}
	reason = strings.TrimSpace(reason)
	return e.transition(ctx, id, statusMove{
		from:   model.ActiveStatuses,
		change: store.StatusChange{To: model.StatusCancelled, CancelReason: optional(reason)},
		event:  EventCancelled,
		authorize: func(r *model.Reservation) error {
			if actor.IsAdmin() {
				return nil
			}
			if !actor.owns(r.RequesterID) {
				return apperr.Forbidden("reservation %d belongs to another requester", r.ID)
			}
			if reason == "" {
				return apperr.Validation("a cancellation reason is required")
			}
			return nil
		},
	})
}

// CompleteReservation marks an approved reservation as done.
func (e *Engine) CompleteReservation(ctx context.Context, actor Actor, id int64) (*model.Reservation, error) {
	if err := requireAdmin(actor, "complete reservations"); err != nil {
		return nil, err
	}
	return e.transition(ctx, id, statusMove{
		from:   []model.ReservationStatus{model.StatusApproved},
		change: store.StatusChange{To: model.StatusCompleted},
		event:  EventCompleted,
	})
}

type statusMove struct {
	from      []model.ReservationStatus
	change    store.StatusChange
	event     EventType
	authorize func(r *model.Reservation) error
}

// transition applies a status change that needs no overlap check. A change
// that frees the interval flags the waiting list in the same transaction.
func (e *Engine) transition(ctx context.Context, id int64, t statusMove) (*model.Reservation, error) {
	var (
		updated *model.Reservation
		flagged []model.WaitingListEntry
	)
	err := e.store.InTx(ctx, func(tx store.Store) error {
		r, err := tx.GetReservation(ctx, id)
		if err != nil {
			return translate(err, "reservation", id)
		}
		if t.authorize != nil {
			if err := t.authorize(r); err != nil {
				return err
			}
		}
		if !statusIn(r.Status, t.from) {
			return apperr.State("cannot move a %s reservation to %s", r.Status, t.change.To)
		}
		if err := tx.TransitionReservation(ctx, id, t.from, t.change); err != nil {
			return translate(err, "reservation", id)
		}
		r.Status = t.change.To
		if t.change.AdminNote != nil {
			r.AdminNote = t.change.AdminNote
		}
		if t.change.CancelReason != nil {
			r.CancelReason = t.change.CancelReason
		}
		updated = r

		if r.Status == model.StatusRejected || r.Status == model.StatusCancelled {
			flagged, err = flagWaitingList(ctx, tx, r.ResourceID, r.StartAt)
			return err
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	e.metrics.Transition(string(updated.Status))
	e.publishReservation(t.event, updated)
	e.publishOpenings(flagged)
	return updated, nil
}

func statusIn(s model.ReservationStatus, set []model.ReservationStatus) bool {
	for _, candidate := range set {
		if s == candidate {
			return true
		}
	}
	return false
}

func optional(s string) *string {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	return &s
}
