package booking

import (
	"context"
	"errors"
	"strconv"
	"strings"
	"time"

	"crane-booking-backend/internal/apperr"
	"crane-booking-backend/internal/model"
	"crane-booking-backend/internal/schedule"
	"crane-booking-backend/internal/store"
)

// ResourceInput carries the editable fields of a resource.
type ResourceInput struct {
	Name     string
	Capacity float64
	MaxWidth *float64
}

func (in ResourceInput) validate() error {
	if strings.TrimSpace(in.Name) == "" {
		return apperr.Validation("name is required")
	}
	if in.Capacity <= 0 {
		return apperr.Validation("capacity must be positive").WithDetail("field", "capacity")
	}
	if in.MaxWidth != nil && *in.MaxWidth <= 0 {
		return apperr.Validation("maxWidth must be positive").WithDetail("field", "maxWidth")
	}
	return nil
}

// ListResources returns resources ordered by name.
func (e *Engine) ListResources(ctx context.Context, includeInactive bool) ([]model.Resource, error) {
	return e.store.ListResources(ctx, !includeInactive)
}

// GetResource returns one resource.
func (e *Engine) GetResource(ctx context.Context, id int64) (*model.Resource, error) {
	res, err := e.store.GetResource(ctx, id)
	if err != nil {
		return nil, translate(err, "resource", id)
	}
	return res, nil
}

// CreateResource registers a new crane. Names are unique regardless of case.
func (e *Engine) CreateResource(ctx context.Context, actor Actor, in ResourceInput) (*model.Resource, error) {
	if err := requireAdmin(actor, "manage resources"); err != nil {
		return nil, err
	}
	if err := in.validate(); err != nil {
		return nil, err
	}
	res := &model.Resource{
		Name:     strings.TrimSpace(in.Name),
		Capacity: in.Capacity,
		MaxWidth: in.MaxWidth,
		Active:   true,
	}
	err := e.store.InTx(ctx, func(tx store.Store) error {
		if err := nameFree(ctx, tx, res.Name, 0); err != nil {
			return err
		}
		return tx.CreateResource(ctx, res)
	})
	if err != nil {
		return nil, resourceNameErr(err, res.Name)
	}
	return res, nil
}

// UpdateResource edits a resource under its lock. Existing reservations are
// not re-validated; approval re-checks capacity.
func (e *Engine) UpdateResource(ctx context.Context, actor Actor, id int64, in ResourceInput) (*model.Resource, error) {
	if err := requireAdmin(actor, "manage resources"); err != nil {
		return nil, err
	}
	if err := in.validate(); err != nil {
		return nil, err
	}
	name := strings.TrimSpace(in.Name)
	var updated model.Resource
	err := e.store.InTx(ctx, func(tx store.Store) error {
		res, err := lockResource(ctx, tx, id)
		if err != nil {
			return err
		}
		if err := nameFree(ctx, tx, name, id); err != nil {
			return err
		}
		res.Name = name
		res.Capacity = in.Capacity
		res.MaxWidth = in.MaxWidth
		updated = res
		return tx.SaveResource(ctx, &updated)
	})
	if err != nil {
		return nil, resourceNameErr(err, name)
	}
	return &updated, nil
}

// nameFree fails when another resource than selfID already uses name.
// The lower(name) unique index backs this up under concurrent writers.
func nameFree(ctx context.Context, tx store.Store, name string, selfID int64) error {
	existing, err := tx.ListResources(ctx, false)
	if err != nil {
		return err
	}
	for _, other := range existing {
		if other.ID != selfID && strings.EqualFold(other.Name, name) {
			return apperr.Conflict("a resource named %q already exists", other.Name).
				WithDetail("resourceId", fmtID(other.ID))
		}
	}
	return nil
}

func resourceNameErr(err error, name string) error {
	if errors.Is(err, store.ErrDuplicate) {
		return apperr.Conflict("a resource named %q already exists", name)
	}
	return err
}

// DeactivateResource stops a resource from taking new bookings.
func (e *Engine) DeactivateResource(ctx context.Context, actor Actor, id int64) (*model.Resource, error) {
	if err := requireAdmin(actor, "manage resources"); err != nil {
		return nil, err
	}
	var updated model.Resource
	err := e.store.InTx(ctx, func(tx store.Store) error {
		res, err := lockResource(ctx, tx, id)
		if err != nil {
			return err
		}
		res.Active = false
		updated = res
		return tx.SaveResource(ctx, &updated)
	})
	if err != nil {
		return nil, err
	}
	return &updated, nil
}

// CreateMaintenanceBlock takes a resource out of service over iv. Active
// reservations in the way must be moved or cancelled first.
func (e *Engine) CreateMaintenanceBlock(ctx context.Context, actor Actor, resourceID int64, iv schedule.Interval, description string) (*model.MaintenanceBlock, error) {
	if err := requireAdmin(actor, "schedule maintenance"); err != nil {
		return nil, err
	}
	if !iv.End.After(iv.Start) {
		return nil, apperr.Validation("end must be after start")
	}
	if !iv.End.After(e.now()) {
		return nil, apperr.Validation("maintenance window is already over")
	}

	block := &model.MaintenanceBlock{
		ResourceID:  resourceID,
		StartAt:     iv.Start.UTC(),
		EndAt:       iv.End.UTC(),
		Description: strings.TrimSpace(description),
		CreatedBy:   actor.ID,
	}
	err := e.store.InTx(ctx, func(tx store.Store) error {
		if _, err := lockResource(ctx, tx, resourceID); err != nil {
			return err
		}
		inWay, err := tx.FindReservations(ctx, store.ReservationQuery{
			WindowQuery: store.WindowQuery{ResourceID: resourceID, From: iv.Start, To: iv.End},
			Statuses:    model.ActiveStatuses,
		})
		if err != nil {
			return err
		}
		if len(inWay) > 0 {
			e.metrics.Conflict("maintenance")
			return apperr.Conflict("maintenance overlaps reservation #%d; reschedule or cancel it first", inWay[0].ID).
				WithDetail("reservationId", fmtID(inWay[0].ID))
		}
		return tx.CreateMaintenanceBlock(ctx, block)
	})
	if err != nil {
		return nil, err
	}
	return block, nil
}

// DeleteMaintenanceBlock returns the window to service.
func (e *Engine) DeleteMaintenanceBlock(ctx context.Context, actor Actor, id int64) error {
	if err := requireAdmin(actor, "schedule maintenance"); err != nil {
		return err
	}
	return translate(e.store.DeleteMaintenanceBlock(ctx, id), "maintenance block", id)
}

// ListMaintenanceBlocks returns blocks intersecting the window.
func (e *Engine) ListMaintenanceBlocks(ctx context.Context, resourceID int64, from, to time.Time) ([]model.MaintenanceBlock, error) {
	return e.store.FindMaintenanceBlocks(ctx, store.WindowQuery{ResourceID: resourceID, From: from, To: to})
}

// SaveLoadProfile stores a reusable vessel for the actor.
func (e *Engine) SaveLoadProfile(ctx context.Context, actor Actor, name string, load model.LoadSnapshot) (*model.LoadProfile, error) {
	if err := requireActor(actor); err != nil {
		return nil, err
	}
	if strings.TrimSpace(name) == "" {
		return nil, apperr.Validation("name is required")
	}
	if err := schedule.ValidateLoad(load); err != nil {
		return nil, err
	}
	p := &model.LoadProfile{OwnerID: actor.ID, Name: strings.TrimSpace(name), Load: load}
	if err := e.store.CreateLoadProfile(ctx, p); err != nil {
		return nil, err
	}
	return p, nil
}

// ListLoadProfiles returns the actor's saved vessels.
func (e *Engine) ListLoadProfiles(ctx context.Context, actor Actor) ([]model.LoadProfile, error) {
	if err := requireActor(actor); err != nil {
		return nil, err
	}
	return e.store.ListLoadProfiles(ctx, actor.ID)
}

// GetReservation returns a reservation to its owner or an admin.
func (e *Engine) GetReservation(ctx context.Context, actor Actor, id int64) (*model.Reservation, error) {
	r, err := e.store.GetReservation(ctx, id)
	if err != nil {
		return nil, translate(err, "reservation", id)
	}
	if !actor.IsAdmin() && !actor.owns(r.RequesterID) {
		return nil, apperr.Forbidden("reservation %d belongs to another requester", id)
	}
	return r, nil
}

// ListReservations returns reservations matching q. Requesters only see their own.
func (e *Engine) ListReservations(ctx context.Context, actor Actor, q store.ReservationQuery) ([]model.Reservation, error) {
	if err := requireActor(actor); err != nil {
		return nil, err
	}
	if !actor.IsAdmin() {
		q.RequesterID = actor.ID
	}
	for _, s := range q.Statuses {
		if !s.Valid() {
			return nil, apperr.Validation("unknown status %q", s)
		}
	}
	return e.store.FindReservations(ctx, q)
}

func fmtID(id int64) string {
	return strconv.FormatInt(id, 10)
}
