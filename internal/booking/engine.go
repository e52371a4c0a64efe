// Package booking is the reservation scheduling and availability engine. It
// arbitrates interval conflicts on cranes, drives the reservation lifecycle
// and manages the waiting list. Every check-and-write runs in one transaction
// holding the row lock of the affected resource.
package booking

import (
	"context"
	"errors"
	"strings"
	"time"

	"crane-booking-backend/internal/apperr"
	"crane-booking-backend/internal/metrics"
	"crane-booking-backend/internal/model"
	"crane-booking-backend/internal/schedule"
	"crane-booking-backend/internal/store"
)

// Role is what an actor is allowed to do.
type Role string

const (
	RoleRequester Role = "requester"
	RoleAdmin     Role = "admin"
)

// Actor is the authenticated caller of an operation.
type Actor struct {
	ID   string
	Role Role
}

// IsAdmin reports whether the actor holds the admin role.
func (a Actor) IsAdmin() bool {
	return a.Role == RoleAdmin
}

func (a Actor) owns(requesterID string) bool {
	return a.ID != "" && a.ID == requesterID
}

// Engine implements the booking operations on top of a Store.
type Engine struct {
	store    store.Store
	settings schedule.Provider
	notifier Notifier
	metrics  *metrics.Metrics
	now      func() time.Time
}

// Option configures an Engine.
type Option func(*Engine)

// WithClock replaces time.Now, used for "start in the past" checks.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) { e.now = now }
}

// WithMetrics records transitions and conflicts on m.
func WithMetrics(m *metrics.Metrics) Option {
	return func(e *Engine) { e.metrics = m }
}

// New creates an engine. A nil notifier discards events.
func New(st store.Store, settings schedule.Provider, notifier Notifier, opts ...Option) *Engine {
	if notifier == nil {
		notifier = NotifierFunc(func(Event) {})
	}
	e := &Engine{
		store:    st,
		settings: settings,
		notifier: notifier,
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// snapshot fetches the settings used for the whole of one operation.
func (e *Engine) snapshot(ctx context.Context) (schedule.Settings, error) {
	s, err := e.settings.Settings(ctx)
	if err != nil {
		return schedule.Settings{}, err
	}
	if err := s.Validate(); err != nil {
		return schedule.Settings{}, err
	}
	return s, nil
}

func requireAdmin(actor Actor, action string) error {
	if !actor.IsAdmin() {
		return apperr.Forbidden("only admins may %s", action)
	}
	return nil
}

func requireActor(actor Actor) error {
	if actor.ID == "" {
		return apperr.Forbidden("an authenticated requester is required")
	}
	return nil
}

// translate turns store sentinels into engine errors.
func translate(err error, entity string, id any) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, store.ErrNotFound):
		return apperr.NotFound(entity, id)
	case errors.Is(err, store.ErrStale):
		return apperr.State("%s %v was modified concurrently", entity, id)
	default:
		return err
	}
}

// validateInterval rejects empty, inverted and past intervals.
func (e *Engine) validateInterval(iv schedule.Interval) error {
	if !iv.End.After(iv.Start) {
		return apperr.Validation("end must be after start")
	}
	if iv.Start.Before(e.now()) {
		return apperr.Validation("start %s is in the past", iv.Start.Format(time.RFC3339))
	}
	return nil
}

// resolveLoad picks the snapshot attached to a new booking: a saved profile
// owned by the actor, or inline vessel details.
func (e *Engine) resolveLoad(ctx context.Context, actor Actor, profileID *int64, inline *model.LoadSnapshot, optional bool) (model.LoadSnapshot, *int64, error) {
	if profileID != nil {
		p, err := e.store.GetLoadProfile(ctx, *profileID)
		if err != nil {
			return model.LoadSnapshot{}, nil, translate(err, "load profile", *profileID)
		}
		if p.OwnerID != actor.ID && !actor.IsAdmin() {
			return model.LoadSnapshot{}, nil, apperr.Forbidden("load profile %d belongs to another requester", p.ID)
		}
		return p.Load, &p.ID, nil
	}
	if inline != nil {
		if err := schedule.ValidateLoad(*inline); err != nil {
			return model.LoadSnapshot{}, nil, err
		}
		load := *inline
		load.VesselType = strings.TrimSpace(load.VesselType)
		return load, nil, nil
	}
	if optional {
		return model.LoadSnapshot{}, nil, nil
	}
	return model.LoadSnapshot{}, nil, apperr.Validation("a saved load profile or vessel details are required")
}

// checkBookable gates a write on the resource being active and able to lift the load.
func checkBookable(res model.Resource, load model.LoadSnapshot, maintenance bool) error {
	if !res.Active {
		return apperr.Validation("resource %s is not active", res.Name)
	}
	if maintenance {
		return nil
	}
	return schedule.ValidateCapacity(res, load)
}

func lockResource(ctx context.Context, tx store.Store, id int64) (model.Resource, error) {
	locked, err := tx.LockResources(ctx, id)
	if err != nil {
		return model.Resource{}, translate(err, "resource", id)
	}
	return locked[id], nil
}

func intervalOf(r *model.Reservation) schedule.Interval {
	return schedule.Interval{Start: r.StartAt, End: r.EndAt}
}
