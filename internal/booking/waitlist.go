package booking

import (
	"context"
	"errors"
	"strings"
	"time"

	"crane-booking-backend/internal/apperr"
	"crane-booking-backend/internal/model"
	"crane-booking-backend/internal/schedule"
	"crane-booking-backend/internal/store"
)

// JoinRequest puts a requester on the waiting list for a full day.
type JoinRequest struct {
	ResourceID    int64
	Date          schedule.Date
	SlotCount     int
	TZOffset      time.Duration
	LoadProfileID *int64
	Load          *model.LoadSnapshot
	Purpose       string
}

// JoinWaitingList records demand for a day with no free candidate. Joining
// is refused while a slot is still bookable or when the load cannot be lifted.
func (e *Engine) JoinWaitingList(ctx context.Context, actor Actor, req JoinRequest) (*model.WaitingListEntry, error) {
	if err := requireActor(actor); err != nil {
		return nil, err
	}
	if err := schedule.ValidateOffset(req.TZOffset); err != nil {
		return nil, err
	}
	load, _, err := e.resolveLoad(ctx, actor, req.LoadProfileID, req.Load, false)
	if err != nil {
		return nil, err
	}
	res, err := e.store.GetResource(ctx, req.ResourceID)
	if err != nil {
		return nil, translate(err, "resource", req.ResourceID)
	}
	if err := checkBookable(*res, load, false); err != nil {
		return nil, err
	}
	settings, err := e.snapshot(ctx)
	if err != nil {
		return nil, err
	}
	if req.SlotCount < 1 || req.SlotCount > settings.MaxSlotCount() {
		return nil, apperr.Validation("slot count must be between 1 and %d", settings.MaxSlotCount()).
			WithDetail("field", "slotCount")
	}
	if !req.Date.At(settings.WorkdayEnd, req.TZOffset).After(e.now()) {
		return nil, apperr.Validation("%s is in the past", req.Date)
	}

	free, err := e.AvailableSlots(ctx, req.ResourceID, req.Date, req.SlotCount, req.TZOffset)
	if err != nil {
		return nil, err
	}
	if len(free) > 0 {
		return nil, apperr.Validation("%d slots are still free on %s; book one instead", len(free), req.Date).
			WithDetail("firstFree", free[0].Start.Format(time.RFC3339))
	}

	consumed := false
	existing, err := e.store.FindWaitingEntries(ctx, store.WaitingQuery{
		ResourceID:    req.ResourceID,
		RequesterID:   actor.ID,
		RequestedDate: req.Date.String(),
		Consumed:      &consumed,
	})
	if err != nil {
		return nil, err
	}
	if len(existing) > 0 {
		return nil, apperr.Validation("already on the waiting list for %s", req.Date).
			WithDetail("entryId", fmtID(existing[0].ID))
	}

	entry := &model.WaitingListEntry{
		ResourceID:      req.ResourceID,
		RequesterID:     actor.ID,
		RequestedDate:   req.Date.String(),
		TZOffsetMinutes: int(req.TZOffset / time.Minute),
		SlotCount:       req.SlotCount,
		Load:            load,
		Purpose:         strings.TrimSpace(req.Purpose),
		NotifyStatus:    model.NotifyNone,
	}
	if err := e.store.CreateWaitingEntry(ctx, entry); err != nil {
		return nil, err
	}
	return entry, nil
}

// PromoteWaitingEntry books iv on resourceID for the requester behind the
// entry and consumes the entry. Both happen in one transaction: when the
// booking fails the entry stays unconsumed.
func (e *Engine) PromoteWaitingEntry(ctx context.Context, actor Actor, entryID, resourceID int64, iv schedule.Interval) (*model.Reservation, error) {
	if err := requireAdmin(actor, "promote waiting list entries"); err != nil {
		return nil, err
	}
	if err := e.validateInterval(iv); err != nil {
		return nil, err
	}
	settings, err := e.snapshot(ctx)
	if err != nil {
		return nil, err
	}

	var r *model.Reservation
	err = e.store.InTx(ctx, func(tx store.Store) error {
		entry, err := tx.GetWaitingEntry(ctx, entryID)
		if err != nil {
			return translate(err, "waiting list entry", entryID)
		}
		if entry.Consumed {
			return apperr.State("waiting list entry %d was already promoted", entryID)
		}
		if resourceID == 0 {
			resourceID = entry.ResourceID
		}
		r = &model.Reservation{
			ResourceID:  resourceID,
			RequesterID: entry.RequesterID,
			StartAt:     iv.Start.UTC(),
			EndAt:       iv.End.UTC(),
			Status:      model.StatusPending,
			Load:        entry.Load,
			Purpose:     entry.Purpose,
		}
		if err := e.insert(ctx, tx, r, settings, "promote"); err != nil {
			return err
		}
		if err := tx.ConsumeWaitingEntry(ctx, entryID, r.ID); err != nil {
			if errors.Is(err, store.ErrStale) {
				return apperr.State("waiting list entry %d was already promoted", entryID)
			}
			return err
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	e.metrics.Transition(string(r.Status))
	e.publishReservation(EventCreated, r)
	return r, nil
}

// FlagWaitingList marks unnotified entries on resourceID whose requested day
// contains at as pending notification and emits an opening for each. It never
// books anything.
func (e *Engine) FlagWaitingList(ctx context.Context, resourceID int64, at time.Time) ([]model.WaitingListEntry, error) {
	var flagged []model.WaitingListEntry
	err := e.store.InTx(ctx, func(tx store.Store) error {
		var err error
		flagged, err = flagWaitingList(ctx, tx, resourceID, at)
		return err
	})
	if err != nil {
		return nil, err
	}
	e.publishOpenings(flagged)
	return flagged, nil
}

func flagWaitingList(ctx context.Context, tx store.Store, resourceID int64, at time.Time) ([]model.WaitingListEntry, error) {
	consumed := false
	entries, err := tx.FindWaitingEntries(ctx, store.WaitingQuery{
		ResourceID:   resourceID,
		Consumed:     &consumed,
		NotifyStatus: model.NotifyNone,
	})
	if err != nil {
		return nil, err
	}

	var (
		matched []model.WaitingListEntry
		ids     []int64
	)
	for _, entry := range entries {
		day := schedule.DateOf(at, time.Duration(entry.TZOffsetMinutes)*time.Minute)
		if day.String() != entry.RequestedDate {
			continue
		}
		entry.NotifyStatus = model.NotifyPending
		matched = append(matched, entry)
		ids = append(ids, entry.ID)
	}
	if len(ids) == 0 {
		return nil, nil
	}
	if err := tx.SetNotifyStatus(ctx, ids, model.NotifyNone, model.NotifyPending); err != nil {
		return nil, err
	}
	return matched, nil
}

// ListWaitingList returns entries matching q. Requesters only see their own.
func (e *Engine) ListWaitingList(ctx context.Context, actor Actor, q store.WaitingQuery) ([]model.WaitingListEntry, error) {
	if err := requireActor(actor); err != nil {
		return nil, err
	}
	if !actor.IsAdmin() {
		q.RequesterID = actor.ID
	}
	return e.store.FindWaitingEntries(ctx, q)
}
