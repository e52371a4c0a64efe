package booking

import (
	"context"
	"time"

	"crane-booking-backend/internal/model"
	"crane-booking-backend/internal/schedule"
)

// AvailableSlots lists the candidates of slotCount base slots on date that do
// not collide with an active reservation or maintenance block and have not
// started yet. Nothing is held: a create on a listed slot may still conflict.
func (e *Engine) AvailableSlots(ctx context.Context, resourceID int64, date schedule.Date, slotCount int, tzOffset time.Duration) ([]schedule.Interval, error) {
	res, err := e.store.GetResource(ctx, resourceID)
	if err != nil {
		return nil, translate(err, "resource", resourceID)
	}
	if err := checkBookable(*res, model.LoadSnapshot{}, true); err != nil {
		return nil, err
	}
	settings, err := e.snapshot(ctx)
	if err != nil {
		return nil, err
	}
	candidates, err := schedule.GenerateSlots(date, slotCount, settings, tzOffset)
	if err != nil {
		return nil, err
	}
	free := make([]schedule.Interval, 0, len(candidates))
	if len(candidates) == 0 {
		return free, nil
	}

	span := schedule.Interval{Start: candidates[0].Start, End: candidates[len(candidates)-1].End}
	h, err := loadHolds(ctx, e.store, resourceID, span, 0, settings.Buffer())
	if err != nil {
		return nil, err
	}
	now := e.now()
	for _, c := range candidates {
		if c.Start.Before(now) || h.collision(c) != "" {
			continue
		}
		free = append(free, c)
	}
	return free, nil
}
