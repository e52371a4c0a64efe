package store

import (
	"context"
	"fmt"
	"time"

	"crane-booking-backend/internal/model"
)

func (s *gormStore) GetReservation(ctx context.Context, id int64) (*model.Reservation, error) {
	var r model.Reservation
	if err := s.db.WithContext(ctx).First(&r, id).Error; err != nil {
		return nil, notFound(err, "get reservation %d", id)
	}
	return &r, nil
}

// FindReservations returns matching reservations ordered by start.
func (s *gormStore) FindReservations(ctx context.Context, q ReservationQuery) ([]model.Reservation, error) {
	tx := window(s.db.WithContext(ctx), q.WindowQuery)
	if q.RequesterID != "" {
		tx = tx.Where("requester_id = ?", q.RequesterID)
	}
	if len(q.Statuses) > 0 {
		tx = tx.Where("status IN ?", statusStrings(q.Statuses))
	}
	if q.ExcludeID != 0 {
		tx = tx.Where("id <> ?", q.ExcludeID)
	}

	var reservations []model.Reservation
	if err := tx.Order("start_at ASC, id ASC").Find(&reservations).Error; err != nil {
		return nil, fmt.Errorf("find reservations: %w", err)
	}
	return reservations, nil
}

func (s *gormStore) CreateReservation(ctx context.Context, r *model.Reservation) error {
	r.StartAt, r.EndAt = r.StartAt.UTC(), r.EndAt.UTC()
	if err := s.db.WithContext(ctx).Create(r).Error; err != nil {
		return fmt.Errorf("create reservation on resource %d: %w", r.ResourceID, err)
	}
	return nil
}

// TransitionReservation moves reservation id to change.To provided its current
// status is one of from. It returns ErrStale when no row matched.
func (s *gormStore) TransitionReservation(ctx context.Context, id int64, from []model.ReservationStatus, change StatusChange) error {
	updates := map[string]any{"status": string(change.To)}
	if change.AdminNote != nil {
		updates["admin_note"] = *change.AdminNote
	}
	if change.CancelReason != nil {
		updates["cancel_reason"] = *change.CancelReason
	}

	result := s.db.WithContext(ctx).
		Model(&model.Reservation{}).
		Where("id = ? AND status IN ?", id, statusStrings(from)).
		Updates(updates)
	if result.Error != nil {
		return fmt.Errorf("transition reservation %d to %s: %w", id, change.To, result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrStale
	}
	return nil
}

// MoveReservation rewrites the resource and interval of reservation id in place.
func (s *gormStore) MoveReservation(ctx context.Context, id int64, from []model.ReservationStatus, resourceID int64, start, end time.Time) error {
	result := s.db.WithContext(ctx).
		Model(&model.Reservation{}).
		Where("id = ? AND status IN ?", id, statusStrings(from)).
		Updates(map[string]any{
			"resource_id": resourceID,
			"start_at":    start.UTC(),
			"end_at":      end.UTC(),
		})
	if result.Error != nil {
		return fmt.Errorf("move reservation %d: %w", id, result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrStale
	}
	return nil
}
