package store

import (
	"context"
	"fmt"

	"crane-booking-backend/internal/model"
)

func (s *gormStore) GetWaitingEntry(ctx context.Context, id int64) (*model.WaitingListEntry, error) {
	var e model.WaitingListEntry
	if err := s.db.WithContext(ctx).First(&e, id).Error; err != nil {
		return nil, notFound(err, "get waiting list entry %d", id)
	}
	return &e, nil
}

func (s *gormStore) FindWaitingEntries(ctx context.Context, q WaitingQuery) ([]model.WaitingListEntry, error) {
	tx := s.db.WithContext(ctx)
	if q.ResourceID != 0 {
		tx = tx.Where("resource_id = ?", q.ResourceID)
	}
	if q.RequesterID != "" {
		tx = tx.Where("requester_id = ?", q.RequesterID)
	}
	if q.RequestedDate != "" {
		tx = tx.Where("requested_date = ?", q.RequestedDate)
	}
	if q.Consumed != nil {
		tx = tx.Where("consumed = ?", *q.Consumed)
	}
	if q.NotifyStatus != "" {
		tx = tx.Where("notify_status = ?", string(q.NotifyStatus))
	}

	var entries []model.WaitingListEntry
	if err := tx.Order("created_at ASC, id ASC").Find(&entries).Error; err != nil {
		return nil, fmt.Errorf("find waiting list entries: %w", err)
	}
	return entries, nil
}

func (s *gormStore) CreateWaitingEntry(ctx context.Context, e *model.WaitingListEntry) error {
	if e.NotifyStatus == "" {
		e.NotifyStatus = model.NotifyNone
	}
	if err := s.db.WithContext(ctx).Create(e).Error; err != nil {
		return fmt.Errorf("create waiting list entry: %w", err)
	}
	return nil
}

// ConsumeWaitingEntry marks an un-consumed entry as promoted. It returns
// ErrStale when the entry was consumed in the meantime.
func (s *gormStore) ConsumeWaitingEntry(ctx context.Context, id, reservationID int64) error {
	result := s.db.WithContext(ctx).
		Model(&model.WaitingListEntry{}).
		Where("id = ? AND consumed = ?", id, false).
		Updates(map[string]any{"consumed": true, "reservation_id": reservationID})
	if result.Error != nil {
		return fmt.Errorf("consume waiting list entry %d: %w", id, result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrStale
	}
	return nil
}

func (s *gormStore) SetNotifyStatus(ctx context.Context, ids []int64, from, to model.NotifyStatus) error {
	if len(ids) == 0 {
		return nil
	}
	err := s.db.WithContext(ctx).
		Model(&model.WaitingListEntry{}).
		Where("id IN ? AND notify_status = ?", ids, string(from)).
		Update("notify_status", string(to)).Error
	if err != nil {
		return fmt.Errorf("set notify status %s on %d entries: %w", to, len(ids), err)
	}
	return nil
}
