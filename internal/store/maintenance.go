package store

import (
	"context"
	"fmt"

	"crane-booking-backend/internal/model"
)

func (s *gormStore) FindMaintenanceBlocks(ctx context.Context, q WindowQuery) ([]model.MaintenanceBlock, error) {
	var blocks []model.MaintenanceBlock
	if err := window(s.db.WithContext(ctx), q).Order("start_at ASC, id ASC").Find(&blocks).Error; err != nil {
		return nil, fmt.Errorf("find maintenance blocks: %w", err)
	}
	return blocks, nil
}

func (s *gormStore) CreateMaintenanceBlock(ctx context.Context, b *model.MaintenanceBlock) error {
	b.StartAt, b.EndAt = b.StartAt.UTC(), b.EndAt.UTC()
	if err := s.db.WithContext(ctx).Create(b).Error; err != nil {
		return fmt.Errorf("create maintenance block on resource %d: %w", b.ResourceID, err)
	}
	return nil
}

func (s *gormStore) DeleteMaintenanceBlock(ctx context.Context, id int64) error {
	result := s.db.WithContext(ctx).Delete(&model.MaintenanceBlock{}, id)
	if result.Error != nil {
		return fmt.Errorf("delete maintenance block %d: %w", id, result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}
