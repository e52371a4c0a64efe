package store

import (
	"context"
	"fmt"

	"crane-booking-backend/internal/model"
)

func (s *gormStore) GetResource(ctx context.Context, id int64) (*model.Resource, error) {
	var res model.Resource
	if err := s.db.WithContext(ctx).First(&res, id).Error; err != nil {
		return nil, notFound(err, "get resource %d", id)
	}
	return &res, nil
}

func (s *gormStore) ListResources(ctx context.Context, activeOnly bool) ([]model.Resource, error) {
	var resources []model.Resource
	q := s.db.WithContext(ctx).Order("name ASC")
	if activeOnly {
		q = q.Where("active = ?", true)
	}
	if err := q.Find(&resources).Error; err != nil {
		return nil, fmt.Errorf("list resources: %w", err)
	}
	return resources, nil
}

func (s *gormStore) CreateResource(ctx context.Context, res *model.Resource) error {
	if err := s.db.WithContext(ctx).Create(res).Error; err != nil {
		if isDuplicate(err) {
			return fmt.Errorf("create resource %q: %w", res.Name, ErrDuplicate)
		}
		return fmt.Errorf("create resource %q: %w", res.Name, err)
	}
	return nil
}

// SaveResource writes every column of res, including a cleared MaxWidth.
func (s *gormStore) SaveResource(ctx context.Context, res *model.Resource) error {
	if err := s.db.WithContext(ctx).Save(res).Error; err != nil {
		if isDuplicate(err) {
			return fmt.Errorf("save resource %d: %w", res.ID, ErrDuplicate)
		}
		return fmt.Errorf("save resource %d: %w", res.ID, err)
	}
	return nil
}

func (s *gormStore) GetLoadProfile(ctx context.Context, id int64) (*model.LoadProfile, error) {
	var p model.LoadProfile
	if err := s.db.WithContext(ctx).First(&p, id).Error; err != nil {
		return nil, notFound(err, "get load profile %d", id)
	}
	return &p, nil
}

func (s *gormStore) ListLoadProfiles(ctx context.Context, ownerID string) ([]model.LoadProfile, error) {
	var profiles []model.LoadProfile
	if err := s.db.WithContext(ctx).Where("owner_id = ?", ownerID).Order("id ASC").Find(&profiles).Error; err != nil {
		return nil, fmt.Errorf("list load profiles of %s: %w", ownerID, err)
	}
	return profiles, nil
}

func (s *gormStore) CreateLoadProfile(ctx context.Context, p *model.LoadProfile) error {
	if err := s.db.WithContext(ctx).Create(p).Error; err != nil {
		return fmt.Errorf("create load profile: %w", err)
	}
	return nil
}
