package schedule

import (
	"crane-booking-backend/internal/apperr"
	"crane-booking-backend/internal/model"
)

// ValidateLoad rejects physically meaningless load snapshots.
func ValidateLoad(load model.LoadSnapshot) error {
	if load.Weight < 0 {
		return apperr.Validation("weight must not be negative")
	}
	if load.Length <= 0 || load.Width <= 0 {
		return apperr.Validation("vessel length and width must be positive")
	}
	if load.Draft < 0 {
		return apperr.Validation("draft must not be negative").WithDetail("field", "draft")
	}
	return nil
}

// ValidateCapacity checks a load against the resource's lifting limits.
func ValidateCapacity(res model.Resource, load model.LoadSnapshot) error {
	if load.Weight > res.Capacity {
		return apperr.Validation("load weight %.2f t exceeds capacity %.2f t of %s", load.Weight, res.Capacity, res.Name).
			WithDetail("field", "weight")
	}
	if res.MaxWidth != nil && load.Width > *res.MaxWidth {
		return apperr.Validation("vessel width %.2f m exceeds max width %.2f m of %s", load.Width, *res.MaxWidth, res.Name).
			WithDetail("field", "width")
	}
	return nil
}
