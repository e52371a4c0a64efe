package schedule

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"crane-booking-backend/internal/apperr"
	"crane-booking-backend/internal/model"
)

func TestValidateCapacity(t *testing.T) {
	maxWidth := 6.0
	crane := model.Resource{Name: "Crane A", Capacity: 50, MaxWidth: &maxWidth}

	testCases := []struct {
		name      string
		res       model.Resource
		load      model.LoadSnapshot
		expectErr bool
	}{
		{"fits", crane, model.LoadSnapshot{Weight: 50, Width: 6}, false},
		{"too heavy", crane, model.LoadSnapshot{Weight: 60, Width: 4}, true},
		{"too wide", crane, model.LoadSnapshot{Weight: 10, Width: 6.5}, true},
		{"no width limit", model.Resource{Capacity: 50}, model.LoadSnapshot{Weight: 10, Width: 12}, false},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			err := ValidateCapacity(tc.res, tc.load)
			if tc.expectErr {
				assert.True(t, apperr.Is(err, apperr.KindValidation))
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestValidateLoad(t *testing.T) {
	testCases := []struct {
		name    string
		load    model.LoadSnapshot
		message string
	}{
		{name: "valid", load: model.LoadSnapshot{Length: 12, Width: 4, Draft: 1.2, Weight: 8}},
		{name: "zero draft", load: model.LoadSnapshot{Length: 12, Width: 4, Weight: 8}},
		{name: "negative weight", load: model.LoadSnapshot{Length: 12, Width: 4, Weight: -1}, message: "weight must not be negative"},
		{name: "zero length", load: model.LoadSnapshot{Length: 0, Width: 4, Weight: 1}, message: "vessel length and width must be positive"},
		{name: "negative draft", load: model.LoadSnapshot{Length: 12, Width: 4, Draft: -0.5, Weight: 1}, message: "draft must not be negative"},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			err := ValidateLoad(tc.load)
			if tc.message == "" {
				assert.NoError(t, err)
				return
			}
			appErr, ok := apperr.As(err)
			if assert.True(t, ok) {
				assert.Equal(t, apperr.KindValidation, appErr.Kind)
				assert.Equal(t, tc.message, appErr.Message)
			}
		})
	}
}
