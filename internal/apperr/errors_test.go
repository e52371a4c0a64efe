package apperr

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestKindOf(t *testing.T) {
	wrapped := fmt.Errorf("approve: %w", Conflict("interval is taken"))

	assert.Equal(t, KindConflict, KindOf(wrapped))
	assert.True(t, Is(wrapped, KindConflict))
	assert.False(t, Is(wrapped, KindState))
	assert.Equal(t, KindInternal, KindOf(errors.New("boom")))
}

func TestNotFoundCarriesID(t *testing.T) {
	err := NotFound("reservation", 42)

	assert.Equal(t, "reservation not found", err.Message)
	assert.Equal(t, "42", err.Details["id"])
	assert.Equal(t, "NOT_FOUND: reservation not found", err.Error())
}

func TestHTTPStatus(t *testing.T) {
	testCases := []struct {
		kind   Kind
		status int
	}{
		{KindValidation, http.StatusBadRequest},
		{KindNotFound, http.StatusNotFound},
		{KindConflict, http.StatusConflict},
		{KindForbidden, http.StatusForbidden},
		{KindState, http.StatusUnprocessableEntity},
		{KindInternal, http.StatusInternalServerError},
	}
	for _, tc := range testCases {
		t.Run(string(tc.kind), func(t *testing.T) {
			assert.Equal(t, tc.status, HTTPStatus(tc.kind))
		})
	}
}
