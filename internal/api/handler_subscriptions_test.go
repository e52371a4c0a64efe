package api

import (
	"net/http"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPutSubscription(t *testing.T) {
	s := newTestServer(t)

	w := s.do(t, http.MethodPut, "/api/subscriptions", s.alice, nil)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "VALIDATION_ERROR", decode[map[string]any](t, w)["code"])
}

func TestSubscriptionLifecycle(t *testing.T) {
	s := newTestServer(t)
	endpoint := "https://push.example.com/send/abc"
	query := "/api/subscriptions?endpoint=" + endpoint

	w := s.do(t, http.MethodPut, "/api/subscriptions", s.alice, gin.H{
		"endpoint": endpoint,
		"p256dh":   "test_p256dh",
		"auth":     "test_auth",
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	w = s.do(t, http.MethodGet, query, s.alice, nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.JSONEq(t, `{"endpoint":"`+endpoint+`","requesterId":"alice"}`, w.Body.String())

	w = s.do(t, http.MethodGet, query, s.bob, nil)
	assert.Equal(t, http.StatusNotFound, w.Code, "other requesters cannot see it")

	w = s.do(t, http.MethodDelete, "/api/subscriptions", s.bob, gin.H{"endpoint": endpoint})
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = s.do(t, http.MethodDelete, "/api/subscriptions", s.alice, gin.H{"endpoint": endpoint})
	assert.Equal(t, http.StatusNoContent, w.Code)

	w = s.do(t, http.MethodGet, query, s.alice, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}
