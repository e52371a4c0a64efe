package api

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/SherClockHolmes/webpush-go"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"crane-booking-backend/internal/booking"
	"crane-booking-backend/internal/db"
	"crane-booking-backend/internal/metrics"
	"crane-booking-backend/internal/model"
	"crane-booking-backend/internal/mw"
	"crane-booking-backend/internal/schedule"
	"crane-booking-backend/internal/store"
)

type testServer struct {
	router *gin.Engine
	admin  string
	alice  string
	bob    string
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	gin.SetMode(gin.TestMode)

	gormDB, err := db.Init(db.MemoryConfig(uuid.NewString()))
	require.NoError(t, err)
	sqlDB, err := gormDB.DB()
	require.NoError(t, err)
	t.Cleanup(func() { sqlDB.Close() })

	st := store.NewGormStore(gormDB)
	settings := schedule.Static{WorkdayStart: 8 * 60, WorkdayEnd: 16 * 60, SlotMinutes: 60, BufferMinutes: 15}
	now := time.Date(2030, 1, 1, 0, 0, 0, 0, time.UTC)
	m := metrics.New("crane")
	engine := booking.New(st, settings, nil, booking.WithClock(func() time.Time { return now }), booking.WithMetrics(m))

	auth := mw.NewAuthenticator("0123456789abcdef0123", "crane-booking")
	token := func(subject string, role booking.Role) string {
		tok, err := auth.Issue(subject, role, time.Hour)
		require.NoError(t, err)
		return tok
	}

	router := NewRouter(Deps{
		Engine:        engine,
		Subscriptions: st,
		Auth:          auth,
		Metrics:       m,
		WebPush:       &webpush.Options{VAPIDPublicKey: "BPublicKey"},
		RateLimit:     1000,
		RateBurst:     1000,
		CacheTTL:      time.Minute,
		Ping:          sqlDB.PingContext,
	})
	return &testServer{
		router: router,
		admin:  token("harbourmaster", booking.RoleAdmin),
		alice:  token("alice", booking.RoleRequester),
		bob:    token("bob", booking.RoleRequester),
	}
}

func (s *testServer) do(t *testing.T, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}
	req, err := http.NewRequest(method, path, reader)
	require.NoError(t, err)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	return w
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &v), w.Body.String())
	return v
}

func (s *testServer) createCrane(t *testing.T, name string, capacity float64) model.Resource {
	t.Helper()
	w := s.do(t, http.MethodPost, "/api/resources", s.admin, gin.H{"name": name, "capacity": capacity})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	return decode[model.Resource](t, w)
}

func reservationBody(resourceID int64, start, end string, weight float64) gin.H {
	return gin.H{
		"resourceId": resourceID,
		"start":      start,
		"end":        end,
		"purpose":    "launch",
		"load":       gin.H{"vesselType": "sloop", "length": 9.5, "width": 3.1, "draft": 1.6, "weight": weight},
	}
}

func TestRouter_HealthAndMetrics(t *testing.T) {
	s := newTestServer(t)

	w := s.do(t, http.MethodGet, "/healthz", "", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"status":"ok"}`, w.Body.String())

	w = s.do(t, http.MethodGet, "/metrics", "", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.True(t, strings.Contains(w.Body.String(), "crane_http_requests_total"))

	w = s.do(t, http.MethodGet, "/api/vapid_public_key", "", nil)
	assert.JSONEq(t, `{"public_key":"BPublicKey"}`, w.Body.String())
}

func TestRouter_RequiresToken(t *testing.T) {
	s := newTestServer(t)

	w := s.do(t, http.MethodGet, "/api/resources", "", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestRouter_ResourceAdmin(t *testing.T) {
	s := newTestServer(t)

	w := s.do(t, http.MethodPost, "/api/resources", s.alice, gin.H{"name": "Crane A", "capacity": 40})
	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.Equal(t, "FORBIDDEN", decode[map[string]any](t, w)["code"])

	w = s.do(t, http.MethodPost, "/api/resources", s.admin, gin.H{"name": "Crane A", "capacity": -1})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	crane := s.createCrane(t, "Crane A", 40)
	assert.True(t, crane.Active)

	other := s.createCrane(t, "Crane B", 40)
	w = s.do(t, http.MethodPatch, "/api/resources/"+itoa(crane.ID), s.admin, gin.H{"name": "Crane B", "capacity": 40})
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, "CONFLICT", decode[map[string]any](t, w)["code"])
	w = s.do(t, http.MethodPatch, "/api/resources/"+itoa(crane.ID), s.admin, gin.H{"name": "crane b", "capacity": 40})
	assert.Equal(t, http.StatusConflict, w.Code)

	w = s.do(t, http.MethodPost, "/api/resources/"+itoa(other.ID)+"/deactivate", s.admin, nil)
	require.Equal(t, http.StatusOK, w.Code)

	w = s.do(t, http.MethodPost, "/api/resources/"+itoa(crane.ID)+"/deactivate", s.admin, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.False(t, decode[model.Resource](t, w).Active)

	w = s.do(t, http.MethodGet, "/api/resources", s.alice, nil)
	assert.JSONEq(t, `[]`, w.Body.String())
}

func TestRouter_ReservationFlow(t *testing.T) {
	s := newTestServer(t)
	crane := s.createCrane(t, "Crane A", 50)

	w := s.do(t, http.MethodPost, "/api/reservations", s.alice,
		reservationBody(crane.ID, "2030-01-02T09:00:00Z", "2030-01-02T10:00:00Z", 20))
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	created := decode[model.Reservation](t, w)
	assert.Equal(t, model.StatusPending, created.Status)

	w = s.do(t, http.MethodPost, "/api/reservations", s.bob,
		reservationBody(crane.ID, "2030-01-02T10:00:00Z", "2030-01-02T11:00:00Z", 20))
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, "CONFLICT", decode[map[string]any](t, w)["code"])

	w = s.do(t, http.MethodPost, "/api/reservations", s.bob,
		reservationBody(crane.ID, "2030-01-02T12:00:00Z", "2030-01-02T13:00:00Z", 60))
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = s.do(t, http.MethodGet, "/api/resources/"+itoa(crane.ID)+"/slots?date=2030-01-02&slots=1", s.bob, nil)
	require.Equal(t, http.StatusOK, w.Code)
	slots := decode[slotsResponse](t, w)
	require.Len(t, slots.Slots, 6)
	assert.True(t, slots.Slots[1].Start.Equal(time.Date(2030, 1, 2, 11, 0, 0, 0, time.UTC)))

	w = s.do(t, http.MethodGet, "/api/resources/"+itoa(crane.ID)+"/slots?date=2030-01-02&slots=3000000", s.bob, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Empty(t, decode[slotsResponse](t, w).Slots)

	w = s.do(t, http.MethodGet, "/api/resources/"+itoa(crane.ID)+"/slots?date=2030-01-02&tz_offset=153722867280912", s.bob, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	path := "/api/reservations/" + itoa(created.ID)
	w = s.do(t, http.MethodGet, path, s.bob, nil)
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = s.do(t, http.MethodPost, path+"/approve", s.admin, gin.H{"note": "bring fenders"})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, model.StatusApproved, decode[model.Reservation](t, w).Status)

	w = s.do(t, http.MethodPost, path+"/approve", s.admin, nil)
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	assert.Equal(t, "STATE_ERROR", decode[map[string]any](t, w)["code"])

	w = s.do(t, http.MethodPost, path+"/reschedule", s.admin, gin.H{"start": "2030-01-02T14:00:00Z", "end": "2030-01-02T15:00:00Z"})
	require.Equal(t, http.StatusOK, w.Code)

	w = s.do(t, http.MethodPost, path+"/cancel", s.alice, gin.H{"reason": "storm warning"})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, model.StatusCancelled, decode[model.Reservation](t, w).Status)

	w = s.do(t, http.MethodGet, "/api/reservations?status=cancelled", s.alice, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, decode[[]model.Reservation](t, w), 1)

	w = s.do(t, http.MethodGet, "/api/reservations/999", s.admin, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestRouter_CalendarRedaction(t *testing.T) {
	s := newTestServer(t)
	crane := s.createCrane(t, "Crane A", 50)

	w := s.do(t, http.MethodPost, "/api/reservations", s.alice,
		reservationBody(crane.ID, "2030-01-02T09:00:00Z", "2030-01-02T10:00:00Z", 20))
	require.Equal(t, http.StatusCreated, w.Code)

	w = s.do(t, http.MethodGet, "/api/calendar?from=2030-01-02T00:00:00Z&to=2030-01-03T00:00:00Z", s.bob, nil)
	require.Equal(t, http.StatusOK, w.Code)
	events := decode[[]booking.CalendarEvent](t, w)
	require.Len(t, events, 1)
	assert.Equal(t, "Reserved", events[0].Title)
	assert.Nil(t, events[0].Reservation)

	w = s.do(t, http.MethodGet, "/api/calendar?from=yesterday", s.bob, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestRouter_WaitingList(t *testing.T) {
	s := newTestServer(t)
	crane := s.createCrane(t, "Crane A", 50)
	spare := s.createCrane(t, "Crane B", 50)

	w := s.do(t, http.MethodPost, "/api/resources/"+itoa(crane.ID)+"/maintenance", s.admin,
		gin.H{"start": "2030-01-02T08:00:00Z", "end": "2030-01-02T16:00:00Z", "description": "annual survey"})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	w = s.do(t, http.MethodPost, "/api/waiting-list", s.alice, gin.H{
		"resourceId": crane.ID,
		"date":       "2030-01-02",
		"load":       gin.H{"vesselType": "sloop", "length": 9.5, "width": 3.1, "draft": 1.6, "weight": 20},
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	entry := decode[model.WaitingListEntry](t, w)

	w = s.do(t, http.MethodPost, "/api/waiting-list/"+itoa(entry.ID)+"/promote", s.admin,
		gin.H{"resourceId": spare.ID, "start": "2030-01-02T09:00:00Z", "end": "2030-01-02T10:00:00Z"})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	assert.Equal(t, "alice", decode[model.Reservation](t, w).RequesterID)

	w = s.do(t, http.MethodGet, "/api/waiting-list?consumed=true", s.alice, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, decode[[]model.WaitingListEntry](t, w), 1)
}

func TestRouter_LoadProfiles(t *testing.T) {
	s := newTestServer(t)

	w := s.do(t, http.MethodPost, "/api/load-profiles", s.alice, gin.H{
		"name": "Mistral",
		"load": gin.H{"vesselType": "ketch", "length": 12, "width": 3.8, "draft": 1.9, "weight": 14},
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	w = s.do(t, http.MethodGet, "/api/load-profiles", s.alice, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, decode[[]model.LoadProfile](t, w), 1)
}

func itoa(id int64) string {
	return strconv.FormatInt(id, 10)
}
