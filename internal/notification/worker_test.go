package notification

import (
	"bytes"
	"context"
	"errors"
	"io"
	"net/http"
	"sync"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/SherClockHolmes/webpush-go"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"crane-booking-backend/internal/booking"
	"crane-booking-backend/internal/metrics"
	"crane-booking-backend/internal/model"
	"crane-booking-backend/internal/store"
)

// mockSender is a mock implementation of the NotificationSender interface.
type mockSender struct {
	SendFunc func(payload []byte, sub *webpush.Subscription, options *webpush.Options) (*http.Response, error)
}

// Send calls the mock SendFunc.
func (m *mockSender) Send(payload []byte, sub *webpush.Subscription, options *webpush.Options) (*http.Response, error) {
	return m.SendFunc(payload, sub, options)
}

// A helper function to create a mock database connection.
func newTestDB(t *testing.T) (*gorm.DB, sqlmock.Sqlmock) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)

	gormDB, err := gorm.Open(postgres.New(postgres.Config{
		Conn: db,
	}), &gorm.Config{})
	require.NoError(t, err)

	return gormDB, mock
}

// funcSink records deliveries and fails when err is set.
type funcSink struct {
	name      string
	err       error
	delivered chan booking.Event
}

func (s *funcSink) Name() string { return s.name }

func (s *funcSink) Deliver(_ context.Context, ev booking.Event) error {
	s.delivered <- ev
	return s.err
}

// waitingStub only implements SetNotifyStatus.
type waitingStub struct {
	store.WaitingListStore
	mu     sync.Mutex
	marked []int64
	done   chan struct{}
}

func (w *waitingStub) SetNotifyStatus(_ context.Context, ids []int64, from, to model.NotifyStatus) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if from == model.NotifyPending && to == model.NotifySent {
		w.marked = append(w.marked, ids...)
	}
	close(w.done)
	return nil
}

func approvedEvent(requester string) booking.Event {
	return booking.Event{
		ID:   "evt-1",
		Type: booking.EventApproved,
		Reservation: &model.Reservation{
			ID:          42,
			RequesterID: requester,
			StartAt:     time.Date(2030, 1, 2, 9, 0, 0, 0, time.UTC),
			EndAt:       time.Date(2030, 1, 2, 10, 0, 0, 0, time.UTC),
			Status:      model.StatusApproved,
		},
	}
}

func TestDispatcher_NotifyDropsWhenFull(t *testing.T) {
	m := metrics.New("test")
	d := NewDispatcher(1, 1, nil, m)

	d.Notify(approvedEvent("alice"))
	d.Notify(approvedEvent("bob"))

	select {
	case ev := <-d.jobs:
		assert.Equal(t, "alice", ev.RequesterID())
	case <-time.After(1 * time.Second):
		t.Fatal("timed out waiting for job to be queued")
	}
	assert.Equal(t, 1.0, testutil.ToFloat64(m.NotificationsDropped))
}

func TestDispatcher_WorkerLogic(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())

	m := metrics.New("test")
	ok := &funcSink{name: "ok", delivered: make(chan booking.Event, 4)}
	broken := &funcSink{name: "broken", err: errors.New("broker down"), delivered: make(chan booking.Event, 4)}
	waiting := &waitingStub{done: make(chan struct{})}

	d := NewDispatcher(2, 8, waiting, m, broken, ok)
	d.Start(ctx)

	t.Run("fans out to every sink", func(t *testing.T) {
		d.Notify(approvedEvent("alice"))

		for _, sink := range []*funcSink{broken, ok} {
			select {
			case ev := <-sink.delivered:
				assert.Equal(t, booking.EventApproved, ev.Type)
			case <-time.After(1 * time.Second):
				t.Fatalf("sink %s never saw the event", sink.name)
			}
		}
	})

	t.Run("marks delivered waiting list openings as sent", func(t *testing.T) {
		d.Notify(booking.Event{
			ID:    "evt-2",
			Type:  booking.EventWaitlistOpening,
			Entry: &model.WaitingListEntry{ID: 7, RequesterID: "alice", RequestedDate: "2030-01-02"},
		})

		select {
		case <-waiting.done:
		case <-time.After(1 * time.Second):
			t.Fatal("waiting list entry was never marked")
		}
		waiting.mu.Lock()
		assert.Equal(t, []int64{7}, waiting.marked)
		waiting.mu.Unlock()
	})

	cancel()
	d.Wait()

	assert.Equal(t, 2.0, testutil.ToFloat64(m.NotificationsDelivered.WithLabelValues("ok", "ok")))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.NotificationsDelivered.WithLabelValues("broken", "error")))
}

func TestDispatcher_OpeningWithoutRecipientStaysPending(t *testing.T) {
	m := metrics.New("test")
	nobody := &funcSink{name: "webpush", err: ErrNoRecipient, delivered: make(chan booking.Event, 1)}
	waiting := &waitingStub{done: make(chan struct{})}
	d := NewDispatcher(1, 1, waiting, m, nobody)

	d.deliver(context.Background(), booking.Event{
		ID:    "evt-3",
		Type:  booking.EventWaitlistOpening,
		Entry: &model.WaitingListEntry{ID: 9, RequesterID: "erin", RequestedDate: "2030-01-02"},
	})

	assert.Len(t, nobody.delivered, 1)
	waiting.mu.Lock()
	assert.Empty(t, waiting.marked)
	waiting.mu.Unlock()
	assert.Equal(t, 1.0, testutil.ToFloat64(m.NotificationsDelivered.WithLabelValues("webpush", "skipped")))
	assert.Equal(t, 0.0, testutil.ToFloat64(m.NotificationsDelivered.WithLabelValues("webpush", "ok")))
}

func TestPushSink_Deliver(t *testing.T) {
	t.Run("sends notification for one subscription", func(t *testing.T) {
		gormDB, mock := newTestDB(t)
		sink := NewPushSink(store.NewGormStore(gormDB), &webpush.Options{})

		sent := 0
		sink.sender = &mockSender{
			SendFunc: func(payload []byte, sub *webpush.Subscription, options *webpush.Options) (*http.Response, error) {
				sent++
				assert.Equal(t, "https://example.com/push", sub.Endpoint)
				assert.Equal(t, "test_p256dh", sub.Keys.P256dh)
				assert.Contains(t, string(payload), "Booking approved")
				return &http.Response{
					StatusCode: http.StatusCreated,
					Body:       io.NopCloser(bytes.NewBufferString("")),
				}, nil
			},
		}

		mock.ExpectQuery(`SELECT \* FROM "push_subscriptions" WHERE requester_id = \$1`).
			WithArgs("alice").
			WillReturnRows(sqlmock.NewRows([]string{"endpoint", "requester_id", "p256dh", "auth", "created_at"}).
				AddRow("https://example.com/push", "alice", "test_p256dh", "test_auth", time.Now()))

		require.NoError(t, sink.Deliver(context.Background(), approvedEvent("alice")))
		assert.Equal(t, 1, sent)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("deletes expired subscription", func(t *testing.T) {
		gormDB, mock := newTestDB(t)
		sink := NewPushSink(store.NewGormStore(gormDB), &webpush.Options{})
		sink.sender = &mockSender{
			SendFunc: func(payload []byte, sub *webpush.Subscription, options *webpush.Options) (*http.Response, error) {
				return &http.Response{
					StatusCode: http.StatusGone,
					Body:       io.NopCloser(bytes.NewBufferString("")),
				}, nil
			},
		}

		mock.ExpectQuery(`SELECT \* FROM "push_subscriptions" WHERE requester_id = \$1`).
			WithArgs("bob").
			WillReturnRows(sqlmock.NewRows([]string{"endpoint", "requester_id", "p256dh", "auth", "created_at"}).
				AddRow("https://example.com/expired", "bob", "test_p256dh_expired", "test_auth_expired", time.Now()))

		mock.ExpectBegin()
		mock.ExpectExec(`DELETE FROM "push_subscriptions" WHERE "push_subscriptions"."endpoint" = \$1`).
			WithArgs("https://example.com/expired").
			WillReturnResult(sqlmock.NewResult(1, 1))
		mock.ExpectCommit()

		err := sink.Deliver(context.Background(), approvedEvent("bob"))
		assert.ErrorIs(t, err, ErrNoRecipient, "an expired browser was not told")
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("reports no recipient without subscriptions", func(t *testing.T) {
		gormDB, mock := newTestDB(t)
		sink := NewPushSink(store.NewGormStore(gormDB), &webpush.Options{})
		sink.sender = &mockSender{
			SendFunc: func(payload []byte, sub *webpush.Subscription, options *webpush.Options) (*http.Response, error) {
				t.Fatal("nothing to send to")
				return nil, nil
			},
		}

		mock.ExpectQuery(`SELECT \* FROM "push_subscriptions" WHERE requester_id = \$1`).
			WithArgs("dave").
			WillReturnRows(sqlmock.NewRows([]string{"endpoint", "requester_id", "p256dh", "auth", "created_at"}))

		err := sink.Deliver(context.Background(), approvedEvent("dave"))
		assert.ErrorIs(t, err, ErrNoRecipient)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("reports send failures", func(t *testing.T) {
		gormDB, mock := newTestDB(t)
		sink := NewPushSink(store.NewGormStore(gormDB), &webpush.Options{})
		sink.sender = &mockSender{
			SendFunc: func(payload []byte, sub *webpush.Subscription, options *webpush.Options) (*http.Response, error) {
				return nil, errors.New("connection reset")
			},
		}

		mock.ExpectQuery(`SELECT \* FROM "push_subscriptions" WHERE requester_id = \$1`).
			WithArgs("carol").
			WillReturnRows(sqlmock.NewRows([]string{"endpoint", "requester_id", "p256dh", "auth", "created_at"}).
				AddRow("https://example.com/flaky", "carol", "k", "a", time.Now()))

		err := sink.Deliver(context.Background(), approvedEvent("carol"))
		assert.ErrorContains(t, err, "connection reset")
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestMessageFor(t *testing.T) {
	note := "Crane out of service"
	ev := approvedEvent("alice")
	ev.Type = booking.EventRejected
	ev.Reservation.AdminNote = &note

	msg := MessageFor(ev)
	assert.Equal(t, "Booking rejected", msg.Title)
	assert.Contains(t, msg.Body, "Wed 2 Jan 09:00 UTC to 10:00 UTC")
	assert.Contains(t, msg.Body, note)
	assert.Equal(t, "reservation-42", msg.Tag)

	opening := MessageFor(booking.Event{
		Type:  booking.EventWaitlistOpening,
		Entry: &model.WaitingListEntry{ID: 3, RequestedDate: "2030-01-02"},
	})
	assert.Contains(t, opening.Body, "2030-01-02")
	assert.Equal(t, "waitlist-3", opening.Tag)
}
