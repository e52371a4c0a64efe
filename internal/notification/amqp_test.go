package notification

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/sony/gobreaker"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"crane-booking-backend/internal/booking"
)

type recordingPublisher struct {
	err      error
	calls    int
	exchange string
	key      string
	msg      amqp.Publishing
}

func (p *recordingPublisher) PublishWithContext(_ context.Context, exchange, key string, _, _ bool, msg amqp.Publishing) error {
	p.calls++
	p.exchange, p.key, p.msg = exchange, key, msg
	return p.err
}

func TestAMQPSink_Publishes(t *testing.T) {
	pub := &recordingPublisher{}
	sink := NewAMQPSink(pub, "crane.reservations")

	require.NoError(t, sink.Deliver(context.Background(), approvedEvent("alice")))

	assert.Equal(t, "crane.reservations", pub.exchange)
	assert.Equal(t, string(booking.EventApproved), pub.key)
	assert.Equal(t, "application/json", pub.msg.ContentType)
	assert.Equal(t, "evt-1", pub.msg.MessageId)

	var decoded booking.Event
	require.NoError(t, json.Unmarshal(pub.msg.Body, &decoded))
	assert.Equal(t, int64(42), decoded.Reservation.ID)
}

func TestAMQPSink_BreakerOpensAfterFailures(t *testing.T) {
	pub := &recordingPublisher{err: errors.New("channel closed")}
	sink := NewAMQPSink(pub, "crane.reservations")

	for i := 0; i < 5; i++ {
		assert.Error(t, sink.Deliver(context.Background(), approvedEvent("alice")))
	}
	assert.Equal(t, 5, pub.calls)

	err := sink.Deliver(context.Background(), approvedEvent("alice"))
	assert.ErrorIs(t, err, gobreaker.ErrOpenState)
	assert.Equal(t, 5, pub.calls, "an open breaker does not reach the broker")
}
