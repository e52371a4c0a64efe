package notification

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"

	"github.com/SherClockHolmes/webpush-go"

	"crane-booking-backend/internal/booking"
	"crane-booking-backend/internal/model"
	"crane-booking-backend/internal/store"
)

// NotificationSender defines the interface for sending a web push notification.
type NotificationSender interface {
	Send(payload []byte, sub *webpush.Subscription, options *webpush.Options) (*http.Response, error)
}

// WebPushSender is a real implementation of NotificationSender using the webpush library.
type WebPushSender struct{}

// Send sends a notification using the webpush library.
func (s *WebPushSender) Send(payload []byte, sub *webpush.Subscription, options *webpush.Options) (*http.Response, error) {
	return webpush.SendNotification(payload, sub, options)
}

// PushSink sends events to the browsers the requester subscribed.
type PushSink struct {
	subs    store.SubscriptionStore
	webpush *webpush.Options
	sender  NotificationSender
}

// NewPushSink creates a web push sink.
func NewPushSink(subs store.SubscriptionStore, options *webpush.Options) *PushSink {
	return &PushSink{
		subs:    subs,
		webpush: options,
		sender:  &WebPushSender{},
	}
}

// Name implements Sink.
func (p *PushSink) Name() string { return "webpush" }

// Deliver implements Sink. It returns ErrNoRecipient when the requester has
// no live subscription.
func (p *PushSink) Deliver(ctx context.Context, ev booking.Event) error {
	requester := ev.RequesterID()
	if requester == "" {
		return ErrNoRecipient
	}
	subscriptions, err := p.subs.SubscriptionsFor(ctx, requester)
	if err != nil {
		return fmt.Errorf("fetch subscriptions of %s: %w", requester, err)
	}
	if len(subscriptions) == 0 {
		return ErrNoRecipient
	}

	payload, err := MessageFor(ev).Encode()
	if err != nil {
		return err
	}
	var (
		errs    []error
		reached int
	)
	for _, sub := range subscriptions {
		ok, err := p.send(ctx, sub, payload)
		if err != nil {
			errs = append(errs, err)
		}
		if ok {
			reached++
		}
	}
	switch {
	case reached > 0:
		if len(errs) > 0 {
			log.Printf("Push to %s reached %d of %d browsers: %v", requester, reached, len(subscriptions), errors.Join(errs...))
		}
		return nil
	case len(errs) > 0:
		return errors.Join(errs...)
	default:
		return ErrNoRecipient
	}
}

// send sends a single web push notification and drops expired subscriptions.
// It reports whether the push service accepted the message.
func (p *PushSink) send(ctx context.Context, sub model.PushSubscription, payload []byte) (bool, error) {
	wpSub := &webpush.Subscription{
		Endpoint: sub.Endpoint,
		Keys: webpush.Keys{
			P256dh: sub.P256DH,
			Auth:   sub.Auth,
		},
	}

	resp, err := p.sender.Send(payload, wpSub, p.webpush)
	if err != nil {
		return false, fmt.Errorf("send to %s: %w", sub.Endpoint, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusGone {
		log.Printf("Subscription for endpoint %s is expired. Deleting.", sub.Endpoint)
		if err := p.subs.DeleteSubscription(ctx, sub.Endpoint); err != nil {
			log.Printf("Failed to delete expired subscription %s: %v", sub.Endpoint, err)
		}
		return false, nil
	}
	if resp.StatusCode >= http.StatusBadRequest {
		return false, fmt.Errorf("push service answered %d for %s", resp.StatusCode, sub.Endpoint)
	}
	return true, nil
}
