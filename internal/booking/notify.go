package booking

import (
	"log"
	"time"

	"github.com/google/uuid"

	"crane-booking-backend/internal/model"
)

// EventType names a notification-worthy change.
type EventType string

const (
	EventCreated         EventType = "reservation.created"
	EventApproved        EventType = "reservation.approved"
	EventRejected        EventType = "reservation.rejected"
	EventCancelled       EventType = "reservation.cancelled"
	EventCompleted       EventType = "reservation.completed"
	EventRescheduled     EventType = "reservation.rescheduled"
	EventWaitlistOpening EventType = "waitlist.opening"
)

// Event is handed to the notifier after a write commits.
type Event struct {
	ID          string                  `json:"id"`
	Type        EventType               `json:"type"`
	OccurredAt  time.Time               `json:"occurredAt"`
	Reservation *model.Reservation      `json:"reservation,omitempty"`
	Entry       *model.WaitingListEntry `json:"entry,omitempty"`
}

// RequesterID is the person the event is about.
func (ev Event) RequesterID() string {
	switch {
	case ev.Reservation != nil:
		return ev.Reservation.RequesterID
	case ev.Entry != nil:
		return ev.Entry.RequesterID
	}
	return ""
}

// Notifier delivers events fire-and-forget. Implementations must not block.
type Notifier interface {
	Notify(ev Event)
}

// NotifierFunc adapts a function to Notifier.
type NotifierFunc func(ev Event)

// Notify calls f.
func (f NotifierFunc) Notify(ev Event) { f(ev) }

// emit hands ev to the notifier. A misbehaving notifier never fails the
// operation that already committed.
func (e *Engine) emit(ev Event) {
	ev.ID = uuid.NewString()
	ev.OccurredAt = e.now().UTC()
	defer func() {
		if r := recover(); r != nil {
			log.Printf("Notifier panicked on %s: %v", ev.Type, r)
		}
	}()
	e.notifier.Notify(ev)
}

func (e *Engine) publishReservation(typ EventType, r *model.Reservation) {
	snapshot := *r
	e.emit(Event{Type: typ, Reservation: &snapshot})
}

func (e *Engine) publishOpenings(entries []model.WaitingListEntry) {
	for i := range entries {
		entry := entries[i]
		e.emit(Event{Type: EventWaitlistOpening, Entry: &entry})
	}
}
