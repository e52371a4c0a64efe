package notification

import (
	"encoding/json"
	"fmt"
	"time"

	"crane-booking-backend/internal/booking"
)

// Message is the payload shown by the browser.
type Message struct {
	Title string `json:"title"`
	Body  string `json:"body"`
	Tag   string `json:"tag,omitempty"`
}

const stampLayout = "Mon 2 Jan 15:04 MST"

// MessageFor renders ev for a requester.
func MessageFor(ev booking.Event) Message {
	if ev.Type == booking.EventWaitlistOpening && ev.Entry != nil {
		return Message{
			Title: "A crane slot opened up",
			Body:  fmt.Sprintf("A slot opened on %s. Book it before someone else does.", ev.Entry.RequestedDate),
			Tag:   fmt.Sprintf("waitlist-%d", ev.Entry.ID),
		}
	}
	r := ev.Reservation
	if r == nil {
		return Message{Title: "Crane booking update", Body: string(ev.Type)}
	}

	zone := time.UTC
	when := fmt.Sprintf("%s to %s", r.StartAt.In(zone).Format(stampLayout), r.EndAt.In(zone).Format("15:04 MST"))
	tag := fmt.Sprintf("reservation-%d", r.ID)
	switch ev.Type {
	case booking.EventCreated:
		return Message{Title: "Booking requested", Body: fmt.Sprintf("Your crane booking for %s is waiting for approval.", when), Tag: tag}
	case booking.EventApproved:
		return Message{Title: "Booking approved", Body: fmt.Sprintf("Your crane booking for %s is confirmed.", when), Tag: tag}
	case booking.EventRejected:
		return Message{Title: "Booking rejected", Body: withNote(fmt.Sprintf("Your crane booking for %s was rejected.", when), r.AdminNote), Tag: tag}
	case booking.EventCancelled:
		return Message{Title: "Booking cancelled", Body: withNote(fmt.Sprintf("Your crane booking for %s was cancelled.", when), r.CancelReason), Tag: tag}
	case booking.EventCompleted:
		return Message{Title: "Booking completed", Body: fmt.Sprintf("Your crane booking for %s is done.", when), Tag: tag}
	case booking.EventRescheduled:
		return Message{Title: "Booking moved", Body: fmt.Sprintf("Your crane booking now runs %s.", when), Tag: tag}
	}
	return Message{Title: "Crane booking update", Body: when, Tag: tag}
}

func withNote(body string, note *string) string {
	if note == nil || *note == "" {
		return body
	}
	return body + " " + *note
}

// Encode marshals the message for a push payload.
func (m Message) Encode() ([]byte, error) {
	return json.Marshal(m)
}
