// Package notification delivers booking events to requesters and downstream
// systems without ever blocking the operation that produced them.
package notification

import (
	"context"
	"errors"
	"log"
	"sync"

	"crane-booking-backend/internal/booking"
	"crane-booking-backend/internal/metrics"
	"crane-booking-backend/internal/model"
	"crane-booking-backend/internal/store"
)

// ErrNoRecipient is returned by a sink that had nobody to deliver an event to.
var ErrNoRecipient = errors.New("no recipient")

// Sink is one delivery channel for events.
type Sink interface {
	Name() string
	Deliver(ctx context.Context, ev booking.Event) error
}

// Dispatcher queues events and fans them out to sinks from a pool of workers.
type Dispatcher struct {
	size    int
	jobs    chan booking.Event
	sinks   []Sink
	waiting store.WaitingListStore
	metrics *metrics.Metrics
	wg      sync.WaitGroup
}

// NewDispatcher creates a dispatcher with size workers and a queue of
// queueSize events. waiting may be nil when no store should be updated.
func NewDispatcher(size, queueSize int, waiting store.WaitingListStore, m *metrics.Metrics, sinks ...Sink) *Dispatcher {
	if size < 1 {
		size = 1
	}
	if queueSize < 1 {
		queueSize = size
	}
	return &Dispatcher{
		size:    size,
		jobs:    make(chan booking.Event, queueSize),
		sinks:   sinks,
		waiting: waiting,
		metrics: m,
	}
}

// Start launches the worker goroutines. They exit when ctx is done.
func (d *Dispatcher) Start(ctx context.Context) {
	for i := 0; i < d.size; i++ {
		d.wg.Add(1)
		go d.worker(ctx, i)
	}
}

// Wait blocks until every worker has exited.
func (d *Dispatcher) Wait() {
	d.wg.Wait()
}

func (d *Dispatcher) worker(ctx context.Context, id int) {
	defer d.wg.Done()
	log.Printf("Notification worker %d started", id)
	for {
		select {
		case ev := <-d.jobs:
			d.deliver(ctx, ev)
		case <-ctx.Done():
			log.Printf("Notification worker %d shutting down", id)
			return
		}
	}
}

// Notify queues ev. When the queue is full the event is dropped.
func (d *Dispatcher) Notify(ev booking.Event) {
	select {
	case d.jobs <- ev:
	default:
		d.metrics.Dropped()
		log.Printf("Notification queue full, dropping %s event %s", ev.Type, ev.ID)
	}
}

// deliver hands ev to every sink. A waiting list opening that reached someone
// through at least one sink is marked as sent; otherwise it stays pending.
func (d *Dispatcher) deliver(ctx context.Context, ev booking.Event) {
	delivered := false
	for _, sink := range d.sinks {
		err := sink.Deliver(ctx, ev)
		if errors.Is(err, ErrNoRecipient) {
			d.metrics.Skipped(sink.Name())
			continue
		}
		d.metrics.Delivered(sink.Name(), err)
		if err != nil {
			log.Printf("Error delivering %s event %s via %s: %v", ev.Type, ev.ID, sink.Name(), err)
			continue
		}
		delivered = true
	}

	if ev.Type != booking.EventWaitlistOpening || ev.Entry == nil || !delivered || d.waiting == nil {
		return
	}
	err := d.waiting.SetNotifyStatus(ctx, []int64{ev.Entry.ID}, model.NotifyPending, model.NotifySent)
	if err != nil {
		log.Printf("Error marking waiting list entry %d as notified: %v", ev.Entry.ID, err)
	}
}
