// Package dispatcher provides async delivery of job lifecycle events with
// buffering, retry and per-destination circuit breaking.
package dispatcher

import (
	"context"
	"errors"

	"github.com/TopChef/TopChefClient/pkg/cloudevent"
)

// ErrBufferFull is returned when the dispatcher's buffer is full and the
// event is dropped.
var ErrBufferFull = errors.New("dispatcher buffer full, event dropped")

// Dispatcher handles async delivery of events. The worker never blocks on
// listener delivery; a slow listener costs events, not throughput.
type Dispatcher interface {
	// Dispatch queues an event for async delivery. Non-blocking.
	// Returns ErrBufferFull if the event cannot be queued.
	Dispatch(event *Event) error

	// Stats returns current dispatcher statistics.
	Stats() Stats

	// Close gracefully shuts down, attempting to deliver queued events.
	// The context deadline controls how long to wait for drain.
	Close(ctx context.Context) error
}

// Event is one lifecycle notification bound for a listener URL.
type Event struct {
	Payload     *cloudevent.CloudEvent
	Destination string // listener URL
	SigningKey  string // HMAC key, empty = unsigned
}

// Stats holds dispatcher statistics.
type Stats struct {
	QueueDepth   int   // current queue size
	Queued       int64 // total events queued
	Delivered    int64 // successful deliveries
	Failed       int64 // failed after retries
	Dropped      int64 // dropped due to full buffer or open circuit
	RetriesTotal int64 // total retry attempts
	BreakersOpen int   // listener hosts currently circuit-broken
}
