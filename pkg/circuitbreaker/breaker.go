// Package circuitbreaker implements the circuit breaker pattern.
//
// The client uses breakers in two places: the event dispatcher keys one per
// listener host, and the polling loop guards its checkin endpoint with one so
// a persistently failing server is not hammered every tick.
package circuitbreaker

import (
	"sync"
	"time"
)

// State represents the state of a circuit breaker.
type State int

const (
	Closed   State = iota // normal operation, requests allowed
	Open                  // failing, requests blocked until the cooldown passes
	HalfOpen              // probing whether the resource recovered
)

func (s State) String() string {
	switch s {
	case Closed:
		return "closed"
	case Open:
		return "open"
	case HalfOpen:
		return "half-open"
	default:
		return "unknown"
	}
}

// Config holds configuration for a circuit breaker.
type Config struct {
	Threshold int           // consecutive failures before the circuit opens (default: 5)
	Cooldown  time.Duration // how long the circuit stays open (default: 30s)
}

func (c Config) withDefaults() Config {
	if c.Threshold <= 0 {
		c.Threshold = 5
	}
	if c.Cooldown <= 0 {
		c.Cooldown = 30 * time.Second
	}
	return c
}

// Breaker tracks consecutive failures for a single resource.
type Breaker struct {
	mu        sync.Mutex
	config    Config
	state     State
	failures  int
	openUntil time.Time // when an open circuit may probe again
}

// New creates a new circuit breaker.
func New(cfg Config) *Breaker {
	return &Breaker{config: cfg.withDefaults()}
}

// Allow reports whether a request should be attempted. An open circuit whose
// cooldown has elapsed transitions to half-open and lets one probe through.
func (b *Breaker) Allow() bool {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.state == Open {
		if time.Now().Before(b.openUntil) {
			return false
		}
		b.state = HalfOpen
	}
	return true
}

// RecordSuccess closes the circuit and resets the failure count.
func (b *Breaker) RecordSuccess() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.state = Closed
	b.failures = 0
}

// RecordFailure counts a failure, opening the circuit at the threshold or
// immediately when a half-open probe fails.
func (b *Breaker) RecordFailure() {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.failures++
	if b.state == HalfOpen || b.failures >= b.config.Threshold {
		b.state = Open
		b.openUntil = time.Now().Add(b.config.Cooldown)
	}
}

// State returns the current state.
func (b *Breaker) State() State {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.state
}

// Failures returns the current consecutive failure count.
func (b *Breaker) Failures() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.failures
}
