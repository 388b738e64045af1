package transport

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"time"
)

// ErrCircuitOpen is returned without contacting the provider while its
// breaker is open.
var ErrCircuitOpen = errors.New("circuit open")

type breakerState int

const (
	breakerClosed breakerState = iota
	breakerOpen
	breakerHalfOpen
)

func (s breakerState) String() string {
	switch s {
	case breakerOpen:
		return "open"
	case breakerHalfOpen:
		return "half-open"
	}
	return "closed"
}

// breaker opens after threshold consecutive upstream failures and lets a
// single trial call through once cooldown has elapsed. A successful trial
// closes it; a failed one reopens it for another cooldown.
type breaker struct {
	threshold int
	cooldown  time.Duration
	now       func() time.Time

	mu       sync.Mutex
	state    breakerState
	failures int
	openedAt time.Time
	trial    bool
}

func newBreaker(threshold int, cooldown time.Duration) *breaker {
	if threshold <= 0 {
		return nil
	}
	return &breaker{threshold: threshold, cooldown: cooldown, now: time.Now}
}

// allow reports whether a call may proceed. A nil breaker always allows.
func (b *breaker) allow() bool {
	if b == nil {
		return true
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	switch b.state {
	case breakerOpen:
		if b.now().Sub(b.openedAt) < b.cooldown {
			return false
		}
		b.state = breakerHalfOpen
		b.trial = true
		return true
	case breakerHalfOpen:
		if b.trial {
			return false
		}
		b.trial = true
		return true
	}
	return true
}

// done records the outcome of an allowed call and returns the new state when
// it changed. Calls canceled by the caller leave the state untouched.
func (b *breaker) done(err error) (breakerState, bool) {
	if b == nil {
		return breakerClosed, false
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	prev := b.state
	b.trial = false
	if errors.Is(err, context.Canceled) {
		// The caller gave up; the provider's health is unknown.
		return b.state, false
	}
	if !tripsBreaker(err) {
		b.failures = 0
		b.state = breakerClosed
		return b.state, prev != b.state
	}
	b.failures++
	if b.state == breakerHalfOpen || b.failures >= b.threshold {
		b.state = breakerOpen
		b.openedAt = b.now()
	}
	return b.state, prev != b.state
}

// tripsBreaker reports whether err says the provider itself is unhealthy.
// Client-side statuses and malformed bodies do not count.
func tripsBreaker(err error) bool {
	if err == nil {
		return false
	}
	var se *StatusError
	if errors.As(err, &se) {
		return se.Code >= http.StatusInternalServerError || se.Code == http.StatusTooManyRequests
	}
	var de *DecodeError
	return !errors.As(err, &de)
}
