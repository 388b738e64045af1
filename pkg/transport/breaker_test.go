package transport

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"
)

func TestBreakerOpensAfterConsecutiveFailures(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	opts := testOptions()
	opts.MaxRetries = 0
	opts.BreakerThreshold = 3
	opts.BreakerCooldown = time.Minute
	c := New("test", srv.Client(), opts, quietLogger())

	for i := 0; i < 3; i++ {
		if err := c.Fetch(context.Background(), Request{URL: srv.URL}, nil); err == nil {
			t.Fatal("expected failure")
		}
	}
	err := c.Fetch(context.Background(), Request{URL: srv.URL}, nil)
	if !errors.Is(err, ErrCircuitOpen) {
		t.Fatalf("expected open circuit, got %v", err)
	}
	var ne *NetworkError
	if !errors.As(err, &ne) {
		t.Errorf("open circuit should surface as NetworkError, got %T", err)
	}
	if got := atomic.LoadInt32(&calls); got != 3 {
		t.Errorf("expected 3 upstream calls, got %d", got)
	}
}

func TestBreakerHalfOpenTrial(t *testing.T) {
	now := time.Unix(1_700_000_000, 0)
	b := newBreaker(2, time.Minute)
	b.now = func() time.Time { return now }
	fail := &StatusError{Code: http.StatusBadGateway}

	b.done(fail)
	if state, _ := b.done(fail); state != breakerOpen {
		t.Fatalf("expected open, got %v", state)
	}
	if b.allow() {
		t.Fatal("open breaker allowed a call")
	}

	now = now.Add(time.Minute)
	if !b.allow() {
		t.Fatal("expected a trial call after cooldown")
	}
	if b.allow() {
		t.Fatal("only one trial call may run")
	}
	if state, _ := b.done(fail); state != breakerOpen {
		t.Fatalf("failed trial should reopen, got %v", state)
	}

	now = now.Add(time.Minute)
	if !b.allow() {
		t.Fatal("expected a second trial")
	}
	if state, changed := b.done(nil); state != breakerClosed || !changed {
		t.Fatalf("successful trial should close, got %v", state)
	}
}

func TestBreakerIgnoresClientErrors(t *testing.T) {
	b := newBreaker(1, time.Minute)
	for _, err := range []error{
		&StatusError{Code: http.StatusNotFound},
		&StatusError{Code: http.StatusUnauthorized},
		&DecodeError{Err: errors.New("bad json")},
	} {
		if state, _ := b.done(err); state != breakerClosed {
			t.Fatalf("%v should not trip the breaker", err)
		}
	}
}

func TestBreakerIgnoresCallerCancellation(t *testing.T) {
	b := newBreaker(2, time.Minute)
	canceled := &NetworkError{Err: context.Canceled}

	b.done(&StatusError{Code: http.StatusBadGateway})
	for i := 0; i < 3; i++ {
		if state, changed := b.done(canceled); state != breakerClosed || changed {
			t.Fatalf("cancellation changed the breaker to %v", state)
		}
	}
	if state, _ := b.done(&StatusError{Code: http.StatusBadGateway}); state != breakerOpen {
		t.Fatalf("failure count should survive cancellations, got %v", state)
	}
}

func TestFetchCanceledByCallerKeepsCircuitClosed(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{}`))
	}))
	defer srv.Close()

	opts := testOptions()
	opts.BreakerThreshold = 1
	opts.BreakerCooldown = time.Minute
	c := New("test", srv.Client(), opts, quietLogger())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	for i := 0; i < 3; i++ {
		err := c.Fetch(ctx, Request{URL: srv.URL}, nil)
		if !errors.Is(err, context.Canceled) {
			t.Fatalf("expected cancellation, got %v", err)
		}
	}
	if err := c.Fetch(context.Background(), Request{URL: srv.URL}, nil); err != nil {
		t.Fatalf("healthy provider rejected after caller cancellations: %v", err)
	}
}

func TestNilBreakerAllows(t *testing.T) {
	var b *breaker
	if !b.allow() {
		t.Fatal("disabled breaker must allow")
	}
	if _, changed := b.done(errors.New("x")); changed {
		t.Fatal("disabled breaker has no state")
	}
}
