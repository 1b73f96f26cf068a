package utils

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestWaitFor(t *testing.T) {
	original := sleep
	defer func() { sleep = original }()

	var slept time.Duration
	sleep = func(d time.Duration) { slept = d }

	if err := WaitFor(context.Background(), 3*time.Second); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if slept != 3*time.Second {
		t.Fatalf("expected to sleep 3s, got %s", slept)
	}

	if err := WaitFor(context.Background(), 0); err != nil {
		t.Fatalf("expected zero duration to return immediately, got %v", err)
	}
}

func TestWaitForCancelled(t *testing.T) {
	original := sleep
	defer func() { sleep = original }()

	block := make(chan struct{})
	defer close(block)
	sleep = func(time.Duration) { <-block }

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if err := WaitFor(ctx, time.Hour); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}

func TestWaitForSleeperOutlivesSwap(t *testing.T) {
	original := sleep
	defer func() { sleep = original }()

	block := make(chan struct{})
	finished := make(chan struct{})
	sleep = func(time.Duration) {
		<-block
		close(finished)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := WaitFor(ctx, time.Minute); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}

	// The abandoned sleeper keeps the function it started with.
	swapped := false
	sleep = func(time.Duration) { swapped = true }
	close(block)
	<-finished

	if swapped {
		t.Fatal("sleeper picked up the replaced sleep function")
	}
}

func TestBackoff(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		base    time.Duration
		attempt int
		limit   time.Duration
		expect  time.Duration
	}{
		{name: "first attempt", base: time.Second, attempt: 0, expect: time.Second},
		{name: "doubles", base: time.Second, attempt: 2, expect: 4 * time.Second},
		{name: "capped", base: time.Second, attempt: 10, limit: 30 * time.Second, expect: 30 * time.Second},
		{name: "negative attempt", base: time.Second, attempt: -1, expect: time.Second},
		{name: "zero base", base: 0, attempt: 3, expect: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := Backoff(tt.base, tt.attempt, tt.limit); got != tt.expect {
				t.Fatalf("expected %s, got %s", tt.expect, got)
			}
		})
	}
}
