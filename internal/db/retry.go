package db

import (
	"context"
	"log/slog"
	"math"
	"math/rand"
	"time"
)

// backoff is swapped out in tests.
var backoff = exponentialBackoff

// exponentialBackoff gives 500ms, 1s, 2s, ... capped at 10s, plus up to
// 250ms of jitter.
func exponentialBackoff(attempt int) time.Duration {
	base := 500 * time.Millisecond
	capDelay := 10 * time.Second

	delay := time.Duration(float64(base) * math.Pow(2, float64(attempt)))
	if delay > capDelay {
		delay = capDelay
	}

	return delay + time.Duration(rand.Intn(250))*time.Millisecond
}

// Connect calls open until it succeeds, attempts run out or ctx is done.
// Databases started alongside the API (compose, CI) are often not ready on
// the first try.
func Connect[T any](ctx context.Context, log *slog.Logger, name string, attempts int, open func(context.Context) (T, error)) (T, error) {
	var zero T
	if attempts < 1 {
		attempts = 1
	}

	var err error
	for attempt := 0; attempt < attempts; attempt++ {
		var v T
		v, err = open(ctx)
		if err == nil {
			return v, nil
		}
		if attempt == attempts-1 {
			break
		}

		delay := backoff(attempt)
		log.Warn("store not ready, retrying", "store", name, "attempt", attempt+1, "retry_in", delay, "err", err)

		t := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			t.Stop()
			return zero, ctx.Err()
		case <-t.C:
		}
	}

	return zero, err
}
