// Package utils holds small helpers with no better home.
package utils

import (
	"context"
	"time"
)

// sleep is swapped out in tests.
var sleep = time.Sleep

// WaitFor sleeps for d unless the context ends first. A non-positive
// duration returns immediately.
func WaitFor(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}

	woke := make(chan struct{})
	go func() {
		sleep(d)
		close(woke)
	}()

	select {
	case <-woke:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
