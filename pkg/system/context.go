// Package system holds small process-level helpers.
package system

import (
	"context"
	"fmt"
)

// RunWithContext runs operation in its own goroutine and waits for it or for
// ctx, whichever finishes first. When ctx wins, the context handed to
// operation is cancelled and the operation is left to finish in the
// background; RunWithContext returns ctx's error without waiting for it.
//
// A ctx that is already done fails fast without starting operation.
func RunWithContext(ctx context.Context, operation func(context.Context) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	opCtx, cancel := context.WithCancel(context.Background())

	// Buffered so the goroutine can exit after we stopped listening.
	done := make(chan error, 1)
	go func() {
		defer cancel()
		done <- operation(opCtx)
	}()

	select {
	case err := <-done:
		return err
	case <-ctx.Done():
		cancel()
		return fmt.Errorf("operation abandoned : %w", ctx.Err())
	}
}
