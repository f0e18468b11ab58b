package system

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRunWithContext(t *testing.T) {
	t.Run("returns the operation result", func(t *testing.T) {
		want := errors.New("boom")
		err := RunWithContext(context.Background(), func(context.Context) error { return want })
		assert.ErrorIs(t, err, want)

		assert.NoError(t, RunWithContext(context.Background(), func(context.Context) error { return nil }))
	})

	t.Run("done context never starts the operation", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		ran := false
		err := RunWithContext(ctx, func(context.Context) error {
			ran = true
			return nil
		})
		assert.ErrorIs(t, err, context.Canceled)
		assert.False(t, ran)
	})

	t.Run("deadline abandons a slow operation", func(t *testing.T) {
		ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
		defer cancel()

		stopped := make(chan struct{})
		err := RunWithContext(ctx, func(opCtx context.Context) error {
			<-opCtx.Done()
			close(stopped)
			return opCtx.Err()
		})
		assert.ErrorIs(t, err, context.DeadlineExceeded)

		select {
		case <-stopped:
		case <-time.After(time.Second):
			require.Fail(t, "operation context was not cancelled")
		}
	})
}
