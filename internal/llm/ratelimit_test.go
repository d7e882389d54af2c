package llm

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/Veraticus/shadow-payroll/internal/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type countingClient struct {
	calls atomic.Int32
}

func (c *countingClient) Complete(context.Context, Request) (Response, error) {
	c.calls.Add(1)
	return Response{Content: "{}"}, nil
}

func (c *countingClient) Model() string { return "counting" }

func TestRateLimiter(t *testing.T) {
	t.Run("burst up to capacity", func(t *testing.T) {
		rl := newRateLimiter(10)
		defer rl.Close()

		for range 10 {
			require.NoError(t, rl.wait(context.Background()))
		}
		assert.False(t, rl.tryAcquire())
	})

	t.Run("context cancellation", func(t *testing.T) {
		rl := newRateLimiter(1)
		defer rl.Close()

		require.NoError(t, rl.wait(context.Background()))

		ctx, cancel := context.WithTimeout(context.Background(), 150*time.Millisecond)
		defer cancel()

		err := rl.wait(ctx)
		require.Error(t, err)
		assert.ErrorIs(t, err, context.DeadlineExceeded)
	})
}

func TestRateLimitedClient(t *testing.T) {
	next := &countingClient{}
	limited := NewRateLimited(next, 1)
	defer limited.Close()

	_, err := limited.Complete(context.Background(), Request{})
	require.NoError(t, err)
	assert.Equal(t, "counting", limited.Model())

	ctx, cancel := context.WithTimeout(context.Background(), 150*time.Millisecond)
	defer cancel()
	_, err = limited.Complete(ctx, Request{})

	require.ErrorIs(t, err, common.ErrTransport)
	var terr *TransportError
	require.True(t, errors.As(err, &terr))
	assert.Equal(t, KindTimeout, terr.Kind)
	assert.Equal(t, int32(1), next.calls.Load())
}
