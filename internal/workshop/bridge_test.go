package workshop

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/blackwell-systems/modman/internal/apperr"
)

func newTestBridge(t *testing.T, client *fakeClient, timeout time.Duration) (*Bridge, *Registry) {
	t.Helper()
	r := NewRegistry(nil, nil)
	r.SetClient(client.appID, client)
	t.Cleanup(r.Close)
	b := NewBridge(r, nil)
	b.Timeout = timeout
	b.PollInterval = 2 * time.Millisecond
	return b, r
}

func unsubscribeItem(itemID uint64) SubmitFunc {
	return func(c Client, done func(error)) {
		c.UnsubscribeItem(itemID, done)
	}
}

func TestBridge_ResolvesAfterExactPumps(t *testing.T) {
	for _, n := range []int{0, 1, 2, 5, 20} {
		n := n
		t.Run(fmt.Sprintf("%d pumps", n), func(t *testing.T) {
			client := &fakeClient{appID: 480, pumpsToResolve: n}
			b, _ := newTestBridge(t, client, 5*time.Second)

			res, err := b.Run(context.Background(), 480, unsubscribeItem(7))
			require.NoError(t, err)

			assert.Equal(t, Success, res.Outcome)
			assert.Equal(t, n, res.Pumps)
			assert.Equal(t, n, client.pumpCount())
			assert.NotEqual(t, uuid.Nil, res.RequestID)
			assert.Equal(t, []uint64{7}, client.submitted)
			assert.False(t, client.overlap.Load())
		})
	}
}

func TestBridge_ExternalError(t *testing.T) {
	client := &fakeClient{appID: 480, pumpsToResolve: 1, result: errors.New("access denied")}
	b, _ := newTestBridge(t, client, 5*time.Second)

	res, err := b.Run(context.Background(), 480, unsubscribeItem(7))
	require.Error(t, err)

	assert.Equal(t, ExternalError, res.Outcome)
	assert.True(t, apperr.IsKind(err, apperr.ExternalServiceError))
	assert.Contains(t, err.Error(), "access denied")
	assert.Equal(t, 1, res.Pumps)
}

func TestBridge_TimesOut(t *testing.T) {
	client := &fakeClient{appID: 480, pumpsToResolve: -1}
	b, _ := newTestBridge(t, client, 80*time.Millisecond)

	start := time.Now()
	res, err := b.Run(context.Background(), 480, unsubscribeItem(7))
	elapsed := time.Since(start)

	require.Error(t, err)
	assert.True(t, apperr.IsKind(err, apperr.Timeout))
	assert.Equal(t, TimedOut, res.Outcome)
	assert.GreaterOrEqual(t, elapsed, 80*time.Millisecond)
	assert.Less(t, elapsed, 2*time.Second)
	assert.Greater(t, client.pumpCount(), 0, "client should be serviced while waiting")
}

func TestBridge_Cancelled(t *testing.T) {
	client := &fakeClient{appID: 480, pumpsToResolve: -1}
	b, _ := newTestBridge(t, client, 10*time.Second)

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(30 * time.Millisecond)
		cancel()
	}()

	start := time.Now()
	res, err := b.Run(ctx, 480, unsubscribeItem(7))

	require.Error(t, err)
	assert.True(t, apperr.IsKind(err, apperr.Cancelled))
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, Cancelled, res.Outcome)
	assert.Less(t, time.Since(start), 2*time.Second)

	// the worker has been joined, so no more pumps can happen
	pumps := client.pumpCount()
	time.Sleep(20 * time.Millisecond)
	assert.Equal(t, pumps, client.pumpCount())
}

func TestBridge_CancelledAfterResolution(t *testing.T) {
	tests := []struct {
		name    string
		result  error
		outcome Outcome
		kind    apperr.Kind
	}{
		{"success is kept", nil, Success, ""},
		{"external error is kept", errors.New("access denied"), ExternalError, apperr.ExternalServiceError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for i := 0; i < 50; i++ {
				client := &fakeClient{appID: 480, pumpsToResolve: 0, result: tt.result}
				b, _ := newTestBridge(t, client, 5*time.Second)

				ctx, cancel := context.WithCancel(context.Background())
				cancel()

				res, err := b.Run(ctx, 480, unsubscribeItem(7))
				require.Equal(t, tt.outcome, res.Outcome, "run %d", i)
				if tt.result == nil {
					require.NoError(t, err)
				} else {
					require.True(t, apperr.IsKind(err, tt.kind), "run %d: %v", i, err)
				}
				assert.Equal(t, []uint64{7}, client.submitted)
			}
		})
	}

	t.Run("unresolved request is cancelled", func(t *testing.T) {
		client := &fakeClient{appID: 480, pumpsToResolve: -1}
		b, _ := newTestBridge(t, client, 5*time.Second)

		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		res, err := b.Run(ctx, 480, unsubscribeItem(7))
		assert.Equal(t, Cancelled, res.Outcome)
		assert.True(t, apperr.IsKind(err, apperr.Cancelled))
	})
}

func TestBridge_PumpPanicIsTaskFailure(t *testing.T) {
	client := &fakeClient{appID: 480, pumpsToResolve: -1, panicOnPump: true}
	b, r := newTestBridge(t, client, 5*time.Second)

	start := time.Now()
	var (
		res *Result
		err error
	)
	require.NotPanics(t, func() {
		res, err = b.Run(context.Background(), 480, unsubscribeItem(7))
	})
	require.Error(t, err)

	assert.Equal(t, TaskFailed, res.Outcome)
	assert.True(t, apperr.IsKind(err, apperr.TaskFailure))
	assert.Contains(t, err.Error(), "pump blew up")
	assert.Less(t, time.Since(start), 2*time.Second)

	// worker joined, registry lock released
	pumps := client.pumpCount()
	time.Sleep(20 * time.Millisecond)
	assert.Equal(t, pumps, client.pumpCount())
	assert.True(t, r.HasClient(480))
}

func TestBridge_WorkerPanicIsTaskFailure(t *testing.T) {
	client := &fakeClient{appID: 480, panicOnSubmit: true}
	b, r := newTestBridge(t, client, 5*time.Second)

	res, err := b.Run(context.Background(), 480, unsubscribeItem(7))
	require.Error(t, err)

	assert.Equal(t, TaskFailed, res.Outcome)
	assert.True(t, apperr.IsKind(err, apperr.TaskFailure))
	assert.False(t, apperr.IsKind(err, apperr.ExternalServiceError))

	// registry lock must have been released by the panicking worker
	assert.True(t, r.HasClient(480))
}

func TestBridge_NoClient(t *testing.T) {
	r := NewRegistry(nil, nil)
	b := NewBridge(r, nil)

	res, err := b.Run(context.Background(), 480, unsubscribeItem(7))
	require.Error(t, err)
	assert.True(t, apperr.IsKind(err, apperr.ExternalServiceUnavailable))
	assert.Equal(t, TaskFailed, res.Outcome)
}

func TestBridge_ClientSwitchedMidRequest(t *testing.T) {
	client := &fakeClient{appID: 480, pumpsToResolve: -1}
	b, r := newTestBridge(t, client, 5*time.Second)

	go func() {
		time.Sleep(20 * time.Millisecond)
		r.SetClient(570, &fakeClient{appID: 570})
	}()

	res, err := b.Run(context.Background(), 480, unsubscribeItem(7))
	require.Error(t, err)
	assert.True(t, apperr.IsKind(err, apperr.ExternalServiceUnavailable))
	assert.NotEqual(t, Success, res.Outcome)
	assert.True(t, client.closed.Load())
}

func TestBridge_Defaults(t *testing.T) {
	b := &Bridge{}
	assert.Equal(t, DefaultTimeout, b.timeout())
	assert.Equal(t, DefaultPollInterval, b.pollInterval())
	assert.NotNil(t, b.logger())
}

func TestOutcome_String(t *testing.T) {
	assert.Equal(t, "success", Success.String())
	assert.Equal(t, "timeout", TimedOut.String())
	assert.Equal(t, "task_failure", TaskFailed.String())
	assert.Equal(t, "outcome(99)", Outcome(99).String())
}
