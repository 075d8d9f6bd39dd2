package workshop

import (
	"context"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/blackwell-systems/modman/internal/apperr"
)

const (
	// DefaultTimeout bounds how long a request may wait for its callback.
	DefaultTimeout = 30 * time.Second
	// DefaultPollInterval is the worker's sleep between result checks.
	DefaultPollInterval = 10 * time.Millisecond
)

// Outcome is how a bridged request resolved.
type Outcome int

const (
	Success Outcome = iota
	ExternalError
	TimedOut
	Cancelled
	TaskFailed
)

func (o Outcome) String() string {
	switch o {
	case Success:
		return "success"
	case ExternalError:
		return "external_error"
	case TimedOut:
		return "timeout"
	case Cancelled:
		return "cancelled"
	case TaskFailed:
		return "task_failure"
	default:
		return fmt.Sprintf("outcome(%d)", int(o))
	}
}

// Result describes one resolved request. Err is nil only for Success.
type Result struct {
	RequestID uuid.UUID
	Outcome   Outcome
	Err       error
	Pumps     int
	Elapsed   time.Duration
}

// SubmitFunc registers a request with client. The request must report its
// result by calling done.
type SubmitFunc func(client Client, done func(error))

// Bridge runs callback-based requests against the client cached in a
// Registry.
type Bridge struct {
	Registry     *Registry
	Timeout      time.Duration
	PollInterval time.Duration
	Logger       *slog.Logger
}

// NewBridge returns a Bridge with the default timeout and poll interval.
func NewBridge(registry *Registry, logger *slog.Logger) *Bridge {
	return &Bridge{
		Registry:     registry,
		Timeout:      DefaultTimeout,
		PollInterval: DefaultPollInterval,
		Logger:       logger,
	}
}

// pendingOperation lives for a single Run.
type pendingOperation struct {
	requestID uuid.UUID
	startedAt time.Time
	timeout   time.Duration
}

type workerResult struct {
	outcome Outcome
	err     error
}

// Run submits one request for appID and drives the client until the request
// resolves, the timeout passes, or ctx is cancelled.
//
// The worker goroutine submits the request and polls a one-slot side channel
// for the callback's result, signalling on a coalescing channel whenever a
// pump is due. This goroutine answers those signals by running the client's
// callbacks through the registry. The worker is always joined before Run
// returns.
//
// The returned Result is never nil. The error is nil only on Success and
// otherwise carries the apperr kind matching the outcome.
func (b *Bridge) Run(ctx context.Context, appID uint32, submit SubmitFunc) (*Result, error) {
	op := pendingOperation{
		requestID: uuid.New(),
		startedAt: time.Now(),
		timeout:   b.timeout(),
	}
	logger := b.logger().With("request_id", op.requestID.String(), "app_id", appID)

	var resolved atomic.Bool
	pump := make(chan struct{}, 1)
	stop := make(chan struct{})
	workerDone := make(chan workerResult, 1)

	go func() {
		workerDone <- b.work(op, appID, submit, &resolved, pump, stop)
	}()

	res := &Result{RequestID: op.requestID}
	finish := func(wr workerResult) (*Result, error) {
		res.Outcome = wr.outcome
		res.Err = wr.err
		res.Elapsed = time.Since(op.startedAt)
		logger.Debug("workshop request resolved", "outcome", res.Outcome.String(), "pumps", res.Pumps, "elapsed", res.Elapsed)
		return res, wr.err
	}

	for {
		select {
		case <-pump:
			// A signal that raced with the resolving pump needs no follow-up.
			if resolved.Load() {
				continue
			}
			if err := b.pumpOnce(appID); err != nil {
				return finish(stopWorker(stop, workerDone, workerResult{outcome: TaskFailed, err: err}))
			}
			res.Pumps++
		case wr := <-workerDone:
			return finish(wr)
		case <-ctx.Done():
			logger.Warn("workshop request abandoned", "error", ctx.Err())
			return finish(stopWorker(stop, workerDone, workerResult{
				outcome: Cancelled,
				err:     apperr.Wrap(apperr.Cancelled, "workshop request", "request abandoned", ctx.Err()),
			}))
		}
	}
}

// stopWorker closes stop and joins the worker. A result the worker reached on
// its own wins over fallback, which only applies when the worker ended
// because it was stopped.
func stopWorker(stop chan struct{}, workerDone <-chan workerResult, fallback workerResult) workerResult {
	close(stop)
	if wr := <-workerDone; wr.outcome != Cancelled {
		return wr
	}
	return fallback
}

// pumpOnce services the client's callbacks, turning a panic in the client
// into a TaskFailure.
func (b *Bridge) pumpOnce(appID uint32) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = apperr.Newf(apperr.TaskFailure, "workshop request", "callback pump panicked: %v", r)
		}
	}()
	return b.Registry.RunCallbacks(appID)
}

// work runs on its own goroutine and owns the client for the request's
// lifetime.
func (b *Bridge) work(op pendingOperation, appID uint32, submit SubmitFunc, resolved *atomic.Bool, pump chan<- struct{}, stop <-chan struct{}) (wr workerResult) {
	defer func() {
		if r := recover(); r != nil {
			wr = workerResult{
				outcome: TaskFailed,
				err:     apperr.Newf(apperr.TaskFailure, "workshop request", "worker terminated abnormally: %v", r),
			}
		}
	}()

	side := make(chan error, 1)
	done := func(err error) {
		select {
		case side <- err:
			resolved.Store(true)
		default:
		}
	}

	err := b.Registry.WithClient(appID, func(c Client) error {
		submit(c, done)
		return nil
	})
	if err != nil {
		return workerResult{outcome: TaskFailed, err: err}
	}

	ticker := time.NewTicker(b.pollInterval())
	defer ticker.Stop()

	for {
		select {
		case err := <-side:
			if err != nil {
				return workerResult{
					outcome: ExternalError,
					err:     apperr.Wrap(apperr.ExternalServiceError, "workshop request", "workshop API error", err),
				}
			}
			return workerResult{outcome: Success}
		default:
		}

		if time.Since(op.startedAt) > op.timeout {
			return workerResult{
				outcome: TimedOut,
				err: apperr.Newf(apperr.Timeout, "workshop request",
					"operation timed out waiting for workshop response after %s", op.timeout),
			}
		}

		select {
		case pump <- struct{}{}:
		default:
		}

		select {
		case <-stop:
			return workerResult{outcome: Cancelled, err: apperr.New(apperr.Cancelled, "workshop request", "stopped")}
		case <-ticker.C:
		}
	}
}

func (b *Bridge) timeout() time.Duration {
	if b.Timeout <= 0 {
		return DefaultTimeout
	}
	return b.Timeout
}

func (b *Bridge) pollInterval() time.Duration {
	if b.PollInterval <= 0 {
		return DefaultPollInterval
	}
	return b.PollInterval
}

func (b *Bridge) logger() *slog.Logger {
	if b.Logger == nil {
		return slog.Default()
	}
	return b.Logger
}
