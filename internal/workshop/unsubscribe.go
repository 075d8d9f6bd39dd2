package workshop

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"
)

// OperationRecord is the audit entry written for every bridged request.
type OperationRecord struct {
	RequestID  uuid.UUID
	Kind       string
	AppID      uint32
	ItemID     uint64
	Outcome    Outcome
	Error      string
	Pumps      int
	Elapsed    time.Duration
	FinishedAt time.Time
}

// Recorder persists operation records. The sqlite store satisfies it.
type Recorder interface {
	RecordOperation(rec *OperationRecord) error
}

// Unsubscriber removes workshop subscriptions.
type Unsubscriber struct {
	Registry *Registry
	Bridge   *Bridge
	Recorder Recorder
	Logger   *slog.Logger
}

// NewUnsubscriber wires an Unsubscriber around registry. recorder may be nil.
func NewUnsubscriber(registry *Registry, bridge *Bridge, recorder Recorder, logger *slog.Logger) *Unsubscriber {
	if logger == nil {
		logger = slog.Default()
	}
	return &Unsubscriber{
		Registry: registry,
		Bridge:   bridge,
		Recorder: recorder,
		Logger:   logger,
	}
}

// Unsubscribe removes the current user's subscription to itemID in appID.
// It returns true once the service confirms the removal. Unsubscribing from
// an item that is no longer subscribed is reported by the service as a
// success.
func (u *Unsubscriber) Unsubscribe(ctx context.Context, appID uint32, itemID uint64) (bool, error) {
	if _, err := u.Registry.Acquire(appID); err != nil {
		return false, err
	}

	res, err := u.Bridge.Run(ctx, appID, func(c Client, done func(error)) {
		c.UnsubscribeItem(itemID, done)
	})

	u.record(appID, itemID, res, err)

	if err != nil {
		u.Logger.Error("unsubscribe failed", "app_id", appID, "item_id", itemID, "error", err)
		return false, err
	}
	u.Logger.Info("unsubscribed", "app_id", appID, "item_id", itemID, "pumps", res.Pumps)
	return true, nil
}

func (u *Unsubscriber) record(appID uint32, itemID uint64, res *Result, err error) {
	if u.Recorder == nil || res == nil {
		return
	}
	rec := &OperationRecord{
		RequestID:  res.RequestID,
		Kind:       "unsubscribe",
		AppID:      appID,
		ItemID:     itemID,
		Outcome:    res.Outcome,
		Pumps:      res.Pumps,
		Elapsed:    res.Elapsed,
		FinishedAt: time.Now(),
	}
	if err != nil {
		rec.Error = err.Error()
	}
	if recErr := u.Recorder.RecordOperation(rec); recErr != nil {
		u.Logger.Warn("failed to record workshop operation", "request_id", res.RequestID.String(), "error", recErr)
	}
}
