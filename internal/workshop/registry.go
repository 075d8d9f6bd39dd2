package workshop

import (
	"fmt"
	"log/slog"
	"sync"

	"github.com/blackwell-systems/modman/internal/apperr"
)

// Registry caches at most one live Client, keyed by application id.
//
// A request for a different application drops the cached client before a
// new one is built, so the process never holds two live clients. All cache
// mutations and all calls into the client happen under a single mutex.
type Registry struct {
	mu      sync.Mutex
	factory Factory
	logger  *slog.Logger
	entry   *entry
}

type entry struct {
	appID  uint32
	client Client
}

// NewRegistry returns an empty registry that builds clients with factory.
// A nil logger falls back to slog.Default().
func NewRegistry(factory Factory, logger *slog.Logger) *Registry {
	if logger == nil {
		logger = slog.Default()
	}
	return &Registry{
		factory: factory,
		logger:  logger,
	}
}

// HasClient reports whether the cached client belongs to appID.
func (r *Registry) HasClient(appID uint32) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.entry != nil && r.entry.appID == appID
}

// GetClient returns the cached client only when it belongs to appID. It never
// constructs one.
func (r *Registry) GetClient(appID uint32) (Client, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.entry == nil || r.entry.appID != appID {
		return nil, false
	}
	return r.entry.client, true
}

// SetClient installs client as the cached entry for appID. A different
// previously cached client is closed first.
func (r *Registry) SetClient(appID uint32, client Client) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.entry != nil && r.entry.client != client {
		r.dropLocked()
	}
	r.entry = &entry{appID: appID, client: client}
}

// DropAllClients closes and forgets the cached client. Safe to call on an
// empty registry.
func (r *Registry) DropAllClients() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.dropLocked()
}

// Close releases the cached client on shutdown.
func (r *Registry) Close() {
	r.DropAllClients()
}

// Acquire returns the client for appID, replacing any client cached for a
// different application. The check, teardown and construction happen as one
// atomic step.
func (r *Registry) Acquire(appID uint32) (Client, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.entry != nil && r.entry.appID == appID {
		return r.entry.client, nil
	}

	r.dropLocked()

	if r.factory == nil {
		return nil, apperr.New(apperr.ExternalServiceUnavailable, "acquire client", "no workshop client factory configured")
	}

	client, err := r.factory(appID)
	if err != nil {
		return nil, apperr.Wrap(apperr.ExternalServiceUnavailable, "acquire client",
			fmt.Sprintf("failed to initialize workshop client for app %d", appID), err)
	}
	if client == nil {
		return nil, apperr.Newf(apperr.ExternalServiceUnavailable, "acquire client", "factory returned no client for app %d", appID)
	}

	r.entry = &entry{appID: appID, client: client}
	r.logger.Debug("workshop client created", "app_id", appID)
	return client, nil
}

// RunCallbacks invokes the servicing routine of the client for appID exactly
// once.
func (r *Registry) RunCallbacks(appID uint32) error {
	return r.WithClient(appID, func(c Client) error {
		c.RunCallbacks()
		return nil
	})
}

// WithClient runs fn with the client for appID while holding the registry
// lock, so fn never overlaps a pump or a context switch.
func (r *Registry) WithClient(appID uint32, fn func(Client) error) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.entry == nil || r.entry.appID != appID {
		return apperr.Newf(apperr.ExternalServiceUnavailable, "workshop", "no workshop client for app %d", appID)
	}
	return fn(r.entry.client)
}

// dropLocked must be called with r.mu held.
func (r *Registry) dropLocked() {
	if r.entry == nil {
		return
	}
	old := r.entry
	r.entry = nil
	if err := old.client.Close(); err != nil {
		r.logger.Warn("failed to close workshop client", "app_id", old.appID, "error", err)
		return
	}
	r.logger.Debug("workshop client dropped", "app_id", old.appID)
}
