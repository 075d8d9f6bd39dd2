package workshop

import (
	"errors"
	"sync"
	"sync/atomic"
)

// fakeClient resolves a pending unsubscribe after a fixed number of
// RunCallbacks calls. pumpsToResolve < 0 never resolves; 0 resolves during
// submission.
type fakeClient struct {
	appID          uint32
	pumpsToResolve int
	result         error
	panicOnSubmit  bool
	panicOnPump    bool

	mu        sync.Mutex
	pumps     int
	pending   func(error)
	submitted []uint64
	closed    atomic.Bool
	inCall    atomic.Int32
	overlap   atomic.Bool
}

func (f *fakeClient) enter() {
	if f.inCall.Add(1) > 1 {
		f.overlap.Store(true)
	}
}

func (f *fakeClient) leave() { f.inCall.Add(-1) }

func (f *fakeClient) UnsubscribeItem(itemID uint64, done func(error)) {
	f.enter()
	defer f.leave()
	if f.panicOnSubmit {
		panic("client blew up")
	}
	f.mu.Lock()
	f.submitted = append(f.submitted, itemID)
	if f.pumpsToResolve == 0 {
		f.mu.Unlock()
		done(f.result)
		return
	}
	f.pending = done
	f.mu.Unlock()
}

func (f *fakeClient) RunCallbacks() {
	f.enter()
	defer f.leave()
	if f.panicOnPump {
		panic("pump blew up")
	}
	f.mu.Lock()
	f.pumps++
	var cb func(error)
	if f.pending != nil && f.pumpsToResolve > 0 && f.pumps >= f.pumpsToResolve {
		cb = f.pending
		f.pending = nil
	}
	f.mu.Unlock()
	if cb != nil {
		cb(f.result)
	}
}

func (f *fakeClient) Close() error {
	if f.closed.Swap(true) {
		return errors.New("closed twice")
	}
	return nil
}

func (f *fakeClient) pumpCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.pumps
}

// fakeFactory tracks how many clients it built and how many are still open.
type fakeFactory struct {
	mu       sync.Mutex
	built    []*fakeClient
	failWith error
	template fakeClient
}

func (ff *fakeFactory) Build(appID uint32) (Client, error) {
	ff.mu.Lock()
	defer ff.mu.Unlock()
	if ff.failWith != nil {
		return nil, ff.failWith
	}
	c := &fakeClient{
		appID:          appID,
		pumpsToResolve: ff.template.pumpsToResolve,
		result:         ff.template.result,
		panicOnSubmit:  ff.template.panicOnSubmit,
	}
	ff.built = append(ff.built, c)
	return c, nil
}

func (ff *fakeFactory) live() int {
	ff.mu.Lock()
	defer ff.mu.Unlock()
	n := 0
	for _, c := range ff.built {
		if !c.closed.Load() {
			n++
		}
	}
	return n
}

func (ff *fakeFactory) last() *fakeClient {
	ff.mu.Lock()
	defer ff.mu.Unlock()
	if len(ff.built) == 0 {
		return nil
	}
	return ff.built[len(ff.built)-1]
}

type memRecorder struct {
	mu   sync.Mutex
	recs []*OperationRecord
	err  error
}

func (m *memRecorder) RecordOperation(rec *OperationRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.recs = append(m.recs, rec)
	return m.err
}
