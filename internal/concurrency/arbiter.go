// Package concurrency implements C8: the per-conversation serialization
// lock and the global local-mode concurrency cap every chat turn must
// acquire before calling an LLM provider.
package concurrency

import (
	"context"
	"sync"
	"time"

	"golang.org/x/sync/semaphore"

	apperrors "github.com/Sourabsb/doctalk/internal/errors"
	"github.com/Sourabsb/doctalk/internal/session"
	"github.com/Sourabsb/doctalk/internal/types"
)

// convLock is a 1-buffered channel acting as a lock: a send acquires it,
// a receive releases it. Unlike sync.Mutex this lets AcquireConversation
// abandon a timed-out wait without leaving a goroutine blocked forever
// trying to acquire on our behalf. held tracks whether it is currently
// acquired, so the entry can be garbage-collected only when false (G5).
type convLock struct {
	ch   chan struct{}
	held bool
}

func newConvLock() *convLock {
	return &convLock{ch: make(chan struct{}, 1)}
}

// Arbiter is the central serialization primitive (C8). One Arbiter per
// process; lock state is scoped to this runtime only (G4).
type Arbiter struct {
	convTimeout  time.Duration
	localTimeout time.Duration

	locksMu sync.Mutex
	locks   map[int64]*convLock

	localSem *semaphore.Weighted
	recorder session.Recorder
}

// New builds an Arbiter with the given conversation and local-mode
// timeouts (cmd/server passes the configured values) and the local-mode
// concurrency cap P (OLLAMA_MAX_PARALLEL), mirroring busy-state through
// recorder for cross-process visibility (pass session.NoopRecorder{} to
// disable).
func New(convTimeout, localTimeout time.Duration, maxLocalParallel int, recorder session.Recorder) *Arbiter {
	if recorder == nil {
		recorder = session.NoopRecorder{}
	}
	return &Arbiter{
		convTimeout:  convTimeout,
		localTimeout: localTimeout,
		locks:        make(map[int64]*convLock),
		localSem:     semaphore.NewWeighted(int64(maxLocalParallel)),
		recorder:     recorder,
	}
}

// Release undoes exactly the locks AcquireConversation/AcquireLocal
// successfully acquired; call via defer immediately after a successful
// Acquire* so the release path runs even on cancellation (G3).
type Release func()

// AcquireConversation enforces G1: at most one in-flight LLM call per
// convId. A concurrent caller on the same conversation waits up to
// T_conv, then fails Busy.
func (a *Arbiter) AcquireConversation(ctx context.Context, convID int64) (Release, error) {
	lock := a.lockFor(convID)

	waitCtx, cancel := context.WithTimeout(ctx, a.convTimeout)
	defer cancel()

	select {
	case lock.ch <- struct{}{}:
		lock.held = true
		a.recorder.MarkBusy(ctx, convID, a.convTimeout)
		var once sync.Once
		return func() {
			once.Do(func() {
				lock.held = false
				<-lock.ch
				a.maybeEvict(convID, lock)
				a.recorder.ClearBusy(context.Background(), convID)
			})
		}, nil
	case <-waitCtx.Done():
		return nil, apperrors.NewBusyError("conversation is busy with another in-flight request")
	}
}

func (a *Arbiter) lockFor(convID int64) *convLock {
	a.locksMu.Lock()
	defer a.locksMu.Unlock()

	lock, ok := a.locks[convID]
	if !ok {
		lock = newConvLock()
		a.locks[convID] = lock
	}
	return lock
}

func (a *Arbiter) maybeEvict(convID int64, lock *convLock) {
	a.locksMu.Lock()
	defer a.locksMu.Unlock()
	if current, ok := a.locks[convID]; ok && current == lock && !lock.held {
		delete(a.locks, convID)
	}
}

// AcquireLocal enforces G2: across all conversations, at most P
// concurrent local-model calls. Excess waiters queue up to T_local then
// fail Busy. Non-local modes are a no-op pass-through.
func (a *Arbiter) AcquireLocal(ctx context.Context, mode types.LLMMode) (Release, error) {
	if mode != types.LLMModeLocal {
		return func() {}, nil
	}

	waitCtx, cancel := context.WithTimeout(ctx, a.localTimeout)
	defer cancel()

	if err := a.localSem.Acquire(waitCtx, 1); err != nil {
		return nil, apperrors.NewBusyError("too many concurrent local-model requests")
	}

	var once sync.Once
	return func() {
		once.Do(func() { a.localSem.Release(1) })
	}, nil
}
