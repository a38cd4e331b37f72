package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/gofrs/flock"
)

const (
	// RunLockTimeout defines the maximum time to wait for the run lock.
	RunLockTimeout = 30 * time.Second
	// RunLockRetryInterval defines the interval between lock retry attempts.
	RunLockRetryInterval = 100 * time.Millisecond
)

// RunLock guards the working tree against concurrent task runs. The local
// checkout and its single checked-out branch are process-wide mutable
// state, so exactly one run may be live against a checkout at a time.
type RunLock struct {
	lock *flock.Flock
}

// NewRunLock creates a run lock backed by the given file path.
func NewRunLock(path string) *RunLock {
	return &RunLock{lock: flock.New(path)}
}

// Acquire takes the exclusive lock, polling until it succeeds or the
// timeout elapses.
func (l *RunLock) Acquire(ctx context.Context) error {
	lockCtx, cancel := context.WithTimeout(ctx, RunLockTimeout)
	defer cancel()
	ticker := time.NewTicker(RunLockRetryInterval)
	defer ticker.Stop()
	for {
		locked, err := l.lock.TryLock()
		if err != nil {
			return fmt.Errorf("failed to acquire run lock: %w", err)
		}
		if locked {
			return nil
		}
		select {
		case <-lockCtx.Done():
			return fmt.Errorf("another run holds the lock: %w", lockCtx.Err())
		case <-ticker.C:
		}
	}
}

// Release drops the lock. Safe to call when the lock was never acquired.
func (l *RunLock) Release() error {
	if err := l.lock.Unlock(); err != nil {
		return fmt.Errorf("failed to release run lock: %w", err)
	}
	return nil
}
