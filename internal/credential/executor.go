package credential

import (
	"context"
	"strings"

	"go.uber.org/zap"
)

// Operation is a zero-argument unit of work performing exactly one
// networked git action.
type Operation func(ctx context.Context) error

// authFailureMarkers are the substrings that classify a failure as an
// authentication problem. Matching an error's textual form is fragile but
// load-bearing; keep the predicate centralized so the markers can be
// hardened without touching call sites.
var authFailureMarkers = []string{
	"authentication",
	"401",
	"403",
	"token",
}

// IsAuthError reports whether a failure looks like an authentication or
// authorization problem.
func IsAuthError(err error) bool {
	if err == nil {
		return false
	}
	msg := strings.ToLower(err.Error())
	for _, marker := range authFailureMarkers {
		if strings.Contains(msg, marker) {
			return true
		}
	}
	return false
}

// Executor wraps networked git operations with a pre-flight credential
// freshness check and a single authentication-failure retry.
type Executor struct {
	lifecycle *Lifecycle
	log       *zap.Logger
}

// NewExecutor creates an Executor.
func NewExecutor(lifecycle *Lifecycle, log *zap.Logger) *Executor {
	if log == nil {
		log = zap.NewNop()
	}
	return &Executor{lifecycle: lifecycle, log: log}
}

// Run executes op, refreshing the credential up front when stale and at
// most once more after an authentication-shaped failure. Non-auth failures
// propagate immediately; transient-network retry policy belongs to the
// underlying transport, not here.
func (e *Executor) Run(ctx context.Context, state *RefreshState, op Operation) error {
	if e.lifecycle.ShouldRefresh(state.LastRefreshMillis) {
		e.log.Info("credential stale, refreshing before operation")
		if err := e.lifecycle.Refresh(ctx, state); err != nil {
			return err
		}
	}
	err := op(ctx)
	if err == nil {
		return nil
	}
	if !IsAuthError(err) {
		return err
	}
	e.log.Warn("operation failed with authentication signature, refreshing and retrying once",
		zap.Error(err))
	if refreshErr := e.lifecycle.Refresh(ctx, state); refreshErr != nil {
		return refreshErr
	}
	return op(ctx)
}
