package credential

import (
	"context"
	"time"

	"github.com/stackpilot/branchpilot/internal/domain"
	"go.uber.org/zap"
)

// RefreshInterval is how long a credential is trusted before the next
// networked operation refreshes it. Chosen conservatively below the
// one-hour lifetime of installation tokens, leaving margin for clock skew
// and in-flight operation duration.
const RefreshInterval = 45 * time.Minute

// RefreshState records the last successful credential refresh or
// acquisition in milliseconds since epoch. One cell is created per task run
// and passed by pointer into every executor call, so a single refresh
// benefits all subsequent operations of the run. Not safe for concurrent
// runs against the same checkout.
type RefreshState struct {
	LastRefreshMillis int64
}

// NewRefreshState creates a state cell initialized to the given time,
// normally the moment the run's initial credential was acquired.
func NewRefreshState(now time.Time) *RefreshState {
	return &RefreshState{LastRefreshMillis: now.UnixMilli()}
}

// AuthReconfigurer installs a fresh credential into the local git remote
// configuration.
type AuthReconfigurer interface {
	SetAuthToken(token string) error
}

// Lifecycle tracks credential age and performs refresh plus
// re-authentication of the local remote.
type Lifecycle struct {
	source TokenSource
	git    AuthReconfigurer
	now    func() time.Time
	log    *zap.Logger
}

// NewLifecycle creates a Lifecycle.
func NewLifecycle(source TokenSource, git AuthReconfigurer, log *zap.Logger) *Lifecycle {
	if log == nil {
		log = zap.NewNop()
	}
	return &Lifecycle{
		source: source,
		git:    git,
		now:    time.Now,
		log:    log,
	}
}

// ShouldRefresh reports whether the credential acquired at lastMillis is
// stale. The boundary is inclusive: exactly RefreshInterval elapsed means
// refresh.
func (l *Lifecycle) ShouldRefresh(lastMillis int64) bool {
	return l.now().UnixMilli()-lastMillis >= RefreshInterval.Milliseconds()
}

// Refresh obtains a fresh credential, reconfigures the remote to use it and
// marks state with the refresh time. Safe to call on a credential that has
// not expired yet.
func (l *Lifecycle) Refresh(ctx context.Context, state *RefreshState) error {
	token, err := l.source.IssueToken(ctx)
	if err != nil {
		return &domain.RefreshFailedError{Err: err}
	}
	if err := l.git.SetAuthToken(token); err != nil {
		return &domain.RefreshFailedError{Err: err}
	}
	state.LastRefreshMillis = l.now().UnixMilli()
	l.log.Debug("credential refreshed")
	return nil
}
