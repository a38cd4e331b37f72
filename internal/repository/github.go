package repository

import (
	"context"

	"github.com/stackpilot/branchpilot/internal/domain"
)

// HostRepository defines the interface for hosting-platform API lookups.

type HostRepository interface {
	// BranchExists reports whether the branch exists on the remote
	// repository.
	BranchExists(ctx context.Context, branch string) (bool, error)
	// DefaultBranch returns the repository's default branch name.
	DefaultBranch(ctx context.Context) (string, error)
	// RefSHA resolves a fully qualified ref such as "heads/main" to its
	// commit SHA. Returns domain.ErrNotFound when the ref does not exist.
	RefSHA(ctx context.Context, ref string) (string, error)
	// PullRequest fetches the details the resolver needs for a pull
	// request.
	PullRequest(ctx context.Context, number int) (*domain.PullRequest, error)
}
