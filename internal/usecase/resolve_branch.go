package usecase

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/stackpilot/branchpilot/internal/credential"
	"github.com/stackpilot/branchpilot/internal/domain"
	"github.com/stackpilot/branchpilot/internal/repository"
)

// MinFetchDepth is the floor for fetch depth on existing branches: enough
// history for small pull requests to diff correctly while bounding the
// transfer for large ones.
const MinFetchDepth = 20

// ResolveBranchUseCase decides which branch the agent works on: an
// explicitly requested branch, the head of an open pull request, or a
// freshly synthesized work branch.

type ResolveBranchUseCase struct {
	GitRepo  repository.GitRepository
	HostRepo repository.HostRepository
	Executor *credential.Executor

	// Now is injectable for deterministic branch names in tests.
	Now func() time.Time
}

// Execute runs the use case. It returns the branch decision; the working
// tree is guaranteed to be checked out to CurrentBranch on return.
func (uc *ResolveBranchUseCase) Execute(
	ctx context.Context,
	evt *domain.EventContext,
	state *credential.RefreshState,
) (*domain.BranchInfo, error) {
	switch {
	case evt.Branch != "":
		return uc.checkoutRequestedBranch(ctx, evt, state)
	case evt.Kind == domain.KindPullRequest && evt.PullRequest != nil && evt.PullRequest.IsOpen():
		return uc.checkoutPullRequestHead(ctx, evt, state)
	default:
		return uc.createWorkBranch(ctx, evt, state)
	}
}

// checkoutRequestedBranch handles the explicit branch override: the branch
// must already exist on the remote.
func (uc *ResolveBranchUseCase) checkoutRequestedBranch(
	ctx context.Context,
	evt *domain.EventContext,
	state *credential.RefreshState,
) (*domain.BranchInfo, error) {
	exists, err := uc.HostRepo.BranchExists(ctx, evt.Branch)
	if err != nil {
		return nil, err
	}
	if !exists {
		return nil, &domain.BranchNotFoundError{Branch: evt.Branch}
	}
	err = uc.Executor.Run(ctx, state, func(ctx context.Context) error {
		return uc.GitRepo.FetchBranch(ctx, evt.Branch, MinFetchDepth)
	})
	if err != nil {
		return nil, err
	}
	if err := uc.GitRepo.CheckoutBranch(ctx, evt.Branch); err != nil {
		return nil, err
	}
	baseBranch, err := uc.baseBranch(ctx, evt)
	if err != nil {
		return nil, err
	}
	return &domain.BranchInfo{
		BaseBranch:    baseBranch,
		AgentBranch:   evt.Branch,
		CurrentBranch: evt.Branch,
	}, nil
}

// checkoutPullRequestHead checks out the head of an open pull request; the
// agent operates directly on the existing branch and no agent branch is
// created. The pull-request state was read at context-build time; a state
// transition between then and the checkout is an accepted staleness window.
func (uc *ResolveBranchUseCase) checkoutPullRequestHead(
	ctx context.Context,
	evt *domain.EventContext,
	state *credential.RefreshState,
) (*domain.BranchInfo, error) {
	pr := evt.PullRequest
	depth := pr.Commits
	if depth < MinFetchDepth {
		depth = MinFetchDepth
	}
	err := uc.Executor.Run(ctx, state, func(ctx context.Context) error {
		return uc.GitRepo.FetchBranch(ctx, pr.HeadBranch, depth)
	})
	if err != nil {
		return nil, err
	}
	if err := uc.GitRepo.CheckoutBranch(ctx, pr.HeadBranch); err != nil {
		return nil, err
	}
	return &domain.BranchInfo{
		BaseBranch:    pr.BaseBranch,
		CurrentBranch: pr.HeadBranch,
	}, nil
}

// createWorkBranch synthesizes a new branch for an issue or a closed/merged
// pull request. When commit signing is delegated, branch creation is
// deferred to the signing service and the checkout stays on the source
// branch.
func (uc *ResolveBranchUseCase) createWorkBranch(
	ctx context.Context,
	evt *domain.EventContext,
	state *credential.RefreshState,
) (*domain.BranchInfo, error) {
	sourceBranch, err := uc.baseBranch(ctx, evt)
	if err != nil {
		return nil, err
	}
	branchName := domain.NewWorkBranchName(evt.BranchPrefix, evt.EntityType(), evt.Number, uc.now())
	_, err = uc.HostRepo.RefSHA(ctx, "heads/"+sourceBranch)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, &domain.SourceBranchMissingError{Branch: sourceBranch}
		}
		return nil, err
	}
	if evt.UseCommitSigning {
		return &domain.BranchInfo{
			BaseBranch:    sourceBranch,
			AgentBranch:   branchName,
			CurrentBranch: sourceBranch,
		}, nil
	}
	err = uc.Executor.Run(ctx, state, func(ctx context.Context) error {
		return uc.GitRepo.FetchBranch(ctx, sourceBranch, 1)
	})
	if err != nil {
		return nil, err
	}
	if err := uc.GitRepo.CreateBranchFrom(ctx, branchName, sourceBranch); err != nil {
		return nil, fmt.Errorf("failed to create work branch: %w", err)
	}
	err = uc.Executor.Run(ctx, state, func(ctx context.Context) error {
		return uc.GitRepo.PushNewBranch(ctx, branchName)
	})
	if err != nil {
		return nil, err
	}
	return &domain.BranchInfo{
		BaseBranch:    sourceBranch,
		AgentBranch:   branchName,
		CurrentBranch: branchName,
	}, nil
}

// baseBranch returns the explicit base-branch override when given, else the
// repository's default branch.
func (uc *ResolveBranchUseCase) baseBranch(ctx context.Context, evt *domain.EventContext) (string, error) {
	if evt.BaseBranch != "" {
		return evt.BaseBranch, nil
	}
	branch, err := uc.HostRepo.DefaultBranch(ctx)
	if err != nil {
		return "", fmt.Errorf("failed to determine base branch: %w", err)
	}
	return branch, nil
}

func (uc *ResolveBranchUseCase) now() time.Time {
	if uc.Now != nil {
		return uc.Now()
	}
	return time.Now()
}
