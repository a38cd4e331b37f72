package usecase

import (
	"context"
	"fmt"

	"github.com/stackpilot/branchpilot/internal/credential"
	"github.com/stackpilot/branchpilot/internal/domain"
	"github.com/stackpilot/branchpilot/internal/repository"
)

// CommitAndPushUseCase commits pending working-tree changes as the bot
// identity and pushes them through the retrying executor.

type CommitAndPushUseCase struct {
	GitRepo  repository.GitRepository
	Executor *credential.Executor

	BotName  string
	BotEmail string
}

// Execute runs the use case. It reports whether a commit was made. A clean
// working tree is not an error: nothing is staged, committed or pushed.
func (uc *CommitAndPushUseCase) Execute(
	ctx context.Context,
	evt *domain.EventContext,
	info *domain.BranchInfo,
	state *credential.RefreshState,
) (bool, error) {
	dirty, err := uc.GitRepo.HasChanges(ctx)
	if err != nil {
		return false, fmt.Errorf("failed to check working tree status: %w", err)
	}
	if !dirty {
		return false, nil
	}
	if err := uc.GitRepo.ConfigureUser(ctx, uc.BotName, uc.BotEmail); err != nil {
		return false, fmt.Errorf("failed to configure git user: %w", err)
	}
	if err := uc.GitRepo.AddAll(ctx); err != nil {
		return false, fmt.Errorf("failed to stage changes: %w", err)
	}
	if err := uc.GitRepo.Commit(ctx, commitMessage(evt)); err != nil {
		return false, fmt.Errorf("failed to commit changes: %w", err)
	}
	target := info.AgentBranch
	if target == "" {
		target, err = uc.GitRepo.CurrentBranch(ctx)
		if err != nil {
			return false, fmt.Errorf("failed to determine push target: %w", err)
		}
	}
	err = uc.Executor.Run(ctx, state, func(ctx context.Context) error {
		return uc.GitRepo.PushBranch(ctx, target)
	})
	if err != nil {
		return false, err
	}
	return true, nil
}

// commitMessage builds the commit message. The wording is presentational,
// but run id and actor are always embedded so commits stay traceable.
func commitMessage(evt *domain.EventContext) string {
	return fmt.Sprintf(
		"chore: automated changes for %s #%d\n\nRun-Id: %s\nTriggered-By: %s",
		evt.EntityType(), evt.Number, evt.RunID, evt.Actor,
	)
}
