package orchestrator

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/stackpilot/branchpilot/internal/credential"
	"github.com/stackpilot/branchpilot/internal/domain"
	"github.com/stackpilot/branchpilot/internal/repository"
	"go.uber.org/zap"
)

// BranchResolver prepares the branch the task will work on.
type BranchResolver interface {
	Execute(ctx context.Context, evt *domain.EventContext, state *credential.RefreshState) (*domain.BranchInfo, error)
}

// ChangeCommitter commits and pushes any pending working-tree changes.
type ChangeCommitter interface {
	Execute(ctx context.Context, evt *domain.EventContext, info *domain.BranchInfo, state *credential.RefreshState) (bool, error)
}

// CredentialRefresher acquires a credential and reconfigures git auth.
type CredentialRefresher interface {
	Refresh(ctx context.Context, state *credential.RefreshState) error
}

// RunLocker serializes runs against the shared local checkout.
type RunLocker interface {
	Acquire(ctx context.Context) error
	Release() error
}

// TaskOrchestrator drives a full task run: lock the checkout, acquire
// credentials, resolve the working branch, then commit and push whatever
// the task changed. Results are reported through the output channel.
type TaskOrchestrator struct {
	lock      RunLocker
	lifecycle CredentialRefresher
	resolver  BranchResolver
	committer ChangeCommitter
	outputs   repository.OutputReporter
	clock     func() time.Time
	log       *zap.Logger
}

// NewTaskOrchestrator creates a new task orchestrator.
func NewTaskOrchestrator(
	lock RunLocker,
	lifecycle CredentialRefresher,
	resolver BranchResolver,
	committer ChangeCommitter,
	outputs repository.OutputReporter,
	log *zap.Logger,
) *TaskOrchestrator {
	if log == nil {
		log = zap.NewNop()
	}
	return &TaskOrchestrator{
		lock:      lock,
		lifecycle: lifecycle,
		resolver:  resolver,
		committer: committer,
		outputs:   outputs,
		clock:     time.Now,
		log:       log,
	}
}

// TaskConfig contains configuration for the task workflow.
type TaskConfig struct {
	DryRun bool
}

// Execute runs the complete task workflow.
func (o *TaskOrchestrator) Execute(ctx context.Context, evt *domain.EventContext, cfg TaskConfig) error {
	ctx, cancel := context.WithTimeout(ctx, DefaultWorkflowTimeout)
	defer cancel()
	o.log.Info("task started",
		zap.String("repository", evt.Owner+"/"+evt.Repo),
		zap.String("entity", evt.EntityType()),
		zap.Int("number", evt.Number),
	)
	if evt.Branch != "" {
		if err := ValidateBranchName(evt.Branch); err != nil {
			return fmt.Errorf("invalid branch override: %w", err)
		}
	}
	if err := o.lock.Acquire(ctx); err != nil {
		return err
	}
	defer func() {
		if err := o.lock.Release(); err != nil {
			o.log.Warn("failed to release run lock", zap.Error(err))
		}
	}()
	// Step 1: Acquire the initial credential. The state cell it stamps is
	// shared with every retrying operation of the run.
	state := credential.NewRefreshState(o.clock())
	if err := o.lifecycle.Refresh(ctx, state); err != nil {
		return fmt.Errorf("failed to prepare credentials: %w", err)
	}
	// Step 2: Resolve the branch the task will run on.
	info, err := o.resolver.Execute(ctx, evt, state)
	if err != nil {
		return fmt.Errorf("failed to resolve branch: %w", err)
	}
	o.log.Info("branch resolved",
		zap.String("branch", info.AgentBranch),
		zap.String("current_branch", info.CurrentBranch),
		zap.String("base_branch", info.BaseBranch),
	)
	// The branch output is only meaningful when the run has a branch of its
	// own; on an existing PR head it stays absent.
	if info.HasAgentBranch() {
		if err := o.outputs.Set("branch", info.AgentBranch); err != nil {
			return err
		}
	}
	if err := o.outputs.Set("base_branch", info.BaseBranch); err != nil {
		return err
	}
	if cfg.DryRun {
		o.log.Info("dry run, skipping commit and push")
		return o.outputs.Set("committed", "false")
	}
	// Step 3: Commit and push anything the task changed.
	committed, err := o.committer.Execute(ctx, evt, info, state)
	if err != nil {
		return fmt.Errorf("failed to commit and push: %w", err)
	}
	if committed {
		o.log.Info("changes pushed", zap.String("branch", info.CurrentBranch))
	} else {
		o.log.Info("working tree clean, nothing to push")
	}
	return o.outputs.Set("committed", strconv.FormatBool(committed))
}
