package orchestrator

import (
	"context"
	"errors"
	"testing"

	"github.com/stackpilot/branchpilot/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

type taskFixture struct {
	orch      *TaskOrchestrator
	lock      *mockRunLocker
	refresher *mockRefresher
	resolver  *mockResolver
	committer *mockCommitter
	outputs   *mockOutputReporter
}

func newTaskFixture(t *testing.T) *taskFixture {
	t.Helper()
	f := &taskFixture{
		lock:      new(mockRunLocker),
		refresher: new(mockRefresher),
		resolver:  new(mockResolver),
		committer: new(mockCommitter),
		outputs:   new(mockOutputReporter),
	}
	f.orch = NewTaskOrchestrator(f.lock, f.refresher, f.resolver, f.committer, f.outputs, nil)
	return f
}

func (f *taskFixture) assertExpectations(t *testing.T) {
	f.lock.AssertExpectations(t)
	f.refresher.AssertExpectations(t)
	f.resolver.AssertExpectations(t)
	f.committer.AssertExpectations(t)
	f.outputs.AssertExpectations(t)
}

func TestTaskOrchestrator_Execute(t *testing.T) {
	evt := &domain.EventContext{Kind: domain.KindIssue, Number: 42, RunID: "run-1", Actor: "octocat"}

	t.Run("Should run the full workflow and report all outputs", func(t *testing.T) {
		f := newTaskFixture(t)
		info := &domain.BranchInfo{
			BaseBranch:    "main",
			AgentBranch:   "agent-issue-42-20240315-1430",
			CurrentBranch: "main",
		}
		f.lock.On("Acquire", mock.Anything).Return(nil)
		f.lock.On("Release").Return(nil)
		f.refresher.On("Refresh", mock.Anything, mock.Anything).Return(nil)
		f.resolver.On("Execute", mock.Anything, evt, mock.Anything).Return(info, nil)
		f.outputs.On("Set", "branch", "agent-issue-42-20240315-1430").Return(nil)
		f.outputs.On("Set", "base_branch", "main").Return(nil)
		f.committer.On("Execute", mock.Anything, evt, info, mock.Anything).Return(true, nil)
		f.outputs.On("Set", "committed", "true").Return(nil)
		err := f.orch.Execute(context.Background(), evt, TaskConfig{})
		require.NoError(t, err)
		f.assertExpectations(t)
	})

	t.Run("Should omit the branch output when no work branch was made", func(t *testing.T) {
		f := newTaskFixture(t)
		info := &domain.BranchInfo{BaseBranch: "main", CurrentBranch: "feature/pr-head"}
		f.lock.On("Acquire", mock.Anything).Return(nil)
		f.lock.On("Release").Return(nil)
		f.refresher.On("Refresh", mock.Anything, mock.Anything).Return(nil)
		f.resolver.On("Execute", mock.Anything, evt, mock.Anything).Return(info, nil)
		f.outputs.On("Set", "base_branch", "main").Return(nil)
		f.committer.On("Execute", mock.Anything, evt, info, mock.Anything).Return(false, nil)
		f.outputs.On("Set", "committed", "false").Return(nil)
		err := f.orch.Execute(context.Background(), evt, TaskConfig{})
		require.NoError(t, err)
		f.assertExpectations(t)
		f.outputs.AssertNotCalled(t, "Set", "branch", mock.Anything)
	})

	t.Run("Should resolve but not commit in dry-run mode", func(t *testing.T) {
		f := newTaskFixture(t)
		info := &domain.BranchInfo{BaseBranch: "main", AgentBranch: "agent-issue-42-20240315-1430", CurrentBranch: "main"}
		f.lock.On("Acquire", mock.Anything).Return(nil)
		f.lock.On("Release").Return(nil)
		f.refresher.On("Refresh", mock.Anything, mock.Anything).Return(nil)
		f.resolver.On("Execute", mock.Anything, evt, mock.Anything).Return(info, nil)
		f.outputs.On("Set", "branch", "agent-issue-42-20240315-1430").Return(nil)
		f.outputs.On("Set", "base_branch", "main").Return(nil)
		f.outputs.On("Set", "committed", "false").Return(nil)
		err := f.orch.Execute(context.Background(), evt, TaskConfig{DryRun: true})
		require.NoError(t, err)
		f.assertExpectations(t)
		f.committer.AssertNotCalled(t, "Execute", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("Should reject a malformed branch override up front", func(t *testing.T) {
		f := newTaskFixture(t)
		bad := &domain.EventContext{Kind: domain.KindIssue, Number: 1, Branch: "feature/../escape"}
		err := f.orch.Execute(context.Background(), bad, TaskConfig{})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "invalid branch override")
		f.lock.AssertNotCalled(t, "Acquire", mock.Anything)
	})

	t.Run("Should stop when the run lock cannot be acquired", func(t *testing.T) {
		f := newTaskFixture(t)
		f.lock.On("Acquire", mock.Anything).Return(errors.New("another run holds the lock"))
		err := f.orch.Execute(context.Background(), evt, TaskConfig{})
		require.Error(t, err)
		f.refresher.AssertNotCalled(t, "Refresh", mock.Anything, mock.Anything)
		f.lock.AssertNotCalled(t, "Release")
	})

	t.Run("Should stop when the initial credential cannot be acquired", func(t *testing.T) {
		f := newTaskFixture(t)
		f.lock.On("Acquire", mock.Anything).Return(nil)
		f.lock.On("Release").Return(nil)
		f.refresher.On("Refresh", mock.Anything, mock.Anything).Return(errors.New("token endpoint unavailable"))
		err := f.orch.Execute(context.Background(), evt, TaskConfig{})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "failed to prepare credentials")
		f.resolver.AssertNotCalled(t, "Execute", mock.Anything, mock.Anything, mock.Anything)
		f.lock.AssertExpectations(t)
	})

	t.Run("Should not commit when branch resolution fails", func(t *testing.T) {
		f := newTaskFixture(t)
		f.lock.On("Acquire", mock.Anything).Return(nil)
		f.lock.On("Release").Return(nil)
		f.refresher.On("Refresh", mock.Anything, mock.Anything).Return(nil)
		f.resolver.On("Execute", mock.Anything, evt, mock.Anything).
			Return(nil, &domain.BranchNotFoundError{Branch: "gone"})
		err := f.orch.Execute(context.Background(), evt, TaskConfig{})
		require.Error(t, err)
		var notFound *domain.BranchNotFoundError
		assert.ErrorAs(t, err, &notFound)
		f.committer.AssertNotCalled(t, "Execute", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
		f.outputs.AssertNotCalled(t, "Set", mock.Anything, mock.Anything)
	})

	t.Run("Should surface commit failures after branch outputs were reported", func(t *testing.T) {
		f := newTaskFixture(t)
		info := &domain.BranchInfo{BaseBranch: "main", AgentBranch: "agent-issue-42-20240315-1430", CurrentBranch: "main"}
		f.lock.On("Acquire", mock.Anything).Return(nil)
		f.lock.On("Release").Return(nil)
		f.refresher.On("Refresh", mock.Anything, mock.Anything).Return(nil)
		f.resolver.On("Execute", mock.Anything, evt, mock.Anything).Return(info, nil)
		f.outputs.On("Set", "branch", mock.Anything).Return(nil)
		f.outputs.On("Set", "base_branch", "main").Return(nil)
		f.committer.On("Execute", mock.Anything, evt, info, mock.Anything).Return(false, errors.New("remote hung up"))
		err := f.orch.Execute(context.Background(), evt, TaskConfig{})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "failed to commit and push")
		f.outputs.AssertNotCalled(t, "Set", "committed", mock.Anything)
	})

	t.Run("Should log the triggering repository and entity", func(t *testing.T) {
		f := newTaskFixture(t)
		core, logs := observer.New(zap.InfoLevel)
		f.orch = NewTaskOrchestrator(f.lock, f.refresher, f.resolver, f.committer, f.outputs, zap.New(core))
		scoped := &domain.EventContext{
			Owner:  "octo",
			Repo:   "widgets",
			Kind:   domain.KindIssue,
			Number: 42,
		}
		f.lock.On("Acquire", mock.Anything).Return(nil)
		f.lock.On("Release").Return(nil)
		f.refresher.On("Refresh", mock.Anything, mock.Anything).Return(errors.New("boom"))
		_ = f.orch.Execute(context.Background(), scoped, TaskConfig{})
		entries := logs.FilterMessage("task started").All()
		require.Len(t, entries, 1)
		fields := entries[0].ContextMap()
		assert.Equal(t, "octo/widgets", fields["repository"])
		assert.Equal(t, "issue", fields["entity"])
		assert.Equal(t, int64(42), fields["number"])
	})

	t.Run("Should release the lock even when the workflow fails", func(t *testing.T) {
		f := newTaskFixture(t)
		f.lock.On("Acquire", mock.Anything).Return(nil)
		f.lock.On("Release").Return(nil)
		f.refresher.On("Refresh", mock.Anything, mock.Anything).Return(errors.New("boom"))
		_ = f.orch.Execute(context.Background(), evt, TaskConfig{})
		f.lock.AssertCalled(t, "Release")
	})
}

func TestValidateBranchName(t *testing.T) {
	t.Run("Should accept typical branch names", func(t *testing.T) {
		for _, name := range []string{"main", "feature/login", "agent-issue-42-20240315-1430", "v1.2-fixes"} {
			assert.NoError(t, ValidateBranchName(name), name)
		}
	})
	t.Run("Should reject malformed branch names", func(t *testing.T) {
		for _, name := range []string{"", "/leading", "trailing/", "a..b", "locked.lock", "spa ce", "hash#tag"} {
			assert.Error(t, ValidateBranchName(name), name)
		}
	})
}
