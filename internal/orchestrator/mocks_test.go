package orchestrator

import (
	"context"

	"github.com/stackpilot/branchpilot/internal/credential"
	"github.com/stackpilot/branchpilot/internal/domain"
	"github.com/stretchr/testify/mock"
)

// Mock for RunLocker
type mockRunLocker struct{ mock.Mock }

func (m *mockRunLocker) Acquire(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}
func (m *mockRunLocker) Release() error {
	args := m.Called()
	return args.Error(0)
}

// Mock for CredentialRefresher
type mockRefresher struct{ mock.Mock }

func (m *mockRefresher) Refresh(ctx context.Context, state *credential.RefreshState) error {
	args := m.Called(ctx, state)
	return args.Error(0)
}

// Mock for BranchResolver
type mockResolver struct{ mock.Mock }

func (m *mockResolver) Execute(
	ctx context.Context,
	evt *domain.EventContext,
	state *credential.RefreshState,
) (*domain.BranchInfo, error) {
	args := m.Called(ctx, evt, state)
	if info := args.Get(0); info != nil {
		return info.(*domain.BranchInfo), args.Error(1)
	}
	return nil, args.Error(1)
}

// Mock for ChangeCommitter
type mockCommitter struct{ mock.Mock }

func (m *mockCommitter) Execute(
	ctx context.Context,
	evt *domain.EventContext,
	info *domain.BranchInfo,
	state *credential.RefreshState,
) (bool, error) {
	args := m.Called(ctx, evt, info, state)
	return args.Bool(0), args.Error(1)
}

// Mock for OutputReporter
type mockOutputReporter struct{ mock.Mock }

func (m *mockOutputReporter) Set(name, value string) error {
	args := m.Called(name, value)
	return args.Error(0)
}
