package usecase

import (
	"context"
	"testing"
	"time"

	"github.com/stackpilot/branchpilot/internal/credential"
	"github.com/stackpilot/branchpilot/internal/domain"
	"github.com/stretchr/testify/mock"
)

// Mock for GitRepository - implements ALL methods from the interface
type mockGitRepository struct{ mock.Mock }

func (m *mockGitRepository) FetchBranch(ctx context.Context, name string, depth int) error {
	args := m.Called(ctx, name, depth)
	return args.Error(0)
}
func (m *mockGitRepository) PushBranch(ctx context.Context, name string) error {
	args := m.Called(ctx, name)
	return args.Error(0)
}
func (m *mockGitRepository) PushNewBranch(ctx context.Context, name string) error {
	args := m.Called(ctx, name)
	return args.Error(0)
}
func (m *mockGitRepository) CheckoutBranch(ctx context.Context, name string) error {
	args := m.Called(ctx, name)
	return args.Error(0)
}
func (m *mockGitRepository) CreateBranchFrom(ctx context.Context, name, source string) error {
	args := m.Called(ctx, name, source)
	return args.Error(0)
}
func (m *mockGitRepository) CurrentBranch(ctx context.Context) (string, error) {
	args := m.Called(ctx)
	return args.String(0), args.Error(1)
}
func (m *mockGitRepository) HasChanges(ctx context.Context) (bool, error) {
	args := m.Called(ctx)
	return args.Bool(0), args.Error(1)
}
func (m *mockGitRepository) AddAll(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}
func (m *mockGitRepository) Commit(ctx context.Context, message string) error {
	args := m.Called(ctx, message)
	return args.Error(0)
}
func (m *mockGitRepository) ConfigureUser(ctx context.Context, name, email string) error {
	args := m.Called(ctx, name, email)
	return args.Error(0)
}
func (m *mockGitRepository) SetAuthToken(token string) error {
	args := m.Called(token)
	return args.Error(0)
}

// Mock for HostRepository
type mockHostRepository struct{ mock.Mock }

func (m *mockHostRepository) BranchExists(ctx context.Context, branch string) (bool, error) {
	args := m.Called(ctx, branch)
	return args.Bool(0), args.Error(1)
}
func (m *mockHostRepository) DefaultBranch(ctx context.Context) (string, error) {
	args := m.Called(ctx)
	return args.String(0), args.Error(1)
}
func (m *mockHostRepository) RefSHA(ctx context.Context, ref string) (string, error) {
	args := m.Called(ctx, ref)
	return args.String(0), args.Error(1)
}
func (m *mockHostRepository) PullRequest(ctx context.Context, number int) (*domain.PullRequest, error) {
	args := m.Called(ctx, number)
	if pr := args.Get(0); pr != nil {
		return pr.(*domain.PullRequest), args.Error(1)
	}
	return nil, args.Error(1)
}

// newTestExecutor builds an executor whose credential never goes stale
// during a test, so no refresh interferes with mock expectations.
func newTestExecutor(t *testing.T, git *mockGitRepository) (*credential.Executor, *credential.RefreshState) {
	t.Helper()
	lifecycle := credential.NewLifecycle(credential.NewEnvTokenSource("BP_TEST_UNSET_TOKEN"), git, nil)
	return credential.NewExecutor(lifecycle, nil), credential.NewRefreshState(time.Now())
}
