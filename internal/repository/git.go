package repository

import "context"

// GitRepository defines the interface for version-control operations against
// the local checkout and its origin remote.

type GitRepository interface {
	// Networked operations. These consult whatever token was last installed
	// via SetAuthToken and must be executed through the retrying executor.
	FetchBranch(ctx context.Context, name string, depth int) error
	PushBranch(ctx context.Context, name string) error
	PushNewBranch(ctx context.Context, name string) error

	// Local operations.
	CheckoutBranch(ctx context.Context, name string) error
	CreateBranchFrom(ctx context.Context, name, source string) error
	CurrentBranch(ctx context.Context) (string, error)
	HasChanges(ctx context.Context) (bool, error)
	AddAll(ctx context.Context) error
	Commit(ctx context.Context, message string) error
	ConfigureUser(ctx context.Context, name, email string) error

	// SetAuthToken reconfigures the credential used by subsequent networked
	// operations against the origin remote.
	SetAuthToken(token string) error
}
