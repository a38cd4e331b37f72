package domain

import (
	"errors"
	"fmt"
)

// ErrNotFound is returned by hosting API lookups when the requested branch,
// ref or resource does not exist.
var ErrNotFound = errors.New("not found")

// BranchNotFoundError indicates an explicitly requested branch does not
// exist on the remote.
type BranchNotFoundError struct {
	Branch string
}

func (e *BranchNotFoundError) Error() string {
	return fmt.Sprintf("branch %q not found on remote", e.Branch)
}

// SourceBranchMissingError indicates the branch new work should be based on
// has no resolvable ref.
type SourceBranchMissingError struct {
	Branch string
}

func (e *SourceBranchMissingError) Error() string {
	return fmt.Sprintf("source branch %q has no resolvable ref", e.Branch)
}

// RefreshFailedError indicates credential issuance or git re-authentication
// failed. It wraps the underlying cause.
type RefreshFailedError struct {
	Err error
}

func (e *RefreshFailedError) Error() string {
	return fmt.Sprintf("credential refresh failed: %v", e.Err)
}

func (e *RefreshFailedError) Unwrap() error {
	return e.Err
}
