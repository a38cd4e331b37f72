package repository

import (
	"context"
	"fmt"
	"os"
	"sync"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/config"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/transport/http"
)

// gitRepository is the implementation of the GitRepository interface.

type gitRepository struct {
	repo *git.Repository

	mu    sync.Mutex
	token string
}

// NewGitRepository opens the checkout in the working directory.
func NewGitRepository(token string) (GitRepository, error) {
	repo, err := git.PlainOpen(".")
	if err != nil {
		return nil, fmt.Errorf("failed to open git repository: %w", err)
	}
	return &gitRepository{repo: repo, token: token}, nil
}

// SetAuthToken installs a fresh credential for subsequent networked
// operations against the origin remote.
func (r *gitRepository) SetAuthToken(token string) error {
	if token == "" {
		return fmt.Errorf("auth token cannot be empty")
	}
	r.mu.Lock()
	r.token = token
	r.mu.Unlock()
	return nil
}

// getAuth returns authentication configuration for the origin remote.
func (r *gitRepository) getAuth() *http.BasicAuth {
	r.mu.Lock()
	token := r.token
	r.mu.Unlock()
	if token == "" {
		token = os.Getenv("GITHUB_TOKEN")
	}
	if token == "" {
		return nil
	}
	// Use x-access-token as username for GitHub token authentication
	return &http.BasicAuth{
		Username: "x-access-token",
		Password: token,
	}
}

// FetchBranch fetches a single branch from origin with the given depth.
func (r *gitRepository) FetchBranch(ctx context.Context, name string, depth int) error {
	remote, err := r.repo.Remote("origin")
	if err != nil {
		return fmt.Errorf("failed to get remote: %w", err)
	}
	spec := config.RefSpec(fmt.Sprintf("+refs/heads/%s:refs/remotes/origin/%s", name, name))
	err = remote.FetchContext(ctx, &git.FetchOptions{
		RefSpecs: []config.RefSpec{spec},
		Depth:    depth,
		Tags:     git.NoTags,
		Auth:     r.getAuth(),
	})
	if err != nil && err != git.NoErrAlreadyUpToDate {
		return fmt.Errorf("failed to fetch branch %s: %w", name, err)
	}
	return nil
}

// CheckoutBranch switches to the specified branch, creating the local branch
// from its remote-tracking ref when it only exists on origin.
func (r *gitRepository) CheckoutBranch(_ context.Context, name string) error {
	w, err := r.repo.Worktree()
	if err != nil {
		return fmt.Errorf("failed to get worktree: %w", err)
	}
	branchRef := plumbing.NewBranchReferenceName(name)
	if _, err := r.repo.Reference(branchRef, false); err != nil {
		remoteRef, err := r.repo.Reference(plumbing.NewRemoteReferenceName("origin", name), true)
		if err != nil {
			return fmt.Errorf("branch %s not found locally or on origin: %w", name, err)
		}
		if err := r.repo.Storer.SetReference(plumbing.NewHashReference(branchRef, remoteRef.Hash())); err != nil {
			return fmt.Errorf("failed to create local branch %s: %w", name, err)
		}
	}
	if err := w.Checkout(&git.CheckoutOptions{Branch: branchRef, Force: false}); err != nil {
		return fmt.Errorf("failed to checkout branch %s: %w", name, err)
	}
	return nil
}

// CreateBranchFrom creates and checks out a new branch at the tip of the
// source branch, preferring the remote-tracking ref when available.
func (r *gitRepository) CreateBranchFrom(_ context.Context, name, source string) error {
	branchRef := plumbing.NewBranchReferenceName(name)
	if _, err := r.repo.Reference(branchRef, false); err == nil {
		return fmt.Errorf("branch %s already exists", name)
	}
	start, err := r.resolveBranchTip(source)
	if err != nil {
		return err
	}
	w, err := r.repo.Worktree()
	if err != nil {
		return fmt.Errorf("failed to get worktree: %w", err)
	}
	err = w.Checkout(&git.CheckoutOptions{
		Branch: branchRef,
		Hash:   start,
		Create: true,
	})
	if err != nil {
		return fmt.Errorf("failed to create branch %s from %s: %w", name, source, err)
	}
	return nil
}

// resolveBranchTip resolves a branch name to its tip commit, trying the
// remote-tracking ref first and the local branch second.
func (r *gitRepository) resolveBranchTip(name string) (plumbing.Hash, error) {
	if ref, err := r.repo.Reference(plumbing.NewRemoteReferenceName("origin", name), true); err == nil {
		return ref.Hash(), nil
	}
	if ref, err := r.repo.Reference(plumbing.NewBranchReferenceName(name), true); err == nil {
		return ref.Hash(), nil
	}
	return plumbing.ZeroHash, fmt.Errorf("branch %s has no local or remote-tracking ref", name)
}

// PushBranch pushes a branch to the remote. When the branch has no local
// ref yet, the commit from the current checkout is published under the
// branch name instead; a refspec whose source resolves to nothing would
// otherwise be reported as already up to date without pushing anything.
func (r *gitRepository) PushBranch(ctx context.Context, name string) error {
	src := plumbing.NewBranchReferenceName(name)
	if _, err := r.repo.Reference(src, false); err != nil {
		head, headErr := r.repo.Head()
		if headErr != nil {
			return fmt.Errorf("failed to resolve push source for branch %s: %w", name, headErr)
		}
		if !head.Name().IsBranch() {
			return fmt.Errorf("cannot push branch %s from detached HEAD", name)
		}
		src = head.Name()
	}
	spec := config.RefSpec(fmt.Sprintf("%s:refs/heads/%s", src, name))
	err := r.repo.PushContext(ctx, &git.PushOptions{
		RefSpecs: []config.RefSpec{spec},
		Auth:     r.getAuth(),
	})
	if err != nil && err != git.NoErrAlreadyUpToDate {
		return fmt.Errorf("failed to push branch %s: %w", name, err)
	}
	return nil
}

// PushNewBranch pushes a branch to the remote and records origin as its
// upstream so later pushes track it.
func (r *gitRepository) PushNewBranch(ctx context.Context, name string) error {
	if err := r.PushBranch(ctx, name); err != nil {
		return err
	}
	cfg, err := r.repo.Config()
	if err != nil {
		return fmt.Errorf("failed to get config: %w", err)
	}
	cfg.Branches[name] = &config.Branch{
		Name:   name,
		Remote: "origin",
		Merge:  plumbing.NewBranchReferenceName(name),
	}
	if err := r.repo.Storer.SetConfig(cfg); err != nil {
		return fmt.Errorf("failed to set upstream for branch %s: %w", name, err)
	}
	return nil
}

// CurrentBranch returns the name of the currently checked-out branch.
func (r *gitRepository) CurrentBranch(_ context.Context) (string, error) {
	head, err := r.repo.Head()
	if err != nil {
		return "", fmt.Errorf("failed to get HEAD: %w", err)
	}
	if !head.Name().IsBranch() {
		return "", fmt.Errorf("HEAD is detached at %s", head.Hash())
	}
	return head.Name().Short(), nil
}

// HasChanges reports whether the working tree has pending changes.
func (r *gitRepository) HasChanges(_ context.Context) (bool, error) {
	w, err := r.repo.Worktree()
	if err != nil {
		return false, fmt.Errorf("failed to get worktree: %w", err)
	}
	status, err := w.Status()
	if err != nil {
		return false, fmt.Errorf("failed to get status: %w", err)
	}
	return !status.IsClean(), nil
}

// AddAll stages every pending change, including deletions and untracked
// files.
func (r *gitRepository) AddAll(_ context.Context) error {
	w, err := r.repo.Worktree()
	if err != nil {
		return fmt.Errorf("failed to get worktree: %w", err)
	}
	if err := w.AddWithOptions(&git.AddOptions{All: true}); err != nil {
		return fmt.Errorf("failed to stage changes: %w", err)
	}
	return nil
}

// Commit creates a commit with the given message.
func (r *gitRepository) Commit(_ context.Context, message string) error {
	w, err := r.repo.Worktree()
	if err != nil {
		return fmt.Errorf("failed to get worktree: %w", err)
	}
	_, err = w.Commit(message, &git.CommitOptions{})
	if err != nil {
		return fmt.Errorf("failed to create commit: %w", err)
	}
	return nil
}

// ConfigureUser sets the git user configuration.
func (r *gitRepository) ConfigureUser(_ context.Context, name, email string) error {
	cfg, err := r.repo.Config()
	if err != nil {
		return fmt.Errorf("failed to get config: %w", err)
	}
	cfg.User.Name = name
	cfg.User.Email = email
	return r.repo.Storer.SetConfig(cfg)
}
