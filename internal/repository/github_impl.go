package repository

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/google/go-github/v74/github"
	"github.com/sethvargo/go-retry"
	"github.com/stackpilot/branchpilot/internal/config"
	"github.com/stackpilot/branchpilot/internal/domain"
	"golang.org/x/oauth2"
)

const (
	// apiRetryCount bounds transient-failure retries per API call.
	apiRetryCount = uint64(2)
	// apiRetryDelay is the initial delay for exponential backoff.
	apiRetryDelay = 500 * time.Millisecond
)

// hostRepository is the implementation of the HostRepository interface.
type hostRepository struct {
	client *github.Client
	owner  string
	repo   string
}

// NewHostRepository creates a new HostRepository with validation.
func NewHostRepository(token, owner, repo string) (HostRepository, error) {
	if err := config.ValidateGitHubToken(token); err != nil {
		return nil, fmt.Errorf("invalid GitHub token: %w", err)
	}
	if err := config.ValidateGitHubOwnerRepo(owner, repo); err != nil {
		return nil, fmt.Errorf("invalid repository configuration: %w", err)
	}
	ts := oauth2.StaticTokenSource(
		&oauth2.Token{AccessToken: strings.TrimSpace(token)},
	)
	tc := oauth2.NewClient(context.Background(), ts)
	return &hostRepository{
		client: github.NewClient(tc),
		owner:  owner,
		repo:   repo,
	}, nil
}

// withRetry retries transient API failures with exponential backoff.
// Not-found and other client errors are terminal; the single
// authentication retry is handled at a higher layer.
func (r *hostRepository) withRetry(ctx context.Context, fn func(ctx context.Context) error) error {
	return retry.Do(
		ctx,
		retry.WithMaxRetries(apiRetryCount, retry.NewExponential(apiRetryDelay)),
		func(ctx context.Context) error {
			err := fn(ctx)
			if err == nil {
				return nil
			}
			if isTransient(err) {
				return retry.RetryableError(err)
			}
			return err
		},
	)
}

// isTransient reports whether an API failure is worth retrying.
func isTransient(err error) bool {
	var ghErr *github.ErrorResponse
	if errors.As(err, &ghErr) {
		return ghErr.Response != nil && ghErr.Response.StatusCode >= http.StatusInternalServerError
	}
	var rateErr *github.RateLimitError
	if errors.As(err, &rateErr) {
		return false
	}
	// No structured response means a transport-level failure.
	return true
}

// BranchExists reports whether the branch exists on the remote repository.
func (r *hostRepository) BranchExists(ctx context.Context, branch string) (bool, error) {
	var exists bool
	err := r.withRetry(ctx, func(ctx context.Context) error {
		_, resp, err := r.client.Repositories.GetBranch(ctx, r.owner, r.repo, branch, 0)
		if err != nil {
			if resp != nil && resp.StatusCode == http.StatusNotFound {
				exists = false
				return nil
			}
			return err
		}
		exists = true
		return nil
	})
	if err != nil {
		return false, fmt.Errorf("failed to look up branch %s: %w", branch, err)
	}
	return exists, nil
}

// DefaultBranch returns the repository's default branch name.
func (r *hostRepository) DefaultBranch(ctx context.Context) (string, error) {
	var branch string
	err := r.withRetry(ctx, func(ctx context.Context) error {
		repo, _, err := r.client.Repositories.Get(ctx, r.owner, r.repo)
		if err != nil {
			return err
		}
		branch = repo.GetDefaultBranch()
		return nil
	})
	if err != nil {
		return "", fmt.Errorf("failed to get repository %s/%s: %w", r.owner, r.repo, err)
	}
	if branch == "" {
		return "", fmt.Errorf("repository %s/%s has no default branch", r.owner, r.repo)
	}
	return branch, nil
}

// RefSHA resolves a fully qualified ref to its commit SHA.
func (r *hostRepository) RefSHA(ctx context.Context, ref string) (string, error) {
	var sha string
	err := r.withRetry(ctx, func(ctx context.Context) error {
		gitRef, resp, err := r.client.Git.GetRef(ctx, r.owner, r.repo, ref)
		if err != nil {
			if resp != nil && resp.StatusCode == http.StatusNotFound {
				return fmt.Errorf("ref %s: %w", ref, domain.ErrNotFound)
			}
			return err
		}
		sha = gitRef.GetObject().GetSHA()
		return nil
	})
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return "", err
		}
		return "", fmt.Errorf("failed to resolve ref %s: %w", ref, err)
	}
	return sha, nil
}

// PullRequest fetches the subset of pull-request state the resolver needs.
func (r *hostRepository) PullRequest(ctx context.Context, number int) (*domain.PullRequest, error) {
	var pr *github.PullRequest
	err := r.withRetry(ctx, func(ctx context.Context) error {
		fetched, resp, err := r.client.PullRequests.Get(ctx, r.owner, r.repo, number)
		if err != nil {
			if resp != nil && resp.StatusCode == http.StatusNotFound {
				return fmt.Errorf("pull request #%d: %w", number, domain.ErrNotFound)
			}
			return err
		}
		pr = fetched
		return nil
	})
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to get pull request #%d: %w", number, err)
	}
	return &domain.PullRequest{
		HeadBranch: pr.GetHead().GetRef(),
		BaseBranch: pr.GetBase().GetRef(),
		State:      pr.GetState(),
		Merged:     pr.GetMerged(),
		Commits:    pr.GetCommits(),
	}, nil
}
