package cmd

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"
	"github.com/stackpilot/branchpilot/internal/domain"
	"github.com/stackpilot/branchpilot/internal/orchestrator"
)

// NewRunCmd creates the run command
func NewRunCmd() *cobra.Command {
	var (
		runPRNumber     int
		runIssueNumber  int
		runBranch       string
		runBaseBranch   string
		runBranchPrefix string
		runSigning      bool
		runDryRun       bool
	)
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Prepare the working branch and publish task changes",
		Long: `Prepare the working branch for an automated task and publish its changes.

This command orchestrates the entire task workflow:
- Checks out an explicitly requested branch, or
- Checks out the head branch of the triggering open pull request, or
- Creates a timestamped work branch from the base branch
- Commits and pushes anything the task changed, as the bot identity
- Reports the resolved branch and commit status to the output channel

With --dry-run the branch is still resolved and reported, but nothing is
committed or pushed.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if (runPRNumber > 0) == (runIssueNumber > 0) {
				return fmt.Errorf("exactly one of --pr or --issue is required")
			}
			c, err := newContainer(cmd.Context())
			if err != nil {
				return err
			}
			defer func() { _ = c.log.Sync() }()
			evt, err := c.buildEventContext(
				cmd.Context(),
				runPRNumber,
				runIssueNumber,
				runBranch,
				runBaseBranch,
				runBranchPrefix,
				runSigning,
				cmd.Flags().Changed("commit-signing"),
			)
			if err != nil {
				return err
			}
			return c.orch.Execute(cmd.Context(), evt, orchestrator.TaskConfig{DryRun: runDryRun})
		},
	}

	cmd.Flags().IntVar(&runPRNumber, "pr", 0, "Number of the triggering pull request")
	cmd.Flags().IntVar(&runIssueNumber, "issue", 0, "Number of the triggering issue")
	cmd.Flags().StringVar(&runBranch, "branch", "", "Check out this branch instead of resolving one")
	cmd.Flags().StringVar(&runBaseBranch, "base-branch", "", "Base branch for created work branches")
	cmd.Flags().StringVar(&runBranchPrefix, "branch-prefix", "", "Prefix for generated work branch names")
	cmd.Flags().BoolVar(&runSigning, "commit-signing", false, "Defer branch creation to a signing-capable pipeline step")
	cmd.Flags().BoolVar(&runDryRun, "dry-run", false, "Resolve and report the branch without committing or pushing")
	return cmd
}

// buildEventContext assembles the trigger description the orchestrator acts
// on. Flags override config; pull request triggers are enriched with the
// live PR state from the API.
func (c *container) buildEventContext(
	ctx context.Context,
	prNumber, issueNumber int,
	branch, baseBranch, branchPrefix string,
	signing, signingSet bool,
) (*domain.EventContext, error) {
	evt := &domain.EventContext{
		Owner:            c.cfg.GithubOwner,
		Repo:             c.cfg.GithubRepo,
		Kind:             domain.KindIssue,
		Number:           issueNumber,
		Branch:           firstNonEmpty(branch, c.cfg.Branch),
		BaseBranch:       firstNonEmpty(baseBranch, c.cfg.BaseBranch),
		BranchPrefix:     firstNonEmpty(branchPrefix, c.cfg.BranchPrefix),
		UseCommitSigning: c.cfg.UseCommitSigning,
		RunID:            c.cfg.RunID,
		Actor:            c.cfg.Actor,
	}
	if signingSet {
		evt.UseCommitSigning = signing
	}
	if prNumber > 0 {
		evt.Kind = domain.KindPullRequest
		evt.Number = prNumber
		pr, err := c.hostRepo.PullRequest(ctx, prNumber)
		if err != nil {
			if errors.Is(err, domain.ErrNotFound) {
				return nil, fmt.Errorf("pull request %s/%s#%d does not exist", evt.Owner, evt.Repo, prNumber)
			}
			return nil, fmt.Errorf("failed to look up pull request %s/%s#%d: %w", evt.Owner, evt.Repo, prNumber, err)
		}
		evt.PullRequest = pr
	}
	return evt, nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
