package domain

// EventKind identifies the kind of entity that triggered the run.
type EventKind string

const (
	KindIssue       EventKind = "issue"
	KindPullRequest EventKind = "pull_request"
)

// PullRequest carries the subset of pull-request state the resolver needs.
type PullRequest struct {
	HeadBranch string
	BaseBranch string
	State      string
	Merged     bool
	Commits    int
}

// IsOpen reports whether the pull request can still receive pushes to its
// head branch.
func (p *PullRequest) IsOpen() bool {
	return !p.Merged && p.State != "closed"
}

// EventContext is the immutable description of the triggering event. It is
// built once by the command layer and read by every use case.
type EventContext struct {
	Owner  string
	Repo   string
	Number int
	Kind   EventKind

	// PullRequest is set only when Kind is KindPullRequest.
	PullRequest *PullRequest

	// User-supplied overrides.
	Branch           string
	BaseBranch       string
	BranchPrefix     string
	UseCommitSigning bool

	// Trigger metadata embedded into commit messages.
	RunID string
	Actor string
}

// EntityType returns the short token used in generated branch names.
func (e *EventContext) EntityType() string {
	if e.Kind == KindPullRequest {
		return "pr"
	}
	return "issue"
}
