package domain

import (
	"fmt"
	"strings"
	"time"
)

// MaxBranchNameLength bounds generated branch names so they stay legal as
// label values in environments that reject long identifiers.
const MaxBranchNameLength = 50

// BranchInfo is the result of branch resolution, immutable once produced.
type BranchInfo struct {
	// BaseBranch is the branch new work is conceptually based on.
	BaseBranch string
	// AgentBranch is the branch the agent commits to. Empty when the agent
	// operates directly on an existing branch, or when creation is deferred
	// until the first signed commit.
	AgentBranch string
	// CurrentBranch is the branch the working tree is actually checked out
	// to. Callers must not assume it equals AgentBranch.
	CurrentBranch string
}

// HasAgentBranch reports whether a dedicated agent branch was resolved.
func (b *BranchInfo) HasAgentBranch() bool {
	return b.AgentBranch != ""
}

// NewWorkBranchName builds the name for a synthesized work branch:
// {prefix}{entityType}-{number}-{YYYYMMDD-HHMM}, lower-cased and truncated
// to MaxBranchNameLength. The format is load-bearing: downstream label
// constraints forbid uppercase, underscores and long values.
func NewWorkBranchName(prefix, entityType string, number int, now time.Time) string {
	timestamp := now.Format("20060102-1504")
	name := fmt.Sprintf("%s%s-%d-%s", prefix, entityType, number, timestamp)
	name = strings.ToLower(name)
	if len(name) > MaxBranchNameLength {
		name = name[:MaxBranchNameLength]
	}
	return name
}
