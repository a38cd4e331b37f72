package credential

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"os/exec"
	"strings"
	"time"
)

// DefaultMintTimeout bounds how long an external mint command may run.
const DefaultMintTimeout = 30 * time.Second

// TokenSource obtains a fresh short-lived credential. The issuance
// mechanism itself is external; implementations only surface its result.

type TokenSource interface {
	IssueToken(ctx context.Context) (string, error)
}

// envTokenSource re-reads the token from the environment on every call, so
// a credential rotated by the surrounding pipeline is picked up without a
// process restart.
type envTokenSource struct {
	vars []string
}

// NewEnvTokenSource creates a TokenSource backed by the given environment
// variables, checked in order.
func NewEnvTokenSource(vars ...string) TokenSource {
	if len(vars) == 0 {
		vars = []string{"GITHUB_TOKEN"}
	}
	return &envTokenSource{vars: vars}
}

func (s *envTokenSource) IssueToken(_ context.Context) (string, error) {
	for _, v := range s.vars {
		if token := strings.TrimSpace(os.Getenv(v)); token != "" {
			return token, nil
		}
	}
	return "", fmt.Errorf("no token found in environment (%s)", strings.Join(s.vars, ", "))
}

// commandTokenSource runs an external command that prints a fresh token to
// stdout, for installations whose credential broker is a CLI.
type commandTokenSource struct {
	command string
	timeout time.Duration
}

// NewCommandTokenSource creates a TokenSource that shells out to command.
func NewCommandTokenSource(command string) TokenSource {
	return &commandTokenSource{command: command, timeout: DefaultMintTimeout}
}

func (s *commandTokenSource) IssueToken(ctx context.Context) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()
	cmd := exec.CommandContext(ctx, "sh", "-c", s.command)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		return "", fmt.Errorf("token command failed: %w (stderr: %s)", err, strings.TrimSpace(stderr.String()))
	}
	token := strings.TrimSpace(stdout.String())
	if token == "" {
		return "", fmt.Errorf("token command produced no output")
	}
	return token, nil
}
