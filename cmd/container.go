package cmd

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/spf13/afero"
	"github.com/stackpilot/branchpilot/internal/config"
	"github.com/stackpilot/branchpilot/internal/credential"
	"github.com/stackpilot/branchpilot/internal/orchestrator"
	"github.com/stackpilot/branchpilot/internal/repository"
	"github.com/stackpilot/branchpilot/internal/usecase"
	"go.uber.org/zap"
)

// container holds all the dependencies for the application.

type container struct {
	cfg *config.Config
	log *zap.Logger

	fsRepo   repository.FileSystemRepository
	gitRepo  repository.GitRepository
	hostRepo repository.HostRepository

	orch *orchestrator.TaskOrchestrator
}

// newContainer creates a new container with all the dependencies.
func newContainer(ctx context.Context) (*container, error) {
	cfg, err := config.LoadConfig()
	if err != nil {
		return nil, err
	}

	log, err := newLogger(cfg.Debug)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}

	// The token command, when configured, mints tokens on demand. Otherwise
	// credentials come from the environment on every refresh.
	var source credential.TokenSource
	if cfg.TokenCommand != "" {
		source = credential.NewCommandTokenSource(cfg.TokenCommand)
	} else {
		if err := orchestrator.ValidateEnvironmentVariables([]string{"GITHUB_TOKEN"}); err != nil {
			return nil, err
		}
		source = credential.NewEnvTokenSource("GITHUB_TOKEN", "BRANCHPILOT_GITHUB_TOKEN")
	}
	// The API client needs a token up front. Mint one when the config did
	// not already carry one.
	if cfg.GithubToken == "" {
		token, err := source.IssueToken(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to acquire initial token: %w", err)
		}
		cfg.GithubToken = token
	}

	fsRepo := repository.FileSystemRepository(afero.NewOsFs())
	gitRepo, err := repository.NewGitRepository(cfg.GithubToken)
	if err != nil {
		return nil, err
	}
	hostRepo, err := repository.NewHostRepository(cfg.GithubToken, cfg.GithubOwner, cfg.GithubRepo)
	if err != nil {
		return nil, err
	}

	lifecycle := credential.NewLifecycle(source, gitRepo, log)
	executor := credential.NewExecutor(lifecycle, log)

	resolver := &usecase.ResolveBranchUseCase{
		GitRepo:  gitRepo,
		HostRepo: hostRepo,
		Executor: executor,
		Now:      time.Now,
	}
	committer := &usecase.CommitAndPushUseCase{
		GitRepo:  gitRepo,
		Executor: executor,
		BotName:  cfg.BotName,
		BotEmail: cfg.BotEmail,
	}

	outputs := repository.NewFileOutputReporter(fsRepo, cfg.OutputPath)
	// One live run per checkout: the lock lives next to the repository
	// metadata it guards.
	lock := repository.NewRunLock(filepath.Join(".git", "branchpilot.lock"))
	orch := orchestrator.NewTaskOrchestrator(lock, lifecycle, resolver, committer, outputs, log)

	return &container{
		cfg:      cfg,
		log:      log,
		fsRepo:   fsRepo,
		gitRepo:  gitRepo,
		hostRepo: hostRepo,
		orch:     orch,
	}, nil
}

func newLogger(debug bool) (*zap.Logger, error) {
	if debug {
		return zap.NewDevelopment()
	}
	return zap.NewProduction()
}

// InitCommands initializes all commands with their dependencies
func InitCommands() error {
	rootCmd.AddCommand(newVersionCmd())
	rootCmd.AddCommand(NewRunCmd())
	return nil
}
