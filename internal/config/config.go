package config

import (
	"fmt"
	"os"
	"regexp"
	"strings"

	"github.com/go-git/go-git/v5"
	"github.com/google/uuid"
	"github.com/spf13/viper"
)

type Config struct {
	GithubToken string `mapstructure:"github_token"`
	GithubOwner string `mapstructure:"github_owner"`
	GithubRepo  string `mapstructure:"github_repo"`

	// Branch resolution overrides.
	Branch           string `mapstructure:"branch"`
	BaseBranch       string `mapstructure:"base_branch"`
	BranchPrefix     string `mapstructure:"branch_prefix"`
	UseCommitSigning bool   `mapstructure:"use_commit_signing"`

	// Trigger metadata, embedded into commit messages.
	RunID string `mapstructure:"run_id"`
	Actor string `mapstructure:"actor"`

	// Bot identity used for commits.
	BotName  string `mapstructure:"bot_name"`
	BotEmail string `mapstructure:"bot_email"`

	// TokenCommand, when set, is an external command that mints a fresh
	// token on each credential refresh. Without it the token is re-read
	// from the environment.
	TokenCommand string `mapstructure:"token_command"`

	// OutputPath is the file named results are appended to.
	OutputPath string `mapstructure:"output_path"`

	Debug bool `mapstructure:"debug"`
}

// DefaultConfig returns a Config with default values
func DefaultConfig() *Config {
	return &Config{
		BranchPrefix: "agent-",
		BotName:      "branchpilot[bot]",
		BotEmail:     "branchpilot[bot]@users.noreply.github.com",
		Actor:        "unknown",
	}
}

// Validate validates the configuration
func (c *Config) Validate() error {
	// GitHub token is optional at load time - only validate if provided
	if c.GithubToken != "" {
		if err := ValidateGitHubToken(c.GithubToken); err != nil {
			return fmt.Errorf("invalid github_token: %w", err)
		}
	}
	if err := ValidateGitHubOwnerRepo(c.GithubOwner, c.GithubRepo); err != nil {
		return fmt.Errorf("invalid github configuration: %w", err)
	}
	if err := ValidateBranchPrefix(c.BranchPrefix); err != nil {
		return fmt.Errorf("invalid branch_prefix: %w", err)
	}
	if c.BotName == "" || c.BotEmail == "" {
		return fmt.Errorf("bot identity cannot be empty")
	}
	return nil
}

// ValidateForGitHubOperations validates that GitHub token is present for operations that require it
func (c *Config) ValidateForGitHubOperations() error {
	if c.GithubToken == "" {
		return fmt.Errorf("github_token is required for GitHub operations")
	}
	return c.Validate()
}

// ValidateGitHubToken validates GitHub token format (exported for reuse)
func ValidateGitHubToken(token string) error {
	token = strings.TrimSpace(token)
	if len(token) < 40 {
		return fmt.Errorf("token too short: expected at least 40 characters")
	}
	// Validate token format patterns
	classicPAT := regexp.MustCompile(`^[a-fA-F0-9]{40}$`)
	fineGrainedPAT := regexp.MustCompile(`^github_pat_[a-zA-Z0-9_]{82}$`)
	appToken := regexp.MustCompile(`^ghs_[a-zA-Z0-9]{36}$`)
	oauthToken := regexp.MustCompile(`^gho_[a-zA-Z0-9]{36}$`)
	if !classicPAT.MatchString(token) &&
		!fineGrainedPAT.MatchString(token) &&
		!appToken.MatchString(token) &&
		!oauthToken.MatchString(token) {
		return fmt.Errorf("invalid token format")
	}
	return nil
}

// ValidateGitHubOwnerRepo validates GitHub owner and repository names (exported for reuse)
func ValidateGitHubOwnerRepo(owner, repo string) error {
	if owner == "" {
		return fmt.Errorf("owner cannot be empty")
	}
	if repo == "" {
		return fmt.Errorf("repository cannot be empty")
	}
	validName := regexp.MustCompile(`^[a-zA-Z0-9][a-zA-Z0-9\-_.]*[a-zA-Z0-9]$|^[a-zA-Z0-9]$`)
	if !validName.MatchString(owner) {
		return fmt.Errorf("invalid owner format: %s", owner)
	}
	if len(owner) > 39 {
		return fmt.Errorf("owner too long: maximum 39 characters")
	}
	if !validName.MatchString(repo) {
		return fmt.Errorf("invalid repository format: %s", repo)
	}
	if len(repo) > 100 {
		return fmt.Errorf("repository too long: maximum 100 characters")
	}
	return nil
}

// ValidateBranchPrefix validates a generated-branch prefix. Prefixes end up
// in label values downstream, so uppercase and underscores are rejected.
func ValidateBranchPrefix(prefix string) error {
	if prefix == "" {
		return fmt.Errorf("prefix cannot be empty")
	}
	if len(prefix) > 30 {
		return fmt.Errorf("prefix too long: maximum 30 characters")
	}
	validPrefix := regexp.MustCompile(`^[a-z0-9][a-z0-9.-]*[-/]$`)
	if !validPrefix.MatchString(prefix) {
		return fmt.Errorf("invalid prefix format: %s (expected lowercase, ending in - or /)", prefix)
	}
	return nil
}

func LoadConfig() (*Config, error) {
	viper.SetConfigName(".branchpilot")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(".")
	// Configure environment variables
	viper.SetEnvPrefix("BRANCHPILOT")
	viper.AutomaticEnv()
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	// Explicitly bind environment variables
	// BindEnv allows multiple env vars - it will check them in order
	binds := [][]string{
		{"github_token", "GITHUB_TOKEN", "BRANCHPILOT_GITHUB_TOKEN"},
		{"github_owner", "GITHUB_OWNER", "BRANCHPILOT_GITHUB_OWNER"},
		{"github_repo", "GITHUB_REPO", "BRANCHPILOT_GITHUB_REPO"},
		{"branch", "BRANCHPILOT_BRANCH"},
		{"base_branch", "BRANCHPILOT_BASE_BRANCH"},
		{"branch_prefix", "BRANCHPILOT_BRANCH_PREFIX"},
		{"use_commit_signing", "BRANCHPILOT_USE_COMMIT_SIGNING"},
		{"run_id", "GITHUB_RUN_ID", "BRANCHPILOT_RUN_ID"},
		{"actor", "GITHUB_ACTOR", "BRANCHPILOT_ACTOR"},
		{"bot_name", "BRANCHPILOT_BOT_NAME"},
		{"bot_email", "BRANCHPILOT_BOT_EMAIL"},
		{"token_command", "BRANCHPILOT_TOKEN_COMMAND"},
		{"output_path", "GITHUB_OUTPUT", "BRANCHPILOT_OUTPUT_PATH"},
		{"debug", "BRANCHPILOT_DEBUG"},
	}
	for _, bind := range binds {
		if err := viper.BindEnv(bind...); err != nil {
			return nil, fmt.Errorf("failed to bind %s env: %w", bind[0], err)
		}
	}
	// Set defaults
	defaults := DefaultConfig()
	viper.SetDefault("branch_prefix", defaults.BranchPrefix)
	viper.SetDefault("bot_name", defaults.BotName)
	viper.SetDefault("bot_email", defaults.BotEmail)
	viper.SetDefault("actor", defaults.Actor)
	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, err
		}
	}
	var config Config
	if err := viper.Unmarshal(&config); err != nil {
		return nil, err
	}
	if err := populateRepositoryDefaults(&config); err != nil {
		return nil, err
	}
	// Every run carries a traceable identifier even outside CI.
	if config.RunID == "" {
		config.RunID = uuid.New().String()
	}
	// Validate configuration
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}
	return &config, nil
}

// populateRepositoryDefaults fills GithubOwner/GithubRepo from the
// GITHUB_REPOSITORY slug or, failing that, from the origin remote URL of
// the local checkout.
func populateRepositoryDefaults(cfg *Config) error {
	if cfg.GithubOwner == "" {
		cfg.GithubOwner = os.Getenv("GITHUB_REPOSITORY_OWNER")
	}
	if cfg.GithubRepo == "" {
		cfg.GithubRepo = os.Getenv("GITHUB_REPOSITORY_NAME")
	}
	if cfg.GithubOwner != "" && cfg.GithubRepo != "" {
		return nil
	}
	if slug := os.Getenv("GITHUB_REPOSITORY"); slug != "" {
		if idx := strings.Index(slug, "/"); idx > 0 && idx < len(slug)-1 {
			if cfg.GithubOwner == "" {
				cfg.GithubOwner = slug[:idx]
			}
			if cfg.GithubRepo == "" {
				cfg.GithubRepo = slug[idx+1:]
			}
			return nil
		}
	}
	repo, err := git.PlainOpen(".")
	if err != nil {
		return fmt.Errorf("cannot derive repository identity: %w", err)
	}
	remote, err := repo.Remote("origin")
	if err != nil {
		return fmt.Errorf("cannot derive repository identity from remotes: %w", err)
	}
	urls := remote.Config().URLs
	if len(urls) == 0 {
		return fmt.Errorf("origin remote has no URL")
	}
	owner, name, err := parseGitRemoteURL(urls[0])
	if err != nil {
		return err
	}
	if cfg.GithubOwner == "" {
		cfg.GithubOwner = owner
	}
	if cfg.GithubRepo == "" {
		cfg.GithubRepo = name
	}
	return nil
}

// parseGitRemoteURL extracts owner and repository from https, ssh and plain
// path remote URLs.
func parseGitRemoteURL(url string) (string, string, error) {
	trimmed := strings.TrimSuffix(url, ".git")
	if !strings.Contains(trimmed, "://") {
		if idx := strings.LastIndex(trimmed, ":"); idx >= 0 {
			trimmed = trimmed[idx+1:]
		}
	}
	parts := strings.Split(trimmed, "/")
	if len(parts) < 2 || parts[len(parts)-1] == "" || parts[len(parts)-2] == "" {
		return "", "", fmt.Errorf("cannot parse remote URL %q", url)
	}
	return parts[len(parts)-2], parts[len(parts)-1], nil
}
