package config

import (
	"errors"
	"fmt"
	"os"
	"path"
	"regexp"
	"strings"
	"time"

	"github.com/go-git/go-git/v5"
	"github.com/spf13/viper"
)

type Config struct {
	GithubToken  string `mapstructure:"github_token"`
	GithubOwner  string `mapstructure:"github_owner"`
	GithubRepo   string `mapstructure:"github_repo"`
	GithubAPIURL string `mapstructure:"github_api_url"`

	Remote              string `mapstructure:"remote"`
	ReleaseBranchPrefix string `mapstructure:"release_branch_prefix"`

	ChangelogPath                string `mapstructure:"changelog_path"`
	ChangelogTitle               string `mapstructure:"changelog_title"`
	RequireUnreleasedPlaceholder bool   `mapstructure:"require_unreleased_placeholder"`
	ManifestPath                 string `mapstructure:"manifest_path"`
	ManifestPackageName          string `mapstructure:"manifest_package_name"`

	BookkeepingPrefix      string `mapstructure:"bookkeeping_prefix"`
	BookkeepingTrailer     string `mapstructure:"bookkeeping_trailer"`
	DependencyUpdatePrefix string `mapstructure:"dependency_update_prefix"`
	MergeBotLogin          string `mapstructure:"merge_bot_login"`
	BackportLabel          string `mapstructure:"backport_label"`
	TitleTemplate          string `mapstructure:"title_template"`
	CommitterName          string `mapstructure:"committer_name"`
	CommitterEmail         string `mapstructure:"committer_email"`

	StateDir     string        `mapstructure:"state_dir"`
	ReleasesFile string        `mapstructure:"releases_file"`
	LogLevel     string        `mapstructure:"log_level"`
	LogFormat    string        `mapstructure:"log_format"`
	Timeout      time.Duration `mapstructure:"timeout"`
}

// DefaultConfig returns a Config with default values
func DefaultConfig() *Config {
	return &Config{
		Remote:                 "origin",
		ReleaseBranchPrefix:    "releases/",
		ChangelogPath:          "CHANGELOG.md",
		ChangelogTitle:         "Changelog",
		ManifestPath:           "package.json",
		BookkeepingPrefix:      "Update version and changelog for v",
		BookkeepingTrailer:     "Release-Bookkeeping: backport",
		DependencyUpdatePrefix: "Update checked-in dependencies",
		MergeBotLogin:          "web-flow",
		BackportLabel:          "Rebuild",
		TitleTemplate:          "Merge {source} into {target}",
		CommitterName:          "github-actions[bot]",
		CommitterEmail:         "github-actions[bot]@users.noreply.github.com",
		StateDir:               ".release-sync",
		ReleasesFile:           "releases.toml",
		LogLevel:               "info",
		LogFormat:              "console",
	}
}

// Validate validates the configuration
func (c *Config) Validate() error {
	// GitHub token is optional - only validate if provided
	if c.GithubToken != "" {
		if err := ValidateGitHubToken(c.GithubToken); err != nil {
			return fmt.Errorf("invalid github_token: %w", err)
		}
	}
	if c.GithubOwner != "" || c.GithubRepo != "" {
		if err := ValidateGitHubOwnerRepo(c.GithubOwner, c.GithubRepo); err != nil {
			return fmt.Errorf("invalid github configuration: %w", err)
		}
	}
	if c.Remote == "" {
		return fmt.Errorf("remote cannot be empty")
	}
	for key, p := range map[string]string{
		"changelog_path": c.ChangelogPath,
		"manifest_path":  c.ManifestPath,
		"state_dir":      c.StateDir,
	} {
		if p == "" {
			return fmt.Errorf("%s cannot be empty", key)
		}
		if strings.Contains(p, "..") {
			return fmt.Errorf("%s contains invalid path traversal", key)
		}
	}
	if c.BookkeepingPrefix == "" {
		return fmt.Errorf("bookkeeping_prefix cannot be empty")
	}
	if c.Timeout < 0 {
		return fmt.Errorf("timeout cannot be negative")
	}
	return nil
}

// ValidateForGitHubOperations validates that GitHub token is present for operations that require it
func (c *Config) ValidateForGitHubOperations() error {
	if c.GithubToken == "" {
		return fmt.Errorf("github_token is required for GitHub operations")
	}
	if err := ValidateGitHubOwnerRepo(c.GithubOwner, c.GithubRepo); err != nil {
		return fmt.Errorf("invalid github configuration: %w", err)
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

// populateRepositoryDefaults fills owner and repo from the Actions environment, then from
// the origin remote of the repository in the working directory.
func populateRepositoryDefaults(cfg *Config) error {
	if cfg.GithubOwner != "" && cfg.GithubRepo != "" {
		return nil
	}
	if owner, repo, ok := strings.Cut(os.Getenv("GITHUB_REPOSITORY"), "/"); ok && owner != "" && repo != "" {
		if cfg.GithubOwner == "" {
			cfg.GithubOwner = owner
		}
		if cfg.GithubRepo == "" {
			cfg.GithubRepo = repo
		}
		return nil
	}
	if cfg.GithubOwner == "" {
		cfg.GithubOwner = os.Getenv("GITHUB_REPOSITORY_OWNER")
	}
	if cfg.GithubRepo == "" {
		cfg.GithubRepo = os.Getenv("GITHUB_REPOSITORY_NAME")
	}
	if cfg.GithubOwner != "" && cfg.GithubRepo != "" {
		return nil
	}
	remoteName := cfg.Remote
	if remoteName == "" {
		remoteName = "origin"
	}
	repo, err := git.PlainOpenWithOptions(".", &git.PlainOpenOptions{DetectDotGit: true})
	if err != nil {
		if errors.Is(err, git.ErrRepositoryNotExists) {
			return nil
		}
		return fmt.Errorf("failed to open git repository: %w", err)
	}
	remote, err := repo.Remote(remoteName)
	if err != nil {
		if errors.Is(err, git.ErrRemoteNotFound) {
			return nil
		}
		return fmt.Errorf("failed to read remote %s: %w", remoteName, err)
	}
	urls := remote.Config().URLs
	if len(urls) == 0 {
		return nil
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

// parseGitRemoteURL extracts owner and repository from https, ssh or path remotes.
func parseGitRemoteURL(raw string) (string, string, error) {
	s := strings.TrimSpace(raw)
	if i := strings.Index(s, "://"); i >= 0 {
		s = s[i+3:]
		if j := strings.Index(s, "/"); j >= 0 {
			s = s[j+1:]
		}
	} else if at := strings.Index(s, "@"); at >= 0 {
		if colon := strings.Index(s[at:], ":"); colon >= 0 {
			s = s[at+colon+1:]
		}
	}
	s = strings.ReplaceAll(s, "\\", "/")
	s = strings.TrimSuffix(strings.TrimSuffix(s, "/"), ".git")
	repo := path.Base(s)
	owner := path.Base(path.Dir(s))
	if owner == "." || owner == "/" || owner == "" || repo == "." || repo == "" {
		return "", "", fmt.Errorf("cannot derive owner/repo from remote URL %q", raw)
	}
	return owner, repo, nil
}

func LoadConfig() (*Config, error) {
	v := viper.New()
	v.SetConfigName(".release-sync")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	// Configure environment variables
	v.SetEnvPrefix("RELEASE_SYNC")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	// BindEnv allows multiple env vars - it will check them in order
	if err := v.BindEnv("github_token", "GITHUB_TOKEN", "RELEASE_SYNC_GITHUB_TOKEN"); err != nil {
		return nil, fmt.Errorf("failed to bind github_token env: %w", err)
	}
	if err := v.BindEnv("github_owner", "GITHUB_OWNER", "RELEASE_SYNC_GITHUB_OWNER"); err != nil {
		return nil, fmt.Errorf("failed to bind github_owner env: %w", err)
	}
	if err := v.BindEnv("github_repo", "GITHUB_REPO", "RELEASE_SYNC_GITHUB_REPO"); err != nil {
		return nil, fmt.Errorf("failed to bind github_repo env: %w", err)
	}
	if err := v.BindEnv("github_api_url", "GITHUB_API_URL", "RELEASE_SYNC_GITHUB_API_URL"); err != nil {
		return nil, fmt.Errorf("failed to bind github_api_url env: %w", err)
	}
	defaults := DefaultConfig()
	v.SetDefault("remote", defaults.Remote)
	v.SetDefault("release_branch_prefix", defaults.ReleaseBranchPrefix)
	v.SetDefault("changelog_path", defaults.ChangelogPath)
	v.SetDefault("changelog_title", defaults.ChangelogTitle)
	v.SetDefault("require_unreleased_placeholder", defaults.RequireUnreleasedPlaceholder)
	v.SetDefault("manifest_path", defaults.ManifestPath)
	v.SetDefault("manifest_package_name", defaults.ManifestPackageName)
	v.SetDefault("bookkeeping_prefix", defaults.BookkeepingPrefix)
	v.SetDefault("bookkeeping_trailer", defaults.BookkeepingTrailer)
	v.SetDefault("dependency_update_prefix", defaults.DependencyUpdatePrefix)
	v.SetDefault("merge_bot_login", defaults.MergeBotLogin)
	v.SetDefault("backport_label", defaults.BackportLabel)
	v.SetDefault("title_template", defaults.TitleTemplate)
	v.SetDefault("committer_name", defaults.CommitterName)
	v.SetDefault("committer_email", defaults.CommitterEmail)
	v.SetDefault("state_dir", defaults.StateDir)
	v.SetDefault("releases_file", defaults.ReleasesFile)
	v.SetDefault("log_level", defaults.LogLevel)
	v.SetDefault("log_format", defaults.LogFormat)
	v.SetDefault("timeout", defaults.Timeout)
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, err
		}
	}
	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, err
	}
	if err := populateRepositoryDefaults(&config); err != nil {
		return nil, fmt.Errorf("failed to derive repository: %w", err)
	}
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}
	return &config, nil
}
