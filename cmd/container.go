package cmd

import (
	"fmt"
	"sync"

	"github.com/compozy/releasesync/internal/config"
	"github.com/compozy/releasesync/internal/logger"
	"github.com/compozy/releasesync/internal/orchestrator"
	"github.com/compozy/releasesync/internal/repository"
	"github.com/compozy/releasesync/internal/usecase"
	"github.com/compozy/releasesync/pkg/version"
	"github.com/spf13/afero"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// container holds all the dependencies for the application. Configuration is loaded on first
// use so that commands like version work outside a repository.

type container struct {
	once sync.Once
	err  error

	cfg    *config.Config
	logger *zap.Logger
	fsRepo repository.FileSystemRepository
}

// newContainer creates an empty container; load fills it.
func newContainer() *container {
	return &container{}
}

func (c *container) load() error {
	c.once.Do(func() {
		cfg, err := config.LoadConfig()
		if err != nil {
			c.err = fmt.Errorf("failed to load configuration: %w", err)
			return
		}
		log, err := logger.New(cfg.LogLevel, cfg.LogFormat)
		if err != nil {
			c.err = err
			return
		}
		c.cfg = cfg
		c.logger = log
		c.fsRepo = repository.FileSystemRepository(afero.NewOsFs())
	})
	return c.err
}

func (c *container) gitRepository() (repository.GitRepository, error) {
	return repository.NewGitRepository(".", c.cfg.Remote, c.cfg.GithubToken)
}

// forgeRepository returns the GitHub client, or a repository that rejects every call when no
// token is configured.
func (c *container) forgeRepository() (repository.ForgeRepository, error) {
	if c.cfg.GithubToken == "" {
		c.logger.Warn("no GitHub token configured, forge operations will fail")
		return repository.NewGithubNoopRepository(c.cfg.GithubOwner, c.cfg.GithubRepo), nil
	}
	if err := c.cfg.ValidateForGitHubOperations(); err != nil {
		return nil, err
	}
	return repository.NewGithubRepository(c.cfg.GithubToken, c.cfg.GithubOwner, c.cfg.GithubRepo,
		c.cfg.GithubAPIURL)
}

func (c *container) runRecordRepository() repository.RunRecordRepository {
	return repository.NewJSONRunRecordRepository(c.fsRepo, c.cfg.StateDir, c.logger)
}

func (c *container) settings() orchestrator.Settings {
	cfg := c.cfg
	return orchestrator.Settings{
		Staging: usecase.StagingSettings{
			ChangelogPath:                cfg.ChangelogPath,
			ChangelogTitle:               cfg.ChangelogTitle,
			ManifestPath:                 cfg.ManifestPath,
			ManifestPackageName:          cfg.ManifestPackageName,
			BookkeepingPrefix:            cfg.BookkeepingPrefix,
			BookkeepingTrailer:           cfg.BookkeepingTrailer,
			DependencyUpdatePrefix:       cfg.DependencyUpdatePrefix,
			RequireUnreleasedPlaceholder: cfg.RequireUnreleasedPlaceholder,
		},
		MergeBotLogin:  cfg.MergeBotLogin,
		BackportLabel:  cfg.BackportLabel,
		TitleTemplate:  cfg.TitleTemplate,
		CommitterName:  cfg.CommitterName,
		CommitterEmail: cfg.CommitterEmail,
		Timeout:        cfg.Timeout,
	}
}

func (c *container) updateReleaseBranchOrchestrator() (*orchestrator.UpdateReleaseBranchOrchestrator, error) {
	gitRepo, err := c.gitRepository()
	if err != nil {
		return nil, err
	}
	forge, err := c.forgeRepository()
	if err != nil {
		return nil, err
	}
	return orchestrator.NewUpdateReleaseBranchOrchestrator(
		gitRepo,
		forge,
		c.fsRepo,
		c.runRecordRepository(),
		c.settings(),
		c.logger,
	), nil
}

func (c *container) flush() {
	if c.logger != nil {
		_ = c.logger.Sync()
	}
}

// InitCommands registers all commands on the root command.
func InitCommands() {
	c := newContainer()
	rootCmd.Version = version.Summary()
	rootCmd.PersistentPostRun = func(_ *cobra.Command, _ []string) { c.flush() }
	rootCmd.AddCommand(
		newUpdateReleaseBranchCmd(c),
		newReleaseBranchesCmd(c),
		newRollbackChangelogCmd(c),
		newLastRunCmd(c),
		newVersionCmd(),
	)
}
