package orchestrator

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/compozy/releasesync/internal/domain"
	"github.com/compozy/releasesync/internal/repository"
	"github.com/compozy/releasesync/internal/usecase"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// UpdateReleaseBranchConfig contains the per-invocation options of update-release-branch.
type UpdateReleaseBranchConfig struct {
	SourceBranch     string
	TargetBranch     string
	IsPrimaryRelease bool
	// Conductor overrides the conductor derived from the attribution.
	Conductor string
	NoFetch   bool
	CIOutput  bool
}

// Settings are the repository-wide options, loaded once from configuration.
type Settings struct {
	Staging        usecase.StagingSettings
	MergeBotLogin  string
	BackportLabel  string
	TitleTemplate  string
	CommitterName  string
	CommitterEmail string
	// Timeout bounds the whole run; zero means no limit.
	Timeout time.Duration
}

// UpdateReleaseBranchOrchestrator promotes the source branch into a release branch through a
// staging branch and a draft pull request.
type UpdateReleaseBranchOrchestrator struct {
	gitRepo  repository.GitRepository
	forge    repository.ForgeRepository
	fsRepo   repository.FileSystemRepository
	runRepo  repository.RunRecordRepository
	settings Settings
	logger   *zap.Logger
	out      io.Writer
	now      func() time.Time
	newRunID func() string
}

// NewUpdateReleaseBranchOrchestrator creates a new update-release-branch orchestrator.
func NewUpdateReleaseBranchOrchestrator(
	gitRepo repository.GitRepository,
	forge repository.ForgeRepository,
	fsRepo repository.FileSystemRepository,
	runRepo repository.RunRecordRepository,
	settings Settings,
	logger *zap.Logger,
) *UpdateReleaseBranchOrchestrator {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &UpdateReleaseBranchOrchestrator{
		gitRepo:  gitRepo,
		forge:    forge,
		fsRepo:   fsRepo,
		runRepo:  runRepo,
		settings: settings,
		logger:   logger,
		out:      os.Stdout,
		now:      time.Now,
		newRunID: uuid.NewString,
	}
}

// SetOutput redirects CI output, which goes to stdout by default.
func (o *UpdateReleaseBranchOrchestrator) SetOutput(w io.Writer) {
	o.out = w
}

// Execute runs the complete update-release-branch workflow.
func (o *UpdateReleaseBranchOrchestrator) Execute(ctx context.Context, cfg UpdateReleaseBranchConfig) error {
	if o.settings.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, o.settings.Timeout)
		defer cancel()
	}
	release, err := o.prepareRelease(cfg)
	if err != nil {
		return err
	}
	record := domain.NewRunRecord(o.newRunID(), *release)
	logger := o.logger.With(zap.String("run_id", record.RunID))
	o.printCIOutput(cfg.CIOutput, "%s=%s\n", OutputRunID, record.RunID)
	o.printCIOutput(cfg.CIOutput, "%s=%s\n", OutputVersion, release.Version.String())
	o.saveRecord(ctx, record)
	status, err := o.run(ctx, cfg, *release, record, logger)
	if err != nil {
		record.MarkFailed(err)
		o.saveRecord(ctx, record)
		return err
	}
	record.MarkCompleted(status)
	o.saveRecord(ctx, record)
	return nil
}

// prepareRelease validates the branches and derives the kind and version of the release.
func (o *UpdateReleaseBranchOrchestrator) prepareRelease(cfg UpdateReleaseBranchConfig) (*domain.Release, error) {
	if err := ValidateBranchName(cfg.SourceBranch); err != nil {
		return nil, fmt.Errorf("invalid source branch: %w", err)
	}
	if err := ValidateBranchName(cfg.TargetBranch); err != nil {
		return nil, fmt.Errorf("invalid target branch: %w", err)
	}
	if cfg.SourceBranch == cfg.TargetBranch {
		return nil, fmt.Errorf("source and target branch must differ: %s", cfg.SourceBranch)
	}
	targetMajor, err := domain.MajorFromBranch(cfg.TargetBranch)
	if err != nil {
		return nil, fmt.Errorf("invalid target branch: %w", err)
	}
	var kind domain.ReleaseKind = domain.PrimaryRelease{}
	if !cfg.IsPrimaryRelease {
		sourceMajor, err := domain.MajorFromBranch(cfg.SourceBranch)
		if err != nil {
			return nil, fmt.Errorf("invalid source branch for a backport: %w", err)
		}
		if sourceMajor <= targetMajor {
			return nil, fmt.Errorf("backport source v%d must be newer than target v%d", sourceMajor, targetMajor)
		}
		kind = domain.Backport{SourceMajor: sourceMajor, TargetMajor: targetMajor}
	}
	manifest, err := usecase.ReadManifest(o.fsRepo, o.settings.Staging.ManifestPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read current version: %w", err)
	}
	if err := ValidateVersion(manifest.Version); err != nil {
		return nil, fmt.Errorf("invalid manifest version: %w", err)
	}
	current, err := domain.NewVersionTag(manifest.Version)
	if err != nil {
		return nil, err
	}
	return &domain.Release{
		SourceBranch: cfg.SourceBranch,
		TargetBranch: cfg.TargetBranch,
		Version:      current.WithMajor(targetMajor),
		Kind:         kind,
	}, nil
}

func (o *UpdateReleaseBranchOrchestrator) run(
	ctx context.Context,
	cfg UpdateReleaseBranchConfig,
	release domain.Release,
	record *domain.RunRecord,
	logger *zap.Logger,
) (domain.RunStatus, error) {
	if o.settings.CommitterName != "" {
		if err := o.gitRepo.ConfigureUser(ctx, o.settings.CommitterName, o.settings.CommitterEmail); err != nil {
			return "", fmt.Errorf("failed to configure git user: %w", err)
		}
	}
	if !cfg.NoFetch {
		if err := o.gitRepo.Fetch(ctx); err != nil {
			return "", fmt.Errorf("failed to fetch: %w", err)
		}
	}
	logger.Info("considering difference between branches",
		zap.String("source", release.SourceBranch),
		zap.String("target", release.TargetBranch),
		zap.String("kind", release.Kind.String()),
		zap.String("version", release.Version.String()),
	)
	collect := &usecase.CollectCommitsUseCase{
		GitRepo:       o.gitRepo,
		Forge:         o.forge,
		MergeBotLogin: o.settings.MergeBotLogin,
		Logger:        logger,
	}
	commits, err := collect.Execute(ctx, release.TargetBranch, release.SourceBranch)
	if err != nil {
		return "", err
	}
	o.printCIOutput(cfg.CIOutput, "%s=%t\n", OutputHasChanges, len(commits) > 0)
	if len(commits) == 0 {
		o.printStatus(cfg.CIOutput, fmt.Sprintf("No commits to merge from %s to %s.",
			release.SourceBranch, release.TargetBranch))
		return domain.RunStatusSkipped, nil
	}
	staging := &usecase.BuildStagingBranchUseCase{
		GitRepo:  o.gitRepo,
		FsRepo:   o.fsRepo,
		Settings: o.settings.Staging,
		Now:      o.now,
		Observer: func(state domain.StagingState) {
			record.RecordTransition(state)
			o.saveRecord(ctx, record)
		},
		Logger: logger,
	}
	result, err := staging.Execute(ctx, release)
	if err != nil {
		return "", err
	}
	record.BranchName = result.BranchName
	record.ConflictedFiles = result.ConflictedFiles
	o.printCIOutput(cfg.CIOutput, "%s=%s\n", OutputBranch, result.BranchName)
	if result.Skipped {
		o.printStatus(cfg.CIOutput, fmt.Sprintf("Branch %s already exists. Nothing to do.", result.BranchName))
		return domain.RunStatusSkipped, nil
	}
	o.printCIOutput(cfg.CIOutput, "%s=%d\n", OutputConflicts, len(result.ConflictedFiles))
	number, err := o.openPullRequest(ctx, cfg, release, commits, result, logger)
	if number > 0 {
		record.PullRequest = number
		o.printCIOutput(cfg.CIOutput, "%s=%d\n", OutputPRNumber, number)
	}
	if err != nil {
		return "", err
	}
	o.printStatus(cfg.CIOutput, fmt.Sprintf("Opened PR #%d from %s into %s.", number, result.BranchName,
		release.TargetBranch))
	return domain.RunStatusCompleted, nil
}

func (o *UpdateReleaseBranchOrchestrator) openPullRequest(
	ctx context.Context,
	cfg UpdateReleaseBranchConfig,
	release domain.Release,
	commits []domain.Commit,
	staging *usecase.StagingResult,
	logger *zap.Logger,
) (int, error) {
	attribute := &usecase.AttributeCommitsUseCase{Forge: o.forge, Logger: logger}
	attribution, err := attribute.Execute(ctx, commits)
	if err != nil {
		return 0, err
	}
	conductor := cfg.Conductor
	if conductor == "" {
		if conductor, err = domain.Conductor(attribution); err != nil {
			return 0, fmt.Errorf("failed to choose a conductor: %w", err)
		}
	}
	compose := &usecase.ComposePullRequestUseCase{
		TitleTemplate: o.settings.TitleTemplate,
		BackportLabel: o.settings.BackportLabel,
	}
	draft, err := compose.Execute(usecase.ComposeRequest{
		Attribution:     attribution,
		BranchName:      staging.BranchName,
		SourceBranch:    release.SourceBranch,
		TargetBranch:    release.TargetBranch,
		SourceShortSHA:  staging.SourceShortSHA,
		Conductor:       conductor,
		Kind:            release.Kind,
		ConflictedFiles: staging.ConflictedFiles,
		ManifestPath:    o.settings.Staging.ManifestPath,
	})
	if err != nil {
		return 0, fmt.Errorf("failed to compose pull request: %w", err)
	}
	submit := &usecase.SubmitPullRequestUseCase{Forge: o.forge, Logger: logger}
	return submit.Execute(ctx, draft)
}

// saveRecord journals the run. The journal is diagnostic, so failures are only logged.
func (o *UpdateReleaseBranchOrchestrator) saveRecord(ctx context.Context, record *domain.RunRecord) {
	if o.runRepo == nil {
		return
	}
	if err := o.runRepo.Save(ctx, record); err != nil {
		o.logger.Warn("failed to save run record", zap.String("run_id", record.RunID), zap.Error(err))
	}
}

// printCIOutput prints output in CI format if enabled
func (o *UpdateReleaseBranchOrchestrator) printCIOutput(ciOutput bool, format string, args ...any) {
	if ciOutput {
		fmt.Fprintf(o.out, format, args...)
	}
}

// printStatus prints status messages when not in CI mode
func (o *UpdateReleaseBranchOrchestrator) printStatus(ciOutput bool, message string) {
	if !ciOutput {
		fmt.Fprintln(o.out, message)
	}
}
