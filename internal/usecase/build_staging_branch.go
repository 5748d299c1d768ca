package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/compozy/releasesync/internal/changelog"
	"github.com/compozy/releasesync/internal/domain"
	"github.com/compozy/releasesync/internal/repository"
	"go.uber.org/zap"
)

// ErrUnreleasedPlaceholderMissing is returned in strict mode when the changelog has no
// [UNRELEASED] heading to stamp.
var ErrUnreleasedPlaceholderMissing = errors.New("changelog has no " + changelog.UnreleasedToken + " placeholder")

// StagingSettings are the file locations and commit markers the builder works with.
type StagingSettings struct {
	ChangelogPath                string
	ChangelogTitle               string
	ManifestPath                 string
	ManifestPackageName          string
	BookkeepingPrefix            string
	BookkeepingTrailer           string
	DependencyUpdatePrefix       string
	RequireUnreleasedPlaceholder bool
}

// StagingResult describes the staging branch of one run.
type StagingResult struct {
	BranchName      string
	SourceShortSHA  string
	ConflictedFiles []string
	// Skipped is set when the branch already exists on the remote.
	Skipped bool
}

// BuildStagingBranchUseCase creates, fills and pushes the staging branch. The target branch
// itself is never modified. A failure leaves whatever was created in place.
type BuildStagingBranchUseCase struct {
	GitRepo  repository.GitRepository
	FsRepo   repository.FileSystemRepository
	Settings StagingSettings
	Now      func() time.Time
	Observer func(domain.StagingState)
	Logger   *zap.Logger
}

// Execute runs the use case.
func (uc *BuildStagingBranchUseCase) Execute(ctx context.Context, release domain.Release) (*StagingResult, error) {
	if release.Version == nil || release.Kind == nil {
		return nil, fmt.Errorf("release version and kind are required")
	}
	logger := uc.logger()
	shortSHA, err := uc.GitRepo.ShortHash(ctx, uc.GitRepo.RemoteRef(release.SourceBranch))
	if err != nil {
		return nil, fmt.Errorf("failed to resolve %s: %w", release.SourceBranch, err)
	}
	result := &StagingResult{
		BranchName:     domain.StagingBranchName(release.Kind, release.Version, shortSHA),
		SourceShortSHA: shortSHA,
	}
	logger = logger.With(zap.String("branch", result.BranchName))
	machine := domain.NewStagingMachine(uc.Observer)
	exists, err := uc.GitRepo.BranchExistsRemotely(ctx, result.BranchName)
	if err != nil {
		return nil, fmt.Errorf("failed to check remote branch: %w", err)
	}
	if exists {
		logger.Info("staging branch already exists, nothing to do")
		result.Skipped = true
		return result, machine.Advance(domain.StagingSkipped)
	}
	switch kind := release.Kind.(type) {
	case domain.PrimaryRelease:
		err = uc.buildPrimary(ctx, machine, release, result.BranchName)
	case domain.Backport:
		result.ConflictedFiles, err = uc.buildBackport(ctx, machine, release, kind, result.BranchName)
	default:
		err = fmt.Errorf("unsupported release kind %T", release.Kind)
	}
	if err != nil {
		return nil, err
	}
	if err := uc.GitRepo.PushBranch(ctx, result.BranchName); err != nil {
		return nil, fmt.Errorf("failed to push staging branch: %w", err)
	}
	if err := advance(machine, domain.StagingPushed, domain.StagingDone); err != nil {
		return nil, err
	}
	logger.Info("staging branch pushed", zap.Int("conflicts", len(result.ConflictedFiles)))
	return result, nil
}

func (uc *BuildStagingBranchUseCase) buildPrimary(
	ctx context.Context,
	machine *domain.StagingMachine,
	release domain.Release,
	branch string,
) error {
	logger := uc.logger()
	if err := uc.GitRepo.CheckoutNewBranch(ctx, branch, uc.GitRepo.RemoteRef(release.SourceBranch)); err != nil {
		return fmt.Errorf("failed to create staging branch: %w", err)
	}
	if err := advance(machine, domain.StagingBranchCreated, domain.StagingClean); err != nil {
		return err
	}
	text, err := uc.readChangelog()
	if err != nil {
		return err
	}
	version := release.Version.String()
	updated, found := changelog.InsertNewRelease(text, version, uc.now().Format(changelogDateLayout))
	if !found {
		if uc.Settings.RequireUnreleasedPlaceholder {
			return fmt.Errorf("failed to update %s: %w", uc.Settings.ChangelogPath, ErrUnreleasedPlaceholderMissing)
		}
		logger.Warn("changelog has no unreleased placeholder, leaving it unchanged",
			zap.String("path", uc.Settings.ChangelogPath))
	} else if err := repository.WriteTextFile(uc.FsRepo, uc.Settings.ChangelogPath, updated); err != nil {
		return err
	}
	if err := machine.Advance(domain.StagingChangelogUpdated); err != nil {
		return err
	}
	if found {
		message := renderTemplate(primaryCommitTemplate, map[string]interface{}{"version": version})
		if err := uc.GitRepo.StageAndCommit(ctx, []string{uc.Settings.ChangelogPath}, message); err != nil {
			return fmt.Errorf("failed to commit changelog: %w", err)
		}
	}
	return machine.Advance(domain.StagingCommitted)
}

func (uc *BuildStagingBranchUseCase) buildBackport(
	ctx context.Context,
	machine *domain.StagingMachine,
	release domain.Release,
	kind domain.Backport,
	branch string,
) ([]string, error) {
	logger := uc.logger()
	if err := uc.GitRepo.CheckoutNewBranch(ctx, branch, uc.GitRepo.RemoteRef(release.TargetBranch)); err != nil {
		return nil, fmt.Errorf("failed to create staging branch: %w", err)
	}
	if err := machine.Advance(domain.StagingBranchCreated); err != nil {
		return nil, err
	}
	if err := uc.revertPreviousBookkeeping(ctx); err != nil {
		return nil, err
	}
	sourceRef := uc.GitRepo.RemoteRef(release.SourceBranch)
	status, err := uc.GitRepo.MergeAllowingConflicts(ctx, sourceRef)
	if err != nil {
		return nil, fmt.Errorf("failed to merge %s: %w", sourceRef, err)
	}
	conflicts, err := uc.GitRepo.ConflictedFiles(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list conflicted files: %w", err)
	}
	if len(conflicts) > 0 {
		logger.Warn("merge left conflicts, committing them for manual resolution",
			zap.Strings("files", conflicts))
		if err := uc.GitRepo.CommitAll(ctx, ""); err != nil {
			return nil, fmt.Errorf("failed to commit merge conflicts: %w", err)
		}
		if err := machine.Advance(domain.StagingConflictPending); err != nil {
			return nil, err
		}
	} else {
		if status != 0 {
			return nil, fmt.Errorf("merge of %s exited with status %d without conflicts", sourceRef, status)
		}
		if err := machine.Advance(domain.StagingClean); err != nil {
			return nil, err
		}
	}
	if err := uc.rewriteManifest(release.Version.String()); err != nil {
		return nil, err
	}
	if err := machine.Advance(domain.StagingVersionUpdated); err != nil {
		return nil, err
	}
	text, err := uc.readChangelog()
	if err != nil {
		return nil, err
	}
	rewritten, err := changelog.RewriteForBackport(text, kind.SourceMajor, kind.TargetMajor)
	if err != nil {
		return nil, fmt.Errorf("failed to rewrite %s: %w", uc.Settings.ChangelogPath, err)
	}
	if err := repository.WriteTextFile(uc.FsRepo, uc.Settings.ChangelogPath, rewritten); err != nil {
		return nil, err
	}
	if err := machine.Advance(domain.StagingChangelogUpdated); err != nil {
		return nil, err
	}
	message := BookkeepingMessage(uc.Settings.BookkeepingPrefix, release.Version.String(), uc.Settings.BookkeepingTrailer)
	paths := []string{uc.Settings.ManifestPath, uc.Settings.ChangelogPath}
	if err := uc.GitRepo.StageAndCommit(ctx, paths, message); err != nil {
		return nil, fmt.Errorf("failed to commit version and changelog: %w", err)
	}
	return conflicts, machine.Advance(domain.StagingCommitted)
}

// revertPreviousBookkeeping undoes the newest bookkeeping commit of the previous backport and,
// only then, the newest dependency update. Older ones were reverted by earlier runs.
func (uc *BuildStagingBranchUseCase) revertPreviousBookkeeping(ctx context.Context) error {
	logger := uc.logger()
	prefix, trailer := uc.Settings.BookkeepingPrefix, uc.Settings.BookkeepingTrailer
	sha, found, err := uc.GitRepo.LatestCommitMatching(ctx, func(message string) bool {
		return IsBookkeepingMessage(message, prefix, trailer)
	})
	if err != nil {
		return fmt.Errorf("failed to search for bookkeeping commit: %w", err)
	}
	if !found {
		logger.Info("no previous bookkeeping commit, nothing to revert")
		return nil
	}
	logger.Info("reverting previous bookkeeping commit", zap.String("sha", sha))
	if err := uc.GitRepo.RevertCommit(ctx, sha); err != nil {
		return fmt.Errorf("failed to revert bookkeeping commit: %w", err)
	}
	depPrefix := uc.Settings.DependencyUpdatePrefix
	if depPrefix == "" {
		return nil
	}
	depSHA, found, err := uc.GitRepo.LatestCommitMatching(ctx, func(message string) bool {
		return strings.HasPrefix(message, depPrefix)
	})
	if err != nil {
		return fmt.Errorf("failed to search for dependency update commit: %w", err)
	}
	if !found {
		return nil
	}
	logger.Info("reverting dependency update commit", zap.String("sha", depSHA))
	if err := uc.GitRepo.RevertCommit(ctx, depSHA); err != nil {
		return fmt.Errorf("failed to revert dependency update commit: %w", err)
	}
	return nil
}

func (uc *BuildStagingBranchUseCase) rewriteManifest(version string) error {
	path := uc.Settings.ManifestPath
	manifest, err := ReadManifest(uc.FsRepo, path)
	if err != nil {
		return err
	}
	text, err := repository.ReadTextFile(uc.FsRepo, path, "")
	if err != nil {
		return err
	}
	updated, changed := RewriteManifestVersion(text, uc.Settings.ManifestPackageName, manifest.Version, version)
	if !changed {
		uc.logger().Warn("manifest version line not found, leaving it unchanged",
			zap.String("path", path), zap.String("version", manifest.Version))
		return nil
	}
	return repository.WriteTextFile(uc.FsRepo, path, updated)
}

func (uc *BuildStagingBranchUseCase) readChangelog() (string, error) {
	return repository.ReadTextFile(uc.FsRepo, uc.Settings.ChangelogPath,
		changelog.DefaultDocument(uc.Settings.ChangelogTitle))
}

func (uc *BuildStagingBranchUseCase) now() time.Time {
	if uc.Now != nil {
		return uc.Now()
	}
	return time.Now()
}

func (uc *BuildStagingBranchUseCase) logger() *zap.Logger {
	if uc.Logger == nil {
		return zap.NewNop()
	}
	return uc.Logger
}

func advance(machine *domain.StagingMachine, states ...domain.StagingState) error {
	for _, s := range states {
		if err := machine.Advance(s); err != nil {
			return err
		}
	}
	return nil
}
