package usecase

import (
	"fmt"
	"time"

	"github.com/compozy/releasesync/internal/changelog"
	"github.com/compozy/releasesync/internal/domain"
	"github.com/compozy/releasesync/internal/repository"
)

// RollbackChangelogUseCase prepares the changelog of a release that re-publishes an older
// version in place of a broken one.
type RollbackChangelogUseCase struct {
	FsRepo         repository.FileSystemRepository
	ChangelogPath  string
	ChangelogTitle string
	Now            func() time.Time
}

// RollbackRequest names the versions involved in a rollback.
type RollbackRequest struct {
	// RollbackVersion is the broken release.
	RollbackVersion string
	// TargetVersion is the release being re-published.
	TargetVersion string
	// NewVersion is the version TargetVersion is re-published as.
	NewVersion string
	InPlace    bool
}

// Execute returns the new changelog text and writes it back when InPlace is set.
func (uc *RollbackChangelogUseCase) Execute(req RollbackRequest) (string, error) {
	for _, v := range []string{req.RollbackVersion, req.TargetVersion, req.NewVersion} {
		if _, err := domain.NewVersionTag(v); err != nil {
			return "", err
		}
	}
	text, err := repository.ReadTextFile(uc.FsRepo, uc.ChangelogPath, changelog.DefaultDocument(uc.ChangelogTitle))
	if err != nil {
		return "", err
	}
	now := time.Now
	if uc.Now != nil {
		now = uc.Now
	}
	updated, err := changelog.Rollback(text, req.RollbackVersion, req.TargetVersion, req.NewVersion,
		now().Format(changelogDateLayout))
	if err != nil {
		return "", fmt.Errorf("failed to roll back %s: %w", uc.ChangelogPath, err)
	}
	if req.InPlace {
		if err := repository.WriteTextFile(uc.FsRepo, uc.ChangelogPath, updated); err != nil {
			return "", err
		}
	}
	return updated, nil
}
