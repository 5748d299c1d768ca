package usecase

import (
	"context"
	"fmt"

	"github.com/compozy/releasesync/internal/domain"
	"github.com/compozy/releasesync/internal/repository"
	"go.uber.org/zap"
)

// CollectCommitsUseCase lists the commits on the source branch that the target branch lacks,
// resolved through the forge and without the forge's own merge commits.
type CollectCommitsUseCase struct {
	GitRepo       repository.GitRepository
	Forge         repository.ForgeRepository
	MergeBotLogin string
	Logger        *zap.Logger
}

// Execute runs the use case. The result is in no particular order.
func (uc *CollectCommitsUseCase) Execute(ctx context.Context, targetBranch, sourceBranch string) ([]domain.Commit, error) {
	logger := uc.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	hashes, err := uc.GitRepo.CommitsBetween(ctx, uc.GitRepo.RemoteRef(targetBranch), uc.GitRepo.RemoteRef(sourceBranch))
	if err != nil {
		return nil, fmt.Errorf("failed to compute commit difference: %w", err)
	}
	commits := make([]domain.Commit, 0, len(hashes))
	skipped := 0
	for _, sha := range hashes {
		commit, err := uc.Forge.GetCommit(ctx, sha)
		if err != nil {
			return nil, fmt.Errorf("failed to get commit %s: %w", sha, err)
		}
		if commit.IsMergeArtifact(uc.MergeBotLogin) {
			skipped++
			continue
		}
		commits = append(commits, *commit)
	}
	logger.Info("collected commits",
		zap.String("source", sourceBranch),
		zap.String("target", targetBranch),
		zap.Int("commits", len(commits)),
		zap.Int("merge_artifacts", skipped),
	)
	return commits, nil
}
