package usecase

import (
	"context"
	"fmt"

	"github.com/compozy/releasesync/internal/domain"
	"github.com/compozy/releasesync/internal/repository"
	"go.uber.org/zap"
)

// AttributeCommitsUseCase groups commits under the pull requests that introduced them.
type AttributeCommitsUseCase struct {
	Forge  repository.ForgeRepository
	Logger *zap.Logger
}

// Execute partitions commits into pull requests and unattributed commits. Every input
// commit ends up in exactly one place: under its earliest pull request, or unattributed.
func (uc *AttributeCommitsUseCase) Execute(ctx context.Context, commits []domain.Commit) (*domain.Attribution, error) {
	logger := uc.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	attribution := &domain.Attribution{}
	index := make(map[int]int)
	for _, commit := range commits {
		prs, err := uc.Forge.ListPullRequestsForCommit(ctx, commit.SHA)
		if err != nil {
			return nil, fmt.Errorf("failed to list pull requests for %s: %w", commit.SHA, err)
		}
		pr, ok := earliest(prs)
		if !ok {
			attribution.Unattributed = append(attribution.Unattributed, commit)
			continue
		}
		if i, dup := index[pr.Number]; dup {
			attribution.ChangeRequests[i].Commits = append(attribution.ChangeRequests[i].Commits, commit.SHA)
			continue
		}
		merger, err := uc.resolveMerger(ctx, pr)
		if err != nil {
			return nil, err
		}
		pr.Merger = merger
		pr.Commits = []string{commit.SHA}
		index[pr.Number] = len(attribution.ChangeRequests)
		attribution.ChangeRequests = append(attribution.ChangeRequests, pr)
	}
	attribution.Sort()
	logger.Info("attributed commits",
		zap.Int("pull_requests", len(attribution.ChangeRequests)),
		zap.Int("unattributed", len(attribution.Unattributed)),
	)
	return attribution, nil
}

// resolveMerger returns the author of the merge commit, which for external contributions is
// the maintainer who merged rather than the contributor.
func (uc *AttributeCommitsUseCase) resolveMerger(ctx context.Context, pr domain.ChangeRequest) (*domain.Identity, error) {
	if pr.MergeCommitSHA == "" {
		return pr.Author, nil
	}
	mergeCommit, err := uc.Forge.GetCommit(ctx, pr.MergeCommitSHA)
	if err != nil {
		return nil, fmt.Errorf("failed to get merge commit of #%d: %w", pr.Number, err)
	}
	if mergeCommit.Author == nil {
		return pr.Author, nil
	}
	return mergeCommit.Author, nil
}

func earliest(prs []domain.ChangeRequest) (domain.ChangeRequest, bool) {
	if len(prs) == 0 {
		return domain.ChangeRequest{}, false
	}
	best := prs[0]
	for _, pr := range prs[1:] {
		if pr.Number < best.Number {
			best = pr
		}
	}
	return best, true
}
