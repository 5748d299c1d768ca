package usecase

import (
	"context"
	"fmt"

	"github.com/compozy/releasesync/internal/domain"
	"github.com/compozy/releasesync/internal/repository"
	"go.uber.org/zap"
)

// SubmitPullRequestUseCase opens the composed pull request, labels it and assigns it.
type SubmitPullRequestUseCase struct {
	Forge  repository.ForgeRepository
	Logger *zap.Logger
}

// Execute runs the use case and returns the pull request number.
func (uc *SubmitPullRequestUseCase) Execute(ctx context.Context, draft *domain.PullRequestDraft) (int, error) {
	if draft == nil {
		return 0, fmt.Errorf("pull request draft cannot be nil")
	}
	logger := uc.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	number, err := uc.Forge.CreatePullRequest(ctx, repository.NewPullRequest{
		Title: draft.Title,
		Body:  draft.Body,
		Head:  draft.Head,
		Base:  draft.Base,
		Draft: draft.Draft,
	})
	if err != nil {
		return 0, fmt.Errorf("failed to create pull request: %w", err)
	}
	logger.Info("created pull request", zap.Int("number", number), zap.String("head", draft.Head))
	if len(draft.Labels) > 0 {
		if err := uc.Forge.AddLabels(ctx, number, draft.Labels); err != nil {
			return number, fmt.Errorf("failed to label pull request #%d: %w", number, err)
		}
	}
	if len(draft.Assignees) > 0 {
		if err := uc.Forge.AddAssignees(ctx, number, draft.Assignees); err != nil {
			return number, fmt.Errorf("failed to assign pull request #%d: %w", number, err)
		}
		logger.Info("assigned pull request", zap.Strings("assignees", draft.Assignees))
	}
	return number, nil
}
