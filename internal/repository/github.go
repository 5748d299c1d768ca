package repository

import (
	"context"

	"github.com/compozy/releasesync/internal/domain"
)

// NewPullRequest is the payload for opening a pull request.
type NewPullRequest struct {
	Title string
	Body  string
	Head  string
	Base  string
	Draft bool
}

// ForgeRepository defines the GitHub API operations. Every failure is a *domain.ForgeAPIError.

type ForgeRepository interface {
	GetCommit(ctx context.Context, sha string) (*domain.Commit, error)
	// ListPullRequestsForCommit returns the pull requests that introduced sha. Merger is not
	// populated.
	ListPullRequestsForCommit(ctx context.Context, sha string) ([]domain.ChangeRequest, error)
	CreatePullRequest(ctx context.Context, pr NewPullRequest) (int, error)
	AddLabels(ctx context.Context, number int, labels []string) error
	AddAssignees(ctx context.Context, number int, assignees []string) error
}
