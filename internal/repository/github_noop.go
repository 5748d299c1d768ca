package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/compozy/releasesync/internal/domain"
)

var ErrGithubTokenRequired = errors.New("github token is required for GitHub operations")

type githubNoopRepository struct {
	owner string
	repo  string
}

func NewGithubNoopRepository(owner, repo string) ForgeRepository {
	return &githubNoopRepository{owner: owner, repo: repo}
}

func (r *githubNoopRepository) GetCommit(_ context.Context, _ string) (*domain.Commit, error) {
	return nil, r.operationError("get commit")
}

func (r *githubNoopRepository) ListPullRequestsForCommit(_ context.Context, _ string) ([]domain.ChangeRequest, error) {
	return nil, r.operationError("list pull requests for commit")
}

func (r *githubNoopRepository) CreatePullRequest(_ context.Context, _ NewPullRequest) (int, error) {
	return 0, r.operationError("create pull request")
}

func (r *githubNoopRepository) AddLabels(_ context.Context, _ int, _ []string) error {
	return r.operationError("add labels")
}

func (r *githubNoopRepository) AddAssignees(_ context.Context, _ int, _ []string) error {
	return r.operationError("add assignees")
}

func (r *githubNoopRepository) operationError(action string) error {
	return fmt.Errorf("%w: unable to %s for %s/%s", ErrGithubTokenRequired, action, r.owner, r.repo)
}
