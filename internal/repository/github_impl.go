package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/compozy/releasesync/internal/config"
	"github.com/compozy/releasesync/internal/domain"
	"github.com/google/go-github/v74/github"
	"golang.org/x/oauth2"
)

// githubRepository is the implementation of the ForgeRepository interface.
type githubRepository struct {
	client *github.Client
	owner  string
	repo   string
}

// NewGithubRepository creates a new ForgeRepository with validation. An empty apiURL
// targets github.com.
func NewGithubRepository(token, owner, repo, apiURL string) (ForgeRepository, error) {
	// Validate token format using the consolidated validator from config package
	if err := config.ValidateGitHubToken(token); err != nil {
		return nil, fmt.Errorf("invalid GitHub token: %w", err)
	}
	if err := config.ValidateGitHubOwnerRepo(owner, repo); err != nil {
		return nil, fmt.Errorf("invalid repository configuration: %w", err)
	}
	ts := oauth2.StaticTokenSource(
		&oauth2.Token{AccessToken: strings.TrimSpace(token)},
	)
	tc := oauth2.NewClient(context.Background(), ts)
	client := github.NewClient(tc)
	if apiURL != "" {
		var err error
		client, err = client.WithEnterpriseURLs(apiURL, apiURL)
		if err != nil {
			return nil, fmt.Errorf("invalid GitHub API URL: %w", err)
		}
	}
	return newGithubRepositoryWithClient(client, owner, repo), nil
}

func newGithubRepositoryWithClient(client *github.Client, owner, repo string) *githubRepository {
	return &githubRepository{client: client, owner: owner, repo: repo}
}

func forgeError(op string, resp *github.Response, err error) error {
	status := 0
	if resp != nil && resp.Response != nil {
		status = resp.StatusCode
	}
	var ghErr *github.ErrorResponse
	if status == 0 && errors.As(err, &ghErr) && ghErr.Response != nil {
		status = ghErr.Response.StatusCode
	}
	return &domain.ForgeAPIError{Operation: op, StatusCode: status, Err: err}
}

func identityFromUser(u *github.User) *domain.Identity {
	if u == nil || u.GetLogin() == "" {
		return nil
	}
	return &domain.Identity{Login: u.GetLogin(), Name: u.GetName(), Email: u.GetEmail()}
}

// GetCommit fetches commit metadata including the linked forge accounts.
func (r *githubRepository) GetCommit(ctx context.Context, sha string) (*domain.Commit, error) {
	rc, resp, err := r.client.Repositories.GetCommit(ctx, r.owner, r.repo, sha, nil)
	if err != nil {
		return nil, forgeError("get commit "+sha, resp, err)
	}
	commit := &domain.Commit{
		SHA:       rc.GetSHA(),
		Message:   rc.GetCommit().GetMessage(),
		Author:    identityFromUser(rc.GetAuthor()),
		Committer: identityFromUser(rc.GetCommitter()),
	}
	if a := rc.GetCommit().GetAuthor(); a != nil {
		commit.AuthoredAt = a.GetDate().Time
	}
	for _, p := range rc.Parents {
		commit.Parents = append(commit.Parents, p.GetSHA())
	}
	return commit, nil
}

// ListPullRequestsForCommit lists the pull requests associated with a commit.
func (r *githubRepository) ListPullRequestsForCommit(ctx context.Context, sha string) ([]domain.ChangeRequest, error) {
	prs, resp, err := r.client.PullRequests.ListPullRequestsWithCommit(ctx, r.owner, r.repo, sha, nil)
	if err != nil {
		return nil, forgeError("list pull requests for "+sha, resp, err)
	}
	out := make([]domain.ChangeRequest, 0, len(prs))
	for _, pr := range prs {
		out = append(out, domain.ChangeRequest{
			Number:         pr.GetNumber(),
			Title:          pr.GetTitle(),
			MergeCommitSHA: pr.GetMergeCommitSHA(),
			Author:         identityFromUser(pr.GetUser()),
		})
	}
	return out, nil
}

// CreatePullRequest creates a new pull request.
func (r *githubRepository) CreatePullRequest(ctx context.Context, pr NewPullRequest) (int, error) {
	created, resp, err := r.client.PullRequests.Create(ctx, r.owner, r.repo, &github.NewPullRequest{
		Title: github.Ptr(pr.Title),
		Body:  github.Ptr(pr.Body),
		Head:  github.Ptr(pr.Head),
		Base:  github.Ptr(pr.Base),
		Draft: github.Ptr(pr.Draft),
	})
	if err != nil {
		return 0, forgeError("create pull request", resp, err)
	}
	return created.GetNumber(), nil
}

func (r *githubRepository) AddLabels(ctx context.Context, number int, labels []string) error {
	_, resp, err := r.client.Issues.AddLabelsToIssue(ctx, r.owner, r.repo, number, labels)
	if err != nil {
		return forgeError(fmt.Sprintf("add labels to #%d", number), resp, err)
	}
	return nil
}

func (r *githubRepository) AddAssignees(ctx context.Context, number int, assignees []string) error {
	_, resp, err := r.client.Issues.AddAssignees(ctx, r.owner, r.repo, number, assignees)
	if err != nil {
		return forgeError(fmt.Sprintf("add assignees to #%d", number), resp, err)
	}
	return nil
}
