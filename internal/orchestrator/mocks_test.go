package orchestrator

import (
	"context"

	"github.com/compozy/releasesync/internal/domain"
	"github.com/compozy/releasesync/internal/repository"
	"github.com/stretchr/testify/mock"
)

// Mock for GitRepository - implements ALL methods from GitRepository interface
type mockGitRepository struct{ mock.Mock }

func (m *mockGitRepository) Fetch(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}
func (m *mockGitRepository) CommitsBetween(ctx context.Context, targetRef, sourceRef string) ([]string, error) {
	args := m.Called(ctx, targetRef, sourceRef)
	if hashes := args.Get(0); hashes != nil {
		return hashes.([]string), args.Error(1)
	}
	return nil, args.Error(1)
}
func (m *mockGitRepository) BranchExistsRemotely(ctx context.Context, name string) (bool, error) {
	args := m.Called(ctx, name)
	return args.Bool(0), args.Error(1)
}
func (m *mockGitRepository) ShortHash(ctx context.Context, ref string) (string, error) {
	args := m.Called(ctx, ref)
	return args.String(0), args.Error(1)
}
func (m *mockGitRepository) CheckoutNewBranch(ctx context.Context, name, fromRef string) error {
	args := m.Called(ctx, name, fromRef)
	return args.Error(0)
}
func (m *mockGitRepository) LatestCommitMatching(
	ctx context.Context,
	match func(message string) bool,
) (string, bool, error) {
	args := m.Called(ctx, match)
	return args.String(0), args.Bool(1), args.Error(2)
}
func (m *mockGitRepository) RevertCommit(ctx context.Context, sha string) error {
	args := m.Called(ctx, sha)
	return args.Error(0)
}
func (m *mockGitRepository) MergeAllowingConflicts(ctx context.Context, ref string) (int, error) {
	args := m.Called(ctx, ref)
	return args.Int(0), args.Error(1)
}
func (m *mockGitRepository) ConflictedFiles(ctx context.Context) ([]string, error) {
	args := m.Called(ctx)
	if files := args.Get(0); files != nil {
		return files.([]string), args.Error(1)
	}
	return nil, args.Error(1)
}
func (m *mockGitRepository) CommitAll(ctx context.Context, message string) error {
	args := m.Called(ctx, message)
	return args.Error(0)
}
func (m *mockGitRepository) StageAndCommit(ctx context.Context, paths []string, message string) error {
	args := m.Called(ctx, paths, message)
	return args.Error(0)
}
func (m *mockGitRepository) PushBranch(ctx context.Context, name string) error {
	args := m.Called(ctx, name)
	return args.Error(0)
}
func (m *mockGitRepository) ConfigureUser(ctx context.Context, name, email string) error {
	args := m.Called(ctx, name, email)
	return args.Error(0)
}
func (m *mockGitRepository) RemoteRef(branch string) string {
	return "origin/" + branch
}

// Mock for ForgeRepository
type mockForgeRepository struct{ mock.Mock }

func (m *mockForgeRepository) GetCommit(ctx context.Context, sha string) (*domain.Commit, error) {
	args := m.Called(ctx, sha)
	if commit := args.Get(0); commit != nil {
		return commit.(*domain.Commit), args.Error(1)
	}
	return nil, args.Error(1)
}
func (m *mockForgeRepository) ListPullRequestsForCommit(ctx context.Context, sha string) ([]domain.ChangeRequest, error) {
	args := m.Called(ctx, sha)
	if prs := args.Get(0); prs != nil {
		return prs.([]domain.ChangeRequest), args.Error(1)
	}
	return nil, args.Error(1)
}
func (m *mockForgeRepository) CreatePullRequest(ctx context.Context, pr repository.NewPullRequest) (int, error) {
	args := m.Called(ctx, pr)
	return args.Int(0), args.Error(1)
}
func (m *mockForgeRepository) AddLabels(ctx context.Context, number int, labels []string) error {
	args := m.Called(ctx, number, labels)
	return args.Error(0)
}
func (m *mockForgeRepository) AddAssignees(ctx context.Context, number int, assignees []string) error {
	args := m.Called(ctx, number, assignees)
	return args.Error(0)
}

// Mock for RunRecordRepository
type mockRunRecordRepository struct{ mock.Mock }

func (m *mockRunRecordRepository) Save(ctx context.Context, record *domain.RunRecord) error {
	args := m.Called(ctx, record)
	return args.Error(0)
}
func (m *mockRunRecordRepository) Load(ctx context.Context, runID string) (*domain.RunRecord, error) {
	args := m.Called(ctx, runID)
	if record := args.Get(0); record != nil {
		return record.(*domain.RunRecord), args.Error(1)
	}
	return nil, args.Error(1)
}
func (m *mockRunRecordRepository) LoadLatest(ctx context.Context) (*domain.RunRecord, error) {
	args := m.Called(ctx)
	if record := args.Get(0); record != nil {
		return record.(*domain.RunRecord), args.Error(1)
	}
	return nil, args.Error(1)
}
