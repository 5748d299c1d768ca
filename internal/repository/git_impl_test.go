package repository

import (
	"context"
	"errors"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/compozy/releasesync/internal/domain"
	"github.com/go-git/go-git/v5"
	gitconfig "github.com/go-git/go-git/v5/config"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/object"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testClock = time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

func setupTestRepo(t *testing.T) (string, *git.Repository) {
	dir := t.TempDir()
	repo, err := git.PlainInit(dir, false)
	require.NoError(t, err)
	commitWithGoGit(t, repo, dir, "test.txt", "test content", "Initial commit")
	return dir, repo
}

func commitWithGoGit(t *testing.T, repo *git.Repository, dir, name, content, message string) plumbing.Hash {
	t.Helper()
	wt, err := repo.Worktree()
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0644))
	_, err = wt.Add(name)
	require.NoError(t, err)
	testClock = testClock.Add(time.Minute)
	hash, err := wt.Commit(message, &git.CommitOptions{
		Author: &object.Signature{
			Name:  "Test User",
			Email: "test@example.com",
			When:  testClock,
		},
	})
	require.NoError(t, err)
	return hash
}

func openTestGateway(t *testing.T, dir string) *gitRepository {
	t.Helper()
	g, err := NewGitRepository(dir, "origin", "")
	require.NoError(t, err)
	return g.(*gitRepository)
}

// requireGitBinary skips tests that drive the git CLI when it is not installed.
func requireGitBinary(t *testing.T) {
	t.Helper()
	if _, err := exec.LookPath("git"); err != nil {
		t.Skip("git binary not available")
	}
}

func gitRun(t *testing.T, g *gitRepository, args ...string) string {
	t.Helper()
	out, err := g.runner.Run(context.Background(), g.dir, args...)
	require.NoError(t, err)
	return out
}

func commitWithCLI(t *testing.T, g *gitRepository, name, content, message string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(g.dir, name), []byte(content), 0644))
	require.NoError(t, g.StageAndCommit(context.Background(), []string{name}, message))
}

func currentBranch(t *testing.T, repo *git.Repository) string {
	head, err := repo.Head()
	require.NoError(t, err)
	return head.Name().Short()
}

func TestNewGitRepository(t *testing.T) {
	t.Run("Should create git repository for existing repo", func(t *testing.T) {
		dir, _ := setupTestRepo(t)
		gitRepo, err := NewGitRepository(dir, "origin", "")
		assert.NoError(t, err)
		assert.NotNil(t, gitRepo)
		assert.Equal(t, "origin/main", gitRepo.RemoteRef("main"))
	})
	t.Run("Should find the repository from a subdirectory", func(t *testing.T) {
		dir, _ := setupTestRepo(t)
		sub := filepath.Join(dir, "nested")
		require.NoError(t, os.MkdirAll(sub, 0755))
		gitRepo, err := NewGitRepository(sub, "origin", "")
		require.NoError(t, err)
		assert.Equal(t, dir, gitRepo.(*gitRepository).dir)
	})
	t.Run("Should return error for non-git directory", func(t *testing.T) {
		gitRepo, err := NewGitRepository(t.TempDir(), "origin", "")
		assert.Error(t, err)
		assert.Nil(t, gitRepo)
	})
}

func TestGitRepository_CommitsBetween(t *testing.T) {
	t.Run("Should list commits only reachable from the source", func(t *testing.T) {
		dir, repo := setupTestRepo(t)
		base := currentBranch(t, repo)
		wt, err := repo.Worktree()
		require.NoError(t, err)
		require.NoError(t, wt.Checkout(&git.CheckoutOptions{
			Branch: plumbing.NewBranchReferenceName("feature"),
			Create: true,
		}))
		first := commitWithGoGit(t, repo, dir, "a.txt", "a", "Add a")
		second := commitWithGoGit(t, repo, dir, "b.txt", "b", "Add b")
		g := openTestGateway(t, dir)
		hashes, err := g.CommitsBetween(context.Background(), base, "feature")
		require.NoError(t, err)
		assert.ElementsMatch(t, []string{first.String(), second.String()}, hashes)
		reverse, err := g.CommitsBetween(context.Background(), "feature", base)
		require.NoError(t, err)
		assert.Empty(t, reverse)
	})
	t.Run("Should fail with a git operation error for unknown refs", func(t *testing.T) {
		dir, _ := setupTestRepo(t)
		g := openTestGateway(t, dir)
		_, err := g.CommitsBetween(context.Background(), "origin/missing", "HEAD")
		var gitErr *domain.GitOperationError
		require.True(t, errors.As(err, &gitErr))
		assert.Equal(t, -1, gitErr.ExitCode)
	})
}

func TestGitRepository_ShortHash(t *testing.T) {
	t.Run("Should abbreviate to seven characters", func(t *testing.T) {
		dir, repo := setupTestRepo(t)
		head, err := repo.Head()
		require.NoError(t, err)
		g := openTestGateway(t, dir)
		short, err := g.ShortHash(context.Background(), "HEAD")
		require.NoError(t, err)
		assert.Len(t, short, 7)
		assert.True(t, strings.HasPrefix(head.Hash().String(), short))
	})
}

func TestGitRepository_LatestCommitMatching(t *testing.T) {
	t.Run("Should return the newest matching commit", func(t *testing.T) {
		dir, repo := setupTestRepo(t)
		commitWithGoGit(t, repo, dir, "a.txt", "1", "Update version and changelog for v1.0.0")
		newest := commitWithGoGit(t, repo, dir, "a.txt", "2", "Update version and changelog for v1.1.0")
		commitWithGoGit(t, repo, dir, "b.txt", "3", "Unrelated change")
		g := openTestGateway(t, dir)
		sha, found, err := g.LatestCommitMatching(context.Background(), func(msg string) bool {
			return strings.HasPrefix(msg, "Update version and changelog for v")
		})
		require.NoError(t, err)
		assert.True(t, found)
		assert.Equal(t, newest.String(), sha)
	})
	t.Run("Should report no match", func(t *testing.T) {
		dir, _ := setupTestRepo(t)
		g := openTestGateway(t, dir)
		_, found, err := g.LatestCommitMatching(context.Background(), func(string) bool { return false })
		require.NoError(t, err)
		assert.False(t, found)
	})
}

func TestGitRepository_ConfigureUser(t *testing.T) {
	t.Run("Should persist the user identity", func(t *testing.T) {
		dir, repo := setupTestRepo(t)
		g := openTestGateway(t, dir)
		require.NoError(t, g.ConfigureUser(context.Background(), "Release Bot", "bot@example.com"))
		cfg, err := repo.Config()
		require.NoError(t, err)
		assert.Equal(t, "Release Bot", cfg.User.Name)
		assert.Equal(t, "bot@example.com", cfg.User.Email)
	})
}

func TestGitRepository_WorkingTreeOperations(t *testing.T) {
	requireGitBinary(t)
	ctx := context.Background()

	setup := func(t *testing.T) (*gitRepository, string) {
		dir, repo := setupTestRepo(t)
		g := openTestGateway(t, dir)
		require.NoError(t, g.ConfigureUser(ctx, "Test User", "test@example.com"))
		return g, currentBranch(t, repo)
	}

	t.Run("Should create a branch from a ref", func(t *testing.T) {
		g, base := setup(t)
		require.NoError(t, g.CheckoutNewBranch(ctx, "staging", base))
		assert.Equal(t, "staging", strings.TrimSpace(gitRun(t, g, "rev-parse", "--abbrev-ref", "HEAD")))
	})
	t.Run("Should fail checkout from a missing ref", func(t *testing.T) {
		g, _ := setup(t)
		err := g.CheckoutNewBranch(ctx, "staging", "origin/missing")
		var gitErr *domain.GitOperationError
		require.True(t, errors.As(err, &gitErr))
		assert.NotZero(t, gitErr.ExitCode)
		assert.Equal(t, []string{"checkout", "-b", "staging", "origin/missing"}, gitErr.Command)
	})
	t.Run("Should revert a commit cleanly", func(t *testing.T) {
		g, _ := setup(t)
		commitWithCLI(t, g, "bump.txt", "1.1.0", "Update version and changelog for v1.1.0")
		sha := strings.TrimSpace(gitRun(t, g, "rev-parse", "HEAD"))
		require.NoError(t, g.RevertCommit(ctx, sha))
		_, err := os.Stat(filepath.Join(g.dir, "bump.txt"))
		assert.True(t, os.IsNotExist(err))
	})
	t.Run("Should return a revert error when the revert conflicts", func(t *testing.T) {
		g, _ := setup(t)
		commitWithCLI(t, g, "test.txt", "two", "Second")
		sha := strings.TrimSpace(gitRun(t, g, "rev-parse", "HEAD"))
		commitWithCLI(t, g, "test.txt", "three", "Third")
		err := g.RevertCommit(ctx, sha)
		var revertErr *domain.RevertError
		require.True(t, errors.As(err, &revertErr))
		assert.Equal(t, sha, revertErr.SHA)
		var gitErr *domain.GitOperationError
		assert.True(t, errors.As(err, &gitErr))
	})
	t.Run("Should tolerate a conflicting merge and report conflicted files", func(t *testing.T) {
		g, base := setup(t)
		require.NoError(t, g.CheckoutNewBranch(ctx, "feature", base))
		commitWithCLI(t, g, "test.txt", "feature side", "Feature change")
		gitRun(t, g, "checkout", base)
		commitWithCLI(t, g, "test.txt", "base side", "Base change")
		status, err := g.MergeAllowingConflicts(ctx, "feature")
		require.NoError(t, err)
		assert.NotZero(t, status)
		files, err := g.ConflictedFiles(ctx)
		require.NoError(t, err)
		assert.Equal(t, []string{"test.txt"}, files)
		require.NoError(t, g.CommitAll(ctx, ""))
		files, err = g.ConflictedFiles(ctx)
		require.NoError(t, err)
		assert.Empty(t, files)
	})
	t.Run("Should merge cleanly with zero status", func(t *testing.T) {
		g, base := setup(t)
		require.NoError(t, g.CheckoutNewBranch(ctx, "feature", base))
		commitWithCLI(t, g, "other.txt", "x", "Other file")
		gitRun(t, g, "checkout", base)
		status, err := g.MergeAllowingConflicts(ctx, "feature")
		require.NoError(t, err)
		assert.Zero(t, status)
	})
	t.Run("Should push a branch and see it remotely", func(t *testing.T) {
		g, base := setup(t)
		bare := t.TempDir()
		_, err := git.PlainInit(bare, true)
		require.NoError(t, err)
		_, err = g.repo.CreateRemote(&gitconfig.RemoteConfig{Name: "origin", URLs: []string{bare}})
		require.NoError(t, err)
		exists, err := g.BranchExistsRemotely(ctx, base)
		require.NoError(t, err)
		assert.False(t, exists)
		require.NoError(t, g.PushBranch(ctx, base))
		exists, err = g.BranchExistsRemotely(ctx, base)
		require.NoError(t, err)
		assert.True(t, exists)
	})
}
