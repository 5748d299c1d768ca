package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/compozy/releasesync/internal/domain"
	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/config"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/object"
	"github.com/go-git/go-git/v5/plumbing/storer"
	"github.com/go-git/go-git/v5/plumbing/transport"
	"github.com/go-git/go-git/v5/plumbing/transport/http"
)

const shortHashLength = 7

// gitRepository is the implementation of the GitRepository interface. Object reads and
// transport go through go-git; working tree mutations that go-git cannot perform (revert,
// three-way merge with conflict markers) go through the git binary.

type gitRepository struct {
	repo   *git.Repository
	dir    string
	remote string
	token  string
	runner commandRunner
}

// NewGitRepository opens the repository containing dir.
func NewGitRepository(dir, remote, token string) (GitRepository, error) {
	repo, err := git.PlainOpenWithOptions(dir, &git.PlainOpenOptions{DetectDotGit: true})
	if err != nil {
		return nil, fmt.Errorf("failed to open git repository: %w", err)
	}
	wt, err := repo.Worktree()
	if err != nil {
		return nil, fmt.Errorf("failed to get worktree: %w", err)
	}
	return &gitRepository{
		repo:   repo,
		dir:    wt.Filesystem.Root(),
		remote: remote,
		token:  token,
		runner: newExecRunner(),
	}, nil
}

func libError(op string, err error) error {
	return &domain.GitOperationError{Command: strings.Fields(op), ExitCode: -1, Err: err}
}

// getAuth returns token authentication for GitHub remotes, or nil.
func (r *gitRepository) getAuth() transport.AuthMethod {
	if r.token == "" {
		return nil
	}
	// Use x-access-token as username for GitHub token authentication
	return &http.BasicAuth{
		Username: "x-access-token",
		Password: r.token,
	}
}

func (r *gitRepository) RemoteRef(branch string) string {
	return r.remote + "/" + branch
}

// Fetch updates the remote-tracking branches.
func (r *gitRepository) Fetch(ctx context.Context) error {
	err := r.repo.FetchContext(ctx, &git.FetchOptions{
		RemoteName: r.remote,
		Auth:       r.getAuth(),
	})
	if err != nil && !errors.Is(err, git.NoErrAlreadyUpToDate) {
		return libError("fetch "+r.remote, err)
	}
	return nil
}

func (r *gitRepository) resolve(ref string) (plumbing.Hash, error) {
	hash, err := r.repo.ResolveRevision(plumbing.Revision(ref))
	if err != nil {
		return plumbing.ZeroHash, libError("rev-parse "+ref, err)
	}
	return *hash, nil
}

// CommitsBetween is the two-dot difference targetRef..sourceRef.
func (r *gitRepository) CommitsBetween(_ context.Context, targetRef, sourceRef string) ([]string, error) {
	targetHash, err := r.resolve(targetRef)
	if err != nil {
		return nil, err
	}
	sourceHash, err := r.resolve(sourceRef)
	if err != nil {
		return nil, err
	}
	reachable := make(map[plumbing.Hash]struct{})
	targetLog, err := r.repo.Log(&git.LogOptions{From: targetHash})
	if err != nil {
		return nil, libError("log "+targetRef, err)
	}
	if err := targetLog.ForEach(func(c *object.Commit) error {
		reachable[c.Hash] = struct{}{}
		return nil
	}); err != nil {
		return nil, libError("log "+targetRef, err)
	}
	sourceLog, err := r.repo.Log(&git.LogOptions{From: sourceHash})
	if err != nil {
		return nil, libError("log "+sourceRef, err)
	}
	var hashes []string
	if err := sourceLog.ForEach(func(c *object.Commit) error {
		if _, ok := reachable[c.Hash]; !ok {
			hashes = append(hashes, c.Hash.String())
		}
		return nil
	}); err != nil {
		return nil, libError("log "+targetRef+".."+sourceRef, err)
	}
	return hashes, nil
}

// BranchExistsRemotely lists the remote's heads.
func (r *gitRepository) BranchExistsRemotely(ctx context.Context, name string) (bool, error) {
	remote, err := r.repo.Remote(r.remote)
	if err != nil {
		return false, libError("ls-remote "+r.remote, err)
	}
	refs, err := remote.ListContext(ctx, &git.ListOptions{Auth: r.getAuth()})
	if errors.Is(err, transport.ErrEmptyRemoteRepository) {
		return false, nil
	}
	if err != nil {
		return false, libError("ls-remote "+r.remote, err)
	}
	want := plumbing.NewBranchReferenceName(name)
	for _, ref := range refs {
		if ref.Name() == want {
			return true, nil
		}
	}
	return false, nil
}

// ShortHash abbreviates the commit ref points at.
func (r *gitRepository) ShortHash(_ context.Context, ref string) (string, error) {
	hash, err := r.resolve(ref)
	if err != nil {
		return "", err
	}
	return hash.String()[:shortHashLength], nil
}

func (r *gitRepository) CheckoutNewBranch(ctx context.Context, name, fromRef string) error {
	_, err := r.runner.Run(ctx, r.dir, "checkout", "-b", name, fromRef)
	return err
}

func (r *gitRepository) LatestCommitMatching(
	_ context.Context,
	match func(message string) bool,
) (string, bool, error) {
	head, err := r.repo.Head()
	if err != nil {
		return "", false, libError("rev-parse HEAD", err)
	}
	commits, err := r.repo.Log(&git.LogOptions{From: head.Hash(), Order: git.LogOrderCommitterTime})
	if err != nil {
		return "", false, libError("log HEAD", err)
	}
	var found string
	err = commits.ForEach(func(c *object.Commit) error {
		if match(c.Message) {
			found = c.Hash.String()
			return storer.ErrStop
		}
		return nil
	})
	if err != nil && !errors.Is(err, storer.ErrStop) {
		return "", false, libError("log HEAD", err)
	}
	return found, found != "", nil
}

func (r *gitRepository) RevertCommit(ctx context.Context, sha string) error {
	if _, err := r.runner.Run(ctx, r.dir, "revert", "--no-edit", sha); err != nil {
		return &domain.RevertError{SHA: sha, Err: err}
	}
	return nil
}

func (r *gitRepository) MergeAllowingConflicts(ctx context.Context, ref string) (int, error) {
	_, err := r.runner.Run(ctx, r.dir, "merge", "--no-edit", ref)
	if err == nil {
		return 0, nil
	}
	var gitErr *domain.GitOperationError
	if errors.As(err, &gitErr) && gitErr.ExitCode > 0 {
		return gitErr.ExitCode, nil
	}
	return -1, err
}

func (r *gitRepository) ConflictedFiles(ctx context.Context) ([]string, error) {
	out, err := r.runner.Run(ctx, r.dir, "diff", "--name-only", "--diff-filter=U")
	if err != nil {
		return nil, err
	}
	var files []string
	for _, line := range strings.Split(out, "\n") {
		if line = strings.TrimSpace(line); line != "" {
			files = append(files, line)
		}
	}
	return files, nil
}

// CommitAll stages the whole tree. An empty message keeps git's prepared message, which
// is how an in-progress merge is concluded.
func (r *gitRepository) CommitAll(ctx context.Context, message string) error {
	if _, err := r.runner.Run(ctx, r.dir, "add", "--all"); err != nil {
		return err
	}
	args := []string{"commit", "--no-edit"}
	if message != "" {
		args = []string{"commit", "-m", message}
	}
	_, err := r.runner.Run(ctx, r.dir, args...)
	return err
}

func (r *gitRepository) StageAndCommit(ctx context.Context, paths []string, message string) error {
	if _, err := r.runner.Run(ctx, r.dir, append([]string{"add", "--"}, paths...)...); err != nil {
		return err
	}
	_, err := r.runner.Run(ctx, r.dir, "commit", "-m", message)
	return err
}

// PushBranch pushes a branch to the remote.
func (r *gitRepository) PushBranch(ctx context.Context, name string) error {
	err := r.repo.PushContext(ctx, &git.PushOptions{
		RemoteName: r.remote,
		RefSpecs:   []config.RefSpec{config.RefSpec(fmt.Sprintf("refs/heads/%s:refs/heads/%s", name, name))},
		Auth:       r.getAuth(),
	})
	if err != nil && !errors.Is(err, git.NoErrAlreadyUpToDate) {
		return libError("push "+r.remote+" "+name, err)
	}
	return nil
}

// ConfigureUser sets the git user configuration.
func (r *gitRepository) ConfigureUser(_ context.Context, name, email string) error {
	cfg, err := r.repo.Config()
	if err != nil {
		return libError("config", err)
	}
	cfg.User.Name = name
	cfg.User.Email = email
	if err := r.repo.Storer.SetConfig(cfg); err != nil {
		return libError("config user.name", err)
	}
	return nil
}
