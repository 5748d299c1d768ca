package repository

import "context"

// GitRepository is the version control gateway for a single remote. Every method except
// MergeAllowingConflicts fails with *domain.GitOperationError.

type GitRepository interface {
	Fetch(ctx context.Context) error
	// CommitsBetween lists commits reachable from sourceRef and not from targetRef, in no
	// particular order.
	CommitsBetween(ctx context.Context, targetRef, sourceRef string) ([]string, error)
	BranchExistsRemotely(ctx context.Context, name string) (bool, error)
	ShortHash(ctx context.Context, ref string) (string, error)
	CheckoutNewBranch(ctx context.Context, name, fromRef string) error
	// LatestCommitMatching walks HEAD history newest first and returns the first match.
	LatestCommitMatching(ctx context.Context, match func(message string) bool) (string, bool, error)
	RevertCommit(ctx context.Context, sha string) error
	// MergeAllowingConflicts returns git's exit status; a non-zero status is not an error.
	MergeAllowingConflicts(ctx context.Context, ref string) (int, error)
	ConflictedFiles(ctx context.Context) ([]string, error)
	CommitAll(ctx context.Context, message string) error
	StageAndCommit(ctx context.Context, paths []string, message string) error
	PushBranch(ctx context.Context, name string) error
	ConfigureUser(ctx context.Context, name, email string) error
	// RemoteRef names a branch on the configured remote, e.g. origin/main.
	RemoteRef(branch string) string
}
