package domain

import "fmt"

// ReleaseKind is either PrimaryRelease or Backport.
type ReleaseKind interface {
	// BranchPrefix is the staging branch prefix for this kind.
	BranchPrefix() string
	String() string
	isReleaseKind()
}

// PrimaryRelease promotes the main line into the current major's release branch.
type PrimaryRelease struct{}

func (PrimaryRelease) BranchPrefix() string { return "update" }
func (PrimaryRelease) String() string       { return "primary" }
func (PrimaryRelease) isReleaseKind()       {}

// Backport re-applies a release from SourceMajor onto the older TargetMajor series.
type Backport struct {
	SourceMajor uint64
	TargetMajor uint64
}

func (Backport) BranchPrefix() string { return "backport" }
func (b Backport) String() string {
	return fmt.Sprintf("backport v%d->v%d", b.SourceMajor, b.TargetMajor)
}
func (Backport) isReleaseKind() {}

// IsPrimary reports whether kind is a primary release.
func IsPrimary(kind ReleaseKind) bool {
	_, ok := kind.(PrimaryRelease)
	return ok
}

// StagingBranchName derives {prefix}-v{version}-{shortSha}.
func StagingBranchName(kind ReleaseKind, version *VersionTag, shortSHA string) string {
	return fmt.Sprintf("%s-v%s-%s", kind.BranchPrefix(), version.String(), shortSHA)
}
