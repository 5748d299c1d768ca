package domain

// Release identifies one source→target promotion.

type Release struct {
	SourceBranch string
	TargetBranch string
	Version      *VersionTag
	Kind         ReleaseKind
}
