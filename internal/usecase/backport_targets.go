package usecase

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/Masterminds/semver/v3"
	json "github.com/goccy/go-json"
)

// BackportTargets lists the release branches a release of one major version fans out to.
type BackportTargets struct {
	SourceBranch   string   `json:"backport_source_branch"`
	TargetBranches []string `json:"backport_target_branches"`
}

// ComputeBackportTargetsUseCase decides where a release gets backported.
type ComputeBackportTargetsUseCase struct {
	BranchPrefix         string
	OldestSupportedMajor uint64
}

// Execute runs the use case. majorVersion is "vN"; latestTag is the newest published tag.
// Older release branches only receive backports when the release is not older than the
// latest tag's major, compared numerically.
func (uc *ComputeBackportTargetsUseCase) Execute(majorVersion, latestTag string) (*BackportTargets, error) {
	major, err := strconv.ParseUint(strings.TrimPrefix(strings.TrimSpace(majorVersion), "v"), 10, 64)
	if err != nil {
		return nil, fmt.Errorf("invalid major version %q: %w", majorVersion, err)
	}
	latest, err := semver.NewVersion(latestTag)
	if err != nil {
		return nil, fmt.Errorf("invalid latest tag %q: %w", latestTag, err)
	}
	prefix := uc.BranchPrefix
	if prefix == "" {
		prefix = "releases/"
	}
	targets := &BackportTargets{
		SourceBranch:   fmt.Sprintf("%sv%d", prefix, major),
		TargetBranches: []string{},
	}
	if major == 0 || major < latest.Major() {
		return targets, nil
	}
	for i := major - 1; i >= 1 && i >= uc.OldestSupportedMajor; i-- {
		targets.TargetBranches = append(targets.TargetBranches, fmt.Sprintf("%sv%d", prefix, i))
	}
	return targets, nil
}

// OutputLines renders the targets as GITHUB_OUTPUT key=value lines.
func (t *BackportTargets) OutputLines() (string, error) {
	branches, err := json.Marshal(t.TargetBranches)
	if err != nil {
		return "", fmt.Errorf("failed to encode target branches: %w", err)
	}
	return fmt.Sprintf("backport_source_branch=%s\nbackport_target_branches=%s\n", t.SourceBranch, branches), nil
}
