package domain

import (
	"fmt"
	"regexp"
	"strconv"

	"github.com/Masterminds/semver/v3"
)

var releaseBranchMajor = regexp.MustCompile(`v(\d+)$`)

// VersionTag wraps semver.Version for cross-series rewriting.
type VersionTag struct {
	*semver.Version
}

// NewVersionTag parses a major.minor.patch string, with or without a v prefix.
func NewVersionTag(s string) (*VersionTag, error) {
	v, err := semver.NewVersion(s)
	if err != nil {
		return nil, fmt.Errorf("invalid version %q: %w", s, err)
	}
	return &VersionTag{v}, nil
}

// WithMajor returns a copy with the major component replaced; minor and patch are kept.
func (v *VersionTag) WithMajor(major uint64) *VersionTag {
	nv := semver.New(major, v.Minor(), v.Patch(), v.Prerelease(), v.Metadata())
	return &VersionTag{nv}
}

// String returns the version without the v prefix.
func (v *VersionTag) String() string {
	return v.Version.String()
}

// MajorFromBranch extracts N from a branch such as releases/vN.
func MajorFromBranch(branch string) (uint64, error) {
	m := releaseBranchMajor.FindStringSubmatch(branch)
	if m == nil {
		return 0, fmt.Errorf("branch %q does not name a major version (expected .../vN)", branch)
	}
	major, err := strconv.ParseUint(m[1], 10, 64)
	if err != nil {
		return 0, fmt.Errorf("branch %q has an invalid major version: %w", branch, err)
	}
	return major, nil
}
