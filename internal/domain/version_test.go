package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewVersionTag(t *testing.T) {
	t.Run("Should create valid version from string", func(t *testing.T) {
		version, err := NewVersionTag("1.2.3")
		require.NoError(t, err)
		assert.NotNil(t, version)
		assert.Equal(t, "1.2.3", version.String())
	})
	t.Run("Should return error for invalid version string", func(t *testing.T) {
		version, err := NewVersionTag("invalid")
		assert.Error(t, err)
		assert.Nil(t, version)
	})
	t.Run("Should strip the v prefix", func(t *testing.T) {
		version, err := NewVersionTag("v1.2.3")
		require.NoError(t, err)
		assert.Equal(t, "1.2.3", version.String())
	})
}

func TestVersionTag_WithMajor(t *testing.T) {
	t.Run("Should replace only the major component", func(t *testing.T) {
		version, err := NewVersionTag("2.5.3")
		require.NoError(t, err)
		assert.Equal(t, "1.5.3", version.WithMajor(1).String())
		assert.Equal(t, "2.5.3", version.String())
	})
}

func TestMajorFromBranch(t *testing.T) {
	t.Run("Should parse the major from a release branch", func(t *testing.T) {
		major, err := MajorFromBranch("releases/v3")
		require.NoError(t, err)
		assert.Equal(t, uint64(3), major)
	})
	t.Run("Should parse multi-digit majors", func(t *testing.T) {
		major, err := MajorFromBranch("releases/v12")
		require.NoError(t, err)
		assert.Equal(t, uint64(12), major)
	})
	t.Run("Should reject branches without a major", func(t *testing.T) {
		_, err := MajorFromBranch("main")
		assert.Error(t, err)
	})
}

func TestStagingBranchName(t *testing.T) {
	version, err := NewVersionTag("1.5.0")
	require.NoError(t, err)
	t.Run("Should use the update prefix for primary releases", func(t *testing.T) {
		assert.Equal(t, "update-v1.5.0-abc1234", StagingBranchName(PrimaryRelease{}, version, "abc1234"))
	})
	t.Run("Should use the backport prefix for backports", func(t *testing.T) {
		kind := Backport{SourceMajor: 2, TargetMajor: 1}
		assert.Equal(t, "backport-v1.5.0-abc1234", StagingBranchName(kind, version, "abc1234"))
		assert.False(t, IsPrimary(kind))
		assert.True(t, IsPrimary(PrimaryRelease{}))
	})
}
