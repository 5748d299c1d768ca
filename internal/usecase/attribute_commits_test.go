package usecase

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/compozy/releasesync/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func at(day int) time.Time {
	return time.Date(2024, time.March, day, 12, 0, 0, 0, time.UTC)
}

func TestAttributeCommitsUseCase_Execute(t *testing.T) {
	ctx := context.Background()
	t.Run("Should order pull requests by number regardless of commit order", func(t *testing.T) {
		forge := new(mockForgeRepository)
		uc := &AttributeCommitsUseCase{Forge: forge}
		commits := []domain.Commit{
			{SHA: "c11", AuthoredAt: at(1)},
			{SHA: "c10", AuthoredAt: at(2)},
			{SHA: "cal", AuthoredAt: at(3), Message: "Tweak build", Author: &domain.Identity{Login: "alice"}},
		}
		forge.On("ListPullRequestsForCommit", ctx, "c11").
			Return([]domain.ChangeRequest{{Number: 11, MergeCommitSHA: "m11"}}, nil)
		forge.On("ListPullRequestsForCommit", ctx, "c10").
			Return([]domain.ChangeRequest{{Number: 10, MergeCommitSHA: "m10"}}, nil)
		forge.On("ListPullRequestsForCommit", ctx, "cal").Return([]domain.ChangeRequest{}, nil)
		forge.On("GetCommit", ctx, "m11").Return(&domain.Commit{SHA: "m11", Author: &domain.Identity{Login: "bob"}}, nil)
		forge.On("GetCommit", ctx, "m10").Return(&domain.Commit{SHA: "m10", Author: &domain.Identity{Login: "carol"}}, nil)
		attribution, err := uc.Execute(ctx, commits)
		require.NoError(t, err)
		require.Len(t, attribution.ChangeRequests, 2)
		assert.Equal(t, 10, attribution.ChangeRequests[0].Number)
		assert.Equal(t, "carol", attribution.ChangeRequests[0].Merger.Login)
		assert.Equal(t, 11, attribution.ChangeRequests[1].Number)
		require.Len(t, attribution.Unattributed, 1)
		assert.Equal(t, "cal", attribution.Unattributed[0].SHA)
		forge.AssertExpectations(t)
	})
	t.Run("Should pick the earliest pull request and deduplicate across commits", func(t *testing.T) {
		forge := new(mockForgeRepository)
		uc := &AttributeCommitsUseCase{Forge: forge}
		commits := []domain.Commit{{SHA: "a"}, {SHA: "b"}}
		forge.On("ListPullRequestsForCommit", ctx, "a").Return([]domain.ChangeRequest{
			{Number: 30, MergeCommitSHA: "m30"},
			{Number: 7, MergeCommitSHA: "m7"},
		}, nil)
		forge.On("ListPullRequestsForCommit", ctx, "b").
			Return([]domain.ChangeRequest{{Number: 7, MergeCommitSHA: "m7"}}, nil)
		forge.On("GetCommit", ctx, "m7").Return(&domain.Commit{Author: &domain.Identity{Login: "dave"}}, nil).Once()
		attribution, err := uc.Execute(ctx, commits)
		require.NoError(t, err)
		require.Len(t, attribution.ChangeRequests, 1)
		assert.Equal(t, 7, attribution.ChangeRequests[0].Number)
		assert.Equal(t, []string{"a", "b"}, attribution.ChangeRequests[0].Commits)
		forge.AssertExpectations(t)
	})
	t.Run("Should fall back to the pull request author without a merge commit", func(t *testing.T) {
		forge := new(mockForgeRepository)
		uc := &AttributeCommitsUseCase{Forge: forge}
		forge.On("ListPullRequestsForCommit", ctx, "a").Return([]domain.ChangeRequest{
			{Number: 3, Author: &domain.Identity{Login: "erin"}},
		}, nil)
		attribution, err := uc.Execute(ctx, []domain.Commit{{SHA: "a"}})
		require.NoError(t, err)
		assert.Equal(t, "erin", attribution.ChangeRequests[0].Merger.Login)
		forge.AssertNotCalled(t, "GetCommit")
	})
	t.Run("Should account for every commit exactly once", func(t *testing.T) {
		forge := new(mockForgeRepository)
		uc := &AttributeCommitsUseCase{Forge: forge}
		var commits []domain.Commit
		for i, sha := range []string{"s1", "s2", "s3", "s4", "s5", "s6"} {
			commits = append(commits, domain.Commit{SHA: sha, AuthoredAt: at(i + 1)})
		}
		forge.On("ListPullRequestsForCommit", ctx, "s1").Return([]domain.ChangeRequest{{Number: 2}}, nil)
		forge.On("ListPullRequestsForCommit", ctx, "s2").Return([]domain.ChangeRequest{{Number: 1}}, nil)
		forge.On("ListPullRequestsForCommit", ctx, "s3").Return([]domain.ChangeRequest{{Number: 2}}, nil)
		forge.On("ListPullRequestsForCommit", ctx, "s4").Return([]domain.ChangeRequest{}, nil)
		forge.On("ListPullRequestsForCommit", ctx, "s5").Return([]domain.ChangeRequest{{Number: 1}, {Number: 9}}, nil)
		forge.On("ListPullRequestsForCommit", ctx, "s6").Return([]domain.ChangeRequest{}, nil)
		attribution, err := uc.Execute(ctx, commits)
		require.NoError(t, err)
		seen := map[string]int{}
		for _, pr := range attribution.ChangeRequests {
			for _, sha := range pr.Commits {
				seen[sha]++
			}
		}
		for _, c := range attribution.Unattributed {
			seen[c.SHA]++
		}
		require.Len(t, seen, len(commits))
		for sha, n := range seen {
			assert.Equal(t, 1, n, sha)
		}
		assert.Equal(t, "s4", attribution.Unattributed[0].SHA)
		assert.Equal(t, "s6", attribution.Unattributed[1].SHA)
	})
	t.Run("Should propagate forge failures", func(t *testing.T) {
		forge := new(mockForgeRepository)
		uc := &AttributeCommitsUseCase{Forge: forge}
		forge.On("ListPullRequestsForCommit", ctx, "a").Return(nil, errors.New("boom"))
		_, err := uc.Execute(ctx, []domain.Commit{{SHA: "a"}})
		assert.ErrorContains(t, err, "failed to list pull requests for a")
	})
}
