package cmd

import (
	"github.com/compozy/releasesync/internal/orchestrator"
	"github.com/spf13/cobra"
)

func newUpdateReleaseBranchCmd(c *container) *cobra.Command {
	var cfg orchestrator.UpdateReleaseBranchConfig
	cmd := &cobra.Command{
		Use:   "update-release-branch",
		Short: "Propose merging a branch into a release branch",
		Long: `Prepare a staging branch that merges the source branch into the target release
branch and open a draft pull request for it.

For a primary release the staging branch is cut from the source branch and the
changelog's [UNRELEASED] heading is stamped with the version and date.

For a backport the staging branch is cut from the target branch, the previous
backport's version and changelog commit is reverted, the source branch is merged
with any conflicts committed as-is, and the manifest version and changelog are
rewritten for the older major version.

Nothing is done when there is nothing to merge or the staging branch already exists.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := c.load(); err != nil {
				return err
			}
			orch, err := c.updateReleaseBranchOrchestrator()
			if err != nil {
				return err
			}
			orch.SetOutput(cmd.OutOrStdout())
			return orch.Execute(cmd.Context(), cfg)
		},
	}
	cmd.Flags().StringVar(&cfg.SourceBranch, "source-branch", "", "Branch to merge from")
	cmd.Flags().StringVar(&cfg.TargetBranch, "target-branch", "", "Release branch to merge into")
	cmd.Flags().BoolVar(&cfg.IsPrimaryRelease, "is-primary-release", false,
		"Treat the update as a primary release instead of a backport")
	cmd.Flags().StringVar(&cfg.Conductor, "conductor", "", "Assign the pull request to this login")
	cmd.Flags().BoolVar(&cfg.NoFetch, "no-fetch", false, "Use remote-tracking refs without fetching first")
	cmd.Flags().BoolVar(&cfg.CIOutput, "ci-output", false, "Output in CI-friendly format")
	_ = cmd.MarkFlagRequired("source-branch")
	_ = cmd.MarkFlagRequired("target-branch")
	return cmd
}
