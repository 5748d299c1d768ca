package cmd

import (
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "release-sync",
	Short: "Keep release branches in sync through draft pull requests",
	Long: `release-sync promotes the main line into the current release branch and backports
release branches into older supported ones. Each update is prepared on a staging branch
and proposed as a draft pull request for a maintainer to finish.`,
	SilenceUsage: true,
}

func Execute() error {
	return rootCmd.Execute()
}
