package cmd

import (
	"fmt"
	"io"
	"os"

	"github.com/compozy/releasesync/internal/config"
	"github.com/compozy/releasesync/internal/usecase"
	"github.com/spf13/afero"
	"github.com/spf13/cobra"
)

func newReleaseBranchesCmd(c *container) *cobra.Command {
	var (
		majorVersion string
		latestTag    string
		releasesFile string
	)
	cmd := &cobra.Command{
		Use:   "release-branches",
		Short: "Compute the branches a release is backported to",
		Long: `Print backport_source_branch and backport_target_branches for a release of the
given major version. When GITHUB_OUTPUT is set the lines are appended to that file
instead of printed.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := c.load(); err != nil {
				return err
			}
			if releasesFile == "" {
				releasesFile = c.cfg.ReleasesFile
			}
			releases, err := config.LoadReleases(c.fsRepo, releasesFile)
			if err != nil {
				return err
			}
			uc := &usecase.ComputeBackportTargetsUseCase{
				BranchPrefix:         c.cfg.ReleaseBranchPrefix,
				OldestSupportedMajor: releases.OldestSupportedMajorVersion,
			}
			targets, err := uc.Execute(majorVersion, latestTag)
			if err != nil {
				return err
			}
			lines, err := targets.OutputLines()
			if err != nil {
				return err
			}
			return writeOutputs(c.fsRepo, os.Getenv("GITHUB_OUTPUT"), cmd.OutOrStdout(), lines)
		},
	}
	cmd.Flags().StringVar(&majorVersion, "major-version", "", "Major version of the release, e.g. v3")
	cmd.Flags().StringVar(&latestTag, "latest-tag", "", "Most recent release tag, e.g. v3.2.1")
	cmd.Flags().StringVar(&releasesFile, "releases-file", "", "Path of the releases file (default from config)")
	_ = cmd.MarkFlagRequired("major-version")
	_ = cmd.MarkFlagRequired("latest-tag")
	return cmd
}

// writeOutputs appends lines to the GitHub Actions output file, or writes them to out when
// there is none.
func writeOutputs(fsys afero.Fs, outputPath string, out io.Writer, lines string) error {
	if outputPath == "" {
		_, err := io.WriteString(out, lines)
		return err
	}
	f, err := fsys.OpenFile(outputPath, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return fmt.Errorf("failed to open %s: %w", outputPath, err)
	}
	if _, err := f.WriteString(lines); err != nil {
		f.Close()
		return fmt.Errorf("failed to write %s: %w", outputPath, err)
	}
	return f.Close()
}
