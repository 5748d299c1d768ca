package cmd

import (
	"io"

	"github.com/compozy/releasesync/internal/usecase"
	"github.com/spf13/cobra"
)

func newRollbackChangelogCmd(c *container) *cobra.Command {
	var req usecase.RollbackRequest
	cmd := &cobra.Command{
		Use:   "rollback-changelog",
		Short: "Prepare the changelog for re-publishing an older release",
		Long: `Replace the newest changelog section with an entry announcing that --new-version
re-publishes --target-version in place of the broken --rollback-version. The result is
printed, or written back with --in-place.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := c.load(); err != nil {
				return err
			}
			uc := &usecase.RollbackChangelogUseCase{
				FsRepo:         c.fsRepo,
				ChangelogPath:  c.cfg.ChangelogPath,
				ChangelogTitle: c.cfg.ChangelogTitle,
			}
			text, err := uc.Execute(req)
			if err != nil {
				return err
			}
			if req.InPlace {
				c.logger.Info("changelog updated")
				return nil
			}
			_, err = io.WriteString(cmd.OutOrStdout(), text)
			return err
		},
	}
	cmd.Flags().StringVar(&req.RollbackVersion, "rollback-version", "", "Version being rolled back")
	cmd.Flags().StringVar(&req.TargetVersion, "target-version", "", "Version being re-published")
	cmd.Flags().StringVar(&req.NewVersion, "new-version", "", "Version the re-published release gets")
	cmd.Flags().BoolVar(&req.InPlace, "in-place", false, "Write the changelog back instead of printing it")
	_ = cmd.MarkFlagRequired("rollback-version")
	_ = cmd.MarkFlagRequired("target-version")
	_ = cmd.MarkFlagRequired("new-version")
	return cmd
}
