package cmd

import (
	"fmt"

	"github.com/compozy/releasesync/internal/domain"
	json "github.com/goccy/go-json"
	"github.com/goccy/go-yaml"
	"github.com/spf13/cobra"
)

func newLastRunCmd(c *container) *cobra.Command {
	var (
		runID  string
		format string
	)
	cmd := &cobra.Command{
		Use:   "last-run",
		Short: "Show the journal of an update-release-branch run",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := c.load(); err != nil {
				return err
			}
			repo := c.runRecordRepository()
			var (
				record *domain.RunRecord
				err    error
			)
			if runID != "" {
				record, err = repo.Load(cmd.Context(), runID)
			} else {
				record, err = repo.LoadLatest(cmd.Context())
			}
			if err != nil {
				return err
			}
			data, err := encodeRunRecord(record, format)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), string(data))
			return nil
		},
	}
	cmd.Flags().StringVar(&runID, "run-id", "", "Run to show (uses latest if not specified)")
	cmd.Flags().StringVar(&format, "format", "json", "Output format: json or yaml")
	return cmd
}

func encodeRunRecord(record *domain.RunRecord, format string) ([]byte, error) {
	switch format {
	case "json", "":
		data, err := json.MarshalIndent(record, "", "  ")
		if err != nil {
			return nil, fmt.Errorf("failed to encode run record: %w", err)
		}
		return data, nil
	case "yaml":
		data, err := yaml.Marshal(record)
		if err != nil {
			return nil, fmt.Errorf("failed to encode run record: %w", err)
		}
		return data, nil
	default:
		return nil, fmt.Errorf("unsupported format %q (expected json or yaml)", format)
	}
}
