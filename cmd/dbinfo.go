package cmd

import (
	"github.com/spf13/cobra"

	"github.com/MOYARU/verid/internal/app/output"
	"github.com/MOYARU/verid/internal/app/ui"
	"github.com/MOYARU/verid/internal/fingerprint"
)

var dbinfoCmd = &cobra.Command{
	Use:   "dbinfo [database...]",
	Short: "Summarise fingerprint databases",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := setup(cmd, nil)
		if err != nil {
			return err
		}

		locations := args
		if len(locations) == 0 {
			db, err := requireDatabase(cfg)
			if err != nil {
				return err
			}
			locations = []string{db}
		}

		loader := fingerprint.NewLoader(cfg.Fingerprint.S3)
		stats := make([]fingerprint.Stats, 0, len(locations))
		for _, loc := range locations {
			col, err := loader.Load(cmd.Context(), loc)
			if err != nil {
				return err
			}
			stats = append(stats, fingerprint.Summarize(col))
		}

		if jsonOutput {
			ui.SetColor(false)
			return output.WriteJSON(cmd.OutOrStdout(), stats)
		}
		output.PrintStats(cmd.OutOrStdout(), stats)
		return nil
	},
}

func init() {
	dbinfoCmd.Flags().BoolVar(&jsonOutput, "json", false, "Print the summary as JSON")
	rootCmd.AddCommand(dbinfoCmd)
}
