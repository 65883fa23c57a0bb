package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/MOYARU/verid/internal/app/scan"
	"github.com/MOYARU/verid/internal/app/ui"
	"github.com/MOYARU/verid/internal/fingerprint"
	"github.com/MOYARU/verid/internal/logger"
	msges "github.com/MOYARU/verid/internal/messages"
)

var offlineCmd = &cobra.Command{
	Use:   "offline <manifest.json>",
	Short: "Identify a version from files and pages captured earlier",
	Long: `Runs the identification without touching the network. The manifest lists
the reference files already fetched, either by digest or by a saved copy,
and optionally the saved bodies of version-exposing pages:

  {
    "target": "https://blog.example.com/",
    "files": [
      {"path": "wp-includes/js/wp-embed.min.js", "hash": "5c1f..."},
      {"path": "readme.html", "file": "capture/readme.html"}
    ],
    "pages": ["capture/index.html", "capture/feed.xml"]
  }

Leave out "pages" when no page was captured.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := setup(cmd, map[string]string{
			"db":         "fingerprint.path",
			"product":    "product",
			"confidence": "confidence_level",
		})
		if err != nil {
			return err
		}
		if jsonOutput {
			ui.SetColor(false)
		}

		m, err := scan.LoadManifest(args[0])
		if err != nil {
			return fmt.Errorf("%s", msges.GetUIMessage("OfflineManifestError", err))
		}
		db, err := requireDatabase(cfg)
		if err != nil {
			return err
		}
		ctx := cmd.Context()
		col, err := fingerprint.NewLoader(cfg.Fingerprint.S3).Load(ctx, db)
		if err != nil {
			return err
		}

		opts := []scan.Option{scan.WithLogger(logger.Entry())}
		if st := openStore(ctx, cfg); st != nil {
			defer st.Close()
			opts = append(opts, scan.WithSaver(st))
		}
		rep, err := scan.New(cfg, opts...).IdentifyOffline(ctx, m, col)
		if err != nil {
			return err
		}
		return present(cmd, rep)
	},
}

func init() {
	offlineCmd.Flags().String("db", "", "Fingerprint database: file path or s3://bucket/key")
	offlineCmd.Flags().String("product", "WordPress", "Product name used to recognise generator declarations")
	offlineCmd.Flags().Int("confidence", 100, "Trust in fetched files over page content, 0-100")
	addOutputFlags(offlineCmd)
	rootCmd.AddCommand(offlineCmd)
}
