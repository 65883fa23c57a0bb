package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/MOYARU/verid/internal/app/output"
	"github.com/MOYARU/verid/internal/app/scan"
	"github.com/MOYARU/verid/internal/app/ui"
	"github.com/MOYARU/verid/internal/config"
	"github.com/MOYARU/verid/internal/fingerprint"
	"github.com/MOYARU/verid/internal/logger"
	msges "github.com/MOYARU/verid/internal/messages"
	"github.com/MOYARU/verid/internal/report"
	"github.com/MOYARU/verid/internal/store"
	"github.com/MOYARU/verid/internal/versionid"
)

var (
	jsonOutput bool
	saveJSON   bool
	showFiles  bool
	noPages    bool
	failIfNone bool
)

var scanFlagKeys = map[string]string{
	"db":          "fingerprint.path",
	"product":     "product",
	"confidence":  "confidence_level",
	"concurrency": "scan.max_concurrency",
	"delay":       "scan.delay",
	"timeout":     "scan.timeout",
	"budget":      "scan.request_budget",
	"max-files":   "scan.max_files",
	"pages":       "exposing_pages",
	"insecure":    "scan.insecure_tls",
}

var scanCmd = &cobra.Command{
	Use:   "scan <target>",
	Short: "Identify the version running at a live target",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runScan(cmd, args[0])
	},
}

func addScanFlags(c *cobra.Command) {
	def := config.DefaultScanPolicy()
	c.Flags().String("db", "", "Fingerprint database: file path or s3://bucket/key")
	c.Flags().String("product", "WordPress", "Product name used to recognise generator declarations")
	c.Flags().Int("confidence", versionid.DefaultConfidenceLevel, "Trust in fetched files over page content, 0-100")
	c.Flags().Int("concurrency", def.MaxConcurrency, "Parallel requests")
	c.Flags().Duration("delay", 0, "Delay before each request (e.g. 500ms)")
	c.Flags().Duration("timeout", def.Timeout, "Per-request timeout")
	c.Flags().Int64("budget", 0, "Maximum requests for the whole scan (0 = unlimited)")
	c.Flags().Int("max-files", 0, "Fetch at most this many reference files (0 = all)")
	c.Flags().StringSlice("pages", config.DefaultExposingPages(), "Version-exposing pages to read")
	c.Flags().Bool("insecure", false, "Skip TLS certificate verification")
	c.Flags().BoolVar(&noPages, "no-pages", false, "Do not read version-exposing pages")
	addOutputFlags(c)
}

func addOutputFlags(c *cobra.Command) {
	c.Flags().BoolVar(&jsonOutput, "json", false, "Print the result as JSON")
	c.Flags().BoolVar(&saveJSON, "save", false, "Save a JSON report in the working directory")
	c.Flags().BoolVar(&showFiles, "files", false, "Show the per-file trail")
	c.Flags().BoolVar(&failIfNone, "fail", false, "Exit non-zero when no version is identified")
}

func requireDatabase(cfg *config.Config) (string, error) {
	if cfg.Fingerprint.Path == "" {
		return "", errors.New("no fingerprint database: pass --db or set fingerprint.path")
	}
	return cfg.Fingerprint.Path, nil
}

// openStore connects to database.url when configured. A failure is printed
// and scanning continues without persistence.
func openStore(ctx context.Context, cfg *config.Config) *store.Store {
	if cfg.Database.URL == "" {
		return nil
	}
	connectCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	st, err := store.Open(connectCtx, cfg.Database.URL)
	if err == nil {
		err = st.Migrate(connectCtx)
		if err != nil {
			st.Close()
		}
	}
	if err != nil {
		logger.Warnf("result store unavailable: %v", err)
		fmt.Fprintln(os.Stderr, ui.Paint(ui.ColorYellow, msges.GetUIMessage("StoreUnavailable", report.SanitizeText(err.Error()))))
		return nil
	}
	return st
}

func runScan(cmd *cobra.Command, target string) error {
	cfg, err := setup(cmd, scanFlagKeys)
	if err != nil {
		return err
	}
	if noPages {
		cfg.ExposingPages = nil
	}
	if jsonOutput {
		ui.SetColor(false)
	}

	ctx, cancel := ui.WaitForCancel(cmd.Context())
	defer cancel()

	db, err := requireDatabase(cfg)
	if err != nil {
		return err
	}
	col, err := fingerprint.NewLoader(cfg.Fingerprint.S3).Load(ctx, db)
	if err != nil {
		return err
	}
	logger.Infof("collection %s loaded (%d files)", col.Key, len(col.Files))
	if !jsonOutput {
		fmt.Fprintln(os.Stderr, msges.GetUIMessage("CollectionLoaded", col.Key, len(col.Files), col.Algo()))
	}

	opts := []scan.Option{scan.WithLogger(logger.Entry())}
	if !jsonOutput {
		opts = append(opts, scan.WithProgress(os.Stderr))
	}
	st := openStore(ctx, cfg)
	if st != nil {
		defer st.Close()
		opts = append(opts, scan.WithSaver(st))
	}

	rep, err := scan.New(cfg, opts...).Identify(ctx, target, col)
	if err != nil {
		if errors.Is(err, context.Canceled) {
			fmt.Fprintln(os.Stderr, ui.Paint(ui.ColorYellow, msges.GetUIMessage("ScanCancelled")))
		}
		return err
	}
	if st != nil && len(rep.Errors) == 0 {
		fmt.Fprintln(os.Stderr, msges.GetUIMessage("ReportStored", rep.ScanID))
	}
	return present(cmd, rep)
}

func present(cmd *cobra.Command, rep *report.Report) error {
	out := cmd.OutOrStdout()
	if jsonOutput {
		if err := output.WriteJSON(out, rep); err != nil {
			return err
		}
	} else {
		output.PrintReport(out, rep, showFiles)
	}

	if saveJSON {
		name, err := output.SaveJSONReport(rep, "")
		if err != nil {
			return err
		}
		fmt.Fprintf(os.Stderr, "\n%s\n", msges.GetUIMessage("JSONReportSaved", name))
	}
	if failIfNone {
		return rep.Err()
	}
	return nil
}

func init() {
	addScanFlags(scanCmd)
	rootCmd.AddCommand(scanCmd)
}
