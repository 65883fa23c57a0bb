/*
Copyright (c) 2026 moyaru <rbffo@icloud.com>
*/

package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/MOYARU/verid/internal/app/ui"
	"github.com/MOYARU/verid/internal/config"
	"github.com/MOYARU/verid/internal/logger"
	"github.com/MOYARU/verid/internal/report"
	appver "github.com/MOYARU/verid/internal/version"
)

var (
	version = appver.Value

	configPath string
	logLevel   string
	noColor    bool
)

var rootCmd = &cobra.Command{
	Use:           "verid [target]",
	Short:         "verid identifies the exact release of a web application from the static files and pages it serves.",
	Args:          cobra.MaximumNArgs(1),
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		if len(args) == 0 {
			return cmd.Help()
		}
		return runScan(cmd, args[0])
	},
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "%s\n", ui.Paint(ui.ColorRed, "Error: "+report.SanitizeText(err.Error())))
		os.Exit(1)
	}
}

// setup resolves the configuration for cmd, binding the given flag names
// to config keys, and initialises logging and redaction from it.
func setup(cmd *cobra.Command, flagKeys map[string]string) (*config.Config, error) {
	keys := make(map[string]string, len(flagKeys)+1)
	for name, key := range flagKeys {
		if cmd.Flags().Lookup(name) != nil {
			keys[name] = key
		}
	}
	if cmd.Flags().Lookup("log-level") != nil {
		keys["log-level"] = "log.level"
	}

	loader := config.NewLoader(configPath)
	if err := loader.BindFlags(cmd.Flags(), keys); err != nil {
		return nil, err
	}
	cfg, err := loader.Load()
	if err != nil {
		return nil, err
	}

	if _, err := logger.Init(&cfg.Log); err != nil {
		return nil, err
	}
	patterns, err := config.CompileRedactionPatterns(cfg.RedactionPatterns)
	if err != nil {
		return nil, err
	}
	report.SetRedactionPatterns(patterns)
	if noColor {
		ui.SetColor(false)
	}
	if file := loader.ConfigFileUsed(); file != "" {
		logger.Debugf("configuration loaded from %s", file)
	}
	return cfg, nil
}

func init() {
	rootCmd.Version = version

	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Config file (default: ./.verid.yaml or ./configs/.verid.yaml)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "info", "Log level: debug, info, warn, error")
	rootCmd.PersistentFlags().BoolVar(&noColor, "no-color", false, "Disable coloured output")
	addScanFlags(rootCmd)

	rootCmd.Long = ui.AsciiArt + `
verid fetches the static files a product ships (scripts, stylesheets, readme files),
hashes them and looks the digests up in a fingerprint database. The versions that
every matching file agrees on are narrowed down further with the version numbers the
site exposes in its pages (generator tags, feeds, ?ver= asset parameters).

Usage:
   verid [target_url] [flags]
   verid scan <target_url> [flags]
   verid offline <manifest.json> [flags]
   verid serve [database...] [flags]
   verid dbinfo [database...] [flags]

Example:
  verid https://blog.example.com --db wordpress.json
  verid scan https://blog.example.com --db s3://fingerprints/wordpress.json.gz --confidence 86
  verid offline capture/manifest.json --db wordpress.json --json

Only identify sites you own or have explicit permission to test.
`
}
