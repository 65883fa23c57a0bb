package cmd

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/MOYARU/verid/internal/app/ui"
	"github.com/MOYARU/verid/internal/fingerprint"
	"github.com/MOYARU/verid/internal/logger"
	msges "github.com/MOYARU/verid/internal/messages"
	"github.com/MOYARU/verid/internal/server"
)

var serveCmd = &cobra.Command{
	Use:   "serve [database...]",
	Short: "Serve the identification engine over HTTP",
	Long: `Starts the JSON API:

  GET  /healthz
  GET  /api/v1/collections
  POST /api/v1/collections/reload
  POST /api/v1/identify
  GET  /api/v1/identifications/:id   (requires database.url)

Databases default to fingerprint.path when none are given.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := setup(cmd, map[string]string{
			"addr":       "server.addr",
			"product":    "product",
			"confidence": "confidence_level",
		})
		if err != nil {
			return err
		}

		locations := args
		if len(locations) == 0 && cfg.Fingerprint.Path != "" {
			locations = []string{cfg.Fingerprint.Path}
		}
		if len(locations) == 0 {
			return errors.New("no fingerprint database: pass one or set fingerprint.path")
		}

		ctx, cancel := ui.WaitForCancel(cmd.Context())
		defer cancel()

		reg := fingerprint.NewRegistry(fingerprint.NewLoader(cfg.Fingerprint.S3), locations...)
		if err := reg.Reload(ctx); err != nil {
			return err
		}
		logger.Infof("serving collections %v", reg.Keys())

		opts := []server.Option{server.WithLogger(logger.Entry())}
		if st := openStore(ctx, cfg); st != nil {
			defer st.Close()
			opts = append(opts, server.WithStore(st))
		}
		fmt.Fprintln(os.Stderr, msges.GetUIMessage("ServerListening", cfg.Server.Addr))
		if err := server.New(cfg, reg, opts...).Run(ctx); err != nil {
			return err
		}
		fmt.Fprintln(os.Stderr, msges.GetUIMessage("ServerStopped"))
		return nil
	},
}

func init() {
	serveCmd.Flags().String("addr", ":8080", "Listen address")
	serveCmd.Flags().String("product", "WordPress", "Product name used to recognise generator declarations")
	serveCmd.Flags().Int("confidence", 100, "Default confidence level for requests that do not set one")
	rootCmd.AddCommand(serveCmd)
}
