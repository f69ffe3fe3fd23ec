package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/goliatone/go-formstore/internal/config"
	"github.com/goliatone/go-formstore/internal/logging"
	"github.com/goliatone/go-formstore/pkg/editor/tui"
)

// app carries the state shared by every subcommand.
type app struct {
	cfg     config.Config
	verbose bool
	logger  *zap.Logger
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		if !errors.Is(err, tui.ErrAborted) {
			fmt.Fprintln(os.Stderr, err)
		}
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	a := &app{cfg: config.Load(), logger: zap.NewNop()}

	root := &cobra.Command{
		Use:   "formstore",
		Short: "Edit storefront content documents against their form schemas",
		Long: `formstore opens storefront forms (products, landing pages, posts...) as
path-addressed documents, normalizes them for the REST API and submits them.

Configuration comes from the environment (API_BASE_URL, API_TOKEN, SCHEMA_DIR,
OPENAPI_SOURCE, LOG_LEVEL...); flags override it.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			logger, err := logging.New(a.cfg.LogLevel, a.verbose)
			if err != nil {
				return fmt.Errorf("failed to initialize logger: %w", err)
			}
			a.logger = logger
			return nil
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			if a.logger != nil {
				_ = a.logger.Sync()
			}
		},
	}

	flags := root.PersistentFlags()
	flags.BoolVarP(&a.verbose, "verbose", "v", false, "enable debug logging")
	flags.StringVar(&a.cfg.APIBaseURL, "api", a.cfg.APIBaseURL, "storefront API base URL")
	flags.StringVar(&a.cfg.APIToken, "token", a.cfg.APIToken, "bearer token for the storefront API")
	flags.StringVar(&a.cfg.SchemaDir, "schemas", a.cfg.SchemaDir, "directory of extra JSON/YAML form schemas")
	flags.StringVar(&a.cfg.OpenAPISource, "openapi", a.cfg.OpenAPISource, "OpenAPI document (path or URL) to derive extra forms from")
	flags.StringVar(&a.cfg.LogLevel, "log-level", a.cfg.LogLevel, "log level (debug, info, warn, error)")

	root.AddCommand(
		newServeCmd(a),
		newEditCmd(a),
		newNormalizeCmd(a),
		newSchemasCmd(a),
		newOpenAPICmd(a),
	)
	return root
}
