package main

import (
	"context"

	"fundrag/backend/internal/constants"
	"fundrag/backend/internal/services"
	"fundrag/backend/pkg/config"
	"fundrag/backend/pkg/logger"
	"github.com/spf13/cobra"
)

// rootOptions are the persistent flags shared by every command. Empty values
// keep what the environment configured.
type rootOptions struct {
	source       string
	dataDir      string
	snapshotFile string
	format       string
	logLevel     string
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}

	root := &cobra.Command{
		Use:   "fundrag",
		Short: "Ask questions about the fund knowledge base",
		Long: `fundrag answers natural-language questions about mutual funds, their
management companies, sectors and the macro factors that affect them.

Configuration is read from the environment (and .env); flags override it.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	flags := root.PersistentFlags()
	flags.StringVar(&opts.source, "source", "", "Knowledge base source: csv, yaml or neo4j (default: $DATA_SOURCE)")
	flags.StringVar(&opts.dataDir, "data-dir", "", "Directory with the CSV tables (default: $DATA_DIR)")
	flags.StringVar(&opts.snapshotFile, "snapshot-file", "", "YAML knowledge base file (default: $SNAPSHOT_FILE)")
	flags.StringVar(&opts.format, "format", string(FormatHuman), "Output format (human, json)")
	flags.StringVar(&opts.logLevel, "log-level", "warn", "Log level")

	root.AddCommand(
		newAskCmd(opts),
		newResolveCmd(opts),
		newEntitiesCmd(opts),
		newSeedCmd(opts),
	)
	return root
}

// loadConfig reads the environment configuration, applies flag overrides and
// initialises logging
func (o *rootOptions) loadConfig() (*config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	if o.source != "" {
		cfg.DataSource = o.source
	}
	if o.dataDir != "" {
		cfg.DataDir = o.dataDir
	}
	if o.snapshotFile != "" {
		cfg.SnapshotFile = o.snapshotFile
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if err := logger.Init(cfg.Env, o.logLevel); err != nil {
		return nil, err
	}
	return cfg, nil
}

// startServices loads configuration and the knowledge base
func (o *rootOptions) startServices(cmd *cobra.Command) (*services.Services, error) {
	cfg, err := o.loadConfig()
	if err != nil {
		return nil, err
	}
	ctx, cancel := context.WithTimeout(cmd.Context(), constants.ReloadTimeout)
	defer cancel()
	return services.Start(ctx, cfg)
}
