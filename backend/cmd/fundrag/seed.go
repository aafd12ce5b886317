package main

import (
	"context"
	"fmt"

	"fundrag/backend/internal/constants"
	"fundrag/backend/internal/knowledge"
	"fundrag/backend/internal/services"
	"fundrag/backend/pkg/config"
	"fundrag/backend/pkg/logger"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

func newSeedCmd(opts *rootOptions) *cobra.Command {
	var from string
	var reset bool

	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Write the CSV or YAML knowledge base into Neo4j",
		Long: `Load the knowledge base from CSV or YAML, create the uniqueness
constraints and merge every entity and link into Neo4j. Afterwards the
service can run with DATA_SOURCE=neo4j.

Examples:
  fundrag seed
  fundrag seed --from yaml --reset`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if from != config.SourceCSV && from != config.SourceYAML {
				return fmt.Errorf("--from must be csv or yaml, got %q", from)
			}
			// The source flag names what the service reads; seeding always
			// reads from --from and writes to Neo4j.
			opts.source = from

			cfg, err := opts.loadConfig()
			if err != nil {
				return err
			}
			ctx, cancel := context.WithTimeout(cmd.Context(), constants.ReloadTimeout)
			defer cancel()

			n, err := seed(ctx, cfg, reset)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Seeded %d funds, %d AMCs, %d sectors and %d factors from %s into %s\n",
				n.Funds, n.AMCs, n.Sectors, n.Factors, from, cfg.Neo4jURI)
			return nil
		},
	}

	cmd.Flags().StringVar(&from, "from", config.SourceCSV, "Source to copy: csv or yaml")
	cmd.Flags().BoolVar(&reset, "reset", false, "Delete existing knowledge base nodes first")
	return cmd
}

type seedCounts struct {
	Funds, AMCs, Sectors, Factors int
}

func seed(ctx context.Context, cfg *config.Config, reset bool) (seedCounts, error) {
	log := logger.Named("seed")

	loader, _, err := services.NewLoader(ctx, cfg)
	if err != nil {
		return seedCounts{}, err
	}
	tables, err := loader.Load(ctx)
	if err != nil {
		return seedCounts{}, err
	}
	if knowledge.Build(tables, loader.Name()).Empty() {
		return seedCounts{}, fmt.Errorf("%s knowledge base is empty, nothing to seed", loader.Name())
	}

	repo, err := services.ConnectGraph(ctx, cfg)
	if err != nil {
		return seedCounts{}, err
	}
	defer repo.Close(context.Background())

	log.Info("Creating constraints...")
	if err := repo.CreateConstraints(ctx); err != nil {
		return seedCounts{}, err
	}
	if reset {
		log.Warn("Clearing existing knowledge base nodes")
		if err := repo.Clear(ctx); err != nil {
			return seedCounts{}, err
		}
	}
	if err := repo.SeedTables(ctx, tables); err != nil {
		return seedCounts{}, err
	}

	log.Info("Seeding complete", zap.String("source", loader.Name()))
	return seedCounts{
		Funds:   len(tables.Funds),
		AMCs:    len(tables.AMCs),
		Sectors: len(tables.Sectors),
		Factors: len(tables.Factors),
	}, nil
}
