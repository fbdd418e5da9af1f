package cmd

import (
	"context"
	"fmt"

	"github.com/chrisdamba/visitconsensus/internal/factories"
	"github.com/chrisdamba/visitconsensus/internal/models"
	"github.com/chrisdamba/visitconsensus/internal/repositories"
	"github.com/chrisdamba/visitconsensus/internal/repositories/postgres"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

var resetVisits bool

var generateCmd = &cobra.Command{
	Use:   "generate",
	Short: "Generates a synthetic visit dataset",
	Long: `generate creates shops around a city centre and salesmen visiting them. Most visits
land within a few meters of the shop; a configurable share is displaced far enough to be
flagged and another share carries broken coordinates. The dataset is written to
--input-path as csv, json or parquet, or seeded into Postgres with
--input-format postgres, ready for analysis.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := models.LoadConfig(cfgFile)
		if err != nil {
			return fmt.Errorf("error loading config: %w", err)
		}
		logger := models.NewLogger(cfg)

		if cfg.InputFormat == "postgres" {
			pool, err := postgres.NewPool(cmd.Context(), cfg.Database)
			if err != nil {
				return err
			}
			defer pool.Close()
			return seedVisits(cmd.Context(), cfg, postgres.NewVisitRepository(pool), logger)
		}
		return writeDataset(cfg, logger)
	},
}

func init() {
	generateCmd.Flags().Int64("seed", 0, "Random seed")
	generateCmd.Flags().String("start-date", "", "Earliest visit date (RFC3339)")
	generateCmd.Flags().String("end-date", "", "Latest visit date (RFC3339)")
	generateCmd.Flags().Int("shops", 0, "Number of shops")
	generateCmd.Flags().Int("salesmen", 0, "Number of salesmen")
	generateCmd.Flags().Int("visits-per-shop", 0, "Visits recorded per shop")
	generateCmd.Flags().Float64("fraud-ratio", 0, "Share of visits displaced 300 to 2000 m from the shop")
	generateCmd.Flags().Float64("invalid-ratio", 0, "Share of visits with a zero coordinate")
	generateCmd.Flags().Float64("city-latitude", 0, "Latitude of the city centre")
	generateCmd.Flags().Float64("city-longitude", 0, "Longitude of the city centre")
	generateCmd.Flags().Float64("urban-radius", 0, "Radius around the centre for shops, in km")
	bindFlags(generateCmd.Flags())

	generateCmd.Flags().BoolVar(&resetVisits, "reset", false, "Truncate shop_visits before seeding")

	rootCmd.AddCommand(generateCmd)
}

func datasetPath(cfg *models.Config) string {
	if cfg.InputPath != "" {
		return cfg.InputPath
	}
	return "visits." + cfg.InputFormat
}

func writeDataset(cfg *models.Config, logger logrus.FieldLogger) error {
	rows := factories.NewVisitFactory(cfg.Seed).Generate(cfg)
	path := datasetPath(cfg)
	if err := factories.WriteVisits(path, cfg.InputFormat, rows); err != nil {
		return fmt.Errorf("failed to write dataset: %w", err)
	}
	logger.WithFields(logrus.Fields{
		"path":   path,
		"format": cfg.InputFormat,
		"visits": len(rows),
	}).Info("dataset written")
	return nil
}

func seedVisits(ctx context.Context, cfg *models.Config, repo repositories.VisitRepository, logger logrus.FieldLogger) error {
	if err := repo.EnsureSchema(ctx); err != nil {
		return fmt.Errorf("failed to create shop_visits: %w", err)
	}
	if resetVisits {
		if err := repo.DeleteAll(ctx); err != nil {
			return fmt.Errorf("failed to reset shop_visits: %w", err)
		}
	}

	rows := factories.NewVisitFactory(cfg.Seed).Generate(cfg)
	if err := repo.BulkCreate(ctx, rows); err != nil {
		return err
	}

	total, err := repo.Count(ctx)
	if err != nil {
		return err
	}
	logger.WithFields(logrus.Fields{
		"inserted": len(rows),
		"total":    total,
	}).Info("visits seeded")
	return nil
}
