package cmd

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/chrisdamba/visitconsensus/internal/consensus"
	"github.com/chrisdamba/visitconsensus/internal/models"
	"github.com/chrisdamba/visitconsensus/internal/output"
	"github.com/chrisdamba/visitconsensus/internal/source"
	"github.com/lucsky/cuid"
	"github.com/schollz/progressbar/v3"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

var cfgFile string

var rootCmd = &cobra.Command{
	Use:   "visitconsensus",
	Short: "Detects location fraud in field-sales shop visits",
	Long: `visitconsensus reads GPS-stamped shop visits, clusters each shop's visits to find the
location most visits agree on, and flags visits recorded far from it. Results are
published per shop, per visit and per salesman.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := models.LoadConfig(cfgFile)
		if err != nil {
			return fmt.Errorf("error loading config: %w", err)
		}
		return runAnalyze(cmd.Context(), cfg, models.NewLogger(cfg))
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is examples/config.json)")
	rootCmd.PersistentFlags().String("input-path", "", "Visit dataset file")
	rootCmd.PersistentFlags().String("input-format", "", "csv, json, parquet or postgres")
	rootCmd.PersistentFlags().String("log-level", "", "Log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().String("log-format", "", "Log format (text or json)")

	rootCmd.Flags().String("output-destination", "", "console, local, s3, kafka or postgres")
	rootCmd.Flags().String("output-format", "", "json, csv or parquet")
	rootCmd.Flags().String("output-path", "", "Base directory for local output")
	rootCmd.Flags().String("output-folder", "", "Folder under the output path, or object prefix for s3")
	rootCmd.Flags().String("kafka-broker-list", "", "Comma separated Kafka brokers")
	rootCmd.Flags().String("kafka-topic-prefix", "", "Prefix for Kafka topic names")
	rootCmd.Flags().Int("workers", 0, "Shops classified concurrently")
	rootCmd.Flags().Int("cell-level", 0, "S2 level of the dominant location cell")
	rootCmd.Flags().Bool("show-progress", false, "Show a progress bar while classifying shops")
	rootCmd.Flags().String("filter-level", "", "Only publish shops at this consensus level")
	rootCmd.Flags().String("filter-salesman", "", "Only publish shops visited by this salesman")
	rootCmd.Flags().String("search", "", "Case-insensitive search over shop ids and salesman names")
	rootCmd.Flags().String("sort-by", "", "fraud_risk, consensus_level, consistency, visits, deviating or shop")

	bindFlags(rootCmd.PersistentFlags())
	bindFlags(rootCmd.Flags())
}

// bindFlags binds every flag to its config key: --input-path sets input_path.
// Only flags set on the command line override the config file.
func bindFlags(flags *pflag.FlagSet) {
	flags.VisitAll(func(f *pflag.Flag) {
		if f.Name == "config" {
			return
		}
		cobra.CheckErr(viper.BindPFlag(strings.ReplaceAll(f.Name, "-", "_"), f))
	})
}

func runAnalyze(ctx context.Context, cfg *models.Config, logger *logrus.Logger) error {
	src, err := source.New(ctx, cfg)
	if err != nil {
		return err
	}
	defer src.Close()

	raw, err := src.Load(ctx)
	if err != nil {
		return err
	}

	opts := []consensus.Option{
		consensus.WithWorkers(cfg.Workers),
		consensus.WithCellLevel(cfg.CellLevel),
		consensus.WithLogger(logger),
	}
	if cfg.ShowProgress {
		opts = append(opts, consensus.WithProgress(progressReporter()))
	}
	report := consensus.NewEngine(opts...).Analyze(raw)

	filter := consensus.Filter{
		Level:    models.ConsensusLevel(strings.ToUpper(cfg.FilterLevel)),
		Salesman: cfg.FilterSalesman,
		Search:   cfg.Search,
	}
	shops, err := consensus.SortShops(consensus.FilterShops(report.Shops, filter), consensus.SortField(cfg.SortBy))
	if err != nil {
		return err
	}
	salesmen := consensus.SearchSalesmen(report.Salesmen, cfg.Search)

	dest, err := output.New(ctx, cfg)
	if err != nil {
		return err
	}

	runID := cuid.New()
	if err := output.Publish(dest, runID, report, shops, salesmen); err != nil {
		dest.Close()
		return err
	}
	if err := dest.Close(); err != nil {
		return fmt.Errorf("failed to close %s output: %w", cfg.OutputDestination, err)
	}

	summary := consensus.Summarize(shops)
	logger.WithFields(logrus.Fields{
		"run_id":          runID,
		"shops":           summary.TotalShops,
		"visits":          summary.TotalVisits,
		"outliers":        summary.TotalOutliers,
		"high_risk_shops": summary.HighRiskShops,
		"avg_consistency": summary.AvgConsistency,
		"salesmen":        len(salesmen),
	}).Info("report published")
	return nil
}

// progressReporter draws a bar on stderr, created once the shop count is known.
func progressReporter() consensus.ProgressFunc {
	var bar *progressbar.ProgressBar
	return func(done, total int) {
		if bar == nil {
			bar = progressbar.NewOptions(total,
				progressbar.OptionSetWriter(os.Stderr),
				progressbar.OptionSetDescription("classifying shops"),
				progressbar.OptionShowCount(),
				progressbar.OptionClearOnFinish(),
			)
		}
		_ = bar.Set(done)
	}
}

func Execute() {
	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
