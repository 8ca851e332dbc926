package main

import (
	"context"
	"fmt"
	"os"
	"runtime"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/adsync-io/adsync/internal/runner"
	"github.com/adsync-io/adsync/internal/sink"
	"github.com/adsync-io/adsync/pkg/config"
	"github.com/adsync-io/adsync/pkg/gads"
	"github.com/adsync-io/adsync/pkg/logger"
)

var version = "0.1.0"

func main() {
	// Load .env file if it exists
	_ = godotenv.Load()

	root := &cobra.Command{
		Use:   "adsync",
		Short: "adsync - Google Ads to BigQuery batch sync",
		Long: `adsync pulls daily campaign, geographic and search term performance
from Google Ads and loads it into BigQuery. A manager account fans out
over its client accounts; a plain account syncs on its own.`,
	}

	root.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("adsync v%s\n", version)
			fmt.Printf("Go version: %s\n", runtime.Version())
			fmt.Printf("OS/Arch: %s/%s\n", runtime.GOOS, runtime.GOARCH)
		},
	})

	cfg := config.NewRunConfig()
	runCmd := &cobra.Command{
		Use:   "run",
		Short: "Run one sync",
		Long: `Run one sync over the trailing reporting window and load the results
into the configured BigQuery dataset.

Example:
  adsync run --mcc-id 1234567890 --project-id my-proj --dataset-id ads \
    --config googleads.yaml --key-file service-account.json`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSync(cfg)
		},
	}

	runCmd.Flags().StringVar(&cfg.ManagerID, "mcc-id", "", "Manager (MCC) account id to fan out over")
	runCmd.Flags().StringVar(&cfg.CustomerID, "customer-id", "", "Single account id to sync, instead of --mcc-id")
	runCmd.Flags().StringVar(&cfg.ProjectID, "project-id", "", "BigQuery project id (required)")
	runCmd.Flags().StringVar(&cfg.DatasetID, "dataset-id", "", "BigQuery dataset id (required)")
	runCmd.Flags().StringVar(&cfg.ConfigPath, "config", "googleads.yaml", "Path to the googleads.yaml credential file")
	runCmd.Flags().StringVar(&cfg.KeyFilePath, "key-file", "", "Path to the BigQuery service account key file (required)")
	runCmd.Flags().IntVar(&cfg.LookbackDays, "lookback-days", cfg.LookbackDays, "Number of trailing days to report, ending yesterday")
	runCmd.Flags().IntVar(&cfg.Workers, "workers", cfg.Workers, "Number of accounts extracted concurrently")
	runCmd.Flags().StringVar(&cfg.LogLevel, "log-level", cfg.LogLevel, "Log level (debug, info, warn, error)")
	_ = runCmd.MarkFlagRequired("project-id")
	_ = runCmd.MarkFlagRequired("dataset-id")
	_ = runCmd.MarkFlagRequired("key-file")

	root.AddCommand(runCmd)

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// runSync wires the Google Ads client, the BigQuery sink and the
// runner together. A non-nil return means the run never got going;
// per-account and per-load failures are summarized and exit clean.
func runSync(cfg *config.RunConfig) error {
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("configuration error: %w", err)
	}
	if err := cfg.LoadCredentials(); err != nil {
		return fmt.Errorf("configuration error: %w", err)
	}
	if err := cfg.ValidateCredentials(); err != nil {
		return fmt.Errorf("credential error: %w", err)
	}

	if err := logger.Init(logger.Config{Level: cfg.LogLevel, Encoding: "json"}); err != nil {
		return fmt.Errorf("logger setup failed: %w", err)
	}
	defer func() { _ = logger.Sync() }()

	// Libraries that read application default credentials pick up the
	// same key the sink uses.
	_ = os.Setenv("GOOGLE_APPLICATION_CREDENTIALS", cfg.KeyFilePath)

	log := logger.Get().With(zap.String("component", "adsync-cli"))
	campaignTable, geoTable, searchTable := cfg.Tables()
	log.Info("starting sync",
		zap.String("mcc_id", cfg.ManagerID),
		zap.String("customer_id", cfg.CustomerID),
		zap.String("campaign_table", campaignTable),
		zap.String("geo_table", geoTable),
		zap.String("search_table", searchTable),
		zap.Int("lookback_days", cfg.LookbackDays),
		zap.Int("workers", cfg.Workers))

	ctx := context.Background()

	bq, err := sink.NewBigQueryWriter(ctx, cfg.ProjectID, cfg.DatasetID, cfg.KeyFilePath)
	if err != nil {
		return fmt.Errorf("sink setup failed: %w", err)
	}
	defer func() {
		if err := bq.Close(); err != nil {
			log.Warn("failed to close BigQuery client", zap.Error(err))
		}
	}()

	client := gads.NewClient(cfg.Credentials)

	startTime := time.Now()
	summary, err := runner.New(client, sink.NewWriter(bq), cfg).Run(ctx)
	if err != nil {
		return fmt.Errorf("sync failed: %w", err)
	}

	log.Info("sync completed",
		zap.Duration("duration", time.Since(startTime)),
		zap.String("start_date", summary.Window.StartDate()),
		zap.String("end_date", summary.Window.EndDate()),
		zap.Int("accounts", summary.Accounts),
		zap.Int("failed_accounts", summary.Failed),
		zap.Int("load_errors", summary.LoadErrors))
	return nil
}
