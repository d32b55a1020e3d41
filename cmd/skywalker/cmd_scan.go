package main

import (
	"context"
	"time"

	"github.com/spf13/cobra"

	"github.com/charles-forsyth/Skywalker/report"
)

var scanOpts scanFlags

// scanCmd audits the fleet inventory without running zombie detection.
var scanCmd = &cobra.Command{
	Use:   "scan",
	Short: "Scan projects and build a normalized resource inventory",
	Long: `Scan walks every (project, service, region) unit in parallel,
retries transient provider errors with backoff, and aggregates whatever
succeeded. Units that fail are reported alongside the data, never
silently dropped.`,
	Example: `  skywalker scan --projects my-project
  skywalker scan --projects my-project --services compute,storage --regions us-west1
  skywalker scan --all-projects -o json`,
	RunE: runScan,
}

func init() {
	rootCmd.AddCommand(scanCmd)
	scanOpts.register(scanCmd)
}

func runScan(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(&scanOpts)
	if err != nil {
		return err
	}

	ctx, stop := scanContext(&scanOpts)
	defer stop()

	metrics := setupTelemetry(ctx, cfg)
	if metrics != nil {
		defer func() { _ = metrics.Shutdown(context.Background()) }()
	}

	result, err := runFleetScan(ctx, cfg, &scanOpts, metrics)
	if err != nil {
		return err
	}

	return writeReport(report.Data{
		Timestamp: time.Now(),
		Result:    result,
	}, scanOpts.output)
}
