package main

import (
	"context"
	"time"

	"github.com/spf13/cobra"

	"github.com/charles-forsyth/Skywalker/pricing"
	"github.com/charles-forsyth/Skywalker/report"
	"github.com/charles-forsyth/Skywalker/types"
	"github.com/charles-forsyth/Skywalker/zombie"
)

var (
	zombieOpts       scanFlags
	zombieWindowDays int
	zombieMinBucket  float64
	zombiePriceTable string
)

// zombiesCmd runs the fleet scan and then correlates the record set for
// waste.
var zombiesCmd = &cobra.Command{
	Use:   "zombies",
	Short: "Hunt orphaned, unused and inactive resources with cost estimates",
	Long: `Zombies scans the fleet, then cross-references the normalized
inventory for waste: disks no VM is attached to, static IPs reserved but
unused, and buckets with no activity inside the window. Each finding
carries an estimated monthly cost; when no price data exists the cost is
zero and marked unknown rather than omitted.`,
	Example: `  skywalker zombies --projects my-project
  skywalker zombies --all-projects --window-days 60
  skywalker zombies --projects my-project --price-table prices.yaml -o json`,
	RunE: runZombies,
}

func init() {
	rootCmd.AddCommand(zombiesCmd)
	zombieOpts.register(zombiesCmd)
	zombiesCmd.Flags().IntVar(&zombieWindowDays, "window-days", 0, "Bucket inactivity window in days (default 30)")
	zombiesCmd.Flags().Float64Var(&zombieMinBucket, "min-bucket-gb", 0, "Ignore buckets smaller than this (default 1)")
	zombiesCmd.Flags().StringVar(&zombiePriceTable, "price-table", "", "YAML price table overriding built-in list prices")
}

func runZombies(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(&zombieOpts)
	if err != nil {
		return err
	}
	if zombieWindowDays > 0 {
		cfg.Zombies.InactivityWindowDays = zombieWindowDays
	}
	if zombieMinBucket > 0 {
		cfg.Zombies.MinBucketSizeGB = zombieMinBucket
	}
	if zombiePriceTable != "" {
		cfg.Zombies.PriceTable = zombiePriceTable
	}

	table, err := loadPrices(cfg.Zombies.PriceTable)
	if err != nil {
		return err
	}

	ctx, stop := scanContext(&zombieOpts)
	defer stop()

	metrics := setupTelemetry(ctx, cfg)
	if metrics != nil {
		defer func() { _ = metrics.Shutdown(context.Background()) }()
	}

	result, err := runFleetScan(ctx, cfg, &zombieOpts, metrics)
	if err != nil {
		return err
	}

	engine := zombie.NewEngine(table, zombie.Options{
		InactivityWindow: cfg.InactivityWindow(),
		MinBucketSizeGB:  cfg.Zombies.MinBucketSizeGB,
	})
	findings := engine.Detect(result)
	if findings == nil {
		// Keep the zombie section in the report even when clean.
		findings = []types.ZombieFinding{}
	}

	if metrics != nil {
		for _, finding := range findings {
			metrics.RecordZombie(ctx, finding)
		}
	}

	return writeReport(report.Data{
		Timestamp: time.Now(),
		Result:    result,
		Findings:  findings,
	}, zombieOpts.output)
}

func loadPrices(path string) (pricing.Table, error) {
	if path == "" {
		return pricing.DefaultTable(), nil
	}
	return pricing.Load(path)
}
