package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/charles-forsyth/Skywalker/config"
	"github.com/charles-forsyth/Skywalker/internal/filter"
	"github.com/charles-forsyth/Skywalker/report"
	"github.com/charles-forsyth/Skywalker/retry"
	"github.com/charles-forsyth/Skywalker/scheduler"
	"github.com/charles-forsyth/Skywalker/telemetry"
	"github.com/charles-forsyth/Skywalker/types"
	"github.com/charles-forsyth/Skywalker/walker"
	"github.com/charles-forsyth/Skywalker/walkers/gcp"
)

// scanFlags are the knobs shared by the scan and zombies commands.
type scanFlags struct {
	projects          []string
	allProjects       bool
	regions           []string
	services          []string
	includeLabels     map[string]string
	excludeLabels     map[string]string
	concurrency       int
	regionConcurrency int
	output            string
	timeout           time.Duration
}

func (f *scanFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringSliceVarP(&f.projects, "projects", "p", nil, "Project IDs to scan")
	cmd.Flags().BoolVar(&f.allProjects, "all-projects", false, "Scan all ACTIVE projects in the organization")
	cmd.Flags().StringSliceVar(&f.regions, "regions", nil, "Regions to scan (default: standard US regions)")
	cmd.Flags().StringSliceVar(&f.services, "services", nil, "Services to audit (default: all)")
	cmd.Flags().StringToStringVar(&f.includeLabels, "include-label", nil, "Only report resources with this label (key=value, repeatable)")
	cmd.Flags().StringToStringVar(&f.excludeLabels, "exclude-label", nil, "Drop resources with this label (key=value, repeatable)")
	cmd.Flags().IntVar(&f.concurrency, "concurrency", 0, "Projects to scan in parallel (default 5)")
	cmd.Flags().IntVar(&f.regionConcurrency, "region-concurrency", 0, "Units per project in parallel (default 4)")
	cmd.Flags().StringVarP(&f.output, "output", "o", "text", "Output format: text, json")
	cmd.Flags().DurationVar(&f.timeout, "timeout", 0, "Abort the scan after this duration")
}

func loadConfig(f *scanFlags) (*config.Config, error) {
	cfg := config.Default()
	if configPath != "" {
		loaded, err := config.Load(configPath)
		if err != nil {
			return nil, err
		}
		cfg = loaded
	}

	if len(f.projects) > 0 {
		cfg.Projects = f.projects
	}
	if len(f.regions) > 0 {
		cfg.Regions = f.regions
	}
	if len(f.services) > 0 {
		cfg.Services = f.services
	}
	if f.concurrency > 0 {
		cfg.Concurrency.Projects = f.concurrency
	}
	if f.regionConcurrency > 0 {
		cfg.Concurrency.Regions = f.regionConcurrency
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if len(cfg.Projects) == 0 && !f.allProjects {
		return nil, fmt.Errorf("either --projects or --all-projects is required")
	}
	return cfg, nil
}

// runFleetScan wires clients, registry and scheduler together and runs
// the scan described by cfg.
func runFleetScan(ctx context.Context, cfg *config.Config, f *scanFlags, metrics *telemetry.Provider) (*types.FleetResult, error) {
	clients, err := gcp.NewClients(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to create GCP clients: %w", err)
	}

	registry := walker.NewRegistry()
	clients.Register(registry)

	projects := cfg.Projects
	if f.allProjects {
		projects, err = clients.ListActiveProjects(ctx)
		if err != nil {
			return nil, fmt.Errorf("project discovery failed: %w", err)
		}
	}

	services, missing := partitionServices(registry, cfg.ServiceTags())
	if len(missing) > 0 {
		logger := telemetry.NewLogger("cli")
		for _, svc := range missing {
			logger.Warn().
				Str("service", string(svc)).
				Msg("no walker registered for service, skipping")
		}
	}

	scopes := scheduler.ExpandScopes(projects, services, cfg.Regions)

	sched, err := scheduler.New(registry, scheduler.Options{
		ProjectConcurrency: cfg.Concurrency.Projects,
		RegionConcurrency:  cfg.Concurrency.Regions,
		Retry: retry.Policy{
			MaxAttempts: cfg.Retry.MaxAttempts,
			BaseDelay:   cfg.Retry.BaseDelay,
			MaxDelay:    cfg.Retry.MaxDelay,
		},
		Metrics: metrics,
	})
	if err != nil {
		return nil, err
	}

	result, err := sched.Run(ctx, scopes)
	if err != nil {
		return nil, err
	}

	return filter.New(nil, f.includeLabels, f.excludeLabels).FilterResult(result), nil
}

// partitionServices splits the configured services into those a walker
// is registered for and those that would scan nothing.
func partitionServices(registry *walker.Registry, services []types.Service) (scannable, missing []types.Service) {
	for _, svc := range services {
		if _, ok := registry.Get(svc); ok {
			scannable = append(scannable, svc)
		} else {
			missing = append(missing, svc)
		}
	}
	return scannable, missing
}

func scanContext(f *scanFlags) (context.Context, context.CancelFunc) {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	if f.timeout > 0 {
		ctx, cancel := context.WithTimeout(ctx, f.timeout)
		return ctx, func() { cancel(); stop() }
	}
	return ctx, stop
}

func setupTelemetry(ctx context.Context, cfg *config.Config) *telemetry.Provider {
	if !cfg.OTEL.Metrics.Enabled && !cfg.OTEL.Traces.Enabled {
		return nil
	}
	provider, err := telemetry.NewProvider(ctx, cfg.OTEL)
	if err != nil {
		telemetry.NewLogger("cli").Warn().Err(err).Msg("telemetry disabled")
		return nil
	}
	return provider
}

func writeReport(data report.Data, output string) error {
	switch output {
	case "json":
		return report.NewJSONReporter(os.Stdout).Generate(data)
	case "text":
		return report.NewTextReporter(os.Stdout).Generate(data)
	default:
		return fmt.Errorf("invalid output format: %s (must be text or json)", output)
	}
}
