// Package scheduler coordinates the fleet scan: a two-level bounded
// fan-out across projects and (service, region) units, with per-unit
// retry and failure-tolerant aggregation.
package scheduler

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"go.opentelemetry.io/otel/trace"

	"github.com/charles-forsyth/Skywalker/retry"
	"github.com/charles-forsyth/Skywalker/telemetry"
	"github.com/charles-forsyth/Skywalker/types"
	"github.com/charles-forsyth/Skywalker/walker"
)

// Options configures one scan run. Zero concurrency bounds are malformed
// configuration and rejected before any scanning begins.
type Options struct {
	// ProjectConcurrency bounds how many projects scan simultaneously.
	ProjectConcurrency int

	// RegionConcurrency bounds how many units run simultaneously within
	// one project.
	RegionConcurrency int

	// Retry is the per-unit retry policy.
	Retry retry.Policy

	// Metrics is optional; nil disables instrumentation.
	Metrics *telemetry.Provider
}

// DefaultOptions returns the standard bounds: five projects wide, four
// units deep, default retry policy.
func DefaultOptions() Options {
	return Options{
		ProjectConcurrency: 5,
		RegionConcurrency:  4,
		Retry:              retry.DefaultPolicy(),
	}
}

func (o Options) validate() error {
	if o.ProjectConcurrency < 1 {
		return fmt.Errorf("project concurrency must be at least 1, got %d", o.ProjectConcurrency)
	}
	if o.RegionConcurrency < 1 {
		return fmt.Errorf("region concurrency must be at least 1, got %d", o.RegionConcurrency)
	}
	if !o.Retry.Valid() {
		return fmt.Errorf("invalid retry policy")
	}
	return nil
}

// Scheduler dispatches scan units through the retry policy to the
// registered walkers and aggregates their outcomes.
type Scheduler struct {
	registry *walker.Registry
	opts     Options
	logger   *telemetry.Logger
}

// New creates a scheduler. Malformed options fail fast here, before any
// walker is invoked.
func New(registry *walker.Registry, opts Options) (*Scheduler, error) {
	if err := opts.validate(); err != nil {
		return nil, fmt.Errorf("invalid scheduler options: %w", err)
	}
	return &Scheduler{
		registry: registry,
		opts:     opts,
		logger:   telemetry.NewLogger("scheduler"),
	}, nil
}

// Run scans every scope and returns the aggregated fleet result. A unit
// failing never cancels its siblings; every dispatched unit completes
// with an outcome. Cancelling ctx stops new dispatches and records the
// remaining units as cancelled failures.
func (s *Scheduler) Run(ctx context.Context, scopes []types.ScanScope) (*types.FleetResult, error) {
	if len(scopes) == 0 {
		return NewAggregator().Finalize(), nil
	}

	if s.opts.Metrics != nil {
		var span trace.Span
		ctx, span = s.opts.Metrics.StartSpan(ctx, "fleet.scan")
		defer span.End()
	}

	agg := NewAggregator()

	byProject := groupByProject(scopes)
	projects := make([]string, 0, len(byProject))
	for pid := range byProject {
		projects = append(projects, pid)
	}
	sort.Strings(projects)

	projectSem := make(chan struct{}, s.opts.ProjectConcurrency)
	var wg sync.WaitGroup

	for _, pid := range projects {
		units := byProject[pid]
		wg.Add(1)
		projectSem <- struct{}{}
		go func(units []types.ScanScope) {
			defer wg.Done()
			defer func() { <-projectSem }()
			s.runProject(ctx, units, agg)
		}(units)
	}

	wg.Wait()

	result := agg.Finalize()
	s.logger.LogFleetSummary(ctx, result.Summary)
	if s.opts.Metrics != nil {
		s.opts.Metrics.RecordScanDuration(ctx, result.FinishedAt.Sub(result.StartedAt))
	}
	return result, nil
}

// runProject fans a project's units out across the inner pool.
func (s *Scheduler) runProject(ctx context.Context, units []types.ScanScope, agg *Aggregator) {
	regionSem := make(chan struct{}, s.opts.RegionConcurrency)
	var wg sync.WaitGroup

	for _, unit := range units {
		wg.Add(1)
		regionSem <- struct{}{}
		go func(unit types.ScanScope) {
			defer wg.Done()
			defer func() { <-regionSem }()
			s.runUnit(ctx, unit, agg)
		}(unit)
	}

	wg.Wait()
}

// runUnit executes one scan unit end to end and records its outcome.
func (s *Scheduler) runUnit(ctx context.Context, unit types.ScanScope, agg *Aggregator) {
	outcome := s.scanUnit(ctx, unit)
	s.logger.LogUnitOutcome(ctx, outcome)
	if s.opts.Metrics != nil {
		s.opts.Metrics.RecordUnitOutcome(ctx, outcome)
	}
	agg.Record(outcome)
}

func (s *Scheduler) scanUnit(ctx context.Context, unit types.ScanScope) types.ScanOutcome {
	// Cancellation is checked before dispatch; in-flight units finish
	// naturally inside the retry policy.
	if err := ctx.Err(); err != nil {
		return types.ScanOutcome{
			Scope:    unit,
			Attempts: 0,
			Failure: &types.ScanFailure{
				Class:   types.FailureCancelled,
				Message: err.Error(),
			},
		}
	}

	w, ok := s.registry.Get(unit.Service)
	if !ok {
		return types.ScanOutcome{
			Scope:    unit,
			Attempts: 1,
			Failure: &types.ScanFailure{
				Class:   types.FailureNotFound,
				Message: fmt.Sprintf("no walker registered for service %q", unit.Service),
			},
		}
	}

	s.logger.LogUnitStart(ctx, unit)
	return s.opts.Retry.Execute(ctx, w, unit)
}

func groupByProject(scopes []types.ScanScope) map[string][]types.ScanScope {
	byProject := make(map[string][]types.ScanScope)
	for _, scope := range scopes {
		byProject[scope.ProjectID] = append(byProject[scope.ProjectID], scope)
	}
	return byProject
}

// ExpandScopes builds the unit set for a fleet-wide scan: one unit per
// (project, service, region), with a single region-less unit for global
// services.
func ExpandScopes(projects []string, services []types.Service, regions []string) []types.ScanScope {
	var scopes []types.ScanScope
	for _, pid := range projects {
		for _, svc := range services {
			if !svc.Regional() {
				scopes = append(scopes, types.ScanScope{ProjectID: pid, Service: svc})
				continue
			}
			for _, region := range regions {
				scopes = append(scopes, types.ScanScope{ProjectID: pid, Service: svc, Region: region})
			}
		}
	}
	return scopes
}
