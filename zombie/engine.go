// Package zombie cross-references the normalized fleet record set and
// flags provisioned-but-unused resources with cost estimates.
package zombie

import (
	"time"

	"github.com/charles-forsyth/Skywalker/pricing"
	"github.com/charles-forsyth/Skywalker/types"
)

// Options tunes the detection rules.
type Options struct {
	// InactivityWindow is how long a bucket may sit without traffic
	// before it counts as inactive.
	InactivityWindow time.Duration

	// MinBucketSizeGB skips tiny buckets; they cost nothing worth acting on.
	MinBucketSizeGB float64

	// Now pins the reference time for window math. Zero means the time
	// the engine was constructed, so repeated Detect calls on the same
	// engine are reproducible.
	Now time.Time
}

// DefaultOptions returns the standard rule tuning.
func DefaultOptions() Options {
	return Options{
		InactivityWindow: 30 * 24 * time.Hour,
		MinBucketSizeGB:  1,
	}
}

// Engine applies the fixed zombie rule set. It is a pure function of the
// fleet result, the price table and its options; no hidden state.
type Engine struct {
	prices pricing.Table
	opts   Options
}

// NewEngine creates an engine over a price table.
func NewEngine(prices pricing.Table, opts Options) *Engine {
	if opts.InactivityWindow <= 0 {
		opts.InactivityWindow = DefaultOptions().InactivityWindow
	}
	if opts.Now.IsZero() {
		opts.Now = time.Now()
	}
	return &Engine{prices: prices, opts: opts}
}

// Detect runs every rule against the full record set. Cross-resource
// correlation needs the complete fleet, not per-unit streams. Findings
// come back in deterministic record order; callers sort for presentation.
func (e *Engine) Detect(result *types.FleetResult) []types.ZombieFinding {
	var findings []types.ZombieFinding

	for _, record := range result.AllRecords() {
		switch record.Kind {
		case "disk":
			if f, ok := e.checkOrphanedDisk(record); ok {
				findings = append(findings, f)
			}
		case "static-ip":
			if f, ok := e.checkUnusedStaticIP(record); ok {
				findings = append(findings, f)
			}
		case "bucket":
			if f, ok := e.checkInactiveBucket(record); ok {
				findings = append(findings, f)
			}
		}
	}

	return findings
}
