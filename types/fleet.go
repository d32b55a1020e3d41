package types

import (
	"sort"
	"time"
)

// ScanSummary holds the per-run unit counters. The aggregator guarantees
// Attempted == Succeeded + Failed.
type ScanSummary struct {
	Attempted        int `json:"attempted"`
	Succeeded        int `json:"succeeded"`
	Failed           int `json:"failed"`
	Retried          int `json:"retried"`
	RecordCount      int `json:"record_count"`
	ValidationErrors int `json:"validation_errors"`
}

// FleetResult is the aggregate across all scan units of one invocation.
// Records are grouped deterministically by project, independent of the
// order units completed in. Immutable after the run finishes.
type FleetResult struct {
	Records          map[string][]ResourceRecord `json:"records"`
	Failures         []ScanOutcome               `json:"failures,omitempty"`
	ValidationErrors []ValidationError           `json:"validation_errors,omitempty"`
	Summary          ScanSummary                 `json:"summary"`
	StartedAt        time.Time                   `json:"started_at"`
	FinishedAt       time.Time                   `json:"finished_at"`
}

// Projects returns the project IDs present in the result, sorted.
func (r *FleetResult) Projects() []string {
	projects := make([]string, 0, len(r.Records))
	for pid := range r.Records {
		projects = append(projects, pid)
	}
	sort.Strings(projects)
	return projects
}

// AllRecords returns every record across projects in deterministic order.
func (r *FleetResult) AllRecords() []ResourceRecord {
	var all []ResourceRecord
	for _, pid := range r.Projects() {
		all = append(all, r.Records[pid]...)
	}
	return all
}

// RecordsOfKind returns all records of the given kind across projects.
func (r *FleetResult) RecordsOfKind(kind string) []ResourceRecord {
	var matched []ResourceRecord
	for _, rec := range r.AllRecords() {
		if rec.Kind == kind {
			matched = append(matched, rec)
		}
	}
	return matched
}
