package scheduler

import (
	"sort"
	"sync"
	"time"

	"github.com/charles-forsyth/Skywalker/types"
)

// Aggregator collects per-unit outcomes into one fleet-level result.
// Record is the only operation called concurrently and is serialized by
// a mutex; outcomes themselves are immutable once constructed.
type Aggregator struct {
	mu         sync.Mutex
	records    map[string][]types.ResourceRecord
	failures   []types.ScanOutcome
	validation []types.ValidationError
	summary    types.ScanSummary
	startedAt  time.Time
}

// NewAggregator creates an empty aggregator and starts the run clock.
func NewAggregator() *Aggregator {
	return &Aggregator{
		records:   make(map[string][]types.ResourceRecord),
		startedAt: time.Now(),
	}
}

// Record accumulates one unit outcome. A failed unit never aborts the
// run; its failure is kept alongside the successful data. An empty but
// valid result still counts as success.
func (a *Aggregator) Record(outcome types.ScanOutcome) {
	a.mu.Lock()
	defer a.mu.Unlock()

	a.summary.Attempted++
	if outcome.Attempts > 1 {
		a.summary.Retried += outcome.Attempts - 1
	}

	if outcome.Failed() {
		a.summary.Failed++
		a.failures = append(a.failures, outcome)
		return
	}

	a.summary.Succeeded++
	a.summary.RecordCount += len(outcome.Records)
	if len(outcome.Records) > 0 {
		pid := outcome.Scope.ProjectID
		a.records[pid] = append(a.records[pid], outcome.Records...)
	}
	if len(outcome.Invalid) > 0 {
		a.summary.ValidationErrors += len(outcome.Invalid)
		a.validation = append(a.validation, outcome.Invalid...)
	}
}

// Finalize builds the immutable FleetResult. Records within each project
// and the failure list are sorted so the result is deterministic
// regardless of completion order.
func (a *Aggregator) Finalize() *types.FleetResult {
	a.mu.Lock()
	defer a.mu.Unlock()

	for pid := range a.records {
		recs := a.records[pid]
		sort.Slice(recs, func(i, j int) bool {
			if recs[i].Service != recs[j].Service {
				return recs[i].Service < recs[j].Service
			}
			if recs[i].Kind != recs[j].Kind {
				return recs[i].Kind < recs[j].Kind
			}
			if recs[i].Region != recs[j].Region {
				return recs[i].Region < recs[j].Region
			}
			return recs[i].Identifier < recs[j].Identifier
		})
	}

	sort.Slice(a.failures, func(i, j int) bool {
		return a.failures[i].Scope.Key() < a.failures[j].Scope.Key()
	})
	sort.Slice(a.validation, func(i, j int) bool {
		if a.validation[i].Scope.Key() != a.validation[j].Scope.Key() {
			return a.validation[i].Scope.Key() < a.validation[j].Scope.Key()
		}
		return a.validation[i].Identifier < a.validation[j].Identifier
	})

	return &types.FleetResult{
		Records:          a.records,
		Failures:         a.failures,
		ValidationErrors: a.validation,
		Summary:          a.summary,
		StartedAt:        a.startedAt,
		FinishedAt:       time.Now(),
	}
}
