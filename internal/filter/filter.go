// Package filter narrows which services are scanned and which records
// make it into the report.
package filter

import (
	"github.com/charles-forsyth/Skywalker/types"
)

// Labels walkers flatten into record attributes carry this prefix.
const labelPrefix = "label."

// Filter controls which services to scan and which records to include.
type Filter struct {
	services      map[types.Service]bool
	includeLabels map[string]string
	excludeLabels map[string]string
}

// New creates a Filter. An empty service list means every service.
func New(services []types.Service, includeLabels, excludeLabels map[string]string) *Filter {
	serviceSet := make(map[types.Service]bool)
	for _, s := range services {
		serviceSet[s] = true
	}

	return &Filter{
		services:      serviceSet,
		includeLabels: includeLabels,
		excludeLabels: excludeLabels,
	}
}

// ShouldScanService reports whether the service is in scope.
func (f *Filter) ShouldScanService(s types.Service) bool {
	if len(f.services) == 0 {
		return true
	}
	return f.services[s]
}

// ShouldIncludeRecord reports whether the record passes the label filters.
func (f *Filter) ShouldIncludeRecord(r types.ResourceRecord) bool {
	// Include labels (whitelist) - ALL must match
	if len(f.includeLabels) > 0 {
		for k, v := range f.includeLabels {
			if r.StringAttr(labelPrefix+k) != v {
				return false
			}
		}
	}

	// Exclude labels (blacklist) - ANY match excludes
	if len(f.excludeLabels) > 0 {
		for k, v := range f.excludeLabels {
			if r.StringAttr(labelPrefix+k) == v {
				return false
			}
		}
	}

	return true
}

// FilterRecords returns only records that pass the filter.
func (f *Filter) FilterRecords(records []types.ResourceRecord) []types.ResourceRecord {
	if f.IsEmpty() {
		return records
	}

	filtered := make([]types.ResourceRecord, 0, len(records))
	for _, r := range records {
		if f.ShouldScanService(r.Service) && f.ShouldIncludeRecord(r) {
			filtered = append(filtered, r)
		}
	}
	return filtered
}

// FilterResult narrows a fleet result to the records that pass the
// filter. Failures and validation errors are untouched; the record
// count is recomputed so the summary matches what the report shows.
func (f *Filter) FilterResult(result *types.FleetResult) *types.FleetResult {
	if f.IsEmpty() {
		return result
	}

	narrowed := *result
	narrowed.Records = make(map[string][]types.ResourceRecord, len(result.Records))
	count := 0
	for pid, records := range result.Records {
		kept := f.FilterRecords(records)
		if len(kept) > 0 {
			narrowed.Records[pid] = kept
		}
		count += len(kept)
	}
	narrowed.Summary.RecordCount = count
	return &narrowed
}

// IsEmpty reports whether no filters are configured.
func (f *Filter) IsEmpty() bool {
	return len(f.services) == 0 && len(f.includeLabels) == 0 && len(f.excludeLabels) == 0
}
