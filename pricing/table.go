// Package pricing provides the monthly price table the zombie engine
// consults. Prices are rough list prices, good enough for waste triage.
package pricing

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// Table answers price lookups keyed by resource kind and region. A false
// return means no price data exists; callers must surface that instead
// of assuming zero.
type Table interface {
	// PriceFor returns the estimated monthly cost for sizeGB of the given
	// kind in region. Kind may carry a variant suffix ("disk/pd-ssd").
	PriceFor(kind, region string, sizeGB float64) (float64, bool)
}

// Rate prices one resource kind. FlatMonthly applies regardless of size;
// PerGBMonth is multiplied by the size attribute.
type Rate struct {
	PerGBMonth  float64 `yaml:"per_gb_month,omitempty"`
	FlatMonthly float64 `yaml:"flat_monthly,omitempty"`
}

func (r Rate) monthly(sizeGB float64) float64 {
	return r.FlatMonthly + r.PerGBMonth*sizeGB
}

// StaticTable is an in-memory price table. Lookup tries the most
// specific key first: region/kind, then kind, then the kind with any
// variant suffix stripped.
type StaticTable struct {
	rates map[string]Rate
}

// NewStaticTable builds a table from explicit rates.
func NewStaticTable(rates map[string]Rate) *StaticTable {
	copied := make(map[string]Rate, len(rates))
	for k, v := range rates {
		copied[k] = v
	}
	return &StaticTable{rates: copied}
}

// DefaultTable returns list-price estimates for the kinds the zombie
// rules care about.
func DefaultTable() *StaticTable {
	return NewStaticTable(map[string]Rate{
		"disk/pd-standard": {PerGBMonth: 0.04},
		"disk/pd-balanced": {PerGBMonth: 0.10},
		"disk/pd-ssd":      {PerGBMonth: 0.17},
		"disk":             {PerGBMonth: 0.04},
		"static-ip":        {FlatMonthly: 7.30},
		"bucket":           {PerGBMonth: 0.02},
	})
}

// Load reads a price table from a YAML file of key -> rate entries and
// overlays it on the defaults.
func Load(path string) (*StaticTable, error) {
	data, err := os.ReadFile(path) // #nosec G304 -- path is intentional user input
	if err != nil {
		return nil, fmt.Errorf("failed to read price table: %w", err)
	}

	var rates map[string]Rate
	if err := yaml.Unmarshal(data, &rates); err != nil {
		return nil, fmt.Errorf("failed to parse price table: %w", err)
	}

	table := DefaultTable()
	for k, v := range rates {
		table.rates[k] = v
	}
	return table, nil
}

// PriceFor implements Table.
func (t *StaticTable) PriceFor(kind, region string, sizeGB float64) (float64, bool) {
	if region != "" {
		if rate, ok := t.rates[region+"/"+kind]; ok {
			return rate.monthly(sizeGB), true
		}
	}
	if rate, ok := t.rates[kind]; ok {
		return rate.monthly(sizeGB), true
	}
	if base, _, found := strings.Cut(kind, "/"); found {
		if rate, ok := t.rates[base]; ok {
			return rate.monthly(sizeGB), true
		}
	}
	return 0, false
}
