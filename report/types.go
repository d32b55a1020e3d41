// Package report renders fleet results and zombie findings for the
// console. The core never formats anything itself.
package report

import (
	"time"

	"github.com/charles-forsyth/Skywalker/types"
)

// Data is everything one report covers. Findings may be nil when the
// caller only ran a scan.
type Data struct {
	Timestamp time.Time             `json:"timestamp"`
	Result    *types.FleetResult    `json:"result"`
	Findings  []types.ZombieFinding `json:"findings,omitempty"`
}

// TotalWaste sums the estimated monthly cost across findings.
func (d Data) TotalWaste() float64 {
	var total float64
	for _, f := range d.Findings {
		total += f.EstimatedMonthlyCost
	}
	return total
}
