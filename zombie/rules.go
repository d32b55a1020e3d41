package zombie

import (
	"fmt"

	"github.com/charles-forsyth/Skywalker/types"
)

const (
	costUnknownEvidence = "cost unknown: no price data"
	sizeUnknownEvidence = "cost unknown: bucket size unavailable"
)

// checkOrphanedDisk flags disks that are not attached to any instance.
func (e *Engine) checkOrphanedDisk(record types.ResourceRecord) (types.ZombieFinding, bool) {
	if record.StringAttr("attachment_state") != "unattached" {
		return types.ZombieFinding{}, false
	}

	sizeGB := record.FloatAttr("size_gb")
	kind := "disk"
	if diskType := record.StringAttr("disk_type"); diskType != "" {
		kind = "disk/" + diskType
	}

	finding := types.ZombieFinding{
		Category: types.ZombieOrphanedDisk,
		Resource: record.Ref(),
		Region:   record.Region,
		Evidence: []string{
			"no attachments",
			fmt.Sprintf("size_gb=%g", sizeGB),
		},
	}
	e.price(&finding, kind, record.Region, sizeGB)
	return finding, true
}

// checkUnusedStaticIP flags reserved addresses nothing is using.
func (e *Engine) checkUnusedStaticIP(record types.ResourceRecord) (types.ZombieFinding, bool) {
	if _, ok := record.Attributes["in_use"]; !ok {
		return types.ZombieFinding{}, false
	}
	if record.BoolAttr("in_use") {
		return types.ZombieFinding{}, false
	}

	finding := types.ZombieFinding{
		Category: types.ZombieUnusedStaticIP,
		Resource: record.Ref(),
		Region:   record.Region,
		Evidence: []string{"reserved but not in use"},
	}
	if addr := record.StringAttr("address"); addr != "" {
		finding.Evidence = append(finding.Evidence, "address="+addr)
	}
	e.price(&finding, "static-ip", record.Region, 0)
	return finding, true
}

// checkInactiveBucket flags buckets with no traffic inside the window.
func (e *Engine) checkInactiveBucket(record types.ResourceRecord) (types.ZombieFinding, bool) {
	lastActivity, ok := record.TimeAttr("last_activity")
	if !ok {
		return types.ZombieFinding{}, false
	}

	idle := e.opts.Now.Sub(lastActivity)
	if idle < e.opts.InactivityWindow {
		return types.ZombieFinding{}, false
	}

	_, sized := record.Attributes["size_gb"]
	sizeGB := record.FloatAttr("size_gb")
	if sized && sizeGB < e.opts.MinBucketSizeGB {
		return types.ZombieFinding{}, false
	}

	finding := types.ZombieFinding{
		Category: types.ZombieInactiveBucket,
		Resource: record.Ref(),
		Region:   record.Region,
		Evidence: []string{
			fmt.Sprintf("no activity for %dd (window %dd)",
				int(idle.Hours()/24), int(e.opts.InactivityWindow.Hours()/24)),
		},
	}

	// The bucket list API does not report size. Without it there is no
	// per-GB cost to compute and no floor to apply; say so instead of
	// pricing zero bytes.
	if !sized {
		finding.Evidence = append(finding.Evidence, sizeUnknownEvidence)
		return finding, true
	}

	e.price(&finding, "bucket", record.Region, sizeGB)
	return finding, true
}

// price fills the cost estimate, or marks it unknown when the table has
// no data. Never a silent omission.
func (e *Engine) price(finding *types.ZombieFinding, kind, region string, sizeGB float64) {
	cost, ok := e.prices.PriceFor(kind, region, sizeGB)
	if !ok {
		finding.EstimatedMonthlyCost = 0
		finding.Evidence = append(finding.Evidence, costUnknownEvidence)
		return
	}
	finding.EstimatedMonthlyCost = cost
}
