package types

// ZombieCategory names the waste rule that flagged a resource.
type ZombieCategory string

const (
	ZombieOrphanedDisk   ZombieCategory = "orphaned-disk"
	ZombieUnusedStaticIP ZombieCategory = "unused-static-ip"
	ZombieInactiveBucket ZombieCategory = "inactive-bucket"
)

// ResourceRef is a non-owning back-reference to a ResourceRecord.
type ResourceRef struct {
	ProjectID  string  `json:"project_id"`
	Service    Service `json:"service"`
	Kind       string  `json:"kind"`
	Identifier string  `json:"identifier"`
}

// ZombieFinding is one detected waste instance. Findings are derived from
// a FleetResult and recomputed every run, never persisted.
type ZombieFinding struct {
	Category             ZombieCategory `json:"category"`
	Resource             ResourceRef    `json:"resource"`
	Region               string         `json:"region,omitempty"`
	EstimatedMonthlyCost float64        `json:"estimated_monthly_cost"`
	Evidence             []string       `json:"evidence"`
}
