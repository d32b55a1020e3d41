package types

import (
	"fmt"
	"time"
)

// Service identifies the GCP service family a record belongs to.
type Service string

const (
	ServiceCompute   Service = "compute"
	ServiceStorage   Service = "storage"
	ServiceNetwork   Service = "network"
	ServiceIAM       Service = "iam"
	ServiceGKE       Service = "gke"
	ServiceRun       Service = "run"
	ServiceSQL       Service = "sql"
	ServiceVertex    Service = "vertex"
	ServiceFilestore Service = "filestore"
)

// AllServices returns every known service tag in stable order.
func AllServices() []Service {
	return []Service{
		ServiceCompute,
		ServiceStorage,
		ServiceNetwork,
		ServiceIAM,
		ServiceGKE,
		ServiceRun,
		ServiceSQL,
		ServiceVertex,
		ServiceFilestore,
	}
}

// Valid reports whether s is a known service tag.
func (s Service) Valid() bool {
	for _, known := range AllServices() {
		if s == known {
			return true
		}
	}
	return false
}

// Regional reports whether walkers for this service take a region scope.
// Storage buckets and IAM are project-global on GCP.
func (s Service) Regional() bool {
	switch s {
	case ServiceStorage, ServiceIAM:
		return false
	}
	return true
}

// ScanScope identifies one unit of work: a project, optionally narrowed
// to a region and service. Immutable once created.
type ScanScope struct {
	ProjectID string  `json:"project_id"`
	Region    string  `json:"region,omitempty"`
	Service   Service `json:"service,omitempty"`
}

// Key returns a stable identity string for the scope.
func (s ScanScope) Key() string {
	return fmt.Sprintf("%s/%s/%s", s.ProjectID, s.Service, s.Region)
}

func (s ScanScope) String() string { return s.Key() }

// ResourceRecord is the normalized description of one discovered cloud
// resource. Attributes hold scalar values only (capacity, status,
// attachment state, last-activity timestamps, flattened labels).
type ResourceRecord struct {
	Service     Service        `json:"service"`
	Kind        string         `json:"kind"`
	ProjectID   string         `json:"project_id"`
	Region      string         `json:"region,omitempty"`
	Identifier  string         `json:"identifier"`
	Attributes  map[string]any `json:"attributes,omitempty"`
	CollectedAt time.Time      `json:"collected_at"`
}

// Validate checks the record against the normalized schema. Records that
// fail validation are dropped by the aggregator and surfaced as
// validation errors, never silently coerced.
func (r ResourceRecord) Validate() error {
	if !r.Service.Valid() {
		return fmt.Errorf("unknown service %q", r.Service)
	}
	if r.Kind == "" {
		return fmt.Errorf("missing kind")
	}
	if r.ProjectID == "" {
		return fmt.Errorf("missing project_id")
	}
	if r.Identifier == "" {
		return fmt.Errorf("missing identifier")
	}
	for key, val := range r.Attributes {
		if !scalarAttribute(val) {
			return fmt.Errorf("attribute %q is not a scalar (%T)", key, val)
		}
	}
	return nil
}

func scalarAttribute(v any) bool {
	switch v.(type) {
	case string, bool, int, int64, float64, time.Time:
		return true
	}
	return false
}

// Ref returns the non-owning back-reference used by zombie findings.
func (r ResourceRecord) Ref() ResourceRef {
	return ResourceRef{
		ProjectID:  r.ProjectID,
		Service:    r.Service,
		Kind:       r.Kind,
		Identifier: r.Identifier,
	}
}

// StringAttr returns a string attribute or "" when absent.
func (r ResourceRecord) StringAttr(key string) string {
	if v, ok := r.Attributes[key].(string); ok {
		return v
	}
	return ""
}

// BoolAttr returns a bool attribute or false when absent.
func (r ResourceRecord) BoolAttr(key string) bool {
	if v, ok := r.Attributes[key].(bool); ok {
		return v
	}
	return false
}

// FloatAttr returns a numeric attribute as float64 or 0 when absent.
func (r ResourceRecord) FloatAttr(key string) float64 {
	switch v := r.Attributes[key].(type) {
	case float64:
		return v
	case int64:
		return float64(v)
	case int:
		return float64(v)
	}
	return 0
}

// TimeAttr returns a timestamp attribute. RFC3339 strings are accepted
// since most GCP APIs report timestamps as strings.
func (r ResourceRecord) TimeAttr(key string) (time.Time, bool) {
	switch v := r.Attributes[key].(type) {
	case time.Time:
		return v, true
	case string:
		t, err := time.Parse(time.RFC3339, v)
		if err != nil {
			return time.Time{}, false
		}
		return t, true
	}
	return time.Time{}, false
}
