// Package walker defines the contract every service adapter implements
// and the registry the orchestrator resolves them from.
package walker

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/charles-forsyth/Skywalker/types"
)

// RawResource is the untyped output of a walker before normalization.
type RawResource struct {
	Kind       string
	Identifier string
	Region     string
	Attributes map[string]any
}

// Record normalizes a raw resource into a ResourceRecord for the given
// scope. The record still has to pass validation before aggregation.
func (r RawResource) Record(scope types.ScanScope, collectedAt time.Time) types.ResourceRecord {
	region := r.Region
	if region == "" {
		region = scope.Region
	}
	return types.ResourceRecord{
		Service:     scope.Service,
		Kind:        r.Kind,
		ProjectID:   scope.ProjectID,
		Region:      region,
		Identifier:  r.Identifier,
		Attributes:  r.Attributes,
		CollectedAt: collectedAt,
	}
}

// Walker produces raw resource data for one scope. Implementations are
// read-only against the provider and must classify their errors with
// NewError so the retry policy can tell transient failures apart.
type Walker interface {
	// Service returns the service tag this walker handles.
	Service() types.Service

	// Fetch lists all resources of this service visible in the scope.
	Fetch(ctx context.Context, scope types.ScanScope) ([]RawResource, error)
}

// Registry maps service tags to walkers. It is built once at startup by
// the caller and injected into the orchestrator; there is no package
// global, which keeps tests trivially mockable.
type Registry struct {
	mu      sync.RWMutex
	walkers map[types.Service]Walker
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{walkers: make(map[types.Service]Walker)}
}

// Register adds a walker, replacing any previous walker for the service.
func (r *Registry) Register(w Walker) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.walkers[w.Service()] = w
}

// Get returns the walker for a service.
func (r *Registry) Get(service types.Service) (Walker, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	w, ok := r.walkers[service]
	return w, ok
}

// Services returns the registered service tags, sorted.
func (r *Registry) Services() []types.Service {
	r.mu.RLock()
	defer r.mu.RUnlock()
	services := make([]types.Service, 0, len(r.walkers))
	for s := range r.walkers {
		services = append(services, s)
	}
	sort.Slice(services, func(i, j int) bool { return services[i] < services[j] })
	return services
}
