// Package gcp implements the walker contract against the GCP REST APIs.
// Every call is read-only. Clients are constructed once by the caller
// and injected; walkers never build or cache their own sessions.
package gcp

import (
	"context"
	"fmt"

	"google.golang.org/api/cloudresourcemanager/v1"
	"google.golang.org/api/compute/v1"
	container "google.golang.org/api/container/v1"
	file "google.golang.org/api/file/v1"
	"google.golang.org/api/option"
	run "google.golang.org/api/run/v2"
	sqladmin "google.golang.org/api/sqladmin/v1"
	storage "google.golang.org/api/storage/v1"

	"github.com/charles-forsyth/Skywalker/walker"
)

// ZoneSuffixes generates zones from a region, e.g. us-central1 ->
// us-central1-a, us-central1-b, ...
var ZoneSuffixes = []string{"a", "b", "c", "f"}

func zonesFor(region string) []string {
	zones := make([]string, 0, len(ZoneSuffixes))
	for _, suffix := range ZoneSuffixes {
		zones = append(zones, region+"-"+suffix)
	}
	return zones
}

// Clients is the explicit client registry shared by all GCP walkers.
type Clients struct {
	Compute   *compute.Service
	Storage   *storage.Service
	Container *container.Service
	SQLAdmin  *sqladmin.Service
	Filestore *file.Service
	Run       *run.Service
	CRM       *cloudresourcemanager.Service
}

// NewClients builds every service client with the same options.
// Authentication comes from application default credentials unless an
// option overrides it.
func NewClients(ctx context.Context, opts ...option.ClientOption) (*Clients, error) {
	computeSvc, err := compute.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create compute service: %w", err)
	}
	storageSvc, err := storage.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create storage service: %w", err)
	}
	containerSvc, err := container.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create container service: %w", err)
	}
	sqlSvc, err := sqladmin.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create sqladmin service: %w", err)
	}
	fileSvc, err := file.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create filestore service: %w", err)
	}
	runSvc, err := run.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create run service: %w", err)
	}
	crmSvc, err := cloudresourcemanager.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create resource manager service: %w", err)
	}

	return &Clients{
		Compute:   computeSvc,
		Storage:   storageSvc,
		Container: containerSvc,
		SQLAdmin:  sqlSvc,
		Filestore: fileSvc,
		Run:       runSvc,
		CRM:       crmSvc,
	}, nil
}

// Register adds a walker for every service these clients can serve.
func (c *Clients) Register(registry *walker.Registry) {
	registry.Register(&ComputeWalker{clients: c})
	registry.Register(&NetworkWalker{clients: c})
	registry.Register(&StorageWalker{clients: c})
	registry.Register(&GKEWalker{clients: c})
	registry.Register(&SQLWalker{clients: c})
	registry.Register(&FilestoreWalker{clients: c})
	registry.Register(&RunWalker{clients: c})
}

func labelAttrs(attrs map[string]any, labels map[string]string) {
	for k, v := range labels {
		attrs["label."+k] = v
	}
}
