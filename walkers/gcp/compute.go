package gcp

import (
	"context"
	"path"
	"strconv"

	"google.golang.org/api/compute/v1"

	"github.com/charles-forsyth/Skywalker/types"
	"github.com/charles-forsyth/Skywalker/walker"
)

// ComputeWalker lists instances and disks across the zones of the scope
// region.
type ComputeWalker struct {
	clients *Clients
}

func (w *ComputeWalker) Service() types.Service { return types.ServiceCompute }

func (w *ComputeWalker) Fetch(ctx context.Context, scope types.ScanScope) ([]walker.RawResource, error) {
	var raws []walker.RawResource

	for _, zone := range zonesFor(scope.Region) {
		instances, err := w.listInstances(ctx, scope.ProjectID, zone)
		if err != nil {
			return nil, classify(err)
		}
		raws = append(raws, instances...)

		disks, err := w.listDisks(ctx, scope.ProjectID, zone)
		if err != nil {
			return nil, classify(err)
		}
		raws = append(raws, disks...)
	}

	return raws, nil
}

func (w *ComputeWalker) listInstances(ctx context.Context, projectID, zone string) ([]walker.RawResource, error) {
	var raws []walker.RawResource

	call := w.clients.Compute.Instances.List(projectID, zone)
	err := call.Pages(ctx, func(page *compute.InstanceList) error {
		for _, instance := range page.Items {
			attrs := map[string]any{
				"status":       instance.Status,
				"machine_type": path.Base(instance.MachineType),
				"zone":         zone,
				"created_at":   instance.CreationTimestamp,
				"instance_id":  strconv.FormatUint(instance.Id, 10),
			}
			labelAttrs(attrs, instance.Labels)

			raws = append(raws, walker.RawResource{
				Kind:       "instance",
				Identifier: instance.Name,
				Attributes: attrs,
			})
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return raws, nil
}

func (w *ComputeWalker) listDisks(ctx context.Context, projectID, zone string) ([]walker.RawResource, error) {
	var raws []walker.RawResource

	call := w.clients.Compute.Disks.List(projectID, zone)
	err := call.Pages(ctx, func(page *compute.DiskList) error {
		for _, disk := range page.Items {
			attachment := "attached"
			if len(disk.Users) == 0 {
				attachment = "unattached"
			}
			attrs := map[string]any{
				"status":           disk.Status,
				"size_gb":          float64(disk.SizeGb),
				"disk_type":        path.Base(disk.Type),
				"zone":             zone,
				"attachment_state": attachment,
				"created_at":       disk.CreationTimestamp,
			}
			if disk.LastDetachTimestamp != "" {
				attrs["last_detach"] = disk.LastDetachTimestamp
			}
			labelAttrs(attrs, disk.Labels)

			raws = append(raws, walker.RawResource{
				Kind:       "disk",
				Identifier: disk.Name,
				Attributes: attrs,
			})
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return raws, nil
}
