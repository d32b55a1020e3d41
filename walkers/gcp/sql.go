package gcp

import (
	"context"

	sqladmin "google.golang.org/api/sqladmin/v1"

	"github.com/charles-forsyth/Skywalker/types"
	"github.com/charles-forsyth/Skywalker/walker"
)

// SQLWalker lists Cloud SQL instances. The API is project-wide, so the
// walker filters down to the scope region.
type SQLWalker struct {
	clients *Clients
}

func (w *SQLWalker) Service() types.Service { return types.ServiceSQL }

func (w *SQLWalker) Fetch(ctx context.Context, scope types.ScanScope) ([]walker.RawResource, error) {
	var raws []walker.RawResource

	call := w.clients.SQLAdmin.Instances.List(scope.ProjectID)
	err := call.Pages(ctx, func(page *sqladmin.InstancesListResponse) error {
		for _, instance := range page.Items {
			if scope.Region != "" && instance.Region != scope.Region {
				continue
			}

			attrs := map[string]any{
				"state":   instance.State,
				"version": instance.DatabaseVersion,
			}
			if instance.Settings != nil {
				attrs["tier"] = instance.Settings.Tier
				attrs["size_gb"] = float64(instance.Settings.DataDiskSizeGb)
				attrs["activation_policy"] = instance.Settings.ActivationPolicy
				labelAttrs(attrs, instance.Settings.UserLabels)
			}

			raws = append(raws, walker.RawResource{
				Kind:       "sql-instance",
				Identifier: instance.Name,
				Region:     instance.Region,
				Attributes: attrs,
			})
		}
		return nil
	})
	if err != nil {
		return nil, classify(err)
	}

	return raws, nil
}
