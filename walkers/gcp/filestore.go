package gcp

import (
	"context"
	"fmt"
	"path"

	file "google.golang.org/api/file/v1"

	"github.com/charles-forsyth/Skywalker/types"
	"github.com/charles-forsyth/Skywalker/walker"
)

// FilestoreWalker lists Filestore instances in the scope region and its
// zones. Basic tiers are zonal, Enterprise regional, so both location
// shapes are checked.
type FilestoreWalker struct {
	clients *Clients
}

func (w *FilestoreWalker) Service() types.Service { return types.ServiceFilestore }

func (w *FilestoreWalker) Fetch(ctx context.Context, scope types.ScanScope) ([]walker.RawResource, error) {
	var raws []walker.RawResource

	locations := append([]string{scope.Region}, zonesFor(scope.Region)...)
	for _, location := range locations {
		parent := fmt.Sprintf("projects/%s/locations/%s", scope.ProjectID, location)
		call := w.clients.Filestore.Projects.Locations.Instances.List(parent)
		err := call.Pages(ctx, func(page *file.ListInstancesResponse) error {
			for _, instance := range page.Instances {
				var capacityGB float64
				for _, share := range instance.FileShares {
					capacityGB += float64(share.CapacityGb)
				}

				attrs := map[string]any{
					"state":      instance.State,
					"tier":       instance.Tier,
					"location":   location,
					"size_gb":    capacityGB,
					"created_at": instance.CreateTime,
				}
				labelAttrs(attrs, instance.Labels)

				raws = append(raws, walker.RawResource{
					Kind:       "filestore-instance",
					Identifier: path.Base(instance.Name),
					Attributes: attrs,
				})
			}
			return nil
		})
		if err != nil {
			return nil, classify(err)
		}
	}

	return raws, nil
}
