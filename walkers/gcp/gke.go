package gcp

import (
	"context"
	"fmt"

	"github.com/charles-forsyth/Skywalker/types"
	"github.com/charles-forsyth/Skywalker/walker"
)

// GKEWalker lists the clusters in the scope region, including the zonal
// clusters under it.
type GKEWalker struct {
	clients *Clients
}

func (w *GKEWalker) Service() types.Service { return types.ServiceGKE }

func (w *GKEWalker) Fetch(ctx context.Context, scope types.ScanScope) ([]walker.RawResource, error) {
	var raws []walker.RawResource

	locations := append([]string{scope.Region}, zonesFor(scope.Region)...)
	for _, location := range locations {
		parent := fmt.Sprintf("projects/%s/locations/%s", scope.ProjectID, location)
		resp, err := w.clients.Container.Projects.Locations.Clusters.List(parent).Context(ctx).Do()
		if err != nil {
			return nil, classify(err)
		}

		for _, cluster := range resp.Clusters {
			attrs := map[string]any{
				"status":     cluster.Status,
				"location":   cluster.Location,
				"node_count": cluster.CurrentNodeCount,
				"version":    cluster.CurrentMasterVersion,
				"created_at": cluster.CreateTime,
			}
			labelAttrs(attrs, cluster.ResourceLabels)

			raws = append(raws, walker.RawResource{
				Kind:       "cluster",
				Identifier: cluster.Name,
				Attributes: attrs,
			})
		}
	}

	return raws, nil
}
