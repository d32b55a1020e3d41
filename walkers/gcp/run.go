package gcp

import (
	"context"
	"fmt"
	"path"

	run "google.golang.org/api/run/v2"

	"github.com/charles-forsyth/Skywalker/types"
	"github.com/charles-forsyth/Skywalker/walker"
)

// RunWalker lists the Cloud Run services deployed in the scope region.
type RunWalker struct {
	clients *Clients
}

func (w *RunWalker) Service() types.Service { return types.ServiceRun }

func (w *RunWalker) Fetch(ctx context.Context, scope types.ScanScope) ([]walker.RawResource, error) {
	var raws []walker.RawResource

	parent := fmt.Sprintf("projects/%s/locations/%s", scope.ProjectID, scope.Region)
	call := w.clients.Run.Projects.Locations.Services.List(parent)
	err := call.Pages(ctx, func(page *run.GoogleCloudRunV2ListServicesResponse) error {
		for _, svc := range page.Services {
			attrs := map[string]any{
				"uri":        svc.Uri,
				"ingress":    svc.Ingress,
				"created_at": svc.CreateTime,
				"updated_at": svc.UpdateTime,
			}
			if svc.LatestReadyRevision != "" {
				attrs["latest_revision"] = path.Base(svc.LatestReadyRevision)
			}
			labelAttrs(attrs, svc.Labels)

			raws = append(raws, walker.RawResource{
				Kind:       "run-service",
				Identifier: path.Base(svc.Name),
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
