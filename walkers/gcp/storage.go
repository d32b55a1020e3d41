package gcp

import (
	"context"

	storage "google.golang.org/api/storage/v1"

	"github.com/charles-forsyth/Skywalker/types"
	"github.com/charles-forsyth/Skywalker/walker"
)

// StorageWalker lists the project's buckets. Buckets are global, so the
// scope region is ignored; each record carries the bucket's own location.
type StorageWalker struct {
	clients *Clients
}

func (w *StorageWalker) Service() types.Service { return types.ServiceStorage }

func (w *StorageWalker) Fetch(ctx context.Context, scope types.ScanScope) ([]walker.RawResource, error) {
	var raws []walker.RawResource

	call := w.clients.Storage.Buckets.List(scope.ProjectID)
	err := call.Pages(ctx, func(page *storage.Buckets) error {
		for _, bucket := range page.Items {
			attrs := map[string]any{
				"location":      bucket.Location,
				"storage_class": bucket.StorageClass,
				"created_at":    bucket.TimeCreated,
			}
			// The bucket metadata update time is the best activity signal
			// available without the monitoring API.
			if bucket.Updated != "" {
				attrs["last_activity"] = bucket.Updated
			}
			labelAttrs(attrs, bucket.Labels)

			raws = append(raws, walker.RawResource{
				Kind:       "bucket",
				Identifier: bucket.Name,
				Region:     bucket.Location,
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
