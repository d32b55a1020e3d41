package gcp

import (
	"context"

	"google.golang.org/api/compute/v1"

	"github.com/charles-forsyth/Skywalker/types"
	"github.com/charles-forsyth/Skywalker/walker"
)

// NetworkWalker lists the static addresses reserved in the scope region.
type NetworkWalker struct {
	clients *Clients
}

func (w *NetworkWalker) Service() types.Service { return types.ServiceNetwork }

func (w *NetworkWalker) Fetch(ctx context.Context, scope types.ScanScope) ([]walker.RawResource, error) {
	var raws []walker.RawResource

	call := w.clients.Compute.Addresses.List(scope.ProjectID, scope.Region)
	err := call.Pages(ctx, func(page *compute.AddressList) error {
		for _, addr := range page.Items {
			inUse := addr.Status == "IN_USE" || len(addr.Users) > 0
			attrs := map[string]any{
				"status":       addr.Status,
				"address":      addr.Address,
				"address_type": addr.AddressType,
				"in_use":       inUse,
				"created_at":   addr.CreationTimestamp,
			}
			labelAttrs(attrs, addr.Labels)

			raws = append(raws, walker.RawResource{
				Kind:       "static-ip",
				Identifier: addr.Name,
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
