package cart

import (
	"context"
	"errors"

	"golang.org/x/sync/errgroup"

	"github.com/minjae-dev/gomarket/internal/market"
)

type EntryLister interface {
	ListEntries(ctx context.Context, userID int64) ([]market.CartEntry, error)
}

type ProductGetter interface {
	Get(ctx context.Context, productID int64) (*market.Product, error)
}

// Reader joins a user's raw cart entries with live product data into the
// priced line items the checkout flow consumes.
type Reader struct {
	Entries  EntryLister
	Products ProductGetter
}

// LoadCart merges product display fields onto each entry. When a product has
// been removed since it was carted, the raw entry is returned unmerged
// rather than failing the whole read. Lookups run concurrently, one per
// entry.
func (r *Reader) LoadCart(ctx context.Context, userID int64) ([]market.LineItem, error) {
	entries, err := r.Entries.ListEntries(ctx, userID)
	if err != nil {
		return nil, err
	}

	items := make([]market.LineItem, len(entries))
	g, gctx := errgroup.WithContext(ctx)
	for i, e := range entries {
		i, e := i, e
		g.Go(func() error {
			items[i] = market.LineItem{ProductID: e.ProductID, Quantity: e.Quantity}
			p, err := r.Products.Get(gctx, e.ProductID)
			if errors.Is(err, market.ErrNotFound) {
				return nil // degraded line item
			}
			if err != nil {
				return err
			}
			items[i].Name = p.Name
			items[i].Price = p.Price
			if len(p.ImageURLs) > 0 {
				items[i].ImageURL = p.ImageURLs[0]
			}
			items[i].Merged = true
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return items, nil
}
