package stock

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/minjae-dev/gomarket/internal/market"
	"github.com/minjae-dev/gomarket/internal/postgres"
)

type Repo struct{ DB *pgxpool.Pool }

// Reserve validates and decrements stock for every demand in one
// transaction. If any demand cannot be met, nothing is committed, including
// demands validated earlier in the same call. On success it returns the
// seller/price/image snapshot per demand, which is how a buyer's cart line
// gets re-attributed to the product's seller in the order record.
//
// Rows are locked in ascending product id order so two overlapping
// reservations cannot deadlock; a serialization abort is retried from the
// top of the transaction.
func (r *Repo) Reserve(ctx context.Context, demands []market.Demand) ([]market.ReservedItem, error) {
	sorted := make([]market.Demand, len(demands))
	copy(sorted, demands)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].ProductID < sorted[j].ProductID })

	var out []market.ReservedItem
	err := postgres.Retry(ctx, func() error {
		items, err := r.reserveTx(ctx, sorted)
		if err != nil {
			return err
		}
		out = items
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (r *Repo) reserveTx(ctx context.Context, demands []market.Demand) ([]market.ReservedItem, error) {
	tx, err := r.DB.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	items := make([]market.ReservedItem, 0, len(demands))
	for _, d := range demands {
		var it market.ReservedItem
		var available int
		err := tx.QueryRow(ctx, `
			SELECT seller_id, name, price, quantity, COALESCE(image_urls[1], '')
			FROM products WHERE id = $1 FOR UPDATE`, d.ProductID).
			Scan(&it.SellerID, &it.Name, &it.Price, &available, &it.ImageURL)
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("product %d: %w", d.ProductID, market.ErrNotFound)
		}
		if err != nil {
			return nil, err
		}
		if available < d.Quantity {
			return nil, &market.InsufficientStockError{
				ProductID:   d.ProductID,
				ProductName: it.Name,
				Requested:   d.Quantity,
				Available:   available,
			}
		}
		if _, err := tx.Exec(ctx,
			`UPDATE products SET quantity = quantity - $2, updated_at = now() WHERE id = $1`,
			d.ProductID, d.Quantity); err != nil {
			return nil, err
		}
		it.ProductID = d.ProductID
		it.Quantity = d.Quantity
		items = append(items, it)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}
	return items, nil
}

// Release adds reserved quantities back after a declined payment. Not
// idempotent: calling it twice double-refunds, so the pipeline invokes it
// at most once per failed attempt.
func (r *Repo) Release(ctx context.Context, items []market.Demand) error {
	return postgres.Retry(ctx, func() error {
		tx, err := r.DB.BeginTx(ctx, pgx.TxOptions{})
		if err != nil {
			return err
		}
		defer tx.Rollback(ctx)

		for _, it := range items {
			if _, err := tx.Exec(ctx,
				`UPDATE products SET quantity = quantity + $2, updated_at = now() WHERE id = $1`,
				it.ProductID, it.Quantity); err != nil {
				return err
			}
		}
		return tx.Commit(ctx)
	})
}
