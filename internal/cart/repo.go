package cart

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/minjae-dev/gomarket/internal/market"
)

type Repo struct{ DB *pgxpool.Pool }

// Add creates the (user, product) entry. A second add for the same pair is
// rejected; the UI adjusts quantity through UpdateQuantity instead.
func (r *Repo) Add(ctx context.Context, userID, productID int64, quantity int) error {
	if quantity <= 0 {
		return fmt.Errorf("cart: quantity must be positive")
	}
	ct, err := r.DB.Exec(ctx, `
		INSERT INTO cart_entries(user_id, product_id, quantity)
		VALUES ($1, $2, $3)
		ON CONFLICT (user_id, product_id) DO NOTHING`,
		userID, productID, quantity)
	if err != nil {
		return err
	}
	if ct.RowsAffected() == 0 {
		return market.ErrDuplicateCart
	}
	return nil
}

func (r *Repo) UpdateQuantity(ctx context.Context, userID, productID int64, quantity int) error {
	if quantity < 1 {
		return fmt.Errorf("cart: quantity must be at least 1")
	}
	ct, err := r.DB.Exec(ctx,
		`UPDATE cart_entries SET quantity = $3 WHERE user_id = $1 AND product_id = $2`,
		userID, productID, quantity)
	if err != nil {
		return err
	}
	if ct.RowsAffected() == 0 {
		return market.ErrNotFound
	}
	return nil
}

func (r *Repo) Remove(ctx context.Context, userID, productID int64) error {
	ct, err := r.DB.Exec(ctx,
		`DELETE FROM cart_entries WHERE user_id = $1 AND product_id = $2`,
		userID, productID)
	if err != nil {
		return err
	}
	if ct.RowsAffected() == 0 {
		return market.ErrNotFound
	}
	return nil
}

// RemoveMany clears the purchased entries after a committed order.
func (r *Repo) RemoveMany(ctx context.Context, userID int64, productIDs []int64) error {
	if len(productIDs) == 0 {
		return nil
	}
	_, err := r.DB.Exec(ctx,
		`DELETE FROM cart_entries WHERE user_id = $1 AND product_id = ANY($2)`,
		userID, productIDs)
	return err
}

func (r *Repo) ListEntries(ctx context.Context, userID int64) ([]market.CartEntry, error) {
	rows, err := r.DB.Query(ctx, `
		SELECT user_id, product_id, quantity, created_at
		FROM cart_entries WHERE user_id = $1 ORDER BY created_at`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []market.CartEntry
	for rows.Next() {
		var e market.CartEntry
		if err := rows.Scan(&e.UserID, &e.ProductID, &e.Quantity, &e.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

func (r *Repo) Count(ctx context.Context, userID int64) (int, error) {
	var n int
	err := r.DB.QueryRow(ctx,
		`SELECT COUNT(*) FROM cart_entries WHERE user_id = $1`, userID).Scan(&n)
	if errors.Is(err, pgx.ErrNoRows) {
		return 0, nil
	}
	return n, err
}
