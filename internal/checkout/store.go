package checkout

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/minjae-dev/gomarket/internal/market"
)

type OrdersRepo struct{ DB *pgxpool.Pool }

// Insert writes the order header and its snapshot items in one transaction.
// Items are immutable after this point; nothing else writes to order_items.
//
// The unique index on external_id makes the order row the idempotency truth:
// when a second submission with the same external id races past the redis
// shortcut, the insert loses here, o is overwritten with the already-stored
// order and existed is true.
func (r *OrdersRepo) Insert(ctx context.Context, o *market.Order) (existed bool, err error) {
	err = r.insertTx(ctx, o)
	if err == nil {
		return false, nil
	}
	var pgErr *pgconn.PgError
	if o.ExternalID != "" && errors.As(err, &pgErr) &&
		pgErr.Code == "23505" && pgErr.ConstraintName == "idx_orders_external_id" {
		existing, lookErr := r.getByExternalID(ctx, o.ExternalID)
		if lookErr != nil {
			return false, lookErr
		}
		*o = *existing
		return true, nil
	}
	return false, err
}

func (r *OrdersRepo) insertTx(ctx context.Context, o *market.Order) error {
	tx, err := r.DB.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, `
		INSERT INTO orders(id, external_id, buyer_id, total_amount, status, payment_ref)
		VALUES ($1, $2, $3, $4, $5, $6)`,
		o.ID, o.ExternalID, o.BuyerID, o.TotalAmount, o.Status, o.PaymentRef); err != nil {
		return err
	}
	for _, it := range o.Items {
		if _, err := tx.Exec(ctx, `
			INSERT INTO order_items(order_id, product_id, seller_id, name, price, quantity, image_url, status)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
			o.ID, it.ProductID, it.SellerID, it.Name, it.Price, it.Quantity, it.ImageURL, it.Status); err != nil {
			return err
		}
	}
	return tx.Commit(ctx)
}

func (r *OrdersRepo) getByExternalID(ctx context.Context, externalID string) (*market.Order, error) {
	var o market.Order
	err := r.DB.QueryRow(ctx, `
		SELECT id, external_id, buyer_id, total_amount, status, payment_ref, created_at
		FROM orders WHERE external_id = $1`, externalID).
		Scan(&o.ID, &o.ExternalID, &o.BuyerID, &o.TotalAmount, &o.Status, &o.PaymentRef, &o.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, market.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	o.Items, err = r.items(ctx,
		`SELECT product_id, seller_id, name, price, quantity, image_url, status
		 FROM order_items WHERE order_id = $1`, o.ID)
	if err != nil {
		return nil, err
	}
	return &o, nil
}

func (r *OrdersRepo) Get(ctx context.Context, orderID int64) (*market.Order, error) {
	var o market.Order
	err := r.DB.QueryRow(ctx, `
		SELECT id, buyer_id, total_amount, status, payment_ref, created_at
		FROM orders WHERE id = $1`, orderID).
		Scan(&o.ID, &o.BuyerID, &o.TotalAmount, &o.Status, &o.PaymentRef, &o.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, market.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	o.Items, err = r.items(ctx,
		`SELECT product_id, seller_id, name, price, quantity, image_url, status
		 FROM order_items WHERE order_id = $1`, orderID)
	if err != nil {
		return nil, err
	}
	return &o, nil
}

// ListByBuyer is the buyer's purchase-history view, newest first.
func (r *OrdersRepo) ListByBuyer(ctx context.Context, buyerID int64) ([]market.Order, error) {
	orders, err := r.headers(ctx, `
		SELECT id, buyer_id, total_amount, status, payment_ref, created_at
		FROM orders WHERE buyer_id = $1 ORDER BY created_at DESC`, buyerID)
	if err != nil {
		return nil, err
	}
	for i := range orders {
		orders[i].Items, err = r.items(ctx,
			`SELECT product_id, seller_id, name, price, quantity, image_url, status
			 FROM order_items WHERE order_id = $1`, orders[i].ID)
		if err != nil {
			return nil, err
		}
	}
	return orders, nil
}

// ListBySeller is the sold-items view: orders containing at least one line
// item owned by the seller, with the item list narrowed to that seller.
// Same records as the buyer view, just a second index over them.
func (r *OrdersRepo) ListBySeller(ctx context.Context, sellerID int64) ([]market.Order, error) {
	orders, err := r.headers(ctx, `
		SELECT DISTINCT o.id, o.buyer_id, o.total_amount, o.status, o.payment_ref, o.created_at
		FROM orders o JOIN order_items i ON i.order_id = o.id
		WHERE i.seller_id = $1 ORDER BY o.created_at DESC`, sellerID)
	if err != nil {
		return nil, err
	}
	for i := range orders {
		orders[i].Items, err = r.items(ctx,
			`SELECT product_id, seller_id, name, price, quantity, image_url, status
			 FROM order_items WHERE order_id = $1 AND seller_id = $2`, orders[i].ID, sellerID)
		if err != nil {
			return nil, err
		}
	}
	return orders, nil
}

// MarkCanceled flips the status of a buyer-owned, not-yet-canceled order.
// Quantities and payments are untouched.
func (r *OrdersRepo) MarkCanceled(ctx context.Context, orderID, buyerID int64) error {
	ct, err := r.DB.Exec(ctx, `
		UPDATE orders SET status = $3
		WHERE id = $1 AND buyer_id = $2 AND status <> $3`,
		orderID, buyerID, market.OrderCanceled)
	if err != nil {
		return err
	}
	if ct.RowsAffected() == 0 {
		return market.ErrNotFound
	}
	return nil
}

func (r *OrdersRepo) headers(ctx context.Context, sql string, args ...any) ([]market.Order, error) {
	rows, err := r.DB.Query(ctx, sql, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []market.Order
	for rows.Next() {
		var o market.Order
		if err := rows.Scan(&o.ID, &o.BuyerID, &o.TotalAmount, &o.Status, &o.PaymentRef, &o.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, o)
	}
	return out, rows.Err()
}

func (r *OrdersRepo) items(ctx context.Context, sql string, args ...any) ([]market.OrderItem, error) {
	rows, err := r.DB.Query(ctx, sql, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []market.OrderItem
	for rows.Next() {
		var it market.OrderItem
		if err := rows.Scan(&it.ProductID, &it.SellerID, &it.Name, &it.Price,
			&it.Quantity, &it.ImageURL, &it.Status); err != nil {
			return nil, err
		}
		items = append(items, it)
	}
	return items, rows.Err()
}
