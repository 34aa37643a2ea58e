package catalog

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/minjae-dev/gomarket/internal/market"
)

type Repo struct{ DB *pgxpool.Pool }

// Get looks a product up by its primary key. Quantity reads here are
// advisory only; checkout re-reads under lock inside the reservation
// transaction.
func (r *Repo) Get(ctx context.Context, productID int64) (*market.Product, error) {
	var p market.Product
	err := r.DB.QueryRow(ctx, `
		SELECT id, seller_id, name, description, category, price, quantity, image_urls, created_at, updated_at
		FROM products WHERE id = $1`, productID).
		Scan(&p.ID, &p.SellerID, &p.Name, &p.Description, &p.Category,
			&p.Price, &p.Quantity, &p.ImageURLs, &p.CreatedAt, &p.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, market.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *Repo) Insert(ctx context.Context, p *market.Product) error {
	_, err := r.DB.Exec(ctx, `
		INSERT INTO products(id, seller_id, name, description, category, price, quantity, image_urls)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		p.ID, p.SellerID, p.Name, p.Description, p.Category, p.Price, p.Quantity, p.ImageURLs)
	return err
}

// UpdateDetails edits seller-owned display fields. Quantity is deliberately
// absent: stock moves only through the reservation engine.
func (r *Repo) UpdateDetails(ctx context.Context, p *market.Product) error {
	ct, err := r.DB.Exec(ctx, `
		UPDATE products
		SET name = $3, description = $4, category = $5, price = $6, image_urls = $7, updated_at = now()
		WHERE id = $1 AND seller_id = $2`,
		p.ID, p.SellerID, p.Name, p.Description, p.Category, p.Price, p.ImageURLs)
	if err != nil {
		return err
	}
	if ct.RowsAffected() == 0 {
		return market.ErrNotFound
	}
	return nil
}

func (r *Repo) List(ctx context.Context) ([]market.Product, error) {
	return r.list(ctx, `
		SELECT id, seller_id, name, description, category, price, quantity, image_urls, created_at, updated_at
		FROM products ORDER BY created_at DESC`)
}

func (r *Repo) ListBySeller(ctx context.Context, sellerID int64) ([]market.Product, error) {
	return r.list(ctx, `
		SELECT id, seller_id, name, description, category, price, quantity, image_urls, created_at, updated_at
		FROM products WHERE seller_id = $1 ORDER BY created_at DESC`, sellerID)
}

func (r *Repo) list(ctx context.Context, sql string, args ...any) ([]market.Product, error) {
	rows, err := r.DB.Query(ctx, sql, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []market.Product
	for rows.Next() {
		var p market.Product
		if err := rows.Scan(&p.ID, &p.SellerID, &p.Name, &p.Description, &p.Category,
			&p.Price, &p.Quantity, &p.ImageURLs, &p.CreatedAt, &p.UpdatedAt); err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}
