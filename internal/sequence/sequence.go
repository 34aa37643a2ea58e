package sequence

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/minjae-dev/gomarket/internal/market"
	"github.com/minjae-dev/gomarket/internal/postgres"
)

// Well-known counter names. Rows are provisioned by migration; a missing
// row is a deployment error, never created at runtime.
const (
	ProductCounter = "productCounter"
	OrderCounter   = "orderCounter"
	UserCounter    = "userCounter"
)

// Allocator issues strictly increasing, never-reused integer ids.
type Allocator interface {
	Next(ctx context.Context, name string) (int64, error)
}

type Repo struct{ DB *pgxpool.Pool }

// Next performs one atomic read-modify-write of the named counter row.
// Two concurrent calls never observe the same value: the row lock taken by
// UPDATE serializes them.
func (r *Repo) Next(ctx context.Context, name string) (int64, error) {
	var id int64
	err := postgres.Retry(ctx, func() error {
		return r.DB.QueryRow(ctx,
			`UPDATE counters SET count = count + 1 WHERE name = $1 RETURNING count`,
			name).Scan(&id)
	})
	if errors.Is(err, pgx.ErrNoRows) {
		return 0, fmt.Errorf("counter %q: %w", name, market.ErrCounterMissing)
	}
	if err != nil {
		return 0, fmt.Errorf("next id for %q: %w", name, err)
	}
	return id, nil
}
