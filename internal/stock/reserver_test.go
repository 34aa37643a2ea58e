package stock_test

import (
	"context"
	"fmt"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/minjae-dev/gomarket/internal/market"
	"github.com/minjae-dev/gomarket/internal/postgres"
	"github.com/minjae-dev/gomarket/internal/stock"
)

// These tests run against a migrated database; set TEST_POSTGRES_DSN to
// enable them.
func testPool(t *testing.T) *pgxpool.Pool {
	t.Helper()
	dsn := os.Getenv("TEST_POSTGRES_DSN")
	if dsn == "" {
		t.Skip("TEST_POSTGRES_DSN not set")
	}
	pool, err := postgres.Connect(context.Background(), dsn)
	require.NoError(t, err)
	t.Cleanup(pool.Close)
	return pool
}

// seedProducts inserts a seller and one product per quantity, returning the
// product ids in argument order. Rows are removed when the test ends.
func seedProducts(t *testing.T, pool *pgxpool.Pool, quantities ...int) []int64 {
	t.Helper()
	ctx := context.Background()
	base := time.Now().UnixNano()

	sellerID := base
	_, err := pool.Exec(ctx, `
		INSERT INTO users(id, email, username, password_hash, is_seller)
		VALUES ($1, $2, 'seed-seller', 'x', TRUE)`,
		sellerID, fmt.Sprintf("seller%d@seed.test", base))
	require.NoError(t, err)

	ids := make([]int64, 0, len(quantities))
	for i, q := range quantities {
		id := base + int64(i) + 1
		_, err := pool.Exec(ctx, `
			INSERT INTO products(id, seller_id, name, description, category, price, quantity, image_urls)
			VALUES ($1, $2, $3, 'seed', 'seed', 1000, $4, '{"img/seed.jpg"}')`,
			id, sellerID, fmt.Sprintf("seed-%d", i), q)
		require.NoError(t, err)
		ids = append(ids, id)
	}

	t.Cleanup(func() {
		_, _ = pool.Exec(ctx, `DELETE FROM products WHERE seller_id = $1`, sellerID)
		_, _ = pool.Exec(ctx, `DELETE FROM users WHERE id = $1`, sellerID)
	})
	return ids
}

func productQuantity(t *testing.T, pool *pgxpool.Pool, id int64) int {
	t.Helper()
	var q int
	require.NoError(t, pool.QueryRow(context.Background(),
		`SELECT quantity FROM products WHERE id = $1`, id).Scan(&q))
	return q
}

func TestReserveDecrementsAndSnapshots(t *testing.T) {
	pool := testPool(t)
	ids := seedProducts(t, pool, 5)
	r := &stock.Repo{DB: pool}

	items, err := r.Reserve(context.Background(), []market.Demand{{ProductID: ids[0], Quantity: 2}})

	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, ids[0], items[0].ProductID)
	assert.Equal(t, "seed-0", items[0].Name)
	assert.EqualValues(t, 1000, items[0].Price)
	assert.Equal(t, "img/seed.jpg", items[0].ImageURL)
	assert.Equal(t, 2, items[0].Quantity)
	assert.Equal(t, 3, productQuantity(t, pool, ids[0]))
}

func TestReserveAllOrNothing(t *testing.T) {
	pool := testPool(t)
	ids := seedProducts(t, pool, 5, 1)
	r := &stock.Repo{DB: pool}

	_, err := r.Reserve(context.Background(), []market.Demand{
		{ProductID: ids[0], Quantity: 2},
		{ProductID: ids[1], Quantity: 3},
	})

	var insufficient *market.InsufficientStockError
	require.ErrorAs(t, err, &insufficient)
	assert.Equal(t, ids[1], insufficient.ProductID)

	// The first demand validated fine but the rollback must cover it too.
	assert.Equal(t, 5, productQuantity(t, pool, ids[0]))
	assert.Equal(t, 1, productQuantity(t, pool, ids[1]))
}

func TestReserveUnknownProduct(t *testing.T) {
	pool := testPool(t)
	r := &stock.Repo{DB: pool}

	_, err := r.Reserve(context.Background(), []market.Demand{{ProductID: -1, Quantity: 1}})

	assert.ErrorIs(t, err, market.ErrNotFound)
}

func TestReleaseRestores(t *testing.T) {
	pool := testPool(t)
	ids := seedProducts(t, pool, 5)
	r := &stock.Repo{DB: pool}

	demands := []market.Demand{{ProductID: ids[0], Quantity: 4}}
	_, err := r.Reserve(context.Background(), demands)
	require.NoError(t, err)
	require.NoError(t, r.Release(context.Background(), demands))

	assert.Equal(t, 5, productQuantity(t, pool, ids[0]))
}

// Two overlapping reservations for 3 of a quantity-5 product: the row lock
// must let exactly one through.
func TestReserveConcurrentNoOversell(t *testing.T) {
	pool := testPool(t)
	ids := seedProducts(t, pool, 5)
	r := &stock.Repo{DB: pool}

	errs := make(chan error, 2)
	var wg sync.WaitGroup
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := r.Reserve(context.Background(), []market.Demand{{ProductID: ids[0], Quantity: 3}})
			errs <- err
		}()
	}
	wg.Wait()
	close(errs)

	var ok, insufficient int
	for err := range errs {
		if err == nil {
			ok++
			continue
		}
		var ise *market.InsufficientStockError
		if assert.ErrorAs(t, err, &ise) {
			insufficient++
		}
	}
	assert.Equal(t, 1, ok)
	assert.Equal(t, 1, insufficient)
	assert.Equal(t, 2, productQuantity(t, pool, ids[0]))
}
