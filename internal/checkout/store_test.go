package checkout_test

import (
	"context"
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/minjae-dev/gomarket/internal/checkout"
	"github.com/minjae-dev/gomarket/internal/market"
	"github.com/minjae-dev/gomarket/internal/postgres"
)

// These tests run against a migrated database; set TEST_POSTGRES_DSN to
// enable them.
func storePool(t *testing.T) *pgxpool.Pool {
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

// A second insert with the same external id must not create a second order:
// the stored order comes back with existed=true.
func TestInsertDuplicateExternalID(t *testing.T) {
	pool := storePool(t)
	ctx := context.Background()
	base := time.Now().UnixNano()

	buyerID := base
	_, err := pool.Exec(ctx, `
		INSERT INTO users(id, email, username, password_hash, is_seller)
		VALUES ($1, $2, 'seed-buyer', 'x', FALSE)`,
		buyerID, fmt.Sprintf("buyer%d@seed.test", base))
	require.NoError(t, err)
	t.Cleanup(func() {
		_, _ = pool.Exec(ctx, `DELETE FROM order_items WHERE order_id IN (SELECT id FROM orders WHERE buyer_id = $1)`, buyerID)
		_, _ = pool.Exec(ctx, `DELETE FROM orders WHERE buyer_id = $1`, buyerID)
		_, _ = pool.Exec(ctx, `DELETE FROM users WHERE id = $1`, buyerID)
	})

	repo := &checkout.OrdersRepo{DB: pool}
	extID := fmt.Sprintf("chk-%d", base)
	first := &market.Order{
		ID:          base + 1,
		ExternalID:  extID,
		BuyerID:     buyerID,
		TotalAmount: 2000,
		Status:      market.OrderPaymentCompleted,
		Items: []market.OrderItem{
			{ProductID: base + 10, SellerID: base + 20, Name: "lamp", Price: 1000, Quantity: 2},
		},
	}
	existed, err := repo.Insert(ctx, first)
	require.NoError(t, err)
	assert.False(t, existed)

	second := &market.Order{
		ID:          base + 2,
		ExternalID:  extID,
		BuyerID:     buyerID,
		TotalAmount: 9999,
		Status:      market.OrderPaymentCompleted,
	}
	existed, err = repo.Insert(ctx, second)
	require.NoError(t, err)
	assert.True(t, existed)
	assert.Equal(t, first.ID, second.ID)
	assert.EqualValues(t, 2000, second.TotalAmount)
	require.Len(t, second.Items, 1)

	var n int
	require.NoError(t, pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM orders WHERE external_id = $1`, extID).Scan(&n))
	assert.Equal(t, 1, n)
}
