package cart_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/minjae-dev/gomarket/internal/cart"
	"github.com/minjae-dev/gomarket/internal/market"
)

type fakeEntries struct {
	entries []market.CartEntry
	err     error
}

func (f *fakeEntries) ListEntries(_ context.Context, _ int64) ([]market.CartEntry, error) {
	return f.entries, f.err
}

type fakeProducts struct {
	products map[int64]*market.Product
	err      error
}

func (f *fakeProducts) Get(_ context.Context, id int64) (*market.Product, error) {
	if f.err != nil {
		return nil, f.err
	}
	p, ok := f.products[id]
	if !ok {
		return nil, market.ErrNotFound
	}
	return p, nil
}

func TestLoadCartMergesProductFields(t *testing.T) {
	r := &cart.Reader{
		Entries: &fakeEntries{entries: []market.CartEntry{
			{UserID: 1, ProductID: 10, Quantity: 2},
			{UserID: 1, ProductID: 20, Quantity: 1},
		}},
		Products: &fakeProducts{products: map[int64]*market.Product{
			10: {ID: 10, Name: "lamp", Price: 1000, ImageURLs: []string{"img/lamp.jpg"}},
			20: {ID: 20, Name: "desk", Price: 5000},
		}},
	}

	items, err := r.LoadCart(context.Background(), 1)

	require.NoError(t, err)
	require.Len(t, items, 2)
	assert.Equal(t, market.LineItem{
		ProductID: 10, Quantity: 2, Name: "lamp", Price: 1000, ImageURL: "img/lamp.jpg", Merged: true,
	}, items[0])
	assert.Equal(t, "desk", items[1].Name)
	assert.Empty(t, items[1].ImageURL)
	assert.True(t, items[1].Merged)
}

func TestLoadCartDegradedWhenProductGone(t *testing.T) {
	r := &cart.Reader{
		Entries: &fakeEntries{entries: []market.CartEntry{
			{UserID: 1, ProductID: 10, Quantity: 2},
			{UserID: 1, ProductID: 99, Quantity: 3},
		}},
		Products: &fakeProducts{products: map[int64]*market.Product{
			10: {ID: 10, Name: "lamp", Price: 1000},
		}},
	}

	items, err := r.LoadCart(context.Background(), 1)

	require.NoError(t, err)
	require.Len(t, items, 2)
	assert.True(t, items[0].Merged)

	// The missing product degrades its own line only.
	assert.Equal(t, market.LineItem{ProductID: 99, Quantity: 3}, items[1])
}

func TestLoadCartPropagatesStoreError(t *testing.T) {
	boom := errors.New("connection reset")
	r := &cart.Reader{
		Entries:  &fakeEntries{entries: []market.CartEntry{{ProductID: 10, Quantity: 1}}},
		Products: &fakeProducts{err: boom},
	}

	_, err := r.LoadCart(context.Background(), 1)

	assert.ErrorIs(t, err, boom)
}

func TestLoadCartEmpty(t *testing.T) {
	r := &cart.Reader{Entries: &fakeEntries{}, Products: &fakeProducts{}}

	items, err := r.LoadCart(context.Background(), 1)

	require.NoError(t, err)
	assert.Empty(t, items)
}
