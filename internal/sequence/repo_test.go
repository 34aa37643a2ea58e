package sequence_test

import (
	"context"
	"fmt"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/minjae-dev/gomarket/internal/market"
	"github.com/minjae-dev/gomarket/internal/postgres"
	"github.com/minjae-dev/gomarket/internal/sequence"
)

// These tests run against a migrated database; set TEST_POSTGRES_DSN to
// enable them.
func testRepo(t *testing.T) *sequence.Repo {
	t.Helper()
	dsn := os.Getenv("TEST_POSTGRES_DSN")
	if dsn == "" {
		t.Skip("TEST_POSTGRES_DSN not set")
	}
	pool, err := postgres.Connect(context.Background(), dsn)
	require.NoError(t, err)
	t.Cleanup(pool.Close)
	return &sequence.Repo{DB: pool}
}

func tempCounter(t *testing.T, r *sequence.Repo, start int64) string {
	t.Helper()
	name := fmt.Sprintf("test_counter_%d", time.Now().UnixNano())
	_, err := r.DB.Exec(context.Background(),
		`INSERT INTO counters(name, count) VALUES ($1, $2)`, name, start)
	require.NoError(t, err)
	t.Cleanup(func() {
		_, _ = r.DB.Exec(context.Background(), `DELETE FROM counters WHERE name = $1`, name)
	})
	return name
}

func TestRepoNextSequential(t *testing.T) {
	r := testRepo(t)
	name := tempCounter(t, r, 0)

	for want := int64(1); want <= 3; want++ {
		got, err := r.Next(context.Background(), name)
		require.NoError(t, err)
		assert.Equal(t, want, got)
	}
}

func TestRepoNextMissingCounter(t *testing.T) {
	r := testRepo(t)

	_, err := r.Next(context.Background(), "never_provisioned")

	assert.ErrorIs(t, err, market.ErrCounterMissing)
}

// Concurrent callers hit the same counter row; the row lock must hand out
// pairwise distinct values forming a contiguous range.
func TestRepoNextConcurrentUnique(t *testing.T) {
	r := testRepo(t)
	name := tempCounter(t, r, 100)

	const callers = 8
	ids := make(chan int64, callers)
	var wg sync.WaitGroup
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			id, err := r.Next(context.Background(), name)
			assert.NoError(t, err)
			ids <- id
		}()
	}
	wg.Wait()
	close(ids)

	seen := map[int64]bool{}
	for id := range ids {
		assert.False(t, seen[id], "id %d issued twice", id)
		seen[id] = true
	}
	for want := int64(101); want <= 100+callers; want++ {
		assert.True(t, seen[want], "id %d missing from range", want)
	}
}
