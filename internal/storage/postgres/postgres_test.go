//go:build integration

package postgres_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	testpostgres "github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/xenking/cashier/internal/domain/order"
	"github.com/xenking/cashier/internal/domain/stock"
	"github.com/xenking/cashier/internal/storage/postgres"
)

func setupTestDB(t *testing.T) *pgxpool.Pool {
	t.Helper()
	ctx := context.Background()

	pgContainer, err := testpostgres.Run(ctx,
		"postgres:16-alpine",
		testpostgres.WithDatabase("test"),
		testpostgres.WithUsername("test"),
		testpostgres.WithPassword("test"),
		testpostgres.BasicWaitStrategies(),
		testcontainers.WithWaitStrategy(wait.ForLog("database system is ready to accept connections").WithOccurrence(2)),
	)
	require.NoError(t, err, "start postgres container")

	t.Cleanup(func() {
		if err := pgContainer.Terminate(ctx); err != nil {
			t.Logf("failed to terminate container: %v", err)
		}
	})

	connStr, err := pgContainer.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	require.NoError(t, postgres.RunMigrations(connStr))
	// Applying twice is a no-op.
	require.NoError(t, postgres.RunMigrations(connStr))

	pool, err := postgres.NewPool(ctx, connStr)
	require.NoError(t, err)
	t.Cleanup(pool.Close)

	return pool
}

func d(v string) decimal.Decimal {
	return decimal.RequireFromString(v)
}

func TestStockRepository(t *testing.T) {
	ctx := context.Background()
	repo := postgres.NewStockRepository(setupTestDB(t))

	require.NoError(t, repo.UpsertBatch(ctx, []stock.Product{
		{Code: "B2", Description: "Gadget", Price: d("5.00"), Available: 1},
		{Code: "A1", Description: "Widget", Price: d("10.00"), Available: 3},
	}))

	p, err := repo.Lookup(ctx, "A1")
	require.NoError(t, err)
	assert.Equal(t, "Widget", p.Description)
	assert.True(t, d("10.00").Equal(p.Price))
	assert.Equal(t, 3, p.Available)

	_, err = repo.Lookup(ctx, "Z9")
	require.ErrorIs(t, err, stock.ErrNotFound)

	ok, err := repo.Buy(ctx, "A1", 2)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = repo.Buy(ctx, "A1", 2)
	require.NoError(t, err)
	assert.False(t, ok)

	_, err = repo.Buy(ctx, "Z9", 1)
	require.ErrorIs(t, err, stock.ErrNotFound)

	require.NoError(t, repo.Upsert(ctx, stock.Product{Code: "B2", Description: "Gadget Pro", Price: d("6.50"), Available: 4}))

	list, err := repo.List(ctx)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "A1", list[0].Code)
	assert.Equal(t, 1, list[0].Available)
	assert.Equal(t, "Gadget Pro", list[1].Description)
	assert.True(t, d("6.50").Equal(list[1].Price))
}

func TestStockRepository_ConcurrentBuyDoesNotOversell(t *testing.T) {
	ctx := context.Background()
	repo := postgres.NewStockRepository(setupTestDB(t))
	require.NoError(t, repo.Upsert(ctx, stock.Product{Code: "A1", Description: "Widget", Price: d("1"), Available: 5}))

	var (
		wg   sync.WaitGroup
		mu   sync.Mutex
		sold int
	)
	for range 20 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			ok, err := repo.Buy(ctx, "A1", 1)
			assert.NoError(t, err)
			if ok {
				mu.Lock()
				sold++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 5, sold)
	p, err := repo.Lookup(ctx, "A1")
	require.NoError(t, err)
	assert.Equal(t, 0, p.Available)
}

func TestOrderRepository(t *testing.T) {
	ctx := context.Background()
	repo := postgres.NewOrderRepository(setupTestDB(t))

	n1, err := repo.NextNumber(ctx)
	require.NoError(t, err)
	n2, err := repo.NextNumber(ctx)
	require.NoError(t, err)
	assert.Equal(t, n1+1, n2)

	created := time.Date(2025, 6, 15, 12, 0, 0, 0, time.UTC)
	o := &order.Order{
		ID:     "6f1c2a8e-3f5b-4d0e-9c51-2b8f7f0d9a11",
		Number: n1,
		Items: []order.Item{
			{ProductCode: "A1", Description: "Widget", UnitPrice: d("10.00"), Quantity: 2},
		},
		Subtotal:  d("20.00"),
		Discount:  d("2.00"),
		Total:     d("18.00"),
		CreatedAt: created,
	}
	require.NoError(t, repo.Create(ctx, o))

	dup := *o
	dup.ID = "0b6d1f6c-8a57-4b8e-8d2e-5a3c6f9e7b20"
	require.Error(t, repo.Create(ctx, &dup), "order number is unique")

	orders, err := repo.List(ctx)
	require.NoError(t, err)
	require.Len(t, orders, 1)
	got := orders[0]
	assert.Equal(t, o.ID, got.ID)
	assert.Equal(t, n1, got.Number)
	assert.True(t, d("18.00").Equal(got.Total))
	assert.True(t, d("2.00").Equal(got.Discount))
	assert.True(t, created.Equal(got.CreatedAt))
	require.Len(t, got.Items, 1)
	assert.Equal(t, "A1", got.Items[0].ProductCode)
	assert.True(t, d("10.00").Equal(got.Items[0].UnitPrice))
}
