package repository

import (
	"context"
	"sync"
	"testing"

	"github.com/nakshstore/naksh-api/models"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newProduct(t *testing.T, store *MemoryStore, stock uint) models.Product {
	t.Helper()
	product := models.Product{
		Name:          "Widget",
		SellingPrice:  decimal.RequireFromString("10.00"),
		GSTPercentage: decimal.RequireFromString("18"),
		Stock:         stock,
		IsActive:      true,
	}
	require.NoError(t, store.CreateProduct(context.Background(), &product))
	return product
}

// N concurrent single-unit decrements against stock N-1: exactly N-1 succeed
// and stock never goes negative.
func TestReserveAndDecrementConcurrent(t *testing.T) {
	const n = 10
	store := NewMemoryStore()
	product := newProduct(t, store, n-1)
	ctx := context.Background()

	var wg sync.WaitGroup
	results := make(chan error, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			results <- store.ReserveAndDecrement(ctx, []StockLine{{ProductID: product.ID, Quantity: 1}})
		}()
	}
	wg.Wait()
	close(results)

	succeeded, failed := 0, 0
	for err := range results {
		if err == nil {
			succeeded++
			continue
		}
		failed++
		var oos *OutOfStockError
		require.ErrorAs(t, err, &oos)
		assert.Equal(t, 0, oos.Available)
	}
	assert.Equal(t, n-1, succeeded)
	assert.Equal(t, 1, failed)

	current, err := store.GetProduct(ctx, product.ID)
	require.NoError(t, err)
	assert.Equal(t, uint(0), current.Stock)
}

// A multi-item batch must decrement every line or none.
func TestReserveAndDecrementAllOrNothing(t *testing.T) {
	store := NewMemoryStore()
	plenty := newProduct(t, store, 5)
	scarce := newProduct(t, store, 1)
	ctx := context.Background()

	err := store.ReserveAndDecrement(ctx, []StockLine{
		{ProductID: plenty.ID, Quantity: 2},
		{ProductID: scarce.ID, Quantity: 2},
	})

	var oos *OutOfStockError
	require.ErrorAs(t, err, &oos)
	assert.Equal(t, scarce.ID, oos.ProductID)

	p1, _ := store.GetProduct(ctx, plenty.ID)
	p2, _ := store.GetProduct(ctx, scarce.ID)
	assert.Equal(t, uint(5), p1.Stock, "no partial decrement may survive")
	assert.Equal(t, uint(1), p2.Stock)
}

func TestReserveAndDecrementMergesDuplicateLines(t *testing.T) {
	store := NewMemoryStore()
	product := newProduct(t, store, 3)
	ctx := context.Background()

	err := store.ReserveAndDecrement(ctx, []StockLine{
		{ProductID: product.ID, Quantity: 2},
		{ProductID: product.ID, Quantity: 2},
	})
	var oos *OutOfStockError
	require.ErrorAs(t, err, &oos)
	assert.Equal(t, 4, oos.Requested)

	require.NoError(t, store.ReserveAndDecrement(ctx, []StockLine{
		{ProductID: product.ID, Quantity: 1},
		{ProductID: product.ID, Quantity: 2},
	}))
	current, _ := store.GetProduct(ctx, product.ID)
	assert.Equal(t, uint(0), current.Stock)
}

func TestDecrementClamped(t *testing.T) {
	store := NewMemoryStore()
	product := newProduct(t, store, 1)
	ctx := context.Background()

	shortfalls, err := store.DecrementClamped(ctx, []StockLine{{ProductID: product.ID, Quantity: 3}})
	require.NoError(t, err)

	require.Len(t, shortfalls, 1)
	assert.Equal(t, product.ID, shortfalls[0].ProductID)
	assert.Equal(t, 3, shortfalls[0].Requested)
	assert.Equal(t, 1, shortfalls[0].Decremented)

	current, _ := store.GetProduct(ctx, product.ID)
	assert.Equal(t, uint(0), current.Stock)
}

func TestTransitionStatusIsGuarded(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	order := &models.Order{
		OrderNumber: "ORD-20260801-abc123",
		UserID:      1,
		Status:      models.OrderStatusPending,
	}
	require.NoError(t, store.Create(ctx, order))

	ok, err := store.TransitionStatus(ctx, order.ID, models.OrderStatusPending, models.OrderStatusConfirmed)
	require.NoError(t, err)
	assert.True(t, ok)

	// The losing side of a race observes no matching row and must not win.
	ok, err = store.TransitionStatus(ctx, order.ID, models.OrderStatusPending, models.OrderStatusCancelled)
	require.NoError(t, err)
	assert.False(t, ok)

	saved, err := store.GetByID(ctx, order.ID)
	require.NoError(t, err)
	assert.Equal(t, models.OrderStatusConfirmed, saved.Status)
}

func TestConfirmWithPaymentOneShot(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	order := &models.Order{
		OrderNumber: "ORD-20260801-def456",
		UserID:      1,
		Status:      models.OrderStatusPending,
	}
	require.NoError(t, store.Create(ctx, order))

	ok, err := store.ConfirmWithPayment(ctx, order.ID, "pay_1")
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = store.ConfirmWithPayment(ctx, order.ID, "pay_2")
	require.NoError(t, err)
	assert.False(t, ok)

	saved, _ := store.GetByID(ctx, order.ID)
	require.NotNil(t, saved.PaymentID)
	assert.Equal(t, "pay_1", *saved.PaymentID)
}

func TestOrderNumberUniqueness(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	first := &models.Order{OrderNumber: "ORD-20260801-same", Status: models.OrderStatusPending}
	require.NoError(t, store.Create(ctx, first))

	second := &models.Order{OrderNumber: "ORD-20260801-same", Status: models.OrderStatusPending}
	assert.ErrorIs(t, store.Create(ctx, second), ErrDuplicateKey)
}

func TestSetGatewayOrderIDSetOnce(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	order := &models.Order{OrderNumber: "ORD-20260801-gw1", Status: models.OrderStatusPending}
	require.NoError(t, store.Create(ctx, order))

	require.NoError(t, store.SetGatewayOrderID(ctx, order.ID, "order_gw_1"))
	assert.Error(t, store.SetGatewayOrderID(ctx, order.ID, "order_gw_2"))

	saved, err := store.GetByGatewayOrderID(ctx, "order_gw_1")
	require.NoError(t, err)
	assert.Equal(t, order.ID, saved.ID)
}

func TestGetActiveAddressPrefersDefault(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	older := models.Address{UserID: 1, Line1: "old", City: "Pune", State: "MH", Pincode: "411001", IsActive: true, IsDefault: true}
	require.NoError(t, store.CreateAddress(ctx, &older))
	newer := models.Address{UserID: 1, Line1: "new", City: "Pune", State: "MH", Pincode: "411002", IsActive: true}
	require.NoError(t, store.CreateAddress(ctx, &newer))

	active, err := store.GetActiveAddress(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, older.ID, active.ID)

	_, err = store.GetActiveAddress(ctx, 2)
	assert.ErrorIs(t, err, ErrNotFound)
}
