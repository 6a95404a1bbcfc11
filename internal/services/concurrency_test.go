package services_test

import (
	"context"
	"errors"
	"path/filepath"
	"sync"
	"testing"

	"cafeorders/internal/domain"
	"cafeorders/internal/repos"
	"cafeorders/internal/services"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func filedb(t *testing.T) *fixture {
	t.Helper()
	db, err := repos.OpenDB("sqlite", filepath.Join(t.TempDir(), "cafe.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return fixtureOn(t, db)
}

func TestConcurrentCreatesOnFileDB(t *testing.T) {
	f := filedb(t)
	const n = 20

	errs := make([]error, n)
	var wg sync.WaitGroup
	for i := range n {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, errs[i] = f.svc.Create(context.Background(), services.CreateOrder{
				Owner:         student,
				PaymentMethod: domain.PayCash,
				Items:         []services.OrderLine{{ProductID: f.latte.ID, Quantity: 1}},
			})
		}()
	}
	wg.Wait()

	for i, err := range errs {
		assert.NoError(t, err, "create #%d", i)
	}
	orders, items, err := f.orders.Counts(context.Background())
	require.NoError(t, err)
	assert.Equal(t, n, orders)
	assert.Equal(t, n, items)
}

func TestConcurrentStatusUpdatesNeverFailInStore(t *testing.T) {
	f := filedb(t)
	o := f.place(t, services.CreateOrder{
		Owner:         student,
		PaymentMethod: domain.PayCash,
		Items:         []services.OrderLine{{ProductID: f.muffin.ID, Quantity: 2}},
	})

	targets := []domain.OrderStatus{domain.StatusConfirmed, domain.StatusCompleted, domain.StatusCancelled}
	const n = 12
	errs := make([]error, n)
	var wg sync.WaitGroup
	for i := range n {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, errs[i] = f.svc.UpdateStatus(context.Background(), o.ID, services.UpdateStatus{Status: targets[i%len(targets)]})
		}()
	}
	wg.Wait()

	applied := 0
	for i, err := range errs {
		if err == nil {
			applied++
			continue
		}
		assert.True(t, errors.Is(err, domain.ErrInvalidTransition), "update #%d: %v", i, err)
	}
	assert.GreaterOrEqual(t, applied, 1)

	got, err := f.svc.Get(context.Background(), o.ID)
	require.NoError(t, err)
	assert.NotEqual(t, domain.StatusPending, got.Status)
}
