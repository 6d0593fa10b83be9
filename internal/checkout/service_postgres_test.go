//go:build postgres

package checkout

import (
	"context"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/refurbmart/refurbmart-backend/internal/dbtest"
	"github.com/refurbmart/refurbmart-backend/pkg/auth"
	"github.com/refurbmart/refurbmart-backend/pkg/db/models"
	"github.com/refurbmart/refurbmart-backend/pkg/enums"
	pkgerrors "github.com/refurbmart/refurbmart-backend/pkg/errors"
)

// Run with: REFURBMART_TEST_DATABASE_URL=postgres://... go test -tags postgres ./internal/checkout/

func TestPostgresLastUnitRace(t *testing.T) {
	f := newCheckoutFixtureOn(t, dbtest.NewPostgres(t))
	assertLastUnitRace(t, f, 8)
}

func TestPostgresCartCheckoutsOversellNothing(t *testing.T) {
	f := newCheckoutFixtureOn(t, dbtest.NewPostgres(t))
	ctx := context.Background()
	a := f.product(t, f.seller, 1000, 3)
	b := f.product(t, f.seller, 2000, 3)

	buyers := make([]auth.Actor, 6)
	for i := range buyers {
		buyers[i] = auth.Actor{AccountID: uuid.New(), Role: enums.AccountRoleBuyer}
		// Opposite insertion order per buyer so lock acquisition would
		// deadlock without the id ordering in LockByIDs.
		first, second := a, b
		if i%2 == 1 {
			first, second = b, a
		}
		for _, p := range []*models.Product{first, second} {
			require.NoError(t, f.cartRepo.Upsert(ctx, &models.CartItem{BuyerID: buyers[i].AccountID, ProductID: p.ID, Quantity: 1}))
		}
	}

	errs := make([]error, len(buyers))
	start := make(chan struct{})
	var wg sync.WaitGroup
	for i, buyer := range buyers {
		wg.Add(1)
		go func(i int, buyer auth.Actor) {
			defer wg.Done()
			<-start
			_, errs[i] = f.svc.Checkout(ctx, buyer, Input{UseCart: true, Shipping: shipping(), PaymentMethod: enums.PaymentMethodDemo})
		}(i, buyer)
	}
	close(start)
	wg.Wait()

	succeeded := 0
	for _, err := range errs {
		if err == nil {
			succeeded++
			continue
		}
		assert.True(t,
			pkgerrors.Is(err, pkgerrors.CodeProductUnavailable) || pkgerrors.Is(err, pkgerrors.CodeInsufficientStock),
			"loser got %v", err)
	}
	assert.Equal(t, 3, succeeded)
	assert.Equal(t, int64(3), f.countOrders(t))

	for _, p := range []*models.Product{a, b} {
		after, err := f.products.FindByID(ctx, p.ID)
		require.NoError(t, err)
		assert.Equal(t, 0, after.QuantityAvailable)
		assert.Equal(t, enums.ProductStatusSold, after.Status)
	}
}
