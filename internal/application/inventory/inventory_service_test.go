package inventory

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/pharmacore/backend/internal/domain/inventory"
	"github.com/pharmacore/backend/internal/domain/shared"
	"github.com/pharmacore/backend/internal/domain/shared/valueobject"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type fixture struct {
	products   *fakeProductRepo
	lots       *fakeLotRepo
	movements  *fakeMovementRepo
	bus        *fakeEventBus
	service    *InventoryService
	pharmacyID uuid.UUID
	now        time.Time
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{
		products:   newFakeProductRepo(),
		lots:       newFakeLotRepo(),
		movements:  newFakeMovementRepo(),
		bus:        &fakeEventBus{},
		pharmacyID: uuid.New(),
		now:        time.Date(2024, 12, 1, 12, 0, 0, 0, time.UTC),
	}
	scope := NewNoOpTransactionScope(f.products, f.lots, f.movements)
	f.service = NewInventoryService(scope, inventory.NewStockService(), f.bus, zap.NewNop()).
		WithClock(func() time.Time { return f.now })
	return f
}

func (f *fixture) seedProduct(t *testing.T, minStock int) *inventory.Product {
	t.Helper()
	product, err := inventory.NewProduct(f.pharmacyID, "Ibuprofen 200mg", "IBU-200", valueobject.NewMoneyUSDFromFloat(6.50), minStock)
	require.NoError(t, err)
	require.NoError(t, f.products.Save(context.Background(), product))
	return product
}

func (f *fixture) storedProduct(t *testing.T, id uuid.UUID) *inventory.Product {
	t.Helper()
	product, err := f.products.FindByID(context.Background(), id)
	require.NoError(t, err)
	require.NotNil(t, product)
	return product
}

func (f *fixture) receive(t *testing.T, product *inventory.Product, lotNumber string, quantity int, expiry *time.Time) *LotResult {
	t.Helper()
	result, err := f.service.ReceiveLot(context.Background(), "pharmacist-1", ReceiveLotCommand{
		ProductID:    product.ID,
		PharmacyID:   f.pharmacyID,
		LotNumber:    lotNumber,
		Quantity:     quantity,
		UnitCost:     valueobject.NewMoneyUSDFromFloat(2.10),
		ExpiryDate:   expiry,
		ReceivedDate: f.now,
	})
	require.NoError(t, err)
	return result
}

func TestReceiveLot(t *testing.T) {
	ctx := context.Background()

	t.Run("creates the lot and raises the product stock", func(t *testing.T) {
		f := newFixture(t)
		product := f.seedProduct(t, 5)
		expiry := f.now.AddDate(1, 0, 0)

		result := f.receive(t, product, "L-001", 30, &expiry)

		assert.Equal(t, 30, result.Quantity)
		assert.Equal(t, inventory.LotStatusActive, result.Status)
		assert.Equal(t, 30, f.storedProduct(t, product.ID).StockQuantity)

		movements, err := f.movements.FindByLot(ctx, result.LotID, shared.DefaultFilter())
		require.NoError(t, err)
		require.Len(t, movements, 1)
		assert.Equal(t, inventory.MovementKindEntry, movements[0].Kind)
		assert.Equal(t, 0, movements[0].BalanceBefore)
		assert.Equal(t, 30, movements[0].BalanceAfter)

		assert.Len(t, f.bus.published(inventory.EventTypeLotReceived), 1)
	})

	t.Run("accumulates across receipts", func(t *testing.T) {
		f := newFixture(t)
		product := f.seedProduct(t, 5)

		f.receive(t, product, "L-001", 30, nil)
		f.receive(t, product, "L-002", 20, nil)

		assert.Equal(t, 50, f.storedProduct(t, product.ID).StockQuantity)
	})

	t.Run("rejects non-positive quantity", func(t *testing.T) {
		f := newFixture(t)
		product := f.seedProduct(t, 5)

		_, err := f.service.ReceiveLot(ctx, "pharmacist-1", ReceiveLotCommand{
			ProductID:    product.ID,
			PharmacyID:   f.pharmacyID,
			LotNumber:    "L-001",
			Quantity:     0,
			ReceivedDate: f.now,
		})
		assert.ErrorIs(t, err, shared.ErrInvalidQuantity)
	})

	t.Run("rejects a mismatched pharmacy", func(t *testing.T) {
		f := newFixture(t)
		product := f.seedProduct(t, 5)

		_, err := f.service.ReceiveLot(ctx, "pharmacist-1", ReceiveLotCommand{
			ProductID:    product.ID,
			PharmacyID:   uuid.New(),
			LotNumber:    "L-001",
			Quantity:     10,
			ReceivedDate: f.now,
		})
		assert.ErrorIs(t, err, shared.ErrProductNotFound)
	})
}

func TestAdjustLot(t *testing.T) {
	ctx := context.Background()

	t.Run("applies a negative correction", func(t *testing.T) {
		f := newFixture(t)
		product := f.seedProduct(t, 5)
		lot := f.receive(t, product, "L-001", 30, nil)

		result, err := f.service.AdjustLot(ctx, "pharmacist-1", AdjustLotCommand{
			LotID:  lot.LotID,
			Delta:  -4,
			Reason: "broken blister packs",
		})
		require.NoError(t, err)

		assert.Equal(t, 26, result.Quantity)
		assert.Equal(t, 26, f.storedProduct(t, product.ID).StockQuantity)

		movements, err := f.movements.FindByLot(ctx, lot.LotID, shared.DefaultFilter())
		require.NoError(t, err)
		require.Len(t, movements, 2)
		assert.Equal(t, inventory.MovementKindAdjustment, movements[1].Kind)
		assert.Equal(t, 4, movements[1].Quantity)

		assert.Len(t, f.bus.published(inventory.EventTypeStockAdjusted), 1)
	})

	t.Run("requires a reason", func(t *testing.T) {
		f := newFixture(t)
		product := f.seedProduct(t, 5)
		lot := f.receive(t, product, "L-001", 30, nil)

		_, err := f.service.AdjustLot(ctx, "pharmacist-1", AdjustLotCommand{LotID: lot.LotID, Delta: -4})
		var domainErr *shared.DomainError
		require.ErrorAs(t, err, &domainErr)
		assert.Equal(t, "INVALID_REASON", domainErr.Code)
		assert.Equal(t, 30, f.storedProduct(t, product.ID).StockQuantity)
	})

	t.Run("never drives a lot below zero", func(t *testing.T) {
		f := newFixture(t)
		product := f.seedProduct(t, 5)
		lot := f.receive(t, product, "L-001", 30, nil)

		_, err := f.service.AdjustLot(ctx, "pharmacist-1", AdjustLotCommand{
			LotID:  lot.LotID,
			Delta:  -31,
			Reason: "count correction",
		})
		assert.ErrorIs(t, err, shared.ErrInvalidQuantity)
		assert.Equal(t, 30, f.storedProduct(t, product.ID).StockQuantity)
	})

	t.Run("publishes a low stock warning when the correction crosses the threshold", func(t *testing.T) {
		f := newFixture(t)
		product := f.seedProduct(t, 25)
		lot := f.receive(t, product, "L-001", 30, nil)

		_, err := f.service.AdjustLot(ctx, "pharmacist-1", AdjustLotCommand{
			LotID:  lot.LotID,
			Delta:  -10,
			Reason: "damaged in transit",
		})
		require.NoError(t, err)
		assert.Len(t, f.bus.published(inventory.EventTypeStockBelowThreshold), 1)
	})
}

func TestRecallLot(t *testing.T) {
	ctx := context.Background()

	t.Run("removes the remaining quantity and deactivates the lot", func(t *testing.T) {
		f := newFixture(t)
		product := f.seedProduct(t, 5)
		lot := f.receive(t, product, "L-001", 30, nil)
		f.receive(t, product, "L-002", 20, nil)

		result, err := f.service.RecallLot(ctx, "pharmacist-1", RecallLotCommand{
			LotID:  lot.LotID,
			Reason: "manufacturer recall",
		})
		require.NoError(t, err)

		assert.Equal(t, inventory.LotStatusRecalled, result.Status)
		assert.Equal(t, 20, f.storedProduct(t, product.ID).StockQuantity)
		assert.Len(t, f.bus.published(inventory.EventTypeLotRecalled), 1)
	})

	t.Run("a second recall fails", func(t *testing.T) {
		f := newFixture(t)
		product := f.seedProduct(t, 5)
		lot := f.receive(t, product, "L-001", 30, nil)

		_, err := f.service.RecallLot(ctx, "pharmacist-1", RecallLotCommand{LotID: lot.LotID, Reason: "recall"})
		require.NoError(t, err)

		_, err = f.service.RecallLot(ctx, "pharmacist-1", RecallLotCommand{LotID: lot.LotID, Reason: "recall"})
		assert.ErrorIs(t, err, shared.ErrAlreadyProcessed)
	})
}

func TestExpireStaleLots(t *testing.T) {
	ctx := context.Background()

	t.Run("writes stale lots out of the aggregate", func(t *testing.T) {
		f := newFixture(t)
		product := f.seedProduct(t, 2)
		soon := f.now.AddDate(0, 0, 10)
		far := f.now.AddDate(1, 0, 0)
		stale := f.receive(t, product, "L-EXP", 4, &soon)
		f.receive(t, product, "L-OK", 10, &far)
		require.Equal(t, 14, f.storedProduct(t, product.ID).StockQuantity)

		f.now = f.now.AddDate(0, 0, 20)

		results, err := f.service.ExpireStaleLots(ctx, "system", product.ID)
		require.NoError(t, err)
		require.Len(t, results, 1)
		assert.Equal(t, stale.LotID, results[0].LotID)
		assert.Equal(t, inventory.LotStatusExpired, results[0].Status)
		assert.Equal(t, 10, f.storedProduct(t, product.ID).StockQuantity)

		movements, err := f.movements.FindByLot(ctx, stale.LotID, shared.DefaultFilter())
		require.NoError(t, err)
		require.Len(t, movements, 2)
		assert.Equal(t, inventory.MovementKindAdjustment, movements[1].Kind)
		assert.Equal(t, 4, movements[1].Quantity)
		assert.Equal(t, "expiry", movements[1].ReferenceType)

		assert.Len(t, f.bus.published(inventory.EventTypeLotExpired), 1)
	})

	t.Run("second pass finds nothing to write down", func(t *testing.T) {
		f := newFixture(t)
		product := f.seedProduct(t, 2)
		soon := f.now.AddDate(0, 0, 10)
		f.receive(t, product, "L-EXP", 4, &soon)

		f.now = f.now.AddDate(0, 0, 20)
		_, err := f.service.ExpireStaleLots(ctx, "system", product.ID)
		require.NoError(t, err)

		results, err := f.service.ExpireStaleLots(ctx, "system", product.ID)
		require.NoError(t, err)
		assert.Empty(t, results)
		assert.Equal(t, 0, f.storedProduct(t, product.ID).StockQuantity)
	})
}

func TestInventoryQueries(t *testing.T) {
	ctx := context.Background()

	t.Run("low stock listing", func(t *testing.T) {
		f := newFixture(t)
		low := f.seedProduct(t, 40)
		f.receive(t, low, "L-001", 30, nil)
		healthy := f.seedProduct(t, 5)
		f.receive(t, healthy, "L-002", 30, nil)

		results, err := f.service.ListLowStock(ctx, f.pharmacyID)
		require.NoError(t, err)
		require.Len(t, results, 1)
		assert.Equal(t, low.ID, results[0].ProductID)
		assert.True(t, results[0].LowStock)
	})

	t.Run("expiring lots listing", func(t *testing.T) {
		f := newFixture(t)
		product := f.seedProduct(t, 5)
		soon := f.now.AddDate(0, 0, 20)
		far := f.now.AddDate(1, 0, 0)
		expiring := f.receive(t, product, "L-SOON", 10, &soon)
		f.receive(t, product, "L-FAR", 10, &far)

		results, err := f.service.ListExpiringLots(ctx, f.pharmacyID, 30*24*time.Hour)
		require.NoError(t, err)
		require.Len(t, results, 1)
		assert.Equal(t, expiring.LotID, results[0].LotID)
	})

	t.Run("movement log by reference", func(t *testing.T) {
		f := newFixture(t)
		product := f.seedProduct(t, 5)
		lot := f.receive(t, product, "L-001", 30, nil)

		results, err := f.service.ListReferenceMovements(ctx, "lot_receipt", lot.LotID.String())
		require.NoError(t, err)
		require.Len(t, results, 1)
		assert.Equal(t, inventory.MovementKindEntry, results[0].Kind)
	})

	t.Run("product stock read", func(t *testing.T) {
		f := newFixture(t)
		product := f.seedProduct(t, 5)
		f.receive(t, product, "L-001", 30, nil)

		result, err := f.service.GetProductStock(ctx, product.ID)
		require.NoError(t, err)
		assert.Equal(t, 30, result.StockQuantity)
		assert.False(t, result.LowStock)

		_, err = f.service.GetProductStock(ctx, uuid.New())
		assert.ErrorIs(t, err, shared.ErrProductNotFound)
	})
}
