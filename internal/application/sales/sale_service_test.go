package sales

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/pharmacore/backend/internal/domain/inventory"
	"github.com/pharmacore/backend/internal/domain/sales"
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
	sales      *fakeSaleRepo
	pendings   *fakePendingSaleRepo
	bus        *fakeEventBus
	service    *SaleService
	pharmacyID uuid.UUID
	now        time.Time
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{
		products:   newFakeProductRepo(),
		lots:       newFakeLotRepo(),
		movements:  newFakeMovementRepo(),
		sales:      newFakeSaleRepo(),
		pendings:   newFakePendingSaleRepo(),
		bus:        &fakeEventBus{},
		pharmacyID: uuid.New(),
		now:        time.Date(2024, 12, 1, 12, 0, 0, 0, time.UTC),
	}
	scope := NewNoOpTransactionScope(f.products, f.lots, f.movements, f.sales, f.pendings)
	f.service = NewSaleService(scope, inventory.NewStockService(), f.bus, zap.NewNop()).
		WithClock(func() time.Time { return f.now })
	return f
}

// seedProduct stores a product with two lots, 5 units expiring soonest and
// 10 units expiring later, and an aggregate stock of 15.
func (f *fixture) seedProduct(t *testing.T, unitPrice float64) *inventory.Product {
	t.Helper()
	ctx := context.Background()
	product, err := inventory.NewProduct(f.pharmacyID, "Amoxicillin 500mg", "AMX-500", valueobject.NewMoneyUSDFromFloat(unitPrice), 3)
	require.NoError(t, err)

	soon := f.now.AddDate(0, 1, 0)
	later := f.now.AddDate(0, 6, 0)
	lotA, err := inventory.NewLot(product.ID, f.pharmacyID, "A", 5, valueobject.NewMoneyUSDFromFloat(4), &soon, f.now.AddDate(0, -2, 0), f.now)
	require.NoError(t, err)
	lotB, err := inventory.NewLot(product.ID, f.pharmacyID, "B", 10, valueobject.NewMoneyUSDFromFloat(4), &later, f.now.AddDate(0, -1, 0), f.now)
	require.NoError(t, err)

	product.StockQuantity = 15
	require.NoError(t, f.products.Save(ctx, product))
	require.NoError(t, f.lots.Save(ctx, lotA))
	require.NoError(t, f.lots.Save(ctx, lotB))
	return product
}

func (f *fixture) storedProduct(t *testing.T, id uuid.UUID) *inventory.Product {
	t.Helper()
	product, err := f.products.FindByID(context.Background(), id)
	require.NoError(t, err)
	require.NotNil(t, product)
	return product
}

func directActor() Actor { return Actor{ID: "cashier-1", TrustTier: TrustTierDirect} }
func stagedActor() Actor { return Actor{ID: "trainee-1", TrustTier: TrustTierStaged} }

func TestCreateSaleDirect(t *testing.T) {
	ctx := context.Background()

	t.Run("commits a cash sale and deducts stock first-expiry-first", func(t *testing.T) {
		f := newFixture(t)
		product := f.seedProduct(t, 12.50)

		result, err := f.service.CreateSale(ctx, directActor(), CreateSaleCommand{
			PharmacyID:       f.pharmacyID,
			Lines:            []SaleLineInput{{ProductID: product.ID, Quantity: 7}},
			PaymentType:      sales.PaymentTypeCash,
			ImmediatePayment: valueobject.NewMoneyUSDFromFloat(87.50),
		})
		require.NoError(t, err)
		require.False(t, result.Staged)
		require.NotNil(t, result.Sale)

		assert.Equal(t, "INV-20241201-0001", result.Sale.InvoiceNumber)
		assert.Equal(t, "87.50", result.Sale.TotalAmount)
		assert.Equal(t, "0.00", result.Sale.RemainingAmount)
		assert.Equal(t, sales.PaymentStatusPaid, result.Sale.PaymentStatus)
		assert.Equal(t, sales.CreditStatusNone, result.Sale.CreditStatus)

		assert.Equal(t, 8, f.storedProduct(t, product.ID).StockQuantity)

		lots, err := f.lots.FindByProduct(ctx, product.ID, f.pharmacyID)
		require.NoError(t, err)
		byNumber := map[string]inventory.Lot{}
		for _, lot := range lots {
			byNumber[lot.LotNumber] = lot
		}
		assert.Equal(t, 0, byNumber["A"].Quantity)
		assert.Equal(t, inventory.LotStatusDepleted, byNumber["A"].Status)
		assert.Equal(t, 8, byNumber["B"].Quantity)

		movements, err := f.movements.FindByReference(ctx, "sale", result.Sale.InvoiceNumber)
		require.NoError(t, err)
		assert.Len(t, movements, 3)

		assert.Len(t, f.bus.published(inventory.EventTypeStockDeducted), 1)
		assert.Len(t, f.bus.published(sales.EventTypeSaleCreated), 1)
	})

	t.Run("credit sale with no immediate payment starts unpaid", func(t *testing.T) {
		f := newFixture(t)
		product := f.seedProduct(t, 10)

		result, err := f.service.CreateSale(ctx, directActor(), CreateSaleCommand{
			PharmacyID:       f.pharmacyID,
			Lines:            []SaleLineInput{{ProductID: product.ID, Quantity: 2}},
			PaymentType:      sales.PaymentTypeCredit,
			ImmediatePayment: valueobject.ZeroUSD(),
		})
		require.NoError(t, err)

		assert.Equal(t, sales.PaymentStatusPending, result.Sale.PaymentStatus)
		assert.Equal(t, sales.CreditStatusUnpaid, result.Sale.CreditStatus)
		assert.Equal(t, "20.00", result.Sale.RemainingAmount)
	})

	t.Run("shortfall fails the whole sale and persists nothing", func(t *testing.T) {
		f := newFixture(t)
		product := f.seedProduct(t, 10)

		_, err := f.service.CreateSale(ctx, directActor(), CreateSaleCommand{
			PharmacyID:       f.pharmacyID,
			Lines:            []SaleLineInput{{ProductID: product.ID, Quantity: 20}},
			PaymentType:      sales.PaymentTypeCash,
			ImmediatePayment: valueobject.ZeroUSD(),
		})

		var stockErr *shared.InsufficientStockError
		require.ErrorAs(t, err, &stockErr)
		assert.Equal(t, 20, stockErr.Requested)
		assert.Equal(t, 15, stockErr.Available)
		assert.Equal(t, 5, stockErr.Shortfall())

		assert.Equal(t, 15, f.storedProduct(t, product.ID).StockQuantity)
		count, err := f.sales.Count(ctx, shared.DefaultFilter())
		require.NoError(t, err)
		assert.Zero(t, count)
		movements, err := f.movements.FindByProduct(ctx, product.ID, shared.DefaultFilter())
		require.NoError(t, err)
		assert.Empty(t, movements)
	})

	t.Run("a later line shortfall rolls back earlier lines", func(t *testing.T) {
		f := newFixture(t)
		product := f.seedProduct(t, 10)

		_, err := f.service.CreateSale(ctx, directActor(), CreateSaleCommand{
			PharmacyID: f.pharmacyID,
			Lines: []SaleLineInput{
				{ProductID: product.ID, Quantity: 10},
				{ProductID: product.ID, Quantity: 6},
			},
			PaymentType:      sales.PaymentTypeCash,
			ImmediatePayment: valueobject.ZeroUSD(),
		})

		var stockErr *shared.InsufficientStockError
		require.ErrorAs(t, err, &stockErr)
		assert.Equal(t, 5, stockErr.Available)
		assert.Equal(t, 15, f.storedProduct(t, product.ID).StockQuantity)
	})

	t.Run("repeated product lines draw from the same lots", func(t *testing.T) {
		f := newFixture(t)
		product := f.seedProduct(t, 10)

		result, err := f.service.CreateSale(ctx, directActor(), CreateSaleCommand{
			PharmacyID: f.pharmacyID,
			Lines: []SaleLineInput{
				{ProductID: product.ID, Quantity: 10},
				{ProductID: product.ID, Quantity: 5},
			},
			PaymentType:      sales.PaymentTypeCash,
			ImmediatePayment: valueobject.ZeroUSD(),
		})
		require.NoError(t, err)
		assert.Equal(t, "150.00", result.Sale.TotalAmount)
		assert.Equal(t, 0, f.storedProduct(t, product.ID).StockQuantity)
	})

	t.Run("unknown product fails", func(t *testing.T) {
		f := newFixture(t)
		f.seedProduct(t, 10)

		_, err := f.service.CreateSale(ctx, directActor(), CreateSaleCommand{
			PharmacyID:       f.pharmacyID,
			Lines:            []SaleLineInput{{ProductID: uuid.New(), Quantity: 1}},
			PaymentType:      sales.PaymentTypeCash,
			ImmediatePayment: valueobject.ZeroUSD(),
		})
		assert.ErrorIs(t, err, shared.ErrProductNotFound)
	})

	t.Run("rejects an unknown trust tier", func(t *testing.T) {
		f := newFixture(t)
		product := f.seedProduct(t, 10)

		_, err := f.service.CreateSale(ctx, Actor{ID: "x", TrustTier: "admin"}, CreateSaleCommand{
			PharmacyID:       f.pharmacyID,
			Lines:            []SaleLineInput{{ProductID: product.ID, Quantity: 1}},
			PaymentType:      sales.PaymentTypeCash,
			ImmediatePayment: valueobject.ZeroUSD(),
		})
		var domainErr *shared.DomainError
		require.ErrorAs(t, err, &domainErr)
		assert.Equal(t, "INVALID_TRUST_TIER", domainErr.Code)
	})
}

func TestCreateSaleStaged(t *testing.T) {
	ctx := context.Background()

	t.Run("staged tier stages the sale without touching stock", func(t *testing.T) {
		f := newFixture(t)
		product := f.seedProduct(t, 10)

		result, err := f.service.CreateSale(ctx, stagedActor(), CreateSaleCommand{
			PharmacyID:       f.pharmacyID,
			Lines:            []SaleLineInput{{ProductID: product.ID, Quantity: 7}},
			PaymentType:      sales.PaymentTypeCash,
			ImmediatePayment: valueobject.ZeroUSD(),
		})
		require.NoError(t, err)
		require.True(t, result.Staged)
		require.NotNil(t, result.PendingSale)

		assert.Equal(t, sales.PendingSaleStatusPending, result.PendingSale.Status)
		assert.Regexp(t, `^PS-[0-9A-F]{8}$`, result.PendingSale.Reference)
		assert.Equal(t, 15, f.storedProduct(t, product.ID).StockQuantity)
		movements, err := f.movements.FindByProduct(ctx, product.ID, shared.DefaultFilter())
		require.NoError(t, err)
		assert.Empty(t, movements)
		assert.Len(t, f.bus.published(sales.EventTypePendingSaleCreated), 1)
	})

	t.Run("staging accepts quantities beyond current stock", func(t *testing.T) {
		f := newFixture(t)
		product := f.seedProduct(t, 10)

		result, err := f.service.CreateSale(ctx, stagedActor(), CreateSaleCommand{
			PharmacyID:       f.pharmacyID,
			Lines:            []SaleLineInput{{ProductID: product.ID, Quantity: 100}},
			PaymentType:      sales.PaymentTypeCash,
			ImmediatePayment: valueobject.ZeroUSD(),
		})
		require.NoError(t, err)
		assert.True(t, result.Staged)
	})
}

func TestListPendingSales(t *testing.T) {
	ctx := context.Background()

	t.Run("returns the pending queue only", func(t *testing.T) {
		f := newFixture(t)
		product := f.seedProduct(t, 10)

		first, err := f.service.CreateSale(ctx, stagedActor(), CreateSaleCommand{
			PharmacyID:       f.pharmacyID,
			Lines:            []SaleLineInput{{ProductID: product.ID, Quantity: 2}},
			PaymentType:      sales.PaymentTypeCash,
			ImmediatePayment: valueobject.ZeroUSD(),
		})
		require.NoError(t, err)
		second, err := f.service.CreateSale(ctx, stagedActor(), CreateSaleCommand{
			PharmacyID:       f.pharmacyID,
			Lines:            []SaleLineInput{{ProductID: product.ID, Quantity: 3}},
			PaymentType:      sales.PaymentTypeCash,
			ImmediatePayment: valueobject.ZeroUSD(),
		})
		require.NoError(t, err)

		_, err = f.service.RejectPendingSale(ctx, second.PendingSale.PendingSaleID, directActor(), "out of stock")
		require.NoError(t, err)

		pending, err := f.service.ListPendingSales(ctx, f.pharmacyID, sales.PendingSaleStatusPending, shared.DefaultFilter())
		require.NoError(t, err)
		require.Len(t, pending, 1)
		assert.Equal(t, first.PendingSale.PendingSaleID, pending[0].PendingSaleID)
	})

	t.Run("rejects an unknown status", func(t *testing.T) {
		f := newFixture(t)

		_, err := f.service.ListPendingSales(ctx, f.pharmacyID, "limbo", shared.DefaultFilter())

		var domainErr *shared.DomainError
		require.ErrorAs(t, err, &domainErr)
		assert.Equal(t, "INVALID_STATUS", domainErr.Code)
	})
}

func TestValidatePendingSale(t *testing.T) {
	ctx := context.Background()

	stage := func(t *testing.T, f *fixture, productID uuid.UUID, quantity int) uuid.UUID {
		t.Helper()
		result, err := f.service.CreateSale(ctx, stagedActor(), CreateSaleCommand{
			PharmacyID:       f.pharmacyID,
			Lines:            []SaleLineInput{{ProductID: productID, Quantity: quantity}},
			PaymentType:      sales.PaymentTypeCash,
			ImmediatePayment: valueobject.ZeroUSD(),
		})
		require.NoError(t, err)
		return result.PendingSale.PendingSaleID
	}

	t.Run("validation commits the sale and links it to the pending record", func(t *testing.T) {
		f := newFixture(t)
		product := f.seedProduct(t, 10)
		pendingID := stage(t, f, product.ID, 7)

		result, err := f.service.ValidatePendingSale(ctx, pendingID, directActor())
		require.NoError(t, err)
		assert.Equal(t, "70.00", result.TotalAmount)
		assert.Equal(t, 8, f.storedProduct(t, product.ID).StockQuantity)

		ps, err := f.pendings.FindByID(ctx, pendingID)
		require.NoError(t, err)
		assert.Equal(t, sales.PendingSaleStatusValidated, ps.Status)
		require.NotNil(t, ps.SaleID)
		assert.Equal(t, result.SaleID, *ps.SaleID)
		assert.Len(t, f.bus.published(sales.EventTypePendingSaleValidated), 1)
	})

	t.Run("second validation fails exactly-once", func(t *testing.T) {
		f := newFixture(t)
		product := f.seedProduct(t, 10)
		pendingID := stage(t, f, product.ID, 7)

		_, err := f.service.ValidatePendingSale(ctx, pendingID, directActor())
		require.NoError(t, err)

		_, err = f.service.ValidatePendingSale(ctx, pendingID, directActor())
		assert.ErrorIs(t, err, shared.ErrAlreadyProcessed)
		assert.Equal(t, 8, f.storedProduct(t, product.ID).StockQuantity)
	})

	t.Run("shortfall at validation leaves the pending sale pending", func(t *testing.T) {
		f := newFixture(t)
		product := f.seedProduct(t, 10)
		pendingID := stage(t, f, product.ID, 100)

		_, err := f.service.ValidatePendingSale(ctx, pendingID, directActor())
		var stockErr *shared.InsufficientStockError
		require.ErrorAs(t, err, &stockErr)

		ps, findErr := f.pendings.FindByID(ctx, pendingID)
		require.NoError(t, findErr)
		assert.Equal(t, sales.PendingSaleStatusPending, ps.Status)
		assert.Equal(t, 15, f.storedProduct(t, product.ID).StockQuantity)
	})

	t.Run("validating a rejected sale fails", func(t *testing.T) {
		f := newFixture(t)
		product := f.seedProduct(t, 10)
		pendingID := stage(t, f, product.ID, 7)

		_, err := f.service.RejectPendingSale(ctx, pendingID, directActor(), "suspicious order")
		require.NoError(t, err)

		_, err = f.service.ValidatePendingSale(ctx, pendingID, directActor())
		assert.ErrorIs(t, err, shared.ErrAlreadyProcessed)
	})

	t.Run("unknown pending sale fails", func(t *testing.T) {
		f := newFixture(t)
		_, err := f.service.ValidatePendingSale(ctx, uuid.New(), directActor())
		assert.ErrorIs(t, err, shared.ErrNotFound)
	})
}

func TestRejectPendingSale(t *testing.T) {
	ctx := context.Background()

	t.Run("rejection records the reason and actor", func(t *testing.T) {
		f := newFixture(t)
		product := f.seedProduct(t, 10)
		staged, err := f.service.CreateSale(ctx, stagedActor(), CreateSaleCommand{
			PharmacyID:       f.pharmacyID,
			Lines:            []SaleLineInput{{ProductID: product.ID, Quantity: 7}},
			PaymentType:      sales.PaymentTypeCash,
			ImmediatePayment: valueobject.ZeroUSD(),
		})
		require.NoError(t, err)

		result, err := f.service.RejectPendingSale(ctx, staged.PendingSale.PendingSaleID, directActor(), "duplicate entry")
		require.NoError(t, err)
		assert.Equal(t, sales.PendingSaleStatusRejected, result.Status)
		assert.Equal(t, "duplicate entry", result.RejectReason)
		assert.Equal(t, 15, f.storedProduct(t, product.ID).StockQuantity)
		assert.Len(t, f.bus.published(sales.EventTypePendingSaleRejected), 1)

		_, err = f.service.RejectPendingSale(ctx, staged.PendingSale.PendingSaleID, directActor(), "again")
		assert.ErrorIs(t, err, shared.ErrAlreadyProcessed)
	})
}

func TestInvoiceNumbersAreSequentialPerDay(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	product := f.seedProduct(t, 10)

	for i := 1; i <= 3; i++ {
		result, err := f.service.CreateSale(ctx, directActor(), CreateSaleCommand{
			PharmacyID:       f.pharmacyID,
			Lines:            []SaleLineInput{{ProductID: product.ID, Quantity: 1}},
			PaymentType:      sales.PaymentTypeCash,
			ImmediatePayment: valueobject.ZeroUSD(),
		})
		require.NoError(t, err)
		assert.Equal(t, byte('0'+i), result.Sale.InvoiceNumber[len(result.Sale.InvoiceNumber)-1])
	}
}

func TestGetSale(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	product := f.seedProduct(t, 10)

	created, err := f.service.CreateSale(ctx, directActor(), CreateSaleCommand{
		PharmacyID:       f.pharmacyID,
		Lines:            []SaleLineInput{{ProductID: product.ID, Quantity: 2}},
		PaymentType:      sales.PaymentTypeCash,
		ImmediatePayment: valueobject.ZeroUSD(),
	})
	require.NoError(t, err)

	fetched, err := f.service.GetSale(ctx, created.Sale.SaleID)
	require.NoError(t, err)
	assert.Equal(t, created.Sale.InvoiceNumber, fetched.InvoiceNumber)
	assert.Len(t, fetched.Lines, 1)

	_, err = f.service.GetSale(ctx, uuid.New())
	assert.True(t, errors.Is(err, shared.ErrNotFound))
}
