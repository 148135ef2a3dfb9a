package inventory

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/pharmacore/backend/internal/domain/shared"
	"github.com/pharmacore/backend/internal/domain/shared/valueobject"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewLot(t *testing.T) {
	productID := uuid.New()
	pharmacyID := uuid.New()
	now := time.Now()

	t.Run("creates active lot with initial quantity", func(t *testing.T) {
		lot, err := NewLot(productID, pharmacyID, "LOT-001", 50, valueobject.NewMoneyUSDFromFloat(2.25),
			timePtr(now.AddDate(1, 0, 0)), now, now)
		require.NoError(t, err)
		assert.Equal(t, 50, lot.Quantity)
		assert.Equal(t, 50, lot.InitialQuantity)
		assert.Equal(t, LotStatusActive, lot.Status)
	})

	t.Run("rejects non-positive quantity", func(t *testing.T) {
		_, err := NewLot(productID, pharmacyID, "LOT-001", 0, valueobject.ZeroUSD(), nil, now, now)
		assert.ErrorIs(t, err, shared.ErrInvalidQuantity)
	})

	t.Run("rejects empty lot number", func(t *testing.T) {
		_, err := NewLot(productID, pharmacyID, "", 10, valueobject.ZeroUSD(), nil, now, now)
		assert.Error(t, err)
	})

	t.Run("status derives from the supplied clock", func(t *testing.T) {
		clock := time.Date(2024, 12, 1, 0, 0, 0, 0, time.UTC)
		expiry := time.Date(2025, 1, 10, 0, 0, 0, 0, time.UTC)
		lot, err := NewLot(productID, pharmacyID, "LOT-003", 10, valueobject.ZeroUSD(),
			&expiry, clock.AddDate(0, -1, 0), clock)
		require.NoError(t, err)
		assert.Equal(t, LotStatusActive, lot.Status)
	})

	t.Run("already expired receipt is created as expired", func(t *testing.T) {
		lot, err := NewLot(productID, pharmacyID, "LOT-002", 10, valueobject.ZeroUSD(),
			timePtr(now.AddDate(0, 0, -1)), now.AddDate(0, -2, 0), now)
		require.NoError(t, err)
		assert.Equal(t, LotStatusExpired, lot.Status)
	})
}

func TestLotDeduct(t *testing.T) {
	now := time.Now()
	newLot := func(t *testing.T, quantity int) *Lot {
		t.Helper()
		lot, err := NewLot(uuid.New(), uuid.New(), "LOT-1", quantity, valueobject.ZeroUSD(),
			timePtr(now.AddDate(1, 0, 0)), now, now)
		require.NoError(t, err)
		return lot
	}

	t.Run("partial deduction stays active", func(t *testing.T) {
		lot := newLot(t, 10)
		require.NoError(t, lot.Deduct(4, now))
		assert.Equal(t, 6, lot.Quantity)
		assert.Equal(t, LotStatusActive, lot.Status)
	})

	t.Run("full deduction becomes depleted", func(t *testing.T) {
		lot := newLot(t, 5)
		require.NoError(t, lot.Deduct(5, now))
		assert.Equal(t, 0, lot.Quantity)
		assert.Equal(t, LotStatusDepleted, lot.Status)
	})

	t.Run("rejects over-deduction", func(t *testing.T) {
		lot := newLot(t, 5)
		err := lot.Deduct(6, now)
		var insufficientErr *shared.InsufficientStockError
		require.ErrorAs(t, err, &insufficientErr)
		assert.Equal(t, 5, lot.Quantity)
	})

	t.Run("rejects non-positive quantity", func(t *testing.T) {
		lot := newLot(t, 5)
		assert.ErrorIs(t, lot.Deduct(0, now), shared.ErrInvalidQuantity)
	})
}

func TestLotAdjust(t *testing.T) {
	now := time.Now()
	lot, err := NewLot(uuid.New(), uuid.New(), "LOT-1", 10, valueobject.ZeroUSD(), nil, now, now)
	require.NoError(t, err)

	require.NoError(t, lot.Adjust(-3, now))
	assert.Equal(t, 7, lot.Quantity)

	require.NoError(t, lot.Adjust(5, now))
	assert.Equal(t, 12, lot.Quantity)

	t.Run("cannot go below zero", func(t *testing.T) {
		err := lot.Adjust(-13, now)
		var insufficientErr *shared.InsufficientStockError
		require.ErrorAs(t, err, &insufficientErr)
		assert.Equal(t, 12, lot.Quantity)
	})

	t.Run("zero delta is invalid", func(t *testing.T) {
		assert.ErrorIs(t, lot.Adjust(0, now), shared.ErrInvalidQuantity)
	})

	t.Run("adjusting to zero depletes the lot", func(t *testing.T) {
		require.NoError(t, lot.Adjust(-12, now))
		assert.Equal(t, LotStatusDepleted, lot.Status)
	})
}

func TestLotRefreshStatus(t *testing.T) {
	now := time.Now()

	t.Run("recalled status sticks", func(t *testing.T) {
		lot, err := NewLot(uuid.New(), uuid.New(), "LOT-1", 10, valueobject.ZeroUSD(),
			timePtr(now.AddDate(1, 0, 0)), now, now)
		require.NoError(t, err)
		lot.Recall(now)
		lot.RefreshStatus(now)
		assert.Equal(t, LotStatusRecalled, lot.Status)
	})

	t.Run("expiry flips status once past the date", func(t *testing.T) {
		lot, err := NewLot(uuid.New(), uuid.New(), "LOT-1", 10, valueobject.ZeroUSD(),
			timePtr(now.AddDate(0, 0, 1)), now, now)
		require.NoError(t, err)
		assert.Equal(t, LotStatusActive, lot.Status)
		lot.RefreshStatus(now.AddDate(0, 0, 2))
		assert.Equal(t, LotStatusExpired, lot.Status)
	})
}

func TestLotExpiryHelpers(t *testing.T) {
	now := time.Now()
	lot, err := NewLot(uuid.New(), uuid.New(), "LOT-1", 10, valueobject.ZeroUSD(),
		timePtr(now.AddDate(0, 0, 20)), now, now)
	require.NoError(t, err)

	assert.False(t, lot.IsExpired(now))
	assert.True(t, lot.WillExpireWithin(now, 30*24*time.Hour))
	assert.False(t, lot.WillExpireWithin(now, 10*24*time.Hour))
	assert.Equal(t, 19, lot.DaysUntilExpiry(now.Add(time.Hour)))

	undated, err := NewLot(uuid.New(), uuid.New(), "LOT-2", 10, valueobject.ZeroUSD(), nil, now, now)
	require.NoError(t, err)
	assert.False(t, undated.IsExpired(now))
	assert.Equal(t, -1, undated.DaysUntilExpiry(now))
}
