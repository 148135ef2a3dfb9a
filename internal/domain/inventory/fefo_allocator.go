package inventory

import (
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/pharmacore/backend/internal/domain/shared"
	"github.com/pharmacore/backend/internal/domain/shared/valueobject"
)

// LotAllocation is one slice of an allocation plan: how much to take from a
// single lot. The position in the plan is the consumption order used for
// movement logging.
type LotAllocation struct {
	LotID     uuid.UUID
	LotNumber string
	Quantity  int
	UnitCost  valueobject.Money
}

// AllocationPlan is the complete, side-effect-free result of planning a
// deduction across lots. It always covers the requested quantity exactly.
type AllocationPlan struct {
	ProductID   uuid.UUID
	PharmacyID  uuid.UUID
	Allocations []LotAllocation
	Total       int
	TotalCost   valueobject.Money
}

// FEFOAllocator plans stock deductions in first-expired-first-out order.
// Planning is pure: no lot or product is mutated here.
type FEFOAllocator struct{}

// NewFEFOAllocator creates a new FEFO allocator
func NewFEFOAllocator() *FEFOAllocator {
	return &FEFOAllocator{}
}

// Plan selects which lots to draw from for the requested quantity. Only
// active, non-expired lots with positive quantity are considered; expiry is
// checked against now even when the stored status is stale. Lots are consumed
// in ascending expiry order, ties broken by received date, then creation
// time. If the eligible quantity cannot cover the request, the plan fails
// with an insufficient stock error carrying the shortfall.
func (a *FEFOAllocator) Plan(productID, pharmacyID uuid.UUID, lots []Lot, quantity int, now time.Time) (*AllocationPlan, error) {
	if quantity <= 0 {
		return nil, shared.ErrInvalidQuantity
	}

	eligible := make([]Lot, 0, len(lots))
	available := 0
	for _, lot := range lots {
		if lot.ProductID != productID || lot.PharmacyID != pharmacyID {
			continue
		}
		if !lot.IsSellable(now) {
			continue
		}
		eligible = append(eligible, lot)
		available += lot.Quantity
	}

	if available < quantity {
		return nil, shared.NewInsufficientStockError(productID.String(), quantity, available)
	}

	sort.SliceStable(eligible, func(i, j int) bool {
		ei, ej := eligible[i].ExpiryDate, eligible[j].ExpiryDate
		if ei != nil && ej != nil {
			if !ei.Equal(*ej) {
				return ei.Before(*ej)
			}
		} else if ei != nil {
			return true // dated stock goes out before undated stock
		} else if ej != nil {
			return false
		}
		if !eligible[i].ReceivedDate.Equal(eligible[j].ReceivedDate) {
			return eligible[i].ReceivedDate.Before(eligible[j].ReceivedDate)
		}
		return eligible[i].CreatedAt.Before(eligible[j].CreatedAt)
	})

	allocations := make([]LotAllocation, 0, len(eligible))
	totalCost := valueobject.ZeroUSD()
	remaining := quantity
	for _, lot := range eligible {
		if remaining == 0 {
			break
		}
		take := min(remaining, lot.Quantity)
		allocations = append(allocations, LotAllocation{
			LotID:     lot.ID,
			LotNumber: lot.LotNumber,
			Quantity:  take,
			UnitCost:  lot.UnitCost,
		})
		totalCost = totalCost.MustAdd(lot.UnitCost.MultiplyByInt(int64(take)))
		remaining -= take
	}

	return &AllocationPlan{
		ProductID:   productID,
		PharmacyID:  pharmacyID,
		Allocations: allocations,
		Total:       quantity,
		TotalCost:   totalCost,
	}, nil
}

// SellableQuantity returns the total quantity across lots that the allocator
// would consider for the product at the given time.
func (a *FEFOAllocator) SellableQuantity(productID, pharmacyID uuid.UUID, lots []Lot, now time.Time) int {
	total := 0
	for _, lot := range lots {
		if lot.ProductID == productID && lot.PharmacyID == pharmacyID && lot.IsSellable(now) {
			total += lot.Quantity
		}
	}
	return total
}

// LotsExpiringWithin returns sellable lots whose expiry date falls inside the
// given window, soonest first.
func LotsExpiringWithin(lots []Lot, now time.Time, window time.Duration) []Lot {
	expiring := make([]Lot, 0)
	deadline := now.Add(window)
	for _, lot := range lots {
		if lot.IsSellable(now) && lot.ExpiryDate != nil && lot.ExpiryDate.Before(deadline) {
			expiring = append(expiring, lot)
		}
	}
	sort.SliceStable(expiring, func(i, j int) bool {
		return expiring[i].ExpiryDate.Before(*expiring[j].ExpiryDate)
	})
	return expiring
}
