package inventory

import (
	"time"

	"github.com/google/uuid"
	"github.com/pharmacore/backend/internal/domain/shared"
)

// StockService keeps lot quantities, the product aggregate count, and the
// movement log consistent with each other. All mutations here are in-memory;
// the application layer persists the touched aggregates and movements inside
// a single transaction.
type StockService struct {
	allocator *FEFOAllocator
}

// NewStockService creates a new stock service
func NewStockService() *StockService {
	return &StockService{allocator: NewFEFOAllocator()}
}

// Allocator returns the FEFO allocator used for planning
func (s *StockService) Allocator() *FEFOAllocator {
	return s.allocator
}

// ApplyPlan deducts every allocation of a plan from its lot, deducts the plan
// total from the product aggregate, and returns the movement records in
// consumption order followed by one product-level reference movement. Either
// every step succeeds or the caller must discard all touched aggregates.
func (s *StockService) ApplyPlan(
	product *Product,
	lots []*Lot,
	plan *AllocationPlan,
	kind MovementKind,
	referenceType, referenceID, operator string,
	now time.Time,
) ([]*StockMovement, error) {
	if plan == nil || len(plan.Allocations) == 0 {
		return nil, shared.ErrInvalidQuantity
	}
	if product.ID != plan.ProductID {
		return nil, shared.ErrProductNotFound
	}

	lotIndex := make(map[uuid.UUID]*Lot, len(lots))
	for _, lot := range lots {
		lotIndex[lot.ID] = lot
	}

	movements := make([]*StockMovement, 0, len(plan.Allocations)+1)
	for _, alloc := range plan.Allocations {
		lot, ok := lotIndex[alloc.LotID]
		if !ok {
			return nil, shared.ErrLotNotFound
		}

		balanceBefore := product.StockQuantity
		if err := lot.Deduct(alloc.Quantity, now); err != nil {
			return nil, err
		}
		if err := product.DeductStock(alloc.Quantity, now); err != nil {
			return nil, err
		}

		lotID := alloc.LotID
		movement, err := NewStockMovement(
			product.ID, product.PharmacyID, &lotID,
			kind, alloc.Quantity,
			balanceBefore, product.StockQuantity,
			referenceType, referenceID, operator, now,
		)
		if err != nil {
			return nil, err
		}
		movements = append(movements, movement)
	}

	// Product-level reference movement for the whole deduction.
	summary, err := NewStockMovement(
		product.ID, product.PharmacyID, nil,
		kind, plan.Total,
		product.StockQuantity+plan.Total, product.StockQuantity,
		referenceType, referenceID, operator, now,
	)
	if err != nil {
		return nil, err
	}
	movements = append(movements, summary)

	product.AddDomainEvent(NewStockDeductedEvent(product, plan, referenceType, referenceID, operator))
	if product.IsLowStock() {
		product.AddDomainEvent(NewStockBelowThresholdEvent(product))
	}
	return movements, nil
}

// ReceiveLot registers a new lot against the product aggregate and returns
// the entry movement.
func (s *StockService) ReceiveLot(product *Product, lot *Lot, operator string, now time.Time) (*StockMovement, error) {
	if lot.ProductID != product.ID {
		return nil, shared.ErrProductNotFound
	}

	balanceBefore := product.StockQuantity
	if err := product.AddStock(lot.InitialQuantity, now); err != nil {
		return nil, err
	}

	lotID := lot.ID
	movement, err := NewStockMovement(
		product.ID, product.PharmacyID, &lotID,
		MovementKindEntry, lot.InitialQuantity,
		balanceBefore, product.StockQuantity,
		"lot_receipt", lot.ID.String(), operator, now,
	)
	if err != nil {
		return nil, err
	}

	product.AddDomainEvent(NewLotReceivedEvent(lot, operator))
	return movement, nil
}

// AdjustLot applies a signed manual correction to a lot and the product
// aggregate and returns the adjustment movement. Reason is mandatory.
func (s *StockService) AdjustLot(product *Product, lot *Lot, delta int, reason, operator string, now time.Time) (*StockMovement, error) {
	if lot.ProductID != product.ID {
		return nil, shared.ErrProductNotFound
	}
	if reason == "" {
		return nil, shared.NewDomainError("INVALID_REASON", "Adjustment reason cannot be empty")
	}
	// Only stock that counts toward the product aggregate may be corrected
	// here. Adjusting a recalled or expired lot would move the aggregate
	// while the lot stays outside the active set.
	if lot.Status == LotStatusRecalled || lot.Status == LotStatusExpired || lot.IsExpired(now) {
		return nil, shared.ErrInvalidState
	}

	balanceBefore := product.StockQuantity
	if err := lot.Adjust(delta, now); err != nil {
		return nil, err
	}
	if err := product.AdjustStock(delta, now); err != nil {
		return nil, err
	}

	quantity := delta
	if quantity < 0 {
		quantity = -quantity
	}
	lotID := lot.ID
	movement, err := NewStockMovement(
		product.ID, product.PharmacyID, &lotID,
		MovementKindAdjustment, quantity,
		balanceBefore, product.StockQuantity,
		"adjustment", lot.ID.String(), operator, now,
	)
	if err != nil {
		return nil, err
	}

	product.AddDomainEvent(NewStockAdjustedEvent(lot, delta, reason, operator))
	if product.IsLowStock() {
		product.AddDomainEvent(NewStockBelowThresholdEvent(product))
	}
	return movement, nil
}

// RecallLot deactivates a lot and removes its remaining quantity from the
// product aggregate, recording an outbound adjustment movement.
func (s *StockService) RecallLot(product *Product, lot *Lot, reason, operator string, now time.Time) (*StockMovement, error) {
	if lot.ProductID != product.ID {
		return nil, shared.ErrProductNotFound
	}
	if lot.Status == LotStatusRecalled {
		return nil, shared.ErrAlreadyProcessed
	}

	// A lot already driven to expired has had its residual written out of
	// the aggregate; an active lot, stale-expired or not, has not.
	remaining := lot.Quantity
	balanceBefore := product.StockQuantity
	if remaining > 0 && lot.Status == LotStatusActive {
		if err := product.DeductStock(remaining, now); err != nil {
			return nil, err
		}
	}
	product.AddDomainEvent(NewLotRecalledEvent(lot, reason, operator))
	lot.Recall(now)

	if product.StockQuantity == balanceBefore {
		return nil, nil
	}
	lotID := lot.ID
	return NewStockMovement(
		product.ID, product.PharmacyID, &lotID,
		MovementKindAdjustment, remaining,
		balanceBefore, product.StockQuantity,
		"recall", lot.ID.String(), operator, now,
	)
}

// ExpireLot writes a lot that has passed its expiry date out of the product
// aggregate. The residual quantity stays on the lot for the record; only the
// aggregate count and the movement log change.
func (s *StockService) ExpireLot(product *Product, lot *Lot, operator string, now time.Time) (*StockMovement, error) {
	if lot.ProductID != product.ID {
		return nil, shared.ErrProductNotFound
	}
	if lot.Status == LotStatusRecalled || lot.Status == LotStatusExpired {
		return nil, shared.ErrAlreadyProcessed
	}
	if !lot.IsExpired(now) {
		return nil, shared.ErrInvalidState
	}

	remaining := lot.Quantity
	balanceBefore := product.StockQuantity
	if remaining > 0 {
		if err := product.DeductStock(remaining, now); err != nil {
			return nil, err
		}
	}
	lot.RefreshStatus(now)
	lot.UpdatedAt = now
	product.AddDomainEvent(NewLotExpiredEvent(lot, operator))

	if remaining == 0 {
		return nil, nil
	}
	lotID := lot.ID
	return NewStockMovement(
		product.ID, product.PharmacyID, &lotID,
		MovementKindAdjustment, remaining,
		balanceBefore, product.StockQuantity,
		"expiry", lot.ID.String(), operator, now,
	)
}
