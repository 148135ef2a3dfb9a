package inventory

import (
	"github.com/google/uuid"
	"github.com/pharmacore/backend/internal/domain/shared"
)

// Aggregate type constants
const (
	AggregateTypeProduct = "Product"
	AggregateTypeLot     = "Lot"
)

// Event type constants
const (
	EventTypeLotReceived         = "LotReceived"
	EventTypeStockDeducted       = "StockDeducted"
	EventTypeStockAdjusted       = "StockAdjusted"
	EventTypeLotRecalled         = "LotRecalled"
	EventTypeLotExpired          = "LotExpired"
	EventTypeStockBelowThreshold = "StockBelowThreshold"
)

// LotReceivedEvent is raised when a new lot enters stock
type LotReceivedEvent struct {
	shared.BaseDomainEvent
	LotID      uuid.UUID `json:"lot_id"`
	ProductID  uuid.UUID `json:"product_id"`
	PharmacyID uuid.UUID `json:"pharmacy_id"`
	LotNumber  string    `json:"lot_number"`
	Quantity   int       `json:"quantity"`
	Operator   string    `json:"operator"`
}

// NewLotReceivedEvent creates a new LotReceivedEvent
func NewLotReceivedEvent(lot *Lot, operator string) *LotReceivedEvent {
	return &LotReceivedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeLotReceived, AggregateTypeLot, lot.ID),
		LotID:           lot.ID,
		ProductID:       lot.ProductID,
		PharmacyID:      lot.PharmacyID,
		LotNumber:       lot.LotNumber,
		Quantity:        lot.InitialQuantity,
		Operator:        operator,
	}
}

// EventType returns the event type name
func (e *LotReceivedEvent) EventType() string {
	return EventTypeLotReceived
}

// StockDeductedEvent is raised when an allocation plan is applied to stock
type StockDeductedEvent struct {
	shared.BaseDomainEvent
	ProductID     uuid.UUID `json:"product_id"`
	PharmacyID    uuid.UUID `json:"pharmacy_id"`
	Quantity      int       `json:"quantity"`
	LotsConsumed  int       `json:"lots_consumed"`
	ReferenceType string    `json:"reference_type"`
	ReferenceID   string    `json:"reference_id"`
	Operator      string    `json:"operator"`
}

// NewStockDeductedEvent creates a new StockDeductedEvent
func NewStockDeductedEvent(product *Product, plan *AllocationPlan, referenceType, referenceID, operator string) *StockDeductedEvent {
	return &StockDeductedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeStockDeducted, AggregateTypeProduct, product.ID),
		ProductID:       product.ID,
		PharmacyID:      product.PharmacyID,
		Quantity:        plan.Total,
		LotsConsumed:    len(plan.Allocations),
		ReferenceType:   referenceType,
		ReferenceID:     referenceID,
		Operator:        operator,
	}
}

// EventType returns the event type name
func (e *StockDeductedEvent) EventType() string {
	return EventTypeStockDeducted
}

// StockAdjustedEvent is raised for a manual lot quantity correction
type StockAdjustedEvent struct {
	shared.BaseDomainEvent
	LotID      uuid.UUID `json:"lot_id"`
	ProductID  uuid.UUID `json:"product_id"`
	PharmacyID uuid.UUID `json:"pharmacy_id"`
	Delta      int       `json:"delta"`
	Reason     string    `json:"reason"`
	Operator   string    `json:"operator"`
}

// NewStockAdjustedEvent creates a new StockAdjustedEvent
func NewStockAdjustedEvent(lot *Lot, delta int, reason, operator string) *StockAdjustedEvent {
	return &StockAdjustedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeStockAdjusted, AggregateTypeLot, lot.ID),
		LotID:           lot.ID,
		ProductID:       lot.ProductID,
		PharmacyID:      lot.PharmacyID,
		Delta:           delta,
		Reason:          reason,
		Operator:        operator,
	}
}

// EventType returns the event type name
func (e *StockAdjustedEvent) EventType() string {
	return EventTypeStockAdjusted
}

// LotRecalledEvent is raised when a lot is explicitly deactivated
type LotRecalledEvent struct {
	shared.BaseDomainEvent
	LotID      uuid.UUID `json:"lot_id"`
	ProductID  uuid.UUID `json:"product_id"`
	PharmacyID uuid.UUID `json:"pharmacy_id"`
	Quantity   int       `json:"quantity"`
	Reason     string    `json:"reason"`
	Operator   string    `json:"operator"`
}

// NewLotRecalledEvent creates a new LotRecalledEvent
func NewLotRecalledEvent(lot *Lot, reason, operator string) *LotRecalledEvent {
	return &LotRecalledEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeLotRecalled, AggregateTypeLot, lot.ID),
		LotID:           lot.ID,
		ProductID:       lot.ProductID,
		PharmacyID:      lot.PharmacyID,
		Quantity:        lot.Quantity,
		Reason:          reason,
		Operator:        operator,
	}
}

// EventType returns the event type name
func (e *LotRecalledEvent) EventType() string {
	return EventTypeLotRecalled
}

// LotExpiredEvent is raised when an expired lot's residual quantity is
// written out of the product aggregate
type LotExpiredEvent struct {
	shared.BaseDomainEvent
	LotID      uuid.UUID `json:"lot_id"`
	ProductID  uuid.UUID `json:"product_id"`
	PharmacyID uuid.UUID `json:"pharmacy_id"`
	Quantity   int       `json:"quantity"`
	Operator   string    `json:"operator"`
}

// NewLotExpiredEvent creates a new LotExpiredEvent
func NewLotExpiredEvent(lot *Lot, operator string) *LotExpiredEvent {
	return &LotExpiredEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeLotExpired, AggregateTypeLot, lot.ID),
		LotID:           lot.ID,
		ProductID:       lot.ProductID,
		PharmacyID:      lot.PharmacyID,
		Quantity:        lot.Quantity,
		Operator:        operator,
	}
}

// EventType returns the event type name
func (e *LotExpiredEvent) EventType() string {
	return EventTypeLotExpired
}

// StockBelowThresholdEvent is raised when a deduction takes a product's
// aggregate count to or below its minimum stock level
type StockBelowThresholdEvent struct {
	shared.BaseDomainEvent
	ProductID     uuid.UUID `json:"product_id"`
	PharmacyID    uuid.UUID `json:"pharmacy_id"`
	StockQuantity int       `json:"stock_quantity"`
	MinStockLevel int       `json:"min_stock_level"`
}

// NewStockBelowThresholdEvent creates a new StockBelowThresholdEvent
func NewStockBelowThresholdEvent(product *Product) *StockBelowThresholdEvent {
	return &StockBelowThresholdEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeStockBelowThreshold, AggregateTypeProduct, product.ID),
		ProductID:       product.ID,
		PharmacyID:      product.PharmacyID,
		StockQuantity:   product.StockQuantity,
		MinStockLevel:   product.MinStockLevel,
	}
}

// EventType returns the event type name
func (e *StockBelowThresholdEvent) EventType() string {
	return EventTypeStockBelowThreshold
}
