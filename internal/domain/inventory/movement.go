package inventory

import (
	"time"

	"github.com/google/uuid"
	"github.com/pharmacore/backend/internal/domain/shared"
)

// MovementKind classifies a stock movement. Quantities are always recorded
// positive; the direction follows from the kind.
type MovementKind string

const (
	MovementKindEntry       MovementKind = "entry"
	MovementKindSale        MovementKind = "sale"
	MovementKindTransferIn  MovementKind = "transfer_in"
	MovementKindTransferOut MovementKind = "transfer_out"
	MovementKindAdjustment  MovementKind = "adjustment"
	MovementKindReturn      MovementKind = "return"
)

// IsValid checks if the movement kind is valid
func (k MovementKind) IsValid() bool {
	switch k {
	case MovementKindEntry, MovementKindSale, MovementKindTransferIn,
		MovementKindTransferOut, MovementKindAdjustment, MovementKindReturn:
		return true
	}
	return false
}

// String returns the string representation
func (k MovementKind) String() string {
	return string(k)
}

// IsInbound returns true if the kind increases stock
func (k MovementKind) IsInbound() bool {
	return k == MovementKindEntry || k == MovementKindTransferIn || k == MovementKindReturn
}

// StockMovement is an immutable record of a quantity change. Movements are
// never edited or deleted; corrections are made by recording a compensating
// movement.
type StockMovement struct {
	shared.BaseEntity
	ProductID     uuid.UUID
	PharmacyID    uuid.UUID
	LotID         *uuid.UUID // nil for product-level movements
	Kind          MovementKind
	Quantity      int // always positive; direction derived from Kind
	BalanceBefore int // product aggregate count before the movement
	BalanceAfter  int // product aggregate count after the movement
	ReferenceType string
	ReferenceID   string
	Operator      string
	OccurredAt    time.Time
}

// NewStockMovement creates a new movement record
func NewStockMovement(
	productID, pharmacyID uuid.UUID,
	lotID *uuid.UUID,
	kind MovementKind,
	quantity int,
	balanceBefore, balanceAfter int,
	referenceType, referenceID string,
	operator string,
	occurredAt time.Time,
) (*StockMovement, error) {
	if !kind.IsValid() {
		return nil, shared.NewDomainError("INVALID_MOVEMENT_KIND", "Unknown stock movement kind")
	}
	if quantity <= 0 {
		return nil, shared.ErrInvalidQuantity
	}
	return &StockMovement{
		BaseEntity:    shared.NewBaseEntity(),
		ProductID:     productID,
		PharmacyID:    pharmacyID,
		LotID:         lotID,
		Kind:          kind,
		Quantity:      quantity,
		BalanceBefore: balanceBefore,
		BalanceAfter:  balanceAfter,
		ReferenceType: referenceType,
		ReferenceID:   referenceID,
		Operator:      operator,
		OccurredAt:    occurredAt,
	}, nil
}

// TableName returns the table name for GORM
func (StockMovement) TableName() string {
	return "stock_movements"
}
