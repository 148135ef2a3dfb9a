package inventory

import (
	"time"

	"github.com/google/uuid"
	"github.com/pharmacore/backend/internal/domain/shared"
	"github.com/pharmacore/backend/internal/domain/shared/valueobject"
)

// LotStatus represents the lifecycle status of a stock lot
type LotStatus string

const (
	LotStatusActive   LotStatus = "active"
	LotStatusExpired  LotStatus = "expired"
	LotStatusRecalled LotStatus = "recalled"
	LotStatusDepleted LotStatus = "depleted"
)

// IsValid checks if the lot status is valid
func (s LotStatus) IsValid() bool {
	switch s {
	case LotStatusActive, LotStatusExpired, LotStatusRecalled, LotStatusDepleted:
		return true
	}
	return false
}

// String returns the string representation
func (s LotStatus) String() string {
	return string(s)
}

// Lot represents a received batch of a product, tracked independently of the
// product's aggregate count. Lots are never deleted; they are driven to
// depleted or expired instead.
type Lot struct {
	shared.BaseAggregateRoot
	ProductID       uuid.UUID
	PharmacyID      uuid.UUID
	LotNumber       string
	Quantity        int
	InitialQuantity int
	UnitCost        valueobject.Money `gorm:"type:numeric(14,2)"`
	ExpiryDate      *time.Time
	ReceivedDate    time.Time
	Status          LotStatus `gorm:"type:varchar(20);not null;default:'active'"`
}

// NewLot creates a new lot from a stock receipt. The status is derived
// against the caller's clock so an already-expired receipt is born expired.
func NewLot(
	productID, pharmacyID uuid.UUID,
	lotNumber string,
	quantity int,
	unitCost valueobject.Money,
	expiryDate *time.Time,
	receivedDate time.Time,
	now time.Time,
) (*Lot, error) {
	if quantity <= 0 {
		return nil, shared.ErrInvalidQuantity
	}
	if lotNumber == "" {
		return nil, shared.NewDomainError("INVALID_LOT_NUMBER", "Lot number cannot be empty")
	}

	lot := &Lot{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		ProductID:         productID,
		PharmacyID:        pharmacyID,
		LotNumber:         lotNumber,
		Quantity:          quantity,
		InitialQuantity:   quantity,
		UnitCost:          unitCost,
		ExpiryDate:        expiryDate,
		ReceivedDate:      receivedDate,
		Status:            LotStatusActive,
	}
	lot.RefreshStatus(now)
	return lot, nil
}

// IsExpired returns true if the lot is past its expiry date at the given time
func (l *Lot) IsExpired(now time.Time) bool {
	if l.ExpiryDate == nil {
		return false
	}
	return now.After(*l.ExpiryDate)
}

// WillExpireWithin returns true if the lot expires within the given duration
func (l *Lot) WillExpireWithin(now time.Time, window time.Duration) bool {
	if l.ExpiryDate == nil {
		return false
	}
	return l.ExpiryDate.Before(now.Add(window))
}

// DaysUntilExpiry returns the number of days until expiry, -1 if no expiry date
func (l *Lot) DaysUntilExpiry(now time.Time) int {
	if l.ExpiryDate == nil {
		return -1
	}
	return int(l.ExpiryDate.Sub(now).Hours() / 24)
}

// IsSellable returns true if the lot can supply an allocation at the given
// time. A lot whose status has not yet been recomputed to expired is still
// excluded here.
func (l *Lot) IsSellable(now time.Time) bool {
	return l.Status == LotStatusActive && l.Quantity > 0 && !l.IsExpired(now)
}

// Deduct removes the given quantity from the lot and refreshes its status.
// The quantity must be positive and must not exceed the current lot quantity.
func (l *Lot) Deduct(quantity int, now time.Time) error {
	if quantity <= 0 {
		return shared.ErrInvalidQuantity
	}
	if quantity > l.Quantity {
		return shared.NewInsufficientStockError(l.ProductID.String(), quantity, l.Quantity)
	}
	l.Quantity -= quantity
	l.RefreshStatus(now)
	l.UpdatedAt = now
	return nil
}

// Adjust applies a signed correction to the lot quantity. A negative delta
// may not take the quantity below zero.
func (l *Lot) Adjust(delta int, now time.Time) error {
	if delta == 0 {
		return shared.ErrInvalidQuantity
	}
	if l.Quantity+delta < 0 {
		return shared.NewInsufficientStockError(l.ProductID.String(), -delta, l.Quantity)
	}
	l.Quantity += delta
	l.RefreshStatus(now)
	l.UpdatedAt = now
	return nil
}

// Recall marks the lot as recalled. Recalled lots never return to active.
func (l *Lot) Recall(now time.Time) {
	l.Status = LotStatusRecalled
	l.UpdatedAt = now
}

// RefreshStatus recomputes the lot status from its quantity and expiry date.
// Recalled status sticks; otherwise depleted wins over expired.
func (l *Lot) RefreshStatus(now time.Time) {
	if l.Status == LotStatusRecalled {
		return
	}
	switch {
	case l.Quantity <= 0:
		l.Status = LotStatusDepleted
	case l.IsExpired(now):
		l.Status = LotStatusExpired
	default:
		l.Status = LotStatusActive
	}
}

// TotalValue returns the value of the remaining quantity at unit cost
func (l *Lot) TotalValue() valueobject.Money {
	return l.UnitCost.MultiplyByInt(int64(l.Quantity))
}

// TableName returns the table name for GORM
func (Lot) TableName() string {
	return "lots"
}
