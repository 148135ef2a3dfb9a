package inventory

import (
	"time"

	"github.com/google/uuid"
	"github.com/pharmacore/backend/internal/domain/shared"
	"github.com/pharmacore/backend/internal/domain/shared/valueobject"
)

// Product represents a sellable item at a pharmacy. StockQuantity is the
// aggregate on-hand count and must equal the sum of quantities over the
// product's active lots at that pharmacy after every committed operation.
type Product struct {
	shared.BaseAggregateRoot
	PharmacyID    uuid.UUID
	Name          string
	SKU           string            `gorm:"uniqueIndex:idx_products_pharmacy_sku,priority:2"`
	UnitPrice     valueobject.Money `gorm:"type:numeric(14,2)"`
	StockQuantity int
	MinStockLevel int
}

// NewProduct creates a new product with zero stock
func NewProduct(pharmacyID uuid.UUID, name, sku string, unitPrice valueobject.Money, minStockLevel int) (*Product, error) {
	if name == "" {
		return nil, shared.NewDomainError("INVALID_PRODUCT_NAME", "Product name cannot be empty")
	}
	if unitPrice.IsNegative() {
		return nil, shared.ErrInvalidAmount
	}
	return &Product{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		PharmacyID:        pharmacyID,
		Name:              name,
		SKU:               sku,
		UnitPrice:         unitPrice,
		StockQuantity:     0,
		MinStockLevel:     minStockLevel,
	}, nil
}

// AddStock increases the aggregate stock count
func (p *Product) AddStock(quantity int, now time.Time) error {
	if quantity <= 0 {
		return shared.ErrInvalidQuantity
	}
	p.StockQuantity += quantity
	p.UpdatedAt = now
	return nil
}

// DeductStock decreases the aggregate stock count
func (p *Product) DeductStock(quantity int, now time.Time) error {
	if quantity <= 0 {
		return shared.ErrInvalidQuantity
	}
	if quantity > p.StockQuantity {
		return shared.NewInsufficientStockError(p.ID.String(), quantity, p.StockQuantity)
	}
	p.StockQuantity -= quantity
	p.UpdatedAt = now
	return nil
}

// AdjustStock applies a signed correction to the aggregate stock count
func (p *Product) AdjustStock(delta int, now time.Time) error {
	if delta == 0 {
		return shared.ErrInvalidQuantity
	}
	if p.StockQuantity+delta < 0 {
		return shared.NewInsufficientStockError(p.ID.String(), -delta, p.StockQuantity)
	}
	p.StockQuantity += delta
	p.UpdatedAt = now
	return nil
}

// IsLowStock returns true if the aggregate count is at or below the minimum level
func (p *Product) IsLowStock() bool {
	return p.StockQuantity <= p.MinStockLevel
}

// TableName returns the table name for GORM
func (Product) TableName() string {
	return "products"
}
