package inventory

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/pharmacore/backend/internal/domain/shared"
)

// ProductRepository provides access to product aggregates
type ProductRepository interface {
	shared.Repository[Product]
	// FindByPharmacy returns products of a pharmacy matching the filter
	FindByPharmacy(ctx context.Context, pharmacyID uuid.UUID, filter shared.Filter) ([]Product, error)
	// FindLowStock returns products at or below their minimum stock level
	FindLowStock(ctx context.Context, pharmacyID uuid.UUID) ([]Product, error)
	// SaveWithLock persists the product with an optimistic version check
	SaveWithLock(ctx context.Context, product *Product) error
}

// LotRepository provides access to stock lots
type LotRepository interface {
	shared.Repository[Lot]
	// FindByProduct returns all lots of a product at a pharmacy
	FindByProduct(ctx context.Context, productID, pharmacyID uuid.UUID) ([]Lot, error)
	// FindSellable returns lots the allocator may draw from, in FEFO order
	FindSellable(ctx context.Context, productID, pharmacyID uuid.UUID, now time.Time) ([]Lot, error)
	// FindExpiringWithin returns sellable lots expiring inside the window
	FindExpiringWithin(ctx context.Context, pharmacyID uuid.UUID, now time.Time, window time.Duration) ([]Lot, error)
	// SaveWithLock persists the lot with an optimistic version check
	SaveWithLock(ctx context.Context, lot *Lot) error
}

// MovementRepository provides append-only access to stock movements
type MovementRepository interface {
	// Save appends a movement record; movements are never updated
	Save(ctx context.Context, movement *StockMovement) error
	// SaveAll appends a batch of movement records in order
	SaveAll(ctx context.Context, movements []*StockMovement) error
	// FindByProduct returns movements for a product, newest first
	FindByProduct(ctx context.Context, productID uuid.UUID, filter shared.Filter) ([]StockMovement, error)
	// FindByLot returns movements for a lot, newest first
	FindByLot(ctx context.Context, lotID uuid.UUID, filter shared.Filter) ([]StockMovement, error)
	// FindByReference returns movements recorded for a reference
	FindByReference(ctx context.Context, referenceType, referenceID string) ([]StockMovement, error)
}
