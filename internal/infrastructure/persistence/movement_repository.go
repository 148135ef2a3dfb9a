package persistence

import (
	"context"

	"github.com/google/uuid"
	"github.com/pharmacore/backend/internal/domain/inventory"
	"github.com/pharmacore/backend/internal/domain/shared"
	"gorm.io/gorm"
)

// GormMovementRepository implements MovementRepository using GORM. The
// stock_movements table is append-only; there is no update or delete path.
type GormMovementRepository struct {
	db *gorm.DB
}

// NewGormMovementRepository creates a new GormMovementRepository
func NewGormMovementRepository(db *gorm.DB) *GormMovementRepository {
	return &GormMovementRepository{db: db}
}

// Save appends a movement record
func (r *GormMovementRepository) Save(ctx context.Context, movement *inventory.StockMovement) error {
	return r.db.WithContext(ctx).Create(movement).Error
}

// SaveAll appends a batch of movement records in order
func (r *GormMovementRepository) SaveAll(ctx context.Context, movements []*inventory.StockMovement) error {
	if len(movements) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).Create(movements).Error
}

// FindByProduct returns movements for a product, newest first
func (r *GormMovementRepository) FindByProduct(ctx context.Context, productID uuid.UUID, filter shared.Filter) ([]inventory.StockMovement, error) {
	var movements []inventory.StockMovement
	query := applyFilter(
		r.db.WithContext(ctx).Where("product_id = ?", productID),
		filter, "occurred_at DESC", "occurred_at", "kind", "created_at",
	)
	if err := query.Find(&movements).Error; err != nil {
		return nil, err
	}
	return movements, nil
}

// FindByLot returns movements for a lot, newest first
func (r *GormMovementRepository) FindByLot(ctx context.Context, lotID uuid.UUID, filter shared.Filter) ([]inventory.StockMovement, error) {
	var movements []inventory.StockMovement
	query := applyFilter(
		r.db.WithContext(ctx).Where("lot_id = ?", lotID),
		filter, "occurred_at DESC", "occurred_at", "kind", "created_at",
	)
	if err := query.Find(&movements).Error; err != nil {
		return nil, err
	}
	return movements, nil
}

// FindByReference returns movements recorded for a reference, in the order
// they were recorded.
func (r *GormMovementRepository) FindByReference(ctx context.Context, referenceType, referenceID string) ([]inventory.StockMovement, error) {
	var movements []inventory.StockMovement
	if err := r.db.WithContext(ctx).
		Where("reference_type = ? AND reference_id = ?", referenceType, referenceID).
		Order("occurred_at ASC, created_at ASC").
		Find(&movements).Error; err != nil {
		return nil, err
	}
	return movements, nil
}

var _ inventory.MovementRepository = (*GormMovementRepository)(nil)
