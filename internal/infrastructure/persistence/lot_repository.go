package persistence

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/pharmacore/backend/internal/domain/inventory"
	"github.com/pharmacore/backend/internal/domain/shared"
	"gorm.io/gorm"
)

// GormLotRepository implements LotRepository using GORM
type GormLotRepository struct {
	db *gorm.DB
}

// NewGormLotRepository creates a new GormLotRepository
func NewGormLotRepository(db *gorm.DB) *GormLotRepository {
	return &GormLotRepository{db: db}
}

// FindByID finds a lot by its ID. Returns nil when no row matches.
func (r *GormLotRepository) FindByID(ctx context.Context, id uuid.UUID) (*inventory.Lot, error) {
	var lot inventory.Lot
	if err := r.db.WithContext(ctx).First(&lot, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &lot, nil
}

// FindAll returns lots matching the filter
func (r *GormLotRepository) FindAll(ctx context.Context, filter shared.Filter) ([]inventory.Lot, error) {
	var lots []inventory.Lot
	query := applyFilter(
		r.db.WithContext(ctx).Model(&inventory.Lot{}),
		filter, "created_at DESC", "lot_number", "expiry_date", "received_date", "created_at",
	)
	if err := query.Find(&lots).Error; err != nil {
		return nil, err
	}
	return lots, nil
}

// FindByProduct returns all lots of a product at a pharmacy
func (r *GormLotRepository) FindByProduct(ctx context.Context, productID, pharmacyID uuid.UUID) ([]inventory.Lot, error) {
	var lots []inventory.Lot
	if err := r.db.WithContext(ctx).
		Where("product_id = ? AND pharmacy_id = ?", productID, pharmacyID).
		Order("COALESCE(expiry_date, '9999-12-31') ASC, received_date ASC, created_at ASC").
		Find(&lots).Error; err != nil {
		return nil, err
	}
	return lots, nil
}

// FindSellable returns lots the allocator may draw from, in first-expiry
// order with undated lots last. The expiry cutoff is applied here so a stale
// status column cannot leak expired stock into an allocation.
func (r *GormLotRepository) FindSellable(ctx context.Context, productID, pharmacyID uuid.UUID, now time.Time) ([]inventory.Lot, error) {
	var lots []inventory.Lot
	if err := r.db.WithContext(ctx).
		Where("product_id = ? AND pharmacy_id = ?", productID, pharmacyID).
		Where("status = ? AND quantity > 0", inventory.LotStatusActive).
		Where("expiry_date IS NULL OR expiry_date > ?", now).
		Order("COALESCE(expiry_date, '9999-12-31') ASC, received_date ASC, created_at ASC").
		Find(&lots).Error; err != nil {
		return nil, err
	}
	return lots, nil
}

// FindExpiringWithin returns sellable lots expiring inside the window
func (r *GormLotRepository) FindExpiringWithin(ctx context.Context, pharmacyID uuid.UUID, now time.Time, window time.Duration) ([]inventory.Lot, error) {
	var lots []inventory.Lot
	cutoff := now.Add(window)
	if err := r.db.WithContext(ctx).
		Where("pharmacy_id = ?", pharmacyID).
		Where("status = ? AND quantity > 0", inventory.LotStatusActive).
		Where("expiry_date IS NOT NULL AND expiry_date > ? AND expiry_date <= ?", now, cutoff).
		Order("expiry_date ASC").
		Find(&lots).Error; err != nil {
		return nil, err
	}
	return lots, nil
}

// Save creates or updates a lot
func (r *GormLotRepository) Save(ctx context.Context, lot *inventory.Lot) error {
	return r.db.WithContext(ctx).Save(lot).Error
}

// SaveWithLock saves the lot only if its stored version matches the version
// the caller loaded.
func (r *GormLotRepository) SaveWithLock(ctx context.Context, lot *inventory.Lot) error {
	result := r.db.WithContext(ctx).
		Model(lot).
		Where("id = ? AND version = ?", lot.ID, lot.Version-1).
		Updates(map[string]interface{}{
			"quantity":   lot.Quantity,
			"status":     lot.Status,
			"version":    lot.Version,
			"updated_at": lot.UpdatedAt,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return shared.ErrConcurrencyConflict
	}
	return nil
}

// Delete deletes a lot
func (r *GormLotRepository) Delete(ctx context.Context, id uuid.UUID) error {
	result := r.db.WithContext(ctx).Delete(&inventory.Lot{}, "id = ?", id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return shared.ErrNotFound
	}
	return nil
}

// Count counts lots matching the filter
func (r *GormLotRepository) Count(ctx context.Context, filter shared.Filter) (int64, error) {
	var count int64
	query := r.db.WithContext(ctx).Model(&inventory.Lot{})
	if productID, ok := filter.Filters["product_id"]; ok {
		query = query.Where("product_id = ?", productID)
	}
	if err := query.Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

var _ inventory.LotRepository = (*GormLotRepository)(nil)
