package persistence

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/pharmacore/backend/internal/domain/sales"
	"github.com/pharmacore/backend/internal/domain/shared"
	"gorm.io/gorm"
)

// GormPendingSaleRepository implements PendingSaleRepository using GORM
type GormPendingSaleRepository struct {
	db *gorm.DB
}

// NewGormPendingSaleRepository creates a new GormPendingSaleRepository
func NewGormPendingSaleRepository(db *gorm.DB) *GormPendingSaleRepository {
	return &GormPendingSaleRepository{db: db}
}

// FindByID finds a pending sale by its ID. Returns nil when no row matches.
func (r *GormPendingSaleRepository) FindByID(ctx context.Context, id uuid.UUID) (*sales.PendingSale, error) {
	var pending sales.PendingSale
	if err := r.db.WithContext(ctx).First(&pending, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &pending, nil
}

// FindAll returns pending sales matching the filter
func (r *GormPendingSaleRepository) FindAll(ctx context.Context, filter shared.Filter) ([]sales.PendingSale, error) {
	var results []sales.PendingSale
	query := r.db.WithContext(ctx).Model(&sales.PendingSale{})
	if pharmacyID, ok := filter.Filters["pharmacy_id"]; ok {
		query = query.Where("pharmacy_id = ?", pharmacyID)
	}
	query = applyFilter(query, filter, "created_at DESC", "reference", "status", "created_at")
	if err := query.Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

// FindByStatus returns staged sales in the given status, oldest first so the
// validation queue is worked in arrival order.
func (r *GormPendingSaleRepository) FindByStatus(ctx context.Context, pharmacyID uuid.UUID, status sales.PendingSaleStatus, filter shared.Filter) ([]sales.PendingSale, error) {
	var results []sales.PendingSale
	query := r.db.WithContext(ctx).
		Where("pharmacy_id = ? AND status = ?", pharmacyID, status)
	query = applyFilter(query, filter, "created_at ASC", "reference", "created_at")
	if err := query.Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

// Save creates or updates a pending sale
func (r *GormPendingSaleRepository) Save(ctx context.Context, pending *sales.PendingSale) error {
	return r.db.WithContext(ctx).Save(pending).Error
}

// SaveWithLock saves the pending sale only if its stored version matches the
// version the caller loaded. This is what makes the single status transition
// safe against two validators racing on the same staged sale.
func (r *GormPendingSaleRepository) SaveWithLock(ctx context.Context, pending *sales.PendingSale) error {
	result := r.db.WithContext(ctx).
		Model(pending).
		Where("id = ? AND version = ?", pending.ID, pending.Version-1).
		Updates(map[string]interface{}{
			"status":        pending.Status,
			"sale_id":       pending.SaleID,
			"reject_reason": pending.RejectReason,
			"processed_by":  pending.ProcessedBy,
			"processed_at":  pending.ProcessedAt,
			"version":       pending.Version,
			"updated_at":    pending.UpdatedAt,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return shared.ErrConcurrencyConflict
	}
	return nil
}

// Delete deletes a pending sale
func (r *GormPendingSaleRepository) Delete(ctx context.Context, id uuid.UUID) error {
	result := r.db.WithContext(ctx).Delete(&sales.PendingSale{}, "id = ?", id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return shared.ErrNotFound
	}
	return nil
}

// Count counts pending sales matching the filter
func (r *GormPendingSaleRepository) Count(ctx context.Context, filter shared.Filter) (int64, error) {
	var count int64
	query := r.db.WithContext(ctx).Model(&sales.PendingSale{})
	if pharmacyID, ok := filter.Filters["pharmacy_id"]; ok {
		query = query.Where("pharmacy_id = ?", pharmacyID)
	}
	if status, ok := filter.Filters["status"]; ok {
		query = query.Where("status = ?", status)
	}
	if err := query.Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

var _ sales.PendingSaleRepository = (*GormPendingSaleRepository)(nil)
