package persistence

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/pharmacore/backend/internal/domain/inventory"
	"github.com/pharmacore/backend/internal/domain/shared"
	"gorm.io/gorm"
)

// GormProductRepository implements ProductRepository using GORM
type GormProductRepository struct {
	db *gorm.DB
}

// NewGormProductRepository creates a new GormProductRepository
func NewGormProductRepository(db *gorm.DB) *GormProductRepository {
	return &GormProductRepository{db: db}
}

// FindByID finds a product by its ID. Returns nil when no row matches.
func (r *GormProductRepository) FindByID(ctx context.Context, id uuid.UUID) (*inventory.Product, error) {
	var product inventory.Product
	if err := r.db.WithContext(ctx).First(&product, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &product, nil
}

// FindAll returns products matching the filter
func (r *GormProductRepository) FindAll(ctx context.Context, filter shared.Filter) ([]inventory.Product, error) {
	var products []inventory.Product
	query := applyFilter(
		r.db.WithContext(ctx).Model(&inventory.Product{}),
		filter, "created_at DESC", "name", "sku", "stock_quantity", "created_at",
	)
	if err := query.Find(&products).Error; err != nil {
		return nil, err
	}
	return products, nil
}

// FindByPharmacy returns products of a pharmacy matching the filter
func (r *GormProductRepository) FindByPharmacy(ctx context.Context, pharmacyID uuid.UUID, filter shared.Filter) ([]inventory.Product, error) {
	var products []inventory.Product
	query := r.db.WithContext(ctx).Model(&inventory.Product{}).
		Where("pharmacy_id = ?", pharmacyID)
	if filter.Search != "" {
		query = query.Where("name ILIKE ? OR sku ILIKE ?", "%"+filter.Search+"%", "%"+filter.Search+"%")
	}
	query = applyFilter(query, filter, "name ASC", "name", "sku", "stock_quantity", "created_at")
	if err := query.Find(&products).Error; err != nil {
		return nil, err
	}
	return products, nil
}

// FindLowStock returns products at or below their minimum stock level
func (r *GormProductRepository) FindLowStock(ctx context.Context, pharmacyID uuid.UUID) ([]inventory.Product, error) {
	var products []inventory.Product
	if err := r.db.WithContext(ctx).
		Where("pharmacy_id = ? AND stock_quantity <= min_stock_level", pharmacyID).
		Order("stock_quantity ASC").
		Find(&products).Error; err != nil {
		return nil, err
	}
	return products, nil
}

// Save creates or updates a product
func (r *GormProductRepository) Save(ctx context.Context, product *inventory.Product) error {
	return r.db.WithContext(ctx).Save(product).Error
}

// SaveWithLock saves the product only if its stored version matches the
// version the caller loaded. A concurrent writer makes this a no-op, which
// surfaces as ConcurrencyConflict.
func (r *GormProductRepository) SaveWithLock(ctx context.Context, product *inventory.Product) error {
	result := r.db.WithContext(ctx).
		Model(product).
		Where("id = ? AND version = ?", product.ID, product.Version-1).
		Updates(map[string]interface{}{
			"name":            product.Name,
			"unit_price":      product.UnitPrice,
			"stock_quantity":  product.StockQuantity,
			"min_stock_level": product.MinStockLevel,
			"version":         product.Version,
			"updated_at":      product.UpdatedAt,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return shared.ErrConcurrencyConflict
	}
	return nil
}

// Delete deletes a product
func (r *GormProductRepository) Delete(ctx context.Context, id uuid.UUID) error {
	result := r.db.WithContext(ctx).Delete(&inventory.Product{}, "id = ?", id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return shared.ErrNotFound
	}
	return nil
}

// Count counts products matching the filter
func (r *GormProductRepository) Count(ctx context.Context, filter shared.Filter) (int64, error) {
	var count int64
	query := r.db.WithContext(ctx).Model(&inventory.Product{})
	if pharmacyID, ok := filter.Filters["pharmacy_id"]; ok {
		query = query.Where("pharmacy_id = ?", pharmacyID)
	}
	if err := query.Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

var _ inventory.ProductRepository = (*GormProductRepository)(nil)
