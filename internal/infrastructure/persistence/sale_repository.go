package persistence

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/pharmacore/backend/internal/domain/sales"
	"github.com/pharmacore/backend/internal/domain/shared"
	"gorm.io/gorm"
)

// GormSaleRepository implements SaleRepository using GORM
type GormSaleRepository struct {
	db *gorm.DB
}

// NewGormSaleRepository creates a new GormSaleRepository
func NewGormSaleRepository(db *gorm.DB) *GormSaleRepository {
	return &GormSaleRepository{db: db}
}

// FindByID finds a sale by its ID. Returns nil when no row matches.
func (r *GormSaleRepository) FindByID(ctx context.Context, id uuid.UUID) (*sales.Sale, error) {
	var sale sales.Sale
	if err := r.db.WithContext(ctx).First(&sale, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &sale, nil
}

// FindAll returns sales matching the filter
func (r *GormSaleRepository) FindAll(ctx context.Context, filter shared.Filter) ([]sales.Sale, error) {
	var results []sales.Sale
	query := r.db.WithContext(ctx).Model(&sales.Sale{})
	if pharmacyID, ok := filter.Filters["pharmacy_id"]; ok {
		query = query.Where("pharmacy_id = ?", pharmacyID)
	}
	if paymentType, ok := filter.Filters["payment_type"]; ok {
		query = query.Where("payment_type = ?", paymentType)
	}
	if filter.Search != "" {
		query = query.Where("invoice_number ILIKE ?", "%"+filter.Search+"%")
	}
	query = applyFilter(query, filter, "sold_at DESC", "invoice_number", "sold_at", "total_amount", "created_at")
	if err := query.Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

// FindByInvoiceNumber returns the sale with the given invoice number.
// Returns nil when no row matches.
func (r *GormSaleRepository) FindByInvoiceNumber(ctx context.Context, invoiceNumber string) (*sales.Sale, error) {
	var sale sales.Sale
	if err := r.db.WithContext(ctx).First(&sale, "invoice_number = ?", invoiceNumber).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &sale, nil
}

// FindCreditOutstanding returns credit sales with a positive balance
func (r *GormSaleRepository) FindCreditOutstanding(ctx context.Context, pharmacyID uuid.UUID, filter shared.Filter) ([]sales.Sale, error) {
	var results []sales.Sale
	query := r.db.WithContext(ctx).
		Where("pharmacy_id = ?", pharmacyID).
		Where("payment_type = ? AND payment_status <> ?", sales.PaymentTypeCredit, sales.PaymentStatusPaid)
	query = applyFilter(query, filter, "sold_at ASC", "sold_at", "remaining_amount", "created_at")
	if err := query.Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

// NextInvoiceNumber reserves the next invoice number for the given day. The
// format is INV-YYYYMMDD-NNNN with the sequence restarting each day. The
// unique index on invoice_number is the final guard against a race between
// two concurrent reservations.
func (r *GormSaleRepository) NextInvoiceNumber(ctx context.Context, day time.Time) (string, error) {
	prefix := "INV-" + day.Format("20060102")

	var last string
	err := r.db.WithContext(ctx).
		Model(&sales.Sale{}).
		Select("invoice_number").
		Where("invoice_number LIKE ?", prefix+"-%").
		Order("invoice_number DESC").
		Limit(1).
		Scan(&last).Error
	if err != nil {
		return "", err
	}

	seq := 1
	if last != "" {
		var parsed int
		if _, err := fmt.Sscanf(last, prefix+"-%04d", &parsed); err == nil {
			seq = parsed + 1
		}
	}
	return fmt.Sprintf("%s-%04d", prefix, seq), nil
}

// Save creates or updates a sale. Losing the invoice-number race surfaces as
// a unique violation; callers see it as a retryable concurrency conflict.
func (r *GormSaleRepository) Save(ctx context.Context, sale *sales.Sale) error {
	err := r.db.WithContext(ctx).Save(sale).Error
	if isUniqueViolation(err, "invoice_number") {
		return shared.ErrConcurrencyConflict
	}
	return err
}

// isUniqueViolation reports whether the error is a postgres unique-index
// violation (SQLSTATE 23505) on a constraint containing the given column.
func isUniqueViolation(err error, column string) bool {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return false
	}
	return pgErr.Code == "23505" && strings.Contains(pgErr.ConstraintName, column)
}

// SaveWithLock saves the sale only if its stored version matches the version
// the caller loaded.
func (r *GormSaleRepository) SaveWithLock(ctx context.Context, sale *sales.Sale) error {
	result := r.db.WithContext(ctx).
		Model(sale).
		Where("id = ? AND version = ?", sale.ID, sale.Version-1).
		Updates(map[string]interface{}{
			"paid_amount":      sale.PaidAmount,
			"remaining_amount": sale.RemainingAmount,
			"payment_status":   sale.PaymentStatus,
			"credit_status":    sale.CreditStatus,
			"payments":         sale.Payments,
			"version":          sale.Version,
			"updated_at":       sale.UpdatedAt,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return shared.ErrConcurrencyConflict
	}
	return nil
}

// Delete deletes a sale
func (r *GormSaleRepository) Delete(ctx context.Context, id uuid.UUID) error {
	result := r.db.WithContext(ctx).Delete(&sales.Sale{}, "id = ?", id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return shared.ErrNotFound
	}
	return nil
}

// Count counts sales matching the filter
func (r *GormSaleRepository) Count(ctx context.Context, filter shared.Filter) (int64, error) {
	var count int64
	query := r.db.WithContext(ctx).Model(&sales.Sale{})
	if pharmacyID, ok := filter.Filters["pharmacy_id"]; ok {
		query = query.Where("pharmacy_id = ?", pharmacyID)
	}
	if err := query.Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

var _ sales.SaleRepository = (*GormSaleRepository)(nil)
