package sales

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/pharmacore/backend/internal/domain/shared"
)

// SaleRepository provides access to committed sales
type SaleRepository interface {
	shared.Repository[Sale]
	// FindByInvoiceNumber returns the sale with the given invoice number
	FindByInvoiceNumber(ctx context.Context, invoiceNumber string) (*Sale, error)
	// FindCreditOutstanding returns credit sales with a positive balance
	FindCreditOutstanding(ctx context.Context, pharmacyID uuid.UUID, filter shared.Filter) ([]Sale, error)
	// NextInvoiceNumber reserves the next invoice number for the given day
	NextInvoiceNumber(ctx context.Context, day time.Time) (string, error)
	// SaveWithLock persists the sale with an optimistic version check
	SaveWithLock(ctx context.Context, sale *Sale) error
}

// PendingSaleRepository provides access to staged sales
type PendingSaleRepository interface {
	shared.Repository[PendingSale]
	// FindByStatus returns staged sales in the given status
	FindByStatus(ctx context.Context, pharmacyID uuid.UUID, status PendingSaleStatus, filter shared.Filter) ([]PendingSale, error)
	// SaveWithLock persists the pending sale with an optimistic version check
	SaveWithLock(ctx context.Context, pendingSale *PendingSale) error
}
