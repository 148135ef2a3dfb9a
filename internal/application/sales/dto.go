package sales

import (
	"time"

	"github.com/google/uuid"
	"github.com/pharmacore/backend/internal/domain/sales"
	"github.com/pharmacore/backend/internal/domain/shared"
	"github.com/pharmacore/backend/internal/domain/shared/valueobject"
)

// TrustTier decides whether an actor's sales commit directly or are staged
// for validation. Callers supply the tier explicitly; the core performs no
// authorization of its own.
type TrustTier string

const (
	// TrustTierDirect allows committing sales immediately
	TrustTierDirect TrustTier = "direct"
	// TrustTierStaged restricts the actor to staging pending sales
	TrustTierStaged TrustTier = "staged"
)

// IsValid checks if the trust tier is valid
func (t TrustTier) IsValid() bool {
	return t == TrustTierDirect || t == TrustTierStaged
}

// String returns the string representation
func (t TrustTier) String() string {
	return string(t)
}

// Actor identifies who is performing an operation. There is no ambient
// session state; every service call takes the actor explicitly.
type Actor struct {
	ID        string
	TrustTier TrustTier
}

// Validate checks the actor fields
func (a Actor) Validate() error {
	if a.ID == "" {
		return shared.NewDomainError("INVALID_ACTOR", "Actor ID cannot be empty")
	}
	if !a.TrustTier.IsValid() {
		return shared.NewDomainError("INVALID_TRUST_TIER", "Unknown trust tier")
	}
	return nil
}

// SaleLineInput is one requested line of a sale. The unit price comes from
// the product record at commit time.
type SaleLineInput struct {
	ProductID uuid.UUID
	Quantity  int
}

// CreateSaleCommand is the input for creating a sale
type CreateSaleCommand struct {
	PharmacyID       uuid.UUID
	CustomerID       *uuid.UUID
	Lines            []SaleLineInput
	PaymentType      sales.PaymentType
	ImmediatePayment valueobject.Money
}

// Validate checks the command fields that can be checked without the store
func (c CreateSaleCommand) Validate() error {
	if c.PharmacyID == uuid.Nil {
		return shared.NewDomainError("INVALID_PHARMACY", "Pharmacy ID cannot be empty")
	}
	if len(c.Lines) == 0 {
		return shared.ErrInvalidQuantity
	}
	for _, line := range c.Lines {
		if line.ProductID == uuid.Nil {
			return shared.ErrProductNotFound
		}
		if line.Quantity <= 0 {
			return shared.ErrInvalidQuantity
		}
	}
	if !c.PaymentType.IsValid() {
		return shared.NewDomainError("INVALID_PAYMENT_TYPE", "Unknown payment type")
	}
	if c.ImmediatePayment.IsNegative() {
		return shared.ErrInvalidAmount
	}
	return nil
}

// SaleLineResult is one committed line of a sale
type SaleLineResult struct {
	ProductID   uuid.UUID `json:"product_id"`
	ProductName string    `json:"product_name"`
	Quantity    int       `json:"quantity"`
	UnitPrice   string    `json:"unit_price"`
	LineTotal   string    `json:"line_total"`
}

// SaleResult describes a committed sale
type SaleResult struct {
	SaleID          uuid.UUID          `json:"sale_id"`
	InvoiceNumber   string             `json:"invoice_number"`
	PharmacyID      uuid.UUID          `json:"pharmacy_id"`
	CustomerID      *uuid.UUID         `json:"customer_id,omitempty"`
	Seller          string             `json:"seller"`
	Lines           []SaleLineResult   `json:"lines"`
	TotalAmount     string             `json:"total_amount"`
	PaidAmount      string             `json:"paid_amount"`
	RemainingAmount string             `json:"remaining_amount"`
	PaymentStatus   sales.PaymentStatus `json:"payment_status"`
	PaymentType     sales.PaymentType   `json:"payment_type"`
	CreditStatus    sales.CreditStatus  `json:"credit_status,omitempty"`
	PaymentCount    int                `json:"payment_count"`
	SoldAt          time.Time          `json:"sold_at"`
}

// PendingSaleResult describes a staged sale
type PendingSaleResult struct {
	PendingSaleID uuid.UUID               `json:"pending_sale_id"`
	Reference     string                  `json:"reference"`
	Status        sales.PendingSaleStatus `json:"status"`
	SaleID        *uuid.UUID              `json:"sale_id,omitempty"`
	RejectReason  string                  `json:"reject_reason,omitempty"`
}

// CreateSaleResult is either a committed sale (direct tier) or a staged
// pending sale (staged tier)
type CreateSaleResult struct {
	Staged      bool               `json:"staged"`
	Sale        *SaleResult        `json:"sale,omitempty"`
	PendingSale *PendingSaleResult `json:"pending_sale,omitempty"`
}

// NewSaleResult maps a sale aggregate to its result DTO
func NewSaleResult(sale *sales.Sale) *SaleResult {
	lines := make([]SaleLineResult, 0, len(sale.Lines))
	for _, line := range sale.Lines {
		lines = append(lines, SaleLineResult{
			ProductID:   line.ProductID,
			ProductName: line.ProductName,
			Quantity:    line.Quantity,
			UnitPrice:   line.UnitPrice.StringFixed(2),
			LineTotal:   line.LineTotal.StringFixed(2),
		})
	}
	return &SaleResult{
		SaleID:          sale.ID,
		InvoiceNumber:   sale.InvoiceNumber,
		PharmacyID:      sale.PharmacyID,
		CustomerID:      sale.CustomerID,
		Seller:          sale.Seller,
		Lines:           lines,
		TotalAmount:     sale.TotalAmount.StringFixed(2),
		PaidAmount:      sale.PaidAmount.StringFixed(2),
		RemainingAmount: sale.RemainingAmount.StringFixed(2),
		PaymentStatus:   sale.PaymentStatus,
		PaymentType:     sale.PaymentType,
		CreditStatus:    sale.CreditStatus,
		PaymentCount:    sale.PaymentCount(),
		SoldAt:          sale.SoldAt,
	}
}

// NewPendingSaleResult maps a pending sale aggregate to its result DTO
func NewPendingSaleResult(ps *sales.PendingSale) *PendingSaleResult {
	return &PendingSaleResult{
		PendingSaleID: ps.ID,
		Reference:     ps.Reference,
		Status:        ps.Status,
		SaleID:        ps.SaleID,
		RejectReason:  ps.RejectReason,
	}
}
