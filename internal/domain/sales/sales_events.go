package sales

import (
	"github.com/google/uuid"
	"github.com/pharmacore/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
)

// Aggregate type constants
const (
	AggregateTypeSale        = "Sale"
	AggregateTypePendingSale = "PendingSale"
)

// Event type constants
const (
	EventTypeSaleCreated          = "SaleCreated"
	EventTypeSalePaymentRecorded  = "SalePaymentRecorded"
	EventTypeSaleSettled          = "SaleSettled"
	EventTypePendingSaleCreated   = "PendingSaleCreated"
	EventTypePendingSaleValidated = "PendingSaleValidated"
	EventTypePendingSaleRejected  = "PendingSaleRejected"
)

// SaleCreatedEvent is raised when a sale is committed
type SaleCreatedEvent struct {
	shared.BaseDomainEvent
	SaleID        uuid.UUID       `json:"sale_id"`
	InvoiceNumber string          `json:"invoice_number"`
	PharmacyID    uuid.UUID       `json:"pharmacy_id"`
	Seller        string          `json:"seller"`
	PaymentType   PaymentType     `json:"payment_type"`
	TotalAmount   decimal.Decimal `json:"total_amount"`
	PaidAmount    decimal.Decimal `json:"paid_amount"`
	LineCount     int             `json:"line_count"`
}

// NewSaleCreatedEvent creates a new SaleCreatedEvent
func NewSaleCreatedEvent(sale *Sale) *SaleCreatedEvent {
	return &SaleCreatedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeSaleCreated, AggregateTypeSale, sale.ID),
		SaleID:          sale.ID,
		InvoiceNumber:   sale.InvoiceNumber,
		PharmacyID:      sale.PharmacyID,
		Seller:          sale.Seller,
		PaymentType:     sale.PaymentType,
		TotalAmount:     sale.TotalAmount,
		PaidAmount:      sale.PaidAmount,
		LineCount:       len(sale.Lines),
	}
}

// EventType returns the event type name
func (e *SaleCreatedEvent) EventType() string {
	return EventTypeSaleCreated
}

// SalePaymentRecordedEvent is raised for every settlement payment
type SalePaymentRecordedEvent struct {
	shared.BaseDomainEvent
	SaleID          uuid.UUID       `json:"sale_id"`
	InvoiceNumber   string          `json:"invoice_number"`
	PaymentID       uuid.UUID       `json:"payment_id"`
	Amount          decimal.Decimal `json:"amount"`
	Method          string          `json:"method"`
	RecordedBy      string          `json:"recorded_by"`
	RemainingAmount decimal.Decimal `json:"remaining_amount"`
	PaymentStatus   PaymentStatus   `json:"payment_status"`
	CreditStatus    CreditStatus    `json:"credit_status,omitempty"`
}

// NewSalePaymentRecordedEvent creates a new SalePaymentRecordedEvent
func NewSalePaymentRecordedEvent(sale *Sale, payment SalePayment) *SalePaymentRecordedEvent {
	return &SalePaymentRecordedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeSalePaymentRecorded, AggregateTypeSale, sale.ID),
		SaleID:          sale.ID,
		InvoiceNumber:   sale.InvoiceNumber,
		PaymentID:       payment.ID,
		Amount:          payment.Amount,
		Method:          payment.Method,
		RecordedBy:      payment.RecordedBy,
		RemainingAmount: sale.RemainingAmount,
		PaymentStatus:   sale.PaymentStatus,
		CreditStatus:    sale.CreditStatus,
	}
}

// EventType returns the event type name
func (e *SalePaymentRecordedEvent) EventType() string {
	return EventTypeSalePaymentRecorded
}

// SaleSettledEvent is raised when the remaining balance reaches zero
type SaleSettledEvent struct {
	shared.BaseDomainEvent
	SaleID        uuid.UUID       `json:"sale_id"`
	InvoiceNumber string          `json:"invoice_number"`
	TotalAmount   decimal.Decimal `json:"total_amount"`
	PaymentCount  int             `json:"payment_count"`
}

// NewSaleSettledEvent creates a new SaleSettledEvent
func NewSaleSettledEvent(sale *Sale) *SaleSettledEvent {
	return &SaleSettledEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeSaleSettled, AggregateTypeSale, sale.ID),
		SaleID:          sale.ID,
		InvoiceNumber:   sale.InvoiceNumber,
		TotalAmount:     sale.TotalAmount,
		PaymentCount:    len(sale.Payments),
	}
}

// EventType returns the event type name
func (e *SaleSettledEvent) EventType() string {
	return EventTypeSaleSettled
}

// PendingSaleCreatedEvent is raised when a sale is staged
type PendingSaleCreatedEvent struct {
	shared.BaseDomainEvent
	PendingSaleID uuid.UUID `json:"pending_sale_id"`
	Reference     string    `json:"reference"`
	PharmacyID    uuid.UUID `json:"pharmacy_id"`
	CreatedBy     string    `json:"created_by"`
	LineCount     int       `json:"line_count"`
}

// NewPendingSaleCreatedEvent creates a new PendingSaleCreatedEvent
func NewPendingSaleCreatedEvent(ps *PendingSale) *PendingSaleCreatedEvent {
	return &PendingSaleCreatedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypePendingSaleCreated, AggregateTypePendingSale, ps.ID),
		PendingSaleID:   ps.ID,
		Reference:       ps.Reference,
		PharmacyID:      ps.PharmacyID,
		CreatedBy:       ps.CreatedBy,
		LineCount:       len(ps.Lines),
	}
}

// EventType returns the event type name
func (e *PendingSaleCreatedEvent) EventType() string {
	return EventTypePendingSaleCreated
}

// PendingSaleValidatedEvent is raised when a staged sale becomes a real sale
type PendingSaleValidatedEvent struct {
	shared.BaseDomainEvent
	PendingSaleID uuid.UUID `json:"pending_sale_id"`
	Reference     string    `json:"reference"`
	SaleID        uuid.UUID `json:"sale_id"`
	ProcessedBy   string    `json:"processed_by"`
}

// NewPendingSaleValidatedEvent creates a new PendingSaleValidatedEvent
func NewPendingSaleValidatedEvent(ps *PendingSale, saleID uuid.UUID) *PendingSaleValidatedEvent {
	return &PendingSaleValidatedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypePendingSaleValidated, AggregateTypePendingSale, ps.ID),
		PendingSaleID:   ps.ID,
		Reference:       ps.Reference,
		SaleID:          saleID,
		ProcessedBy:     ps.ProcessedBy,
	}
}

// EventType returns the event type name
func (e *PendingSaleValidatedEvent) EventType() string {
	return EventTypePendingSaleValidated
}

// PendingSaleRejectedEvent is raised when a staged sale is rejected
type PendingSaleRejectedEvent struct {
	shared.BaseDomainEvent
	PendingSaleID uuid.UUID `json:"pending_sale_id"`
	Reference     string    `json:"reference"`
	Reason        string    `json:"reason"`
	ProcessedBy   string    `json:"processed_by"`
}

// NewPendingSaleRejectedEvent creates a new PendingSaleRejectedEvent
func NewPendingSaleRejectedEvent(ps *PendingSale, reason string) *PendingSaleRejectedEvent {
	return &PendingSaleRejectedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypePendingSaleRejected, AggregateTypePendingSale, ps.ID),
		PendingSaleID:   ps.ID,
		Reference:       ps.Reference,
		Reason:          reason,
		ProcessedBy:     ps.ProcessedBy,
	}
}

// EventType returns the event type name
func (e *PendingSaleRejectedEvent) EventType() string {
	return EventTypePendingSaleRejected
}
