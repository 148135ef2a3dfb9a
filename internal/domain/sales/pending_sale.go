package sales

import (
	"time"

	"github.com/google/uuid"
	"github.com/pharmacore/backend/internal/domain/shared"
)

// PendingSaleStatus represents the lifecycle of a staged sale
type PendingSaleStatus string

const (
	PendingSaleStatusPending   PendingSaleStatus = "pending"
	PendingSaleStatusValidated PendingSaleStatus = "validated"
	PendingSaleStatusRejected  PendingSaleStatus = "rejected"
)

// IsValid checks if the status is valid
func (s PendingSaleStatus) IsValid() bool {
	switch s {
	case PendingSaleStatusPending, PendingSaleStatusValidated, PendingSaleStatusRejected:
		return true
	}
	return false
}

// String returns the string representation
func (s PendingSaleStatus) String() string {
	return string(s)
}

// IsTerminal returns true once the staged sale has been processed
func (s PendingSaleStatus) IsTerminal() bool {
	return s == PendingSaleStatusValidated || s == PendingSaleStatusRejected
}

// PendingSale is a sale staged by a low-trust actor. It holds serialized line
// items and has no stock effect until validated. It transitions exactly once,
// to validated or rejected, and is terminal thereafter.
type PendingSale struct {
	shared.BaseAggregateRoot
	Reference    string `gorm:"uniqueIndex"`
	PharmacyID   uuid.UUID
	CustomerID   *uuid.UUID
	CreatedBy    string
	Lines        SaleLines         `gorm:"type:jsonb"`
	PaymentType  PaymentType       `gorm:"type:varchar(20);not null"`
	Status       PendingSaleStatus `gorm:"type:varchar(20);not null;default:'pending'"`
	SaleID       *uuid.UUID        // set when validated
	RejectReason string
	ProcessedBy  string
	ProcessedAt  *time.Time
}

// NewPendingSale stages a sale without touching stock
func NewPendingSale(
	reference string,
	pharmacyID uuid.UUID,
	customerID *uuid.UUID,
	createdBy string,
	lines []SaleLine,
	paymentType PaymentType,
) (*PendingSale, error) {
	if reference == "" {
		return nil, shared.NewDomainError("INVALID_REFERENCE", "Pending sale reference cannot be empty")
	}
	if createdBy == "" {
		return nil, shared.NewDomainError("INVALID_SELLER", "Creator cannot be empty")
	}
	if len(lines) == 0 {
		return nil, shared.ErrInvalidQuantity
	}
	if !paymentType.IsValid() {
		return nil, shared.NewDomainError("INVALID_PAYMENT_TYPE", "Unknown payment type")
	}

	ps := &PendingSale{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		Reference:         reference,
		PharmacyID:        pharmacyID,
		CustomerID:        customerID,
		CreatedBy:         createdBy,
		Lines:             SaleLines(lines),
		PaymentType:       paymentType,
		Status:            PendingSaleStatusPending,
	}
	ps.AddDomainEvent(NewPendingSaleCreatedEvent(ps))
	return ps, nil
}

// MarkValidated transitions pending -> validated and links the spawned sale
func (p *PendingSale) MarkValidated(saleID uuid.UUID, actor string, now time.Time) error {
	if p.Status != PendingSaleStatusPending {
		return shared.ErrAlreadyProcessed
	}
	if saleID == uuid.Nil {
		return shared.NewDomainError("INVALID_SALE", "Sale ID cannot be empty")
	}

	p.Status = PendingSaleStatusValidated
	p.SaleID = &saleID
	p.ProcessedBy = actor
	p.ProcessedAt = &now
	p.UpdatedAt = now
	p.IncrementVersion()

	p.AddDomainEvent(NewPendingSaleValidatedEvent(p, saleID))
	return nil
}

// MarkRejected transitions pending -> rejected; no stock effect
func (p *PendingSale) MarkRejected(reason, actor string, now time.Time) error {
	if p.Status != PendingSaleStatusPending {
		return shared.ErrAlreadyProcessed
	}
	if reason == "" {
		return shared.NewDomainError("INVALID_REASON", "Rejection reason cannot be empty")
	}

	p.Status = PendingSaleStatusRejected
	p.RejectReason = reason
	p.ProcessedBy = actor
	p.ProcessedAt = &now
	p.UpdatedAt = now
	p.IncrementVersion()

	p.AddDomainEvent(NewPendingSaleRejectedEvent(p, reason))
	return nil
}

// TableName returns the table name for GORM
func (PendingSale) TableName() string {
	return "pending_sales"
}
