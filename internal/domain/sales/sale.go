package sales

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/pharmacore/backend/internal/domain/shared"
	"github.com/pharmacore/backend/internal/domain/shared/valueobject"
	"github.com/shopspring/decimal"
)

// PaymentStatus represents how much of a sale has been paid
type PaymentStatus string

const (
	PaymentStatusPending PaymentStatus = "pending"
	PaymentStatusPartial PaymentStatus = "partial"
	PaymentStatusPaid    PaymentStatus = "paid"
)

// IsValid checks if the payment status is valid
func (s PaymentStatus) IsValid() bool {
	switch s {
	case PaymentStatusPending, PaymentStatusPartial, PaymentStatusPaid:
		return true
	}
	return false
}

// String returns the string representation
func (s PaymentStatus) String() string {
	return string(s)
}

// PaymentType distinguishes cash sales from credit sales
type PaymentType string

const (
	PaymentTypeCash   PaymentType = "cash"
	PaymentTypeCredit PaymentType = "credit"
)

// IsValid checks if the payment type is valid
func (t PaymentType) IsValid() bool {
	return t == PaymentTypeCash || t == PaymentTypeCredit
}

// String returns the string representation
func (t PaymentType) String() string {
	return string(t)
}

// CreditStatus tracks the settlement of a credit sale. It is only meaningful
// when the payment type is credit.
type CreditStatus string

const (
	CreditStatusUnpaid        CreditStatus = "unpaid"
	CreditStatusPartiallyPaid CreditStatus = "partially_paid"
	CreditStatusPaid          CreditStatus = "paid"
	CreditStatusNone          CreditStatus = "" // cash sales carry no credit status
)

// String returns the string representation
func (s CreditStatus) String() string {
	return string(s)
}

// SaleLine is one line item of a sale. Lines are immutable once the sale is
// finalized; they are stored as a JSONB document inside the aggregate.
type SaleLine struct {
	ProductID   uuid.UUID       `json:"product_id"`
	ProductName string          `json:"product_name"`
	Quantity    int             `json:"quantity"`
	UnitPrice   decimal.Decimal `json:"unit_price"`
	LineTotal   decimal.Decimal `json:"line_total"`
}

// NewSaleLine creates a validated sale line
func NewSaleLine(productID uuid.UUID, productName string, quantity int, unitPrice valueobject.Money) (SaleLine, error) {
	if productID == uuid.Nil {
		return SaleLine{}, shared.ErrProductNotFound
	}
	if quantity <= 0 {
		return SaleLine{}, shared.ErrInvalidQuantity
	}
	if unitPrice.IsNegative() {
		return SaleLine{}, shared.ErrInvalidAmount
	}
	return SaleLine{
		ProductID:   productID,
		ProductName: productName,
		Quantity:    quantity,
		UnitPrice:   unitPrice.Amount(),
		LineTotal:   unitPrice.MultiplyByInt(int64(quantity)).Amount(),
	}, nil
}

// GetUnitPriceMoney returns the unit price as Money
func (l SaleLine) GetUnitPriceMoney() valueobject.Money {
	return valueobject.NewMoneyUSD(l.UnitPrice)
}

// GetLineTotalMoney returns the line total as Money
func (l SaleLine) GetLineTotalMoney() valueobject.Money {
	return valueobject.NewMoneyUSD(l.LineTotal)
}

// SaleLines is a slice of SaleLine stored as JSONB
type SaleLines []SaleLine

// Value implements driver.Valuer for JSONB storage
func (l SaleLines) Value() (driver.Value, error) {
	if l == nil {
		return "[]", nil
	}
	return json.Marshal(l)
}

// Scan implements sql.Scanner for JSONB retrieval
func (l *SaleLines) Scan(value interface{}) error {
	if value == nil {
		*l = SaleLines{}
		return nil
	}

	var bytes []byte
	switch v := value.(type) {
	case []byte:
		bytes = v
	case string:
		bytes = []byte(v)
	default:
		return errors.New("failed to scan SaleLines: unsupported type")
	}

	if len(bytes) == 0 {
		*l = SaleLines{}
		return nil
	}
	return json.Unmarshal(bytes, l)
}

// TotalQuantity returns the sum of line quantities
func (l SaleLines) TotalQuantity() int {
	total := 0
	for _, line := range l {
		total += line.Quantity
	}
	return total
}

// TotalAmount returns the sum of line totals
func (l SaleLines) TotalAmount() decimal.Decimal {
	total := decimal.Zero
	for _, line := range l {
		total = total.Add(line.LineTotal)
	}
	return total
}

// SalePaymentStatus represents the status of a payment event
type SalePaymentStatus string

const (
	// SalePaymentStatusConfirmed is the only status a recorded payment can
	// have; payments are immutable once confirmed.
	SalePaymentStatusConfirmed SalePaymentStatus = "confirmed"
)

// SalePayment is one payment event against a sale, stored as JSONB inside
// the aggregate. Immutable once confirmed.
type SalePayment struct {
	ID         uuid.UUID         `json:"id"`
	Amount     decimal.Decimal   `json:"amount"`
	Method     string            `json:"method"`
	Status     SalePaymentStatus `json:"status"`
	RecordedBy string            `json:"recorded_by"`
	RecordedAt time.Time         `json:"recorded_at"`
}

// NewSalePayment creates a confirmed payment record
func NewSalePayment(amount valueobject.Money, method, recordedBy string, recordedAt time.Time) SalePayment {
	return SalePayment{
		ID:         uuid.New(),
		Amount:     amount.Amount(),
		Method:     method,
		Status:     SalePaymentStatusConfirmed,
		RecordedBy: recordedBy,
		RecordedAt: recordedAt,
	}
}

// GetAmountMoney returns the payment amount as Money
func (p SalePayment) GetAmountMoney() valueobject.Money {
	return valueobject.NewMoneyUSD(p.Amount)
}

// IsConfirmed returns true if the payment is confirmed
func (p SalePayment) IsConfirmed() bool {
	return p.Status == SalePaymentStatusConfirmed
}

// SalePayments is a slice of SalePayment stored as JSONB
type SalePayments []SalePayment

// Value implements driver.Valuer for JSONB storage
func (p SalePayments) Value() (driver.Value, error) {
	if p == nil {
		return "[]", nil
	}
	return json.Marshal(p)
}

// Scan implements sql.Scanner for JSONB retrieval
func (p *SalePayments) Scan(value interface{}) error {
	if value == nil {
		*p = SalePayments{}
		return nil
	}

	var bytes []byte
	switch v := value.(type) {
	case []byte:
		bytes = v
	case string:
		bytes = []byte(v)
	default:
		return errors.New("failed to scan SalePayments: unsupported type")
	}

	if len(bytes) == 0 {
		*p = SalePayments{}
		return nil
	}
	return json.Unmarshal(bytes, p)
}

// ConfirmedTotal returns the sum of confirmed payment amounts
func (p SalePayments) ConfirmedTotal() decimal.Decimal {
	total := decimal.Zero
	for _, payment := range p {
		if payment.IsConfirmed() {
			total = total.Add(payment.Amount)
		}
	}
	return total
}

// Sale represents a committed transaction. RemainingAmount and both status
// fields are derived from the payment history, never set by hand.
type Sale struct {
	shared.BaseAggregateRoot
	InvoiceNumber   string `gorm:"uniqueIndex"`
	PharmacyID      uuid.UUID
	CustomerID      *uuid.UUID
	Seller          string
	Lines           SaleLines       `gorm:"type:jsonb"`
	TotalAmount     decimal.Decimal `gorm:"type:numeric(14,2)"`
	PaidAmount      decimal.Decimal `gorm:"type:numeric(14,2)"` // paid at the counter when the sale was created
	RemainingAmount decimal.Decimal `gorm:"type:numeric(14,2)"`
	PaymentStatus   PaymentStatus   `gorm:"type:varchar(20);not null"`
	PaymentType     PaymentType     `gorm:"type:varchar(20);not null"`
	CreditStatus    CreditStatus    `gorm:"type:varchar(20)"`
	Payments        SalePayments    `gorm:"type:jsonb"`
	SoldAt          time.Time
}

// NewSale creates a committed sale with its line items. immediatePayment is
// the amount collected at the counter; pass zero Money for none.
func NewSale(
	invoiceNumber string,
	pharmacyID uuid.UUID,
	customerID *uuid.UUID,
	seller string,
	lines []SaleLine,
	paymentType PaymentType,
	immediatePayment valueobject.Money,
	soldAt time.Time,
) (*Sale, error) {
	if invoiceNumber == "" {
		return nil, shared.NewDomainError("INVALID_INVOICE_NUMBER", "Invoice number cannot be empty")
	}
	if seller == "" {
		return nil, shared.NewDomainError("INVALID_SELLER", "Seller cannot be empty")
	}
	if len(lines) == 0 {
		return nil, shared.ErrInvalidQuantity
	}
	if !paymentType.IsValid() {
		return nil, shared.NewDomainError("INVALID_PAYMENT_TYPE", "Unknown payment type")
	}
	if immediatePayment.IsNegative() {
		return nil, shared.ErrInvalidAmount
	}

	saleLines := SaleLines(lines)
	total := saleLines.TotalAmount()
	if immediatePayment.Amount().GreaterThan(total) {
		return nil, shared.ErrPaymentExceedsBalance
	}

	sale := &Sale{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		InvoiceNumber:     invoiceNumber,
		PharmacyID:        pharmacyID,
		CustomerID:        customerID,
		Seller:            seller,
		Lines:             saleLines,
		TotalAmount:       total,
		PaidAmount:        immediatePayment.Amount(),
		Payments:          SalePayments{},
		PaymentType:       paymentType,
		SoldAt:            soldAt,
	}
	sale.recompute()

	sale.AddDomainEvent(NewSaleCreatedEvent(sale))
	return sale, nil
}

// ApplyPayment records a settlement payment against the sale. The amount
// must be positive and must not exceed the remaining balance; violations
// leave the sale untouched.
func (s *Sale) ApplyPayment(amount valueobject.Money, method, recordedBy string, recordedAt time.Time) error {
	if !amount.IsPositive() {
		return shared.ErrInvalidAmount
	}
	if amount.Amount().GreaterThan(s.RemainingAmount) {
		return shared.ErrPaymentExceedsBalance
	}

	payment := NewSalePayment(amount, method, recordedBy, recordedAt)
	s.Payments = append(s.Payments, payment)
	s.recompute()
	s.UpdatedAt = recordedAt

	s.AddDomainEvent(NewSalePaymentRecordedEvent(s, payment))
	if s.PaymentStatus == PaymentStatusPaid {
		s.AddDomainEvent(NewSaleSettledEvent(s))
	}
	return nil
}

// recompute derives remaining balance and both status fields from the
// payment history. The derivation is a pure function of that history, so
// recomputing from the same inputs always yields the same result.
func (s *Sale) recompute() {
	remaining := s.TotalAmount.Sub(s.PaidAmount).Sub(s.Payments.ConfirmedTotal())
	if remaining.IsNegative() {
		remaining = decimal.Zero
	}
	s.RemainingAmount = remaining

	hasPayment := s.PaidAmount.IsPositive() || len(s.Payments) > 0
	switch {
	case !remaining.IsPositive():
		s.PaymentStatus = PaymentStatusPaid
	case hasPayment:
		s.PaymentStatus = PaymentStatusPartial
	default:
		s.PaymentStatus = PaymentStatusPending
	}

	if s.PaymentType != PaymentTypeCredit {
		s.CreditStatus = CreditStatusNone
		return
	}
	switch s.PaymentStatus {
	case PaymentStatusPaid:
		s.CreditStatus = CreditStatusPaid
	case PaymentStatusPartial:
		s.CreditStatus = CreditStatusPartiallyPaid
	default:
		s.CreditStatus = CreditStatusUnpaid
	}
}

// Recompute re-derives the balance and status fields from the current
// payment history.
func (s *Sale) Recompute() {
	s.recompute()
}

// IsCredit returns true for credit sales
func (s *Sale) IsCredit() bool {
	return s.PaymentType == PaymentTypeCredit
}

// IsSettled returns true once the sale is fully paid
func (s *Sale) IsSettled() bool {
	return s.PaymentStatus == PaymentStatusPaid
}

// PaymentCount returns the number of settlement payments recorded
func (s *Sale) PaymentCount() int {
	return len(s.Payments)
}

// GetTotalAmountMoney returns the sale total as Money
func (s *Sale) GetTotalAmountMoney() valueobject.Money {
	return valueobject.NewMoneyUSD(s.TotalAmount)
}

// GetRemainingAmountMoney returns the outstanding balance as Money
func (s *Sale) GetRemainingAmountMoney() valueobject.Money {
	return valueobject.NewMoneyUSD(s.RemainingAmount)
}

// GetPaidAmountMoney returns the amount paid at creation as Money
func (s *Sale) GetPaidAmountMoney() valueobject.Money {
	return valueobject.NewMoneyUSD(s.PaidAmount)
}

// TableName returns the table name for GORM
func (Sale) TableName() string {
	return "sales"
}
