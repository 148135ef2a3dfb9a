package shared

import "fmt"

// DomainError represents a domain-level error
type DomainError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// Error implements the error interface
func (e *DomainError) Error() string {
	return e.Message
}

// NewDomainError creates a new domain error
func NewDomainError(code, message string) *DomainError {
	return &DomainError{
		Code:    code,
		Message: message,
	}
}

// Common domain errors
var (
	ErrNotFound              = NewDomainError("NOT_FOUND", "Resource not found")
	ErrAlreadyExists         = NewDomainError("ALREADY_EXISTS", "Resource already exists")
	ErrInvalidInput          = NewDomainError("INVALID_INPUT", "Invalid input provided")
	ErrConcurrencyConflict   = NewDomainError("CONCURRENCY_CONFLICT", "Resource was modified by another process")
	ErrUnauthorized          = NewDomainError("UNAUTHORIZED", "Not authorized to perform this action")
	ErrForbidden             = NewDomainError("FORBIDDEN", "Access to this resource is forbidden")
	ErrInvalidState          = NewDomainError("INVALID_STATE", "Operation not allowed in current state")
	ErrProductNotFound       = NewDomainError("PRODUCT_NOT_FOUND", "Product not found")
	ErrLotNotFound           = NewDomainError("LOT_NOT_FOUND", "Stock lot not found")
	ErrInvalidQuantity       = NewDomainError("INVALID_QUANTITY", "Quantity must be a positive whole number")
	ErrInvalidAmount         = NewDomainError("INVALID_AMOUNT", "Amount must be positive")
	ErrAlreadyProcessed      = NewDomainError("ALREADY_PROCESSED", "Record has already been processed")
	ErrPaymentExceedsBalance = NewDomainError("PAYMENT_EXCEEDS_BALANCE", "Payment exceeds the outstanding balance")
)

// InsufficientStockError is returned when an allocation request cannot be
// covered by the sellable stock of a product. It carries the shortfall so
// callers can report how many units were missing.
type InsufficientStockError struct {
	ProductID string
	Requested int
	Available int
}

// Error implements the error interface
func (e *InsufficientStockError) Error() string {
	return fmt.Sprintf("insufficient stock for product %s: requested %d, available %d",
		e.ProductID, e.Requested, e.Available)
}

// Shortfall returns the number of units that could not be covered
func (e *InsufficientStockError) Shortfall() int {
	return e.Requested - e.Available
}

// NewInsufficientStockError creates a new insufficient stock error
func NewInsufficientStockError(productID string, requested, available int) *InsufficientStockError {
	return &InsufficientStockError{
		ProductID: productID,
		Requested: requested,
		Available: available,
	}
}
