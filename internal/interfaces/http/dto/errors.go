package dto

import "net/http"

// Error codes surfaced by the API itself, outside the domain
const (
	ErrCodeInternal     = "INTERNAL"
	ErrCodeBadRequest   = "BAD_REQUEST"
	ErrCodeUnauthorized = "UNAUTHORIZED"
	ErrCodeForbidden    = "FORBIDDEN"
	ErrCodeNotFound     = "NOT_FOUND"
)

// domainErrorStatus maps domain error codes to HTTP status codes. Codes not
// listed here fall back to 422; the domain layer only emits codes for
// rejected operations, never for internal faults.
var domainErrorStatus = map[string]int{
	"NOT_FOUND":               http.StatusNotFound,
	"PRODUCT_NOT_FOUND":       http.StatusNotFound,
	"LOT_NOT_FOUND":           http.StatusNotFound,
	"ALREADY_EXISTS":          http.StatusConflict,
	"ALREADY_PROCESSED":       http.StatusConflict,
	"CONCURRENCY_CONFLICT":    http.StatusConflict,
	"DUPLICATE_REQUEST":       http.StatusConflict,
	"UNAUTHORIZED":            http.StatusUnauthorized,
	"FORBIDDEN":               http.StatusForbidden,
	"INVALID_INPUT":           http.StatusBadRequest,
	"INVALID_QUANTITY":        http.StatusBadRequest,
	"INVALID_AMOUNT":          http.StatusBadRequest,
	"INVALID_PHARMACY":        http.StatusBadRequest,
	"INVALID_PAYMENT_TYPE":    http.StatusBadRequest,
	"INVALID_TRUST_TIER":      http.StatusBadRequest,
	"INVALID_ACTOR":           http.StatusBadRequest,
	"INVALID_STATUS":          http.StatusBadRequest,
	"INVALID_REASON":          http.StatusBadRequest,
	"INVALID_LOT_NUMBER":      http.StatusBadRequest,
	"INVALID_INVOICE_NUMBER":  http.StatusBadRequest,
	"INVALID_PRODUCT_NAME":    http.StatusBadRequest,
	"INSUFFICIENT_STOCK":      http.StatusUnprocessableEntity,
	"PAYMENT_EXCEEDS_BALANCE": http.StatusUnprocessableEntity,
	"INVALID_STATE":           http.StatusUnprocessableEntity,
}

// DomainErrorStatus returns the HTTP status for a domain error code
func DomainErrorStatus(code string) int {
	if status, ok := domainErrorStatus[code]; ok {
		return status
	}
	return http.StatusUnprocessableEntity
}
