package handler

// CreateSaleRequest is the request body for creating a sale
type CreateSaleRequest struct {
	PharmacyID       string                  `json:"pharmacy_id" binding:"required,uuid"`
	CustomerID       string                  `json:"customer_id" binding:"omitempty,uuid"`
	Lines            []CreateSaleLineRequest `json:"lines" binding:"required,min=1,dive"`
	PaymentType      string                  `json:"payment_type" binding:"required,oneof=cash credit"`
	ImmediatePayment string                  `json:"immediate_payment" binding:"omitempty,money"`
}

// CreateSaleLineRequest is one requested line of a sale
type CreateSaleLineRequest struct {
	ProductID string `json:"product_id" binding:"required,uuid"`
	Quantity  int    `json:"quantity" binding:"required,min=1"`
}

// RejectPendingSaleRequest is the request body for rejecting a staged sale
type RejectPendingSaleRequest struct {
	Reason string `json:"reason" binding:"required"`
}

// ListPendingSalesRequest are the query parameters of the staged sale queue
type ListPendingSalesRequest struct {
	PharmacyID string `form:"pharmacy_id" binding:"required,uuid"`
	Status     string `form:"status" binding:"omitempty,oneof=pending validated rejected"`
}

// RecordPaymentRequest is the request body for settling part of a sale
type RecordPaymentRequest struct {
	Amount string `json:"amount" binding:"required,money"`
	Method string `json:"method" binding:"required"`
}
