package handler

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	appsales "github.com/pharmacore/backend/internal/application/sales"
	"github.com/pharmacore/backend/internal/domain/shared/valueobject"
	"github.com/pharmacore/backend/internal/infrastructure/logger"
	"github.com/pharmacore/backend/internal/interfaces/http/dto"
	"github.com/pharmacore/backend/internal/interfaces/http/middleware"
	"go.uber.org/zap"
)

// IdempotencyKeyHeader deduplicates retried payment requests
const IdempotencyKeyHeader = "Idempotency-Key"

// SettlementHandler exposes credit settlement over committed sales
type SettlementHandler struct {
	BaseHandler
	service *appsales.SettlementService
}

// NewSettlementHandler creates a new SettlementHandler
func NewSettlementHandler(service *appsales.SettlementService) *SettlementHandler {
	return &SettlementHandler{service: service}
}

// RecordPayment handles POST /sales/:id/payments
func (h *SettlementHandler) RecordPayment(c *gin.Context) {
	saleID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid sale ID")
		return
	}

	var req RecordPaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	amount, err := valueobject.NewMoneyUSDFromString(req.Amount)
	if err != nil {
		h.BadRequest(c, "Invalid payment amount")
		return
	}

	result, err := h.service.RecordPayment(c.Request.Context(), middleware.GetActor(c), appsales.RecordPaymentCommand{
		SaleID:         saleID,
		Amount:         amount,
		Method:         req.Method,
		IdempotencyKey: c.GetHeader(IdempotencyKeyHeader),
	})
	if err != nil {
		h.HandleError(c, err)
		return
	}

	logger.GetGinLogger(c).Info("payment recorded",
		zap.String("sale_id", saleID.String()),
		zap.String("amount", req.Amount),
		zap.String("payment_status", result.PaymentStatus.String()),
	)
	h.Success(c, result)
}

// ListCreditOutstanding handles GET /credit/outstanding
func (h *SettlementHandler) ListCreditOutstanding(c *gin.Context) {
	pharmacyID, err := uuid.Parse(c.Query("pharmacy_id"))
	if err != nil {
		h.BadRequest(c, "Invalid pharmacy ID")
		return
	}

	var req dto.ListRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	results, err := h.service.ListCreditOutstanding(c.Request.Context(), pharmacyID, listFilter(req))
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, results)
}
