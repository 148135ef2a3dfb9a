package handler

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	appsales "github.com/pharmacore/backend/internal/application/sales"
	"github.com/pharmacore/backend/internal/domain/sales"
	"github.com/pharmacore/backend/internal/domain/shared/valueobject"
	"github.com/pharmacore/backend/internal/infrastructure/logger"
	"github.com/pharmacore/backend/internal/interfaces/http/dto"
	"github.com/pharmacore/backend/internal/interfaces/http/middleware"
	"go.uber.org/zap"
)

// SalesHandler exposes sale creation and the staged-sale validation queue
type SalesHandler struct {
	BaseHandler
	service *appsales.SaleService
}

// NewSalesHandler creates a new SalesHandler
func NewSalesHandler(service *appsales.SaleService) *SalesHandler {
	return &SalesHandler{service: service}
}

// CreateSale handles POST /sales. A direct-tier actor's sale commits
// immediately; a staged-tier actor's sale is staged for validation.
func (h *SalesHandler) CreateSale(c *gin.Context) {
	var req CreateSaleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	cmd, err := h.buildCreateCommand(req)
	if err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	result, err := h.service.CreateSale(c.Request.Context(), middleware.GetActor(c), cmd)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	log := logger.GetGinLogger(c)
	if result.Staged {
		log.Info("sale staged", zap.String("reference", result.PendingSale.Reference))
	} else {
		log.Info("sale committed", zap.String("invoice_number", result.Sale.InvoiceNumber))
	}
	h.Created(c, result)
}

// GetSale handles GET /sales/:id
func (h *SalesHandler) GetSale(c *gin.Context) {
	saleID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid sale ID")
		return
	}

	result, err := h.service.GetSale(c.Request.Context(), saleID)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, result)
}

// ListSales handles GET /sales
func (h *SalesHandler) ListSales(c *gin.Context) {
	var req dto.ListRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	filter := listFilter(req)
	if pharmacyID := c.Query("pharmacy_id"); pharmacyID != "" {
		filter.Filters["pharmacy_id"] = pharmacyID
	}

	results, err := h.service.ListSales(c.Request.Context(), filter)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, results)
}

// ListPendingSales handles GET /pending-sales
func (h *SalesHandler) ListPendingSales(c *gin.Context) {
	var req ListPendingSalesRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	pharmacyID, err := uuid.Parse(req.PharmacyID)
	if err != nil {
		h.BadRequest(c, "Invalid pharmacy ID")
		return
	}
	status := sales.PendingSaleStatusPending
	if req.Status != "" {
		status = sales.PendingSaleStatus(req.Status)
	}

	var listReq dto.ListRequest
	if err := c.ShouldBindQuery(&listReq); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	results, err := h.service.ListPendingSales(c.Request.Context(), pharmacyID, status, listFilter(listReq))
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, results)
}

// ValidatePendingSale handles POST /pending-sales/:id/validate. Validation
// re-runs allocation against current stock and commits the sale.
func (h *SalesHandler) ValidatePendingSale(c *gin.Context) {
	pendingID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid pending sale ID")
		return
	}

	result, err := h.service.ValidatePendingSale(c.Request.Context(), pendingID, middleware.GetActor(c))
	if err != nil {
		h.HandleError(c, err)
		return
	}

	logger.GetGinLogger(c).Info("pending sale validated",
		zap.String("pending_sale_id", pendingID.String()),
		zap.String("invoice_number", result.InvoiceNumber),
	)
	h.Success(c, result)
}

// RejectPendingSale handles POST /pending-sales/:id/reject
func (h *SalesHandler) RejectPendingSale(c *gin.Context) {
	pendingID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid pending sale ID")
		return
	}

	var req RejectPendingSaleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	result, err := h.service.RejectPendingSale(c.Request.Context(), pendingID, middleware.GetActor(c), req.Reason)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, result)
}

func (h *SalesHandler) buildCreateCommand(req CreateSaleRequest) (appsales.CreateSaleCommand, error) {
	pharmacyID, err := uuid.Parse(req.PharmacyID)
	if err != nil {
		return appsales.CreateSaleCommand{}, err
	}

	var customerID *uuid.UUID
	if req.CustomerID != "" {
		id, err := uuid.Parse(req.CustomerID)
		if err != nil {
			return appsales.CreateSaleCommand{}, err
		}
		customerID = &id
	}

	lines := make([]appsales.SaleLineInput, 0, len(req.Lines))
	for _, line := range req.Lines {
		productID, err := uuid.Parse(line.ProductID)
		if err != nil {
			return appsales.CreateSaleCommand{}, err
		}
		lines = append(lines, appsales.SaleLineInput{ProductID: productID, Quantity: line.Quantity})
	}

	payment := valueobject.ZeroUSD()
	if req.ImmediatePayment != "" {
		payment, err = valueobject.NewMoneyUSDFromString(req.ImmediatePayment)
		if err != nil {
			return appsales.CreateSaleCommand{}, err
		}
	}

	return appsales.CreateSaleCommand{
		PharmacyID:       pharmacyID,
		CustomerID:       customerID,
		Lines:            lines,
		PaymentType:      sales.PaymentType(req.PaymentType),
		ImmediatePayment: payment,
	}, nil
}
