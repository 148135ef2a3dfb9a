package handler

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	appinventory "github.com/pharmacore/backend/internal/application/inventory"
	"github.com/pharmacore/backend/internal/domain/shared/valueobject"
	"github.com/pharmacore/backend/internal/infrastructure/logger"
	"github.com/pharmacore/backend/internal/interfaces/http/dto"
	"github.com/pharmacore/backend/internal/interfaces/http/middleware"
	"go.uber.org/zap"
)

const dateLayout = "2006-01-02"

// InventoryHandler exposes lot intake, corrections and stock queries
type InventoryHandler struct {
	BaseHandler
	service          *appinventory.InventoryService
	nearExpiryWindow time.Duration
}

// NewInventoryHandler creates a new InventoryHandler
func NewInventoryHandler(service *appinventory.InventoryService, nearExpiryWindow time.Duration) *InventoryHandler {
	return &InventoryHandler{service: service, nearExpiryWindow: nearExpiryWindow}
}

// ReceiveLot handles POST /lots
func (h *InventoryHandler) ReceiveLot(c *gin.Context) {
	var req ReceiveLotRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	cmd, err := h.buildReceiveCommand(req)
	if err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	result, err := h.service.ReceiveLot(c.Request.Context(), middleware.GetActorID(c), cmd)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	logger.GetGinLogger(c).Info("lot received",
		zap.String("lot_id", result.LotID.String()),
		zap.String("lot_number", result.LotNumber),
		zap.Int("quantity", result.Quantity),
	)
	h.Created(c, result)
}

// AdjustLot handles POST /lots/:id/adjust
func (h *InventoryHandler) AdjustLot(c *gin.Context) {
	lotID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid lot ID")
		return
	}

	var req AdjustLotRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	result, err := h.service.AdjustLot(c.Request.Context(), middleware.GetActorID(c), appinventory.AdjustLotCommand{
		LotID:  lotID,
		Delta:  req.Delta,
		Reason: req.Reason,
	})
	if err != nil {
		h.HandleError(c, err)
		return
	}

	logger.GetGinLogger(c).Info("lot adjusted",
		zap.String("lot_id", lotID.String()),
		zap.Int("delta", req.Delta),
	)
	h.Success(c, result)
}

// RecallLot handles POST /lots/:id/recall
func (h *InventoryHandler) RecallLot(c *gin.Context) {
	lotID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid lot ID")
		return
	}

	var req RecallLotRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	result, err := h.service.RecallLot(c.Request.Context(), middleware.GetActorID(c), appinventory.RecallLotCommand{
		LotID:  lotID,
		Reason: req.Reason,
	})
	if err != nil {
		h.HandleError(c, err)
		return
	}

	logger.GetGinLogger(c).Warn("lot recalled",
		zap.String("lot_id", lotID.String()),
		zap.String("reason", req.Reason),
	)
	h.Success(c, result)
}

// ExpireStaleLots handles POST /products/:id/lots/expire
func (h *InventoryHandler) ExpireStaleLots(c *gin.Context) {
	productID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid product ID")
		return
	}

	results, err := h.service.ExpireStaleLots(c.Request.Context(), middleware.GetActorID(c), productID)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	if len(results) > 0 {
		logger.GetGinLogger(c).Info("stale lots expired",
			zap.String("product_id", productID.String()),
			zap.Int("lots", len(results)),
		)
	}
	h.Success(c, results)
}

// ListProducts handles GET /products
func (h *InventoryHandler) ListProducts(c *gin.Context) {
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

	results, err := h.service.ListProducts(c.Request.Context(), pharmacyID, listFilter(req))
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, results)
}

// ListLowStock handles GET /products/low-stock
func (h *InventoryHandler) ListLowStock(c *gin.Context) {
	pharmacyID, err := uuid.Parse(c.Query("pharmacy_id"))
	if err != nil {
		h.BadRequest(c, "Invalid pharmacy ID")
		return
	}

	results, err := h.service.ListLowStock(c.Request.Context(), pharmacyID)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, results)
}

// GetProductStock handles GET /products/:id/stock
func (h *InventoryHandler) GetProductStock(c *gin.Context) {
	productID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid product ID")
		return
	}

	result, err := h.service.GetProductStock(c.Request.Context(), productID)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, result)
}

// ListProductLots handles GET /products/:id/lots
func (h *InventoryHandler) ListProductLots(c *gin.Context) {
	productID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid product ID")
		return
	}
	pharmacyID, err := uuid.Parse(c.Query("pharmacy_id"))
	if err != nil {
		h.BadRequest(c, "Invalid pharmacy ID")
		return
	}

	results, err := h.service.ListProductLots(c.Request.Context(), productID, pharmacyID)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, results)
}

// ListExpiringLots handles GET /lots/expiring. The window defaults to the
// configured near-expiry horizon; ?days=N overrides it.
func (h *InventoryHandler) ListExpiringLots(c *gin.Context) {
	pharmacyID, err := uuid.Parse(c.Query("pharmacy_id"))
	if err != nil {
		h.BadRequest(c, "Invalid pharmacy ID")
		return
	}

	window := h.nearExpiryWindow
	if daysStr := c.Query("days"); daysStr != "" {
		days, err := strconv.Atoi(daysStr)
		if err != nil || days <= 0 {
			h.BadRequest(c, "Invalid days parameter")
			return
		}
		window = time.Duration(days) * 24 * time.Hour
	}

	results, err := h.service.ListExpiringLots(c.Request.Context(), pharmacyID, window)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, results)
}

// ListProductMovements handles GET /products/:id/movements
func (h *InventoryHandler) ListProductMovements(c *gin.Context) {
	productID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid product ID")
		return
	}

	var req dto.ListRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	results, err := h.service.ListProductMovements(c.Request.Context(), productID, listFilter(req))
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, results)
}

// ListReferenceMovements handles GET /movements
func (h *InventoryHandler) ListReferenceMovements(c *gin.Context) {
	referenceType := c.Query("reference_type")
	referenceID := c.Query("reference_id")
	if referenceType == "" || referenceID == "" {
		h.BadRequest(c, "reference_type and reference_id are required")
		return
	}

	results, err := h.service.ListReferenceMovements(c.Request.Context(), referenceType, referenceID)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, results)
}

func (h *InventoryHandler) buildReceiveCommand(req ReceiveLotRequest) (appinventory.ReceiveLotCommand, error) {
	productID, err := uuid.Parse(req.ProductID)
	if err != nil {
		return appinventory.ReceiveLotCommand{}, err
	}
	pharmacyID, err := uuid.Parse(req.PharmacyID)
	if err != nil {
		return appinventory.ReceiveLotCommand{}, err
	}
	unitCost, err := valueobject.NewMoneyUSDFromString(req.UnitCost)
	if err != nil {
		return appinventory.ReceiveLotCommand{}, err
	}

	var expiryDate *time.Time
	if req.ExpiryDate != nil && *req.ExpiryDate != "" {
		parsed, err := time.Parse(dateLayout, *req.ExpiryDate)
		if err != nil {
			return appinventory.ReceiveLotCommand{}, err
		}
		expiryDate = &parsed
	}

	receivedDate := time.Now()
	if req.ReceivedDate != "" {
		receivedDate, err = time.Parse(dateLayout, req.ReceivedDate)
		if err != nil {
			return appinventory.ReceiveLotCommand{}, err
		}
	}

	return appinventory.ReceiveLotCommand{
		ProductID:    productID,
		PharmacyID:   pharmacyID,
		LotNumber:    req.LotNumber,
		Quantity:     req.Quantity,
		UnitCost:     unitCost,
		ExpiryDate:   expiryDate,
		ReceivedDate: receivedDate,
	}, nil
}
