package router

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/pharmacore/backend/internal/infrastructure/auth"
	"github.com/pharmacore/backend/internal/infrastructure/config"
	"github.com/pharmacore/backend/internal/infrastructure/logger"
	"github.com/pharmacore/backend/internal/interfaces/http/handler"
	"github.com/pharmacore/backend/internal/interfaces/http/middleware"
	"go.uber.org/zap"
)

// Handlers groups the handlers the router wires up
type Handlers struct {
	Sales      *handler.SalesHandler
	Settlement *handler.SettlementHandler
	Inventory  *handler.InventoryHandler
}

// New builds the gin engine with all middleware and routes registered.
// The health endpoint stays outside authentication.
func New(cfg *config.Config, log *zap.Logger, jwtService *auth.JWTService, h Handlers) *gin.Engine {
	if cfg.App.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	engine := gin.New()
	if len(cfg.HTTP.TrustedProxies) > 0 {
		_ = engine.SetTrustedProxies(cfg.HTTP.TrustedProxies)
	}

	engine.Use(middleware.RequestID())
	engine.Use(logger.GinMiddleware(log))
	engine.Use(logger.Recovery(log))
	if cfg.HTTP.MaxBodySize > 0 {
		engine.Use(middleware.BodyLimit(cfg.HTTP.MaxBodySize))
	}

	engine.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok", "app": cfg.App.Name})
	})

	api := engine.Group("/api/v1")
	api.Use(middleware.Auth(jwtService))

	salesGroup := api.Group("/sales")
	{
		salesGroup.POST("", h.Sales.CreateSale)
		salesGroup.GET("", h.Sales.ListSales)
		salesGroup.GET("/:id", h.Sales.GetSale)
		salesGroup.POST("/:id/payments", h.Settlement.RecordPayment)
	}

	pendingGroup := api.Group("/pending-sales")
	{
		pendingGroup.GET("", h.Sales.ListPendingSales)
		pendingGroup.POST("/:id/validate", h.Sales.ValidatePendingSale)
		pendingGroup.POST("/:id/reject", h.Sales.RejectPendingSale)
	}

	api.GET("/credit/outstanding", h.Settlement.ListCreditOutstanding)

	lotsGroup := api.Group("/lots")
	{
		lotsGroup.POST("", h.Inventory.ReceiveLot)
		lotsGroup.GET("/expiring", h.Inventory.ListExpiringLots)
		lotsGroup.POST("/:id/adjust", h.Inventory.AdjustLot)
		lotsGroup.POST("/:id/recall", h.Inventory.RecallLot)
	}

	productsGroup := api.Group("/products")
	{
		productsGroup.GET("", h.Inventory.ListProducts)
		productsGroup.GET("/low-stock", h.Inventory.ListLowStock)
		productsGroup.GET("/:id/stock", h.Inventory.GetProductStock)
		productsGroup.GET("/:id/lots", h.Inventory.ListProductLots)
		productsGroup.POST("/:id/lots/expire", h.Inventory.ExpireStaleLots)
		productsGroup.GET("/:id/movements", h.Inventory.ListProductMovements)
	}

	api.GET("/movements", h.Inventory.ListReferenceMovements)

	return engine
}
