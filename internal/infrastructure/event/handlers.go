package event

import (
	"context"

	"github.com/pharmacore/backend/internal/domain/inventory"
	"github.com/pharmacore/backend/internal/domain/shared"
	"go.uber.org/zap"
)

// AuditLogHandler writes every domain event to the structured log. It is a
// wildcard subscriber and serves as the audit trail until events get an
// external sink.
type AuditLogHandler struct {
	logger *zap.Logger
}

// NewAuditLogHandler creates a new AuditLogHandler
func NewAuditLogHandler(logger *zap.Logger) *AuditLogHandler {
	return &AuditLogHandler{logger: logger.Named("audit")}
}

// Handle logs the event
func (h *AuditLogHandler) Handle(_ context.Context, evt shared.DomainEvent) error {
	h.logger.Info("domain event",
		zap.String("event_type", evt.EventType()),
		zap.String("event_id", evt.EventID().String()),
		zap.String("aggregate_type", evt.AggregateType()),
		zap.String("aggregate_id", evt.AggregateID().String()),
		zap.Time("occurred_at", evt.OccurredAt()),
	)
	return nil
}

// EventTypes returns an empty slice so the handler receives all events
func (h *AuditLogHandler) EventTypes() []string {
	return nil
}

// LowStockAlertHandler raises a warning when a product crosses its minimum
// stock level. Replenishment is a human decision here, so the alert is the
// whole action.
type LowStockAlertHandler struct {
	logger *zap.Logger
}

// NewLowStockAlertHandler creates a new LowStockAlertHandler
func NewLowStockAlertHandler(logger *zap.Logger) *LowStockAlertHandler {
	return &LowStockAlertHandler{logger: logger.Named("alerts")}
}

// Handle logs a low stock warning
func (h *LowStockAlertHandler) Handle(_ context.Context, evt shared.DomainEvent) error {
	threshold, ok := evt.(*inventory.StockBelowThresholdEvent)
	if !ok {
		return nil
	}
	h.logger.Warn("product stock below minimum level",
		zap.String("product_id", threshold.ProductID.String()),
		zap.String("pharmacy_id", threshold.PharmacyID.String()),
		zap.Int("stock_quantity", threshold.StockQuantity),
		zap.Int("min_stock_level", threshold.MinStockLevel),
	)
	return nil
}

// EventTypes returns the event types this handler is interested in
func (h *LowStockAlertHandler) EventTypes() []string {
	return []string{inventory.EventTypeStockBelowThreshold}
}

var _ shared.EventHandler = (*AuditLogHandler)(nil)
var _ shared.EventHandler = (*LowStockAlertHandler)(nil)
