package inventory

import (
	"time"

	"github.com/google/uuid"
	"github.com/pharmacore/backend/internal/domain/inventory"
	"github.com/pharmacore/backend/internal/domain/shared"
	"github.com/pharmacore/backend/internal/domain/shared/valueobject"
)

// ReceiveLotCommand is the input for booking a stock receipt
type ReceiveLotCommand struct {
	ProductID    uuid.UUID
	PharmacyID   uuid.UUID
	LotNumber    string
	Quantity     int
	UnitCost     valueobject.Money
	ExpiryDate   *time.Time
	ReceivedDate time.Time
}

// Validate checks the command fields
func (c ReceiveLotCommand) Validate() error {
	if c.ProductID == uuid.Nil {
		return shared.ErrProductNotFound
	}
	if c.Quantity <= 0 {
		return shared.ErrInvalidQuantity
	}
	if c.LotNumber == "" {
		return shared.NewDomainError("INVALID_LOT_NUMBER", "Lot number cannot be empty")
	}
	return nil
}

// AdjustLotCommand is the input for a manual lot correction
type AdjustLotCommand struct {
	LotID  uuid.UUID
	Delta  int
	Reason string
}

// RecallLotCommand is the input for deactivating a lot
type RecallLotCommand struct {
	LotID  uuid.UUID
	Reason string
}

// LotResult describes a stock lot
type LotResult struct {
	LotID           uuid.UUID           `json:"lot_id"`
	ProductID       uuid.UUID           `json:"product_id"`
	PharmacyID      uuid.UUID           `json:"pharmacy_id"`
	LotNumber       string              `json:"lot_number"`
	Quantity        int                 `json:"quantity"`
	InitialQuantity int                 `json:"initial_quantity"`
	UnitCost        string              `json:"unit_cost"`
	ExpiryDate      *time.Time          `json:"expiry_date,omitempty"`
	ReceivedDate    time.Time           `json:"received_date"`
	Status          inventory.LotStatus `json:"status"`
}

// NewLotResult maps a lot aggregate to its result DTO
func NewLotResult(lot *inventory.Lot) *LotResult {
	return &LotResult{
		LotID:           lot.ID,
		ProductID:       lot.ProductID,
		PharmacyID:      lot.PharmacyID,
		LotNumber:       lot.LotNumber,
		Quantity:        lot.Quantity,
		InitialQuantity: lot.InitialQuantity,
		UnitCost:        lot.UnitCost.StringFixed(2),
		ExpiryDate:      lot.ExpiryDate,
		ReceivedDate:    lot.ReceivedDate,
		Status:          lot.Status,
	}
}

// ProductStockResult describes a product's aggregate stock position
type ProductStockResult struct {
	ProductID     uuid.UUID `json:"product_id"`
	PharmacyID    uuid.UUID `json:"pharmacy_id"`
	Name          string    `json:"name"`
	SKU           string    `json:"sku"`
	UnitPrice     string    `json:"unit_price"`
	StockQuantity int       `json:"stock_quantity"`
	MinStockLevel int       `json:"min_stock_level"`
	LowStock      bool      `json:"low_stock"`
}

// NewProductStockResult maps a product aggregate to its result DTO
func NewProductStockResult(product *inventory.Product) *ProductStockResult {
	return &ProductStockResult{
		ProductID:     product.ID,
		PharmacyID:    product.PharmacyID,
		Name:          product.Name,
		SKU:           product.SKU,
		UnitPrice:     product.UnitPrice.StringFixed(2),
		StockQuantity: product.StockQuantity,
		MinStockLevel: product.MinStockLevel,
		LowStock:      product.IsLowStock(),
	}
}

// MovementResult describes one stock movement record
type MovementResult struct {
	MovementID    uuid.UUID              `json:"movement_id"`
	ProductID     uuid.UUID              `json:"product_id"`
	LotID         *uuid.UUID             `json:"lot_id,omitempty"`
	Kind          inventory.MovementKind `json:"kind"`
	Quantity      int                    `json:"quantity"`
	BalanceBefore int                    `json:"balance_before"`
	BalanceAfter  int                    `json:"balance_after"`
	ReferenceType string                 `json:"reference_type"`
	ReferenceID   string                 `json:"reference_id"`
	Operator      string                 `json:"operator"`
	OccurredAt    time.Time              `json:"occurred_at"`
}

// NewMovementResult maps a movement record to its result DTO
func NewMovementResult(m *inventory.StockMovement) *MovementResult {
	return &MovementResult{
		MovementID:    m.ID,
		ProductID:     m.ProductID,
		LotID:         m.LotID,
		Kind:          m.Kind,
		Quantity:      m.Quantity,
		BalanceBefore: m.BalanceBefore,
		BalanceAfter:  m.BalanceAfter,
		ReferenceType: m.ReferenceType,
		ReferenceID:   m.ReferenceID,
		Operator:      m.Operator,
		OccurredAt:    m.OccurredAt,
	}
}
