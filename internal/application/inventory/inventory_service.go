package inventory

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/pharmacore/backend/internal/domain/inventory"
	"github.com/pharmacore/backend/internal/domain/shared"
	"go.uber.org/zap"
)

// InventoryService handles stock receipts, corrections, recalls and the
// read-side inventory queries. Sale-driven deductions live in the sales
// application service; both share the same domain stock service.
type InventoryService struct {
	scope    TransactionScope
	stock    *inventory.StockService
	eventBus shared.EventPublisher
	logger   *zap.Logger
	now      func() time.Time
}

// NewInventoryService creates a new inventory service
func NewInventoryService(
	scope TransactionScope,
	stock *inventory.StockService,
	eventBus shared.EventPublisher,
	logger *zap.Logger,
) *InventoryService {
	return &InventoryService{
		scope:    scope,
		stock:    stock,
		eventBus: eventBus,
		logger:   logger,
		now:      time.Now,
	}
}

// WithClock overrides the time source, for tests
func (s *InventoryService) WithClock(now func() time.Time) *InventoryService {
	s.now = now
	return s
}

// ReceiveLot books a stock receipt: creates the lot, raises the product
// aggregate count and records the entry movement, all in one transaction.
func (s *InventoryService) ReceiveLot(ctx context.Context, operator string, cmd ReceiveLotCommand) (*LotResult, error) {
	if err := cmd.Validate(); err != nil {
		return nil, err
	}

	var lot *inventory.Lot
	var pending []shared.DomainEvent

	err := s.scope.Execute(ctx, func(repos TransactionalRepositories) error {
		product, err := s.loadProduct(ctx, repos, cmd.ProductID)
		if err != nil {
			return err
		}
		if product.PharmacyID != cmd.PharmacyID {
			return shared.ErrProductNotFound
		}

		lot, err = inventory.NewLot(cmd.ProductID, cmd.PharmacyID, cmd.LotNumber, cmd.Quantity, cmd.UnitCost, cmd.ExpiryDate, cmd.ReceivedDate, s.now())
		if err != nil {
			return err
		}

		movement, err := s.stock.ReceiveLot(product, lot, operator, s.now())
		if err != nil {
			return err
		}

		if err := repos.LotRepo().Save(ctx, lot); err != nil {
			return fmt.Errorf("failed to save lot: %w", err)
		}
		product.IncrementVersion()
		if err := repos.ProductRepo().SaveWithLock(ctx, product); err != nil {
			return err
		}
		if err := repos.MovementRepo().Save(ctx, movement); err != nil {
			return fmt.Errorf("failed to record movement: %w", err)
		}
		pending = collectEvents(product)
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.publish(ctx, pending)
	s.logger.Info("lot received",
		zap.String("lot_number", lot.LotNumber),
		zap.String("product_id", lot.ProductID.String()),
		zap.Int("quantity", lot.InitialQuantity),
		zap.String("operator", operator),
	)
	return NewLotResult(lot), nil
}

// AdjustLot applies a signed manual correction to a lot. The reason is
// mandatory and ends up on the stock-adjusted event and the movement log.
func (s *InventoryService) AdjustLot(ctx context.Context, operator string, cmd AdjustLotCommand) (*LotResult, error) {
	if cmd.Delta == 0 {
		return nil, shared.ErrInvalidQuantity
	}

	var lot *inventory.Lot
	var pending []shared.DomainEvent

	err := s.scope.Execute(ctx, func(repos TransactionalRepositories) error {
		var err error
		lot, err = s.loadLot(ctx, repos, cmd.LotID)
		if err != nil {
			return err
		}
		product, err := s.loadProduct(ctx, repos, lot.ProductID)
		if err != nil {
			return err
		}

		movement, err := s.stock.AdjustLot(product, lot, cmd.Delta, cmd.Reason, operator, s.now())
		if err != nil {
			return err
		}

		lot.IncrementVersion()
		if err := repos.LotRepo().SaveWithLock(ctx, lot); err != nil {
			return err
		}
		product.IncrementVersion()
		if err := repos.ProductRepo().SaveWithLock(ctx, product); err != nil {
			return err
		}
		if err := repos.MovementRepo().Save(ctx, movement); err != nil {
			return fmt.Errorf("failed to record movement: %w", err)
		}
		pending = collectEvents(product)
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.publish(ctx, pending)
	s.logger.Info("lot adjusted",
		zap.String("lot_id", cmd.LotID.String()),
		zap.Int("delta", cmd.Delta),
		zap.String("reason", cmd.Reason),
		zap.String("operator", operator),
	)
	return NewLotResult(lot), nil
}

// RecallLot deactivates a lot and removes its remaining quantity from the
// product aggregate. Recalling an already recalled lot fails.
func (s *InventoryService) RecallLot(ctx context.Context, operator string, cmd RecallLotCommand) (*LotResult, error) {
	var lot *inventory.Lot
	var pending []shared.DomainEvent

	err := s.scope.Execute(ctx, func(repos TransactionalRepositories) error {
		var err error
		lot, err = s.loadLot(ctx, repos, cmd.LotID)
		if err != nil {
			return err
		}
		product, err := s.loadProduct(ctx, repos, lot.ProductID)
		if err != nil {
			return err
		}

		movement, err := s.stock.RecallLot(product, lot, cmd.Reason, operator, s.now())
		if err != nil {
			return err
		}

		lot.IncrementVersion()
		if err := repos.LotRepo().SaveWithLock(ctx, lot); err != nil {
			return err
		}
		product.IncrementVersion()
		if err := repos.ProductRepo().SaveWithLock(ctx, product); err != nil {
			return err
		}
		if movement != nil {
			if err := repos.MovementRepo().Save(ctx, movement); err != nil {
				return fmt.Errorf("failed to record movement: %w", err)
			}
		}
		pending = collectEvents(product)
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.publish(ctx, pending)
	s.logger.Info("lot recalled",
		zap.String("lot_id", cmd.LotID.String()),
		zap.String("reason", cmd.Reason),
		zap.String("operator", operator),
	)
	return NewLotResult(lot), nil
}

// ExpireStaleLots writes every lot of a product that has passed its expiry
// date out of the aggregate count, recording a compensating adjustment
// movement per lot. Returns the written-down lots.
func (s *InventoryService) ExpireStaleLots(ctx context.Context, operator string, productID uuid.UUID) ([]LotResult, error) {
	var expired []*inventory.Lot
	var pending []shared.DomainEvent

	err := s.scope.Execute(ctx, func(repos TransactionalRepositories) error {
		product, err := s.loadProduct(ctx, repos, productID)
		if err != nil {
			return err
		}
		lots, err := repos.LotRepo().FindByProduct(ctx, productID, product.PharmacyID)
		if err != nil {
			return err
		}

		now := s.now()
		expired = expired[:0]
		for i := range lots {
			lot := &lots[i]
			if lot.Status != inventory.LotStatusActive || !lot.IsExpired(now) {
				continue
			}
			movement, err := s.stock.ExpireLot(product, lot, operator, now)
			if err != nil {
				return err
			}
			lot.IncrementVersion()
			if err := repos.LotRepo().SaveWithLock(ctx, lot); err != nil {
				return err
			}
			if movement != nil {
				if err := repos.MovementRepo().Save(ctx, movement); err != nil {
					return fmt.Errorf("failed to record movement: %w", err)
				}
			}
			expired = append(expired, lot)
		}
		if len(expired) == 0 {
			return nil
		}

		product.IncrementVersion()
		if err := repos.ProductRepo().SaveWithLock(ctx, product); err != nil {
			return err
		}
		pending = collectEvents(product)
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.publish(ctx, pending)
	if len(expired) > 0 {
		s.logger.Info("stale lots expired",
			zap.String("product_id", productID.String()),
			zap.Int("lots", len(expired)),
			zap.String("operator", operator),
		)
	}
	results := make([]LotResult, 0, len(expired))
	for _, lot := range expired {
		results = append(results, *NewLotResult(lot))
	}
	return results, nil
}

// GetProductStock returns a product's aggregate stock position
func (s *InventoryService) GetProductStock(ctx context.Context, productID uuid.UUID) (*ProductStockResult, error) {
	var product *inventory.Product
	err := s.scope.Execute(ctx, func(repos TransactionalRepositories) error {
		var err error
		product, err = s.loadProduct(ctx, repos, productID)
		return err
	})
	if err != nil {
		return nil, err
	}
	return NewProductStockResult(product), nil
}

// ListProducts returns the products of a pharmacy matching the filter
func (s *InventoryService) ListProducts(ctx context.Context, pharmacyID uuid.UUID, filter shared.Filter) ([]ProductStockResult, error) {
	var results []ProductStockResult
	err := s.scope.Execute(ctx, func(repos TransactionalRepositories) error {
		products, err := repos.ProductRepo().FindByPharmacy(ctx, pharmacyID, filter)
		if err != nil {
			return err
		}
		results = make([]ProductStockResult, 0, len(products))
		for i := range products {
			results = append(results, *NewProductStockResult(&products[i]))
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return results, nil
}

// ListLowStock returns products at or below their minimum stock level
func (s *InventoryService) ListLowStock(ctx context.Context, pharmacyID uuid.UUID) ([]ProductStockResult, error) {
	var results []ProductStockResult
	err := s.scope.Execute(ctx, func(repos TransactionalRepositories) error {
		products, err := repos.ProductRepo().FindLowStock(ctx, pharmacyID)
		if err != nil {
			return err
		}
		results = make([]ProductStockResult, 0, len(products))
		for i := range products {
			results = append(results, *NewProductStockResult(&products[i]))
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return results, nil
}

// ListProductLots returns all lots of a product at a pharmacy
func (s *InventoryService) ListProductLots(ctx context.Context, productID, pharmacyID uuid.UUID) ([]LotResult, error) {
	var results []LotResult
	err := s.scope.Execute(ctx, func(repos TransactionalRepositories) error {
		lots, err := repos.LotRepo().FindByProduct(ctx, productID, pharmacyID)
		if err != nil {
			return err
		}
		results = make([]LotResult, 0, len(lots))
		for i := range lots {
			results = append(results, *NewLotResult(&lots[i]))
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return results, nil
}

// ListExpiringLots returns sellable lots expiring inside the window
func (s *InventoryService) ListExpiringLots(ctx context.Context, pharmacyID uuid.UUID, window time.Duration) ([]LotResult, error) {
	var results []LotResult
	err := s.scope.Execute(ctx, func(repos TransactionalRepositories) error {
		lots, err := repos.LotRepo().FindExpiringWithin(ctx, pharmacyID, s.now(), window)
		if err != nil {
			return err
		}
		results = make([]LotResult, 0, len(lots))
		for i := range lots {
			results = append(results, *NewLotResult(&lots[i]))
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return results, nil
}

// ListProductMovements returns the movement log for a product, newest first
func (s *InventoryService) ListProductMovements(ctx context.Context, productID uuid.UUID, filter shared.Filter) ([]MovementResult, error) {
	var results []MovementResult
	err := s.scope.Execute(ctx, func(repos TransactionalRepositories) error {
		movements, err := repos.MovementRepo().FindByProduct(ctx, productID, filter)
		if err != nil {
			return err
		}
		results = make([]MovementResult, 0, len(movements))
		for i := range movements {
			results = append(results, *NewMovementResult(&movements[i]))
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return results, nil
}

// ListReferenceMovements returns every movement recorded for a reference,
// for example all deductions behind one sale invoice.
func (s *InventoryService) ListReferenceMovements(ctx context.Context, referenceType, referenceID string) ([]MovementResult, error) {
	var results []MovementResult
	err := s.scope.Execute(ctx, func(repos TransactionalRepositories) error {
		movements, err := repos.MovementRepo().FindByReference(ctx, referenceType, referenceID)
		if err != nil {
			return err
		}
		results = make([]MovementResult, 0, len(movements))
		for i := range movements {
			results = append(results, *NewMovementResult(&movements[i]))
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return results, nil
}

func (s *InventoryService) loadProduct(ctx context.Context, repos TransactionalRepositories, productID uuid.UUID) (*inventory.Product, error) {
	product, err := repos.ProductRepo().FindByID(ctx, productID)
	if err != nil {
		return nil, err
	}
	if product == nil {
		return nil, shared.ErrProductNotFound
	}
	return product, nil
}

func (s *InventoryService) loadLot(ctx context.Context, repos TransactionalRepositories, lotID uuid.UUID) (*inventory.Lot, error) {
	lot, err := repos.LotRepo().FindByID(ctx, lotID)
	if err != nil {
		return nil, err
	}
	if lot == nil {
		return nil, shared.ErrLotNotFound
	}
	return lot, nil
}

// publish delivers events after a successful commit; delivery failures are
// logged, not surfaced.
func (s *InventoryService) publish(ctx context.Context, events []shared.DomainEvent) {
	if len(events) == 0 {
		return
	}
	if err := s.eventBus.Publish(ctx, events...); err != nil {
		s.logger.Warn("failed to publish domain events",
			zap.Int("count", len(events)),
			zap.Error(err),
		)
	}
}

// collectEvents drains an aggregate's pending domain events
func collectEvents(aggregate shared.AggregateRoot) []shared.DomainEvent {
	events := aggregate.GetDomainEvents()
	aggregate.ClearDomainEvents()
	return events
}
