package sales

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/pharmacore/backend/internal/domain/inventory"
	"github.com/pharmacore/backend/internal/domain/sales"
	"github.com/pharmacore/backend/internal/domain/shared"
	"github.com/pharmacore/backend/internal/domain/shared/valueobject"
	"go.uber.org/zap"
)

// SaleService orchestrates sale commits: allocation, movement recording,
// aggregate updates and payment recording happen in one transaction. The
// staged workflow goes through PendingSale.
type SaleService struct {
	scope    TransactionScope
	stock    *inventory.StockService
	eventBus shared.EventPublisher
	logger   *zap.Logger
	now      func() time.Time
}

// NewSaleService creates a new sale service
func NewSaleService(
	scope TransactionScope,
	stock *inventory.StockService,
	eventBus shared.EventPublisher,
	logger *zap.Logger,
) *SaleService {
	return &SaleService{
		scope:    scope,
		stock:    stock,
		eventBus: eventBus,
		logger:   logger,
		now:      time.Now,
	}
}

// WithClock overrides the time source, for tests
func (s *SaleService) WithClock(now func() time.Time) *SaleService {
	s.now = now
	return s
}

// CreateSale creates a sale for the actor. Direct-tier actors commit
// immediately; staged-tier actors get a PendingSale with no stock effect.
func (s *SaleService) CreateSale(ctx context.Context, actor Actor, cmd CreateSaleCommand) (*CreateSaleResult, error) {
	if err := actor.Validate(); err != nil {
		return nil, err
	}
	if err := cmd.Validate(); err != nil {
		return nil, err
	}

	if actor.TrustTier == TrustTierStaged {
		result, err := s.stageSale(ctx, actor, cmd)
		if err != nil {
			return nil, err
		}
		return &CreateSaleResult{Staged: true, PendingSale: result}, nil
	}

	result, err := s.commitDirectSale(ctx, actor, cmd)
	if err != nil {
		return nil, err
	}
	return &CreateSaleResult{Staged: false, Sale: result}, nil
}

// commitDirectSale prices the requested lines from the catalog and runs the
// full commit in one transaction.
func (s *SaleService) commitDirectSale(ctx context.Context, actor Actor, cmd CreateSaleCommand) (*SaleResult, error) {
	now := s.now()
	var sale *sales.Sale
	var pending []shared.DomainEvent

	err := s.scope.Execute(ctx, func(repos TransactionalRepositories) error {
		lines, err := s.priceLines(ctx, repos, cmd.PharmacyID, cmd.Lines)
		if err != nil {
			return err
		}

		sale, pending, err = s.commitSale(ctx, repos, commitInput{
			pharmacyID:       cmd.PharmacyID,
			customerID:       cmd.CustomerID,
			seller:           actor.ID,
			lines:            lines,
			paymentType:      cmd.PaymentType,
			immediatePayment: cmd.ImmediatePayment,
			now:              now,
		})
		return err
	})
	if err != nil {
		return nil, err
	}

	s.publish(ctx, pending)
	s.logger.Info("sale committed",
		zap.String("invoice_number", sale.InvoiceNumber),
		zap.String("seller", actor.ID),
		zap.String("total", sale.TotalAmount.String()),
	)
	return NewSaleResult(sale), nil
}

// stageSale persists a PendingSale with priced lines and no stock effect.
// Real-time availability is not checked for staged-tier actors.
func (s *SaleService) stageSale(ctx context.Context, actor Actor, cmd CreateSaleCommand) (*PendingSaleResult, error) {
	var ps *sales.PendingSale
	var pending []shared.DomainEvent

	err := s.scope.Execute(ctx, func(repos TransactionalRepositories) error {
		lines, err := s.priceLines(ctx, repos, cmd.PharmacyID, cmd.Lines)
		if err != nil {
			return err
		}

		reference := newPendingReference()
		ps, err = sales.NewPendingSale(reference, cmd.PharmacyID, cmd.CustomerID, actor.ID, lines, cmd.PaymentType)
		if err != nil {
			return err
		}
		if err := repos.PendingSaleRepo().Save(ctx, ps); err != nil {
			return fmt.Errorf("failed to save pending sale: %w", err)
		}
		pending = collectEvents(ps)
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.publish(ctx, pending)
	s.logger.Info("sale staged",
		zap.String("reference", ps.Reference),
		zap.String("created_by", actor.ID),
	)
	return NewPendingSaleResult(ps), nil
}

// ValidatePendingSale re-checks stock and, on success, runs the direct-path
// commit and marks the pending sale validated. An allocation shortfall fails
// the call without touching the pending sale's status.
func (s *SaleService) ValidatePendingSale(ctx context.Context, pendingSaleID uuid.UUID, actor Actor) (*SaleResult, error) {
	if err := actor.Validate(); err != nil {
		return nil, err
	}

	now := s.now()
	var sale *sales.Sale
	var pending []shared.DomainEvent

	err := s.scope.Execute(ctx, func(repos TransactionalRepositories) error {
		ps, err := repos.PendingSaleRepo().FindByID(ctx, pendingSaleID)
		if err != nil {
			return err
		}
		if ps == nil {
			return shared.ErrNotFound
		}
		if ps.Status.IsTerminal() {
			return shared.ErrAlreadyProcessed
		}

		sale, pending, err = s.commitSale(ctx, repos, commitInput{
			pharmacyID:       ps.PharmacyID,
			customerID:       ps.CustomerID,
			seller:           ps.CreatedBy,
			lines:            ps.Lines,
			paymentType:      ps.PaymentType,
			immediatePayment: valueobject.ZeroUSD(),
			now:              now,
		})
		if err != nil {
			return err
		}

		if err := ps.MarkValidated(sale.ID, actor.ID, now); err != nil {
			return err
		}
		if err := repos.PendingSaleRepo().SaveWithLock(ctx, ps); err != nil {
			return err
		}
		pending = append(pending, collectEvents(ps)...)
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.publish(ctx, pending)
	s.logger.Info("pending sale validated",
		zap.String("pending_sale_id", pendingSaleID.String()),
		zap.String("invoice_number", sale.InvoiceNumber),
		zap.String("validated_by", actor.ID),
	)
	return NewSaleResult(sale), nil
}

// RejectPendingSale marks a pending sale rejected. Only valid from pending;
// a second transition fails with AlreadyProcessed.
func (s *SaleService) RejectPendingSale(ctx context.Context, pendingSaleID uuid.UUID, actor Actor, reason string) (*PendingSaleResult, error) {
	if err := actor.Validate(); err != nil {
		return nil, err
	}

	now := s.now()
	var ps *sales.PendingSale
	var pending []shared.DomainEvent

	err := s.scope.Execute(ctx, func(repos TransactionalRepositories) error {
		var err error
		ps, err = repos.PendingSaleRepo().FindByID(ctx, pendingSaleID)
		if err != nil {
			return err
		}
		if ps == nil {
			return shared.ErrNotFound
		}
		if err := ps.MarkRejected(reason, actor.ID, now); err != nil {
			return err
		}
		if err := repos.PendingSaleRepo().SaveWithLock(ctx, ps); err != nil {
			return err
		}
		pending = collectEvents(ps)
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.publish(ctx, pending)
	s.logger.Info("pending sale rejected",
		zap.String("pending_sale_id", pendingSaleID.String()),
		zap.String("reason", reason),
		zap.String("rejected_by", actor.ID),
	)
	return NewPendingSaleResult(ps), nil
}

// GetSale returns a committed sale by id
func (s *SaleService) GetSale(ctx context.Context, saleID uuid.UUID) (*SaleResult, error) {
	var sale *sales.Sale
	err := s.scope.Execute(ctx, func(repos TransactionalRepositories) error {
		var err error
		sale, err = repos.SaleRepo().FindByID(ctx, saleID)
		if err != nil {
			return err
		}
		if sale == nil {
			return shared.ErrNotFound
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return NewSaleResult(sale), nil
}

// ListSales returns committed sales matching the filter
func (s *SaleService) ListSales(ctx context.Context, filter shared.Filter) ([]SaleResult, error) {
	var results []SaleResult
	err := s.scope.Execute(ctx, func(repos TransactionalRepositories) error {
		items, err := repos.SaleRepo().FindAll(ctx, filter)
		if err != nil {
			return err
		}
		results = make([]SaleResult, 0, len(items))
		for i := range items {
			results = append(results, *NewSaleResult(&items[i]))
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return results, nil
}

// ListPendingSales returns the staged sales of a pharmacy in the given
// status, oldest first
func (s *SaleService) ListPendingSales(ctx context.Context, pharmacyID uuid.UUID, status sales.PendingSaleStatus, filter shared.Filter) ([]PendingSaleResult, error) {
	if !status.IsValid() {
		return nil, shared.NewDomainError("INVALID_STATUS", "Unknown pending sale status")
	}
	var results []PendingSaleResult
	err := s.scope.Execute(ctx, func(repos TransactionalRepositories) error {
		items, err := repos.PendingSaleRepo().FindByStatus(ctx, pharmacyID, status, filter)
		if err != nil {
			return err
		}
		results = make([]PendingSaleResult, 0, len(items))
		for i := range items {
			results = append(results, *NewPendingSaleResult(&items[i]))
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return results, nil
}

// commitInput carries everything a sale commit needs
type commitInput struct {
	pharmacyID       uuid.UUID
	customerID       *uuid.UUID
	seller           string
	lines            []sales.SaleLine
	paymentType      sales.PaymentType
	immediatePayment valueobject.Money
	now              time.Time
}

// commitSale is the shared direct-path commit: plan every line, apply the
// plans, write movements, persist the sale. All validation happens before
// any repository write; every write goes through the caller's transaction.
func (s *SaleService) commitSale(ctx context.Context, repos TransactionalRepositories, in commitInput) (*sales.Sale, []shared.DomainEvent, error) {
	products := make(map[uuid.UUID]*inventory.Product)
	lotsByProduct := make(map[uuid.UUID][]*inventory.Lot)
	order := make([]uuid.UUID, 0, len(in.lines))

	load := func(productID uuid.UUID) (*inventory.Product, []*inventory.Lot, error) {
		if product, ok := products[productID]; ok {
			return product, lotsByProduct[productID], nil
		}
		product, err := repos.ProductRepo().FindByID(ctx, productID)
		if err != nil {
			return nil, nil, err
		}
		if product == nil || product.PharmacyID != in.pharmacyID {
			return nil, nil, shared.ErrProductNotFound
		}
		lots, err := repos.LotRepo().FindSellable(ctx, productID, in.pharmacyID, in.now)
		if err != nil {
			return nil, nil, err
		}
		lotPtrs := make([]*inventory.Lot, len(lots))
		for i := range lots {
			lotPtrs[i] = &lots[i]
		}
		products[productID] = product
		lotsByProduct[productID] = lotPtrs
		order = append(order, productID)
		return product, lotPtrs, nil
	}

	invoiceNumber, err := repos.SaleRepo().NextInvoiceNumber(ctx, in.now)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to reserve invoice number: %w", err)
	}

	// Plan and apply every line in memory before the first write. The plans
	// see earlier lines' deductions because the lot pointers are shared.
	movements := make([]*inventory.StockMovement, 0, len(in.lines)*2)
	for _, line := range in.lines {
		product, lotPtrs, err := load(line.ProductID)
		if err != nil {
			return nil, nil, err
		}

		lotValues := make([]inventory.Lot, len(lotPtrs))
		for i, lot := range lotPtrs {
			lotValues[i] = *lot
		}
		plan, err := s.stock.Allocator().Plan(product.ID, in.pharmacyID, lotValues, line.Quantity, in.now)
		if err != nil {
			return nil, nil, err
		}

		lineMovements, err := s.stock.ApplyPlan(product, lotPtrs, plan, inventory.MovementKindSale, "sale", invoiceNumber, in.seller, in.now)
		if err != nil {
			return nil, nil, err
		}
		movements = append(movements, lineMovements...)
	}

	sale, err := sales.NewSale(invoiceNumber, in.pharmacyID, in.customerID, in.seller, in.lines, in.paymentType, in.immediatePayment, in.now)
	if err != nil {
		return nil, nil, err
	}

	// Durable writes, all inside the caller's transaction. Only lots an
	// allocation actually drew from are persisted; each touched aggregate
	// gets exactly one version bump per commit.
	touched := make(map[uuid.UUID]bool, len(movements))
	for _, m := range movements {
		if m.LotID != nil {
			touched[*m.LotID] = true
		}
	}
	events := make([]shared.DomainEvent, 0)
	for _, productID := range order {
		for _, lot := range lotsByProduct[productID] {
			if !touched[lot.ID] {
				continue
			}
			lot.IncrementVersion()
			if err := repos.LotRepo().SaveWithLock(ctx, lot); err != nil {
				return nil, nil, err
			}
		}
		product := products[productID]
		product.IncrementVersion()
		if err := repos.ProductRepo().SaveWithLock(ctx, product); err != nil {
			return nil, nil, err
		}
		events = append(events, collectEvents(product)...)
	}
	if err := repos.MovementRepo().SaveAll(ctx, movements); err != nil {
		return nil, nil, fmt.Errorf("failed to record movements: %w", err)
	}
	if err := repos.SaleRepo().Save(ctx, sale); err != nil {
		return nil, nil, fmt.Errorf("failed to save sale: %w", err)
	}
	events = append(events, collectEvents(sale)...)

	return sale, events, nil
}

// priceLines resolves product names and unit prices for the requested lines
func (s *SaleService) priceLines(ctx context.Context, repos TransactionalRepositories, pharmacyID uuid.UUID, inputs []SaleLineInput) ([]sales.SaleLine, error) {
	lines := make([]sales.SaleLine, 0, len(inputs))
	for _, input := range inputs {
		product, err := repos.ProductRepo().FindByID(ctx, input.ProductID)
		if err != nil {
			return nil, err
		}
		if product == nil || product.PharmacyID != pharmacyID {
			return nil, shared.ErrProductNotFound
		}
		line, err := sales.NewSaleLine(product.ID, product.Name, input.Quantity, product.UnitPrice)
		if err != nil {
			return nil, err
		}
		lines = append(lines, line)
	}
	return lines, nil
}

// publish delivers events after a successful commit; delivery failures are
// logged, not surfaced.
func (s *SaleService) publish(ctx context.Context, events []shared.DomainEvent) {
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

// newPendingReference builds a short human-readable staging reference
func newPendingReference() string {
	return "PS-" + strings.ToUpper(uuid.NewString()[:8])
}
