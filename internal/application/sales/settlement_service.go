package sales

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/pharmacore/backend/internal/domain/sales"
	"github.com/pharmacore/backend/internal/domain/shared"
	"github.com/pharmacore/backend/internal/domain/shared/valueobject"
	"go.uber.org/zap"
)

// RecordPaymentCommand is the input for settling part of a sale's balance
type RecordPaymentCommand struct {
	SaleID uuid.UUID
	Amount valueobject.Money
	Method string
	// IdempotencyKey deduplicates retried requests; empty disables the check
	IdempotencyKey string
}

// SettlementService tracks how a sale is paid off over time. Payments are
// serialized per sale through the aggregate version; a concurrent writer gets
// ConcurrencyConflict and retries the whole operation.
type SettlementService struct {
	scope       TransactionScope
	idempotency shared.IdempotencyStore
	idemConfig  shared.IdempotencyConfig
	eventBus    shared.EventPublisher
	logger      *zap.Logger
	now         func() time.Time
}

// NewSettlementService creates a new settlement service. The idempotency
// store may be nil, which disables request deduplication.
func NewSettlementService(
	scope TransactionScope,
	idempotency shared.IdempotencyStore,
	eventBus shared.EventPublisher,
	logger *zap.Logger,
) *SettlementService {
	return &SettlementService{
		scope:       scope,
		idempotency: idempotency,
		idemConfig:  shared.DefaultIdempotencyConfig(),
		eventBus:    eventBus,
		logger:      logger,
		now:         time.Now,
	}
}

// WithClock overrides the time source, for tests
func (s *SettlementService) WithClock(now func() time.Time) *SettlementService {
	s.now = now
	return s
}

// WithIdempotencyTTL overrides how long processed payment keys are remembered
func (s *SettlementService) WithIdempotencyTTL(ttl time.Duration) *SettlementService {
	if ttl > 0 {
		s.idemConfig.TTL = ttl
	}
	return s
}

// RecordPayment appends a confirmed payment to the sale and re-derives its
// balance and status fields. The amount must be positive and within the
// remaining balance; violations perform no mutation.
func (s *SettlementService) RecordPayment(ctx context.Context, actor Actor, cmd RecordPaymentCommand) (*SaleResult, error) {
	if err := actor.Validate(); err != nil {
		return nil, err
	}
	if !cmd.Amount.IsPositive() {
		return nil, shared.ErrInvalidAmount
	}

	// The key is only marked after the commit succeeds so a failed attempt
	// (say a ConcurrencyConflict) can be retried under the same key.
	idemKey := ""
	if s.idempotency != nil && cmd.IdempotencyKey != "" {
		idemKey = "payment:" + cmd.IdempotencyKey
		seen, err := s.idempotency.IsProcessed(ctx, idemKey)
		if err != nil {
			s.logger.Warn("idempotency check failed, continuing", zap.Error(err))
		} else if seen {
			return nil, shared.NewDomainError("DUPLICATE_REQUEST", "Payment request was already processed")
		}
	}

	now := s.now()
	var sale *sales.Sale
	var pending []shared.DomainEvent

	err := s.scope.Execute(ctx, func(repos TransactionalRepositories) error {
		var err error
		sale, err = repos.SaleRepo().FindByID(ctx, cmd.SaleID)
		if err != nil {
			return err
		}
		if sale == nil {
			return shared.ErrNotFound
		}

		if err := sale.ApplyPayment(cmd.Amount, cmd.Method, actor.ID, now); err != nil {
			return err
		}
		sale.IncrementVersion()
		if err := repos.SaleRepo().SaveWithLock(ctx, sale); err != nil {
			return err
		}
		pending = collectEvents(sale)
		return nil
	})
	if err != nil {
		return nil, err
	}

	if idemKey != "" {
		if _, err := s.idempotency.MarkProcessed(ctx, idemKey, s.idemConfig.TTL); err != nil {
			s.logger.Warn("failed to mark idempotency key", zap.Error(err))
		}
	}

	s.publishSettlement(ctx, pending)
	s.logger.Info("payment recorded",
		zap.String("invoice_number", sale.InvoiceNumber),
		zap.String("amount", cmd.Amount.StringFixed(2)),
		zap.String("remaining", sale.RemainingAmount.StringFixed(2)),
		zap.String("recorded_by", actor.ID),
	)
	return NewSaleResult(sale), nil
}

// ListCreditOutstanding returns credit sales that still carry a balance
func (s *SettlementService) ListCreditOutstanding(ctx context.Context, pharmacyID uuid.UUID, filter shared.Filter) ([]SaleResult, error) {
	var results []SaleResult
	err := s.scope.Execute(ctx, func(repos TransactionalRepositories) error {
		items, err := repos.SaleRepo().FindCreditOutstanding(ctx, pharmacyID, filter)
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

func (s *SettlementService) publishSettlement(ctx context.Context, events []shared.DomainEvent) {
	if len(events) == 0 {
		return
	}
	if err := s.eventBus.Publish(ctx, events...); err != nil {
		s.logger.Warn("failed to publish settlement events",
			zap.Int("count", len(events)),
			zap.Error(err),
		)
	}
}
