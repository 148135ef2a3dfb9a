package sales

import (
	"context"

	"github.com/pharmacore/backend/internal/domain/inventory"
	"github.com/pharmacore/backend/internal/domain/sales"
)

// TransactionScope provides transactional access to the repositories a sale
// commit touches. A sale commit spans lots, the product aggregate, the
// movement log and the sale records; either all writes land or none do.
type TransactionScope interface {
	// Execute runs the given function within a database transaction.
	// If the function returns an error, the transaction is rolled back.
	Execute(ctx context.Context, fn func(repos TransactionalRepositories) error) error
}

// TransactionalRepositories provides the repositories bound to the current
// transaction.
type TransactionalRepositories interface {
	// ProductRepo returns the product repository scoped to the transaction
	ProductRepo() inventory.ProductRepository
	// LotRepo returns the lot repository scoped to the transaction
	LotRepo() inventory.LotRepository
	// MovementRepo returns the movement repository scoped to the transaction
	MovementRepo() inventory.MovementRepository
	// SaleRepo returns the sale repository scoped to the transaction
	SaleRepo() sales.SaleRepository
	// PendingSaleRepo returns the pending sale repository scoped to the transaction
	PendingSaleRepo() sales.PendingSaleRepository
}

// NoOpTransactionScope runs the function without a real transaction.
// Useful in tests with in-memory repositories.
type NoOpTransactionScope struct {
	productRepo     inventory.ProductRepository
	lotRepo         inventory.LotRepository
	movementRepo    inventory.MovementRepository
	saleRepo        sales.SaleRepository
	pendingSaleRepo sales.PendingSaleRepository
}

// NewNoOpTransactionScope creates a NoOpTransactionScope with the given repositories
func NewNoOpTransactionScope(
	productRepo inventory.ProductRepository,
	lotRepo inventory.LotRepository,
	movementRepo inventory.MovementRepository,
	saleRepo sales.SaleRepository,
	pendingSaleRepo sales.PendingSaleRepository,
) *NoOpTransactionScope {
	return &NoOpTransactionScope{
		productRepo:     productRepo,
		lotRepo:         lotRepo,
		movementRepo:    movementRepo,
		saleRepo:        saleRepo,
		pendingSaleRepo: pendingSaleRepo,
	}
}

// Execute runs the function without a real transaction
func (s *NoOpTransactionScope) Execute(_ context.Context, fn func(repos TransactionalRepositories) error) error {
	return fn(s)
}

// ProductRepo returns the product repository
func (s *NoOpTransactionScope) ProductRepo() inventory.ProductRepository {
	return s.productRepo
}

// LotRepo returns the lot repository
func (s *NoOpTransactionScope) LotRepo() inventory.LotRepository {
	return s.lotRepo
}

// MovementRepo returns the movement repository
func (s *NoOpTransactionScope) MovementRepo() inventory.MovementRepository {
	return s.movementRepo
}

// SaleRepo returns the sale repository
func (s *NoOpTransactionScope) SaleRepo() sales.SaleRepository {
	return s.saleRepo
}

// PendingSaleRepo returns the pending sale repository
func (s *NoOpTransactionScope) PendingSaleRepo() sales.PendingSaleRepository {
	return s.pendingSaleRepo
}

var _ TransactionScope = (*NoOpTransactionScope)(nil)
var _ TransactionalRepositories = (*NoOpTransactionScope)(nil)
