package persistence

import (
	"context"

	appinventory "github.com/pharmacore/backend/internal/application/inventory"
	appsales "github.com/pharmacore/backend/internal/application/sales"
	"github.com/pharmacore/backend/internal/domain/inventory"
	"github.com/pharmacore/backend/internal/domain/sales"
	"gorm.io/gorm"
)

// gormTransactionalRepositories binds repositories to a single transaction
// handle. Repositories are built lazily per call on the tx connection so
// every read and write inside the scope shares the same transaction.
type gormTransactionalRepositories struct {
	tx *gorm.DB
}

func (r gormTransactionalRepositories) ProductRepo() inventory.ProductRepository {
	return NewGormProductRepository(r.tx)
}

func (r gormTransactionalRepositories) LotRepo() inventory.LotRepository {
	return NewGormLotRepository(r.tx)
}

func (r gormTransactionalRepositories) MovementRepo() inventory.MovementRepository {
	return NewGormMovementRepository(r.tx)
}

func (r gormTransactionalRepositories) SaleRepo() sales.SaleRepository {
	return NewGormSaleRepository(r.tx)
}

func (r gormTransactionalRepositories) PendingSaleRepo() sales.PendingSaleRepository {
	return NewGormPendingSaleRepository(r.tx)
}

// GormSalesTransactionScope executes sale commits inside a database
// transaction.
type GormSalesTransactionScope struct {
	db *gorm.DB
}

// NewGormSalesTransactionScope creates a new GormSalesTransactionScope
func NewGormSalesTransactionScope(db *gorm.DB) *GormSalesTransactionScope {
	return &GormSalesTransactionScope{db: db}
}

// Execute runs the function within a database transaction
func (s *GormSalesTransactionScope) Execute(ctx context.Context, fn func(repos appsales.TransactionalRepositories) error) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(gormTransactionalRepositories{tx: tx})
	})
}

// GormInventoryTransactionScope executes inventory operations inside a
// database transaction.
type GormInventoryTransactionScope struct {
	db *gorm.DB
}

// NewGormInventoryTransactionScope creates a new GormInventoryTransactionScope
func NewGormInventoryTransactionScope(db *gorm.DB) *GormInventoryTransactionScope {
	return &GormInventoryTransactionScope{db: db}
}

// Execute runs the function within a database transaction
func (s *GormInventoryTransactionScope) Execute(ctx context.Context, fn func(repos appinventory.TransactionalRepositories) error) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(gormTransactionalRepositories{tx: tx})
	})
}

var _ appsales.TransactionScope = (*GormSalesTransactionScope)(nil)
var _ appinventory.TransactionScope = (*GormInventoryTransactionScope)(nil)
