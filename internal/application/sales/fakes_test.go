package sales

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/pharmacore/backend/internal/domain/inventory"
	"github.com/pharmacore/backend/internal/domain/sales"
	"github.com/pharmacore/backend/internal/domain/shared"
)

// In-memory repositories for service tests. They copy on read and write so
// aggregate mutations only become visible through an explicit Save, matching
// how the real persistence layer behaves across a rollback.

type fakeProductRepo struct {
	mu    sync.Mutex
	items map[uuid.UUID]inventory.Product
}

func newFakeProductRepo() *fakeProductRepo {
	return &fakeProductRepo{items: make(map[uuid.UUID]inventory.Product)}
}

func (r *fakeProductRepo) FindByID(_ context.Context, id uuid.UUID) (*inventory.Product, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	item, ok := r.items[id]
	if !ok {
		return nil, nil
	}
	return &item, nil
}

func (r *fakeProductRepo) FindAll(_ context.Context, _ shared.Filter) ([]inventory.Product, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]inventory.Product, 0, len(r.items))
	for _, item := range r.items {
		out = append(out, item)
	}
	return out, nil
}

func (r *fakeProductRepo) Save(_ context.Context, product *inventory.Product) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.items[product.ID] = *product
	return nil
}

func (r *fakeProductRepo) Delete(_ context.Context, id uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.items, id)
	return nil
}

func (r *fakeProductRepo) Count(_ context.Context, _ shared.Filter) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return int64(len(r.items)), nil
}

func (r *fakeProductRepo) FindByPharmacy(_ context.Context, pharmacyID uuid.UUID, _ shared.Filter) ([]inventory.Product, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]inventory.Product, 0)
	for _, item := range r.items {
		if item.PharmacyID == pharmacyID {
			out = append(out, item)
		}
	}
	return out, nil
}

func (r *fakeProductRepo) FindLowStock(_ context.Context, pharmacyID uuid.UUID) ([]inventory.Product, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]inventory.Product, 0)
	for _, item := range r.items {
		if item.PharmacyID == pharmacyID && item.IsLowStock() {
			out = append(out, item)
		}
	}
	return out, nil
}

func (r *fakeProductRepo) SaveWithLock(_ context.Context, product *inventory.Product) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	existing, ok := r.items[product.ID]
	if ok && existing.Version != product.Version-1 {
		return shared.ErrConcurrencyConflict
	}
	r.items[product.ID] = *product
	return nil
}

type fakeLotRepo struct {
	mu    sync.Mutex
	items map[uuid.UUID]inventory.Lot
}

func newFakeLotRepo() *fakeLotRepo {
	return &fakeLotRepo{items: make(map[uuid.UUID]inventory.Lot)}
}

func (r *fakeLotRepo) FindByID(_ context.Context, id uuid.UUID) (*inventory.Lot, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	item, ok := r.items[id]
	if !ok {
		return nil, nil
	}
	return &item, nil
}

func (r *fakeLotRepo) FindAll(_ context.Context, _ shared.Filter) ([]inventory.Lot, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]inventory.Lot, 0, len(r.items))
	for _, item := range r.items {
		out = append(out, item)
	}
	return out, nil
}

func (r *fakeLotRepo) Save(_ context.Context, lot *inventory.Lot) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.items[lot.ID] = *lot
	return nil
}

func (r *fakeLotRepo) Delete(_ context.Context, id uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.items, id)
	return nil
}

func (r *fakeLotRepo) Count(_ context.Context, _ shared.Filter) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return int64(len(r.items)), nil
}

func (r *fakeLotRepo) FindByProduct(_ context.Context, productID, pharmacyID uuid.UUID) ([]inventory.Lot, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]inventory.Lot, 0)
	for _, item := range r.items {
		if item.ProductID == productID && item.PharmacyID == pharmacyID {
			out = append(out, item)
		}
	}
	return out, nil
}

func (r *fakeLotRepo) FindSellable(_ context.Context, productID, pharmacyID uuid.UUID, now time.Time) ([]inventory.Lot, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]inventory.Lot, 0)
	for _, item := range r.items {
		if item.ProductID == productID && item.PharmacyID == pharmacyID && item.IsSellable(now) {
			out = append(out, item)
		}
	}
	return out, nil
}

func (r *fakeLotRepo) FindExpiringWithin(_ context.Context, pharmacyID uuid.UUID, now time.Time, window time.Duration) ([]inventory.Lot, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]inventory.Lot, 0)
	for _, item := range r.items {
		if item.PharmacyID == pharmacyID && item.IsSellable(now) && item.WillExpireWithin(now, window) {
			out = append(out, item)
		}
	}
	return out, nil
}

func (r *fakeLotRepo) SaveWithLock(_ context.Context, lot *inventory.Lot) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	existing, ok := r.items[lot.ID]
	if ok && existing.Version != lot.Version-1 {
		return shared.ErrConcurrencyConflict
	}
	r.items[lot.ID] = *lot
	return nil
}

type fakeMovementRepo struct {
	mu    sync.Mutex
	items []inventory.StockMovement
}

func newFakeMovementRepo() *fakeMovementRepo {
	return &fakeMovementRepo{}
}

func (r *fakeMovementRepo) Save(_ context.Context, movement *inventory.StockMovement) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.items = append(r.items, *movement)
	return nil
}

func (r *fakeMovementRepo) SaveAll(_ context.Context, movements []*inventory.StockMovement) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, movement := range movements {
		r.items = append(r.items, *movement)
	}
	return nil
}

func (r *fakeMovementRepo) FindByProduct(_ context.Context, productID uuid.UUID, _ shared.Filter) ([]inventory.StockMovement, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]inventory.StockMovement, 0)
	for _, item := range r.items {
		if item.ProductID == productID {
			out = append(out, item)
		}
	}
	return out, nil
}

func (r *fakeMovementRepo) FindByLot(_ context.Context, lotID uuid.UUID, _ shared.Filter) ([]inventory.StockMovement, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]inventory.StockMovement, 0)
	for _, item := range r.items {
		if item.LotID != nil && *item.LotID == lotID {
			out = append(out, item)
		}
	}
	return out, nil
}

func (r *fakeMovementRepo) FindByReference(_ context.Context, referenceType, referenceID string) ([]inventory.StockMovement, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]inventory.StockMovement, 0)
	for _, item := range r.items {
		if item.ReferenceType == referenceType && item.ReferenceID == referenceID {
			out = append(out, item)
		}
	}
	return out, nil
}

type fakeSaleRepo struct {
	mu    sync.Mutex
	items map[uuid.UUID]sales.Sale
	seq   int
	// conflictNext forces the next SaveWithLock to report a lost lock
	conflictNext bool
}

func newFakeSaleRepo() *fakeSaleRepo {
	return &fakeSaleRepo{items: make(map[uuid.UUID]sales.Sale)}
}

func (r *fakeSaleRepo) FindByID(_ context.Context, id uuid.UUID) (*sales.Sale, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	item, ok := r.items[id]
	if !ok {
		return nil, nil
	}
	return &item, nil
}

func (r *fakeSaleRepo) FindAll(_ context.Context, _ shared.Filter) ([]sales.Sale, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]sales.Sale, 0, len(r.items))
	for _, item := range r.items {
		out = append(out, item)
	}
	return out, nil
}

func (r *fakeSaleRepo) Save(_ context.Context, sale *sales.Sale) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.items[sale.ID] = *sale
	return nil
}

func (r *fakeSaleRepo) Delete(_ context.Context, id uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.items, id)
	return nil
}

func (r *fakeSaleRepo) Count(_ context.Context, _ shared.Filter) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return int64(len(r.items)), nil
}

func (r *fakeSaleRepo) FindByInvoiceNumber(_ context.Context, invoiceNumber string) (*sales.Sale, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, item := range r.items {
		if item.InvoiceNumber == invoiceNumber {
			found := item
			return &found, nil
		}
	}
	return nil, nil
}

func (r *fakeSaleRepo) FindCreditOutstanding(_ context.Context, pharmacyID uuid.UUID, _ shared.Filter) ([]sales.Sale, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]sales.Sale, 0)
	for _, item := range r.items {
		if item.PharmacyID == pharmacyID && item.IsCredit() && !item.IsSettled() {
			out = append(out, item)
		}
	}
	return out, nil
}

func (r *fakeSaleRepo) NextInvoiceNumber(_ context.Context, day time.Time) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.seq++
	return fmt.Sprintf("INV-%s-%04d", day.Format("20060102"), r.seq), nil
}

func (r *fakeSaleRepo) SaveWithLock(_ context.Context, sale *sales.Sale) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.conflictNext {
		r.conflictNext = false
		return shared.ErrConcurrencyConflict
	}
	existing, ok := r.items[sale.ID]
	if ok && existing.Version != sale.Version-1 {
		return shared.ErrConcurrencyConflict
	}
	r.items[sale.ID] = *sale
	return nil
}

type fakePendingSaleRepo struct {
	mu    sync.Mutex
	items map[uuid.UUID]sales.PendingSale
}

func newFakePendingSaleRepo() *fakePendingSaleRepo {
	return &fakePendingSaleRepo{items: make(map[uuid.UUID]sales.PendingSale)}
}

func (r *fakePendingSaleRepo) FindByID(_ context.Context, id uuid.UUID) (*sales.PendingSale, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	item, ok := r.items[id]
	if !ok {
		return nil, nil
	}
	return &item, nil
}

func (r *fakePendingSaleRepo) FindAll(_ context.Context, _ shared.Filter) ([]sales.PendingSale, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]sales.PendingSale, 0, len(r.items))
	for _, item := range r.items {
		out = append(out, item)
	}
	return out, nil
}

func (r *fakePendingSaleRepo) Save(_ context.Context, ps *sales.PendingSale) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.items[ps.ID] = *ps
	return nil
}

func (r *fakePendingSaleRepo) Delete(_ context.Context, id uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.items, id)
	return nil
}

func (r *fakePendingSaleRepo) Count(_ context.Context, _ shared.Filter) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return int64(len(r.items)), nil
}

func (r *fakePendingSaleRepo) FindByStatus(_ context.Context, pharmacyID uuid.UUID, status sales.PendingSaleStatus, _ shared.Filter) ([]sales.PendingSale, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]sales.PendingSale, 0)
	for _, item := range r.items {
		if item.PharmacyID == pharmacyID && item.Status == status {
			out = append(out, item)
		}
	}
	return out, nil
}

func (r *fakePendingSaleRepo) SaveWithLock(_ context.Context, ps *sales.PendingSale) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	existing, ok := r.items[ps.ID]
	if ok && existing.Version != ps.Version-1 {
		return shared.ErrConcurrencyConflict
	}
	r.items[ps.ID] = *ps
	return nil
}

type fakeEventBus struct {
	mu     sync.Mutex
	events []shared.DomainEvent
}

func (b *fakeEventBus) Publish(_ context.Context, events ...shared.DomainEvent) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.events = append(b.events, events...)
	return nil
}

func (b *fakeEventBus) published(eventType string) []shared.DomainEvent {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make([]shared.DomainEvent, 0)
	for _, event := range b.events {
		if event.EventType() == eventType {
			out = append(out, event)
		}
	}
	return out
}

type fakeIdempotencyStore struct {
	mu   sync.Mutex
	seen map[string]bool
}

func newFakeIdempotencyStore() *fakeIdempotencyStore {
	return &fakeIdempotencyStore{seen: make(map[string]bool)}
}

func (s *fakeIdempotencyStore) MarkProcessed(_ context.Context, key string, _ time.Duration) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.seen[key] {
		return false, nil
	}
	s.seen[key] = true
	return true, nil
}

func (s *fakeIdempotencyStore) IsProcessed(_ context.Context, key string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.seen[key], nil
}

func (s *fakeIdempotencyStore) Close() error { return nil }
