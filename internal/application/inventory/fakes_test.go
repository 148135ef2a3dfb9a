package inventory

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/pharmacore/backend/internal/domain/inventory"
	"github.com/pharmacore/backend/internal/domain/shared"
)

// In-memory repositories for service tests. They copy on read and write so
// aggregate mutations only become visible through an explicit Save.

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
