package store

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/bencevas/orderboard/internal/domain"
)

// Memory is the in-process fallback backend, used when no DATABASE_URL is
// configured and throughout the unit tests. Orders keep insertion order so
// listings are stable.
type Memory struct {
	mu       sync.RWMutex
	orderIDs []uuid.UUID
	orders   map[uuid.UUID]domain.Order
	items    map[uuid.UUID][]domain.OrderItem
	notify   Notifier
}

// NewMemory creates an empty in-memory store.
func NewMemory() *Memory {
	return &Memory{
		orders: make(map[uuid.UUID]domain.Order),
		items:  make(map[uuid.UUID][]domain.OrderItem),
	}
}

// SetNotifier installs the change-event sink. Pass nil to disable.
func (m *Memory) SetNotifier(n Notifier) {
	m.mu.Lock()
	m.notify = n
	m.mu.Unlock()
}

func (m *Memory) emit(ev domain.Event) {
	if m.notify != nil {
		m.notify(ev)
	}
}

// withDerived fills in the computed total and item count.
func (m *Memory) withDerived(o domain.Order) domain.Order {
	items := m.items[o.ID]
	o.TotalAmount = domain.OrderTotal(items)
	o.ItemCount = len(items)
	return o
}

// ListOrders implements Store.
func (m *Memory) ListOrders(ctx context.Context, from, to time.Time) ([]domain.Order, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var out []domain.Order
	for _, id := range m.orderIDs {
		o := m.orders[id]
		if !from.IsZero() && o.DeliveryDate.Before(from) {
			continue
		}
		if !to.IsZero() && o.DeliveryDate.After(to) {
			continue
		}
		out = append(out, m.withDerived(o))
	}
	return out, nil
}

// GetOrder implements Store.
func (m *Memory) GetOrder(ctx context.Context, orderID uuid.UUID) (domain.Order, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	o, ok := m.orders[orderID]
	if !ok {
		return domain.Order{}, ErrOrderNotFound
	}
	return m.withDerived(o), nil
}

// ListItems implements Store.
func (m *Memory) ListItems(ctx context.Context, orderID uuid.UUID) ([]domain.OrderItem, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if _, ok := m.orders[orderID]; !ok {
		return nil, ErrOrderNotFound
	}
	items := make([]domain.OrderItem, len(m.items[orderID]))
	copy(items, m.items[orderID])
	return items, nil
}

// WriteItem implements Store.
func (m *Memory) WriteItem(ctx context.Context, orderID, itemID uuid.UUID, patch ItemPatch) (domain.OrderItem, error) {
	if err := validatePatch(patch); err != nil {
		return domain.OrderItem{}, err
	}

	m.mu.Lock()
	o, ok := m.orders[orderID]
	if !ok {
		m.mu.Unlock()
		return domain.OrderItem{}, ErrOrderNotFound
	}

	items := m.items[orderID]
	idx := -1
	for i := range items {
		if items[i].ID == itemID {
			idx = i
			break
		}
	}
	if idx < 0 {
		m.mu.Unlock()
		return domain.OrderItem{}, ErrItemNotFound
	}

	if items[idx].Confirmed.Decided() && !patchAllowedOnDecided(patch) {
		m.mu.Unlock()
		return domain.OrderItem{}, ErrItemDecided
	}

	if patch.ActualQuantity != nil {
		items[idx].ActualQuantity = *patch.ActualQuantity
	}
	if patch.Confirmed != nil {
		items[idx].Confirmed = *patch.Confirmed
	}
	updated := items[idx]
	ev := domain.Event{Kind: domain.EventUpdate, Order: m.withDerived(o)}
	m.mu.Unlock()

	m.emit(ev)
	return updated, nil
}

// WriteOrderStatus implements Store.
func (m *Memory) WriteOrderStatus(ctx context.Context, orderID uuid.UUID, status domain.Status) (domain.Order, error) {
	if !domain.ValidStatus(status) {
		return domain.Order{}, ErrInvalidStatus
	}

	m.mu.Lock()
	o, ok := m.orders[orderID]
	if !ok {
		m.mu.Unlock()
		return domain.Order{}, ErrOrderNotFound
	}
	o.Status = status
	m.orders[orderID] = o
	out := m.withDerived(o)
	m.mu.Unlock()

	m.emit(domain.Event{Kind: domain.EventUpdate, Order: out})
	return out, nil
}

// CreateOrder implements Store.
func (m *Memory) CreateOrder(ctx context.Context, order domain.Order, items []domain.OrderItem) (domain.Order, error) {
	if order.ID == uuid.Nil {
		order.ID = uuid.New()
	}
	if order.Status == "" {
		order.Status = domain.StatusPending
	}
	if !domain.ValidStatus(order.Status) {
		return domain.Order{}, ErrInvalidStatus
	}

	m.mu.Lock()
	stored := make([]domain.OrderItem, len(items))
	for i, it := range items {
		if it.ID == uuid.Nil {
			it.ID = uuid.New()
		}
		it.OrderID = order.ID
		if it.ActualQuantity.IsZero() && !it.OrderedQuantity.IsZero() {
			it.ActualQuantity = it.OrderedQuantity
		}
		stored[i] = it
	}
	m.orderIDs = append(m.orderIDs, order.ID)
	m.orders[order.ID] = order
	m.items[order.ID] = stored
	out := m.withDerived(order)
	m.mu.Unlock()

	m.emit(domain.Event{Kind: domain.EventInsert, Order: out})
	return out, nil
}

// DeleteOrder removes an order and its items. Not part of the Store contract
// the dashboard consumes; exists so tests and demos can exercise the delete
// branch of the push feed.
func (m *Memory) DeleteOrder(orderID uuid.UUID) error {
	m.mu.Lock()
	o, ok := m.orders[orderID]
	if !ok {
		m.mu.Unlock()
		return ErrOrderNotFound
	}
	out := m.withDerived(o)
	delete(m.orders, orderID)
	delete(m.items, orderID)
	for i, id := range m.orderIDs {
		if id == orderID {
			m.orderIDs = append(m.orderIDs[:i], m.orderIDs[i+1:]...)
			break
		}
	}
	m.mu.Unlock()

	m.emit(domain.Event{Kind: domain.EventDelete, Order: out})
	return nil
}

// SeedDemoData loads the demo dataset with delivery dates relative to now.
// Returns the number of orders created.
func (m *Memory) SeedDemoData(now time.Time) int {
	seed := DemoDataset(now)
	for _, s := range seed {
		// Seeding predates any notifier; CreateOrder emits only if one is set.
		_, _ = m.CreateOrder(context.Background(), s.Order, s.Items)
	}
	return len(seed)
}
