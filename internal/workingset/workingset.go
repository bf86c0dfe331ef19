// Package workingset holds the dashboard's in-memory view of the orders and
// items for the visible delivery-date window, and drives every mutation
// through the optimistic-update discipline: apply locally first, write to the
// store, roll back the exact prior value on failure.
package workingset

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/bencevas/orderboard/internal/domain"
	"github.com/bencevas/orderboard/internal/store"
)

// WorkingSet is safe for concurrent use: direct user actions and push-feed
// events both mutate it, always by entity identity, never by position.
type WorkingSet struct {
	store store.Store
	log   *zap.Logger

	mu       sync.RWMutex
	from, to time.Time
	orders   []domain.Order
	items    map[uuid.UUID][]domain.OrderItem
	gen      uint64
	loadErr  error
}

// New creates an empty working set over the given store.
func New(st store.Store, log *zap.Logger) *WorkingSet {
	if log == nil {
		log = zap.NewNop()
	}
	return &WorkingSet{
		store: st,
		log:   log,
		items: make(map[uuid.UUID][]domain.OrderItem),
	}
}

// Load replaces the working set with the orders of the given window. Items
// are fetched lazily afterwards (LoadItems / LoadAllItems). If a newer Load
// starts before this one resolves, the stale result is discarded instead of
// overwriting newer state. On failure the previous working set stays intact
// and the error is retained; retry by calling Load again.
func (ws *WorkingSet) Load(ctx context.Context, from, to time.Time) error {
	ws.mu.Lock()
	ws.gen++
	gen := ws.gen
	ws.mu.Unlock()

	orders, err := ws.store.ListOrders(ctx, from, to)

	ws.mu.Lock()
	defer ws.mu.Unlock()
	if gen != ws.gen {
		// A newer load superseded this one while it was in flight.
		ws.log.Debug("discarding stale order fetch")
		return nil
	}
	if err != nil {
		ws.loadErr = err
		ws.log.Error("load orders failed", zap.Error(err))
		return err
	}

	ws.from, ws.to = from, to
	ws.orders = orders
	ws.items = make(map[uuid.UUID][]domain.OrderItem)
	ws.loadErr = nil
	return nil
}

// Err returns the error of the most recent failed load, nil otherwise.
func (ws *WorkingSet) Err() error {
	ws.mu.RLock()
	defer ws.mu.RUnlock()
	return ws.loadErr
}

// LoadItems fetches one order's items into the set (on-demand fetch when an
// order is opened). Stale results, like stale order fetches, are discarded.
func (ws *WorkingSet) LoadItems(ctx context.Context, orderID uuid.UUID) error {
	ws.mu.RLock()
	gen := ws.gen
	ws.mu.RUnlock()

	items, err := ws.store.ListItems(ctx, orderID)
	if err != nil {
		ws.log.Error("load items failed", zap.String("order_id", orderID.String()), zap.Error(err))
		return err
	}

	ws.mu.Lock()
	defer ws.mu.Unlock()
	if gen != ws.gen {
		ws.log.Debug("discarding stale item fetch", zap.String("order_id", orderID.String()))
		return nil
	}
	if ws.findOrder(orderID) == nil {
		// Order left the working set while the fetch was in flight.
		return nil
	}
	ws.items[orderID] = items
	return nil
}

// LoadAllItems fetches the items of every order in the set. Per-order
// fetches run concurrently; there is no ordering dependency between orders.
// On any failure the set keeps its last-known-good items and the first error
// is returned.
func (ws *WorkingSet) LoadAllItems(ctx context.Context) error {
	ws.mu.RLock()
	gen := ws.gen
	ids := make([]uuid.UUID, len(ws.orders))
	for i, o := range ws.orders {
		ids[i] = o.ID
	}
	ws.mu.RUnlock()

	var (
		wg       sync.WaitGroup
		fetchMu  sync.Mutex
		fetched  = make(map[uuid.UUID][]domain.OrderItem, len(ids))
		firstErr error
	)
	for _, id := range ids {
		wg.Add(1)
		go func(orderID uuid.UUID) {
			defer wg.Done()
			items, err := ws.store.ListItems(ctx, orderID)
			fetchMu.Lock()
			defer fetchMu.Unlock()
			if err != nil {
				if firstErr == nil {
					firstErr = err
				}
				return
			}
			fetched[orderID] = items
		}(id)
	}
	wg.Wait()

	if firstErr != nil {
		ws.log.Error("load all items failed", zap.Error(firstErr))
		return firstErr
	}

	ws.mu.Lock()
	defer ws.mu.Unlock()
	if gen != ws.gen {
		ws.log.Debug("discarding stale batch item fetch")
		return nil
	}
	for id, items := range fetched {
		if ws.findOrder(id) != nil {
			ws.items[id] = items
		}
	}
	return nil
}

// ApplyEvent folds a push-feed change into the set by order identity.
// Inserts outside the current date window are ignored; an update for an
// unknown order is ignored as well (the feed covers orders already in view).
func (ws *WorkingSet) ApplyEvent(ev domain.Event) {
	ws.mu.Lock()
	defer ws.mu.Unlock()

	switch ev.Kind {
	case domain.EventInsert:
		if !ws.inWindow(ev.Order.DeliveryDate) {
			return
		}
		if o := ws.findOrder(ev.Order.ID); o != nil {
			*o = ev.Order
			return
		}
		ws.orders = append(ws.orders, ev.Order)

	case domain.EventUpdate:
		if o := ws.findOrder(ev.Order.ID); o != nil {
			*o = ev.Order
		}

	case domain.EventDelete:
		for i := range ws.orders {
			if ws.orders[i].ID == ev.Order.ID {
				ws.orders = append(ws.orders[:i], ws.orders[i+1:]...)
				break
			}
		}
		delete(ws.items, ev.Order.ID)
	}
}

// Orders returns a copy of the orders currently in scope.
func (ws *WorkingSet) Orders() []domain.Order {
	ws.mu.RLock()
	defer ws.mu.RUnlock()
	out := make([]domain.Order, len(ws.orders))
	copy(out, ws.orders)
	return out
}

// Order returns one order by id.
func (ws *WorkingSet) Order(orderID uuid.UUID) (domain.Order, bool) {
	ws.mu.RLock()
	defer ws.mu.RUnlock()
	if o := ws.findOrder(orderID); o != nil {
		return *o, true
	}
	return domain.Order{}, false
}

// Items returns a copy of an order's fetched items; nil when not yet loaded.
func (ws *WorkingSet) Items(orderID uuid.UUID) []domain.OrderItem {
	ws.mu.RLock()
	defer ws.mu.RUnlock()
	items, ok := ws.items[orderID]
	if !ok {
		return nil
	}
	out := make([]domain.OrderItem, len(items))
	copy(out, items)
	return out
}

// OrderTotal recomputes the order's live total from its loaded items. Falls
// back to the store-derived figure when the items are not loaded yet.
func (ws *WorkingSet) OrderTotal(orderID uuid.UUID) decimal.Decimal {
	ws.mu.RLock()
	defer ws.mu.RUnlock()
	if items, ok := ws.items[orderID]; ok {
		return domain.OrderTotal(items)
	}
	if o := ws.findOrder(orderID); o != nil {
		return o.TotalAmount
	}
	return decimal.Zero
}

// --- internal helpers, callers hold ws.mu ---

func (ws *WorkingSet) findOrder(orderID uuid.UUID) *domain.Order {
	for i := range ws.orders {
		if ws.orders[i].ID == orderID {
			return &ws.orders[i]
		}
	}
	return nil
}

func (ws *WorkingSet) findItem(orderID, itemID uuid.UUID) *domain.OrderItem {
	items := ws.items[orderID]
	for i := range items {
		if items[i].ID == itemID {
			return &items[i]
		}
	}
	return nil
}

func (ws *WorkingSet) inWindow(day time.Time) bool {
	if ws.from.IsZero() && ws.to.IsZero() {
		return true
	}
	if !ws.from.IsZero() && day.Before(ws.from) {
		return false
	}
	if !ws.to.IsZero() && day.After(ws.to) {
		return false
	}
	return true
}
