package workingset

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/bencevas/orderboard/internal/domain"
	"github.com/bencevas/orderboard/internal/store"
)

// Draft buffers edits to one order so the detail view can stage quantity,
// confirmation, and status changes without touching the store until Save.
// Discarding a draft is just dropping it; the working set never saw the
// edits.
type Draft struct {
	ws      *WorkingSet
	orderID uuid.UUID

	baseStatus domain.Status
	status     domain.Status
	items      []domain.OrderItem
}

// NewDraft opens a draft over the order's current state, fetching the items
// if the working set has not loaded them yet.
func (ws *WorkingSet) NewDraft(ctx context.Context, orderID uuid.UUID) (*Draft, error) {
	order, ok := ws.Order(orderID)
	if !ok {
		return nil, store.ErrOrderNotFound
	}
	items := ws.Items(orderID)
	if items == nil {
		if err := ws.LoadItems(ctx, orderID); err != nil {
			return nil, err
		}
		items = ws.Items(orderID)
	}
	return &Draft{
		ws:         ws,
		orderID:    orderID,
		baseStatus: order.Status,
		status:     order.Status,
		items:      items,
	}, nil
}

// OrderID returns the order the draft edits.
func (d *Draft) OrderID() uuid.UUID { return d.orderID }

// Status returns the staged workflow status.
func (d *Draft) Status() domain.Status { return d.status }

// SetStatus stages a workflow status change.
func (d *Draft) SetStatus(s domain.Status) error {
	if !domain.ValidStatus(s) {
		return store.ErrInvalidStatus
	}
	d.status = s
	return nil
}

// Items returns a copy of the staged items.
func (d *Draft) Items() []domain.OrderItem {
	out := make([]domain.OrderItem, len(d.items))
	copy(out, d.items)
	return out
}

// Total computes the live order total over the staged items.
func (d *Draft) Total() decimal.Decimal {
	return domain.OrderTotal(d.items)
}

// Dirty reports whether the draft differs from the state it was opened on.
func (d *Draft) Dirty() bool {
	if d.status != d.baseStatus {
		return true
	}
	base := make(map[uuid.UUID]domain.OrderItem)
	for _, it := range d.ws.Items(d.orderID) {
		base[it.ID] = it
	}
	for _, it := range d.items {
		b, ok := base[it.ID]
		if !ok {
			return true
		}
		if !it.ActualQuantity.Equal(b.ActualQuantity) || it.Confirmed != b.Confirmed {
			return true
		}
	}
	return false
}

func (d *Draft) findItem(itemID uuid.UUID) *domain.OrderItem {
	for i := range d.items {
		if d.items[i].ID == itemID {
			return &d.items[i]
		}
	}
	return nil
}

func (d *Draft) mutate(itemID uuid.UUID, apply func(*domain.OrderItem) error) error {
	it := d.findItem(itemID)
	if it == nil {
		return store.ErrItemNotFound
	}
	return apply(it)
}

// Confirm stages a confirmation for a pending item.
func (d *Draft) Confirm(itemID uuid.UUID) error {
	return d.mutate(itemID, (*domain.OrderItem).Confirm)
}

// Deny stages a denial for a pending item.
func (d *Draft) Deny(itemID uuid.UUID) error {
	return d.mutate(itemID, (*domain.OrderItem).Deny)
}

// Revert stages a return to pending.
func (d *Draft) Revert(itemID uuid.UUID) error {
	return d.mutate(itemID, func(it *domain.OrderItem) error {
		it.Revert()
		return nil
	})
}

// SetQuantity stages a quantity change on a pending item.
func (d *Draft) SetQuantity(itemID uuid.UUID, q decimal.Decimal) error {
	return d.mutate(itemID, func(it *domain.OrderItem) error {
		return it.AdjustQuantity(q)
	})
}

// IncrementQuantity bumps a pending item's staged quantity by the standard step.
func (d *Draft) IncrementQuantity(itemID uuid.UUID) error {
	step := domain.DefaultQuantityStep
	return d.mutate(itemID, func(it *domain.OrderItem) error {
		return it.IncrementQuantity(step)
	})
}

// DecrementQuantity lowers a pending item's staged quantity by the standard step.
func (d *Draft) DecrementQuantity(itemID uuid.UUID) error {
	step := domain.DefaultQuantityStep
	return d.mutate(itemID, func(it *domain.OrderItem) error {
		return it.DecrementQuantity(step)
	})
}

// Save persists the whole draft: the status when it changed, then every
// item's quantity and confirmation as one patch per item. After a successful
// save the freshly written state is re-fetched into the working set and
// becomes the draft's new baseline. On failure the draft keeps its edits so
// the caller can retry.
func (d *Draft) Save(ctx context.Context) error {
	st := d.ws.store

	if d.status != d.baseStatus {
		if _, err := st.WriteOrderStatus(ctx, d.orderID, d.status); err != nil {
			d.ws.log.Error("draft save: status write failed",
				zap.String("order_id", d.orderID.String()), zap.Error(err))
			return fmt.Errorf("write status: %w", err)
		}
	}

	for i := range d.items {
		it := d.items[i]
		q := it.ActualQuantity
		c := it.Confirmed
		patch := store.ItemPatch{ActualQuantity: &q, Confirmed: &c}
		if _, err := st.WriteItem(ctx, d.orderID, it.ID, patch); err != nil {
			d.ws.log.Error("draft save: item write failed",
				zap.String("order_id", d.orderID.String()),
				zap.String("item_id", it.ID.String()),
				zap.Error(err))
			return fmt.Errorf("write item %s: %w", it.ID, err)
		}
	}

	order, err := st.GetOrder(ctx, d.orderID)
	if err != nil {
		return fmt.Errorf("refresh order: %w", err)
	}
	items, err := st.ListItems(ctx, d.orderID)
	if err != nil {
		return fmt.Errorf("refresh items: %w", err)
	}

	d.ws.mu.Lock()
	if o := d.ws.findOrder(d.orderID); o != nil {
		*o = order
	}
	d.ws.items[d.orderID] = items
	d.ws.mu.Unlock()

	d.baseStatus = order.Status
	d.status = order.Status
	d.items = make([]domain.OrderItem, len(items))
	copy(d.items, items)
	return nil
}
