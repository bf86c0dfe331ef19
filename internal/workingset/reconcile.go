package workingset

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/bencevas/orderboard/internal/domain"
	"github.com/bencevas/orderboard/internal/store"
)

// mutateItem runs one optimistic item mutation: apply the change to the local
// copy, persist the patch built from the updated item, and on write failure
// restore the exact prior value. Domain rejections (already decided, negative
// quantity) fail before anything is written and leave the set untouched.
func (ws *WorkingSet) mutateItem(
	ctx context.Context,
	orderID, itemID uuid.UUID,
	apply func(*domain.OrderItem) error,
	buildPatch func(prev, cur domain.OrderItem) store.ItemPatch,
) error {
	ws.mu.Lock()
	it := ws.findItem(orderID, itemID)
	if it == nil {
		ws.mu.Unlock()
		return store.ErrItemNotFound
	}
	prev := *it
	if err := apply(it); err != nil {
		ws.mu.Unlock()
		return err
	}
	cur := *it
	ws.mu.Unlock()

	patch := buildPatch(prev, cur)
	if patch.ActualQuantity == nil && patch.Confirmed == nil {
		return nil
	}

	written, err := ws.store.WriteItem(ctx, orderID, itemID, patch)
	if err != nil {
		ws.mu.Lock()
		if it := ws.findItem(orderID, itemID); it != nil {
			*it = prev
		}
		ws.mu.Unlock()
		ws.log.Error("item write failed, rolled back",
			zap.String("order_id", orderID.String()),
			zap.String("item_id", itemID.String()),
			zap.Error(err))
		return err
	}

	// Reconcile with whatever the store actually recorded.
	ws.mu.Lock()
	if it := ws.findItem(orderID, itemID); it != nil {
		*it = written
	}
	ws.mu.Unlock()
	return nil
}

// Confirm marks a pending item as confirmed. When the adjusted quantity
// drifted from the ordered quantity, the same write carries the quantity so
// confirmation locks it in.
func (ws *WorkingSet) Confirm(ctx context.Context, orderID, itemID uuid.UUID) error {
	return ws.mutateItem(ctx, orderID, itemID,
		(*domain.OrderItem).Confirm,
		func(_, cur domain.OrderItem) store.ItemPatch {
			patch := store.ItemPatch{Confirmed: confirmation(domain.ConfirmationConfirmed)}
			if cur.HasQuantityDifference() {
				q := cur.ActualQuantity
				patch.ActualQuantity = &q
			}
			return patch
		})
}

// Deny marks a pending item as denied. The quantity is left as-is.
func (ws *WorkingSet) Deny(ctx context.Context, orderID, itemID uuid.UUID) error {
	return ws.mutateItem(ctx, orderID, itemID,
		(*domain.OrderItem).Deny,
		func(_, _ domain.OrderItem) store.ItemPatch {
			return store.ItemPatch{Confirmed: confirmation(domain.ConfirmationDenied)}
		})
}

// Revert returns a decided item to pending, re-persisting its quantity so the
// reopened item carries the value it was decided with. Reverting an item that
// is already pending is a no-op.
func (ws *WorkingSet) Revert(ctx context.Context, orderID, itemID uuid.UUID) error {
	return ws.mutateItem(ctx, orderID, itemID,
		func(it *domain.OrderItem) error {
			it.Revert()
			return nil
		},
		func(prev, cur domain.OrderItem) store.ItemPatch {
			if !prev.Confirmed.Decided() {
				return store.ItemPatch{}
			}
			q := cur.ActualQuantity
			return store.ItemPatch{
				ActualQuantity: &q,
				Confirmed:      confirmation(domain.ConfirmationPending),
			}
		})
}

// SetQuantity replaces a pending item's actual quantity.
func (ws *WorkingSet) SetQuantity(ctx context.Context, orderID, itemID uuid.UUID, q decimal.Decimal) error {
	return ws.mutateItem(ctx, orderID, itemID,
		func(it *domain.OrderItem) error { return it.AdjustQuantity(q) },
		quantityPatch)
}

// IncrementQuantity bumps a pending item's quantity by the standard step.
func (ws *WorkingSet) IncrementQuantity(ctx context.Context, orderID, itemID uuid.UUID) error {
	step := domain.DefaultQuantityStep
	return ws.mutateItem(ctx, orderID, itemID,
		func(it *domain.OrderItem) error { return it.IncrementQuantity(step) },
		quantityPatch)
}

// DecrementQuantity lowers a pending item's quantity by the standard step,
// stopping at zero.
func (ws *WorkingSet) DecrementQuantity(ctx context.Context, orderID, itemID uuid.UUID) error {
	step := domain.DefaultQuantityStep
	return ws.mutateItem(ctx, orderID, itemID,
		func(it *domain.OrderItem) error { return it.DecrementQuantity(step) },
		quantityPatch)
}

func quantityPatch(prev, cur domain.OrderItem) store.ItemPatch {
	if cur.ActualQuantity.Equal(prev.ActualQuantity) {
		return store.ItemPatch{}
	}
	q := cur.ActualQuantity
	return store.ItemPatch{ActualQuantity: &q}
}

func confirmation(c domain.Confirmation) *domain.Confirmation {
	return &c
}

// ConfirmAllForGroup confirms every still-pending instance of one batch
// group. Each confirmation is an independent optimistic write; a failure
// rolls back only its own instance and the rest proceed. The returned error
// joins the individual failures, nil when all succeeded.
func (ws *WorkingSet) ConfirmAllForGroup(ctx context.Context, name string) error {
	var targets []domain.BatchInstance
	for _, g := range ws.BatchGroups() {
		if g.Name != name {
			continue
		}
		for _, inst := range g.Instances {
			if !inst.Confirmed.Decided() {
				targets = append(targets, inst)
			}
		}
		break
	}

	var errs []error
	for _, inst := range targets {
		if err := ws.Confirm(ctx, inst.OrderID, inst.ItemID); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// BatchGroups re-derives the cross-order product groups from the current
// orders and their loaded items. Call LoadAllItems first for a complete view.
func (ws *WorkingSet) BatchGroups() []domain.BatchGroup {
	ws.mu.RLock()
	defer ws.mu.RUnlock()
	return domain.GroupItems(ws.orders, ws.items)
}
