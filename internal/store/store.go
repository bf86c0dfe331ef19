// Package store defines the data-store collaborator the dashboard core talks
// to, and its two backends: Postgres and an in-memory fallback. Which backend
// serves a process is decided once at startup, never per call.
package store

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/bencevas/orderboard/internal/domain"
)

// Errors returned by store operations.
var (
	ErrOrderNotFound   = errors.New("order not found")
	ErrItemNotFound    = errors.New("order item not found")
	ErrInvalidStatus   = errors.New("invalid status")
	ErrInvalidQuantity = errors.New("quantity must be >= 0")
	ErrItemDecided     = errors.New("item is decided, revert before changing quantity")
	ErrEmptyPatch      = errors.New("empty item patch")
)

// ItemPatch is a partial write to one order item. Nil fields are untouched.
type ItemPatch struct {
	ActualQuantity *decimal.Decimal
	Confirmed      *domain.Confirmation
}

// Store is the remote order store. No locking, versioning or concurrency
// token exists on item writes: two concurrent writers to the same item race
// and the last write wins. That is an accepted property of the system, not a
// gap for the store implementation to quietly fix.
type Store interface {
	// ListOrders returns the orders whose delivery date falls inside
	// [from, to], in delivery-date order. Zero bounds are open ends.
	// Totals and item counts are computed from the items on read.
	ListOrders(ctx context.Context, from, to time.Time) ([]domain.Order, error)

	// GetOrder returns one order by id.
	GetOrder(ctx context.Context, orderID uuid.UUID) (domain.Order, error)

	// ListItems returns the order's items in creation order.
	ListItems(ctx context.Context, orderID uuid.UUID) ([]domain.OrderItem, error)

	// WriteItem applies the patch to one item and returns the stored row.
	// A quantity write against a decided item is rejected with ErrItemDecided
	// unless the same patch also rewrites the decision; the store enforces
	// this even though the UI disables the controls, because the store is the
	// ultimate authority over concurrent writers.
	WriteItem(ctx context.Context, orderID, itemID uuid.UUID, patch ItemPatch) (domain.OrderItem, error)

	// WriteOrderStatus sets the order's workflow status. Any status can be
	// written over any other; the enum itself is validated.
	WriteOrderStatus(ctx context.Context, orderID uuid.UUID, status domain.Status) (domain.Order, error)

	// CreateOrder ingests a new order with its items. Used by the commerce
	// webhook and by seeding; the dashboard itself never creates orders.
	CreateOrder(ctx context.Context, order domain.Order, items []domain.OrderItem) (domain.Order, error)
}

// Notifier receives a change event after a write has been committed. The
// server wires this to the websocket hub so every connected dashboard sees
// inserts, updates and deletes as they happen.
type Notifier func(domain.Event)

func validatePatch(patch ItemPatch) error {
	if patch.ActualQuantity == nil && patch.Confirmed == nil {
		return ErrEmptyPatch
	}
	if patch.ActualQuantity != nil && patch.ActualQuantity.IsNegative() {
		return ErrInvalidQuantity
	}
	return nil
}

// patchAllowedOnDecided reports whether the patch may touch an already-decided
// item: only when it leaves the quantity alone or rewrites the decision itself
// (confirm locks in the quantity, revert re-persists it).
func patchAllowedOnDecided(patch ItemPatch) bool {
	return patch.ActualQuantity == nil || patch.Confirmed != nil
}
