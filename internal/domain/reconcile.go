package domain

import (
	"errors"

	"github.com/shopspring/decimal"
)

// Errors returned by reconciliation operations.
var (
	ErrAlreadyDecided   = errors.New("item already decided")
	ErrNegativeQuantity = errors.New("quantity must be >= 0")
)

// DefaultQuantityStep is the increment applied by the +/- quantity controls.
var DefaultQuantityStep = decimal.NewFromFloat(0.1)

// quantityTolerance is the threshold below which an ordered/actual difference
// is treated as equal. Matches the dashboard's display rule.
var quantityTolerance = decimal.NewFromFloat(0.01)

// Confirm records that the item's availability is confirmed.
// Only a pending item can be confirmed; use Revert first to re-decide.
func (it *OrderItem) Confirm() error {
	if it.Confirmed.Decided() {
		return ErrAlreadyDecided
	}
	it.Confirmed = ConfirmationConfirmed
	return nil
}

// Deny records that the item cannot be fulfilled.
func (it *OrderItem) Deny() error {
	if it.Confirmed.Decided() {
		return ErrAlreadyDecided
	}
	it.Confirmed = ConfirmationDenied
	return nil
}

// Revert clears a confirmed or denied decision back to pending, re-opening
// quantity editing. Reverting an already-pending item is a no-op.
func (it *OrderItem) Revert() {
	it.Confirmed = ConfirmationPending
}

// AdjustQuantity sets the fulfillable quantity. Permitted only while the item
// is pending: a decided item's quantity is immutable until reverted.
func (it *OrderItem) AdjustQuantity(q decimal.Decimal) error {
	if it.Confirmed.Decided() {
		return ErrAlreadyDecided
	}
	if q.IsNegative() {
		return ErrNegativeQuantity
	}
	it.ActualQuantity = q
	return nil
}

// IncrementQuantity bumps the quantity by step, rounding to 2 decimal places.
func (it *OrderItem) IncrementQuantity(step decimal.Decimal) error {
	if it.Confirmed.Decided() {
		return ErrAlreadyDecided
	}
	it.ActualQuantity = it.ActualQuantity.Add(step).Round(2)
	return nil
}

// DecrementQuantity lowers the quantity by step, clamping at zero.
func (it *OrderItem) DecrementQuantity(step decimal.Decimal) error {
	if it.Confirmed.Decided() {
		return ErrAlreadyDecided
	}
	q := it.ActualQuantity.Sub(step).Round(2)
	if q.IsNegative() {
		q = decimal.Zero
	}
	it.ActualQuantity = q
	return nil
}

// HasQuantityDifference reports whether the fulfillable quantity was adjusted
// away from what the customer ordered (beyond the 0.01 tolerance). Display
// only; never gates a transition.
func (it OrderItem) HasQuantityDifference() bool {
	return it.OrderedQuantity.Sub(it.ActualQuantity).Abs().GreaterThan(quantityTolerance)
}
