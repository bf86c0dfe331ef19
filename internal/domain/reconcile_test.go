package domain

import (
	"errors"
	"testing"

	"github.com/shopspring/decimal"
)

func qty(s string) decimal.Decimal {
	d, err := decimal.NewFromString(s)
	if err != nil {
		panic(err)
	}
	return d
}

func pendingItem(name, ordered, price string) OrderItem {
	return OrderItem{
		Name:            name,
		Unit:            "kg",
		Price:           qty(price),
		OrderedQuantity: qty(ordered),
		ActualQuantity:  qty(ordered),
		Confirmed:       ConfirmationPending,
	}
}

// =====================
// State machine tests
// =====================

func TestConfirmDenyRevert(t *testing.T) {
	it := pendingItem("Ground Beef", "1", "15.50")

	if err := it.Confirm(); err != nil {
		t.Fatalf("confirm pending item: %v", err)
	}
	if it.Confirmed != ConfirmationConfirmed {
		t.Fatalf("expected confirmed, got %s", it.Confirmed)
	}

	// Confirming again is rejected, only revert re-opens the decision.
	if err := it.Confirm(); !errors.Is(err, ErrAlreadyDecided) {
		t.Fatalf("expected ErrAlreadyDecided, got %v", err)
	}

	it.Revert()
	if it.Confirmed != ConfirmationPending {
		t.Fatalf("expected pending after revert, got %s", it.Confirmed)
	}

	if err := it.Deny(); err != nil {
		t.Fatalf("deny pending item: %v", err)
	}
	if it.Confirmed != ConfirmationDenied {
		t.Fatalf("expected denied, got %s", it.Confirmed)
	}

	// Revert is available from denied as well, and always lands on pending.
	it.Revert()
	if it.Confirmed != ConfirmationPending {
		t.Fatalf("expected pending after revert from denied, got %s", it.Confirmed)
	}
}

func TestRevertIdempotent(t *testing.T) {
	it := pendingItem("Lamb Chops", "1", "32.00")
	it.Revert()
	it.Revert()
	if it.Confirmed != ConfirmationPending {
		t.Fatalf("expected pending, got %s", it.Confirmed)
	}
}

// =====================
// Quantity editing tests
// =====================

func TestAdjustQuantityOnlyWhilePending(t *testing.T) {
	it := pendingItem("Organic Chicken Breast", "2", "12.99")

	if err := it.AdjustQuantity(qty("1.8")); err != nil {
		t.Fatalf("adjust pending item: %v", err)
	}
	if !it.ActualQuantity.Equal(qty("1.8")) {
		t.Fatalf("expected 1.8, got %s", it.ActualQuantity)
	}

	if err := it.Confirm(); err != nil {
		t.Fatalf("confirm: %v", err)
	}

	// Decided items are immutable with respect to quantity.
	if err := it.AdjustQuantity(qty("5")); !errors.Is(err, ErrAlreadyDecided) {
		t.Fatalf("expected ErrAlreadyDecided, got %v", err)
	}
	if !it.ActualQuantity.Equal(qty("1.8")) {
		t.Fatalf("quantity changed on decided item: %s", it.ActualQuantity)
	}
	if err := it.IncrementQuantity(DefaultQuantityStep); !errors.Is(err, ErrAlreadyDecided) {
		t.Fatalf("expected ErrAlreadyDecided on increment, got %v", err)
	}

	// Revert re-opens editing.
	it.Revert()
	if err := it.AdjustQuantity(qty("2.2")); err != nil {
		t.Fatalf("adjust after revert: %v", err)
	}
}

func TestAdjustQuantityRejectsNegative(t *testing.T) {
	it := pendingItem("Fresh Salmon Fillet", "1.5", "24.99")
	if err := it.AdjustQuantity(qty("-0.5")); !errors.Is(err, ErrNegativeQuantity) {
		t.Fatalf("expected ErrNegativeQuantity, got %v", err)
	}
	if !it.ActualQuantity.Equal(qty("1.5")) {
		t.Fatalf("quantity changed on rejected adjust: %s", it.ActualQuantity)
	}
}

func TestStepAdjustRoundsAndClamps(t *testing.T) {
	it := pendingItem("Duck Breast", "0.8", "22.00")

	if err := it.IncrementQuantity(DefaultQuantityStep); err != nil {
		t.Fatalf("increment: %v", err)
	}
	if !it.ActualQuantity.Equal(qty("0.9")) {
		t.Fatalf("expected 0.9, got %s", it.ActualQuantity)
	}

	// Many decrements never go below zero.
	for i := 0; i < 20; i++ {
		if err := it.DecrementQuantity(DefaultQuantityStep); err != nil {
			t.Fatalf("decrement %d: %v", i, err)
		}
		if it.ActualQuantity.IsNegative() {
			t.Fatalf("quantity went negative: %s", it.ActualQuantity)
		}
	}
	if !it.ActualQuantity.Equal(decimal.Zero) {
		t.Fatalf("expected clamp at 0, got %s", it.ActualQuantity)
	}
}

func TestStepAdjustRoundsToTwoPlaces(t *testing.T) {
	it := pendingItem("Turkey Breast", "2.5", "14.50")
	step := qty("0.333")
	if err := it.IncrementQuantity(step); err != nil {
		t.Fatalf("increment: %v", err)
	}
	if !it.ActualQuantity.Equal(qty("2.83")) {
		t.Fatalf("expected 2.83, got %s", it.ActualQuantity)
	}
}

func TestHasQuantityDifference(t *testing.T) {
	it := pendingItem("Pork Tenderloin", "1.5", "16.99")
	if it.HasQuantityDifference() {
		t.Fatal("unadjusted item reported a difference")
	}

	// Within tolerance counts as equal.
	if err := it.AdjustQuantity(qty("1.49")); err != nil {
		t.Fatalf("adjust: %v", err)
	}
	if it.HasQuantityDifference() {
		t.Fatal("0.01 delta should be within tolerance")
	}

	if err := it.AdjustQuantity(qty("1.4")); err != nil {
		t.Fatalf("adjust: %v", err)
	}
	if !it.HasQuantityDifference() {
		t.Fatal("0.1 delta should be flagged")
	}
}
