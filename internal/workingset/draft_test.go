package workingset

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/bencevas/orderboard/internal/domain"
	"github.com/bencevas/orderboard/internal/store"
)

func TestDraftBuffersUntilSave(t *testing.T) {
	mem := store.NewMemory()
	monday := date(2026, time.March, 2)
	item := newItem("Chicken Breast", "2.5", "12.99")
	order := seedOrder(t, mem, "ORD-7001", monday, item)

	rec := &recordingStore{Memory: mem}
	ws := New(rec, nil)
	mustLoad(t, ws, monday, monday)

	ctx := context.Background()
	draft, err := ws.NewDraft(ctx, order.ID)
	if err != nil {
		t.Fatalf("new draft: %v", err)
	}

	if err := draft.SetQuantity(item.ID, qty("1.8")); err != nil {
		t.Fatalf("set quantity: %v", err)
	}
	if err := draft.Confirm(item.ID); err != nil {
		t.Fatalf("confirm: %v", err)
	}
	if err := draft.SetStatus(domain.StatusConfirmed); err != nil {
		t.Fatalf("set status: %v", err)
	}

	if len(rec.patches) != 0 {
		t.Fatalf("draft edits reached the store before save: %d writes", len(rec.patches))
	}
	if live := ws.Items(order.ID); live[0].Confirmed != domain.ConfirmationPending {
		t.Fatal("draft edit leaked into the working set")
	}
	if !draft.Dirty() {
		t.Fatal("draft with staged edits should be dirty")
	}
	if got := draft.Total(); !got.Equal(qty("23.382")) {
		t.Fatalf("staged total = %s, want 23.382", got)
	}
}

func TestDraftSavePersistsEverything(t *testing.T) {
	mem := store.NewMemory()
	monday := date(2026, time.March, 2)
	chicken := newItem("Chicken Breast", "2.5", "12.99")
	beef := newItem("Beef Ribeye", "1", "28.50")
	order := seedOrder(t, mem, "ORD-7002", monday, chicken, beef)

	ws := New(mem, nil)
	mustLoad(t, ws, monday, monday)

	ctx := context.Background()
	draft, err := ws.NewDraft(ctx, order.ID)
	if err != nil {
		t.Fatalf("new draft: %v", err)
	}

	if err := draft.SetQuantity(chicken.ID, qty("2")); err != nil {
		t.Fatalf("set quantity: %v", err)
	}
	if err := draft.Confirm(chicken.ID); err != nil {
		t.Fatalf("confirm: %v", err)
	}
	if err := draft.Deny(beef.ID); err != nil {
		t.Fatalf("deny: %v", err)
	}
	if err := draft.SetStatus(domain.StatusProcessing); err != nil {
		t.Fatalf("set status: %v", err)
	}
	if err := draft.Save(ctx); err != nil {
		t.Fatalf("save: %v", err)
	}

	stored, err := mem.GetOrder(ctx, order.ID)
	if err != nil {
		t.Fatalf("get order: %v", err)
	}
	if stored.Status != domain.StatusProcessing {
		t.Fatalf("status = %v, want processing", stored.Status)
	}
	// Denied beef is excluded from the derived total: 2 * 12.99.
	if !stored.TotalAmount.Equal(qty("25.98")) {
		t.Fatalf("total = %s, want 25.98", stored.TotalAmount)
	}

	items, _ := mem.ListItems(ctx, order.ID)
	byID := make(map[uuid.UUID]domain.OrderItem)
	for _, it := range items {
		byID[it.ID] = it
	}
	if it := byID[chicken.ID]; it.Confirmed != domain.ConfirmationConfirmed || !it.ActualQuantity.Equal(qty("2")) {
		t.Fatalf("chicken after save = %+v", it)
	}
	if it := byID[beef.ID]; it.Confirmed != domain.ConfirmationDenied {
		t.Fatalf("beef after save = %+v", it)
	}

	// The working set and the draft baseline were refreshed.
	live, ok := ws.Order(order.ID)
	if !ok || live.Status != domain.StatusProcessing {
		t.Fatalf("working set order not refreshed: %+v", live)
	}
	if draft.Dirty() {
		t.Fatal("draft should be clean after save")
	}
}

func TestDraftSaveSkipsUnchangedStatus(t *testing.T) {
	mem := store.NewMemory()
	monday := date(2026, time.March, 2)
	item := newItem("Pork Belly", "3", "15.99")
	order := seedOrder(t, mem, "ORD-7003", monday, item)

	statusWrites := 0
	backend := &storeFuncs{
		listOrders: mem.ListOrders,
		listItems:  mem.ListItems,
		getOrder:   mem.GetOrder,
		writeItem:  mem.WriteItem,
		writeStatus: func(ctx context.Context, orderID uuid.UUID, status domain.Status) (domain.Order, error) {
			statusWrites++
			return mem.WriteOrderStatus(ctx, orderID, status)
		},
	}
	ws := New(backend, nil)
	mustLoad(t, ws, monday, monday)

	ctx := context.Background()
	draft, err := ws.NewDraft(ctx, order.ID)
	if err != nil {
		t.Fatalf("new draft: %v", err)
	}
	if err := draft.Confirm(item.ID); err != nil {
		t.Fatalf("confirm: %v", err)
	}
	if err := draft.Save(ctx); err != nil {
		t.Fatalf("save: %v", err)
	}
	if statusWrites != 0 {
		t.Fatalf("unchanged status written %d times", statusWrites)
	}
}

func TestDraftSaveFailureKeepsEdits(t *testing.T) {
	mem := store.NewMemory()
	monday := date(2026, time.March, 2)
	item := newItem("Lamb Chops", "2", "32.00")
	order := seedOrder(t, mem, "ORD-7004", monday, item)

	flaky := &flakyStore{
		Memory:   mem,
		failItem: map[uuid.UUID]error{item.ID: errors.New("backend down")},
	}
	ws := New(flaky, nil)
	mustLoad(t, ws, monday, monday)

	ctx := context.Background()
	draft, err := ws.NewDraft(ctx, order.ID)
	if err != nil {
		t.Fatalf("new draft: %v", err)
	}
	if err := draft.SetQuantity(item.ID, qty("1.5")); err != nil {
		t.Fatalf("set quantity: %v", err)
	}
	if err := draft.Save(ctx); err == nil {
		t.Fatal("expected save failure")
	}

	// The edits stay staged for a retry.
	staged := draft.Items()
	if !staged[0].ActualQuantity.Equal(qty("1.5")) {
		t.Fatalf("staged quantity lost after failed save: %s", staged[0].ActualQuantity)
	}

	delete(flaky.failItem, item.ID)
	if err := draft.Save(ctx); err != nil {
		t.Fatalf("retry save: %v", err)
	}
	stored, _ := mem.ListItems(ctx, order.ID)
	if !stored[0].ActualQuantity.Equal(qty("1.5")) {
		t.Fatalf("retried save did not land: %s", stored[0].ActualQuantity)
	}
}

func TestDraftGuards(t *testing.T) {
	mem := store.NewMemory()
	monday := date(2026, time.March, 2)
	item := newItem("Chicken Breast", "2", "12.99")
	order := seedOrder(t, mem, "ORD-7005", monday, item)

	ws := New(mem, nil)
	mustLoad(t, ws, monday, monday)

	ctx := context.Background()
	if _, err := ws.NewDraft(ctx, uuid.New()); !errors.Is(err, store.ErrOrderNotFound) {
		t.Fatalf("unknown order: %v", err)
	}

	draft, err := ws.NewDraft(ctx, order.ID)
	if err != nil {
		t.Fatalf("new draft: %v", err)
	}
	if err := draft.Confirm(uuid.New()); !errors.Is(err, store.ErrItemNotFound) {
		t.Fatalf("unknown item: %v", err)
	}
	if err := draft.SetStatus(domain.Status("shipped")); !errors.Is(err, store.ErrInvalidStatus) {
		t.Fatalf("invalid status: %v", err)
	}
	if err := draft.Confirm(item.ID); err != nil {
		t.Fatalf("confirm: %v", err)
	}
	if err := draft.SetQuantity(item.ID, qty("3")); !errors.Is(err, domain.ErrAlreadyDecided) {
		t.Fatalf("quantity edit on decided item: %v", err)
	}
	if err := draft.Revert(item.ID); err != nil {
		t.Fatalf("revert: %v", err)
	}
	if err := draft.SetQuantity(item.ID, qty("3")); err != nil {
		t.Fatalf("quantity edit after revert: %v", err)
	}
}

func TestDraftQuantitySteps(t *testing.T) {
	mem := store.NewMemory()
	monday := date(2026, time.March, 2)
	item := newItem("Pork Loin", "0.2", "8.50")
	order := seedOrder(t, mem, "ORD-7006", monday, item)

	ws := New(mem, nil)
	mustLoad(t, ws, monday, monday)

	draft, err := ws.NewDraft(context.Background(), order.ID)
	if err != nil {
		t.Fatalf("new draft: %v", err)
	}

	staged := func() decimal.Decimal {
		t.Helper()
		for _, it := range draft.Items() {
			if it.ID == item.ID {
				return it.ActualQuantity
			}
		}
		t.Fatal("item missing from draft")
		return decimal.Zero
	}

	if err := draft.IncrementQuantity(item.ID); err != nil {
		t.Fatalf("increment: %v", err)
	}
	if got := staged(); !got.Equal(qty("0.3")) {
		t.Fatalf("after increment = %s, want 0.3", got)
	}

	for i := 0; i < 4; i++ {
		if err := draft.DecrementQuantity(item.ID); err != nil {
			t.Fatalf("decrement %d: %v", i, err)
		}
	}
	if got := staged(); !got.Equal(decimal.Zero) {
		t.Fatalf("quantity should clamp at zero, got %s", got)
	}
}
