package domain

import (
	"testing"

	"github.com/google/uuid"
)

func orderWithItems(code string, names ...string) (Order, []OrderItem) {
	o := Order{ID: uuid.New(), OrderCode: code, CustomerName: "Customer " + code}
	items := make([]OrderItem, len(names))
	for i, n := range names {
		items[i] = pendingItem(n, "1", "10")
		items[i].ID = uuid.New()
		items[i].OrderID = o.ID
	}
	return o, items
}

func TestGroupItemsByExactName(t *testing.T) {
	a, aItems := orderWithItems("ORD-2024-001", "Chicken", "Beef")
	b, bItems := orderWithItems("ORD-2024-002", "Chicken", "Salmon")

	aItems[0].OrderedQuantity = qty("2")
	aItems[0].ActualQuantity = qty("2")
	bItems[0].OrderedQuantity = qty("3")
	bItems[0].ActualQuantity = qty("3")

	groups := GroupItems([]Order{a, b}, map[uuid.UUID][]OrderItem{
		a.ID: aItems,
		b.ID: bItems,
	})

	if len(groups) != 3 {
		t.Fatalf("expected 3 groups, got %d", len(groups))
	}

	// First-encountered order: Chicken, Beef, Salmon.
	if groups[0].Name != "Chicken" || groups[1].Name != "Beef" || groups[2].Name != "Salmon" {
		t.Fatalf("unexpected group order: %s, %s, %s", groups[0].Name, groups[1].Name, groups[2].Name)
	}

	chicken := groups[0]
	if len(chicken.Instances) != 2 {
		t.Fatalf("expected 2 chicken instances, got %d", len(chicken.Instances))
	}
	if chicken.Instances[0].OrderCode != "ORD-2024-001" || chicken.Instances[1].OrderCode != "ORD-2024-002" {
		t.Fatalf("instances not in orders order: %s, %s",
			chicken.Instances[0].OrderCode, chicken.Instances[1].OrderCode)
	}
	if got := chicken.TotalQuantity(); !got.Equal(qty("5")) {
		t.Fatalf("expected total 5, got %s", got)
	}
}

// Grouping is byte-exact on the name. A one-character difference, trailing
// whitespace or a case change always produces a separate group.
func TestGroupItemsNoFuzzyMatching(t *testing.T) {
	a, aItems := orderWithItems("ORD-2024-001", "Chicken")
	b, bItems := orderWithItems("ORD-2024-002", "chicken", "Chicken ", "Chickem")

	groups := GroupItems([]Order{a, b}, map[uuid.UUID][]OrderItem{
		a.ID: aItems,
		b.ID: bItems,
	})

	if len(groups) != 4 {
		t.Fatalf("expected 4 distinct groups, got %d", len(groups))
	}
	for _, g := range groups {
		if len(g.Instances) != 1 {
			t.Fatalf("group %q unexpectedly merged: %d instances", g.Name, len(g.Instances))
		}
	}
}

func TestGroupTotalQuantityExcludesDenied(t *testing.T) {
	a, aItems := orderWithItems("ORD-2024-001", "Chicken")
	b, bItems := orderWithItems("ORD-2024-002", "Chicken")
	if err := bItems[0].Deny(); err != nil {
		t.Fatal(err)
	}

	groups := GroupItems([]Order{a, b}, map[uuid.UUID][]OrderItem{
		a.ID: aItems,
		b.ID: bItems,
	})
	if len(groups) != 1 {
		t.Fatalf("expected 1 group, got %d", len(groups))
	}
	if got := groups[0].TotalQuantity(); !got.Equal(qty("1")) {
		t.Fatalf("expected 1 (denied excluded), got %s", got)
	}
}

func TestGroupSeedsDisplayAttributesFromFirstItem(t *testing.T) {
	a, aItems := orderWithItems("ORD-2024-001", "Chicken")
	aItems[0].Unit = "kg"
	aItems[0].ImageURL = "https://img.example/chicken.jpg"
	b, bItems := orderWithItems("ORD-2024-002", "Chicken")
	bItems[0].Unit = "lb"
	bItems[0].ImageURL = "https://img.example/other.jpg"

	groups := GroupItems([]Order{a, b}, map[uuid.UUID][]OrderItem{
		a.ID: aItems,
		b.ID: bItems,
	})
	if groups[0].Unit != "kg" || groups[0].ImageURL != "https://img.example/chicken.jpg" {
		t.Fatalf("group not seeded from first-seen item: %s %s", groups[0].Unit, groups[0].ImageURL)
	}
}
