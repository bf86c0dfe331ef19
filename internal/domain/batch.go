package domain

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// BatchInstance is one (order, item) occurrence of a product inside a batch
// group. It is a projection for display; mutations route back through the
// (OrderID, ItemID) pair into the owning OrderItem.
type BatchInstance struct {
	OrderID         uuid.UUID
	ItemID          uuid.UUID
	OrderCode       string
	CustomerName    string
	OrderedQuantity decimal.Decimal
	ActualQuantity  decimal.Decimal
	Price           decimal.Decimal
	Confirmed       Confirmation
}

// BatchGroup collects every in-scope item sharing one product name, across
// orders, for bulk preparation. Derived, never persisted.
type BatchGroup struct {
	Name      string
	Unit      string
	ImageURL  string
	Instances []BatchInstance
}

// TotalQuantity sums the actual quantities of all instances that have not
// been denied. Mirrors the order-level total exclusion rule.
func (g BatchGroup) TotalQuantity() decimal.Decimal {
	total := decimal.Zero
	for _, inst := range g.Instances {
		if inst.Confirmed == ConfirmationDenied {
			continue
		}
		total = total.Add(inst.ActualQuantity)
	}
	return total
}

// GroupItems builds the batch view for the given working set. Items are
// grouped by exact product name: no case folding, no whitespace trimming, two
// products group together only when their names are byte-identical. Groups
// appear in first-encountered order; instances within a group follow the
// orders slice, then each order's item order. The group's unit and image come
// from the first item seen.
func GroupItems(orders []Order, itemsByOrder map[uuid.UUID][]OrderItem) []BatchGroup {
	var groups []BatchGroup
	index := make(map[string]int)

	for _, o := range orders {
		for _, it := range itemsByOrder[o.ID] {
			inst := BatchInstance{
				OrderID:         o.ID,
				ItemID:          it.ID,
				OrderCode:       o.OrderCode,
				CustomerName:    o.CustomerName,
				OrderedQuantity: it.OrderedQuantity,
				ActualQuantity:  it.ActualQuantity,
				Price:           it.Price,
				Confirmed:       it.Confirmed,
			}
			if i, ok := index[it.Name]; ok {
				groups[i].Instances = append(groups[i].Instances, inst)
				continue
			}
			index[it.Name] = len(groups)
			groups = append(groups, BatchGroup{
				Name:      it.Name,
				Unit:      it.Unit,
				ImageURL:  it.ImageURL,
				Instances: []BatchInstance{inst},
			})
		}
	}
	return groups
}
