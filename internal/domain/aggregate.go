package domain

import "github.com/shopspring/decimal"

// OrderTotal is the live "what we will deliver and charge for" figure:
// the sum of actualQuantity * price over every item that has not been denied.
// Pending and confirmed items both count, at their current actual quantity.
func OrderTotal(items []OrderItem) decimal.Decimal {
	total := decimal.Zero
	for _, it := range items {
		if it.Confirmed == ConfirmationDenied {
			continue
		}
		total = total.Add(it.ActualQuantity.Mul(it.Price))
	}
	return total
}

// CountConfirmed returns the number of items with a confirmed decision.
func CountConfirmed(items []OrderItem) int {
	n := 0
	for _, it := range items {
		if it.Confirmed == ConfirmationConfirmed {
			n++
		}
	}
	return n
}

// CountDenied returns the number of denied items.
func CountDenied(items []OrderItem) int {
	n := 0
	for _, it := range items {
		if it.Confirmed == ConfirmationDenied {
			n++
		}
	}
	return n
}
