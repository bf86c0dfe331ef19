package store

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/bencevas/orderboard/internal/domain"
)

// SeedOrder is one order of the demo dataset, ready to create.
type SeedOrder struct {
	Order domain.Order
	Items []domain.OrderItem
}

// demoProduct is one line of the demo catalogue.
type demoProduct struct {
	name  string
	price string
	image string
}

var demoCatalogue = []demoProduct{
	{"Organic Chicken Breast", "12.99", "https://img.orderboard.dev/chicken-breast.jpg"},
	{"Fresh Salmon Fillet", "24.99", "https://img.orderboard.dev/salmon-fillet.jpg"},
	{"Ground Beef", "15.50", "https://img.orderboard.dev/ground-beef.jpg"},
	{"Ribeye Steak", "28.99", "https://img.orderboard.dev/ribeye-steak.jpg"},
	{"Pork Tenderloin", "16.99", "https://img.orderboard.dev/pork-tenderloin.jpg"},
	{"Lamb Chops", "32.00", "https://img.orderboard.dev/lamb-chops.jpg"},
	{"Turkey Breast", "14.50", "https://img.orderboard.dev/turkey-breast.jpg"},
	{"Duck Breast", "22.00", "https://img.orderboard.dev/duck-breast.jpg"},
}

// demoOrder describes one seeded order: customer, delivery-day offset from
// today, status, and (catalogue name, ordered quantity) pairs.
type demoOrder struct {
	code     string
	customer string
	dayOff   int
	status   domain.Status
	lines    [][2]string
}

var demoOrders = []demoOrder{
	{"ORD-2024-001", "John Smith", 0, domain.StatusPending, [][2]string{
		{"Organic Chicken Breast", "2"}, {"Fresh Salmon Fillet", "1.5"}, {"Ground Beef", "1"},
	}},
	{"ORD-2024-002", "Emma Johnson", 0, domain.StatusConfirmed, [][2]string{
		{"Ribeye Steak", "2"}, {"Pork Tenderloin", "1.5"}, {"Lamb Chops", "1"},
		{"Turkey Breast", "2.5"}, {"Duck Breast", "0.8"},
	}},
	{"ORD-2024-003", "Michael Brown", 0, domain.StatusProcessing, [][2]string{
		{"Organic Chicken Breast", "2.5"}, {"Fresh Salmon Fillet", "1"},
	}},
	{"ORD-2024-004", "Sarah Davis", 1, domain.StatusConfirmed, [][2]string{
		{"Ribeye Steak", "3"}, {"Ground Beef", "2"}, {"Pork Tenderloin", "1.5"},
		{"Lamb Chops", "2"}, {"Turkey Breast", "1"}, {"Duck Breast", "1.2"},
		{"Organic Chicken Breast", "2"},
	}},
	{"ORD-2024-005", "David Wilson", 1, domain.StatusPending, [][2]string{
		{"Fresh Salmon Fillet", "1"},
	}},
	{"ORD-2024-006", "Jessica Martinez", 2, domain.StatusConfirmed, [][2]string{
		{"Ribeye Steak", "2"}, {"Ground Beef", "1"}, {"Pork Tenderloin", "1"},
		{"Organic Chicken Breast", "1.5"},
	}},
	{"ORD-2024-007", "Robert Taylor", 2, domain.StatusReady, [][2]string{
		{"Lamb Chops", "3"}, {"Turkey Breast", "2"}, {"Duck Breast", "1"},
		{"Ribeye Steak", "2.5"}, {"Ground Beef", "1.5"}, {"Fresh Salmon Fillet", "1"},
	}},
	{"ORD-2024-008", "Amanda Anderson", 2, domain.StatusProcessing, [][2]string{
		{"Pork Tenderloin", "2"}, {"Organic Chicken Breast", "1"}, {"Lamb Chops", "1.5"},
	}},
	{"ORD-2024-009", "Christopher Lee", 3, domain.StatusConfirmed, [][2]string{
		{"Ribeye Steak", "4"}, {"Ground Beef", "2"}, {"Pork Tenderloin", "1.5"},
		{"Lamb Chops", "2"}, {"Turkey Breast", "1.5"}, {"Duck Breast", "1"},
		{"Organic Chicken Breast", "2"}, {"Fresh Salmon Fillet", "1.5"},
	}},
	{"ORD-2024-010", "Michelle White", 3, domain.StatusPending, [][2]string{
		{"Ground Beef", "1"}, {"Organic Chicken Breast", "1"},
	}},
	{"ORD-2024-011", "James Harris", 4, domain.StatusConfirmed, [][2]string{
		{"Ribeye Steak", "3"}, {"Ground Beef", "1.5"}, {"Pork Tenderloin", "1"},
		{"Lamb Chops", "1.5"}, {"Turkey Breast", "1"},
	}},
	{"ORD-2024-012", "Lisa Thompson", 4, domain.StatusPending, [][2]string{
		{"Duck Breast", "1"}, {"Organic Chicken Breast", "1"}, {"Fresh Salmon Fillet", "1"},
	}},
	{"ORD-2024-013", "Daniel Garcia", 4, domain.StatusReady, [][2]string{
		{"Ribeye Steak", "2"}, {"Ground Beef", "1"}, {"Pork Tenderloin", "1"}, {"Lamb Chops", "1"},
	}},
}

// DemoDataset builds the demo orders with delivery dates relative to now.
// Used by the in-memory store at startup and by the seed command against
// Postgres.
func DemoDataset(now time.Time) []SeedOrder {
	catalogue := make(map[string]demoProduct, len(demoCatalogue))
	for _, p := range demoCatalogue {
		catalogue[p.name] = p
	}

	day := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	out := make([]SeedOrder, len(demoOrders))
	for n, d := range demoOrders {
		items := make([]domain.OrderItem, len(d.lines))
		for i, line := range d.lines {
			p := catalogue[line[0]]
			q := decimal.RequireFromString(line[1])
			items[i] = domain.OrderItem{
				Name:            p.name,
				Unit:            "kg",
				ImageURL:        p.image,
				Price:           decimal.RequireFromString(p.price),
				OrderedQuantity: q,
				ActualQuantity:  q,
				Confirmed:       domain.ConfirmationPending,
			}
		}
		out[n] = SeedOrder{
			Order: domain.Order{
				OrderCode:     d.code,
				CustomerName:  d.customer,
				Status:        d.status,
				OrderPlacedAt: day.AddDate(0, 0, d.dayOff-2),
				DeliveryDate:  day.AddDate(0, 0, d.dayOff),
			},
			Items: items,
		}
	}
	return out
}
