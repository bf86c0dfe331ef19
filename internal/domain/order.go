package domain

import (
	"bytes"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Order statuses. A flat enum, not a pipeline: staff may move an order from
// any status to any other, status is a label for filtering and display.
type Status string

const (
	StatusPending    Status = "pending"
	StatusConfirmed  Status = "confirmed"
	StatusProcessing Status = "processing"
	StatusReady      Status = "ready"
)

// ValidStatus reports whether s is one of the four persistable statuses.
func ValidStatus(s Status) bool {
	switch s {
	case StatusPending, StatusConfirmed, StatusProcessing, StatusReady:
		return true
	}
	return false
}

// Confirmation is the per-item availability decision. The wire format is the
// original nullable boolean (null = pending, true = confirmed, false =
// denied); in code it is an explicit three-variant enum so every switch over
// it is exhaustive.
type Confirmation int

const (
	ConfirmationPending Confirmation = iota
	ConfirmationConfirmed
	ConfirmationDenied
)

func (c Confirmation) String() string {
	switch c {
	case ConfirmationConfirmed:
		return "confirmed"
	case ConfirmationDenied:
		return "denied"
	}
	return "pending"
}

// Decided reports whether a terminal decision has been recorded.
func (c Confirmation) Decided() bool {
	return c != ConfirmationPending
}

var (
	jsonNull  = []byte("null")
	jsonTrue  = []byte("true")
	jsonFalse = []byte("false")
)

// MarshalJSON encodes the tri-state as null / true / false.
func (c Confirmation) MarshalJSON() ([]byte, error) {
	switch c {
	case ConfirmationConfirmed:
		return jsonTrue, nil
	case ConfirmationDenied:
		return jsonFalse, nil
	}
	return jsonNull, nil
}

// UnmarshalJSON decodes null / true / false into the tri-state.
func (c *Confirmation) UnmarshalJSON(data []byte) error {
	switch {
	case bytes.Equal(data, jsonNull):
		*c = ConfirmationPending
	case bytes.Equal(data, jsonTrue):
		*c = ConfirmationConfirmed
	case bytes.Equal(data, jsonFalse):
		*c = ConfirmationDenied
	default:
		return fmt.Errorf("invalid confirmation value %q", data)
	}
	return nil
}

// ConfirmationFromBool converts the nullable-boolean column value.
func ConfirmationFromBool(b *bool) Confirmation {
	switch {
	case b == nil:
		return ConfirmationPending
	case *b:
		return ConfirmationConfirmed
	}
	return ConfirmationDenied
}

// Bool converts back to the nullable-boolean column value.
func (c Confirmation) Bool() *bool {
	switch c {
	case ConfirmationConfirmed:
		t := true
		return &t
	case ConfirmationDenied:
		f := false
		return &f
	}
	return nil
}

// Order is a customer purchase request scheduled for a delivery date.
// TotalAmount and ItemCount are derived from the order's items on read and
// are never a source of truth on their own.
type Order struct {
	ID            uuid.UUID
	OrderCode     string
	CustomerName  string
	CustomerEmail string
	Status        Status
	TotalAmount   decimal.Decimal
	ItemCount     int
	OrderPlacedAt time.Time
	DeliveryDate  time.Time
	StoreID       uuid.UUID
}

// SameDeliveryDay reports whether the order is due on the given calendar day.
// Delivery dates carry no meaningful time component.
func (o Order) SameDeliveryDay(day time.Time) bool {
	y1, m1, d1 := o.DeliveryDate.Date()
	y2, m2, d2 := day.Date()
	return y1 == y2 && m1 == m2 && d1 == d2
}

// OrderItem is one product line within an order. OrderedQuantity is the
// customer's original request and never changes after creation;
// ActualQuantity is what the vendor can actually fulfil.
type OrderItem struct {
	ID              uuid.UUID
	OrderID         uuid.UUID
	Name            string
	SKU             string
	Unit            string
	ImageURL        string
	Price           decimal.Decimal
	OrderedQuantity decimal.Decimal
	ActualQuantity  decimal.Decimal
	Confirmed       Confirmation
}

// EventKind classifies a push-feed change.
type EventKind string

const (
	EventInsert EventKind = "insert"
	EventUpdate EventKind = "update"
	EventDelete EventKind = "delete"
)

// Event is one row-level change to the orders table. The working set folds
// these into its in-memory collection by order identity.
type Event struct {
	Kind  EventKind
	Order Order
}
