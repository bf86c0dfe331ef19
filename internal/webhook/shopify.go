// Package webhook ingests orders pushed by the commerce platform and maps
// them into the dashboard's order model.
package webhook

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"io"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/bencevas/orderboard/internal/domain"
	"github.com/bencevas/orderboard/internal/logger"
)

// OrderCreator is the single store method webhook ingestion needs.
type OrderCreator interface {
	CreateOrder(ctx context.Context, order domain.Order, items []domain.OrderItem) (domain.Order, error)
}

// ShopifyHandler receives Shopify order webhooks.
type ShopifyHandler struct {
	store  OrderCreator
	secret string
	now    func() time.Time
}

// NewShopifyHandler creates a webhook handler. An empty secret disables
// signature verification (local development).
func NewShopifyHandler(store OrderCreator, secret string) *ShopifyHandler {
	return &ShopifyHandler{store: store, secret: secret, now: time.Now}
}

// RegisterRoutes registers webhook endpoints on the given Chi router.
// Mounted at /webhooks/shopify.
func (h *ShopifyHandler) RegisterRoutes(r chi.Router) {
	r.Post("/orders", h.OrderCreated)
}

// shopifyOrder is the subset of the Shopify order payload the dashboard
// consumes.
type shopifyOrder struct {
	Name           string                 `json:"name"`
	Email          string                 `json:"email"`
	CreatedAt      string                 `json:"created_at"`
	Customer       shopifyCustomer        `json:"customer"`
	NoteAttributes []shopifyNoteAttribute `json:"note_attributes"`
	LineItems      []shopifyLineItem      `json:"line_items"`
}

type shopifyCustomer struct {
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
}

type shopifyNoteAttribute struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

type shopifyLineItem struct {
	Title    string          `json:"title"`
	SKU      string          `json:"sku"`
	Quantity decimal.Decimal `json:"quantity"`
	Price    decimal.Decimal `json:"price"`
}

// OrderCreated handles POST /webhooks/shopify/orders.
func (h *ShopifyHandler) OrderCreated(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, 1<<20))
	if err != nil {
		http.Error(w, "cannot read body", http.StatusBadRequest)
		return
	}

	if h.secret != "" && !verifySignature(h.secret, body, r.Header.Get("X-Shopify-Hmac-Sha256")) {
		logger.L().Warn("shopify webhook signature mismatch")
		http.Error(w, "invalid signature", http.StatusUnauthorized)
		return
	}

	var payload shopifyOrder
	if err := json.Unmarshal(body, &payload); err != nil {
		http.Error(w, "invalid payload", http.StatusBadRequest)
		return
	}

	order, items := MapOrder(payload, h.now())
	created, err := h.store.CreateOrder(r.Context(), order, items)
	if err != nil {
		logger.L().Error("webhook order ingest failed",
			zap.String("order_code", order.OrderCode), zap.Error(err))
		http.Error(w, "ingest failed", http.StatusInternalServerError)
		return
	}

	logger.L().Info("webhook order ingested",
		zap.String("order_code", created.OrderCode),
		zap.Int("items", len(items)))

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]interface{}{
		"success":  true,
		"order_id": created.ID,
	})
}

// MapOrder converts a Shopify order payload into a pending dashboard order.
// The delivery date comes from the "delivery_date" note attribute; orders
// without one default to next-day delivery. Actual quantities start equal to
// the ordered quantities, every item undecided.
func MapOrder(src shopifyOrder, now time.Time) (domain.Order, []domain.OrderItem) {
	order := domain.Order{
		OrderCode:     src.Name,
		CustomerName:  customerName(src.Customer),
		CustomerEmail: src.Email,
		Status:        domain.StatusPending,
		OrderPlacedAt: now,
		DeliveryDate:  deliveryDate(src.NoteAttributes, now),
	}
	if t, err := time.Parse(time.RFC3339, src.CreatedAt); err == nil {
		order.OrderPlacedAt = t
	}

	items := make([]domain.OrderItem, len(src.LineItems))
	for i, li := range src.LineItems {
		items[i] = domain.OrderItem{
			Name:            li.Title,
			SKU:             li.SKU,
			Unit:            "kg",
			Price:           li.Price,
			OrderedQuantity: li.Quantity,
			ActualQuantity:  li.Quantity,
			Confirmed:       domain.ConfirmationPending,
		}
	}
	return order, items
}

func customerName(c shopifyCustomer) string {
	switch {
	case c.FirstName == "":
		return c.LastName
	case c.LastName == "":
		return c.FirstName
	default:
		return c.FirstName + " " + c.LastName
	}
}

func deliveryDate(attrs []shopifyNoteAttribute, now time.Time) time.Time {
	for _, a := range attrs {
		if a.Name != "delivery_date" {
			continue
		}
		if t, err := time.Parse("2006-01-02", a.Value); err == nil {
			return t
		}
	}
	return now.AddDate(0, 0, 1).Truncate(24 * time.Hour)
}

func verifySignature(secret string, body []byte, header string) bool {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(body)
	want := base64.StdEncoding.EncodeToString(mac.Sum(nil))
	return hmac.Equal([]byte(want), []byte(header))
}
