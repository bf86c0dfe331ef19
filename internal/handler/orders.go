package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/bencevas/orderboard/internal/domain"
	"github.com/bencevas/orderboard/internal/store"
)

// OrderStore defines the store methods needed by order handlers.
// Satisfied by store.Memory and store.Postgres; narrow interface for testability.
type OrderStore interface {
	ListOrders(ctx context.Context, from, to time.Time) ([]domain.Order, error)
	GetOrder(ctx context.Context, orderID uuid.UUID) (domain.Order, error)
	ListItems(ctx context.Context, orderID uuid.UUID) ([]domain.OrderItem, error)
	WriteItem(ctx context.Context, orderID, itemID uuid.UUID, patch store.ItemPatch) (domain.OrderItem, error)
	WriteOrderStatus(ctx context.Context, orderID uuid.UUID, status domain.Status) (domain.Order, error)
}

// OrderHandler handles order endpoints.
type OrderHandler struct {
	store OrderStore
}

// NewOrderHandler creates a new OrderHandler.
func NewOrderHandler(store OrderStore) *OrderHandler {
	return &OrderHandler{store: store}
}

// RegisterRoutes registers order endpoints on the given Chi router.
// Mounted at /api/orders.
func (h *OrderHandler) RegisterRoutes(r chi.Router) {
	r.Get("/", h.List)
	r.Get("/{id}", h.Get)
	r.Get("/{id}/items", h.ListItems)
	r.Patch("/{id}", h.BulkSave)
	r.Patch("/{id}/status", h.UpdateStatus)
	r.Patch("/{id}/items/{item_id}", h.UpdateItemQuantity)
	r.Patch("/{id}/items/{item_id}/confirm", h.ConfirmItem)
}

// --- Request / Response types ---

type orderResponse struct {
	ID            uuid.UUID `json:"id"`
	OrderCode     string    `json:"order_code"`
	CustomerName  string    `json:"customer_name"`
	CustomerEmail string    `json:"customer_email,omitempty"`
	Status        string    `json:"status"`
	TotalAmount   string    `json:"total_amount"`
	ItemCount     int       `json:"item_count"`
	OrderPlacedAt time.Time `json:"order_placed_at"`
	DeliveryDate  string    `json:"delivery_date"`
}

type orderItemResponse struct {
	ID              uuid.UUID `json:"id"`
	OrderID         uuid.UUID `json:"order_id"`
	Name            string    `json:"name"`
	SKU             string    `json:"sku,omitempty"`
	Unit            string    `json:"unit"`
	ImageURL        string    `json:"image_url,omitempty"`
	Price           string    `json:"price"`
	OrderedQuantity string    `json:"ordered_quantity"`
	ActualQuantity  string    `json:"actual_quantity"`
	Confirmed       *bool     `json:"confirmed"`
}

type orderListResponse struct {
	Orders []orderResponse `json:"orders"`
}

type orderItemListResponse struct {
	Items []orderItemResponse `json:"items"`
}

type updateStatusRequest struct {
	Status string `json:"status"`
}

type updateItemRequest struct {
	ActualQuantity *decimal.Decimal `json:"actual_quantity"`
}

type confirmItemRequest struct {
	Confirmed      *bool            `json:"confirmed"`
	ActualQuantity *decimal.Decimal `json:"actual_quantity"`
}

type bulkSaveItemRequest struct {
	ID             uuid.UUID        `json:"id"`
	ActualQuantity *decimal.Decimal `json:"actual_quantity"`
	Confirmed      *bool            `json:"confirmed"`
	confirmedSet   bool
}

// UnmarshalJSON distinguishes an absent "confirmed" from an explicit null:
// null means pending, absence means leave the decision untouched.
func (r *bulkSaveItemRequest) UnmarshalJSON(data []byte) error {
	type alias bulkSaveItemRequest
	var a alias
	if err := json.Unmarshal(data, &a); err != nil {
		return err
	}
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	*r = bulkSaveItemRequest(a)
	_, r.confirmedSet = raw["confirmed"]
	return nil
}

type bulkSaveRequest struct {
	Status string                `json:"status"`
	Items  []bulkSaveItemRequest `json:"items"`
}

type bulkSaveResponse struct {
	Order orderResponse       `json:"order"`
	Items []orderItemResponse `json:"items"`
}

// --- Handlers ---

// List handles GET /api/orders?start_date=YYYY-MM-DD&end_date=YYYY-MM-DD.
// Both bounds are optional; an omitted bound leaves that side open. RFC3339
// timestamps are accepted too.
func (h *OrderHandler) List(w http.ResponseWriter, r *http.Request) {
	var from, to time.Time
	if s := r.URL.Query().Get("start_date"); s != "" {
		t, err := parseDate(s)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid start_date format, use YYYY-MM-DD")
			return
		}
		from = t
	}
	if s := r.URL.Query().Get("end_date"); s != "" {
		t, err := parseDate(s)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid end_date format, use YYYY-MM-DD")
			return
		}
		to = t
	}

	orders, err := h.store.ListOrders(r.Context(), from, to)
	if err != nil {
		writeStoreError(w, "list orders", err)
		return
	}

	resp := make([]orderResponse, len(orders))
	for i, o := range orders {
		resp[i] = toOrderResponse(o)
	}
	writeJSON(w, http.StatusOK, orderListResponse{Orders: resp})
}

// Get handles GET /api/orders/{id}.
func (h *OrderHandler) Get(w http.ResponseWriter, r *http.Request) {
	orderID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid order ID")
		return
	}

	order, err := h.store.GetOrder(r.Context(), orderID)
	if err != nil {
		writeStoreError(w, "get order", err)
		return
	}
	writeJSON(w, http.StatusOK, toOrderResponse(order))
}

// ListItems handles GET /api/orders/{id}/items.
func (h *OrderHandler) ListItems(w http.ResponseWriter, r *http.Request) {
	orderID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid order ID")
		return
	}

	if _, err := h.store.GetOrder(r.Context(), orderID); err != nil {
		writeStoreError(w, "get order for items", err)
		return
	}
	items, err := h.store.ListItems(r.Context(), orderID)
	if err != nil {
		writeStoreError(w, "list items", err)
		return
	}

	resp := make([]orderItemResponse, len(items))
	for i, it := range items {
		resp[i] = toOrderItemResponse(it)
	}
	writeJSON(w, http.StatusOK, orderItemListResponse{Items: resp})
}

// UpdateStatus handles PATCH /api/orders/{id}/status.
func (h *OrderHandler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	orderID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid order ID")
		return
	}

	var req updateStatusRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Status == "" {
		writeError(w, http.StatusBadRequest, "status is required")
		return
	}
	if !domain.ValidStatus(domain.Status(req.Status)) {
		writeError(w, http.StatusBadRequest, "invalid status")
		return
	}

	order, err := h.store.WriteOrderStatus(r.Context(), orderID, domain.Status(req.Status))
	if err != nil {
		writeStoreError(w, "update order status", err)
		return
	}
	writeJSON(w, http.StatusOK, toOrderResponse(order))
}

// UpdateItemQuantity handles PATCH /api/orders/{id}/items/{item_id}.
// Quantity edits are only valid while the item is pending.
func (h *OrderHandler) UpdateItemQuantity(w http.ResponseWriter, r *http.Request) {
	orderID, itemID, ok := parseItemPath(w, r)
	if !ok {
		return
	}

	var req updateItemRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.ActualQuantity == nil {
		writeError(w, http.StatusBadRequest, "actual_quantity is required")
		return
	}

	item, err := h.store.WriteItem(r.Context(), orderID, itemID, store.ItemPatch{
		ActualQuantity: req.ActualQuantity,
	})
	if err != nil {
		writeStoreError(w, "update item quantity", err)
		return
	}
	writeJSON(w, http.StatusOK, toOrderItemResponse(item))
}

// ConfirmItem handles PATCH /api/orders/{id}/items/{item_id}/confirm.
// The body carries "confirmed": true, false, or null for pending, plus an
// optional "actual_quantity" so a confirm can lock in the adjusted quantity
// in the same write.
func (h *OrderHandler) ConfirmItem(w http.ResponseWriter, r *http.Request) {
	orderID, itemID, ok := parseItemPath(w, r)
	if !ok {
		return
	}

	var req confirmItemRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	c := domain.ConfirmationFromBool(req.Confirmed)
	item, err := h.store.WriteItem(r.Context(), orderID, itemID, store.ItemPatch{
		ActualQuantity: req.ActualQuantity,
		Confirmed:      &c,
	})
	if err != nil {
		writeStoreError(w, "confirm item", err)
		return
	}
	writeJSON(w, http.StatusOK, toOrderItemResponse(item))
}

// BulkSave handles PATCH /api/orders/{id}: one request carrying the order's
// buffered edits, the status plus any number of item updates. Writes are
// applied item by item; the response reflects the final stored state.
func (h *OrderHandler) BulkSave(w http.ResponseWriter, r *http.Request) {
	orderID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid order ID")
		return
	}

	var req bulkSaveRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Status == "" && len(req.Items) == 0 {
		writeError(w, http.StatusBadRequest, "nothing to save")
		return
	}
	if req.Status != "" && !domain.ValidStatus(domain.Status(req.Status)) {
		writeError(w, http.StatusBadRequest, "invalid status")
		return
	}

	if req.Status != "" {
		if _, err := h.store.WriteOrderStatus(r.Context(), orderID, domain.Status(req.Status)); err != nil {
			writeStoreError(w, "bulk save status", err)
			return
		}
	}

	for _, it := range req.Items {
		patch := store.ItemPatch{ActualQuantity: it.ActualQuantity}
		if it.confirmedSet {
			c := domain.ConfirmationFromBool(it.Confirmed)
			patch.Confirmed = &c
		}
		if _, err := h.store.WriteItem(r.Context(), orderID, it.ID, patch); err != nil {
			writeStoreError(w, "bulk save item", err)
			return
		}
	}

	order, err := h.store.GetOrder(r.Context(), orderID)
	if err != nil {
		writeStoreError(w, "bulk save reload order", err)
		return
	}
	items, err := h.store.ListItems(r.Context(), orderID)
	if err != nil {
		writeStoreError(w, "bulk save reload items", err)
		return
	}

	itemResp := make([]orderItemResponse, len(items))
	for i, it := range items {
		itemResp[i] = toOrderItemResponse(it)
	}
	writeJSON(w, http.StatusOK, bulkSaveResponse{
		Order: toOrderResponse(order),
		Items: itemResp,
	})
}

// --- Helpers ---

func parseDate(s string) (time.Time, error) {
	if t, err := time.Parse("2006-01-02", s); err == nil {
		return t, nil
	}
	return time.Parse(time.RFC3339, s)
}

func parseItemPath(w http.ResponseWriter, r *http.Request) (orderID, itemID uuid.UUID, ok bool) {
	orderID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid order ID")
		return uuid.Nil, uuid.Nil, false
	}
	itemID, err = uuid.Parse(chi.URLParam(r, "item_id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid item ID")
		return uuid.Nil, uuid.Nil, false
	}
	return orderID, itemID, true
}

func toOrderResponse(o domain.Order) orderResponse {
	return orderResponse{
		ID:            o.ID,
		OrderCode:     o.OrderCode,
		CustomerName:  o.CustomerName,
		CustomerEmail: o.CustomerEmail,
		Status:        string(o.Status),
		TotalAmount:   o.TotalAmount.StringFixed(2),
		ItemCount:     o.ItemCount,
		OrderPlacedAt: o.OrderPlacedAt,
		DeliveryDate:  o.DeliveryDate.Format("2006-01-02"),
	}
}

func toOrderItemResponse(it domain.OrderItem) orderItemResponse {
	return orderItemResponse{
		ID:              it.ID,
		OrderID:         it.OrderID,
		Name:            it.Name,
		SKU:             it.SKU,
		Unit:            it.Unit,
		ImageURL:        it.ImageURL,
		Price:           it.Price.StringFixed(2),
		OrderedQuantity: it.OrderedQuantity.String(),
		ActualQuantity:  it.ActualQuantity.String(),
		Confirmed:       it.Confirmed.Bool(),
	}
}
