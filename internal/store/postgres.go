package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/bencevas/orderboard/internal/domain"
)

// Postgres is the hosted backend. Totals and item counts are computed in SQL
// on every read; only the raw rows are stored.
type Postgres struct {
	pool   *pgxpool.Pool
	notify Notifier
}

// NewPostgres wraps an existing connection pool.
func NewPostgres(pool *pgxpool.Pool) *Postgres {
	return &Postgres{pool: pool}
}

// SetNotifier installs the change-event sink. Pass nil to disable.
func (p *Postgres) SetNotifier(n Notifier) {
	p.notify = n
}

func (p *Postgres) emit(ev domain.Event) {
	if p.notify != nil {
		p.notify(ev)
	}
}

// orderColumns selects an order row plus its derived total and item count.
const orderColumns = `
	o.id, o.order_code, o.customer_name, o.customer_email, o.status,
	o.order_placed_at, o.delivery_date, o.store_id,
	COALESCE((
		SELECT SUM(i.actual_quantity * i.price)
		FROM order_items i
		WHERE i.order_id = o.id AND i.confirmed IS DISTINCT FROM false
	), 0) AS total_amount,
	(SELECT COUNT(*) FROM order_items i WHERE i.order_id = o.id) AS item_count
`

func scanOrder(row pgx.Row) (domain.Order, error) {
	var (
		o        domain.Order
		email    pgtype.Text
		storeID  pgtype.UUID
		placedAt pgtype.Timestamptz
		total    pgtype.Numeric
	)
	err := row.Scan(&o.ID, &o.OrderCode, &o.CustomerName, &email, &o.Status,
		&placedAt, &o.DeliveryDate, &storeID, &total, &o.ItemCount)
	if err != nil {
		return domain.Order{}, err
	}
	if email.Valid {
		o.CustomerEmail = email.String
	}
	if storeID.Valid {
		o.StoreID = storeID.Bytes
	}
	if placedAt.Valid {
		o.OrderPlacedAt = placedAt.Time
	}
	o.TotalAmount = numericToDecimal(total)
	return o, nil
}

// ListOrders implements Store.
func (p *Postgres) ListOrders(ctx context.Context, from, to time.Time) ([]domain.Order, error) {
	q := `SELECT ` + orderColumns + ` FROM orders o WHERE 1=1`
	args := []any{}
	if !from.IsZero() {
		args = append(args, from)
		q += fmt.Sprintf(" AND o.delivery_date >= $%d", len(args))
	}
	if !to.IsZero() {
		args = append(args, to)
		q += fmt.Sprintf(" AND o.delivery_date <= $%d", len(args))
	}
	q += " ORDER BY o.delivery_date, o.order_code"

	rows, err := p.pool.Query(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("list orders: %w", err)
	}
	defer rows.Close()

	var orders []domain.Order
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			return nil, fmt.Errorf("scan order: %w", err)
		}
		orders = append(orders, o)
	}
	return orders, rows.Err()
}

// GetOrder implements Store.
func (p *Postgres) GetOrder(ctx context.Context, orderID uuid.UUID) (domain.Order, error) {
	row := p.pool.QueryRow(ctx, `SELECT `+orderColumns+` FROM orders o WHERE o.id = $1`, orderID)
	o, err := scanOrder(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.Order{}, ErrOrderNotFound
	}
	if err != nil {
		return domain.Order{}, fmt.Errorf("get order: %w", err)
	}
	return o, nil
}

const itemColumns = `
	id, order_id, product_name, product_sku, unit, image_url,
	price, ordered_quantity, actual_quantity, confirmed
`

func scanItem(row pgx.Row) (domain.OrderItem, error) {
	var (
		it                     domain.OrderItem
		sku, imageURL          pgtype.Text
		price, ordered, actual pgtype.Numeric
		confirmed              pgtype.Bool
	)
	err := row.Scan(&it.ID, &it.OrderID, &it.Name, &sku, &it.Unit, &imageURL,
		&price, &ordered, &actual, &confirmed)
	if err != nil {
		return domain.OrderItem{}, err
	}
	if sku.Valid {
		it.SKU = sku.String
	}
	if imageURL.Valid {
		it.ImageURL = imageURL.String
	}
	it.Price = numericToDecimal(price)
	it.OrderedQuantity = numericToDecimal(ordered)
	it.ActualQuantity = numericToDecimal(actual)
	if confirmed.Valid {
		it.Confirmed = domain.ConfirmationFromBool(&confirmed.Bool)
	} else {
		it.Confirmed = domain.ConfirmationPending
	}
	return it, nil
}

// ListItems implements Store.
func (p *Postgres) ListItems(ctx context.Context, orderID uuid.UUID) ([]domain.OrderItem, error) {
	var exists bool
	if err := p.pool.QueryRow(ctx, `SELECT EXISTS(SELECT 1 FROM orders WHERE id = $1)`, orderID).Scan(&exists); err != nil {
		return nil, fmt.Errorf("check order: %w", err)
	}
	if !exists {
		return nil, ErrOrderNotFound
	}

	rows, err := p.pool.Query(ctx,
		`SELECT `+itemColumns+` FROM order_items WHERE order_id = $1 ORDER BY created_at, id`, orderID)
	if err != nil {
		return nil, fmt.Errorf("list items: %w", err)
	}
	defer rows.Close()

	var items []domain.OrderItem
	for rows.Next() {
		it, err := scanItem(rows)
		if err != nil {
			return nil, fmt.Errorf("scan item: %w", err)
		}
		items = append(items, it)
	}
	return items, rows.Err()
}

// WriteItem implements Store. The current row is read inside the transaction
// so the decided-item guard holds against concurrent deciders; beyond that
// there is deliberately no version token, last write wins.
func (p *Postgres) WriteItem(ctx context.Context, orderID, itemID uuid.UUID, patch ItemPatch) (domain.OrderItem, error) {
	if err := validatePatch(patch); err != nil {
		return domain.OrderItem{}, err
	}

	tx, err := p.pool.Begin(ctx)
	if err != nil {
		return domain.OrderItem{}, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	row := tx.QueryRow(ctx,
		`SELECT `+itemColumns+` FROM order_items WHERE id = $1 AND order_id = $2 FOR UPDATE`,
		itemID, orderID)
	it, err := scanItem(row)
	if errors.Is(err, pgx.ErrNoRows) {
		if _, getErr := p.GetOrder(ctx, orderID); errors.Is(getErr, ErrOrderNotFound) {
			return domain.OrderItem{}, ErrOrderNotFound
		}
		return domain.OrderItem{}, ErrItemNotFound
	}
	if err != nil {
		return domain.OrderItem{}, fmt.Errorf("read item: %w", err)
	}

	if it.Confirmed.Decided() && !patchAllowedOnDecided(patch) {
		return domain.OrderItem{}, ErrItemDecided
	}

	if patch.ActualQuantity != nil {
		it.ActualQuantity = *patch.ActualQuantity
	}
	if patch.Confirmed != nil {
		it.Confirmed = *patch.Confirmed
	}

	_, err = tx.Exec(ctx,
		`UPDATE order_items SET actual_quantity = $1, confirmed = $2 WHERE id = $3`,
		decimalToNumeric(it.ActualQuantity), it.Confirmed.Bool(), itemID)
	if err != nil {
		return domain.OrderItem{}, fmt.Errorf("update item: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return domain.OrderItem{}, fmt.Errorf("commit tx: %w", err)
	}

	if o, err := p.GetOrder(ctx, orderID); err == nil {
		p.emit(domain.Event{Kind: domain.EventUpdate, Order: o})
	}
	return it, nil
}

// WriteOrderStatus implements Store.
func (p *Postgres) WriteOrderStatus(ctx context.Context, orderID uuid.UUID, status domain.Status) (domain.Order, error) {
	if !domain.ValidStatus(status) {
		return domain.Order{}, ErrInvalidStatus
	}

	tag, err := p.pool.Exec(ctx, `UPDATE orders SET status = $1 WHERE id = $2`, string(status), orderID)
	if err != nil {
		return domain.Order{}, fmt.Errorf("update status: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.Order{}, ErrOrderNotFound
	}

	o, err := p.GetOrder(ctx, orderID)
	if err != nil {
		return domain.Order{}, err
	}
	p.emit(domain.Event{Kind: domain.EventUpdate, Order: o})
	return o, nil
}

// CreateOrder implements Store.
func (p *Postgres) CreateOrder(ctx context.Context, order domain.Order, items []domain.OrderItem) (domain.Order, error) {
	if order.ID == uuid.Nil {
		order.ID = uuid.New()
	}
	if order.Status == "" {
		order.Status = domain.StatusPending
	}
	if !domain.ValidStatus(order.Status) {
		return domain.Order{}, ErrInvalidStatus
	}

	tx, err := p.pool.Begin(ctx)
	if err != nil {
		return domain.Order{}, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	_, err = tx.Exec(ctx, `
		INSERT INTO orders (id, order_code, customer_name, customer_email, status,
			order_placed_at, delivery_date, store_id)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		order.ID, order.OrderCode, order.CustomerName, textOrNull(order.CustomerEmail),
		string(order.Status), timestampOrNow(order.OrderPlacedAt), order.DeliveryDate,
		uuidOrNull(order.StoreID))
	if err != nil {
		return domain.Order{}, fmt.Errorf("insert order: %w", err)
	}

	for i, it := range items {
		if it.ID == uuid.Nil {
			it.ID = uuid.New()
		}
		if it.ActualQuantity.IsZero() && !it.OrderedQuantity.IsZero() {
			it.ActualQuantity = it.OrderedQuantity
		}
		_, err = tx.Exec(ctx, `
			INSERT INTO order_items (id, order_id, product_name, product_sku, unit,
				image_url, price, ordered_quantity, actual_quantity, confirmed)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
			it.ID, order.ID, it.Name, textOrNull(it.SKU), it.Unit, textOrNull(it.ImageURL),
			decimalToNumeric(it.Price), decimalToNumeric(it.OrderedQuantity),
			decimalToNumeric(it.ActualQuantity), it.Confirmed.Bool())
		if err != nil {
			return domain.Order{}, fmt.Errorf("insert item %d: %w", i, err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return domain.Order{}, fmt.Errorf("commit tx: %w", err)
	}

	o, err := p.GetOrder(ctx, order.ID)
	if err != nil {
		return domain.Order{}, err
	}
	p.emit(domain.Event{Kind: domain.EventInsert, Order: o})
	return o, nil
}

// --- pg type helpers ---

func numericToDecimal(n pgtype.Numeric) decimal.Decimal {
	if !n.Valid {
		return decimal.Zero
	}
	val, err := n.Value()
	if err != nil || val == nil {
		return decimal.Zero
	}
	d, err := decimal.NewFromString(val.(string))
	if err != nil {
		return decimal.Zero
	}
	return d
}

func decimalToNumeric(d decimal.Decimal) pgtype.Numeric {
	var n pgtype.Numeric
	_ = n.Scan(d.String())
	return n
}

func textOrNull(s string) pgtype.Text {
	if s == "" {
		return pgtype.Text{}
	}
	return pgtype.Text{String: s, Valid: true}
}

func uuidOrNull(id uuid.UUID) pgtype.UUID {
	if id == uuid.Nil {
		return pgtype.UUID{}
	}
	return pgtype.UUID{Bytes: id, Valid: true}
}

func timestampOrNow(t time.Time) time.Time {
	if t.IsZero() {
		return time.Now()
	}
	return t
}
