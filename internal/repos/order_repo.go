package repos

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"cafeorders/internal/domain"

	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"
)

type OrderRepo struct{ db *sqlx.DB }

func NewOrderRepo(db *sqlx.DB) *OrderRepo { return &OrderRepo{db: db} }

const orderCols = `id, user_id, total_amount, payment_method, cash_amount, online_amount, order_type,
  status, payment_status, created_at, updated_at`

const itemCols = `id, order_id, product_id, product_name, quantity, price_at_time`

// OrderFilter narrows List. Zero values mean no constraint.
type OrderFilter struct {
	UserID string
	From   time.Time
	To     time.Time
}

// CatalogPrice is the product data snapshotted onto a new order item.
type CatalogPrice struct {
	ID    int64           `db:"id"`
	Name  string          `db:"name"`
	Price decimal.Decimal `db:"price"`
}

// OrderTx is the transactional scope used by order creation and status updates.
type OrderTx struct{ tx *sqlx.Tx }

// InTx runs fn inside one transaction, committing only if fn returns nil.
func (r *OrderRepo) InTx(ctx context.Context, fn func(tx *OrderTx) error) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	if err := fn(&OrderTx{tx: tx}); err != nil {
		return err
	}
	return tx.Commit()
}

// Prices resolves the current catalog price of every id in one query.
// Ids missing from the catalog are absent from the result.
func (t *OrderTx) Prices(ctx context.Context, ids []int64) (map[int64]CatalogPrice, error) {
	out := make(map[int64]CatalogPrice, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	q, args, err := sqlx.In(`SELECT id, name, price FROM products WHERE id IN (?)`, ids)
	if err != nil {
		return nil, err
	}
	var rows []CatalogPrice
	if err := t.tx.SelectContext(ctx, &rows, t.tx.Rebind(q), args...); err != nil {
		return nil, err
	}
	for _, p := range rows {
		out[p.ID] = p
	}
	return out, nil
}

// Insert writes the order header and every item, filling in the assigned ids.
func (t *OrderTx) Insert(ctx context.Context, o *domain.Order) error {
	o.CreatedAt = dbTime(o.CreatedAt)
	o.UpdatedAt = o.CreatedAt
	err := t.tx.QueryRowxContext(ctx, t.tx.Rebind(`
	  INSERT INTO orders
	    (user_id, total_amount, payment_method, cash_amount, online_amount, order_type, status, payment_status, created_at, updated_at)
	  VALUES
	    (?,       ?,            ?,              ?,           ?,             ?,          ?,      ?,              ?,          ?)
	  RETURNING id`),
		o.UserID, o.TotalAmount, o.PaymentMethod, o.CashAmount, o.OnlineAmount, o.OrderType,
		o.Status, o.PaymentStatus, o.CreatedAt, o.UpdatedAt,
	).Scan(&o.ID)
	if err != nil {
		return fmt.Errorf("insert order: %w", err)
	}

	q := t.tx.Rebind(`
	  INSERT INTO order_items(order_id, product_id, product_name, quantity, price_at_time)
	  VALUES(?, ?, ?, ?, ?)
	  RETURNING id`)
	for i := range o.Items {
		it := &o.Items[i]
		it.OrderID = o.ID
		if err := t.tx.QueryRowxContext(ctx, q, it.OrderID, it.ProductID, it.ProductName, it.Quantity, it.PriceAtTime).Scan(&it.ID); err != nil {
			return fmt.Errorf("insert item %d: %w", it.ProductID, err)
		}
	}
	return nil
}

// Header loads an order without its items.
func (t *OrderTx) Header(ctx context.Context, id int64) (domain.Order, error) {
	var o domain.Order
	err := t.tx.GetContext(ctx, &o, t.tx.Rebind(`SELECT `+orderCols+` FROM orders WHERE id = ?`), id)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Order{}, fmt.Errorf("%w: %d", domain.ErrOrderNotFound, id)
	}
	return o, err
}

func (t *OrderTx) SetStatus(ctx context.Context, id int64, status domain.OrderStatus, pay domain.PaymentStatus, at time.Time) error {
	res, err := t.tx.ExecContext(ctx, t.tx.Rebind(`
	  UPDATE orders SET status = ?, payment_status = ?, updated_at = ? WHERE id = ?`),
		status, pay, dbTime(at), id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("%w: %d", domain.ErrOrderNotFound, id)
	}
	return nil
}

// Get returns an order with its items.
func (r *OrderRepo) Get(ctx context.Context, id int64) (domain.Order, error) {
	var o domain.Order
	err := r.db.GetContext(ctx, &o, r.db.Rebind(`SELECT `+orderCols+` FROM orders WHERE id = ?`), id)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Order{}, fmt.Errorf("%w: %d", domain.ErrOrderNotFound, id)
	}
	if err != nil {
		return domain.Order{}, err
	}
	orders := []domain.Order{o}
	if err := r.attachItems(ctx, orders); err != nil {
		return domain.Order{}, err
	}
	return orders[0], nil
}

// List returns matching orders newest first, each with its items.
func (r *OrderRepo) List(ctx context.Context, f OrderFilter) ([]domain.Order, error) {
	where := `1 = 1`
	var args []any
	if f.UserID != "" {
		where += ` AND user_id = ?`
		args = append(args, f.UserID)
	}
	if !f.From.IsZero() {
		where += ` AND created_at >= ?`
		args = append(args, dbTime(f.From))
	}
	if !f.To.IsZero() {
		where += ` AND created_at <= ?`
		args = append(args, dbTime(f.To))
	}
	orders := []domain.Order{}
	q := r.db.Rebind(`SELECT ` + orderCols + ` FROM orders WHERE ` + where + ` ORDER BY created_at DESC, id DESC`)
	if err := r.db.SelectContext(ctx, &orders, q, args...); err != nil {
		return nil, err
	}
	if err := r.attachItems(ctx, orders); err != nil {
		return nil, err
	}
	return orders, nil
}

// ListCreatedBetween returns orders with from <= created_at <= to.
func (r *OrderRepo) ListCreatedBetween(ctx context.Context, from, to time.Time) ([]domain.Order, error) {
	return r.List(ctx, OrderFilter{From: from, To: to})
}

// attachItems loads the items of every order in one batched query.
func (r *OrderRepo) attachItems(ctx context.Context, orders []domain.Order) error {
	if len(orders) == 0 {
		return nil
	}
	ids := make([]int64, len(orders))
	idx := make(map[int64]int, len(orders))
	for i := range orders {
		ids[i] = orders[i].ID
		idx[orders[i].ID] = i
		orders[i].Items = []domain.OrderItem{}
	}
	q, args, err := sqlx.In(`SELECT `+itemCols+` FROM order_items WHERE order_id IN (?) ORDER BY order_id, id`, ids)
	if err != nil {
		return err
	}
	var items []domain.OrderItem
	if err := r.db.SelectContext(ctx, &items, r.db.Rebind(q), args...); err != nil {
		return err
	}
	for _, it := range items {
		i := idx[it.OrderID]
		orders[i].Items = append(orders[i].Items, it)
	}
	return nil
}

// Counts reports stored order and item rows.
func (r *OrderRepo) Counts(ctx context.Context) (orders, items int, err error) {
	if err = r.db.GetContext(ctx, &orders, `SELECT COUNT(*) FROM orders`); err != nil {
		return
	}
	err = r.db.GetContext(ctx, &items, `SELECT COUNT(*) FROM order_items`)
	return
}
