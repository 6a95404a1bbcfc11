package repos

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"cafeorders/internal/domain"

	"github.com/jmoiron/sqlx"
)

type ProductRepo struct {
	db  *sqlx.DB
	now func() time.Time
}

func NewProductRepo(db *sqlx.DB) *ProductRepo { return &ProductRepo{db: db, now: time.Now} }

const productCols = `id, name, description, price, category, stock_quantity, in_stock, created_at`

func (r *ProductRepo) List(ctx context.Context) ([]domain.Product, error) {
	out := []domain.Product{}
	err := r.db.SelectContext(ctx, &out, `SELECT `+productCols+` FROM products ORDER BY category, name, id`)
	return out, err
}

func (r *ProductRepo) Get(ctx context.Context, id int64) (domain.Product, error) {
	var p domain.Product
	err := r.db.GetContext(ctx, &p, r.db.Rebind(`SELECT `+productCols+` FROM products WHERE id = ?`), id)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Product{}, fmt.Errorf("%w: %d", domain.ErrProductNotFound, id)
	}
	return p, err
}

// Create inserts p and returns it with its assigned id.
func (r *ProductRepo) Create(ctx context.Context, p domain.Product) (domain.Product, error) {
	p.CreatedAt = dbTime(r.now())
	q := r.db.Rebind(`
	  INSERT INTO products(name, description, price, category, stock_quantity, in_stock, created_at)
	  VALUES(?, ?, ?, ?, ?, ?, ?)
	  RETURNING id`)
	if err := r.db.QueryRowxContext(ctx, q,
		p.Name, p.Description, p.Price, p.Category, p.StockQuantity, p.InStock, p.CreatedAt,
	).Scan(&p.ID); err != nil {
		return domain.Product{}, err
	}
	return p, nil
}

// Update applies the non-nil fields of patch.
func (r *ProductRepo) Update(ctx context.Context, id int64, patch domain.ProductPatch) (domain.Product, error) {
	if patch.Empty() {
		return r.Get(ctx, id)
	}
	var sets []string
	var args []any
	add := func(col string, v any) {
		sets = append(sets, col+" = ?")
		args = append(args, v)
	}
	if patch.Name != nil {
		add("name", *patch.Name)
	}
	if patch.Description != nil {
		add("description", *patch.Description)
	}
	if patch.Price != nil {
		add("price", *patch.Price)
	}
	if patch.Category != nil {
		add("category", *patch.Category)
	}
	if patch.StockQuantity != nil {
		add("stock_quantity", *patch.StockQuantity)
	}
	if patch.InStock != nil {
		add("in_stock", *patch.InStock)
	}
	args = append(args, id)

	res, err := r.db.ExecContext(ctx, r.db.Rebind(`UPDATE products SET `+strings.Join(sets, ", ")+` WHERE id = ?`), args...)
	if err != nil {
		return domain.Product{}, err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return domain.Product{}, fmt.Errorf("%w: %d", domain.ErrProductNotFound, id)
	}
	return r.Get(ctx, id)
}

func (r *ProductRepo) Delete(ctx context.Context, id int64) error {
	_, err := r.db.ExecContext(ctx, r.db.Rebind(`DELETE FROM products WHERE id = ?`), id)
	return err
}

func (r *ProductRepo) Count(ctx context.Context) (int, error) {
	var n int
	err := r.db.GetContext(ctx, &n, `SELECT COUNT(*) FROM products`)
	return n, err
}
