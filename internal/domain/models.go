package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

type Product struct {
	ID            int64           `db:"id" json:"id"`
	Name          string          `db:"name" json:"name"`
	Description   *string         `db:"description" json:"description,omitempty"`
	Price         decimal.Decimal `db:"price" json:"price"`
	Category      string          `db:"category" json:"category"`
	StockQuantity *int            `db:"stock_quantity" json:"stockQuantity,omitempty"`
	InStock       bool            `db:"in_stock" json:"inStock"`
	CreatedAt     time.Time       `db:"created_at" json:"createdAt"`
}

type OrderStatus string

const (
	StatusPending   OrderStatus = "pending"
	StatusConfirmed OrderStatus = "confirmed"
	StatusCompleted OrderStatus = "completed"
	StatusCancelled OrderStatus = "cancelled"
)

// Statuses lists every order status in breakdown order.
var Statuses = []OrderStatus{StatusCompleted, StatusPending, StatusConfirmed, StatusCancelled}

func (s OrderStatus) Valid() bool {
	switch s {
	case StatusPending, StatusConfirmed, StatusCompleted, StatusCancelled:
		return true
	}
	return false
}

func (s OrderStatus) Terminal() bool {
	return s == StatusCompleted || s == StatusCancelled
}

type PaymentStatus string

const (
	PaymentUnpaid  PaymentStatus = "unpaid"
	PaymentPending PaymentStatus = "pending"
	PaymentPaid    PaymentStatus = "paid"
)

func (p PaymentStatus) Valid() bool {
	switch p {
	case PaymentUnpaid, PaymentPending, PaymentPaid:
		return true
	}
	return false
}

type PaymentMethod string

const (
	PayCash   PaymentMethod = "cash"
	PayOnline PaymentMethod = "online"
	PayBoth   PaymentMethod = "both"
)

type OrderType string

const (
	OrderTypeOnline OrderType = "online"
	OrderTypeManual OrderType = "manual"
)

type Order struct {
	ID            int64            `db:"id" json:"id"`
	UserID        string           `db:"user_id" json:"userId"` // student:<id> | admin:<id>
	TotalAmount   decimal.Decimal  `db:"total_amount" json:"totalAmount"`
	PaymentMethod PaymentMethod    `db:"payment_method" json:"paymentMethod"`
	CashAmount    *decimal.Decimal `db:"cash_amount" json:"cashAmount,omitempty"`
	OnlineAmount  *decimal.Decimal `db:"online_amount" json:"onlineAmount,omitempty"`
	OrderType     OrderType        `db:"order_type" json:"orderType"`
	Status        OrderStatus      `db:"status" json:"status"`
	PaymentStatus PaymentStatus    `db:"payment_status" json:"paymentStatus"`
	CreatedAt     time.Time        `db:"created_at" json:"createdAt"`
	UpdatedAt     time.Time        `db:"updated_at" json:"updatedAt"`
	Items         []OrderItem      `db:"-" json:"items"`
}

type OrderItem struct {
	ID          int64           `db:"id" json:"id"`
	OrderID     int64           `db:"order_id" json:"orderId"`
	ProductID   int64           `db:"product_id" json:"productId"`
	ProductName string          `db:"product_name" json:"productName"`
	Quantity    int             `db:"quantity" json:"quantity"`
	PriceAtTime decimal.Decimal `db:"price_at_time" json:"priceAtTime"`
}

// Subtotal is the line value at the snapshotted price.
func (it OrderItem) Subtotal() decimal.Decimal {
	return it.PriceAtTime.Mul(decimal.NewFromInt(int64(it.Quantity)))
}

// ItemsTotal sums the order's line subtotals.
func (o *Order) ItemsTotal() decimal.Decimal {
	total := decimal.Zero
	for _, it := range o.Items {
		total = total.Add(it.Subtotal())
	}
	return total
}

// ProductPatch carries the fields of a partial catalog update; nil means unchanged.
type ProductPatch struct {
	Name          *string
	Description   *string
	Price         *decimal.Decimal
	Category      *string
	StockQuantity *int
	InStock       *bool
}

func (p ProductPatch) Empty() bool {
	return p.Name == nil && p.Description == nil && p.Price == nil &&
		p.Category == nil && p.StockQuantity == nil && p.InStock == nil
}
