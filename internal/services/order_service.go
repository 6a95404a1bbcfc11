package services

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"cafeorders/internal/domain"
	"cafeorders/internal/metrics"
	"cafeorders/internal/repos"

	"github.com/shopspring/decimal"
)

type OrderLine struct {
	ProductID int64
	Quantity  int
}

// CreateOrder is a validated order placement request.
type CreateOrder struct {
	Owner         domain.User
	Items         []OrderLine
	PaymentMethod domain.PaymentMethod
	CashAmount    *decimal.Decimal
	OnlineAmount  *decimal.Decimal
	// Staff-only initial values for counter and prepaid orders.
	Status        *domain.OrderStatus
	PaymentStatus *domain.PaymentStatus
}

// UpdateStatus is a validated status change request.
type UpdateStatus struct {
	Status        domain.OrderStatus
	PaymentStatus *domain.PaymentStatus
}

type OrderService struct {
	Orders *repos.OrderRepo
	Now    func() time.Time
}

func NewOrderService(orders *repos.OrderRepo) *OrderService {
	return &OrderService{Orders: orders, Now: time.Now}
}

// mergeLines folds duplicate product ids together, keeping first-seen order.
func mergeLines(lines []OrderLine) ([]OrderLine, error) {
	out := make([]OrderLine, 0, len(lines))
	pos := map[int64]int{}
	for i, l := range lines {
		if l.Quantity < 1 {
			return nil, domain.Invalid(fmt.Sprintf("items[%d].quantity", i), "must be at least 1")
		}
		if j, ok := pos[l.ProductID]; ok {
			out[j].Quantity += l.Quantity
			continue
		}
		pos[l.ProductID] = len(out)
		out = append(out, l)
	}
	return out, nil
}

// buildOrder prices lines against the catalog snapshot.
func buildOrder(cmd CreateOrder, lines []OrderLine, prices map[int64]repos.CatalogPrice, now time.Time) (*domain.Order, error) {
	var missing []int64
	for _, l := range lines {
		if _, ok := prices[l.ProductID]; !ok {
			missing = append(missing, l.ProductID)
		}
	}
	if len(missing) > 0 {
		sort.Slice(missing, func(i, j int) bool { return missing[i] < missing[j] })
		return nil, fmt.Errorf("%w: %v", domain.ErrProductNotFound, missing)
	}

	o := &domain.Order{
		UserID:        cmd.Owner.OwnerTag(),
		PaymentMethod: cmd.PaymentMethod,
		OrderType:     domain.OrderTypeOnline,
		Status:        domain.StatusPending,
		PaymentStatus: domain.PaymentUnpaid,
		CreatedAt:     now,
		Items:         make([]domain.OrderItem, 0, len(lines)),
	}
	for _, l := range lines {
		p := prices[l.ProductID]
		o.Items = append(o.Items, domain.OrderItem{
			ProductID:   l.ProductID,
			ProductName: p.Name,
			Quantity:    l.Quantity,
			PriceAtTime: p.Price,
		})
	}
	o.TotalAmount = o.ItemsTotal()

	if cmd.Status != nil || cmd.PaymentStatus != nil {
		o.OrderType = domain.OrderTypeManual
		if cmd.Status != nil {
			o.Status = *cmd.Status
		}
		if cmd.PaymentStatus != nil {
			o.PaymentStatus = *cmd.PaymentStatus
		}
		if err := CheckInitialStatus(o.Status, o.PaymentStatus); err != nil {
			return nil, err
		}
	}

	if cmd.PaymentMethod == domain.PayBoth {
		if cmd.CashAmount == nil || cmd.OnlineAmount == nil {
			return nil, domain.Invalid("cashAmount", "split payment needs cash and online amounts")
		}
		if !cmd.CashAmount.Add(*cmd.OnlineAmount).Equal(o.TotalAmount) {
			return nil, domain.Invalid("cashAmount", fmt.Sprintf("cash + online must equal total %s", o.TotalAmount.StringFixed(2)))
		}
		o.CashAmount, o.OnlineAmount = cmd.CashAmount, cmd.OnlineAmount
	}
	return o, nil
}

// Create prices and persists an order with its items in one transaction.
// Nothing is written unless every step succeeds.
func (s *OrderService) Create(ctx context.Context, cmd CreateOrder) (*domain.Order, error) {
	if len(cmd.Items) == 0 {
		metrics.OrderRejections.WithLabelValues("empty").Inc()
		return nil, domain.ErrEmptyOrder
	}
	if (cmd.Status != nil || cmd.PaymentStatus != nil) && !cmd.Owner.IsAdmin() {
		metrics.OrderRejections.WithLabelValues("validation").Inc()
		return nil, domain.Invalid("status", "only staff may set an initial status")
	}
	lines, err := mergeLines(cmd.Items)
	if err != nil {
		metrics.OrderRejections.WithLabelValues("validation").Inc()
		return nil, err
	}
	ids := make([]int64, len(lines))
	for i, l := range lines {
		ids[i] = l.ProductID
	}

	var created *domain.Order
	err = s.Orders.InTx(ctx, func(tx *repos.OrderTx) error {
		prices, err := tx.Prices(ctx, ids)
		if err != nil {
			return err
		}
		o, err := buildOrder(cmd, lines, prices, s.Now())
		if err != nil {
			return err
		}
		if err := tx.Insert(ctx, o); err != nil {
			return err
		}
		created = o
		return nil
	})
	if err != nil {
		metrics.OrderRejections.WithLabelValues(reason(err)).Inc()
		return nil, domain.Persist("create order", err)
	}
	metrics.OrdersCreated.WithLabelValues(string(created.PaymentMethod), string(created.OrderType)).Inc()
	return created, nil
}

// UpdateStatus applies a lifecycle transition and optional payment status.
// Concurrent updates to one order are last-writer-wins.
func (s *OrderService) UpdateStatus(ctx context.Context, id int64, cmd UpdateStatus) (domain.Order, error) {
	if cmd.PaymentStatus != nil && !cmd.PaymentStatus.Valid() {
		return domain.Order{}, domain.Invalid("paymentStatus", fmt.Sprintf("unknown payment status %q", *cmd.PaymentStatus))
	}
	var from domain.OrderStatus
	err := s.Orders.InTx(ctx, func(tx *repos.OrderTx) error {
		cur, err := tx.Header(ctx, id)
		if err != nil {
			return err
		}
		if err := CheckTransition(cur.Status, cmd.Status); err != nil {
			return err
		}
		from = cur.Status
		pay := cur.PaymentStatus
		if cmd.PaymentStatus != nil {
			pay = *cmd.PaymentStatus
		}
		return tx.SetStatus(ctx, id, cmd.Status, pay, s.Now())
	})
	if err != nil {
		metrics.OrderRejections.WithLabelValues(reason(err)).Inc()
		return domain.Order{}, domain.Persist("update order status", err)
	}
	metrics.Transitions.WithLabelValues(string(from), string(cmd.Status)).Inc()

	o, err := s.Orders.Get(ctx, id)
	return o, domain.Persist("get order", err)
}

func (s *OrderService) Get(ctx context.Context, id int64) (domain.Order, error) {
	o, err := s.Orders.Get(ctx, id)
	return o, domain.Persist("get order", err)
}

// List returns every order when ownerTag is empty, else that owner's orders.
func (s *OrderService) List(ctx context.Context, ownerTag string) ([]domain.Order, error) {
	out, err := s.Orders.List(ctx, repos.OrderFilter{UserID: ownerTag})
	return out, domain.Persist("list orders", err)
}

func reason(err error) string {
	var ve *domain.ValidationError
	switch {
	case errors.Is(err, domain.ErrProductNotFound):
		return "product_not_found"
	case errors.Is(err, domain.ErrOrderNotFound):
		return "order_not_found"
	case errors.Is(err, domain.ErrInvalidTransition):
		return "invalid_transition"
	case errors.As(err, &ve):
		return "validation"
	}
	return "store"
}
