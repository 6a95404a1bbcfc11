package handlers

import (
	"errors"
	"fmt"

	"cafeorders/internal/domain"
	applog "cafeorders/internal/log"
	"cafeorders/internal/services"
	"cafeorders/internal/validate"

	"github.com/gofiber/fiber/v2"
	qrcode "github.com/skip2/go-qrcode"
)

type OrderHandler struct {
	Orders *services.OrderService
}

// List returns every order for admins, and the caller's own orders
// otherwise. Admins may pass scope=self to see only their counter orders.
func (h *OrderHandler) List(c *fiber.Ctx) error {
	u, _ := currentUser(c)
	owner := u.OwnerTag()
	if u.IsAdmin() && c.Query("scope") != "self" {
		owner = ""
	}
	out, err := h.Orders.List(c.UserContext(), owner)
	if err != nil {
		return respondError(c, "order.list", err)
	}
	return c.JSON(out)
}

func (h *OrderHandler) Get(c *fiber.Ctx) error {
	o, err := h.visible(c)
	if err != nil {
		return respondError(c, "order.get", err)
	}
	return c.JSON(o)
}

func (h *OrderHandler) Create(c *fiber.Ctx) error {
	u, _ := currentUser(c)
	var req createOrderRequest
	if err := bind(c, &req); err != nil {
		return respondError(c, "order.create", err)
	}
	cmd := services.CreateOrder{
		Owner:         u,
		PaymentMethod: req.PaymentMethod,
		CashAmount:    req.CashAmount,
		OnlineAmount:  req.OnlineAmount,
		Status:        req.Status,
		PaymentStatus: req.PaymentStatus,
	}
	for _, l := range req.Items {
		cmd.Items = append(cmd.Items, services.OrderLine{ProductID: l.ProductID, Quantity: l.Quantity})
	}

	o, err := h.Orders.Create(c.UserContext(), cmd)
	if errors.Is(err, domain.ErrProductNotFound) {
		applog.Security(c, "order.create.fail", map[string]any{"reason": "unknown_product", "detail": err.Error()})
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"message": err.Error(), "field": "items"})
	}
	if err != nil {
		return respondError(c, "order.create", err)
	}
	applog.Audit(c, "order.create", map[string]any{
		"order_id":       o.ID,
		"total":          o.TotalAmount.StringFixed(2),
		"items":          len(o.Items),
		"payment_method": o.PaymentMethod,
		"order_type":     o.OrderType,
	})
	return c.Status(fiber.StatusCreated).JSON(o)
}

func (h *OrderHandler) UpdateStatus(c *fiber.Ctx) error {
	id, ok := validate.ID(c.Params("id"))
	if !ok {
		return respondError(c, "order.status", domain.ErrOrderNotFound)
	}
	var req statusRequest
	if err := bind(c, &req); err != nil {
		return respondError(c, "order.status", err)
	}
	o, err := h.Orders.UpdateStatus(c.UserContext(), id, services.UpdateStatus{
		Status:        req.Status,
		PaymentStatus: req.PaymentStatus,
	})
	if err != nil {
		return respondError(c, "order.status", err)
	}
	applog.Audit(c, "order.status", map[string]any{
		"order_id":       id,
		"status":         o.Status,
		"payment_status": o.PaymentStatus,
	})
	return c.JSON(o)
}

// QR renders a PNG that the counter scanner resolves back to the order.
func (h *OrderHandler) QR(c *fiber.Ctx) error {
	o, err := h.visible(c)
	if err != nil {
		return respondError(c, "order.qr", err)
	}
	png, err := qrcode.Encode(fmt.Sprintf("order:%d", o.ID), qrcode.Medium, 256)
	if err != nil {
		return respondError(c, "order.qr", err)
	}
	c.Set(fiber.HeaderContentType, "image/png")
	c.Set(fiber.HeaderCacheControl, "private, max-age=300")
	return c.Send(png)
}

// visible loads the order named by :id if the caller may see it. Other
// users' orders are reported as missing.
func (h *OrderHandler) visible(c *fiber.Ctx) (domain.Order, error) {
	id, ok := validate.ID(c.Params("id"))
	if !ok {
		return domain.Order{}, domain.ErrOrderNotFound
	}
	o, err := h.Orders.Get(c.UserContext(), id)
	if err != nil {
		return domain.Order{}, err
	}
	u, _ := currentUser(c)
	if !u.IsAdmin() && o.UserID != u.OwnerTag() {
		applog.Security(c, "access.denied.order", map[string]any{"order_id": id})
		return domain.Order{}, fmt.Errorf("%w: %d", domain.ErrOrderNotFound, id)
	}
	return o, nil
}
