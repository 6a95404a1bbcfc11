package handlers

import (
	applog "cafeorders/internal/log"
	"cafeorders/internal/services"
	"cafeorders/internal/validate"

	"github.com/gofiber/fiber/v2"
)

type ProductHandler struct {
	Catalog *services.CatalogService
}

func (h *ProductHandler) List(c *fiber.Ctx) error {
	out, err := h.Catalog.List(c.UserContext())
	if err != nil {
		return respondError(c, "product.list", err)
	}
	return c.JSON(out)
}

func (h *ProductHandler) Get(c *fiber.Ctx) error {
	id, ok := validate.ID(c.Params("id"))
	if !ok {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"message": "Product not found"})
	}
	p, err := h.Catalog.Get(c.UserContext(), id)
	if err != nil {
		return respondError(c, "product.get", err)
	}
	return c.JSON(p)
}

func (h *ProductHandler) Create(c *fiber.Ctx) error {
	var req productRequest
	if err := bind(c, &req); err != nil {
		return respondError(c, "product.create", err)
	}
	p, err := h.Catalog.Create(c.UserContext(), req.product())
	if err != nil {
		return respondError(c, "product.create", err)
	}
	applog.Audit(c, "product.create", map[string]any{"product_id": p.ID, "price": p.Price.String()})
	return c.Status(fiber.StatusCreated).JSON(p)
}

func (h *ProductHandler) Update(c *fiber.Ctx) error {
	id, ok := validate.ID(c.Params("id"))
	if !ok {
		applog.Security(c, "validation.fail", map[string]any{"field": "id"})
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"message": "Product not found"})
	}
	var req productPatchRequest
	if err := bind(c, &req); err != nil {
		return respondError(c, "product.update", err)
	}
	p, err := h.Catalog.Update(c.UserContext(), id, req.patch())
	if err != nil {
		return respondError(c, "product.update", err)
	}
	applog.Audit(c, "product.update", map[string]any{"product_id": id})
	return c.JSON(p)
}

func (h *ProductHandler) Delete(c *fiber.Ctx) error {
	id, ok := validate.ID(c.Params("id"))
	if !ok {
		return c.SendStatus(fiber.StatusNoContent)
	}
	if err := h.Catalog.Delete(c.UserContext(), id); err != nil {
		return respondError(c, "product.delete", err)
	}
	applog.Audit(c, "product.delete", map[string]any{"product_id": id})
	return c.SendStatus(fiber.StatusNoContent)
}
