package handlers

import (
	"errors"

	"cafeorders/internal/domain"
	applog "cafeorders/internal/log"
	"cafeorders/internal/services"

	"github.com/gofiber/fiber/v2"
)

const internalMessage = "Internal Server Error"

// respondError maps a domain error onto its HTTP status. Anything
// unclassified is logged and answered with a generic 500.
func respondError(c *fiber.Ctx, action string, err error) error {
	var ve *domain.ValidationError
	switch {
	case errors.As(err, &ve):
		applog.Security(c, "validation.fail", map[string]any{"op": action, "field": ve.Field})
		body := fiber.Map{"message": ve.Error()}
		if ve.Field != "" {
			body["field"] = ve.Field
		}
		return c.Status(fiber.StatusBadRequest).JSON(body)
	case errors.Is(err, domain.ErrEmptyOrder):
		applog.Security(c, "validation.fail", map[string]any{"op": action, "reason": "empty"})
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"message": err.Error(), "field": "items"})
	case errors.Is(err, domain.ErrInvalidTransition):
		applog.Security(c, "order.transition.reject", map[string]any{"op": action, "detail": err.Error()})
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{"message": err.Error()})
	case errors.Is(err, domain.ErrNotFound):
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"message": notFoundMessage(err)})
	case errors.Is(err, services.ErrNoSession):
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"message": "Unauthorized"})
	case errors.Is(err, services.ErrWrongRole):
		applog.Security(c, "access.denied.role", map[string]any{"op": action})
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"message": "Forbidden"})
	}
	applog.Error(c, action, err, nil)
	return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"message": internalMessage})
}

func notFoundMessage(err error) string {
	switch {
	case errors.Is(err, domain.ErrOrderNotFound):
		return "Order not found"
	case errors.Is(err, domain.ErrProductNotFound):
		return "Product not found"
	}
	return "Not found"
}

// ErrorHandler is the fiber backstop for errors returned by handlers and
// middleware.
func ErrorHandler(c *fiber.Ctx, err error) error {
	var fe *fiber.Error
	if errors.As(err, &fe) && fe.Code < fiber.StatusInternalServerError {
		return c.Status(fe.Code).JSON(fiber.Map{"message": fe.Message})
	}
	applog.Error(c, "server.error", err, nil)
	return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"message": internalMessage})
}
