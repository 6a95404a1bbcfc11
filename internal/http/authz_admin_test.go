package handlers_test

import (
	"fmt"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
)

// Catalog writes, status changes and analytics are staff-only.
func TestAdminRoutesRejectOthers(t *testing.T) {
	h := newHarness(t, nil)
	p := h.product("Latte", "4.50")
	student := h.loginStudent("9000000011")

	routes := []struct {
		method, path string
		body         any
	}{
		{"POST", "/api/products", fiber.Map{"name": "Tea", "price": "1", "category": "Hot"}},
		{"PUT", fmt.Sprintf("/api/products/%d", p.ID), fiber.Map{"price": "0.01"}},
		{"DELETE", fmt.Sprintf("/api/products/%d", p.ID), nil},
		{"PATCH", "/api/orders/1", fiber.Map{"status": "confirmed"}},
		{"PATCH", "/api/orders/1/status", fiber.Map{"status": "confirmed"}},
		{"GET", "/api/analytics?granularity=day", nil},
		{"GET", "/api/analytics/summary", nil},
	}
	for _, r := range routes {
		t.Run(r.method+" "+r.path, func(t *testing.T) {
			resp := h.do(r.method, r.path, r.body)
			assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode, "anonymous")
			resp = h.do(r.method, r.path, r.body, student)
			assert.Equal(t, fiber.StatusForbidden, resp.StatusCode, "student")
		})
	}

	got, err := h.deps.Products.Catalog.Get(t.Context(), p.ID)
	assert.NoError(t, err)
	assert.Equal(t, "4.5", got.Price.String(), "price untouched")
}

func TestOrdersRequireSession(t *testing.T) {
	h := newHarness(t, nil)
	for _, path := range []string{"/api/orders", "/api/orders/1", "/api/orders/1/qr"} {
		resp := h.do("GET", path, nil)
		assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode, path)
	}
	resp := h.do("POST", "/api/orders", fiber.Map{"items": []any{}, "paymentMethod": "cash"})
	assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)
}

func TestAdminCatalogCRUD(t *testing.T) {
	h := newHarness(t, nil)
	admin := h.loginAdmin()

	resp := h.do("POST", "/api/products", fiber.Map{
		"name": "Masala Chai", "description": "Spiced tea", "price": 20, "category": "Beverages", "stockQuantity": 40,
	}, admin)
	assert.Equal(t, fiber.StatusCreated, resp.StatusCode, "body=%s", resp.body)
	created := resp.fields(t)
	id := int64(created["id"].(float64))
	assert.Equal(t, true, created["inStock"])

	resp = h.do("PUT", fmt.Sprintf("/api/products/%d", id), fiber.Map{"price": "22.50", "inStock": false}, admin)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode, "body=%s", resp.body)
	updated := resp.fields(t)
	assert.Equal(t, "22.5", updated["price"])
	assert.Equal(t, false, updated["inStock"])
	assert.Equal(t, "Masala Chai", updated["name"])

	resp = h.do("PUT", "/api/products/999", fiber.Map{"price": "1"}, admin)
	assert.Equal(t, fiber.StatusNotFound, resp.StatusCode)

	resp = h.do("DELETE", fmt.Sprintf("/api/products/%d", id), nil, admin)
	assert.Equal(t, fiber.StatusNoContent, resp.StatusCode)
	resp = h.do("DELETE", fmt.Sprintf("/api/products/%d", id), nil, admin)
	assert.Equal(t, fiber.StatusNoContent, resp.StatusCode, "unknown id deletes are no-ops")

	var list []map[string]any
	h.do("GET", "/api/products", nil).decode(t, &list)
	assert.Empty(t, list)
}

func TestGetProductIsPublic(t *testing.T) {
	h := newHarness(t, nil)
	p := h.product("Filter Coffee", "1.75")

	resp := h.do("GET", fmt.Sprintf("/api/products/%d", p.ID), nil)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode, "body=%s", resp.body)
	got := resp.fields(t)
	assert.Equal(t, "Filter Coffee", got["name"])

	for _, path := range []string{"/api/products/9999", "/api/products/abc"} {
		resp = h.do("GET", path, nil)
		assert.Equal(t, fiber.StatusNotFound, resp.StatusCode, path)
		assert.Equal(t, "Product not found", resp.fields(t)["message"], path)
	}
}
