package handlers_test

import (
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestProductInputValidation(t *testing.T) {
	h := newHarness(t, nil)
	admin := h.loginAdmin()

	cases := []struct {
		name  string
		body  any
		field string
	}{
		{"missing name", fiber.Map{"price": "1", "category": "Hot"}, "name"},
		{"missing price", fiber.Map{"name": "Tea", "category": "Hot"}, "price"},
		{"negative price", fiber.Map{"name": "Tea", "price": "-1", "category": "Hot"}, "price"},
		{"negative stock", fiber.Map{"name": "Tea", "price": "1", "category": "Hot", "stockQuantity": -3}, "stockQuantity"},
		{"missing category", fiber.Map{"name": "Tea", "price": "1"}, "category"},
		{"blank name", fiber.Map{"name": "   ", "price": "1", "category": "Hot"}, "name"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			resp := h.do("POST", "/api/products", tc.body, admin)
			require.Equal(t, fiber.StatusBadRequest, resp.StatusCode, "body=%s", resp.body)
			assert.Equal(t, tc.field, resp.fields(t)["field"])
		})
	}
}

func TestAuthInputValidation(t *testing.T) {
	h := newHarness(t, nil)

	resp := h.do("POST", "/api/auth/send-otp", fiber.Map{"mobile": "12345"})
	require.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "mobile", resp.fields(t)["field"])

	resp = h.do("POST", "/api/auth/verify-otp", fiber.Map{"mobile": "9000000041", "otp": "12ab56"})
	require.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "otp", resp.fields(t)["field"])

	sid := h.loginStudent("9000000042")
	resp = h.do("POST", "/api/auth/update-profile", fiber.Map{"email": "not-an-email"}, sid)
	require.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "email", resp.fields(t)["field"])
}

func TestAnalyticsInputValidation(t *testing.T) {
	h := newHarness(t, nil)
	admin := h.loginAdmin()

	resp := h.do("GET", "/api/analytics?granularity=decade", nil, admin)
	require.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "granularity", resp.fields(t)["field"])

	resp = h.do("GET", "/api/analytics/summary?from=yesterday", nil, admin)
	require.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "from", resp.fields(t)["field"])

	resp = h.do("GET", "/api/analytics/summary?from=2026-10-10&to=2026-10-01", nil, admin)
	require.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "to", resp.fields(t)["field"])
}
