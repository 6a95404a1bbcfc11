package handlers_test

import (
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Denied admin access is logged as a security event with request context.
func TestDeniedAccessIsLogged(t *testing.T) {
	h := newHarness(t, nil)
	sid := h.loginStudent("9000000061")
	logs := observeLogs(t)

	resp := h.do("GET", "/api/analytics", nil, sid)
	require.Equal(t, fiber.StatusForbidden, resp.StatusCode)

	entries := logs.FilterMessage("access.denied.admin").All()
	require.Len(t, entries, 1)
	f := entries[0].ContextMap()
	assert.Equal(t, "GET", f["method"])
	assert.Equal(t, "/api/analytics", f["path"])
	assert.NotEmpty(t, f["req_id"])
	assert.Regexp(t, `^student:\d+$`, f["user_id"])
}

func TestForeignOrderAccessIsLogged(t *testing.T) {
	h := newHarness(t, nil)
	p := h.product("Samosa", "15")
	owner := h.loginStudent("9000000062")
	other := h.loginStudent("9000000063")
	_, o := h.placeOrder(owner, fiber.Map{"items": []fiber.Map{{"productId": p.ID, "quantity": 1}}, "paymentMethod": "cash"})
	require.NotZero(t, o.ID)

	logs := observeLogs(t)
	resp := h.do("GET", "/api/orders/"+itoa(o.ID), nil, other)
	require.Equal(t, fiber.StatusNotFound, resp.StatusCode)
	entries := logs.FilterMessage("access.denied.order").All()
	require.Len(t, entries, 1)
	assert.EqualValues(t, o.ID, entries[0].ContextMap()["order_id"])
}

func TestAccessLineGoesThroughLogger(t *testing.T) {
	h := newHarness(t, nil)
	logs := observeLogs(t)

	resp := h.do("GET", "/api/products", nil)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	entries := logs.FilterMessage("http.access").All()
	require.Len(t, entries, 1)
	assert.Regexp(t, `^\S+ 200 GET /api/products `, entries[0].ContextMap()["line"])
}
