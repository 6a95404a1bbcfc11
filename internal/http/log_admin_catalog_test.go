package handlers_test

import (
	"fmt"
	"strconv"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func itoa(id int64) string { return strconv.FormatInt(id, 10) }

// Catalog writes and status changes leave audit entries naming the actor.
func TestAdminChangesAreAudited(t *testing.T) {
	h := newHarness(t, nil)
	admin := h.loginAdmin()
	sid := h.loginStudent("9000000071")
	logs := observeLogs(t)

	resp := h.do("POST", "/api/products", fiber.Map{"name": "Samosa", "price": "15", "category": "Snacks"}, admin)
	require.Equal(t, fiber.StatusCreated, resp.StatusCode)
	id := int64(resp.fields(t)["id"].(float64))

	_, o := h.placeOrder(sid, fiber.Map{"items": []fiber.Map{{"productId": id, "quantity": 2}}, "paymentMethod": "cash"})
	require.NotZero(t, o.ID)
	resp = h.do("PATCH", fmt.Sprintf("/api/orders/%d", o.ID), fiber.Map{"status": "cancelled"}, admin)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	create := logs.FilterMessage("product.create").All()
	require.Len(t, create, 1)
	assert.Equal(t, "audit", create[0].ContextMap()["kind"])
	assert.Equal(t, "admin:1", create[0].ContextMap()["user_id"])
	assert.EqualValues(t, id, create[0].ContextMap()["product_id"])

	placed := logs.FilterMessage("order.create").All()
	require.Len(t, placed, 1)
	assert.Equal(t, "30.00", placed[0].ContextMap()["total"])

	status := logs.FilterMessage("order.status").All()
	require.Len(t, status, 1)
	assert.Equal(t, "cancelled", fmt.Sprint(status[0].ContextMap()["status"]))
}

func TestRejectedTransitionIsLogged(t *testing.T) {
	h := newHarness(t, nil)
	admin := h.loginAdmin()
	sid := h.loginStudent("9000000072")
	p := h.product("Tea", "10")
	_, o := h.placeOrder(sid, fiber.Map{"items": []fiber.Map{{"productId": p.ID, "quantity": 1}}, "paymentMethod": "cash"})

	logs := observeLogs(t)
	resp := h.do("PATCH", fmt.Sprintf("/api/orders/%d", o.ID), fiber.Map{"status": "completed"}, admin)
	require.Equal(t, fiber.StatusConflict, resp.StatusCode)
	assert.Equal(t, 1, logs.FilterMessage("order.transition.reject").Len())
}
