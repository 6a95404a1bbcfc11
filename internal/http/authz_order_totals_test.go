package handlers_test

import (
	"fmt"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Client-supplied totals and prices are ignored; the server prices from
// the catalog.
func TestOrderTotalsRecomputed(t *testing.T) {
	h := newHarness(t, nil)
	burger := h.product("Chicken Burger", "80.00")
	sid := h.loginStudent("9000000021")

	resp, o := h.placeOrder(sid, fiber.Map{
		"items":         []fiber.Map{{"productId": burger.ID, "quantity": 2, "price": "1.00"}},
		"paymentMethod": "cash",
		"totalAmount":   "2.00",
	})
	require.Equal(t, fiber.StatusCreated, resp.StatusCode, "body=%s", resp.body)
	assert.Equal(t, "160", o.TotalAmount.String())
	require.Len(t, o.Items, 1)
	assert.Equal(t, "80", o.Items[0].PriceAtTime.String())
	assert.Equal(t, "Chicken Burger", o.Items[0].ProductName)
}

func TestStudentCannotSeeOthersOrder(t *testing.T) {
	h := newHarness(t, nil)
	samosa := h.product("Samosa", "15")
	alice := h.loginStudent("9000000022")
	bob := h.loginStudent("9000000023")

	_, o := h.placeOrder(alice, fiber.Map{
		"items": []fiber.Map{{"productId": samosa.ID, "quantity": 1}}, "paymentMethod": "cash",
	})
	require.NotZero(t, o.ID)
	path := fmt.Sprintf("/api/orders/%d", o.ID)

	assert.Equal(t, fiber.StatusOK, h.do("GET", path, nil, alice).StatusCode)
	assert.Equal(t, fiber.StatusNotFound, h.do("GET", path, nil, bob).StatusCode)
	assert.Equal(t, fiber.StatusNotFound, h.do("GET", path+"/qr", nil, bob).StatusCode)

	var mine []map[string]any
	h.do("GET", "/api/orders", nil, bob).decode(t, &mine)
	assert.Empty(t, mine)
	// A student asking for every order still gets only their own.
	h.do("GET", "/api/orders?scope=all", nil, bob).decode(t, &mine)
	assert.Empty(t, mine)

	admin := h.loginAdmin()
	assert.Equal(t, fiber.StatusOK, h.do("GET", path, nil, admin).StatusCode)
	var all []map[string]any
	h.do("GET", "/api/orders", nil, admin).decode(t, &all)
	assert.Len(t, all, 1)
	h.do("GET", "/api/orders?scope=self", nil, admin).decode(t, &all)
	assert.Empty(t, all)
}
