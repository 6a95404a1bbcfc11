package handlers_test

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"cafeorders/internal/config"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// State-changing requests need the double-submit token once CSRF is on.
func TestCSRFProtection(t *testing.T) {
	h := newHarness(t, func(c *config.Config) { c.CSRF = true })

	resp := h.do("POST", "/api/auth/send-otp", fiber.Map{"mobile": "9000000101"})
	assert.Equal(t, fiber.StatusForbidden, resp.StatusCode)

	resp = h.do("GET", "/api/products", nil)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	tok := cookie(resp, "csrf_")
	require.NotNil(t, tok, "safe requests receive a token cookie")

	req := httptest.NewRequest("POST", "/api/auth/send-otp", strings.NewReader(`{"mobile":"9000000101"}`))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-CSRF-Token", tok.Value)
	req.AddCookie(&http.Cookie{Name: tok.Name, Value: tok.Value})
	res, err := h.app.Test(req, -1)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, res.StatusCode)
}
