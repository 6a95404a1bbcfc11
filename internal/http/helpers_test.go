package handlers_test

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"cafeorders/internal/config"
	"cafeorders/internal/domain"
	"cafeorders/internal/http/handlers"
	applog "cafeorders/internal/log"
	"cafeorders/internal/repos"

	"github.com/gofiber/fiber/v2"
	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
	"golang.org/x/crypto/bcrypt"
)

const (
	adminMobile   = "9999999999"
	adminPassword = "admin123"
)

type harness struct {
	t    *testing.T
	app  *fiber.App
	db   *sqlx.DB
	deps *handlers.Deps
}

func testConfig() config.Config {
	return config.Config{
		Env:        "test",
		DBDriver:   "sqlite",
		DBDSN:      ":memory:",
		TZName:     "UTC",
		CORS:       "*",
		Session:    time.Hour,
		OTPTTL:     5 * time.Minute,
		RateLimit:  1000,
		LoginLimit: 1000,
	}
}

// newHarness builds the full app over an in-memory database with one admin
// account. tweak may adjust the config before the app is built.
func newHarness(t *testing.T, tweak func(*config.Config)) *harness {
	t.Helper()
	cfg := testConfig()
	if tweak != nil {
		tweak(&cfg)
	}
	db, err := repos.OpenDB(cfg.DBDriver, cfg.DBDSN)
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	hash, err := bcrypt.GenerateFromPassword([]byte(adminPassword), bcrypt.MinCost)
	require.NoError(t, err)
	require.NoError(t, repos.NewUserRepo(db).CreateAdmin(context.Background(), adminMobile, "Admin", string(hash)))

	deps := handlers.NewDeps(db, cfg, nil)
	return &harness{t: t, app: handlers.NewApp(cfg, deps), db: db, deps: deps}
}

// observeLogs routes the request helpers' output into an observer for the
// rest of the test.
func observeLogs(t *testing.T) *observer.ObservedLogs {
	t.Helper()
	core, logs := observer.New(zap.DebugLevel)
	applog.Set(zap.New(core))
	t.Cleanup(func() { applog.Set(nil) })
	return logs
}

type response struct {
	*http.Response
	body []byte
}

func (r response) decode(t *testing.T, dst any) {
	t.Helper()
	require.NoError(t, json.Unmarshal(r.body, dst), "body=%s", r.body)
}

func (r response) fields(t *testing.T) map[string]any {
	t.Helper()
	m := map[string]any{}
	r.decode(t, &m)
	return m
}

func (h *harness) do(method, path string, body any, cookies ...*http.Cookie) response {
	h.t.Helper()
	var rd io.Reader
	if body != nil {
		switch b := body.(type) {
		case string:
			rd = bytes.NewBufferString(b)
		default:
			raw, err := json.Marshal(b)
			require.NoError(h.t, err)
			rd = bytes.NewReader(raw)
		}
	}
	req := httptest.NewRequest(method, path, rd)
	if rd != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	for _, c := range cookies {
		req.AddCookie(c)
	}
	resp, err := h.app.Test(req, -1)
	require.NoError(h.t, err)
	raw, err := io.ReadAll(resp.Body)
	require.NoError(h.t, err)
	return response{Response: resp, body: raw}
}

func cookie(resp response, name string) *http.Cookie {
	for _, c := range resp.Cookies() {
		if c.Name == name {
			return c
		}
	}
	return nil
}

// loginStudent runs the OTP flow for mobile and returns the session cookie.
func (h *harness) loginStudent(mobile string) *http.Cookie {
	h.t.Helper()
	resp := h.do("POST", "/api/auth/send-otp", fiber.Map{"mobile": mobile})
	require.Equal(h.t, fiber.StatusOK, resp.StatusCode, "body=%s", resp.body)
	otp, _ := resp.fields(h.t)["otp"].(string)
	require.Len(h.t, otp, 6)

	resp = h.do("POST", "/api/auth/verify-otp", fiber.Map{"mobile": mobile, "otp": otp})
	require.Equal(h.t, fiber.StatusOK, resp.StatusCode, "body=%s", resp.body)
	sid := cookie(resp, "sid")
	require.NotNil(h.t, sid)
	return &http.Cookie{Name: sid.Name, Value: sid.Value}
}

func (h *harness) loginAdmin() *http.Cookie {
	h.t.Helper()
	resp := h.do("POST", "/api/auth/admin-login", fiber.Map{"mobile": adminMobile, "password": adminPassword})
	require.Equal(h.t, fiber.StatusOK, resp.StatusCode, "body=%s", resp.body)
	otp, _ := resp.fields(h.t)["otp"].(string)
	require.Len(h.t, otp, 6)

	resp = h.do("POST", "/api/auth/admin-login", fiber.Map{"mobile": adminMobile, "password": adminPassword, "otp": otp})
	require.Equal(h.t, fiber.StatusOK, resp.StatusCode, "body=%s", resp.body)
	sid := cookie(resp, "sid")
	require.NotNil(h.t, sid)
	return &http.Cookie{Name: sid.Name, Value: sid.Value}
}

func (h *harness) product(name, price string) domain.Product {
	h.t.Helper()
	p, err := repos.NewProductRepo(h.db).Create(context.Background(), domain.Product{
		Name: name, Category: "Menu", Price: decimal.RequireFromString(price), InStock: true,
	})
	require.NoError(h.t, err)
	return p
}

func (h *harness) placeOrder(sid *http.Cookie, body any) (response, domain.Order) {
	h.t.Helper()
	resp := h.do("POST", "/api/orders", body, sid)
	var o domain.Order
	if resp.StatusCode == fiber.StatusCreated {
		resp.decode(h.t, &o)
	}
	return resp, o
}
