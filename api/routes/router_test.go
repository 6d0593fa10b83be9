package routes

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/refurbmart/refurbmart-backend/pkg/auth"
	"github.com/refurbmart/refurbmart-backend/pkg/config"
	"github.com/refurbmart/refurbmart-backend/pkg/enums"
)

type pingFunc func(context.Context) error

func (f pingFunc) Ping(ctx context.Context) error { return f(ctx) }

func testConfig() *config.Config {
	return &config.Config{
		App:        config.AppConfig{Env: "test", Port: "0"},
		JWT:        config.JWTConfig{Secret: "router-secret", Issuer: "refurbmart-identity"},
		SSLCommerz: config.SSLCommerzConfig{FrontendURL: "http://localhost:3000"},
	}
}

func bearer(t *testing.T, cfg *config.Config, role enums.AccountRole) string {
	t.Helper()
	token, err := auth.MintAccessToken(cfg.JWT, time.Now(), time.Hour, auth.Actor{AccountID: uuid.New(), Role: role})
	if err != nil {
		t.Fatalf("mint token: %v", err)
	}
	return "Bearer " + token
}

func TestHealthRoutes(t *testing.T) {
	cfg := testConfig()
	router := NewRouter(cfg, nil, Services{DBPinger: pingFunc(func(context.Context) error { return nil })})

	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, httptest.NewRequest(http.MethodGet, "/health/live", nil))
	if resp.Code != http.StatusOK {
		t.Fatalf("live: expected 200 got %d", resp.Code)
	}
	if resp.Header().Get("X-Request-Id") == "" {
		t.Fatalf("expected request id header")
	}

	resp = httptest.NewRecorder()
	router.ServeHTTP(resp, httptest.NewRequest(http.MethodGet, "/health/ready", nil))
	if resp.Code != http.StatusOK || !strings.Contains(resp.Body.String(), `"redis":"skipped"`) {
		t.Fatalf("ready: unexpected %d %s", resp.Code, resp.Body.String())
	}
}

func TestReadinessFailsWhenDatabaseDown(t *testing.T) {
	router := NewRouter(testConfig(), nil, Services{DBPinger: pingFunc(func(context.Context) error { return errors.New("refused") })})
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, httptest.NewRequest(http.MethodGet, "/health/ready", nil))
	if resp.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503 got %d", resp.Code)
	}
}

func TestMetricsExposed(t *testing.T) {
	reg := prometheus.NewRegistry()
	counter := prometheus.NewCounter(prometheus.CounterOpts{Name: "router_test_total", Help: "test"})
	reg.MustRegister(counter)
	counter.Inc()

	router := NewRouter(testConfig(), nil, Services{Metrics: reg})
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	if resp.Code != http.StatusOK || !strings.Contains(resp.Body.String(), "router_test_total 1") {
		t.Fatalf("unexpected metrics response %d %s", resp.Code, resp.Body.String())
	}
}

func TestAPIRequiresToken(t *testing.T) {
	router := NewRouter(testConfig(), nil, Services{})
	for _, target := range []string{"/api/orders", "/api/cart"} {
		resp := httptest.NewRecorder()
		router.ServeHTTP(resp, httptest.NewRequest(http.MethodGet, target, nil))
		if resp.Code != http.StatusUnauthorized {
			t.Fatalf("%s: expected 401 got %d", target, resp.Code)
		}
	}
}

func TestRoleGates(t *testing.T) {
	cfg := testConfig()
	router := NewRouter(cfg, nil, Services{})

	cases := []struct {
		method string
		target string
		role   enums.AccountRole
		want   int
	}{
		{http.MethodPost, "/api/orders/create", enums.AccountRoleSeller, http.StatusForbidden},
		{http.MethodGet, "/api/cart", enums.AccountRoleSeller, http.StatusForbidden},
		{http.MethodPut, "/api/orders/" + uuid.NewString() + "/status", enums.AccountRoleBuyer, http.StatusForbidden},
		{http.MethodPost, "/api/orders/" + uuid.NewString() + "/cancel", enums.AccountRoleAdmin, http.StatusForbidden},
		// Past the gate, the nil service answers 500.
		{http.MethodPost, "/api/orders/create", enums.AccountRoleBuyer, http.StatusInternalServerError},
	}
	for _, tc := range cases {
		req := httptest.NewRequest(tc.method, tc.target, strings.NewReader(`{}`))
		req.Header.Set("Authorization", bearer(t, cfg, tc.role))
		resp := httptest.NewRecorder()
		router.ServeHTTP(resp, req)
		if resp.Code != tc.want {
			t.Fatalf("%s %s as %s: expected %d got %d", tc.method, tc.target, tc.role, tc.want, resp.Code)
		}
	}
}

func TestGatewayCallbacksArePublic(t *testing.T) {
	router := NewRouter(testConfig(), nil, Services{})
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, httptest.NewRequest(http.MethodPost, "/api/payments/sslcommerz/ipn", nil))
	if resp.Code == http.StatusUnauthorized {
		t.Fatalf("callbacks must not require a bearer token")
	}
}
