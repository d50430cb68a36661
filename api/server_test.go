package api_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xraph/subwave"
	"github.com/xraph/subwave/address"
	"github.com/xraph/subwave/api"
	"github.com/xraph/subwave/clock"
	"github.com/xraph/subwave/payment/tokenledger"
	"github.com/xraph/subwave/store/memory"
)

const start = int64(1_700_000_000)

type harness struct {
	t      *testing.T
	srv    *httptest.Server
	auth   *api.Authenticator
	tokens *tokenledger.Ledger
	clock  *clock.Manual
}

func newHarness(t *testing.T) *harness {
	t.Helper()

	tokens := tokenledger.New()
	clk := clock.NewManual(start)
	eng := subwave.New(memory.New(), subwave.WithGateway(tokens), subwave.WithClock(clk))
	auth := api.NewAuthenticator([]byte("test-secret"), "subwave-test")

	s := api.New(api.Config{
		Engine:   eng,
		Auth:     auth,
		Gatherer: prometheus.NewRegistry(),
		Health:   func(ctx context.Context) error { return eng.Store().Ping(ctx) },
	})
	srv := httptest.NewServer(s.Handler())
	t.Cleanup(srv.Close)

	return &harness{t: t, srv: srv, auth: auth, tokens: tokens, clock: clk}
}

func (h *harness) do(method, path string, as *address.Address, body any) (int, map[string]json.RawMessage) {
	h.t.Helper()

	var buf bytes.Buffer
	if body != nil {
		require.NoError(h.t, json.NewEncoder(&buf).Encode(body))
	}
	req, err := http.NewRequest(method, h.srv.URL+path, &buf)
	require.NoError(h.t, err)
	if as != nil {
		tok, err := h.auth.Issue(*as, time.Minute)
		require.NoError(h.t, err)
		req.Header.Set("Authorization", "Bearer "+tok)
	}

	resp, err := http.DefaultClient.Do(req)
	require.NoError(h.t, err)
	defer resp.Body.Close()

	var env map[string]json.RawMessage
	if strings.HasPrefix(resp.Header.Get("Content-Type"), "application/json") {
		require.NoError(h.t, json.NewDecoder(resp.Body).Decode(&env))
	}
	return resp.StatusCode, env
}

func fill(b byte) address.Address {
	var a address.Address
	for i := range a {
		a[i] = b
	}
	return a
}

func TestSubscriptionFlow(t *testing.T) {
	h := newHarness(t)
	authority, mint, user := fill(1), fill(2), fill(3)
	require.NoError(t, h.tokens.Credit(user, mint, 5000))

	status, env := h.do(http.MethodPost, "/v1/merchants", &authority, map[string]any{
		"token_mint":    mint.String(),
		"price":         1000,
		"interval_days": 30,
		"product_name":  "pro",
	})
	require.Equal(t, http.StatusCreated, status, string(env["error"]))

	var registered struct {
		Config subwave.Config `json:"config"`
	}
	require.NoError(t, json.Unmarshal(env["data"], &registered))
	cfg := registered.Config.Address

	status, env = h.do(http.MethodPost, "/v1/subscriptions", &user, map[string]any{"config": cfg.String()})
	require.Equal(t, http.StatusCreated, status, string(env["error"]))

	var sub subwave.Subscription
	require.NoError(t, json.Unmarshal(env["data"], &sub))
	assert.Equal(t, start+30*86400, sub.ExpiryTimestamp)
	assert.Equal(t, uint64(1000), sub.TotalPaid)
	assert.Equal(t, uint64(1000), h.tokens.Balance(authority, mint))

	path := "/v1/subscriptions/" + sub.Address.String()

	status, env = h.do(http.MethodGet, path+"/entitlement", nil, nil)
	require.Equal(t, http.StatusOK, status)
	var res subwave.EntitlementResult
	require.NoError(t, json.Unmarshal(env["data"], &res))
	assert.True(t, res.Entitled)

	status, _ = h.do(http.MethodPost, path+"/renew", &user, nil)
	require.Equal(t, http.StatusOK, status)

	stranger := fill(9)
	status, _ = h.do(http.MethodPost, path+"/cancel", &stranger, nil)
	assert.Equal(t, http.StatusForbidden, status)

	status, _ = h.do(http.MethodPost, path+"/cancel", &user, nil)
	require.Equal(t, http.StatusOK, status)

	status, _ = h.do(http.MethodPost, path+"/cancel", &user, nil)
	assert.Equal(t, http.StatusConflict, status)

	status, env = h.do(http.MethodGet, path+"/entitlement", nil, nil)
	require.Equal(t, http.StatusOK, status)
	require.NoError(t, json.Unmarshal(env["data"], &res))
	assert.False(t, res.Entitled)
}

func TestConfigRoutes(t *testing.T) {
	h := newHarness(t)
	authority, mint := fill(1), fill(2)

	status, env := h.do(http.MethodPost, "/v1/merchants", &authority, map[string]any{
		"token_mint": mint.String(), "price": 10, "interval_days": 7, "product_name": "basic",
	})
	require.Equal(t, http.StatusCreated, status)
	var registered struct {
		Merchant subwave.Merchant `json:"merchant"`
		Config   subwave.Config   `json:"config"`
	}
	require.NoError(t, json.Unmarshal(env["data"], &registered))
	mpath := "/v1/merchants/" + registered.Merchant.Address.String()

	status, _ = h.do(http.MethodPost, mpath+"/configs", &authority, map[string]any{
		"price": 20, "interval_days": 30, "product_name": "plus",
	})
	assert.Equal(t, http.StatusCreated, status)

	status, _ = h.do(http.MethodPost, mpath+"/configs", &authority, map[string]any{
		"price": 0, "interval_days": 30, "product_name": "free",
	})
	assert.Equal(t, http.StatusBadRequest, status)

	cpath := mpath + "/configs/" + registered.Config.Address.String()
	status, env = h.do(http.MethodPatch, cpath, &authority, map[string]any{"active": false})
	require.Equal(t, http.StatusOK, status)
	var cfg subwave.Config
	require.NoError(t, json.Unmarshal(env["data"], &cfg))
	assert.False(t, cfg.Active)
	assert.Equal(t, uint64(10), cfg.Price)

	other := fill(8)
	status, _ = h.do(http.MethodPatch, cpath, &other, map[string]any{"price": 99})
	assert.Equal(t, http.StatusForbidden, status)

	status, _ = h.do(http.MethodGet, "/v1/configs/"+registered.Config.Address.String(), nil, nil)
	assert.Equal(t, http.StatusOK, status)

	status, _ = h.do(http.MethodPost, "/v1/merchants", &authority, map[string]any{
		"token_mint": mint.String(), "price": 10, "interval_days": 7, "product_name": "again",
	})
	assert.Equal(t, http.StatusConflict, status)

	status, _ = h.do(http.MethodPost, "/v1/merchants", &other, map[string]any{
		"price": 10, "interval_days": 7, "product_name": "no-mint",
	})
	assert.Equal(t, http.StatusBadRequest, status)
}

func TestAuthRequired(t *testing.T) {
	h := newHarness(t)

	status, _ := h.do(http.MethodPost, "/v1/subscriptions", nil, map[string]any{"config": fill(1).String()})
	assert.Equal(t, http.StatusUnauthorized, status)

	other := api.NewAuthenticator([]byte("wrong-secret"), "subwave-test")
	tok, err := other.Issue(fill(1), time.Minute)
	require.NoError(t, err)

	req, err := http.NewRequest(http.MethodPost, h.srv.URL+"/v1/subscriptions", strings.NewReader(`{}`))
	require.NoError(t, err)
	req.Header.Set("Authorization", "Bearer "+tok)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestPaymentRequiredAndNotFound(t *testing.T) {
	h := newHarness(t)
	authority, mint, user := fill(1), fill(2), fill(3)

	status, env := h.do(http.MethodPost, "/v1/merchants", &authority, map[string]any{
		"token_mint": mint.String(), "price": 10, "interval_days": 7, "product_name": "basic",
	})
	require.Equal(t, http.StatusCreated, status)
	var registered struct {
		Config subwave.Config `json:"config"`
	}
	require.NoError(t, json.Unmarshal(env["data"], &registered))

	status, _ = h.do(http.MethodPost, "/v1/subscriptions", &user, map[string]any{"config": registered.Config.Address.String()})
	assert.Equal(t, http.StatusPaymentRequired, status)

	missing := address.SubscriptionAddress(user, registered.Config.Address)
	status, _ = h.do(http.MethodGet, "/v1/subscriptions/"+missing.String()+"/entitlement", nil, nil)
	assert.Equal(t, http.StatusNotFound, status)

	status, _ = h.do(http.MethodGet, "/v1/subscriptions/not-an-address", nil, nil)
	assert.Equal(t, http.StatusBadRequest, status)
}

func TestHealthzAndRequestID(t *testing.T) {
	h := newHarness(t)

	resp, err := http.Get(h.srv.URL + "/healthz")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.True(t, strings.HasPrefix(resp.Header.Get("X-Request-ID"), "req_"))

	resp, err = http.Get(h.srv.URL + "/metrics")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestStatusFor(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{subwave.ErrNotFound, http.StatusNotFound},
		{subwave.ErrAlreadyExists, http.StatusConflict},
		{&subwave.ValidationError{Field: "price", Err: subwave.ErrInvalidPrice}, http.StatusBadRequest},
		{subwave.ErrUnauthorized, http.StatusForbidden},
		{subwave.ErrSubscriptionInactive, http.StatusConflict},
		{subwave.ErrMathOverflow, http.StatusUnprocessableEntity},
		{subwave.ErrPaymentFailed, http.StatusPaymentRequired},
		{subwave.ErrStoreBusy, http.StatusServiceUnavailable},
		{errors.New("boom"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, api.StatusFor(tt.err), tt.err.Error())
	}
}
