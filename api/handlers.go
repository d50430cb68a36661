package api

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/xraph/subwave/address"
	"github.com/xraph/subwave/merchant"
)

type registerMerchantRequest struct {
	TokenMint    address.Address `json:"token_mint"`
	Price        uint64          `json:"price"`
	IntervalDays uint32          `json:"interval_days"`
	ProductName  string          `json:"product_name"`
}

type createConfigRequest struct {
	Price        uint64 `json:"price"`
	IntervalDays uint32 `json:"interval_days"`
	ProductName  string `json:"product_name"`
}

type subscribeRequest struct {
	Config address.Address `json:"config"`
}

type registerMerchantResponse struct {
	Merchant *merchant.Merchant `json:"merchant"`
	Config   *merchant.Config   `json:"config"`
}

// RegisterMerchant handles POST /v1/merchants.
func (s *Server) RegisterMerchant(w http.ResponseWriter, r *http.Request) {
	var req registerMerchantRequest
	if !decode(w, r, &req) {
		return
	}
	authority, _ := PrincipalFromContext(r.Context())

	m, c, err := s.engine.RegisterMerchant(r.Context(), authority, req.TokenMint, req.Price, req.IntervalDays, req.ProductName)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	WriteJSON(w, http.StatusCreated, registerMerchantResponse{Merchant: m, Config: c})
}

// CreateConfig handles POST /v1/merchants/{merchant}/configs.
func (s *Server) CreateConfig(w http.ResponseWriter, r *http.Request) {
	merchantAddr, ok := pathAddress(w, r, "merchant")
	if !ok {
		return
	}
	var req createConfigRequest
	if !decode(w, r, &req) {
		return
	}
	authority, _ := PrincipalFromContext(r.Context())

	c, err := s.engine.CreateConfig(r.Context(), authority, merchantAddr, req.Price, req.IntervalDays, req.ProductName)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	WriteJSON(w, http.StatusCreated, c)
}

// UpdateConfig handles PATCH /v1/merchants/{merchant}/configs/{config}.
func (s *Server) UpdateConfig(w http.ResponseWriter, r *http.Request) {
	merchantAddr, ok := pathAddress(w, r, "merchant")
	if !ok {
		return
	}
	configAddr, ok := pathAddress(w, r, "config")
	if !ok {
		return
	}
	var patch merchant.ConfigPatch
	if !decode(w, r, &patch) {
		return
	}
	authority, _ := PrincipalFromContext(r.Context())

	c, err := s.engine.UpdateConfig(r.Context(), authority, merchantAddr, configAddr, patch)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	WriteJSON(w, http.StatusOK, c)
}

// GetMerchant handles GET /v1/merchants/{merchant}.
func (s *Server) GetMerchant(w http.ResponseWriter, r *http.Request) {
	addr, ok := pathAddress(w, r, "merchant")
	if !ok {
		return
	}
	m, err := s.engine.GetMerchant(r.Context(), addr)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	WriteJSON(w, http.StatusOK, m)
}

// GetConfig handles GET /v1/configs/{config}.
func (s *Server) GetConfig(w http.ResponseWriter, r *http.Request) {
	addr, ok := pathAddress(w, r, "config")
	if !ok {
		return
	}
	c, err := s.engine.GetConfig(r.Context(), addr)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	WriteJSON(w, http.StatusOK, c)
}

// Subscribe handles POST /v1/subscriptions.
func (s *Server) Subscribe(w http.ResponseWriter, r *http.Request) {
	var req subscribeRequest
	if !decode(w, r, &req) {
		return
	}
	subscriber, _ := PrincipalFromContext(r.Context())

	sub, err := s.engine.Subscribe(r.Context(), subscriber, req.Config)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	WriteJSON(w, http.StatusCreated, sub)
}

// Renew handles POST /v1/subscriptions/{subscription}/renew.
func (s *Server) Renew(w http.ResponseWriter, r *http.Request) {
	addr, ok := pathAddress(w, r, "subscription")
	if !ok {
		return
	}
	subscriber, _ := PrincipalFromContext(r.Context())

	sub, err := s.engine.Renew(r.Context(), subscriber, addr)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	WriteJSON(w, http.StatusOK, sub)
}

// Cancel handles POST /v1/subscriptions/{subscription}/cancel.
func (s *Server) Cancel(w http.ResponseWriter, r *http.Request) {
	addr, ok := pathAddress(w, r, "subscription")
	if !ok {
		return
	}
	subscriber, _ := PrincipalFromContext(r.Context())

	sub, err := s.engine.Cancel(r.Context(), subscriber, addr)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	WriteJSON(w, http.StatusOK, sub)
}

// GetSubscription handles GET /v1/subscriptions/{subscription}.
func (s *Server) GetSubscription(w http.ResponseWriter, r *http.Request) {
	addr, ok := pathAddress(w, r, "subscription")
	if !ok {
		return
	}
	sub, err := s.engine.GetSubscription(r.Context(), addr)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	WriteJSON(w, http.StatusOK, sub)
}

// CheckEntitlement handles GET /v1/subscriptions/{subscription}/entitlement.
func (s *Server) CheckEntitlement(w http.ResponseWriter, r *http.Request) {
	addr, ok := pathAddress(w, r, "subscription")
	if !ok {
		return
	}
	res, err := s.engine.CheckEntitlement(r.Context(), addr)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	WriteJSON(w, http.StatusOK, res)
}

// Healthz handles GET /healthz.
func (s *Server) Healthz(w http.ResponseWriter, r *http.Request) {
	if s.health != nil {
		if err := s.health(r.Context()); err != nil {
			WriteError(w, http.StatusServiceUnavailable, err.Error())
			return
		}
	}
	WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// ──────────────────────────────────────────────────
// Helpers
// ──────────────────────────────────────────────────

func (s *Server) fail(w http.ResponseWriter, r *http.Request, err error) {
	status := StatusFor(err)
	if status == http.StatusInternalServerError {
		s.logger.Error("request failed",
			"request_id", RequestIDFromContext(r.Context()).String(),
			"path", r.URL.Path,
			"error", err,
		)
		WriteError(w, status, "internal error")
		return
	}
	WriteError(w, status, err.Error())
}

func pathAddress(w http.ResponseWriter, r *http.Request, name string) (address.Address, bool) {
	addr, err := address.Parse(chi.URLParam(r, name))
	if err != nil {
		WriteError(w, http.StatusBadRequest, "invalid "+name+" address")
		return address.Zero, false
	}
	return addr, true
}

func decode(w http.ResponseWriter, r *http.Request, v any) bool {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		WriteError(w, http.StatusBadRequest, "invalid payload")
		return false
	}
	return true
}
