// Package api serves the subwave engine over HTTP.
package api

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/xraph/subwave/address"
	"github.com/xraph/subwave/entitlement"
	"github.com/xraph/subwave/id"
	"github.com/xraph/subwave/merchant"
	"github.com/xraph/subwave/subscription"
)

// Engine is the subset of *subwave.Engine the API drives.
type Engine interface {
	RegisterMerchant(ctx context.Context, authority, tokenMint address.Address, price uint64, intervalDays uint32, productName string) (*merchant.Merchant, *merchant.Config, error)
	CreateConfig(ctx context.Context, authority, merchantAddr address.Address, price uint64, intervalDays uint32, productName string) (*merchant.Config, error)
	UpdateConfig(ctx context.Context, authority, merchantAddr, configAddr address.Address, patch merchant.ConfigPatch) (*merchant.Config, error)
	GetMerchant(ctx context.Context, addr address.Address) (*merchant.Merchant, error)
	GetConfig(ctx context.Context, addr address.Address) (*merchant.Config, error)
	Subscribe(ctx context.Context, subscriber, configAddr address.Address) (*subscription.Subscription, error)
	Renew(ctx context.Context, subscriber, subAddr address.Address) (*subscription.Subscription, error)
	Cancel(ctx context.Context, subscriber, subAddr address.Address) (*subscription.Subscription, error)
	CheckEntitlement(ctx context.Context, subAddr address.Address) (*entitlement.Result, error)
	GetSubscription(ctx context.Context, addr address.Address) (*subscription.Subscription, error)
}

// Config captures the dependencies required to construct the server.
type Config struct {
	Engine Engine
	Auth   *Authenticator

	// Health reports backend readiness for /healthz. Optional.
	Health func(ctx context.Context) error

	// Gatherer backs /metrics. Defaults to prometheus.DefaultGatherer.
	Gatherer prometheus.Gatherer

	Logger *slog.Logger
}

// Server is the HTTP front end of the engine.
type Server struct {
	engine   Engine
	auth     *Authenticator
	health   func(ctx context.Context) error
	gatherer prometheus.Gatherer
	logger   *slog.Logger

	router http.Handler
}

// New constructs the router.
func New(cfg Config) *Server {
	s := &Server{
		engine:   cfg.Engine,
		auth:     cfg.Auth,
		health:   cfg.Health,
		gatherer: cfg.Gatherer,
		logger:   cfg.Logger,
	}
	if s.gatherer == nil {
		s.gatherer = prometheus.DefaultGatherer
	}
	if s.logger == nil {
		s.logger = slog.Default()
	}
	s.router = s.buildRouter()
	return s
}

// Handler exposes the configured HTTP router.
func (s *Server) Handler() http.Handler {
	return s.router
}

func (s *Server) buildRouter() http.Handler {
	r := chi.NewRouter()
	r.Use(s.requestID)
	r.Use(chimw.RealIP)
	r.Use(s.accessLog)
	r.Use(chimw.Recoverer)

	r.Get("/healthz", s.Healthz)
	r.Handle("/metrics", promhttp.HandlerFor(s.gatherer, promhttp.HandlerOpts{}))

	r.Route("/v1", func(v1 chi.Router) {
		v1.Get("/subscriptions/{subscription}/entitlement", s.CheckEntitlement)
		v1.Get("/merchants/{merchant}", s.GetMerchant)
		v1.Get("/configs/{config}", s.GetConfig)
		v1.Get("/subscriptions/{subscription}", s.GetSubscription)

		v1.Group(func(protected chi.Router) {
			protected.Use(s.auth.RequireAuth)
			protected.Post("/merchants", s.RegisterMerchant)
			protected.Post("/merchants/{merchant}/configs", s.CreateConfig)
			protected.Patch("/merchants/{merchant}/configs/{config}", s.UpdateConfig)
			protected.Post("/subscriptions", s.Subscribe)
			protected.Post("/subscriptions/{subscription}/renew", s.Renew)
			protected.Post("/subscriptions/{subscription}/cancel", s.Cancel)
		})
	})

	return r
}

func (s *Server) requestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		rid := id.NewRequestID()
		w.Header().Set("X-Request-ID", rid.String())
		next.ServeHTTP(w, r.WithContext(SetRequestID(r.Context(), rid)))
	})
}

func (s *Server) accessLog(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := chimw.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)
		s.logger.Debug("http request",
			"request_id", RequestIDFromContext(r.Context()).String(),
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"elapsed", time.Since(start),
		)
	})
}
