// Command subwaved serves the subscription engine over HTTP.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"golang.org/x/sync/errgroup"

	"github.com/xraph/subwave"
	"github.com/xraph/subwave/address"
	"github.com/xraph/subwave/api"
	audithook "github.com/xraph/subwave/audit_hook"
	"github.com/xraph/subwave/internal/config"
	lockmemory "github.com/xraph/subwave/lock/memory"
	"github.com/xraph/subwave/observability"
	"github.com/xraph/subwave/payment"
	"github.com/xraph/subwave/payment/stripe"
	"github.com/xraph/subwave/payment/tokenledger"
	"github.com/xraph/subwave/store"
	"github.com/xraph/subwave/store/leveldb"
	"github.com/xraph/subwave/store/memory"
)

func main() {
	configPath := flag.String("config", "", "path to YAML config (defaults to an in-memory node)")
	flag.Parse()

	if err := run(*configPath); err != nil {
		fmt.Fprintf(os.Stderr, "subwaved: %v\n", err)
		os.Exit(1)
	}
}

func run(configPath string) error {
	cfg := config.Default()
	if configPath != "" {
		var err error
		if cfg, err = config.Load(configPath); err != nil {
			return err
		}
	} else if err := cfg.Validate(); err != nil {
		return err
	}

	logger := newLogger(os.Stderr, cfg.Log)

	st, err := openStore(cfg.Store)
	if err != nil {
		return err
	}

	gateway, err := openGateway(cfg.Gateway)
	if err != nil {
		_ = st.Close()
		return err
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	eng := subwave.New(st,
		subwave.WithLogger(logger),
		subwave.WithGateway(gateway),
		subwave.WithLocker(lockmemory.New()),
		subwave.WithLockTTL(cfg.Lock.TTL.Duration),
		subwave.WithLockTimeout(cfg.Lock.Timeout.Duration),
		subwave.WithHookTimeout(cfg.HookTimeout.Duration),
		subwave.WithPlugin(observability.NewMetricsExtension(observability.NewPrometheusFactory(reg))),
		subwave.WithPlugin(audithook.New(audithook.NewSlogRecorder(logger), audithook.WithLogger(logger))),
	)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := eng.Start(ctx); err != nil {
		_ = st.Close()
		return fmt.Errorf("start engine: %w", err)
	}
	defer func() {
		if err := eng.Stop(); err != nil {
			logger.Error("engine stop failed", "error", err)
		}
	}()

	srv := api.New(api.Config{
		Engine:   eng,
		Auth:     api.NewAuthenticator([]byte(cfg.Auth.JWTSecret), cfg.Auth.Issuer),
		Health:   st.Ping,
		Gatherer: reg,
		Logger:   logger,
	})
	httpServer := &http.Server{
		Addr:         cfg.ListenAddress,
		Handler:      srv.Handler(),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info("subwaved listening", "addr", cfg.ListenAddress)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout.Duration)
		defer cancel()
		logger.Info("subwaved shutting down")
		return httpServer.Shutdown(shutdownCtx)
	})

	return g.Wait()
}

func newLogger(w io.Writer, cfg config.LogConfig) *slog.Logger {
	opts := &slog.HandlerOptions{Level: cfg.SlogLevel()}
	if cfg.Format == "text" {
		return slog.New(slog.NewTextHandler(w, opts))
	}
	return slog.New(slog.NewJSONHandler(w, opts))
}

func openStore(cfg config.StoreConfig) (store.Store, error) {
	switch cfg.Driver {
	case config.StoreLevelDB:
		s, err := leveldb.Open(cfg.Path)
		if err != nil {
			return nil, fmt.Errorf("open leveldb store: %w", err)
		}
		return s, nil
	default:
		return memory.New(), nil
	}
}

func openGateway(cfg config.GatewayConfig) (payment.Gateway, error) {
	switch cfg.Driver {
	case config.GatewayStripe:
		return stripe.New(cfg.StripeKey, cfg.Directory), nil
	default:
		tl := tokenledger.New()
		for _, b := range cfg.Balances {
			holder, err := address.Parse(b.Holder)
			if err != nil {
				return nil, fmt.Errorf("gateway balance holder: %w", err)
			}
			mint, err := address.Parse(b.Mint)
			if err != nil {
				return nil, fmt.Errorf("gateway balance mint: %w", err)
			}
			if err := tl.Credit(holder, mint, b.Amount); err != nil {
				return nil, err
			}
		}
		return tl, nil
	}
}
