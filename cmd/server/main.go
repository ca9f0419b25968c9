package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"github.com/Skotchmaster/headphones_shop/internal/config"
	"github.com/Skotchmaster/headphones_shop/internal/db"
	"github.com/Skotchmaster/headphones_shop/internal/es"
	"github.com/Skotchmaster/headphones_shop/internal/httpserver"
	"github.com/Skotchmaster/headphones_shop/internal/logging"
	loggingmw "github.com/Skotchmaster/headphones_shop/internal/middleware/logging"
	"github.com/Skotchmaster/headphones_shop/internal/mykafka"
	"github.com/Skotchmaster/headphones_shop/internal/payment"
	"github.com/Skotchmaster/headphones_shop/internal/repo"
	"github.com/Skotchmaster/headphones_shop/internal/search"
	"github.com/Skotchmaster/headphones_shop/internal/service"
	"github.com/Skotchmaster/headphones_shop/internal/session"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal(err)
	}

	config.MustNonEmpty(cfg.SitePassword, "SITE_PASSWORD")
	config.MustNonEmptyBytes(cfg.SessionSecret, "SESSION_SECRET")
	config.MustNonEmpty(cfg.DSN(), "DATABASE_URL or DB_NAME")

	logger := logging.New(cfg.LogLevel)
	logger.Info("starting", "env", cfg.AppEnv, "port", cfg.ServerPort)

	ctx := context.Background()

	gdb, err := db.Open(ctx, cfg.DSN())
	if err != nil {
		log.Fatalf("database init: %v", err)
	}
	if err := db.Migrate(ctx, gdb); err != nil {
		log.Fatalf("database migrate: %v", err)
	}

	var events service.EventPublisher
	var prod *mykafka.Producer
	if len(cfg.KafkaBrokers) > 0 {
		prod, err = mykafka.NewProducer(cfg.KafkaBrokers)
		if err != nil {
			log.Fatal(err)
		}
		events = prod
	} else {
		logger.Warn("kafka disabled", "reason", "KAFKA_BROKERS not set")
	}

	var searcher service.ProductSearcher
	if cfg.ESURL != "" {
		esClient, err := es.NewClient(cfg)
		if err != nil {
			logger.Error("search disabled", "error", err)
		} else {
			searcher = &search.Searcher{ES: esClient, Index: cfg.ESIndex}
		}
	}

	if cfg.StripeSecretKey == "" {
		logger.Warn("stripe secret key not set, checkout will fail")
	}
	if cfg.StripeWebhookSecret == "" {
		logger.Warn("stripe webhook secret not set, webhooks will be rejected")
	}

	r := repo.New(gdb)
	sessions := session.NewManager(cfg.SessionSecret, cfg.IsProduction())
	checkout := &service.CheckoutService{
		Repo:     r,
		Gateway:  payment.NewStripe(cfg.StripeSecretKey),
		Events:   events,
		Currency: cfg.Currency,
	}

	e := echo.New()
	e.HideBanner = true
	e.Pre(middleware.RemoveTrailingSlash())
	e.Use(middleware.Recover(), middleware.RequestID(), middleware.Secure(), loggingmw.RequestLogger(logger))

	httpserver.Register(e, &httpserver.Deps{
		DB:       gdb,
		Sessions: sessions,
		Auth: &httpserver.AuthHTTP{
			Svc:      &service.AuthService{Repo: r, SitePassword: cfg.SitePassword},
			Sessions: sessions,
		},
		Cart:    &httpserver.CartHTTP{Svc: &service.CartService{Repo: r, Events: events}},
		Catalog: &httpserver.CatalogHTTP{Svc: &service.CatalogService{Repo: r, Search: searcher}},
		Checkout: &httpserver.CheckoutHTTP{
			Svc:            checkout,
			Webhooks:       &payment.WebhookVerifier{Secret: cfg.StripeWebhookSecret},
			PublishableKey: cfg.StripePublishableKey,
		},
		Messages:  &httpserver.MessageHTTP{Svc: &service.MessageService{Repo: r, Events: events}},
		StaticDir: cfg.StaticDir,
	})

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.ServerPort),
		Handler:      e,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}
	sweepCtx, stopSweep := context.WithCancel(logging.IntoContext(ctx, logger))
	defer stopSweep()
	go releaseStale(sweepCtx, checkout, cfg.ReservationTTL, logger)

	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server error", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	<-quit

	go func() {
		<-quit
		logger.Warn("force exit")
		os.Exit(1)
	}()

	logger.Info("shutting down")
	stopSweep()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server shutdown error", "error", err)
	}

	if err := db.Close(gdb); err != nil {
		logger.Error("db close error", "error", err)
	}

	if err := prod.Close(); err != nil {
		logger.Error("kafka close error", "error", err)
	}

	logger.Info("shutdown complete")
}

// releaseStale periodically gives back stock held by orders whose payment was
// never completed.
func releaseStale(ctx context.Context, svc *service.CheckoutService, ttl time.Duration, logger *slog.Logger) {
	interval := ttl / 2
	if interval < time.Minute {
		interval = time.Minute
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if _, err := svc.ReleaseStale(ctx, time.Now().Add(-ttl)); err != nil {
				logger.Error("release_stale_failed", "error", err)
			}
		}
	}
}
