// Command server runs the PantryPulse event distribution service: queue
// token lifecycle, the domain event bus, the SSE live stream, and webhook
// fan-out.
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"pantrypulse/internal/audit"
	"pantrypulse/internal/events"
	eventshandler "pantrypulse/internal/events/handler"
	eventsmetrics "pantrypulse/internal/events/metrics"
	httpapi "pantrypulse/internal/http"
	inventoryhandler "pantrypulse/internal/inventory/handler"
	inventoryservice "pantrypulse/internal/inventory/service"
	inventorystore "pantrypulse/internal/inventory/store"
	"pantrypulse/internal/platform/config"
	"pantrypulse/internal/platform/httpserver"
	"pantrypulse/internal/platform/logger"
	"pantrypulse/internal/platform/metrics"
	"pantrypulse/internal/platform/postgres"
	"pantrypulse/internal/platform/redis"
	queuehandler "pantrypulse/internal/queue/handler"
	queuemetrics "pantrypulse/internal/queue/metrics"
	queueservice "pantrypulse/internal/queue/service"
	queuestore "pantrypulse/internal/queue/store"
	sitehandler "pantrypulse/internal/site/handler"
	siteservice "pantrypulse/internal/site/service"
	sitestore "pantrypulse/internal/site/store"
	"pantrypulse/internal/webhook/dispatcher"
	webhookhandler "pantrypulse/internal/webhook/handler"
	webhookmetrics "pantrypulse/internal/webhook/metrics"
	webhookservice "pantrypulse/internal/webhook/service"
	webhookstore "pantrypulse/internal/webhook/store"
)

// webhookRegistry is what both the registry service and the dispatcher need
// from the webhook store.
type webhookRegistry interface {
	webhookservice.RegistryStore
	dispatcher.SubscriptionSource
}

func main() {
	cfg := config.FromEnv()
	log := logger.New()

	db, err := postgres.Open(cfg.DatabaseURL)
	if err != nil {
		log.Error("postgres connection failed", "error", err)
		os.Exit(1)
	}
	if db != nil {
		defer db.Close()
	}

	redisClient, err := redis.New(cfg.Redis)
	if err != nil {
		log.Error("redis connection failed", "error", err)
		os.Exit(1)
	}
	if redisClient != nil {
		defer redisClient.Close()
	}

	// Stores fall back to memory when no database is configured.
	var (
		tokens queueservice.TokenStore
		sites  sitestore.Store
		items  inventoryservice.ItemStore
		hooks  webhookRegistry
		trail  audit.Store
	)
	if db != nil {
		tokens = queuestore.NewPostgres(db)
		sites = sitestore.NewPostgres(db)
		items = inventorystore.NewPostgres(db)
		hooks = webhookstore.NewPostgres(db)
		trail = audit.NewPostgresStore(db)
	} else {
		log.Warn("no DATABASE_URL set, using in-memory stores")
		tokens = queuestore.NewInMemory()
		sites = sitestore.NewInMemory()
		items = inventorystore.NewInMemory()
		hooks = webhookstore.NewInMemory()
		trail = audit.NewInMemoryStore()
	}
	if redisClient != nil {
		sites = sitestore.NewCached(sites, redisClient.Client, log)
	}

	bus := events.NewBus(
		events.WithSubscriberBuffer(cfg.EventBuffer),
		events.WithLogger(log),
		events.WithMetrics(eventsmetrics.New()),
	)
	defer bus.Close()

	auditPub := audit.NewPublisher(trail,
		audit.WithAsyncBuffer(cfg.AuditBuffer),
		audit.WithPublisherLogger(log),
	)
	defer auditPub.Close()

	queueSvc := queueservice.New(tokens, sites, bus,
		queueservice.WithLogger(log),
		queueservice.WithMetrics(queuemetrics.New()),
		queueservice.WithAudit(auditPub),
	)

	siteSvc := siteservice.New(sites, bus,
		siteservice.WithLogger(log),
		siteservice.WithAudit(auditPub),
	)

	inventorySvc := inventoryservice.New(items, bus,
		inventoryservice.WithLogger(log),
	)

	webhookSvc := webhookservice.New(hooks, log)

	dispatcherCtx, stopDispatcher := context.WithCancel(context.Background())
	d := dispatcher.New(bus, hooks, log,
		dispatcher.WithHTTPClient(&http.Client{Timeout: cfg.WebhookTimeout}),
		dispatcher.WithMetrics(webhookmetrics.New()),
	)
	dispatcherDone := make(chan struct{})
	go func() {
		defer close(dispatcherDone)
		if err := d.Run(dispatcherCtx); err != nil && !errors.Is(err, context.Canceled) {
			log.Error("webhook dispatcher stopped", "error", err)
		}
	}()

	var checks []httpapi.HealthCheck
	if db != nil {
		checks = append(checks, httpapi.HealthCheck{Name: "postgres", Check: db.PingContext})
	}
	if redisClient != nil {
		checks = append(checks, httpapi.HealthCheck{Name: "redis", Check: redisClient.Health})
	}

	router := httpapi.NewRouter(log, metrics.NewHTTP(), checks,
		queuehandler.New(queueSvc, log),
		sitehandler.New(siteSvc, log),
		inventoryhandler.New(inventorySvc, log),
		eventshandler.New(bus, log, eventshandler.WithHeartbeatInterval(cfg.HeartbeatInterval)),
		webhookhandler.New(webhookSvc, log),
	)

	srv := httpserver.New(cfg.Addr, router)

	go func() {
		log.Info("starting pantrypulse", "addr", cfg.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	log.Info("shutting down")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Error("graceful shutdown failed", "error", err)
	}

	stopDispatcher()
	<-dispatcherDone
}
