package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"pizza-storefront/internal/addon"
	"pizza-storefront/internal/cart"
	"pizza-storefront/internal/catalog"
	"pizza-storefront/internal/checkout"
	"pizza-storefront/internal/combo"
	"pizza-storefront/internal/config"
	"pizza-storefront/internal/events"
	"pizza-storefront/internal/httpserver"
	"pizza-storefront/internal/logs"
	"pizza-storefront/internal/money"
	"pizza-storefront/internal/session"
	"pizza-storefront/internal/storage"
	"pizza-storefront/internal/view"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("load config: %v", err)
	}
	logger, err := logs.New(cfg.Log)
	if err != nil {
		log.Fatalf("init logger: %v", err)
	}

	ctx := context.Background()
	st, closeStorage, err := storage.Open(ctx, cfg.Storage, logger)
	if err != nil {
		logger.Error("open storage", "err", err)
		os.Exit(1)
	}
	defer closeStorage()

	bus := events.NewBus()
	if len(cfg.Kafka.Brokers) > 0 {
		publisher := events.NewKafkaPublisher(cfg.Kafka.Brokers, cfg.Kafka.Topic, logger)
		unsubscribe := bus.Subscribe(publisher.Handle)
		defer func() {
			unsubscribe()
			if err := publisher.Close(); err != nil {
				logger.Warn("close kafka publisher", "err", err)
			}
		}()
		logger.Info("cart events forwarded to kafka", "topic", cfg.Kafka.Topic)
	}

	catalogClient := catalog.New(cfg.Woo, cfg.Store, logger)
	comboClient := combo.NewClient(cfg.Combo.BaseURL, catalog.NewHTTPClient(cfg.Woo.Timeout), cfg.Combo.CacheTTL, logger)
	resolver := addon.NewResolver(comboClient, logger)

	deliveryFee := money.Amount(cfg.Checkout.DeliveryFee)
	carts := cart.NewRegistry(st, bus, logger)

	srv, err := httpserver.New(cfg.HTTP.Addr, logger, httpserver.Deps{
		Catalog:        catalogClient,
		Products:       view.NewLoader(catalogClient, comboClient, resolver, logger),
		Combos:         comboClient,
		Carts:          carts,
		Checkout:       checkout.New(st, carts, catalogClient, deliveryFee, logger),
		Sessions:       session.NewIssuer(cfg.HTTP.SessionTTL, cfg.HTTP.SecureCookies),
		Storage:        st,
		DeliveryFee:    deliveryFee,
		AllowedOrigins: cfg.HTTP.AllowedOrigins,
		AdminToken:     cfg.HTTP.AdminToken,
	})
	if err != nil {
		logger.Error("init server", "err", err)
		os.Exit(1)
	}

	serverErr := make(chan error, 1)
	go func() {
		logger.Info("starting http server", "addr", cfg.HTTP.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	stopCh := make(chan os.Signal, 1)
	signal.Notify(stopCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-stopCh:
		logger.Info("shutting down", "signal", sig.String())
	case err := <-serverErr:
		logger.Error("server error", "err", err)
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.HTTP.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("graceful shutdown failed", "err", err)
	} else {
		logger.Info("server stopped")
	}
}
