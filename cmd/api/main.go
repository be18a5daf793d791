package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"storefront/internal/config"
	"storefront/internal/database"
	"storefront/internal/handler"
	"storefront/internal/notify"
	"storefront/internal/payment"
	"storefront/internal/repository"
	"storefront/internal/router"
	"storefront/internal/service"
	"storefront/internal/storage"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	// Initialize logger
	logger := config.NewLogger(cfg.Logger)
	logger.Info().Msg("starting storefront API server")

	// Create context for application lifecycle
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Initialize database connection pool
	pool, err := database.NewPool(ctx, cfg.Database, logger)
	if err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}
	defer pool.Close()

	// Initialize repositories
	productRepo := repository.NewProductRepository(pool, logger)
	cartRepo := repository.NewCartRepository(pool, logger)
	orderRepo := repository.NewOrderRepository(pool, logger)
	couponRepo := repository.NewCouponRepository(pool, logger)
	paymentRepo := repository.NewPaymentRepository(pool, logger)
	invoiceRepo := repository.NewInvoiceRepository(pool, logger)
	profileRepo := repository.NewProfileRepository(pool, logger)
	notificationRepo := repository.NewNotificationRepository(pool, logger)

	// Initialize image URL signer with local fallback
	var signer storage.ImageURLSigner
	if cfg.S3.Enabled {
		signer, err = storage.NewS3ImageSigner(ctx, cfg.S3.Bucket, cfg.S3.Region, cfg.S3.Prefix, cfg.S3.URLExpiry, logger)
		if err != nil {
			logger.Warn().Err(err).Msg("failed to initialise S3 image signer, serving keys as static paths")
			signer = storage.NewPassthroughSigner("/static/images")
		}
	} else {
		signer = storage.NewPassthroughSigner("/static/images")
		logger.Info().Msg("serving image keys as static paths (S3 disabled)")
	}

	// Initialize payment gateway
	gateway, err := payment.NewStripeGateway(cfg.Stripe, logger)
	if err != nil {
		return fmt.Errorf("failed to initialize payment gateway: %w", err)
	}

	// Initialize the notification queue. Redis keeps jobs across restarts
	// and lets a separate worker process drain them; without Redis the API
	// runs an in-process queue and worker.
	var queue notify.Queue
	var worker *notify.Worker
	if cfg.Redis.Enabled {
		queue, err = notify.NewRedisQueue(ctx, cfg.Redis, logger)
		if err != nil {
			return fmt.Errorf("failed to initialize redis queue: %w", err)
		}
	} else {
		queue = notify.NewMemoryQueue(1024)
		logger.Info().Msg("using in-process notification queue (Redis disabled)")

		var sender notify.Sender
		if cfg.Relay.URL != "" {
			sender = notify.NewRelaySender(cfg.Relay, logger)
		} else {
			sender = notify.NewLogSender(logger)
		}
		worker = notify.NewWorker(notificationRepo, queue, sender, logger)
		worker.Start(ctx)
		defer worker.Stop()
	}
	defer queue.Close()

	dispatcher := notify.NewDispatcher(notificationRepo, queue, logger)

	// Initialize services
	catalogService := service.NewCatalogService(productRepo, signer, logger)
	couponService := service.NewCouponService(couponRepo, cartRepo, profileRepo, logger)
	cartService := service.NewCartService(cartRepo, productRepo, profileRepo, couponRepo, couponService, logger)
	invoiceService := service.NewInvoiceService(invoiceRepo, orderRepo, productRepo, profileRepo, logger)
	checkoutService := service.NewCheckoutService(
		cartRepo, productRepo, orderRepo, couponRepo, paymentRepo, profileRepo,
		couponService, invoiceService, gateway, cfg.Stripe.Currency, logger,
	)
	orderService := service.NewOrderService(orderRepo, logger)
	profileService := service.NewProfileService(profileRepo, logger)
	notificationService := service.NewNotificationService(notificationRepo, productRepo, logger)

	// Initialize HTTP handlers
	handlers := router.Handlers{
		Product:      handler.NewProductHandler(catalogService, dispatcher, logger),
		Cart:         handler.NewCartHandler(cartService, logger),
		Checkout:     handler.NewCheckoutHandler(checkoutService, logger),
		Order:        handler.NewOrderHandler(orderService, invoiceService, logger),
		Coupon:       handler.NewCouponHandler(couponService, logger),
		Notification: handler.NewNotificationHandler(notificationService, logger),
		Address:      handler.NewAddressHandler(profileService, logger),
		Invoice:      handler.NewInvoiceHandler(invoiceService, logger),
	}

	// Initialize router
	mux := router.New(handlers, cfg.Auth.APIKey, logger)

	// Create HTTP server
	server := &http.Server{
		Addr:         cfg.Server.Address(),
		Handler:      mux,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Channel to listen for errors from the server
	serverErrors := make(chan error, 1)

	// Start HTTP server in a goroutine
	go func() {
		logger.Info().
			Str("address", cfg.Server.Address()).
			Msg("HTTP server started")
		serverErrors <- server.ListenAndServe()
	}()

	// Channel to listen for interrupt signals
	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)

	// Block until we receive a signal or an error
	select {
	case err := <-serverErrors:
		return fmt.Errorf("server error: %w", err)

	case sig := <-shutdown:
		logger.Info().
			Str("signal", sig.String()).
			Msg("shutdown signal received, starting graceful shutdown")

		// Create a context with timeout for shutdown
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer shutdownCancel()

		// Attempt graceful shutdown
		if err := server.Shutdown(shutdownCtx); err != nil {
			logger.Error().Err(err).Msg("failed to shutdown server gracefully")
			// Force close
			if closeErr := server.Close(); closeErr != nil {
				logger.Error().Err(closeErr).Msg("failed to close server")
			}
			return fmt.Errorf("server shutdown failed: %w", err)
		}

		logger.Info().Msg("server shutdown completed")
	}

	return nil
}
