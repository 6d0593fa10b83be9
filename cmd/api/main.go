package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.uber.org/multierr"
	"golang.org/x/sync/errgroup"

	"github.com/refurbmart/refurbmart-backend/api/routes"
	"github.com/refurbmart/refurbmart-backend/internal/cart"
	"github.com/refurbmart/refurbmart-backend/internal/catalog"
	"github.com/refurbmart/refurbmart-backend/internal/checkout"
	"github.com/refurbmart/refurbmart-backend/internal/orders"
	"github.com/refurbmart/refurbmart-backend/internal/payments"
	pricing "github.com/refurbmart/refurbmart-backend/pkg/checkout"
	"github.com/refurbmart/refurbmart-backend/pkg/config"
	"github.com/refurbmart/refurbmart-backend/pkg/db"
	"github.com/refurbmart/refurbmart-backend/pkg/logger"
	"github.com/refurbmart/refurbmart-backend/pkg/metrics"
	"github.com/refurbmart/refurbmart-backend/pkg/migrate"
	pkgredis "github.com/refurbmart/refurbmart-backend/pkg/redis"
	"github.com/refurbmart/refurbmart-backend/pkg/sslcommerz"
)

const shutdownTimeout = 15 * time.Second

func main() {
	logg := logger.New(logger.Options{ServiceName: "api"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	logg = logger.New(logger.Options{
		ServiceName: "api",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
		Format:      cfg.App.LogFormat,
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, logg); err != nil {
		logg.Error(context.Background(), "api server stopped unexpectedly", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *config.Config, logg *logger.Logger) (err error) {
	dbClient, err := db.New(ctx, cfg.DB, cfg.FeatureFlags.UseSQLite, logg)
	if err != nil {
		return err
	}
	defer func() {
		err = multierr.Append(err, dbClient.Close())
	}()

	if err := migrate.MaybeRunDev(ctx, cfg, logg, dbClient); err != nil {
		return err
	}

	svc := routes.Services{DBPinger: dbClient}

	if cfg.Redis.Enabled() {
		redisClient, redisErr := pkgredis.New(ctx, cfg.Redis, logg)
		if redisErr != nil {
			return redisErr
		}
		defer func() {
			err = multierr.Append(err, redisClient.Close())
		}()
		svc.RedisPinger = redisClient
		svc.Idempotency = redisClient
	} else {
		logg.Warn(ctx, "redis not configured; Idempotency-Key headers are ignored")
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	svc.Metrics = registry

	if err := wireServices(cfg, logg, dbClient, metrics.NewCheckoutMetrics(registry), &svc); err != nil {
		return err
	}

	server := &http.Server{
		Addr:              ":" + port(cfg),
		Handler:           routes.NewRouter(cfg, logg, svc),
		ReadHeaderTimeout: 10 * time.Second,
	}

	logCtx := logg.WithFields(ctx, map[string]any{
		"env":        cfg.App.Env,
		"addr":       server.Addr,
		"demo_mode":  cfg.Payments.DemoMode,
		"sslcommerz": cfg.SSLCommerz.Configured(),
	})
	logg.Info(logCtx, "starting api server")

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		logg.Info(logCtx, "shutting down api server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	})
	return g.Wait()
}

func wireServices(cfg *config.Config, logg *logger.Logger, dbClient *db.Client, m *metrics.CheckoutMetrics, svc *routes.Services) error {
	conn := dbClient.DB()
	productRepo := catalog.NewRepository(conn)
	cartRepo := cart.NewRepository(conn)
	orderRepo := orders.NewRepository(conn)
	paymentRepo := payments.NewRepository(conn)

	inventory, err := catalog.NewInventory(productRepo)
	if err != nil {
		return err
	}

	var (
		redirect payments.Gateway
		verifier payments.Verifier
	)
	if cfg.SSLCommerz.Configured() {
		client, err := sslcommerz.NewClient(
			cfg.SSLCommerz.Endpoint(),
			cfg.SSLCommerz.StoreID,
			cfg.SSLCommerz.StorePassword,
			sslcommerz.WithHTTPClient(&http.Client{Timeout: cfg.Checkout.GatewayTimeout}),
		)
		if err != nil {
			return err
		}
		gateway, err := payments.NewSSLCommerzGateway(client, cfg.SSLCommerz.CallbackBaseURL)
		if err != nil {
			return err
		}
		redirect, verifier = gateway, gateway
	}

	gateways, err := payments.NewRegistry(payments.NewMockGateway(), redirect, cfg.Payments.DemoMode)
	if err != nil {
		return err
	}
	processor, err := payments.NewProcessor(gateways, paymentRepo, orderRepo, payments.ProcessorConfig{
		Timeout:  cfg.Checkout.GatewayTimeout,
		Currency: cfg.Payments.Currency,
	}, logg, m)
	if err != nil {
		return err
	}

	taxRate, err := cfg.Checkout.Tax()
	if err != nil {
		return err
	}

	if svc.Cart, err = cart.NewService(cartRepo, productRepo, dbClient); err != nil {
		return err
	}
	if svc.Orders, err = orders.NewService(orderRepo, dbClient, inventory, logg); err != nil {
		return err
	}
	if svc.Payments, err = payments.NewService(orderRepo, dbClient, processor); err != nil {
		return err
	}
	if svc.PaymentCallbacks, err = payments.NewCallbackService(paymentRepo, orderRepo, dbClient, verifier, logg, m); err != nil {
		return err
	}
	svc.Checkout, err = checkout.NewService(checkout.Deps{
		Tx:        dbClient,
		Products:  productRepo,
		Cart:      cartRepo,
		Orders:    orderRepo,
		Inventory: inventory,
		Payments:  processor,
		Logger:    logg,
		Metrics:   m,
	}, checkout.Config{
		Policy:            pricing.Policy{ShippingFeeCents: cfg.Checkout.ShippingFeeCents, TaxRate: taxRate},
		DeliveryLeadTime:  cfg.Checkout.DeliveryLeadTime,
		OrderNumberPrefix: cfg.Checkout.OrderNumberPrefix,
	})
	return err
}

// port prefers the platform-assigned PORT over the configured one.
func port(cfg *config.Config) string {
	if p := os.Getenv("PORT"); p != "" {
		return p
	}
	return cfg.App.Port
}
