package main

import (
	"context"
	"net/http"
	"os"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/karimsaleh/freshbasket-backend/api/routes"
	"github.com/karimsaleh/freshbasket-backend/internal/auth"
	"github.com/karimsaleh/freshbasket-backend/internal/cart"
	"github.com/karimsaleh/freshbasket-backend/internal/orders"
	"github.com/karimsaleh/freshbasket-backend/internal/payments"
	"github.com/karimsaleh/freshbasket-backend/internal/pricing"
	"github.com/karimsaleh/freshbasket-backend/internal/products"
	"github.com/karimsaleh/freshbasket-backend/internal/staging"
	"github.com/karimsaleh/freshbasket-backend/internal/users"
	"github.com/karimsaleh/freshbasket-backend/pkg/config"
	"github.com/karimsaleh/freshbasket-backend/pkg/db"
	"github.com/karimsaleh/freshbasket-backend/pkg/gateway"
	"github.com/karimsaleh/freshbasket-backend/pkg/logger"
	"github.com/karimsaleh/freshbasket-backend/pkg/metrics"
	"github.com/karimsaleh/freshbasket-backend/pkg/migrate"
	"github.com/karimsaleh/freshbasket-backend/pkg/redis"
)

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
	})

	dbClient, err := db.New(context.Background(), cfg.DB, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap database", err)
		os.Exit(1)
	}
	defer func() {
		if err := dbClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing database", err)
		}
	}()

	if err := migrate.MaybeRunDev(context.Background(), cfg, logg, dbClient); err != nil {
		logg.Error(context.Background(), "failed to run dev migrations", err)
		os.Exit(1)
	}

	redisClient, err := redis.New(context.Background(), cfg.Redis, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap redis", err)
		os.Exit(1)
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing redis", err)
		}
	}()

	paymentMetrics := metrics.NewPaymentMetrics(prometheus.DefaultRegisterer)

	gatewayClient, err := gateway.NewClient(cfg.Gateway, paymentMetrics)
	if err != nil {
		logg.Error(context.Background(), "failed to create payment gateway client", err)
		os.Exit(1)
	}

	productsRepo := products.NewRepository(dbClient.DB())

	guestCarts, err := cart.NewGuestRepository(redisClient, cfg.Checkout.GuestCartTTL)
	if err != nil {
		logg.Error(context.Background(), "failed to create guest cart repository", err)
		os.Exit(1)
	}
	cartService, err := cart.NewService(cart.NewUserRepository(dbClient.DB()), guestCarts, productsRepo)
	if err != nil {
		logg.Error(context.Background(), "failed to create cart service", err)
		os.Exit(1)
	}

	authService, err := auth.NewService(auth.ServiceParams{
		UserRepo:   users.NewRepository(dbClient.DB()),
		CartMerger: cartService,
		JWTConfig:  cfg.JWT,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create auth service", err)
		os.Exit(1)
	}

	rates, err := pricing.RatesFromConfig(cfg.Checkout)
	if err != nil {
		logg.Error(context.Background(), "invalid pricing configuration", err)
		os.Exit(1)
	}

	stagingStore, err := staging.NewRedisStore(redisClient)
	if err != nil {
		logg.Error(context.Background(), "failed to create staging store", err)
		os.Exit(1)
	}
	stagingService, err := staging.NewService(cartService, stagingStore, rates, cfg.Checkout.StagingTTL)
	if err != nil {
		logg.Error(context.Background(), "failed to create staging service", err)
		os.Exit(1)
	}

	txnStore, err := payments.NewRedisTransactionStore(redisClient, 0)
	if err != nil {
		logg.Error(context.Background(), "failed to create transaction store", err)
		os.Exit(1)
	}
	paymentService, err := payments.NewService(
		gatewayClient,
		txnStore,
		logg,
		paymentMetrics,
		cfg.FeatureFlags.AllowMockPayments,
		cfg.Gateway.CodeTTL,
	)
	if err != nil {
		logg.Error(context.Background(), "failed to create payment service", err)
		os.Exit(1)
	}

	ordersRepo := orders.NewRepository(dbClient.DB())
	ordersService, err := orders.NewService(ordersRepo, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to create orders service", err)
		os.Exit(1)
	}
	materializer, err := orders.NewMaterializer(stagingStore, ordersRepo, cartService, logg, paymentMetrics)
	if err != nil {
		logg.Error(context.Background(), "failed to create order materializer", err)
		os.Exit(1)
	}

	port := os.Getenv("PORT")
	if port == "" {
		port = cfg.App.Port
	}
	addr := ":" + port
	ctx := logg.WithFields(context.Background(), map[string]any{
		"env":  cfg.App.Env,
		"addr": addr,
	})
	logg.Info(ctx, "starting api server")

	server := &http.Server{
		Addr: addr,
		Handler: routes.NewRouter(routes.RouterParams{
			Config:       cfg,
			Logger:       logg,
			Redis:        redisClient,
			Gatherer:     prometheus.DefaultGatherer,
			DBProbe:      func(r *http.Request) error { return dbClient.Ping(r.Context()) },
			RedisProbe:   func(r *http.Request) error { return redisClient.Ping(r.Context()) },
			AuthService:  authService,
			ProductsRepo: productsRepo,
			CartService:  cartService,
			Staging:      stagingService,
			Payments:     paymentService,
			Orders:       ordersService,
			Materializer: materializer,
		}),
	}

	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logg.Error(ctx, "api server stopped unexpectedly", err)
		os.Exit(1)
	}
}
