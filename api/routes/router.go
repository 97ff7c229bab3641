// Package routes assembles the HTTP surface: middleware chain, public
// endpoints, the authenticated storefront API, and the admin API.
package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/karimsaleh/freshbasket-backend/api/controllers"
	"github.com/karimsaleh/freshbasket-backend/api/middleware"
	authsvc "github.com/karimsaleh/freshbasket-backend/internal/auth"
	cartsvc "github.com/karimsaleh/freshbasket-backend/internal/cart"
	ordersvc "github.com/karimsaleh/freshbasket-backend/internal/orders"
	"github.com/karimsaleh/freshbasket-backend/internal/payments"
	"github.com/karimsaleh/freshbasket-backend/internal/products"
	"github.com/karimsaleh/freshbasket-backend/internal/staging"
	"github.com/karimsaleh/freshbasket-backend/pkg/config"
	"github.com/karimsaleh/freshbasket-backend/pkg/logger"
	"github.com/karimsaleh/freshbasket-backend/pkg/redis"
)

// RouterParams bundles everything the route table wires into handlers.
type RouterParams struct {
	Config       *config.Config
	Logger       *logger.Logger
	Redis        *redis.Client
	Gatherer     prometheus.Gatherer
	DBProbe      controllers.Prober
	RedisProbe   controllers.Prober
	AuthService  authsvc.Service
	ProductsRepo *products.Repository
	CartService  cartsvc.Service
	Staging      staging.Service
	Payments     payments.Service
	Orders       ordersvc.Service
	Materializer *ordersvc.Materializer
}

func NewRouter(p RouterParams) http.Handler {
	cfg := p.Config
	logg := p.Logger

	// A typed nil client must not reach the middleware as a non-nil interface.
	var idemStore redis.IdempotencyStore
	var limiterStore middleware.RateLimiterStore
	if p.Redis != nil {
		idemStore = p.Redis
		limiterStore = p.Redis
	}

	loginLimit := middleware.RateLimit(
		middleware.NewRateLimitPolicy("login", cfg.RateLimit.LoginWindow, cfg.RateLimit.LoginIPLimit, cfg.RateLimit.LoginPhoneLimit),
		limiterStore, logg,
	)
	lookupLimit := middleware.RateLimit(
		middleware.NewRateLimitPolicy("order-lookup", cfg.RateLimit.LookupWindow, cfg.RateLimit.LookupIPLimit, cfg.RateLimit.LookupPhoneLimit),
		limiterStore, logg,
	)

	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
		middleware.CORS(),
	)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, logg, p.DBProbe, p.RedisProbe))
	})

	if p.Gatherer != nil {
		r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(p.Gatherer, promhttp.HandlerOpts{}))
	}

	r.Route("/api/v1/auth", func(r chi.Router) {
		r.With(loginLimit).Post("/login", controllers.Login(p.AuthService, logg))
		r.Post("/guest", controllers.GuestSession(p.AuthService, logg))
		r.With(loginLimit).Post("/admin/login", controllers.AdminLogin(p.AuthService, logg))
	})

	// Product browsing stays open; carts and checkout need a token,
	// guest or registered.
	r.Route("/api/v1/products", func(r chi.Router) {
		r.Get("/", controllers.ProductsList(p.ProductsRepo, logg))
		r.Get("/{productID}", controllers.ProductGet(p.ProductsRepo, logg))
	})

	r.Route("/api/v1", func(r chi.Router) {
		r.Group(func(r chi.Router) {
			r.Use(middleware.Auth(cfg.JWT, logg))
			r.Use(middleware.Idempotency(idemStore, logg))

			r.Route("/cart", func(r chi.Router) {
				r.Get("/", controllers.CartGet(p.CartService, logg))
				r.Post("/items", controllers.CartAddItem(p.CartService, logg))
				r.Patch("/items/{productID}", controllers.CartUpdateItem(p.CartService, logg))
				r.Delete("/items/{productID}", controllers.CartRemoveItem(p.CartService, logg))
				r.Delete("/", controllers.CartClear(p.CartService, logg))
				r.Post("/merge", controllers.CartMerge(p.CartService, logg))
			})

			r.Route("/checkout", func(r chi.Router) {
				r.Post("/quote", controllers.CheckoutQuote(p.Staging, logg))
				r.Post("/", controllers.CheckoutStage(p.Staging, logg))
				r.Post("/confirm", controllers.CheckoutConfirm(p.Payments, p.Materializer, logg))
			})

			r.Route("/payments", func(r chi.Router) {
				r.Post("/qr", controllers.PaymentRequestCode(p.Payments, p.Staging, logg))
				r.Get("/{transactionID}/status", controllers.PaymentStatus(p.Payments, logg))
			})

			r.Route("/orders", func(r chi.Router) {
				r.Get("/", controllers.OrdersListMine(p.Orders, logg))
				r.Get("/{orderID}", controllers.OrderGetMine(p.Orders, logg))
			})
		})

		// Guest order lookup works without a token. The phone-keyed rate
		// limit keeps it from being usable for order enumeration.
		r.With(middleware.OptionalAuth(cfg.JWT, logg), lookupLimit).
			Post("/orders/lookup", controllers.OrderGuestLookup(p.Orders, logg))
	})

	r.Route("/api/v1/admin", func(r chi.Router) {
		r.Use(middleware.Auth(cfg.JWT, logg))
		r.Use(middleware.RequireAdmin(logg))
		r.Use(middleware.Idempotency(idemStore, logg))

		r.Route("/orders", func(r chi.Router) {
			r.Get("/", controllers.AdminOrdersList(p.Orders, logg))
			r.Get("/{orderID}", controllers.AdminOrderGet(p.Orders, logg))
			r.Patch("/{orderID}/status", controllers.AdminOrderUpdateStatus(p.Orders, logg))
		})
	})

	return r
}
