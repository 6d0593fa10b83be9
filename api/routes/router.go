package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/refurbmart/refurbmart-backend/api/controllers"
	cartcontrollers "github.com/refurbmart/refurbmart-backend/api/controllers/cart"
	ordercontrollers "github.com/refurbmart/refurbmart-backend/api/controllers/orders"
	paymentcontrollers "github.com/refurbmart/refurbmart-backend/api/controllers/payments"
	"github.com/refurbmart/refurbmart-backend/api/middleware"
	"github.com/refurbmart/refurbmart-backend/internal/cart"
	checkoutsvc "github.com/refurbmart/refurbmart-backend/internal/checkout"
	"github.com/refurbmart/refurbmart-backend/internal/orders"
	"github.com/refurbmart/refurbmart-backend/internal/payments"
	"github.com/refurbmart/refurbmart-backend/pkg/config"
	"github.com/refurbmart/refurbmart-backend/pkg/enums"
	"github.com/refurbmart/refurbmart-backend/pkg/logger"
	pkgredis "github.com/refurbmart/refurbmart-backend/pkg/redis"
)

// Services bundles what the HTTP layer calls into. Nil pingers and a nil
// idempotency store are allowed.
type Services struct {
	DBPinger         controllers.Pinger
	RedisPinger      controllers.Pinger
	Idempotency      pkgredis.IdempotencyStore
	Metrics          prometheus.Gatherer
	Cart             cart.Service
	Checkout         checkoutsvc.Service
	Orders           orders.Service
	Payments         payments.Service
	PaymentCallbacks *payments.CallbackService
}

func NewRouter(cfg *config.Config, logg *logger.Logger, svc Services) http.Handler {
	r := chi.NewRouter()
	r.Use(
		middleware.RequestID(logg),
		middleware.Recoverer(logg),
		middleware.Logging(logg),
		middleware.CORS(append([]string{cfg.SSLCommerz.FrontendURL}, cfg.App.CORSOrigins...)...),
	)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, logg, svc.DBPinger, svc.RedisPinger))
	})

	if svc.Metrics != nil {
		r.Handle("/metrics", promhttp.HandlerFor(svc.Metrics, promhttp.HandlerOpts{}))
	}

	idempotent := middleware.Idempotency(svc.Idempotency, logg)
	buyerOnly := middleware.RequireRole(logg, enums.AccountRoleBuyer)
	sellerOnly := middleware.RequireRole(logg, enums.AccountRoleSeller)

	r.Route("/api", func(r chi.Router) {
		// The gateway posts here without a bearer token; Handle re-validates
		// every success with the gateway before crediting the order.
		callback := paymentcontrollers.SSLCommerzCallback(callbackHandler(svc.PaymentCallbacks), cfg.SSLCommerz.FrontendURL, logg)
		r.Get("/payments/sslcommerz/{kind}", callback)
		r.Post("/payments/sslcommerz/{kind}", callback)

		r.Group(func(r chi.Router) {
			r.Use(middleware.Auth(cfg.JWT, logg))

			r.Route("/cart", func(r chi.Router) {
				r.Use(buyerOnly)
				r.Get("/", cartcontrollers.CartFetch(svc.Cart, logg))
				r.Delete("/", cartcontrollers.CartClear(svc.Cart, logg))
				r.With(idempotent).Post("/items", cartcontrollers.CartAddItem(svc.Cart, logg))
				r.Put("/items/{itemId}", cartcontrollers.CartUpdateItem(svc.Cart, logg))
				r.Delete("/items/{itemId}", cartcontrollers.CartRemoveItem(svc.Cart, logg))
			})

			r.Route("/orders", func(r chi.Router) {
				r.Get("/", ordercontrollers.List(svc.Orders, logg))
				r.With(buyerOnly, idempotent).Post("/create", ordercontrollers.Create(svc.Checkout, logg))
				r.Get("/{id}", ordercontrollers.Detail(svc.Orders, logg))
				r.With(sellerOnly).Put("/{id}/status", ordercontrollers.UpdateStatus(svc.Orders, logg))
				r.With(buyerOnly, idempotent).Post("/{id}/cancel", ordercontrollers.Cancel(svc.Orders, logg))
				r.With(buyerOnly, idempotent).Post("/{id}/payments", ordercontrollers.RetryPayment(svc.Payments, logg))
			})
		})
	})

	return r
}

// callbackHandler keeps a nil service from becoming a non-nil interface.
func callbackHandler(svc *payments.CallbackService) paymentcontrollers.CallbackHandler {
	if svc == nil {
		return nil
	}
	return svc
}
