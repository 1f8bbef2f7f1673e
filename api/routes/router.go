package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/sanabelapp/sanabel-backend/api/controllers"
	webhookcontrollers "github.com/sanabelapp/sanabel-backend/api/controllers/webhooks"
	"github.com/sanabelapp/sanabel-backend/api/middleware"
	"github.com/sanabelapp/sanabel-backend/internal/ledger"
	"github.com/sanabelapp/sanabel-backend/internal/offers"
	"github.com/sanabelapp/sanabel-backend/internal/orders"
	"github.com/sanabelapp/sanabel-backend/internal/payments"
	"github.com/sanabelapp/sanabel-backend/internal/refunds"
	gatewaywebhook "github.com/sanabelapp/sanabel-backend/internal/webhooks/gateway"
	"github.com/sanabelapp/sanabel-backend/pkg/config"
	"github.com/sanabelapp/sanabel-backend/pkg/logger"
)

// Services bundles everything the router exposes over HTTP.
type Services struct {
	Orders       orders.Service
	Ledger       ledger.Service
	Payments     payments.Service
	Refunds      refunds.Service
	Offers       offers.Repository
	Webhooks     gatewaywebhook.Service
	WebhookGuard *gatewaywebhook.Guard
}

func NewRouter(
	cfg *config.Config,
	logg *logger.Logger,
	database controllers.Pinger,
	cache controllers.Pinger,
	registry *prometheus.Registry,
	svcs Services,
) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.CORS())
	r.Use(middleware.Recoverer(logg))
	r.Use(middleware.RequestID(logg))
	r.Use(middleware.Logging(logg))

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, logg, database, cache))
	})

	if registry != nil {
		r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))
	}

	r.Route("/api/v1/webhooks", func(r chi.Router) {
		r.Post("/gateway", webhookcontrollers.GatewayNotification(svcs.Webhooks, svcs.WebhookGuard, logg))
		r.Get("/gateway/redirect", webhookcontrollers.GatewayRedirect(svcs.Webhooks, logg))
	})

	r.Route("/api/v1", func(r chi.Router) {
		r.Route("/orders", func(r chi.Router) {
			r.Post("/", controllers.CreateOrder(svcs.Orders, logg))
			r.Get("/", controllers.OrderList(svcs.Orders, logg))
			r.Get("/{orderId}", controllers.OrderDetail(svcs.Orders, logg))
		})

		r.Get("/offers", controllers.OfferList(svcs.Offers, logg))

		r.Route("/wallet", func(r chi.Router) {
			r.Post("/charges", controllers.WalletCharge(svcs.Payments, logg))
			r.Get("/transactions", controllers.WalletTransactionList(svcs.Ledger, logg))
		})

		r.Route("/points", func(r chi.Router) {
			r.Post("/convert", controllers.ConvertPoints(svcs.Ledger, logg))
			r.Get("/transactions", controllers.PointsTransactionList(svcs.Ledger, logg))
		})

		r.Route("/refunds", func(r chi.Router) {
			r.Post("/", controllers.RefundRequest(svcs.Refunds, logg))
			r.Get("/pending", controllers.RefundListPending(svcs.Refunds, logg))
			r.Post("/{refundId}/approve", controllers.RefundApprove(svcs.Refunds, logg))
			r.Post("/{refundId}/reject", controllers.RefundReject(svcs.Refunds, logg))
		})
	})

	return r
}
