package routes

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/angelmondragon/ticketing-backend/api/controllers"
	cartcontrollers "github.com/angelmondragon/ticketing-backend/api/controllers/cart"
	purchasecontrollers "github.com/angelmondragon/ticketing-backend/api/controllers/purchases"
	ticketcontrollers "github.com/angelmondragon/ticketing-backend/api/controllers/tickets"
	webhookcontrollers "github.com/angelmondragon/ticketing-backend/api/controllers/webhooks"
	"github.com/angelmondragon/ticketing-backend/api/middleware"
	"github.com/angelmondragon/ticketing-backend/internal/cart"
	"github.com/angelmondragon/ticketing-backend/internal/purchases"
	"github.com/angelmondragon/ticketing-backend/internal/tickets"
	"github.com/angelmondragon/ticketing-backend/pkg/auth"
	"github.com/angelmondragon/ticketing-backend/pkg/config"
	"github.com/angelmondragon/ticketing-backend/pkg/enums"
	"github.com/angelmondragon/ticketing-backend/pkg/logger"
	"github.com/angelmondragon/ticketing-backend/pkg/redis"
)

type RouterParams struct {
	Config    *config.Config
	Logger    *logger.Logger
	DB        controllers.Pinger
	Redis     *redis.Client
	Gatherer  prometheus.Gatherer
	Cart      cart.Service
	Purchases purchases.Service
	Tickets   tickets.Service
	Webhook   webhookcontrollers.MercadoPagoWebhookService
}

func NewRouter(p RouterParams) http.Handler {
	cfg, logg := p.Config, p.Logger

	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
		middleware.CORS(cfg.App.CORSOrigins),
	)

	checks := []controllers.ReadinessCheck{{Name: "postgres", Pinger: p.DB}}
	if p.Redis != nil {
		checks = append(checks, controllers.ReadinessCheck{Name: "redis", Pinger: p.Redis})
	}
	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, logg, checks...))
	})
	if p.Gatherer != nil {
		r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(p.Gatherer, promhttp.HandlerOpts{}))
	}

	r.Post("/api/v1/webhooks/mercadopago", webhookcontrollers.MercadoPagoWebhook(p.Webhook, cfg.MercadoPago.WebhookSecret, logg))

	passthrough := func(next http.Handler) http.Handler { return next }
	idempotent, limitPurchases, limitTransfers, limitValidations := passthrough, passthrough, passthrough, passthrough
	if p.Redis != nil {
		rl := cfg.RateLimit
		idempotent = middleware.Idempotency(p.Redis, logg)
		limitPurchases = middleware.RateLimit(p.Redis, logg, middleware.RateRule{Name: "purchase-create", Limit: rl.PurchasesPerMinute, Window: time.Minute})
		limitTransfers = middleware.RateLimit(p.Redis, logg, middleware.RateRule{Name: "ticket-transfer", Limit: rl.TransfersPerHour, Window: time.Hour})
		limitValidations = middleware.RateLimit(p.Redis, logg, middleware.RateRule{Name: "ticket-validate", Limit: rl.ValidationsPerMin, Window: time.Minute})
	}
	doorStaff := middleware.RequireRole(logg, enums.RoleStaff, enums.RoleAdmin)

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.Auth(auth.NewVerifier(cfg.JWT), logg))

		r.Route("/cart", func(r chi.Router) {
			r.Get("/", cartcontrollers.CartFetch(p.Cart, logg))
			r.Delete("/", cartcontrollers.CartClear(p.Cart, logg))
			r.Post("/recompute", cartcontrollers.CartRecompute(p.Cart, logg))
			r.Post("/abandon", cartcontrollers.CartAbandon(p.Cart, logg))
			r.With(idempotent).Post("/lines", cartcontrollers.CartAddLine(p.Cart, logg))
			r.Patch("/lines/{lineId}", cartcontrollers.CartUpdateLine(p.Cart, logg))
			r.Delete("/lines/{lineId}", cartcontrollers.CartRemoveLine(p.Cart, logg))
		})

		r.Route("/purchases", func(r chi.Router) {
			r.With(limitPurchases, idempotent).Post("/", purchasecontrollers.PurchaseCreate(p.Purchases, logg))
			r.Get("/", purchasecontrollers.PurchaseList(p.Purchases, logg))
			r.Get("/{id}", purchasecontrollers.PurchaseDetail(p.Purchases, logg))
			r.Get("/{id}/status", purchasecontrollers.PurchaseStatus(p.Purchases, logg))
		})

		r.Route("/tickets", func(r chi.Router) {
			r.Get("/", ticketcontrollers.TicketList(p.Tickets, tickets.FilterMine, logg))
			r.Get("/unused", ticketcontrollers.TicketList(p.Tickets, tickets.FilterUnused, logg))
			r.Get("/transferred", ticketcontrollers.TicketList(p.Tickets, tickets.FilterTransferred, logg))
			r.With(doorStaff).Get("/qr/{qrCode}", ticketcontrollers.TicketByQR(p.Tickets, logg))
			r.With(doorStaff, limitValidations).Post("/validate", ticketcontrollers.TicketValidate(p.Tickets, logg))
			r.With(limitTransfers, idempotent).Post("/{id}/transfer", ticketcontrollers.TicketTransfer(p.Tickets, logg))
			r.Get("/{id}/qr.png", ticketcontrollers.TicketQRImage(p.Tickets, logg))
			r.With(middleware.RequireRole(logg, enums.RoleAdmin), idempotent).Post("/special", ticketcontrollers.TicketSpecial(p.Tickets, logg))
			r.With(middleware.RequireRole(logg, enums.RoleAdmin)).Get("/special", ticketcontrollers.TicketSpecialList(p.Tickets, logg))
		})
	})

	return r
}
