package http

import (
	"net/http"

	"pcbank/transport/http/handler"
	"pcbank/transport/http/middleware"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
)

// RouterConfig carries the transport settings
type RouterConfig struct {
	GatewayKey     string
	AllowedOrigins []string
}

// NewRouter creates and configures the HTTP router
func NewRouter(h *handler.Handler, cfg RouterConfig) *chi.Mux {
	r := chi.NewRouter()

	// Global middleware stack
	r.Use(middleware.RequestID)
	r.Use(middleware.Recovery)
	r.Use(chimw.RealIP)
	r.Use(middleware.Logging)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: cfg.AllowedOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{
			"Accept", "Content-Type", middleware.RequestIDHeader, middleware.HeaderGatewayKey,
			middleware.HeaderActorID, middleware.HeaderActorRole, middleware.HeaderActorTurma,
			middleware.HeaderActorCargos, middleware.HeaderActorBlocked,
		},
		ExposedHeaders: []string{middleware.RequestIDHeader},
		MaxAge:         300,
	}))

	// Probes bypass the gateway
	r.Get("/health", h.Health)
	r.Get("/ready", h.Ready)

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.GatewayAuth(cfg.GatewayKey))
		r.Use(middleware.Actor)

		r.Route("/store", func(r chi.Router) {
			r.Post("/items/{itemID}/purchase", h.Purchase)
			r.Post("/collective-purchases", h.CollectivePurchase)
		})

		r.Route("/market/listings", func(r chi.Router) {
			r.Post("/", h.ListItem)
			r.Post("/{listingID}/buy", h.BuyListing)
			r.Post("/{listingID}/cancel", h.CancelListing)
		})

		r.Post("/transfers", h.Transfer)

		r.Route("/trades", func(r chi.Router) {
			r.Post("/", h.ProposeTrade)
			r.Post("/{tradeID}/accept", h.AcceptTrade)
			r.Post("/{tradeID}/cancel", h.CancelTrade)
			r.Post("/{tradeID}/reject", h.RejectTrade)
		})

		r.Route("/loans", func(r chi.Router) {
			r.Get("/credit-line", h.CreditLine)
			r.Post("/", h.IssueLoan)
			r.Post("/{loanID}/repay", h.RepayLoan)
		})

		r.Post("/roulettes/{rouletteID}/spin", h.Spin)

		r.Route("/tickets", func(r chi.Router) {
			r.Post("/", h.IssueTicket)
			r.Post("/validate", h.ValidateTicket)
			r.Post("/{ticketID}/cancel", h.CancelTicket)
		})

		r.Post("/gifts/{giftID}/claim", h.ClaimGift)
		r.Get("/stats/public", h.PublicStats)
	})

	return r
}
