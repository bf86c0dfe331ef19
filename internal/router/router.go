package router

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/bencevas/orderboard/internal/config"
	"github.com/bencevas/orderboard/internal/handler"
	"github.com/bencevas/orderboard/internal/logger"
	"github.com/bencevas/orderboard/internal/webhook"
	"github.com/bencevas/orderboard/internal/ws"
)

// Store bundles the store capabilities the HTTP surface needs.
type Store interface {
	handler.OrderStore
	webhook.OrderCreator
}

// New creates a Chi router with all application routes wired up.
func New(cfg *config.Config, st Store, hub *ws.Hub) chi.Router {
	r := chi.NewRouter()

	// Standard middleware
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	// CORS configuration
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		ExposedHeaders:   []string{"Link"},
		AllowCredentials: true,
		MaxAge:           300, // 5 minutes
	}))

	// Public routes
	r.Get("/api/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"status":"ok","version":"1.0.0"}`))
	})

	// WebSocket push feed for dashboard clients
	r.Get("/ws/orders", func(w http.ResponseWriter, r *http.Request) {
		ws.ServeWS(hub, w, r)
	})

	// Order endpoints
	orderHandler := handler.NewOrderHandler(st)
	r.Route("/api/orders", orderHandler.RegisterRoutes)

	// Commerce platform ingestion
	shopifyHandler := webhook.NewShopifyHandler(st, cfg.ShopifyWebhookSecret)
	r.Route("/webhooks/shopify", shopifyHandler.RegisterRoutes)

	logger.L().Info("router initialized")
	return r
}
