package http

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/oozye1/florist-sub000/internal/domain"
	"github.com/oozye1/florist-sub000/internal/service"
	"github.com/oozye1/florist-sub000/pkg/health"
	"github.com/oozye1/florist-sub000/pkg/middleware"
)

// RouterConfig bundles the services and settings the router needs.
type RouterConfig struct {
	Cart      *service.CartService
	Catalog   *service.CatalogService
	Promotion *service.PromotionService
	Checkout  *service.CheckoutService
	Orders    *service.OrderService
	Analytics *service.AnalyticsService
	Zones     *domain.ZonePolicy

	Health      *health.Handler
	AdminToken  string
	PprofCIDRs  []string
	Environment string
	CORSOrigins []string
}

// NewRouter creates a chi router with the storefront and back-office routes
// registered.
func NewRouter(cfg RouterConfig, logger *slog.Logger) http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(middleware.Recovery(logger))
	r.Use(chimw.Compress(5))
	r.Use(chimw.Timeout(30 * time.Second))
	r.Use(middleware.RequestLogging(logger))
	r.Use(middleware.PrometheusMetrics("florist"))
	r.Use(middleware.Tracing("florist"))
	r.Use(middleware.RequestLogger(logger))

	corsCfg := middleware.DefaultCORSConfig()
	corsCfg.Environment = cfg.Environment
	if len(cfg.CORSOrigins) > 0 {
		corsCfg.AllowedOrigins = cfg.CORSOrigins
	}
	corsCfg.AllowedHeaders = append(corsCfg.AllowedHeaders, "X-Session-ID")
	r.Use(middleware.CORS(corsCfg))

	// Health check endpoints
	r.Get("/health/live", cfg.Health.LivenessHandler())
	r.Get("/health/ready", cfg.Health.ReadinessHandler())
	r.Get("/metrics", func(w http.ResponseWriter, r *http.Request) {
		promhttp.Handler().ServeHTTP(w, r)
	})

	// Pprof debug endpoints with IP allowlist.
	middleware.RegisterPprof(r, cfg.PprofCIDRs, logger)

	cartHandler := NewCartHandler(cfg.Cart, logger)
	productHandler := NewProductHandler(cfg.Catalog, logger)
	promotionHandler := NewPromotionHandler(cfg.Promotion, logger)
	checkoutHandler := NewCheckoutHandler(cfg.Checkout, cfg.Zones, logger)
	orderHandler := NewOrderHandler(cfg.Orders, logger)
	analyticsHandler := NewAnalyticsHandler(cfg.Analytics, logger)

	// Storefront API
	r.Route("/api/v1", func(r chi.Router) {
		r.Use(ContentTypeJSON)

		// Catalogue responses are safe to cache briefly at the edge.
		r.With(middleware.CacheControl(60)).Get("/products", productHandler.ListProducts)
		r.With(middleware.CacheControl(60)).Get("/products/{idOrSlug}", productHandler.GetProduct)

		r.With(middleware.CacheControl(300)).Get("/delivery-zones", checkoutHandler.ListDeliveryZones)
		r.Get("/gift-cards/{code}/balance", promotionHandler.GetGiftCardBalance)
		r.Get("/orders/{number}", orderHandler.TrackOrder)

		// Session-scoped routes
		r.Group(func(r chi.Router) {
			r.Use(SessionFromHeader)

			r.Route("/cart", func(r chi.Router) {
				r.Get("/", cartHandler.GetCart)
				r.Delete("/", cartHandler.ClearCart)

				r.Post("/items", cartHandler.AddItem)
				r.Patch("/items/{productID}", cartHandler.UpdateItemQuantity)
				r.Delete("/items/{productID}", cartHandler.RemoveItem)

				r.Post("/coupon", cartHandler.ApplyCoupon)
				r.Delete("/coupon", cartHandler.RemoveCoupon)
			})

			r.Post("/checkout/quote", checkoutHandler.Quote)
			r.Post("/checkout", checkoutHandler.Checkout)
		})

		// Back-office API
		r.Route("/admin", func(r chi.Router) {
			r.Use(middleware.Auth(AdminTokenValidator(cfg.AdminToken)))
			r.Use(middleware.RequireRole("admin"))

			r.Get("/products", productHandler.ListAllProducts)
			r.Post("/products", productHandler.CreateProduct)
			r.Post("/products/autofill", productHandler.AutofillProduct)
			r.Put("/products/{id}", productHandler.UpdateProduct)
			r.Delete("/products/{id}", productHandler.DeactivateProduct)

			r.Post("/coupons", promotionHandler.CreateCoupon)
			r.Get("/coupons", promotionHandler.ListCoupons)
			r.Get("/coupons/{id}", promotionHandler.GetCoupon)
			r.Patch("/coupons/{id}", promotionHandler.UpdateCoupon)

			r.Post("/gift-cards", promotionHandler.CreateGiftCard)
			r.Get("/gift-cards", promotionHandler.ListGiftCards)
			r.Put("/gift-cards/{id}/active", promotionHandler.SetGiftCardActive)

			r.Get("/orders", orderHandler.ListOrders)
			r.Get("/orders/{id}", orderHandler.GetOrder)
			r.Patch("/orders/{id}/status", orderHandler.UpdateStatus)
			r.Patch("/orders/{id}/payment-status", orderHandler.UpdatePaymentStatus)
			r.Get("/orders/{id}/history", orderHandler.StatusHistory)

			r.Get("/analytics/summary", analyticsHandler.Summary)
			r.Get("/analytics/revenue", analyticsHandler.Revenue)
			r.Get("/analytics/top-products", analyticsHandler.TopProducts)
			r.Get("/analytics/low-stock", analyticsHandler.LowStock)
		})
	})

	return r
}
