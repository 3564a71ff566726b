package http

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/JayanthMM5/Odooxnmit-Team-CTRL-C-V/internal/metrics"
)

type RouterDeps struct {
	Accounts       Accounts
	Catalog        Catalog
	Cart           CartLedger
	Checkout       CheckoutEngine
	Log            *zap.Logger
	Metrics        *metrics.Metrics
	RequestTimeout time.Duration
}

func NewRouter(deps RouterDeps) chi.Router {
	authHandler := NewAuthHandler(deps.Accounts, deps.RequestTimeout)
	productHandler := NewProductHandler(deps.Catalog, deps.RequestTimeout)
	cartHandler := NewCartHandler(deps.Cart, deps.RequestTimeout)
	checkoutHandler := NewCheckoutHandler(deps.Checkout, deps.RequestTimeout)

	r := chi.NewRouter()

	// Global middleware
	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestID)
	r.Use(RequestIDMiddleware)
	r.Use(RequestLogger(deps.Log, deps.Metrics))
	r.Use(middleware.Timeout(deps.RequestTimeout))
	r.Use(middleware.Compress(5))

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	if deps.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", deps.Metrics.Handler())
	}

	r.Route("/api/v1", func(r chi.Router) {
		r.Post("/auth/register", authHandler.Register)
		r.Post("/auth/login", authHandler.Login)

		r.Get("/categories", productHandler.ListCategories)
		r.Get("/products", productHandler.ListProducts)
		r.Get("/products/{id}", productHandler.GetProduct)

		r.Group(func(r chi.Router) {
			r.Use(AuthMiddleware(deps.Accounts))

			r.Get("/me", authHandler.GetProfile)
			r.Put("/me", authHandler.UpdateProfile)

			r.Post("/products", productHandler.CreateProduct)
			r.Put("/products/{id}", productHandler.UpdateProduct)
			r.Delete("/products/{id}", productHandler.DeleteProduct)

			r.Route("/cart", func(r chi.Router) {
				r.Get("/", cartHandler.GetCart)
				r.Post("/items", cartHandler.AddItem)
				r.Put("/items/{entry_id}", cartHandler.UpdateQuantity)
				r.Delete("/products/{product_id}", cartHandler.RemoveItem)
			})

			r.Post("/checkout", checkoutHandler.Checkout)
			r.Get("/purchases", checkoutHandler.ListPurchases)
		})
	})

	return r
}
