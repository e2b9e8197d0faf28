package http

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

// Handlers groups everything the router mounts.
type Handlers struct {
	Session  *SessionHandler
	Cart     *CartHandler
	Currency *CurrencyHandler
	Callback *CallbackHandler
}

func NewRouter(h Handlers, requestTimeout time.Duration) chi.Router {
	r := chi.NewRouter()

	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestID)
	r.Use(RequestIDMiddleware)
	r.Use(middleware.Timeout(requestTimeout))
	r.Use(middleware.Compress(5))
	r.Use(ClientIDMiddleware)

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	r.Route("/api/v1", func(r chi.Router) {
		r.Post("/session", h.Session.Ensure)

		r.Route("/cart", func(r chi.Router) {
			r.Get("/", h.Cart.GetCart)
			r.Delete("/", h.Cart.ClearCart)
			r.Get("/totals", h.Cart.Totals)
			r.Post("/items", h.Cart.AddItem)
			r.Put("/items/{product_id}", h.Cart.UpdateQuantity)
			r.Delete("/items/{product_id}", h.Cart.RemoveItem)
		})

		r.Route("/wishlist", func(r chi.Router) {
			r.Get("/", h.Cart.GetWishlist)
			r.Post("/", h.Cart.AddWishlistItem)
			r.Delete("/{product_id}", h.Cart.RemoveWishlistItem)
		})

		r.Get("/currency/convert", h.Currency.Convert)

		r.Route("/subscription", func(r chi.Router) {
			r.Post("/stash", h.Callback.StashPlan)
			r.Delete("/stash", h.Callback.AcknowledgeStash)
		})
	})

	r.Route("/callbacks", func(r chi.Router) {
		r.Get("/payment", h.Callback.PaymentCallback)
		r.Get("/subscription", h.Callback.SubscriptionCallback)
	})

	return r
}
