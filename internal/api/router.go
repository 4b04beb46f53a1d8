package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

func NewRouter(apiHandler *APIHandler, allowedOrigin string) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.Recoverer)    // Recover from panics
	r.Use(middleware.StripSlashes) // Ensure consistent path handling
	r.Use(CORSMiddleware(allowedOrigin))

	// All API routes live under /api
	r.Route("/api", func(r chi.Router) {
		r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusOK)
			w.Write([]byte(`{"status":"ok"}`))
		})

		// Public auth routes
		r.Post("/auth/request-otp", apiHandler.RequestOTPHandler)
		r.Post("/auth/verify-otp", apiHandler.VerifyOTPHandler)

		// Public chat routes
		r.Post("/chat", apiHandler.ChatHandler)
		r.Post("/chat/stream", apiHandler.ChatStreamHandler)
		r.Post("/chat/ocr", apiHandler.OCRHandler)
		r.Get("/chat/images", apiHandler.ImageSearchHandler)

		// Bearer-authenticated routes
		r.Group(func(r chi.Router) {
			r.Use(apiHandler.JWTAuthMiddleware)

			r.Get("/auth/me", apiHandler.MeHandler)

			r.Post("/razorpay/order", apiHandler.CreateOrderHandler)
			r.Post("/razorpay/verify", apiHandler.VerifyPaymentHandler)

			r.Get("/settings", apiHandler.GetSettingsHandler)
			r.Patch("/settings", apiHandler.PatchSettingsHandler)
			r.Delete("/settings/account", apiHandler.DeleteAccountHandler)
		})
	})

	return r
}
