package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/shopscript/apiserver/internal/services"
)

// Services bundles the use-cases exposed over HTTP.
type Services struct {
	Auth     *services.AuthService
	Recovery *services.RecoveryService
	Products *services.ProductService
	Orders   *services.OrderService
	Reviews  *services.ReviewService
	Settings *services.SettingService
	Uploads  *services.UploadService
}

// Mount registers the storefront API and the image file routes on r.
func Mount(r chi.Router, svc Services, verifier TokenVerifier) {
	authMiddleware := RequireAuth(verifier)

	r.Route("/api", func(r chi.Router) {
		r.Route("/users", func(r chi.Router) {
			UserRouter(r, svc.Auth, svc.Recovery, authMiddleware)
		})
		r.Route("/products", func(r chi.Router) {
			ProductRouter(r, svc.Products, authMiddleware)
		})
		r.Route("/orders", func(r chi.Router) {
			OrderRouter(r, svc.Orders, authMiddleware)
		})
		r.Route("/reviews", func(r chi.Router) {
			ReviewRouter(r, svc.Reviews, authMiddleware)
		})
		r.Route("/settings", func(r chi.Router) {
			SettingRouter(r, svc.Settings, authMiddleware)
		})
		r.Route("/uploads", func(r chi.Router) {
			UploadRouter(r, svc.Uploads, authMiddleware)
		})
	})
	r.Get("/uploads/*", NewUploadHandler(svc.Uploads).ServeImage)
}

// Healthz reports liveness.
func Healthz(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
