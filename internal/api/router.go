package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	mw "github.com/Giansimone-Coccia/Progetto-PA-sub000/internal/api/middleware"
	"github.com/Giansimone-Coccia/Progetto-PA-sub000/internal/api/response"
)

// Dependencies holds all handler and middleware dependencies for the router.
type Dependencies struct {
	Auth      *mw.Auth
	RateLimit *mw.RateLimit

	HealthHandler   http.HandlerFunc
	RegisterHandler http.HandlerFunc
	LoginHandler    http.HandlerFunc

	CreateDataset http.HandlerFunc
	ListDatasets  http.HandlerFunc
	GetDataset    http.HandlerFunc
	UpdateDataset http.HandlerFunc
	DeleteDataset http.HandlerFunc

	UploadContent http.HandlerFunc

	StartInference http.HandlerFunc
	JobStatus      http.HandlerFunc

	BalanceHandler  http.HandlerFunc
	RechargeHandler http.HandlerFunc
}

// NewRouter builds the Chi router with middleware stack and all routes.
func NewRouter(deps Dependencies) http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(mw.Logger)
	r.Use(mw.Recovery)

	// Public routes
	r.Get("/api/v1/health", orNotImplemented(deps.HealthHandler))
	r.Post("/api/v1/register", orNotImplemented(deps.RegisterHandler))
	r.Post("/api/v1/login", orNotImplemented(deps.LoginHandler))

	// Protected routes
	r.Group(func(r chi.Router) {
		r.Use(deps.Auth.Authenticate)
		r.Use(deps.RateLimit.Limit)

		r.Post("/api/v1/datasets", orNotImplemented(deps.CreateDataset))
		r.Get("/api/v1/datasets", orNotImplemented(deps.ListDatasets))
		r.Get("/api/v1/datasets/{datasetID}", orNotImplemented(deps.GetDataset))
		r.Patch("/api/v1/datasets/{datasetID}", orNotImplemented(deps.UpdateDataset))
		r.Delete("/api/v1/datasets/{datasetID}", orNotImplemented(deps.DeleteDataset))

		r.Post("/api/v1/datasets/{datasetID}/contents", orNotImplemented(deps.UploadContent))

		r.Post("/api/v1/start-inference", orNotImplemented(deps.StartInference))
		r.Get("/api/v1/inference/{jobID}", orNotImplemented(deps.JobStatus))

		r.Get("/api/v1/users/tokens", orNotImplemented(deps.BalanceHandler))

		// Admin routes
		r.Group(func(r chi.Router) {
			r.Use(deps.Auth.RequireAdmin)

			r.Post("/api/v1/users/recharge", orNotImplemented(deps.RechargeHandler))
		})
	})

	return r
}

// orNotImplemented returns the handler if non-nil, or a 501 placeholder.
func orNotImplemented(h http.HandlerFunc) http.HandlerFunc {
	if h != nil {
		return h
	}
	return func(w http.ResponseWriter, r *http.Request) {
		response.Error(w, http.StatusNotImplemented, "NOT_IMPLEMENTED", "Endpoint not yet implemented", nil)
	}
}
