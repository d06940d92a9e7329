package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	mw "github.com/seqlabs/genoportal/internal/api/middleware"
	"github.com/seqlabs/genoportal/internal/api/response"
)

// Dependencies holds all handler and middleware dependencies for the router.
type Dependencies struct {
	Auth      *mw.Auth
	RateLimit *mw.RateLimit

	HealthHandler  http.HandlerFunc
	MetricsHandler http.Handler

	RegisterHandler http.HandlerFunc
	LoginHandler    http.HandlerFunc
	LogoutHandler   http.HandlerFunc

	ListHistories http.HandlerFunc
	CreateHistory http.HandlerFunc
	ListDatasets  http.HandlerFunc

	UploadHandler        http.HandlerFunc
	StartAnalysis        http.HandlerFunc
	RecordAnalysis       http.HandlerFunc
	HistoryHandler       http.HandlerFunc
	HistoryWithResults   http.HandlerFunc
	ViewResultHandler    http.HandlerFunc
}

// NewRouter builds the Chi router with middleware stack and all routes.
func NewRouter(deps Dependencies) http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(mw.Logger)
	r.Use(mw.Recovery)
	r.Use(mw.Metrics)

	// Public routes
	r.Get("/api/v1/health", orNotImplemented(deps.HealthHandler))
	if deps.MetricsHandler != nil {
		r.Handle("/metrics", deps.MetricsHandler)
	}
	r.Post("/api/v1/auth/register", orNotImplemented(deps.RegisterHandler))
	r.Post("/api/v1/auth/login", orNotImplemented(deps.LoginHandler))

	// Session-protected routes
	r.Group(func(r chi.Router) {
		r.Use(deps.Auth.Authenticate)
		r.Use(deps.RateLimit.Limit)

		r.Post("/api/v1/auth/logout", orNotImplemented(deps.LogoutHandler))

		r.Get("/api/v1/histories", orNotImplemented(deps.ListHistories))
		r.Post("/api/v1/histories", orNotImplemented(deps.CreateHistory))
		r.Get("/api/v1/histories/{historyID}/datasets", orNotImplemented(deps.ListDatasets))

		r.Post("/api/v1/upload", orNotImplemented(deps.UploadHandler))
		r.Post("/api/v1/analyses", orNotImplemented(deps.StartAnalysis))
		r.Post("/api/v1/analyses/record", orNotImplemented(deps.RecordAnalysis))
		r.Get("/api/v1/analyses", orNotImplemented(deps.HistoryHandler))
		r.Get("/api/v1/analyses/results", orNotImplemented(deps.HistoryWithResults))

		r.Get("/api/v1/results/{resultID}/view", orNotImplemented(deps.ViewResultHandler))
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
